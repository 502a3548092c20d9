package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
)

type movieDoc struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Title         string        `bson:"title"`
	Genre         string        `bson:"genre"`
	ReleaseYear   int           `bson:"releaseYear"`
	AverageRating float64       `bson:"averageRating"`
	CreatedBy     bson.ObjectID `bson:"createdBy"`
	CreatedAt     time.Time     `bson:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt"`
}

func (d movieDoc) toModel() model.Movie {
	return model.Movie{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Genre:         d.Genre,
		ReleaseYear:   d.ReleaseYear,
		AverageRating: d.AverageRating,
		CreatedBy:     d.CreatedBy.Hex(),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type MovieRepository struct {
	read  *mongo.Collection
	write *mongo.Collection
}

func NewMovieRepository(readDB, writeDB *mongo.Database) *MovieRepository {
	return &MovieRepository{
		read:  readDB.Collection(moviesCollection),
		write: writeDB.Collection(moviesCollection),
	}
}

func (r *MovieRepository) Create(ctx context.Context, movie *model.Movie) error {
	creator, err := bson.ObjectIDFromHex(movie.CreatedBy)
	if err != nil {
		return fmt.Errorf("invalid creator id %q: %w", movie.CreatedBy, err)
	}

	ts := now()
	doc := movieDoc{
		ID:            bson.NewObjectID(),
		Title:         movie.Title,
		Genre:         movie.Genre,
		ReleaseYear:   movie.ReleaseYear,
		AverageRating: movie.AverageRating,
		CreatedBy:     creator,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if _, err := r.write.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert movie: %w", translate(err))
	}

	movie.ID = doc.ID.Hex()
	movie.CreatedAt = ts
	movie.UpdatedAt = ts
	return nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id string) (*model.Movie, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc movieDoc
	if err := repository.Reader(ctx, r.read, r.write).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	movie := doc.toModel()
	return &movie, nil
}

func (r *MovieRepository) Update(ctx context.Context, id string, input model.MovieInput) (*model.Movie, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"title":       input.Title,
		"genre":       input.Genre,
		"releaseYear": input.ReleaseYear,
		"updatedAt":   now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc movieDoc
	if err := r.write.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	movie := doc.toModel()
	return &movie, nil
}

func (r *MovieRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.write.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func searchFilter(filter model.MovieFilter) bson.M {
	query := bson.M{}
	if filter.Title != "" {
		query["title"] = bson.Regex{Pattern: regexp.QuoteMeta(filter.Title), Options: "i"}
	}
	if filter.Genre != "" {
		query["genre"] = bson.Regex{Pattern: regexp.QuoteMeta(filter.Genre), Options: "i"}
	}
	if filter.ReleaseYear != 0 {
		query["releaseYear"] = filter.ReleaseYear
	}
	return query
}

func (r *MovieRepository) Search(ctx context.Context, filter model.MovieFilter) ([]model.Movie, int64, error) {
	query := searchFilter(filter)

	total, err := r.read.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(filter.Skip()))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	movies, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

func (r *MovieRepository) TopRated(ctx context.Context, limit int) ([]model.Movie, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "averageRating", Value: -1}, {Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *MovieRepository) find(ctx context.Context, query bson.M, opts *options.FindOptionsBuilder) ([]model.Movie, error) {
	cursor, err := r.read.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find movies: %w", err)
	}

	var docs []movieDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}

	out := make([]model.Movie, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *MovieRepository) SetAverageRating(ctx context.Context, id string, average float64) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.write.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"averageRating": average}})
	if err != nil {
		return fmt.Errorf("update average rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
