package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
)

type ratingDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	User      bson.ObjectID `bson:"user"`
	Movie     bson.ObjectID `bson:"movie"`
	Score     int           `bson:"score"`
	Comment   string        `bson:"comment,omitempty"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d ratingDoc) toModel() model.Rating {
	return model.Rating{
		ID:        d.ID.Hex(),
		User:      d.User.Hex(),
		Movie:     d.Movie.Hex(),
		Score:     d.Score,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type RatingRepository struct {
	read  *mongo.Collection
	write *mongo.Collection
}

func NewRatingRepository(readDB, writeDB *mongo.Database) *RatingRepository {
	return &RatingRepository{
		read:  readDB.Collection(ratingsCollection),
		write: writeDB.Collection(ratingsCollection),
	}
}

func (r *RatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	user, err := bson.ObjectIDFromHex(rating.User)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", rating.User, err)
	}
	movie, err := objectID(rating.Movie)
	if err != nil {
		return err
	}

	ts := now()
	doc := ratingDoc{
		ID:        bson.NewObjectID(),
		User:      user,
		Movie:     movie,
		Score:     rating.Score,
		Comment:   rating.Comment,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if _, err := r.write.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert rating: %w", translate(err))
	}

	rating.ID = doc.ID.Hex()
	rating.CreatedAt = ts
	rating.UpdatedAt = ts
	return nil
}

func (r *RatingRepository) FindByID(ctx context.Context, id string) (*model.Rating, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc ratingDoc
	if err := repository.Reader(ctx, r.read, r.write).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	rating := doc.toModel()
	return &rating, nil
}

func (r *RatingRepository) Update(ctx context.Context, id string, score int, comment string) (*model.Rating, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{"score": score, "comment": comment, "updatedAt": now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc ratingDoc
	if err := r.write.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	rating := doc.toModel()
	return &rating, nil
}

func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.write.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RatingRepository) ListByMovie(ctx context.Context, movieID string) ([]model.Rating, error) {
	oid, err := objectID(movieID)
	if err != nil {
		return []model.Rating{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := repository.Reader(ctx, r.read, r.write).Find(ctx, bson.M{"movie": oid}, opts)
	if err != nil {
		return nil, fmt.Errorf("find ratings: %w", err)
	}

	var docs []ratingDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}

	out := make([]model.Rating, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *RatingRepository) DeleteByMovie(ctx context.Context, movieID string) (int64, error) {
	oid, err := objectID(movieID)
	if err != nil {
		return 0, nil
	}

	res, err := r.write.DeleteMany(ctx, bson.M{"movie": oid})
	if err != nil {
		return 0, fmt.Errorf("delete ratings of movie: %w", err)
	}
	return res.DeletedCount, nil
}
