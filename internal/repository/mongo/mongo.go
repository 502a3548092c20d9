// Package mongo implements the repositories on MongoDB collections users,
// movies and ratings.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duccv/movie-rating-api/internal/repository"
	"github.com/duccv/movie-rating-api/pkg/database"
)

const (
	usersCollection   = "users"
	moviesCollection  = "movies"
	ratingsCollection = "ratings"
)

// New builds the three repositories over db and ensures their indexes exist.
func New(ctx context.Context, db *database.MongoDB) (repository.Repositories, error) {
	if err := EnsureIndexes(ctx, db.WriteDB()); err != nil {
		return repository.Repositories{}, err
	}
	return repository.Repositories{
		Identities: NewIdentityRepository(db.ReadDB(), db.WriteDB()),
		Movies:     NewMovieRepository(db.ReadDB(), db.WriteDB()),
		Ratings:    NewRatingRepository(db.ReadDB(), db.WriteDB()),
	}, nil
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		moviesCollection: {
			{Keys: bson.D{{Key: "averageRating", Value: -1}}},
			{Keys: bson.D{{Key: "releaseYear", Value: 1}}},
		},
		ratingsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "movie", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "movie", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// objectID parses a hex id. Malformed ids cannot exist in the store, so they read as not found.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, repository.ErrNotFound
	}
	return oid, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	default:
		return err
	}
}
