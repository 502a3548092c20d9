// Package repository declares the persistence contracts shared by the mongo,
// postgres and memory backends.
package repository

import (
	"context"
	"errors"

	"github.com/duccv/movie-rating-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// IdentityRepository is the credential store. Email is unique.
type IdentityRepository interface {
	// Create assigns ID and timestamps. Returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, identity *model.Identity) error
	FindByID(ctx context.Context, id string) (*model.Identity, error)
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	// FindByIDs skips ids that do not exist.
	FindByIDs(ctx context.Context, ids []string) ([]model.Identity, error)
}

type MovieRepository interface {
	Create(ctx context.Context, movie *model.Movie) error
	FindByID(ctx context.Context, id string) (*model.Movie, error)
	Update(ctx context.Context, id string, input model.MovieInput) (*model.Movie, error)
	Delete(ctx context.Context, id string) error
	// Search returns one page ordered by newest first together with the total match count.
	Search(ctx context.Context, filter model.MovieFilter) ([]model.Movie, int64, error)
	TopRated(ctx context.Context, limit int) ([]model.Movie, error)
	SetAverageRating(ctx context.Context, id string, average float64) error
}

// RatingRepository stores at most one rating per (user, movie) pair.
type RatingRepository interface {
	// Create returns ErrDuplicate when the user already rated the movie.
	Create(ctx context.Context, rating *model.Rating) error
	FindByID(ctx context.Context, id string) (*model.Rating, error)
	Update(ctx context.Context, id string, score int, comment string) (*model.Rating, error)
	Delete(ctx context.Context, id string) error
	ListByMovie(ctx context.Context, movieID string) ([]model.Rating, error)
	DeleteByMovie(ctx context.Context, movieID string) (int64, error)
}

// Repositories bundles one backend's implementations.
type Repositories struct {
	Identities IdentityRepository
	Movies     MovieRepository
	Ratings    RatingRepository
}
