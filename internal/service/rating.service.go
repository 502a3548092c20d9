package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/duccv/movie-rating-api/internal/apperror"
	"github.com/duccv/movie-rating-api/internal/auth"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
	"github.com/duccv/movie-rating-api/pkg/cache"
	"github.com/duccv/movie-rating-api/pkg/logger"
)

const (
	msgRatingNotFound  = "Rating not found"
	msgRatingExists    = "Rating already submitted"
	msgNotRatingAuthor = "You are not allowed to modify this rating"
)

type RatingService struct {
	ratings    repository.RatingRepository
	movies     repository.MovieRepository
	identities repository.IdentityRepository
	cache      *cache.Store
}

func NewRatingService(repos repository.Repositories, store *cache.Store) *RatingService {
	return &RatingService{
		ratings:    repos.Ratings,
		movies:     repos.Movies,
		identities: repos.Identities,
		cache:      store,
	}
}

// Create records author's rating of an existing movie. A user rates a movie once.
func (s *RatingService) Create(ctx context.Context, author *model.Identity, movieID string, score int, comment string) (*model.Rating, error) {
	ctx = repository.ReadPrimary(ctx)
	if _, err := s.movies.FindByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(msgMovieNotFound)
		}
		return nil, apperror.Internal(err)
	}

	rating := &model.Rating{User: author.ID, Movie: movieID, Score: score, Comment: comment}
	err := s.ratings.Create(ctx, rating)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperror.Conflict(msgRatingExists)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if err := s.recomputeAverage(ctx, movieID); err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *RatingService) Read(ctx context.Context, id string) (*model.RatingDetail, error) {
	rating, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := withAuthors(ctx, s.identities, []model.Rating{*rating})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &details[0], nil
}

// Update changes score and comment. Only the author may update a rating.
func (s *RatingService) Update(ctx context.Context, actor *model.Identity, id string, score int, comment string) (*model.Rating, error) {
	ctx = repository.ReadPrimary(ctx)
	rating, err := s.ownedBy(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.ratings.Update(ctx, id, score, comment)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgRatingNotFound)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if err := s.recomputeAverage(ctx, rating.Movie); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a rating. Only the author may delete it.
func (s *RatingService) Delete(ctx context.Context, actor *model.Identity, id string) error {
	ctx = repository.ReadPrimary(ctx)
	rating, err := s.ownedBy(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.ratings.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(msgRatingNotFound)
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return s.recomputeAverage(ctx, rating.Movie)
}

func (s *RatingService) find(ctx context.Context, id string) (*model.Rating, error) {
	rating, err := s.ratings.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgRatingNotFound)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return rating, nil
}

func (s *RatingService) ownedBy(ctx context.Context, actor *model.Identity, id string) (*model.Rating, error) {
	rating, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if auth.AuthorizeOwner(actor, rating.User) == auth.Deny {
		return nil, apperror.Forbidden(msgNotRatingAuthor)
	}
	return rating, nil
}

// recomputeAverage stores the mean score of all remaining ratings of the movie.
// ctx must carry repository.ReadPrimary so a replica cannot hide the write
// that triggered it. Concurrent writes to one movie may still race; the last
// recomputation wins.
func (s *RatingService) recomputeAverage(ctx context.Context, movieID string) error {
	defer s.cache.Invalidate(ctx, movieCacheKey(movieID))

	ratings, err := s.ratings.ListByMovie(ctx, movieID)
	if err != nil {
		return apperror.Internal(err)
	}
	average := model.AverageScore(ratings)

	err = s.movies.SetAverageRating(ctx, movieID, average)
	if errors.Is(err, repository.ErrNotFound) {
		// the movie was deleted concurrently along with its ratings
		logger.FromContext(ctx).Warn("Movie vanished during rating aggregation", zap.String("movieId", movieID))
		return nil
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}
