package service

import (
	"context"
	"errors"

	"github.com/duccv/movie-rating-api/internal/apperror"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
	"github.com/duccv/movie-rating-api/pkg/cache"
)

const msgMovieNotFound = "Movie not found"

func movieCacheKey(id string) string {
	return "movie:" + id
}

type MovieService struct {
	movies     repository.MovieRepository
	ratings    repository.RatingRepository
	identities repository.IdentityRepository
	cache      *cache.Store
}

// NewMovieService builds the movie service. store may be nil to disable caching.
func NewMovieService(repos repository.Repositories, store *cache.Store) *MovieService {
	return &MovieService{
		movies:     repos.Movies,
		ratings:    repos.Ratings,
		identities: repos.Identities,
		cache:      store,
	}
}

func (s *MovieService) Create(ctx context.Context, creator *model.Identity, input model.MovieInput) (*model.Movie, error) {
	movie := &model.Movie{
		Title:       input.Title,
		Genre:       input.Genre,
		ReleaseYear: input.ReleaseYear,
		CreatedBy:   creator.ID,
	}
	if err := s.movies.Create(ctx, movie); err != nil {
		return nil, apperror.Internal(err)
	}
	return movie, nil
}

// Read returns the movie with its creator. Results are cached per movie id.
func (s *MovieService) Read(ctx context.Context, id string) (*model.MovieDetail, error) {
	detail, err := cache.GetOrLoad(ctx, s.cache, movieCacheKey(id), func(ctx context.Context) (*model.MovieDetail, error) {
		movie, err := s.movies.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		details, err := s.withCreators(ctx, []model.Movie{*movie})
		if err != nil {
			return nil, err
		}
		return &details[0], nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgMovieNotFound)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return detail, nil
}

func (s *MovieService) Update(ctx context.Context, id string, input model.MovieInput) (*model.Movie, error) {
	movie, err := s.movies.Update(ctx, id, input)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(msgMovieNotFound)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	s.cache.Invalidate(ctx, movieCacheKey(id))
	return movie, nil
}

// Delete removes the movie together with all of its ratings.
func (s *MovieService) Delete(ctx context.Context, id string) error {
	ctx = repository.ReadPrimary(ctx)
	if _, err := s.movies.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(msgMovieNotFound)
		}
		return apperror.Internal(err)
	}
	if _, err := s.ratings.DeleteByMovie(ctx, id); err != nil {
		return apperror.Internal(err)
	}

	err := s.movies.Delete(ctx, id)
	s.cache.Invalidate(ctx, movieCacheKey(id))
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(msgMovieNotFound)
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *MovieService) Search(ctx context.Context, filter model.MovieFilter) (*model.MoviePage, error) {
	movies, total, err := s.movies.Search(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	details, err := s.withCreators(ctx, movies)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	var pages int64
	if filter.Limit > 0 {
		pages = (total + int64(filter.Limit) - 1) / int64(filter.Limit)
	}
	return &model.MoviePage{
		Movies: details,
		Items:  len(details),
		Total:  total,
		Page:   filter.Page,
		Pages:  pages,
	}, nil
}

func (s *MovieService) TopRated(ctx context.Context, limit int) ([]model.MovieDetail, error) {
	movies, err := s.movies.TopRated(ctx, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	details, err := s.withCreators(ctx, movies)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return details, nil
}

// Ratings lists the ratings of an existing movie, newest first.
func (s *MovieService) Ratings(ctx context.Context, movieID string) ([]model.RatingDetail, error) {
	if _, err := s.movies.FindByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(msgMovieNotFound)
		}
		return nil, apperror.Internal(err)
	}

	ratings, err := s.ratings.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	details, err := withAuthors(ctx, s.identities, ratings)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return details, nil
}

func (s *MovieService) withCreators(ctx context.Context, movies []model.Movie) ([]model.MovieDetail, error) {
	ids := make([]string, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.CreatedBy)
	}
	summaries, err := summarize(ctx, s.identities, ids)
	if err != nil {
		return nil, err
	}

	details := make([]model.MovieDetail, len(movies))
	for i, m := range movies {
		details[i] = model.MovieDetail{Movie: m, CreatedBy: summaries[m.CreatedBy]}
	}
	return details, nil
}

func withAuthors(ctx context.Context, identities repository.IdentityRepository, ratings []model.Rating) ([]model.RatingDetail, error) {
	ids := make([]string, 0, len(ratings))
	for _, r := range ratings {
		ids = append(ids, r.User)
	}
	summaries, err := summarize(ctx, identities, ids)
	if err != nil {
		return nil, err
	}

	details := make([]model.RatingDetail, len(ratings))
	for i, r := range ratings {
		details[i] = model.RatingDetail{Rating: r, User: summaries[r.User]}
	}
	return details, nil
}

// summarize resolves identity ids; unknown ids are absent from the result.
func summarize(ctx context.Context, identities repository.IdentityRepository, ids []string) (map[string]*model.IdentitySummary, error) {
	summaries := make(map[string]*model.IdentitySummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}
	found, err := identities.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range found {
		summaries[found[i].ID] = found[i].Summary()
	}
	return summaries, nil
}
