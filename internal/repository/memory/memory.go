// Package memory keeps all records in process memory. It backs the "memory"
// database type and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
)

func New() repository.Repositories {
	return repository.Repositories{
		Identities: NewIdentityRepository(),
		Movies:     NewMovieRepository(),
		Ratings:    NewRatingRepository(),
	}
}

type IdentityRepository struct {
	mu      sync.RWMutex
	byID    map[string]model.Identity
	byEmail map[string]string
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		byID:    make(map[string]model.Identity),
		byEmail: make(map[string]string),
	}
}

func (r *IdentityRepository) Create(_ context.Context, identity *model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := model.NormalizeEmail(identity.Email)
	if _, taken := r.byEmail[email]; taken {
		return repository.ErrDuplicate
	}

	now := time.Now().UTC()
	identity.ID = uuid.NewString()
	identity.Email = email
	identity.CreatedAt = now
	identity.UpdatedAt = now

	r.byID[identity.ID] = *identity
	r.byEmail[email] = identity.ID
	return nil
}

func (r *IdentityRepository) FindByID(_ context.Context, id string) (*model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &identity, nil
}

func (r *IdentityRepository) FindByEmail(_ context.Context, email string) (*model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	identity := r.byID[id]
	return &identity, nil
}

func (r *IdentityRepository) FindByIDs(_ context.Context, ids []string) ([]model.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Identity, 0, len(ids))
	for _, id := range ids {
		if identity, ok := r.byID[id]; ok {
			out = append(out, identity)
		}
	}
	return out, nil
}

type movieEntry struct {
	seq   int64
	movie model.Movie
}

type MovieRepository struct {
	mu     sync.RWMutex
	seq    int64
	movies map[string]movieEntry
}

func NewMovieRepository() *MovieRepository {
	return &MovieRepository{movies: make(map[string]movieEntry)}
}

func (r *MovieRepository) Create(_ context.Context, movie *model.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	movie.ID = uuid.NewString()
	movie.CreatedAt = now
	movie.UpdatedAt = now

	r.seq++
	r.movies[movie.ID] = movieEntry{seq: r.seq, movie: *movie}
	return nil
}

func (r *MovieRepository) FindByID(_ context.Context, id string) (*model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entry.movie, nil
}

func (r *MovieRepository) Update(_ context.Context, id string, input model.MovieInput) (*model.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	entry.movie.Title = input.Title
	entry.movie.Genre = input.Genre
	entry.movie.ReleaseYear = input.ReleaseYear
	entry.movie.UpdatedAt = time.Now().UTC()
	r.movies[id] = entry

	movie := entry.movie
	return &movie, nil
}

func (r *MovieRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.movies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.movies, id)
	return nil
}

func (r *MovieRepository) Search(_ context.Context, filter model.MovieFilter) ([]model.Movie, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	title := strings.ToLower(filter.Title)
	genre := strings.ToLower(filter.Genre)

	matched := make([]movieEntry, 0, len(r.movies))
	for _, entry := range r.movies {
		m := entry.movie
		if title != "" && !strings.Contains(strings.ToLower(m.Title), title) {
			continue
		}
		if genre != "" && !strings.Contains(strings.ToLower(m.Genre), genre) {
			continue
		}
		if filter.ReleaseYear != 0 && m.ReleaseYear != filter.ReleaseYear {
			continue
		}
		matched = append(matched, entry)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	total := int64(len(matched))
	start := min(filter.Skip(), len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}

	page := make([]model.Movie, 0, end-start)
	for _, entry := range matched[start:end] {
		page = append(page, entry.movie)
	}
	return page, total, nil
}

func (r *MovieRepository) TopRated(_ context.Context, limit int) ([]model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]movieEntry, 0, len(r.movies))
	for _, entry := range r.movies {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].movie.AverageRating != entries[j].movie.AverageRating {
			return entries[i].movie.AverageRating > entries[j].movie.AverageRating
		}
		return entries[i].seq > entries[j].seq
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]model.Movie, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.movie)
	}
	return out, nil
}

func (r *MovieRepository) SetAverageRating(_ context.Context, id string, average float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.movies[id]
	if !ok {
		return repository.ErrNotFound
	}
	entry.movie.AverageRating = average
	r.movies[id] = entry
	return nil
}

type ratingEntry struct {
	seq    int64
	rating model.Rating
}

type RatingRepository struct {
	mu      sync.RWMutex
	seq     int64
	ratings map[string]ratingEntry
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{ratings: make(map[string]ratingEntry)}
}

func (r *RatingRepository) Create(_ context.Context, rating *model.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.ratings {
		if entry.rating.User == rating.User && entry.rating.Movie == rating.Movie {
			return repository.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	rating.ID = uuid.NewString()
	rating.CreatedAt = now
	rating.UpdatedAt = now

	r.seq++
	r.ratings[rating.ID] = ratingEntry{seq: r.seq, rating: *rating}
	return nil
}

func (r *RatingRepository) FindByID(_ context.Context, id string) (*model.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.ratings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entry.rating, nil
}

func (r *RatingRepository) Update(_ context.Context, id string, score int, comment string) (*model.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.ratings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	entry.rating.Score = score
	entry.rating.Comment = comment
	entry.rating.UpdatedAt = time.Now().UTC()
	r.ratings[id] = entry

	rating := entry.rating
	return &rating, nil
}

func (r *RatingRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ratings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.ratings, id)
	return nil
}

func (r *RatingRepository) ListByMovie(_ context.Context, movieID string) ([]model.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]ratingEntry, 0)
	for _, entry := range r.ratings {
		if entry.rating.Movie == movieID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	out := make([]model.Rating, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.rating)
	}
	return out, nil
}

func (r *RatingRepository) DeleteByMovie(_ context.Context, movieID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, entry := range r.ratings {
		if entry.rating.Movie == movieID {
			delete(r.ratings, id)
			deleted++
		}
	}
	return deleted, nil
}
