package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/apperror"
	"github.com/duccv/movie-rating-api/internal/auth"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
	"github.com/duccv/movie-rating-api/internal/repository/memory"
	"github.com/duccv/movie-rating-api/pkg/cache"
)

type stubIssuer struct{}

func (stubIssuer) Issue(identity *model.Identity) (auth.IssuedToken, error) {
	return auth.IssuedToken{Token: "token-for-" + identity.ID, ExpiresIn: "1d"}, nil
}

type fixture struct {
	repos    repository.Repositories
	accounts *AccountService
	movies   *MovieService
	ratings  *RatingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.New()
	store := cache.NewStore(cache.NewMemoryCache(cache.LRU, 100, time.Minute), nil, time.Minute, time.Minute)
	t.Cleanup(store.Close)

	return &fixture{
		repos:    repos,
		accounts: NewAccountService(repos.Identities, auth.NewPasswordHasher(bcrypt.MinCost), stubIssuer{}),
		movies:   NewMovieService(repos, store),
		ratings:  NewRatingService(repos, store),
	}
}

func (f *fixture) user(t *testing.T, email string) *model.Identity {
	t.Helper()
	session, err := f.accounts.Register(context.Background(), "User "+email, email, "secret1")
	require.NoError(t, err)
	return session.User
}

func (f *fixture) admin(t *testing.T) *model.Identity {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.accounts.EnsureAdmin(ctx, config.AdminConfig{Email: "root@example.com", Password: "rootpass"}))
	admin, err := f.repos.Identities.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	return admin
}

func (f *fixture) movie(t *testing.T, creator *model.Identity, title string) *model.Movie {
	t.Helper()
	m, err := f.movies.Create(context.Background(), creator, model.MovieInput{Title: title, Genre: "Drama", ReleaseYear: 1999})
	require.NoError(t, err)
	return m
}

func assertKind(t *testing.T, err error, kind apperror.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperror.From(err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, message, appErr.Message)
}

func TestAccountService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.accounts.Register(ctx, "Alice", " Alice@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, model.RoleUser, session.User.Role)
	assert.Equal(t, "token-for-"+session.User.ID, session.Token)
	assert.Equal(t, "1d", session.ExpiresIn)

	_, err = f.accounts.Register(ctx, "Alice again", "alice@example.com", "other12")
	assertKind(t, err, apperror.KindConflict, "User already exists")

	login, err := f.accounts.Login(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = f.accounts.Login(ctx, "alice@example.com", "wrong-password")
	assertKind(t, err, apperror.KindAuthentication, "Invalid email or password")

	_, err = f.accounts.Login(ctx, "nobody@example.com", "secret1")
	assertKind(t, err, apperror.KindAuthentication, "Invalid email or password")
}

func TestAccountService_EnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.EnsureAdmin(ctx, config.AdminConfig{}))
	_, err := f.repos.Identities.FindByEmail(ctx, "root@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	admin := f.admin(t)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Equal(t, "Administrator", admin.Name)

	require.NoError(t, f.accounts.EnsureAdmin(ctx, config.AdminConfig{Email: "root@example.com", Password: "rootpass"}))
}

func TestMovieService_CRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)

	created := f.movie(t, admin, "The Matrix")

	detail, err := f.movies.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", detail.Title)
	require.NotNil(t, detail.CreatedBy)
	assert.Equal(t, admin.ID, detail.CreatedBy.ID)

	_, err = f.movies.Update(ctx, created.ID, model.MovieInput{Title: "The Matrix Reloaded", Genre: "Sci-Fi", ReleaseYear: 2003})
	require.NoError(t, err)

	detail, err = f.movies.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix Reloaded", detail.Title, "update invalidates the cached read")

	_, err = f.movies.Read(ctx, "missing")
	assertKind(t, err, apperror.KindNotFound, "Movie not found")

	_, err = f.movies.Update(ctx, "missing", model.MovieInput{Title: "x", Genre: "y", ReleaseYear: 2000})
	assertKind(t, err, apperror.KindNotFound, "Movie not found")
}

func TestMovieService_DeleteCascadesRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	bob := f.user(t, "bob@example.com")
	m := f.movie(t, admin, "Heat")

	_, err := f.ratings.Create(ctx, bob, m.ID, 4, "")
	require.NoError(t, err)
	_, err = f.movies.Read(ctx, m.ID)
	require.NoError(t, err)

	require.NoError(t, f.movies.Delete(ctx, m.ID))

	_, err = f.movies.Read(ctx, m.ID)
	assertKind(t, err, apperror.KindNotFound, "Movie not found")
	left, err := f.repos.Ratings.ListByMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	assertKind(t, f.movies.Delete(ctx, m.ID), apperror.KindNotFound, "Movie not found")
}

func TestMovieService_SearchPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	for _, title := range []string{"Alien", "Aliens", "Alien 3", "Heat", "Ronin"} {
		f.movie(t, admin, title)
	}

	page, err := f.movies.Search(ctx, model.MovieFilter{Title: "alien", Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.EqualValues(t, 2, page.Pages)
	assert.Equal(t, 2, page.Items)
	assert.Equal(t, "Alien 3", page.Movies[0].Title, "newest first")
	require.NotNil(t, page.Movies[0].CreatedBy)

	page, err = f.movies.Search(ctx, model.MovieFilter{Title: "alien", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Items)

	page, err = f.movies.Search(ctx, model.MovieFilter{Title: "zzz", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, page.Pages)
	assert.Empty(t, page.Movies)
}

func TestRatingService_AverageFollowsWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	m := f.movie(t, admin, "Memento")

	var middle *model.Rating
	for i, score := range []int{5, 3, 4} {
		u := f.user(t, string(rune('a'+i))+"@example.com")
		r, err := f.ratings.Create(ctx, u, m.ID, score, "")
		require.NoError(t, err)
		if score == 3 {
			middle = r
		}
	}

	detail, err := f.movies.Read(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, detail.AverageRating, 1e-9)

	author, err := f.repos.Identities.FindByID(ctx, middle.User)
	require.NoError(t, err)
	require.NoError(t, f.ratings.Delete(ctx, author, middle.ID))

	detail, err = f.movies.Read(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, detail.AverageRating, 1e-9)

	top, err := f.movies.TopRated(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.InDelta(t, 4.5, top[0].AverageRating, 1e-9)
}

func TestRatingService_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	bob := f.user(t, "bob@example.com")
	eve := f.user(t, "eve@example.com")
	m := f.movie(t, admin, "Ran")

	_, err := f.ratings.Create(ctx, bob, "missing", 3, "")
	assertKind(t, err, apperror.KindNotFound, "Movie not found")

	r, err := f.ratings.Create(ctx, bob, m.ID, 2, "meh")
	require.NoError(t, err)

	_, err = f.ratings.Create(ctx, bob, m.ID, 5, "changed my mind")
	assertKind(t, err, apperror.KindConflict, "Rating already submitted")

	_, err = f.ratings.Update(ctx, eve, r.ID, 1, "")
	assertKind(t, err, apperror.KindForbidden, "You are not allowed to modify this rating")
	assertKind(t, f.ratings.Delete(ctx, eve, r.ID), apperror.KindForbidden, "You are not allowed to modify this rating")
	assertKind(t, f.ratings.Delete(ctx, admin, r.ID), apperror.KindForbidden, "You are not allowed to modify this rating")

	updated, err := f.ratings.Update(ctx, bob, r.ID, 5, "great")
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Score)

	detail, err := f.ratings.Read(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.User)
	assert.Equal(t, "bob@example.com", detail.User.Email)

	listed, err := f.movies.Ratings(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, bob.ID, listed[0].User.ID)

	_, err = f.movies.Ratings(ctx, "missing")
	assertKind(t, err, apperror.KindNotFound, "Movie not found")

	require.NoError(t, f.ratings.Delete(ctx, bob, r.ID))
	_, err = f.ratings.Read(ctx, r.ID)
	assertKind(t, err, apperror.KindNotFound, "Rating not found")
	assertKind(t, f.ratings.Delete(ctx, bob, r.ID), apperror.KindNotFound, "Rating not found")

	movie, err := f.movies.Read(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, movie.AverageRating)
}

type failingIdentities struct {
	repository.IdentityRepository
}

func (failingIdentities) FindByEmail(context.Context, string) (*model.Identity, error) {
	return nil, errors.New("connection reset")
}

func TestAccountService_StorageFailureIsInternal(t *testing.T) {
	svc := NewAccountService(failingIdentities{}, auth.NewPasswordHasher(bcrypt.MinCost), stubIssuer{})
	_, err := svc.Login(context.Background(), "a@b.co", "secret1")
	assertKind(t, err, apperror.KindInternal, "Internal server error")
}

// laggingRatings behaves like a replica that has not caught up: lookups
// without the primary mark see no ratings at all.
type laggingRatings struct {
	repository.RatingRepository
}

func (l laggingRatings) FindByID(ctx context.Context, id string) (*model.Rating, error) {
	if !repository.ReadsPrimary(ctx) {
		return nil, repository.ErrNotFound
	}
	return l.RatingRepository.FindByID(ctx, id)
}

func (l laggingRatings) ListByMovie(ctx context.Context, movieID string) ([]model.Rating, error) {
	if !repository.ReadsPrimary(ctx) {
		return []model.Rating{}, nil
	}
	return l.RatingRepository.ListByMovie(ctx, movieID)
}

type laggingMovies struct {
	repository.MovieRepository
}

func (l laggingMovies) FindByID(ctx context.Context, id string) (*model.Movie, error) {
	if !repository.ReadsPrimary(ctx) {
		return nil, repository.ErrNotFound
	}
	return l.MovieRepository.FindByID(ctx, id)
}

func TestRatingService_WritePathsReadPrimary(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	m := f.movie(t, admin, "Heat")
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")

	lagging := repository.Repositories{
		Identities: f.repos.Identities,
		Movies:     laggingMovies{f.repos.Movies},
		Ratings:    laggingRatings{f.repos.Ratings},
	}
	store := cache.NewStore(cache.NewMemoryCache(cache.LRU, 10, time.Minute), nil, time.Minute, time.Minute)
	t.Cleanup(store.Close)
	ratings := NewRatingService(lagging, store)
	ctx := context.Background()

	first, err := ratings.Create(ctx, alice, m.ID, 5, "")
	require.NoError(t, err)
	_, err = ratings.Create(ctx, bob, m.ID, 2, "")
	require.NoError(t, err)

	stored, err := f.repos.Movies.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, stored.AverageRating, 1e-9)

	_, err = ratings.Update(ctx, alice, first.ID, 4, "")
	require.NoError(t, err)
	stored, err = f.repos.Movies.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, stored.AverageRating, 1e-9)

	require.NoError(t, ratings.Delete(ctx, alice, first.ID))
	stored, err = f.repos.Movies.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, stored.AverageRating, 1e-9)
}
