package router

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/auth"
	"github.com/duccv/movie-rating-api/internal/middleware"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository/memory"
	"github.com/duccv/movie-rating-api/internal/service"
	"github.com/duccv/movie-rating-api/pkg/cache"
)

const prefix = "/api/v1"

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
)

func signingKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		key, err = auth.GenerateRSAKey(2048)
		if err != nil {
			panic(err)
		}
	})
	return key
}

type healthStub struct{ err error }

func (h *healthStub) Healthy(context.Context) error { return h.err }

type testAPI struct {
	t        *testing.T
	engine   *gin.Engine
	health   *healthStub
	accounts *service.AccountService
	key      *rsa.PrivateKey
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pk := signingKey(t)
	repos := memory.New()
	store := cache.NewStore(cache.NewMemoryCache(cache.LRU, 100, time.Minute), nil, time.Minute, time.Minute)
	t.Cleanup(store.Close)

	accounts := service.NewAccountService(repos.Identities, auth.NewPasswordHasher(bcrypt.MinCost), auth.NewTokenIssuer(pk))
	require.NoError(t, accounts.EnsureAdmin(context.Background(), config.AdminConfig{
		Email:    "admin@example.com",
		Password: "admin-pass",
	}))

	health := &healthStub{}
	engine := gin.New()
	engine.Use(middleware.Recovery())
	Register(engine, prefix, Dependencies{
		Authenticator: auth.NewAuthenticator(auth.NewTokenVerifier(&pk.PublicKey), repos.Identities),
		Accounts:      accounts,
		Movies:        service.NewMovieService(repos, store),
		Ratings:       service.NewRatingService(repos, store),
		Health:        health,
		RateLimit:     config.RateLimitConfig{Enabled: false},
	})
	return &testAPI{t: t, engine: engine, health: health, accounts: accounts, key: pk}
}

type reply struct {
	Code    int
	Header  http.Header
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testAPI) call(method, path, token string, body any, headers ...string) reply {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	r := reply{Code: w.Code, Header: w.Header()}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &r), w.Body.String())
	}
	return r
}

func (a *testAPI) data(r reply, v any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(r.Data, v))
}

type session struct {
	User      model.Identity `json:"user"`
	Token     string         `json:"token"`
	ExpiresIn string         `json:"expiresIn"`
}

func (a *testAPI) register(name, email string) session {
	a.t.Helper()
	r := a.call(http.MethodPost, prefix+"/account/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(a.t, http.StatusOK, r.Code, r.Message)
	var s session
	a.data(r, &s)
	return s
}

func (a *testAPI) login(email, password string) session {
	a.t.Helper()
	r := a.call(http.MethodPost, prefix+"/account/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, r.Code, r.Message)
	var s session
	a.data(r, &s)
	return s
}

func (a *testAPI) createMovie(token, title string) model.Movie {
	a.t.Helper()
	r := a.call(http.MethodPost, prefix+"/movies", token, map[string]any{
		"title": title, "genre": "Drama", "releaseYear": 2001,
	})
	require.Equal(a.t, http.StatusCreated, r.Code, r.Message)
	var m model.Movie
	a.data(r, &m)
	return m
}

func TestAccountFlow(t *testing.T) {
	api := newTestAPI(t)

	r := api.call(http.MethodPost, prefix+"/account/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, r.Code)
	assert.True(t, r.Success)
	assert.Equal(t, "User created successfully", r.Message)
	var s session
	api.data(r, &s)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "1d", s.ExpiresIn)
	assert.Equal(t, model.RoleUser, s.User.Role)
	assert.NotContains(t, string(r.Data), "secret1")

	r = api.call(http.MethodPost, prefix+"/account/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.False(t, r.Success)
	assert.Equal(t, "User already exists", r.Message)

	r = api.call(http.MethodPost, prefix+"/account/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-one",
	})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "Invalid email or password", r.Message)

	r = api.call(http.MethodPost, prefix+"/account/register", "", map[string]string{"name": "Bob"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "email is required", r.Message)

	logged := api.login("alice@example.com", "secret1")
	r = api.call(http.MethodGet, prefix+"/account/me", logged.Token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Contains(t, string(r.Data), "alice@example.com")
}

func TestProtected(t *testing.T) {
	api := newTestAPI(t)
	s := api.register("Alice", "alice@example.com")

	r := api.call(http.MethodGet, prefix+"/protected", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, "Unauthorized", r.Message)

	r = api.call(http.MethodGet, prefix+"/protected", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, "Invalid token", r.Message)

	r = api.call(http.MethodGet, prefix+"/protected", s.Token, nil)
	assert.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "You are authorized to see this message.", r.Message)
}

func TestProtected_ExpiredToken(t *testing.T) {
	api := newTestAPI(t)
	s := api.register("Alice", "alice@example.com")

	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	stale, err := auth.NewTokenIssuer(api.key, auth.WithClock(past)).Issue(&s.User)
	require.NoError(t, err)

	r := api.call(http.MethodGet, prefix+"/protected", stale.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, "Token expired", r.Message)
}

func TestMovieAuthorization(t *testing.T) {
	api := newTestAPI(t)
	user := api.register("Alice", "alice@example.com")
	admin := api.login("admin@example.com", "admin-pass")

	movie := map[string]any{"title": "Up", "genre": "Animation", "releaseYear": 2009}

	r := api.call(http.MethodPost, prefix+"/movies", "", movie)
	assert.Equal(t, http.StatusUnauthorized, r.Code)

	r = api.call(http.MethodPost, prefix+"/movies", user.Token, movie)
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Equal(t, "Forbidden", r.Message)

	r = api.call(http.MethodPost, prefix+"/movies", admin.Token, map[string]any{"genre": "Animation", "releaseYear": 2009})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "title is required", r.Message)

	r = api.call(http.MethodPost, prefix+"/movies", admin.Token, movie)
	require.Equal(t, http.StatusCreated, r.Code)
	assert.Equal(t, "New movie created!", r.Message)
	var created model.Movie
	api.data(r, &created)

	r = api.call(http.MethodPut, prefix+"/movies/"+created.ID, user.Token, movie)
	assert.Equal(t, http.StatusForbidden, r.Code)
	r = api.call(http.MethodDelete, prefix+"/movies/"+created.ID, user.Token, nil)
	assert.Equal(t, http.StatusForbidden, r.Code)

	r = api.call(http.MethodGet, prefix+"/movies/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, "Movie not found", r.Message)
}

func TestMovieReadsAndETag(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin@example.com", "admin-pass")
	m := api.createMovie(admin.Token, "Spirited Away")
	api.createMovie(admin.Token, "Princess Mononoke")

	r := api.call(http.MethodGet, prefix+"/movies/"+m.ID, "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "Movie found!", r.Message)
	var detail struct {
		Title     string                `json:"title"`
		CreatedBy model.IdentitySummary `json:"createdBy"`
	}
	api.data(r, &detail)
	assert.Equal(t, "Spirited Away", detail.Title)
	assert.Equal(t, "admin@example.com", detail.CreatedBy.Email)

	etag := r.Header.Get("ETag")
	require.NotEmpty(t, etag)
	r = api.call(http.MethodGet, prefix+"/movies/"+m.ID, "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, r.Code)

	r = api.call(http.MethodGet, prefix+"/movies?title=spirited", "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	var page model.MoviePage
	api.data(r, &page)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)

	r = api.call(http.MethodGet, prefix+"/movies?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, r.Code)

	r = api.call(http.MethodGet, prefix+"/movies?page=9223372036854775807&limit=10", "", nil)
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "page must be less than or equal to 1000000", r.Message)

	r = api.call(http.MethodGet, prefix+"/movies?page=1000000&limit=100", "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	api.data(r, &page)
	assert.Empty(t, page.Movies)
	assert.EqualValues(t, 2, page.Total)

	r = api.call(http.MethodGet, prefix+"/movies/top/rating-score?limit=1", "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "Top rated movies found!", r.Message)
	var top []model.Movie
	api.data(r, &top)
	assert.Len(t, top, 1)
}

func TestRatingFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin@example.com", "admin-pass")
	alice := api.register("Alice", "alice@example.com")
	bob := api.register("Bob", "bob@example.com")
	m := api.createMovie(admin.Token, "Seven Samurai")

	rate := func(token string, score int) reply {
		return api.call(http.MethodPost, prefix+"/ratings", token, map[string]any{"movieId": m.ID, "score": score})
	}

	r := rate(alice.Token, 6)
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "score must be less than or equal to 5", r.Message)

	r = api.call(http.MethodPost, prefix+"/ratings", alice.Token, map[string]any{"movieId": "nope", "score": 3})
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, "Movie not found", r.Message)

	r = rate(alice.Token, 5)
	require.Equal(t, http.StatusCreated, r.Code)
	assert.Equal(t, "Rating created!", r.Message)
	var aliceRating model.Rating
	api.data(r, &aliceRating)

	r = rate(alice.Token, 4)
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "Rating already submitted", r.Message)

	r = rate(bob.Token, 4)
	require.Equal(t, http.StatusCreated, r.Code)

	r = api.call(http.MethodGet, prefix+"/movies/"+m.ID, "", nil)
	var movie model.Movie
	api.data(r, &movie)
	assert.InDelta(t, 4.5, movie.AverageRating, 1e-9)

	r = api.call(http.MethodPut, prefix+"/ratings/"+aliceRating.ID, bob.Token, map[string]any{"score": 1})
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Equal(t, "You are not allowed to modify this rating", r.Message)

	r = api.call(http.MethodPut, prefix+"/ratings/"+aliceRating.ID, alice.Token, map[string]any{"score": 2, "comment": "rewatched"})
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "Rating updated!", r.Message)

	r = api.call(http.MethodGet, prefix+"/ratings/"+aliceRating.ID, "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	var detail struct {
		Score   int                   `json:"score"`
		Comment string                `json:"comment"`
		User    model.IdentitySummary `json:"user"`
	}
	api.data(r, &detail)
	assert.Equal(t, 2, detail.Score)
	assert.Equal(t, "rewatched", detail.Comment)
	assert.Equal(t, "alice@example.com", detail.User.Email)

	r = api.call(http.MethodGet, prefix+"/movies/"+m.ID+"/ratings", "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	var listed []json.RawMessage
	api.data(r, &listed)
	assert.Len(t, listed, 2)

	r = api.call(http.MethodDelete, prefix+"/ratings/"+aliceRating.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "Rating deleted!", r.Message)

	r = api.call(http.MethodDelete, prefix+"/ratings/"+aliceRating.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, "Rating not found", r.Message)

	r = api.call(http.MethodDelete, prefix+"/movies/"+m.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "Movie deleted!", r.Message)

	r = api.call(http.MethodGet, prefix+"/movies/"+m.ID+"/ratings", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	r := api.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, r.Code)

	api.health.err = errors.New("mongo: no reachable servers")
	r = api.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, r.Code)
}
