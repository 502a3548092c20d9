//go:build integration

package mongo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
	"github.com/duccv/movie-rating-api/pkg/database"
)

func startMongo(t *testing.T) *database.MongoDB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	db := database.NewMongoDB(&config.MongoConfig{
		URI:      fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
		Database: "movie_rating_test",
	})
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	return db
}

func TestMongoRepositories(t *testing.T) {
	ctx := context.Background()
	repos, err := New(ctx, startMongo(t))
	require.NoError(t, err)

	admin := &model.Identity{Name: "Admin", Email: "Admin@X.com", PasswordHash: "hash", Role: model.RoleAdmin, Status: model.StatusActive}
	require.NoError(t, repos.Identities.Create(ctx, admin))
	err = repos.Identities.Create(ctx, &model.Identity{Name: "Dup", Email: "admin@x.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := repos.Identities.FindByEmail(ctx, "ADMIN@x.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	_, err = repos.Identities.FindByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	movie := &model.Movie{Title: "The Matrix", Genre: "Sci-Fi", ReleaseYear: 1999, CreatedBy: admin.ID}
	require.NoError(t, repos.Movies.Create(ctx, movie))
	require.NoError(t, repos.Movies.Create(ctx, &model.Movie{Title: "Heat", Genre: "Crime", ReleaseYear: 1995, CreatedBy: admin.ID}))

	page, total, err := repos.Movies.Search(ctx, model.MovieFilter{Title: "matrix", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, movie.ID, page[0].ID)

	require.NoError(t, repos.Ratings.Create(ctx, &model.Rating{User: admin.ID, Movie: movie.ID, Score: 4}))
	err = repos.Ratings.Create(ctx, &model.Rating{User: admin.ID, Movie: movie.ID, Score: 2})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, repos.Movies.SetAverageRating(ctx, movie.ID, 4))
	top, err := repos.Movies.TopRated(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, movie.ID, top[0].ID)

	deleted, err := repos.Ratings.DeleteByMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	require.NoError(t, repos.Movies.Delete(ctx, movie.ID))
	assert.ErrorIs(t, repos.Movies.Delete(ctx, movie.ID), repository.ErrNotFound)
}
