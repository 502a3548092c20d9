// Package postgres implements the repositories on PostgreSQL through pgx pools.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duccv/movie-rating-api/internal/repository"
	"github.com/duccv/movie-rating-api/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'user',
	status     TEXT NOT NULL DEFAULT 'active',
	verified   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS movies (
	id             UUID PRIMARY KEY,
	title          TEXT NOT NULL,
	genre          TEXT NOT NULL,
	release_year   INTEGER NOT NULL,
	average_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_by     UUID NOT NULL REFERENCES users(id),
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS movies_average_rating_idx ON movies (average_rating DESC);

CREATE TABLE IF NOT EXISTS ratings (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id),
	movie_id   UUID NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
	score      INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
	comment    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, movie_id)
);
CREATE INDEX IF NOT EXISTS ratings_movie_idx ON ratings (movie_id);
`

// New creates the schema when missing and returns the three repositories.
func New(ctx context.Context, db *database.PostgresDB) (repository.Repositories, error) {
	if err := EnsureSchema(ctx, db.WritePool()); err != nil {
		return repository.Repositories{}, err
	}
	return repository.Repositories{
		Identities: NewIdentityRepository(db.ReadPool(), db.WritePool()),
		Movies:     NewMovieRepository(db.ReadPool(), db.WritePool()),
		Ratings:    NewRatingRepository(db.ReadPool(), db.WritePool()),
	}, nil
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// parseID rejects ids that are not UUIDs; no such row can exist.
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, repository.ErrNotFound
	}
	return parsed, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return repository.ErrDuplicate
		case foreignKeyViolation:
			return repository.ErrNotFound
		}
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
