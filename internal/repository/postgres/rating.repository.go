package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
)

const ratingColumns = `id::text, user_id::text, movie_id::text, score, comment, created_at, updated_at`

type RatingRepository struct {
	read  *pgxpool.Pool
	write *pgxpool.Pool
}

func NewRatingRepository(read, write *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{read: read, write: write}
}

func scanRating(row pgx.Row) (model.Rating, error) {
	var r model.Rating
	err := row.Scan(&r.ID, &r.User, &r.Movie, &r.Score, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *RatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	user, err := uuid.Parse(rating.User)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", rating.User, err)
	}
	movie, err := parseID(rating.Movie)
	if err != nil {
		return err
	}

	id := uuid.New()
	ts := now()
	_, err = r.write.Exec(ctx, `
		INSERT INTO ratings (id, user_id, movie_id, score, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		id, user, movie, rating.Score, rating.Comment, ts)
	if err != nil {
		return fmt.Errorf("insert rating: %w", translate(err))
	}

	rating.ID = id.String()
	rating.CreatedAt = ts
	rating.UpdatedAt = ts
	return nil
}

func (r *RatingRepository) FindByID(ctx context.Context, id string) (*model.Rating, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	rating, err := scanRating(repository.Reader(ctx, r.read, r.write).QueryRow(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, uid))
	if err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (r *RatingRepository) Update(ctx context.Context, id string, score int, comment string) (*model.Rating, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	rating, err := scanRating(r.write.QueryRow(ctx, `
		UPDATE ratings SET score = $2, comment = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+ratingColumns,
		uid, score, comment, now()))
	if err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.write.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RatingRepository) ListByMovie(ctx context.Context, movieID string) ([]model.Rating, error) {
	uid, err := parseID(movieID)
	if err != nil {
		return []model.Rating{}, nil
	}

	rows, err := repository.Reader(ctx, r.read, r.write).Query(ctx,
		`SELECT `+ratingColumns+` FROM ratings WHERE movie_id = $1 ORDER BY created_at DESC, id DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	ratings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Rating, error) {
		return scanRating(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan ratings: %w", err)
	}
	return ratings, nil
}

func (r *RatingRepository) DeleteByMovie(ctx context.Context, movieID string) (int64, error) {
	uid, err := parseID(movieID)
	if err != nil {
		return 0, nil
	}
	tag, err := r.write.Exec(ctx, `DELETE FROM ratings WHERE movie_id = $1`, uid)
	if err != nil {
		return 0, fmt.Errorf("delete ratings of movie: %w", err)
	}
	return tag.RowsAffected(), nil
}
