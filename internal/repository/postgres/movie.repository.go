package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
)

const movieColumns = `id::text, title, genre, release_year, average_rating, created_by::text, created_at, updated_at`

type MovieRepository struct {
	read  *pgxpool.Pool
	write *pgxpool.Pool
}

func NewMovieRepository(read, write *pgxpool.Pool) *MovieRepository {
	return &MovieRepository{read: read, write: write}
}

func scanMovie(row pgx.Row) (model.Movie, error) {
	var m model.Movie
	err := row.Scan(&m.ID, &m.Title, &m.Genre, &m.ReleaseYear, &m.AverageRating, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func collectMovies(rows pgx.Rows) ([]model.Movie, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Movie, error) {
		return scanMovie(row)
	})
}

func (r *MovieRepository) Create(ctx context.Context, movie *model.Movie) error {
	creator, err := uuid.Parse(movie.CreatedBy)
	if err != nil {
		return fmt.Errorf("invalid creator id %q: %w", movie.CreatedBy, err)
	}

	id := uuid.New()
	ts := now()
	_, err = r.write.Exec(ctx, `
		INSERT INTO movies (id, title, genre, release_year, average_rating, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		id, movie.Title, movie.Genre, movie.ReleaseYear, movie.AverageRating, creator, ts)
	if err != nil {
		return fmt.Errorf("insert movie: %w", translate(err))
	}

	movie.ID = id.String()
	movie.CreatedAt = ts
	movie.UpdatedAt = ts
	return nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id string) (*model.Movie, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	movie, err := scanMovie(repository.Reader(ctx, r.read, r.write).QueryRow(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id = $1`, uid))
	if err != nil {
		return nil, translate(err)
	}
	return &movie, nil
}

func (r *MovieRepository) Update(ctx context.Context, id string, input model.MovieInput) (*model.Movie, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	movie, err := scanMovie(r.write.QueryRow(ctx, `
		UPDATE movies SET title = $2, genre = $3, release_year = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+movieColumns,
		uid, input.Title, input.Genre, input.ReleaseYear, now()))
	if err != nil {
		return nil, translate(err)
	}
	return &movie, nil
}

func (r *MovieRepository) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.write.Exec(ctx, `DELETE FROM movies WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func searchClause(filter model.MovieFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Title != "" {
		args = append(args, containsPattern(filter.Title))
		conds = append(conds, fmt.Sprintf(`title ILIKE $%d`, len(args)))
	}
	if filter.Genre != "" {
		args = append(args, containsPattern(filter.Genre))
		conds = append(conds, fmt.Sprintf(`genre ILIKE $%d`, len(args)))
	}
	if filter.ReleaseYear != 0 {
		args = append(args, filter.ReleaseYear)
		conds = append(conds, fmt.Sprintf(`release_year = $%d`, len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *MovieRepository) Search(ctx context.Context, filter model.MovieFilter) ([]model.Movie, int64, error) {
	where, args := searchClause(filter)

	var total int64
	if err := r.read.QueryRow(ctx, `SELECT count(*) FROM movies`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	query := `SELECT ` + movieColumns + ` FROM movies` + where + ` ORDER BY created_at DESC, id DESC`
	args = append(args, filter.Skip())
	query += fmt.Sprintf(` OFFSET $%d`, len(args))
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.read.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query movies: %w", err)
	}
	movies, err := collectMovies(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan movies: %w", err)
	}
	return movies, total, nil
}

func (r *MovieRepository) TopRated(ctx context.Context, limit int) ([]model.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies ORDER BY average_rating DESC, created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.read.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top rated movies: %w", err)
	}
	movies, err := collectMovies(rows)
	if err != nil {
		return nil, fmt.Errorf("scan movies: %w", err)
	}
	return movies, nil
}

func (r *MovieRepository) SetAverageRating(ctx context.Context, id string, average float64) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.write.Exec(ctx, `UPDATE movies SET average_rating = $2 WHERE id = $1`, uid, average)
	if err != nil {
		return fmt.Errorf("update average rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
