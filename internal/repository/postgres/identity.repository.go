package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duccv/movie-rating-api/internal/model"
)

const identityColumns = `id::text, name, email, password, role, status, verified, created_at, updated_at`

type IdentityRepository struct {
	read  *pgxpool.Pool
	write *pgxpool.Pool
}

func NewIdentityRepository(read, write *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{read: read, write: write}
}

func scanIdentity(row pgx.Row) (model.Identity, error) {
	var (
		i            model.Identity
		role, status string
	)
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.PasswordHash, &role, &status, &i.Verified, &i.CreatedAt, &i.UpdatedAt)
	i.Role = model.Role(role)
	i.Status = model.Status(status)
	return i, err
}

func (r *IdentityRepository) Create(ctx context.Context, identity *model.Identity) error {
	id := uuid.New()
	ts := now()
	email := model.NormalizeEmail(identity.Email)

	_, err := r.write.Exec(ctx, `
		INSERT INTO users (id, name, email, password, role, status, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		id, identity.Name, email, identity.PasswordHash,
		string(identity.Role), string(identity.Status), identity.Verified, ts)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}

	identity.ID = id.String()
	identity.Email = email
	identity.CreatedAt = ts
	identity.UpdatedAt = ts
	return nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	identity, err := scanIdentity(r.read.QueryRow(ctx, `SELECT `+identityColumns+` FROM users WHERE id = $1`, uid))
	if err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	identity, err := scanIdentity(r.read.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM users WHERE email = $1`, model.NormalizeEmail(email)))
	if err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

func (r *IdentityRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Identity, error) {
	uids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if uid, err := parseID(id); err == nil {
			uids = append(uids, uid)
		}
	}
	if len(uids) == 0 {
		return []model.Identity{}, nil
	}

	rows, err := r.read.Query(ctx, `SELECT `+identityColumns+` FROM users WHERE id = ANY($1)`, uids)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	identities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Identity, error) {
		return scanIdentity(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return identities, nil
}
