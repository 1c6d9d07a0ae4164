package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/repository"
)

var _ repository.RoleRepository = (*PostgresRoleRepo)(nil)

type PostgresRoleRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRoleRepo(pool *pgxpool.Pool) *PostgresRoleRepo {
	return &PostgresRoleRepo{pool: pool}
}

func (r *PostgresRoleRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Role, error) {
	const q = `SELECT id, name, created_at FROM roles WHERE name=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var role model.Role
	if err := ex.QueryRow(ctx, q, name).Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// EnsureDefaults seeds the built-in roles. ON CONFLICT keeps it idempotent so
// the composition root can call it on every boot.
func (r *PostgresRoleRepo) EnsureDefaults(ctx context.Context, tx repository.Tx) error {
	const q = `INSERT INTO roles (id, name, created_at) VALUES ($1, $2, NOW()) ON CONFLICT (name) DO NOTHING;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	for _, name := range []string{model.RoleAdmin, model.RoleUser} {
		if _, err := ex.Exec(ctx, q, uuid.NewString(), name); err != nil {
			return err
		}
	}
	return nil
}
