package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaibaki/auth-backend/internal/domain"
)

// RoleRepository define el contrato de persistencia para roles.
type RoleRepository interface {
	GetByName(ctx context.Context, name domain.RoleName) (domain.Role, error)
	Count(ctx context.Context) (int64, error)
	EnsureDefaults(ctx context.Context) error
}

// PgRoleRepository implementa RoleRepository usando pgxpool.
type PgRoleRepository struct {
	pool *pgxpool.Pool
}

func NewPgRoleRepository(pool *pgxpool.Pool) *PgRoleRepository {
	return &PgRoleRepository{pool: pool}
}

func (r *PgRoleRepository) GetByName(ctx context.Context, name domain.RoleName) (domain.Role, error) {
	const query = `SELECT id, name FROM roles WHERE name = $1`
	var role domain.Role
	err := r.pool.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name)
	return role, err
}

func (r *PgRoleRepository) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM roles`
	var n int64
	err := r.pool.QueryRow(ctx, query).Scan(&n)
	return n, err
}

// EnsureDefaults siembra los roles por defecto una sola vez; si la tabla ya
// tiene filas no hace nada.
func (r *PgRoleRepository) EnsureDefaults(ctx context.Context) error {
	n, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	const query = `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	for _, name := range domain.DefaultRoles {
		if _, err := r.pool.Exec(ctx, query, name); err != nil {
			return err
		}
	}
	return nil
}
