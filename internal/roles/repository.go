package roles

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/college-os/college-os/internal/platform/db"
	"github.com/college-os/college-os/internal/rbac"
)

// Repository persists the role catalog.
type Repository interface {
	ListRoles(ctx context.Context) ([]rbac.Role, error)
	SaveRole(ctx context.Context, role rbac.Role) error
	DeleteRole(ctx context.Context, id string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListRoles returns all roles in creation order with their grants.
func (r *PGRepository) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()
	var roles []rbac.Role
	index := make(map[string]int)
	for rows.Next() {
		var role rbac.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		index[role.ID] = len(roles)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	grants, err := r.pool.Query(ctx, `SELECT role_id, resource, action FROM role_permissions`)
	if err != nil {
		return nil, fmt.Errorf("roles: list permissions: %w", err)
	}
	defer grants.Close()
	for grants.Next() {
		var roleID, rawResource, rawAction string
		if err := grants.Scan(&roleID, &rawResource, &rawAction); err != nil {
			return nil, err
		}
		i, ok := index[roleID]
		if !ok {
			continue
		}
		res, err := rbac.ParseResource(rawResource)
		if err != nil {
			return nil, fmt.Errorf("roles: role %s: %w", roleID, err)
		}
		act, err := rbac.ParseAction(rawAction)
		if err != nil {
			return nil, fmt.Errorf("roles: role %s: %w", roleID, err)
		}
		roles[i].Permissions.Grant(res, act)
	}
	return roles, grants.Err()
}

// SaveRole upserts a role and replaces all of its grants in one transaction.
func (r *PGRepository) SaveRole(ctx context.Context, role rbac.Role) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO roles (id, name) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`,
			role.ID, role.Name); err != nil {
			return fmt.Errorf("roles: upsert: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, role.ID); err != nil {
			return fmt.Errorf("roles: clear grants: %w", err)
		}
		batch := &pgx.Batch{}
		for _, p := range role.Permissions.List() {
			batch.Queue(`INSERT INTO role_permissions (role_id, resource, action) VALUES ($1, $2, $3)`,
				role.ID, p.Resource.String(), p.Action.String())
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("roles: insert grants: %w", err)
		}
		return nil
	})
}

// DeleteRole removes a role and its grants. User assignments are left in place.
func (r *PGRepository) DeleteRole(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: role %s", rbac.ErrNotFound, id)
		}
		return nil
	})
}

// MemoryRepository keeps roles in process, for the seeded and file backed catalogs.
type MemoryRepository struct {
	mu    sync.Mutex
	roles []rbac.Role
}

// NewMemoryRepository builds a repository holding roles.
func NewMemoryRepository(roles ...rbac.Role) *MemoryRepository {
	return &MemoryRepository{roles: append([]rbac.Role(nil), roles...)}
}

// ListRoles returns all roles in insertion order.
func (m *MemoryRepository) ListRoles(context.Context) ([]rbac.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rbac.Role(nil), m.roles...), nil
}

// SaveRole replaces or appends role.
func (m *MemoryRepository) SaveRole(_ context.Context, role rbac.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.roles {
		if m.roles[i].ID == role.ID {
			m.roles[i] = role
			return nil
		}
	}
	m.roles = append(m.roles, role)
	return nil
}

// DeleteRole removes role id.
func (m *MemoryRepository) DeleteRole(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.roles {
		if m.roles[i].ID == id {
			m.roles = append(m.roles[:i], m.roles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: role %s", rbac.ErrNotFound, id)
}

var (
	_ Repository = (*PGRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
