package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/college-os/college-os/internal/shared"
)

// Repository is the user directory consulted by login and administration.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	ListUsers(ctx context.Context) ([]Account, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectAccounts = `
SELECT u.id, u.name, u.email, u.secret, u.avatar_url, u.university_id, u.college_id, u.department_id,
       COALESCE(array_agg(ur.role_id ORDER BY ur.position) FILTER (WHERE ur.role_id IS NOT NULL), '{}') AS role_ids
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id`

// FindByEmail fetches an account by exact email match.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pool.QueryRow(ctx, selectAccounts+` WHERE u.email = $1 GROUP BY u.id`, email)
	return scanOne(row)
}

// FindByID fetches an account by identifier.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	row := r.pool.QueryRow(ctx, selectAccounts+` WHERE u.id = $1 GROUP BY u.id`, id)
	return scanOne(row)
}

// ListUsers returns all accounts ordered by id.
func (r *PGRepository) ListUsers(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, selectAccounts+` GROUP BY u.id ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func scanOne(row pgx.Row) (*Account, error) {
	acct, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var acct Account
	err := row.Scan(&acct.ID, &acct.Name, &acct.Email, &acct.Secret, &acct.AvatarURL,
		&acct.UniversityID, &acct.CollegeID, &acct.DepartmentID, &acct.RoleIDs)
	return acct, err
}

// MemoryRepository is an in-process directory, used for the demo accounts and tests.
type MemoryRepository struct {
	byID    map[string]Account
	byEmail map[string]string
}

// NewMemoryRepository builds a directory from accounts. Later duplicates win.
func NewMemoryRepository(accounts ...Account) *MemoryRepository {
	r := &MemoryRepository{
		byID:    make(map[string]Account, len(accounts)),
		byEmail: make(map[string]string, len(accounts)),
	}
	for _, a := range accounts {
		a = a.Clone()
		r.byID[a.ID] = a
		r.byEmail[a.Email] = a.ID
	}
	return r
}

// FindByEmail matches email exactly; case differences do not match.
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	acct := r.byID[id].Clone()
	return &acct, nil
}

// FindByID fetches an account by identifier.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*Account, error) {
	acct, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	acct = acct.Clone()
	return &acct, nil
}

// ListUsers returns all accounts ordered by id.
func (r *MemoryRepository) ListUsers(_ context.Context) ([]Account, error) {
	out := make([]Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

var (
	_ Repository = (*PGRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
