package app

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/roles"
	"github.com/college-os/college-os/internal/users"
)

var errNoPool = errors.New("postgres source selected without a connection pool")

// RoleRepository returns the catalog backing selected by CATALOG_SOURCE.
func RoleRepository(cfg *Config, pool *pgxpool.Pool) (roles.Repository, error) {
	switch cfg.CatalogSource {
	case SourceSeed:
		return roles.NewMemoryRepository(rbac.DefaultRoles()...), nil
	case SourceFile:
		catalog, err := rbac.LoadCatalogFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		return roles.NewMemoryRepository(catalog.Roles()...), nil
	case SourcePostgres:
		if pool == nil {
			return nil, errNoPool
		}
		return roles.NewRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown CATALOG_SOURCE %q", cfg.CatalogSource)
	}
}

// Directory returns the user directory selected by DIRECTORY_SOURCE.
func Directory(cfg *Config, pool *pgxpool.Pool) (users.Repository, error) {
	switch cfg.DirectorySource {
	case SourceSeed:
		return users.NewMemoryRepository(users.DemoAccounts()...), nil
	case SourcePostgres:
		if pool == nil {
			return nil, errNoPool
		}
		return users.NewRepository(pool), nil
	default:
		return nil, fmt.Errorf("unknown DIRECTORY_SOURCE %q", cfg.DirectorySource)
	}
}
