package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/college-os/college-os/internal/rbac"
)

func TestRoleRepositorySources(t *testing.T) {
	ctx := context.Background()

	repo, err := RoleRepository(&Config{CatalogSource: SourceSeed}, nil)
	require.NoError(t, err)
	roles, err := repo.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, len(rbac.DefaultRoles()))

	repo, err = RoleRepository(&Config{CatalogSource: SourceFile, CatalogFile: filepath.Join("..", "..", "config", "roles.yaml")}, nil)
	require.NoError(t, err)
	roles, err = repo.ListRoles(ctx)
	require.NoError(t, err)
	require.Equal(t, rbac.RoleAdmin, roles[0].ID)

	_, err = RoleRepository(&Config{CatalogSource: SourceFile, CatalogFile: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	require.Error(t, err)

	_, err = RoleRepository(&Config{CatalogSource: SourcePostgres}, nil)
	require.ErrorIs(t, err, errNoPool)
}

func TestDirectorySources(t *testing.T) {
	dir, err := Directory(&Config{DirectorySource: SourceSeed}, nil)
	require.NoError(t, err)
	acct, err := dir.FindByEmail(context.Background(), "admin@college.com")
	require.NoError(t, err)
	require.Equal(t, "1", acct.ID)

	_, err = Directory(&Config{DirectorySource: SourcePostgres}, nil)
	require.ErrorIs(t, err, errNoPool)

	_, err = Directory(&Config{DirectorySource: "ldap"}, nil)
	require.Error(t, err)
}
