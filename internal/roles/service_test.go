package roles_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/roles"
	"github.com/college-os/college-os/internal/shared"
	_ "github.com/college-os/college-os/testing"
)

type memoryAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (m *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

type reloadCounter struct {
	mu      sync.Mutex
	ok, bad int
}

func (c *reloadCounter) RecordCatalogReload(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.ok++
		return
	}
	c.bad++
}

type failingRepo struct {
	*roles.MemoryRepository
	err error
}

func (f failingRepo) ListRoles(context.Context) ([]rbac.Role, error) { return nil, f.err }
func (f failingRepo) SaveRole(context.Context, rbac.Role) error      { return f.err }

func newService(t *testing.T) (*roles.Service, *rbac.CatalogStore, *roles.MemoryRepository, *memoryAudit) {
	t.Helper()
	repo := roles.NewMemoryRepository(rbac.DefaultRoles()...)
	store := rbac.NewCatalogStore(rbac.DefaultCatalog())
	audit := &memoryAudit{}
	return roles.NewService(repo, store, audit, nil, nil), store, repo, audit
}

func TestPutRoleReplacesWholesale(t *testing.T) {
	svc, store, repo, audit := newService(t)
	before := store.Load()

	var grants rbac.Permissions
	grants.Grant(rbac.ResourceStudents, rbac.ActionRead)
	created, err := svc.PutRole(context.Background(), "1", rbac.Role{ID: rbac.RoleStudent, Name: "Student", Permissions: grants})
	require.NoError(t, err)
	require.False(t, created)

	role, ok := store.FindRole(rbac.RoleStudent)
	require.True(t, ok)
	require.True(t, role.Allows(rbac.ResourceStudents, rbac.ActionRead))
	require.False(t, role.Allows(rbac.ResourceFees, rbac.ActionRead))

	old, _ := before.FindRole(rbac.RoleStudent)
	require.True(t, old.Allows(rbac.ResourceFees, rbac.ActionRead), "earlier snapshots are immutable")

	stored, err := repo.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 5)
	require.Len(t, audit.logs, 1)
	require.Equal(t, shared.AuditRoleReplaced, audit.logs[0].Action)
}

func TestPutRoleCreates(t *testing.T) {
	svc, store, _, _ := newService(t)
	created, err := svc.PutRole(context.Background(), "1", rbac.Role{ID: "registrar", Name: "Registrar"})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, 6, store.Load().Len())
}

func TestPutRoleRejectsBadIDs(t *testing.T) {
	svc, store, _, _ := newService(t)
	_, err := svc.PutRole(context.Background(), "1", rbac.Role{ID: " padded "})
	require.ErrorIs(t, err, rbac.ErrInvalidRole)
	require.Equal(t, 5, store.Load().Len())
}

func TestPutRoleKeepsCatalogOnStorageFailure(t *testing.T) {
	repo := failingRepo{MemoryRepository: roles.NewMemoryRepository(), err: errors.New("db down")}
	store := rbac.NewCatalogStore(rbac.DefaultCatalog())
	svc := roles.NewService(repo, store, nil, nil, nil)
	before := store.Load()

	_, err := svc.PutRole(context.Background(), "1", rbac.Role{ID: "registrar"})
	require.Error(t, err)
	require.Same(t, before, store.Load())
}

func TestDeleteRole(t *testing.T) {
	svc, store, _, audit := newService(t)
	require.NoError(t, svc.DeleteRole(context.Background(), "1", rbac.RoleHead))
	_, ok := store.FindRole(rbac.RoleHead)
	require.False(t, ok)
	require.Equal(t, shared.AuditRoleDeleted, audit.logs[0].Action)

	err := svc.DeleteRole(context.Background(), "1", rbac.RoleHead)
	require.ErrorIs(t, err, rbac.ErrNotFound)

	resolved, dangling := store.Resolve([]string{rbac.RoleHead, rbac.RoleFaculty})
	require.Len(t, resolved, 1)
	require.Equal(t, []string{rbac.RoleHead}, dangling)
}

func TestReload(t *testing.T) {
	repo := roles.NewMemoryRepository(rbac.Role{ID: "only", Name: "Only"})
	store := rbac.NewCatalogStore(rbac.DefaultCatalog())
	counter := &reloadCounter{}
	svc := roles.NewService(repo, store, nil, counter, nil)

	catalog, err := svc.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, catalog.Len())
	require.Same(t, catalog, store.Load())
	require.Equal(t, 1, counter.ok)
}

func TestReloadFailureKeepsCatalog(t *testing.T) {
	repo := failingRepo{MemoryRepository: roles.NewMemoryRepository(), err: errors.New("db down")}
	store := rbac.NewCatalogStore(rbac.DefaultCatalog())
	counter := &reloadCounter{}
	svc := roles.NewService(repo, store, nil, counter, nil)
	before := store.Load()

	_, err := svc.Reload(context.Background())
	require.Error(t, err)
	require.Same(t, before, store.Load())
	require.Equal(t, 1, counter.bad)
}

func TestConcurrentPutsAllLand(t *testing.T) {
	svc, store, _, _ := newService(t)
	var wg sync.WaitGroup
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.PutRole(context.Background(), "1", rbac.Role{ID: id, Name: id})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()
	require.Equal(t, 5+len(ids), store.Load().Len())
}

func TestExportRoundTrips(t *testing.T) {
	svc, store, _, _ := newService(t)
	var buf bytes.Buffer
	require.NoError(t, svc.Export(&buf))

	decoded, err := rbac.DecodeCatalog(&buf)
	require.NoError(t, err)
	require.Equal(t, store.Load().Roles(), decoded.Roles())
}

func TestRoleFromInput(t *testing.T) {
	role, err := roles.RoleFromInput("dept_head", roles.PutInput{Permissions: map[string][]string{"students": {"read", "UPDATE"}}})
	require.NoError(t, err)
	require.Equal(t, "Dept Head", role.Name)
	require.True(t, role.Allows(rbac.ResourceStudents, rbac.ActionUpdate))

	_, err = roles.RoleFromInput("x", roles.PutInput{Permissions: map[string][]string{"LIBRARY": {"READ"}}})
	require.ErrorIs(t, err, rbac.ErrUnknownResource)

	_, err = roles.RoleFromInput("", roles.PutInput{})
	require.ErrorIs(t, err, rbac.ErrInvalidRole)
}

func TestWatchPicksUpExternalChanges(t *testing.T) {
	repo := roles.NewMemoryRepository(rbac.DefaultRoles()...)
	store := rbac.NewCatalogStore(rbac.DefaultCatalog())
	svc := roles.NewService(repo, store, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Watch(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.NoError(t, repo.SaveRole(context.Background(), rbac.Role{ID: "registrar", Name: "Registrar"}))
	require.Eventually(t, func() bool {
		_, ok := store.FindRole("registrar")
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestWatchDisabledForZeroInterval(t *testing.T) {
	svc, _, _, _ := newService(t)
	svc.Watch(context.Background(), 0)
}
