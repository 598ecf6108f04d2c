package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/college-os/college-os/internal/auth"
	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/shared"
	"github.com/college-os/college-os/internal/users"
	_ "github.com/college-os/college-os/testing"
)

type stubDirectory struct {
	mu       sync.Mutex
	accounts map[string]users.Account
	err      error
}

func newStubDirectory(accounts ...users.Account) *stubDirectory {
	d := &stubDirectory{accounts: make(map[string]users.Account)}
	for _, a := range accounts {
		d.accounts[a.Email] = a
	}
	return d
}

func (d *stubDirectory) put(a users.Account) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[a.Email] = a
}

func (d *stubDirectory) FindByEmail(_ context.Context, email string) (*users.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	a, ok := d.accounts[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	a = a.Clone()
	return &a, nil
}

func (d *stubDirectory) FindByID(_ context.Context, id string) (*users.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.ID == id {
			a = a.Clone()
			return &a, nil
		}
	}
	return nil, shared.ErrNotFound
}

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

func (m *memoryAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.logs))
	for i, l := range m.logs {
		out[i] = l.Action
	}
	return out
}

type loginCounter struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (c *loginCounter) RecordLogin(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.successes++
		return
	}
	c.failures++
}

func studentsOnlyCatalog(t *testing.T) *rbac.Catalog {
	t.Helper()
	var admin rbac.Permissions
	admin.Grant(rbac.ResourceStudents, rbac.ActionCreate, rbac.ActionRead, rbac.ActionUpdate, rbac.ActionDelete)
	var student rbac.Permissions
	student.Grant(rbac.ResourceStudents)
	catalog, err := rbac.NewCatalog(
		rbac.Role{ID: "admin", Name: "Admin", Permissions: admin},
		rbac.Role{ID: "student", Name: "Student", Permissions: student},
	)
	require.NoError(t, err)
	return catalog
}

func demoService(t *testing.T) (*auth.Service, *memoryAudit, *loginCounter) {
	t.Helper()
	audit := &memoryAudit{}
	counter := &loginCounter{}
	svc := auth.NewService(
		users.NewMemoryRepository(users.DemoAccounts()...),
		rbac.NewCatalogStore(rbac.DefaultCatalog()),
		auth.Options{Audit: audit, Recorder: counter},
	)
	return svc, audit, counter
}

func TestAuthenticateDemoAdmin(t *testing.T) {
	svc, audit, counter := demoService(t)

	user, err := svc.Authenticate(context.Background(), "admin@college.com", "admin123")
	require.NoError(t, err)
	require.Equal(t, "1", user.ID)
	require.Equal(t, "admin", user.PrimaryRoleID())
	require.Len(t, user.Roles, 1)
	require.Equal(t, "Admin", user.Roles[0].Name)
	require.True(t, rbac.Grants(user.ResolvedRoles(), rbac.ResourceStudents, rbac.ActionDelete))
	require.Equal(t, []string{shared.AuditLogin}, audit.actions())
	require.Equal(t, 1, counter.successes)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	cases := []struct {
		name       string
		identifier string
		secret     string
	}{
		{name: "wrong secret", identifier: "admin@college.com", secret: "wrong"},
		{name: "unknown identifier", identifier: "nobody@college.com", secret: "demo123"},
		{name: "case differs", identifier: "ADMIN@college.com", secret: "admin123"},
		{name: "secret case differs", identifier: "admin@college.com", secret: "ADMIN123"},
		{name: "empty identifier", identifier: "", secret: "admin123"},
		{name: "empty secret", identifier: "admin@college.com", secret: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, audit, counter := demoService(t)
			user, err := svc.Authenticate(context.Background(), tc.identifier, tc.secret)
			require.Nil(t, user)
			require.ErrorIs(t, err, shared.ErrInvalidCredentials)
			require.Equal(t, []string{shared.AuditLoginFailed}, audit.actions())
			require.Equal(t, 1, counter.failures)
		})
	}
}

func TestAuthenticateHidesDirectoryFailures(t *testing.T) {
	dir := newStubDirectory()
	dir.err = errors.New("connection refused")
	svc := auth.NewService(dir, rbac.NewCatalogStore(rbac.DefaultCatalog()), auth.Options{})

	_, err := svc.Authenticate(context.Background(), "admin@college.com", "admin123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateBcryptSecrets(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	dir := newStubDirectory(users.Account{ID: "42", Email: "ops@college.com", Secret: string(hashed), RoleIDs: []string{"faculty"}})
	matcher, err := auth.SecretMatcherFor("bcrypt")
	require.NoError(t, err)
	svc := auth.NewService(dir, rbac.NewCatalogStore(rbac.DefaultCatalog()), auth.Options{Matcher: matcher})

	user, err := svc.Authenticate(context.Background(), "ops@college.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "42", user.ID)

	_, err = svc.Authenticate(context.Background(), "ops@college.com", "S3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestSecretMatcherForUnknownScheme(t *testing.T) {
	_, err := auth.SecretMatcherFor("argon2")
	require.Error(t, err)

	m, err := auth.SecretMatcherFor("")
	require.NoError(t, err)
	require.True(t, m("demo123", "demo123"))
	require.False(t, m("demo123", "demo1234"))
}

func TestAuthenticateDropsDanglingRoles(t *testing.T) {
	audit := &memoryAudit{}
	dir := newStubDirectory(users.Account{ID: "9", Email: "ghost@college.com", Secret: "pw", RoleIDs: []string{"ghost", "faculty"}})
	svc := auth.NewService(dir, rbac.NewCatalogStore(rbac.DefaultCatalog()), auth.Options{Audit: audit})

	user, err := svc.Authenticate(context.Background(), "ghost@college.com", "pw")
	require.NoError(t, err)
	require.Equal(t, []string{"ghost", "faculty"}, user.RoleIDs)
	require.Len(t, user.Roles, 1)
	require.Equal(t, "faculty", user.Roles[0].ID)
	require.Equal(t, "ghost", user.PrimaryRoleID())
	require.Equal(t, []string{shared.AuditRoleUnresolved, shared.AuditLogin}, audit.actions())
}

func TestRestoreResolvesAgainstCurrentCatalog(t *testing.T) {
	store := rbac.NewCatalogStore(rbac.DefaultCatalog())
	svc := auth.NewService(users.NewMemoryRepository(users.DemoAccounts()...), store, auth.Options{})

	user, err := svc.Restore(context.Background(), "6")
	require.NoError(t, err)
	require.False(t, rbac.Grants(user.Roles, rbac.ResourceStudents, rbac.ActionRead))

	var widened rbac.Permissions
	widened.Grant(rbac.ResourceStudents, rbac.ActionRead)
	next, err := store.Load().With(rbac.Role{ID: rbac.RoleStudent, Name: "Student", Permissions: widened})
	require.NoError(t, err)
	store.Swap(next)

	user, err = svc.Restore(context.Background(), "6")
	require.NoError(t, err)
	require.True(t, rbac.Grants(user.Roles, rbac.ResourceStudents, rbac.ActionRead))

	_, err = svc.Restore(context.Background(), "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

type stubSessionStore struct {
	created map[string]string
	deleted []string
}

func (s *stubSessionStore) CreateSession(_ context.Context, id string, userID string, _ time.Time, _, _ string) error {
	if s.created == nil {
		s.created = make(map[string]string)
	}
	s.created[id] = userID
	return nil
}

func (s *stubSessionStore) DeleteSession(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestRegisterAndRemoveSession(t *testing.T) {
	store := &stubSessionStore{}
	audit := &memoryAudit{}
	svc := auth.NewService(users.NewMemoryRepository(), rbac.NewCatalogStore(rbac.DefaultCatalog()),
		auth.Options{Sessions: store, Audit: audit})

	require.NoError(t, svc.RegisterSession(context.Background(), "sid", "1", time.Now().Add(time.Hour), "127.0.0.1", "test"))
	require.Equal(t, "1", store.created["sid"])

	require.NoError(t, svc.RemoveSession(context.Background(), "sid", "1"))
	require.NoError(t, svc.RemoveSession(context.Background(), "sid", ""))
	require.Equal(t, []string{"sid", "sid"}, store.deleted)
	require.Equal(t, []string{shared.AuditLogout}, audit.actions())
}

func TestServiceWithoutSessionStore(t *testing.T) {
	svc, _, _ := demoService(t)
	require.NoError(t, svc.RegisterSession(context.Background(), "sid", "1", time.Now(), "", ""))
	require.NoError(t, svc.RemoveSession(context.Background(), "sid", "1"))
}
