package audithttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/college-os/college-os/internal/audit"
	"github.com/college-os/college-os/internal/rbac"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []audit.TimelineRow
	err         error
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(_ context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, s.err
}

func (s *stubTimelineService) Export(_ context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error) {
	s.lastFilters = filters
	return s.exportRows, s.err
}

type rolePrincipal []rbac.Role

func (p rolePrincipal) ResolvedRoles() []rbac.Role { return p }

type fixedSource struct{ p rbac.Principal }

func (s fixedSource) Principal() rbac.Principal { return s.p }

func serve(t *testing.T, service TimelineService, roleID, target string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewHandler(nil, service, rbac.Middleware{})
	handler.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }

	var src fixedSource
	if roleID != "" {
		role, ok := rbac.DefaultCatalog().FindRole(roleID)
		require.True(t, ok)
		src.p = rolePrincipal{role}
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithEvaluator(req.Context(), rbac.NewEvaluator(src))))
		})
	})
	r.Route("/audit", handler.MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestTimelineRequiresAdmin(t *testing.T) {
	service := &stubTimelineService{}
	require.Equal(t, http.StatusForbidden, serve(t, service, "", "/audit").Code)
	require.Equal(t, http.StatusForbidden, serve(t, service, rbac.RoleHead, "/audit").Code)
	require.Equal(t, http.StatusForbidden, serve(t, service, rbac.RoleManager, "/audit/export.csv").Code)
}

func TestTimelineReturnsRows(t *testing.T) {
	rows := []audit.TimelineRow{{At: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), Actor: "1", Action: "role.replaced", Entity: "role", EntityID: "head"}}
	service := &stubTimelineService{result: audit.Result{Rows: rows, Paging: audit.PagingInfo{Page: 1, PageSize: 20}}}

	rr := serve(t, service, rbac.RoleAdmin, "/audit?from=2026-03-01&to=2026-03-15&entity=role&page=1&page_size=5")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"entity_id":"head"`)
	require.Equal(t, "2026-03-01", service.lastFilters.From.Format(dateLayout))
	require.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), service.lastFilters.To)
	require.Equal(t, "role", service.lastFilters.Entity)
	require.Equal(t, 5, service.lastFilters.PageSize)
}

func TestTimelineDefaultsToLastWeek(t *testing.T) {
	service := &stubTimelineService{}
	rr := serve(t, service, rbac.RoleAdmin, "/audit")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "2026-03-08", service.lastFilters.From.Format(dateLayout))
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	for _, target := range []string{
		"/audit?from=yesterday",
		"/audit?from=2026-03-10&to=2026-03-01",
		"/audit?from=2025-01-01&to=2026-03-01",
		"/audit?page=0",
		"/audit?page=100000000",
		"/audit?page_size=x",
	} {
		rr := serve(t, &stubTimelineService{}, rbac.RoleAdmin, target)
		require.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestTimelineServiceFailure(t *testing.T) {
	rr := serve(t, &stubTimelineService{err: errors.New("db down")}, rbac.RoleAdmin, "/audit")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "db down")
}

func TestExportCSV(t *testing.T) {
	service := &stubTimelineService{exportRows: []audit.TimelineRow{{Actor: "1", Action: "auth.login", Entity: "user", EntityID: "1"}}}
	rr := serve(t, service, rbac.RoleAdmin, "/audit/export.csv?from=2026-03-01&to=2026-03-05")
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv"))
	require.Contains(t, rr.Body.String(), "auth.login")
}
