package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/college-os/college-os/internal/rbac"
)

type adminPrincipal struct{}

func (adminPrincipal) ResolvedRoles() []rbac.Role {
	role, _ := rbac.DefaultCatalog().FindRole(rbac.RoleAdmin)
	return []rbac.Role{role}
}

type fixedSource struct{ p rbac.Principal }

func (s fixedSource) Principal() rbac.Principal { return s.p }

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

type stubEnqueuer struct{ err error }

func (s stubEnqueuer) EnqueueSessionsPurge(context.Context, SessionsPurgePayload) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "t1", Queue: QueueDefault}, nil
}

func serve(h *Handler, method, path string, signedIn bool) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var src rbac.PrincipalSource = fixedSource{}
			if signedIn {
				src = fixedSource{p: adminPrincipal{}}
			}
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithEvaluator(req.Context(), rbac.NewEvaluator(src))))
		})
	})
	r.Route("/jobs", h.MountRoutes)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(method, path, nil))
	return res
}

func TestJobsHealth(t *testing.T) {
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 2}}, nil, nil, rbac.Middleware{})

	require.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "/jobs/health", false).Code)

	res := serve(h, http.MethodGet, "/jobs/health", true)
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"queue":"default","pending":2,"active":0,"failed":0}`, res.Body.String())

	down := NewHandler(stubInspector{err: errors.New("redis down")}, nil, nil, rbac.Middleware{})
	require.Equal(t, http.StatusServiceUnavailable, serve(down, http.MethodGet, "/jobs/health", true).Code)

	none := NewHandler(nil, nil, nil, rbac.Middleware{})
	require.Equal(t, http.StatusOK, serve(none, http.MethodGet, "/jobs/health", true).Code)
}

func TestJobsPurgeSessions(t *testing.T) {
	h := NewHandler(nil, stubEnqueuer{}, nil, rbac.Middleware{})
	res := serve(h, http.MethodPost, "/jobs/sessions/purge", true)
	require.Equal(t, http.StatusAccepted, res.Code)
	require.JSONEq(t, `{"task_id":"t1","queue":"default"}`, res.Body.String())

	dup := NewHandler(nil, stubEnqueuer{err: asynq.ErrDuplicateTask}, nil, rbac.Middleware{})
	require.Equal(t, http.StatusConflict, serve(dup, http.MethodPost, "/jobs/sessions/purge", true).Code)

	none := NewHandler(nil, nil, nil, rbac.Middleware{})
	require.Equal(t, http.StatusServiceUnavailable, serve(none, http.MethodPost, "/jobs/sessions/purge", true).Code)
	require.Equal(t, http.StatusForbidden, serve(none, http.MethodPost, "/jobs/sessions/purge", false).Code)
}
