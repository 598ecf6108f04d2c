package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/college-os/college-os/internal/audit/http"
	"github.com/college-os/college-os/internal/auth"
	"github.com/college-os/college-os/internal/navigation"
	"github.com/college-os/college-os/internal/observability"
	"github.com/college-os/college-os/internal/platform/httpx"
	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/roles"
	"github.com/college-os/college-os/internal/shared"
	"github.com/college-os/college-os/internal/users"
	"github.com/college-os/college-os/jobs"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	AuthHandler        *auth.Handler
	PermissionsHandler *rbac.PermissionsHandler
	NavigationHandler  *navigation.Handler
	RolesHandler       *roles.Handler
	UsersHandler       *users.Handler
	JobsHandler        *jobs.Handler
	// AuditHandler is nil when audit records go to the log instead of Postgres.
	AuditHandler *audithttp.Handler
	Metrics      *observability.Metrics
	// Checks are consulted by /healthz, keyed by component name.
	Checks map[string]Pinger
}

// NewRouter constructs the chi.Router with College OS defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	var identity func(http.Handler) http.Handler
	if params.AuthHandler != nil {
		identity = params.AuthHandler.Identity
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
		Identity:       identity,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler(params.Checks))

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.NavigationHandler != nil {
		r.Route("/navigation", params.NavigationHandler.MountRoutes)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				status[name] = "down"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httpx.JSON(w, code, status)
	}
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
