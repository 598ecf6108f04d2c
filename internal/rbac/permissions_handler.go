package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/college-os/college-os/internal/platform/httpx"
)

// PermissionsHandler exposes the caller's effective grants.
type PermissionsHandler struct {
	logger *slog.Logger
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger) *PermissionsHandler {
	return &PermissionsHandler{logger: logger}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
	r.Get("/check", h.check)
}

type permissionsResponse struct {
	Permissions []string            `json:"permissions"`
	Matrix      map[string][]string `json:"matrix"`
}

type checkResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Allowed  bool   `json:"allowed"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	effective := EvaluatorFromContext(r.Context()).Effective()
	resp := permissionsResponse{Permissions: []string{}, Matrix: map[string][]string{}}
	for _, p := range effective.List() {
		resp.Permissions = append(resp.Permissions, p.String())
		resp.Matrix[p.Resource.String()] = append(resp.Matrix[p.Resource.String()], p.Action.String())
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// check answers a single query. Unknown tags are answered with allowed=false rather than an error.
func (h *PermissionsHandler) check(w http.ResponseWriter, r *http.Request) {
	rawResource := r.URL.Query().Get("resource")
	rawAction := r.URL.Query().Get("action")
	resp := checkResponse{Resource: rawResource, Action: rawAction}
	resource, rerr := ParseResource(rawResource)
	action, aerr := ParseAction(rawAction)
	if rerr == nil && aerr == nil {
		resp.Allowed = EvaluatorFromContext(r.Context()).Can(resource, action)
	} else if h.logger != nil {
		h.logger.Debug("permission check on unknown tag", slog.String("resource", rawResource), slog.String("action", rawAction))
	}
	httpx.JSON(w, http.StatusOK, resp)
}
