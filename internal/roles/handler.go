package roles

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/college-os/college-os/internal/auth"
	"github.com/college-os/college-os/internal/platform/httpx"
	"github.com/college-os/college-os/internal/rbac"
)

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(
			rbac.Permission{Resource: rbac.ResourceRoles, Action: rbac.ActionRead},
			rbac.Permission{Resource: rbac.ResourceAdmin, Action: rbac.ActionRead},
		))
		r.Get("/", h.listRoles)
		r.Get("/export", h.exportRoles)
		r.Get("/{id}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(
			rbac.Permission{Resource: rbac.ResourceRoles, Action: rbac.ActionUpdate},
			rbac.Permission{Resource: rbac.ResourceAdmin, Action: rbac.ActionUpdate},
		))
		r.Put("/{id}", h.putRole)
		r.Post("/reload", h.reloadRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(
			rbac.Permission{Resource: rbac.ResourceRoles, Action: rbac.ActionDelete},
			rbac.Permission{Resource: rbac.ResourceAdmin, Action: rbac.ActionUpdate},
		))
		r.Delete("/{id}", h.deleteRole)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.service.ListRoles()
	views := make([]View, len(roles))
	for i, role := range roles {
		views[i] = ViewOf(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": views})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ViewOf(role))
}

func (h *Handler) exportRoles(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.Export(&buf); err != nil {
		h.logger.Error("export roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="roles.yaml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) putRole(w http.ResponseWriter, r *http.Request) {
	var in PutInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed role payload")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		httpx.ValidationProblem(w, fields)
		return
	}
	role, err := RoleFromInput(chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	created, err := h.service.PutRole(r.Context(), actorID(r), role)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, ViewOf(role))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), actorID(r), chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) reloadRoles(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.Reload(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"roles": catalog.Len()})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrNotFound):
		err = fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, rbac.ErrInvalidRole), errors.Is(err, rbac.ErrDuplicateRole),
		errors.Is(err, rbac.ErrUnknownResource), errors.Is(err, rbac.ErrUnknownAction):
		err = fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	default:
		h.logger.Error("role admin failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func actorID(r *http.Request) string {
	if u := auth.SessionFromContext(r.Context()).User(); u != nil {
		return u.ID
	}
	return ""
}
