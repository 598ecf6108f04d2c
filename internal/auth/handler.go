package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/college-os/college-os/internal/platform/httpx"
	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
	loginLimit     int
}

// NewHandler constructs a Handler instance. loginLimit caps login attempts per IP
// per minute; zero disables the limit.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
		loginLimit:     loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.issueCSRF)
	r.Get("/me", h.me)
	r.Post("/logout", h.handleLogout)
	r.Group(func(r chi.Router) {
		if h.loginLimit > 0 {
			r.Use(httprate.LimitByIP(h.loginLimit, time.Minute))
		}
		r.Post("/login", h.handleLogin)
	})
}

// Identity resolves the browser session's user into a request-scoped identity
// session and evaluator. It must run after the browser session is loaded.
func (h *Handler) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := NewSession(h.service)
		if browser := shared.SessionFromContext(ctx); browser != nil && browser.User() != "" {
			user, err := h.service.Restore(ctx, browser.User())
			switch {
			case err == nil:
				sess.Establish(user)
			case errors.Is(err, shared.ErrNotFound):
				browser.SetUser("")
			default:
				h.logger.Error("restore session user", slog.Any("error", err))
			}
		}
		ctx = ContextWithSession(ctx, sess)
		ctx = rbac.ContextWithEvaluator(ctx, sess.Evaluator())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type roleView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	RoleIDs       []string   `json:"role_ids"`
	PrimaryRoleID string     `json:"primary_role_id,omitempty"`
	Roles         []roleView `json:"roles"`
	UniversityID  *int64     `json:"university_id,omitempty"`
	CollegeID     *int64     `json:"college_id,omitempty"`
	DepartmentID  *int64     `json:"department_id,omitempty"`
}

type loginResponse struct {
	User      userView `json:"user"`
	CSRFToken string   `json:"csrf_token"`
}

func viewOf(u *User) userView {
	v := userView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		AvatarURL:     u.AvatarURL,
		RoleIDs:       append([]string{}, u.RoleIDs...),
		PrimaryRoleID: u.PrimaryRoleID(),
		Roles:         make([]roleView, 0, len(u.Roles)),
		UniversityID:  u.UniversityID,
		CollegeID:     u.CollegeID,
		DepartmentID:  u.DepartmentID,
	}
	for _, role := range u.Roles {
		v.Roles = append(v.Roles, roleView{ID: role.ID, Name: role.Name})
	}
	return v
}

func (h *Handler) issueCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(shared.SessionFromContext(r.Context()))
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if !sess.Active() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(sess.User()))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed login payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
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

	sess := SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("identity session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	user, err := sess.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password.")
		return
	}

	resp := loginResponse{User: viewOf(user)}
	if browser := shared.SessionFromContext(r.Context()); browser != nil {
		browser.Rotate()
		browser.SetUser(user.ID)
		browser.Delete(shared.CSRFSessionKey)
		if token, err := h.csrfManager.EnsureToken(browser); err == nil {
			resp.CSRFToken = token
		}
		expiresAt := time.Now().Add(h.sessionManager.TTL())
		if err := h.service.RegisterSession(r.Context(), browser.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
			h.logger.Warn("register session", slog.Any("error", err))
		}
	} else {
		h.logger.Error("browser session missing during login")
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// handleLogout always succeeds; logging out twice is a no-op.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if sess := SessionFromContext(r.Context()); sess != nil {
		if u := sess.User(); u != nil {
			userID = u.ID
		}
		sess.End()
	}
	if browser := shared.SessionFromContext(r.Context()); browser != nil {
		if err := h.service.RemoveSession(r.Context(), browser.ID, userID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(browser)
	}
	httpx.NoContent(w)
}
