package navigation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/college-os/college-os/internal/auth"
	"github.com/college-os/college-os/internal/platform/httpx"
	"github.com/college-os/college-os/internal/rbac"
)

// Handler serves the signed-in user's menus.
type Handler struct {
	logger *slog.Logger
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// MountRoutes registers navigation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.menu)
}

type menuResponse struct {
	Title  string  `json:"title"`
	Menu   []Entry `json:"menu"`
	Bottom []Entry `json:"bottom"`
}

func (h *Handler) menu(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	user := sess.User()
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
		return
	}
	eval := rbac.EvaluatorFromContext(r.Context())
	role := user.PrimaryRoleID()
	httpx.JSON(w, http.StatusOK, menuResponse{
		Title:  Title(r.URL.Query().Get("view"), role, true),
		Menu:   Menu(eval, role),
		Bottom: BottomMenu(eval, role),
	})
}
