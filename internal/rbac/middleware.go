package rbac

import (
	"log/slog"
	"net/http"
)

// DecisionRecorder observes gate decisions taken by Middleware.
type DecisionRecorder interface {
	RecordDecision(perm Permission, granted bool)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
// The request evaluator is read from the context; requests without one are anonymous.
type Middleware struct {
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

// Require ensures the current user may perform action on resource.
func (m Middleware) Require(resource Resource, action Action) func(http.Handler) http.Handler {
	return m.RequireAny(Permission{Resource: resource, Action: action})
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			eval := EvaluatorFromContext(r.Context())
			granted := eval.CanAny(perms...)
			m.record(perms, granted)
			if granted {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(w, r, perms)
		})
	}
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			eval := EvaluatorFromContext(r.Context())
			granted := eval.CanAll(perms...)
			m.record(perms, granted)
			if granted {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(w, r, perms)
		})
	}
}

func (m Middleware) record(perms []Permission, granted bool) {
	if m.Recorder == nil {
		return
	}
	for _, p := range perms {
		m.Recorder.RecordDecision(p, granted)
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, perms []Permission) {
	if m.Logger != nil {
		m.Logger.Debug("rbac denied", slog.String("path", r.URL.Path), slog.Any("required", permissionNames(perms)))
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func permissionNames(perms []Permission) []string {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.String()
	}
	return names
}
