package auth

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/college-os/college-os/internal/rbac"
)

// Authenticator validates credentials into a resolved user. *Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, secret string) (*User, error)
}

// Session holds at most one authenticated user.
//
// Login and logout are serialised with each other; readers never block and see
// either the user before or after a concurrent login, never a mixture.
type Session struct {
	mu    sync.Mutex
	user  atomic.Pointer[User]
	authn Authenticator
}

// NewSession returns an empty session that logs in through authn.
func NewSession(authn Authenticator) *Session {
	return &Session{authn: authn}
}

// Authenticate logs in, replacing any previous user. On failure the previous
// user, if any, stays active.
func (s *Session) Authenticate(ctx context.Context, identifier, secret string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, err := s.authn.Authenticate(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}
	s.user.Store(user)
	return user, nil
}

// Establish installs a user resolved elsewhere, e.g. restored from a browser session.
func (s *Session) Establish(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Store(user)
}

// End clears the active user. Calling it without an active user is a no-op.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Store(nil)
}

// User returns the active user or nil. A nil session has no user.
func (s *Session) User() *User {
	if s == nil {
		return nil
	}
	return s.user.Load()
}

// Active reports whether a user is logged in.
func (s *Session) Active() bool {
	return s.User() != nil
}

// Principal implements rbac.PrincipalSource.
func (s *Session) Principal() rbac.Principal {
	u := s.User()
	if u == nil {
		return nil
	}
	return u
}

// Evaluator returns an evaluator bound to this session.
func (s *Session) Evaluator() *rbac.Evaluator {
	return rbac.NewEvaluator(s)
}

var _ rbac.PrincipalSource = (*Session)(nil)

type sessionContextKey struct{}

// ContextWithSession stores the request's identity session.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the request's identity session or nil.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
