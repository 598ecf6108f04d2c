package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/shared"
	"github.com/college-os/college-os/internal/users"
)

// Directory finds stored accounts.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*users.Account, error)
	FindByID(ctx context.Context, id string) (*users.Account, error)
}

// RoleResolver maps role identifiers to catalog roles, reporting the ones it could not find.
type RoleResolver interface {
	Resolve(ids []string) (resolved []rbac.Role, dangling []string)
}

// LoginRecorder observes login outcomes.
type LoginRecorder interface {
	RecordLogin(success bool)
}

// SecretMatcher compares a stored secret with the supplied one.
type SecretMatcher func(stored, supplied string) bool

// MatchPlaintext requires an exact, case-sensitive match.
func MatchPlaintext(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// MatchBcrypt compares against a bcrypt hash.
func MatchBcrypt(stored, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

// SecretMatcherFor returns the matcher for a configured scheme name.
func SecretMatcherFor(scheme string) (SecretMatcher, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", "plaintext":
		return MatchPlaintext, nil
	case "bcrypt":
		return MatchBcrypt, nil
	default:
		return nil, fmt.Errorf("auth: unknown secret scheme %q", scheme)
	}
}

// Options carries the optional collaborators of Service.
type Options struct {
	Sessions SessionStore
	Audit    shared.AuditRecorder
	Logger   *slog.Logger
	Matcher  SecretMatcher
	Recorder LoginRecorder
}

// Service wraps authentication business rules.
type Service struct {
	directory Directory
	roles     RoleResolver
	sessions  SessionStore
	audit     shared.AuditRecorder
	logger    *slog.Logger
	match     SecretMatcher
	recorder  LoginRecorder
}

// NewService constructs a new Service.
func NewService(directory Directory, roles RoleResolver, opts Options) *Service {
	s := &Service{
		directory: directory,
		roles:     roles,
		sessions:  opts.Sessions,
		audit:     opts.Audit,
		logger:    opts.Logger,
		match:     opts.Matcher,
		recorder:  opts.Recorder,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.match == nil {
		s.match = MatchPlaintext
	}
	return s
}

// Authenticate validates identifier/secret credentials and resolves the user's roles.
// Every failure, including empty input, unknown identifier and wrong secret, is
// shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, identifier, secret string) (*User, error) {
	if identifier == "" || secret == "" {
		s.fail(ctx, identifier, "empty credentials")
		return nil, shared.ErrInvalidCredentials
	}
	acct, err := s.directory.FindByEmail(ctx, identifier)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("auth lookup", slog.Any("error", err))
		}
		s.fail(ctx, identifier, "lookup")
		return nil, shared.ErrInvalidCredentials
	}
	if !s.match(acct.Secret, secret) {
		s.fail(ctx, identifier, "secret mismatch")
		return nil, shared.ErrInvalidCredentials
	}

	user := s.resolve(ctx, *acct, true)
	if s.recorder != nil {
		s.recorder.RecordLogin(true)
	}
	s.record(ctx, shared.AuditLog{
		ActorID:  user.ID,
		Action:   shared.AuditLogin,
		Entity:   "user",
		EntityID: user.ID,
		Meta:     map[string]any{"roles": user.RoleIDs, "resolved": len(user.Roles)},
	})
	return user, nil
}

// Restore rebuilds the user behind a persisted browser session.
// Returns shared.ErrNotFound when the account no longer exists.
func (s *Service) Restore(ctx context.Context, userID string) (*User, error) {
	acct, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, *acct, false), nil
}

// RegisterSession persists the session metadata when a store is configured.
func (s *Service) RegisterSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record and audits the logout.
func (s *Service) RemoveSession(ctx context.Context, id string, userID string) error {
	if userID != "" {
		s.record(ctx, shared.AuditLog{ActorID: userID, Action: shared.AuditLogout, Entity: "user", EntityID: userID})
	}
	if s.sessions == nil {
		return nil
	}
	return s.sessions.DeleteSession(ctx, id)
}

// resolve attaches catalog roles; dangling identifiers are dropped and reported.
func (s *Service) resolve(ctx context.Context, acct users.Account, audit bool) *User {
	roles, dangling := s.roles.Resolve(acct.RoleIDs)
	for _, id := range dangling {
		if !audit {
			s.logger.Debug("auth dropped role", slog.String("user_id", acct.ID), slog.String("role_id", id))
			continue
		}
		s.logger.Warn("auth dropped role",
			slog.String("user_id", acct.ID),
			slog.String("role_id", id),
			slog.Any("error", shared.ErrUnresolvableRole),
		)
		s.record(ctx, shared.AuditLog{
			ActorID:  acct.ID,
			Action:   shared.AuditRoleUnresolved,
			Entity:   "role",
			EntityID: id,
			Meta:     map[string]any{"user_id": acct.ID},
		})
	}
	return newUser(acct, roles)
}

func (s *Service) fail(ctx context.Context, identifier, reason string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(false)
	}
	if identifier == "" {
		identifier = "-"
	}
	s.record(ctx, shared.AuditLog{
		Action:   shared.AuditLoginFailed,
		Entity:   "identifier",
		EntityID: identifier,
		Meta:     map[string]any{"reason": reason},
	})
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}
