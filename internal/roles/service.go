package roles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/shared"
)

// ReloadRecorder observes catalog reloads.
type ReloadRecorder interface {
	RecordCatalogReload(success bool)
}

// Service administers the role catalog. Every change builds a new catalog and
// swaps it into the store. Signed-in users are re-resolved against the store on
// each request, so changes reach them on their next request.
type Service struct {
	repo     Repository
	store    *rbac.CatalogStore
	audit    shared.AuditRecorder
	logger   *slog.Logger
	recorder ReloadRecorder

	mu     sync.Mutex
	reload singleflight.Group
}

// NewService builds Service instance. audit and recorder may be nil.
func NewService(repo Repository, store *rbac.CatalogStore, audit shared.AuditRecorder, recorder ReloadRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, store: store, audit: audit, recorder: recorder, logger: logger}
}

// ListRoles returns the roles of the current catalog.
func (s *Service) ListRoles() []rbac.Role {
	return s.store.Load().Roles()
}

// GetRole fetches one role of the current catalog.
func (s *Service) GetRole(id string) (rbac.Role, error) {
	role, ok := s.store.FindRole(id)
	if !ok {
		return rbac.Role{}, fmt.Errorf("%w: role %s", rbac.ErrNotFound, id)
	}
	return role, nil
}

// PutRole replaces role wholesale, creating it when absent. It reports whether
// the role was new.
func (s *Service) PutRole(ctx context.Context, actorID string, role rbac.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.store.Load()
	_, existed := current.FindRole(role.ID)
	next, err := current.With(role)
	if err != nil {
		return false, err
	}
	if err := s.repo.SaveRole(ctx, role); err != nil {
		return false, fmt.Errorf("roles: save %s: %w", role.ID, err)
	}
	s.store.Swap(next)
	s.record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   shared.AuditRoleReplaced,
		Entity:   "role",
		EntityID: role.ID,
		Meta:     map[string]any{"created": !existed, "grants": len(role.Permissions.List())},
	})
	return !existed, nil
}

// DeleteRole removes a role. Users holding it resolve it as dangling from their next request.
func (s *Service) DeleteRole(ctx context.Context, actorID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.store.Load().Without(id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return fmt.Errorf("roles: delete %s: %w", id, err)
	}
	s.store.Swap(next)
	s.record(ctx, shared.AuditLog{ActorID: actorID, Action: shared.AuditRoleDeleted, Entity: "role", EntityID: id})
	return nil
}

// Reload rebuilds the catalog from the repository. Concurrent calls share one load.
// On failure the current catalog stays in place.
func (s *Service) Reload(ctx context.Context) (*rbac.Catalog, error) {
	v, err, _ := s.reload.Do("catalog", func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		roles, err := s.repo.ListRoles(ctx)
		if err != nil {
			return nil, fmt.Errorf("roles: reload: %w", err)
		}
		next, err := rbac.NewCatalog(roles...)
		if err != nil {
			return nil, fmt.Errorf("roles: reload: %w", err)
		}
		s.store.Swap(next)
		return next, nil
	})
	if s.recorder != nil {
		s.recorder.RecordCatalogReload(err == nil)
	}
	if err != nil {
		s.logger.Error("catalog reload failed", slog.Any("error", err))
		return nil, err
	}
	catalog := v.(*rbac.Catalog)
	s.logger.Debug("catalog reloaded", slog.Int("roles", catalog.Len()))
	return catalog, nil
}

// Export writes the current catalog as YAML.
func (s *Service) Export(w io.Writer) error {
	return rbac.EncodeCatalog(w, s.store.Load())
}

// RoleFromInput validates a replacement payload for role id.
func RoleFromInput(id string, in PutInput) (rbac.Role, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(id) != id {
		return rbac.Role{}, fmt.Errorf("%w: bad role id %q", rbac.ErrInvalidRole, id)
	}
	return rbac.RoleFromTable(id, in.Name, in.Permissions)
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}

// Watch reloads the catalog every interval until ctx ends, so role changes
// made through another instance reach this one. Failed reloads keep the
// current catalog and are retried on the next tick.
func (s *Service) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Reload(ctx)
		}
	}
}
