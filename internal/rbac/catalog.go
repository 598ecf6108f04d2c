package rbac

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

var (
	// ErrNotFound indicates that the requested role does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrInvalidRole indicates a role that cannot enter a catalog.
	ErrInvalidRole = errors.New("rbac: invalid role")
	// ErrDuplicateRole indicates two roles sharing one identifier.
	ErrDuplicateRole = errors.New("rbac: duplicate role")
)

// Catalog is an immutable table of roles keyed by identifier.
type Catalog struct {
	roles map[string]Role
	order []string
}

// NewCatalog validates roles and builds a catalog preserving declaration order.
func NewCatalog(roles ...Role) (*Catalog, error) {
	c := &Catalog{
		roles: make(map[string]Role, len(roles)),
		order: make([]string, 0, len(roles)),
	}
	for _, role := range roles {
		id := strings.TrimSpace(role.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: role id required", ErrInvalidRole)
		}
		if id != role.ID {
			return nil, fmt.Errorf("%w: role id %q has surrounding whitespace", ErrInvalidRole, role.ID)
		}
		if _, exists := c.roles[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRole, id)
		}
		c.roles[id] = role
		c.order = append(c.order, id)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static tables known to be valid.
func MustCatalog(roles ...Role) *Catalog {
	c, err := NewCatalog(roles...)
	if err != nil {
		panic(err)
	}
	return c
}

// FindRole looks up a role by identifier.
func (c *Catalog) FindRole(id string) (Role, bool) {
	if c == nil {
		return Role{}, false
	}
	role, ok := c.roles[id]
	return role, ok
}

// Roles returns every role in declaration order.
func (c *Catalog) Roles() []Role {
	if c == nil {
		return nil
	}
	out := make([]Role, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.roles[id])
	}
	return out
}

// Len returns the number of roles.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Resolve maps role identifiers to catalog roles in the given order.
// Identifiers with no catalog entry are returned as dangling and never synthesized.
func (c *Catalog) Resolve(ids []string) (resolved []Role, dangling []string) {
	resolved = make([]Role, 0, len(ids))
	for _, id := range ids {
		role, ok := c.FindRole(id)
		if !ok {
			dangling = append(dangling, id)
			continue
		}
		resolved = append(resolved, role)
	}
	return resolved, dangling
}

// With returns a new catalog where role replaces any entry sharing its ID.
// New roles are appended.
func (c *Catalog) With(role Role) (*Catalog, error) {
	roles := c.Roles()
	replaced := false
	for i := range roles {
		if roles[i].ID == role.ID {
			roles[i] = role
			replaced = true
			break
		}
	}
	if !replaced {
		roles = append(roles, role)
	}
	return NewCatalog(roles...)
}

// Without returns a new catalog lacking the role id.
func (c *Catalog) Without(id string) (*Catalog, error) {
	if _, ok := c.FindRole(id); !ok {
		return nil, fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	roles := c.Roles()
	kept := roles[:0]
	for _, role := range roles {
		if role.ID != id {
			kept = append(kept, role)
		}
	}
	return NewCatalog(kept...)
}

// CatalogStore holds the process-wide catalog and swaps it whole.
type CatalogStore struct {
	current atomic.Pointer[Catalog]
}

// NewCatalogStore constructs a store serving c.
func NewCatalogStore(c *Catalog) *CatalogStore {
	s := &CatalogStore{}
	if c == nil {
		c = MustCatalog()
	}
	s.current.Store(c)
	return s
}

// Load returns the current catalog snapshot.
func (s *CatalogStore) Load() *Catalog {
	return s.current.Load()
}

// Swap installs c and returns the catalog it replaced.
func (s *CatalogStore) Swap(c *Catalog) *Catalog {
	if c == nil {
		c = MustCatalog()
	}
	return s.current.Swap(c)
}

// FindRole looks up a role in the current snapshot.
func (s *CatalogStore) FindRole(id string) (Role, bool) {
	return s.Load().FindRole(id)
}

// Resolve resolves ids against a single snapshot.
func (s *CatalogStore) Resolve(ids []string) ([]Role, []string) {
	return s.Load().Resolve(ids)
}
