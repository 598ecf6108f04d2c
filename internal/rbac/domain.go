package rbac

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownResource indicates a resource tag outside the closed set.
	ErrUnknownResource = errors.New("rbac: unknown resource")
	// ErrUnknownAction indicates an action tag outside the closed set.
	ErrUnknownAction = errors.New("rbac: unknown action")
)

// Resource identifies a protected functional area.
type Resource uint8

const (
	ResourceDashboard Resource = iota
	ResourceColleges
	ResourceAcademics
	ResourceFaculty
	ResourceStudents
	ResourceFees
	ResourceTimetable
	ResourceInventory
	ResourceReports
	ResourceSettings
	ResourceUsers
	ResourceRoles
	ResourceAdmin
	ResourceApprovals
	ResourceTemplates
	ResourceDataImport

	resourceCount
)

var resourceNames = [resourceCount]string{
	ResourceDashboard:  "DASHBOARD",
	ResourceColleges:   "COLLEGES",
	ResourceAcademics:  "ACADEMICS",
	ResourceFaculty:    "FACULTY",
	ResourceStudents:   "STUDENTS",
	ResourceFees:       "FEES",
	ResourceTimetable:  "TIMETABLE",
	ResourceInventory:  "INVENTORY",
	ResourceReports:    "REPORTS",
	ResourceSettings:   "SETTINGS",
	ResourceUsers:      "USERS",
	ResourceRoles:      "ROLES",
	ResourceAdmin:      "ADMIN",
	ResourceApprovals:  "APPROVALS",
	ResourceTemplates:  "TEMPLATES",
	ResourceDataImport: "DATA_IMPORT",
}

// Resources lists every resource tag in declaration order.
func Resources() []Resource {
	out := make([]Resource, 0, resourceCount)
	for r := Resource(0); r < resourceCount; r++ {
		out = append(out, r)
	}
	return out
}

// Valid reports whether r belongs to the closed resource set.
func (r Resource) Valid() bool {
	return r < resourceCount
}

func (r Resource) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Resource(%d)", uint8(r))
	}
	return resourceNames[r]
}

// MarshalText encodes the resource tag name.
func (r Resource) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownResource, uint8(r))
	}
	return []byte(resourceNames[r]), nil
}

// UnmarshalText decodes a resource tag name.
func (r *Resource) UnmarshalText(text []byte) error {
	parsed, err := ParseResource(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseResource accepts tag names case-insensitively ("STUDENTS", "students", "data-import").
func ParseResource(s string) (Resource, error) {
	key := normalizeTag(s)
	for r, name := range resourceNames {
		if name == key {
			return Resource(r), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownResource, s)
}

// Action identifies an operation category applicable to a resource.
type Action uint8

const (
	ActionCreate Action = iota
	ActionRead
	ActionUpdate
	ActionDelete

	actionCount
)

var actionNames = [actionCount]string{
	ActionCreate: "CREATE",
	ActionRead:   "READ",
	ActionUpdate: "UPDATE",
	ActionDelete: "DELETE",
}

// Actions lists every action tag in declaration order.
func Actions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

// Valid reports whether a belongs to the closed action set.
func (a Action) Valid() bool {
	return a < actionCount
}

func (a Action) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
	return actionNames[a]
}

// MarshalText encodes the action tag name.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, uint8(a))
	}
	return []byte(actionNames[a]), nil
}

// UnmarshalText decodes an action tag name.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction accepts tag names case-insensitively.
func ParseAction(s string) (Action, error) {
	key := normalizeTag(s)
	for a, name := range actionNames {
		if name == key {
			return Action(a), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

func normalizeTag(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "_")
}

// ActionSet is a bitmask over the closed action set.
type ActionSet uint8

// NewActionSet builds a set from actions, ignoring values outside the closed set.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s = s.With(a)
	}
	return s
}

// With returns a copy of s including a.
func (s ActionSet) With(a Action) ActionSet {
	if !a.Valid() {
		return s
	}
	return s | 1<<a
}

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	if !a.Valid() {
		return false
	}
	return s&(1<<a) != 0
}

// Empty reports whether no action is in the set.
func (s ActionSet) Empty() bool {
	return s == 0
}

// Actions lists the members in declaration order.
func (s ActionSet) Actions() []Action {
	out := make([]Action, 0, actionCount)
	for a := Action(0); a < actionCount; a++ {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// Permissions is a fixed-size grant table indexed by resource.
// A zero slot denies every action on that resource.
type Permissions [resourceCount]ActionSet

// Grant adds actions on resource. Invalid resources are ignored.
func (p *Permissions) Grant(resource Resource, actions ...Action) {
	if !resource.Valid() {
		return
	}
	for _, a := range actions {
		p[resource] = p[resource].With(a)
	}
}

// Allows reports whether action on resource is granted.
func (p Permissions) Allows(resource Resource, action Action) bool {
	if !resource.Valid() {
		return false
	}
	return p[resource].Has(action)
}

// On returns the action set granted on resource.
func (p Permissions) On(resource Resource) ActionSet {
	if !resource.Valid() {
		return 0
	}
	return p[resource]
}

// Merge returns the union of p and other.
func (p Permissions) Merge(other Permissions) Permissions {
	for i := range p {
		p[i] |= other[i]
	}
	return p
}

// List flattens the table into resource/action pairs.
func (p Permissions) List() []Permission {
	var out []Permission
	for _, r := range Resources() {
		for _, a := range p[r].Actions() {
			out = append(out, Permission{Resource: r, Action: a})
		}
	}
	return out
}

// Permission is a single resource/action grant.
type Permission struct {
	Resource Resource
	Action   Action
}

// String renders the permission as "resource.action" in lower case, e.g. "students.read".
func (p Permission) String() string {
	return strings.ToLower(p.Resource.String() + "." + p.Action.String())
}

// ParsePermission parses the "resource.action" form produced by String.
func ParsePermission(s string) (Permission, error) {
	resource, action, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Permission{}, fmt.Errorf("rbac: malformed permission %q", s)
	}
	r, err := ParseResource(resource)
	if err != nil {
		return Permission{}, err
	}
	a, err := ParseAction(action)
	if err != nil {
		return Permission{}, err
	}
	return Permission{Resource: r, Action: a}, nil
}

// Role is a named bundle of grants.
type Role struct {
	ID          string
	Name        string
	Permissions Permissions
}

// Allows reports whether this role grants action on resource.
func (r Role) Allows(resource Resource, action Action) bool {
	return r.Permissions.Allows(resource, action)
}

// Principal describes the authenticated actor.
type Principal interface {
	ResolvedRoles() []Role
}
