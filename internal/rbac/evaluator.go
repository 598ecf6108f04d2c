package rbac

import "context"

// Grants reports whether any role grants action on resource.
// Grants are additive: one granting role is enough.
func Grants(roles []Role, resource Resource, action Action) bool {
	if !resource.Valid() || !action.Valid() {
		return false
	}
	for _, role := range roles {
		if role.Allows(resource, action) {
			return true
		}
	}
	return false
}

// EffectivePermissions returns the union of all grants held by roles.
func EffectivePermissions(roles []Role) Permissions {
	var merged Permissions
	for _, role := range roles {
		merged = merged.Merge(role.Permissions)
	}
	return merged
}

// PrincipalSource yields the currently authenticated principal, or nil.
type PrincipalSource interface {
	Principal() Principal
}

// Evaluator answers grant/deny questions for the principal held by its source.
type Evaluator struct {
	source PrincipalSource
}

// NewEvaluator builds an Evaluator reading from source.
func NewEvaluator(source PrincipalSource) *Evaluator {
	return &Evaluator{source: source}
}

// Can reports whether the current principal may perform action on resource.
// It returns false when nobody is authenticated.
func (e *Evaluator) Can(resource Resource, action Action) bool {
	p := e.principal()
	if p == nil {
		return false
	}
	return Grants(p.ResolvedRoles(), resource, action)
}

// CanAll reports whether every permission is granted.
func (e *Evaluator) CanAll(perms ...Permission) bool {
	p := e.principal()
	if p == nil {
		return false
	}
	roles := p.ResolvedRoles()
	for _, perm := range perms {
		if !Grants(roles, perm.Resource, perm.Action) {
			return false
		}
	}
	return true
}

// CanAny reports whether at least one permission is granted.
func (e *Evaluator) CanAny(perms ...Permission) bool {
	p := e.principal()
	if p == nil {
		return false
	}
	roles := p.ResolvedRoles()
	for _, perm := range perms {
		if Grants(roles, perm.Resource, perm.Action) {
			return true
		}
	}
	return false
}

// Effective returns the merged grant table of the current principal.
func (e *Evaluator) Effective() Permissions {
	p := e.principal()
	if p == nil {
		return Permissions{}
	}
	return EffectivePermissions(p.ResolvedRoles())
}

func (e *Evaluator) principal() Principal {
	if e == nil || e.source == nil {
		return nil
	}
	return e.source.Principal()
}

type evaluatorContextKey struct{}

// ContextWithEvaluator stores the request-scoped evaluator.
func ContextWithEvaluator(ctx context.Context, e *Evaluator) context.Context {
	return context.WithValue(ctx, evaluatorContextKey{}, e)
}

// EvaluatorFromContext returns the request-scoped evaluator.
// A missing evaluator behaves as an anonymous one.
func EvaluatorFromContext(ctx context.Context) *Evaluator {
	e, _ := ctx.Value(evaluatorContextKey{}).(*Evaluator)
	if e == nil {
		return NewEvaluator(nil)
	}
	return e
}
