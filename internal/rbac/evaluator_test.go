package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/college-os/college-os/internal/rbac"
)

type staticPrincipal []rbac.Role

func (p staticPrincipal) ResolvedRoles() []rbac.Role { return p }

type staticSource struct{ p rbac.Principal }

func (s staticSource) Principal() rbac.Principal { return s.p }

func rolesOf(t *testing.T, ids ...string) staticPrincipal {
	t.Helper()
	resolved, dangling := rbac.DefaultCatalog().Resolve(ids)
	require.Empty(t, dangling)
	return staticPrincipal(resolved)
}

func TestGrantsIsAdditive(t *testing.T) {
	roles := rolesOf(t, rbac.RoleStudent, rbac.RoleFaculty)
	require.True(t, rbac.Grants(roles, rbac.ResourceStudents, rbac.ActionRead))
	require.True(t, rbac.Grants(roles, rbac.ResourceInventory, rbac.ActionRead))
	require.False(t, rbac.Grants(roles, rbac.ResourceStudents, rbac.ActionUpdate))
	require.False(t, rbac.Grants(nil, rbac.ResourceDashboard, rbac.ActionRead))
}

func TestGrantsMatchesAnyRole(t *testing.T) {
	catalog := rbac.DefaultCatalog()
	all := catalog.Roles()
	for _, r := range rbac.Resources() {
		for _, a := range rbac.Actions() {
			granted := false
			for _, role := range all {
				granted = granted || role.Allows(r, a)
			}
			require.Equal(t, granted, rbac.Grants(all, r, a), "%s.%s", r, a)
		}
	}
}

func TestEvaluatorWithoutPrincipal(t *testing.T) {
	for _, eval := range []*rbac.Evaluator{
		nil,
		rbac.NewEvaluator(nil),
		rbac.NewEvaluator(staticSource{}),
	} {
		for _, r := range rbac.Resources() {
			for _, a := range rbac.Actions() {
				require.False(t, eval.Can(r, a))
			}
		}
		require.False(t, eval.CanAny(rbac.Permission{Resource: rbac.ResourceDashboard, Action: rbac.ActionRead}))
		require.False(t, eval.CanAll())
		require.Empty(t, eval.Effective().List())
	}
}

func TestEvaluatorUnknownTags(t *testing.T) {
	eval := rbac.NewEvaluator(staticSource{p: rolesOf(t, rbac.RoleAdmin)})
	require.False(t, eval.Can(rbac.Resource(77), rbac.ActionRead))
	require.False(t, eval.Can(rbac.ResourceStudents, rbac.Action(77)))
}

func TestEvaluatorCanAllAndAny(t *testing.T) {
	eval := rbac.NewEvaluator(staticSource{p: rolesOf(t, rbac.RoleHead)})
	readStudents := rbac.Permission{Resource: rbac.ResourceStudents, Action: rbac.ActionRead}
	deleteStudents := rbac.Permission{Resource: rbac.ResourceStudents, Action: rbac.ActionDelete}

	require.True(t, eval.CanAny(deleteStudents, readStudents))
	require.False(t, eval.CanAll(deleteStudents, readStudents))
	require.True(t, eval.CanAll(readStudents))
	require.True(t, eval.CanAll())
}

func TestEvaluatorEffective(t *testing.T) {
	eval := rbac.NewEvaluator(staticSource{p: rolesOf(t, rbac.RoleStudent, rbac.RoleManager)})
	effective := eval.Effective()
	require.True(t, effective.Allows(rbac.ResourceColleges, rbac.ActionRead))
	require.True(t, effective.Allows(rbac.ResourceInventory, rbac.ActionRead))
	require.False(t, effective.Allows(rbac.ResourceInventory, rbac.ActionUpdate))
}

func TestEvaluatorContext(t *testing.T) {
	anon := rbac.EvaluatorFromContext(context.Background())
	require.NotNil(t, anon)
	require.False(t, anon.Can(rbac.ResourceDashboard, rbac.ActionRead))

	eval := rbac.NewEvaluator(staticSource{p: rolesOf(t, rbac.RoleStudent)})
	ctx := rbac.ContextWithEvaluator(context.Background(), eval)
	require.Same(t, eval, rbac.EvaluatorFromContext(ctx))
}
