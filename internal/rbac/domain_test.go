package rbac_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/college-os/college-os/internal/rbac"
	_ "github.com/college-os/college-os/testing"
)

func TestParseResource(t *testing.T) {
	for _, r := range rbac.Resources() {
		parsed, err := rbac.ParseResource(r.String())
		require.NoError(t, err)
		require.Equal(t, r, parsed)
	}

	parsed, err := rbac.ParseResource(" data-import ")
	require.NoError(t, err)
	require.Equal(t, rbac.ResourceDataImport, parsed)

	_, err = rbac.ParseResource("LIBRARY")
	require.ErrorIs(t, err, rbac.ErrUnknownResource)
}

func TestParseAction(t *testing.T) {
	a, err := rbac.ParseAction("delete")
	require.NoError(t, err)
	require.Equal(t, rbac.ActionDelete, a)

	_, err = rbac.ParseAction("EXECUTE")
	require.ErrorIs(t, err, rbac.ErrUnknownAction)
}

func TestResourceText(t *testing.T) {
	raw, err := json.Marshal(map[rbac.Resource]bool{rbac.ResourceFees: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"FEES":true}`, string(raw))

	var back map[rbac.Resource]bool
	require.NoError(t, json.Unmarshal(raw, &back))
	require.True(t, back[rbac.ResourceFees])

	_, err = rbac.Resource(99).MarshalText()
	require.ErrorIs(t, err, rbac.ErrUnknownResource)
	require.Equal(t, "Resource(99)", rbac.Resource(99).String())
}

func TestActionSet(t *testing.T) {
	s := rbac.NewActionSet(rbac.ActionRead, rbac.ActionUpdate, rbac.Action(42))
	require.True(t, s.Has(rbac.ActionRead))
	require.False(t, s.Has(rbac.ActionDelete))
	require.False(t, s.Has(rbac.Action(42)))
	require.Equal(t, []rbac.Action{rbac.ActionRead, rbac.ActionUpdate}, s.Actions())
	require.True(t, rbac.NewActionSet().Empty())
}

func TestPermissionsEmptyAndAbsentBothDeny(t *testing.T) {
	var p rbac.Permissions
	p.Grant(rbac.ResourceStudents)
	p.Grant(rbac.Resource(200), rbac.ActionRead)

	for _, a := range rbac.Actions() {
		require.False(t, p.Allows(rbac.ResourceStudents, a))
		require.False(t, p.Allows(rbac.ResourceFees, a))
		require.False(t, p.Allows(rbac.Resource(200), a))
	}
	require.Empty(t, p.List())
}

func TestPermissionsMerge(t *testing.T) {
	var a, b rbac.Permissions
	a.Grant(rbac.ResourceFees, rbac.ActionRead)
	b.Grant(rbac.ResourceFees, rbac.ActionUpdate)
	b.Grant(rbac.ResourceReports, rbac.ActionRead)

	merged := a.Merge(b)
	require.Equal(t, []rbac.Permission{
		{Resource: rbac.ResourceFees, Action: rbac.ActionRead},
		{Resource: rbac.ResourceFees, Action: rbac.ActionUpdate},
		{Resource: rbac.ResourceReports, Action: rbac.ActionRead},
	}, merged.List())
	require.False(t, a.Allows(rbac.ResourceFees, rbac.ActionUpdate))
}

func TestPermissionString(t *testing.T) {
	p := rbac.Permission{Resource: rbac.ResourceDataImport, Action: rbac.ActionCreate}
	require.Equal(t, "data_import.create", p.String())

	parsed, err := rbac.ParsePermission(p.String())
	require.NoError(t, err)
	require.Equal(t, p, parsed)

	_, err = rbac.ParsePermission("students")
	require.Error(t, err)
	_, err = rbac.ParsePermission("students.execute")
	require.ErrorIs(t, err, rbac.ErrUnknownAction)
}
