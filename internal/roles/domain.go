package roles

import "github.com/college-os/college-os/internal/rbac"

// View is the wire form of a catalog role.
type View struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Permissions map[string][]string `json:"permissions"`
}

// ViewOf renders a role with tag names.
func ViewOf(role rbac.Role) View {
	table := rbac.GrantTable(role.Permissions)
	if table == nil {
		table = map[string][]string{}
	}
	return View{ID: role.ID, Name: role.Name, Permissions: table}
}

// PutInput replaces a role wholesale.
type PutInput struct {
	Name        string              `json:"name" validate:"max=64"`
	Permissions map[string][]string `json:"permissions" validate:"required"`
}
