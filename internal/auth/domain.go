package auth

import (
	"github.com/college-os/college-os/internal/rbac"
	"github.com/college-os/college-os/internal/users"
)

// User is an authenticated account with its roles resolved against the catalog.
// A User is immutable once built; callers must not modify Roles or RoleIDs.
type User struct {
	ID           string
	Name         string
	Email        string
	AvatarURL    string
	RoleIDs      []string
	Roles        []rbac.Role
	UniversityID *int64
	CollegeID    *int64
	DepartmentID *int64
}

// ResolvedRoles implements rbac.Principal.
func (u *User) ResolvedRoles() []rbac.Role {
	if u == nil {
		return nil
	}
	return u.Roles
}

// PrimaryRoleID returns the first role identifier, used for display purposes only.
func (u *User) PrimaryRoleID() string {
	if u == nil || len(u.RoleIDs) == 0 {
		return ""
	}
	return u.RoleIDs[0]
}

func newUser(acct users.Account, roles []rbac.Role) *User {
	acct = acct.Clone()
	return &User{
		ID:           acct.ID,
		Name:         acct.Name,
		Email:        acct.Email,
		AvatarURL:    acct.AvatarURL,
		RoleIDs:      acct.RoleIDs,
		Roles:        roles,
		UniversityID: acct.UniversityID,
		CollegeID:    acct.CollegeID,
		DepartmentID: acct.DepartmentID,
	}
}

var _ rbac.Principal = (*User)(nil)
