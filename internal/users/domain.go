package users

// Account is a stored directory entry. Secret is the credential as stored;
// the demo directory keeps it in plaintext.
type Account struct {
	ID           string
	Name         string
	Email        string
	Secret       string
	AvatarURL    string
	RoleIDs      []string
	UniversityID *int64
	CollegeID    *int64
	DepartmentID *int64
}

// PrimaryRoleID returns the first role identifier, or "" when the account has none.
func (a Account) PrimaryRoleID() string {
	if len(a.RoleIDs) == 0 {
		return ""
	}
	return a.RoleIDs[0]
}

// Clone returns a deep copy safe to hand to another goroutine.
func (a Account) Clone() Account {
	out := a
	out.RoleIDs = append([]string(nil), a.RoleIDs...)
	out.UniversityID = cloneID(a.UniversityID)
	out.CollegeID = cloneID(a.CollegeID)
	out.DepartmentID = cloneID(a.DepartmentID)
	return out
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
