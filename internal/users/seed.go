package users

func ref(v int64) *int64 { return &v }

// DemoAccounts returns the demo directory. Secrets are stored in plaintext.
func DemoAccounts() []Account {
	return []Account{
		{ID: "1", Name: "Admin Owner", Email: "admin@college.com", Secret: "admin123", RoleIDs: []string{"admin"}, UniversityID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=admin"},
		{ID: "2", Name: "Manager One", Email: "manager1@college.com", Secret: "demo123", RoleIDs: []string{"manager"}, CollegeID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=manager1"},
		{ID: "3", Name: "Manager Two", Email: "manager2@college.com", Secret: "demo123", RoleIDs: []string{"manager"}, CollegeID: ref(2), AvatarURL: "https://i.pravatar.cc/150?u=manager2"},
		{ID: "4", Name: "Dr. Evelyn Reed", Email: "head@college.com", Secret: "demo123", RoleIDs: []string{"head"}, CollegeID: ref(1), DepartmentID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=head"},
		{ID: "5", Name: "Prof. Alan Grant", Email: "faculty@college.com", Secret: "demo123", RoleIDs: []string{"faculty"}, CollegeID: ref(1), DepartmentID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=faculty"},
		{ID: "6", Name: "John Doe", Email: "student@college.com", Secret: "demo123", RoleIDs: []string{"student"}, CollegeID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=student"},
		{ID: "7", Name: "Dr. Ian Malcolm", Email: "faculty2@college.com", Secret: "demo123", RoleIDs: []string{"faculty"}, CollegeID: ref(1), DepartmentID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=faculty2"},
		{ID: "8", Name: "Jane Smith", Email: "student2@college.com", Secret: "demo123", RoleIDs: []string{"student"}, CollegeID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=student2"},
		{ID: "temp3", Name: "Bob Smith", Email: "student3@college.com", Secret: "demo123", RoleIDs: []string{"student"}, CollegeID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=student3"},
		{ID: "temp4", Name: "Charlie Brown", Email: "student4@college.com", Secret: "demo123", RoleIDs: []string{"student"}, CollegeID: ref(1), AvatarURL: "https://i.pravatar.cc/150?u=student4"},
	}
}
