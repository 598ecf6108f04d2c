package rbac

// Built-in role identifiers.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleHead    = "head"
	RoleFaculty = "faculty"
	RoleStudent = "student"
)

var crud = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// DefaultRoles returns the built-in role table shipped with the application.
func DefaultRoles() []Role {
	var admin Permissions
	admin.Grant(ResourceDashboard, ActionRead)
	for _, r := range []Resource{
		ResourceColleges, ResourceAcademics, ResourceFaculty, ResourceStudents, ResourceFees,
		ResourceTimetable, ResourceInventory, ResourceReports, ResourceSettings,
	} {
		admin.Grant(r, crud...)
	}
	admin.Grant(ResourceAdmin, ActionRead, ActionUpdate)
	admin.Grant(ResourceApprovals, ActionRead, ActionUpdate)
	admin.Grant(ResourceTemplates, ActionRead, ActionUpdate)
	admin.Grant(ResourceDataImport, ActionRead, ActionCreate)

	var manager Permissions
	for _, r := range []Resource{
		ResourceDashboard, ResourceColleges, ResourceAcademics, ResourceFaculty, ResourceStudents, ResourceFees,
	} {
		manager.Grant(r, ActionRead)
	}

	var head Permissions
	head.Grant(ResourceDashboard, ActionRead)
	head.Grant(ResourceAcademics, ActionRead, ActionUpdate)
	head.Grant(ResourceFaculty, ActionRead, ActionUpdate)
	head.Grant(ResourceStudents, ActionCreate, ActionRead, ActionUpdate)
	head.Grant(ResourceFees, ActionCreate, ActionRead, ActionUpdate)
	head.Grant(ResourceTimetable, ActionRead, ActionUpdate)
	head.Grant(ResourceInventory, ActionRead, ActionUpdate)

	var faculty Permissions
	faculty.Grant(ResourceDashboard, ActionRead)
	faculty.Grant(ResourceAcademics, ActionRead)
	faculty.Grant(ResourceTimetable, ActionRead)
	faculty.Grant(ResourceStudents, ActionRead)

	var student Permissions
	student.Grant(ResourceDashboard, ActionRead)
	student.Grant(ResourceTimetable, ActionRead)
	student.Grant(ResourceInventory, ActionRead)
	student.Grant(ResourceFees, ActionRead)

	return []Role{
		{ID: RoleAdmin, Name: "Admin", Permissions: admin},
		{ID: RoleManager, Name: "Manager", Permissions: manager},
		{ID: RoleHead, Name: "Head", Permissions: head},
		{ID: RoleFaculty, Name: "Faculty", Permissions: faculty},
		{ID: RoleStudent, Name: "Student", Permissions: student},
	}
}

// DefaultCatalog returns a catalog of DefaultRoles.
func DefaultCatalog() *Catalog {
	return MustCatalog(DefaultRoles()...)
}
