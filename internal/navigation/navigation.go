// Package navigation builds the role-aware menus shown to signed-in users.
package navigation

import "github.com/college-os/college-os/internal/rbac"

// Item is one entry of the application menu.
type Item struct {
	Name      string
	View      string
	Resource  rbac.Resource
	RoleNames map[string]string
}

// Entry is an Item rendered for a particular user.
type Entry struct {
	Name     string `json:"name"`
	View     string `json:"view"`
	Resource string `json:"resource"`
}

// Checker answers permission questions; *rbac.Evaluator implements it.
type Checker interface {
	Can(resource rbac.Resource, action rbac.Action) bool
}

// DefaultTitle is shown when a view is unknown or nobody is signed in.
const DefaultTitle = "Dashboard"

const bottomLimit = 4

var items = []Item{
	{Name: "Dashboard", View: "dashboard", Resource: rbac.ResourceDashboard},
	{Name: "Colleges", View: "colleges", Resource: rbac.ResourceColleges},
	{Name: "Academics", View: "courses", Resource: rbac.ResourceAcademics, RoleNames: map[string]string{rbac.RoleFaculty: "My Courses"}},
	{Name: "Faculty", View: "faculty", Resource: rbac.ResourceFaculty},
	{Name: "Students", View: "students", Resource: rbac.ResourceStudents},
	{Name: "Fees", View: "fees", Resource: rbac.ResourceFees},
	{Name: "Timetable", View: "timetable", Resource: rbac.ResourceTimetable, RoleNames: map[string]string{rbac.RoleFaculty: "My Timetable", rbac.RoleStudent: "My Timetable"}},
	{Name: "Inventory", View: "inventory", Resource: rbac.ResourceInventory, RoleNames: map[string]string{rbac.RoleStudent: "Library"}},
	{Name: "Reports", View: "reports", Resource: rbac.ResourceReports},
	{Name: "Approvals", View: "approvals", Resource: rbac.ResourceAdmin},
	{Name: "Templates", View: "templates", Resource: rbac.ResourceAdmin},
	{Name: "Data Import", View: "import", Resource: rbac.ResourceAdmin},
	{Name: "Settings", View: "settings", Resource: rbac.ResourceAdmin},
}

var bottomViews = map[string]bool{
	"dashboard": true,
	"students":  true,
	"fees":      true,
	"inventory": true,
}

// Items returns a copy of the menu table in display order.
func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// ResolveDisplayName returns the label registered for (genericLabel, resource, primaryRoleID),
// falling back to genericLabel. It is cosmetic and never consulted for access decisions.
func ResolveDisplayName(genericLabel string, resource rbac.Resource, primaryRoleID string) string {
	for _, it := range items {
		if it.Name != genericLabel || it.Resource != resource {
			continue
		}
		if name := it.RoleNames[primaryRoleID]; name != "" {
			return name
		}
		break
	}
	return genericLabel
}

// Menu lists the entries whose resource the checker may read.
func Menu(c Checker, primaryRoleID string) []Entry {
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		if c == nil || !c.Can(it.Resource, rbac.ActionRead) {
			continue
		}
		out = append(out, it.entry(primaryRoleID))
	}
	return out
}

// BottomMenu is the compact mobile menu: readable dashboard, students, fees and
// inventory entries, at most four.
func BottomMenu(c Checker, primaryRoleID string) []Entry {
	out := make([]Entry, 0, bottomLimit)
	for _, e := range Menu(c, primaryRoleID) {
		if !bottomViews[e.View] {
			continue
		}
		out = append(out, e)
		if len(out) == bottomLimit {
			break
		}
	}
	return out
}

// Title returns the header title of view for a user, DefaultTitle when the view
// is unknown or signedIn is false.
func Title(view, primaryRoleID string, signedIn bool) string {
	if !signedIn {
		return DefaultTitle
	}
	for _, it := range items {
		if it.View == view {
			return ResolveDisplayName(it.Name, it.Resource, primaryRoleID)
		}
	}
	return DefaultTitle
}

func (it Item) entry(primaryRoleID string) Entry {
	return Entry{
		Name:     ResolveDisplayName(it.Name, it.Resource, primaryRoleID),
		View:     it.View,
		Resource: it.Resource.String(),
	}
}
