package rbac

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// catalogDocument is the on-disk catalog layout:
//
//	roles:
//	  - id: faculty
//	    name: Faculty
//	    permissions:
//	      ACADEMICS: [READ]
//	      TIMETABLE: [READ]
type catalogDocument struct {
	Roles []roleDocument `yaml:"roles"`
}

type roleDocument struct {
	ID          string              `yaml:"id"`
	Name        string              `yaml:"name,omitempty"`
	Permissions map[string][]string `yaml:"permissions,omitempty"`
}

// LoadCatalogFile reads a YAML catalog from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rbac: open catalog: %w", err)
	}
	defer f.Close()
	return DecodeCatalog(f)
}

// DecodeCatalog parses a YAML catalog. Unknown resource or action tags fail the whole load.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	var doc catalogDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("rbac: decode catalog: %w", err)
	}
	roles := make([]Role, 0, len(doc.Roles))
	for _, rd := range doc.Roles {
		role, err := rd.toRole()
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return NewCatalog(roles...)
}

// EncodeCatalog writes c in the layout accepted by DecodeCatalog.
func EncodeCatalog(w io.Writer, c *Catalog) error {
	doc := catalogDocument{}
	for _, role := range c.Roles() {
		doc.Roles = append(doc.Roles, roleDocument{ID: role.ID, Name: role.Name, Permissions: GrantTable(role.Permissions)})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("rbac: encode catalog: %w", err)
	}
	return enc.Close()
}

func (rd roleDocument) toRole() (Role, error) {
	return RoleFromTable(rd.ID, rd.Name, rd.Permissions)
}

// RoleFromTable builds a role from tag names, e.g. {"STUDENTS": ["READ"]}.
// An empty name is derived from id. Unknown tags are rejected.
func RoleFromTable(id, name string, table map[string][]string) (Role, error) {
	role := Role{ID: id, Name: strings.TrimSpace(name)}
	if role.Name == "" {
		role.Name = DisplayNameFromID(id)
	}
	for rawResource, rawActions := range table {
		res, err := ParseResource(rawResource)
		if err != nil {
			return Role{}, fmt.Errorf("role %s: %w", id, err)
		}
		for _, rawAction := range rawActions {
			act, err := ParseAction(rawAction)
			if err != nil {
				return Role{}, fmt.Errorf("role %s: %w", id, err)
			}
			role.Permissions.Grant(res, act)
		}
	}
	return role, nil
}

// GrantTable renders p as tag names. Resources without actions are omitted.
func GrantTable(p Permissions) map[string][]string {
	var table map[string][]string
	for _, res := range Resources() {
		set := p.On(res)
		if set.Empty() {
			continue
		}
		if table == nil {
			table = make(map[string][]string)
		}
		for _, a := range set.Actions() {
			table[res.String()] = append(table[res.String()], a.String())
		}
	}
	return table
}

// DisplayNameFromID derives a human label from a role identifier, e.g. "dept_head" -> "Dept Head".
func DisplayNameFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}
