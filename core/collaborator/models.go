package collaborator

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/epicevents/crm/core"
)

// Roles
const (
	// RoleAdmin is the super user, outside of any department.
	RoleAdmin = "admin"

	// Departments
	RoleManagement = "management"
	RoleSales      = "sales"
	RoleSupport    = "support"
)

var (
	Departments = []string{RoleManagement, RoleSales, RoleSupport}
	AllRoles    = []string{RoleAdmin, RoleManagement, RoleSales, RoleSupport}

	// roles allowed to create and modify collaborators
	editorRoles = []string{RoleAdmin, RoleManagement}

	bcryptCost = bcrypt.DefaultCost

	allFields = []core.Field{
		{Name: "id", Label: "Id"},
		{Name: "full_name", Label: "Full name"},
		{Name: "email", Label: "Email"},
		{Name: "role", Label: "Department"},
		{Name: "password", Label: "Password"},
		{Name: "archived", Label: "Archived"},
	}
	excludedFields = map[core.Purpose][]string{
		core.PurposeList:   {"password", "archived"},
		core.PurposeCreate: {"id", "archived"},
		core.PurposeModify: {"id", "password", "archived"},
	}
)

// SetBcryptCost changes the cost used to hash new passwords.
func SetBcryptCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bcryptCost = cost
}

// HasRole reports whether role is one of roles.
func HasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Collaborator is an employee using the CRM.
type Collaborator struct {
	ID           int    `json:"id"`
	FullName     string `json:"full_name" validate:"required,personname"`
	Email        string `json:"email" validate:"required,collabemail"`
	Role         string `json:"role" validate:"required,role"`
	PasswordHash []byte `json:"password" validate:"required"`
	Archived     bool   `json:"archived"`
}

func (c *Collaborator) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcryptCost)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	return nil
}

func (c Collaborator) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(pwd))
}

func (c Collaborator) IsAdmin() bool      { return c.Role == RoleAdmin }
func (c Collaborator) IsManagement() bool { return c.Role == RoleManagement }
func (c Collaborator) IsSales() bool      { return c.Role == RoleSales }
func (c Collaborator) IsSupport() bool    { return c.Role == RoleSupport }

func (c Collaborator) String() string {
	return c.FullName + " (" + c.Role + ")"
}

// Fields returns the collaborator fields a role works with for purpose.
// Roles outside management get no editable fields.
func Fields(role string, purpose core.Purpose) []core.Field {
	fields := core.Without(allFields, excludedFields[purpose]...)
	if role == RoleAdmin && purpose != core.PurposeCreate {
		fields = append(fields, core.Field{Name: "archived", Label: "Archived"})
	}
	if !HasRole(role, editorRoles) && purpose != core.PurposeList {
		return nil
	}
	return fields
}

// GetFilter finds one collaborator, the first non-empty criterion wins.
type GetFilter struct {
	ID              int
	FullName        string
	Email           string
	IncludeArchived bool
}

// QueryFilter applies AND operation on available fields.
type QueryFilter struct {
	IncludeArchived bool
	IDs             []int
	Roles           []string
	ExcludeRoles    []string
	Match           []core.FieldMatch
}
