package client

import (
	"time"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
)

var (
	// roles allowed to create and modify clients
	editorRoles = []string{collaborator.RoleAdmin, collaborator.RoleSales}

	allFields = []core.Field{
		{Name: "id", Label: "Id"},
		{Name: "full_name", Label: "Contact name"},
		{Name: "email", Label: "Email"},
		{Name: "phone", Label: "Phone"},
		{Name: "company_name", Label: "Company"},
		{Name: "created_date", Label: "Created"},
		{Name: "last_contact_date", Label: "Last contact"},
		{Name: "sales_contact", Label: "Sales contact"},
		{Name: "sales_contact_id", Label: "Sales contact id"},
		{Name: "archived", Label: "Archived"},
	}
	excludedFields = map[core.Purpose][]string{
		core.PurposeList:   {"sales_contact_id", "archived"},
		core.PurposeCreate: {"id", "sales_contact", "created_date", "archived"},
		core.PurposeModify: {"id", "sales_contact", "created_date", "archived"},
	}
)

type Client struct {
	ID              int       `json:"id"`
	FullName        string    `json:"full_name" validate:"required,clientname"`
	Email           string    `json:"email" validate:"required,clientemail"`
	Phone           string    `json:"phone" validate:"required,frphone"`
	CompanyName     string    `json:"company_name" validate:"required"`
	CreatedDate     time.Time `json:"created_date"`
	LastContactDate time.Time `json:"last_contact_date"`
	SalesContactID  int       `json:"sales_contact_id" validate:"required"`
	Archived        bool      `json:"archived"`

	// read only, joined from the sales contact
	SalesContactName string `json:"sales_contact" validate:"-"`
}

func (c Client) String() string {
	return c.CompanyName + " represented by " + c.FullName
}

// Fields returns the client fields a role works with for purpose.
func Fields(role string, purpose core.Purpose) []core.Field {
	fields := core.Without(allFields, excludedFields[purpose]...)
	if role == collaborator.RoleAdmin && purpose != core.PurposeCreate {
		fields = append(fields, core.Field{Name: "archived", Label: "Archived"})
	}
	if !collaborator.HasRole(role, editorRoles) && purpose != core.PurposeList {
		return nil
	}
	return fields
}

// QueryFilter applies AND operation on available fields.
type QueryFilter struct {
	IncludeArchived bool
	IDs             []int
	SalesContactID  int
	Match           []core.FieldMatch
}
