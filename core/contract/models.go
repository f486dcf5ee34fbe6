package contract

import (
	"strconv"
	"time"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
)

var (
	// roles allowed to create and modify contracts
	editorRoles = []string{collaborator.RoleAdmin, collaborator.RoleManagement}

	allFields = []core.Field{
		{Name: "id", Label: "Id"},
		{Name: "client_id", Label: "Client id"},
		{Name: "client", Label: "Client"},
		{Name: "total_amount", Label: "Total amount"},
		{Name: "amount_due", Label: "Amount due"},
		{Name: "created_date", Label: "Created"},
		{Name: "signed", Label: "Signed"},
		{Name: "archived", Label: "Archived"},
	}
	excludedFields = map[core.Purpose][]string{
		core.PurposeList:   {"client_id", "archived"},
		core.PurposeCreate: {"id", "client", "created_date", "archived"},
		core.PurposeModify: {"id", "client", "created_date", "archived"},
	}
)

type Contract struct {
	ID          int         `json:"id"`
	ClientID    int         `json:"client_id" validate:"required"`
	TotalAmount core.Amount `json:"total_amount" validate:"gte=0"`
	AmountDue   core.Amount `json:"amount_due" validate:"gte=0"`
	CreatedDate time.Time   `json:"created_date"`
	Signed      bool        `json:"signed"`
	Archived    bool        `json:"archived"`

	// read only, joined from the client
	ClientName     string `json:"client" validate:"-"`
	SalesContactID int    `json:"-" validate:"-"`
}

func (c Contract) String() string {
	return "contract " + strconv.Itoa(c.ID) + " of " + c.ClientName
}

// IsPaid reports whether nothing is left to pay.
func (c Contract) IsPaid() bool { return c.AmountDue == 0 }

// Fields returns the contract fields a role works with for purpose.
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
	ClientIDs       []int
	SalesContactID  int
	SignedOnly      bool
	WithoutEvent    bool
	Match           []core.FieldMatch
}
