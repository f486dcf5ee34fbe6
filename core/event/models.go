package event

import (
	"time"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
)

var (
	// roles allowed to create events
	creatorRoles = []string{collaborator.RoleAdmin, collaborator.RoleSales}

	allFields = []core.Field{
		{Name: "id", Label: "Id"},
		{Name: "contract_id", Label: "Contract id"},
		{Name: "client", Label: "Client"},
		{Name: "title", Label: "Title"},
		{Name: "start_date", Label: "Start"},
		{Name: "end_date", Label: "End"},
		{Name: "location", Label: "Location"},
		{Name: "participants", Label: "Participants"},
		{Name: "notes", Label: "Notes"},
		{Name: "support", Label: "Support"},
		{Name: "support_id", Label: "Support id"},
		{Name: "archived", Label: "Archived"},
	}
	detailFields = []string{"title", "start_date", "end_date", "location", "participants", "notes"}
)

type Event struct {
	ID           int       `json:"id"`
	ContractID   int       `json:"contract_id" validate:"required"`
	Title        string    `json:"title" validate:"required"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Location     string    `json:"location" validate:"required"`
	Participants int       `json:"participants" validate:"gte=0"`
	Notes        string    `json:"notes"`
	SupportID    int       `json:"support_id"` // 0 when nobody is assigned
	Archived     bool      `json:"archived"`

	// read only, joined from the contract, its client and the support
	ClientName     string `json:"client" validate:"-"`
	SalesContactID int    `json:"-" validate:"-"`
	SupportName    string `json:"support" validate:"-"`
}

func (e Event) String() string {
	return e.Title + " (" + e.ClientName + ")"
}

// HasSupport reports whether a support collaborator is assigned.
func (e Event) HasSupport() bool { return e.SupportID != 0 }

func pick(names ...string) []core.Field {
	fields := make([]core.Field, 0, len(names))
	for _, n := range names {
		for _, f := range allFields {
			if f.Name == n {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// Fields returns the event fields a role works with for purpose.
// Management only assigns the support, support only edits the event details.
func Fields(role string, purpose core.Purpose) []core.Field {
	switch purpose {
	case core.PurposeList:
		fields := core.Without(allFields, "support_id", "archived")
		if role == collaborator.RoleAdmin {
			fields = append(fields, core.Field{Name: "archived", Label: "Archived"})
		}
		return fields
	case core.PurposeCreate:
		if !collaborator.HasRole(role, creatorRoles) {
			return nil
		}
		fields := pick(append([]string{"contract_id"}, detailFields...)...)
		if role == collaborator.RoleAdmin {
			fields = append(fields, pick("support_id")...)
		}
		return fields
	case core.PurposeModify:
		switch role {
		case collaborator.RoleAdmin:
			return pick(append(detailFields, "support_id", "archived")...)
		case collaborator.RoleManagement:
			return pick("support_id")
		case collaborator.RoleSupport:
			return pick(detailFields...)
		}
	}
	return nil
}

// QueryFilter applies AND operation on available fields.
type QueryFilter struct {
	IncludeArchived bool
	IDs             []int
	ContractIDs     []int
	SupportID       int
	WithoutSupport  bool
	SalesContactID  int
	Match           []core.FieldMatch
}
