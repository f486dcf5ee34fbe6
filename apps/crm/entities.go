package main

import (
	"context"
	"strconv"
	"time"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/contract"
	"github.com/epicevents/crm/core/event"
	"github.com/epicevents/crm/core/permission"
)

// relation is a list of rows of entity shown next to another row.
type relation struct {
	entity string
	title  string
	rows   []interface{}
}

// entityHandler adapts a domain service to the generic CLI flows.
// Records are passed by value so staged edits never touch the listed rows.
type entityHandler interface {
	entity() string
	plural() string
	fields(role string, purpose core.Purpose) []core.Field
	id(rec interface{}) int
	value(rec interface{}, field string) string
	list(ctx context.Context, actor collaborator.Collaborator, purpose core.Purpose, opts core.ListOptions) ([]interface{}, error)
	related(ctx context.Context, rec interface{}) ([]relation, error)
	// references lists the rows a new record must point to; creation stops when one of them is empty.
	references(ctx context.Context, actor collaborator.Collaborator) ([]relation, error)
	// fieldReference lists the rows field may point to when it is modified.
	fieldReference(ctx context.Context, actor collaborator.Collaborator, field string) (relation, bool, error)
	blank() interface{}
	setField(ctx context.Context, actor collaborator.Collaborator, rec interface{}, field, raw string) (interface{}, error)
	create(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error)
	update(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error)
	remove(ctx context.Context, actor collaborator.Collaborator, rec interface{}) error
}

func records[T any](rows []T) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func formatID(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}

// =========================================================================
// Collaborators

type collaboratorHandler struct {
	collabs *collaborator.Service
	clients *client.Service
	events  *event.Service
}

func (h collaboratorHandler) entity() string { return permission.EntityCollaborator }
func (h collaboratorHandler) plural() string { return "collaborators" }

func (h collaboratorHandler) fields(role string, purpose core.Purpose) []core.Field {
	return collaborator.Fields(role, purpose)
}

func (h collaboratorHandler) id(rec interface{}) int { return rec.(collaborator.Collaborator).ID }

func (h collaboratorHandler) value(rec interface{}, field string) string {
	c := rec.(collaborator.Collaborator)
	switch field {
	case "id":
		return formatID(c.ID)
	case "full_name":
		return c.FullName
	case "email":
		return c.Email
	case "role":
		return c.Role
	case "password":
		if len(c.PasswordHash) == 0 {
			return ""
		}
		return "********"
	case "archived":
		return core.FormatBool(c.Archived)
	}
	return ""
}

func (h collaboratorHandler) list(ctx context.Context, actor collaborator.Collaborator, purpose core.Purpose, opts core.ListOptions) ([]interface{}, error) {
	rows, err := h.collabs.List(ctx, actor, purpose, opts)
	return records(rows), err
}

func (h collaboratorHandler) related(ctx context.Context, rec interface{}) ([]relation, error) {
	c := rec.(collaborator.Collaborator)
	switch c.Role {
	case collaborator.RoleSales:
		clients, err := h.clients.ListBySalesContact(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		events, err := h.events.ListBySalesContact(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return []relation{
			{entity: permission.EntityClient, title: "Clients", rows: records(clients)},
			{entity: permission.EntityEvent, title: "Events", rows: records(events)},
		}, nil
	case collaborator.RoleSupport:
		events, err := h.events.ListBySupport(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return []relation{{entity: permission.EntityEvent, title: "Events", rows: records(events)}}, nil
	}
	return nil, nil
}

func (h collaboratorHandler) references(context.Context, collaborator.Collaborator) ([]relation, error) {
	return nil, nil
}

func (h collaboratorHandler) fieldReference(context.Context, collaborator.Collaborator, string) (relation, bool, error) {
	return relation{}, false, nil
}

func (h collaboratorHandler) blank() interface{} { return collaborator.Collaborator{} }

func (h collaboratorHandler) setField(ctx context.Context, actor collaborator.Collaborator, rec interface{}, field, raw string) (interface{}, error) {
	c := rec.(collaborator.Collaborator)
	if err := h.collabs.SetField(ctx, actor, &c, field, raw); err != nil {
		return rec, err
	}
	return c, nil
}

func (h collaboratorHandler) create(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error) {
	return h.collabs.Create(ctx, actor, rec.(collaborator.Collaborator))
}

func (h collaboratorHandler) update(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error) {
	return h.collabs.Update(ctx, actor, rec.(collaborator.Collaborator))
}

func (h collaboratorHandler) remove(ctx context.Context, actor collaborator.Collaborator, rec interface{}) error {
	return h.collabs.Delete(ctx, actor, rec.(collaborator.Collaborator))
}

// =========================================================================
// Clients

type clientHandler struct {
	collabs   *collaborator.Service
	clients   *client.Service
	contracts *contract.Service
}

func (h clientHandler) entity() string { return permission.EntityClient }
func (h clientHandler) plural() string { return "clients" }

// fields drops the sales contact when a sales collaborator creates a client, it will be them.
func (h clientHandler) fields(role string, purpose core.Purpose) []core.Field {
	fields := client.Fields(role, purpose)
	if role == collaborator.RoleSales && purpose == core.PurposeCreate {
		fields = core.Without(fields, "sales_contact_id")
	}
	return fields
}

func (h clientHandler) id(rec interface{}) int { return rec.(client.Client).ID }

func (h clientHandler) value(rec interface{}, field string) string {
	cl := rec.(client.Client)
	switch field {
	case "id":
		return formatID(cl.ID)
	case "full_name":
		return cl.FullName
	case "email":
		return cl.Email
	case "phone":
		return cl.Phone
	case "company_name":
		return cl.CompanyName
	case "created_date":
		return formatDate(cl.CreatedDate, core.DateLayout)
	case "last_contact_date":
		return formatDate(cl.LastContactDate, core.DateLayout)
	case "sales_contact":
		return cl.SalesContactName
	case "sales_contact_id":
		return formatID(cl.SalesContactID)
	case "archived":
		return core.FormatBool(cl.Archived)
	}
	return ""
}

func (h clientHandler) list(ctx context.Context, actor collaborator.Collaborator, purpose core.Purpose, opts core.ListOptions) ([]interface{}, error) {
	rows, err := h.clients.List(ctx, actor, purpose, opts)
	return records(rows), err
}

func (h clientHandler) related(ctx context.Context, rec interface{}) ([]relation, error) {
	cl := rec.(client.Client)
	var rels []relation
	if cl.SalesContactID != 0 {
		sales, err := h.collabs.Get(ctx, cl.SalesContactID, true)
		if err != nil {
			return nil, err
		}
		rels = append(rels, relation{entity: permission.EntityCollaborator, title: "Sales contact", rows: records([]collaborator.Collaborator{sales})})
	}
	contracts, err := h.contracts.ListByClient(ctx, cl.ID)
	if err != nil {
		return nil, err
	}
	return append(rels, relation{entity: permission.EntityContract, title: "Contracts", rows: records(contracts)}), nil
}

// references lists the sales collaborators the super user can pick from.
func (h clientHandler) references(ctx context.Context, actor collaborator.Collaborator) ([]relation, error) {
	if actor.IsSales() {
		return nil, nil
	}
	sales, err := h.collabs.ListByRole(ctx, collaborator.RoleSales)
	if err != nil {
		return nil, err
	}
	return []relation{{entity: permission.EntityCollaborator, title: "Sales collaborators", rows: records(sales)}}, nil
}

func (h clientHandler) fieldReference(ctx context.Context, _ collaborator.Collaborator, field string) (relation, bool, error) {
	if field != "sales_contact_id" {
		return relation{}, false, nil
	}
	sales, err := h.collabs.ListByRole(ctx, collaborator.RoleSales)
	if err != nil {
		return relation{}, false, err
	}
	return relation{entity: permission.EntityCollaborator, title: "Sales collaborators", rows: records(sales)}, true, nil
}

func (h clientHandler) blank() interface{} { return client.Client{} }

func (h clientHandler) setField(ctx context.Context, _ collaborator.Collaborator, rec interface{}, field, raw string) (interface{}, error) {
	cl := rec.(client.Client)
	if err := h.clients.SetField(ctx, &cl, field, raw); err != nil {
		return rec, err
	}
	return cl, nil
}

func (h clientHandler) create(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error) {
	return h.clients.Create(ctx, actor, rec.(client.Client))
}

func (h clientHandler) update(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error) {
	return h.clients.Update(ctx, actor, rec.(client.Client))
}

func (h clientHandler) remove(ctx context.Context, actor collaborator.Collaborator, rec interface{}) error {
	return h.clients.Delete(ctx, actor, rec.(client.Client))
}

// =========================================================================
// Contracts

type contractHandler struct {
	clients   *client.Service
	contracts *contract.Service
	events    *event.Service
}

func (h contractHandler) entity() string { return permission.EntityContract }
func (h contractHandler) plural() string { return "contracts" }

func (h contractHandler) fields(role string, purpose core.Purpose) []core.Field {
	return contract.Fields(role, purpose)
}

func (h contractHandler) id(rec interface{}) int { return rec.(contract.Contract).ID }

func (h contractHandler) value(rec interface{}, field string) string {
	c := rec.(contract.Contract)
	switch field {
	case "id":
		return formatID(c.ID)
	case "client_id":
		return formatID(c.ClientID)
	case "client":
		return c.ClientName
	case "total_amount":
		return c.TotalAmount.String()
	case "amount_due":
		return c.AmountDue.String()
	case "created_date":
		return formatDate(c.CreatedDate, core.DateLayout)
	case "signed":
		return core.FormatBool(c.Signed)
	case "archived":
		return core.FormatBool(c.Archived)
	}
	return ""
}

func (h contractHandler) list(ctx context.Context, actor collaborator.Collaborator, purpose core.Purpose, opts core.ListOptions) ([]interface{}, error) {
	rows, err := h.contracts.List(ctx, actor, purpose, opts)
	return records(rows), err
}

func (h contractHandler) related(ctx context.Context, rec interface{}) ([]relation, error) {
	c := rec.(contract.Contract)
	cl, err := h.clients.Get(ctx, c.ClientID, true)
	if err != nil {
		return nil, err
	}
	events, err := h.events.ListByContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return []relation{
		{entity: permission.EntityClient, title: "Client", rows: records([]client.Client{cl})},
		{entity: permission.EntityEvent, title: "Event", rows: records(events)},
	}, nil
}

func (h contractHandler) references(ctx context.Context, actor collaborator.Collaborator) ([]relation, error) {
	clients, err := h.clients.List(ctx, actor, core.PurposeList, core.ListOptions{})
	if err != nil {
		return nil, err
	}
	return []relation{{entity: permission.EntityClient, title: "Clients", rows: records(clients)}}, nil
}

func (h contractHandler) fieldReference(ctx context.Context, actor collaborator.Collaborator, field string) (relation, bool, error) {
	if field != "client_id" {
		return relation{}, false, nil
	}
	refs, err := h.references(ctx, actor)
	if err != nil {
		return relation{}, false, err
	}
	return refs[0], true, nil
}

func (h contractHandler) blank() interface{} { return contract.Contract{} }

func (h contractHandler) setField(ctx context.Context, _ collaborator.Collaborator, rec interface{}, field, raw string) (interface{}, error) {
	c := rec.(contract.Contract)
	if err := h.contracts.SetField(ctx, &c, field, raw); err != nil {
		return rec, err
	}
	return c, nil
}

func (h contractHandler) create(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error) {
	return h.contracts.Create(ctx, actor, rec.(contract.Contract))
}

func (h contractHandler) update(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error) {
	return h.contracts.Update(ctx, actor, rec.(contract.Contract))
}

func (h contractHandler) remove(ctx context.Context, actor collaborator.Collaborator, rec interface{}) error {
	return h.contracts.Delete(ctx, actor, rec.(contract.Contract))
}

// =========================================================================
// Events

type eventHandler struct {
	collabs   *collaborator.Service
	clients   *client.Service
	contracts *contract.Service
	events    *event.Service
}

func (h eventHandler) entity() string { return permission.EntityEvent }
func (h eventHandler) plural() string { return "events" }

func (h eventHandler) fields(role string, purpose core.Purpose) []core.Field {
	return event.Fields(role, purpose)
}

func (h eventHandler) id(rec interface{}) int { return rec.(event.Event).ID }

func (h eventHandler) value(rec interface{}, field string) string {
	e := rec.(event.Event)
	switch field {
	case "id":
		return formatID(e.ID)
	case "contract_id":
		return formatID(e.ContractID)
	case "client":
		return e.ClientName
	case "title":
		return e.Title
	case "start_date":
		return formatDate(e.StartDate, core.DateTimeLayout)
	case "end_date":
		return formatDate(e.EndDate, core.DateTimeLayout)
	case "location":
		return e.Location
	case "participants":
		return strconv.Itoa(e.Participants)
	case "notes":
		return e.Notes
	case "support":
		return e.SupportName
	case "support_id":
		return formatID(e.SupportID)
	case "archived":
		return core.FormatBool(e.Archived)
	}
	return ""
}

func (h eventHandler) list(ctx context.Context, actor collaborator.Collaborator, purpose core.Purpose, opts core.ListOptions) ([]interface{}, error) {
	rows, err := h.events.List(ctx, actor, purpose, opts)
	return records(rows), err
}

func (h eventHandler) related(ctx context.Context, rec interface{}) ([]relation, error) {
	e := rec.(event.Event)
	c, err := h.contracts.Get(ctx, e.ContractID, true)
	if err != nil {
		return nil, err
	}
	cl, err := h.clients.Get(ctx, c.ClientID, true)
	if err != nil {
		return nil, err
	}
	rels := []relation{
		{entity: permission.EntityContract, title: "Contract", rows: records([]contract.Contract{c})},
		{entity: permission.EntityClient, title: "Client", rows: records([]client.Client{cl})},
	}
	if e.HasSupport() {
		support, err := h.collabs.Get(ctx, e.SupportID, true)
		if err != nil {
			return nil, err
		}
		rels = append(rels, relation{entity: permission.EntityCollaborator, title: "Support", rows: records([]collaborator.Collaborator{support})})
	}
	return rels, nil
}

func (h eventHandler) references(ctx context.Context, actor collaborator.Collaborator) ([]relation, error) {
	contracts, err := h.contracts.EventCandidates(ctx, actor)
	if err != nil {
		return nil, err
	}
	return []relation{{entity: permission.EntityContract, title: "Signed contracts without event", rows: records(contracts)}}, nil
}

func (h eventHandler) fieldReference(ctx context.Context, _ collaborator.Collaborator, field string) (relation, bool, error) {
	if field != "support_id" {
		return relation{}, false, nil
	}
	support, err := h.collabs.ListByRole(ctx, collaborator.RoleSupport)
	if err != nil {
		return relation{}, false, err
	}
	return relation{entity: permission.EntityCollaborator, title: "Support collaborators", rows: records(support)}, true, nil
}

func (h eventHandler) blank() interface{} { return event.Event{} }

func (h eventHandler) setField(ctx context.Context, actor collaborator.Collaborator, rec interface{}, field, raw string) (interface{}, error) {
	e := rec.(event.Event)
	if err := h.events.SetField(ctx, actor, &e, field, raw); err != nil {
		return rec, err
	}
	return e, nil
}

func (h eventHandler) create(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error) {
	return h.events.Create(ctx, actor, rec.(event.Event))
}

func (h eventHandler) update(ctx context.Context, actor collaborator.Collaborator, rec interface{}) (interface{}, error) {
	return h.events.Update(ctx, actor, rec.(event.Event))
}

func (h eventHandler) remove(ctx context.Context, actor collaborator.Collaborator, rec interface{}) error {
	return h.events.Delete(ctx, actor, rec.(event.Event))
}
