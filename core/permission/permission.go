package permission

import (
	"github.com/pkg/errors"

	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/contract"
	"github.com/epicevents/crm/core/event"
)

// Entities
const (
	EntityCollaborator = "collaborator"
	EntityClient       = "client"
	EntityContract     = "contract"
	EntityEvent        = "event"
)

// Actions
const (
	ActionDetails  = "details"
	ActionCreate   = "create"
	ActionModify   = "modify"
	ActionDelete   = "delete"
	ActionPassword = "password"
)

var (
	Entities = []string{EntityCollaborator, EntityClient, EntityContract, EntityEvent}

	crud = []string{ActionDetails, ActionCreate, ActionModify, ActionDelete}

	// menu maps entity -> role -> allowed actions, in display order
	menu = map[string]map[string][]string{
		EntityCollaborator: {
			collaborator.RoleAdmin:      crud,
			collaborator.RoleManagement: crud,
			collaborator.RoleSales:      {ActionDetails, ActionModify},
			collaborator.RoleSupport:    {ActionDetails, ActionModify},
		},
		EntityClient: {
			collaborator.RoleAdmin:      crud,
			collaborator.RoleManagement: {ActionDetails},
			collaborator.RoleSales:      crud,
			collaborator.RoleSupport:    {ActionDetails},
		},
		EntityContract: {
			collaborator.RoleAdmin:      crud,
			collaborator.RoleManagement: crud,
			collaborator.RoleSales:      {ActionDetails},
			collaborator.RoleSupport:    {ActionDetails},
		},
		EntityEvent: {
			collaborator.RoleAdmin:      crud,
			collaborator.RoleManagement: {ActionDetails, ActionModify},
			collaborator.RoleSales:      {ActionDetails, ActionCreate},
			collaborator.RoleSupport:    {ActionDetails, ActionModify, ActionDelete},
		},
	}

	errUnknownObject = errors.New("unknown permission object")
)

// Actions returns the actions role may pick on entity, in display order.
func Actions(entity, role string) []string {
	return menu[entity][role]
}

// Allowed reports whether role may perform action on entity.
func Allowed(entity, role, action string) bool {
	for _, a := range menu[entity][role] {
		if a == action {
			return true
		}
	}
	return false
}

// Object is the policy view of a row.
type Object struct {
	Type           string `json:"type"`
	ID             int    `json:"id"`
	SalesContactID int    `json:"sales_contact_id"`
	SupportID      int    `json:"support_id"`
}

// ObjectOf builds the policy Object of a domain value.
func ObjectOf(v interface{}) (Object, error) {
	switch o := v.(type) {
	case collaborator.Collaborator:
		return Object{Type: EntityCollaborator, ID: o.ID}, nil
	case client.Client:
		return Object{Type: EntityClient, ID: o.ID, SalesContactID: o.SalesContactID}, nil
	case contract.Contract:
		return Object{Type: EntityContract, ID: o.ID, SalesContactID: o.SalesContactID}, nil
	case event.Event:
		return Object{Type: EntityEvent, ID: o.ID, SalesContactID: o.SalesContactID, SupportID: o.SupportID}, nil
	}
	return Object{}, errors.Wrapf(errUnknownObject, "%T", v)
}
