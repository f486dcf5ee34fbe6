package event

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/contract"
)

const assignedTemplate = "event_assigned"

var (
	// errors
	ErrNotFound          = errors.New("event not found")
	ErrUnknownContract   = errors.New("no contract found with this id")
	ErrContractNotSigned = errors.New("the contract is not signed yet")
	ErrContractHasEvent  = errors.New("an event already exists for this contract")
	ErrNotClientContact  = errors.New("you are not the sales contact of this contract's client")
	ErrNotSupport        = errors.New("no support collaborator found with this id")
	ErrEndBeforeStart    = errors.New("the event cannot end before it starts")
	ErrUnknownField      = errors.New("unknown event field")
)

func init() {
	core.RegisterEmailTemplate(assignedTemplate, `Hello {{.Support}},

You have been assigned to the event "{{.Title}}" of {{.Company}}.
From {{.Start}} to {{.End}} at {{.Location}}, {{.Participants}} participants expected.

{{.AppName}}
`)
}

type (
	Repository interface {
		CreateEvent(ctx context.Context, e Event, exec ...core.DBExecutor) (Event, error)
		GetEvent(ctx context.Context, id int, includeArchived bool, exec ...core.DBExecutor) (Event, error)
		QueryEvents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Event, error)
		UpdateEvent(ctx context.Context, e Event, exec ...core.DBExecutor) (Event, error)
		DeleteEvents(ctx context.Context, ids []int, exec ...core.DBExecutor) error
	}

	Service struct {
		db           core.DB
		repo         Repository
		contractRepo contract.Repository
		collabRepo   collaborator.Repository
		emailSvc     core.EmailService
		logger       core.Logger
		appName      string
	}
)

func NewService(
	conf *core.Config,
	db core.DB,
	repo Repository,
	contractRepo contract.Repository,
	collabRepo collaborator.Repository,
	emailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		db:           db,
		repo:         repo,
		contractRepo: contractRepo,
		collabRepo:   collabRepo,
		emailSvc:     emailSvc,
		logger:       logger,
		appName:      conf.AppName,
	}
}

// checkContract returns the contract an event may be created for by actor.
func (svc *Service) checkContract(ctx context.Context, actor collaborator.Collaborator, id int, exec ...core.DBExecutor) (contract.Contract, error) {
	field := "contract_id"
	c, err := svc.contractRepo.GetContract(ctx, id, false, exec...)
	if err != nil {
		if err == contract.ErrNotFound {
			return contract.Contract{}, core.NewFieldError(field, ErrUnknownContract)
		}
		return contract.Contract{}, err
	}
	if !c.Signed {
		return contract.Contract{}, core.NewFieldError(field, ErrContractNotSigned)
	}
	if !actor.IsAdmin() && c.SalesContactID != actor.ID {
		return contract.Contract{}, core.NewFieldError(field, ErrNotClientContact)
	}
	existing, err := svc.repo.QueryEvents(ctx, QueryFilter{ContractIDs: []int{id}, IncludeArchived: true}, nil, exec...)
	if err != nil {
		return contract.Contract{}, err
	}
	if len(existing) > 0 {
		return contract.Contract{}, core.NewFieldError(field, ErrContractHasEvent)
	}
	return c, nil
}

func (svc *Service) getSupport(ctx context.Context, id int) (collaborator.Collaborator, error) {
	c, err := svc.collabRepo.GetCollaborator(ctx, collaborator.GetFilter{ID: id})
	if err != nil {
		if err == collaborator.ErrNotFound {
			return collaborator.Collaborator{}, core.NewFieldError("support_id", ErrNotSupport)
		}
		return collaborator.Collaborator{}, err
	}
	if !c.IsSupport() {
		return collaborator.Collaborator{}, core.NewFieldError("support_id", ErrNotSupport)
	}
	return c, nil
}

func parseDateTime(field, raw string) (time.Time, error) {
	val := core.CleanString(raw)
	if err := core.ValidateVar(field, val, "required,datetime_fr"); err != nil {
		return time.Time{}, err
	}
	return core.ParseDateTime(val)
}

// SetField validates raw input for field and stores it on e.
func (svc *Service) SetField(ctx context.Context, actor collaborator.Collaborator, e *Event, field, raw string) error {
	val := core.CleanString(raw)
	switch field {
	case "contract_id":
		id, err := strconv.Atoi(val)
		if err != nil || id <= 0 {
			return core.NewFieldError(field, ErrUnknownContract)
		}
		c, err := svc.checkContract(ctx, actor, id)
		if err != nil {
			return err
		}
		e.ContractID = c.ID
		e.ClientName = c.ClientName
		e.SalesContactID = c.SalesContactID
	case "title":
		if err := core.ValidateVar(field, val, "required"); err != nil {
			return err
		}
		e.Title = val
	case "start_date":
		start, err := parseDateTime(field, val)
		if err != nil {
			return err
		}
		if !e.EndDate.IsZero() && start.After(e.EndDate) {
			return core.NewFieldError(field, ErrEndBeforeStart)
		}
		e.StartDate = start
	case "end_date":
		end, err := parseDateTime(field, val)
		if err != nil {
			return err
		}
		if !e.StartDate.IsZero() && end.Before(e.StartDate) {
			return core.NewFieldError(field, ErrEndBeforeStart)
		}
		e.EndDate = end
	case "location":
		if err := core.ValidateVar(field, val, "required"); err != nil {
			return err
		}
		e.Location = val
	case "participants":
		if err := core.ValidateVar(field, val, "required,number"); err != nil {
			return err
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return core.NewFieldError(field, errors.New("must be a positive whole number"))
		}
		e.Participants = n
	case "notes":
		e.Notes = val
	case "support_id":
		if val == "" || val == "0" {
			e.SupportID, e.SupportName = 0, ""
			return nil
		}
		id, err := strconv.Atoi(val)
		if err != nil || id <= 0 {
			return core.NewFieldError(field, ErrNotSupport)
		}
		support, err := svc.getSupport(ctx, id)
		if err != nil {
			return err
		}
		e.SupportID, e.SupportName = support.ID, support.FullName
	case "archived":
		e.Archived = core.IsYes(val)
	default:
		return core.NewFieldError(field, ErrUnknownField)
	}
	return nil
}

func (svc *Service) validate(ctx context.Context, e Event) error {
	if err := core.Validate.Struct(e); err != nil {
		return core.TranslateError(err)
	}
	var flds []core.FieldError
	if e.StartDate.IsZero() {
		flds = append(flds, core.FieldError{Field: "start_date", Error: "this field is required"})
	}
	if e.EndDate.IsZero() {
		flds = append(flds, core.FieldError{Field: "end_date", Error: "this field is required"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	if e.EndDate.Before(e.StartDate) {
		return core.NewFieldError("end_date", ErrEndBeforeStart)
	}
	if e.HasSupport() {
		if _, err := svc.getSupport(ctx, e.SupportID); err != nil {
			return err
		}
	}
	return nil
}

// Create validates and inserts a new event for a signed contract of actor's client.
// Contract checks and insertion share one transaction.
func (svc *Service) Create(ctx context.Context, actor collaborator.Collaborator, e Event) (Event, error) {
	e.ID = 0
	e.Archived = false
	if !actor.IsAdmin() {
		e.SupportID = 0
	}
	if err := svc.validate(ctx, e); err != nil {
		return Event{}, err
	}

	var created Event
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.checkContract(ctx, actor, e.ContractID, tx); err != nil {
			return err
		}
		var err error
		created, err = svc.repo.CreateEvent(ctx, e, tx)
		return err
	})
	if err != nil {
		if !core.IsValidationError(err) {
			svc.logger.Error("creating event", err, actor)
		}
		return Event{}, err
	}
	svc.logger.Info(fmt.Sprintf("event %d created", created.ID), actor)
	if created.HasSupport() {
		svc.notifyAssigned(ctx, actor, created)
	}
	return created, nil
}

// Get returns an event by ID. Archived events are only found when showArchived is set.
func (svc *Service) Get(ctx context.Context, id int, showArchived bool) (Event, error) {
	return svc.repo.GetEvent(ctx, id, showArchived)
}

// Scope returns the base filter of events actor may see for purpose.
func Scope(actor collaborator.Collaborator, purpose core.Purpose) QueryFilter {
	var filter QueryFilter
	switch {
	case purpose == core.PurposeList && actor.IsManagement():
		filter.WithoutSupport = true
	case purpose == core.PurposeModify && actor.IsSupport():
		filter.SupportID = actor.ID
	}
	return filter
}

// List returns the events in actor's scope for purpose.
func (svc *Service) List(ctx context.Context, actor collaborator.Collaborator, purpose core.Purpose, opts core.ListOptions) ([]Event, error) {
	filter := Scope(actor, purpose)
	filter.IncludeArchived = opts.ShowArchived
	filter.Match = opts.Match
	return svc.repo.QueryEvents(ctx, filter, opts.Ordering)
}

// ListByContract returns the active events of a contract.
func (svc *Service) ListByContract(ctx context.Context, contractID int) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, QueryFilter{ContractIDs: []int{contractID}}, nil)
}

// ListBySupport returns the active events followed by a support collaborator.
func (svc *Service) ListBySupport(ctx context.Context, supportID int) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, QueryFilter{SupportID: supportID}, nil)
}

// ListBySalesContact returns the active events of the clients followed by a sales collaborator.
func (svc *Service) ListBySalesContact(ctx context.Context, salesContactID int) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, QueryFilter{SalesContactID: salesContactID}, nil)
}

// Update validates and saves a modified event. A newly assigned support is told by email.
func (svc *Service) Update(ctx context.Context, actor collaborator.Collaborator, e Event) (Event, error) {
	if e.ID == 0 {
		return Event{}, ErrNotFound
	}
	old, err := svc.repo.GetEvent(ctx, e.ID, true)
	if err != nil {
		return Event{}, err
	}
	if err = svc.validate(ctx, e); err != nil {
		return Event{}, err
	}
	updated, err := svc.repo.UpdateEvent(ctx, e)
	if err != nil {
		svc.logger.Error("updating event", err, actor)
		return Event{}, err
	}
	svc.logger.Info(fmt.Sprintf("event %d updated", updated.ID), actor)
	if updated.HasSupport() && updated.SupportID != old.SupportID {
		svc.notifyAssigned(ctx, actor, updated)
	}
	return updated, nil
}

// Delete archives an event, or removes it for good when actor is the super user.
func (svc *Service) Delete(ctx context.Context, actor collaborator.Collaborator, e Event) error {
	if actor.IsAdmin() {
		if err := svc.repo.DeleteEvents(ctx, []int{e.ID}); err != nil {
			svc.logger.Error("deleting event", err, actor)
			return err
		}
		svc.logger.Info(fmt.Sprintf("event %d deleted", e.ID), actor)
		return nil
	}
	e.Archived = true
	if _, err := svc.repo.UpdateEvent(ctx, e); err != nil {
		svc.logger.Error("archiving event", err, actor)
		return err
	}
	svc.logger.Info(fmt.Sprintf("event %d archived", e.ID), actor)
	return nil
}

func (svc *Service) notifyAssigned(ctx context.Context, actor collaborator.Collaborator, e Event) {
	support, err := svc.collabRepo.GetCollaborator(ctx, collaborator.GetFilter{ID: e.SupportID})
	if err != nil {
		svc.logger.Warn("event assignment notification: support lookup failed", err, actor)
		return
	}
	svc.emailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: support.FullName, Address: support.Email}},
		Subject:      "new event assigned: " + e.Title,
		TemplateName: assignedTemplate,
		TemplateData: map[string]interface{}{
			"AppName":      svc.appName,
			"Support":      support.FullName,
			"Title":        e.Title,
			"Company":      e.ClientName,
			"Start":        e.StartDate.Format(core.DateTimeLayout),
			"End":          e.EndDate.Format(core.DateTimeLayout),
			"Location":     e.Location,
			"Participants": e.Participants,
		},
	})
}
