package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
)

var (
	// errors
	ErrNotFound        = errors.New("client not found")
	ErrEmailExists     = errors.New("a client with this email already exists")
	ErrNotSalesContact = errors.New("no sales collaborator found with this id")
	ErrUnknownField    = errors.New("unknown client field")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []int, exec ...core.DBExecutor) error
		CreateClient(ctx context.Context, cl Client, exec ...core.DBExecutor) (Client, error)
		GetClient(ctx context.Context, id int, includeArchived bool, exec ...core.DBExecutor) (Client, error)
		QueryClients(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Client, error)
		UpdateClient(ctx context.Context, cl Client, exec ...core.DBExecutor) (Client, error)
		DeleteClients(ctx context.Context, ids []int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo       Repository
		collabRepo collaborator.Repository
		logger     core.Logger
	}
)

func NewService(repo Repository, collabRepo collaborator.Repository, logger core.Logger) *Service {
	return &Service{repo: repo, collabRepo: collabRepo, logger: logger}
}

func (svc *Service) checkSalesContact(ctx context.Context, id int) error {
	c, err := svc.collabRepo.GetCollaborator(ctx, collaborator.GetFilter{ID: id})
	if err != nil {
		if err == collaborator.ErrNotFound {
			return core.NewFieldError("sales_contact_id", ErrNotSalesContact)
		}
		return err
	}
	if !c.IsSales() {
		return core.NewFieldError("sales_contact_id", ErrNotSalesContact)
	}
	return nil
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclIDs ...int) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclIDs); err != nil {
		if err == ErrEmailExists {
			return core.NewFieldError("email", err)
		}
		return err
	}
	return nil
}

// SetField validates raw input for field and stores it on cl.
func (svc *Service) SetField(ctx context.Context, cl *Client, field, raw string) error {
	val := core.CleanString(raw)
	switch field {
	case "full_name":
		if err := core.ValidateVar(field, val, "required,clientname"); err != nil {
			return err
		}
		cl.FullName = val
	case "email":
		if err := core.ValidateVar(field, val, "required,clientemail"); err != nil {
			return err
		}
		if err := svc.checkUniqueness(ctx, val, cl.ID); err != nil {
			return err
		}
		cl.Email = val
	case "phone":
		phone := core.CleanPhone(val)
		if err := core.ValidateVar(field, phone, "required,frphone"); err != nil {
			return err
		}
		cl.Phone = phone
	case "company_name":
		if err := core.ValidateVar(field, val, "required"); err != nil {
			return err
		}
		cl.CompanyName = val
	case "last_contact_date":
		if err := core.ValidateVar(field, val, "required,date"); err != nil {
			return err
		}
		cl.LastContactDate, _ = core.ParseDate(val)
	case "sales_contact_id":
		id, err := strconv.Atoi(val)
		if err != nil || id <= 0 {
			return core.NewFieldError(field, ErrNotSalesContact)
		}
		if err = svc.checkSalesContact(ctx, id); err != nil {
			return err
		}
		cl.SalesContactID = id
	case "archived":
		cl.Archived = core.IsYes(val)
	default:
		return core.NewFieldError(field, ErrUnknownField)
	}
	return nil
}

func (svc *Service) validate(ctx context.Context, cl Client) error {
	if err := core.Validate.Struct(cl); err != nil {
		return core.TranslateError(err)
	}
	if cl.LastContactDate.IsZero() {
		return core.NewFieldError("last_contact_date", errors.New("this field is required"))
	}
	if err := svc.checkSalesContact(ctx, cl.SalesContactID); err != nil {
		return err
	}
	var exclIDs []int
	if cl.ID != 0 {
		exclIDs = append(exclIDs, cl.ID)
	}
	return svc.checkUniqueness(ctx, cl.Email, exclIDs...)
}

// Create validates and inserts a new client. A sales actor becomes the sales contact.
func (svc *Service) Create(ctx context.Context, actor collaborator.Collaborator, cl Client) (Client, error) {
	cl.ID = 0
	cl.Archived = false
	cl.CreatedDate = core.Today()
	if actor.IsSales() {
		cl.SalesContactID = actor.ID
	}
	if err := svc.validate(ctx, cl); err != nil {
		return Client{}, err
	}
	created, err := svc.repo.CreateClient(ctx, cl)
	if err != nil {
		svc.logger.Error("creating client", err, actor)
		return Client{}, err
	}
	svc.logger.Info(fmt.Sprintf("client %d created", created.ID), actor)
	return created, nil
}

// Get returns a client by ID. Archived clients are only found when showArchived is set.
func (svc *Service) Get(ctx context.Context, id int, showArchived bool) (Client, error) {
	return svc.repo.GetClient(ctx, id, showArchived)
}

// Scope returns the base filter of clients actor may see for purpose.
func Scope(actor collaborator.Collaborator, purpose core.Purpose) QueryFilter {
	var filter QueryFilter
	if purpose == core.PurposeModify && !actor.IsAdmin() {
		filter.SalesContactID = actor.ID
	}
	return filter
}

// List returns the clients in actor's scope for purpose.
func (svc *Service) List(ctx context.Context, actor collaborator.Collaborator, purpose core.Purpose, opts core.ListOptions) ([]Client, error) {
	filter := Scope(actor, purpose)
	filter.IncludeArchived = opts.ShowArchived
	filter.Match = opts.Match
	return svc.repo.QueryClients(ctx, filter, opts.Ordering)
}

// ListBySalesContact returns the active clients followed by a sales collaborator.
func (svc *Service) ListBySalesContact(ctx context.Context, salesContactID int) ([]Client, error) {
	return svc.repo.QueryClients(ctx, QueryFilter{SalesContactID: salesContactID}, nil)
}

// Update validates and saves a modified client.
func (svc *Service) Update(ctx context.Context, actor collaborator.Collaborator, cl Client) (Client, error) {
	if cl.ID == 0 {
		return Client{}, ErrNotFound
	}
	if err := svc.validate(ctx, cl); err != nil {
		return Client{}, err
	}
	updated, err := svc.repo.UpdateClient(ctx, cl)
	if err != nil {
		svc.logger.Error("updating client", err, actor)
		return Client{}, err
	}
	svc.logger.Info(fmt.Sprintf("client %d updated", updated.ID), actor)
	return updated, nil
}

// Delete archives a client, or removes it for good when actor is the super user.
func (svc *Service) Delete(ctx context.Context, actor collaborator.Collaborator, cl Client) error {
	if actor.IsAdmin() {
		if err := svc.repo.DeleteClients(ctx, []int{cl.ID}); err != nil {
			svc.logger.Error("deleting client", err, actor)
			return err
		}
		svc.logger.Info(fmt.Sprintf("client %d deleted", cl.ID), actor)
		return nil
	}
	cl.Archived = true
	if _, err := svc.repo.UpdateClient(ctx, cl); err != nil {
		svc.logger.Error("archiving client", err, actor)
		return err
	}
	svc.logger.Info(fmt.Sprintf("client %d archived", cl.ID), actor)
	return nil
}
