package contract

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"

	"github.com/pkg/errors"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
)

const signedTemplate = "contract_signed"

var (
	// errors
	ErrNotFound        = errors.New("contract not found")
	ErrUnknownClient   = errors.New("no client found with this id")
	ErrDueExceedsTotal = errors.New("amount due cannot exceed the total amount")
	ErrUnknownField    = errors.New("unknown contract field")
)

func init() {
	core.RegisterEmailTemplate(signedTemplate, `Hello {{.SalesContact}},

The contract {{.ContractID}} of {{.Company}} has just been signed.
Total amount: {{.Total}}
Amount due: {{.Due}}

You can now create its event.

{{.AppName}}
`)
}

type (
	Repository interface {
		CreateContract(ctx context.Context, c Contract, exec ...core.DBExecutor) (Contract, error)
		GetContract(ctx context.Context, id int, includeArchived bool, exec ...core.DBExecutor) (Contract, error)
		QueryContracts(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Contract, error)
		UpdateContract(ctx context.Context, c Contract, exec ...core.DBExecutor) (Contract, error)
		DeleteContracts(ctx context.Context, ids []int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo       Repository
		clientRepo client.Repository
		collabRepo collaborator.Repository
		emailSvc   core.EmailService
		logger     core.Logger
		appName    string
	}
)

func NewService(
	conf *core.Config,
	repo Repository,
	clientRepo client.Repository,
	collabRepo collaborator.Repository,
	emailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		clientRepo: clientRepo,
		collabRepo: collabRepo,
		emailSvc:   emailSvc,
		logger:     logger,
		appName:    conf.AppName,
	}
}

func (svc *Service) getClient(ctx context.Context, id int) (client.Client, error) {
	cl, err := svc.clientRepo.GetClient(ctx, id, false)
	if err != nil {
		if err == client.ErrNotFound {
			return client.Client{}, core.NewFieldError("client_id", ErrUnknownClient)
		}
		return client.Client{}, err
	}
	return cl, nil
}

func parseAmount(field, raw string) (core.Amount, error) {
	if err := core.ValidateVar(field, core.CleanString(raw), "required,amount"); err != nil {
		return 0, err
	}
	return core.ParseAmount(raw)
}

// SetField validates raw input for field and stores it on c.
func (svc *Service) SetField(ctx context.Context, c *Contract, field, raw string) error {
	switch field {
	case "client_id":
		id, err := strconv.Atoi(core.CleanString(raw))
		if err != nil || id <= 0 {
			return core.NewFieldError(field, ErrUnknownClient)
		}
		cl, err := svc.getClient(ctx, id)
		if err != nil {
			return err
		}
		c.ClientID = cl.ID
		c.ClientName = cl.CompanyName
		c.SalesContactID = cl.SalesContactID
	case "total_amount":
		amount, err := parseAmount(field, raw)
		if err != nil {
			return err
		}
		c.TotalAmount = amount
	case "amount_due":
		amount, err := parseAmount(field, raw)
		if err != nil {
			return err
		}
		if c.TotalAmount > 0 && amount > c.TotalAmount {
			return core.NewFieldError(field, ErrDueExceedsTotal)
		}
		c.AmountDue = amount
	case "signed":
		c.Signed = core.IsYes(raw)
	case "archived":
		c.Archived = core.IsYes(raw)
	default:
		return core.NewFieldError(field, ErrUnknownField)
	}
	return nil
}

func (svc *Service) validate(ctx context.Context, c Contract) error {
	if err := core.Validate.Struct(c); err != nil {
		return core.TranslateError(err)
	}
	if c.AmountDue > c.TotalAmount {
		return core.NewFieldError("amount_due", ErrDueExceedsTotal)
	}
	_, err := svc.getClient(ctx, c.ClientID)
	return err
}

// Create validates and inserts a new contract.
func (svc *Service) Create(ctx context.Context, actor collaborator.Collaborator, c Contract) (Contract, error) {
	c.ID = 0
	c.Archived = false
	c.CreatedDate = core.Today()
	if err := svc.validate(ctx, c); err != nil {
		return Contract{}, err
	}
	created, err := svc.repo.CreateContract(ctx, c)
	if err != nil {
		svc.logger.Error("creating contract", err, actor)
		return Contract{}, err
	}
	svc.logger.Info(fmt.Sprintf("contract %d created", created.ID), actor)
	if created.Signed {
		svc.notifySigned(ctx, actor, created)
	}
	return created, nil
}

// Get returns a contract by ID. Archived contracts are only found when showArchived is set.
func (svc *Service) Get(ctx context.Context, id int, showArchived bool) (Contract, error) {
	return svc.repo.GetContract(ctx, id, showArchived)
}

// Scope returns the base filter of contracts actor may see for purpose.
// Sales only list the signed contracts of their clients still waiting for an event.
func Scope(actor collaborator.Collaborator, purpose core.Purpose) QueryFilter {
	var filter QueryFilter
	if purpose == core.PurposeList && actor.IsSales() {
		filter.SalesContactID = actor.ID
		filter.SignedOnly = true
		filter.WithoutEvent = true
	}
	return filter
}

// List returns the contracts in actor's scope for purpose.
func (svc *Service) List(ctx context.Context, actor collaborator.Collaborator, purpose core.Purpose, opts core.ListOptions) ([]Contract, error) {
	filter := Scope(actor, purpose)
	filter.IncludeArchived = opts.ShowArchived
	filter.Match = opts.Match
	return svc.repo.QueryContracts(ctx, filter, opts.Ordering)
}

// ListByClient returns the active contracts of a client.
func (svc *Service) ListByClient(ctx context.Context, clientID int) ([]Contract, error) {
	return svc.repo.QueryContracts(ctx, QueryFilter{ClientIDs: []int{clientID}}, nil)
}

// EventCandidates returns the signed contracts without event actor may create an event for.
func (svc *Service) EventCandidates(ctx context.Context, actor collaborator.Collaborator) ([]Contract, error) {
	filter := QueryFilter{SignedOnly: true, WithoutEvent: true}
	if !actor.IsAdmin() {
		filter.SalesContactID = actor.ID
	}
	return svc.repo.QueryContracts(ctx, filter, []core.DBOrdering{{Field: "id", Ascending: true}})
}

// Update validates and saves a modified contract. The sales contact is told when it gets signed.
func (svc *Service) Update(ctx context.Context, actor collaborator.Collaborator, c Contract) (Contract, error) {
	if c.ID == 0 {
		return Contract{}, ErrNotFound
	}
	old, err := svc.repo.GetContract(ctx, c.ID, true)
	if err != nil {
		return Contract{}, err
	}
	if err = svc.validate(ctx, c); err != nil {
		return Contract{}, err
	}
	updated, err := svc.repo.UpdateContract(ctx, c)
	if err != nil {
		svc.logger.Error("updating contract", err, actor)
		return Contract{}, err
	}
	svc.logger.Info(fmt.Sprintf("contract %d updated", updated.ID), actor)
	if updated.Signed && !old.Signed {
		svc.notifySigned(ctx, actor, updated)
	}
	return updated, nil
}

// Delete archives a contract, or removes it for good when actor is the super user.
func (svc *Service) Delete(ctx context.Context, actor collaborator.Collaborator, c Contract) error {
	if actor.IsAdmin() {
		if err := svc.repo.DeleteContracts(ctx, []int{c.ID}); err != nil {
			svc.logger.Error("deleting contract", err, actor)
			return err
		}
		svc.logger.Info(fmt.Sprintf("contract %d deleted", c.ID), actor)
		return nil
	}
	c.Archived = true
	if _, err := svc.repo.UpdateContract(ctx, c); err != nil {
		svc.logger.Error("archiving contract", err, actor)
		return err
	}
	svc.logger.Info(fmt.Sprintf("contract %d archived", c.ID), actor)
	return nil
}

func (svc *Service) notifySigned(ctx context.Context, actor collaborator.Collaborator, c Contract) {
	cl, err := svc.clientRepo.GetClient(ctx, c.ClientID, true)
	if err != nil {
		svc.logger.Warn("contract signed notification: client lookup failed", err, actor)
		return
	}
	sales, err := svc.collabRepo.GetCollaborator(ctx, collaborator.GetFilter{ID: cl.SalesContactID})
	if err != nil {
		svc.logger.Warn("contract signed notification: sales contact lookup failed", err, actor)
		return
	}
	svc.emailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: sales.FullName, Address: sales.Email}},
		Subject:      fmt.Sprintf("contract %d signed", c.ID),
		TemplateName: signedTemplate,
		TemplateData: map[string]interface{}{
			"AppName":      svc.appName,
			"SalesContact": sales.FullName,
			"ContractID":   c.ID,
			"Company":      cl.CompanyName,
			"Total":        c.TotalAmount.String(),
			"Due":          c.AmountDue.String(),
		},
	})
}
