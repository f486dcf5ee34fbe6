package collaborator

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/epicevents/crm/core"
)

var (
	// errors
	ErrNotFound           = errors.New("collaborator not found")
	ErrFullNameExists     = errors.New("this full name is already in use")
	ErrEmailExists        = errors.New("this email address is already in use")
	ErrInvalidCredentials = errors.New("incorrect username and/or password")
	ErrUnknownField       = errors.New("unknown collaborator field")
	ErrAdminRole          = errors.New("only the super user can grant the admin role")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrFullNameExists or ErrEmailExists when another collaborator,
		// not in excludedIDs, already uses fullName or email.
		CheckUniqueness(ctx context.Context, fullName, email string, excludedIDs []int, exec ...core.DBExecutor) error
		CreateCollaborator(ctx context.Context, c Collaborator, exec ...core.DBExecutor) (Collaborator, error)
		GetCollaborator(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Collaborator, error)
		QueryCollaborators(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Collaborator, error)
		UpdateCollaborator(ctx context.Context, c Collaborator, exec ...core.DBExecutor) (Collaborator, error)
		DeleteCollaborators(ctx context.Context, ids []int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo            Repository
		logger          core.Logger
		strictPasswords bool
	}
)

func NewService(conf *core.Config, repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger, strictPasswords: conf.Password.Strict}
}

func (svc *Service) checkUniqueness(ctx context.Context, fullName, email string, exclIDs ...int) error {
	if err := svc.repo.CheckUniqueness(ctx, fullName, email, exclIDs); err != nil {
		var field string
		switch err {
		case ErrFullNameExists:
			field = "full_name"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewFieldError(field, err)
	}
	return nil
}

// Authenticate returns the active collaborator matching fullName and pwd.
func (svc *Service) Authenticate(ctx context.Context, fullName, pwd string) (Collaborator, error) {
	c, err := svc.repo.GetCollaborator(ctx, GetFilter{FullName: core.CleanString(fullName)})
	if err != nil {
		if err == ErrNotFound {
			return Collaborator{}, ErrInvalidCredentials
		}
		return Collaborator{}, err
	}
	if err = c.CheckPassword(pwd); err != nil {
		return Collaborator{}, ErrInvalidCredentials
	}
	svc.logger.Info("collaborator logged in", c)
	return c, nil
}

// SetField validates raw input for field and stores it on c. Only an admin actor may grant the admin role.
func (svc *Service) SetField(ctx context.Context, actor Collaborator, c *Collaborator, field, raw string) error {
	switch field {
	case "full_name":
		name := core.CleanString(raw)
		if err := core.ValidateVar(field, name, "required,personname"); err != nil {
			return err
		}
		if err := svc.checkUniqueness(ctx, name, "", c.ID); err != nil {
			return err
		}
		c.FullName = name
	case "email":
		email := core.CleanString(raw)
		if err := core.ValidateVar(field, email, "required,collabemail"); err != nil {
			return err
		}
		if err := svc.checkUniqueness(ctx, "", email, c.ID); err != nil {
			return err
		}
		c.Email = email
	case "role":
		role := core.CleanString(raw, true /* lower */)
		if err := core.ValidateVar(field, role, "required,role"); err != nil {
			return err
		}
		if role == RoleAdmin && !actor.IsAdmin() {
			return core.NewFieldError(field, ErrAdminRole)
		}
		c.Role = role
	case "password":
		return svc.setPassword(c, raw)
	case "archived":
		c.Archived = core.IsYes(raw)
	default:
		return core.NewFieldError(field, ErrUnknownField)
	}
	return nil
}

func (svc *Service) setPassword(c *Collaborator, pwd string) error {
	if err := validatePassword(pwd, c.FullName, c.Email, svc.strictPasswords); err != nil {
		return core.NewFieldError("password", err)
	}
	if err := c.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return nil
}

func (svc *Service) validate(ctx context.Context, actor, c Collaborator) error {
	if c.Role == RoleAdmin && !actor.IsAdmin() {
		return core.NewFieldError("role", ErrAdminRole)
	}
	if err := core.Validate.Struct(c); err != nil {
		return core.TranslateError(err)
	}
	var exclIDs []int
	if c.ID != 0 {
		exclIDs = append(exclIDs, c.ID)
	}
	return svc.checkUniqueness(ctx, c.FullName, c.Email, exclIDs...)
}

// Create validates and inserts a new collaborator.
func (svc *Service) Create(ctx context.Context, actor Collaborator, c Collaborator) (Collaborator, error) {
	c.ID = 0
	c.Archived = false
	if err := svc.validate(ctx, actor, c); err != nil {
		return Collaborator{}, err
	}
	created, err := svc.repo.CreateCollaborator(ctx, c)
	if err != nil {
		svc.logger.Error("creating collaborator", err, actor)
		return Collaborator{}, err
	}
	svc.logger.Info(fmt.Sprintf("collaborator %d created", created.ID), actor)
	return created, nil
}

// Get returns a collaborator by ID. Archived collaborators are only found when showArchived is set.
func (svc *Service) Get(ctx context.Context, id int, showArchived bool) (Collaborator, error) {
	return svc.repo.GetCollaborator(ctx, GetFilter{ID: id, IncludeArchived: showArchived})
}

// Scope returns the base filter of collaborators actor may see for purpose.
// The super user is never listed.
func Scope(actor Collaborator, purpose core.Purpose) QueryFilter {
	filter := QueryFilter{ExcludeRoles: []string{RoleAdmin}}
	if purpose == core.PurposeModify && !HasRole(actor.Role, editorRoles) {
		filter.IDs = []int{actor.ID}
		filter.ExcludeRoles = nil
	}
	return filter
}

// List returns the collaborators in actor's scope for purpose.
func (svc *Service) List(ctx context.Context, actor Collaborator, purpose core.Purpose, opts core.ListOptions) ([]Collaborator, error) {
	filter := Scope(actor, purpose)
	filter.IncludeArchived = opts.ShowArchived
	filter.Match = opts.Match
	return svc.repo.QueryCollaborators(ctx, filter, opts.Ordering)
}

// ListByRole returns the active collaborators of a department, used to pick references.
func (svc *Service) ListByRole(ctx context.Context, role string) ([]Collaborator, error) {
	return svc.repo.QueryCollaborators(ctx, QueryFilter{Roles: []string{role}}, []core.DBOrdering{{Field: "full_name", Ascending: true}})
}

// Update validates and saves a modified collaborator.
func (svc *Service) Update(ctx context.Context, actor Collaborator, c Collaborator) (Collaborator, error) {
	if c.ID == 0 {
		return Collaborator{}, ErrNotFound
	}
	if err := svc.validate(ctx, actor, c); err != nil {
		return Collaborator{}, err
	}
	updated, err := svc.repo.UpdateCollaborator(ctx, c)
	if err != nil {
		svc.logger.Error("updating collaborator", err, actor)
		return Collaborator{}, err
	}
	svc.logger.Info(fmt.Sprintf("collaborator %d updated", updated.ID), actor)
	return updated, nil
}

// Delete archives a collaborator, or removes it for good when actor is the super user.
func (svc *Service) Delete(ctx context.Context, actor Collaborator, c Collaborator) error {
	if actor.IsAdmin() {
		if err := svc.repo.DeleteCollaborators(ctx, []int{c.ID}); err != nil {
			svc.logger.Error("deleting collaborator", err, actor)
			return err
		}
		svc.logger.Info(fmt.Sprintf("collaborator %d deleted", c.ID), actor)
		return nil
	}
	c.Archived = true
	if _, err := svc.repo.UpdateCollaborator(ctx, c); err != nil {
		svc.logger.Error("archiving collaborator", err, actor)
		return err
	}
	svc.logger.Info(fmt.Sprintf("collaborator %d archived", c.ID), actor)
	return nil
}

// ResetPassword sets a new password on the collaborator named fullName.
func (svc *Service) ResetPassword(ctx context.Context, fullName, pwd string) error {
	c, err := svc.repo.GetCollaborator(ctx, GetFilter{FullName: core.CleanString(fullName), IncludeArchived: true})
	if err != nil {
		return err
	}
	if err = svc.setPassword(&c, pwd); err != nil {
		return err
	}
	_, err = svc.repo.UpdateCollaborator(ctx, c)
	return err
}

// AddOrUpdate creates a collaborator or, when one with the same full name or email exists,
// updates its role and password.
func (svc *Service) AddOrUpdate(ctx context.Context, fullName, email, role, pwd string) (Collaborator, error) {
	fullName, email, role = core.CleanString(fullName), core.CleanString(email), core.CleanString(role, true /* lower */)

	c, err := svc.repo.GetCollaborator(ctx, GetFilter{FullName: fullName, IncludeArchived: true})
	if err == ErrNotFound {
		c, err = svc.repo.GetCollaborator(ctx, GetFilter{Email: email, IncludeArchived: true})
	}
	switch {
	case err == ErrNotFound:
		c = Collaborator{FullName: fullName, Email: email}
	case err != nil:
		return Collaborator{}, err
	}

	c.Role = role
	c.Archived = false
	if err = svc.setPassword(&c, pwd); err != nil {
		return Collaborator{}, err
	}
	// the admin CLI is trusted with every role
	if err = svc.validate(ctx, Collaborator{Role: RoleAdmin}, c); err != nil {
		return Collaborator{}, err
	}
	if c.ID == 0 {
		return svc.repo.CreateCollaborator(ctx, c)
	}
	return svc.repo.UpdateCollaborator(ctx, c)
}

// EnsureSuperUser creates the super user described by conf unless its email or full name is already taken.
func (svc *Service) EnsureSuperUser(ctx context.Context, conf core.SuperUserConfig) (Collaborator, error) {
	c, err := svc.repo.GetCollaborator(ctx, GetFilter{Email: conf.Email, IncludeArchived: true})
	if err == ErrNotFound {
		c, err = svc.repo.GetCollaborator(ctx, GetFilter{FullName: conf.FullName, IncludeArchived: true})
	}
	if err == nil {
		return c, nil
	}
	if err != ErrNotFound {
		return Collaborator{}, err
	}
	c = Collaborator{FullName: conf.FullName, Email: conf.Email, Role: RoleAdmin}
	if err = c.SetPassword(conf.Password); err != nil {
		return Collaborator{}, errors.Wrap(err, "hashing password")
	}
	created, err := svc.repo.CreateCollaborator(ctx, c)
	if err != nil {
		return Collaborator{}, err
	}
	svc.logger.Info(fmt.Sprintf("super user %q created", created.FullName))
	return created, nil
}
