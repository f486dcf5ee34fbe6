package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/permission"
)

const quitWord = "quit"

// session holds the logged in collaborator for the lifetime of the CLI loop.
type session struct {
	id           string
	user         collaborator.Collaborator
	showArchived bool
}

func (s session) loggedIn() bool { return s.user.ID != 0 }

type app struct {
	appName  string
	logger   core.Logger
	policy   *permission.Policy
	collabs  *collaborator.Service
	handlers map[string]entityHandler
	term     terminal
	title    cases.Caser
	sess     session
}

func newApp(p appParams) *app {
	return &app{
		appName: p.Conf.AppName,
		logger:  p.Logger,
		policy:  p.Policy,
		collabs: p.Collabs,
		handlers: map[string]entityHandler{
			permission.EntityCollaborator: collaboratorHandler{collabs: p.Collabs, clients: p.Clients, events: p.Events},
			permission.EntityClient:       clientHandler{collabs: p.Collabs, clients: p.Clients, contracts: p.Contracts},
			permission.EntityContract:     contractHandler{clients: p.Clients, contracts: p.Contracts, events: p.Events},
			permission.EntityEvent:        eventHandler{collabs: p.Collabs, clients: p.Clients, contracts: p.Contracts, events: p.Events},
		},
		term:  p.Terminal,
		title: cases.Title(language.English),
	}
}

// run is the home loop. It returns once the user quits or the input is closed.
func (a *app) run(ctx context.Context) error {
	err := a.home(ctx)
	if err == io.EOF {
		return nil
	}
	return err
}

func (a *app) home(ctx context.Context) error {
	for {
		choice, err := a.term.choose("Welcome to "+a.appName, "What would you like to do?", []string{"Log in", "Quit"})
		if err != nil {
			return err
		}
		if choice == 1 {
			return nil
		}
		if err = a.login(ctx); err != nil {
			return err
		}
		if !a.sess.loggedIn() {
			continue
		}
		if err = a.entityMenu(ctx); err != nil {
			return err
		}
	}
}

func (a *app) login(ctx context.Context) error {
	name, err := a.term.ask("Full name:")
	if err != nil {
		return err
	}
	pwd, err := a.term.askPassword("Password:")
	if err != nil {
		return err
	}
	user, err := a.collabs.Authenticate(ctx, name, pwd)
	if err != nil {
		a.showError(err, "", "")
		return nil
	}
	a.sess = session{id: uuid.New().String(), user: user}
	a.logger.Debug(fmt.Sprintf("session %s opened", a.sess.id), user)
	return nil
}

func (a *app) logout() {
	a.logger.Info(fmt.Sprintf("collaborator logged out, session %s closed", a.sess.id), a.sess.user)
	a.sess = session{}
}

func (a *app) welcome() string {
	return fmt.Sprintf("Welcome %s - Department: %s", a.sess.user.FullName, a.sess.user.Role)
}

func (a *app) entityMenu(ctx context.Context) error {
	options := make([]string, 0, len(permission.Entities)+1)
	for _, entity := range permission.Entities {
		options = append(options, a.title.String(a.handlers[entity].plural()))
	}
	options = append(options, "Log out")

	for {
		choice, err := a.term.choose(a.welcome(), "Select a category:", options)
		if err != nil {
			return err
		}
		if choice == len(permission.Entities) {
			a.logout()
			return nil
		}
		if err = a.actionMenu(ctx, a.handlers[permission.Entities[choice]]); err != nil {
			return err
		}
	}
}

func (a *app) actionLabel(action, entity string) string {
	switch action {
	case permission.ActionDetails:
		return "Show details"
	case permission.ActionCreate:
		return "Create a new " + entity
	case permission.ActionModify:
		return "Modify a " + entity
	case permission.ActionDelete:
		return "Delete a " + entity
	}
	return action
}

func (a *app) actionMenu(ctx context.Context, h entityHandler) error {
	actor := a.sess.user
	actions := permission.Actions(h.entity(), actor.Role)
	header := "--- " + a.title.String(h.entity()) + " menu ---"

	for {
		a.term.println(a.welcome())
		a.listRows(ctx, h, core.PurposeList, core.ListOptions{ShowArchived: a.sess.showArchived})

		options := make([]string, 0, len(actions)+2)
		for _, action := range actions {
			options = append(options, a.actionLabel(action, h.entity()))
		}
		if actor.IsAdmin() {
			if a.sess.showArchived {
				options = append(options, "Hide archives")
			} else {
				options = append(options, "Show archives")
			}
		}
		options = append(options, "Back")

		choice, err := a.term.choose(header, "Select an option:", options)
		if err != nil {
			return err
		}
		if choice >= len(actions) {
			if actor.IsAdmin() && choice == len(actions) {
				a.sess.showArchived = !a.sess.showArchived
				continue
			}
			return nil
		}

		switch actions[choice] {
		case permission.ActionDetails:
			err = a.details(ctx, h)
		case permission.ActionCreate:
			err = a.create(ctx, h)
		case permission.ActionModify:
			err = a.modify(ctx, h)
		case permission.ActionDelete:
			err = a.delete(ctx, h)
		}
		if err != nil {
			return err
		}
	}
}

// listRows prints the rows of h visible to the session user for purpose.
func (a *app) listRows(ctx context.Context, h entityHandler, purpose core.Purpose, opts core.ListOptions) ([]interface{}, bool) {
	rows, err := h.list(ctx, a.sess.user, purpose, opts)
	if err != nil {
		a.showError(err, "", h.entity())
		return nil, false
	}
	a.printTable(h, h.fields(a.sess.user.Role, core.PurposeList), rows)
	return rows, true
}

func (a *app) chooseField(fields []core.Field, request string) (core.Field, bool, error) {
	options := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		options = append(options, f.Label)
	}
	options = append(options, "Back")
	choice, err := a.term.choose("--- Fields ---", request, options)
	if err != nil || choice == len(fields) {
		return core.Field{}, false, err
	}
	return fields[choice], true, nil
}

func (a *app) details(ctx context.Context, h entityHandler) error {
	opts := core.ListOptions{ShowArchived: a.sess.showArchived}
	fields := h.fields(a.sess.user.Role, core.PurposeList)

	for {
		rows, ok := a.listRows(ctx, h, core.PurposeList, opts)
		if !ok {
			opts = core.ListOptions{ShowArchived: a.sess.showArchived}
		}

		choice, err := a.term.choose("--- Details menu ---", "Select an option:",
			[]string{"Filter by field", "Order by field", "Show details", "Back"})
		if err != nil {
			return err
		}

		switch choice {
		case 0:
			f, ok, err := a.chooseField(fields, "Choose a field to filter on:")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			value, err := a.term.ask(fmt.Sprintf("Value for '%s' (empty clears the filter):", f.Label))
			if err != nil {
				return err
			}
			opts.Match = nil
			if value != "" {
				opts.Match = []core.FieldMatch{{Field: f.Name, Value: value}}
			}
		case 1:
			f, ok, err := a.chooseField(fields, "Choose a sorting field:")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			desc, err := a.term.ask("Sort in descending order? (Y/N)")
			if err != nil {
				return err
			}
			opts.Ordering = []core.DBOrdering{{Field: f.Name, Ascending: !core.IsYes(desc)}}
		case 2:
			rec, ok, err := a.pick(h, rows)
			if err != nil {
				return err
			}
			if ok {
				a.showDetails(ctx, h, rec)
			}
		default:
			return nil
		}
	}
}

// pick asks for the id of one of rows. An empty answer goes back.
func (a *app) pick(h entityHandler, rows []interface{}) (interface{}, bool, error) {
	for {
		answer, err := a.term.ask(fmt.Sprintf("Enter the %s id (press enter to go back):", h.entity()))
		if err != nil || answer == "" {
			return nil, false, err
		}
		id, err := strconv.Atoi(answer)
		if err == nil {
			for _, rec := range rows {
				if h.id(rec) == id {
					return rec, true, nil
				}
			}
		}
		a.term.printf("no %s with id %q in this list\n", h.entity(), answer)
	}
}

func (a *app) showDetails(ctx context.Context, h entityHandler, rec interface{}) {
	a.printRecord(h, h.fields(a.sess.user.Role, core.PurposeList), rec)
	rels, err := h.related(ctx, rec)
	if err != nil {
		a.showError(err, "", h.entity())
		return
	}
	for _, rel := range rels {
		rh := a.handlers[rel.entity]
		a.term.println()
		a.term.println(rel.title + ":")
		a.printTable(rh, rh.fields(a.sess.user.Role, core.PurposeList), rel.rows)
	}
}

func (a *app) create(ctx context.Context, h entityHandler) error {
	actor := a.sess.user
	refs, err := h.references(ctx, actor)
	if err != nil {
		a.showError(err, permission.ActionCreate, h.entity())
		return nil
	}
	for _, ref := range refs {
		if len(ref.rows) == 0 {
			a.term.printf("%s: none available, no %s can be created\n", ref.title, h.entity())
			return nil
		}
		rh := a.handlers[ref.entity]
		a.term.println(ref.title + ":")
		a.printTable(rh, rh.fields(actor.Role, core.PurposeList), ref.rows)
	}

	a.term.printf("Type '%s' to cancel.\n", quitWord)
	rec := h.blank()
	for _, f := range h.fields(actor.Role, core.PurposeCreate) {
		for {
			raw, err := a.askValue(f)
			if err != nil {
				return err
			}
			if strings.EqualFold(raw, quitWord) {
				a.term.println("creation cancelled")
				return nil
			}
			if rec, err = h.setField(ctx, actor, rec, f.Name, raw); err == nil {
				break
			}
			a.showError(err, permission.ActionCreate, h.entity())
		}
	}

	created, err := h.create(ctx, actor, rec)
	if err != nil {
		a.showError(err, permission.ActionCreate, h.entity())
		return nil
	}
	a.term.printf("%s %d created\n", h.entity(), h.id(created))
	return nil
}

func (a *app) askValue(f core.Field) (string, error) {
	if f.Name == "password" {
		return a.term.askPassword(f.Label + ":")
	}
	return a.term.ask(f.Label + ":")
}

// editableFields are the fields actor may modify on rec. A collaborator always gets to change their password.
func (a *app) editableFields(h entityHandler, rec interface{}) []core.Field {
	actor := a.sess.user
	fields := h.fields(actor.Role, core.PurposeModify)
	if h.entity() == permission.EntityCollaborator && h.id(rec) == actor.ID && !core.HasField(fields, "password") {
		fields = append(fields, core.Field{Name: "password", Label: "Password"})
	}
	return fields
}

func (a *app) modify(ctx context.Context, h entityHandler) error {
	actor := a.sess.user
	rows, ok := a.listRows(ctx, h, core.PurposeModify, core.ListOptions{ShowArchived: a.sess.showArchived})
	if !ok {
		return nil
	}
	if len(rows) == 0 {
		a.term.printf("no %s to modify\n", h.entity())
		return nil
	}
	rec, ok, err := a.pick(h, rows)
	if err != nil || !ok {
		return err
	}
	if err = a.policy.Authorize(ctx, actor, permission.ActionModify, rec); err != nil {
		a.showError(err, permission.ActionModify, h.entity())
		return nil
	}
	fields := a.editableFields(h, rec)
	if len(fields) == 0 {
		a.term.printf("there is no field you can modify on this %s\n", h.entity())
		return nil
	}

	options := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		options = append(options, f.Label)
	}
	options = append(options, "Back", "Save")

	staged := rec
	for {
		a.printRecord(h, fields, staged)
		choice, err := a.term.choose("--- Fields ---", "Select the field to modify:", options)
		if err != nil {
			return err
		}
		switch {
		case choice == len(fields):
			a.term.println("changes discarded")
			return nil
		case choice == len(fields)+1:
			updated, err := h.update(ctx, actor, staged)
			if err != nil {
				a.showError(err, permission.ActionModify, h.entity())
				return nil
			}
			a.term.printf("%s %d updated\n", h.entity(), h.id(updated))
			return nil
		}

		f := fields[choice]
		if f.Name == "password" {
			if err = a.policy.Authorize(ctx, actor, permission.ActionPassword, rec); err != nil {
				a.showError(err, permission.ActionPassword, h.entity())
				continue
			}
		}
		ref, hasRef, err := h.fieldReference(ctx, actor, f.Name)
		if err != nil {
			a.showError(err, permission.ActionModify, h.entity())
			continue
		}
		if hasRef {
			rh := a.handlers[ref.entity]
			a.term.println(ref.title + ":")
			a.printTable(rh, rh.fields(actor.Role, core.PurposeList), ref.rows)
		}
		raw, err := a.askValue(f)
		if err != nil {
			return err
		}
		if staged, err = h.setField(ctx, actor, staged, f.Name, raw); err != nil {
			a.showError(err, permission.ActionModify, h.entity())
		}
	}
}

func (a *app) delete(ctx context.Context, h entityHandler) error {
	actor := a.sess.user
	rows, ok := a.listRows(ctx, h, core.PurposeModify, core.ListOptions{ShowArchived: a.sess.showArchived})
	if !ok {
		return nil
	}
	if len(rows) == 0 {
		a.term.printf("no %s to delete\n", h.entity())
		return nil
	}
	rec, ok, err := a.pick(h, rows)
	if err != nil || !ok {
		return err
	}
	if err = a.policy.Authorize(ctx, actor, permission.ActionDelete, rec); err != nil {
		a.showError(err, permission.ActionDelete, h.entity())
		return nil
	}

	a.printRecord(h, h.fields(actor.Role, core.PurposeList), rec)
	if actor.IsAdmin() {
		a.term.printf("Warning: this %s will be permanently deleted.\n", h.entity())
	}
	yes, err := a.term.confirm("Do you want to perform this operation?")
	if err != nil || !yes {
		return err
	}
	if err = h.remove(ctx, actor, rec); err != nil {
		a.showError(err, permission.ActionDelete, h.entity())
		return nil
	}
	if actor.IsAdmin() {
		a.term.printf("%s %d deleted\n", h.entity(), h.id(rec))
	} else {
		a.term.printf("%s %d archived\n", h.entity(), h.id(rec))
	}
	return nil
}
