package main

import (
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/contract"
	"github.com/epicevents/crm/core/event"
)

// userErrors are shown as is, anything else not caused by invalid input is a database error.
var userErrors = []error{
	core.ErrInUse,
	collaborator.ErrNotFound,
	collaborator.ErrInvalidCredentials,
	client.ErrNotFound,
	contract.ErrNotFound,
	event.ErrNotFound,
}

func (a *app) printTable(h entityHandler, fields []core.Field, rows []interface{}) {
	if len(rows) == 0 {
		a.term.println("(empty)")
		return
	}
	w := tabwriter.NewWriter(a.term.out, 0, 0, 2, ' ', 0)
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}
	_, _ = w.Write([]byte(strings.Join(labels, "\t") + "\n"))
	for _, rec := range rows {
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = h.value(rec, f.Name)
		}
		_, _ = w.Write([]byte(strings.Join(values, "\t") + "\n"))
	}
	_ = w.Flush()
}

func (a *app) printRecord(h entityHandler, fields []core.Field, rec interface{}) {
	w := tabwriter.NewWriter(a.term.out, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		_, _ = w.Write([]byte(f.Label + ":\t" + h.value(rec, f.Name) + "\n"))
	}
	_ = w.Flush()
}

// showError reports err to the user. action and entity word permission refusals.
func (a *app) showError(err error, action, entity string) {
	cause := errors.Cause(err)
	switch {
	case cause == core.ErrPermissionDenied:
		a.term.printf("you are not allowed to %s this %s\n", action, entity)
		return
	case core.IsValidationError(err):
		a.term.printf("invalid input: %v\n", err)
		return
	}
	for _, uErr := range userErrors {
		if cause == uErr {
			a.term.println(err.Error())
			return
		}
	}
	args := []interface{}{err}
	if a.sess.loggedIn() {
		args = append(args, a.sess.user)
	}
	a.logger.Error("unexpected error", args...)
	a.term.printf("database error: %v\n", err)
}
