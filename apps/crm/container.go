package main

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/contract"
	"github.com/epicevents/crm/core/event"
	"github.com/epicevents/crm/core/permission"
	emailsvc "github.com/epicevents/crm/services/email"
	logsvc "github.com/epicevents/crm/services/logger"
	"github.com/epicevents/crm/storage/database"
	"github.com/epicevents/crm/storage/database/sqlxrepos"
)

// runMode is the data set the CLI works on: core.ModeMain, core.ModeDemo or core.ModeTest.
type runMode string

type appParams struct {
	dig.In

	Conf      *core.Config
	Logger    core.Logger
	Policy    *permission.Policy
	Collabs   *collaborator.Service
	Clients   *client.Service
	Contracts *contract.Service
	Events    *event.Service
	Terminal  terminal
}

func newStdLogger(conf *core.Config) *log.Logger {
	var out io.Writer = io.Discard
	if conf.Debug {
		out = os.Stderr
	}
	return log.New(out, "CRM : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
}

func newLogger(std *log.Logger, conf *core.Config) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(std, conf)
}

func newDB(conf *core.Config, mode runMode) (*sql.DB, error) {
	db, err := database.Open(conf, string(mode))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrating database")
	}
	return db, nil
}

func newPolicy(conf *core.Config) (*permission.Policy, error) {
	return permission.NewPolicy(context.Background(), conf)
}

// newContainer wires the CLI for mode, reading from in and writing to out.
func newContainer(mode runMode, in io.Reader, out io.Writer) *dig.Container {
	c := dig.New()

	must(c.Provide(core.LoadConfig))
	must(c.Provide(func() runMode { return mode }))
	must(c.Provide(func() terminal { return newTerminal(in, out) }))
	must(c.Provide(newStdLogger))
	must(c.Provide(newLogger))
	must(c.Provide(func(l *logsvc.RollbarLogger) core.Logger { return l }))
	must(c.Provide(newDB))
	must(c.Provide(func(db *sql.DB) core.DB { return db }))
	must(c.Provide(func(db *sql.DB) core.DBExecutor { return db }))
	must(c.Provide(emailsvc.New))

	must(c.Provide(sqlxrepos.NewCollaboratorRepository, dig.As(new(collaborator.Repository))))
	must(c.Provide(sqlxrepos.NewClientRepository, dig.As(new(client.Repository))))
	must(c.Provide(sqlxrepos.NewContractRepository, dig.As(new(contract.Repository))))
	must(c.Provide(sqlxrepos.NewEventRepository, dig.As(new(event.Repository))))

	must(c.Provide(collaborator.NewService))
	must(c.Provide(client.NewService))
	must(c.Provide(contract.NewService))
	must(c.Provide(event.NewService))
	must(c.Provide(newPolicy))
	must(c.Provide(newApp))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
