package main

import (
	"context"
	"log"
	"os"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
	logsvc "github.com/epicevents/crm/services/logger"
	"github.com/epicevents/crm/storage/database"
	"github.com/epicevents/crm/storage/database/sqlxrepos"
)

func main() {
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.LoadConfig()
	errAndDie(stdLogger, err)
	collaborator.SetBcryptCost(conf.BcryptCost)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	defer logger.Close()

	// set up DB
	db, err := database.Open(conf, core.ModeMain)
	errAndDie(stdLogger, err)

	// start CLI
	cli := commandLine{
		conf:      conf,
		db:        db,
		collabSvc: collaborator.NewService(conf, sqlxrepos.NewCollaboratorRepository(db), logger),
		out:       os.Stdout,
	}
	err = cli.run(context.Background(), os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger *log.Logger, err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
