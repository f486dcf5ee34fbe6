package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
	logsvc "github.com/epicevents/crm/services/logger"
	"github.com/epicevents/crm/storage/database"
)

func main() {
	mode := runMode(core.ModeMain)
	if len(os.Args) > 1 {
		mode = runMode(os.Args[1])
	}
	switch mode {
	case core.ModeMain, core.ModeDemo, core.ModeTest:
	default:
		_, _ = fmt.Fprintf(os.Stderr, "usage: %s [main|demo|test]\n", os.Args[0])
		os.Exit(2)
	}

	c := newContainer(mode, os.Stdin, os.Stdout)
	err := c.Invoke(func(conf *core.Config, logger *logsvc.RollbarLogger, db *sql.DB, collabSvc *collaborator.Service, a *app) error {
		defer logger.Close()
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("closing database", err)
			}
		}()
		collaborator.SetBcryptCost(conf.BcryptCost)

		ctx := context.Background()
		if err := seed(ctx, conf, mode, db, collabSvc); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("application started in %s mode : version %q", mode, conf.Build))
		defer logger.Info("application stopped")
		return a.run(ctx)
	})
	if err != nil {
		log.Fatal(err)
	}
}

// seed loads the demo data set in demo mode. The super user is ensured in every mode.
func seed(ctx context.Context, conf *core.Config, mode runMode, db *sql.DB, collabSvc *collaborator.Service) error {
	if mode == core.ModeDemo {
		if err := database.LoadDemoData(ctx, db); err != nil {
			return err
		}
	}
	_, err := collabSvc.EnsureSuperUser(ctx, conf.SuperUser)
	return err
}
