package main

import (
	"context"
	"fmt"

	"github.com/epicevents/crm/storage/database"
)

// seed creates the configured super user, after the demo data set when demo is set.
func (cli *commandLine) seed(ctx context.Context, demo bool) error {
	if demo {
		if err := database.LoadDemoData(ctx, cli.db); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cli.out, "demo data loaded")
	}
	su, err := cli.collabSvc.EnsureSuperUser(ctx, cli.conf.SuperUser)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "super user: %s\n", su.FullName)
	return nil
}
