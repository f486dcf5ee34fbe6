package main

import (
	"context"

	"github.com/epicevents/crm/storage/database"
)

var gooseRunFunc = database.Run // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(ctx, cli.db, args[0], arguments...)
}
