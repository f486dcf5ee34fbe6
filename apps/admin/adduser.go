package main

import (
	"context"
	"fmt"
)

// addUser updates or creates a collaborator.Collaborator
func (cli *commandLine) addUser(ctx context.Context, fullName, email, role, pwd string) error {
	c, err := cli.collabSvc.AddOrUpdate(ctx, fullName, email, role, pwd)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "collaborator %s saved with id %d\n", c, c.ID)
	return nil
}
