package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(ctx context.Context, fullName, pwd string) error {
	if err := cli.collabSvc.ResetPassword(ctx, fullName, pwd); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, "password updated")
	return nil
}
