package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	db        *sql.DB
	collabSvc *collaborator.Service
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, version, redo, reset, up-to, down-to)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -fullname NAME -email EMAIL -role ROLE - create or update a collaborator")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -fullname NAME - reset a collaborator's password")
	_, _ = fmt.Fprintln(cli.out, "  seed [-demo] - create the super user, or load the demo data set")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := cli.newFlagSet("adduser")
	addUserName := addUserCmd.String("fullname", "", "The collaborator's full name. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The collaborator's email.")
	addUserRole := addUserCmd.String("role", "", "One of: admin, management, sales, support.")

	resetPasswordCmd := cli.newFlagSet("resetpassword")
	resetPasswordName := resetPasswordCmd.String("fullname", "", "The collaborator's full name. The password will be prompted next.")

	seedCmd := cli.newFlagSet("seed")
	seedDemo := seedCmd.Bool("demo", false, "Load the demo collaborators, clients, contracts and events.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, *addUserName, *addUserEmail, *addUserRole, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordName == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordName, pwd)

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.seed(ctx, *seedDemo)

	default:
		cli.printUsage()
		return errHelp
	}
}
