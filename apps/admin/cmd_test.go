package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strconv"
	"testing"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
	logsvc "github.com/epicevents/crm/services/logger"
	"github.com/epicevents/crm/storage/database/sqlxrepos"
	"github.com/epicevents/crm/tests"
)

var collabRepo collaborator.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	collabRepo = sqlxrepos.NewCollaboratorRepository(db)
	conf := &core.Config{
		SuperUser: core.SuperUserConfig{FullName: "Admin User", Email: "admin@example.com", Password: "adminpass"},
	}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// start CLI
	return &commandLine{
		conf:      conf,
		db:        db,
		collabSvc: collaborator.NewService(conf, collabRepo, logger),
		out:       io.Discard,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	invalid    bool // wants a core.ValidationError
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.invalid:
		if !core.IsValidationError(err) {
			t.Errorf("cli.run() error = %v, want a validation error", err)
		}
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v %s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(_ context.Context, _ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(context.Background(), args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	existing := testutil.CreateCollaborator(t, collabRepo, "Bruno Lefevre", "bruno@epicevent.com", collaborator.RoleSales, "")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-fullname", "Alice Martin", "-email", "alice@epicevent.com"}, wantErr: errHelp},
		{
			name:    "no password",
			args:    []string{"adduser", "-fullname", "Alice Martin", "-email", "alice@epicevent.com", "-role", "management"},
			wantErr: errHelp,
		},
		{
			name:    "unknown role",
			args:    []string{"adduser", "-fullname", "Alice Martin", "-email", "alice@epicevent.com", "-role", "boss"},
			extra:   extra{pwd: "alicepass"},
			invalid: true,
		},
		{
			name:  "create",
			args:  []string{"adduser", "-fullname", "Alice Martin", "-email", "alice@epicevent.com", "-role", "Management"},
			extra: extra{pwd: "alicepass"},
		},
		{
			name:  "update existing",
			args:  []string{"adduser", "-fullname", existing.FullName, "-email", existing.Email, "-role", "support"},
			extra: extra{pwd: "brunopass"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(context.Background(), args))
		})
	}

	alice, err := collabRepo.GetCollaborator(context.Background(), collaborator.GetFilter{FullName: "Alice Martin"})
	if err != nil {
		t.Fatalf("GetCollaborator() failed, %v", err)
	}
	if alice.Role != collaborator.RoleManagement {
		t.Errorf("alice.Role = %s, want %s", alice.Role, collaborator.RoleManagement)
	}
	bruno, err := collabRepo.GetCollaborator(context.Background(), collaborator.GetFilter{ID: existing.ID})
	if err != nil {
		t.Fatalf("GetCollaborator() failed, %v", err)
	}
	if bruno.Role != collaborator.RoleSupport || bruno.CheckPassword("brunopass") != nil {
		t.Error("failed to update existing collaborator")
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	collab := testutil.CreateCollaborator(t, collabRepo, "Emma Bernard", "emma@epicevent.com", collaborator.RoleSupport, "", true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "full name but no password", args: []string{"resetpassword", "-fullname", "lol"}, wantErr: errHelp},
		{name: "collaborator not found", args: []string{"resetpassword", "-fullname", "lol"}, extra: extra{pwd: "lol"}, wantErr: collaborator.ErrNotFound},
		{name: "reset archived collaborator", args: []string{"resetpassword", "-fullname", collab.FullName}, extra: extra{pwd: "lol"}},
		{name: "reset again", args: []string{"resetpassword", "-fullname", collab.FullName}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(context.Background(), args)
			if err == nil {
				refreshed, err := collabRepo.GetCollaborator(context.Background(), collaborator.GetFilter{ID: collab.ID, IncludeArchived: true})
				if err != nil {
					t.Fatalf("GetCollaborator() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, collab.PasswordHash) {
					t.Error("failed to update new password")
				}
				collab = refreshed
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_seed(t *testing.T) {
	ctx := context.Background()

	t.Run("super user only", func(t *testing.T) {
		cli := setup(t)
		var out bytes.Buffer
		cli.out = &out
		if err := cli.run(ctx, []string{"admin", "seed"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		// running twice keeps a single super user
		if err := cli.run(ctx, []string{"admin", "seed"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		admins, err := collabRepo.QueryCollaborators(ctx, collaborator.QueryFilter{Roles: []string{collaborator.RoleAdmin}}, nil)
		if err != nil {
			t.Fatalf("QueryCollaborators() failed, %v", err)
		}
		if len(admins) != 1 || admins[0].CheckPassword("adminpass") != nil {
			t.Errorf("admins = %v, want the configured super user", admins)
		}
		if !bytes.Contains(out.Bytes(), []byte("super user: Admin User")) {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("demo data", func(t *testing.T) {
		cli := setup(t)
		if err := cli.run(ctx, []string{"admin", "seed", "-demo"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		all, err := collabRepo.QueryCollaborators(ctx, collaborator.QueryFilter{}, nil)
		if err != nil {
			t.Fatalf("QueryCollaborators() failed, %v", err)
		}
		if len(all) != 6 {
			t.Errorf("len(collaborators) = %d, want 6", len(all))
		}
	})

	t.Run("bad flag", func(t *testing.T) {
		cli := setup(t)
		if err := cli.run(ctx, []string{"admin", "seed", "-lol"}); err == nil {
			t.Error("cli.run() error = nil, want a flag error")
		}
	})
}
