package client_test

import (
	"context"
	"io"
	"log"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
	logsvc "github.com/epicevents/crm/services/logger"
	"github.com/epicevents/crm/storage/database/sqlxrepos"
	"github.com/epicevents/crm/tests"
)

type fixture struct {
	svc     *client.Service
	repo    client.Repository
	admin   collaborator.Collaborator
	manager collaborator.Collaborator
	bruno   collaborator.Collaborator
	chloe   collaborator.Collaborator
	emma    collaborator.Collaborator
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	collabRepo := sqlxrepos.NewCollaboratorRepository(db)
	repo := sqlxrepos.NewClientRepository(db)
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{})
	return fixture{
		svc:     client.NewService(repo, collabRepo, logger),
		repo:    repo,
		admin:   testutil.CreateCollaborator(t, collabRepo, "Admin User", "admin@epicevent.com", collaborator.RoleAdmin, ""),
		manager: testutil.CreateCollaborator(t, collabRepo, "Alice Martin", "alice@epicevent.com", collaborator.RoleManagement, ""),
		bruno:   testutil.CreateCollaborator(t, collabRepo, "Bruno Lefevre", "bruno@epicevent.com", collaborator.RoleSales, ""),
		chloe:   testutil.CreateCollaborator(t, collabRepo, "Chloé Dubois", "chloe@epicevent.com", collaborator.RoleSales, ""),
		emma:    testutil.CreateCollaborator(t, collabRepo, "Emma Bernard", "emma@epicevent.com", collaborator.RoleSupport, ""),
	}
}

func TestService_SetField(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	testutil.CreateClient(t, f.repo, "Jean Dupont", "jean@nova.com", "Entreprise Nova", f.bruno.ID)

	tests := []struct {
		name    string
		field   string
		raw     string
		invalid bool
		check   func(t *testing.T, cl client.Client)
	}{
		{name: "full name", field: "full_name", raw: " Marc Petit", check: func(t *testing.T, cl client.Client) {
			assert.Equal(t, "Marc Petit", cl.FullName)
		}},
		{name: "bad full name", field: "full_name", raw: "Marc O'Petit", invalid: true},
		{name: "email taken", field: "email", raw: "JEAN@NOVA.COM", invalid: true},
		{name: "bad email", field: "email", raw: "marc@alphacorp", invalid: true},
		{name: "email", field: "email", raw: "marc@alphacorp.com", check: func(t *testing.T, cl client.Client) {
			assert.Equal(t, "marc@alphacorp.com", cl.Email)
		}},
		{name: "phone", field: "phone", raw: "01 23 45 67 89", check: func(t *testing.T, cl client.Client) {
			assert.Equal(t, "0123456789", cl.Phone)
		}},
		{name: "international phone", field: "phone", raw: "+33 6 12 34 56 78", check: func(t *testing.T, cl client.Client) {
			assert.Equal(t, "+33612345678", cl.Phone)
		}},
		{name: "bad phone", field: "phone", raw: "12345", invalid: true},
		{name: "empty company", field: "company_name", raw: "  ", invalid: true},
		{name: "company", field: "company_name", raw: "AlphaCorp", check: func(t *testing.T, cl client.Client) {
			assert.Equal(t, "AlphaCorp", cl.CompanyName)
		}},
		{name: "last contact", field: "last_contact_date", raw: "02/04/2025", check: func(t *testing.T, cl client.Client) {
			assert.Equal(t, "02-04-2025", cl.LastContactDate.Format(core.DateLayout))
		}},
		{name: "bad last contact", field: "last_contact_date", raw: "2025-04-02", invalid: true},
		{name: "sales contact is support", field: "sales_contact_id", raw: strconv.Itoa(f.emma.ID), invalid: true},
		{name: "sales contact not a number", field: "sales_contact_id", raw: "bruno", invalid: true},
		{name: "unknown sales contact", field: "sales_contact_id", raw: "99", invalid: true},
		{name: "sales contact", field: "sales_contact_id", raw: strconv.Itoa(f.chloe.ID), check: func(t *testing.T, cl client.Client) {
			assert.Equal(t, f.chloe.ID, cl.SalesContactID)
		}},
		{name: "unknown field", field: "notes", raw: "hi", invalid: true},
	}
	var cl client.Client
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.SetField(ctx, &cl, tt.field, tt.raw)
			if tt.invalid {
				assert.True(t, core.IsValidationError(err), "SetField() error = %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cl)
		})
	}
}

func TestService_lifecycle(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	lastContact, err := core.ParseDate("01-03-2025")
	require.NoError(t, err)
	draft := client.Client{
		FullName:        "Jean Dupont",
		Email:           "jean@nova.com",
		Phone:           "0102030405",
		CompanyName:     "Entreprise Nova",
		LastContactDate: lastContact,
		SalesContactID:  f.chloe.ID,
	}

	// a sales actor always becomes the sales contact
	nova, err := f.svc.Create(ctx, f.bruno, draft)
	require.NoError(t, err)
	assert.Equal(t, f.bruno.ID, nova.SalesContactID)
	assert.Equal(t, core.Today(), nova.CreatedDate)

	_, err = f.svc.Create(ctx, f.chloe, draft)
	assert.True(t, core.IsValidationError(err), "email already used")

	draft.Email = "marc@alphacorp.com"
	draft.SalesContactID = f.emma.ID
	_, err = f.svc.Create(ctx, f.admin, draft)
	assert.True(t, core.IsValidationError(err), "sales contact must be a sales collaborator")

	draft.SalesContactID = f.chloe.ID
	alpha, err := f.svc.Create(ctx, f.admin, draft)
	require.NoError(t, err)
	assert.Equal(t, f.chloe.ID, alpha.SalesContactID)

	t.Run("scope", func(t *testing.T) {
		tests := []struct {
			name    string
			actor   collaborator.Collaborator
			purpose core.Purpose
			want    int
		}{
			{name: "support lists all", actor: f.emma, purpose: core.PurposeList, want: 2},
			{name: "sales modifies own", actor: f.bruno, purpose: core.PurposeModify, want: 1},
			{name: "management modifies none", actor: f.manager, purpose: core.PurposeModify, want: 0},
			{name: "admin modifies all", actor: f.admin, purpose: core.PurposeModify, want: 2},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := f.svc.List(ctx, tt.actor, tt.purpose, core.ListOptions{})
				require.NoError(t, err)
				assert.Len(t, got, tt.want)
			})
		}

		got, err := f.svc.ListBySalesContact(ctx, f.chloe.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, alpha.ID, got[0].ID)
	})

	t.Run("update", func(t *testing.T) {
		nova.CompanyName = "Nova Group"
		updated, err := f.svc.Update(ctx, f.bruno, nova)
		require.NoError(t, err)
		assert.Equal(t, "Nova Group", updated.CompanyName)
		assert.Equal(t, f.bruno.FullName, updated.SalesContactName)

		nova.Email = alpha.Email
		_, err = f.svc.Update(ctx, f.bruno, nova)
		assert.True(t, core.IsValidationError(err))

		_, err = f.svc.Update(ctx, f.bruno, client.Client{})
		assert.Equal(t, client.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, f.chloe, alpha))
		_, err := f.svc.Get(ctx, alpha.ID, false)
		assert.Equal(t, client.ErrNotFound, err)
		archived, err := f.svc.Get(ctx, alpha.ID, true)
		require.NoError(t, err)
		assert.True(t, archived.Archived)

		require.NoError(t, f.svc.Delete(ctx, f.admin, archived))
		_, err = f.svc.Get(ctx, alpha.ID, true)
		assert.Equal(t, client.ErrNotFound, err)
	})
}
