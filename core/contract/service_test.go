package contract_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/contract"
	"github.com/epicevents/crm/core/event"
	emailsvc "github.com/epicevents/crm/services/email"
	logsvc "github.com/epicevents/crm/services/logger"
	"github.com/epicevents/crm/storage/database/sqlxrepos"
	"github.com/epicevents/crm/tests"
)

type fixture struct {
	svc    *contract.Service
	repo   contract.Repository
	events event.Repository
	mails  interface{ SentMessages() []core.EmailMessage }
	admin  collaborator.Collaborator
	bruno  collaborator.Collaborator
	chloe  collaborator.Collaborator
	nova   client.Client
	alpha  client.Client
}

func setup(t *testing.T) fixture {
	db := testutil.PrepareDB(t)
	conf := &core.Config{AppName: "Epic Events"}
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	mails := emailsvc.NewConsoleService(conf, nil, logger)
	collabRepo := sqlxrepos.NewCollaboratorRepository(db)
	clientRepo := sqlxrepos.NewClientRepository(db)
	repo := sqlxrepos.NewContractRepository(db)

	f := fixture{
		svc:    contract.NewService(conf, repo, clientRepo, collabRepo, mails, logger),
		repo:   repo,
		events: sqlxrepos.NewEventRepository(db),
		mails:  mails,
		admin:  testutil.CreateCollaborator(t, collabRepo, "Admin User", "admin@epicevent.com", collaborator.RoleAdmin, ""),
		bruno:  testutil.CreateCollaborator(t, collabRepo, "Bruno Lefevre", "bruno@epicevent.com", collaborator.RoleSales, ""),
		chloe:  testutil.CreateCollaborator(t, collabRepo, "Chloé Dubois", "chloe@epicevent.com", collaborator.RoleSales, ""),
	}
	f.nova = testutil.CreateClient(t, clientRepo, "Jean Dupont", "jean@nova.com", "Entreprise Nova", f.bruno.ID)
	f.alpha = testutil.CreateClient(t, clientRepo, "Marc Petit", "marc@alphacorp.com", "AlphaCorp", f.chloe.ID)
	return f
}

func TestService_SetField(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tests := []struct {
		name    string
		field   string
		raw     string
		invalid bool
		check   func(t *testing.T, c contract.Contract)
	}{
		{name: "client not a number", field: "client_id", raw: "nova", invalid: true},
		{name: "unknown client", field: "client_id", raw: "99", invalid: true},
		{name: "client", field: "client_id", raw: " " + strconv.Itoa(f.nova.ID), check: func(t *testing.T, c contract.Contract) {
			assert.Equal(t, f.nova.ID, c.ClientID)
			assert.Equal(t, "Entreprise Nova", c.ClientName)
			assert.Equal(t, f.bruno.ID, c.SalesContactID)
		}},
		{name: "negative total", field: "total_amount", raw: "-10", invalid: true},
		{name: "too many decimals", field: "total_amount", raw: "10.123", invalid: true},
		{name: "signed cents", field: "total_amount", raw: "1.-5", invalid: true},
		{name: "overflowing total", field: "total_amount", raw: "99999999999999999", invalid: true},
		{name: "total", field: "total_amount", raw: "10000", check: func(t *testing.T, c contract.Contract) {
			assert.Equal(t, core.Amount(1000000), c.TotalAmount)
		}},
		{name: "due exceeds total", field: "amount_due", raw: "10000.01", invalid: true},
		{name: "due", field: "amount_due", raw: "2500.50", check: func(t *testing.T, c contract.Contract) {
			assert.Equal(t, "2500.50", c.AmountDue.String())
		}},
		{name: "signed", field: "signed", raw: "Y", check: func(t *testing.T, c contract.Contract) {
			assert.True(t, c.Signed)
		}},
		{name: "not signed", field: "signed", raw: "n", check: func(t *testing.T, c contract.Contract) {
			assert.False(t, c.Signed)
		}},
		{name: "unknown field", field: "discount", raw: "5", invalid: true},
	}
	var c contract.Contract
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.SetField(ctx, &c, tt.field, tt.raw)
			if tt.invalid {
				assert.True(t, core.IsValidationError(err), "SetField() error = %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestService_lifecycle(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Create(ctx, f.admin, contract.Contract{ClientID: f.nova.ID, TotalAmount: 1000, AmountDue: 2000})
	assert.True(t, core.IsValidationError(err), "due above total")
	_, err = f.svc.Create(ctx, f.admin, contract.Contract{ClientID: 99, TotalAmount: 1000})
	assert.True(t, core.IsValidationError(err), "unknown client")

	unsigned, err := f.svc.Create(ctx, f.admin, contract.Contract{ClientID: f.nova.ID, TotalAmount: 600000, AmountDue: 600000})
	require.NoError(t, err)
	assert.Equal(t, core.Today(), unsigned.CreatedDate)
	assert.Empty(t, f.mails.SentMessages())

	signed, err := f.svc.Create(ctx, f.admin, contract.Contract{ClientID: f.alpha.ID, TotalAmount: 1000000, Signed: true})
	require.NoError(t, err)
	sent := f.mails.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, f.chloe.Email, sent[0].To[0].Address)
	assert.Equal(t, fmt.Sprintf("contract %d signed", signed.ID), sent[0].Subject)
	assert.Contains(t, sent[0].TextContent, "AlphaCorp")
	assert.Contains(t, sent[0].TextContent, "Total amount: 10000.00")

	t.Run("signing notifies the sales contact once", func(t *testing.T) {
		unsigned.AmountDue = 300000
		updated, err := f.svc.Update(ctx, f.bruno, unsigned)
		require.NoError(t, err)
		assert.Equal(t, "3000.00", updated.AmountDue.String())
		assert.Len(t, f.mails.SentMessages(), 1)

		unsigned.Signed = true
		_, err = f.svc.Update(ctx, f.bruno, unsigned)
		require.NoError(t, err)
		sent := f.mails.SentMessages()
		require.Len(t, sent, 2)
		assert.Equal(t, f.bruno.Email, sent[1].To[0].Address)

		_, err = f.svc.Update(ctx, f.bruno, unsigned)
		require.NoError(t, err)
		assert.Len(t, f.mails.SentMessages(), 2)

		_, err = f.svc.Update(ctx, f.bruno, contract.Contract{})
		assert.Equal(t, contract.ErrNotFound, err)
	})

	t.Run("scope", func(t *testing.T) {
		testutil.CreateEvent(t, f.events, signed.ID, "Salon AlphaCorp", 0)

		got, err := f.svc.List(ctx, f.admin, core.PurposeList, core.ListOptions{})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		// chloe's only signed contract already has an event
		got, err = f.svc.List(ctx, f.chloe, core.PurposeList, core.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = f.svc.List(ctx, f.bruno, core.PurposeList, core.ListOptions{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, unsigned.ID, got[0].ID)

		got, err = f.svc.ListByClient(ctx, f.alpha.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, signed.ID, got[0].ID)
	})

	t.Run("event candidates", func(t *testing.T) {
		got, err := f.svc.EventCandidates(ctx, f.bruno)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, unsigned.ID, got[0].ID)

		got, err = f.svc.EventCandidates(ctx, f.chloe)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = f.svc.EventCandidates(ctx, f.admin)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, core.ErrInUse, f.svc.Delete(ctx, f.admin, signed))

		require.NoError(t, f.svc.Delete(ctx, f.bruno, unsigned))
		_, err := f.svc.Get(ctx, unsigned.ID, false)
		assert.Equal(t, contract.ErrNotFound, err)

		require.NoError(t, f.svc.Delete(ctx, f.admin, unsigned))
		_, err = f.svc.Get(ctx, unsigned.ID, true)
		assert.Equal(t, contract.ErrNotFound, err)
	})
}
