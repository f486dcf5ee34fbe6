package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/contract"
	"github.com/epicevents/crm/core/event"
	"github.com/epicevents/crm/storage/database"
)

func init() {
	collaborator.SetBcryptCost(bcrypt.MinCost)
	goose.SetLogger(log.New(io.Discard, "", 0))
}

// PrepareDB opens a migrated in-memory database, closed with the test.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenPath(database.MemoryDatabase, time.Second)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateCollaborator(t *testing.T, repo collaborator.Repository, fullName, email, role, pwd string, archived ...bool) collaborator.Collaborator {
	t.Helper()
	c := collaborator.Collaborator{FullName: fullName, Email: email, Role: role}
	if len(archived) > 0 {
		c.Archived = archived[0]
	}
	if pwd == "" {
		pwd = "pass"
	}
	if err := c.SetPassword(pwd); err != nil {
		t.Fatalf("CreateCollaborator() failed: %v", err)
	}
	c, err := repo.CreateCollaborator(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCollaborator() failed: %v", err)
	}
	return c
}

func CreateClient(t *testing.T, repo client.Repository, fullName, email, company string, salesContactID int) client.Client {
	t.Helper()
	cl, err := repo.CreateClient(context.Background(), client.Client{
		FullName:        fullName,
		Email:           email,
		Phone:           "0102030405",
		CompanyName:     company,
		CreatedDate:     core.Today(),
		LastContactDate: core.Today(),
		SalesContactID:  salesContactID,
	})
	if err != nil {
		t.Fatalf("CreateClient() failed: %v", err)
	}
	return cl
}

func CreateContract(t *testing.T, repo contract.Repository, clientID int, total, due core.Amount, signed bool) contract.Contract {
	t.Helper()
	c, err := repo.CreateContract(context.Background(), contract.Contract{
		ClientID:    clientID,
		TotalAmount: total,
		AmountDue:   due,
		CreatedDate: core.Today(),
		Signed:      signed,
	})
	if err != nil {
		t.Fatalf("CreateContract() failed: %v", err)
	}
	return c
}

func CreateEvent(t *testing.T, repo event.Repository, contractID int, title string, supportID int) event.Event {
	t.Helper()
	start := core.Today().AddDate(0, 1, 0).Add(9 * time.Hour)
	e, err := repo.CreateEvent(context.Background(), event.Event{
		ContractID:   contractID,
		Title:        title,
		StartDate:    start,
		EndDate:      start.Add(8 * time.Hour),
		Location:     "Paris",
		Participants: 50,
		SupportID:    supportID,
	})
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	return e
}
