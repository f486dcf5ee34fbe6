package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
	"github.com/epicevents/crm/core/collaborator"
	"github.com/epicevents/crm/core/contract"
	"github.com/epicevents/crm/core/event"
	"github.com/epicevents/crm/storage/database/sqlxrepos"
)

type demoCollaborator struct {
	fullName, email, password, role string
}

var demoCollaborators = []demoCollaborator{
	{"Admin User", "admin@epicevent.com", "adminpass", collaborator.RoleAdmin},
	{"Alice Martin", "alice@epicevent.com", "alicepass", collaborator.RoleManagement},
	{"Bruno Lefevre", "bruno@epicevent.com", "brunopass", collaborator.RoleSales},
	{"Chloé Dubois", "chloe@epicevent.com", "chloepass", collaborator.RoleSales},
	{"David Morel", "david@epicevent.com", "davidpass", collaborator.RoleSupport},
	{"Emma Bernard", "emma@epicevent.com", "emmapass", collaborator.RoleSupport},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func dateTime(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

// LoadDemoData fills an empty database with the demo data set, in one transaction.
func LoadDemoData(ctx context.Context, db core.DB) error {
	return core.RunInTx(ctx, db, func(tx core.DBExecutor) error {
		collabRepo := sqlxrepos.NewCollaboratorRepository(tx)
		clientRepo := sqlxrepos.NewClientRepository(tx)
		contractRepo := sqlxrepos.NewContractRepository(tx)
		eventRepo := sqlxrepos.NewEventRepository(tx)

		collabs := make(map[string]int, len(demoCollaborators))
		for _, dc := range demoCollaborators {
			c := collaborator.Collaborator{FullName: dc.fullName, Email: dc.email, Role: dc.role}
			if err := c.SetPassword(dc.password); err != nil {
				return errors.Wrap(err, "hashing password")
			}
			c, err := collabRepo.CreateCollaborator(ctx, c)
			if err != nil {
				return err
			}
			collabs[c.FullName] = c.ID
		}

		clients := []client.Client{
			{
				FullName: "Jean Dupont", Email: "jean@nova.com", Phone: "0102030405", CompanyName: "Entreprise Nova",
				CreatedDate: date(2025, 3, 25), LastContactDate: date(2025, 3, 25), SalesContactID: collabs["Chloé Dubois"],
			},
			{
				FullName: "Sophie Durant", Email: "sophie@techline.com", Phone: "0605040302", CompanyName: "Techline SARL",
				CreatedDate: date(2025, 4, 1), LastContactDate: date(2025, 4, 1), SalesContactID: collabs["Bruno Lefevre"],
			},
			{
				FullName: "Marc Petit", Email: "marc@alphacorp.com", Phone: "0758493021", CompanyName: "AlphaCorp",
				CreatedDate: date(2025, 4, 15), LastContactDate: date(2025, 4, 15), SalesContactID: collabs["Chloé Dubois"],
			},
		}
		for i, cl := range clients {
			created, err := clientRepo.CreateClient(ctx, cl)
			if err != nil {
				return err
			}
			clients[i] = created
		}

		contracts := []contract.Contract{
			{ClientID: clients[0].ID, TotalAmount: 1000000, CreatedDate: date(2025, 4, 15), Signed: true},
			{ClientID: clients[1].ID, TotalAmount: 850000, CreatedDate: date(2025, 4, 25), Signed: true},
			{ClientID: clients[2].ID, TotalAmount: 1200000, CreatedDate: date(2025, 5, 8), Signed: true},
			{ClientID: clients[0].ID, TotalAmount: 1500000, CreatedDate: date(2025, 5, 30), Signed: true},
			{ClientID: clients[1].ID, TotalAmount: 950000, CreatedDate: date(2025, 6, 3), Signed: true},
			{ClientID: clients[2].ID, TotalAmount: 600000, AmountDue: 600000, CreatedDate: date(2025, 7, 13), Signed: true},
			{ClientID: clients[0].ID, TotalAmount: 1100000, AmountDue: 1100000, CreatedDate: date(2025, 7, 18)},
		}
		for i, c := range contracts {
			created, err := contractRepo.CreateContract(ctx, c)
			if err != nil {
				return err
			}
			contracts[i] = created
		}

		events := []event.Event{
			{
				ContractID: contracts[0].ID, Title: "Conférence TechNova",
				StartDate: dateTime(2025, 6, 8, 9, 0), EndDate: dateTime(2025, 6, 10, 18, 0),
				Location: "Paris", Participants: 150, Notes: "Conférence terminée avec succès.",
				SupportID: collabs["Emma Bernard"],
			},
			{
				ContractID: contracts[1].ID, Title: "Salon des Innovations",
				StartDate: dateTime(2025, 6, 18, 10, 0), EndDate: dateTime(2025, 6, 20, 17, 0),
				Location: "Lyon", Participants: 200, Notes: "Salon très fréquenté.",
				SupportID: collabs["David Morel"],
			},
			{
				ContractID: contracts[2].ID, Title: "Séminaire Alpha",
				StartDate: dateTime(2025, 8, 8, 8, 30), EndDate: dateTime(2025, 8, 10, 17, 30),
				Location: "Bordeaux", Participants: 100, Notes: "Retour très positif.",
				SupportID: collabs["Emma Bernard"],
			},
			{
				ContractID: contracts[3].ID, Title: "Forum Digital",
				StartDate: dateTime(2025, 8, 23, 9, 0), EndDate: dateTime(2025, 8, 24, 17, 0),
				Location: "Marseille", Participants: 80, Notes: "Préparation en cours.",
				SupportID: collabs["David Morel"],
			},
			{
				ContractID: contracts[4].ID, Title: "Atelier Startups",
				StartDate: dateTime(2025, 9, 28, 14, 0), EndDate: dateTime(2025, 9, 29, 18, 0),
				Location: "Nice", Participants: 120, Notes: "Inscription ouverte.",
			},
		}
		for _, e := range events {
			if _, err := eventRepo.CreateEvent(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}
