package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/event"
)

var eventColumns = columns{
	"id":           {expr: "e.id", kind: intColumn},
	"contract_id":  {expr: "e.contract_id", kind: intColumn},
	"client":       {expr: "cl.company_name"},
	"title":        {expr: "e.title"},
	"start_date":   {expr: "e.start_date", kind: dateTimeColumn},
	"end_date":     {expr: "e.end_date", kind: dateTimeColumn},
	"location":     {expr: "e.location"},
	"participants": {expr: "e.participants", kind: intColumn},
	"notes":        {expr: "e.notes"},
	"support":      {expr: "su.full_name"},
	"support_id":   {expr: "e.support_id", kind: intColumn},
	"archived":     {expr: "e.archived", kind: boolColumn},
}

type eventRow struct {
	ID             int         `db:"id"`
	ContractID     int         `db:"contract_id"`
	Title          string      `db:"title"`
	StartDate      null.String `db:"start_date"`
	EndDate        null.String `db:"end_date"`
	Location       string      `db:"location"`
	Participants   int         `db:"participants"`
	Notes          null.String `db:"notes"`
	SupportID      null.Int    `db:"support_id"`
	Archived       bool        `db:"archived"`
	Client         null.String `db:"client"`
	SalesContactID null.Int    `db:"sales_contact_id"`
	Support        null.String `db:"support"`
}

func (row eventRow) event() event.Event {
	return event.Event{
		ID:             row.ID,
		ContractID:     row.ContractID,
		Title:          row.Title,
		StartDate:      parseStored(dateTimeLayout, row.StartDate),
		EndDate:        parseStored(dateTimeLayout, row.EndDate),
		Location:       row.Location,
		Participants:   row.Participants,
		Notes:          row.Notes.String,
		SupportID:      row.SupportID.Int,
		Archived:       row.Archived,
		ClientName:     row.Client.String,
		SalesContactID: row.SalesContactID.Int,
		SupportName:    row.Support.String,
	}
}

type eventRepository struct {
	baseRepository
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(exec core.DBExecutor) *eventRepository {
	return &eventRepository{baseRepository{exec: exec}}
}

func (repo eventRepository) selectQuery() sq.SelectBuilder {
	return builder.
		Select(
			"e.id", "e.contract_id", "e.title", "e.start_date", "e.end_date", "e.location", "e.participants",
			"e.notes", "e.support_id", "e.archived", "cl.company_name AS client", "cl.sales_contact_id",
			"su.full_name AS support",
		).
		From("events e").
		Join("contracts ct ON ct.id = e.contract_id").
		Join("clients cl ON cl.id = ct.client_id").
		LeftJoin("collaborators su ON su.id = e.support_id")
}

func (repo eventRepository) query(ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder, msg string) ([]event.Event, error) {
	var rows []eventRow
	if err := repo.selectAll(ctx, exec, qb, &rows, msg); err != nil {
		return nil, err
	}
	events := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.event())
	}
	return events, nil
}

func (repo eventRepository) values(e event.Event) map[string]interface{} {
	return map[string]interface{}{
		"contract_id":  e.ContractID,
		"title":        e.Title,
		"start_date":   formatDateTime(e.StartDate),
		"end_date":     formatDateTime(e.EndDate),
		"location":     e.Location,
		"participants": e.Participants,
		"notes":        e.Notes,
		"support_id":   nullID(e.SupportID),
		"archived":     boolInt(e.Archived),
	}
}

func (repo eventRepository) CreateEvent(ctx context.Context, e event.Event, exec ...core.DBExecutor) (event.Event, error) {
	exe := repo.getExec(exec)
	id, err := repo.insert(ctx, exe, builder.Insert("events").SetMap(repo.values(e)), "inserting event")
	if err != nil {
		return event.Event{}, err
	}
	return repo.GetEvent(ctx, id, true, exe)
}

func (repo eventRepository) GetEvent(ctx context.Context, id int, includeArchived bool, exec ...core.DBExecutor) (event.Event, error) {
	qb := repo.selectQuery().Where(sq.Eq{"e.id": id}).Limit(1)
	if !includeArchived {
		qb = qb.Where(sq.Eq{"e.archived": 0})
	}
	found, err := repo.query(ctx, repo.getExec(exec), qb, "finding event")
	if err != nil {
		return event.Event{}, err
	}
	if len(found) == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return found[0], nil
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter event.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]event.Event, error) {
	qb := repo.selectQuery()
	if !filter.IncludeArchived {
		qb = qb.Where(sq.Eq{"e.archived": 0})
	}
	if len(filter.IDs) > 0 {
		qb = qb.Where(sq.Eq{"e.id": filter.IDs})
	}
	if len(filter.ContractIDs) > 0 {
		qb = qb.Where(sq.Eq{"e.contract_id": filter.ContractIDs})
	}
	if filter.SupportID != 0 {
		qb = qb.Where(sq.Eq{"e.support_id": filter.SupportID})
	}
	if filter.WithoutSupport {
		qb = qb.Where(sq.Eq{"e.support_id": nil})
	}
	if filter.SalesContactID != 0 {
		qb = qb.Where(sq.Eq{"cl.sales_contact_id": filter.SalesContactID})
	}

	qb, err := eventColumns.filter(qb, filter.Match)
	if err != nil {
		return nil, err
	}
	if qb, err = eventColumns.orderBy(qb, ordering, "e.id ASC"); err != nil {
		return nil, err
	}
	return repo.query(ctx, repo.getExec(exec), qb, "querying events")
}

func (repo eventRepository) UpdateEvent(ctx context.Context, e event.Event, exec ...core.DBExecutor) (event.Event, error) {
	exe := repo.getExec(exec)
	qb := builder.Update("events").SetMap(repo.values(e)).Where(sq.Eq{"id": e.ID})
	res, err := repo.run(ctx, exe, qb, "updating event")
	if err != nil {
		return event.Event{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	} else if n == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return repo.GetEvent(ctx, e.ID, true, exe)
}

func (repo eventRepository) DeleteEvents(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.run(ctx, repo.getExec(exec), builder.Delete("events").Where(sq.Eq{"id": ids}), "deleting events")
	return err
}
