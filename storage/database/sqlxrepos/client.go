package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/client"
)

var clientColumns = columns{
	"id":                {expr: "c.id", kind: intColumn},
	"full_name":         {expr: "c.full_name"},
	"email":             {expr: "c.email"},
	"phone":             {expr: "c.phone"},
	"company_name":      {expr: "c.company_name"},
	"created_date":      {expr: "c.created_date", kind: dateColumn},
	"last_contact_date": {expr: "c.last_contact_date", kind: dateColumn},
	"sales_contact":     {expr: "co.full_name"},
	"sales_contact_id":  {expr: "c.sales_contact_id", kind: intColumn},
	"archived":          {expr: "c.archived", kind: boolColumn},
}

type clientRow struct {
	ID              int         `db:"id"`
	FullName        string      `db:"full_name"`
	Email           string      `db:"email"`
	Phone           string      `db:"phone"`
	CompanyName     string      `db:"company_name"`
	CreatedDate     null.String `db:"created_date"`
	LastContactDate null.String `db:"last_contact_date"`
	SalesContactID  null.Int    `db:"sales_contact_id"`
	Archived        bool        `db:"archived"`
	SalesContact    null.String `db:"sales_contact"`
}

func (row clientRow) client() client.Client {
	return client.Client{
		ID:               row.ID,
		FullName:         row.FullName,
		Email:            row.Email,
		Phone:            row.Phone,
		CompanyName:      row.CompanyName,
		CreatedDate:      parseStored(dateLayout, row.CreatedDate),
		LastContactDate:  parseStored(dateLayout, row.LastContactDate),
		SalesContactID:   row.SalesContactID.Int,
		Archived:         row.Archived,
		SalesContactName: row.SalesContact.String,
	}
}

type clientRepository struct {
	baseRepository
}

var _ client.Repository = (*clientRepository)(nil) // interface compliance check

func NewClientRepository(exec core.DBExecutor) *clientRepository {
	return &clientRepository{baseRepository{exec: exec}}
}

func (repo clientRepository) selectQuery() sq.SelectBuilder {
	return builder.
		Select(
			"c.id", "c.full_name", "c.email", "c.phone", "c.company_name", "c.created_date",
			"c.last_contact_date", "c.sales_contact_id", "c.archived", "co.full_name AS sales_contact",
		).
		From("clients c").
		LeftJoin("collaborators co ON co.id = c.sales_contact_id")
}

func (repo clientRepository) query(ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder, msg string) ([]client.Client, error) {
	var rows []clientRow
	if err := repo.selectAll(ctx, exec, qb, &rows, msg); err != nil {
		return nil, err
	}
	clients := make([]client.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, row.client())
	}
	return clients, nil
}

func (repo clientRepository) values(cl client.Client) map[string]interface{} {
	return map[string]interface{}{
		"full_name":         cl.FullName,
		"email":             cl.Email,
		"phone":             cl.Phone,
		"company_name":      cl.CompanyName,
		"created_date":      formatDate(cl.CreatedDate),
		"last_contact_date": formatDate(cl.LastContactDate),
		"sales_contact_id":  nullID(cl.SalesContactID),
		"archived":          boolInt(cl.Archived),
	}
}

func (repo clientRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []int, exec ...core.DBExecutor) error {
	qb := builder.Select("COUNT(*)").From("clients").Where(sq.Expr("LOWER(email) = LOWER(?)", email))
	if len(excludedIDs) > 0 {
		qb = qb.Where(sq.NotEq{"id": excludedIDs})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, "checking client uniqueness")
	}
	var cnt int
	if err = repo.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&cnt); err != nil {
		return errors.Wrap(err, "checking client uniqueness")
	}
	if cnt > 0 {
		return client.ErrEmailExists
	}
	return nil
}

func (repo clientRepository) CreateClient(ctx context.Context, cl client.Client, exec ...core.DBExecutor) (client.Client, error) {
	exe := repo.getExec(exec)
	id, err := repo.insert(ctx, exe, builder.Insert("clients").SetMap(repo.values(cl)), "inserting client")
	if err != nil {
		return client.Client{}, err
	}
	return repo.GetClient(ctx, id, true, exe)
}

func (repo clientRepository) GetClient(ctx context.Context, id int, includeArchived bool, exec ...core.DBExecutor) (client.Client, error) {
	qb := repo.selectQuery().Where(sq.Eq{"c.id": id}).Limit(1)
	if !includeArchived {
		qb = qb.Where(sq.Eq{"c.archived": 0})
	}
	found, err := repo.query(ctx, repo.getExec(exec), qb, "finding client")
	if err != nil {
		return client.Client{}, err
	}
	if len(found) == 0 {
		return client.Client{}, client.ErrNotFound
	}
	return found[0], nil
}

func (repo clientRepository) QueryClients(ctx context.Context, filter client.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]client.Client, error) {
	qb := repo.selectQuery()
	if !filter.IncludeArchived {
		qb = qb.Where(sq.Eq{"c.archived": 0})
	}
	if len(filter.IDs) > 0 {
		qb = qb.Where(sq.Eq{"c.id": filter.IDs})
	}
	if filter.SalesContactID != 0 {
		qb = qb.Where(sq.Eq{"c.sales_contact_id": filter.SalesContactID})
	}

	qb, err := clientColumns.filter(qb, filter.Match)
	if err != nil {
		return nil, err
	}
	if qb, err = clientColumns.orderBy(qb, ordering, "c.id ASC"); err != nil {
		return nil, err
	}
	return repo.query(ctx, repo.getExec(exec), qb, "querying clients")
}

func (repo clientRepository) UpdateClient(ctx context.Context, cl client.Client, exec ...core.DBExecutor) (client.Client, error) {
	exe := repo.getExec(exec)
	qb := builder.Update("clients").SetMap(repo.values(cl)).Where(sq.Eq{"id": cl.ID})
	res, err := repo.run(ctx, exe, qb, "updating client")
	if err != nil {
		return client.Client{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return client.Client{}, errors.Wrap(err, "updating client")
	} else if n == 0 {
		return client.Client{}, client.ErrNotFound
	}
	return repo.GetClient(ctx, cl.ID, true, exe)
}

func (repo clientRepository) DeleteClients(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.run(ctx, repo.getExec(exec), builder.Delete("clients").Where(sq.Eq{"id": ids}), "deleting clients")
	return err
}
