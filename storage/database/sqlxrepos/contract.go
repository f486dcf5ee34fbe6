package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/contract"
)

var contractColumns = columns{
	"id":           {expr: "ct.id", kind: intColumn},
	"client_id":    {expr: "ct.client_id", kind: intColumn},
	"client":       {expr: "cl.company_name"},
	"total_amount": {expr: "ct.total_amount", kind: amountColumn},
	"amount_due":   {expr: "ct.amount_due", kind: amountColumn},
	"created_date": {expr: "ct.created_date", kind: dateColumn},
	"signed":       {expr: "ct.signed", kind: boolColumn},
	"archived":     {expr: "ct.archived", kind: boolColumn},
}

type contractRow struct {
	ID             int         `db:"id"`
	ClientID       int         `db:"client_id"`
	TotalAmount    int64       `db:"total_amount"`
	AmountDue      int64       `db:"amount_due"`
	CreatedDate    null.String `db:"created_date"`
	Signed         bool        `db:"signed"`
	Archived       bool        `db:"archived"`
	Client         null.String `db:"client"`
	SalesContactID null.Int    `db:"sales_contact_id"`
}

func (row contractRow) contract() contract.Contract {
	return contract.Contract{
		ID:             row.ID,
		ClientID:       row.ClientID,
		TotalAmount:    core.Amount(row.TotalAmount),
		AmountDue:      core.Amount(row.AmountDue),
		CreatedDate:    parseStored(dateLayout, row.CreatedDate),
		Signed:         row.Signed,
		Archived:       row.Archived,
		ClientName:     row.Client.String,
		SalesContactID: row.SalesContactID.Int,
	}
}

type contractRepository struct {
	baseRepository
}

var _ contract.Repository = (*contractRepository)(nil) // interface compliance check

func NewContractRepository(exec core.DBExecutor) *contractRepository {
	return &contractRepository{baseRepository{exec: exec}}
}

func (repo contractRepository) selectQuery() sq.SelectBuilder {
	return builder.
		Select(
			"ct.id", "ct.client_id", "ct.total_amount", "ct.amount_due", "ct.created_date", "ct.signed",
			"ct.archived", "cl.company_name AS client", "cl.sales_contact_id",
		).
		From("contracts ct").
		Join("clients cl ON cl.id = ct.client_id")
}

func (repo contractRepository) query(ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder, msg string) ([]contract.Contract, error) {
	var rows []contractRow
	if err := repo.selectAll(ctx, exec, qb, &rows, msg); err != nil {
		return nil, err
	}
	contracts := make([]contract.Contract, 0, len(rows))
	for _, row := range rows {
		contracts = append(contracts, row.contract())
	}
	return contracts, nil
}

func (repo contractRepository) values(c contract.Contract) map[string]interface{} {
	return map[string]interface{}{
		"client_id":    c.ClientID,
		"total_amount": int64(c.TotalAmount),
		"amount_due":   int64(c.AmountDue),
		"created_date": formatDate(c.CreatedDate),
		"signed":       boolInt(c.Signed),
		"archived":     boolInt(c.Archived),
	}
}

func (repo contractRepository) CreateContract(ctx context.Context, c contract.Contract, exec ...core.DBExecutor) (contract.Contract, error) {
	exe := repo.getExec(exec)
	id, err := repo.insert(ctx, exe, builder.Insert("contracts").SetMap(repo.values(c)), "inserting contract")
	if err != nil {
		return contract.Contract{}, err
	}
	return repo.GetContract(ctx, id, true, exe)
}

func (repo contractRepository) GetContract(ctx context.Context, id int, includeArchived bool, exec ...core.DBExecutor) (contract.Contract, error) {
	qb := repo.selectQuery().Where(sq.Eq{"ct.id": id}).Limit(1)
	if !includeArchived {
		qb = qb.Where(sq.Eq{"ct.archived": 0})
	}
	found, err := repo.query(ctx, repo.getExec(exec), qb, "finding contract")
	if err != nil {
		return contract.Contract{}, err
	}
	if len(found) == 0 {
		return contract.Contract{}, contract.ErrNotFound
	}
	return found[0], nil
}

func (repo contractRepository) QueryContracts(ctx context.Context, filter contract.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]contract.Contract, error) {
	qb := repo.selectQuery()
	if !filter.IncludeArchived {
		qb = qb.Where(sq.Eq{"ct.archived": 0})
	}
	if len(filter.IDs) > 0 {
		qb = qb.Where(sq.Eq{"ct.id": filter.IDs})
	}
	if len(filter.ClientIDs) > 0 {
		qb = qb.Where(sq.Eq{"ct.client_id": filter.ClientIDs})
	}
	if filter.SalesContactID != 0 {
		qb = qb.Where(sq.Eq{"cl.sales_contact_id": filter.SalesContactID})
	}
	if filter.SignedOnly {
		qb = qb.Where(sq.Eq{"ct.signed": 1})
	}
	if filter.WithoutEvent {
		qb = qb.Where("NOT EXISTS (SELECT 1 FROM events e WHERE e.contract_id = ct.id)")
	}

	qb, err := contractColumns.filter(qb, filter.Match)
	if err != nil {
		return nil, err
	}
	if qb, err = contractColumns.orderBy(qb, ordering, "ct.id ASC"); err != nil {
		return nil, err
	}
	return repo.query(ctx, repo.getExec(exec), qb, "querying contracts")
}

func (repo contractRepository) UpdateContract(ctx context.Context, c contract.Contract, exec ...core.DBExecutor) (contract.Contract, error) {
	exe := repo.getExec(exec)
	qb := builder.Update("contracts").SetMap(repo.values(c)).Where(sq.Eq{"id": c.ID})
	res, err := repo.run(ctx, exe, qb, "updating contract")
	if err != nil {
		return contract.Contract{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return contract.Contract{}, errors.Wrap(err, "updating contract")
	} else if n == 0 {
		return contract.Contract{}, contract.ErrNotFound
	}
	return repo.GetContract(ctx, c.ID, true, exe)
}

func (repo contractRepository) DeleteContracts(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.run(ctx, repo.getExec(exec), builder.Delete("contracts").Where(sq.Eq{"id": ids}), "deleting contracts")
	return err
}
