package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/epicevents/crm/core"
)

// storage layouts, sortable as text
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var (
	builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

	errUnknownField = errors.New("this field cannot be used here")
	errBadValue     = errors.New("invalid value for this field")
)

type baseRepository struct {
	exec core.DBExecutor
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// selectAll runs qb and scans every row into dest, a pointer to a slice of row structs.
func (repo baseRepository) selectAll(ctx context.Context, exec core.DBExecutor, qb sq.Sqlizer, dest interface{}, msg string) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	defer func() { _ = rows.Close() }()
	if err = sqlx.StructScan(rows, dest); err != nil {
		return errors.Wrap(err, msg)
	}
	return nil
}

// insert runs qb and returns the new row id.
func (repo baseRepository) insert(ctx context.Context, exec core.DBExecutor, qb sq.InsertBuilder, msg string) (int, error) {
	res, err := repo.run(ctx, exec, qb, msg)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, msg)
	}
	return int(id), nil
}

func (repo baseRepository) run(ctx context.Context, exec core.DBExecutor, qb sq.Sqlizer, msg string) (sql.Result, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, trapConstraintErr(err, msg)
	}
	return res, nil
}

// trapConstraintErr maps sqlite foreign key violations to core.ErrInUse
func trapConstraintErr(err error, msg string) error {
	var sErr *sqlite.Error
	if errors.As(err, &sErr) && sErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return core.ErrInUse
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return core.ErrInUse
	}
	return errors.Wrap(err, msg)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

func parseStored(layout string, s null.String) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(layout, s.String, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullID(id int) null.Int {
	return null.NewInt(id, id != 0)
}

type columnKind int

const (
	textColumn columnKind = iota
	intColumn
	boolColumn
	dateColumn
	dateTimeColumn
	amountColumn
)

type column struct {
	expr string
	kind columnKind
}

// columns maps the field names known to the CLI to SQL expressions.
type columns map[string]column

// where turns a user match into a condition. Text is compared case-insensitively.
func (cols columns) where(m core.FieldMatch) (sq.Sqlizer, error) {
	col, ok := cols[m.Field]
	if !ok {
		return nil, core.NewFieldError(m.Field, errUnknownField)
	}
	val := core.CleanString(m.Value)
	bad := core.NewFieldError(m.Field, errBadValue)

	switch col.kind {
	case intColumn:
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, bad
		}
		return sq.Eq{col.expr: n}, nil
	case boolColumn:
		return sq.Eq{col.expr: boolInt(core.IsYes(val))}, nil
	case dateColumn:
		t, err := core.ParseDate(val)
		if err != nil {
			return nil, bad
		}
		return sq.Eq{col.expr: formatDate(t)}, nil
	case dateTimeColumn:
		// a bare date matches the whole day
		if t, err := core.ParseDate(val); err == nil {
			return sq.Like{col.expr: formatDate(t) + "%"}, nil
		}
		t, err := core.ParseDateTime(val)
		if err != nil {
			return nil, bad
		}
		return sq.Eq{col.expr: formatDateTime(t)}, nil
	case amountColumn:
		a, err := core.ParseAmount(val)
		if err != nil {
			return nil, bad
		}
		return sq.Eq{col.expr: int64(a)}, nil
	}
	return sq.Expr("LOWER("+col.expr+") = LOWER(?)", val), nil
}

func (cols columns) filter(qb sq.SelectBuilder, matches []core.FieldMatch) (sq.SelectBuilder, error) {
	for _, m := range matches {
		cond, err := cols.where(m)
		if err != nil {
			return qb, err
		}
		qb = qb.Where(cond)
	}
	return qb, nil
}

func (cols columns) orderBy(qb sq.SelectBuilder, ordering []core.DBOrdering, dflt string) (sq.SelectBuilder, error) {
	if len(ordering) == 0 {
		return qb.OrderBy(dflt), nil
	}
	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		col, ok := cols[ord.Field]
		if !ok {
			return qb, core.NewFieldError(ord.Field, errUnknownField)
		}
		orderList = append(orderList, core.DBOrdering{Field: col.expr, Ascending: ord.Ascending}.String())
	}
	orderList = append(orderList, dflt)
	return qb.OrderBy(strings.Join(orderList, ", ")), nil
}
