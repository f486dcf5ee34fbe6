package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
)

var collaboratorColumns = columns{
	"id":        {expr: "id", kind: intColumn},
	"full_name": {expr: "full_name"},
	"email":     {expr: "email"},
	"role":      {expr: "role"},
	"archived":  {expr: "archived", kind: boolColumn},
}

type collaboratorRow struct {
	ID           int    `db:"id"`
	FullName     string `db:"full_name"`
	Email        string `db:"email"`
	Role         string `db:"role"`
	PasswordHash []byte `db:"password_hash"`
	Archived     bool   `db:"archived"`
}

func (row collaboratorRow) collaborator() collaborator.Collaborator {
	return collaborator.Collaborator{
		ID:           row.ID,
		FullName:     row.FullName,
		Email:        row.Email,
		Role:         row.Role,
		PasswordHash: row.PasswordHash,
		Archived:     row.Archived,
	}
}

type collaboratorRepository struct {
	baseRepository
}

var _ collaborator.Repository = (*collaboratorRepository)(nil) // interface compliance check

func NewCollaboratorRepository(exec core.DBExecutor) *collaboratorRepository {
	return &collaboratorRepository{baseRepository{exec: exec}}
}

func (repo collaboratorRepository) selectQuery() sq.SelectBuilder {
	return builder.
		Select("id", "full_name", "email", "role", "password_hash", "archived").
		From("collaborators")
}

func (repo collaboratorRepository) query(ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder, msg string) ([]collaborator.Collaborator, error) {
	var rows []collaboratorRow
	if err := repo.selectAll(ctx, exec, qb, &rows, msg); err != nil {
		return nil, err
	}
	collabs := make([]collaborator.Collaborator, 0, len(rows))
	for _, row := range rows {
		collabs = append(collabs, row.collaborator())
	}
	return collabs, nil
}

func (repo collaboratorRepository) CheckUniqueness(ctx context.Context, fullName, email string, excludedIDs []int, exec ...core.DBExecutor) error {
	var or sq.Or
	if fullName != "" {
		or = append(or, sq.Eq{"full_name": fullName})
	}
	if email != "" {
		or = append(or, sq.Expr("LOWER(email) = LOWER(?)", email))
	}
	if len(or) == 0 {
		return nil
	}
	qb := repo.selectQuery().Where(or)
	if len(excludedIDs) > 0 {
		qb = qb.Where(sq.NotEq{"id": excludedIDs})
	}
	found, err := repo.query(ctx, repo.getExec(exec), qb, "checking collaborator uniqueness")
	if err != nil {
		return err
	}
	for _, c := range found {
		if fullName != "" && c.FullName == fullName {
			return collaborator.ErrFullNameExists
		}
	}
	if len(found) > 0 {
		return collaborator.ErrEmailExists
	}
	return nil
}

func (repo collaboratorRepository) CreateCollaborator(ctx context.Context, c collaborator.Collaborator, exec ...core.DBExecutor) (collaborator.Collaborator, error) {
	qb := builder.Insert("collaborators").
		Columns("full_name", "email", "role", "password_hash", "archived").
		Values(c.FullName, c.Email, c.Role, c.PasswordHash, boolInt(c.Archived))
	id, err := repo.insert(ctx, repo.getExec(exec), qb, "inserting collaborator")
	if err != nil {
		return collaborator.Collaborator{}, err
	}
	c.ID = id
	return c, nil
}

func (repo collaboratorRepository) GetCollaborator(ctx context.Context, filter collaborator.GetFilter, exec ...core.DBExecutor) (collaborator.Collaborator, error) {
	qb := repo.selectQuery().Limit(1)
	switch {
	case filter.ID != 0:
		qb = qb.Where(sq.Eq{"id": filter.ID})
	case filter.FullName != "":
		qb = qb.Where(sq.Eq{"full_name": filter.FullName})
	case filter.Email != "":
		qb = qb.Where(sq.Expr("LOWER(email) = LOWER(?)", filter.Email))
	default:
		return collaborator.Collaborator{}, collaborator.ErrNotFound
	}
	if !filter.IncludeArchived {
		qb = qb.Where(sq.Eq{"archived": 0})
	}

	found, err := repo.query(ctx, repo.getExec(exec), qb, "finding collaborator")
	if err != nil {
		return collaborator.Collaborator{}, err
	}
	if len(found) == 0 {
		return collaborator.Collaborator{}, collaborator.ErrNotFound
	}
	return found[0], nil
}

func (repo collaboratorRepository) QueryCollaborators(ctx context.Context, filter collaborator.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]collaborator.Collaborator, error) {
	qb := repo.selectQuery()
	if !filter.IncludeArchived {
		qb = qb.Where(sq.Eq{"archived": 0})
	}
	if len(filter.IDs) > 0 {
		qb = qb.Where(sq.Eq{"id": filter.IDs})
	}
	if len(filter.Roles) > 0 {
		qb = qb.Where(sq.Eq{"role": filter.Roles})
	}
	if len(filter.ExcludeRoles) > 0 {
		qb = qb.Where(sq.NotEq{"role": filter.ExcludeRoles})
	}

	qb, err := collaboratorColumns.filter(qb, filter.Match)
	if err != nil {
		return nil, err
	}
	if qb, err = collaboratorColumns.orderBy(qb, ordering, "id ASC"); err != nil {
		return nil, err
	}
	return repo.query(ctx, repo.getExec(exec), qb, "querying collaborators")
}

func (repo collaboratorRepository) UpdateCollaborator(ctx context.Context, c collaborator.Collaborator, exec ...core.DBExecutor) (collaborator.Collaborator, error) {
	qb := builder.Update("collaborators").
		SetMap(map[string]interface{}{
			"full_name":     c.FullName,
			"email":         c.Email,
			"role":          c.Role,
			"password_hash": c.PasswordHash,
			"archived":      boolInt(c.Archived),
		}).
		Where(sq.Eq{"id": c.ID})
	res, err := repo.run(ctx, repo.getExec(exec), qb, "updating collaborator")
	if err != nil {
		return collaborator.Collaborator{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return collaborator.Collaborator{}, errors.Wrap(err, "updating collaborator")
	} else if n == 0 {
		return collaborator.Collaborator{}, collaborator.ErrNotFound
	}
	return c, nil
}

func (repo collaboratorRepository) DeleteCollaborators(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.run(ctx, repo.getExec(exec), builder.Delete("collaborators").Where(sq.Eq{"id": ids}), "deleting collaborators")
	return err
}
