// Package sqlxrepos implements the repositories over the Relational Store (Supabase Postgres).
package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

type recordsRepository struct {
	db core.DBExecutor
}

var _ cascade.Records = (*recordsRepository)(nil)

func NewRecordsRepository(db core.DBExecutor) *recordsRepository {
	return &recordsRepository{db: db}
}

func (repo *recordsRepository) GetProfile(ctx context.Context, filter user.GetFilter) (user.Profile, error) {
	return getProfile(ctx, repo.db, filter)
}

func (repo *recordsRepository) SelectIDs(ctx context.Context, table, column string, values []string) ([]string, error) {
	if err := checkIdentifiers(table, column); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	cond, args := whereIn(column, values)
	q, qargs, err := sqlx.In(fmt.Sprintf("SELECT id FROM %s WHERE %s", table, cond), args)
	if err != nil {
		return nil, upstream("building select", err)
	}

	ids := make([]string, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &ids, repo.db.Rebind(q), qargs...); err != nil {
		return nil, upstream("selecting "+table, err)
	}
	return ids, nil
}

func (repo *recordsRepository) DeleteRows(ctx context.Context, table, column string, values []string) (int64, error) {
	if err := checkIdentifiers(table, column); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	cond, args := whereIn(column, values)
	q, qargs, err := sqlx.In(fmt.Sprintf("DELETE FROM %s WHERE %s", table, cond), args)
	if err != nil {
		return 0, upstream("building delete", err)
	}

	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), qargs...)
	if err != nil {
		return 0, upstream("deleting from "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, upstream("deleting from "+table, err)
	}
	return n, nil
}
