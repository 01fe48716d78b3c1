package inmemdb

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

type recordsRepository struct {
	db *DB
}

var _ cascade.Records = (*recordsRepository)(nil)

func NewRecordsRepository(db *DB) *recordsRepository {
	return &recordsRepository{db: db}
}

func (repo *recordsRepository) GetProfile(ctx context.Context, filter user.GetFilter) (user.Profile, error) {
	return getProfile(ctx, repo.db, filter)
}

func (repo *recordsRepository) SelectIDs(ctx context.Context, table, column string, values []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := repo.db.selectRows(table, column, values)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, fmt.Sprint(row["id"]))
	}
	return ids, nil
}

func (repo *recordsRepository) DeleteRows(ctx context.Context, table, column string, values []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return repo.db.deleteRows(table, column, values)
}

func getProfile(ctx context.Context, db *DB, filter user.GetFilter) (user.Profile, error) {
	if err := ctx.Err(); err != nil {
		return user.Profile{}, err
	}
	column, value := "id", filter.ID
	if value == "" {
		column, value = "email", filter.Email
	}
	rows, err := db.selectRows(cascade.TableProfiles, column, []string{value})
	if err != nil {
		return user.Profile{}, err
	}
	if len(rows) == 0 {
		return user.Profile{}, user.ErrNotFound
	}
	return rowToProfile(rows[0]), nil
}

// ProfileRow converts a Profile to a row of the profiles table.
func ProfileRow(p user.Profile) Row {
	row := Row{
		"id":         p.ID,
		"email":      p.Email,
		"full_name":  p.FullName,
		"role":       string(p.Role),
		"created_at": p.CreatedAt,
	}
	for col, val := range map[string]null.String{"date_of_birth": p.DateOfBirth, "phone": p.Phone, "address": p.Address} {
		if val.Valid {
			row[col] = val.String
		}
	}
	return row
}

func rowToProfile(row Row) user.Profile {
	str := func(col string) string {
		if v, ok := row[col].(string); ok {
			return v
		}
		return ""
	}
	nullStr := func(col string) null.String {
		v, ok := row[col].(string)
		return null.NewString(v, ok)
	}
	p := user.Profile{
		ID:          str("id"),
		Email:       str("email"),
		FullName:    str("full_name"),
		Role:        user.Role(str("role")),
		DateOfBirth: nullStr("date_of_birth"),
		Phone:       nullStr("phone"),
		Address:     nullStr("address"),
	}
	if t, ok := row["created_at"].(time.Time); ok {
		p.CreatedAt = t
	}
	return p
}
