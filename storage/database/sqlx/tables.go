package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/cascade"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

// allowedColumns lists the identifiers that may be interpolated into queries: {table: {column}}.
var allowedColumns = buildAllowedColumns()

func buildAllowedColumns() map[string]map[string]bool {
	allowed := map[string]map[string]bool{
		cascade.TableProfiles:      {"id": true, "email": true},
		cascade.TableAdminMessages: {"id": true},
	}
	add := func(table, column string) {
		if table == "" || column == "" {
			return
		}
		if allowed[table] == nil {
			allowed[table] = make(map[string]bool)
		}
		allowed[table][column] = true
	}
	for _, role := range append(user.AllRoles, "") {
		for _, step := range cascade.Plan(role) {
			add(step.Table, step.Column)
			if step.Kind == cascade.KindFetch {
				add(step.Table, "id")
			}
		}
	}
	return allowed
}

func checkIdentifiers(table, column string) error {
	if cols, ok := allowedColumns[table]; ok && cols[column] {
		return nil
	}
	return errors.Errorf("unknown column %s.%s", table, column)
}

func isEmailColumn(column string) bool {
	return column == "email" || strings.HasSuffix(column, "_email")
}

// whereIn returns the `<column> IN (?)` condition and its args, comparing emails case-insensitively.
func whereIn(column string, values []string) (string, []string) {
	if !isEmailColumn(column) {
		return column + " IN (?)", values
	}
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		lowered = append(lowered, strings.ToLower(v))
	}
	return "lower(" + column + ") IN (?)", lowered
}

func upstream(op string, err error) error {
	return core.NewUpstreamError("database", op, err)
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, op string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return upstream(op, err)
}
