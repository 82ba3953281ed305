// Package sqlxrepos implements the domain repositories on sqlx + PostgreSQL.
package sqlxrepos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/talaan-ph/talaan/core"
)

// executor resolves the sqlx executor for a call: the transaction passed by
// the service when there is one, the repository's pool otherwise.
func executor(db *sqlx.DB, exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 {
		if tx, ok := exec[0].(*sqlx.Tx); ok {
			return tx
		}
	}
	return db
}

// orderBy renders an ORDER BY clause from orderings, falling back to def.
// Field names come from repository code, never from user input.
func orderBy(ordering []core.DBOrdering, def string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + def
	}
	parts := make([]string, len(ordering))
	for i, ord := range ordering {
		parts[i] = ord.String()
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
