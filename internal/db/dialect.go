// Package db opens the PostgreSQL or SQLite database backing the mockup
// store and provides the transaction and maintenance helpers around it.
package db

import (
	"strconv"
	"strings"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	// Postgres is the PostgreSQL backend (lib/pq).
	Postgres Dialect = "postgres"
	// SQLite is the embedded SQLite backend (modernc.org/sqlite).
	SQLite Dialect = "sqlite"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(name string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return Postgres, true
	case "sqlite", "sqlite3":
		return SQLite, true
	}
	return "", false
}

// Rebind rewrites "?" placeholders into the dialect's positional form.
// Queries are written with "?" and must not contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// LockRow returns the row-locking suffix for a SELECT inside a transaction.
// SQLite serializes writers on its own and has no row locks.
func (d Dialect) LockRow() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}
