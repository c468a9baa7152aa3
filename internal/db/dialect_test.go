package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ? LIMIT ?"
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2 LIMIT $3", Postgres.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT 1", Postgres.Rebind("SELECT 1"))
}

func TestLockRow(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", Postgres.LockRow())
	assert.Empty(t, SQLite.LockRow())
}

func TestParseDialect(t *testing.T) {
	cases := map[string]Dialect{
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		"sqlite":     SQLite,
		" sqlite3 ":  SQLite,
	}
	for in, want := range cases {
		got, ok := ParseDialect(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseDialect("mysql")
	assert.False(t, ok)
}
