package store

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database.
	db.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() { db.Close() })
	return db
}
