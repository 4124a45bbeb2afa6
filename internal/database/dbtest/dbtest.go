// Package dbtest opens throwaway sqlite databases with the schema applied.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"microblog/internal/config"
	"microblog/internal/database"
)

// Open returns a migrated database in the test's temp dir. It is closed on cleanup.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	cfg := &config.Config{
		DBDriver:    config.DriverSQLite,
		DatabaseURL: "file:" + filepath.Join(t.TempDir(), "microblog.db"),
	}

	db, err := database.Connect(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
