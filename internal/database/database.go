package database

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"microblog/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

func Connect(cfg *config.Config, log *zap.Logger) (*sqlx.DB, error) {
	dsn := DSN(cfg)

	db, err := sqlx.Connect(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DBDriver == config.DriverSQLite {
		// sqlite serialises writers; one connection keeps transactions from
		// tripping over "database is locked".
		db.SetMaxOpenConns(1)
	}

	log.Info("connected to database", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// DSN builds the driver specific connection string.
func DSN(cfg *config.Config) string {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dsn := cfg.DatabaseURL
		if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk") {
			if strings.Contains(dsn, "?") {
				dsn += "&_foreign_keys=on"
			} else {
				dsn += "?_foreign_keys=on"
			}
		}
		return dsn
	default:
		if cfg.DatabaseURL != "" {
			return cfg.DatabaseURL
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
	}
}

// Migrate applies the embedded schema for the connection's dialect.
// Every statement is idempotent, so it is safe to run on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema, err := schemaFS.ReadFile("schema/" + db.DriverName() + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %q: %w", db.DriverName(), err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
