package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/database/dbtest"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "postgres from parts",
			cfg: config.Config{DBDriver: "postgres", DBHost: "db", DBUser: "u", DBPassword: "p",
				DBName: "mb", DBPort: "5432", DBSSLMode: "disable"},
			want: "host=db user=u password=p dbname=mb port=5432 sslmode=disable",
		},
		{
			name: "postgres url wins",
			cfg:  config.Config{DBDriver: "postgres", DatabaseURL: "postgres://x", DBHost: "db"},
			want: "postgres://x",
		},
		{
			name: "sqlite gets foreign keys",
			cfg:  config.Config{DBDriver: "sqlite3", DatabaseURL: "file:a.db"},
			want: "file:a.db?_foreign_keys=on",
		},
		{
			name: "sqlite appends to query",
			cfg:  config.Config{DBDriver: "sqlite3", DatabaseURL: "file:a.db?cache=shared"},
			want: "file:a.db?cache=shared&_foreign_keys=on",
		},
		{
			name: "sqlite keeps explicit setting",
			cfg:  config.Config{DBDriver: "sqlite3", DatabaseURL: "file:a.db?_fk=0"},
			want: "file:a.db?_fk=0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, database.DSN(&tt.cfg))
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, database.Migrate(context.Background(), db))
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	insert := func(tx *sqlx.Tx, name string) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (username, api_key) VALUES (?, ?)`, name, name)
		return err
	}

	require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		return insert(tx, "kept")
	}))

	boom := errors.New("boom")
	err := database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		require.NoError(t, insert(tx, "discarded"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	var names []string
	require.NoError(t, db.SelectContext(ctx, &names, `SELECT username FROM users ORDER BY id`))
	require.Equal(t, []string{"kept"}, names)
}

func TestForeignKeysCascade(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	_, err := db.ExecContext(ctx, `INSERT INTO users (id, username, api_key) VALUES (1, 'a', 'a')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO tweets (id, author_id, content) VALUES (1, 1, 'hi')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = 1`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tweets`))
	require.Zero(t, n)
}
