package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url        string
		driver     string
		dataSource string
		wantErr    bool
	}{
		{"sqlite://journal.db", DriverSQLite, "journal.db", false},
		{"sqlite://data/journal.db", DriverSQLite, "data/journal.db", false},
		{"sqlite:///var/lib/sk/journal.db", DriverSQLite, "/var/lib/sk/journal.db", false},
		{"sqlite:///tmp/j.db?_busy_timeout=5000", DriverSQLite, "/tmp/j.db?_busy_timeout=5000", false},
		{"postgres://u:p@localhost:5432/sk?sslmode=disable", DriverPostgres, "postgres://u:p@localhost:5432/sk?sslmode=disable", false},
		{"sqlite://", "", "", true},
		{"mysql://localhost/sk", "", "", true},
		{"://bad", "", "", true},
	}
	for _, tt := range tests {
		driver, ds, err := ParseURL(tt.url)
		if tt.wantErr {
			assert.Error(t, err, "ParseURL(%q)", tt.url)
			continue
		}
		require.NoError(t, err, "ParseURL(%q)", tt.url)
		assert.Equal(t, tt.driver, driver, "ParseURL(%q) driver", tt.url)
		assert.Equal(t, tt.dataSource, ds, "ParseURL(%q) data source", tt.url)
	}
}

func TestMigrateUp(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, MigrateUp(ctx, db))
	for _, table := range []string{"runs", "designs", "bouquets", "api_keys"} {
		var n int
		assert.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table), "table %s", table)
	}

	// Second run is a no-op.
	require.NoError(t, MigrateUp(ctx, db))
}

func TestMigrateStatus(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	statuses, err := MigrateStatus(ctx, db)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.False(t, s.Applied, "migration %s applied before MigrateUp", s.ID)
		assert.Len(t, s.Checksum, 64, "migration %s checksum", s.ID)
	}
	assert.Equal(t, "001_journal.sql", statuses[0].ID)
	assert.Equal(t, "002_api_keys.sql", statuses[1].ID)

	require.NoError(t, MigrateUp(ctx, db))

	statuses, err = MigrateStatus(ctx, db)
	require.NoError(t, err)
	for _, s := range statuses {
		assert.True(t, s.Applied, "migration %s", s.ID)
		assert.NotNil(t, s.AppliedAt, "migration %s", s.ID)
	}
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, MigrateUp(ctx, db))
	_, err := db.Exec("UPDATE migrations SET checksum = 'tampered' WHERE migration_id = '001_journal.sql'")
	require.NoError(t, err)

	assert.ErrorIs(t, MigrateUp(ctx, db), ErrChecksumMismatch)
}

func TestMigrateUp_UnknownMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, MigrateUp(ctx, db))
	_, err := db.Exec(
		"INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)",
		"999_future.sql", "x", time.Now().UTC(), 0)
	require.NoError(t, err)

	assert.Error(t, MigrateUp(ctx, db), "migration missing from embedded files")
}

func TestSplitStatements(t *testing.T) {
	sql := "-- header; with semicolon\nCREATE TABLE a (x INT);\n\n-- note\nCREATE INDEX i ON a (x);\n"
	got := splitStatements(sql)
	require.Len(t, got, 2)
	assert.Equal(t, "CREATE TABLE a (x INT)", got[0])
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, MigrateUp(ctx, db))

	q, err := LoadQueries(db)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	_, err = q.Exec(ctx, "insert-run", "run-1", "numeric", now)
	require.NoError(t, err)

	var run struct {
		RunID  string `db:"run_id"`
		Reclip string `db:"reclip"`
		Status string `db:"status"`
		Stems  int    `db:"stems"`
	}
	require.NoError(t, q.DB().GetContext(ctx, &run,
		"SELECT run_id, reclip, status, stems FROM runs WHERE run_id = ?", "run-1"))
	assert.Equal(t, "running", run.Status)
	assert.Equal(t, "numeric", run.Reclip)

	_, err = q.Exec(ctx, "no-such-query")
	assert.Error(t, err)
}
