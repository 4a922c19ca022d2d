package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	for _, table := range []string{"users", "resources", "reservations"} {
		var name string
		err := sqlDB.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestOpenSQLite_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestOpenSQLite_RejectsInvertedWindow(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer sqlDB.Close()

	_, err = sqlDB.ExecContext(ctx, `INSERT INTO users (id, email, api_key_prefix, api_key_hash, created_at, updated_at) VALUES ('u1', 'a@example.com', 'p1', 'h', 0, 0)`)
	require.NoError(t, err)
	_, err = sqlDB.ExecContext(ctx, `INSERT INTO resources (id, name, created_at, updated_at) VALUES ('r1', 'spot0', 0, 0)`)
	require.NoError(t, err)

	_, err = sqlDB.ExecContext(ctx, `INSERT INTO reservations (id, resource_id, user_id, start_time, end_time, created_at, updated_at) VALUES ('x', 'r1', 'u1', 10, 5, 0, 0)`)
	assert.Error(t, err)
}

func TestOpenSQLite_RejectsQueryInPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "test.db?mode=ro")
	assert.Error(t, err)
}
