package iocache

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/homerank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteBackendOperations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewCacheStore(rankingTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t.Run("missing key", func(t *testing.T) {
		_, _, _, err := store.Get("absent")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte(`{"ranking":[]}`), 1, 1700000000))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"ranking":[]}`), value)
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1700000000), ts)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte("v2"), 2, 1700000100))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), value)
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(1700000100), ts)
	})
}

func TestCacheStoreGetStatus(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		store, err := NewCacheStore(rankingTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "status.db"))
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 0, status.TotalEntries)

		require.NoError(t, store.Set("a", []byte("1"), 1, 100))
		require.NoError(t, store.Set("b", []byte("2"), 1, 300))

		status, err = store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(300, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(100, 0), status.OldestEntryTime)
		assert.Positive(t, status.TableSizeBytes)
	})

	t.Run("none", func(t *testing.T) {
		store, err := NewCacheStore(rankingTable, schema.NoneBackend, "")
		require.NoError(t, err)
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "none", status.Backend)
		assert.False(t, status.Connected)
	})
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(rankingTable, schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("anything")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("anything", []byte("x"), 1, 1))
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		backend schema.DatabaseBackend
		connStr string
		errText string
	}{
		{name: "invalid table", table: "bad-table", backend: schema.SQLiteBackend, errText: "invalid table name"},
		{name: "empty table", table: "", backend: schema.SQLiteBackend, errText: "cannot be empty"},
		{name: "unsupported backend", table: rankingTable, backend: "redis", errText: "unsupported backend"},
		{name: "unreachable path", table: rankingTable, backend: schema.SQLiteBackend, connStr: "/nonexistent/dir/cache.db", errText: "failed to connect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCacheStore(tt.table, tt.backend, tt.connStr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    []string
	}{
		{schema.SQLiteBackend, []string{"INSERT OR REPLACE", `"ranking_cache"`, "?, ?, ?, ?"}},
		{schema.MySQLBackend, []string{"ON DUPLICATE KEY UPDATE", "`ranking_cache`", "?, ?, ?, ?"}},
		{schema.PostgreSQLBackend, []string{"ON CONFLICT (cache_key)", `"ranking_cache"`, "$1, $2, $3, $4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			ps := &CacheStoreImpl{tableName: rankingTable, backend: tt.backend}
			query := ps.getUpsertQuery()
			for _, fragment := range tt.want {
				assert.Contains(t, query, fragment)
			}
		})
	}
}

func TestGetCreateTableQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		blobType string
	}{
		{schema.SQLiteBackend, "BLOB"},
		{schema.MySQLBackend, "LONGBLOB"},
		{schema.PostgreSQLBackend, "BYTEA"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			query := getCreateTableQuery(rankingTable, tt.backend)
			assert.True(t, strings.Contains(query, "CREATE TABLE IF NOT EXISTS"))
			assert.Contains(t, query, "cache_value "+tt.blobType)
			assert.Contains(t, query, "cache_key")
		})
	}
}
