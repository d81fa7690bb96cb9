package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/patchrisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals lets a test run InitStores and CloseStores again.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	t.Cleanup(func() {
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		analysisPath := filepath.Join(dir, "analysis.db")

		err := InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, analysisPath)
		require.NoError(t, err)

		assert.NotNil(t, Manager.GetArtifactStore())
		assert.NotNil(t, Manager.GetAnalysisStore())
		CloseStores()

		_, err = os.Stat(cachePath)
		assert.NoError(t, err, "cache file should be created")
		_, err = os.Stat(analysisPath)
		assert.NoError(t, err, "analysis file should be created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals(t)
		path := filepath.Join(t.TempDir(), "cache.db")

		for range 3 {
			assert.NoError(t, InitStores(schema.SQLiteBackend, path, "", ""))
		}
		assert.Nil(t, Manager.GetAnalysisStore(), "empty analysis backend leaves tracking off")

		CloseStores()
		CloseStores()
	})

	t.Run("none backend", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))

		store := Manager.GetArtifactStore()
		require.NotNil(t, store)
		_, _, _, err := store.Get("1/probs.json")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		CloseStores()
	})

	t.Run("bad mysql connection", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.MySQLBackend, "invalid://connection", "", "")
		assert.Error(t, err)
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{"valid simple name", "artifact_cache", false},
		{"valid name with numbers", "cache_123", false},
		{"valid name starting with underscore", "_cache", false},
		{"valid uppercase name", "CACHE", false},
		{"empty name", "", true},
		{"starts with number", "123_cache", true},
		{"contains dash", "artifact-cache", true},
		{"contains space", "artifact cache", true},
		{"sql injection attempt", "x'; DROP TABLE users; --", true},
		{"contains dot", "main.cache", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"artifact_cache"`, quoteTableName("artifact_cache", schema.SQLiteBackend))
	assert.Equal(t, "`artifact_cache`", quoteTableName("artifact_cache", schema.MySQLBackend))
	assert.Equal(t, `"artifact_cache"`, quoteTableName("artifact_cache", schema.PostgreSQLBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"?", "?"}, placeholders(schema.SQLiteBackend, 2))
	assert.Equal(t, []string{"?"}, placeholders(schema.MySQLBackend, 1))
	assert.Equal(t, []string{"$1", "$2", "$3"}, placeholders(schema.PostgreSQLBackend, 3))
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		parts   []string
	}{
		{schema.SQLiteBackend, []string{"INSERT OR REPLACE", `"artifact_cache"`, "VALUES (?, ?, ?, ?)"}},
		{schema.MySQLBackend, []string{"ON DUPLICATE KEY UPDATE", "`artifact_cache`", "AS new"}},
		{schema.PostgreSQLBackend, []string{"ON CONFLICT (cache_key)", "EXCLUDED.cache_value", "VALUES ($1, $2, $3, $4)"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &CacheStoreImpl{tableName: artifactTable, backend: tt.backend}
			query := store.getUpsertQuery()
			for _, part := range tt.parts {
				assert.Contains(t, query, part)
			}
		})
	}
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery(artifactTable, schema.SQLiteBackend), "cache_value BLOB")
	assert.Contains(t, getCreateTableQuery(artifactTable, schema.MySQLBackend), "cache_value LONGBLOB")
	assert.Contains(t, getCreateTableQuery(artifactTable, schema.PostgreSQLBackend), "cache_value BYTEA")
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		assert.True(t, strings.Contains(getCreateTableQuery(artifactTable, backend), "IF NOT EXISTS"))
	}
}

func TestSQLiteBackendOperations(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		store, err := NewCacheStore(artifactTable, schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		payload := []byte(`[0.2, 0.8]`)
		require.NoError(t, store.Set("1234/probs.json", payload, 1, 1234567890))

		value, version, ts, err := store.Get("1234/probs.json")
		require.NoError(t, err)
		assert.Equal(t, payload, value)
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1234567890), ts)
	})

	t.Run("upsert", func(t *testing.T) {
		store, err := NewCacheStore(artifactTable, schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Set("k", []byte("old"), 1, 1000))
		require.NoError(t, store.Set("k", []byte("new"), 2, 2000))

		value, version, ts, err := store.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "new", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(2000), ts)
	})

	t.Run("miss", func(t *testing.T) {
		store, err := NewCacheStore(artifactTable, schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		_, _, _, err = store.Get("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestNoneBackendOperations(t *testing.T) {
	store, err := NewCacheStore(artifactTable, schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows, "none backend never stores")
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)

	_, err = NewCacheStore(artifactTable, "oracle", "")
	assert.ErrorContains(t, err, "unsupported cache backend")
}

func TestClearCache(t *testing.T) {
	t.Run("SQLite backend", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "clear.db")
		store, err := NewCacheStore(artifactTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("SQLite backend with missing file", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("empty path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearAnalysis(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache("unsupported", "", ""))
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))
	defer CloseStores()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			store := Manager.GetArtifactStore()
			if store == nil {
				t.Errorf("goroutine %d: nil artifact store", i)
				return
			}
			if err := store.Set("shared", []byte("value"), 1, int64(1000+i)); err != nil {
				t.Errorf("goroutine %d: Set failed: %v", i, err)
			}
		})
	}
	wg.Wait()
}

func TestCacheStoreGetStatus(t *testing.T) {
	t.Run("with data", func(t *testing.T) {
		store, err := NewCacheStore(artifactTable, schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		for key, ts := range map[string]int64{"1/probs.json": 1000, "2/probs.json": 2000, "3/probs.json": 1500} {
			require.NoError(t, store.Set(key, []byte("x"), 1, ts))
		}

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 3, status.TotalEntries)
		assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
		assert.Greater(t, status.TableSizeBytes, int64(0))
	})

	t.Run("empty", func(t *testing.T) {
		store, err := NewCacheStore(artifactTable, schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, 0, status.TotalEntries)
		assert.True(t, status.LastEntryTime.IsZero())
		assert.Equal(t, int64(0), status.TableSizeBytes)
	})

	t.Run("none backend", func(t *testing.T) {
		store, err := NewCacheStore(artifactTable, schema.NoneBackend, "")
		require.NoError(t, err)

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "none", status.Backend)
		assert.False(t, status.Connected)
	})
}

func TestNullTimeScan(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		src   any
		valid bool
	}{
		{"nil", nil, false},
		{"native", want, true},
		{"rfc3339 text", "2026-03-01T12:30:00Z", true},
		{"mysql bytes", []byte("2026-03-01 12:30:00.000000"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nt nullTime
			require.NoError(t, nt.Scan(tt.src))
			assert.Equal(t, tt.valid, nt.Valid)
			if tt.valid {
				assert.True(t, want.Equal(nt.Time))
				assert.NotNil(t, nt.Ptr())
			} else {
				assert.Nil(t, nt.Ptr())
			}
		})
	}

	var nt nullTime
	assert.Error(t, nt.Scan("yesterday"))
	assert.Error(t, nt.Scan(42))
}
