package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/homerank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// resetManager clears the package globals between tests.
func resetManager(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(func() {
		CloseCaching()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestInitCaching(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetManager(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		analysisPath := filepath.Join(dir, "analysis.db")

		require.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, analysisPath))
		assert.NotNil(t, Manager.GetActivityStore())
		assert.NotNil(t, Manager.GetAnalysisStore())

		CloseCaching()
		_, err := os.Stat(cachePath)
		assert.NoError(t, err)
		_, err = os.Stat(analysisPath)
		assert.NoError(t, err)
	})

	t.Run("idempotent", func(t *testing.T) {
		resetManager(t)
		cachePath := filepath.Join(t.TempDir(), "cache.db")
		for range 3 {
			assert.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, "", ""))
		}
		assert.Nil(t, Manager.GetAnalysisStore())
		CloseCaching()
		CloseCaching()
	})

	t.Run("none backend", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitCaching(schema.NoneBackend, "", schema.NoneBackend, ""))
		assert.NotNil(t, Manager.GetActivityStore())
		assert.NotNil(t, Manager.GetAnalysisStore())
	})

	t.Run("analysis failure closes cache", func(t *testing.T) {
		resetManager(t)
		err := InitCaching(schema.NoneBackend, "", schema.DatabaseBackend("bogus"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize analysis store")
		assert.Nil(t, Manager.GetActivityStore())
	})

	t.Run("cache failure", func(t *testing.T) {
		resetManager(t)
		err := InitCaching(schema.DatabaseBackend("bogus"), "", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize ranking cache")
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetManager(t)
	require.NoError(t, InitCaching(schema.NoneBackend, "", schema.NoneBackend, ""))

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			assert.NotNil(t, Manager.GetActivityStore())
			assert.NotNil(t, Manager.GetAnalysisStore())
		})
	}
	wg.Wait()
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "ranking_cache", false},
		{"leading underscore", "_cache", false},
		{"digits", "cache2", false},
		{"empty", "", true},
		{"leading digit", "2cache", true},
		{"dash", "ranking-cache", true},
		{"injection", "cache; DROP TABLE users", true},
		{"quote", `cache"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"ranking_cache"`, quoteTableName(rankingTable, schema.SQLiteBackend))
	assert.Equal(t, `"ranking_cache"`, quoteTableName(rankingTable, schema.PostgreSQLBackend))
	assert.Equal(t, "`ranking_cache`", quoteTableName(rankingTable, schema.MySQLBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"?", "?", "?"}, placeholders(schema.SQLiteBackend, 3))
	assert.Equal(t, []string{"?", "?"}, placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, []string{"$1", "$2", "$3"}, placeholders(schema.PostgreSQLBackend, 3))
	assert.Empty(t, placeholders(schema.PostgreSQLBackend, 0))
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(rankingTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "missing.db"), ""))
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearAnalysis(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, ClearAnalysis(schema.DatabaseBackend("bogus"), "", ""))
	})
}

func TestExportAnalysis(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		_, err := ExportAnalysis(&MockAnalysisStore{}, "")
		assert.Error(t, err)
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := ExportAnalysis(nil, "out")
		assert.Error(t, err)
	})

	t.Run("no runs", func(t *testing.T) {
		store := &MockAnalysisStore{}
		store.On("GetStatus").Return(schema.AnalysisStatus{Connected: true}, nil)
		_, err := ExportAnalysis(store, filepath.Join(t.TempDir(), "out"))
		assert.ErrorContains(t, err, "no analysis data")
		store.AssertExpectations(t)
	})

	t.Run("writes both files", func(t *testing.T) {
		store := newSQLiteAnalysisStore(t)
		id, err := store.BeginAnalysis("export", testTime, map[string]any{"limit": 10})
		require.NoError(t, err)
		require.NoError(t, store.RecordItemScore(id, "P-1", schema.ItemScore{AnalysisTime: testTime, Rank: 1, Score: 0.9, Label: schema.ExcellentValue}))
		require.NoError(t, store.EndAnalysis(id, testTime, 1))

		base := filepath.Join(t.TempDir(), "history")
		files, err := ExportAnalysis(store, base)
		require.NoError(t, err)
		assert.Equal(t, base+".analysis_runs.parquet", files.AnalysisRuns)
		assert.Equal(t, base+".item_scores.parquet", files.ItemScores)
		for _, f := range []string{files.AnalysisRuns, files.ItemScores} {
			info, err := os.Stat(f)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		}
	})
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.Contains(t, buf.String(), "Cache Backend: none")
	assert.NotContains(t, buf.String(), "Total Entries")

	buf.Reset()
	PrintAnalysisStatus(&buf, schema.AnalysisStatus{
		Backend:          "sqlite",
		Connected:        true,
		TotalRuns:        2,
		LastRunKey:       "abc",
		TotalItemsRanked: 20,
		TableSizes:       map[string]int64{itemScoresTable: 20, analysisRunsTable: 2},
	})
	out := buf.String()
	assert.Contains(t, out, "Total Runs: 2")
	assert.Contains(t, out, "(abc)")
	assert.Contains(t, out, "Total Items Ranked: 20")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(analysisRunsTable)), bytes.Index(buf.Bytes(), []byte(itemScoresTable)))
}
