package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/internal/iocache"
	"github.com/huangsam/homerank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const housingCSV = `Kode Properti,Sertifikat,Kecamatan,Price,Price_Sudah,Kamar Tidur,Ruang Tamu,Kondisi Properti
P1,SHM - Sertifikat Hak Milik,Rungkut,1500000000,1500,3,1,4
P2,HGB - Hak Guna Bangunan,Sukolilo,900000000,900,2,0,2
P3,SHM - Sertifikat Hak Milik,Gubeng,2000000000,2000,4,1,3
`

// writeDataset stores content as a CSV file in a temporary directory.
func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "housing.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(datasetPath string) *contract.Config {
	return &contract.Config{
		DatasetPath: datasetPath,
		ResultLimit: 10,
		Precision:   4,
		Output:      schema.CSVOut,
		Ideals:      schema.IdealsByDirection,
		Registry:    schema.DefaultRegistry(),
		Criteria: []schema.Criterion{
			{Name: schema.ColumnPriceScaled, Direction: schema.Cost, Weight: 40},
			{Name: schema.ColumnBedrooms, Direction: schema.Benefit, Weight: 30},
			{Name: schema.ColumnCondition, Direction: schema.Benefit, Weight: 30},
		},
		CacheBackend: schema.NoneBackend,
	}
}

// noStores returns a manager without cache or analysis stores.
func noStores() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(nil)
	return mgr
}

func TestPrepareInput(t *testing.T) {
	path := writeDataset(t, housingCSV)

	tests := []struct {
		name                   string
		content                string
		mutate                 func(cfg *contract.Config)
		wantErr                error
		wantRows               int
		wantActive             int
		wantDiagnosticContains string
	}{
		{
			name:       "all rows and criteria",
			wantRows:   3,
			wantActive: 3,
		},
		{
			name:       "certificate filter",
			mutate:     func(cfg *contract.Config) { cfg.Certificates = []string{"SHM - Sertifikat Hak Milik"} },
			wantRows:   2,
			wantActive: 3,
		},
		{
			name:    "certificate filter without matches",
			mutate:  func(cfg *contract.Config) { cfg.Certificates = []string{"HP - Hak Pakai"} },
			wantErr: schema.ErrEmptyDataset,
		},
		{
			name:       "row limit",
			mutate:     func(cfg *contract.Config) { cfg.RowLimit = 1 },
			wantRows:   1,
			wantActive: 3,
		},
		{
			name: "missing criterion is dropped",
			mutate: func(cfg *contract.Config) {
				cfg.Criteria = append(cfg.Criteria, schema.Criterion{Name: schema.ColumnLandArea, Direction: schema.Benefit, Weight: 10})
			},
			wantRows:               3,
			wantActive:             3,
			wantDiagnosticContains: schema.ColumnLandArea,
		},
		{
			name: "no criterion present",
			mutate: func(cfg *contract.Config) {
				cfg.Criteria = []schema.Criterion{{Name: schema.ColumnLandArea, Direction: schema.Benefit, Weight: 1}}
			},
			wantErr: schema.ErrInvalidInput,
		},
		{
			name: "certificate column missing skips the filter",
			content: `Kode Properti,Price_Sudah,Kamar Tidur,Kondisi Properti
A,100,2,1
B,200,3,2
`,
			mutate:                 func(cfg *contract.Config) { cfg.Certificates = []string{"SHM - Sertifikat Hak Milik"} },
			wantRows:               2,
			wantActive:             3,
			wantDiagnosticContains: "filter skipped",
		},
		{
			name: "value outside registry range",
			content: `Kode Properti,Price_Sudah,Kamar Tidur,Kondisi Properti
A,100,2,7
`,
			wantErr: schema.ErrInvalidInput,
		},
		{
			name: "condition code zero on a selected criterion",
			content: `Kode Properti,Price_Sudah,Kamar Tidur,Kondisi Properti
A,100,2,3
B,200,3,0
`,
			wantErr: schema.ErrInvalidInput,
		},
		{
			name: "condition code outside range on an unselected column",
			content: `Kode Properti,Price_Sudah,Kamar Tidur,Kondisi Properti
A,100,2,5
B,200,3,0
`,
			mutate: func(cfg *contract.Config) {
				cfg.Criteria = cfg.Criteria[:2]
			},
			wantRows:   2,
			wantActive: 2,
		},
		{
			name: "identifier column missing",
			content: `Price_Sudah,Kamar Tidur
100,2
`,
			wantErr: schema.ErrMissingColumn,
		},
		{
			name:    "header only",
			content: "Kode Properti,Price_Sudah\n",
			wantErr: schema.ErrEmptyDataset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			datasetPath := path
			if tt.content != "" {
				datasetPath = writeDataset(t, tt.content)
			}
			cfg := testConfig(datasetPath)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			in, err := prepareInput(cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, in.dataset.Len())
			assert.Len(t, in.criteria, tt.wantActive)
			assert.NotEmpty(t, in.fingerprint)
			if tt.wantDiagnosticContains != "" {
				require.Len(t, in.diagnostics, 1)
				assert.Contains(t, in.diagnostics[0], tt.wantDiagnosticContains)
			} else {
				assert.Empty(t, in.diagnostics)
			}
		})
	}
}

func TestPrepareInputMissingFile(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.csv"))
	_, err := prepareInput(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read dataset")
}

func TestGenerateCacheKey(t *testing.T) {
	path := writeDataset(t, housingCSV)
	cfg := testConfig(path)
	cfg.Certificates = []string{"SHM - Sertifikat Hak Milik", "HGB - Hak Guna Bangunan"}
	in, err := prepareInput(cfg)
	require.NoError(t, err)

	base := generateCacheKey(cfg, in)
	assert.Len(t, base, 64)
	assert.Equal(t, base, generateCacheKey(cfg, in))

	reordered := cfg.Clone()
	reordered.Certificates = []string{"HGB - Hak Guna Bangunan", "SHM - Sertifikat Hak Milik"}
	assert.Equal(t, base, generateCacheKey(reordered, in), "certificate order must not matter")
	assert.Equal(t, "SHM - Sertifikat Hak Milik", cfg.Certificates[0], "config must not be reordered")

	tests := []struct {
		name   string
		mutate func(cfg *contract.Config, in *preparedInput)
	}{
		{name: "row limit", mutate: func(cfg *contract.Config, _ *preparedInput) { cfg.RowLimit = 2 }},
		{name: "ideals", mutate: func(cfg *contract.Config, _ *preparedInput) { cfg.Ideals = schema.IdealsByNormalized }},
		{name: "fingerprint", mutate: func(_ *contract.Config, in *preparedInput) { in.fingerprint = "other" }},
		{name: "weights", mutate: func(_ *contract.Config, in *preparedInput) {
			in.criteria = append([]schema.Criterion(nil), in.criteria...)
			in.criteria[0].Weight = 99
		}},
		{name: "registry", mutate: func(cfg *contract.Config, _ *preparedInput) {
			reg := schema.DefaultRegistry()
			reg.DisplayColumns = nil
			cfg.Registry = reg
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgCopy := cfg.Clone()
			inCopy := *in
			tt.mutate(cfgCopy, &inCopy)
			assert.NotEqual(t, base, generateCacheKey(cfgCopy, &inCopy))
		})
	}
}

func TestCachedPipeline(t *testing.T) {
	path := writeDataset(t, housingCSV)
	cfg := testConfig(path)
	in, err := prepareInput(cfg)
	require.NoError(t, err)
	key := generateCacheKey(cfg, in)

	fresh, err := runPipeline(cfg, in)
	require.NoError(t, err)
	freshJSON, err := json.Marshal(fresh)
	require.NoError(t, err)

	t.Run("no manager", func(t *testing.T) {
		result, err := cachedPipeline(cfg, in, nil)
		require.NoError(t, err)
		assert.Equal(t, fresh.Ranking, result.Ranking)
	})

	t.Run("miss stores the result", func(t *testing.T) {
		store := &iocache.MockCacheStore{}
		store.On("Get", key).Return(nil, 0, int64(0), sql.ErrNoRows)
		store.On("Set", key, freshJSON, currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetActivityStore").Return(store)

		result, err := cachedPipeline(cfg, in, mgr)
		require.NoError(t, err)
		assert.Equal(t, fresh.Ranking, result.Ranking)
		store.AssertExpectations(t)
	})

	t.Run("hit skips computation", func(t *testing.T) {
		cached := *fresh
		cached.Diagnostics = []string{"from cache"}
		data, err := json.Marshal(&cached)
		require.NoError(t, err)

		store := &iocache.MockCacheStore{}
		store.On("Get", key).Return(data, currentCacheVersion, time.Now().Unix(), nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetActivityStore").Return(store)

		result, err := cachedPipeline(cfg, in, mgr)
		require.NoError(t, err)
		assert.Equal(t, []string{"from cache"}, result.Diagnostics)
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	staleCases := []struct {
		name    string
		version int
		ts      int64
	}{
		{name: "stale entry", version: currentCacheVersion, ts: time.Now().Add(-cacheTTL - time.Hour).Unix()},
		{name: "version mismatch", version: currentCacheVersion + 1, ts: time.Now().Unix()},
	}
	for _, tc := range staleCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", key).Return([]byte(`{"ranking":[]}`), tc.version, tc.ts, nil)
			store.On("Set", key, mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)
			mgr := &iocache.MockCacheManager{}
			mgr.On("GetActivityStore").Return(store)

			result, err := cachedPipeline(cfg, in, mgr)
			require.NoError(t, err)
			assert.Len(t, result.Ranking, 3)
			store.AssertCalled(t, "Set", key, mock.Anything, currentCacheVersion, mock.AnythingOfType("int64"))
		})
	}

	t.Run("failed store write keeps the result", func(t *testing.T) {
		store := &iocache.MockCacheStore{}
		store.On("Get", key).Return(nil, 0, int64(0), sql.ErrNoRows)
		store.On("Set", key, mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).Return(assert.AnError)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetActivityStore").Return(store)

		result, err := cachedPipeline(cfg, in, mgr)
		require.NoError(t, err)
		assert.Len(t, result.Ranking, 3)
	})
}

func TestRunRankingCoreTracksScores(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := testConfig(writeDataset(t, housingCSV))

	analysis := &iocache.MockAnalysisStore{}
	analysis.On("BeginAnalysis", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(7), nil)
	analysis.On("RecordItemScore", int64(7), mock.AnythingOfType("string"), mock.AnythingOfType("schema.ItemScore")).Return(nil)
	analysis.On("EndAnalysis", int64(7), mock.AnythingOfType("time.Time"), 3).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(analysis)

	result, err := runRankingCore(ctx, cfg, mgr)
	require.NoError(t, err)
	require.Len(t, result.Ranking, 3)

	analysis.AssertExpectations(t)
	analysis.AssertNumberOfCalls(t, "RecordItemScore", 3)

	first := analysis.Calls[1] // after BeginAnalysis
	assert.Equal(t, result.Ranking[0].ID, first.Arguments.String(1))
	score := first.Arguments.Get(2).(schema.ItemScore)
	assert.Equal(t, 1, score.Rank)
	assert.Equal(t, result.Ranking[0].Score, score.Score)
	assert.Equal(t, schema.GetPlainLabel(result.Ranking[0].Score), score.Label)

	params := analysis.Calls[0].Arguments.Get(2).(map[string]any)
	assert.Equal(t, cfg.DatasetPath, params["dataset"])
	assert.Equal(t, "direction", params["ideals"])
	assert.NotEmpty(t, params["fingerprint"])
}

func TestRunRankingCoreTrackingFailures(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := testConfig(writeDataset(t, housingCSV))

	t.Run("begin fails", func(t *testing.T) {
		analysis := &iocache.MockAnalysisStore{}
		analysis.On("BeginAnalysis", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), assert.AnError)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetActivityStore").Return(nil)
		mgr.On("GetAnalysisStore").Return(analysis)

		result, err := runRankingCore(ctx, cfg, mgr)
		require.NoError(t, err)
		assert.Len(t, result.Ranking, 3)
		analysis.AssertNotCalled(t, "RecordItemScore", mock.Anything, mock.Anything, mock.Anything)
		analysis.AssertNotCalled(t, "EndAnalysis", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("record fails once", func(t *testing.T) {
		analysis := &iocache.MockAnalysisStore{}
		analysis.On("BeginAnalysis", mock.Anything, mock.Anything, mock.Anything).Return(int64(3), nil)
		analysis.On("RecordItemScore", int64(3), mock.Anything, mock.Anything).Return(assert.AnError)
		analysis.On("EndAnalysis", int64(3), mock.Anything, 3).Return(nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetActivityStore").Return(nil)
		mgr.On("GetAnalysisStore").Return(analysis)

		_, err := runRankingCore(ctx, cfg, mgr)
		require.NoError(t, err)
		analysis.AssertNumberOfCalls(t, "RecordItemScore", 1)
		analysis.AssertExpectations(t)
	})
}

func TestRunRankingCoreMergesDiagnostics(t *testing.T) {
	content := `Kode Properti,Price_Sudah,Kamar Tidur,Kondisi Properti
A,0,2,1
B,200,3,2
`
	cfg := testConfig(writeDataset(t, content))
	cfg.Certificates = []string{"SHM - Sertifikat Hak Milik"}

	result, err := runRankingCore(WithSuppressHeader(context.Background()), cfg, noStores())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Diagnostics), 2)
	assert.Contains(t, result.Diagnostics[0], "filter skipped")
	assert.Contains(t, strings.Join(result.Diagnostics[1:], "\n"), schema.ErrDegenerateArithmetic.Error())
}

func TestGetRankResultsIsIdempotent(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := testConfig(writeDataset(t, housingCSV))

	first, _, err := GetRankResults(ctx, cfg, noStores())
	require.NoError(t, err)
	second, _, err := GetRankResults(ctx, cfg, noStores())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGetRankResultsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := GetRankResults(ctx, testConfig("unused.csv"), noStores())
	require.ErrorIs(t, err, context.Canceled)
}

func TestExecuteRankWritesOutput(t *testing.T) {
	cfg := testConfig(writeDataset(t, housingCSV))
	cfg.OutputFile = filepath.Join(t.TempDir(), "ranking.csv")
	cfg.ResultLimit = 2

	require.NoError(t, ExecuteRank(WithSuppressHeader(context.Background()), cfg, noStores()))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "rank,"))
}

func TestGetCriteriaResults(t *testing.T) {
	ctx := context.Background()

	t.Run("with dataset", func(t *testing.T) {
		cfg := testConfig(writeDataset(t, housingCSV))
		cfg.Criteria = append(cfg.Criteria, schema.Criterion{Name: schema.ColumnLandArea, Direction: schema.Benefit, Weight: 0})

		overview, err := GetCriteriaResults(ctx, cfg)
		require.NoError(t, err)
		assert.Len(t, overview.Criteria, 10)
		require.Len(t, overview.Selected, 4)

		var sum float64
		for _, c := range overview.Selected {
			sum += c.Weight
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.InDelta(t, 0.4, overview.Selected[0].Weight, 1e-9)
		// Raw config weights are untouched
		assert.Equal(t, 40.0, cfg.Criteria[0].Weight)

		require.NotNil(t, overview.Dataset)
		assert.Equal(t, 3, overview.Dataset.Rows)
		assert.Equal(t, map[string]int{
			"SHM - Sertifikat Hak Milik": 2,
			"HGB - Hak Guna Bangunan":    1,
		}, overview.Dataset.CertificateCounts)
		assert.Equal(t, []string{schema.ColumnLandArea}, overview.Dataset.MissingCriteria)
		assert.Empty(t, overview.DatasetError)
	})

	t.Run("dataset unavailable", func(t *testing.T) {
		cfg := testConfig(filepath.Join(t.TempDir(), "missing.csv"))
		overview, err := GetCriteriaResults(ctx, cfg)
		require.NoError(t, err)
		assert.Nil(t, overview.Dataset)
		assert.Contains(t, overview.DatasetError, "failed to read dataset")
	})

	t.Run("no selection", func(t *testing.T) {
		cfg := testConfig(filepath.Join(t.TempDir(), "missing.csv"))
		cfg.Criteria = nil
		overview, err := GetCriteriaResults(ctx, cfg)
		require.NoError(t, err)
		assert.Empty(t, overview.Selected)
	})
}

func TestExecuteCriteria(t *testing.T) {
	cfg := testConfig(writeDataset(t, housingCSV))
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "criteria.json")

	require.NoError(t, ExecuteCriteria(context.Background(), cfg, nil))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var overview schema.CriteriaOverview
	require.NoError(t, json.Unmarshal(content, &overview))
	assert.Len(t, overview.Selected, 3)
}
