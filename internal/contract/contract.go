// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/homerank/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetActivityStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking ranking runs and their item scores.
type AnalysisStore interface {
	// BeginAnalysis creates a new ranking run and returns its unique ID
	BeginAnalysis(runKey string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the ranking run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalItems int) error

	// RecordItemScore stores the final score and rank of one item
	RecordItemScore(analysisID int64, itemID string, score schema.ItemScore) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every recorded run, oldest first
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllItemScores returns every recorded item score
	GetAllItemScores() ([]schema.ItemScoreRecord, error)

	// Close closes the underlying connection
	Close() error
}
