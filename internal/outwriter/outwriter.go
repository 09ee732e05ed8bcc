// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRanking prints a ranking using the configured output format.
func (ow *OutWriter) WriteRanking(result *schema.PipelineResult, cfg *contract.Config, duration time.Duration) error {
	return WriteRankingResults(result, cfg, duration)
}

// WriteCriteria prints the criteria registry and dataset summary using the configured output format.
func (ow *OutWriter) WriteCriteria(overview *schema.CriteriaOverview, cfg *contract.Config) error {
	return WriteCriteriaOverview(overview, cfg)
}

// registryOf returns the configured registry, falling back to the default one.
func registryOf(cfg *contract.Config) *schema.Registry {
	if cfg.Registry != nil {
		return cfg.Registry
	}
	return schema.DefaultRegistry()
}
