// Package core has core logic for preparing, ranking and reporting housing data.
package core

import (
	"context"
	"time"

	"github.com/huangsam/homerank/core/algo"
	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/internal/dataset"
	"github.com/huangsam/homerank/internal/outwriter"
	"github.com/huangsam/homerank/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteRank ranks the dataset and prints the results.
// It serves as the main entry point for the 'rank' command.
func ExecuteRank(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	result, duration, err := GetRankResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRanking(result, cfg, duration)
}

// GetRankResults ranks the dataset and returns the full result with the elapsed time.
func GetRankResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.PipelineResult, time.Duration, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	result, err := runRankingCore(ctx, cfg, mgr)
	if err != nil {
		return nil, 0, err
	}
	return result, time.Since(start), nil
}

// ExecuteCriteria prints the criteria registry and the dataset statistics.
// It serves as the main entry point for the 'criteria' command.
func ExecuteCriteria(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	overview, err := GetCriteriaResults(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteCriteria(overview, cfg)
}

// GetCriteriaResults describes the registry, the selected criteria with their
// normalized weights and, when the dataset can be read, its statistics.
// An unreadable dataset is reported in the overview, not as an error.
func GetCriteriaResults(ctx context.Context, cfg *contract.Config) (*schema.CriteriaOverview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reg := registryOf(cfg)
	overview := &schema.CriteriaOverview{Criteria: reg.Criteria}

	if len(cfg.Criteria) > 0 {
		raw := make([]float64, len(cfg.Criteria))
		for i, c := range cfg.Criteria {
			raw[i] = c.Weight
		}
		weights, err := algo.NormalizeWeightVector(raw)
		if err != nil {
			return nil, err
		}
		overview.Selected = make([]schema.Criterion, len(cfg.Criteria))
		for i, c := range cfg.Criteria {
			c.Weight = weights[i]
			overview.Selected[i] = c
		}
	}

	loaded, err := dataset.LoadCSV(cfg.DatasetPath, reg.IDColumn)
	if err != nil {
		overview.DatasetError = err.Error()
		return overview, nil
	}
	overview.Dataset = summarizeDataset(loaded.Dataset, reg, cfg.Criteria)
	return overview, nil
}

// summarizeDataset counts rows per certificate and lists criteria the dataset lacks.
func summarizeDataset(ds *schema.Dataset, reg *schema.Registry, selected []schema.Criterion) *schema.DatasetSummary {
	summary := &schema.DatasetSummary{
		Source:  ds.Source,
		Rows:    ds.Len(),
		Columns: ds.Columns,
	}
	if reg.CertificateColumn != "" && ds.HasColumn(reg.CertificateColumn) {
		summary.CertificateCounts = ds.CountBy(reg.CertificateColumn)
	}
	for _, c := range selected {
		if !ds.HasColumn(c.Name) {
			summary.MissingCriteria = append(summary.MissingCriteria, c.Name)
		}
	}
	return summary
}
