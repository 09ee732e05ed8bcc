package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/schema"
)

// runRankingCore performs the common Preparation, Tracking, Ranking and Recording steps.
func runRankingCore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.PipelineResult, error) {
	// --- 1. Preparation ---
	in, err := prepareInput(cfg)
	if err != nil {
		return nil, err
	}
	progress := showProgress(ctx, cfg)
	if progress {
		logRankHeader(cfg, in)
	}

	// --- 2. Begin Analysis Tracking (if configured) ---
	var analysisStore contract.AnalysisStore
	if mgr != nil {
		analysisStore = mgr.GetAnalysisStore()
	}
	if analysisStore != nil {
		runKey := uuid.NewString()
		analysisID, err := analysisStore.BeginAnalysis(runKey, time.Now(), trackingParams(cfg, in))
		if err != nil {
			contract.LogWarn("Analysis tracking initialization failed", err)
		} else if analysisID > 0 {
			ctx = withAnalysisID(ctx, analysisID)
		}
	}

	// --- 3. Ranking (with caching) ---
	result, err := cachedPipeline(cfg, in, mgr)
	if err != nil {
		return nil, err
	}
	result.Diagnostics = append(slices.Clone(in.diagnostics), result.Diagnostics...)
	if progress {
		logDiagnostics(result.Diagnostics)
	}

	// --- 4. Record scores and end Analysis Tracking ---
	if analysisID, ok := getAnalysisID(ctx); ok && analysisStore != nil {
		recordItemScores(analysisStore, analysisID, result.Ranking)
		if err := analysisStore.EndAnalysis(analysisID, time.Now(), len(result.Ranking)); err != nil {
			contract.LogWarn("Failed to finalize analysis tracking", err)
		}
	}

	return result, nil
}

// trackingParams captures the settings of a run for the analysis store.
func trackingParams(cfg *contract.Config, in *preparedInput) map[string]any {
	weights := make(map[string]float64, len(in.criteria))
	for _, c := range in.criteria {
		weights[c.Name] = c.Weight
	}
	return map[string]any{
		"dataset":      cfg.DatasetPath,
		"fingerprint":  in.fingerprint,
		"certificates": cfg.Certificates,
		"rows":         cfg.RowLimit,
		"result_limit": cfg.ResultLimit,
		"weights":      weights,
		"ideals":       string(cfg.Ideals),
	}
}

// recordItemScores stores the final rank and score of every ranked item.
// Recording stops at the first failure; the ranking itself is unaffected.
func recordItemScores(store contract.AnalysisStore, analysisID int64, ranking []schema.RankedItem) {
	now := time.Now()
	for _, r := range ranking {
		score := schema.ItemScore{
			AnalysisTime:     now,
			Rank:             r.Rank,
			Score:            r.Score,
			DistancePositive: r.DistancePositive,
			DistanceNegative: r.DistanceNegative,
			Label:            schema.GetPlainLabel(r.Score),
		}
		if err := store.RecordItemScore(analysisID, r.ID, score); err != nil {
			logTrackingError("RecordItemScore", r.ID, err)
			return
		}
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting the ranking.
func logTrackingError(operation, itemID string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, itemID), err)
}
