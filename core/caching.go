package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/homerank/core/algo"
	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is the age after which a cached ranking is recomputed
const cacheTTL = 7 * 24 * time.Hour

// cachedPipeline returns the ranking for the prepared input, reusing a stored
// result when the inputs are unchanged. The result is always a fresh copy.
func cachedPipeline(cfg *contract.Config, in *preparedInput, mgr contract.CacheManager) (*schema.PipelineResult, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetActivityStore()
	}
	if store == nil {
		return runPipeline(cfg, in)
	}

	key := generateCacheKey(cfg, in)
	if result := checkCacheHit(store, key); result != nil {
		return result, nil
	}
	return computeAndStore(cfg, in, store, key)
}

func runPipeline(cfg *contract.Config, in *preparedInput) (*schema.PipelineResult, error) {
	return algo.RunPipeline(in.dataset, in.criteria, algo.Options{Ideals: cfg.Ideals})
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.PipelineResult {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil // Stale or version mismatch
	}
	var result schema.PipelineResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(cfg *contract.Config, in *preparedInput, store contract.CacheStore, key string) (*schema.PipelineResult, error) {
	result, err := runPipeline(cfg, in)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store ranking in cache", err)
		}
	}
	return result, nil
}

// cacheKeyInput lists everything a ranking depends on.
type cacheKeyInput struct {
	Fingerprint  string             `json:"fingerprint"`
	Certificates []string           `json:"certificates"`
	Rows         int                `json:"rows"`
	Criteria     []schema.Criterion `json:"criteria"`
	Ideals       schema.IdealMode   `json:"ideals"`
	Registry     *schema.Registry   `json:"registry"`
}

// generateCacheKey hashes the dataset fingerprint and every ranking parameter
func generateCacheKey(cfg *contract.Config, in *preparedInput) string {
	certificates := slices.Clone(cfg.Certificates)
	slices.Sort(certificates)
	ideals := cfg.Ideals
	if ideals == "" {
		ideals = schema.IdealsByDirection
	}

	payload, _ := json.Marshal(cacheKeyInput{
		Fingerprint:  in.fingerprint,
		Certificates: certificates,
		Rows:         cfg.RowLimit,
		Criteria:     in.criteria,
		Ideals:       ideals,
		Registry:     registryOf(cfg),
	})
	return fmt.Sprintf("%x", sha256.Sum256(payload))
}
