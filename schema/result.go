package schema

import "math"

// DisplayPrecision is the number of decimals used when reporting pipeline values.
const DisplayPrecision = 4

// Round4 rounds a value half away from zero to DisplayPrecision decimals.
func Round4(v float64) float64 {
	const scale = 1e4
	return math.Round(v*scale) / scale
}

// NormalizedMatrix holds one SAW-normalized column per active criterion.
// Values is row-major: Values[i][k] belongs to item i and Criteria[k].
type NormalizedMatrix struct {
	Criteria []Criterion `json:"criteria"`
	Values   [][]float64 `json:"values"`
}

// IdealVectors holds the positive and negative ideal points, one value per criterion.
type IdealVectors struct {
	Positive []float64 `json:"positive"`
	Negative []float64 `json:"negative"`
}

// TOPSISResult is the output of the TOPSIS engine.
type TOPSISResult struct {
	Weighted         [][]float64  `json:"weighted"`
	Ideals           IdealVectors `json:"ideals"`
	DistancePositive []float64    `json:"distance_positive"`
	DistanceNegative []float64    `json:"distance_negative"`
	Preferences      []float64    `json:"preferences"`
}

// RankedItem is an item with its preference score and 1-based rank.
type RankedItem struct {
	Rank             int     `json:"rank"`
	Score            float64 `json:"score"`
	DistancePositive float64 `json:"distance_positive"`
	DistanceNegative float64 `json:"distance_negative"`
	Item
}

// PipelineResult is the immutable, caller-owned result of a ranking run.
type PipelineResult struct {
	// Criteria are the active criteria, in column order, with normalized weights.
	Criteria   []Criterion      `json:"criteria"`
	Items      []Item           `json:"items"` // input order
	Normalized NormalizedMatrix `json:"normalized"`
	TOPSIS     TOPSISResult     `json:"topsis"`
	Ranking    []RankedItem     `json:"ranking"`

	// Diagnostics are non-fatal notes (degenerate arithmetic, skipped columns).
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Top returns the first n ranked items. A non-positive n returns all of them.
func (r *PipelineResult) Top(n int) []RankedItem {
	if n <= 0 || n >= len(r.Ranking) {
		return r.Ranking
	}
	return r.Ranking[:n]
}

// Weights returns the normalized weights keyed by criterion name.
func (r *PipelineResult) Weights() map[string]float64 {
	out := make(map[string]float64, len(r.Criteria))
	for _, c := range r.Criteria {
		out[c.Name] = c.Weight
	}
	return out
}
