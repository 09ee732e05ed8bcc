package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/homerank/schema"
)

// tiePreference is the score given to an item equidistant from both ideals.
const tiePreference = 0.5

// EvaluateTOPSIS weights a normalized matrix and scores every row by its
// relative closeness to the ideal point. Ideals follow each criterion's direction.
func EvaluateTOPSIS(norm schema.NormalizedMatrix, weights map[string]float64) (schema.TOPSISResult, error) {
	return EvaluateTOPSISWithMode(norm, weights, schema.IdealsByDirection)
}

// EvaluateTOPSISWithMode is EvaluateTOPSIS with an explicit ideal mode.
// The weights must carry exactly the criteria of the matrix.
func EvaluateTOPSISWithMode(norm schema.NormalizedMatrix, weights map[string]float64, mode schema.IdealMode) (schema.TOPSISResult, error) {
	w, err := weightVector(norm.Criteria, weights)
	if err != nil {
		return schema.TOPSISResult{}, err
	}
	if _, ok := schema.ValidIdealModes[mode]; !ok {
		return schema.TOPSISResult{}, fmt.Errorf("%w: unknown ideal mode %q", schema.ErrInvalidInput, mode)
	}

	rows, cols := len(norm.Values), len(norm.Criteria)

	weighted := make([][]float64, rows)
	for i, row := range norm.Values {
		if len(row) != cols {
			return schema.TOPSISResult{}, fmt.Errorf("%w: row %d has %d values for %d criteria", schema.ErrInvalidInput, i, len(row), cols)
		}
		weighted[i] = make([]float64, cols)
		for k, v := range row {
			weighted[i][k] = v * w[k]
		}
	}

	ideals := idealVectors(norm.Criteria, weighted, mode)

	dPlus := make([]float64, rows)
	dMinus := make([]float64, rows)
	prefs := make([]float64, rows)
	for i, row := range weighted {
		dPlus[i] = euclidean(row, ideals.Positive)
		dMinus[i] = euclidean(row, ideals.Negative)
		prefs[i] = closeness(dPlus[i], dMinus[i])
	}

	return schema.TOPSISResult{
		Weighted:         weighted,
		Ideals:           ideals,
		DistancePositive: dPlus,
		DistanceNegative: dMinus,
		Preferences:      prefs,
	}, nil
}

// weightVector orders the weights like the criteria and checks that both share one key set.
func weightVector(criteria []schema.Criterion, weights map[string]float64) ([]float64, error) {
	if len(criteria) == 0 {
		return nil, fmt.Errorf("%w: no active criteria", schema.ErrInvalidInput)
	}
	if len(weights) != len(criteria) {
		return nil, fmt.Errorf("%w: %d weights for %d criteria", schema.ErrInvalidInput, len(weights), len(criteria))
	}
	w := make([]float64, len(criteria))
	seen := make(map[string]struct{}, len(criteria))
	for k, c := range criteria {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate criterion %q", schema.ErrInvalidInput, c.Name)
		}
		seen[c.Name] = struct{}{}
		v, ok := weights[c.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no weight for criterion %q", schema.ErrInvalidInput, c.Name)
		}
		w[k] = v
	}
	return w, nil
}

func idealVectors(criteria []schema.Criterion, weighted [][]float64, mode schema.IdealMode) schema.IdealVectors {
	ideals := schema.IdealVectors{
		Positive: make([]float64, len(criteria)),
		Negative: make([]float64, len(criteria)),
	}
	if len(weighted) == 0 {
		return ideals
	}
	for k, c := range criteria {
		lo, hi := weighted[0][k], weighted[0][k]
		for _, row := range weighted[1:] {
			lo = min(lo, row[k])
			hi = max(hi, row[k])
		}
		if c.Direction == schema.Cost && mode == schema.IdealsByDirection {
			ideals.Positive[k], ideals.Negative[k] = lo, hi
		} else {
			ideals.Positive[k], ideals.Negative[k] = hi, lo
		}
	}
	return ideals
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for k := range a {
		d := a[k] - b[k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// closeness returns D-/(D+ + D-), or tiePreference when both distances are zero.
func closeness(dPlus, dMinus float64) float64 {
	total := dPlus + dMinus
	if total == 0 {
		return tiePreference
	}
	return dMinus / total
}
