package algo

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/huangsam/homerank/schema"
)

// zeroSumTolerance is the absolute tolerance under which a weight sum counts as zero.
const zeroSumTolerance = 1e-8

// NormalizeWeights scales raw weights so that they sum to 1.
// When the raw weights sum to (numerically) zero, every criterion gets 1/n.
func NormalizeWeights(raw map[string]float64) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no active criteria to weight", schema.ErrInvalidInput)
	}

	// Sum in a fixed order so repeated runs produce identical bits.
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	vector := make([]float64, len(names))
	for i, name := range names {
		vector[i] = raw[name]
	}
	normalized, err := NormalizeWeightVector(vector)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(names))
	for i, name := range names {
		out[name] = normalized[i]
	}
	return out, nil
}

// NormalizeWeightVector is the ordered form of NormalizeWeights.
func NormalizeWeightVector(raw []float64) ([]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no active criteria to weight", schema.ErrInvalidInput)
	}

	var sum, largest float64
	for i, w := range raw {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("%w: weight #%d must be a finite non-negative number (received %v)", schema.ErrInvalidInput, i+1, w)
		}
		sum += w
		largest = max(largest, w)
	}

	out := slices.Clone(raw)
	if math.IsInf(sum, 1) {
		// Finite weights near MaxFloat64 overflow the sum; rescale by the largest first.
		sum = 0
		for i := range out {
			out[i] /= largest
			sum += out[i]
		}
	}
	if math.Abs(sum) <= zeroSumTolerance {
		uniform := 1.0 / float64(len(raw))
		for i := range out {
			out[i] = uniform
		}
		return out, nil
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}
