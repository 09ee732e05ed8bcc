package algo

import (
	"fmt"
	"slices"

	"github.com/huangsam/homerank/schema"
)

// Options tune a pipeline run. The zero value uses IdealsByDirection.
type Options struct {
	Ideals schema.IdealMode
}

// RunPipeline chains weight normalization, SAW, TOPSIS and ranking over the
// dataset's active criteria. Criteria carry raw weights; the returned result
// carries the normalized ones. The dataset is not modified.
func RunPipeline(ds *schema.Dataset, criteria []schema.Criterion, opts Options) (*schema.PipelineResult, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("%w: nothing to rank", schema.ErrEmptyDataset)
	}
	if len(criteria) == 0 {
		return nil, fmt.Errorf("%w: no active criteria", schema.ErrInvalidInput)
	}
	mode := opts.Ideals
	if mode == "" {
		mode = schema.IdealsByDirection
	}

	rawWeights := make([]float64, len(criteria))
	for k, c := range criteria {
		if _, ok := schema.ValidDirections[c.Direction]; !ok {
			return nil, fmt.Errorf("%w: criterion %q has invalid direction %q", schema.ErrInvalidInput, c.Name, c.Direction)
		}
		rawWeights[k] = c.Weight
	}
	normWeights, err := NormalizeWeightVector(rawWeights)
	if err != nil {
		return nil, err
	}

	active := make([]schema.Criterion, len(criteria))
	weights := make(map[string]float64, len(criteria))
	for k, c := range criteria {
		active[k] = schema.Criterion{Name: c.Name, Direction: c.Direction, Weight: normWeights[k]}
		weights[c.Name] = normWeights[k]
	}

	values, err := criterionValues(ds, active)
	if err != nil {
		return nil, err
	}

	norm, sawDiags := NormalizeSAW(active, values)
	res, err := EvaluateTOPSISWithMode(norm, weights, mode)
	if err != nil {
		return nil, err
	}

	diagnostics := make([]string, 0, len(sawDiags)+1)
	for _, d := range sawDiags {
		diagnostics = append(diagnostics, d.Error())
	}
	if ties := countTies(res); ties > 0 {
		diagnostics = append(diagnostics, fmt.Sprintf("%v: %d item(s) coincide with both ideals, preference set to %v",
			schema.ErrDegenerateArithmetic, ties, tiePreference))
	}
	if len(diagnostics) == 0 {
		diagnostics = nil
	}

	items := slices.Clone(ds.Items)
	return &schema.PipelineResult{
		Criteria:    active,
		Items:       items,
		Normalized:  norm,
		TOPSIS:      res,
		Ranking:     rank(items, res.Preferences, res.DistancePositive, res.DistanceNegative),
		Diagnostics: diagnostics,
	}, nil
}

// criterionValues reads the active criteria into a row-major matrix.
// Negative values are rejected since SAW is undefined for them.
func criterionValues(ds *schema.Dataset, criteria []schema.Criterion) ([][]float64, error) {
	values := make([][]float64, ds.Len())
	for i := range values {
		values[i] = make([]float64, len(criteria))
	}
	for k, c := range criteria {
		column, err := ds.NumericColumn(c.Name)
		if err != nil {
			return nil, err
		}
		for i, v := range column {
			if v < 0 {
				return nil, fmt.Errorf("%w: criterion %q has negative value %v for item %s",
					schema.ErrInvalidInput, c.Name, v, ds.Items[i].ID)
			}
			values[i][k] = v
		}
	}
	return values, nil
}

func countTies(res schema.TOPSISResult) int {
	ties := 0
	for i := range res.Preferences {
		if res.DistancePositive[i]+res.DistanceNegative[i] == 0 {
			ties++
		}
	}
	return ties
}
