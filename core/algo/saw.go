package algo

import (
	"fmt"

	"github.com/huangsam/homerank/schema"
)

// NormalizeSAW applies Simple Additive Weighting normalization column by column.
//
// Benefit columns become x/max and cost columns become minPositive/x. values is
// row-major and must hold one value per criterion for every row. The returned
// errors wrap schema.ErrDegenerateArithmetic and describe zero-division cases
// that were resolved to 0; they never mean the matrix is unusable.
func NormalizeSAW(criteria []schema.Criterion, values [][]float64) (schema.NormalizedMatrix, []error) {
	out := make([][]float64, len(values))
	for i := range values {
		out[i] = make([]float64, len(criteria))
	}

	var diags []error
	for k, c := range criteria {
		column := columnAt(values, k)
		var (
			normalized []float64
			diag       error
		)
		if c.Direction == schema.Cost {
			normalized, diag = normalizeCost(c.Name, column)
		} else {
			normalized, diag = normalizeBenefit(c.Name, column)
		}
		if diag != nil {
			diags = append(diags, diag)
		}
		for i, v := range normalized {
			out[i][k] = v
		}
	}

	return schema.NormalizedMatrix{
		Criteria: append([]schema.Criterion(nil), criteria...),
		Values:   out,
	}, diags
}

func columnAt(values [][]float64, k int) []float64 {
	column := make([]float64, len(values))
	for i, row := range values {
		column[i] = row[k]
	}
	return column
}

// normalizeBenefit maps x to x/max. An all-zero column stays all zeros.
func normalizeBenefit(name string, column []float64) ([]float64, error) {
	var maxVal float64
	for _, v := range column {
		maxVal = max(maxVal, v)
	}
	out := make([]float64, len(column))
	if maxVal == 0 {
		if len(column) == 0 {
			return out, nil
		}
		return out, fmt.Errorf("%w: benefit criterion %q has max 0, column set to 0", schema.ErrDegenerateArithmetic, name)
	}
	for i, v := range column {
		out[i] = v / maxVal
	}
	return out, nil
}

// normalizeCost maps x to minPositive/x. A zero cost is treated as the worst
// possible value and maps to 0.
func normalizeCost(name string, column []float64) ([]float64, error) {
	minPositive := 0.0
	zeros := 0
	for _, v := range column {
		if v <= 0 {
			zeros++
			continue
		}
		if minPositive == 0 || v < minPositive {
			minPositive = v
		}
	}

	out := make([]float64, len(column))
	if minPositive == 0 {
		if len(column) == 0 {
			return out, nil
		}
		return out, fmt.Errorf("%w: cost criterion %q has no positive value, column set to 0", schema.ErrDegenerateArithmetic, name)
	}
	for i, v := range column {
		if v <= 0 {
			continue
		}
		out[i] = minPositive / v
	}
	if zeros > 0 {
		return out, fmt.Errorf("%w: cost criterion %q has %d zero value(s), mapped to 0", schema.ErrDegenerateArithmetic, name, zeros)
	}
	return out, nil
}
