package schema

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Item is one row of the dataset.
type Item struct {
	ID    string            `json:"id"`
	Index int               `json:"index"` // 0-based position in the loaded file
	Cells map[string]string `json:"cells"`
}

// Dataset is a rectangular table of items with trimmed column names.
type Dataset struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
	Items   []Item   `json:"items"`
}

// HasColumn reports whether the dataset carries the column.
func (d *Dataset) HasColumn(name string) bool {
	return slices.Contains(d.Columns, name)
}

// Len returns the number of items.
func (d *Dataset) Len() int {
	return len(d.Items)
}

// withItems returns a shallow copy of the dataset holding the given items.
func (d *Dataset) withItems(items []Item) *Dataset {
	return &Dataset{
		Source:  d.Source,
		Columns: d.Columns,
		Items:   items,
	}
}

// FilterByValues keeps the items whose column value is one of values.
// The receiver is not modified.
func (d *Dataset) FilterByValues(column string, values []string) *Dataset {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[strings.TrimSpace(v)] = struct{}{}
	}
	kept := make([]Item, 0, len(d.Items))
	for _, it := range d.Items {
		if _, ok := allowed[strings.TrimSpace(it.Cells[column])]; ok {
			kept = append(kept, it)
		}
	}
	return d.withItems(kept)
}

// Head keeps the first n items. A non-positive n keeps everything.
func (d *Dataset) Head(n int) *Dataset {
	if n <= 0 || n >= len(d.Items) {
		return d.withItems(d.Items)
	}
	return d.withItems(d.Items[:n])
}

// CountBy counts items per distinct value of a column.
func (d *Dataset) CountBy(column string) map[string]int {
	counts := make(map[string]int)
	for _, it := range d.Items {
		counts[strings.TrimSpace(it.Cells[column])]++
	}
	return counts
}

// NumericColumn parses a column into float64 values, preserving item order.
// Empty, non-numeric or non-finite cells fail with ErrInvalidInput.
func (d *Dataset) NumericColumn(column string) ([]float64, error) {
	if !d.HasColumn(column) {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	values := make([]float64, len(d.Items))
	for i, it := range d.Items {
		raw := strings.TrimSpace(it.Cells[column])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column %q has non-numeric value %q for item %s", ErrInvalidInput, column, raw, it.ID)
		}
		values[i] = v
	}
	return values, nil
}
