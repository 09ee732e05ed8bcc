package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Criterion is a named attribute taking part in a ranking run.
type Criterion struct {
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Weight    float64   `json:"weight"` // raw while preparing, normalized inside a PipelineResult
}

// CriterionSpec describes one entry of the criteria registry.
type CriterionSpec struct {
	Name        string    `json:"name" yaml:"name"`
	Direction   Direction `json:"direction" yaml:"direction"`
	Unit        string    `json:"unit" yaml:"unit"`
	Description string    `json:"description" yaml:"description"`
	Labels      LabelKind `json:"labels,omitempty" yaml:"labels,omitempty"`
	Min         *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64  `json:"max,omitempty" yaml:"max,omitempty"`
}

// InRange reports whether a raw value lies inside the spec's valid range.
func (cs CriterionSpec) InRange(v float64) bool {
	if cs.Min != nil && v < *cs.Min {
		return false
	}
	if cs.Max != nil && v > *cs.Max {
		return false
	}
	return true
}

// Registry is the typed criterion registry used to validate and display a dataset.
type Registry struct {
	IDColumn          string          `json:"id_column" yaml:"id_column"`
	CertificateColumn string          `json:"certificate_column" yaml:"certificate_column"`
	DisplayColumns    []string        `json:"display_columns" yaml:"display_columns"`
	Criteria          []CriterionSpec `json:"criteria" yaml:"criteria"`

	// Display-only columns that carry coded values, keyed by column name.
	ColumnLabels map[string]LabelKind `json:"column_labels,omitempty" yaml:"column_labels,omitempty"`
}

func floatPtr(v float64) *float64 { return &v }

// DefaultRegistry returns the registry for the Surabaya housing dataset.
func DefaultRegistry() *Registry {
	return &Registry{
		IDColumn:          ColumnPropertyCode,
		CertificateColumn: ColumnCertificate,
		DisplayColumns:    append([]string(nil), DefaultDisplayColumns...),
		Criteria: []CriterionSpec{
			{Name: ColumnPriceScaled, Direction: Cost, Unit: "Rupiah (/1,000,000)", Description: "Lower price is better for the buyer.", Min: floatPtr(0)},
			{Name: ColumnBedrooms, Direction: Benefit, Unit: "count", Description: "More bedrooms are more comfortable for residents.", Min: floatPtr(0)},
			{Name: ColumnBathrooms, Direction: Benefit, Unit: "count", Description: "More bathrooms raise everyday comfort.", Min: floatPtr(0)},
			{Name: ColumnLandArea, Direction: Benefit, Unit: "m2", Description: "Larger land gives more room and property value.", Min: floatPtr(0)},
			{Name: ColumnBuildingArea, Direction: Benefit, Unit: "m2", Description: "Larger buildings give more usable space.", Min: floatPtr(0)},
			{Name: ColumnPower, Direction: Benefit, Unit: "VA", Description: "Higher electrical capacity supports more appliances.", Min: floatPtr(0)},
			{Name: ColumnLivingRoom, Direction: Benefit, Unit: "present/absent", Description: "A living room supports family and social use.", Labels: PresenceLabels, Min: floatPtr(0), Max: floatPtr(1)},
			{Name: ColumnFloors, Direction: Benefit, Unit: "count", Description: "More floors give more usable capacity.", Min: floatPtr(0)},
			{Name: ColumnInternet, Direction: Benefit, Unit: "yes/no", Description: "Internet coverage supports residents' needs.", Labels: YesNoLabels, Min: floatPtr(0), Max: floatPtr(1)},
			{Name: ColumnCondition, Direction: Benefit, Unit: "scale 1-4", Description: "Needs renovation / standard / renovated / new.", Labels: ConditionLabels, Min: floatPtr(1), Max: floatPtr(4)},
		},
	}
}

// Validate checks that the registry is internally consistent.
func (r *Registry) Validate() error {
	if strings.TrimSpace(r.IDColumn) == "" {
		return fmt.Errorf("%w: registry must name an id column", ErrInvalidInput)
	}
	if len(r.Criteria) == 0 {
		return fmt.Errorf("%w: registry has no criteria", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(r.Criteria))
	for _, c := range r.Criteria {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("%w: criterion with empty name", ErrInvalidInput)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate criterion %q", ErrInvalidInput, name)
		}
		seen[name] = struct{}{}
		if _, ok := ValidDirections[c.Direction]; !ok {
			return fmt.Errorf("%w: criterion %q has invalid direction %q (must be benefit or cost)", ErrInvalidInput, name, c.Direction)
		}
		if _, ok := ValidLabelKinds[c.Labels]; !ok {
			return fmt.Errorf("%w: criterion %q has invalid labels %q", ErrInvalidInput, name, c.Labels)
		}
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return fmt.Errorf("%w: criterion %q has min %v above max %v", ErrInvalidInput, name, *c.Min, *c.Max)
		}
	}
	for col, kind := range r.ColumnLabels {
		if _, ok := ValidLabelKinds[kind]; !ok {
			return fmt.Errorf("%w: column %q has invalid labels %q", ErrInvalidInput, col, kind)
		}
	}
	return nil
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (CriterionSpec, bool) {
	for _, c := range r.Criteria {
		if c.Name == name {
			return c, true
		}
	}
	return CriterionSpec{}, false
}

// CriterionNames returns the registered criterion names in registry order.
func (r *Registry) CriterionNames() []string {
	names := make([]string, len(r.Criteria))
	for i, c := range r.Criteria {
		names[i] = c.Name
	}
	return names
}

// labelKindFor returns the label table configured for a column.
func (r *Registry) labelKindFor(column string) LabelKind {
	if spec, ok := r.Lookup(column); ok && spec.Labels != NoLabels {
		return spec.Labels
	}
	return r.ColumnLabels[column]
}

// Denormalize maps an integer-coded cell to its display label.
// Columns without a label table are returned unchanged; unknown codes become UnknownLabel.
func (r *Registry) Denormalize(column, raw string) string {
	kind := r.labelKindFor(column)
	if kind == NoLabels {
		return raw
	}
	table := labelTables[kind]
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v != math.Trunc(v) {
		return UnknownLabel
	}
	label, ok := table[int(v)]
	if !ok {
		return UnknownLabel
	}
	return label
}
