package core

import (
	"fmt"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/internal/dataset"
	"github.com/huangsam/homerank/schema"
)

// preparedInput is a filtered dataset together with the criteria that can be ranked on it.
type preparedInput struct {
	dataset     *schema.Dataset
	fingerprint string
	loadedRows  int
	criteria    []schema.Criterion // raw weights
	diagnostics []string
}

// prepareInput loads the dataset, applies the certificate filter and the row
// limit, then resolves the active criteria and checks their value ranges.
func prepareInput(cfg *contract.Config) (*preparedInput, error) {
	reg := registryOf(cfg)
	loaded, err := dataset.LoadCSV(cfg.DatasetPath, reg.IDColumn)
	if err != nil {
		return nil, err
	}
	in := &preparedInput{
		dataset:     loaded.Dataset,
		fingerprint: loaded.Fingerprint,
		loadedRows:  loaded.Dataset.Len(),
	}

	// --- 1. Certificate filter ---
	if len(cfg.Certificates) > 0 {
		if in.dataset.HasColumn(reg.CertificateColumn) {
			in.dataset = in.dataset.FilterByValues(reg.CertificateColumn, cfg.Certificates)
			if in.dataset.Len() == 0 {
				return nil, fmt.Errorf("%w: no item has one of the selected certificates", schema.ErrEmptyDataset)
			}
		} else {
			in.note(fmt.Errorf("%w: certificate column %q, filter skipped", schema.ErrMissingColumn, reg.CertificateColumn))
		}
	}

	// --- 2. Row limit ---
	in.dataset = in.dataset.Head(cfg.RowLimit)
	if in.dataset.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", schema.ErrEmptyDataset, cfg.DatasetPath)
	}

	// --- 3. Active criteria ---
	for _, c := range cfg.Criteria {
		if !in.dataset.HasColumn(c.Name) {
			in.note(fmt.Errorf("%w: criterion %q, dropped from the ranking", schema.ErrMissingColumn, c.Name))
			continue
		}
		in.criteria = append(in.criteria, c)
	}
	if len(in.criteria) == 0 {
		return nil, fmt.Errorf("%w: none of the selected criteria is a column of %s", schema.ErrInvalidInput, cfg.DatasetPath)
	}

	// --- 4. Value ranges ---
	if err := checkRanges(in.dataset, in.criteria, reg); err != nil {
		return nil, err
	}
	return in, nil
}

func (in *preparedInput) note(err error) {
	in.diagnostics = append(in.diagnostics, err.Error())
}

// checkRanges rejects values outside the range declared by the registry.
func checkRanges(ds *schema.Dataset, criteria []schema.Criterion, reg *schema.Registry) error {
	for _, c := range criteria {
		spec, ok := reg.Lookup(c.Name)
		if !ok {
			continue
		}
		values, err := ds.NumericColumn(c.Name)
		if err != nil {
			return err
		}
		for i, v := range values {
			if !spec.InRange(v) {
				return fmt.Errorf("%w: value %v of %q for item %s is outside %s",
					schema.ErrInvalidInput, v, c.Name, ds.Items[i].ID, describeRange(spec))
			}
		}
	}
	return nil
}

func describeRange(spec schema.CriterionSpec) string {
	switch {
	case spec.Min != nil && spec.Max != nil:
		return fmt.Sprintf("[%v, %v]", *spec.Min, *spec.Max)
	case spec.Min != nil:
		return fmt.Sprintf(">= %v", *spec.Min)
	case spec.Max != nil:
		return fmt.Sprintf("<= %v", *spec.Max)
	default:
		return "any value"
	}
}

// registryOf returns the configured registry, falling back to the default one.
func registryOf(cfg *contract.Config) *schema.Registry {
	if cfg.Registry != nil {
		return cfg.Registry
	}
	return schema.DefaultRegistry()
}
