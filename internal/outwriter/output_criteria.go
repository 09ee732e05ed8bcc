package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/schema"
)

// WriteCriteriaOverview outputs the criteria registry, dispatching based on the output format configured.
// Parquet has no criteria representation and falls back to text.
func WriteCriteriaOverview(overview *schema.CriteriaOverview, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, overview)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCriteriaCSV(w, overview, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		outputFile := cfg.OutputFile
		if cfg.Output == schema.ParquetOut {
			outputFile = ""
		}
		return writeWithFile(outputFile, func(w io.Writer) error {
			return writeCriteriaText(w, overview, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// selectedWeights maps selected criterion names to their normalized weight.
func selectedWeights(overview *schema.CriteriaOverview) map[string]float64 {
	weights := make(map[string]float64, len(overview.Selected))
	for _, c := range overview.Selected {
		weights[c.Name] = c.Weight
	}
	return weights
}

// formatRange renders the valid range of a criterion, e.g. "[1, 4]" or "[0, ∞)".
func formatRange(spec schema.CriterionSpec) string {
	lo, hi := "(-∞", "∞)"
	if spec.Min != nil {
		lo = "[" + strconv.FormatFloat(*spec.Min, 'f', -1, 64)
	}
	if spec.Max != nil {
		hi = strconv.FormatFloat(*spec.Max, 'f', -1, 64) + "]"
	}
	return lo + ", " + hi
}

// writeCriteriaText writes the registry table and the dataset statistics.
func writeCriteriaText(w io.Writer, overview *schema.CriteriaOverview, fmtFloat func(float64) string) error {
	weights := selectedWeights(overview)
	data := make([][]string, 0, len(overview.Criteria))
	for _, spec := range overview.Criteria {
		weight := "-"
		if v, ok := weights[spec.Name]; ok {
			weight = fmtFloat(v)
		}
		data = append(data, []string{spec.Name, string(spec.Direction), spec.Unit, formatRange(spec), weight, spec.Description})
	}
	if err := renderTable(w, "", []string{"Criterion", "Type", "Unit", "Range", "Weight", "Description"}, data); err != nil {
		return err
	}

	if overview.DatasetError != "" {
		_, err := fmt.Fprintf(w, "Dataset unavailable: %s\n", overview.DatasetError)
		return err
	}
	ds := overview.Dataset
	if ds == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Dataset %s: %d rows, %d columns\n", ds.Source, ds.Rows, len(ds.Columns)); err != nil {
		return err
	}
	if len(ds.CertificateCounts) > 0 {
		counts := make([][]string, 0, len(ds.CertificateCounts))
		for _, cert := range slices.Sorted(maps.Keys(ds.CertificateCounts)) {
			counts = append(counts, []string{cert, strconv.Itoa(ds.CertificateCounts[cert])})
		}
		if err := renderTable(w, "", []string{"Certificate", "Rows"}, counts); err != nil {
			return err
		}
	}
	for _, name := range ds.MissingCriteria {
		if _, err := fmt.Fprintf(w, "Criterion %q is not a column of the dataset\n", name); err != nil {
			return err
		}
	}
	return nil
}

// writeCriteriaCSV writes one record per registered criterion.
func writeCriteriaCSV(w io.Writer, overview *schema.CriteriaOverview, fmtFloat func(float64) string) error {
	weights := selectedWeights(overview)
	header := []string{"criterion", "direction", "unit", "min", "max", "selected", "weight", "description"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, spec := range overview.Criteria {
			var lo, hi, weight string
			if spec.Min != nil {
				lo = strconv.FormatFloat(*spec.Min, 'f', -1, 64)
			}
			if spec.Max != nil {
				hi = strconv.FormatFloat(*spec.Max, 'f', -1, 64)
			}
			v, selected := weights[spec.Name]
			if selected {
				weight = fmtFloat(v)
			}
			rec := []string{spec.Name, string(spec.Direction), spec.Unit, lo, hi, strconv.FormatBool(selected), weight, spec.Description}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
