package outwriter

import (
	"io"
	"strconv"

	"github.com/huangsam/homerank/schema"
)

// explainItem holds the intermediate values of one shown item.
type explainItem struct {
	Rank             int       `json:"rank"`
	ID               string    `json:"id"`
	Normalized       []float64 `json:"normalized"`
	Weighted         []float64 `json:"weighted"`
	DistancePositive float64   `json:"distance_positive"`
	DistanceNegative float64   `json:"distance_negative"`
	Preference       float64   `json:"preference"`
}

// explainReport is the step-by-step view of a ranking, rounded for display.
type explainReport struct {
	Criteria      []string      `json:"criteria"`
	IdealPositive []float64     `json:"ideal_positive"`
	IdealNegative []float64     `json:"ideal_negative"`
	Items         []explainItem `json:"items"`
}

func round4All(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = schema.Round4(v)
	}
	return out
}

// buildExplainReport collects the matrix rows of the shown items.
// Rows are located through Item.Index, since the ranking is reordered.
func buildExplainReport(result *schema.PipelineResult, top []schema.RankedItem) explainReport {
	rowOf := make(map[int]int, len(result.Items))
	for i, it := range result.Items {
		rowOf[it.Index] = i
	}

	names := make([]string, len(result.Criteria))
	for i, c := range result.Criteria {
		names[i] = c.Name
	}

	report := explainReport{
		Criteria:      names,
		IdealPositive: round4All(result.TOPSIS.Ideals.Positive),
		IdealNegative: round4All(result.TOPSIS.Ideals.Negative),
		Items:         make([]explainItem, 0, len(top)),
	}
	for _, r := range top {
		row, ok := rowOf[r.Index]
		if !ok || row >= len(result.Normalized.Values) || row >= len(result.TOPSIS.Weighted) {
			continue
		}
		report.Items = append(report.Items, explainItem{
			Rank:             r.Rank,
			ID:               r.ID,
			Normalized:       round4All(result.Normalized.Values[row]),
			Weighted:         round4All(result.TOPSIS.Weighted[row]),
			DistancePositive: schema.Round4(r.DistancePositive),
			DistanceNegative: schema.Round4(r.DistanceNegative),
			Preference:       schema.Round4(r.Score),
		})
	}
	return report
}

// writeExplainTables prints the SAW matrix, the weighted matrix, the ideals
// and the distances of the shown items.
func writeExplainTables(w io.Writer, result *schema.PipelineResult, top []schema.RankedItem, fmtFloat func(float64) string) error {
	report := buildExplainReport(result, top)
	matrixHeaders := append([]string{"ID"}, report.Criteria...)

	normalized := make([][]string, 0, len(report.Items))
	weighted := make([][]string, 0, len(report.Items))
	distances := make([][]string, 0, len(report.Items))
	for _, it := range report.Items {
		normalized = append(normalized, append([]string{it.ID}, formatVector(it.Normalized, fmtFloat)...))
		weighted = append(weighted, append([]string{it.ID}, formatVector(it.Weighted, fmtFloat)...))
		distances = append(distances, []string{
			strconv.Itoa(it.Rank),
			it.ID,
			fmtFloat(it.DistancePositive),
			fmtFloat(it.DistanceNegative),
			fmtFloat(it.Preference),
		})
	}

	ideals := make([][]string, 0, len(report.Criteria))
	for k, name := range report.Criteria {
		if k >= len(report.IdealPositive) || k >= len(report.IdealNegative) {
			break
		}
		ideals = append(ideals, []string{name, fmtFloat(report.IdealPositive[k]), fmtFloat(report.IdealNegative[k])})
	}

	if err := renderTable(w, "SAW normalized matrix (R)", matrixHeaders, normalized); err != nil {
		return err
	}
	if err := renderTable(w, "Weighted matrix (Y)", matrixHeaders, weighted); err != nil {
		return err
	}
	if err := renderTable(w, "Ideal solutions", []string{"Criterion", "A+", "A-"}, ideals); err != nil {
		return err
	}
	return renderTable(w, "Distances and preference", []string{"Rank", "ID", "D+", "D-", "V"}, distances)
}
