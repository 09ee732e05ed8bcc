package schema

// Preference bands used for labels.
const (
	ExcellentValue = "Excellent"
	GoodValue      = "Good"
	FairValue      = "Fair"
	PoorValue      = "Poor"
)

// EnrichedRankedItem adds presentation data to a RankedItem.
type EnrichedRankedItem struct {
	Rank       int               `json:"rank"`
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Label      string            `json:"label"`
	Attributes map[string]string `json:"attributes"`

	DistancePositive float64 `json:"distance_positive"`
	DistanceNegative float64 `json:"distance_negative"`
}

// GetPlainLabel returns a plain text band for a preference score in [0,1].
func GetPlainLabel(score float64) string {
	switch {
	case score >= 0.75:
		return ExcellentValue
	case score >= 0.5:
		return GoodValue
	case score >= 0.25:
		return FairValue
	default:
		return PoorValue
	}
}

// EnrichRanking rounds scores for display and maps coded attributes to labels.
func EnrichRanking(ranked []RankedItem, reg *Registry) []EnrichedRankedItem {
	output := make([]EnrichedRankedItem, len(ranked))
	for i, r := range ranked {
		attrs := make(map[string]string, len(reg.DisplayColumns))
		for _, col := range reg.DisplayColumns {
			if raw, ok := r.Cells[col]; ok {
				attrs[col] = reg.Denormalize(col, raw)
			}
		}
		output[i] = EnrichedRankedItem{
			Rank:       r.Rank,
			ID:         r.ID,
			Score:      Round4(r.Score),
			Label:      GetPlainLabel(r.Score),
			Attributes: attrs,

			DistancePositive: Round4(r.DistancePositive),
			DistanceNegative: Round4(r.DistanceNegative),
		}
	}
	return output
}

// RankingReport is the presentation form of a ranking, shared by JSON output and MCP tools.
type RankingReport struct {
	TotalItems  int                  `json:"total_items"`
	Criteria    []Criterion          `json:"criteria"` // weights rounded for display
	Ranking     []EnrichedRankedItem `json:"ranking"`
	Diagnostics []string             `json:"diagnostics,omitempty"`
}

// NewRankingReport builds the report for the first limit ranked items (all when limit <= 0).
func NewRankingReport(result *PipelineResult, reg *Registry, limit int) RankingReport {
	criteria := make([]Criterion, len(result.Criteria))
	for i, c := range result.Criteria {
		c.Weight = Round4(c.Weight)
		criteria[i] = c
	}
	return RankingReport{
		TotalItems:  len(result.Ranking),
		Criteria:    criteria,
		Ranking:     EnrichRanking(result.Top(limit), reg),
		Diagnostics: result.Diagnostics,
	}
}

// DatasetSummary holds the statistics shown next to the criteria registry.
type DatasetSummary struct {
	Source            string         `json:"source"`
	Rows              int            `json:"rows"`
	Columns           []string       `json:"columns"`
	CertificateCounts map[string]int `json:"certificate_counts,omitempty"`
	MissingCriteria   []string       `json:"missing_criteria,omitempty"`
}

// CriteriaOverview describes the registry, the selected weights and the dataset at hand.
type CriteriaOverview struct {
	Criteria     []CriterionSpec `json:"criteria"`
	Selected     []Criterion     `json:"selected"` // normalized weights
	Dataset      *DatasetSummary `json:"dataset,omitempty"`
	DatasetError string          `json:"dataset_error,omitempty"`
}
