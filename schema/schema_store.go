package schema

import "time"

// ItemScore is the per-item outcome of a ranking run, as tracked by the analysis store.
type ItemScore struct {
	AnalysisTime     time.Time
	Rank             int
	Score            float64
	DistancePositive float64
	DistanceNegative float64
	Label            string
}

// AnalysisRunRecord represents a row from the homerank_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID       int64
	RunKey           string
	StartTime        time.Time
	EndTime          *time.Time
	RunDurationMs    *int32
	TotalItemsRanked int32
	ConfigParams     *string
}

// ItemScoreRecord represents a row from the homerank_item_scores table.
type ItemScoreRecord struct {
	AnalysisID       int64
	ItemID           string
	AnalysisTime     time.Time
	Rank             int32
	Score            float64
	DistancePositive float64
	DistanceNegative float64
	Label            string
}
