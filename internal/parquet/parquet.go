// Package parquet provides data structures and functions for exporting ranking
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/homerank/schema"
	"github.com/parquet-go/parquet-go"
)

// RankedRow is one line of a ranking, as shown in the ranked table.
type RankedRow struct {
	// Rank is the 1-based position in the ranking
	Rank int32 `parquet:"rank,snappy"`

	// ItemID is the value of the identifier column
	ItemID string `parquet:"item_id,snappy"`

	// Score is the preference score rounded for display
	Score float64 `parquet:"score,snappy"`

	// Label is the preference band of the score
	Label string `parquet:"label,snappy"`

	DistancePositive float64 `parquet:"distance_positive,snappy"`
	DistanceNegative float64 `parquet:"distance_negative,snappy"`

	// Attributes holds the JSON-encoded display columns with coded values mapped to labels
	Attributes string `parquet:"attributes,snappy"`
}

// AnalysisRun represents a single ranking run with metadata.
// This struct maps to the homerank_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this ranking run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunKey is the random key assigned when the run began
	RunKey string `parquet:"run_key,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalItemsRanked is the number of items ranked in this run
	TotalItemsRanked int32 `parquet:"total_items_ranked,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ItemScore is the score of one item in a ranking run.
// This struct maps to the homerank_item_scores database table.
type ItemScore struct {
	AnalysisID       int64     `parquet:"analysis_id,snappy"`
	ItemID           string    `parquet:"item_id,snappy"`
	AnalysisTime     time.Time `parquet:"analysis_time,snappy"`
	Rank             int32     `parquet:"rank,snappy"`
	Score            float64   `parquet:"score,snappy"`
	DistancePositive float64   `parquet:"distance_positive,snappy"`
	DistanceNegative float64   `parquet:"distance_negative,snappy"`
	Label            string    `parquet:"label,snappy"`
}

// writeParquet writes rows to a new Parquet file whose schema is inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRankedRowsParquet writes a ranking to a Parquet file.
func WriteRankedRowsParquet(data []RankedRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteItemScoresParquet writes a slice of ItemScore structs to a Parquet file.
func WriteItemScoresParquet(data []ItemScore, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ReadRankedRows reads a ranking previously written by WriteRankedRowsParquet.
func ReadRankedRows(path string) ([]RankedRow, error) {
	rows, err := parquet.ReadFile[RankedRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}

// ConvertRankedItems builds Parquet rows from ranked items, using the registry for display columns.
func ConvertRankedItems(ranked []schema.RankedItem, reg *schema.Registry) ([]RankedRow, error) {
	enriched := schema.EnrichRanking(ranked, reg)
	result := make([]RankedRow, len(ranked))
	for i, r := range ranked {
		attrs, err := json.Marshal(enriched[i].Attributes)
		if err != nil {
			return nil, fmt.Errorf("failed to encode attributes of %s: %w", r.ID, err)
		}
		result[i] = RankedRow{
			Rank:             int32(r.Rank),
			ItemID:           r.ID,
			Score:            enriched[i].Score,
			Label:            enriched[i].Label,
			DistancePositive: enriched[i].DistancePositive,
			DistanceNegative: enriched[i].DistanceNegative,
			Attributes:       string(attrs),
		}
	}
	return result, nil
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:       record.AnalysisID,
			RunKey:           record.RunKey,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			RunDurationMs:    record.RunDurationMs,
			TotalItemsRanked: record.TotalItemsRanked,
			ConfigParams:     record.ConfigParams,
		}
	}
	return result
}

// ConvertItemScoreRecords converts schema.ItemScoreRecord to ItemScore for Parquet export.
func ConvertItemScoreRecords(records []schema.ItemScoreRecord) []ItemScore {
	result := make([]ItemScore, len(records))
	for i, record := range records {
		result[i] = ItemScore{
			AnalysisID:       record.AnalysisID,
			ItemID:           record.ItemID,
			AnalysisTime:     record.AnalysisTime,
			Rank:             record.Rank,
			Score:            record.Score,
			DistancePositive: record.DistancePositive,
			DistanceNegative: record.DistanceNegative,
			Label:            record.Label,
		}
	}
	return result
}
