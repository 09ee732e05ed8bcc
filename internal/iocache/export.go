package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/internal/parquet"
)

// ExportedFiles names the Parquet files written by ExportAnalysis.
type ExportedFiles struct {
	AnalysisRuns string
	ItemScores   string
}

// ExportAnalysis writes the analysis history held by store to two Parquet files
// named after outputFile.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) (ExportedFiles, error) {
	var files ExportedFiles
	if outputFile == "" {
		return files, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return files, errors.New("analysis tracking is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return files, fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return files, errors.New("no analysis data found to export")
	}

	runs, err := store.GetAllAnalysisRuns()
	if err != nil {
		return files, fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	scores, err := store.GetAllItemScores()
	if err != nil {
		return files, fmt.Errorf("failed to retrieve item scores: %w", err)
	}

	files.AnalysisRuns = outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(parquet.ConvertAnalysisRunRecords(runs), files.AnalysisRuns); err != nil {
		return files, fmt.Errorf("failed to write analysis runs: %w", err)
	}
	files.ItemScores = outputFile + ".item_scores.parquet"
	if err := parquet.WriteItemScoresParquet(parquet.ConvertItemScoreRecords(scores), files.ItemScores); err != nil {
		return files, fmt.Errorf("failed to write item scores: %w", err)
	}
	return files, nil
}

// ExecuteAnalysisExport exports the global analysis store and reports what was written.
func ExecuteAnalysisExport(outputFile string) error {
	store := Manager.GetAnalysisStore()
	files, err := ExportAnalysis(store, outputFile)
	if err != nil {
		return err
	}

	status, _ := store.GetStatus()
	fmt.Printf("Exported data from %s backend\n", status.Backend)
	fmt.Printf("Exported %d analysis runs to: %s\n", status.TableSizes[analysisRunsTable], files.AnalysisRuns)
	fmt.Printf("Exported %d item scores to: %s\n", status.TableSizes[itemScoresTable], files.ItemScores)
	fmt.Println("\nThe Parquet files can be read with pandas (pyarrow), DuckDB, Spark or Arrow.")
	return nil
}
