package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/internal/parquet"
	"github.com/huangsam/homerank/schema"
)

// WriteRankingResults outputs a ranking, dispatching based on the output format configured.
func WriteRankingResults(result *schema.PipelineResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRankingJSON(w, result, cfg)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRankingCSV(w, result.Top(cfg.ResultLimit), registryOf(cfg), fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeRankingParquet(result.Top(cfg.ResultLimit), registryOf(cfg), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRankingText(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeRankingText writes the weight table, the optional explanation and the ranking table.
func writeRankingText(w io.Writer, result *schema.PipelineResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if err := writeWeightsTable(w, result.Criteria, fmtFloat); err != nil {
		return err
	}
	top := result.Top(cfg.ResultLimit)
	if cfg.Explain {
		if err := writeExplainTables(w, result, top, fmtFloat); err != nil {
			return err
		}
	}
	if err := writeRankingTable(w, top, cfg, fmtFloat); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing top %d of %d items\n", len(top), len(result.Ranking)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Ranking completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeWeightsTable prints the normalized weight of every active criterion.
func writeWeightsTable(w io.Writer, criteria []schema.Criterion, fmtFloat func(float64) string) error {
	data := make([][]string, 0, len(criteria))
	for _, c := range criteria {
		data = append(data, []string{c.Name, string(c.Direction), fmtFloat(c.Weight)})
	}
	return renderTable(w, "", []string{"Criterion", "Type", "Weight"}, data)
}

// writeRankingTable generates and writes the human-readable ranking.
func writeRankingTable(w io.Writer, top []schema.RankedItem, cfg *contract.Config, fmtFloat func(float64) string) error {
	reg := registryOf(cfg)
	columns := displayColumns(reg, top)
	maxWidth := GetMaxTableTextWidth(cfg)

	headers := []string{"Rank", "ID", "Score", "Label"}
	if cfg.Detail {
		headers = append(headers, "D+", "D-")
	}
	headers = append(headers, columns...)

	data := make([][]string, 0, len(top))
	for _, r := range top {
		label := schema.GetPlainLabel(r.Score)
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Score)
		}
		row := []string{
			strconv.Itoa(r.Rank),
			contract.TruncateText(r.ID, maxWidth),
			fmtFloat(r.Score),
			label,
		}
		if cfg.Detail {
			row = append(row, fmtFloat(r.DistancePositive), fmtFloat(r.DistanceNegative))
		}
		for _, col := range columns {
			row = append(row, contract.TruncateText(reg.Denormalize(col, r.Cells[col]), maxWidth))
		}
		data = append(data, row)
	}
	return renderTable(w, "", headers, data)
}

// rankingCSVHeader is the fixed part of the CSV header; display columns follow.
var rankingCSVHeader = []string{"rank", "id", "score", "label", "distance_positive", "distance_negative"}

// writeRankingCSV writes one record per ranked item, rank first.
func writeRankingCSV(w io.Writer, top []schema.RankedItem, reg *schema.Registry, fmtFloat func(float64) string) error {
	columns := displayColumns(reg, top)
	header := append(append([]string(nil), rankingCSVHeader...), columns...)

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range top {
			rec := []string{
				strconv.Itoa(r.Rank),
				r.ID,
				fmtFloat(r.Score),
				schema.GetPlainLabel(r.Score),
				fmtFloat(r.DistancePositive),
				fmtFloat(r.DistanceNegative),
			}
			for _, col := range columns {
				rec = append(rec, reg.Denormalize(col, r.Cells[col]))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// rankingJSON is the JSON document for a ranking.
type rankingJSON struct {
	Dataset string `json:"dataset,omitempty"`
	schema.RankingReport
	Explain *explainReport `json:"explain,omitempty"`
}

// writeRankingJSON writes the ranking report, with the explanation when requested.
func writeRankingJSON(w io.Writer, result *schema.PipelineResult, cfg *contract.Config) error {
	doc := rankingJSON{
		Dataset:       cfg.DatasetPath,
		RankingReport: schema.NewRankingReport(result, registryOf(cfg), cfg.ResultLimit),
	}
	if cfg.Explain {
		explain := buildExplainReport(result, result.Top(cfg.ResultLimit))
		doc.Explain = &explain
	}
	return writeJSON(w, doc)
}

// writeRankingParquet writes the ranked rows to a Parquet file.
func writeRankingParquet(top []schema.RankedItem, reg *schema.Registry, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires an output file")
	}
	rows, err := parquet.ConvertRankedItems(top, reg)
	if err != nil {
		return err
	}
	if err := parquet.WriteRankedRowsParquet(rows, outputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", outputFile)
	return nil
}

// displayColumns returns the registry display columns carried by the ranked items.
func displayColumns(reg *schema.Registry, top []schema.RankedItem) []string {
	columns := make([]string, 0, len(reg.DisplayColumns))
	for _, col := range reg.DisplayColumns {
		for _, r := range top {
			if _, ok := r.Cells[col]; ok {
				columns = append(columns, col)
				break
			}
		}
	}
	return columns
}
