package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/schema"
)

// showProgress reports whether headers and warnings may be printed.
// Machine-readable output on stdout stays clean.
func showProgress(ctx context.Context, cfg *contract.Config) bool {
	if shouldSuppressHeader(ctx) {
		return false
	}
	return cfg.Output == schema.TextOut || cfg.Output == "" || cfg.OutputFile != ""
}

// logRankHeader prints a concise, 2-line header for a ranking run.
func logRankHeader(cfg *contract.Config, in *preparedInput) {
	certificates := "all"
	if len(cfg.Certificates) > 0 {
		certificates = strings.Join(cfg.Certificates, ", ")
	}
	ideals := cfg.Ideals
	if ideals == "" {
		ideals = schema.IdealsByDirection
	}

	summary := fmt.Sprintf("Dataset: %s (%d of %d rows, %d criteria, ideals: %s)",
		filepath.Base(cfg.DatasetPath), in.dataset.Len(), in.loadedRows, len(in.criteria), ideals)
	filter := fmt.Sprintf("Certificates: %s", certificates)

	if cfg.UseEmojis {
		fmt.Printf("🔎 %s\n📜 %s\n", summary, filter)
		return
	}
	fmt.Printf("%s\n%s\n", summary, filter)
}

// logDiagnostics prints every diagnostic of a run as a warning.
func logDiagnostics(diagnostics []string) {
	for _, d := range diagnostics {
		contract.LogWarn("Ranking diagnostic", errors.New(d))
	}
}
