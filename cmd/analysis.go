package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/internal/iocache"
	"github.com/huangsam/homerank/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analysisSetup loads minimal configuration needed for analysis operations.
// This is used by commands that need analysis access without full shared setup.
func analysisSetup() error {
	if err := analysisMigrateSetup(); err != nil {
		return err
	}
	cfg.OutputFile = viper.GetString("output-file")

	// No ranking cache for analysis commands
	if err := iocache.InitCaching("", "", cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}
	return nil
}

// analysisSetupWrapper wraps analysisSetup to provide PreRunE for analysis commands.
func analysisSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisSetup()
}

// analysisMigrateSetup loads the analysis backend settings without opening the store,
// so that migrations can run against a fresh database.
func analysisMigrateSetup() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := resolveBackend("analysis-backend", "analysis-db-connect")
	if err != nil {
		return err
	}
	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	return nil
}

// analysisMigrateSetupWrapper wraps analysisMigrateSetup to provide PreRunE for migrate command.
func analysisMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisMigrateSetup()
}

// requireAnalysisStore returns the configured analysis store or exits.
func requireAnalysisStore(action string) contract.AnalysisStore {
	store := iocache.Manager.GetAnalysisStore()
	if store == nil || cfg.AnalysisBackend == schema.NoneBackend {
		contract.LogFatal(action, errors.New("analysis tracking is disabled. Set --analysis-backend to sqlite, mysql or postgresql"))
	}
	return store
}

// analysisCmd focused on analysis data management.
//
// Note: Analysis subcommands skip the dataset and criteria validation done by sharedSetup.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage historical ranking runs and exports",
	Long: `Manage the history of ranking runs.

When enabled, Homerank records every ranking run, storing:
- Run metadata (timestamp, dataset, weights, duration)
- Rank, preference score and distances of every ranked listing

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show analysis tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Record a ranking run
  homerank rank --analysis-backend sqlite

  # Export for analysis in pandas/DuckDB
  homerank analysis export --analysis-backend sqlite --output-file history`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all historical ranking runs",
	Long: `Delete all stored ranking runs and item score history.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  homerank analysis export --analysis-backend sqlite --output-file backup
  homerank analysis clear --analysis-backend sqlite`,
	PreRunE: analysisMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := sqliteFilePath(cfg.AnalysisDBConnect, contract.GetAnalysisDBFilePath())
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, dbFile, cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display analysis tracking statistics and connection details",
	Long: `Show the backend, the number of stored runs, the newest and oldest run
timestamps, the number of ranked listings and the table sizes.

Examples:
  homerank analysis status --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := requireAnalysisStore("Failed to get analysis status").GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(os.Stdout, status)
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export historical data to Parquet for BI tools and analytics",
	Long: `Export all stored ranking runs to Parquet.

Writes two files next to --output-file:
- <output-file>.analysis_runs.parquet - one row per ranking run
- <output-file>.item_scores.parquet   - one row per ranked listing

Requires: --output-file parameter

Examples:
  homerank analysis export --analysis-backend sqlite --output-file history
  duckdb -c "SELECT * FROM read_parquet('history.item_scores.parquet') LIMIT 10"`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		requireAnalysisStore("Failed to export analysis data")
		if err := iocache.ExecuteAnalysisExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the analysis tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  homerank analysis migrate --analysis-backend sqlite

  # Rollback to initial state
  homerank analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		iocache.PrintMigrationResult(result)
	},
}
