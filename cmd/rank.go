package cmd

import (
	"github.com/huangsam/homerank/core"
	"github.com/huangsam/homerank/internal/contract"
	"github.com/spf13/cobra"
)

// rankCmd ranks the listings of a housing dataset.
var rankCmd = &cobra.Command{
	Use:   "rank [dataset]",
	Short: "Rank housing listings by preference score",
	Long: `Rank property listings with SAW normalization and TOPSIS.

Each selected criterion is either a benefit (higher is better, e.g. bedrooms)
or a cost (lower is better, e.g. price). Values are normalized per column,
weighted, and every listing is scored by its relative closeness to the ideal
listing. A score of 1 means the listing is the best on every criterion.

Criteria and weights:
  --criteria  selects the columns to rank on (default: all known criteria)
  --weights   assigns raw weights, normalized to sum to 1 before ranking

Examples:
  # Rank the default dataset on all criteria
  homerank rank

  # Only freehold (SHM) listings, price and bedrooms matter most
  homerank rank --certificate SHM --weights "Price_Sudah:40,Kamar Tidur:30"

  # Show the intermediate matrices for the top 5
  homerank rank --limit 5 --explain

  # Export the full ranking
  homerank rank --limit 0 --output csv --output-file ranking.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRank(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot rank dataset", err)
		}
	},
}

// criteriaCmd lists the criteria registry.
var criteriaCmd = &cobra.Command{
	Use:   "criteria [dataset]",
	Short: "List rankable criteria and dataset statistics",
	Long: `Show every criterion Homerank knows about with its direction, unit and
valid range, the criteria selected for ranking with their normalized weights,
and a summary of the dataset (rows, columns, listings per certificate).

Examples:
  homerank criteria
  homerank criteria --criteria-file my-criteria.yaml --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCriteria(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list criteria", err)
		}
	},
}
