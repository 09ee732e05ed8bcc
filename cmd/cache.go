package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/homerank/internal/contract"
	"github.com/huangsam/homerank/internal/iocache"
	"github.com/spf13/cobra"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := resolveBackend("cache-backend", "cache-db-connect")
	if err != nil {
		return err
	}

	// No analysis tracking for cache commands
	if err := iocache.InitCaching(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// sqliteFilePath returns the SQLite file behind connStr, or fallback when unset.
func sqliteFilePath(connStr, fallback string) string {
	if connStr != "" {
		return connStr
	}
	return fallback
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands skip the dataset and criteria validation done by sharedSetup.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the ranking cache",
	Long: `Manage the cache of computed rankings.

Homerank stores every ranking keyed by the dataset fingerprint and the ranking
parameters, so repeating a query on an unchanged file skips the computation.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached rankings

Examples:
  # Check cache status
  homerank cache status

  # Clear the cache
  homerank cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached rankings",
	Long: `Delete all cached rankings from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  homerank cache clear

  # Clear MySQL cache (set connection string via env variable)
  HOMERANK_CACHE_BACKEND=mysql HOMERANK_CACHE_DB_CONNECT="..." homerank cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// The SQLite file is removed, so the open handle goes first
		iocache.CloseCaching()
		dbFile := sqliteFilePath(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, dbFile, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, the number of cached rankings, the newest and oldest
entry timestamps and the table size.

Examples:
  homerank cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetActivityStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("cache is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
