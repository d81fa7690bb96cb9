package cmd

import (
	"fmt"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/internal/iocache"
	"github.com/huangsam/patchrisk/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no analysis tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
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

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by the review commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the artifact cache",
	Long: `Manage the cache of downloaded classification artifacts.

Every artifact that decodes cleanly is cached under "<diff>/<artifact>" and
reused until it is older than --cache-ttl. Reviewing the same diff again then
costs no network round trip.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached artifacts

Examples:
  # Check cache status
  patchrisk cache status

  # Clear cache after the classifier was retrained
  patchrisk cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached artifacts",
	Long: `Delete all cached artifacts from the configured backend.

Use this when:
- The classifier was retrained and artifacts were republished
- Cache may be stale or corrupted

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  patchrisk cache clear

  # Clear MySQL cache (set connection string via env variable)
  PATCHRISK_CACHE_BACKEND=mysql PATCHRISK_CACHE_DB_CONNECT="..." patchrisk cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the artifact cache.

Displays:
- Backend type and connection status
- Total number of cached artifacts
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  patchrisk cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetArtifactStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}
