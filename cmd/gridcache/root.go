package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apexanalytics/gridcache"
)

var (
	// Global flags.
	cacheDir string
	ttl      time.Duration
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "gridcache",
	Short: "Inspect and maintain an F1 data cache directory",
	Long: `gridcache is a CLI tool for inspecting and maintaining the two-tier
cache used by F1 statistics fetchers.

Examples:
  # Show cache statistics
  gridcache stats --cache-dir ./app_cache

  # Remove expired records
  gridcache sweep --cache-dir ./app_cache --ttl 24h

  # Remove everything
  gridcache clear --cache-dir ./app_cache`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cacheDir, "cache-dir", "d", "cache", "cache directory")
	rootCmd.PersistentFlags().DurationVar(&ttl, "ttl", gridcache.DefaultTTL, "entry expiry duration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// openCache builds a cache over the configured directory.
func openCache() (*gridcache.Cache, error) {
	return gridcache.New(
		gridcache.WithDir(cacheDir),
		gridcache.WithTTL(ttl),
		gridcache.WithLogger(newLogger()),
	)
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
