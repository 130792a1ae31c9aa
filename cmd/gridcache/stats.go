package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the cache directory",
	Long: `Display statistics about the cache directory including:
- Number of persisted records
- Total size on disk`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	stats := cache.Stats()

	if stats.DiskEntries == 0 {
		fmt.Println("No cached records found.")
		return nil
	}

	fmt.Printf("Cache directory: %s\n", cache.Dir())
	fmt.Printf("Records:         %d\n", stats.DiskEntries)
	fmt.Printf("Total size:      %s\n", formatBytes(stats.DiskBytes))

	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
