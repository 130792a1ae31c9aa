package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired cached records",
	Long: `Scan the cache directory and remove every record older than the
configured TTL. Records that cannot be parsed are removed as well.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	removed, err := cache.Sweep(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Swept %d expired record(s)\n", removed)
	return nil
}
