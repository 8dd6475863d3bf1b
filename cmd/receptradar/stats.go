package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	Long:  `Display row counts and the schema version of the local database.`,
	Example: `  receptradar stats
  receptradar stats --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := client.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	return outputStats(cmd, client.Store().Path(), stats, client.GenerationAvailable())
}
