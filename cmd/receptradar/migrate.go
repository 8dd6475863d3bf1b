package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/receptradar"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the local database",
	Long: `Open the local database and bring its schema up to date.

Every command migrates on open; this command only reports what was done.
All pending steps run in one transaction, so a failed upgrade leaves the
database at its previous version.`,
	Example: `  receptradar migrate
  receptradar migrate --db ./kitchen.db --json`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	s, err := receptradar.NewStore(cfg.DBPath, receptradar.WithLogger(logger))
	if err != nil {
		return withResetHint(err)
	}
	defer s.Close()

	result := s.Migration()
	if outputJSON {
		return outputAsJSON(cmd, result)
	}

	out := cmd.OutOrStdout()
	if len(result.Applied) == 0 {
		printSuccess(out, "Schema is up to date (v%d)", result.ToVersion)
		return nil
	}
	printSuccess(out, "Migrated %s from v%d to v%d", cfg.DBPath, result.FromVersion, result.ToVersion)
	for _, v := range result.Applied {
		fmt.Fprintf(out, "  applied step %d\n", v)
	}
	return nil
}
