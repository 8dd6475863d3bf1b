package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/receptradar"
	"github.com/hyperengineering/receptradar/internal/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Back up, reset, export and import the local database",
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the database into the backup directory",
	Long: `Copy the database file and its WAL files into <data-dir>/backups,
named with the current UTC time.`,
	Args: cobra.NoArgs,
	RunE: runDBBackup,
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Back up and remove the database",
	Long: `Back up the database, then remove it so the next command starts from an
empty store.

Use this when the database cannot be migrated. Requires --confirm.`,
	Example: `  receptradar db reset --confirm`,
	Args:    cobra.NoArgs,
	RunE:    runDBReset,
}

var dbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export pantry, favorites and recipes as JSON",
	Example: `  receptradar db export -o receptradar.json
  receptradar db export > receptradar.json`,
	Args: cobra.NoArgs,
	RunE: runDBExport,
}

var dbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON export",
	Long: `Import pantry items, favorites, saved web recipes and generated recipes
from a file written by 'receptradar db export'.

Merge strategies:
  skip    - Keep existing pantry items untouched (default)
  merge   - Update existing pantry items with imported fields

Favorites of generated recipes are re-pointed at the imported recipes.`,
	Example: `  receptradar db import -i receptradar.json
  receptradar db import -i receptradar.json --merge-strategy merge --dry-run`,
	Args: cobra.NoArgs,
	RunE: runDBImport,
}

var (
	dbResetConfirm      bool
	exportOutputPath    string
	importInputPath     string
	importMergeStrategy string
	importDryRun        bool
)

func init() {
	dbResetCmd.Flags().BoolVar(&dbResetConfirm, "confirm", false, "Confirm the reset (required)")
	dbExportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "Output file (default: stdout)")
	dbImportCmd.Flags().StringVarP(&importInputPath, "input", "i", "", "Input file path (required)")
	dbImportCmd.Flags().StringVar(&importMergeStrategy, "merge-strategy", string(receptradar.MergeStrategySkip), "Merge strategy: skip, merge")
	dbImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview import without making changes")
	_ = dbImportCmd.MarkFlagRequired("input")

	dbCmd.AddCommand(dbBackupCmd)
	dbCmd.AddCommand(dbResetCmd)
	dbCmd.AddCommand(dbExportCmd)
	dbCmd.AddCommand(dbImportCmd)
	rootCmd.AddCommand(dbCmd)
}

func outputBackup(cmd *cobra.Command, verb string, result *store.BackupResult) error {
	if outputJSON {
		return outputAsJSON(cmd, map[string]interface{}{
			"action": verb,
			"backup": result.Path,
			"files":  result.Files,
		})
	}
	out := cmd.OutOrStdout()
	printSuccess(out, "%s: %s", verb, result.Path)
	for _, f := range result.Files[1:] {
		printMuted(out, "  + %s", f)
	}
	return nil
}

func runDBBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := store.Backup(cfg.DBPath, cfg.BackupDir(), time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNoDatabase) {
			return fmt.Errorf("no database at %s", cfg.DBPath)
		}
		return fmt.Errorf("backup: %w", err)
	}
	return outputBackup(cmd, "Backed up", result)
}

func runDBReset(cmd *cobra.Command, args []string) error {
	if !dbResetConfirm {
		return errors.New("reset removes the database after backing it up; rerun with --confirm")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := store.Reset(cfg.DBPath, cfg.BackupDir(), time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNoDatabase) {
			return fmt.Errorf("no database at %s", cfg.DBPath)
		}
		return fmt.Errorf("reset: %w", err)
	}
	return outputBackup(cmd, "Reset, backup kept at", result)
}

func runDBExport(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	var w io.Writer = cmd.OutOrStdout()
	if exportOutputPath != "" {
		f, err := os.Create(exportOutputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := client.Store().ExportJSON(cmd.Context(), w); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if exportOutputPath != "" && !outputJSON {
		printSuccess(cmd.ErrOrStderr(), "Exported to %s", exportOutputPath)
	}
	return nil
}

// ImportResultOutput for JSON output.
type ImportResultOutput struct {
	InputFile string `json:"input_file"`
	Strategy  string `json:"merge_strategy"`
	DryRun    bool   `json:"dry_run"`
	*receptradar.ImportResult
	Duration string `json:"duration"`
}

func runDBImport(cmd *cobra.Command, args []string) error {
	strategy := receptradar.MergeStrategy(strings.ToLower(importMergeStrategy))
	switch strategy {
	case receptradar.MergeStrategySkip, receptradar.MergeStrategyMerge:
	default:
		return fmt.Errorf("invalid merge strategy %q: must be 'skip' or 'merge'", importMergeStrategy)
	}

	f, err := os.Open(importInputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", importInputPath)
		}
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	if !outputJSON {
		if importDryRun {
			printInfo(out, "Previewing import from %s (strategy %s)...", importInputPath, strategy)
		} else {
			printInfo(out, "Importing from %s (strategy %s)...", importInputPath, strategy)
		}
	}

	start := time.Now()
	result, err := client.Store().ImportJSON(cmd.Context(), f, strategy, importDryRun)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	duration := time.Since(start)

	if outputJSON {
		return outputAsJSON(cmd, ImportResultOutput{
			InputFile:    importInputPath,
			Strategy:     string(strategy),
			DryRun:       importDryRun,
			ImportResult: result,
			Duration:     duration.Round(time.Millisecond).String(),
		})
	}

	labels := [3]string{"Created", "Merged", "Skipped"}
	if importDryRun {
		labels = [3]string{"Would create", "Would merge", "Would skip"}
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Total records: %d\n", result.Total)
	fmt.Fprintf(out, "  %s: %d\n", labels[0], result.Created)
	fmt.Fprintf(out, "  %s: %d\n", labels[1], result.Merged)
	fmt.Fprintf(out, "  %s: %d\n", labels[2], result.Skipped)
	fmt.Fprintf(out, "  Errors: %d\n", len(result.Errors))

	if len(result.Errors) > 0 {
		fmt.Fprintln(out)
		printWarning(out, "Errors encountered:")
		const maxErrors = 10
		for i, e := range result.Errors {
			if i >= maxErrors {
				fmt.Fprintf(out, "  ... and %d more errors\n", len(result.Errors)-maxErrors)
				break
			}
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	fmt.Fprintln(out)
	if importDryRun {
		printMuted(out, "Dry-run complete. No changes made.")
	} else {
		printSuccess(out, "Import complete.")
	}
	return nil
}
