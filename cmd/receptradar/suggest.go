package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/receptradar"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Rank stored recipes against the pantry",
	Long: `List the generated recipes for the current pantry and the saved web
recipes for it, best match first.

Recipes are ordered by the share of their ingredients found in the pantry,
then by how many are found, then by preparation time.`,
	Example: `  receptradar suggest
  receptradar suggest --max-minutes 30`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

var suggestMaxMinutes int

func init() {
	suggestCmd.Flags().IntVar(&suggestMaxMinutes, "max-minutes", 0, "Only recipes ready within this many minutes")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if suggestMaxMinutes < 0 {
		return fmt.Errorf("--max-minutes must not be negative")
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	sg, err := client.Suggest(cmd.Context(), receptradar.SuggestOptions{MaxReadyMinutes: suggestMaxMinutes})
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}
	return outputSuggestions(cmd, sg)
}
