package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/receptradar"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate recipes from the pantry with AI",
	Long: `Generate a batch of recipes from the products in the pantry.

A stored batch for the same ingredients is shown instead of calling the
provider again. Use --new to replace it; recipes from the old batch that
are favorites are kept.

Requires AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY and
AZURE_OPENAI_CHAT_DEPLOYMENT. Set AZURE_OPENAI_IMAGE_DEPLOYMENT to get a
photo for the first recipe.`,
	Example: `  receptradar generate
  receptradar generate --new --no-image`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	generateNew     bool
	generateNoImage bool
)

func init() {
	generateCmd.Flags().BoolVar(&generateNew, "new", false, "Replace the stored batch, keeping favorites")
	generateCmd.Flags().BoolVar(&generateNoImage, "no-image", false, "Do not request a recipe photo")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	if !client.GenerationAvailable() {
		return errors.New("recipe generation is not configured: set AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY and AZURE_OPENAI_CHAT_DEPLOYMENT")
	}

	// Ctrl-C stops between saves; recipes saved so far stay stored.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	names, err := client.Ingredients(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("the pantry is empty: add products with 'receptradar pantry add <name>'")
	}

	opts := receptradar.GenerateOptions{}
	if !generateNoImage {
		if opts.IncludeImage, err = client.Store().Settings().IncludeImage(ctx); err != nil {
			return err
		}
	}

	generate := client.GenerateRecipes
	if generateNew {
		generate = client.RegenerateRecipes
	}

	var result *receptradar.GenerateResult
	err = runWithSpinner(cmd.ErrOrStderr(), "Generating recipes", func() error {
		var genErr error
		result, genErr = generate(ctx, names, opts)
		return genErr
	})
	if err != nil {
		if errors.Is(err, receptradar.ErrNoRecipesGenerated) {
			return errors.New("the provider returned no recipes, try again")
		}
		if result != nil && len(result.Recipes) > 0 {
			printWarning(cmd.ErrOrStderr(), "Stopped after saving %d recipes", len(result.Recipes))
		}
		return fmt.Errorf("generate: %w", err)
	}
	return outputGenerated(cmd, result)
}
