package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/receptradar"
)

// outputAsJSON writes any value as formatted JSON to the command's stdout.
func outputAsJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints an error to w, ensuring the provider key is not leaked.
func outputError(w io.Writer, err error) {
	printError(w, "%s", scrubSensitiveData(err.Error()))
}

// scrubSensitiveData removes the Azure API key from error messages.
func scrubSensitiveData(msg string) string {
	if key := os.Getenv("AZURE_OPENAI_API_KEY"); key != "" && strings.Contains(msg, key) {
		msg = strings.ReplaceAll(msg, key, "[REDACTED]")
	}
	return msg
}

// withResetHint points at `db reset` when the store cannot be opened
// because of its schema.
func withResetHint(err error) error {
	var migErr *receptradar.MigrationError
	if errors.As(err, &migErr) || errors.Is(err, receptradar.ErrSchemaTooNew) {
		return fmt.Errorf("%w\n\nBack up and recreate the database with: receptradar db reset --confirm", err)
	}
	return err
}

// formatQuantity renders "2 st", "1.5" or "" for an item without a quantity.
func formatQuantity(item receptradar.PantryItem) string {
	if item.Quantity == nil {
		return ""
	}
	q := fmt.Sprintf("%g", *item.Quantity)
	if item.Unit != "" {
		q += " " + item.Unit
	}
	return q
}

// recipeRef renders how a recipe is addressed on the command line.
func recipeRef(r receptradar.RecipeSummary) string {
	if r.Provider == receptradar.ProviderGenerated {
		return "generated #" + r.ID
	}
	return string(r.Provider) + " #" + r.ID
}

func outputPantry(cmd *cobra.Command, items []receptradar.PantryItem) error {
	if outputJSON {
		return outputAsJSON(cmd, items)
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		printWarning(out, "The pantry is empty.")
		printMuted(out, "(Tip: add products with 'receptradar pantry add <name>')")
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		bestBefore := ""
		if item.BestBefore != nil {
			bestBefore = item.BestBefore.Format("2006-01-02")
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Name,
			item.IngredientName(),
			formatQuantity(item),
			bestBefore,
		})
	}

	printInfo(out, "Pantry (%d items):", len(items))
	fmt.Fprintln(out, renderTable([]string{"ID", "NAME", "MATCHES AS", "QUANTITY", "BEST BEFORE"}, rows))
	return nil
}

func outputSuggestions(cmd *cobra.Command, sg *receptradar.Suggestions) error {
	if outputJSON {
		return outputAsJSON(cmd, sg)
	}

	out := cmd.OutOrStdout()
	if len(sg.Ingredients) == 0 {
		printWarning(out, "The pantry is empty, showing all saved web recipes.")
	}
	if len(sg.Recipes) == 0 {
		printWarning(out, "No recipes found.")
		printMuted(out, "(Tip: run 'receptradar generate' to create recipes for your pantry)")
		return nil
	}

	if len(sg.Ingredients) > 0 {
		printInfo(out, "%d recipes for %s:", len(sg.Recipes), strings.Join(sg.Ingredients, ", "))
	}
	fmt.Fprintln(out)
	for i, r := range sg.Recipes {
		fmt.Fprintf(out, "%2d. %s (%s)\n", i+1, r.Recipe.Title, recipeRef(r.Recipe))

		var details []string
		if r.Match.Total > 0 {
			details = append(details, styled(matchStyle, fmt.Sprintf("%d/%d ingredients", r.Match.Have, r.Match.Total)))
		}
		if r.Recipe.ReadyInMinutes != nil {
			details = append(details, fmt.Sprintf("%d min", *r.Recipe.ReadyInMinutes))
		}
		if len(details) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(details, "  "))
		}
		if len(r.Match.Missing) > 0 {
			printMuted(out, "    Missing: %s", strings.Join(r.Match.Missing, ", "))
		}
		if r.Recipe.SourceURL != "" {
			printMuted(out, "    %s", r.Recipe.SourceURL)
		}
	}
	return nil
}

func outputGenerated(cmd *cobra.Command, result *receptradar.GenerateResult) error {
	if outputJSON {
		return outputAsJSON(cmd, result)
	}

	out := cmd.OutOrStdout()
	switch {
	case result.Cached:
		printInfo(out, "Stored recipes for your pantry (%d):", len(result.Recipes))
	case len(result.Kept) > 0 || result.Removed > 0:
		printSuccess(out, "Generated %d recipes (kept %d favorites, removed %d)", len(result.Recipes), len(result.Kept), result.Removed)
	default:
		printSuccess(out, "Generated %d recipes", len(result.Recipes))
	}
	fmt.Fprintln(out)
	for _, r := range result.Recipes {
		fmt.Fprintf(out, "  %4d  %s", r.ID, r.Title)
		if r.ReadyInMinutes != nil {
			fmt.Fprintf(out, " (%d min)", *r.ReadyInMinutes)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)
	printMuted(out, "Show a recipe with 'receptradar recipe show <id>'")
	return nil
}

func outputFavorites(cmd *cobra.Command, favorites []receptradar.Favorite) error {
	if outputJSON {
		return outputAsJSON(cmd, favorites)
	}

	out := cmd.OutOrStdout()
	if len(favorites) == 0 {
		printWarning(out, "No favorites yet.")
		return nil
	}

	rows := make([][]string, 0, len(favorites))
	for _, f := range favorites {
		data := f.Data()
		title := data.Title
		if title == "" {
			title = "(untitled)"
		}
		rows = append(rows, []string{string(f.Provider), f.RecipeID, title, f.AddedAt.Local().Format("2006-01-02")})
	}

	printInfo(out, "Favorites (%d):", len(favorites))
	fmt.Fprintln(out, renderTable([]string{"PROVIDER", "ID", "TITLE", "ADDED"}, rows))
	return nil
}

func outputStats(cmd *cobra.Command, path string, stats *receptradar.StoreStats, generation bool) error {
	if outputJSON {
		return outputAsJSON(cmd, struct {
			Path              string `json:"path"`
			GenerationEnabled bool   `json:"generation_enabled"`
			*receptradar.StoreStats
		}{path, generation, stats})
	}

	generationStatus := "not configured"
	if generation {
		generationStatus = "available"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Database:          %s\n", path)
	fmt.Fprintf(&sb, "Schema version:    %d\n", stats.SchemaVersion)
	fmt.Fprintf(&sb, "Pantry items:      %d\n", stats.PantryItems)
	fmt.Fprintf(&sb, "Favorites:         %d\n", stats.Favorites)
	fmt.Fprintf(&sb, "Generated recipes: %d (%d batches)\n", stats.GeneratedRecipes, stats.GeneratedBatches)
	fmt.Fprintf(&sb, "Saved web recipes: %d\n", stats.SavedWebRecipes)
	fmt.Fprintf(&sb, "Product cache:     %d\n", stats.ProductCache)
	fmt.Fprintf(&sb, "Recipe cache:      %d\n", stats.RecipeCache)
	fmt.Fprintf(&sb, "Generation:        %s", generationStatus)

	fmt.Fprintln(cmd.OutOrStdout(), renderPanel("Local Store Statistics", sb.String()))
	return nil
}
