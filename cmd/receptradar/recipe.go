package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/receptradar"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Show generated recipes",
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a generated recipe",
	Long: `Show the ingredients and steps of a generated recipe.

On a terminal the recipe is rendered as formatted markdown; piped output is
plain markdown.`,
	Example: `  receptradar recipe show 12
  receptradar recipe show 12 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRecipeShow,
}

func init() {
	recipeCmd.AddCommand(recipeShowCmd)
	rootCmd.AddCommand(recipeCmd)
}

func runRecipeShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid recipe id %q", args[0])
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	recipe, err := client.GeneratedRecipe(cmd.Context(), id)
	if err != nil {
		return err
	}
	if recipe == nil {
		return fmt.Errorf("recipe %d not found", id)
	}

	if outputJSON {
		return outputAsJSON(cmd, recipe)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(recipeMarkdown(recipe)))
	return nil
}

// recipeMarkdown renders a generated recipe as markdown.
func recipeMarkdown(r *receptradar.GeneratedRecipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", r.Title)

	var meta []string
	if r.Servings != nil {
		meta = append(meta, fmt.Sprintf("Serves %d", *r.Servings))
	}
	if r.ReadyInMinutes != nil {
		meta = append(meta, fmt.Sprintf("Ready in %d min", *r.ReadyInMinutes))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&sb, "*%s*\n\n", strings.Join(meta, " | "))
	}
	if r.ImagePath != "" {
		fmt.Fprintf(&sb, "![%s](%s)\n\n", r.Title, r.ImagePath)
	}

	sb.WriteString("## Ingredients\n\n")
	if len(r.Ingredients) == 0 {
		sb.WriteString("_No ingredients listed._\n")
	}
	for _, ing := range r.Ingredients {
		line := ing.Original()
		if line == "" {
			line = strings.TrimSpace(string(ing.Amount) + " " + ing.Name)
		}
		if line == "" {
			line = "?"
		}
		fmt.Fprintf(&sb, "- %s\n", line)
	}

	sb.WriteString("\n## Steps\n\n")
	if len(r.Steps) == 0 {
		sb.WriteString("_No steps listed._\n")
	}
	for i, step := range r.Steps {
		n := i + 1
		if step.StepNumber != nil {
			n = *step.StepNumber
		}
		fmt.Fprintf(&sb, "%d. %s\n", n, step.Instruction)
	}
	return sb.String()
}
