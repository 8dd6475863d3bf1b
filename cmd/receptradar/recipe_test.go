package main

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/hyperengineering/receptradar"
)

func TestRecipeMarkdown(t *testing.T) {
	servings, minutes, first, second := 4, 45, 1, 2
	recipe := &receptradar.GeneratedRecipe{
		ID:    12,
		Title: "Ostpaj med purjolök",
		Ingredients: []receptradar.GeneratedIngredient{
			{Name: "ost", Amount: "200", Unit: "g"},
			{Name: "ägg", Amount: "3"},
			{Name: "purjolök", Amount: "½", Unit: "st"},
			{Name: "salt"},
			{},
		},
		Steps: []receptradar.GeneratedStep{
			{StepNumber: &first, Instruction: "Sätt ugnen på 200 grader."},
			{StepNumber: &second, Instruction: "Blanda ost och ägg."},
			{Instruction: "Grädda i 30 minuter."},
		},
		Servings:       &servings,
		ReadyInMinutes: &minutes,
		ImagePath:      "/data/images/recipe_01J8Z.png",
	}

	g := goldie.New(t)
	g.Assert(t, "recipe_markdown", []byte(recipeMarkdown(recipe)))
}

func TestRecipeMarkdown_Empty(t *testing.T) {
	got := recipeMarkdown(&receptradar.GeneratedRecipe{Title: "Recept"})
	want := "# Recept\n\n## Ingredients\n\n_No ingredients listed._\n\n## Steps\n\n_No steps listed._\n"
	if got != want {
		t.Errorf("recipeMarkdown() = %q, want %q", got, want)
	}
}
