package receptradar

import (
	"sort"
	"strings"

	"github.com/hyperengineering/receptradar/internal/normalize"
)

// RecipeIngredient is an ingredient line of a candidate recipe. Name is the
// structured ingredient name; Original is the display line, if any.
type RecipeIngredient struct {
	Name     string `json:"name"`
	Original string `json:"original,omitempty"`
}

// RecipeSummary is a candidate recipe shown to the user, generated or saved
// from the web.
type RecipeSummary struct {
	ID             string             `json:"id"`
	Provider       Provider           `json:"provider"`
	Title          string             `json:"title"`
	Image          string             `json:"image,omitempty"`
	SourceURL      string             `json:"source_url,omitempty"`
	ReadyInMinutes *int               `json:"ready_in_minutes,omitempty"`
	Ingredients    []RecipeIngredient `json:"ingredients"`
}

// PantrySet is the set of normalized pantry names used for matching.
type PantrySet map[string]struct{}

// NewPantrySet normalizes names into a PantrySet. Names that normalize to the
// empty string are skipped.
func NewPantrySet(names ...string) PantrySet {
	set := make(PantrySet, len(names))
	for _, name := range names {
		set.Add(name)
	}
	return set
}

// Add normalizes name and adds it to the set.
func (p PantrySet) Add(name string) {
	if k := normalize.Key(name); k != "" {
		p[k] = struct{}{}
	}
}

// Has reports whether the normalized form of name is in the set. The empty
// key is never a member.
func (p PantrySet) Has(name string) bool {
	k := normalize.Key(name)
	if k == "" {
		return false
	}
	_, ok := p[k]
	return ok
}

// MatchResult reports how much of a recipe the pantry covers.
type MatchResult struct {
	Have    int      `json:"have"`
	Total   int      `json:"total"`
	Missing []string `json:"missing"`
}

// Ratio returns Have/Total, or 0 for a recipe without ingredients.
func (m MatchResult) Ratio() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Have) / float64(m.Total)
}

// ScoredRecipe pairs a recipe with its match against the pantry.
type ScoredRecipe struct {
	Recipe RecipeSummary `json:"recipe"`
	Match  MatchResult   `json:"match"`
}

// ScoreRecipe computes how many of the recipe's ingredients are in the pantry.
//
// The structured name is matched when present, the original line otherwise.
// Missing lists display strings (original, else name, else "?") in recipe
// order. Total counts every ingredient, including ones that normalize to
// nothing.
func ScoreRecipe(recipe RecipeSummary, pantry PantrySet) MatchResult {
	result := MatchResult{
		Total:   len(recipe.Ingredients),
		Missing: []string{},
	}
	for _, ing := range recipe.Ingredients {
		raw := strings.TrimSpace(ing.Name)
		if raw == "" {
			raw = strings.TrimSpace(ing.Original)
		}
		if pantry.Has(raw) {
			result.Have++
			continue
		}
		result.Missing = append(result.Missing, missingDisplay(ing, raw))
	}
	return result
}

func missingDisplay(ing RecipeIngredient, raw string) string {
	switch {
	case ing.Original != "":
		return ing.Original
	case ing.Name != "":
		return ing.Name
	case raw != "":
		return raw
	default:
		return "?"
	}
}

// ScoreRecipes scores every recipe against the pantry, preserving order.
func ScoreRecipes(recipes []RecipeSummary, pantry PantrySet) []ScoredRecipe {
	scored := make([]ScoredRecipe, len(recipes))
	for i, r := range recipes {
		scored[i] = ScoredRecipe{Recipe: r, Match: ScoreRecipe(r, pantry)}
	}
	return scored
}

// RankRecipes sorts scored recipes in place: highest match ratio first, then
// quickest first with an unknown time ranked last. Equal entries keep their
// relative order.
func RankRecipes(recipes []ScoredRecipe) {
	sort.SliceStable(recipes, func(i, j int) bool {
		a, b := recipes[i], recipes[j]
		if c := compareRatio(a.Match, b.Match); c != 0 {
			return c > 0
		}
		return readyBefore(a.Recipe.ReadyInMinutes, b.Recipe.ReadyInMinutes)
	})
}

// compareRatio compares Have/Total exactly by cross-multiplication.
func compareRatio(a, b MatchResult) int {
	var left, right int
	if a.Total > 0 && b.Total > 0 {
		left, right = a.Have*b.Total, b.Have*a.Total
	} else {
		if a.Total > 0 && a.Have > 0 {
			left = 1
		}
		if b.Total > 0 && b.Have > 0 {
			right = 1
		}
	}
	switch {
	case left > right:
		return 1
	case left < right:
		return -1
	default:
		return 0
	}
}

func readyBefore(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
