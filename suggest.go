package receptradar

import "context"

// SuggestOptions filters suggestions.
type SuggestOptions struct {
	// MaxReadyMinutes drops recipes known to take longer. Recipes without a
	// time are kept. Zero disables the filter.
	MaxReadyMinutes int
}

// Suggestions are the ranked recipes for the current pantry.
type Suggestions struct {
	Ingredients []string       `json:"ingredients"`
	Key         string         `json:"ingredient_cache_key"`
	Recipes     []ScoredRecipe `json:"recipes"`
}

// Suggest collects the stored generated batch for the pantry's ingredients
// and the web recipes saved for them, scores each against the pantry and
// returns them ranked.
func (c *Client) Suggest(ctx context.Context, opts SuggestOptions) (*Suggestions, error) {
	items, err := c.store.Pantry().All(ctx)
	if err != nil {
		return nil, err
	}
	names := BuildIngredients(items)

	generated, err := c.store.Generated().GetBatch(ctx, names)
	if err != nil {
		return nil, err
	}

	webStore := c.store.WebRecipes()
	var web []SavedWebRecipe
	if query := IngredientQuery(names); query != "" {
		web, err = webStore.GetByIngredientQuery(ctx, query)
	} else {
		web, err = webStore.All(ctx)
	}
	if err != nil {
		return nil, err
	}

	summaries := make([]RecipeSummary, 0, len(generated)+len(web))
	for _, r := range generated {
		summaries = append(summaries, r.Summary())
	}
	for _, r := range web {
		summaries = append(summaries, r.Summary())
	}

	scored := ScoreRecipes(filterReadyIn(summaries, opts.MaxReadyMinutes), PantrySetOf(items))
	RankRecipes(scored)

	return &Suggestions{
		Ingredients: names,
		Key:         BuildIngredientKey(names),
		Recipes:     scored,
	}, nil
}

func filterReadyIn(recipes []RecipeSummary, limit int) []RecipeSummary {
	if limit <= 0 {
		return recipes
	}
	out := recipes[:0:0]
	for _, r := range recipes {
		if r.ReadyInMinutes != nil && *r.ReadyInMinutes > limit {
			continue
		}
		out = append(out, r)
	}
	return out
}
