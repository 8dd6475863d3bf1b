package receptradar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultRecipeTitle is used for generated recipes that arrive without a title.
const DefaultRecipeTitle = "Recept"

// RecipeGenerator produces recipes from ingredient names.
//
// Generate returns payloads in provider order. Only the first payload may
// carry a local ImagePath; image failures are not errors. Available reports
// whether the generator is configured.
type RecipeGenerator interface {
	Available() bool
	Generate(ctx context.Context, ingredients []string, includeImage bool) ([]RecipePayload, error)
}

// GenerateOptions controls a generation call.
type GenerateOptions struct {
	IncludeImage bool
	// SkipCache forces a provider call even when a full batch is stored.
	SkipCache bool
}

// GenerateResult is the outcome of GenerateRecipes.
type GenerateResult struct {
	Key     string            `json:"ingredient_cache_key"`
	Cached  bool              `json:"cached"`
	Recipes []GeneratedRecipe `json:"recipes"`
	// Removed counts records deleted by regeneration.
	Removed int64 `json:"removed,omitempty"`
	// Kept lists favorited ids retained by regeneration.
	Kept []int64 `json:"kept,omitempty"`
}

// GenerationAvailable reports whether a configured generator is attached.
func (c *Client) GenerationAvailable() bool {
	return c.generator != nil && c.generator.Available()
}

// GenerateRecipes returns a batch of recipes for names.
//
// When the stored batch for the ingredient key already holds RecipesPerBatch
// records and SkipCache is false, the stored batch is returned. Otherwise the
// generator is called with at most MaxIngredientsForRecipes names and every
// payload is saved under the key. If ctx is cancelled between saves the
// records saved so far remain stored.
func (c *Client) GenerateRecipes(ctx context.Context, names []string, opts GenerateOptions) (*GenerateResult, error) {
	key := BuildIngredientKey(names)
	if key == "" {
		return nil, ErrNoIngredients
	}
	if !c.GenerationAvailable() {
		return nil, ErrProviderUnavailable
	}

	batches := c.store.Generated()
	if !opts.SkipCache {
		existing, err := batches.GetByIngredientKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(existing) >= RecipesPerBatch {
			c.logger.Debug("generated batch cache hit", zap.String("key", key), zap.Int("count", len(existing)))
			return &GenerateResult{Key: key, Cached: true, Recipes: existing[:RecipesPerBatch]}, nil
		}
	}

	prompt := names
	if len(prompt) > MaxIngredientsForRecipes {
		prompt = prompt[:MaxIngredientsForRecipes]
	}

	start := time.Now()
	payloads, err := c.generator.Generate(ctx, prompt, opts.IncludeImage)
	if err != nil {
		return nil, fmt.Errorf("generate recipes: %w", err)
	}
	c.logger.Debug("provider returned recipes",
		zap.Int("count", len(payloads)),
		zap.Duration("duration", time.Since(start)))
	if len(payloads) == 0 {
		return nil, ErrNoRecipesGenerated
	}
	if len(payloads) > RecipesPerBatch {
		payloads = payloads[:RecipesPerBatch]
	}

	result := &GenerateResult{Key: key, Recipes: make([]GeneratedRecipe, 0, len(payloads))}
	for i, p := range payloads {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec := NewGeneratedRecipe{
			IngredientCacheKey: key,
			Title:              strings.TrimSpace(p.Title),
			Ingredients:        p.Ingredients,
			Steps:              p.Steps,
			Servings:           p.Servings,
			ReadyInMinutes:     p.ReadyInMinutes,
		}
		if rec.Title == "" {
			rec.Title = DefaultRecipeTitle
		}
		if i == 0 {
			rec.ImagePath = p.ImagePath
		}

		id, err := batches.Save(ctx, rec)
		if err != nil {
			return result, fmt.Errorf("save generated recipe %d: %w", i, err)
		}
		saved, err := batches.GetByID(ctx, id)
		if err != nil {
			return result, err
		}
		if saved != nil {
			result.Recipes = append(result.Recipes, *saved)
		}
	}
	return result, nil
}

// RegenerateRecipes replaces the batch for names with a fresh one. Records
// in the current batch that are favorited are kept; the rest are deleted
// before the provider is called. A provider failure after the deletion does
// not restore the deleted records.
func (c *Client) RegenerateRecipes(ctx context.Context, names []string, opts GenerateOptions) (*GenerateResult, error) {
	key := BuildIngredientKey(names)
	if key == "" {
		return nil, ErrNoIngredients
	}
	if !c.GenerationAvailable() {
		return nil, ErrProviderUnavailable
	}

	keep, err := c.favoritedInBatch(ctx, names)
	if err != nil {
		return nil, err
	}
	removed, err := c.store.Generated().ReplaceBatchKeepingFavorited(ctx, names, keep)
	if err != nil {
		return nil, err
	}
	c.logger.Info("cleared generated batch",
		zap.String("key", key),
		zap.Int64("removed", removed),
		zap.Int("kept", len(keep)))

	opts.SkipCache = true
	result, err := c.GenerateRecipes(ctx, names, opts)
	if result != nil {
		result.Removed = removed
		result.Kept = keep
	}
	return result, err
}

// favoritedInBatch returns the ids in the current batch for names that are
// favorited as generated recipes.
func (c *Client) favoritedInBatch(ctx context.Context, names []string) ([]int64, error) {
	batch, err := c.store.Generated().GetBatch(ctx, names)
	if err != nil {
		return nil, err
	}
	favorited, err := c.store.Favorites().GeneratedRecipeIDs(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(favorited))
	for _, id := range favorited {
		set[id] = struct{}{}
	}
	keep := []int64{}
	for _, r := range batch {
		if _, ok := set[r.ID]; ok {
			keep = append(keep, r.ID)
		}
	}
	return keep, nil
}
