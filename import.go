package receptradar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ImportJSON imports data written by ExportJSON.
//
// Pantry items are matched on their ingredient name, web recipes on source
// URL, generated recipes on (key, title). Favorites are matched on
// (provider, recipe id); favorites of generated recipes are remapped to the
// ids the recipes receive in this store. With dryRun nothing is written.
//
// Each record is written in its own transaction. A cancelled or failed
// import keeps the records written so far; running the same import again
// with MergeStrategySkip completes it without creating duplicates.
func (s *Store) ImportJSON(ctx context.Context, r io.Reader, strategy MergeStrategy, dryRun bool) (*ImportResult, error) {
	var in ExportFormat
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if in.Version != ExportVersion {
		return nil, fmt.Errorf("unsupported export version %q (expected %q)", in.Version, ExportVersion)
	}
	if strategy == "" {
		strategy = MergeStrategySkip
	}

	result := &ImportResult{}
	if err := s.importPantry(ctx, in.Pantry, strategy, dryRun, result); err != nil {
		return result, err
	}
	if err := s.importWebRecipes(ctx, in.SavedWebRecipes, dryRun, result); err != nil {
		return result, err
	}
	idMap, err := s.importGenerated(ctx, in.GeneratedRecipes, dryRun, result)
	if err != nil {
		return result, err
	}
	if err := s.importFavorites(ctx, in.Favorites, idMap, dryRun, result); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Store) importPantry(ctx context.Context, items []PantryItem, strategy MergeStrategy, dryRun bool, result *ImportResult) error {
	existing, err := s.Pantry().All(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]PantryItem, len(existing))
	for _, item := range existing {
		byName[item.IngredientName()] = item
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Total++
		current, ok := byName[item.IngredientName()]
		switch {
		case ok && strategy == MergeStrategySkip:
			result.Skipped++
		case ok:
			if !dryRun {
				update := PantryUpdate{Quantity: item.Quantity, BestBefore: item.BestBefore}
				if item.Unit != "" {
					update.Unit = &item.Unit
				}
				if item.Category != "" {
					update.Category = &item.Category
				}
				if item.Barcode != "" {
					update.Barcode = &item.Barcode
				}
				if _, err := s.Pantry().Update(ctx, current.ID, update); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("pantry %q: %v", item.Name, err))
					continue
				}
			}
			result.Merged++
		default:
			if !dryRun {
				created, err := s.Pantry().Create(ctx, NewPantryItem{
					Name:           item.Name,
					NormalizedName: item.NormalizedName,
					Barcode:        item.Barcode,
					Category:       item.Category,
					Quantity:       item.Quantity,
					Unit:           item.Unit,
					BestBefore:     item.BestBefore,
				})
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("pantry %q: %v", item.Name, err))
					continue
				}
				byName[created.IngredientName()] = *created
			}
			result.Created++
		}
	}
	return nil
}

func (s *Store) importWebRecipes(ctx context.Context, recipes []SavedWebRecipe, dryRun bool, result *ImportResult) error {
	existing, err := s.WebRecipes().All(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.SourceURL] = struct{}{}
	}

	for _, r := range recipes {
		result.Total++
		if _, ok := seen[r.SourceURL]; ok {
			result.Skipped++
			continue
		}
		if !dryRun {
			if _, err := s.WebRecipes().Save(ctx, NewSavedWebRecipe{
				Title:           r.Title,
				SourceURL:       r.SourceURL,
				ImageURL:        r.ImageURL,
				IngredientQuery: r.IngredientQuery,
			}); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("web recipe %q: %v", r.SourceURL, err))
				continue
			}
		}
		seen[r.SourceURL] = struct{}{}
		result.Created++
	}
	return nil
}

// importGenerated returns a map from exported ids to ids in this store.
func (s *Store) importGenerated(ctx context.Context, recipes []GeneratedRecipe, dryRun bool, result *ImportResult) (map[int64]int64, error) {
	idMap := make(map[int64]int64, len(recipes))
	existing, err := s.Generated().All(ctx)
	if err != nil {
		return nil, err
	}
	type identity struct{ key, title string }
	seen := make(map[identity]int64, len(existing))
	for _, r := range existing {
		seen[identity{r.IngredientCacheKey, r.Title}] = r.ID
	}

	// Oldest first so batch order survives the round trip.
	for i := len(recipes) - 1; i >= 0; i-- {
		r := recipes[i]
		result.Total++
		id := identity{r.IngredientCacheKey, r.Title}
		if existingID, ok := seen[id]; ok {
			idMap[r.ID] = existingID
			result.Skipped++
			continue
		}
		if !dryRun {
			newID, err := s.Generated().Save(ctx, NewGeneratedRecipe{
				IngredientCacheKey: r.IngredientCacheKey,
				Title:              r.Title,
				Ingredients:        r.Ingredients,
				Steps:              r.Steps,
				Servings:           r.Servings,
				ReadyInMinutes:     r.ReadyInMinutes,
				ImagePath:          r.ImagePath,
			})
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("generated recipe %q: %v", r.Title, err))
				continue
			}
			idMap[r.ID] = newID
			seen[id] = newID
		}
		result.Created++
	}
	return idMap, nil
}

func (s *Store) importFavorites(ctx context.Context, favorites []Favorite, idMap map[int64]int64, dryRun bool, result *ImportResult) error {
	for _, f := range favorites {
		result.Total++
		recipeID := f.RecipeID
		if f.Provider == ProviderGenerated {
			if mapped, ok := idMap[parseID(recipeID)]; ok {
				recipeID = formatID(mapped)
			} else if !dryRun {
				result.Skipped++
				continue
			}
		}
		provider := f.Provider
		if !provider.IsValid() {
			provider = ProviderWeb
		}
		existing, err := s.Favorites().GetByRecipe(ctx, provider, recipeID)
		if err != nil {
			return err
		}
		if existing != nil {
			result.Skipped++
			continue
		}
		if !dryRun {
			if _, err := s.Favorites().Add(ctx, provider, recipeID, f.Data()); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("favorite %s/%s: %v", provider, recipeID, err))
				continue
			}
		}
		result.Created++
	}
	return nil
}
