package receptradar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// WebRecipeStore manages recipe pages bookmarked from web search.
type WebRecipeStore struct {
	s *Store
}

const webRecipeColumns = `id, title, source_url, image_url, ingredient_query, saved_at`

// NewSavedWebRecipe contains the fields accepted when saving a web recipe.
type NewSavedWebRecipe struct {
	Title           string
	SourceURL       string
	ImageURL        string
	IngredientQuery string
}

// IngredientQuery is the search query saved alongside web recipes for an
// ingredient list: the first few names joined by spaces.
func IngredientQuery(names []string) string {
	if len(names) > maxIngredientsForQuery {
		names = names[:maxIngredientsForQuery]
	}
	return strings.TrimSpace(strings.Join(names, " "))
}

// Save stores a web recipe and returns it.
func (w *WebRecipeStore) Save(ctx context.Context, in NewSavedWebRecipe) (*SavedWebRecipe, error) {
	if strings.TrimSpace(in.SourceURL) == "" {
		return nil, fmt.Errorf("web recipe: source url: %w", ErrEmptyName)
	}
	var recipe *SavedWebRecipe
	err := w.s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO saved_web_recipes (title, source_url, image_url, ingredient_query, saved_at)
			VALUES (?, ?, ?, ?, ?)
		`, nullString(in.Title), in.SourceURL, nullString(in.ImageURL), nullString(in.IngredientQuery), w.s.unixNow())
		if err != nil {
			return fmt.Errorf("store: insert web recipe: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		recipe, err = scanWebRecipe(tx.QueryRowContext(ctx, `SELECT `+webRecipeColumns+` FROM saved_web_recipes WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// All returns every saved web recipe, newest first.
func (w *WebRecipeStore) All(ctx context.Context) ([]SavedWebRecipe, error) {
	return w.query(ctx, `SELECT `+webRecipeColumns+` FROM saved_web_recipes ORDER BY saved_at DESC, id DESC`)
}

// GetByIngredientQuery returns recipes saved for query, newest first.
func (w *WebRecipeStore) GetByIngredientQuery(ctx context.Context, query string) ([]SavedWebRecipe, error) {
	if query == "" {
		return []SavedWebRecipe{}, nil
	}
	return w.query(ctx, `
		SELECT `+webRecipeColumns+` FROM saved_web_recipes
		WHERE ingredient_query = ?
		ORDER BY saved_at DESC, id DESC
	`, query)
}

// Delete removes a saved web recipe.
func (w *WebRecipeStore) Delete(ctx context.Context, id int64) error {
	return w.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM saved_web_recipes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete web recipe: %w", err)
		}
		return nil
	})
}

func (w *WebRecipeStore) query(ctx context.Context, query string, args ...any) ([]SavedWebRecipe, error) {
	recipes := []SavedWebRecipe{}
	err := w.s.read(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("store: query web recipes: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanWebRecipe(rows)
			if err != nil {
				return err
			}
			recipes = append(recipes, *r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func scanWebRecipe(sc scanner) (*SavedWebRecipe, error) {
	var (
		r        SavedWebRecipe
		title    sql.NullString
		imageURL sql.NullString
		query    sql.NullString
		savedAt  int64
	)
	if err := sc.Scan(&r.ID, &title, &r.SourceURL, &imageURL, &query, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan web recipe: %w", err)
	}
	r.Title = title.String
	r.ImageURL = imageURL.String
	r.IngredientQuery = query.String
	r.SavedAt = unixTime(savedAt)
	return &r, nil
}

// DefaultWebRecipeTitle is shown for saved web recipes without a title.
const DefaultWebRecipeTitle = "Recept från webben"

// Summary converts a saved web recipe to a RecipeSummary. Web recipes carry
// no structured ingredients.
func (r SavedWebRecipe) Summary() RecipeSummary {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = DefaultWebRecipeTitle
	}
	return RecipeSummary{
		ID:          strconv.FormatInt(r.ID, 10),
		Provider:    ProviderWeb,
		Title:       title,
		Image:       strings.TrimSpace(r.ImageURL),
		SourceURL:   r.SourceURL,
		Ingredients: []RecipeIngredient{},
	}
}
