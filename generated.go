package receptradar

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// GeneratedBatchStore stores AI-generated recipes grouped into batches by
// ingredient cache key. Records are immutable once saved.
type GeneratedBatchStore struct {
	s *Store
}

const generatedColumns = `id, ingredient_cache_key, title, ingredients_json, steps_json,
	servings, ready_in_minutes, image_path, created_at`

// GetBatch returns every record stored under the key for names, newest first.
// Names that produce the empty key have no batch.
func (g *GeneratedBatchStore) GetBatch(ctx context.Context, names []string) ([]GeneratedRecipe, error) {
	return g.GetByIngredientKey(ctx, BuildIngredientKey(names))
}

// GetByIngredientKey returns every record stored under key, newest first.
func (g *GeneratedBatchStore) GetByIngredientKey(ctx context.Context, key string) ([]GeneratedRecipe, error) {
	recipes := []GeneratedRecipe{}
	if key == "" {
		return recipes, nil
	}
	err := g.s.read(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT `+generatedColumns+`
			FROM generated_recipes
			WHERE ingredient_cache_key = ?
			ORDER BY created_at DESC, id DESC
		`, key)
		if err != nil {
			return fmt.Errorf("store: query generated batch: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanGeneratedRecipe(rows)
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

// GetByIngredientKeyLatest returns the newest record for key, or nil if the
// batch is empty or key is "".
func (g *GeneratedBatchStore) GetByIngredientKeyLatest(ctx context.Context, key string) (*GeneratedRecipe, error) {
	if key == "" {
		return nil, nil
	}
	var recipe *GeneratedRecipe
	err := g.s.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `
			SELECT `+generatedColumns+`
			FROM generated_recipes
			WHERE ingredient_cache_key = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		`, key)
		r, err := scanGeneratedRecipe(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		recipe = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetByID returns the record with id, or nil if it does not exist.
func (g *GeneratedBatchStore) GetByID(ctx context.Context, id int64) (*GeneratedRecipe, error) {
	var recipe *GeneratedRecipe
	err := g.s.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+generatedColumns+` FROM generated_recipes WHERE id = ?`, id)
		r, err := scanGeneratedRecipe(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		recipe = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// Save inserts a record and returns its id. The key must be non-empty and
// the title must not be blank.
func (g *GeneratedBatchStore) Save(ctx context.Context, r NewGeneratedRecipe) (int64, error) {
	if r.IngredientCacheKey == "" {
		return 0, ErrEmptyCacheKey
	}
	if strings.TrimSpace(r.Title) == "" {
		return 0, ErrEmptyTitle
	}

	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []GeneratedIngredient{}
	}
	ingredientsJSON, err := json.Marshal(ingredients)
	if err != nil {
		return 0, fmt.Errorf("encode ingredients: %w", err)
	}
	steps := r.Steps
	if steps == nil {
		steps = []GeneratedStep{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return 0, fmt.Errorf("encode steps: %w", err)
	}

	var id int64
	err = g.s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO generated_recipes (ingredient_cache_key, title, ingredients_json, steps_json,
				servings, ready_in_minutes, image_path, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.IngredientCacheKey,
			r.Title,
			string(ingredientsJSON),
			string(stepsJSON),
			nullInt(r.Servings),
			nullInt(r.ReadyInMinutes),
			nullString(r.ImagePath),
			g.s.unixNow(),
		)
		if err != nil {
			return fmt.Errorf("store: insert generated recipe: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteByID removes a record. Deleting a missing id is not an error.
func (g *GeneratedBatchStore) DeleteByID(ctx context.Context, id int64) error {
	return g.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM generated_recipes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete generated recipe: %w", err)
		}
		return nil
	})
}

// ReplaceBatchKeepingFavorited deletes every record in the batch for names
// except the ids in keepIDs, and returns how many rows were removed. Records
// under other keys are never touched. Ids in keepIDs that belong to another
// batch or do not exist are ignored.
func (g *GeneratedBatchStore) ReplaceBatchKeepingFavorited(ctx context.Context, names []string, keepIDs []int64) (int64, error) {
	key := BuildIngredientKey(names)
	if key == "" {
		return 0, nil
	}

	query := `DELETE FROM generated_recipes WHERE ingredient_cache_key = ?`
	args := []any{key}
	if len(keepIDs) > 0 {
		query += ` AND id NOT IN (` + strings.TrimSuffix(strings.Repeat("?,", len(keepIDs)), ",") + `)`
		for _, id := range keepIDs {
			args = append(args, id)
		}
	}

	var removed int64
	err := g.s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("store: replace generated batch: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	g.s.logger.Debug("replaced generated batch",
		zap.String("key", key),
		zap.Int("kept", len(keepIDs)),
		zap.Int64("removed", removed))
	return removed, nil
}

func scanGeneratedRecipe(sc scanner) (*GeneratedRecipe, error) {
	var (
		r               GeneratedRecipe
		ingredientsJSON string
		stepsJSON       string
		servings        sql.NullInt64
		readyIn         sql.NullInt64
		imagePath       sql.NullString
		createdAt       int64
	)
	err := sc.Scan(&r.ID, &r.IngredientCacheKey, &r.Title, &ingredientsJSON, &stepsJSON,
		&servings, &readyIn, &imagePath, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan generated recipe: %w", err)
	}
	r.Ingredients = ParseIngredients(ingredientsJSON)
	r.Steps = ParseSteps(stepsJSON)
	r.Servings = intPtr(servings)
	r.ReadyInMinutes = intPtr(readyIn)
	r.ImagePath = imagePath.String
	r.CreatedAt = unixTime(createdAt)
	return &r, nil
}

// ParseIngredients decodes a stored ingredient list. Malformed input yields
// an empty list; malformed elements yield an ingredient with an empty name.
func ParseIngredients(data string) []GeneratedIngredient {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return []GeneratedIngredient{}
	}
	out := make([]GeneratedIngredient, 0, len(items))
	for _, raw := range items {
		var item struct {
			Name   any    `json:"name"`
			Amount Amount `json:"amount"`
			Unit   any    `json:"unit"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			out = append(out, GeneratedIngredient{})
			continue
		}
		ing := GeneratedIngredient{Name: looseString(item.Name), Amount: item.Amount}
		if unit, ok := item.Unit.(string); ok {
			ing.Unit = unit
		}
		out = append(out, ing)
	}
	return out
}

// ParseSteps decodes a stored step list. Malformed input yields an empty list.
func ParseSteps(data string) []GeneratedStep {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return []GeneratedStep{}
	}
	out := make([]GeneratedStep, 0, len(items))
	for _, raw := range items {
		var item struct {
			StepNumber  any `json:"step_number"`
			Instruction any `json:"instruction"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			out = append(out, GeneratedStep{})
			continue
		}
		step := GeneratedStep{Instruction: looseString(item.Instruction)}
		if n, ok := item.StepNumber.(float64); ok && n == math.Trunc(n) {
			v := int(n)
			step.StepNumber = &v
		}
		out = append(out, step)
	}
	return out
}

// looseString renders a decoded JSON scalar as text. Null becomes "".
func looseString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Summary converts a generated recipe to a RecipeSummary for matching.
func (r GeneratedRecipe) Summary() RecipeSummary {
	ingredients := make([]RecipeIngredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, RecipeIngredient{Name: ing.Name, Original: ing.Original()})
	}
	return RecipeSummary{
		ID:             strconv.FormatInt(r.ID, 10),
		Provider:       ProviderGenerated,
		Title:          r.Title,
		Image:          r.ImagePath,
		ReadyInMinutes: r.ReadyInMinutes,
		Ingredients:    ingredients,
	}
}

// All returns every stored generated recipe, newest first.
func (g *GeneratedBatchStore) All(ctx context.Context) ([]GeneratedRecipe, error) {
	recipes := []GeneratedRecipe{}
	err := g.s.read(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT `+generatedColumns+` FROM generated_recipes ORDER BY created_at DESC, id DESC`)
		if err != nil {
			return fmt.Errorf("store: query generated recipes: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanGeneratedRecipe(rows)
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
