package receptradar

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FavoriteStore manages favorited recipes. A recipe is identified by its
// provider and provider-specific recipe id.
type FavoriteStore struct {
	s *Store
}

const favoriteColumns = `id, provider, recipe_id, recipe_data, added_at`

// All returns every favorite, most recently added first.
func (f *FavoriteStore) All(ctx context.Context) ([]Favorite, error) {
	favorites := []Favorite{}
	err := f.s.read(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT `+favoriteColumns+` FROM favorites ORDER BY added_at DESC, id DESC`)
		if err != nil {
			return fmt.Errorf("store: query favorites: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			fav, err := scanFavorite(rows)
			if err != nil {
				return err
			}
			favorites = append(favorites, *fav)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return favorites, nil
}

// GetByRecipe returns the favorite for (provider, recipeID), or nil.
func (f *FavoriteStore) GetByRecipe(ctx context.Context, provider Provider, recipeID string) (*Favorite, error) {
	var fav *Favorite
	err := f.s.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			`SELECT `+favoriteColumns+` FROM favorites WHERE provider = ? AND recipe_id = ?`,
			string(provider), recipeID)
		r, err := scanFavorite(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		fav = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return fav, nil
}

// Add favorites a recipe. Adding an existing (provider, recipeID) pair keeps
// the original row and returns it.
func (f *FavoriteStore) Add(ctx context.Context, provider Provider, recipeID string, data FavoriteRecipeData) (*Favorite, error) {
	if !provider.IsValid() {
		return nil, ErrInvalidProvider
	}
	recipeID = strings.TrimSpace(recipeID)
	if recipeID == "" {
		return nil, fmt.Errorf("favorite: %w", ErrEmptyName)
	}
	snapshot, err := encodeRecipeData(data)
	if err != nil {
		return nil, err
	}

	var fav *Favorite
	err = f.s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO favorites (provider, recipe_id, recipe_data, added_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(provider, recipe_id) DO NOTHING
		`, string(provider), recipeID, snapshot, f.s.unixNow())
		if err != nil {
			return fmt.Errorf("store: insert favorite: %w", err)
		}
		fav, err = scanFavorite(tx.QueryRowContext(ctx,
			`SELECT `+favoriteColumns+` FROM favorites WHERE provider = ? AND recipe_id = ?`,
			string(provider), recipeID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return fav, nil
}

// UpdateRecipeData replaces the snapshot stored with a favorite.
func (f *FavoriteStore) UpdateRecipeData(ctx context.Context, id int64, data FavoriteRecipeData) error {
	snapshot, err := encodeRecipeData(data)
	if err != nil {
		return err
	}
	return f.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE favorites SET recipe_data = ? WHERE id = ?`, snapshot, id); err != nil {
			return fmt.Errorf("store: update favorite: %w", err)
		}
		return nil
	})
}

// Delete removes a favorite by row id.
func (f *FavoriteStore) Delete(ctx context.Context, id int64) error {
	return f.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete favorite: %w", err)
		}
		return nil
	})
}

// DeleteByRecipe removes the favorite for (provider, recipeID), if any.
func (f *FavoriteStore) DeleteByRecipe(ctx context.Context, provider Provider, recipeID string) error {
	return f.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE provider = ? AND recipe_id = ?`,
			string(provider), recipeID); err != nil {
			return fmt.Errorf("store: delete favorite: %w", err)
		}
		return nil
	})
}

// Toggle favorites the recipe if it is not a favorite and removes it
// otherwise. It reports whether the recipe is a favorite afterwards.
func (f *FavoriteStore) Toggle(ctx context.Context, provider Provider, recipeID string, data FavoriteRecipeData) (bool, error) {
	if !provider.IsValid() {
		return false, ErrInvalidProvider
	}
	snapshot, err := encodeRecipeData(data)
	if err != nil {
		return false, err
	}

	var favorited bool
	err = f.s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM favorites WHERE provider = ? AND recipe_id = ?`,
			string(provider), recipeID)
		if err != nil {
			return fmt.Errorf("store: toggle favorite: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (provider, recipe_id, recipe_data, added_at) VALUES (?, ?, ?, ?)`,
			string(provider), recipeID, snapshot, f.s.unixNow()); err != nil {
			return fmt.Errorf("store: toggle favorite: %w", err)
		}
		favorited = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return favorited, nil
}

// GeneratedRecipeIDs returns the generated recipe ids that are favorited.
// Recipe ids that are not integers are skipped.
func (f *FavoriteStore) GeneratedRecipeIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	err := f.s.read(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx,
			`SELECT recipe_id FROM favorites WHERE provider = ? ORDER BY id`, string(ProviderGenerated))
		if err != nil {
			return fmt.Errorf("store: query generated favorites: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var recipeID string
			if err := rows.Scan(&recipeID); err != nil {
				return fmt.Errorf("store: scan favorite: %w", err)
			}
			if id, err := strconv.ParseInt(recipeID, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func encodeRecipeData(data FavoriteRecipeData) (*string, error) {
	if data == (FavoriteRecipeData{}) {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode recipe data: %w", err)
	}
	s := string(b)
	return &s, nil
}

func scanFavorite(sc scanner) (*Favorite, error) {
	var (
		fav      Favorite
		provider string
		data     sql.NullString
		addedAt  int64
	)
	if err := sc.Scan(&fav.ID, &provider, &fav.RecipeID, &data, &addedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan favorite: %w", err)
	}
	fav.Provider = Provider(provider)
	fav.RecipeData = data.String
	fav.AddedAt = unixTime(addedAt)
	return &fav, nil
}
