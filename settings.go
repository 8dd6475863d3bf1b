package receptradar

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Setting keys.
const (
	SettingIncludeImage  = "llm_include_image"
	SettingRecipeFilters = "recipe_filters"
)

// SettingsStore is the key/value settings table.
type SettingsStore struct {
	s *Store
}

// RecipeFilters narrows the suggestion list.
type RecipeFilters struct {
	// MaxReadyMinutes drops recipes known to take longer. Zero disables the filter.
	MaxReadyMinutes int `json:"max_ready_minutes,omitempty"`
}

// Get returns the value for key. The second result is false if the key is
// not set or holds NULL.
func (st *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	found := false
	err := st.s.read(func(db *sql.DB) error {
		err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("store: read setting %s: %w", key, err)
		}
		found = value.Valid
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return value.String, found, nil
}

// Set stores value under key.
func (st *SettingsStore) Set(ctx context.Context, key, value string) error {
	return st.s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value, st.s.unixNow())
		if err != nil {
			return fmt.Errorf("store: write setting %s: %w", key, err)
		}
		return nil
	})
}

// IncludeImage reports whether generation should request an image. It is on
// unless explicitly set to "false".
func (st *SettingsStore) IncludeImage(ctx context.Context) (bool, error) {
	v, ok, err := st.Get(ctx, SettingIncludeImage)
	if err != nil {
		return false, err
	}
	return !ok || v != "false", nil
}

// SetIncludeImage stores the image preference.
func (st *SettingsStore) SetIncludeImage(ctx context.Context, include bool) error {
	v := "true"
	if !include {
		v = "false"
	}
	return st.Set(ctx, SettingIncludeImage, v)
}

// RecipeFilters returns the saved filters. A missing or malformed value
// yields the zero filters.
func (st *SettingsStore) RecipeFilters(ctx context.Context) (RecipeFilters, error) {
	var filters RecipeFilters
	v, ok, err := st.Get(ctx, SettingRecipeFilters)
	if err != nil || !ok {
		return filters, err
	}
	if err := json.Unmarshal([]byte(v), &filters); err != nil {
		return RecipeFilters{}, nil
	}
	return filters, nil
}

// SetRecipeFilters stores the filters.
func (st *SettingsStore) SetRecipeFilters(ctx context.Context, filters RecipeFilters) error {
	b, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("encode recipe filters: %w", err)
	}
	return st.Set(ctx, SettingRecipeFilters, string(b))
}
