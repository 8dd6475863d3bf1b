package receptradar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// ExportFormat is the top-level structure for JSON exports.
type ExportFormat struct {
	Version          string            `json:"version"`
	ExportedAt       time.Time         `json:"exported_at"`
	SchemaVersion    int               `json:"schema_version"`
	Pantry           []PantryItem      `json:"pantry"`
	Favorites        []Favorite        `json:"favorites"`
	SavedWebRecipes  []SavedWebRecipe  `json:"saved_web_recipes"`
	GeneratedRecipes []GeneratedRecipe `json:"generated_recipes"`
}

// MergeStrategy defines how to handle records that already exist during import.
type MergeStrategy string

const (
	// MergeStrategySkip leaves existing records untouched.
	MergeStrategySkip MergeStrategy = "skip"
	// MergeStrategyMerge updates existing pantry items with imported fields.
	MergeStrategyMerge MergeStrategy = "merge"
)

// ImportResult summarizes an import operation.
type ImportResult struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Merged  int      `json:"merged"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ExportJSON writes the user's data (pantry, favorites, saved web recipes and
// generated recipes) as JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	export := ExportFormat{
		Version:       ExportVersion,
		ExportedAt:    s.now().UTC().Truncate(time.Second),
		SchemaVersion: stats.SchemaVersion,
	}
	if export.Pantry, err = s.Pantry().All(ctx); err != nil {
		return fmt.Errorf("export pantry: %w", err)
	}
	if export.Favorites, err = s.Favorites().All(ctx); err != nil {
		return fmt.Errorf("export favorites: %w", err)
	}
	if export.SavedWebRecipes, err = s.WebRecipes().All(ctx); err != nil {
		return fmt.Errorf("export web recipes: %w", err)
	}
	if export.GeneratedRecipes, err = s.Generated().All(ctx); err != nil {
		return fmt.Errorf("export generated recipes: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}
