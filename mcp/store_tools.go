package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperengineering/receptradar"
)

func (s *Server) handleStats(ctx context.Context, _ map[string]any) (*ToolResult, error) {
	stats, err := s.client.Stats(ctx)
	if err != nil {
		return &ToolResult{
			Content: fmt.Sprintf("get store stats failed: %v", err),
			IsError: true,
		}, nil
	}
	return &ToolResult{Content: formatStats(s.client.Store().Path(), stats, s.client.GenerationAvailable())}, nil
}

// formatStats formats the store statistics for display.
func formatStats(path string, stats *receptradar.StoreStats, generation bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Store: %s\n", path))
	sb.WriteString(fmt.Sprintf("Schema version: %d\n", stats.SchemaVersion))
	if generation {
		sb.WriteString("Recipe generation: available\n")
	} else {
		sb.WriteString("Recipe generation: not configured\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Statistics:\n")
	sb.WriteString(fmt.Sprintf("  %-20s %d\n", "Pantry items", stats.PantryItems))
	sb.WriteString(fmt.Sprintf("  %-20s %d\n", "Favorites", stats.Favorites))
	sb.WriteString(fmt.Sprintf("  %-20s %d (%d batches)\n", "Generated recipes", stats.GeneratedRecipes, stats.GeneratedBatches))
	sb.WriteString(fmt.Sprintf("  %-20s %d\n", "Saved web recipes", stats.SavedWebRecipes))
	sb.WriteString(fmt.Sprintf("  %-20s %d\n", "Product cache", stats.ProductCache))
	sb.WriteString(fmt.Sprintf("  %-20s %d\n", "Recipe cache", stats.RecipeCache))

	return sb.String()
}
