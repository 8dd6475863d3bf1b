package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the product and recipe lookup caches",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	Long: `Delete expired entries from the product and recipe caches.

Expired entries are never returned, so purging only reclaims space.`,
	Args: cobra.NoArgs,
	RunE: runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

// CachePurgeResult for JSON output.
type CachePurgeResult struct {
	Products int64 `json:"products"`
	Recipes  int64 `json:"recipes"`
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	s := client.Store()

	var result CachePurgeResult
	if result.Products, err = s.ProductCache().PurgeExpired(ctx); err != nil {
		return fmt.Errorf("purge product cache: %w", err)
	}
	if result.Recipes, err = s.RecipeCache().PurgeExpired(ctx); err != nil {
		return fmt.Errorf("purge recipe cache: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, result)
	}
	printSuccess(cmd.OutOrStdout(), "Purged %d product and %d recipe cache entries", result.Products, result.Recipes)
	return nil
}
