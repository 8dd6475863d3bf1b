package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/receptradar"
)

var favoriteCmd = &cobra.Command{
	Use:     "favorite",
	Aliases: []string{"fav"},
	Short:   "Manage favorite recipes",
	Long: `Pin recipes as favorites.

A recipe is named by its provider and id:
  generated   id of a generated recipe (see 'receptradar generate')
  web         id of a saved web recipe

Favorited generated recipes survive 'receptradar generate --new'.`,
}

var favoriteAddCmd = &cobra.Command{
	Use:   "add <provider> <recipe-id>",
	Short: "Add a favorite",
	Example: `  receptradar favorite add generated 12
  receptradar favorite add web 3 --title "Mormors köttbullar" --url https://example.com/kottbullar`,
	Args: cobra.ExactArgs(2),
	RunE: runFavoriteAdd,
}

var favoriteRmCmd = &cobra.Command{
	Use:     "rm <provider> <recipe-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a favorite",
	Args:    cobra.ExactArgs(2),
	RunE:    runFavoriteRm,
}

var favoriteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites, newest first",
	Args:  cobra.NoArgs,
	RunE:  runFavoriteList,
}

var (
	favoriteTitle string
	favoriteURL   string
)

func init() {
	favoriteAddCmd.Flags().StringVar(&favoriteTitle, "title", "", "Title to show in the favorites list")
	favoriteAddCmd.Flags().StringVar(&favoriteURL, "url", "", "Source URL of a web recipe")

	favoriteCmd.AddCommand(favoriteAddCmd)
	favoriteCmd.AddCommand(favoriteRmCmd)
	favoriteCmd.AddCommand(favoriteListCmd)
	rootCmd.AddCommand(favoriteCmd)
}

func parseProvider(s string) (receptradar.Provider, error) {
	p := receptradar.Provider(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid provider %q: must be one of %v", s, receptradar.ValidProviders())
	}
	return p, nil
}

func runFavoriteAdd(cmd *cobra.Command, args []string) error {
	provider, err := parseProvider(args[0])
	if err != nil {
		return err
	}
	recipeID := args[1]

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	data := receptradar.FavoriteRecipeData{Title: favoriteTitle, SourceURL: favoriteURL}
	if provider == receptradar.ProviderGenerated {
		id, err := strconv.ParseInt(recipeID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid generated recipe id %q", recipeID)
		}
		recipe, err := client.GeneratedRecipe(ctx, id)
		if err != nil {
			return err
		}
		if recipe == nil {
			return fmt.Errorf("recipe %d not found", id)
		}
		if data.Title == "" {
			data.Title = recipe.Title
		}
		data.Image = recipe.ImagePath
	}

	fav, err := client.Store().Favorites().Add(ctx, provider, recipeID, data)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, fav)
	}
	printSuccess(cmd.OutOrStdout(), "Favorited %s recipe %s", provider, recipeID)
	return nil
}

func runFavoriteRm(cmd *cobra.Command, args []string) error {
	provider, err := parseProvider(args[0])
	if err != nil {
		return err
	}

	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	favorites := client.Store().Favorites()
	existing, err := favorites.GetByRecipe(ctx, provider, args[1])
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%s recipe %s is not a favorite", provider, args[1])
	}
	if err := favorites.DeleteByRecipe(ctx, provider, args[1]); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, map[string]interface{}{"removed": existing})
	}
	printSuccess(cmd.OutOrStdout(), "Removed %s recipe %s from favorites", provider, args[1])
	return nil
}

func runFavoriteList(cmd *cobra.Command, args []string) error {
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	favorites, err := client.Store().Favorites().All(cmd.Context())
	if err != nil {
		return fmt.Errorf("list favorites: %w", err)
	}
	return outputFavorites(cmd, favorites)
}
