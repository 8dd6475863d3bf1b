// Package mcp exposes receptradar to MCP (Model Context Protocol) clients.
// NewServer registers the pantry, suggestion, generation and favorite tools
// on an mcp-go server that speaks stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hyperengineering/receptradar"
)

// Server wraps the MCP server with receptradar tools.
type Server struct {
	client    *receptradar.Client
	mcpServer *server.MCPServer
	session   *RecipeSession // recipe refs (R1, R2, ...) handed to the agent
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with receptradar tools registered.
func NewServer(client *receptradar.Client) *Server {
	s := &Server{
		client:  client,
		session: NewRecipeSession(),
	}

	s.mcpServer = server.NewMCPServer(
		"receptradar",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "receptradar_pantry_list", Description: "List the products in the pantry"},
		{Name: "receptradar_pantry_add", Description: "Add a product to the pantry"},
		{Name: "receptradar_suggest", Description: "Rank stored recipes by how much of each the pantry covers"},
		{Name: "receptradar_generate", Description: "Generate recipes from the pantry with the AI provider"},
		{Name: "receptradar_recipe", Description: "Show a generated recipe with ingredients and steps"},
		{Name: "receptradar_favorite", Description: "Toggle a recipe as favorite"},
		{Name: "receptradar_stats", Description: "Show store statistics"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "receptradar_pantry_list":
		return s.handlePantryList(ctx, args)
	case "receptradar_pantry_add":
		return s.handlePantryAdd(ctx, args)
	case "receptradar_suggest":
		return s.handleSuggest(ctx, args)
	case "receptradar_generate":
		return s.handleGenerate(ctx, args)
	case "receptradar_recipe":
		return s.handleRecipe(ctx, args)
	case "receptradar_favorite":
		return s.handleFavorite(ctx, args)
	case "receptradar_stats":
		return s.handleStats(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("receptradar_pantry_list",
		mcp.WithDescription("List the products in the pantry, most recently updated first."),
	), s.wrap(s.handlePantryList))

	s.mcpServer.AddTool(mcp.NewTool("receptradar_pantry_add",
		mcp.WithDescription("Add a product to the pantry. The name is normalized for recipe matching."),
		mcp.WithString("name",
			mcp.Description("Product name, e.g. 'Mellanmjölk 1,5%'"),
			mcp.Required(),
		),
		mcp.WithNumber("quantity",
			mcp.Description("Amount on hand"),
		),
		mcp.WithString("unit",
			mcp.Description("Unit for quantity, e.g. 'l', 'st'"),
		),
		mcp.WithString("category",
			mcp.Description("Product category"),
		),
	), s.wrap(s.handlePantryAdd))

	s.mcpServer.AddTool(mcp.NewTool("receptradar_suggest",
		mcp.WithDescription("Rank the stored generated batch and saved web recipes for the current pantry. Returns recipe refs (R1, R2, ...) for use with receptradar_recipe and receptradar_favorite."),
		mcp.WithNumber("max_ready_minutes",
			mcp.Description("Drop recipes known to take longer than this"),
		),
	), s.wrap(s.handleSuggest))

	s.mcpServer.AddTool(mcp.NewTool("receptradar_generate",
		mcp.WithDescription("Generate a batch of recipes from the pantry. Returns the stored batch when one exists unless regenerate is set; regeneration keeps favorited recipes."),
		mcp.WithBoolean("regenerate",
			mcp.Description("Replace the stored batch (default: false)"),
		),
		mcp.WithBoolean("include_image",
			mcp.Description("Request a photo for the first recipe (default: saved setting)"),
		),
	), s.wrap(s.handleGenerate))

	s.mcpServer.AddTool(mcp.NewTool("receptradar_recipe",
		mcp.WithDescription("Show a recipe by session ref (R1) or generated recipe id."),
		mcp.WithString("recipe",
			mcp.Description("Session ref or generated recipe id"),
			mcp.Required(),
		),
	), s.wrap(s.handleRecipe))

	s.mcpServer.AddTool(mcp.NewTool("receptradar_favorite",
		mcp.WithDescription("Toggle a recipe as favorite. Name it by session ref, or by provider and recipe_id."),
		mcp.WithString("recipe",
			mcp.Description("Session ref (R1, R2, ...)"),
		),
		mcp.WithString("provider",
			mcp.Description("Recipe provider: web or generated"),
		),
		mcp.WithString("recipe_id",
			mcp.Description("Provider-specific recipe id"),
		),
	), s.wrap(s.handleFavorite))

	s.mcpServer.AddTool(mcp.NewTool("receptradar_stats",
		mcp.WithDescription("Show row counts and the schema version of the local store."),
	), s.wrap(s.handleStats))
}

type toolHandler func(ctx context.Context, args map[string]any) (*ToolResult, error)

// wrap adapts an internal handler to the mcp-go handler signature.
func (s *Server) wrap(h toolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := h(ctx, req.GetArguments())
		if err != nil {
			return nil, err
		}
		return toMCPResult(result), nil
	}
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handlePantryList(ctx context.Context, _ map[string]any) (*ToolResult, error) {
	items, err := s.client.Pantry(ctx)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("pantry list failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: formatPantry(items)}, nil
}

func (s *Server) handlePantryAdd(ctx context.Context, args map[string]any) (*ToolResult, error) {
	name, ok := args["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return &ToolResult{Content: "name is required", IsError: true}, nil
	}

	in := receptradar.NewPantryItem{Name: name}
	if q, ok := args["quantity"].(float64); ok {
		in.Quantity = &q
	}
	if u, ok := args["unit"].(string); ok {
		in.Unit = u
	}
	if c, ok := args["category"].(string); ok {
		in.Category = c
	}

	item, err := s.client.AddPantryItem(ctx, in)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("pantry add failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Added [%d] %s (matches as %q)", item.ID, item.Name, item.IngredientName())}, nil
}

func (s *Server) handleSuggest(ctx context.Context, args map[string]any) (*ToolResult, error) {
	opts := receptradar.SuggestOptions{}
	if m, ok := args["max_ready_minutes"].(float64); ok {
		opts.MaxReadyMinutes = int(m)
	}

	suggestions, err := s.client.Suggest(ctx, opts)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("suggest failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: s.formatSuggestions(suggestions)}, nil
}

func (s *Server) handleGenerate(ctx context.Context, args map[string]any) (*ToolResult, error) {
	if !s.client.GenerationAvailable() {
		return &ToolResult{Content: "Recipe generation unavailable: Azure OpenAI not configured", IsError: true}, nil
	}

	names, err := s.client.Ingredients(ctx)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("read pantry failed: %v", err), IsError: true}, nil
	}
	if len(names) == 0 {
		return &ToolResult{Content: "The pantry is empty. Add products with receptradar_pantry_add first.", IsError: true}, nil
	}

	opts := receptradar.GenerateOptions{}
	if v, ok := args["include_image"].(bool); ok {
		opts.IncludeImage = v
	} else if opts.IncludeImage, err = s.client.Store().Settings().IncludeImage(ctx); err != nil {
		return &ToolResult{Content: fmt.Sprintf("read settings failed: %v", err), IsError: true}, nil
	}

	generate := s.client.GenerateRecipes
	if regen, _ := args["regenerate"].(bool); regen {
		generate = s.client.RegenerateRecipes
	}
	result, err := generate(ctx, names, opts)
	if err != nil {
		if errors.Is(err, receptradar.ErrNoRecipesGenerated) {
			return &ToolResult{Content: "The provider returned no recipes. Try again.", IsError: true}, nil
		}
		return &ToolResult{Content: fmt.Sprintf("generate failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: s.formatGenerated(result)}, nil
}

func (s *Server) handleRecipe(ctx context.Context, args map[string]any) (*ToolResult, error) {
	ref, err := s.resolveRecipe(args)
	if err != nil {
		return &ToolResult{Content: err.Error(), IsError: true}, nil
	}
	if ref.Provider != receptradar.ProviderGenerated {
		return &ToolResult{Content: fmt.Sprintf("%s recipe %s has no stored instructions", ref.Provider, ref.RecipeID), IsError: true}, nil
	}

	id, err := strconv.ParseInt(ref.RecipeID, 10, 64)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("invalid recipe id: %s", ref.RecipeID), IsError: true}, nil
	}
	recipe, err := s.client.GeneratedRecipe(ctx, id)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("recipe lookup failed: %v", err), IsError: true}, nil
	}
	if recipe == nil {
		return &ToolResult{Content: fmt.Sprintf("recipe not found: %d", id), IsError: true}, nil
	}
	return &ToolResult{Content: formatRecipe(recipe)}, nil
}

func (s *Server) handleFavorite(ctx context.Context, args map[string]any) (*ToolResult, error) {
	ref, err := s.resolveRecipe(args)
	if err != nil {
		return &ToolResult{Content: err.Error(), IsError: true}, nil
	}

	data := receptradar.FavoriteRecipeData{}
	if ref.Provider == receptradar.ProviderGenerated {
		if id, err := strconv.ParseInt(ref.RecipeID, 10, 64); err == nil {
			if r, err := s.client.GeneratedRecipe(ctx, id); err == nil && r != nil {
				data.Title = r.Title
				data.Image = r.ImagePath
			}
		}
	}

	on, err := s.client.Store().Favorites().Toggle(ctx, ref.Provider, ref.RecipeID, data)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("favorite failed: %v", err), IsError: true}, nil
	}
	if on {
		return &ToolResult{Content: fmt.Sprintf("Favorited %s recipe %s", ref.Provider, ref.RecipeID)}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Removed %s recipe %s from favorites", ref.Provider, ref.RecipeID)}, nil
}

// resolveRecipe reads a recipe reference from args: a session ref, a bare
// generated recipe id, or an explicit provider and recipe_id pair.
func (s *Server) resolveRecipe(args map[string]any) (RecipeRef, error) {
	if r, ok := args["recipe"].(string); ok && strings.TrimSpace(r) != "" {
		r = strings.TrimSpace(r)
		if ref, ok := s.session.Resolve(strings.ToUpper(r)); ok {
			return ref, nil
		}
		if _, err := strconv.ParseInt(r, 10, 64); err == nil {
			return RecipeRef{Provider: receptradar.ProviderGenerated, RecipeID: r}, nil
		}
		return RecipeRef{}, fmt.Errorf("unknown recipe ref: %s", r)
	}

	provider, _ := args["provider"].(string)
	recipeID, _ := args["recipe_id"].(string)
	if provider == "" || recipeID == "" {
		return RecipeRef{}, errors.New("recipe ref or provider and recipe_id are required")
	}
	p := receptradar.Provider(provider)
	if !p.IsValid() {
		return RecipeRef{}, fmt.Errorf("invalid provider: %s", provider)
	}
	return RecipeRef{Provider: p, RecipeID: recipeID}, nil
}

// Formatting functions

func formatPantry(items []receptradar.PantryItem) string {
	if len(items) == 0 {
		return "The pantry is empty."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pantry (%d items):\n", len(items)))
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("  [%d] %s", item.ID, item.Name))
		if item.Quantity != nil {
			sb.WriteString(fmt.Sprintf(" %s", strconv.FormatFloat(*item.Quantity, 'f', -1, 64)))
			if item.Unit != "" {
				sb.WriteString(" " + item.Unit)
			}
		}
		if item.BestBefore != nil {
			sb.WriteString(" (best before " + item.BestBefore.Format("2006-01-02") + ")")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s *Server) formatSuggestions(sg *receptradar.Suggestions) string {
	if len(sg.Recipes) == 0 {
		if len(sg.Ingredients) == 0 {
			return "No suggestions: the pantry is empty."
		}
		return "No stored recipes for the current pantry. Use receptradar_generate to create some."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d recipes for %s:\n\n", len(sg.Recipes), strings.Join(sg.Ingredients, ", ")))
	for _, r := range sg.Recipes {
		ref := s.session.Track(r.Recipe.Provider, r.Recipe.ID)
		sb.WriteString(fmt.Sprintf("[%s] %s (%s)\n", ref, r.Recipe.Title, r.Recipe.Provider))
		if r.Match.Total > 0 {
			sb.WriteString(fmt.Sprintf("    Have %d of %d ingredients\n", r.Match.Have, r.Match.Total))
		}
		if len(r.Match.Missing) > 0 {
			sb.WriteString(fmt.Sprintf("    Missing: %s\n", strings.Join(r.Match.Missing, ", ")))
		}
		if r.Recipe.ReadyInMinutes != nil {
			sb.WriteString(fmt.Sprintf("    Ready in %d min\n", *r.Recipe.ReadyInMinutes))
		}
		if r.Recipe.SourceURL != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", r.Recipe.SourceURL))
		}
	}
	sb.WriteString("\nUse receptradar_recipe or receptradar_favorite with a ref (R1, R2, ...).")
	return sb.String()
}

func (s *Server) formatGenerated(result *receptradar.GenerateResult) string {
	var sb strings.Builder
	switch {
	case result.Cached:
		sb.WriteString(fmt.Sprintf("Stored batch (%d recipes):\n", len(result.Recipes)))
	default:
		sb.WriteString(fmt.Sprintf("Generated %d recipes", len(result.Recipes)))
		if len(result.Kept) > 0 || result.Removed > 0 {
			sb.WriteString(fmt.Sprintf(" (kept %d favorites, removed %d)", len(result.Kept), result.Removed))
		}
		sb.WriteString(":\n")
	}
	for _, r := range result.Recipes {
		ref := s.session.Track(receptradar.ProviderGenerated, strconv.FormatInt(r.ID, 10))
		sb.WriteString(fmt.Sprintf("  [%s] %s", ref, r.Title))
		if r.ReadyInMinutes != nil {
			sb.WriteString(fmt.Sprintf(" (%d min)", *r.ReadyInMinutes))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatRecipe(r *receptradar.GeneratedRecipe) string {
	var sb strings.Builder
	sb.WriteString(r.Title + "\n")
	if r.Servings != nil {
		sb.WriteString(fmt.Sprintf("Servings: %d\n", *r.Servings))
	}
	if r.ReadyInMinutes != nil {
		sb.WriteString(fmt.Sprintf("Ready in: %d min\n", *r.ReadyInMinutes))
	}

	sb.WriteString("\nIngredients:\n")
	for _, ing := range r.Ingredients {
		line := ing.Original()
		if line == "" {
			line = strings.TrimSpace(string(ing.Amount) + " " + ing.Name)
		}
		sb.WriteString("  - " + line + "\n")
	}

	sb.WriteString("\nSteps:\n")
	for i, step := range r.Steps {
		n := i + 1
		if step.StepNumber != nil {
			n = *step.StepNumber
		}
		sb.WriteString(fmt.Sprintf("  %d. %s\n", n, step.Instruction))
	}
	return sb.String()
}
