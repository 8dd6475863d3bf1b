package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/receptradar"
	receptmcp "github.com/hyperengineering/receptradar/mcp"
)

// stubGenerator returns n canned recipes built from ost and mjölk.
type stubGenerator struct {
	n     int
	calls int
}

func (g *stubGenerator) Available() bool { return true }

func (g *stubGenerator) Generate(_ context.Context, _ []string, _ bool) ([]receptradar.RecipePayload, error) {
	g.calls++
	out := make([]receptradar.RecipePayload, 0, g.n)
	for i := 0; i < g.n; i++ {
		minutes := 20 + i
		out = append(out, receptradar.RecipePayload{
			Title: fmt.Sprintf("Rätt %d", i+1),
			Ingredients: []receptradar.GeneratedIngredient{
				{Name: "ost", Amount: "200", Unit: "g"},
				{Name: "mjölk"},
			},
			Steps:          []receptradar.GeneratedStep{{Instruction: "Riv osten."}, {Instruction: "Värm mjölken."}},
			ReadyInMinutes: &minutes,
		})
	}
	return out, nil
}

func newTestServer(t *testing.T, opts ...receptradar.ClientOption) (*receptmcp.Server, *receptradar.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	client, err := receptradar.New(receptradar.Config{DBPath: dbPath}, opts...)
	if err != nil {
		t.Fatalf("receptradar.New() returned error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	server := receptmcp.NewServer(client)
	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	return server, client
}

func callTool(t *testing.T, server *receptmcp.Server, name string, args map[string]any) *receptmcp.ToolResult {
	t.Helper()
	result, err := server.CallTool(context.Background(), name, args)
	if err != nil {
		t.Fatalf("CallTool(%s) returned error: %v", name, err)
	}
	return result
}

// =============================================================================
// Server Initialization Tests
// =============================================================================

func TestServer_ToolsList(t *testing.T) {
	server, _ := newTestServer(t)
	tools := server.ListTools()

	expectedTools := []string{
		"receptradar_pantry_list",
		"receptradar_pantry_add",
		"receptradar_suggest",
		"receptradar_generate",
		"receptradar_recipe",
		"receptradar_favorite",
		"receptradar_stats",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("ListTools() returned %d tools, want %d", len(tools), len(expectedTools))
	}

	toolNames := make(map[string]bool)
	for _, tool := range tools {
		toolNames[tool.Name] = true
		if tool.Description == "" {
			t.Errorf("Tool %q has no description", tool.Name)
		}
	}
	for _, expected := range expectedTools {
		if !toolNames[expected] {
			t.Errorf("Tool %q not found in registered tools", expected)
		}
	}
}

func TestTool_Unknown(t *testing.T) {
	server, _ := newTestServer(t)

	result := callTool(t, server, "receptradar_nope", nil)
	if !result.IsError {
		t.Error("unknown tool should return an error result")
	}
}

// =============================================================================
// Pantry Tools
// =============================================================================

func TestTool_PantryAdd_Success(t *testing.T) {
	server, client := newTestServer(t)

	result := callTool(t, server, "receptradar_pantry_add", map[string]any{
		"name":     "Krossade tomater (400 g)",
		"quantity": float64(2),
		"unit":     "st",
	})
	if result.IsError {
		t.Fatalf("pantry_add returned error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "krossade tomater") {
		t.Errorf("pantry_add content = %q, want normalized name", result.Content)
	}

	items, err := client.Pantry(context.Background())
	if err != nil {
		t.Fatalf("Pantry() returned error: %v", err)
	}
	if len(items) != 1 || items[0].Unit != "st" || items[0].Quantity == nil || *items[0].Quantity != 2 {
		t.Errorf("stored pantry = %+v", items)
	}

	list := callTool(t, server, "receptradar_pantry_list", nil)
	if !strings.Contains(list.Content, "Krossade tomater (400 g) 2 st") {
		t.Errorf("pantry_list content = %q", list.Content)
	}
}

func TestTool_PantryAdd_MissingName(t *testing.T) {
	server, _ := newTestServer(t)

	for _, args := range []map[string]any{{}, {"name": "   "}, {"name": 42}} {
		result := callTool(t, server, "receptradar_pantry_add", args)
		if !result.IsError {
			t.Errorf("pantry_add(%v) should fail", args)
		}
	}
}

func TestTool_PantryList_Empty(t *testing.T) {
	server, _ := newTestServer(t)

	result := callTool(t, server, "receptradar_pantry_list", nil)
	if result.IsError || result.Content != "The pantry is empty." {
		t.Errorf("pantry_list = %+v", result)
	}
}

// =============================================================================
// Recipe Tools
// =============================================================================

func TestTool_Suggest_EmptyPantry(t *testing.T) {
	server, _ := newTestServer(t)

	result := callTool(t, server, "receptradar_suggest", nil)
	if result.IsError {
		t.Fatalf("suggest returned error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "pantry is empty") {
		t.Errorf("suggest content = %q", result.Content)
	}
}

func TestTool_Generate_Unavailable(t *testing.T) {
	server, client := newTestServer(t)
	if _, err := client.AddPantryItem(context.Background(), receptradar.NewPantryItem{Name: "Ost"}); err != nil {
		t.Fatal(err)
	}

	result := callTool(t, server, "receptradar_generate", nil)
	if !result.IsError || !strings.Contains(result.Content, "not configured") {
		t.Errorf("generate without provider = %+v", result)
	}
}

func TestTool_Generate_EmptyPantry(t *testing.T) {
	server, _ := newTestServer(t, receptradar.WithGenerator(&stubGenerator{n: 3}))

	result := callTool(t, server, "receptradar_generate", nil)
	if !result.IsError || !strings.Contains(result.Content, "pantry is empty") {
		t.Errorf("generate with empty pantry = %+v", result)
	}
}

func TestIntegration_GenerateRecipeFavorite(t *testing.T) {
	gen := &stubGenerator{n: 3}
	server, client := newTestServer(t, receptradar.WithGenerator(gen))
	ctx := context.Background()
	if _, err := client.AddPantryItem(ctx, receptradar.NewPantryItem{Name: "Ost"}); err != nil {
		t.Fatal(err)
	}

	generated := callTool(t, server, "receptradar_generate", map[string]any{"include_image": false})
	if generated.IsError {
		t.Fatalf("generate returned error: %s", generated.Content)
	}
	for _, want := range []string{"Generated 3 recipes", "[R1] Rätt 1 (20 min)", "[R3] Rätt 3"} {
		if !strings.Contains(generated.Content, want) {
			t.Errorf("generate content missing %q:\n%s", want, generated.Content)
		}
	}

	recipe := callTool(t, server, "receptradar_recipe", map[string]any{"recipe": "R1"})
	if recipe.IsError {
		t.Fatalf("recipe returned error: %s", recipe.Content)
	}
	for _, want := range []string{"Rätt 1", "  - 200 g ost", "  - mjölk", "  2. Värm mjölken."} {
		if !strings.Contains(recipe.Content, want) {
			t.Errorf("recipe content missing %q:\n%s", want, recipe.Content)
		}
	}

	fav := callTool(t, server, "receptradar_favorite", map[string]any{"recipe": "r1"})
	if fav.IsError || !strings.HasPrefix(fav.Content, "Favorited generated recipe") {
		t.Fatalf("favorite = %+v", fav)
	}
	favorites, err := client.Store().Favorites().All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(favorites) != 1 || favorites[0].Data().Title != "Rätt 1" {
		t.Errorf("favorites = %+v", favorites)
	}

	unfav := callTool(t, server, "receptradar_favorite", map[string]any{"recipe": "R1"})
	if unfav.IsError || !strings.HasPrefix(unfav.Content, "Removed") {
		t.Errorf("second toggle = %+v", unfav)
	}

	// Regeneration replaces the batch; nothing is favorited any more.
	again := callTool(t, server, "receptradar_generate", map[string]any{"regenerate": true, "include_image": false})
	if again.IsError {
		t.Fatalf("regenerate returned error: %s", again.Content)
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
	if !strings.Contains(again.Content, "removed 3") {
		t.Errorf("regenerate content = %q", again.Content)
	}
}

func TestIntegration_SuggestThenFavorite(t *testing.T) {
	server, client := newTestServer(t, receptradar.WithGenerator(&stubGenerator{n: 2}))
	ctx := context.Background()
	if _, err := client.AddPantryItem(ctx, receptradar.NewPantryItem{Name: "Ost"}); err != nil {
		t.Fatal(err)
	}
	if r := callTool(t, server, "receptradar_generate", map[string]any{"include_image": false}); r.IsError {
		t.Fatalf("generate returned error: %s", r.Content)
	}

	suggest := callTool(t, server, "receptradar_suggest", map[string]any{"max_ready_minutes": float64(20)})
	if suggest.IsError {
		t.Fatalf("suggest returned error: %s", suggest.Content)
	}
	for _, want := range []string{"1 recipes for ost", "[R1] Rätt 1 (generated)", "Have 1 of 2 ingredients", "Missing: mjölk"} {
		if !strings.Contains(suggest.Content, want) {
			t.Errorf("suggest content missing %q:\n%s", want, suggest.Content)
		}
	}
	if strings.Contains(suggest.Content, "Rätt 2") {
		t.Error("max_ready_minutes should drop the 21 minute recipe")
	}

	fav := callTool(t, server, "receptradar_favorite", map[string]any{"recipe": "R1"})
	if fav.IsError {
		t.Fatalf("favorite returned error: %s", fav.Content)
	}
}

func TestTool_Favorite_ExplicitProvider(t *testing.T) {
	server, client := newTestServer(t)

	result := callTool(t, server, "receptradar_favorite", map[string]any{"provider": "web", "recipe_id": "12"})
	if result.IsError {
		t.Fatalf("favorite returned error: %s", result.Content)
	}
	fav, err := client.Store().Favorites().GetByRecipe(context.Background(), receptradar.ProviderWeb, "12")
	if err != nil || fav == nil {
		t.Fatalf("GetByRecipe() = %v, %v", fav, err)
	}
}

func TestTool_Favorite_InvalidArguments(t *testing.T) {
	server, _ := newTestServer(t)

	cases := []map[string]any{
		{},
		{"recipe": "R9"},
		{"provider": "spoonacular", "recipe_id": "1"},
		{"provider": "web"},
	}
	for _, args := range cases {
		result := callTool(t, server, "receptradar_favorite", args)
		if !result.IsError {
			t.Errorf("favorite(%v) should fail, got %q", args, result.Content)
		}
	}
}

func TestTool_Recipe_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	for _, args := range []map[string]any{{"recipe": "404"}, {"recipe": "R1"}, {}} {
		result := callTool(t, server, "receptradar_recipe", args)
		if !result.IsError {
			t.Errorf("recipe(%v) should fail, got %q", args, result.Content)
		}
	}
}

func TestTool_Stats(t *testing.T) {
	server, client := newTestServer(t)
	if _, err := client.AddPantryItem(context.Background(), receptradar.NewPantryItem{Name: "Ost"}); err != nil {
		t.Fatal(err)
	}

	result := callTool(t, server, "receptradar_stats", nil)
	if result.IsError {
		t.Fatalf("stats returned error: %s", result.Content)
	}
	for _, want := range []string{"Schema version: 6", "Pantry items", "Recipe generation: not configured"} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("stats content missing %q:\n%s", want, result.Content)
		}
	}
}

// =============================================================================
// Protocol-Level Tests
// =============================================================================

func handle(t *testing.T, server *receptmcp.Server, message string) map[string]any {
	t.Helper()
	response := server.HandleMessage(context.Background(), []byte(message))
	if response == nil {
		t.Fatalf("HandleMessage(%s) returned nil", message)
	}

	respBytes, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}
	var respMap map[string]any
	if err := json.Unmarshal(respBytes, &respMap); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return respMap
}

func TestProtocol_Initialize(t *testing.T) {
	server, _ := newTestServer(t)

	respMap := handle(t, server, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`)
	if _, hasError := respMap["error"]; hasError {
		t.Errorf("Initialize response has error: %v", respMap["error"])
	}

	result, ok := respMap["result"].(map[string]any)
	if !ok {
		t.Fatalf("Initialize response missing result")
	}
	serverInfo, ok := result["serverInfo"].(map[string]any)
	if !ok {
		t.Fatal("Initialize result missing serverInfo")
	}
	if serverInfo["name"] != "receptradar" {
		t.Errorf("serverInfo.name = %v, want 'receptradar'", serverInfo["name"])
	}
	if serverInfo["version"] != "1.0.0" {
		t.Errorf("serverInfo.version = %v, want '1.0.0'", serverInfo["version"])
	}

	capabilities, ok := result["capabilities"].(map[string]any)
	if !ok {
		t.Fatal("Initialize result missing capabilities")
	}
	if _, hasTools := capabilities["tools"]; !hasTools {
		t.Error("Capabilities should include tools")
	}
}

func TestProtocol_ErrorCodes(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name    string
		message string
		code    int
	}{
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"unknown/method","params":{}}`, -32601},
		{"malformed json", `{"jsonrpc":"2.0","id":1,"method":`, -32700},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			respMap := handle(t, server, tt.message)
			errorObj, hasError := respMap["error"].(map[string]any)
			if !hasError {
				t.Fatal("Response should have error")
			}
			code, ok := errorObj["code"].(float64)
			if !ok {
				t.Fatalf("Error missing code field")
			}
			if int(code) != tt.code {
				t.Errorf("Error code = %v, want %d", code, tt.code)
			}
		})
	}
}
