package azure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/receptradar"
)

const twoRecipes = `[
  {"title": "Ostpaj", "ingredients": [{"name": "ost", "amount": 200, "unit": "g"}, {"name": "ägg", "amount": "3"}],
   "steps": [{"step_number": 1, "instruction": "Blanda."}], "servings": 4, "ready_in_minutes": 45},
  {"title": "Omelett", "ingredients": [{"name": "ägg"}], "steps": [{"instruction": "Stek."}]}
]`

func responsesBody(texts ...string) map[string]any {
	content := make([]map[string]any, 0, len(texts)+1)
	content = append(content, map[string]any{"type": "reasoning", "text": "ignored"})
	for _, t := range texts {
		content = append(content, map[string]any{"type": "output_text", "text": t})
	}
	return map[string]any{"output": []any{map[string]any{"content": content}}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fakeAzure struct {
	chatStatus  int
	chatBody    any
	imageStatus int
	imageBody   any

	chatRequests  []map[string]any
	imageRequests []map[string]any
	apiKeys       []string
}

func (f *fakeAzure) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/openai/responses", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, responsesAPIVersion, r.URL.Query().Get("api-version"))
		assert.NotEmpty(t, r.Header.Get("x-ms-client-request-id"))
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.chatRequests = append(f.chatRequests, body)
		writeJSON(w, f.chatStatus, f.chatBody)
	})
	mux.HandleFunc("/openai/deployments/dall-e-3/images/generations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, imagesAPIVersion, r.URL.Query().Get("api-version"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.imageRequests = append(f.imageRequests, body)
		writeJSON(w, f.imageStatus, f.imageBody)
	})
	mux.HandleFunc("/download/photo.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("downloaded-png"))
	})
	return mux
}

func newTestGenerator(t *testing.T, fake *fakeAzure) (*Generator, string) {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	imageDir := filepath.Join(t.TempDir(), "images")
	g := New(Options{
		Endpoint:        srv.URL + "/",
		APIKey:          "secret",
		ChatDeployment:  "gpt-4o",
		ImageDeployment: "dall-e-3",
		ImageDir:        imageDir,
	})
	return g, srv.URL
}

func TestGenerate_ParsesRecipes(t *testing.T) {
	fake := &fakeAzure{chatStatus: http.StatusOK, chatBody: responsesBody(twoRecipes[:40], twoRecipes[40:])}
	g, _ := newTestGenerator(t, fake)

	payloads, err := g.Generate(context.Background(), []string{"ost", "ägg"}, false)
	require.NoError(t, err)
	require.Len(t, payloads, 2)

	first := payloads[0]
	assert.Equal(t, "Ostpaj", first.Title)
	assert.Equal(t, []receptradar.GeneratedIngredient{
		{Name: "ost", Amount: "200", Unit: "g"},
		{Name: "ägg", Amount: "3"},
	}, first.Ingredients)
	require.NotNil(t, first.Servings)
	assert.Equal(t, 4, *first.Servings)
	require.NotNil(t, first.ReadyInMinutes)
	assert.Equal(t, 45, *first.ReadyInMinutes)
	assert.Empty(t, first.ImagePath)

	require.Len(t, fake.chatRequests, 1)
	req := fake.chatRequests[0]
	assert.Equal(t, "gpt-4o", req["model"])
	assert.Equal(t, float64(maxOutputTokens), req["max_output_tokens"])
	assert.Contains(t, req["input"], "ost, ägg")
	assert.Equal(t, systemPrompt, req["instructions"])
	assert.Equal(t, []string{"secret"}, fake.apiKeys)
	assert.Empty(t, fake.imageRequests, "images are not requested when includeImage is false")
}

func TestGenerate_SavesBase64Image(t *testing.T) {
	fake := &fakeAzure{
		chatStatus:  http.StatusOK,
		chatBody:    responsesBody(twoRecipes),
		imageStatus: http.StatusOK,
		imageBody:   map[string]any{"data": []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString([]byte("png-bytes"))}}},
	}
	g, _ := newTestGenerator(t, fake)

	payloads, err := g.Generate(context.Background(), []string{"ost"}, true)
	require.NoError(t, err)

	path := payloads[0].ImagePath
	require.NotEmpty(t, path)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "recipe_"))
	assert.Equal(t, ".png", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Empty(t, payloads[1].ImagePath)

	require.Len(t, fake.imageRequests, 1)
	img := fake.imageRequests[0]
	assert.Equal(t, "Appetizing food photo of Ostpaj, professional, no text", img["prompt"])
	assert.Equal(t, "1024x1024", img["size"])
	assert.Equal(t, "b64_json", img["response_format"])
}

func TestGenerate_DownloadsImageURL(t *testing.T) {
	fake := &fakeAzure{chatStatus: http.StatusOK, chatBody: responsesBody(twoRecipes), imageStatus: http.StatusOK}
	g, base := newTestGenerator(t, fake)
	fake.imageBody = map[string]any{"data": []any{map[string]any{"url": base + "/download/photo.png"}}}

	payloads, err := g.Generate(context.Background(), []string{"ost"}, true)
	require.NoError(t, err)

	data, err := os.ReadFile(payloads[0].ImagePath)
	require.NoError(t, err)
	assert.Equal(t, "downloaded-png", string(data))
}

func TestGenerate_ImageFailureIsNotFatal(t *testing.T) {
	fake := &fakeAzure{
		chatStatus:  http.StatusOK,
		chatBody:    responsesBody(twoRecipes),
		imageStatus: http.StatusBadRequest,
		imageBody:   map[string]any{"error": "content policy"},
	}
	g, _ := newTestGenerator(t, fake)

	payloads, err := g.Generate(context.Background(), []string{"ost"}, true)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Empty(t, payloads[0].ImagePath)
}

func TestGenerate_ProviderError(t *testing.T) {
	fake := &fakeAzure{chatStatus: http.StatusUnauthorized, chatBody: map[string]any{"error": "bad key"}}
	g, _ := newTestGenerator(t, fake)

	_, err := g.Generate(context.Background(), []string{"ost"}, false)
	var pe *receptradar.ProviderError
	require.True(t, errors.As(err, &pe), "want *ProviderError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Equal(t, "responses", pe.Operation)
}

func TestGenerate_NoTextContent(t *testing.T) {
	fake := &fakeAzure{chatStatus: http.StatusOK, chatBody: responsesBody()}
	g, _ := newTestGenerator(t, fake)

	_, err := g.Generate(context.Background(), []string{"ost"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestGenerate_Unavailable(t *testing.T) {
	g := New(Options{Endpoint: "https://example.openai.azure.com", APIKey: "k"})
	assert.False(t, g.Available())

	_, err := g.Generate(context.Background(), []string{"ost"}, false)
	assert.ErrorIs(t, err, receptradar.ErrProviderUnavailable)
}

func TestFromConfig(t *testing.T) {
	cfg := receptradar.Config{
		DataDir: "/data",
		Azure: receptradar.AzureConfig{
			Endpoint:       "https://x.openai.azure.com/",
			APIKey:         "k",
			ChatDeployment: "gpt-4o",
		},
	}
	g := FromConfig(cfg, nil)
	assert.True(t, g.Available())
	assert.Equal(t, "https://x.openai.azure.com", g.opts.Endpoint)
	assert.Equal(t, filepath.Join("/data", "images"), g.opts.ImageDir)
	assert.Equal(t, receptradar.DefaultProviderTimeout, g.opts.Timeout)
}
