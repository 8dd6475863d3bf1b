// Package azure generates recipes with Azure OpenAI. It calls the Responses
// API for recipe text and, optionally, an image deployment for a photo of
// the first recipe.
package azure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hyperengineering/receptradar"
)

const (
	responsesPath       = "/openai/responses"
	responsesAPIVersion = "2025-04-01-preview"
	imagesAPIVersion    = "2024-02-15"
	maxOutputTokens     = 12000
)

const systemPrompt = `Du är en kock. Skapa exakt 10 olika recept som en JSON-array. Varje recept ska vara ett JSON-objekt med följande fält (på svenska):
- "title": sträng, receptets titel
- "ingredients": array av objekt med "name" (sträng), valfritt "amount" (tal eller sträng), valfritt "unit" (sträng)
- "steps": array av objekt med "step_number" (tal, 1-baserat) och "instruction" (sträng, steg-för-steg)
- "servings": valfritt tal (portioner)
- "ready_in_minutes": valfritt tal (total tid i minuter)

Krav på variation: Recepten ska vara tydligt olika, bland annat olika kök (t.ex. svenskt, italienskt, asiatiskt), olika rättstyper (förrätt, huvudrätt, soppa, sallad, dessert), olika tillagningssätt (stekt, kokt, ugnsbakat, wokad) och olika smakprofiler. Använd de angivna ingredienserna i alla recept men välj varierande tillbehör och tillagning.

Svara ENDAST med en JSON-array av exakt 10 receptobjekt, ingen markdown och ingen förklaring.`

func userPrompt(ingredients []string) string {
	return fmt.Sprintf("Skapa exakt 10 olika recept som använder följande ingredienser: %s. "+
		"Varje recept ska vara tydligt varierat (olika kök, rättstyper, tillagningssätt). "+
		"Svara med en JSON-array av exakt 10 recept enligt formatet.", strings.Join(ingredients, ", "))
}

// Options configures a Generator.
type Options struct {
	Endpoint        string
	APIKey          string
	ChatDeployment  string
	ImageDeployment string
	// ImageDir receives generated images. Images are skipped when empty.
	ImageDir string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Generator is a receptradar.RecipeGenerator backed by Azure OpenAI.
type Generator struct {
	opts     Options
	client   *resty.Client
	download *resty.Client
	logger   *zap.Logger
}

var _ receptradar.RecipeGenerator = (*Generator)(nil)

// New creates a Generator.
func New(opts Options) *Generator {
	opts.Endpoint = strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if opts.Timeout <= 0 {
		opts.Timeout = receptradar.DefaultProviderTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(opts.Endpoint).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Generator{
		opts:     opts,
		client:   client,
		download: resty.New().SetTimeout(opts.Timeout),
		logger:   logger,
	}
}

// FromConfig creates a Generator from client configuration.
func FromConfig(cfg receptradar.Config, logger *zap.Logger) *Generator {
	cfg = cfg.WithDefaults()
	return New(Options{
		Endpoint:        cfg.Azure.Endpoint,
		APIKey:          cfg.Azure.APIKey,
		ChatDeployment:  cfg.Azure.ChatDeployment,
		ImageDeployment: cfg.Azure.ImageDeployment,
		ImageDir:        cfg.ImageDir(),
		Timeout:         cfg.Azure.Timeout,
		Logger:          logger,
	})
}

// Available reports whether endpoint, key and chat deployment are set.
func (g *Generator) Available() bool {
	return g.opts.Endpoint != "" && g.opts.APIKey != "" && g.opts.ChatDeployment != ""
}

// Generate asks the chat deployment for recipes using ingredients. When
// includeImage is set and an image deployment is configured, a photo of the
// first recipe is stored in ImageDir. Image failures are logged and ignored.
func (g *Generator) Generate(ctx context.Context, ingredients []string, includeImage bool) ([]receptradar.RecipePayload, error) {
	if !g.Available() {
		return nil, receptradar.ErrProviderUnavailable
	}

	text, err := g.respond(ctx, systemPrompt, userPrompt(ingredients))
	if err != nil {
		return nil, err
	}
	payloads, err := ParsePayloads(text)
	if err != nil {
		return nil, &receptradar.ProviderError{Operation: "parse recipes", Err: err}
	}
	if len(payloads) == 0 {
		return nil, receptradar.ErrNoRecipesGenerated
	}

	if includeImage && g.opts.ImageDeployment != "" && g.opts.ImageDir != "" {
		path, err := g.recipeImage(ctx, payloads[0].Title)
		if err != nil {
			g.logger.Warn("recipe image skipped", zap.String("title", payloads[0].Title), zap.Error(err))
		} else {
			payloads[0].ImagePath = path
		}
	}
	return payloads, nil
}

type responsesRequest struct {
	Model           string `json:"model"`
	Instructions    string `json:"instructions"`
	Input           string `json:"input"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

type responsesResponse struct {
	Output []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// respond calls the Responses API and joins every output_text block.
func (g *Generator) respond(ctx context.Context, instructions, input string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("api-key", g.opts.APIKey).
		SetHeader("x-ms-client-request-id", requestID).
		SetQueryParam("api-version", responsesAPIVersion).
		SetBody(responsesRequest{
			Model:           g.opts.ChatDeployment,
			Instructions:    instructions,
			Input:           input,
			MaxOutputTokens: maxOutputTokens,
		}).
		Post(responsesPath)
	if err != nil {
		return "", &receptradar.ProviderError{Operation: "responses", Err: err}
	}
	g.logger.Debug("azure responses call",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)))

	if !resp.IsSuccess() {
		return "", &receptradar.ProviderError{
			Operation:  "responses",
			StatusCode: resp.StatusCode(),
			Err:        errors.New(strings.TrimSpace(resp.String())),
		}
	}

	var result responsesResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", &receptradar.ProviderError{Operation: "responses", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Output) == 0 {
		return "", &receptradar.ProviderError{Operation: "responses", Err: errors.New("no output")}
	}

	var b strings.Builder
	for _, item := range result.Output {
		for _, block := range item.Content {
			if block.Type == "output_text" {
				b.WriteString(block.Text)
			}
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &receptradar.ProviderError{Operation: "responses", Err: errors.New("no text content")}
	}
	return text, nil
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Style          string `json:"style"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// recipeImage generates a photo for title and returns the local file path.
func (g *Generator) recipeImage(ctx context.Context, title string) (string, error) {
	path := "/openai/deployments/" + url.PathEscape(g.opts.ImageDeployment) + "/images/generations"
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("api-key", g.opts.APIKey).
		SetHeader("x-ms-client-request-id", uuid.New().String()).
		SetQueryParam("api-version", imagesAPIVersion).
		SetBody(imageRequest{
			Model:          g.opts.ImageDeployment,
			Prompt:         fmt.Sprintf("Appetizing food photo of %s, professional, no text", title),
			N:              1,
			Size:           "1024x1024",
			Style:          "vivid",
			ResponseFormat: "b64_json",
		}).
		Post(path)
	if err != nil {
		return "", &receptradar.ProviderError{Operation: "images", Err: err}
	}
	if !resp.IsSuccess() {
		return "", &receptradar.ProviderError{
			Operation:  "images",
			StatusCode: resp.StatusCode(),
			Err:        errors.New(strings.TrimSpace(resp.String())),
		}
	}

	var result imageResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(result.Data) == 0 {
		return "", errors.New("image response has no data")
	}

	var data []byte
	switch img := result.Data[0]; {
	case img.B64JSON != "":
		data, err = base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return "", fmt.Errorf("decode image: %w", err)
		}
	case img.URL != "":
		data, err = g.fetch(ctx, img.URL)
		if err != nil {
			return "", err
		}
	default:
		return "", errors.New("image response has neither b64_json nor url")
	}
	return g.writeImage(data)
}

func (g *Generator) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := g.download.R().SetContext(ctx).Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

func (g *Generator) writeImage(data []byte) (string, error) {
	if err := os.MkdirAll(g.opts.ImageDir, 0755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}
	path := filepath.Join(g.opts.ImageDir, "recipe_"+ulid.Make().String()+".png")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
