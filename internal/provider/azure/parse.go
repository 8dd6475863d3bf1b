package azure

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hyperengineering/receptradar"
)

// ParsePayloads decodes model output into recipe payloads. The output is
// either an array of recipe objects, of which the first RecipesPerBatch
// positions are read and non-objects skipped, or a single recipe object.
// A surrounding markdown code fence is tolerated.
func ParsePayloads(raw string) ([]receptradar.RecipePayload, error) {
	dec := json.NewDecoder(strings.NewReader(stripFence(raw)))
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("invalid recipe json: %w", err)
	}

	switch v := parsed.(type) {
	case []any:
		out := make([]receptradar.RecipePayload, 0, min(len(v), receptradar.RecipesPerBatch))
		for i := 0; i < len(v) && i < receptradar.RecipesPerBatch; i++ {
			if obj, ok := v[i].(map[string]any); ok {
				out = append(out, parseRecipe(obj))
			}
		}
		return out, nil
	case map[string]any:
		return []receptradar.RecipePayload{parseRecipe(v)}, nil
	default:
		return nil, errors.New("invalid recipe json: not an object or array")
	}
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func parseRecipe(obj map[string]any) receptradar.RecipePayload {
	p := receptradar.RecipePayload{
		Title:       receptradar.DefaultRecipeTitle,
		Ingredients: []receptradar.GeneratedIngredient{},
		Steps:       []receptradar.GeneratedStep{},
	}
	if title, ok := obj["title"].(string); ok {
		p.Title = title
	}

	if items, ok := obj["ingredients"].([]any); ok {
		for _, item := range items {
			m, _ := item.(map[string]any)
			ing := receptradar.GeneratedIngredient{Name: text(m["name"])}
			switch a := m["amount"].(type) {
			case json.Number:
				ing.Amount = receptradar.Amount(a.String())
			case string:
				ing.Amount = receptradar.Amount(a)
			}
			if unit, ok := m["unit"].(string); ok {
				ing.Unit = unit
			}
			p.Ingredients = append(p.Ingredients, ing)
		}
	}

	if items, ok := obj["steps"].([]any); ok {
		for _, item := range items {
			m, _ := item.(map[string]any)
			step := receptradar.GeneratedStep{Instruction: text(m["instruction"])}
			if n, ok := m["step_number"].(json.Number); ok {
				step.StepNumber = integer(n)
			}
			p.Steps = append(p.Steps, step)
		}
	}

	if n, ok := obj["servings"].(json.Number); ok {
		p.Servings = integer(n)
	}
	if n, ok := obj["ready_in_minutes"].(json.Number); ok {
		p.ReadyInMinutes = integer(n)
	}
	return p
}

// text renders a decoded value as a string. Missing and null become "".
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func integer(n json.Number) *int {
	if i, err := n.Int64(); err == nil {
		v := int(i)
		return &v
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Round(f)
	if f < math.MinInt || f >= math.MaxInt {
		return nil
	}
	v := int(f)
	return &v
}
