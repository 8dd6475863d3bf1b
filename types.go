package receptradar

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// PantryItem is a product the user has at home.
type PantryItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// NormalizedName is empty for legacy rows that predate normalization.
	NormalizedName string     `json:"normalized_name,omitempty"`
	Barcode        string     `json:"barcode,omitempty"`
	Category       string     `json:"category,omitempty"`
	Quantity       *float64   `json:"quantity,omitempty"`
	Unit           string     `json:"unit,omitempty"`
	BestBefore     *time.Time `json:"best_before,omitempty"`
	AddedAt        time.Time  `json:"added_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewPantryItem contains the fields accepted when creating a pantry item.
type NewPantryItem struct {
	Name           string     `json:"name" yaml:"name"`
	NormalizedName string     `json:"normalized_name,omitempty" yaml:"normalized_name,omitempty"`
	Barcode        string     `json:"barcode,omitempty" yaml:"barcode,omitempty"`
	Category       string     `json:"category,omitempty" yaml:"category,omitempty"`
	Quantity       *float64   `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit           string     `json:"unit,omitempty" yaml:"unit,omitempty"`
	BestBefore     *time.Time `json:"best_before,omitempty" yaml:"best_before,omitempty"`
}

// PantryUpdate describes a partial update. Nil fields are left unchanged.
type PantryUpdate struct {
	Name           *string
	NormalizedName *string
	Barcode        *string
	Category       *string
	Quantity       *float64
	Unit           *string
	BestBefore     *time.Time
}

// Provider identifies where a favorited recipe comes from.
type Provider string

const (
	ProviderWeb       Provider = "web"
	ProviderGenerated Provider = "generated"
)

// ValidProviders returns all valid favorite providers.
func ValidProviders() []Provider {
	return []Provider{ProviderWeb, ProviderGenerated}
}

// IsValid checks if the provider is a known favorite provider.
func (p Provider) IsValid() bool {
	for _, valid := range ValidProviders() {
		if p == valid {
			return true
		}
	}
	return false
}

// Favorite is a recipe the user has pinned.
type Favorite struct {
	ID       int64    `json:"id"`
	Provider Provider `json:"provider"`
	RecipeID string   `json:"recipe_id"`
	// RecipeData is an opaque serialized snapshot, see FavoriteRecipeData.
	RecipeData string    `json:"recipe_data,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// FavoriteRecipeData is the display snapshot stored with a favorite.
type FavoriteRecipeData struct {
	Title     string `json:"title,omitempty"`
	Image     string `json:"image,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Data decodes the favorite's snapshot. Malformed snapshots decode to the zero value.
func (f Favorite) Data() FavoriteRecipeData {
	var data FavoriteRecipeData
	if f.RecipeData == "" {
		return data
	}
	if err := json.Unmarshal([]byte(f.RecipeData), &data); err != nil {
		return FavoriteRecipeData{}
	}
	return data
}

// Amount is an ingredient amount. Providers send either numbers ("2") or
// free text ("½", "a pinch"); numeric amounts are written back as JSON numbers.
type Amount string

// MarshalJSON writes numeric amounts as numbers and everything else as strings.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a == "" {
		return []byte(`""`), nil
	}
	if _, err := strconv.ParseFloat(string(a), 64); err == nil && json.Valid([]byte(a)) {
		return []byte(a), nil
	}
	return json.Marshal(string(a))
}

// UnmarshalJSON accepts a JSON number or string. Other values decode to "".
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*a = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*a = Amount(data)
	default:
		*a = ""
	}
	return nil
}

// GeneratedIngredient is one ingredient line of a generated recipe.
type GeneratedIngredient struct {
	Name   string `json:"name"`
	Amount Amount `json:"amount,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

// Original returns the display line ("2 dl mjölk") when both amount and unit
// are known, and an empty string otherwise.
func (i GeneratedIngredient) Original() string {
	if i.Amount == "" || i.Unit == "" {
		return ""
	}
	return string(i.Amount) + " " + i.Unit + " " + i.Name
}

// GeneratedStep is one instruction of a generated recipe.
type GeneratedStep struct {
	StepNumber  *int   `json:"step_number,omitempty"`
	Instruction string `json:"instruction"`
}

// GeneratedRecipe is a stored AI-generated recipe. Records sharing an
// IngredientCacheKey form a batch.
type GeneratedRecipe struct {
	ID                 int64                 `json:"id"`
	IngredientCacheKey string                `json:"ingredient_cache_key"`
	Title              string                `json:"title"`
	Ingredients        []GeneratedIngredient `json:"ingredients"`
	Steps              []GeneratedStep       `json:"steps"`
	Servings           *int                  `json:"servings,omitempty"`
	ReadyInMinutes     *int                  `json:"ready_in_minutes,omitempty"`
	ImagePath          string                `json:"image_path,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

// NewGeneratedRecipe is a generated recipe that has not been stored yet.
type NewGeneratedRecipe struct {
	IngredientCacheKey string
	Title              string
	Ingredients        []GeneratedIngredient
	Steps              []GeneratedStep
	Servings           *int
	ReadyInMinutes     *int
	ImagePath          string
}

// SavedWebRecipe is an external recipe page bookmarked by the user.
type SavedWebRecipe struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title,omitempty"`
	SourceURL       string    `json:"source_url"`
	ImageURL        string    `json:"image_url,omitempty"`
	IngredientQuery string    `json:"ingredient_query,omitempty"`
	SavedAt         time.Time `json:"saved_at"`
}

// RecipePayload is one recipe as returned by a RecipeGenerator.
type RecipePayload struct {
	Title          string                `json:"title"`
	Ingredients    []GeneratedIngredient `json:"ingredients"`
	Steps          []GeneratedStep       `json:"steps"`
	Servings       *int                  `json:"servings,omitempty"`
	ReadyInMinutes *int                  `json:"ready_in_minutes,omitempty"`
	// ImagePath is a local file. Only the first payload of a batch may carry one.
	ImagePath string `json:"-"`
}

// StoreStats contains statistics about the local store.
type StoreStats struct {
	SchemaVersion    int `json:"schema_version"`
	PantryItems      int `json:"pantry_items"`
	Favorites        int `json:"favorites"`
	GeneratedRecipes int `json:"generated_recipes"`
	GeneratedBatches int `json:"generated_batches"`
	SavedWebRecipes  int `json:"saved_web_recipes"`
	ProductCache     int `json:"product_cache"`
	RecipeCache      int `json:"recipe_cache"`
}

// Recipe counts.
const (
	// RecipesPerBatch is how many recipes one generation call asks for.
	RecipesPerBatch = 10
	// MaxIngredientsForRecipes caps the ingredient list sent to the provider.
	MaxIngredientsForRecipes = 15
	// maxIngredientsForQuery caps the saved-web-recipe ingredient query.
	maxIngredientsForQuery = 6
)
