package receptradar

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func intp(n int) *int { return &n }

// TestGeneratedBatchStore_SaveAndGet verifies a saved record reads back unchanged.
func TestGeneratedBatchStore_SaveAndGet(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	in := NewGeneratedRecipe{
		IngredientCacheKey: "mjölk|ost",
		Title:              "Ostpaj",
		Ingredients: []GeneratedIngredient{
			{Name: "mjölk", Amount: "2", Unit: "dl"},
			{Name: "ost", Amount: "½", Unit: "pkt"},
			{Name: "salt"},
		},
		Steps: []GeneratedStep{
			{StepNumber: intp(1), Instruction: "Sätt ugnen på 200 grader."},
			{Instruction: "Grädda."},
		},
		Servings:       intp(4),
		ReadyInMinutes: intp(45),
		ImagePath:      "/tmp/images/recipe_1.png",
	}

	id, err := s.Generated().Save(ctx, in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Generated().GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil")
	}

	want := GeneratedRecipe{
		ID:                 id,
		IngredientCacheKey: in.IngredientCacheKey,
		Title:              in.Title,
		Ingredients:        in.Ingredients,
		Steps:              in.Steps,
		Servings:           in.Servings,
		ReadyInMinutes:     in.ReadyInMinutes,
		ImagePath:          in.ImagePath,
		CreatedAt:          clock.Now(),
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("GetByID =\n%+v\nwant\n%+v", *got, want)
	}
}

// TestGeneratedBatchStore_SaveValidates verifies the empty key and blank titles are rejected.
func TestGeneratedBatchStore_SaveValidates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Generated().Save(ctx, NewGeneratedRecipe{Title: "Soppa"}); !errors.Is(err, ErrEmptyCacheKey) {
		t.Errorf("Save without key = %v, want ErrEmptyCacheKey", err)
	}
	if _, err := s.Generated().Save(ctx, NewGeneratedRecipe{IngredientCacheKey: "ost", Title: "  "}); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Save without title = %v, want ErrEmptyTitle", err)
	}
}

// TestGeneratedBatchStore_Absent verifies lookups of missing data return nil.
func TestGeneratedBatchStore_Absent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if r, err := s.Generated().GetByID(ctx, 999); err != nil || r != nil {
		t.Errorf("GetByID(999) = %v, %v; want nil, nil", r, err)
	}
	if r, err := s.Generated().GetByIngredientKeyLatest(ctx, ""); err != nil || r != nil {
		t.Errorf("Latest(\"\") = %v, %v; want nil, nil", r, err)
	}
	if r, err := s.Generated().GetByIngredientKeyLatest(ctx, "ost"); err != nil || r != nil {
		t.Errorf("Latest(ost) = %v, %v; want nil, nil", r, err)
	}
	batch, err := s.Generated().GetBatch(ctx, nil)
	if err != nil || batch == nil || len(batch) != 0 {
		t.Errorf("GetBatch(nil) = %v, %v; want empty", batch, err)
	}
}

// TestGeneratedBatchStore_BatchOrder verifies newest-first ordering with id tiebreak.
func TestGeneratedBatchStore_BatchOrder(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	names := []string{"Ost", "Mjölk"}
	key := BuildIngredientKey(names)

	var ids []int64
	for i, title := range []string{"Första", "Andra", "Tredje"} {
		if i == 1 {
			clock.Advance(time.Minute)
		}
		id, err := s.Generated().Save(ctx, NewGeneratedRecipe{IngredientCacheKey: key, Title: title})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, id)
	}

	batch, err := s.Generated().GetBatch(ctx, []string{"mjölk", "ost"})
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	var got []int64
	for _, r := range batch {
		got = append(got, r.ID)
	}
	want := []int64{ids[2], ids[1], ids[0]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("batch ids = %v, want %v", got, want)
	}

	latest, err := s.Generated().GetByIngredientKeyLatest(ctx, key)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.ID != ids[2] {
		t.Errorf("Latest = %+v, want id %d", latest, ids[2])
	}
}

func saveBatch(t *testing.T, s *Store, names []string, n int) []int64 {
	t.Helper()
	key := BuildIngredientKey(names)
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.Generated().Save(context.Background(), NewGeneratedRecipe{IngredientCacheKey: key, Title: "Rätt"})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

// TestReplaceBatchKeepingFavorited verifies only the named batch is cleared
// and kept ids survive.
func TestReplaceBatchKeepingFavorited(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	names := []string{"ost", "mjölk"}
	other := []string{"lax"}
	ids := saveBatch(t, s, names, 3)
	otherIDs := saveBatch(t, s, other, 1)

	// otherIDs[0] belongs to another batch and must not shield anything.
	removed, err := s.Generated().ReplaceBatchKeepingFavorited(ctx, names, []int64{ids[1], otherIDs[0], 12345})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	batch, err := s.Generated().GetBatch(ctx, names)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(batch) != 1 || batch[0].ID != ids[1] {
		t.Errorf("batch = %+v, want only id %d", batch, ids[1])
	}

	otherBatch, err := s.Generated().GetBatch(ctx, other)
	if err != nil {
		t.Fatalf("GetBatch other: %v", err)
	}
	if len(otherBatch) != 1 {
		t.Errorf("other batch has %d records, want 1", len(otherBatch))
	}
}

// TestReplaceBatchKeepingFavorited_EmptyKeep verifies an empty keep list clears the batch.
func TestReplaceBatchKeepingFavorited_EmptyKeep(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	names := []string{"ägg"}
	saveBatch(t, s, names, 4)

	removed, err := s.Generated().ReplaceBatchKeepingFavorited(ctx, names, nil)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if removed != 4 {
		t.Errorf("removed = %d, want 4", removed)
	}
	batch, err := s.Generated().GetBatch(ctx, names)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("batch has %d records, want 0", len(batch))
	}
}

// TestReplaceBatchKeepingFavorited_EmptyKey verifies noise names delete nothing.
func TestReplaceBatchKeepingFavorited_EmptyKey(t *testing.T) {
	s, _ := newTestStore(t)
	saveBatch(t, s, []string{"ost"}, 2)

	removed, err := s.Generated().ReplaceBatchKeepingFavorited(context.Background(), []string{"2 dl"}, nil)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

// TestGeneratedRecipe_MalformedJSON verifies corrupt stored lists read as empty.
func TestGeneratedRecipe_MalformedJSON(t *testing.T) {
	s, _ := newTestStore(t)

	res, err := s.db.Exec(`INSERT INTO generated_recipes (ingredient_cache_key, title, ingredients_json, steps_json, created_at)
		VALUES ('ost', 'Trasig', 'not json', '{"a":1}', 1)`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, _ := res.LastInsertId()

	got, err := s.Generated().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil")
	}
	if got.Ingredients == nil || len(got.Ingredients) != 0 {
		t.Errorf("Ingredients = %#v, want empty slice", got.Ingredients)
	}
	if got.Steps == nil || len(got.Steps) != 0 {
		t.Errorf("Steps = %#v, want empty slice", got.Steps)
	}
}

// TestParseIngredients covers loose element shapes.
func TestParseIngredients(t *testing.T) {
	got := ParseIngredients(`[{"name":"mjölk","amount":2,"unit":"dl"},{"name":"salt","amount":"en nypa"},{"name":7,"amount":true},"x"]`)
	want := []GeneratedIngredient{
		{Name: "mjölk", Amount: "2", Unit: "dl"},
		{Name: "salt", Amount: "en nypa"},
		{Name: "7"},
		{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseIngredients = %#v, want %#v", got, want)
	}
}

// TestParseSteps covers step numbers that are missing or not integers.
func TestParseSteps(t *testing.T) {
	got := ParseSteps(`[{"step_number":1,"instruction":"Koka."},{"step_number":"2","instruction":"Servera."},{"instruction":null}]`)
	want := []GeneratedStep{
		{StepNumber: intp(1), Instruction: "Koka."},
		{Instruction: "Servera."},
		{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSteps = %#v, want %#v", got, want)
	}
}

// TestGeneratedRecipe_Summary verifies the matching view of a generated recipe.
func TestGeneratedRecipe_Summary(t *testing.T) {
	r := GeneratedRecipe{
		ID:    12,
		Title: "Pannkakor",
		Ingredients: []GeneratedIngredient{
			{Name: "mjölk", Amount: "6", Unit: "dl"},
			{Name: "ägg"},
		},
		ReadyInMinutes: intp(30),
	}
	got := r.Summary()
	if got.ID != "12" || got.Provider != ProviderGenerated || got.Title != "Pannkakor" {
		t.Errorf("Summary = %+v", got)
	}
	wantIngredients := []RecipeIngredient{
		{Name: "mjölk", Original: "6 dl mjölk"},
		{Name: "ägg"},
	}
	if !reflect.DeepEqual(got.Ingredients, wantIngredients) {
		t.Errorf("Ingredients = %+v, want %+v", got.Ingredients, wantIngredients)
	}
}
