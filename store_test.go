package receptradar

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// testClock is a settable time source for stores under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := newTestClock()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// TestNewStore_CreatesAndMigrates verifies a new store lands on the current schema.
func TestNewStore_CreatesAndMigrates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
	if m := s.Migration(); m == nil || m.ToVersion != SchemaVersion || len(m.Applied) != SchemaVersion {
		t.Errorf("Migration() = %+v, want full run to %d", m, SchemaVersion)
	}

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

// TestNewStore_ReopenSkipsMigration verifies reopening an up-to-date store
// applies nothing.
func TestNewStore_ReopenSkipsMigration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Close()

	s, err = NewStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if n := len(s.Migration().Applied); n != 0 {
		t.Errorf("reopen applied %d steps, want 0", n)
	}
}

// TestNewStore_SchemaTooNew verifies a newer database fails to open.
func TestNewStore_SchemaTooNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set version: %v", err)
	}
	db.Close()

	_, err = NewStore(dbPath)
	if !errors.Is(err, ErrSchemaTooNew) {
		t.Fatalf("NewStore error = %v, want ErrSchemaTooNew", err)
	}
}

// TestStore_Stats verifies row counts and the schema version.
func TestStore_Stats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Pantry().Create(ctx, NewPantryItem{Name: "Ost"}); err != nil {
		t.Fatalf("create pantry item: %v", err)
	}
	for _, key := range []string{"ost", "ost", "mjölk"} {
		if _, err := s.Generated().Save(ctx, NewGeneratedRecipe{IngredientCacheKey: key, Title: "Rätt"}); err != nil {
			t.Fatalf("save generated: %v", err)
		}
	}
	if _, err := s.Favorites().Add(ctx, ProviderWeb, "42", FavoriteRecipeData{}); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := StoreStats{
		SchemaVersion:    SchemaVersion,
		PantryItems:      1,
		Favorites:        1,
		GeneratedRecipes: 3,
		GeneratedBatches: 2,
	}
	if *stats != want {
		t.Errorf("Stats = %+v, want %+v", *stats, want)
	}
}

// TestStore_Closed verifies operations fail after Close and Close is idempotent.
func TestStore_Closed(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := s.Pantry().All(ctx); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("All after close = %v, want ErrStoreClosed", err)
	}
	if _, err := s.Pantry().Create(ctx, NewPantryItem{Name: "Ost"}); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Create after close = %v, want ErrStoreClosed", err)
	}
}
