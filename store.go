package receptradar

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store owns the local SQLite database. It is created once, migrated before
// it is returned, and handed explicitly to every component that needs it.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
	logger *zap.Logger
	now    func() time.Time

	migration *MigrationResult
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used by the store. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for timestamps and TTL checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore opens or creates the local store at path and migrates it to
// SchemaVersion. A migration failure is returned and the store is not usable.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	return OpenStore(context.Background(), path, opts...)
}

// OpenStore is NewStore with a context for the migration.
func OpenStore(ctx context.Context, path string, opts ...StoreOption) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps pragmas stable.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, path: path, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	result, err := Migrate(ctx, db, s.logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	s.migration = result
	if len(result.Applied) > 0 {
		s.logger.Info("store migrated",
			zap.String("path", path),
			zap.Int("from", result.FromVersion),
			zap.Int("to", result.ToVersion))
	}
	return s, nil
}

// journal_mode cannot change inside a transaction, so it is set before migrating.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Migration returns the result of the migration run when the store was opened.
func (s *Store) Migration() *MigrationResult { return s.migration }

// Pantry returns the pantry item store.
func (s *Store) Pantry() *PantryStore { return &PantryStore{s: s} }

// Favorites returns the favorites store.
func (s *Store) Favorites() *FavoriteStore { return &FavoriteStore{s: s} }

// Generated returns the generated recipe batch store.
func (s *Store) Generated() *GeneratedBatchStore { return &GeneratedBatchStore{s: s} }

// WebRecipes returns the saved web recipe store.
func (s *Store) WebRecipes() *WebRecipeStore { return &WebRecipeStore{s: s} }

// Settings returns the key/value settings store.
func (s *Store) Settings() *SettingsStore { return &SettingsStore{s: s} }

// ProductCache returns the product lookup cache.
func (s *Store) ProductCache() *TTLCache { return &TTLCache{s: s, table: "product_cache"} }

// RecipeCache returns the recipe search cache.
func (s *Store) RecipeCache() *TTLCache { return &TTLCache{s: s, table: "recipe_cache"} }

// read runs fn against the database under the read lock.
func (s *Store) read(fn func(db *sql.DB) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	return fn(s.db)
}

// withTx runs fn in a transaction under the write lock. The transaction is
// committed if fn returns nil and rolled back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Stats returns row counts and the schema version.
func (s *Store) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}
	err := s.read(func(db *sql.DB) error {
		if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&stats.SchemaVersion); err != nil {
			return fmt.Errorf("store: read schema version: %w", err)
		}
		counts := []struct {
			query string
			dest  *int
		}{
			{"SELECT COUNT(*) FROM pantry_items", &stats.PantryItems},
			{"SELECT COUNT(*) FROM favorites", &stats.Favorites},
			{"SELECT COUNT(*) FROM generated_recipes", &stats.GeneratedRecipes},
			{"SELECT COUNT(DISTINCT ingredient_cache_key) FROM generated_recipes", &stats.GeneratedBatches},
			{"SELECT COUNT(*) FROM saved_web_recipes", &stats.SavedWebRecipes},
			{"SELECT COUNT(*) FROM product_cache", &stats.ProductCache},
			{"SELECT COUNT(*) FROM recipe_cache", &stats.RecipeCache},
		}
		for _, c := range counts {
			if err := db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
				return fmt.Errorf("store: %s: %w", c.query, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

func (s *Store) unixNow() int64 {
	return s.now().Unix()
}

// scanner abstracts the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// parseID parses a decimal recipe id. Non-numeric ids yield 0.
func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
