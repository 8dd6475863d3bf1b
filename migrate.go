package receptradar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperengineering/receptradar/internal/normalize"
)

// SchemaVersion is the schema version this build migrates to.
const SchemaVersion = 6

// MigrationResult describes a completed migration.
type MigrationResult struct {
	FromVersion int   `json:"from_version"`
	ToVersion   int   `json:"to_version"`
	Applied     []int `json:"applied"`
}

// migrationStep upgrades the schema from version-1 to version. Steps must
// tolerate objects that already exist.
type migrationStep struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

var migrationSteps = []migrationStep{
	{1, "create base tables", migrateBaseTables},
	{2, "pantry normalized name, category, best before", migratePantryColumns},
	{3, "favorites provider", migrateFavoritesProvider},
	{4, "saved web recipes", migrateSavedWebRecipes},
	{5, "generated recipes", migrateGeneratedRecipes},
	{6, "normalize favorite providers", migrateNormalizeProviders},
}

// Migrate brings the database to SchemaVersion in a single transaction.
//
// Every step above the stored user_version runs in order and the version is
// written last, so a failure leaves the database exactly as it was. A
// database written by a newer schema is rejected with ErrSchemaTooNew.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) (*MigrationResult, error) {
	return runMigrations(ctx, db, logger, migrationSteps)
}

func runMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger, steps []migrationStep) (*MigrationResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	target := 0
	if len(steps) > 0 {
		target = steps[len(steps)-1].version
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	var current int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return nil, fmt.Errorf("migrate: read schema version: %w", err)
	}
	if current > target {
		return nil, fmt.Errorf("migrate: database version %d, supported %d: %w", current, target, ErrSchemaTooNew)
	}

	result := &MigrationResult{FromVersion: current, ToVersion: target, Applied: []int{}}
	for _, step := range steps {
		if step.version <= current {
			continue
		}
		if err := step.apply(ctx, tx); err != nil {
			logger.Error("migration step failed",
				zap.Int("version", step.version),
				zap.String("step", step.name),
				zap.Error(err))
			return nil, &MigrationError{FromVersion: current, Step: step.version, Name: step.name, Err: err}
		}
		result.Applied = append(result.Applied, step.version)
		logger.Info("applied migration", zap.Int("version", step.version), zap.String("step", step.name))
	}

	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return nil, fmt.Errorf("migrate: write schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("migrate: commit: %w", err)
	}
	return result, nil
}

// SchemaVersionOf reads the stored schema version.
func SchemaVersionOf(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func migrateBaseTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pantry_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			barcode TEXT,
			quantity REAL,
			unit TEXT,
			added_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS favorites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recipe_id TEXT NOT NULL UNIQUE,
			recipe_data TEXT,
			added_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS product_cache (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			cached_at INTEGER NOT NULL,
			ttl_seconds INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS recipe_cache (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			cached_at INTEGER NOT NULL,
			ttl_seconds INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at INTEGER NOT NULL
		);
	`)
	return err
}

func migratePantryColumns(ctx context.Context, tx *sql.Tx) error {
	for _, col := range []struct{ name, ddl string }{
		{"normalized_name", "TEXT"},
		{"category", "TEXT"},
		{"best_before", "INTEGER"},
	} {
		if err := addColumnIfNotExists(ctx, tx, "pantry_items", col.name, col.ddl); err != nil {
			return err
		}
	}
	return backfillNormalizedNames(ctx, tx)
}

// backfillNormalizedNames fills normalized_name for rows where it is NULL.
// Names that normalize to nothing stay NULL.
func backfillNormalizedNames(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM pantry_items WHERE normalized_name IS NULL`)
	if err != nil {
		return fmt.Errorf("select legacy pantry rows: %w", err)
	}
	type legacyRow struct {
		id   int64
		name string
	}
	var pending []legacyRow
	for rows.Next() {
		var r legacyRow
		if err := rows.Scan(&r.id, &r.name); err != nil {
			rows.Close()
			return fmt.Errorf("scan legacy pantry row: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, r := range pending {
		key := normalize.Key(r.name)
		if key == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE pantry_items SET normalized_name = ? WHERE id = ? AND normalized_name IS NULL`,
			key, r.id); err != nil {
			return fmt.Errorf("backfill pantry row %d: %w", r.id, err)
		}
	}
	return nil
}

func migrateFavoritesProvider(ctx context.Context, tx *sql.Tx) error {
	// Leftover from an interrupted swap.
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS favorites_new`); err != nil {
		return err
	}

	exists, err := tableExists(ctx, tx, "favorites")
	if err != nil {
		return err
	}
	if !exists {
		_, err := tx.ExecContext(ctx, favoritesTableDDL("favorites"))
		return err
	}

	hasProvider, err := columnExists(ctx, tx, "favorites", "provider")
	if err != nil {
		return err
	}
	if hasProvider {
		return nil
	}

	// SQLite cannot alter a UNIQUE constraint, so the table is rebuilt.
	stmts := []string{
		favoritesTableDDL("favorites_new"),
		`INSERT INTO favorites_new (id, provider, recipe_id, recipe_data, added_at)
			SELECT id, 'web', recipe_id, recipe_data, added_at FROM favorites`,
		`DROP TABLE favorites`,
		`ALTER TABLE favorites_new RENAME TO favorites`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("rebuild favorites: %w", err)
		}
	}
	return nil
}

func favoritesTableDDL(name string) string {
	return `CREATE TABLE ` + name + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL DEFAULT 'web',
		recipe_id TEXT NOT NULL,
		recipe_data TEXT,
		added_at INTEGER NOT NULL,
		UNIQUE(provider, recipe_id)
	)`
}

func migrateSavedWebRecipes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS saved_web_recipes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT,
			source_url TEXT NOT NULL,
			image_url TEXT,
			ingredient_query TEXT,
			saved_at INTEGER NOT NULL
		)
	`)
	return err
}

func migrateGeneratedRecipes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generated_recipes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ingredient_cache_key TEXT NOT NULL,
			title TEXT NOT NULL,
			ingredients_json TEXT NOT NULL,
			steps_json TEXT NOT NULL,
			servings INTEGER,
			ready_in_minutes INTEGER,
			image_path TEXT,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_generated_recipes_ingredient_key
			ON generated_recipes(ingredient_cache_key);
	`)
	return err
}

// migrateNormalizeProviders rewrites unknown providers to web. A row whose
// web twin already exists is dropped to keep (provider, recipe_id) unique.
func migrateNormalizeProviders(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE OR IGNORE favorites SET provider = 'web'
		WHERE provider IS NULL OR provider NOT IN ('web', 'generated')
	`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE provider IS NULL OR provider NOT IN ('web', 'generated')
	`)
	return err
}

func tableExists(ctx context.Context, tx *sql.Tx, table string) (bool, error) {
	var name string
	err := tx.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return true, nil
}

func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func addColumnIfNotExists(ctx context.Context, tx *sql.Tx, table, column, definition string) error {
	exists, err := columnExists(ctx, tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}
