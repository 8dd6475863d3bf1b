package receptradar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TTLCache is a key/value cache table whose entries expire after a TTL.
// Expired entries read as absent; PurgeExpired removes them.
type TTLCache struct {
	s     *Store
	table string
}

// Get returns the cached value for key. The second result is false when the
// key is absent or expired.
func (c *TTLCache) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value    string
		cachedAt int64
		ttl      int64
		found    bool
	)
	err := c.s.read(func(db *sql.DB) error {
		err := db.QueryRowContext(ctx,
			`SELECT value, cached_at, ttl_seconds FROM `+c.table+` WHERE key = ?`, key).
			Scan(&value, &cachedAt, &ttl)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("store: read %s: %w", c.table, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if !found || c.s.unixNow() >= cachedAt+ttl {
		return "", false, nil
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous entry.
func (c *TTLCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO `+c.table+` (key, value, cached_at, ttl_seconds) VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, cached_at = excluded.cached_at, ttl_seconds = excluded.ttl_seconds
		`, key, value, c.s.unixNow(), int64(ttl/time.Second))
		if err != nil {
			return fmt.Errorf("store: write %s: %w", c.table, err)
		}
		return nil
	})
}

// Delete removes key from the cache.
func (c *TTLCache) Delete(ctx context.Context, key string) error {
	return c.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+c.table+` WHERE key = ?`, key); err != nil {
			return fmt.Errorf("store: delete %s: %w", c.table, err)
		}
		return nil
	})
}

// PurgeExpired removes expired entries and returns how many were removed.
func (c *TTLCache) PurgeExpired(ctx context.Context) (int64, error) {
	var removed int64
	err := c.s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM `+c.table+` WHERE cached_at + ttl_seconds <= ?`, c.s.unixNow())
		if err != nil {
			return fmt.Errorf("store: purge %s: %w", c.table, err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
