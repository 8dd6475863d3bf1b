package receptradar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/receptradar/internal/normalize"
)

// PantryStore manages pantry items.
type PantryStore struct {
	s *Store
}

const pantryColumns = `id, name, normalized_name, barcode, category, quantity, unit, best_before, added_at, updated_at`

// All returns every pantry item, most recently updated first.
func (p *PantryStore) All(ctx context.Context) ([]PantryItem, error) {
	items := []PantryItem{}
	err := p.s.read(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT `+pantryColumns+` FROM pantry_items ORDER BY updated_at DESC, id DESC`)
		if err != nil {
			return fmt.Errorf("store: query pantry: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanPantryItem(rows)
			if err != nil {
				return err
			}
			items = append(items, *item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns the pantry item with id, or nil if it does not exist.
func (p *PantryStore) Get(ctx context.Context, id int64) (*PantryItem, error) {
	var item *PantryItem
	err := p.s.read(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+pantryColumns+` FROM pantry_items WHERE id = ?`, id)
		i, err := scanPantryItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		item = i
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Create adds a pantry item. NormalizedName is derived from Name when not set.
func (p *PantryStore) Create(ctx context.Context, in NewPantryItem) (*PantryItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	normalized := in.NormalizedName
	if normalized == "" {
		normalized = normalize.Key(name)
	}

	var item *PantryItem
	err := p.s.withTx(ctx, func(tx *sql.Tx) error {
		ts := p.s.unixNow()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO pantry_items (name, normalized_name, barcode, category, quantity, unit, best_before, added_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			name,
			nullString(normalized),
			nullString(in.Barcode),
			nullString(in.Category),
			nullFloat(in.Quantity),
			nullString(in.Unit),
			nullUnix(in.BestBefore),
			ts,
			ts,
		)
		if err != nil {
			return fmt.Errorf("store: insert pantry item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		item, err = scanPantryItem(tx.QueryRowContext(ctx, `SELECT `+pantryColumns+` FROM pantry_items WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update applies a partial update and returns the updated item, or nil if
// the item does not exist. Changing Name without NormalizedName re-derives
// the normalized name.
func (p *PantryStore) Update(ctx context.Context, id int64, u PantryUpdate) (*PantryItem, error) {
	var item *PantryItem
	err := p.s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanPantryItem(tx.QueryRowContext(ctx, `SELECT `+pantryColumns+` FROM pantry_items WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				return ErrEmptyName
			}
			existing.Name = name
			if u.NormalizedName == nil {
				existing.NormalizedName = normalize.Key(name)
			}
		}
		if u.NormalizedName != nil {
			existing.NormalizedName = *u.NormalizedName
		}
		if u.Barcode != nil {
			existing.Barcode = *u.Barcode
		}
		if u.Category != nil {
			existing.Category = *u.Category
		}
		if u.Quantity != nil {
			existing.Quantity = u.Quantity
		}
		if u.Unit != nil {
			existing.Unit = *u.Unit
		}
		if u.BestBefore != nil {
			existing.BestBefore = u.BestBefore
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE pantry_items
			SET name = ?, normalized_name = ?, barcode = ?, category = ?, quantity = ?, unit = ?, best_before = ?, updated_at = ?
			WHERE id = ?
		`,
			existing.Name,
			nullString(existing.NormalizedName),
			nullString(existing.Barcode),
			nullString(existing.Category),
			nullFloat(existing.Quantity),
			nullString(existing.Unit),
			nullUnix(existing.BestBefore),
			p.s.unixNow(),
			id,
		)
		if err != nil {
			return fmt.Errorf("store: update pantry item: %w", err)
		}
		item, err = scanPantryItem(tx.QueryRowContext(ctx, `SELECT `+pantryColumns+` FROM pantry_items WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a pantry item. Deleting a missing id is not an error.
func (p *PantryStore) Delete(ctx context.Context, id int64) error {
	return p.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete pantry item: %w", err)
		}
		return nil
	})
}

func scanPantryItem(sc scanner) (*PantryItem, error) {
	var (
		item       PantryItem
		normalized sql.NullString
		barcode    sql.NullString
		category   sql.NullString
		quantity   sql.NullFloat64
		unit       sql.NullString
		bestBefore sql.NullInt64
		addedAt    int64
		updatedAt  int64
	)
	err := sc.Scan(&item.ID, &item.Name, &normalized, &barcode, &category, &quantity, &unit,
		&bestBefore, &addedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan pantry item: %w", err)
	}
	item.NormalizedName = normalized.String
	item.Barcode = barcode.String
	item.Category = category.String
	item.Unit = unit.String
	if quantity.Valid {
		q := quantity.Float64
		item.Quantity = &q
	}
	if bestBefore.Valid {
		t := unixTime(bestBefore.Int64)
		item.BestBefore = &t
	}
	item.AddedAt = unixTime(addedAt)
	item.UpdatedAt = unixTime(updatedAt)
	return &item, nil
}

// IngredientName is the name used when the item is sent as a recipe
// ingredient: the stored normalized name, else the normalized display name.
func (i PantryItem) IngredientName() string {
	if k := normalize.Key(i.NormalizedName); k != "" {
		return k
	}
	return normalize.Key(i.Name)
}

// BuildIngredients returns up to MaxIngredientsForRecipes unique ingredient
// names from items, in item order.
func BuildIngredients(items []PantryItem) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, MaxIngredientsForRecipes)
	for _, item := range items {
		name := item.IngredientName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
		if len(out) >= MaxIngredientsForRecipes {
			break
		}
	}
	return out
}

// PantrySetOf builds the matching set for the whole pantry.
func PantrySetOf(items []PantryItem) PantrySet {
	set := make(PantrySet, len(items))
	for _, item := range items {
		set.Add(item.IngredientName())
	}
	return set
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
