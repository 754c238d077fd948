package mirror

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// entityHandler binds a Kind to its source fetch and its store statements.
// The applier drives handlers through this interface only; it never sees
// concrete entity types.
type entityHandler interface {
	Kind() Kind
	Policy() DeletionPolicy

	// Fetch pulls the complete current snapshot of the collection.
	Fetch(ctx context.Context, src Source) ([]Snapshot, error)

	// StoredFingerprints returns uid -> fingerprint for every stored row.
	StoredFingerprints(ctx context.Context, q Queryer) (map[string]string, error)

	// Upsert writes one snapshot. Keyed on uid, so replaying an already
	// applied batch is a no-op at the row level.
	Upsert(ctx context.Context, tx pgx.Tx, snap Snapshot) error

	// Delete removes one stored entity by uid.
	Delete(ctx context.Context, tx pgx.Tx, uid string) error
}

// preparer is implemented by handlers that need extra source round trips
// before their delta can be applied. Prepare runs outside the store
// transaction, so slow fetches never hold locks.
type preparer interface {
	Prepare(ctx context.Context, src Source, d *Delta) error
}

// collection is the common handler shape: a typed fetch plus a typed
// upsert over one table with a uid key and a fingerprint column.
type collection[T Snapshot] struct {
	kind   Kind
	policy DeletionPolicy
	table  string
	fetch  func(context.Context, Source) ([]T, error)
	upsert func(context.Context, pgx.Tx, T) error
}

func (c *collection[T]) Kind() Kind             { return c.kind }
func (c *collection[T]) Policy() DeletionPolicy { return c.policy }

func (c *collection[T]) Fetch(ctx context.Context, src Source) ([]Snapshot, error) {
	items, err := c.fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.kind, err)
	}
	snaps := make([]Snapshot, len(items))
	for i, item := range items {
		snaps[i] = item
	}
	return snaps, nil
}

func (c *collection[T]) StoredFingerprints(ctx context.Context, q Queryer) (map[string]string, error) {
	return storedFingerprints(ctx, q, c.kind, c.table)
}

func (c *collection[T]) Upsert(ctx context.Context, tx pgx.Tx, snap Snapshot) error {
	item, ok := snap.(T)
	if !ok {
		return fmt.Errorf("upsert %s: unexpected snapshot type %T", c.kind, snap)
	}
	if err := c.upsert(ctx, tx, item); err != nil {
		return fmt.Errorf("upsert %s %s: %w", c.kind, snap.EntityUID(), err)
	}
	return nil
}

func (c *collection[T]) Delete(ctx context.Context, tx pgx.Tx, uid string) error {
	return deleteByUID(ctx, tx, c.kind, c.table, uid)
}

func storedFingerprints(ctx context.Context, q Queryer, kind Kind, table string) (map[string]string, error) {
	rows, err := q.Query(ctx, `SELECT uid, fingerprint FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("load %s fingerprints: %w", kind, err)
	}
	defer rows.Close()

	stored := make(map[string]string)
	for rows.Next() {
		var uid, fp string
		if err := rows.Scan(&uid, &fp); err != nil {
			return nil, fmt.Errorf("scan %s fingerprint: %w", kind, err)
		}
		stored[uid] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s fingerprints: %w", kind, err)
	}
	return stored, nil
}

func deleteByUID(ctx context.Context, tx pgx.Tx, kind Kind, table string, uid string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, uid, err)
	}
	return nil
}

// newHandlers builds the full handler registry.
func newHandlers() map[Kind]entityHandler {
	handlers := []entityHandler{
		newRecipeHandler(),
		newPhotoHandler(),
		newMealTypeHandler(),
		newMealHandler(),
		newMenuHandler(),
		newMenuItemHandler(),
		newGroceryItemHandler(),
		newAisleHandler(),
		newGroceryListHandler(),
		newGroceryIngredientHandler(),
		newPantryHandler(),
		newBookmarkHandler(),
		newCategoryHandler(),
	}
	byKind := make(map[Kind]entityHandler, len(handlers))
	for _, h := range handlers {
		byKind[h.Kind()] = h
	}
	return byKind
}
