package mirror

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Syfaro/paprika-go/paprika"
)

func newCategoryHandler() entityHandler {
	return &collection[paprika.Category]{
		kind:   KindCategories,
		policy: DeleteOnOmission,
		table:  "category",
		fetch: func(ctx context.Context, src Source) ([]paprika.Category, error) {
			return src.Categories(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, c paprika.Category) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO category (uid, order_flag, name, parent_uid, fingerprint)
				VALUES (@uid, @order_flag, @name, @parent_uid, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					order_flag = EXCLUDED.order_flag,
					name = EXCLUDED.name,
					parent_uid = EXCLUDED.parent_uid,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         c.UID,
					"order_flag":  c.OrderFlag,
					"name":        c.Name,
					"parent_uid":  c.ParentUID,
					"fingerprint": c.Fingerprint(),
				})
			return err
		},
	}
}

// detectCategoryCycle walks parent chains over uid -> parent uid (empty
// string for roots) and returns one cycle as a uid path, or nil. Parents
// missing from the map terminate a chain; the foreign key catches those
// separately.
func detectCategoryCycle(parents map[string]string) []string {
	const (
		white = iota // unvisited
		grey         // on the current chain
		black        // proven cycle-free
	)
	color := make(map[string]int, len(parents))

	for start := range parents {
		if color[start] != white {
			continue
		}
		var chain []string
		uid := start
		for {
			if color[uid] == grey {
				// Trim the tail leading into the loop.
				for i, c := range chain {
					if c == uid {
						return append(chain[i:], uid)
					}
				}
				return append(chain, uid)
			}
			if color[uid] == black {
				break
			}
			color[uid] = grey
			chain = append(chain, uid)

			parent, ok := parents[uid]
			if !ok || parent == "" {
				break
			}
			uid = parent
		}
		for _, c := range chain {
			color[c] = black
		}
	}
	return nil
}

// checkCategoryCycles validates the category tree as it stands inside the
// transaction, after the batch's writes. A cycle aborts the whole batch.
func checkCategoryCycles(ctx context.Context, tx pgx.Tx) error {
	rows, err := tx.Query(ctx, `SELECT uid, COALESCE(parent_uid, '') FROM category`)
	if err != nil {
		return fmt.Errorf("load category parents: %w", err)
	}
	defer rows.Close()

	parents := make(map[string]string)
	for rows.Next() {
		var uid, parent string
		if err := rows.Scan(&uid, &parent); err != nil {
			return fmt.Errorf("scan category parent: %w", err)
		}
		parents[uid] = parent
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load category parents: %w", err)
	}

	if cycle := detectCategoryCycle(parents); cycle != nil {
		return &CycleError{UIDs: cycle}
	}
	return nil
}
