package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applyAttempts    = 3
	applyBackoffBase = 100 * time.Millisecond
	applyBackoffMax  = 2 * time.Second
)

// applier commits reconciled deltas. One transaction covers one kind
// cluster: with every FK deferred, write order across kinds inside the
// cluster does not matter, and the per-kind position rows advance in the
// same transaction so progress can never outrun applied data.
type applier struct {
	pool     *pgxpool.Pool
	handlers map[Kind]entityHandler
	logger   *slog.Logger

	// commitMu serializes cluster commits. Clusters touch disjoint tables
	// but share sync_progress; serializing keeps lock ordering trivial.
	commitMu sync.Mutex
}

// applyCluster writes every delta of one cluster and advances the cluster's
// positions, atomically. Retries the whole transaction on transient
// Postgres errors. The passed context only gates the retry sleeps; a
// transaction that has started runs to commit or rollback.
func (a *applier) applyCluster(ctx context.Context, kinds []Kind, deltas map[Kind]*Delta, positions map[Kind]string) error {
	txCtx := context.WithoutCancel(ctx)

	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	err := withRetry(ctx, applyAttempts, applyBackoffBase, applyBackoffMax, isRetryablePGTxError, func() error {
		return pgx.BeginTxFunc(txCtx, a.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
			return a.applyClusterTx(txCtx, tx, kinds, deltas, positions)
		})
	})
	if err != nil {
		return a.classifyApplyError(kinds, err)
	}
	return nil
}

func (a *applier) applyClusterTx(ctx context.Context, tx pgx.Tx, kinds []Kind, deltas map[Kind]*Delta, positions map[Kind]string) error {
	if _, err := tx.Exec(ctx, "SET CONSTRAINTS ALL DEFERRED"); err != nil {
		return fmt.Errorf("defer constraints: %w", err)
	}

	// All upserts before any removal, so a reference moving from one parent
	// to another within the batch always sees the new parent row first.
	for _, kind := range kinds {
		d := deltas[kind]
		h := a.handlers[kind]
		for _, snap := range d.Insert {
			if err := h.Upsert(ctx, tx, snap); err != nil {
				return err
			}
		}
		for _, snap := range d.Update {
			if err := h.Upsert(ctx, tx, snap); err != nil {
				return err
			}
		}
	}

	for _, kind := range kinds {
		d := deltas[kind]
		h := a.handlers[kind]
		for _, uid := range d.Remove {
			if err := h.Delete(ctx, tx, uid); err != nil {
				return err
			}
		}
	}

	for _, kind := range kinds {
		if kind == KindCategories && !deltas[kind].Empty() {
			if err := checkCategoryCycles(ctx, tx); err != nil {
				return err
			}
		}
	}

	for _, kind := range kinds {
		if err := setPositionTx(ctx, tx, kind, positions[kind]); err != nil {
			return err
		}
	}
	return nil
}

// classifyApplyError turns a deferred-FK failure into an IntegrityError
// attributing the violation to the child collection; everything else
// passes through.
func (a *applier) classifyApplyError(kinds []Kind, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.SQLState() != "23503" {
		return fmt.Errorf("apply cluster %v: %w", kinds, err)
	}

	kind := kindForTable(pgErr.TableName)
	a.logger.Error("referential integrity violation, batch rolled back",
		"entity_type", kind,
		"constraint", pgErr.ConstraintName,
		"detail", pgErr.Detail)

	return &IntegrityError{
		Kind:       kind,
		UIDs:       uidsFromFKDetail(pgErr.Detail),
		Constraint: pgErr.ConstraintName,
		Err:        err,
	}
}

var tableKinds = map[string]Kind{
	"recipe":             KindRecipes,
	"recipe_category":    KindRecipes,
	"photo":              KindPhotos,
	"meal":               KindMeals,
	"meal_type":          KindMealTypes,
	"menu":               KindMenus,
	"menu_item":          KindMenuItems,
	"grocery_item":       KindGroceries,
	"grocery_aisle":      KindGroceryAisles,
	"grocery_list":       KindGroceryLists,
	"grocery_ingredient": KindGroceryIngredients,
	"pantry_item":        KindPantry,
	"bookmark":           KindBookmarks,
	"category":           KindCategories,
}

func kindForTable(table string) Kind {
	if kind, ok := tableKinds[table]; ok {
		return kind
	}
	return Kind(table)
}

// uidsFromFKDetail pulls the offending key values out of a Postgres FK
// violation detail line, e.g.
// `Key (recipe_uid)=(abc123) is not present in table "recipe".`
func uidsFromFKDetail(detail string) []string {
	open := strings.Index(detail, ")=(")
	if open < 0 {
		return nil
	}
	rest := detail[open+3:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return nil
	}
	return strings.Split(rest[:end], ", ")
}
