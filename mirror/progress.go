package mirror

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryer is the querying surface shared by pgxpool.Pool and pgx.Tx.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// loadPositions reads the stored sync position for every kind. Kinds never
// synced are absent from the map.
func loadPositions(ctx context.Context, q Queryer) (map[Kind]string, error) {
	rows, err := q.Query(ctx, `SELECT entity_type, position FROM sync_progress`)
	if err != nil {
		return nil, fmt.Errorf("load sync positions: %w", err)
	}
	defer rows.Close()

	positions := make(map[Kind]string)
	for rows.Next() {
		var kind, pos string
		if err := rows.Scan(&kind, &pos); err != nil {
			return nil, fmt.Errorf("scan sync position: %w", err)
		}
		positions[Kind(kind)] = pos
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load sync positions: %w", err)
	}
	return positions, nil
}

// setPositionTx advances a kind's position inside the transaction that
// applied its batch. The position must never move outside that transaction:
// a crash between apply and advance has to leave the old position so the
// next pass refetches, which the idempotent apply tolerates.
func setPositionTx(ctx context.Context, tx pgx.Tx, kind Kind, position string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO sync_progress (entity_type, position, updated_at)
		VALUES (@entity_type, @position, now())
		ON CONFLICT (entity_type)
		DO UPDATE SET position = EXCLUDED.position, updated_at = EXCLUDED.updated_at`,
		pgx.NamedArgs{"entity_type": string(kind), "position": position})
	if err != nil {
		return fmt.Errorf("advance position for %s: %w", kind, err)
	}
	return nil
}
