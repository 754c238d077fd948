package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// mirrorTable names one schema.table whose foreign keys must be deferrable.
type mirrorTable struct {
	Schema string
	Table  string
}

// mirrorTables lists every entity table, including the join table.
func mirrorTables() []mirrorTable {
	tables := make([]mirrorTable, 0, len(tableKinds))
	for table := range tableKinds {
		tables = append(tables, mirrorTable{Schema: "public", Table: table})
	}
	return tables
}

// foreignKeyInfo describes one single-column FK constraint as reported by
// information_schema.
type foreignKeyInfo struct {
	SchemaName       string `db:"table_schema"`
	TableName        string `db:"table_name"`
	ConstraintName   string `db:"constraint_name"`
	ReferencedSchema string `db:"referenced_schema"`
	ReferencedTable  string `db:"referenced_table"`
	ChildColumn      string `db:"column_name"`
	ParentColumn     string `db:"referenced_column"`
	OnDeleteAction   string `db:"delete_rule"`
	OnUpdateAction   string `db:"update_rule"`
	IsDeferrable     string `db:"is_deferrable"`
	IsDeferred       string `db:"initially_deferred"`
}

func (fk *foreignKeyInfo) deferrable() bool { return fk.IsDeferrable == "YES" }
func (fk *foreignKeyInfo) deferred() bool   { return fk.IsDeferred == "YES" }

// deferrableFKManager upgrades foreign keys on the entity tables to
// DEFERRABLE INITIALLY DEFERRED. The migrations already create them that
// way; this covers stores created by hand or by older schema versions,
// since the applier's commit-time checking depends on every FK deferring.
type deferrableFKManager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	tables []mirrorTable
}

func newDeferrableFKManager(pool *pgxpool.Pool, logger *slog.Logger, tables []mirrorTable) *deferrableFKManager {
	return &deferrableFKManager{pool: pool, logger: logger, tables: tables}
}

// migrateToDeferredInTx upgrades every non-deferred FK on the registered
// tables within the given transaction.
func (m *deferrableFKManager) migrateToDeferredInTx(ctx context.Context, tx pgx.Tx) error {
	var pending []foreignKeyInfo
	for _, t := range m.tables {
		fks, err := m.nonDeferredFKs(ctx, tx, t.Schema, t.Table)
		if err != nil {
			return fmt.Errorf("inspect FKs on %s.%s: %w", t.Schema, t.Table, err)
		}
		pending = append(pending, fks...)
	}
	if len(pending) == 0 {
		m.logger.Debug("all FK constraints already deferrable")
		return nil
	}

	m.logger.Info("upgrading FK constraints to initially deferred", "count", len(pending))
	for _, fk := range pending {
		if err := m.upgradeFK(ctx, tx, fk); err != nil {
			return fmt.Errorf("upgrade FK %s on %s.%s: %w",
				fk.ConstraintName, fk.SchemaName, fk.TableName, err)
		}
	}
	return nil
}

func (m *deferrableFKManager) nonDeferredFKs(ctx context.Context, tx pgx.Tx, schema, table string) ([]foreignKeyInfo, error) {
	rows, err := tx.Query(ctx, `
		SELECT
			tc.table_schema,
			tc.table_name,
			tc.constraint_name,
			ccu.table_schema AS referenced_schema,
			ccu.table_name AS referenced_table,
			kcu.column_name,
			ccu.column_name AS referenced_column,
			rc.delete_rule,
			rc.update_rule,
			tc.is_deferrable,
			tc.initially_deferred
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.constraint_schema = tc.constraint_schema
		JOIN information_schema.referential_constraints rc
			ON tc.constraint_name = rc.constraint_name
			AND tc.constraint_schema = rc.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = @schema_name
			AND tc.table_name = @table_name
			AND (tc.is_deferrable = 'NO' OR tc.initially_deferred = 'NO')
		ORDER BY tc.constraint_name`,
		pgx.NamedArgs{"schema_name": schema, "table_name": table})
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	allFKs, err := pgx.CollectRows(rows, pgx.RowToStructByName[foreignKeyInfo])
	if err != nil {
		return nil, fmt.Errorf("collect FK rows: %w", err)
	}

	// A multi-column FK shows up once per column; those need manual DDL.
	byConstraint := make(map[string][]foreignKeyInfo)
	for _, fk := range allFKs {
		byConstraint[fk.ConstraintName] = append(byConstraint[fk.ConstraintName], fk)
	}
	var single []foreignKeyInfo
	for name, group := range byConstraint {
		if len(group) > 1 {
			m.logger.Warn("skipping composite FK constraint",
				"constraint", name, "table", schema+"."+table)
			continue
		}
		single = append(single, group[0])
	}
	return single, nil
}

func (m *deferrableFKManager) upgradeFK(ctx context.Context, tx pgx.Tx, fk foreignKeyInfo) error {
	// Already deferrable: ALTER in place.
	if fk.deferrable() && !fk.deferred() {
		_, err := tx.Exec(ctx, fmt.Sprintf(
			"ALTER TABLE %s.%s ALTER CONSTRAINT %s DEFERRABLE INITIALLY DEFERRED",
			pgx.Identifier{fk.SchemaName}.Sanitize(),
			pgx.Identifier{fk.TableName}.Sanitize(),
			pgx.Identifier{fk.ConstraintName}.Sanitize(),
		))
		return err
	}

	// Not deferrable at all: add a deferrable twin NOT VALID, validate it,
	// drop the original, rename. Avoids a long exclusive lock on big
	// tables that a plain drop-and-recreate would take.
	actionClause := strings.TrimSpace(
		referentialAction("ON DELETE", fk.OnDeleteAction) + " " +
			referentialAction("ON UPDATE", fk.OnUpdateAction))
	tempName := fk.ConstraintName + "_deferrable"

	addSQL := fmt.Sprintf(`
		ALTER TABLE %s.%s
		ADD CONSTRAINT %s
		FOREIGN KEY (%s)
		REFERENCES %s.%s(%s)
		%s
		DEFERRABLE INITIALLY DEFERRED
		NOT VALID`,
		pgx.Identifier{fk.SchemaName}.Sanitize(),
		pgx.Identifier{fk.TableName}.Sanitize(),
		pgx.Identifier{tempName}.Sanitize(),
		pgx.Identifier{fk.ChildColumn}.Sanitize(),
		pgx.Identifier{fk.ReferencedSchema}.Sanitize(),
		pgx.Identifier{fk.ReferencedTable}.Sanitize(),
		pgx.Identifier{fk.ParentColumn}.Sanitize(),
		actionClause,
	)
	if _, err := tx.Exec(ctx, addSQL); err != nil {
		return fmt.Errorf("add deferrable constraint: %w", err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"ALTER TABLE %s.%s VALIDATE CONSTRAINT %s",
		pgx.Identifier{fk.SchemaName}.Sanitize(),
		pgx.Identifier{fk.TableName}.Sanitize(),
		pgx.Identifier{tempName}.Sanitize(),
	)); err != nil {
		return fmt.Errorf("validate deferrable constraint: %w", err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"ALTER TABLE %s.%s DROP CONSTRAINT %s",
		pgx.Identifier{fk.SchemaName}.Sanitize(),
		pgx.Identifier{fk.TableName}.Sanitize(),
		pgx.Identifier{fk.ConstraintName}.Sanitize(),
	)); err != nil {
		return fmt.Errorf("drop old constraint: %w", err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"ALTER TABLE %s.%s RENAME CONSTRAINT %s TO %s",
		pgx.Identifier{fk.SchemaName}.Sanitize(),
		pgx.Identifier{fk.TableName}.Sanitize(),
		pgx.Identifier{tempName}.Sanitize(),
		pgx.Identifier{fk.ConstraintName}.Sanitize(),
	)); err != nil {
		return fmt.Errorf("rename constraint: %w", err)
	}

	m.logger.Info("recreated FK as deferrable",
		"constraint", fk.ConstraintName,
		"table", fk.SchemaName+"."+fk.TableName)
	return nil
}

func referentialAction(prefix, rule string) string {
	switch strings.ToUpper(rule) {
	case "CASCADE":
		return prefix + " CASCADE"
	case "SET NULL":
		return prefix + " SET NULL"
	case "SET DEFAULT":
		return prefix + " SET DEFAULT"
	case "RESTRICT":
		return prefix + " RESTRICT"
	default:
		return "" // NO ACTION
	}
}
