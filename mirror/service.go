package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceConfig tunes SyncService construction.
type ServiceConfig struct {
	Logger *slog.Logger

	// DisableAutoMigrateFKs skips the startup pass that upgrades
	// non-deferrable foreign keys on the entity tables. Only useful when
	// the schema is managed entirely out of band.
	DisableAutoMigrateFKs bool
}

// SyncService owns the mirrored store and runs sync passes against it.
type SyncService struct {
	pool     *pgxpool.Pool
	source   Source
	logger   *slog.Logger
	handlers map[Kind]entityHandler
	applier  *applier
	metrics  *passMetrics

	// passMu keeps passes sequential even when the periodic loop and the
	// manual trigger endpoint race.
	passMu sync.Mutex
}

// NewSyncService migrates the schema, upgrades foreign keys to deferrable
// where needed, and returns a service ready to sync.
func NewSyncService(ctx context.Context, pool *pgxpool.Pool, source Source, cfg *ServiceConfig) (*SyncService, error) {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := migrateSchema(ctx, pool, logger); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	if !cfg.DisableAutoMigrateFKs {
		fkMgr := newDeferrableFKManager(pool, logger, mirrorTables())
		err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			return fkMgr.migrateToDeferredInTx(ctx, tx)
		})
		if err != nil {
			return nil, fmt.Errorf("migrate foreign keys: %w", err)
		}
	}

	handlers := newHandlers()
	return &SyncService{
		pool:     pool,
		source:   source,
		logger:   logger,
		handlers: handlers,
		applier:  &applier{pool: pool, handlers: handlers, logger: logger},
		metrics:  newPassMetrics(),
	}, nil
}

// Pool exposes the underlying pool for read-side consumers.
func (s *SyncService) Pool() *pgxpool.Pool { return s.pool }
