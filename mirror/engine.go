package mirror

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	fetchAttempts    = 4
	fetchBackoffBase = 500 * time.Millisecond
	fetchBackoffMax  = 10 * time.Second

	// fetchConcurrency caps how many stale collections fetch and
	// reconcile at once. Reconciliation is read-only, so this phase needs
	// no store coordination.
	fetchConcurrency = 4
)

// kindWork is one stale collection's reconciled state, ready to apply.
type kindWork struct {
	delta    *Delta
	position string
}

// Sync runs one pass: read the source status, fetch and reconcile every
// collection whose position moved, then commit the deltas cluster by
// cluster. Returns a report of everything the pass did; the report is
// valid (covering the committed clusters) even when err is non-nil.
func (s *SyncService) Sync(ctx context.Context) (*PassReport, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	report := &PassReport{
		PassID:    uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := s.logger.With("pass_id", report.PassID)

	var status map[string]int64
	err := withRetry(ctx, fetchAttempts, fetchBackoffBase, fetchBackoffMax, isRetryableSourceError, func() error {
		var serr error
		status, serr = s.source.Status(ctx)
		return serr
	})
	if err != nil {
		s.metrics.failures.Add(ctx, 1)
		return report, fmt.Errorf("fetch source status: %w", err)
	}

	positions, err := loadPositions(ctx, s.pool)
	if err != nil {
		s.metrics.failures.Add(ctx, 1)
		return report, err
	}

	stale := s.staleKinds(status, positions)
	if len(stale) == 0 {
		logger.Debug("all collections current")
		report.Duration = time.Since(report.StartedAt)
		s.metrics.passes.Add(ctx, 1)
		return report, nil
	}
	logger.Info("collections stale", "count", len(stale), "kinds", stale)

	work, err := s.reconcileKinds(ctx, stale, status)
	if err != nil {
		s.metrics.failures.Add(ctx, 1)
		return report, err
	}

	err = s.applyAll(ctx, stale, work, report)

	report.Duration = time.Since(report.StartedAt)
	s.recordMetrics(ctx, report, err)
	logger.Info("pass finished",
		"duration", report.Duration,
		"kinds", len(report.Kinds),
		"anomalies", len(report.Anomalies),
		"changed", report.Changed())
	return report, err
}

// staleKinds returns, in deterministic order, every kind whose source
// position differs from the stored one. Tokens are opaque: any inequality
// means stale, no ordering is assumed.
func (s *SyncService) staleKinds(status map[string]int64, positions map[Kind]string) []Kind {
	var stale []Kind
	for _, kind := range AllKinds {
		v, ok := status[string(kind)]
		if !ok {
			continue
		}
		token := strconv.FormatInt(v, 10)
		if stored, synced := positions[kind]; !synced || stored != token {
			stale = append(stale, kind)
		}
	}
	return stale
}

// reconcileKinds fetches and classifies every stale collection
// concurrently. Store access is read-only here; nothing is written until
// applyAll.
func (s *SyncService) reconcileKinds(ctx context.Context, stale []Kind, status map[string]int64) (map[Kind]*kindWork, error) {
	var mu sync.Mutex
	work := make(map[Kind]*kindWork, len(stale))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, kind := range stale {
		g.Go(func() error {
			h := s.handlers[kind]

			var snaps []Snapshot
			err := withRetry(gctx, fetchAttempts, fetchBackoffBase, fetchBackoffMax, isRetryableSourceError, func() error {
				var ferr error
				snaps, ferr = h.Fetch(gctx, s.source)
				return ferr
			})
			if err != nil {
				return err
			}

			stored, err := h.StoredFingerprints(gctx, s.pool)
			if err != nil {
				return err
			}

			// Every source feed is a complete snapshot, so omissions are
			// authoritative deletions.
			delta := Reconcile(kind, stored, snaps, true)
			delta.Anomalies = append(delta.Anomalies, checkOrdering(kind, snaps)...)

			if p, ok := h.(preparer); ok {
				if err := p.Prepare(gctx, s.source, delta); err != nil {
					return err
				}
			}

			if len(delta.Remove) > 0 {
				s.logger.Debug("complete snapshot omits stored entities",
					"entity_type", kind,
					"count", len(delta.Remove),
					"deletion_policy", h.Policy().String())
			}

			mu.Lock()
			work[kind] = &kindWork{
				delta:    delta,
				position: strconv.FormatInt(status[string(kind)], 10),
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return work, nil
}

// applyAll commits the reconciled deltas cluster by cluster. A cluster
// failure (e.g. a referential integrity violation) rolls back only that
// cluster; the remaining clusters still commit, and all failures come back
// joined.
func (s *SyncService) applyAll(ctx context.Context, stale []Kind, work map[Kind]*kindWork, report *PassReport) error {
	var errs []error
	for _, cluster := range clusterKinds(stale) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		deltas := make(map[Kind]*Delta, len(cluster))
		positions := make(map[Kind]string, len(cluster))
		for _, kind := range cluster {
			deltas[kind] = work[kind].delta
			positions[kind] = work[kind].position
		}

		if err := s.applier.applyCluster(ctx, cluster, deltas, positions); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, kind := range cluster {
			report.Kinds = append(report.Kinds, kindReport(deltas[kind], positions[kind]))
			report.Anomalies = append(report.Anomalies, deltas[kind].Anomalies...)
		}
	}
	sort.Slice(report.Kinds, func(i, j int) bool { return report.Kinds[i].Kind < report.Kinds[j].Kind })
	return errors.Join(errs...)
}

func (s *SyncService) recordMetrics(ctx context.Context, report *PassReport, err error) {
	s.metrics.passes.Add(ctx, 1)
	if err != nil {
		s.metrics.failures.Add(ctx, 1)
	}
	for _, k := range report.Kinds {
		attrs := metric.WithAttributes(attribute.String("entity_type", string(k.Kind)))
		s.metrics.inserted.Add(ctx, int64(k.Inserted), attrs)
		s.metrics.updated.Add(ctx, int64(k.Updated), attrs)
		s.metrics.unchanged.Add(ctx, int64(k.Unchanged), attrs)
		s.metrics.removed.Add(ctx, int64(k.Removed), attrs)
	}
	s.metrics.anomalies.Add(ctx, int64(len(report.Anomalies)))
}

// Run syncs on a fixed interval until the context is canceled. Pass
// failures are logged and the loop keeps going; the next tick retries.
func (s *SyncService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sync(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("sync pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
