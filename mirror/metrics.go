package mirror

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterScope = "github.com/Syfaro/paprika-go/mirror"

// passMetrics holds the per-pass counters. They report against whatever
// meter provider the host process installed; without one they are no-ops.
type passMetrics struct {
	passes    metric.Int64Counter
	inserted  metric.Int64Counter
	updated   metric.Int64Counter
	unchanged metric.Int64Counter
	removed   metric.Int64Counter
	anomalies metric.Int64Counter
	failures  metric.Int64Counter
}

func newPassMetrics() *passMetrics {
	meter := otel.Meter(meterScope)
	return &passMetrics{
		passes:    mustCounter(meter, "paprika_sync_passes_total", "Completed sync passes"),
		inserted:  mustCounter(meter, "paprika_sync_inserted_total", "Entities inserted"),
		updated:   mustCounter(meter, "paprika_sync_updated_total", "Entities updated"),
		unchanged: mustCounter(meter, "paprika_sync_unchanged_total", "Entities left untouched"),
		removed:   mustCounter(meter, "paprika_sync_removed_total", "Entities removed"),
		anomalies: mustCounter(meter, "paprika_sync_anomalies_total", "Data anomalies observed"),
		failures:  mustCounter(meter, "paprika_sync_failures_total", "Failed sync passes"),
	}
}

func mustCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}
