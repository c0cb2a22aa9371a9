package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments storage calls. A nil *Metrics records nothing.
type Metrics struct {
	queryDuration metric.Float64Histogram
	txRetries     metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.queryDuration, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration histogram: %w", err)
	}

	m.txRetries, err = meter.Int64Counter(
		"db_tx_retries_total",
		metric.WithDescription("Transactions re-run after a transient failure"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_tx_retries_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordQuery(ctx context.Context, operation string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.queryDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordTxRetry counts one re-run of a transaction after a transient failure.
func (m *Metrics) RecordTxRetry(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.txRetries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}
