package metrics

import (
	"context"
	"fmt"

	"github.com/dejobratic/orderdesk/internal/orders/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the order business instruments. A nil *Metrics records nothing.
type Metrics struct {
	ordersCreatedTotal    metric.Int64Counter
	orderCreationDuration metric.Float64Histogram
	orderWritesTotal      metric.Int64Counter
	statusTransitions     metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.orderWritesTotal, err = meter.Int64Counter(
		"order_writes_total",
		metric.WithDescription("Order updates, status changes and deletions"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_writes_total counter: %w", err)
	}

	m.statusTransitions, err = meter.Int64Counter(
		"order_status_transitions_total",
		metric.WithDescription("Order status transitions by source and target status"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_transitions_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(statusAttr(success)))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	if m == nil {
		return
	}
	m.orderCreationDuration.Record(ctx, durationSeconds)
}

// RecordOrderWrite counts one update, status change or delete attempt.
func (m *Metrics) RecordOrderWrite(ctx context.Context, operation string, success bool) {
	if m == nil {
		return
	}
	m.orderWritesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		statusAttr(success),
	))
}

func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to domain.OrderStatus) {
	if m == nil || from == to {
		return
	}
	m.statusTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	))
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "error")
}
