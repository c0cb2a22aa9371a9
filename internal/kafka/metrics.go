package kafka

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments order event publishing.
type Metrics struct {
	producerLatency metric.Float64Histogram
	published       metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	latency, err := meter.Float64Histogram(
		"kafka_producer_latency_seconds",
		metric.WithDescription("Time taken to hand an order event to the bus"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka_producer_latency histogram: %w", err)
	}

	published, err := meter.Int64Counter(
		"order_events_published_total",
		metric.WithDescription("Order events handed to the bus, by topic and outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_events_published_total counter: %w", err)
	}

	return &Metrics{producerLatency: latency, published: published}, nil
}

// RecordPublish is a no-op on nil Metrics.
func (m *Metrics) RecordPublish(ctx context.Context, topic string, durationSeconds float64, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("status", status),
	)
	m.producerLatency.Record(ctx, durationSeconds, attrs)
	m.published.Add(ctx, 1, attrs)
}
