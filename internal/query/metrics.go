package query

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	pageDuration metric.Float64Histogram
	pageRows     metric.Int64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.pageDuration, err = meter.Float64Histogram(
		"query_page_duration_seconds",
		metric.WithDescription("Duration of paged queries including count and fetch"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create query_page_duration histogram: %w", err)
	}

	m.pageRows, err = meter.Int64Histogram(
		"query_page_total_rows",
		metric.WithDescription("Rows matching the filters of a paged query"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create query_page_total_rows histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordPage(ctx context.Context, name string, durationSeconds float64, totalRows int, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.pageDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("query", name),
		attribute.String("status", status),
	))
	if success {
		m.pageRows.Record(ctx, int64(totalRows), metric.WithAttributes(
			attribute.String("query", name),
		))
	}
}
