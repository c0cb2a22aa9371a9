package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestRecordRequest(t *testing.T) {
	t.Run("records count and duration per method and route", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordRequest(ctx, "GET", "/v1/orders/", 200, 0.5)
		metrics.RecordRequest(ctx, "POST", "/v1/orders/", 201, 0.7)

		byName := collect(t, reader)

		sum, ok := byName["http_requests_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Len(t, sum.DataPoints, 2)

		histogram, ok := byName["http_request_duration_seconds"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		assert.Len(t, histogram.DataPoints, 2)
	})

	t.Run("nil metrics are a no-op", func(t *testing.T) {
		var metrics *Metrics
		assert.NotPanics(t, func() {
			metrics.RecordRequest(context.Background(), "GET", "/", 200, 0.1)
		})
	})
}

func TestWithMetrics(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(WithMetrics(metrics))
	r.Use(WithLogging(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.Get("/v1/orders/{orderID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/orders/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	sum, ok := collect(t, reader)["http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "ids must collapse into one route label")

	point := sum.DataPoints[0]
	assert.EqualValues(t, 3, point.Value)
	route, _ := point.Attributes.Value(attribute.Key("route"))
	assert.Equal(t, "/v1/orders/{orderID}", route.AsString())
	status, _ := point.Attributes.Value(attribute.Key("status_code"))
	assert.EqualValues(t, http.StatusTeapot, status.AsInt64())
}
