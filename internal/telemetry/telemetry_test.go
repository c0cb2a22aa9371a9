package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "sample rate zero", mutate: func(c *Config) { c.SampleRate = 0 }},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: ErrMissingServiceName},
		{name: "missing service version", mutate: func(c *Config) { c.ServiceVersion = "" }, wantErr: ErrMissingServiceVersion},
		{name: "negative sample rate", mutate: func(c *Config) { c.SampleRate = -0.1 }, wantErr: ErrInvalidSampleRate},
		{name: "sample rate above one", mutate: func(c *Config) { c.SampleRate = 1.5 }, wantErr: ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInitialize(t *testing.T) {
	previousTracer := otel.GetTracerProvider()
	previousMeter := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(previousTracer)
		otel.SetMeterProvider(previousMeter)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.ServiceName = ""

		tel, err := Initialize(context.Background(), cfg)

		assert.Nil(t, tel)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	tests := []struct {
		name          string
		enableTracing bool
		enableMetrics bool
	}{
		{name: "nothing enabled"},
		{name: "tracing only", enableTracing: true},
		{name: "metrics only", enableMetrics: true},
		{name: "tracing and metrics", enableTracing: true, enableMetrics: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.EnableTracing = tt.enableTracing
			cfg.EnableMetrics = tt.enableMetrics

			tel, err := Initialize(context.Background(), cfg,
				WithTraceExporter(tracetest.NewNoopExporter()),
				WithMetricReader(sdkmetric.NewManualReader()),
			)
			require.NoError(t, err)

			assert.Equal(t, tt.enableTracing, tel.TracerProvider() != nil)
			assert.Equal(t, tt.enableMetrics, tel.MeterProvider() != nil)

			_, err = Meter("orderdesk-test").Int64Counter("probe_total")
			assert.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, tel.Shutdown(ctx))
		})
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: -1, want: sdktrace.NeverSample().Description()},
		{rate: 0, want: sdktrace.NeverSample().Description()},
		{rate: 1, want: sdktrace.AlwaysSample().Description()},
		{rate: 2, want: sdktrace.AlwaysSample().Description()},
		{rate: 0.25, want: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, createSampler(tt.rate).Description(), "rate %v", tt.rate)
	}
}
