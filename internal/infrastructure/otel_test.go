package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"fuelcast/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	t.Run("defaults are no-op", func(t *testing.T) {
		providers, err := InitializeOTel(nil, testLogger())
		require.NoError(t, err)
		require.NotNil(t, providers)

		assert.Nil(t, providers.TracerProvider)
		assert.Nil(t, providers.MeterProvider)
		assert.NotNil(t, providers.Tracer)
		assert.NotNil(t, providers.Meter)
		assert.NoError(t, providers.WriteMetricsFile(filepath.Join(t.TempDir(), "m.prom")))
		assert.NoError(t, providers.Shutdown(context.Background()))
	})

	t.Run("prometheus and stdout", func(t *testing.T) {
		cfg := OTelConfigFrom(config.TelemetryConfig{
			Environment:    "test",
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		})
		providers, err := InitializeOTel(cfg, testLogger())
		require.NoError(t, err)

		assert.NotNil(t, providers.TracerProvider)
		assert.NotNil(t, providers.MeterProvider)
		assert.NotNil(t, providers.Registry)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, providers.Shutdown(ctx))
	})

	t.Run("repeated initialization does not collide", func(t *testing.T) {
		cfg := DefaultOTelConfig()
		cfg.MetricExporter = "prometheus"
		for i := 0; i < 2; i++ {
			providers, err := InitializeOTel(cfg, testLogger())
			require.NoError(t, err)
			require.NoError(t, providers.Shutdown(context.Background()))
		}
	})

	t.Run("unsupported exporters", func(t *testing.T) {
		cfg := DefaultOTelConfig()
		cfg.TraceExporter = "jaeger"
		_, err := InitializeOTel(cfg, testLogger())
		assert.Error(t, err)

		cfg = DefaultOTelConfig()
		cfg.MetricExporter = "statsd"
		_, err = InitializeOTel(cfg, testLogger())
		assert.Error(t, err)
	})
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "operation.step.forecast")
	AddSpanEvent(ctx, "step.skipped", attribute.String("step.skip_reason", "narrative not requested"))
	SetSpanAttributes(ctx, attribute.Int("forecast.points", 5))
	RecordError(ctx, nil)
	RecordError(ctx, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := ended[0]

	require.Len(t, got.Events(), 2)
	assert.Equal(t, "step.skipped", got.Events()[0].Name)
	assert.Equal(t, "exception", got.Events()[1].Name)
	assert.Contains(t, got.Attributes(), attribute.Int("forecast.points", 5))
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "boom", got.Status().Description)

	// Without a recording span the helpers do nothing.
	AddSpanEvent(context.Background(), "ignored")
	SetSpanAttributes(context.Background(), attribute.Bool("ignored", true))
	RecordError(context.Background(), errors.New("ignored"))
}

func TestPipelineMetrics(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.MetricExporter = "prometheus"
	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordRun(ctx, "single", 150*time.Millisecond, nil)
	metrics.RecordStep(ctx, "reshape", 10*time.Millisecond, nil)
	metrics.RecordStep(ctx, "forecast", 20*time.Millisecond, errors.New("fit failed"))
	metrics.RecordsReshaped.Add(ctx, 12)
	metrics.RecordsDropped.Add(ctx, 3)
	metrics.ForecastPoints.Add(ctx, 5)

	path := filepath.Join(t.TempDir(), "fuelcast.prom")
	require.NoError(t, providers.WriteMetricsFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "fuelcast_runs")
	assert.Contains(t, text, "fuelcast_step_duration")
	assert.Contains(t, text, "fuelcast_records_dropped")
	assert.Contains(t, text, `step="forecast"`)
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var metrics *PipelineMetrics
	assert.NotPanics(t, func() {
		metrics.RecordRun(context.Background(), "single", time.Second, nil)
		metrics.RecordStep(context.Background(), "reshape", time.Second, nil)
	})

	noopMetrics, err := CreatePipelineMetrics(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		noopMetrics.RecordRun(context.Background(), "batch", time.Second, errors.New("x"))
	})
}
