package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"fuelcast/internal/infrastructure"
	"fuelcast/pkg/contracts/domain"
)

const (
	TracerName = "fuelcast.operation"
)

// Tracer wraps runs and steps in spans and records their metrics
type Tracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewTracer creates a tracer from the initialized providers. A nil providers
// value yields a no-op tracer with no metrics.
func NewTracer(providers *infrastructure.OTelProviders) (*Tracer, error) {
	if providers == nil {
		return &Tracer{tracer: tracenoop.NewTracerProvider().Tracer(TracerName)}, nil
	}

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	tracer := providers.Tracer
	if providers.TracerProvider != nil {
		tracer = providers.TracerProvider.Tracer(TracerName)
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(TracerName)
	}

	return &Tracer{tracer: tracer, metrics: metrics}, nil
}

// Metrics returns the run instruments, which may be nil
func (t *Tracer) Metrics() *infrastructure.PipelineMetrics {
	return t.metrics
}

// TraceRun creates a span for a whole run
func (t *Tracer) TraceRun(ctx context.Context, runID, mode string, req RunRequest) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "operation.run."+mode,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.mode", mode),
			attribute.String("run.input", req.InputPath),
			attribute.String("run.fuel_type", req.FuelType),
			attribute.Int("run.periods", req.Periods),
		),
	)
}

// EndRun closes a run span and records the run metrics
func (t *Tracer) EndRun(ctx context.Context, span trace.Span, mode string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("run.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	t.metrics.RecordRun(ctx, mode, duration, err)
}

// TracePair creates a span for one (outlet, fuel type) pair
func (t *Tracer) TracePair(ctx context.Context, pair domain.Pair) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "operation.pair",
		trace.WithAttributes(
			attribute.String("pair.outlet", pair.Outlet),
			attribute.String("pair.fuel_type", pair.FuelType),
		),
	)
}

// TraceStep runs fn inside a span named after the step and records the step
// metrics
func (t *Tracer) TraceStep(ctx context.Context, stepID string, fn func(ctx context.Context) error) error {
	ctx, span := t.tracer.Start(ctx, "operation.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("step.id", stepID)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	t.metrics.RecordStep(ctx, stepID, duration, err)
	return err
}

// RecordReshape records the reshaper's output counts
func (t *Tracer) RecordReshape(ctx context.Context, emitted, dropped int) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordsReshaped.Add(ctx, int64(emitted))
	t.metrics.RecordsDropped.Add(ctx, int64(dropped))
}

// RecordForecast records the number of produced forecast points
func (t *Tracer) RecordForecast(ctx context.Context, points int) {
	if t.metrics == nil {
		return
	}
	t.metrics.ForecastPoints.Add(ctx, int64(points))
}

// RecordNarrative records language model generations
func (t *Tracer) RecordNarrative(ctx context.Context, generations int) {
	if t.metrics == nil {
		return
	}
	t.metrics.NarrativeGenerations.Add(ctx, int64(generations))
}
