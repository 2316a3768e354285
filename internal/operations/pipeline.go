package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"fuelcast/internal/chart"
	"fuelcast/internal/config"
	"fuelcast/internal/dataprocessing"
	"fuelcast/internal/errors"
	"fuelcast/internal/exporter"
	"fuelcast/internal/forecast"
	"fuelcast/internal/infrastructure"
	"fuelcast/internal/narrative"
	"fuelcast/pkg/contracts/domain"
)

// Dependencies are the collaborators a Pipeline is built from
type Dependencies struct {
	Config    *config.Config
	Paths     *config.Paths
	Providers *infrastructure.OTelProviders
	// Generator backs the narrative step; nil disables it.
	Generator narrative.Generator
	Logger    *slog.Logger
}

// Pipeline runs load, reshape, extract, forecast, chart, export and narrative
// as a strict sequence of traced steps
type Pipeline struct {
	cfg        *config.Config
	paths      *config.Paths
	loader     *dataprocessing.SheetLoader
	reshaper   *dataprocessing.Reshaper
	summarizer *dataprocessing.Summarizer
	forecaster *forecast.Forecaster
	renderer   *chart.Renderer
	exporter   *exporter.Exporter
	narrator   *narrative.Orchestrator
	tracer     *Tracer
	logger     *slog.Logger
}

// RunResult is the outcome of a single-pair run
type RunResult struct {
	RunID        string                    `json:"run_id"`
	Pair         domain.Pair               `json:"pair"`
	Forecast     *domain.ForecastResult    `json:"forecast"`
	Drops        dataprocessing.DropReport `json:"drops"`
	Report       *narrative.Report         `json:"report,omitempty"`
	Artifacts    map[string]string         `json:"artifacts"`
	Manifest     *RunManifest              `json:"-"`
	ManifestPath string                    `json:"manifest_path"`
}

// NewPipeline wires a pipeline from its dependencies
func NewPipeline(deps Dependencies) (*Pipeline, error) {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}

	paths := deps.Paths
	if paths == nil {
		var err error
		if paths, err = config.GetPaths(cfg.Paths); err != nil {
			return nil, fmt.Errorf("failed to resolve paths: %w", err)
		}
	}

	logger := infrastructure.WithComponent(deps.Logger, "pipeline")

	forecaster, err := forecast.New(forecast.OptionsFromConfig(cfg.Forecast), logger)
	if err != nil {
		return nil, err
	}

	tracer, err := NewTracer(deps.Providers)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:        cfg,
		paths:      paths,
		loader:     dataprocessing.NewSheetLoader(logger),
		reshaper:   dataprocessing.NewReshaper(logger),
		summarizer: dataprocessing.NewSummarizer(logger),
		forecaster: forecaster,
		renderer:   chart.NewRenderer(cfg.Chart),
		exporter:   exporter.New(paths, logger),
		tracer:     tracer,
		logger:     logger,
	}

	if deps.Generator != nil {
		p.narrator = narrative.NewOrchestrator(deps.Generator, logger)
	}
	return p, nil
}

// Summarize returns the series found in the input, loading and reshaping it
// without writing anything.
func (p *Pipeline) Summarize(ctx context.Context, req RunRequest) ([]dataprocessing.SeriesSummary, error) {
	if strings.TrimSpace(req.InputPath) == "" || strings.TrimSpace(req.FuelType) == "" {
		return nil, errors.NewValidationError("input path and fuel type are required")
	}
	sheet, err := p.loader.Load(ctx, req.InputPath, req.Sheet)
	if err != nil {
		return nil, err
	}
	records, _, err := p.reshaper.Reshape(ctx, sheet, req.FuelType)
	if err != nil {
		return nil, err
	}
	return p.summarizer.Summarize(ctx, records), nil
}

// Run forecasts the single (outlet, fuel type) pair named by req and writes
// its artifacts and manifest to the output directory
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (result *RunResult, err error) {
	if err := req.Validate(ModeSingle); err != nil {
		return nil, err
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)
	outDir := p.outputDir(req)
	manifest := p.newManifest(runID, ModeSingle, req, "")

	state := NewRunState(req, domain.Pair{Outlet: req.Outlet, FuelType: req.FuelType}, outDir, &Dataset{})

	start := time.Now()
	ctx, span := p.tracer.TraceRun(ctx, runID, ModeSingle, req)
	defer func() {
		for kind, path := range state.Artifacts() {
			manifest.AddArtifact(kind, path)
		}
		p.finish(ctx, manifest, filepath.Join(outDir, config.ManifestFile), err)
		p.tracer.EndRun(ctx, span, ModeSingle, time.Since(start), err)
	}()

	p.logger.InfoContext(ctx, "run started",
		slog.String("input", req.InputPath),
		slog.String("outlet", req.Outlet),
		slog.String("fuel_type", req.FuelType),
		slog.Int("periods", req.Periods))

	if err = p.execute(ctx, p.prepareSteps(), state, manifest); err != nil {
		return nil, err
	}
	p.recordDataset(manifest, state.Dataset)

	if err = p.execute(ctx, p.pairSteps(), state, manifest); err != nil {
		return nil, err
	}

	return &RunResult{
		RunID:        runID,
		Pair:         state.Pair,
		Forecast:     state.Result,
		Drops:        state.Dataset.Drops,
		Report:       state.Report,
		Artifacts:    state.Artifacts(),
		Manifest:     manifest,
		ManifestPath: filepath.Join(outDir, config.ManifestFile),
	}, nil
}

// execute runs the steps of registry in order, stopping at the first failure
func (p *Pipeline) execute(ctx context.Context, registry *Registry, state *RunState, manifest *RunManifest) error {
	for _, step := range registry.List() {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(step.ID(), err)
		}

		if s, ok := step.(Skipper); ok {
			if reason := s.Skip(state); reason != "" {
				manifest.RecordStepSkipped(step.ID(), step.Name(), reason)
				infrastructure.AddSpanEvent(ctx, "step.skipped",
					attribute.String("step.id", step.ID()),
					attribute.String("step.skip_reason", reason))
				p.logger.InfoContext(ctx, "step skipped",
					slog.String("step", step.ID()),
					slog.String("reason", reason))
				continue
			}
		}

		manifest.RecordStepStart(step.ID(), step.Name())
		start := time.Now()

		err := p.tracer.TraceStep(ctx, step.ID(), func(ctx context.Context) error {
			return step.Execute(ctx, state)
		})
		if err != nil {
			err = WrapError(err, step.ID())
			manifest.RecordStepFailure(step.ID(), err)
			infrastructure.WithError(p.logger, err).ErrorContext(ctx, "step failed",
				slog.String("step", step.ID()),
				slog.String("error_type", string(GetErrorType(err))))
			return err
		}

		manifest.RecordStepCompletion(step.ID(), nil)
		p.logger.InfoContext(ctx, "step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", time.Since(start)))
	}
	return nil
}

func (p *Pipeline) outputDir(req RunRequest) string {
	if req.OutputDir != "" {
		return req.OutputDir
	}
	return p.paths.ReportsDir
}

func (p *Pipeline) newManifest(runID, mode string, req RunRequest, filter string) *RunManifest {
	m := NewRunManifest(runID, mode)
	m.Input = InputInfo{Path: req.InputPath, Sheet: req.Sheet}
	m.Parameters = Parameters{
		Outlet:        req.Outlet,
		FuelType:      req.FuelType,
		Periods:       req.Periods,
		IntervalWidth: p.forecaster.Options().IntervalWidth,
		Narrative:     req.Narrative,
		Filter:        filter,
	}
	return m
}

func (p *Pipeline) recordDataset(m *RunManifest, ds *Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Input.SizeBytes = ds.SizeBytes
	m.Input.Fingerprint = ds.Fingerprint
	m.Input.Sheet = ds.Sheet.Name
	m.Drops = &DropInfo{
		UnparseableColumns: ds.Drops.UnparseableColumns,
		MissingSales:       ds.Drops.MissingSales,
		Emitted:            ds.Drops.Emitted,
	}
}

// finish closes the manifest and writes it. A save failure is logged, never
// returned, so it cannot mask the run's own error.
func (p *Pipeline) finish(ctx context.Context, m *RunManifest, path string, err error) {
	if err != nil {
		m.Fail(err)
	} else {
		m.Complete()
	}

	if saveErr := m.SaveToFile(path); saveErr != nil {
		p.logger.WarnContext(ctx, "failed to save manifest",
			slog.String("path", path),
			slog.String("error", saveErr.Error()))
		return
	}

	p.logger.InfoContext(ctx, "run finished",
		slog.String("status", m.Status),
		slog.String("manifest", path),
		slog.String("duration", m.Duration))
}
