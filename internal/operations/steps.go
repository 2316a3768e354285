package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"fuelcast/internal/config"
	"fuelcast/internal/dataprocessing"
	"fuelcast/internal/errors"
	"fuelcast/internal/infrastructure"
	"fuelcast/internal/narrative"
)

// Step IDs, in execution order.
const (
	StepLoad       = "load"
	StepReshape    = "reshape"
	StepExportData = "export_data"
	StepExtract    = "extract"
	StepForecast   = "forecast"
	StepChart      = "chart"
	StepExport     = "export"
	StepNarrative  = "narrative"
)

// prepareSteps load and reshape the input once per run
func (p *Pipeline) prepareSteps() *Registry {
	return NewRegistry().MustRegister(
		NewStep(StepLoad, "Load input sheet", p.loadStep, nil),
		NewStep(StepReshape, "Reshape wide to long", p.reshapeStep, nil),
		NewStep(StepExportData, "Export structured data", p.exportDataStep, nil),
	)
}

// pairSteps forecast one (outlet, fuel type) pair
func (p *Pipeline) pairSteps() *Registry {
	return NewRegistry().MustRegister(
		NewStep(StepExtract, "Extract series", p.extractStep, nil),
		NewStep(StepForecast, "Forecast", p.forecastStep, nil),
		NewStep(StepChart, "Render chart", p.chartStep, nil),
		NewStep(StepExport, "Export forecast", p.exportStep, nil),
		NewStep(StepNarrative, "Generate business report", p.narrativeStep, p.skipNarrative),
	)
}

func (p *Pipeline) loadStep(ctx context.Context, state *RunState) error {
	sheet, err := p.loader.Load(ctx, state.Request.InputPath, state.Request.Sheet)
	if err != nil {
		return err
	}

	fingerprint, size, err := FingerprintFile(state.Request.InputPath)
	if err != nil {
		return err
	}

	state.Dataset.Sheet = sheet
	state.Dataset.Fingerprint = fingerprint
	state.Dataset.SizeBytes = size
	return nil
}

func (p *Pipeline) reshapeStep(ctx context.Context, state *RunState) error {
	records, drops, err := p.reshaper.Reshape(ctx, state.Dataset.Sheet, state.Request.FuelType)
	if err != nil {
		return err
	}

	state.Dataset.Records = records
	state.Dataset.Drops = drops
	p.tracer.RecordReshape(ctx, drops.Emitted, drops.Dropped(len(state.Dataset.Sheet.Rows)))
	return nil
}

func (p *Pipeline) exportDataStep(ctx context.Context, state *RunState) error {
	path, err := p.exporter.WriteSalesRecords(ctx,
		filepath.Join(state.OutputDir, config.StructuredDataFile), state.Dataset.Records)
	if err != nil {
		return err
	}
	state.AddArtifact(ArtifactStructuredData, path)
	return nil
}

func (p *Pipeline) extractStep(ctx context.Context, state *RunState) error {
	series := dataprocessing.ExtractSeries(state.Dataset.Records, state.Pair.Outlet, state.Pair.FuelType)
	if len(series) == 0 {
		return errors.NewEmptyInputError(fmt.Sprintf("no observations for outlet %q and fuel type %q",
			state.Pair.Outlet, state.Pair.FuelType))
	}

	p.logger.DebugContext(ctx, "extracted series",
		slog.String("outlet", state.Pair.Outlet),
		slog.String("fuel_type", state.Pair.FuelType),
		slog.Int("points", len(series)))

	state.Series = series
	return nil
}

func (p *Pipeline) forecastStep(ctx context.Context, state *RunState) error {
	result, err := p.forecaster.Forecast(ctx, state.Series, state.Request.Periods)
	if err != nil {
		return err
	}
	state.Result = result
	p.tracer.RecordForecast(ctx, len(result.Full))
	infrastructure.SetSpanAttributes(ctx,
		attribute.Int("forecast.observations", len(result.Input)),
		attribute.Int("forecast.points", len(result.Full)),
		attribute.String("forecast.cutoff", result.Cutoff.Format("2006-01")))
	return nil
}

func (p *Pipeline) chartStep(ctx context.Context, state *RunState) error {
	r := state.Result
	artifact, err := p.renderer.Render(state.Series, r.Full, r.Historical, r.Future, r.Periods)
	if err != nil {
		return err
	}
	state.Chart = artifact
	return nil
}

func (p *Pipeline) exportStep(ctx context.Context, state *RunState) error {
	dir := state.OutputDir

	path, err := p.exporter.WriteForecastCSV(ctx, filepath.Join(dir, config.ForecastResultsFile), state.Result.Full)
	if err != nil {
		return err
	}
	state.AddArtifact(ArtifactForecastCSV, path)

	if path, err = p.exporter.WriteForecastWorkbook(ctx, filepath.Join(dir, config.ForecastWorkbookFile), state.Result); err != nil {
		return err
	}
	state.AddArtifact(ArtifactForecastXLSX, path)

	if path, err = p.exporter.WriteJSON(ctx, filepath.Join(dir, config.ForecastJSONFile), state.Result); err != nil {
		return err
	}
	state.AddArtifact(ArtifactForecastJSON, path)

	if path, err = p.exporter.WriteChart(ctx, filepath.Join(dir, config.ForecastChartFile), state.Chart); err != nil {
		return err
	}
	state.AddArtifact(ArtifactChart, path)
	return nil
}

func (p *Pipeline) skipNarrative(state *RunState) string {
	if !state.Request.Narrative {
		return "narrative not requested"
	}
	if p.narrator == nil {
		return "no language model configured"
	}
	return ""
}

func (p *Pipeline) narrativeStep(ctx context.Context, state *RunState) error {
	report, err := p.narrator.Run(ctx, narrative.Request{
		Outlet:   state.Pair.Outlet,
		FuelType: state.Pair.FuelType,
		Periods:  state.Request.Periods,
		Forecast: state.Result,
		Dropped:  state.Dataset.Drops.Dropped(len(state.Dataset.Sheet.Rows)),
	})
	if err != nil {
		return err
	}
	state.Report = report
	p.tracer.RecordNarrative(ctx, len(report.Outputs))

	path, err := p.exporter.WriteText(ctx,
		filepath.Join(state.OutputDir, config.BusinessReportFile), report.BusinessReport()+"\n")
	if err != nil {
		return err
	}
	state.AddArtifact(ArtifactBusinessReport, path)
	return nil
}
