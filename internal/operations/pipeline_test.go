package operations

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelcast/internal/config"
	"fuelcast/internal/errors"
	"fuelcast/internal/shared/testutil"
	"fuelcast/pkg/contracts/domain"
)

func stepStatuses(m *RunManifest) map[string]StepStatus {
	out := make(map[string]StepStatus, len(m.Steps))
	for _, s := range m.Steps {
		out[s.StepID] = s.Status
	}
	return out
}

func TestPipeline_Run(t *testing.T) {
	p, dir := newTestPipeline(t, nil, nil)
	input := writeInput(t, dir, threeMonthCSV)

	result, err := p.Run(context.Background(), RunRequest{
		InputPath: input,
		FuelType:  "Petrol",
		Outlet:    "OutletA",
		Periods:   2,
	})
	require.NoError(t, err)

	reportsDir := filepath.Join(dir, "data", "reports")

	require.NotNil(t, result.Forecast)
	assert.Len(t, result.Forecast.Historical, 3)
	require.Len(t, result.Forecast.Future, 2)
	assert.True(t, result.Forecast.Future[0].DS.After(time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"Notes"}, result.Drops.UnparseableColumns)
	assert.Equal(t, 3, result.Drops.Emitted)
	assert.Nil(t, result.Report)
	assert.NotEmpty(t, result.RunID)

	for kind, name := range map[string]string{
		ArtifactStructuredData: config.StructuredDataFile,
		ArtifactForecastCSV:    config.ForecastResultsFile,
		ArtifactForecastXLSX:   config.ForecastWorkbookFile,
		ArtifactForecastJSON:   config.ForecastJSONFile,
		ArtifactChart:          config.ForecastChartFile,
	} {
		path := filepath.Join(reportsDir, name)
		assert.Equal(t, path, result.Artifacts[kind], kind)
		assert.FileExists(t, path)
	}
	assert.NotContains(t, result.Artifacts, ArtifactBusinessReport)

	assert.Equal(t, filepath.Join(reportsDir, config.ManifestFile), result.ManifestPath)
	manifest, err := LoadManifest(result.ManifestPath)
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, manifest.Status)
	assert.Equal(t, ModeSingle, manifest.Mode)
	assert.Equal(t, result.RunID, manifest.ID)
	assert.Len(t, manifest.Input.Fingerprint, 64)
	assert.Equal(t, int64(len(threeMonthCSV)), manifest.Input.SizeBytes)
	assert.Equal(t, "OutletA", manifest.Parameters.Outlet)
	assert.Equal(t, 2, manifest.Parameters.Periods)
	require.NotNil(t, manifest.Drops)
	assert.Equal(t, []string{"Notes"}, manifest.Drops.UnparseableColumns)
	assert.Len(t, manifest.Artifacts, 5)

	assert.Equal(t, map[string]StepStatus{
		StepLoad:       StepStatusCompleted,
		StepReshape:    StepStatusCompleted,
		StepExportData: StepStatusCompleted,
		StepExtract:    StepStatusCompleted,
		StepForecast:   StepStatusCompleted,
		StepChart:      StepStatusCompleted,
		StepExport:     StepStatusCompleted,
		StepNarrative:  StepStatusSkipped,
	}, stepStatuses(manifest))

	ids := make([]string, len(manifest.Steps))
	for i, s := range manifest.Steps {
		ids[i] = s.StepID
	}
	assert.Equal(t, []string{StepLoad, StepReshape, StepExportData, StepExtract, StepForecast, StepChart, StepExport, StepNarrative}, ids)
}

func TestPipeline_RunWritesForecastJSON(t *testing.T) {
	p, dir := newTestPipeline(t, nil, nil)
	input := writeInput(t, dir, threeMonthCSV)

	result, err := p.Run(context.Background(), RunRequest{
		InputPath: input,
		FuelType:  "Petrol",
		Outlet:    "OutletA",
		Periods:   2,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(result.Artifacts[ArtifactForecastJSON])
	require.NoError(t, err)

	var decoded domain.ForecastResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Full, 5)
	assert.Len(t, decoded.Historical, 3)
	assert.Len(t, decoded.Future, 2)
	assert.Len(t, decoded.Input, 3)
	assert.Equal(t, 2, decoded.Periods)
	assert.True(t, decoded.Cutoff.Equal(result.Forecast.Cutoff))
	assert.Equal(t, decoded.Full, append(append([]domain.ForecastPoint{}, decoded.Historical...), decoded.Future...))
}

func TestPipeline_RunWithNarrative(t *testing.T) {
	gen := &fakeGenerator{}
	p, dir := newTestPipeline(t, gen, nil)
	input := writeInput(t, dir, threeMonthCSV)

	result, err := p.Run(context.Background(), RunRequest{
		InputPath: input,
		FuelType:  "Petrol",
		Outlet:    "OutletA",
		Periods:   2,
		Narrative: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, gen.calls)
	require.NotNil(t, result.Report)
	assert.Equal(t, "text for report", result.Report.BusinessReport())

	path := result.Artifacts[ArtifactBusinessReport]
	require.NotEmpty(t, path)
	assert.Equal(t, config.BusinessReportFile, filepath.Base(path))
	assert.FileExists(t, path)
}

func TestPipeline_RunNarrativeWithoutGenerator(t *testing.T) {
	p, dir := newTestPipeline(t, nil, nil)
	input := writeInput(t, dir, threeMonthCSV)

	result, err := p.Run(context.Background(), RunRequest{
		InputPath: input,
		FuelType:  "Petrol",
		Outlet:    "OutletA",
		Periods:   1,
		Narrative: true,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Report)
	assert.Equal(t, StepStatusSkipped, stepStatuses(result.Manifest)[StepNarrative])
}

func TestPipeline_RunLogs(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	p, dir := newLoggedPipeline(t, nil, nil, logger)
	input := writeInput(t, dir, threeMonthCSV)

	_, err := p.Run(context.Background(), RunRequest{
		InputPath: input,
		FuelType:  "Petrol",
		Outlet:    "OutletA",
		Periods:   1,
		Narrative: true,
	})
	require.NoError(t, err)

	testutil.AssertNoErrors(t, logs)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "unparseable month headers")
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "run finished")
	testutil.AssertLogAttr(t, logs, "component", "pipeline")
	testutil.AssertLogAttr(t, logs, "reason", "no language model configured")
	testutil.AssertLogAttr(t, logs, "status", RunStatusCompleted)

	_, err = p.Run(context.Background(), RunRequest{
		InputPath: input,
		FuelType:  "Petrol",
		Outlet:    "Nowhere",
		Periods:   1,
	})
	require.Error(t, err)
	testutil.AssertLogContains(t, logs, slog.LevelError, "step failed")
	testutil.AssertLogAttr(t, logs, "step", StepExtract)
	testutil.AssertLogAttr(t, logs, "error_type", string(ErrorTypeExecution))
}

func TestPipeline_RunFailures(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		req      func(input string) RunRequest
		wantErr  error
		wantStep string
	}{
		{
			name:    "unknown outlet",
			content: threeMonthCSV,
			req: func(input string) RunRequest {
				return RunRequest{InputPath: input, FuelType: "Petrol", Outlet: "Nowhere", Periods: 2}
			},
			wantErr:  errors.ErrEmptyInput,
			wantStep: StepExtract,
		},
		{
			name:    "single observation",
			content: "Ship To,Outlet,2023-01,2023-02\nS,OutletA,100,\n",
			req: func(input string) RunRequest {
				return RunRequest{InputPath: input, FuelType: "Petrol", Outlet: "OutletA", Periods: 2}
			},
			wantErr:  errors.ErrInsufficientData,
			wantStep: StepForecast,
		},
		{
			name:    "too few columns",
			content: "Ship To,Outlet\nS,OutletA\n",
			req: func(input string) RunRequest {
				return RunRequest{InputPath: input, FuelType: "Petrol", Outlet: "OutletA", Periods: 2}
			},
			wantErr:  errors.ErrSchema,
			wantStep: StepReshape,
		},
		{
			name:    "missing input",
			content: threeMonthCSV,
			req: func(input string) RunRequest {
				return RunRequest{InputPath: input + ".missing.csv", FuelType: "Petrol", Outlet: "OutletA", Periods: 2}
			},
			wantErr:  errors.ErrParsing,
			wantStep: StepLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, dir := newTestPipeline(t, nil, nil)
			input := writeInput(t, dir, tt.content)

			result, err := p.Run(context.Background(), tt.req(input))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.wantStep, StepOf(err))

			manifest, loadErr := LoadManifest(filepath.Join(dir, "data", "reports", config.ManifestFile))
			require.NoError(t, loadErr)
			assert.Equal(t, RunStatusFailed, manifest.Status)
			assert.NotEmpty(t, manifest.Error)
			assert.Equal(t, StepStatusFailed, stepStatuses(manifest)[tt.wantStep])
		})
	}
}

func TestPipeline_RunInvalidRequest(t *testing.T) {
	p, _ := newTestPipeline(t, nil, nil)

	tests := []struct {
		name string
		req  RunRequest
	}{
		{name: "missing input", req: RunRequest{FuelType: "Petrol", Outlet: "A", Periods: 1}},
		{name: "missing fuel type", req: RunRequest{InputPath: "x.csv", Outlet: "A", Periods: 1}},
		{name: "missing outlet", req: RunRequest{InputPath: "x.csv", FuelType: "Petrol", Periods: 1}},
		{name: "zero periods", req: RunRequest{InputPath: "x.csv", FuelType: "Petrol", Outlet: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Run(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
			assert.Equal(t, errors.ExitUsage, errors.ExitCode(err))
		})
	}
}

func TestPipeline_RunCancelled(t *testing.T) {
	p, dir := newTestPipeline(t, nil, nil)
	input := writeInput(t, dir, threeMonthCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, RunRequest{InputPath: input, FuelType: "Petrol", Outlet: "OutletA", Periods: 2})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.Equal(t, StepLoad, StepOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPipeline_RunOutputDirOverride(t *testing.T) {
	p, dir := newTestPipeline(t, nil, nil)
	input := writeInput(t, dir, threeMonthCSV)
	out := filepath.Join(dir, "custom")

	result, err := p.Run(context.Background(), RunRequest{
		InputPath: input,
		FuelType:  "Petrol",
		Outlet:    "OutletA",
		Periods:   2,
		OutputDir: out,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, config.ManifestFile), result.ManifestPath)
	assert.FileExists(t, filepath.Join(out, config.ForecastResultsFile))
}

func TestPipeline_Summarize(t *testing.T) {
	p, dir := newTestPipeline(t, nil, nil)
	input := writeInput(t, dir, batchCSV)

	summaries, err := p.Summarize(context.Background(), RunRequest{InputPath: input, FuelType: "Diesel"})
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "OutletA", summaries[0].Outlet)
	assert.Equal(t, "Diesel", summaries[0].FuelType)
	assert.Equal(t, 1, summaries[2].Points)
}
