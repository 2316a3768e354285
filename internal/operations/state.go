package operations

import (
	"sync"

	"fuelcast/internal/chart"
	"fuelcast/internal/dataprocessing"
	"fuelcast/internal/narrative"
	"fuelcast/pkg/contracts/domain"
)

// Artifact kinds recorded in the manifest.
const (
	ArtifactStructuredData = "structured_data"
	ArtifactForecastCSV    = "forecast_csv"
	ArtifactForecastXLSX   = "forecast_xlsx"
	ArtifactForecastJSON   = "forecast_json"
	ArtifactChart          = "chart"
	ArtifactBusinessReport = "business_report"
)

// Dataset is the reshaped input shared read-only by every pair of a run.
type Dataset struct {
	Sheet       domain.RawSheet
	Records     []domain.SalesRecord
	Drops       dataprocessing.DropReport
	Fingerprint string
	SizeBytes   int64
}

// RunState carries data between the steps of one pair
type RunState struct {
	mu sync.Mutex

	Request   RunRequest
	Pair      domain.Pair
	OutputDir string

	Dataset *Dataset
	Series  []domain.TimeSeriesPoint
	Result  *domain.ForecastResult
	Chart   *chart.Artifact
	Report  *narrative.Report

	artifacts map[string]string
}

// NewRunState creates the state for one pair
func NewRunState(req RunRequest, pair domain.Pair, outputDir string, dataset *Dataset) *RunState {
	return &RunState{
		Request:   req,
		Pair:      pair,
		OutputDir: outputDir,
		Dataset:   dataset,
		artifacts: make(map[string]string),
	}
}

// AddArtifact records a produced file
func (s *RunState) AddArtifact(kind, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[kind] = path
}

// Artifacts returns a copy of the produced files by kind
func (s *RunState) Artifacts() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.artifacts))
	for k, v := range s.artifacts {
		out[k] = v
	}
	return out
}
