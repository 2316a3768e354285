package config

import (
	"time"

	"fuelcast/pkg/contracts"
)

// Application constants
const (
	AppName    = "fuelcast"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable (FUELCAST_*).
	EnvPrefix = "FUELCAST"

	// Directories (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Output artifacts
	StructuredDataFile   = "structured_data.csv"
	ForecastResultsFile  = "forecast_results.csv"
	ForecastWorkbookFile = "forecast_results.xlsx"
	ForecastJSONFile     = "forecast.json"
	ForecastChartFile    = "forecast_chart.html"
	BusinessReportFile   = "business_report.txt"
	ManifestFile         = "manifest.json"
	MetricsFile          = "fuelcast.prom"
	DefaultLogFile       = "fuelcast.log"

	// Forecasting
	DefaultPeriods       = 6
	DefaultIntervalWidth = 0.8

	// Narrative generation
	DefaultNarrativeModel       = "gemini-2.0-pro"
	DefaultNarrativeTemperature = 0.2
	DefaultNarrativeTimeout     = 60 * time.Second

	// Log settings
	DefaultLogLevel = "info"
)

// SupportedInputExtensions lists the spreadsheet formats the loader accepts.
var SupportedInputExtensions = []string{".xlsx", ".xlsm", ".csv"}
