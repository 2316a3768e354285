package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
// It is built once by Load and passed explicitly to the components that need
// it; nothing in the module reads configuration from globals.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Forecast  ForecastConfig  `yaml:"forecast" envconfig:"FORECAST"`
	Chart     ChartConfig     `yaml:"chart" envconfig:"CHART"`
	Narrative NarrativeConfig `yaml:"narrative" envconfig:"NARRATIVE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	// FilePath is resolved against the logs directory when relative.
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Relative directories are resolved against BaseDir.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// ForecastConfig holds the trend/seasonality model settings
type ForecastConfig struct {
	Periods               int     `yaml:"periods" envconfig:"PERIODS" validate:"gt=0"`
	IntervalWidth         float64 `yaml:"interval_width" envconfig:"INTERVAL_WIDTH" validate:"gt=0,lt=1"`
	NChangepoints         int     `yaml:"n_changepoints" envconfig:"N_CHANGEPOINTS" validate:"gte=0"`
	ChangepointRange      float64 `yaml:"changepoint_range" envconfig:"CHANGEPOINT_RANGE" validate:"gt=0,lte=1"`
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale" envconfig:"CHANGEPOINT_PRIOR_SCALE" validate:"gt=0"`
	SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale" envconfig:"SEASONALITY_PRIOR_SCALE" validate:"gt=0"`
	YearlySeasonality     string  `yaml:"yearly_seasonality" envconfig:"YEARLY_SEASONALITY" validate:"oneof=auto on off"`
	YearlyFourierOrder    int     `yaml:"yearly_fourier_order" envconfig:"YEARLY_FOURIER_ORDER" validate:"gt=0"`
}

// ChartConfig controls the rendered forecast chart
type ChartConfig struct {
	Title  string `yaml:"title" envconfig:"TITLE"`
	Width  string `yaml:"width" envconfig:"WIDTH"`
	Height string `yaml:"height" envconfig:"HEIGHT"`
}

// NarrativeConfig configures the language model used for the business report
type NarrativeConfig struct {
	Enabled           bool          `yaml:"enabled" envconfig:"ENABLED"`
	APIKey            string        `yaml:"-" envconfig:"API_KEY"`
	Model             string        `yaml:"model" envconfig:"MODEL" validate:"required"`
	Temperature       float32       `yaml:"temperature" envconfig:"TEMPERATURE" validate:"gte=0,lte=2"`
	RequestsPerMinute int           `yaml:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	MetricsFile    string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file (configFile, or the first of the well-known locations when
// empty), a .env file in the working directory, and FUELCAST_* variables.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// GEMINI_API_KEY is accepted as a fallback.
	if cfg.Narrative.APIKey == "" {
		cfg.Narrative.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg; keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field ranges and normalizes aliases
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Forecast.YearlySeasonality = strings.ToLower(c.Forecast.YearlySeasonality)

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%s: failed %q (value %v)", first.Namespace(), first.Tag(), first.Value())
		}
		return err
	}

	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when output is %q", c.Logging.Output)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"fuelcast.yaml",
		"configs/fuelcast.yaml",
		"../configs/fuelcast.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Forecast: ForecastConfig{
			Periods:               DefaultPeriods,
			IntervalWidth:         DefaultIntervalWidth,
			NChangepoints:         25,
			ChangepointRange:      0.8,
			ChangepointPriorScale: 0.05,
			SeasonalityPriorScale: 10,
			YearlySeasonality:     "auto",
			YearlyFourierOrder:    10,
		},
		Chart: ChartConfig{
			Title:  "Actual vs Predicted Sales with Future Forecast",
			Width:  "1200px",
			Height: "800px",
		},
		Narrative: NarrativeConfig{
			Enabled:           false,
			Model:             DefaultNarrativeModel,
			Temperature:       DefaultNarrativeTemperature,
			RequestsPerMinute: 10,
			Timeout:           DefaultNarrativeTimeout,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
