// Package config provides centralized configuration management for fuelcast.
// It loads configuration from multiple sources, validates it, and hands out a
// single *Config that main passes explicitly to every component.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), including a .env file
//	2. YAML configuration file (fuelcast.yaml or configs/fuelcast.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FUELCAST_<SECTION>_<FIELD>:
//
//	FUELCAST_LOGGING_LEVEL=debug
//	FUELCAST_PATHS_BASE_DIR=/srv/fuelcast
//	FUELCAST_FORECAST_PERIODS=12
//	FUELCAST_NARRATIVE_ENABLED=true
//	FUELCAST_NARRATIVE_API_KEY=...
//
// GEMINI_API_KEY is honoured when FUELCAST_NARRATIVE_API_KEY is unset.
//
// # Path Management
//
// Paths resolves the data, reports and logs directories against a base
// directory (the working directory unless configured):
//
//	paths, err := config.GetPaths(cfg.Paths)
//	if err != nil {
//	    return err
//	}
//	csvPath := paths.GetReportPath(config.ForecastResultsFile)
package config
