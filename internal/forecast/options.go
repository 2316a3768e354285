package forecast

import (
	"fmt"

	"fuelcast/internal/config"
)

// Seasonality modes for the yearly component.
const (
	SeasonalityAuto = "auto"
	SeasonalityOn   = "on"
	SeasonalityOff  = "off"
)

// Options tunes the trend and seasonality model.
type Options struct {
	// IntervalWidth is the coverage of the uncertainty interval, in (0,1).
	IntervalWidth float64
	// NChangepoints is the maximum number of potential trend changepoints.
	NChangepoints int
	// ChangepointRange is the leading fraction of history that may hold changepoints.
	ChangepointRange float64
	// ChangepointPriorScale controls trend flexibility. Larger is more flexible.
	ChangepointPriorScale float64
	// SeasonalityPriorScale controls seasonal amplitude.
	SeasonalityPriorScale float64
	// YearlySeasonality is auto, on or off. Auto enables it when the
	// history spans at least two years.
	YearlySeasonality string
	// YearlyFourierOrder is the number of sine/cosine pairs.
	YearlyFourierOrder int
}

// DefaultOptions returns the standard model configuration.
func DefaultOptions() Options {
	return Options{
		IntervalWidth:         config.DefaultIntervalWidth,
		NChangepoints:         25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		YearlySeasonality:     SeasonalityAuto,
		YearlyFourierOrder:    10,
	}
}

// OptionsFromConfig maps the forecast configuration section.
func OptionsFromConfig(cfg config.ForecastConfig) Options {
	return Options{
		IntervalWidth:         cfg.IntervalWidth,
		NChangepoints:         cfg.NChangepoints,
		ChangepointRange:      cfg.ChangepointRange,
		ChangepointPriorScale: cfg.ChangepointPriorScale,
		SeasonalityPriorScale: cfg.SeasonalityPriorScale,
		YearlySeasonality:     cfg.YearlySeasonality,
		YearlyFourierOrder:    cfg.YearlyFourierOrder,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case o.IntervalWidth <= 0 || o.IntervalWidth >= 1:
		return fmt.Errorf("interval width must be in (0,1), got %v", o.IntervalWidth)
	case o.NChangepoints < 0:
		return fmt.Errorf("changepoint count must not be negative, got %d", o.NChangepoints)
	case o.ChangepointRange <= 0 || o.ChangepointRange > 1:
		return fmt.Errorf("changepoint range must be in (0,1], got %v", o.ChangepointRange)
	case o.ChangepointPriorScale <= 0:
		return fmt.Errorf("changepoint prior scale must be positive, got %v", o.ChangepointPriorScale)
	case o.SeasonalityPriorScale <= 0:
		return fmt.Errorf("seasonality prior scale must be positive, got %v", o.SeasonalityPriorScale)
	case o.YearlyFourierOrder <= 0:
		return fmt.Errorf("fourier order must be positive, got %d", o.YearlyFourierOrder)
	}

	switch o.YearlySeasonality {
	case SeasonalityAuto, SeasonalityOn, SeasonalityOff:
		return nil
	default:
		return fmt.Errorf("yearly seasonality must be auto, on or off, got %q", o.YearlySeasonality)
	}
}
