package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts/domain"
)

// Forecaster fits a fresh trend and seasonality model on every call. It holds
// only immutable options and is safe for concurrent use.
type Forecaster struct {
	opts   Options
	logger *slog.Logger
}

// New creates a forecaster. A nil logger falls back to slog.Default().
func New(opts Options, logger *slog.Logger) (*Forecaster, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{opts: opts, logger: logger}, nil
}

// Options returns the model configuration.
func (f *Forecaster) Options() Options {
	return f.opts
}

// Forecast fits series and predicts every distinct observed date plus the
// next periods month-start dates after the last observation. Series order
// does not matter and duplicate dates all contribute to the fit.
//
// It fails with a validation error when periods is not positive, an
// empty-input error when series has no valid points and an
// insufficient-data error when fewer than two distinct dates remain.
func (f *Forecaster) Forecast(ctx context.Context, series []domain.TimeSeriesPoint, periods int) (*domain.ForecastResult, error) {
	if periods <= 0 {
		return nil, errors.NewValidationError(fmt.Sprintf("periods must be a positive integer, got %d", periods))
	}

	clean := cleanSeries(series)
	if len(clean) == 0 {
		return nil, errors.NewEmptyInputError("cannot forecast an empty series")
	}

	observed := uniqueDates(clean)
	if len(observed) < 2 {
		return nil, errors.NewInsufficientDataError(fmt.Sprintf(
			"need at least 2 distinct dates to fit a trend, got %d", len(observed))).
			WithContext("points", len(clean))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := fit(clean, f.opts)
	if err != nil {
		return nil, fmt.Errorf("fit forecast model: %w", err)
	}

	cutoff := observed[len(observed)-1]
	dates := make([]time.Time, 0, len(observed)+periods)
	dates = append(dates, observed...)
	dates = append(dates, futureMonths(cutoff, periods)...)
	full := m.predict(dates, f.opts.IntervalWidth)

	if err := checkPoints(full); err != nil {
		return nil, err
	}

	historical, future := domain.Split(full, cutoff)

	f.logger.DebugContext(ctx, "forecast fitted",
		slog.Int("points", len(clean)),
		slog.Int("distinct_dates", len(observed)),
		slog.Int("changepoints", len(m.changepoints)),
		slog.Bool("yearly_seasonality", m.fourierOrder > 0),
		slog.Float64("residual_sigma", m.sigma*m.yScale),
		slog.Int("periods", periods))

	return &domain.ForecastResult{
		Full:          full,
		Historical:    historical,
		Future:        future,
		Input:         clean,
		Cutoff:        cutoff,
		Periods:       periods,
		IntervalWidth: f.opts.IntervalWidth,
	}, nil
}

// checkPoints rejects non-finite or mis-ordered output. Either indicates a
// defect in the model, never bad input.
func checkPoints(points []domain.ForecastPoint) error {
	for i, p := range points {
		for _, v := range []float64{p.YHat, p.YHatLower, p.YHatUpper} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("forecast point %d (%s) is not finite", i, p.DS.Format("2006-01-02"))
			}
		}
		if !p.Ordered() {
			return fmt.Errorf("forecast point %d (%s) violates lower <= yhat <= upper", i, p.DS.Format("2006-01-02"))
		}
		if i > 0 && !p.DS.After(points[i-1].DS) {
			return fmt.Errorf("forecast dates are not strictly increasing at %d", i)
		}
	}
	return nil
}
