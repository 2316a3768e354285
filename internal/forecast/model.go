package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"fuelcast/pkg/contracts/domain"
)

const (
	// daysPerYear is the period of the yearly Fourier terms.
	daysPerYear = 365.25
	// minSeasonalSpanDays is the history needed before yearly seasonality
	// is switched on automatically.
	minSeasonalSpanDays = 730
	// trendPriorScale is the prior scale of the intercept and base slope.
	trendPriorScale = 5.0
	// noiseScale converts prior scales into ridge penalties:
	// lambda = (noiseScale / priorScale)^2.
	noiseScale = 0.1
	// jitter is added to the normal-equation diagonal when it is not
	// numerically positive definite.
	jitter = 1e-9
)

// unixEpoch anchors the Fourier terms so seasonality is phase-aligned to the
// calendar rather than to the first observation.
var unixEpoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// model is a fitted additive regression:
//
//	y(t) = m + k*t + sum_j delta_j * max(0, t - s_j) + sum_n (a_n sin + b_n cos)(2*pi*n*d/365.25)
//
// on time scaled to [0,1] over the history and y scaled by max |y|.
type model struct {
	start        time.Time
	spanDays     float64
	yScale       float64
	changepoints []float64
	fourierOrder int
	beta         []float64
	sigma        float64
	trendSigma   float64
}

// fit estimates the model on a clean, sorted series with at least two
// distinct dates. Coefficients are the MAP estimate under independent
// Gaussian priors, i.e. a ridge regression solved by Cholesky.
func fit(series []domain.TimeSeriesPoint, opts Options) (*model, error) {
	n := len(series)
	m := &model{
		start:    series[0].DS,
		spanDays: daysBetween(series[0].DS, series[n-1].DS),
	}
	if m.spanDays <= 0 {
		return nil, fmt.Errorf("history spans no time")
	}

	for _, pt := range series {
		m.yScale = math.Max(m.yScale, math.Abs(pt.Y))
	}
	if m.yScale == 0 {
		m.yScale = 1
	}

	t := make([]float64, n)
	y := make([]float64, n)
	for i, pt := range series {
		t[i] = m.scaledTime(pt.DS)
		y[i] = pt.Y / m.yScale
	}

	m.changepoints = placeChangepoints(t, opts.NChangepoints, opts.ChangepointRange)
	if seasonalityEnabled(opts.YearlySeasonality, m.spanDays) {
		m.fourierOrder = opts.YearlyFourierOrder
	}

	penalties := m.penalties(opts)
	p := len(penalties)

	x := mat.NewDense(n, p, nil)
	for i, pt := range series {
		x.SetRow(i, m.features(pt.DS))
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	for j, lambda := range penalties {
		xtx.SetSym(j, j, xtx.At(j, j)+lambda)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		for j := 0; j < p; j++ {
			xtx.SetSym(j, j, xtx.At(j, j)+jitter)
		}
		if ok := chol.Factorize(&xtx); !ok {
			return nil, fmt.Errorf("normal equations are not positive definite")
		}
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(n, y))

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}
	m.beta = make([]float64, p)
	for j := range m.beta {
		m.beta[j] = beta.AtVec(j)
	}

	var ssr float64
	for i := range series {
		r := y[i] - m.dot(x.RawRowView(i))
		ssr += r * r
	}
	dof := n - p
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(ssr / float64(dof))

	if k := len(m.changepoints); k > 0 {
		var sum float64
		for _, d := range m.beta[2 : 2+k] {
			sum += math.Abs(d)
		}
		m.trendSigma = sum / float64(k)
	}

	return m, nil
}

// predict evaluates the model at each date with a two-sided interval of the
// given coverage. Beyond the history the interval widens with the expected
// drift in trend slope.
func (m *model) predict(dates []time.Time, width float64) []domain.ForecastPoint {
	z := distuv.UnitNormal.Quantile(0.5 + width/2)

	points := make([]domain.ForecastPoint, len(dates))
	for i, ds := range dates {
		yhat := m.dot(m.features(ds))

		variance := m.sigma * m.sigma
		if t := m.scaledTime(ds); t > 1 {
			drift := m.trendSigma * (t - 1)
			variance += drift * drift
		}
		half := z * math.Sqrt(variance)

		points[i] = domain.ForecastPoint{
			DS:        ds,
			YHat:      yhat * m.yScale,
			YHatLower: (yhat - half) * m.yScale,
			YHatUpper: (yhat + half) * m.yScale,
		}
	}
	return points
}

// features builds the regressor row for ds. Column layout: intercept,
// slope, one hinge per changepoint, then sin/cos pairs.
func (m *model) features(ds time.Time) []float64 {
	t := m.scaledTime(ds)
	row := make([]float64, 0, 2+len(m.changepoints)+2*m.fourierOrder)
	row = append(row, 1, t)
	for _, s := range m.changepoints {
		row = append(row, math.Max(0, t-s))
	}

	d := daysBetween(unixEpoch, ds)
	for order := 1; order <= m.fourierOrder; order++ {
		angle := 2 * math.Pi * float64(order) * d / daysPerYear
		row = append(row, math.Sin(angle), math.Cos(angle))
	}
	return row
}

// penalties returns the ridge penalty for each column, in features order.
func (m *model) penalties(opts Options) []float64 {
	lambda := func(scale float64) float64 {
		r := noiseScale / scale
		return r * r
	}

	out := make([]float64, 0, 2+len(m.changepoints)+2*m.fourierOrder)
	out = append(out, lambda(trendPriorScale), lambda(trendPriorScale))
	for range m.changepoints {
		out = append(out, lambda(opts.ChangepointPriorScale))
	}
	for i := 0; i < 2*m.fourierOrder; i++ {
		out = append(out, lambda(opts.SeasonalityPriorScale))
	}
	return out
}

func (m *model) scaledTime(ds time.Time) float64 {
	return daysBetween(m.start, ds) / m.spanDays
}

func (m *model) dot(row []float64) float64 {
	var sum float64
	for j, v := range row {
		sum += v * m.beta[j]
	}
	return sum
}

// placeChangepoints spreads up to n changepoints uniformly over the
// observations in the leading fraction rng of the history. t must be sorted.
// The first observation never hosts a changepoint.
func placeChangepoints(t []float64, n int, rng float64) []float64 {
	histSize := int(math.Floor(float64(len(t)) * rng))
	if n > histSize-1 {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}

	cps := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * float64(histSize-1) / float64(n)))
		s := t[idx]
		if len(cps) > 0 && s <= cps[len(cps)-1] {
			continue
		}
		if s <= 0 || s >= 1 {
			continue
		}
		cps = append(cps, s)
	}
	return cps
}

func seasonalityEnabled(mode string, spanDays float64) bool {
	switch mode {
	case SeasonalityOn:
		return true
	case SeasonalityOff:
		return false
	default:
		return spanDays >= minSeasonalSpanDays
	}
}
