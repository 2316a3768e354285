// Package forecast produces monthly sales forecasts with uncertainty
// intervals.
//
// The model is additive: an intercept and linear trend, piecewise-linear
// changepoints placed in the first part of the history, and yearly Fourier
// seasonality once two years of data are available. Coefficients are the MAP
// estimate under Gaussian priors, computed as a ridge regression with gonum.
// A fit is deterministic, so repeated calls on the same series return the
// same result.
//
//	f, err := forecast.New(forecast.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	result, err := f.Forecast(ctx, series, 6)
package forecast
