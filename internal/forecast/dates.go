package forecast

import (
	"sort"
	"time"

	"fuelcast/pkg/contracts/domain"
)

const hoursPerDay = 24

// cleanSeries returns the valid points of series sorted by date. The input
// is not modified.
func cleanSeries(series []domain.TimeSeriesPoint) []domain.TimeSeriesPoint {
	out := make([]domain.TimeSeriesPoint, 0, len(series))
	for _, p := range series {
		if p.Valid() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DS.Before(out[j].DS)
	})
	return out
}

// uniqueDates returns the distinct dates of a sorted series.
func uniqueDates(sorted []domain.TimeSeriesPoint) []time.Time {
	dates := make([]time.Time, 0, len(sorted))
	for i, p := range sorted {
		if i > 0 && p.DS.Equal(sorted[i-1].DS) {
			continue
		}
		dates = append(dates, p.DS)
	}
	return dates
}

// futureMonths returns the first periods month-start dates strictly after last.
func futureMonths(last time.Time, periods int) []time.Time {
	start := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, periods)
	for i := 1; len(dates) < periods; i++ {
		d := start.AddDate(0, i, 0)
		if d.After(last) {
			dates = append(dates, d)
		}
	}
	return dates
}

// daysBetween returns the fractional number of days from a to b.
func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / hoursPerDay
}
