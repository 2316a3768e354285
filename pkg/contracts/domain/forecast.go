package domain

import (
	"time"
)

// ForecastPoint is a point prediction with its uncertainty interval.
type ForecastPoint struct {
	DS        time.Time `json:"ds" csv:"ds"`
	YHat      float64   `json:"yhat" csv:"yhat"`
	YHatLower float64   `json:"yhat_lower" csv:"yhat_lower"`
	YHatUpper float64   `json:"yhat_upper" csv:"yhat_upper"`
}

// Ordered reports whether YHatLower <= YHat <= YHatUpper.
func (p ForecastPoint) Ordered() bool {
	return p.YHatLower <= p.YHat && p.YHat <= p.YHatUpper
}

// ForecastResult is the complete output of one forecast invocation.
//
// Historical and Future are sub-slices of Full split at Cutoff, so
// Full == append(Historical, Future...) always holds. Callers must not
// append to Historical.
type ForecastResult struct {
	Full          []ForecastPoint   `json:"full"`
	Historical    []ForecastPoint   `json:"historical"`
	Future        []ForecastPoint   `json:"future"`
	Input         []TimeSeriesPoint `json:"input"`
	Cutoff        time.Time         `json:"cutoff"`
	Periods       int               `json:"periods"`
	IntervalWidth float64           `json:"interval_width"`
}

// Split partitions points (sorted by DS) into ds <= cutoff and ds > cutoff
// without copying.
func Split(points []ForecastPoint, cutoff time.Time) (historical, future []ForecastPoint) {
	i := 0
	for i < len(points) && !points[i].DS.After(cutoff) {
		i++
	}
	return points[:i:i], points[i:]
}
