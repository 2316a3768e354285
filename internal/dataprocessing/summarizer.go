package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"time"

	"fuelcast/pkg/contracts/domain"
)

// SeriesSummary describes one (outlet, fuel type) series. Batch filters are
// evaluated against it.
type SeriesSummary struct {
	Outlet   string    `json:"outlet"`
	FuelType string    `json:"fuel_type"`
	ShipTo   string    `json:"ship_to"`
	Points   int       `json:"points"`
	Months   int       `json:"months"`
	First    time.Time `json:"first"`
	Last     time.Time `json:"last"`
	Total    float64   `json:"total"`
	Mean     float64   `json:"mean"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
}

// Pair returns the series identity.
func (s SeriesSummary) Pair() domain.Pair {
	return domain.Pair{Outlet: s.Outlet, FuelType: s.FuelType}
}

// Forecastable reports whether the series spans at least two distinct months.
func (s SeriesSummary) Forecastable() bool {
	return s.Months >= 2
}

// Summarizer builds per-series summaries from long-format records.
type Summarizer struct {
	logger *slog.Logger
}

// NewSummarizer creates a summarizer. A nil logger falls back to slog.Default().
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger}
}

// Summarize returns one summary per pair in Pairs order.
func (s *Summarizer) Summarize(ctx context.Context, records []domain.SalesRecord) []SeriesSummary {
	pairs := Pairs(records)
	groups := GroupSeries(records)
	shipTo := make(map[domain.Pair]string, len(pairs))
	for _, rec := range records {
		p := domain.Pair{Outlet: rec.Outlet, FuelType: rec.FuelType}
		if _, ok := shipTo[p]; !ok {
			shipTo[p] = rec.ShipTo
		}
	}

	summaries := make([]SeriesSummary, 0, len(pairs))
	for _, p := range pairs {
		summary := summarizeSeries(groups[p])
		summary.Outlet = p.Outlet
		summary.FuelType = p.FuelType
		summary.ShipTo = shipTo[p]
		summaries = append(summaries, summary)
	}

	s.logger.DebugContext(ctx, "summarized series",
		slog.Int("record_count", len(records)),
		slog.Int("series_count", len(summaries)))

	return summaries
}

func summarizeSeries(series []domain.TimeSeriesPoint) SeriesSummary {
	var summary SeriesSummary
	if len(series) == 0 {
		return summary
	}

	summary.Points = len(series)
	summary.First = series[0].DS
	summary.Last = series[len(series)-1].DS
	summary.Min = math.Inf(1)
	summary.Max = math.Inf(-1)

	months := make(map[time.Time]struct{})
	for _, p := range series {
		months[p.DS] = struct{}{}
		summary.Total += p.Y
		summary.Min = math.Min(summary.Min, p.Y)
		summary.Max = math.Max(summary.Max, p.Y)
	}
	summary.Months = len(months)
	summary.Mean = summary.Total / float64(summary.Points)

	return summary
}
