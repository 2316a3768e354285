package chart

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"fuelcast/internal/config"
	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts/domain"
)

// Series names as they appear in the legend.
const (
	SeriesActual     = "Actual Sales"
	SeriesHistorical = "Historical Predictions"
	SeriesFuture     = "Future Forecast"
	SeriesLower      = "Interval Lower"
	SeriesInterval   = "Forecast Confidence Interval"
	ForecastStart    = "Forecast Start"
)

const (
	colorActual     = "#1f77b4"
	colorHistorical = "#2ca02c"
	colorFuture     = "#d62728"
	colorInterval   = "rgba(255,165,0,0.3)"
	colorBoundary   = "#808080"
	colorBackground = "#ffffff"

	// missing tells echarts to leave a gap at this category.
	missing = "-"

	// areaFromAxisMin fills between the bottom of the y axis and the data.
	areaFromAxisMin = "start"

	labelLayout = "2006-01"
)

// Artifact is a rendered chart that has not been persisted yet.
type Artifact struct {
	Title    string
	Boundary time.Time
	Labels   []string

	line *charts.Line
}

// Render writes the chart as a standalone HTML page.
func (a *Artifact) Render(w io.Writer) error {
	return a.line.Render(w)
}

// Renderer draws actual vs predicted sales charts.
type Renderer struct {
	cfg config.ChartConfig
}

// NewRenderer creates a renderer; empty config fields take their defaults.
func NewRenderer(cfg config.ChartConfig) *Renderer {
	def := config.Default().Chart
	if cfg.Title == "" {
		cfg.Title = def.Title
	}
	if cfg.Width == "" {
		cfg.Width = def.Width
	}
	if cfg.Height == "" {
		cfg.Height = def.Height
	}
	return &Renderer{cfg: cfg}
}

// Render draws a chart with the default settings. See Renderer.Render.
func Render(series []domain.TimeSeriesPoint, full, historical, future []domain.ForecastPoint, periods int) (*Artifact, error) {
	return NewRenderer(config.ChartConfig{}).Render(series, full, historical, future, periods)
}

// Render builds one line chart with four layers: the observed sales, the
// fitted curve over the history (dashed), the forecast beyond it, and a
// shaded confidence band over the forecast only. A vertical marker labelled
// "Forecast Start" sits at the last observed date.
//
// The band is the area under the upper bound with the area under the lower
// bound painted over in the background colour. Both fill from the bottom of
// the axis, so a negative lower bound still shades exactly [lower, upper].
func (r *Renderer) Render(series []domain.TimeSeriesPoint, full, historical, future []domain.ForecastPoint, periods int) (*Artifact, error) {
	boundary, ok := domain.MaxDS(series)
	if !ok {
		return nil, errors.NewEmptyInputError("cannot chart an empty series")
	}

	labels, index := categoryAxis(series, full)

	historicalData := gaps(len(labels))
	for _, p := range historical {
		historicalData[index[label(p.DS)]] = opts.LineData{Value: round2(p.YHat)}
	}

	futureData := gaps(len(labels))
	for _, p := range future {
		futureData[index[label(p.DS)]] = opts.LineData{Value: round2(p.YHat)}
	}
	upperData, lowerData := intervalData(future, index, len(labels))

	actualData := make([]opts.ScatterData, 0, len(series))
	for _, p := range series {
		actualData = append(actualData, opts.ScatterData{
			Value:      []interface{}{label(p.DS), p.Y},
			Symbol:     "circle",
			SymbolSize: 8,
		})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: r.cfg.Title,
			Width:     r.cfg.Width,
			Height:    r.cfg.Height,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    r.cfg.Title,
			Subtitle: fmt.Sprintf("%d-month forecast from %s", periods, boundary.Format(labelLayout)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sales"}),
	)

	line.SetXAxis(labels).
		AddSeries(SeriesInterval, upperData,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: "transparent"}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: colorInterval, Origin: areaFromAxisMin}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorInterval}),
		).
		AddSeries(SeriesLower, lowerData,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: "transparent"}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: colorBackground, Origin: areaFromAxisMin, Opacity: opts.Float(1)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorInterval}),
		).
		AddSeries(SeriesHistorical, historicalData,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: colorHistorical}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorHistorical}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
				Name:  ForecastStart,
				XAxis: label(boundary),
			}),
			charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
				Symbol:    []string{"none", "none"},
				LineStyle: &opts.LineStyle{Type: "dashed", Color: colorBoundary},
				Label:     &opts.Label{Show: opts.Bool(true), Formatter: ForecastStart},
			}),
		).
		AddSeries(SeriesFuture, futureData,
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorFuture}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colorFuture}),
		)

	scatter := charts.NewScatter()
	scatter.AddSeries(SeriesActual, actualData,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorActual}),
	)
	line.Overlap(scatter)

	return &Artifact{
		Title:    r.cfg.Title,
		Boundary: boundary,
		Labels:   labels,
		line:     line,
	}, nil
}

// categoryAxis returns the sorted distinct month labels of the observations
// and predictions, with a label to position index.
func categoryAxis(series []domain.TimeSeriesPoint, full []domain.ForecastPoint) ([]string, map[string]int) {
	dates := make([]time.Time, 0, len(series)+len(full))
	for _, p := range series {
		dates = append(dates, p.DS)
	}
	for _, p := range full {
		dates = append(dates, p.DS)
	}
	sortTimes(dates)

	labels := make([]string, 0, len(dates))
	index := make(map[string]int, len(dates))
	for _, d := range dates {
		l := label(d)
		if _, ok := index[l]; ok {
			continue
		}
		index[l] = len(labels)
		labels = append(labels, l)
	}
	return labels, index
}

// intervalData returns the upper and lower bounds of the forecast points on
// the category axis, with gaps everywhere else.
func intervalData(future []domain.ForecastPoint, index map[string]int, n int) (upper, lower []opts.LineData) {
	upper = gaps(n)
	lower = gaps(n)
	for _, p := range future {
		i := index[label(p.DS)]
		upper[i] = opts.LineData{Value: round2(p.YHatUpper)}
		lower[i] = opts.LineData{Value: round2(p.YHatLower)}
	}
	return upper, lower
}

func gaps(n int) []opts.LineData {
	data := make([]opts.LineData, n)
	for i := range data {
		data[i] = opts.LineData{Value: missing}
	}
	return data
}

func label(t time.Time) string {
	return t.Format(labelLayout)
}
