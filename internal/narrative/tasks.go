package narrative

import (
	"fmt"
	"strings"

	"fuelcast/internal/config"
	"fuelcast/pkg/contracts/domain"
)

// Task is one unit of narrative work executed under a Role.
type Task struct {
	Name           string
	Role           Role
	Description    string
	ExpectedOutput string
	// OutputFile names the artifact the task's text belongs to.
	OutputFile string
	// Facts is the data block the model reasons over.
	Facts string
	// Context holds the outputs of earlier tasks, in order.
	Context []string
}

// Task names.
const (
	TaskStructure = "structure"
	TaskForecast  = "forecast"
	TaskReport    = "report"
)

// BuildTasks returns the three tasks of a narrative run in execution order.
func BuildTasks(req Request) []Task {
	return []Task{
		{
			Name:           TaskStructure,
			Role:           DataEngineer,
			Description:    fmt.Sprintf("Clean and structure raw Excel data for outlet %s and fuel type %s.", req.Outlet, req.FuelType),
			ExpectedOutput: "A description of the structured table with 'Month', 'Sales', and 'Fuel_Type' columns and any data quality issues.",
			OutputFile:     config.StructuredDataFile,
			Facts:          observedFacts(req),
		},
		{
			Name: TaskForecast,
			Role: ForecastAnalyst,
			Description: fmt.Sprintf("Forecast %s sales for outlet %s for %d months. ", req.FuelType, req.Outlet, req.Periods) +
				"Include confidence intervals and explain the results.",
			ExpectedOutput: "An interpretation of the predictions, their confidence intervals, and a short summary.",
			OutputFile:     config.ForecastResultsFile,
			Facts:          forecastFacts(req),
		},
		{
			Name: TaskReport,
			Role: BusinessStrategist,
			Description: fmt.Sprintf("Based on the forecasted sales for outlet '%s' and fuel type '%s', ", req.Outlet, req.FuelType) +
				"generate a business report with:\n" +
				"- Key forecast numbers\n- Inventory recommendations\n" +
				"- Marketing strategy ideas\n- Risk analysis for outlet managers.",
			ExpectedOutput: "A business report with actionable recommendations and an executive summary.",
			OutputFile:     config.BusinessReportFile,
			Facts:          forecastFacts(req),
		},
	}
}

// Prompt renders the task, its facts and prior context as user content.
func (t Task) Prompt() string {
	var b strings.Builder
	b.WriteString("Task: ")
	b.WriteString(t.Description)
	b.WriteString("\n\nExpected output: ")
	b.WriteString(t.ExpectedOutput)

	if t.Facts != "" {
		b.WriteString("\n\nData:\n")
		b.WriteString(t.Facts)
	}

	for i, c := range t.Context {
		fmt.Fprintf(&b, "\n\nContext from step %d:\n%s", i+1, c)
	}
	return b.String()
}

func observedFacts(req Request) string {
	var b strings.Builder
	input := req.Forecast.Input
	fmt.Fprintf(&b, "Observations: %d monthly points", len(input))
	if len(input) > 0 {
		fmt.Fprintf(&b, " from %s to %s", input[0].DS.Format("2006-01"), input[len(input)-1].DS.Format("2006-01"))
	}
	fmt.Fprintf(&b, "\nRows dropped during reshaping: %d\n", req.Dropped)

	b.WriteString("Month,Sales\n")
	for _, p := range input {
		fmt.Fprintf(&b, "%s,%.2f\n", p.DS.Format("2006-01"), p.Y)
	}
	return b.String()
}

func forecastFacts(req Request) string {
	var b strings.Builder
	f := req.Forecast
	fmt.Fprintf(&b, "Last observed month: %s\n", f.Cutoff.Format("2006-01"))
	fmt.Fprintf(&b, "Interval width: %.0f%%\n", f.IntervalWidth*100)

	if last, ok := lastObservation(f.Input); ok {
		fmt.Fprintf(&b, "Last observed sales: %.2f\n", last)
	}

	b.WriteString("Month,Predicted,Lower,Upper\n")
	for _, p := range f.Future {
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f\n", p.DS.Format("2006-01"), p.YHat, p.YHatLower, p.YHatUpper)
	}
	return b.String()
}

func lastObservation(series []domain.TimeSeriesPoint) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1].Y, true
}
