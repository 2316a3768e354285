package narrative

// Role is the persona a task is executed under.
type Role struct {
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	Backstory string `json:"backstory"`
}

// The three personas of a narrative run.
var (
	DataEngineer = Role{
		Name: "Excel Data Specialist",
		Goal: "Transform wide-format fuel sales Excel data into clean, time-series format for analysis.",
		Backstory: "Expert in handling petroleum industry Excel reports. " +
			"You ensure all data is accurate, consistent, and analysis-ready.",
	}

	ForecastAnalyst = Role{
		Name: "Fuel Sales Forecaster",
		Goal: "Generate accurate forecasts and interpret the results for business use.",
		Backstory: "Time-series forecasting expert specializing in petroleum product demand. " +
			"You use statistical models to predict future sales and explain uncertainty.",
	}

	BusinessStrategist = Role{
		Name: "Fuel Markets Strategist",
		Goal: "Translate forecasts into actionable business recommendations for retail outlet managers.",
		Backstory: "A former regional manager turned strategist, you bridge data science and operations, " +
			"providing inventory, marketing, and risk management insights.",
	}
)

// SystemPrompt renders the persona as a system instruction.
func (r Role) SystemPrompt() string {
	return "You are the " + r.Name + ". " + r.Backstory + " Your goal: " + r.Goal
}
