package narrative

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fuelcast/internal/errors"
)

// Generator produces the text for one task.
type Generator interface {
	Generate(ctx context.Context, task Task) (string, error)
}

// TaskOutput is the text one task produced.
type TaskOutput struct {
	Name       string        `json:"name"`
	Role       string        `json:"role"`
	OutputFile string        `json:"output_file"`
	Text       string        `json:"text"`
	Duration   time.Duration `json:"duration"`
}

// Report is the result of a narrative run.
type Report struct {
	Outlet   string       `json:"outlet"`
	FuelType string       `json:"fuel_type"`
	Outputs  []TaskOutput `json:"outputs"`
}

// BusinessReport returns the strategist's text.
func (r *Report) BusinessReport() string {
	if r == nil || len(r.Outputs) == 0 {
		return ""
	}
	return r.Outputs[len(r.Outputs)-1].Text
}

// Orchestrator runs the narrative tasks in order.
type Orchestrator struct {
	generator Generator
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger falls back to
// slog.Default().
func NewOrchestrator(generator Generator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		generator: generator,
		logger:    logger.With(slog.String("component", "narrative")),
	}
}

// Run validates the request and executes the three tasks sequentially, each
// receiving the outputs of the previous ones as context. The first failure
// aborts the run.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if o.generator == nil {
		return nil, errors.NewNarrativeError("no generator configured", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report := &Report{Outlet: req.Outlet, FuelType: req.FuelType}
	var prior []string

	for _, task := range BuildTasks(req) {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewNarrativeError("narrative run cancelled", err)
		}

		task.Context = append([]string(nil), prior...)

		o.logger.InfoContext(ctx, "running narrative task",
			slog.String("task", task.Name),
			slog.String("role", task.Role.Name))

		start := time.Now()
		text, err := o.generator.Generate(ctx, task)
		if err != nil {
			o.logger.ErrorContext(ctx, "narrative task failed",
				slog.String("task", task.Name),
				slog.String("error", err.Error()))
			if errors.Is(err, errors.ErrNarrative) {
				return nil, err
			}
			return nil, errors.NewNarrativeError("task "+task.Name+" failed", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return nil, errors.NewNarrativeError("task "+task.Name+" returned no text", nil)
		}

		report.Outputs = append(report.Outputs, TaskOutput{
			Name:       task.Name,
			Role:       task.Role.Name,
			OutputFile: task.OutputFile,
			Text:       text,
			Duration:   time.Since(start),
		})
		prior = append(prior, text)
	}

	o.logger.InfoContext(ctx, "narrative complete", slog.Int("tasks", len(report.Outputs)))
	return report, nil
}
