package operations

import (
	"context"
	"time"
)

// Step is one unit of a forecasting run
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Execute runs the step against the shared run state
	Execute(ctx context.Context, state *RunState) error
}

// Skipper is implemented by steps that can decide not to run
type Skipper interface {
	// Skip returns a non-empty reason when the step should not run
	Skip(state *RunState) string
}

// StepStatus represents the outcome of a step
type StepStatus string

const (
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepExecution records one step of a run
type StepExecution struct {
	StepID    string                 `json:"step_id"`
	StepName  string                 `json:"step_name"`
	Status    StepStatus             `json:"status"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time,omitempty"`
	Duration  string                 `json:"duration,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// funcStep adapts a function into a Step
type funcStep struct {
	id   string
	name string
	fn   func(ctx context.Context, state *RunState) error
	skip func(state *RunState) string
}

func (s *funcStep) ID() string   { return s.id }
func (s *funcStep) Name() string { return s.name }

func (s *funcStep) Execute(ctx context.Context, state *RunState) error {
	return s.fn(ctx, state)
}

func (s *funcStep) Skip(state *RunState) string {
	if s.skip == nil {
		return ""
	}
	return s.skip(state)
}

// NewStep creates a Step from a function. skip may be nil.
func NewStep(id, name string, fn func(ctx context.Context, state *RunState) error, skip func(state *RunState) string) Step {
	return &funcStep{id: id, name: name, fn: fn, skip: skip}
}
