package narrative

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts/domain"
)

type fakeGenerator struct {
	mu     sync.Mutex
	tasks  []Task
	failAt string
	empty  string
}

func (f *fakeGenerator) Generate(ctx context.Context, task Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)

	if task.Name == f.failAt {
		return "", assert.AnError
	}
	if task.Name == f.empty {
		return "   ", nil
	}
	return fmt.Sprintf("output of %s\n", task.Name), nil
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func sampleRequest() Request {
	full := []domain.ForecastPoint{
		{DS: month(2023, time.January), YHat: 100, YHatLower: 95, YHatUpper: 105},
		{DS: month(2023, time.February), YHat: 110, YHatLower: 105, YHatUpper: 115},
		{DS: month(2023, time.March), YHat: 120, YHatLower: 115, YHatUpper: 125},
		{DS: month(2023, time.April), YHat: 130, YHatLower: 120, YHatUpper: 140},
		{DS: month(2023, time.May), YHat: 140, YHatLower: 126, YHatUpper: 154},
	}
	historical, future := domain.Split(full, month(2023, time.March))

	return Request{
		Outlet:   "OutletA",
		FuelType: "Petrol",
		Periods:  2,
		Forecast: &domain.ForecastResult{
			Full:       full,
			Historical: historical,
			Future:     future,
			Input: []domain.TimeSeriesPoint{
				{DS: month(2023, time.January), Y: 100},
				{DS: month(2023, time.February), Y: 110},
				{DS: month(2023, time.March), Y: 120},
			},
			Cutoff:        month(2023, time.March),
			Periods:       2,
			IntervalWidth: 0.8,
		},
	}
}

func TestOrchestrator_Run(t *testing.T) {
	gen := &fakeGenerator{}
	orch := NewOrchestrator(gen, nil)

	report, err := orch.Run(context.Background(), sampleRequest())
	require.NoError(t, err)

	require.Len(t, report.Outputs, 3)
	assert.Equal(t, "OutletA", report.Outlet)
	assert.Equal(t, "Petrol", report.FuelType)
	assert.Equal(t, []string{TaskStructure, TaskForecast, TaskReport},
		[]string{report.Outputs[0].Name, report.Outputs[1].Name, report.Outputs[2].Name})
	assert.Equal(t, "output of report", report.BusinessReport())

	require.Len(t, gen.tasks, 3)
	assert.Empty(t, gen.tasks[0].Context)
	assert.Equal(t, []string{"output of structure"}, gen.tasks[1].Context)
	assert.Equal(t, []string{"output of structure", "output of forecast"}, gen.tasks[2].Context)
	assert.Equal(t, BusinessStrategist.Name, gen.tasks[2].Role.Name)
}

func TestOrchestrator_RunFailures(t *testing.T) {
	tests := []struct {
		name    string
		gen     Generator
		req     func() Request
		wantErr *errors.AppError
		calls   int
	}{
		{
			name:    "generator error aborts run",
			gen:     &fakeGenerator{failAt: TaskForecast},
			req:     sampleRequest,
			wantErr: errors.ErrNarrative,
			calls:   2,
		},
		{
			name:    "blank output aborts run",
			gen:     &fakeGenerator{empty: TaskStructure},
			req:     sampleRequest,
			wantErr: errors.ErrNarrative,
			calls:   1,
		},
		{
			name: "missing outlet",
			gen:  &fakeGenerator{},
			req: func() Request {
				r := sampleRequest()
				r.Outlet = ""
				return r
			},
			wantErr: errors.ErrValidation,
		},
		{
			name: "non-positive periods",
			gen:  &fakeGenerator{},
			req: func() Request {
				r := sampleRequest()
				r.Periods = 0
				return r
			},
			wantErr: errors.ErrValidation,
		},
		{
			name: "nil forecast",
			gen:  &fakeGenerator{},
			req: func() Request {
				r := sampleRequest()
				r.Forecast = nil
				return r
			},
			wantErr: errors.ErrValidation,
		},
		{
			name: "empty forecast",
			gen:  &fakeGenerator{},
			req: func() Request {
				r := sampleRequest()
				r.Forecast = &domain.ForecastResult{}
				return r
			},
			wantErr: errors.ErrEmptyInput,
		},
		{
			name:    "no generator",
			gen:     nil,
			req:     sampleRequest,
			wantErr: errors.ErrNarrative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := NewOrchestrator(tt.gen, nil)
			report, err := orch.Run(context.Background(), tt.req())

			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			if fake, ok := tt.gen.(*fakeGenerator); ok {
				assert.Len(t, fake.tasks, tt.calls)
			}
		})
	}
}

func TestOrchestrator_RunCancelled(t *testing.T) {
	gen := &fakeGenerator{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrchestrator(gen, nil).Run(ctx, sampleRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, gen.tasks)
}

func TestBuildTasks(t *testing.T) {
	tasks := BuildTasks(sampleRequest())
	require.Len(t, tasks, 3)

	assert.Equal(t, DataEngineer, tasks[0].Role)
	assert.Contains(t, tasks[0].Description, "outlet OutletA and fuel type Petrol")
	assert.Contains(t, tasks[0].Facts, "2023-01,100.00")
	assert.Contains(t, tasks[0].Facts, "from 2023-01 to 2023-03")

	assert.Equal(t, ForecastAnalyst, tasks[1].Role)
	assert.Contains(t, tasks[1].Description, "Forecast Petrol sales for outlet OutletA for 2 months")
	assert.Contains(t, tasks[1].Facts, "2023-05,140.00,126.00,154.00")
	assert.NotContains(t, tasks[1].Facts, "2023-02,110.00")
	assert.Contains(t, tasks[1].Facts, "Interval width: 80%")

	assert.Equal(t, BusinessStrategist, tasks[2].Role)
	assert.Contains(t, tasks[2].Description, "- Inventory recommendations")
	assert.Equal(t, "business_report.txt", tasks[2].OutputFile)
}

func TestTaskPrompt(t *testing.T) {
	task := Task{
		Description:    "Do the thing.",
		ExpectedOutput: "A thing.",
		Facts:          "a,b\n",
		Context:        []string{"first", "second"},
	}

	prompt := task.Prompt()
	assert.True(t, strings.HasPrefix(prompt, "Task: Do the thing."))
	assert.Contains(t, prompt, "Expected output: A thing.")
	assert.Contains(t, prompt, "Data:\na,b")
	assert.Less(t, strings.Index(prompt, "step 1:\nfirst"), strings.Index(prompt, "step 2:\nsecond"))
}

func TestRoleSystemPrompt(t *testing.T) {
	prompt := ForecastAnalyst.SystemPrompt()
	assert.True(t, strings.HasPrefix(prompt, "You are the Fuel Sales Forecaster."))
	assert.Contains(t, prompt, ForecastAnalyst.Goal)
}
