package operations

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"fuelcast/internal/config"
	"fuelcast/internal/infrastructure"
	"fuelcast/internal/narrative"
	"fuelcast/internal/shared/testutil"
)

const threeMonthCSV = "Ship To,Outlet,2023-01,2023-02,2023-03,Notes\n" +
	"ShipID,OutletA,100,110,120,seasonal\n"

const batchCSV = "Ship To,Outlet,2023-01,2023-02,2023-03\n" +
	"S1,OutletA,100,110,120\n" +
	"S2,OutletB,50,55,60\n" +
	"S3,OutletC,10,,\n"

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	return testutil.WriteText(t, dir, "sales.csv", content)
}

func newTestPipeline(t *testing.T, gen narrative.Generator, providers *infrastructure.OTelProviders) (*Pipeline, string) {
	t.Helper()
	return newLoggedPipeline(t, gen, providers, nil)
}

func newLoggedPipeline(t *testing.T, gen narrative.Generator, providers *infrastructure.OTelProviders, logger *slog.Logger) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths.BaseDir = dir

	p, err := NewPipeline(Dependencies{
		Config:    cfg,
		Providers: providers,
		Generator: gen,
		Logger:    logger,
	})
	require.NoError(t, err)
	return p, dir
}

var errModelUnavailable = stderrors.New("model unavailable")

type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (f *fakeGenerator) Generate(ctx context.Context, task narrative.Task) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(task.Description, f.failOn) {
		return "", errModelUnavailable
	}
	return "text for " + task.Name, nil
}
