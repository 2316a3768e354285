package dataprocessing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelcast/internal/errors"
	"fuelcast/internal/shared/testutil"
	"fuelcast/pkg/contracts/domain"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func threeMonthSheet() domain.RawSheet {
	return domain.RawSheet{
		Name:    "Petrol",
		Headers: []string{"Ship To", "Outlet", "2023-01", "2023-02", "2023-03"},
		Rows: [][]string{
			{"ShipID", "OutletA", "100", "110", "120"},
		},
	}
}

func TestReshape_ThreeMonthScenario(t *testing.T) {
	records, report, err := Reshape(threeMonthSheet(), "Petrol")
	require.NoError(t, err)

	require.Len(t, records, 3)
	want := []domain.SalesRecord{
		{ShipTo: "ShipID", Outlet: "OutletA", Month: month(2023, time.January), Sales: 100, FuelType: "Petrol"},
		{ShipTo: "ShipID", Outlet: "OutletA", Month: month(2023, time.February), Sales: 110, FuelType: "Petrol"},
		{ShipTo: "ShipID", Outlet: "OutletA", Month: month(2023, time.March), Sales: 120, FuelType: "Petrol"},
	}
	assert.Equal(t, want, records)
	assert.Equal(t, 3, report.Emitted)
	assert.Empty(t, report.UnparseableColumns)
	assert.Zero(t, report.MissingSales)
}

func TestReshape_RowCount(t *testing.T) {
	sheet := domain.RawSheet{
		Name:    "Diesel",
		Headers: []string{"Code", "Name", "Jan-2023", "Notes", "Feb-2023", "Mar-2023"},
		Rows: [][]string{
			{"S1", "OutletA", "10", "ok", "", "12"},
			{"S2", "OutletB", "20", "", "n/a", "22"},
			{"S3", "OutletC", "30", "check", "31"},
		},
	}

	records, report, err := Reshape(sheet, "Diesel")
	require.NoError(t, err)

	parseable := 3
	assert.Equal(t, []string{"Notes"}, report.UnparseableColumns)
	assert.Equal(t, 3, report.MissingSales, "blank, non-numeric and short-row cells")
	assert.Len(t, records, len(sheet.Rows)*parseable-report.MissingSales)
	assert.Equal(t, len(records), report.Emitted)
	assert.Equal(t, len(sheet.Rows)+3, report.Dropped(len(sheet.Rows)))

	for _, rec := range records {
		assert.False(t, rec.Month.IsZero())
		assert.Equal(t, "Diesel", rec.FuelType)
	}
}

func TestReshape_NotesColumnNeverBecomesMonth(t *testing.T) {
	sheet := domain.RawSheet{
		Headers: []string{"Ship To", "Outlet", "2023-01", "Notes"},
		Rows:    [][]string{{"S1", "OutletA", "5", "42"}},
	}

	records, report, err := Reshape(sheet, "Petrol")
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, month(2023, time.January), records[0].Month)
	assert.Equal(t, 5.0, records[0].Sales)
	assert.Equal(t, []string{"Notes"}, report.UnparseableColumns)
}

func TestReshape_ColumnMajorOrder(t *testing.T) {
	sheet := domain.RawSheet{
		Headers: []string{"a", "b", "2023-01", "2023-02"},
		Rows: [][]string{
			{"S1", "O1", "1", "2"},
			{"S2", "O2", "3", "4"},
		},
	}

	records, _, err := Reshape(sheet, "Petrol")
	require.NoError(t, err)

	var sales []float64
	for _, rec := range records {
		sales = append(sales, rec.Sales)
	}
	assert.Equal(t, []float64{1, 3, 2, 4}, sales)
}

func TestReshape_IdentifiersArePositional(t *testing.T) {
	sheet := domain.RawSheet{
		Headers: []string{"Outlet", "Ship To", "2023-01"},
		Rows:    [][]string{{" 1001 ", "Main Road", "7"}},
	}

	records, _, err := Reshape(sheet, "Petrol")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1001", records[0].ShipTo)
	assert.Equal(t, "Main Road", records[0].Outlet)
}

func TestReshape_DoesNotMutateSheet(t *testing.T) {
	sheet := threeMonthSheet()
	headers := append([]string(nil), sheet.Headers...)
	row := append([]string(nil), sheet.Rows[0]...)

	_, _, err := Reshape(sheet, "Petrol")
	require.NoError(t, err)

	assert.Equal(t, headers, sheet.Headers)
	assert.Equal(t, row, sheet.Rows[0])
}

func TestReshape_SchemaError(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
	}{
		{"no columns", []string{}},
		{"identifiers only", []string{"Ship To", "Outlet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, _, err := Reshape(domain.RawSheet{Headers: tt.headers}, "Petrol")
			require.Error(t, err)
			assert.Nil(t, records)
			assert.True(t, errors.Is(err, errors.ErrSchema))
		})
	}
}

func TestReshape_NoMonthColumns(t *testing.T) {
	sheet := domain.RawSheet{
		Headers: []string{"Ship To", "Outlet", "Remarks"},
		Rows:    [][]string{{"S1", "O1", "x"}},
	}

	records, report, err := Reshape(sheet, "Petrol")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, report.Emitted)
}

func TestReshape_LogsDiscards(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	sheet := domain.RawSheet{
		Name:    "Petrol",
		Headers: []string{"Ship To", "Outlet", "2023-01", "Notes"},
		Rows:    [][]string{{"S1", "O1", "", "x"}},
	}

	_, report, err := NewReshaper(logger).Reshape(context.Background(), sheet, "Petrol")
	require.NoError(t, err)
	assert.Equal(t, 1, report.MissingSales)

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "unparseable month headers")
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "missing or non-numeric sales")
	testutil.AssertLogAttr(t, logs, "columns", []string{"Notes"})
	testutil.AssertNoErrors(t, logs)
}
