package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts/domain"
)

// Identifier columns are positional: header text is ignored.
const (
	shipToColumn     = 0
	outletColumn     = 1
	firstMonthColumn = 2
)

// DropReport accounts for the cells the reshaper discarded.
type DropReport struct {
	// UnparseableColumns are headers that could not be read as a month.
	// None of their cells produce records.
	UnparseableColumns []string `json:"unparseable_columns"`
	// MissingSales counts cells under a valid month that were blank or
	// non-numeric.
	MissingSales int `json:"missing_sales"`
	// Emitted is the number of records produced.
	Emitted int `json:"emitted"`
}

// Dropped returns the total number of discarded cells.
func (d DropReport) Dropped(rows int) int {
	return len(d.UnparseableColumns)*rows + d.MissingSales
}

// Reshaper converts wide-format sheets to long-format sales records.
type Reshaper struct {
	logger *slog.Logger
}

// NewReshaper creates a reshaper. A nil logger falls back to slog.Default().
func NewReshaper(logger *slog.Logger) *Reshaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reshaper{logger: logger}
}

// Reshape runs the default reshaper. See Reshaper.Reshape.
func Reshape(sheet domain.RawSheet, fuelType string) ([]domain.SalesRecord, DropReport, error) {
	return NewReshaper(nil).Reshape(context.Background(), sheet, fuelType)
}

// Reshape unpivots sheet: every (row, month column) cell becomes one
// SalesRecord carrying the row's identifiers and fuelType. Records are
// emitted column by column, rows in sheet order within each column.
//
// Columns whose header is not a month and cells with no numeric sales are
// discarded rather than treated as errors; the DropReport counts them and
// each discard category is logged at warn level. The only failure is a sheet
// with fewer than three columns.
func (r *Reshaper) Reshape(ctx context.Context, sheet domain.RawSheet, fuelType string) ([]domain.SalesRecord, DropReport, error) {
	report := DropReport{UnparseableColumns: []string{}}

	if sheet.ColumnCount() < firstMonthColumn+1 {
		return nil, report, errors.NewSchemaError(fmt.Sprintf(
			"sheet %q has %d columns; need two identifier columns and at least one month column",
			sheet.Name, sheet.ColumnCount())).
			WithContext("columns", sheet.ColumnCount())
	}

	type monthColumn struct {
		index int
		month time.Time
	}

	months := make([]monthColumn, 0, sheet.ColumnCount()-firstMonthColumn)
	for col := firstMonthColumn; col < sheet.ColumnCount(); col++ {
		header := sheet.Headers[col]
		month, ok := ParseMonth(header)
		if !ok {
			report.UnparseableColumns = append(report.UnparseableColumns, header)
			continue
		}
		months = append(months, monthColumn{index: col, month: month})
	}

	records := make([]domain.SalesRecord, 0, len(months)*len(sheet.Rows))
	for _, mc := range months {
		for row := range sheet.Rows {
			sales, ok := parseSales(sheet.Cell(row, mc.index))
			if !ok {
				report.MissingSales++
				continue
			}
			records = append(records, domain.SalesRecord{
				ShipTo:   strings.TrimSpace(sheet.Cell(row, shipToColumn)),
				Outlet:   strings.TrimSpace(sheet.Cell(row, outletColumn)),
				Month:    mc.month,
				Sales:    sales,
				FuelType: fuelType,
			})
		}
	}
	report.Emitted = len(records)

	if len(report.UnparseableColumns) > 0 {
		r.logger.WarnContext(ctx, "discarded columns with unparseable month headers",
			slog.String("sheet", sheet.Name),
			slog.Any("columns", report.UnparseableColumns),
			slog.Int("cells", len(report.UnparseableColumns)*len(sheet.Rows)))
	}
	if report.MissingSales > 0 {
		r.logger.WarnContext(ctx, "discarded cells with missing or non-numeric sales",
			slog.String("sheet", sheet.Name),
			slog.Int("cells", report.MissingSales))
	}

	r.logger.InfoContext(ctx, "reshaped sheet to long format",
		slog.String("sheet", sheet.Name),
		slog.String("fuel_type", fuelType),
		slog.Int("rows", len(sheet.Rows)),
		slog.Int("month_columns", len(months)),
		slog.Int("records", report.Emitted))

	return records, report, nil
}
