package exporter

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts/domain"
)

// Sheet names of the forecast workbook.
const (
	ForecastSheet = "Forecast"
	ActualsSheet  = "Actuals"
)

var actualsHeaders = []string{"ds", "y"}

// WriteForecastWorkbook writes the forecast table and the observed series into
// one XLSX file with a Forecast and an Actuals sheet.
func (e *Exporter) WriteForecastWorkbook(ctx context.Context, filePath string, result *domain.ForecastResult) (string, error) {
	if result == nil {
		return "", errors.NewEmptyInputError("no forecast to export")
	}

	fullPath := e.Resolve(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", errors.NewStorageError("failed to create directory for "+fullPath, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ForecastSheet); err != nil {
		return "", errors.NewStorageError("failed to name forecast sheet", err)
	}
	if _, err := f.NewSheet(ActualsSheet); err != nil {
		return "", errors.NewStorageError("failed to add actuals sheet", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", errors.NewStorageError("failed to create header style", err)
	}

	forecastRows := make([][]interface{}, 0, len(result.Full))
	for _, p := range result.Full {
		forecastRows = append(forecastRows, []interface{}{formatDate(p.DS), p.YHat, p.YHatLower, p.YHatUpper})
	}
	if err := writeSheet(f, ForecastSheet, ForecastHeaders, forecastRows, headerStyle); err != nil {
		return "", err
	}

	actualRows := make([][]interface{}, 0, len(result.Input))
	for _, p := range result.Input {
		actualRows = append(actualRows, []interface{}{formatDate(p.DS), p.Y})
	}
	if err := writeSheet(f, ActualsSheet, actualsHeaders, actualRows, headerStyle); err != nil {
		return "", err
	}

	if err := f.SaveAs(fullPath); err != nil {
		return "", errors.NewStorageError("failed to save "+fullPath, err)
	}

	e.logger.InfoContext(ctx, "exported forecast workbook",
		slog.String("path", fullPath),
		slog.Int("forecast_rows", len(forecastRows)),
		slog.Int("actual_rows", len(actualRows)))

	return fullPath, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.NewStorageError("failed to write header of "+sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return errors.NewStorageError("invalid header range", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return errors.NewStorageError("failed to style header of "+sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.NewStorageError("invalid row", err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return errors.NewStorageError("failed to write row of "+sheet, err)
		}
	}

	return f.SetColWidth(sheet, "A", "A", 12)
}
