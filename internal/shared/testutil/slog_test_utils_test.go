package testutil

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, handler := NewTestLogger(t)

	component := logger.With(slog.String("component", "reshaper"))
	component.Warn("discarded columns", slog.Any("columns", []string{"Notes"}), slog.Int("cells", 2))
	component.WithGroup("run").Info("done", slog.String("id", "r1"))
	logger.Error("failed")

	assert.Equal(t, 3, handler.Count())
	AssertLogContains(t, handler, slog.LevelWarn, "discarded")
	AssertLogAttr(t, handler, "component", "reshaper")
	AssertLogAttr(t, handler, "columns", []string{"Notes"})
	AssertLogAttr(t, handler, "cells", int64(2))
	AssertLogAttr(t, handler, "run.id", "r1")

	assert.False(t, handler.ContainsAttr("cells", 2))
	assert.True(t, handler.ContainsMessage("failed"))
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
}

func TestWriteWorkbook(t *testing.T) {
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	path := WriteWorkbook(t, t.TempDir(), "sales.xlsx", "Petrol", [][]interface{}{
		{"Ship To", "Outlet", jan},
		{"S1", "OutletA", 100},
	})

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Petrol"}, f.GetSheetList())
	v, err := f.GetCellValue("Petrol", "C2")
	require.NoError(t, err)
	assert.Equal(t, "100", v)
}
