package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// monthLayouts are tried in order. Layouts that carry a day are still
// normalized to the first of the month. Numeric dates are read month first
// and fall back to day first when the leading field exceeds 12.
var monthLayouts = []string{
	"2006-1",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/1",
	"2006/1/2",
	"1/2006",
	"1-2006",
	"1/2/2006",
	"1-2-2006",
	"2/1/2006",
	"2-1-2006",
	"Jan-06",
	"Jan-2006",
	"Jan 06",
	"Jan 2006",
	"January 2006",
	"January-2006",
	"02-Jan-2006",
	"02-Jan-06",
}

// Excel stores dates as day counts since 1899-12-30. Only serials inside this
// window (1954-10 .. 2119-01) are accepted so plain sales figures in a header
// row are not mistaken for dates.
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// A bare four digit header in this range is a year and maps to January.
const (
	minHeaderYear = 1900
	maxHeaderYear = 2100
)

// ParseMonth interprets a month header as a calendar month and returns the
// first day of that month in UTC. It reports false for anything that is not
// a recognizable date, such as a "Notes" column.
func ParseMonth(label string) (time.Time, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthStart(t), true
		}
	}

	if len(s) == 4 {
		if year, err := strconv.Atoi(s); err == nil && year >= minHeaderYear && year <= maxHeaderYear {
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(serial) || serial < minExcelSerial || serial > maxExcelSerial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return MonthStart(t), true
	}

	return time.Time{}, false
}

// MonthStart truncates t to midnight UTC on the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// parseSales reads a sales cell. Blank, non-numeric and non-finite cells are
// reported as missing. Thousands separators are accepted.
func parseSales(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" || s == "-" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
