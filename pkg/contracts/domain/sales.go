package domain

import (
	"math"
	"time"
)

// RawSheet is a wide-format sales export as read from disk.
// The first two columns are identifiers (ship-to code, outlet name); every
// remaining column is a month label whose cells hold sales volumes.
// Rows may be shorter than Headers when trailing cells are empty.
type RawSheet struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ColumnCount returns the number of columns declared by the header row.
func (s RawSheet) ColumnCount() int {
	return len(s.Headers)
}

// Cell returns the value at row/col, or "" when the row is short.
func (s RawSheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// SalesRecord is one long-format observation: a single outlet's sales of one
// fuel type in one month.
type SalesRecord struct {
	ShipTo   string    `json:"ship_to" csv:"ShipTo"`
	Outlet   string    `json:"outlet" csv:"Outlet"`
	Month    time.Time `json:"month" csv:"Month"`
	Sales    float64   `json:"sales" csv:"Sales"`
	FuelType string    `json:"fuel_type" csv:"Fuel_Type"`
}

// Pair identifies a single forecastable series.
type Pair struct {
	Outlet   string `json:"outlet"`
	FuelType string `json:"fuel_type"`
}

// TimeSeriesPoint is one observation of a univariate monthly series.
type TimeSeriesPoint struct {
	DS time.Time `json:"ds"`
	Y  float64   `json:"y"`
}

// Valid reports whether the point has both a date and a finite value.
func (p TimeSeriesPoint) Valid() bool {
	return !p.DS.IsZero() && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// MaxDS returns the latest date in the series and false when it is empty.
func MaxDS(series []TimeSeriesPoint) (time.Time, bool) {
	if len(series) == 0 {
		return time.Time{}, false
	}
	max := series[0].DS
	for _, p := range series[1:] {
		if p.DS.After(max) {
			max = p.DS
		}
	}
	return max, true
}
