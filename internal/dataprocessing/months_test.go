package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMonth(t *testing.T) {
	jan2023 := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{"iso month", "2023-01", jan2023, true},
		{"iso date", "2023-01-01", jan2023, true},
		{"iso date mid month", "2023-01-17", jan2023, true},
		{"timestamp", "2023-01-01 00:00:00", jan2023, true},
		{"rfc3339", "2023-01-01T00:00:00Z", jan2023, true},
		{"slash year first", "2023/01", jan2023, true},
		{"slash month first", "01/2023", jan2023, true},
		{"short slash", "1/2023", jan2023, true},
		{"us date", "01/15/2023", jan2023, true},
		{"abbrev two digit year", "Jan-23", jan2023, true},
		{"abbrev four digit year", "Jan-2023", jan2023, true},
		{"abbrev space", "Jan 2023", jan2023, true},
		{"full name", "January 2023", jan2023, true},
		{"unpadded iso month", "2023-1", jan2023, true},
		{"unpadded iso date", "2023-1-5", jan2023, true},
		{"dashed month first", "01-01-2023", jan2023, true},
		{"dashed day first", "15-01-2023", jan2023, true},
		{"slash day first", "31/01/2023", jan2023, true},
		{"dashed month year", "01-2023", jan2023, true},
		{"bare year", "2023", jan2023, true},
		{"padded", "  2023-01  ", jan2023, true},
		{"excel serial", "44927", jan2023, true},
		{"excel serial fractional", "44927.5", jan2023, true},
		{"notes column", "Notes", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"small number", "120", time.Time{}, false},
		{"large number", "1500000", time.Time{}, false},
		{"invalid month", "2023-13", time.Time{}, false},
		{"year out of range", "1850", time.Time{}, false},
		{"three digit number", "999", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMonth(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestMonthStart(t *testing.T) {
	in := time.Date(2024, time.February, 29, 13, 45, 0, 0, time.FixedZone("X", 3*3600))
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), MonthStart(in))
}

func TestParseSales(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"100", 100, true},
		{" 12.5 ", 12.5, true},
		{"1,234.5", 1234.5, true},
		{"-3", -3, true},
		{"0", 0, true},
		{"", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseSales(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
