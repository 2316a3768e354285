package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0.0, expected: "0"},
		{name: "positive integer", input: 123.0, expected: "123"},
		{name: "negative integer", input: -456.0, expected: "-456"},
		{name: "trailing zeros dropped", input: 123.450000, expected: "123.45"},
		{name: "small decimal", input: 0.001234, expected: "0.001234"},
		{name: "full precision kept", input: 1.1234567890, expected: "1.123456789"},
		{name: "no scientific notation", input: 1.23e-5, expected: "0.0000123"},
		{name: "large volume", input: 1234567.5, expected: "1234567.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2023-03-01", formatDate(time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-12-31", formatDate(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)))
}

func BenchmarkFormatFloat(b *testing.B) {
	testValues := []float64{0.0, 123.456789, -987.654321, 1234567.890123, 0.000001}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, val := range testValues {
			_ = formatFloat(val)
		}
	}
}
