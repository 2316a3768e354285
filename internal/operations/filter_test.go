package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelcast/internal/dataprocessing"
	"fuelcast/internal/errors"
)

func TestPairFilter(t *testing.T) {
	summaries := []dataprocessing.SeriesSummary{
		{Outlet: "OutletA", FuelType: "Petrol", Points: 24, Months: 24, Mean: 120},
		{Outlet: "OutletB", FuelType: "Diesel", Points: 3, Months: 3, Mean: 55},
		{Outlet: "OutletC", FuelType: "Petrol", Points: 1, Months: 1, Mean: 10},
	}

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{name: "blank selects all", source: "  ", want: []string{"OutletA", "OutletB", "OutletC"}},
		{name: "fuel type", source: `FuelType == "Petrol"`, want: []string{"OutletA", "OutletC"}},
		{name: "numeric", source: `Points >= 3 && Mean > 50`, want: []string{"OutletA", "OutletB"}},
		{name: "string function", source: `Outlet endsWith "B"`, want: []string{"OutletB"}},
		{name: "membership", source: `Outlet in ["OutletA", "OutletC"] && Months > 1`, want: []string{"OutletA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompilePairFilter(tt.source)
			require.NoError(t, err)

			selected, err := filter.Select(summaries)
			require.NoError(t, err)

			got := make([]string, len(selected))
			for i, s := range selected {
				got[i] = s.Outlet
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompilePairFilter_Invalid(t *testing.T) {
	tests := []string{
		`Outlet ==`,
		`Points + 1`,
		`Unknown > 3`,
	}

	for _, source := range tests {
		t.Run(source, func(t *testing.T) {
			_, err := CompilePairFilter(source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestPairFilter_String(t *testing.T) {
	var nilFilter *PairFilter
	assert.Equal(t, "", nilFilter.String())

	filter, err := CompilePairFilter(` Points > 2 `)
	require.NoError(t, err)
	assert.Equal(t, "Points > 2", filter.String())
}
