package dataprocessing

import (
	"math"
	"sort"

	"fuelcast/pkg/contracts/domain"
)

// ExtractSeries projects the records of one outlet and fuel type onto a
// (month, sales) series sorted by month. Matching is exact and
// case-sensitive. Points with a zero month or NaN sales are dropped. Records
// sharing a month keep their input order. The result is never nil.
func ExtractSeries(records []domain.SalesRecord, outlet, fuelType string) []domain.TimeSeriesPoint {
	series := []domain.TimeSeriesPoint{}
	for _, rec := range records {
		if rec.Outlet != outlet || rec.FuelType != fuelType {
			continue
		}
		if rec.Month.IsZero() || math.IsNaN(rec.Sales) {
			continue
		}
		series = append(series, domain.TimeSeriesPoint{DS: rec.Month, Y: rec.Sales})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].DS.Before(series[j].DS)
	})
	return series
}

// GroupSeries extracts every pair's series in a single pass over records.
// Each entry equals ExtractSeries for that pair; pairs whose records are all
// dropped are absent.
func GroupSeries(records []domain.SalesRecord) map[domain.Pair][]domain.TimeSeriesPoint {
	groups := make(map[domain.Pair][]domain.TimeSeriesPoint)
	for _, rec := range records {
		if rec.Month.IsZero() || math.IsNaN(rec.Sales) {
			continue
		}
		p := domain.Pair{Outlet: rec.Outlet, FuelType: rec.FuelType}
		groups[p] = append(groups[p], domain.TimeSeriesPoint{DS: rec.Month, Y: rec.Sales})
	}

	for _, series := range groups {
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].DS.Before(series[j].DS)
		})
	}
	return groups
}

// Pairs lists the distinct (outlet, fuel type) combinations in records,
// sorted by outlet then fuel type.
func Pairs(records []domain.SalesRecord) []domain.Pair {
	seen := make(map[domain.Pair]struct{})
	pairs := []domain.Pair{}
	for _, rec := range records {
		p := domain.Pair{Outlet: rec.Outlet, FuelType: rec.FuelType}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Outlet != pairs[j].Outlet {
			return pairs[i].Outlet < pairs[j].Outlet
		}
		return pairs[i].FuelType < pairs[j].FuelType
	})
	return pairs
}
