package chart

import (
	"math"
	"sort"
	"time"
)

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
