package exporter

import (
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// formatFloat formats a float64 in its shortest exact decimal form
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatDate formats a date in ISO form (YYYY-MM-DD)
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
