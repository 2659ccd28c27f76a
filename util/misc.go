package util

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as HH:MM:SS, flooring negative
// values to zero. Used for remaining-time estimates.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func MaxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func CopyFloatSlice(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
