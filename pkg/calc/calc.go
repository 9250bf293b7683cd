// Package calc holds small progress arithmetic helpers.
package calc

import (
	"math"
	"time"
)

// Progress calculates the rounded percentage of downloaded out of total.
func Progress(downloaded, total int) int {
	if total > 0 {
		return int(math.Round(float64(downloaded) / float64(total) * 100))
	}

	return 0
}

// Fraction returns done/total clamped to [0, 1].
func Fraction(done, total int) float64 {
	if total <= 0 {
		return 0
	}

	return math.Max(0, math.Min(1, float64(done)/float64(total)))
}

// ETA estimates the remaining time from the elapsed time since started.
func ETA(downloaded, total int, started time.Time) time.Duration {
	if total <= 0 || downloaded <= 0 {
		return 0
	}

	elapsed := time.Since(started)

	return time.Duration(float64(elapsed) * (float64(total)/float64(downloaded) - 1))
}
