// Package workers sizes worker pools from the available CPU budget.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker count scaled from GOMAXPROCS, which tracks
// container CPU limits on Go 1.19+. The multiplier adjusts for task
// characteristics (1.0 CPU-bound, 2.0 I/O-bound); limit caps the result,
// 0 means uncapped. SWEEP_WORKERS overrides everything.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("SWEEP_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	count := int(float64(available) * multiplier)
	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}

	return count
}

// ForIO returns the worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
