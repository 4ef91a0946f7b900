package util

import (
	"runtime"
)

func GetAppName() string {
	return "certledger"
}

// DetermineWorkers picks a worker count when none is configured.
func DetermineWorkers(configured int) int {
	if configured > 0 {
		return configured
	}
	return max(runtime.GOMAXPROCS(0), 1)
}
