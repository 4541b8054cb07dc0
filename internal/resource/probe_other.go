//go:build !linux

package resource

import "runtime"

// collect returns a minimal snapshot on non-Linux platforms: cgroup,
// load-average and battery data are unavailable, so those fields stay at
// their zero value per spec.md §4.1 ("collection errors are swallowed").
func collect() Snapshot {
	return Snapshot{
		LogicalCores: runtime.NumCPU(),
		CPUCount:     runtime.NumCPU(),
	}
}
