// Package resource samples system health (CPU, memory, load, container
// limits, battery) into immutable [Snapshot] values for the adaptation core.
package resource

import "time"

// Snapshot is an immutable point-in-time reading of system health.
// Collection never fails observably: every field that cannot be determined
// is left at its zero value rather than surfacing an error.
type Snapshot struct {
	CPUPercent  float64 // [0,1]
	MemPercent  float64 // [0,1]
	SwapPercent float64 // [0,1]

	CPUCount     int
	LogicalCores int

	MemTotalBytes int64
	MemAvailBytes int64

	LoadNormalised float64 // 1-minute load / LogicalCores

	IOWaitPercent float64
	DiskPercent   float64

	OnBattery      bool
	BatteryPercent float64 // [0,1]
	IsLaptop       bool

	IsContainer               bool
	ContainerMemUsedPercent   float64
	ContainerMemLimit         int64
	ContainerCPULimit         float64 // logical cores, 0 means unset
	IsSpotInstance            bool

	TakenAt time.Time // monotonic-friendly wall clock from time.Now()
}

// CloudHintFunc reports whether the process is believed to run on a
// preemptible/spot instance. The core never queries cloud metadata itself;
// callers that care about the distinction (the out-of-scope cloud-metadata
// collaborator) inject this. A nil func means "never spot".
type CloudHintFunc func() bool
