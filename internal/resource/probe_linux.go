//go:build linux

package resource

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	cgroupV2Root = "/sys/fs/cgroup"
	cgroupV1Mem  = "/sys/fs/cgroup/memory"
	cgroupV1CPU  = "/sys/fs/cgroup/cpu"

	// noLimitV1Threshold: a v1 byte limit above this is effectively "unset".
	// cgroup v1 reports memory.limit_in_bytes as a huge sentinel (close to
	// 2^63 on most kernels) when no limit is configured.
	noLimitV1Threshold = int64(1) << 60

	batterySysfsRoot = "/sys/class/power_supply"
)

// collect gathers a best-effort snapshot on Linux, preferring cgroup v2 and
// falling back to v1, per spec.md §4.1. Every read failure is swallowed.
func collect() Snapshot {
	var snap Snapshot

	readLoadAvg(&snap)
	readMemInfo(&snap)
	readStatCPU(&snap)
	readBattery(&snap)
	readCgroup(&snap)

	return snap
}

func readLoadAvg(snap *Snapshot) {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return
	}

	load1, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return
	}

	cores := readCPUCount()
	snap.LogicalCores = cores

	if cores > 0 {
		snap.LoadNormalised = load1 / float64(cores)
	}
}

func readCPUCount() int {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0
	}

	count := 0

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "cpu") && len(line) > 3 && line[3] >= '0' && line[3] <= '9' {
			count++
		}
	}

	return count
}

// cpuSample holds the CPU time counters needed to compute delta-based
// utilization and iowait percentages between two /proc/stat reads.
type cpuSample struct {
	idle, iowait, total uint64
}

var lastCPUSample cpuSample

// readStatCPU computes CPU and iowait percentages from the delta between
// this /proc/stat read and the previous one. The first call after process
// start has no previous read and leaves both percentages at zero.
func readStatCPU(snap *Snapshot) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return
	}

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	if !sc.Scan() {
		return
	}

	fields := strings.Fields(sc.Text())
	if len(fields) < 6 || fields[0] != "cpu" {
		return
	}

	// fields[1:]: user nice system idle iowait irq softirq steal guest guest_nice
	var total, idle, iowait uint64

	for i, f := range fields[1:] {
		v, perr := strconv.ParseUint(f, 10, 64)
		if perr != nil {
			continue
		}

		total += v

		switch i {
		case 3:
			idle = v
		case 4:
			iowait = v
		}
	}

	cur := cpuSample{idle: idle, iowait: iowait, total: total}

	dTotal := float64(cur.total) - float64(lastCPUSample.total)
	if lastCPUSample.total > 0 && dTotal > 0 && cur.total >= lastCPUSample.total {
		dIdle := float64(cur.idle) - float64(lastCPUSample.idle)
		dIOWait := float64(cur.iowait) - float64(lastCPUSample.iowait)
		snap.CPUPercent = max(0, 1-dIdle/dTotal)
		snap.IOWaitPercent = max(0, dIOWait/dTotal)
	}

	lastCPUSample = cur
}

func readMemInfo(snap *Snapshot) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return
	}
	defer f.Close()

	vals := map[string]int64{}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}

		key := line[:idx]
		rest := strings.Fields(strings.TrimSpace(line[idx+1:]))

		if len(rest) == 0 {
			continue
		}

		n, perr := strconv.ParseInt(rest[0], 10, 64)
		if perr != nil {
			continue
		}

		vals[key] = n * 1024 // values are in kB
	}

	total := vals["MemTotal"]
	avail := vals["MemAvailable"]
	swapTotal := vals["SwapTotal"]
	swapFree := vals["SwapFree"]

	snap.MemTotalBytes = total
	snap.MemAvailBytes = avail

	if total > 0 {
		snap.MemPercent = max(0, 1-float64(avail)/float64(total))
	}

	if swapTotal > 0 {
		snap.SwapPercent = max(0, 1-float64(swapFree)/float64(swapTotal))
	}
}

func readBattery(snap *Snapshot) {
	entries, err := os.ReadDir(batterySysfsRoot)
	if err != nil {
		return
	}

	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "BAT") {
			continue
		}

		snap.IsLaptop = true

		base := filepath.Join(batterySysfsRoot, e.Name())

		if capacity, ok := readIntFile(filepath.Join(base, "capacity")); ok {
			snap.BatteryPercent = float64(capacity) / 100
		}

		if status, ok := readStringFile(filepath.Join(base, "status")); ok {
			snap.OnBattery = strings.EqualFold(strings.TrimSpace(status), "Discharging")
		}

		return
	}
}

// readCgroup detects cgroup v2 first (cpu.max, memory.max, memory.current),
// falling back to v1 (cfs quota/period, limit_in_bytes, usage_in_bytes).
func readCgroup(snap *Snapshot) {
	if readCgroupV2(snap) {
		return
	}

	readCgroupV1(snap)
}

func readCgroupV2(snap *Snapshot) bool {
	maxPath := filepath.Join(cgroupV2Root, "cpu.max")

	data, err := os.ReadFile(maxPath)
	if err != nil {
		return false
	}

	snap.IsContainer = true

	fields := strings.Fields(string(data))
	if len(fields) == 2 && fields[0] != "max" {
		quota, qerr := strconv.ParseFloat(fields[0], 64)
		period, perr := strconv.ParseFloat(fields[1], 64)

		if qerr == nil && perr == nil && quota > 0 && period > 0 {
			snap.ContainerCPULimit = quota / period
		}
	}

	if limit, ok := readIntFile(filepath.Join(cgroupV2Root, "memory.max")); ok && limit > 0 {
		snap.ContainerMemLimit = limit
	}

	if used, ok := readIntFile(filepath.Join(cgroupV2Root, "memory.current")); ok && snap.ContainerMemLimit > 0 {
		snap.ContainerMemUsedPercent = float64(used) / float64(snap.ContainerMemLimit)
	}

	return true
}

func readCgroupV1(snap *Snapshot) {
	quota, qok := readIntFile(filepath.Join(cgroupV1CPU, "cpu.cfs_quota_us"))
	period, pok := readIntFile(filepath.Join(cgroupV1CPU, "cpu.cfs_period_us"))

	if qok && pok && quota > 0 && period > 0 {
		snap.IsContainer = true
		snap.ContainerCPULimit = float64(quota) / float64(period)
	}

	limit, lok := readIntFile(filepath.Join(cgroupV1Mem, "memory.limit_in_bytes"))
	if lok && limit > 0 && limit < noLimitV1Threshold {
		snap.IsContainer = true
		snap.ContainerMemLimit = limit

		if used, uok := readIntFile(filepath.Join(cgroupV1Mem, "memory.usage_in_bytes")); uok {
			snap.ContainerMemUsedPercent = float64(used) / float64(limit)
		}
	}
}

func readIntFile(path string) (int64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	n, perr := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if perr != nil {
		return 0, false
	}

	return n, true
}

func readStringFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	return string(data), true
}
