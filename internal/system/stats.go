package system

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is a point-in-time resource snapshot of this process.
type ProcessStats struct {
	RSSBytes   uint64
	CPUPercent float64
	Goroutines int
}

// Snapshot samples the current process through gopsutil. Fields that cannot
// be read on this platform stay zero.
func Snapshot() ProcessStats {
	stats := ProcessStats{Goroutines: runtime.NumGoroutine()}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	return stats
}

// RSSMegabytes is a convenience for reports.
func (s ProcessStats) RSSMegabytes() float64 {
	return float64(s.RSSBytes) / (1024 * 1024)
}
