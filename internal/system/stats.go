package system

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is the resource usage of this process
type Stats struct {
	RSS         uint64  // Resident memory in bytes
	CPUPercent  float64 // Since process start, across all cores
	Goroutines  int
	NumCPU      int
	TotalMemory uint64 // Machine memory in bytes
}

// CollectStats samples the current process
func CollectStats() (Stats, error) {
	s := Stats{
		Goroutines: runtime.NumGoroutine(),
		NumCPU:     runtime.NumCPU(),
	}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return s, fmt.Errorf("open process: %w", err)
	}
	if info, err := p.MemoryInfo(); err == nil {
		s.RSS = info.RSS
	}
	if pct, err := p.CPUPercent(); err == nil {
		s.CPUPercent = pct
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.TotalMemory = vm.Total
	}
	return s, nil
}

// Stage is one timed phase of a command
type Stage struct {
	Name     string
	Duration time.Duration
}

// Report summarises a command run for --stats
type Report struct {
	Build  string
	Input  string
	Total  time.Duration
	Stages []Stage
	Stats  Stats
}

func (r Report) String() string {
	var b strings.Builder
	b.WriteString("--- [PERFORMANCE REPORT] ---\n")
	fmt.Fprintf(&b, "Build: %s\n", r.Build)
	fmt.Fprintf(&b, "Total Time: %.2fs\n", r.Total.Seconds())
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "%s: %.2fs\n", s.Name, s.Duration.Seconds())
	}
	fmt.Fprintf(&b, "Memory (RSS): %.1f MiB of %.1f MiB\n", mib(r.Stats.RSS), mib(r.Stats.TotalMemory))
	fmt.Fprintf(&b, "CPU: %.1f%% on %d cores, %d goroutines\n", r.Stats.CPUPercent, r.Stats.NumCPU, r.Stats.Goroutines)
	b.WriteString("----------------------------\n")
	return b.String()
}

// LogLine is the one-line form appended to the benchmark log
func (r Report) LogLine(now time.Time) string {
	return fmt.Sprintf("[%s] Build: %s | Input: %s | Total: %.2fs | RSS: %.1fMiB | CPU: %.1f%%\n",
		now.Format("2006-01-02 15:04:05"),
		r.Build,
		r.Input,
		r.Total.Seconds(),
		mib(r.Stats.RSS),
		r.Stats.CPUPercent,
	)
}

// AppendBenchmarkLog appends the report's log line to path
func AppendBenchmarkLog(path string, r Report) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(r.LogLine(time.Now())); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func mib(b uint64) float64 {
	return float64(b) / (1 << 20)
}
