// Package sysinfo samples host indicators for progress checkpoints.
// Values are informational; a failed reading leaves the field at zero.
package sysinfo

import (
	"runtime"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/prometheus/procfs"
)

// Sampler reads host indicators
type Sampler interface {
	Sample() entity.HostStats
}

// SamplerFunc adapts a function to Sampler
type SamplerFunc func() entity.HostStats

// Sample implements Sampler
func (f SamplerFunc) Sample() entity.HostStats {
	return f()
}

// ProcSampler reads /proc for the current process, falling back to the Go
// runtime where /proc is unavailable
type ProcSampler struct {
	fs    procfs.FS
	hasFS bool
}

// NewProcSampler creates a sampler on the default /proc mount
func NewProcSampler() *ProcSampler {
	fs, err := procfs.NewDefaultFS()
	return &ProcSampler{fs: fs, hasFS: err == nil}
}

// Sample implements Sampler
func (s *ProcSampler) Sample() entity.HostStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := entity.HostStats{
		HeapBytes:  mem.HeapAlloc,
		Goroutines: runtime.NumGoroutine(),
	}
	if !s.hasFS {
		stats.ResidentBytes = mem.Sys
		return stats
	}

	if load, err := s.fs.LoadAvg(); err == nil {
		stats.Load1 = load.Load1
	}

	proc, err := s.fs.Self()
	if err != nil {
		stats.ResidentBytes = mem.Sys
		return stats
	}
	if stat, err := proc.Stat(); err == nil {
		stats.ResidentBytes = uint64(stat.ResidentMemory())
	} else {
		stats.ResidentBytes = mem.Sys
	}
	if n, err := proc.FileDescriptorsLen(); err == nil {
		stats.OpenFiles = n
	}
	return stats
}
