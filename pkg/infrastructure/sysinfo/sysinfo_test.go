package sysinfo

import (
	"runtime"
	"testing"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestProcSampler_Sample(t *testing.T) {
	stats := NewProcSampler().Sample()

	assert.Greater(t, stats.ResidentBytes, uint64(0))
	assert.Greater(t, stats.HeapBytes, uint64(0))
	assert.GreaterOrEqual(t, stats.Goroutines, 1)
	if runtime.GOOS == "linux" {
		assert.Greater(t, stats.OpenFiles, 0)
	}
}

func TestSamplerFunc(t *testing.T) {
	var s Sampler = SamplerFunc(func() entity.HostStats {
		return entity.HostStats{Load1: 0.5}
	})
	assert.Equal(t, 0.5, s.Sample().Load1)
}
