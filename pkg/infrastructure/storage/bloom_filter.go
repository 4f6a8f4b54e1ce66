package storage

import (
	"github.com/WangYihang/Domain-Funnel/pkg/domain/repository"
	"github.com/bits-and-blooms/bloom/v3"
)

// BloomFilter implements repository.DomainFilter using Bloom filter
type BloomFilter struct {
	filter *bloom.BloomFilter
}

// Config holds Bloom filter configuration
type Config struct {
	Size              uint
	FalsePositiveRate float64
}

// NewBloomFilter creates a new Bloom filter
func NewBloomFilter(config Config) repository.DomainFilter {
	if config.Size == 0 {
		config.Size = 1
	}
	if config.FalsePositiveRate <= 0 || config.FalsePositiveRate >= 1 {
		config.FalsePositiveRate = 0.001
	}
	return &BloomFilter{
		filter: bloom.NewWithEstimates(config.Size, config.FalsePositiveRate),
	}
}

// TestAndAdd reports whether domain has probably been seen before, then adds it
func (bf *BloomFilter) TestAndAdd(domain string) bool {
	return bf.filter.TestAndAdd([]byte(domain))
}
