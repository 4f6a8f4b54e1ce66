package repository

import "github.com/WangYihang/Domain-Funnel/pkg/domain/entity"

// DomainFilter provides approximate membership for duplicate detection
type DomainFilter interface {
	// TestAndAdd reports whether domain was probably seen before and records it
	TestAndAdd(domain string) bool
}

// DomainReader loads the input batch
type DomainReader interface {
	// ReadAll returns every usable domain in input order
	ReadAll() ([]string, error)
	// Close releases the underlying input
	Close() error
}

// RecordWriter writes the output batch
type RecordWriter interface {
	// WriteBatch writes all records at once, preserving order
	WriteBatch(records []entity.DomainRecord) error
	// Close releases the underlying output
	Close() error
}
