package application

import (
	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/WangYihang/Domain-Funnel/pkg/domain/repository"
)

// Sink is the ordered, append-only list of committed records
type Sink struct {
	records []entity.DomainRecord
}

// NewSink creates a sink sized for n records
func NewSink(n int) *Sink {
	return &Sink{records: make([]entity.DomainRecord, 0, n)}
}

// Append adds one record at the end
func (s *Sink) Append(rec entity.DomainRecord) {
	s.records = append(s.records, rec)
}

// Len returns the number of records
func (s *Sink) Len() int {
	return len(s.records)
}

// Records returns the records in commit order
func (s *Sink) Records() []entity.DomainRecord {
	return s.records
}

// Flush hands every record to w in a single batch
func (s *Sink) Flush(w repository.RecordWriter) error {
	return w.WriteBatch(s.records)
}
