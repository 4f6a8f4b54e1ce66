package entity

import "time"

// StageCounters counts outcomes of one funnel stage
type StageCounters struct {
	Attempted int64
	Succeeded int64
	Failed    int64
}

// RunMetrics holds the process-wide funnel counters of one run
type RunMetrics struct {
	DNS       StageCounters
	HTTP      StageCounters
	Text      StageCounters
	Processed int64
	Faulted   int64
	Total     int64
	StartTime time.Time
}

// NewRunMetrics creates metrics for a run over total domains
func NewRunMetrics(total int, start time.Time) *RunMetrics {
	return &RunMetrics{Total: int64(total), StartTime: start}
}

// Record folds one committed record into the counters. A faulted pass is
// counted as a resolve failure regardless of how far it got.
func (m *RunMetrics) Record(rec *DomainRecord, faulted bool) {
	m.Processed++
	m.DNS.Attempted++
	if faulted {
		m.Faulted++
		m.DNS.Failed++
		return
	}
	if !rec.HasDNS {
		m.DNS.Failed++
		return
	}
	m.DNS.Succeeded++

	m.HTTP.Attempted++
	if !rec.HTTPOK {
		m.HTTP.Failed++
		return
	}
	m.HTTP.Succeeded++

	m.Text.Attempted++
	if !rec.TextOK {
		m.Text.Failed++
		return
	}
	m.Text.Succeeded++
}

// HostStats are read-only resource indicators of the running process
type HostStats struct {
	ResidentBytes uint64
	HeapBytes     uint64
	Load1         float64
	OpenFiles     int
	Goroutines    int
}

// StageSnapshot is the reported view of one stage
type StageSnapshot struct {
	Name      string
	Attempted int64
	Succeeded int64
	Failed    int64
	Rate      float64 // successes per second
}

// Snapshot is a point-in-time view of a run emitted at checkpoints
type Snapshot struct {
	Processed int64
	Total     int64
	Faulted   int64
	Elapsed   time.Duration
	Stages    []StageSnapshot
	Host      HostStats
	Final     bool
	Taken     time.Time
}

// Snapshot derives per-stage rates at now
func (m *RunMetrics) Snapshot(now time.Time) Snapshot {
	elapsed := now.Sub(m.StartTime)
	seconds := elapsed.Seconds()
	stage := func(name string, c StageCounters) StageSnapshot {
		s := StageSnapshot{
			Name:      name,
			Attempted: c.Attempted,
			Succeeded: c.Succeeded,
			Failed:    c.Failed,
		}
		if seconds > 0 {
			s.Rate = float64(c.Succeeded) / seconds
		}
		return s
	}

	return Snapshot{
		Processed: m.Processed,
		Total:     m.Total,
		Faulted:   m.Faulted,
		Elapsed:   elapsed,
		Stages: []StageSnapshot{
			stage("dns", m.DNS),
			stage("http", m.HTTP),
			stage("text", m.Text),
		},
		Final: m.Processed == m.Total,
		Taken: now,
	}
}

// Stage returns the named stage of the snapshot
func (s *Snapshot) Stage(name string) StageSnapshot {
	for _, st := range s.Stages {
		if st.Name == name {
			return st
		}
	}
	return StageSnapshot{Name: name}
}
