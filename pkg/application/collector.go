package application

import (
	"time"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
)

// RecordObserver is notified of every committed record
type RecordObserver interface {
	OnRecord(rec *entity.DomainRecord, faulted bool)
}

// MetricsObserver is notified of every checkpoint snapshot
type MetricsObserver interface {
	OnMetricsUpdate(snap *entity.Snapshot)
}

// HostSampler reads host indicators for snapshots
type HostSampler interface {
	Sample() entity.HostStats
}

// CollectorConfig configures a Collector
type CollectorConfig struct {
	// Interval is the number of records between checkpoints
	Interval int
	Sampler  HostSampler
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Collector owns the run counters. It is only called from the commit
// goroutine and needs no locking.
type Collector struct {
	interval int64
	sampler  HostSampler
	clock    func() time.Time

	metrics *entity.RunMetrics
	last    *entity.Snapshot

	recordObservers  []RecordObserver
	metricsObservers []MetricsObserver
}

// NewCollector creates a collector
func NewCollector(config CollectorConfig) *Collector {
	if config.Interval <= 0 {
		config.Interval = 100
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	c := &Collector{
		interval: int64(config.Interval),
		sampler:  config.Sampler,
		clock:    config.Clock,
	}
	c.metrics = entity.NewRunMetrics(0, c.clock())
	return c
}

// RegisterRecordObserver registers a per-record observer
func (c *Collector) RegisterRecordObserver(o RecordObserver) {
	c.recordObservers = append(c.recordObservers, o)
}

// RegisterMetricsObserver registers a checkpoint observer
func (c *Collector) RegisterMetricsObserver(o MetricsObserver) {
	c.metricsObservers = append(c.metricsObservers, o)
}

// Begin resets the counters for a run over total domains
func (c *Collector) Begin(total int) {
	c.metrics = entity.NewRunMetrics(total, c.clock())
	c.last = nil
}

// Commit folds one record into the counters and emits a checkpoint on
// interval boundaries and on the last domain
func (c *Collector) Commit(rec *entity.DomainRecord, faulted bool) {
	c.metrics.Record(rec, faulted)
	for _, o := range c.recordObservers {
		o.OnRecord(rec, faulted)
	}

	if c.metrics.Processed%c.interval == 0 || c.metrics.Processed == c.metrics.Total {
		c.checkpoint()
	}
}

// Finish returns the final snapshot, taking one if the last commit did not
func (c *Collector) Finish() *entity.Snapshot {
	if c.last != nil && c.last.Processed == c.metrics.Processed {
		return c.last
	}
	return c.checkpoint()
}

// Metrics returns a copy of the counters
func (c *Collector) Metrics() entity.RunMetrics {
	return *c.metrics
}

// Last returns the most recent snapshot, or nil before the first checkpoint
func (c *Collector) Last() *entity.Snapshot {
	return c.last
}

func (c *Collector) checkpoint() *entity.Snapshot {
	snap := c.metrics.Snapshot(c.clock())
	if c.sampler != nil {
		snap.Host = c.sampler.Sample()
	}
	c.last = &snap
	for _, o := range c.metricsObservers {
		o.OnMetricsUpdate(&snap)
	}
	return &snap
}
