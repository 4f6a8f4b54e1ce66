// Package metrics exposes funnel counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/WangYihang/Domain-Funnel/pkg/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "funnel"

// Recorder mirrors committed records and checkpoints into a private registry
type Recorder struct {
	registry *prometheus.Registry

	stages    *prometheus.CounterVec
	processed prometheus.Counter
	faulted   prometheus.Counter
	deepest   *prometheus.CounterVec
	total     prometheus.Gauge

	resident   prometheus.Gauge
	load1      prometheus.Gauge
	openFiles  prometheus.Gauge
	goroutines prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_outcomes_total",
			Help:      "Stage attempts by stage and outcome.",
		}, []string{"stage", "outcome"}),
		processed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domains_processed_total",
			Help:      "Domains committed to the result sink.",
		}),
		faulted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domains_faulted_total",
			Help:      "Domains whose pass hit an unexpected fault.",
		}),
		deepest: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domains_by_stage_total",
			Help:      "Committed domains by deepest stage reached.",
		}, []string{"stage"}),
		total: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "domains_total",
			Help:      "Domains in the input batch.",
		}),
		resident: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_resident_bytes",
			Help:      "Resident memory at the last checkpoint.",
		}),
		load1: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_load1",
			Help:      "One-minute load average at the last checkpoint.",
		}),
		openFiles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_open_files",
			Help:      "Open file descriptors at the last checkpoint.",
		}),
		goroutines: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_goroutines",
			Help:      "Goroutines at the last checkpoint.",
		}),
	}
}

// WatchLimiter exports in-flight and waiting gauges for a stage limiter
func (r *Recorder) WatchLimiter(l *limiter.Limiter) {
	f := promauto.With(r.registry)
	labels := prometheus.Labels{"stage": l.Name()}

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "limiter_in_flight",
		Help:        "Admitted stage calls currently running.",
		ConstLabels: labels,
	}, func() float64 { return float64(l.InFlight()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "limiter_waiting",
		Help:        "Stage calls queued for admission.",
		ConstLabels: labels,
	}, func() float64 { return float64(l.Waiting()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "limiter_capacity",
		Help:        "Configured stage concurrency.",
		ConstLabels: labels,
	}, func() float64 { return float64(l.Capacity()) })
}

// SetTotal records the batch size
func (r *Recorder) SetTotal(n int) {
	r.total.Set(float64(n))
}

// OnRecord counts one committed record
func (r *Recorder) OnRecord(rec *entity.DomainRecord, faulted bool) {
	r.processed.Inc()
	r.deepest.WithLabelValues(string(rec.Stage)).Inc()
	if faulted {
		r.faulted.Inc()
		r.stages.WithLabelValues("dns", "fail").Inc()
		return
	}

	r.stages.WithLabelValues("dns", outcome(rec.HasDNS)).Inc()
	if !rec.HasDNS {
		return
	}
	r.stages.WithLabelValues("http", outcome(rec.HTTPOK)).Inc()
	if !rec.HTTPOK {
		return
	}
	r.stages.WithLabelValues("text", outcome(rec.TextOK)).Inc()
}

// OnMetricsUpdate refreshes host gauges from a checkpoint
func (r *Recorder) OnMetricsUpdate(snap *entity.Snapshot) {
	r.resident.Set(float64(snap.Host.ResidentBytes))
	r.load1.Set(snap.Host.Load1)
	r.openFiles.Set(float64(snap.Host.OpenFiles))
	r.goroutines.Set(float64(snap.Host.Goroutines))
}

// Registry returns the private registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}
