package application

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/WangYihang/Domain-Funnel/pkg/domain/service"
	"github.com/WangYihang/Domain-Funnel/pkg/limiter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Gates are the three per-stage admission limiters
type Gates struct {
	DNS  *limiter.Limiter
	HTTP *limiter.Limiter
	Text *limiter.Limiter
}

// NewGates creates one limiter per stage
func NewGates(dns, http, text int) (*Gates, error) {
	d, err := limiter.New("dns", dns)
	if err != nil {
		return nil, err
	}
	h, err := limiter.New("http", http)
	if err != nil {
		return nil, err
	}
	t, err := limiter.New("text", text)
	if err != nil {
		return nil, err
	}
	return &Gates{DNS: d, HTTP: h, Text: t}, nil
}

// All returns the gates in stage order
func (g *Gates) All() []*limiter.Limiter {
	return []*limiter.Limiter{g.DNS, g.HTTP, g.Text}
}

// Config holds the funnel configuration
type Config struct {
	// Pipeline is the number of domains allowed between admission and
	// commit. 1 processes domains strictly one after another.
	Pipeline int
}

// Funnel drives every domain through resolve, probe and extract and
// commits one record per domain in input order
type Funnel struct {
	pipeline  int
	resolver  service.DNSResolver
	prober    service.HTTPProber
	extractor service.TextExtractor
	gates     *Gates
	collector *Collector
	sink      *Sink
	log       *zap.Logger
}

// NewFunnel creates a funnel
func NewFunnel(
	config Config,
	resolver service.DNSResolver,
	prober service.HTTPProber,
	extractor service.TextExtractor,
	gates *Gates,
	collector *Collector,
	logger *zap.Logger,
) (*Funnel, error) {
	if config.Pipeline <= 0 {
		return nil, fmt.Errorf("funnel: pipeline must be > 0, got %d", config.Pipeline)
	}
	if resolver == nil || prober == nil || extractor == nil {
		return nil, fmt.Errorf("funnel: all three stages are required")
	}
	if gates == nil || collector == nil {
		return nil, fmt.Errorf("funnel: gates and collector are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Funnel{
		pipeline:  config.Pipeline,
		resolver:  resolver,
		prober:    prober,
		extractor: extractor,
		gates:     gates,
		collector: collector,
		log:       logger.Named("funnel"),
	}, nil
}

// Collector returns the run's collector
func (f *Funnel) Collector() *Collector {
	return f.collector
}

// Sink returns the records committed by the last Run
func (f *Funnel) Sink() *Sink {
	if f.sink == nil {
		return NewSink(0)
	}
	return f.sink
}

type result struct {
	rec         entity.DomainRecord
	faulted     bool
	interrupted bool
}

// Run processes domains and returns the committed records in input order.
//
// When ctx is cancelled no new domain is admitted, passes that completed
// before the cancellation are still committed in order, and the committed
// prefix is returned together with ctx.Err().
func (f *Funnel) Run(ctx context.Context, domains []string) ([]entity.DomainRecord, error) {
	f.collector.Begin(len(domains))
	sink := NewSink(len(domains))
	f.sink = sink

	// slots bounds admitted-but-uncommitted passes; pending keeps their
	// results in input order
	slots := make(chan struct{}, f.pipeline)
	pending := make(chan chan result, f.pipeline)

	var g errgroup.Group

	g.Go(func() error {
		defer close(pending)
		for _, domain := range domains {
			domain := domain
			select {
			case <-ctx.Done():
				return nil
			case slots <- struct{}{}:
			}
			if ctx.Err() != nil {
				<-slots
				return nil
			}

			done := make(chan result, 1)
			pending <- done
			g.Go(func() error {
				rec, faulted := f.pass(ctx, domain)
				done <- result{rec: rec, faulted: faulted, interrupted: ctx.Err() != nil}
				return nil
			})
		}
		return nil
	})

	g.Go(func() error {
		stopped := false
		for done := range pending {
			res := <-done
			if res.interrupted {
				stopped = true
			}
			if !stopped {
				sink.Append(res.rec)
				f.collector.Commit(&res.rec, res.faulted)
				f.log.Debug("committed",
					zap.String("domain", res.rec.Domain),
					zap.String("stage", string(res.rec.Stage)),
					zap.Bool("faulted", res.faulted))
			}
			<-slots
		}
		return nil
	})

	_ = g.Wait()
	f.collector.Finish()

	if err := ctx.Err(); err != nil {
		f.log.Warn("run interrupted",
			zap.Int("committed", sink.Len()),
			zap.Int("total", len(domains)))
		return sink.Records(), err
	}
	return sink.Records(), nil
}

// pass runs one domain through the funnel. Any stage error or panic resets
// the record to its initial state and marks it faulted.
func (f *Funnel) pass(ctx context.Context, domain string) (rec entity.DomainRecord, faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("stage panicked",
				zap.String("domain", domain),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			rec, faulted = entity.NewRecord(domain), true
		}
	}()

	fault := func(stage string, err error) (entity.DomainRecord, bool) {
		if ctx.Err() == nil {
			f.log.Warn("stage fault",
				zap.String("domain", domain),
				zap.String("stage", stage),
				zap.Error(err))
		}
		return entity.NewRecord(domain), true
	}

	rec = entity.NewRecord(domain)

	resolved, err := gated(ctx, f.gates.DNS, func(ctx context.Context) (entity.Outcome[entity.Resolution], error) {
		return f.resolver.Resolve(ctx, domain)
	})
	if err != nil {
		return fault("dns", err)
	}
	resolution, ok := resolved.Get()
	if !ok {
		return rec, false
	}
	rec.SetDNS(resolution)

	probed, err := gated(ctx, f.gates.HTTP, func(ctx context.Context) (entity.Outcome[entity.Reachability], error) {
		return f.prober.Probe(ctx, domain)
	})
	if err != nil {
		return fault("http", err)
	}
	reach, ok := probed.Get()
	if !ok {
		return rec, false
	}
	rec.SetHTTP(reach)

	extracted, err := gated(ctx, f.gates.Text, func(ctx context.Context) (entity.Outcome[entity.Text], error) {
		return f.extractor.Extract(ctx, reach.FinalURL)
	})
	if err != nil {
		return fault("text", err)
	}
	text, ok := extracted.Get()
	if !ok {
		return rec, false
	}
	rec.SetText(text)
	return rec, false
}

// gated runs call once admitted by gate
func gated[T any](ctx context.Context, gate *limiter.Limiter, call func(context.Context) (entity.Outcome[T], error)) (entity.Outcome[T], error) {
	var out entity.Outcome[T]
	var callErr error
	if err := gate.Do(ctx, func(ctx context.Context) {
		out, callErr = call(ctx)
	}); err != nil {
		return entity.NotOk[T](), err
	}
	return out, callErr
}
