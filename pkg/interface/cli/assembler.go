package cli

import (
	"context"
	"fmt"
	"net"

	"github.com/WangYihang/Domain-Funnel/pkg/application"
	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/WangYihang/Domain-Funnel/pkg/infrastructure/dns"
	"github.com/WangYihang/Domain-Funnel/pkg/infrastructure/http"
	"github.com/WangYihang/Domain-Funnel/pkg/infrastructure/metrics"
	"github.com/WangYihang/Domain-Funnel/pkg/infrastructure/storage"
	"github.com/WangYihang/Domain-Funnel/pkg/infrastructure/sysinfo"
	"go.uber.org/zap"
)

// Assembler assembles all components for the application
type Assembler struct {
	config *Config
	log    *zap.Logger
	dial   func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewAssembler creates a new assembler
func NewAssembler(config *Config, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{config: config, log: logger}
}

// WithDialContext routes HTTP connections through dial
func (a *Assembler) WithDialContext(dial func(ctx context.Context, network, addr string) (net.Conn, error)) *Assembler {
	a.dial = dial
	return a
}

// Input is the loaded domain batch
type Input struct {
	Domains []string
	Stats   storage.ReadStats
}

// LoadInput reads and cleans the input batch
func (a *Assembler) LoadInput() (*Input, error) {
	reader, err := storage.OpenReader(a.config.InputFile, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer reader.Close()

	domains, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	stats := reader.Stats()
	a.log.Info("input loaded",
		zap.String("file", a.config.InputFile),
		zap.String("format", string(reader.Format())),
		zap.Int("rows", stats.Rows),
		zap.Int("domains", stats.Kept),
		zap.Int("invalid", stats.Invalid),
		zap.Int("irregular", stats.Irregular),
		zap.Int("duplicates", stats.Duplicates))

	return &Input{Domains: domains, Stats: stats}, nil
}

// Pipeline is a funnel with its observability wired in
type Pipeline struct {
	Funnel   *application.Funnel
	Gates    *application.Gates
	Recorder *metrics.Recorder
}

// AssembleFunnel assembles the funnel with all dependencies
func (a *Assembler) AssembleFunnel() (*Pipeline, error) {
	resolver, err := dns.NewResolver(dns.Config{
		Server:  a.config.Resolver,
		Timeout: a.config.Timeout,
		Logger:  a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	client, err := http.NewClient(http.ClientConfig{
		Timeout:         a.config.Timeout,
		MaxRedirects:    a.config.MaxRedirects,
		MaxResponseSize: a.config.MaxResponseSize,
		UserAgent:       a.config.UserAgent,
		VerifyTLS:       a.config.VerifyTLS,
		DialContext:     a.dial,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	prober := http.NewProber(client, a.log)
	extractor, err := http.NewTextExtractor(client, http.TextBounds{
		Min: a.config.TextMin,
		Max: a.config.TextMax,
	}, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	gates, err := application.NewGates(
		a.config.DNSConcurrency,
		a.config.HTTPConcurrency,
		a.config.TextConcurrency,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiters: %w", err)
	}

	recorder := metrics.NewRecorder()
	for _, gate := range gates.All() {
		recorder.WatchLimiter(gate)
	}

	collector := application.NewCollector(application.CollectorConfig{
		Interval: a.config.LogInterval,
		Sampler:  sysinfo.NewProcSampler(),
	})
	collector.RegisterRecordObserver(recorder)
	collector.RegisterMetricsObserver(recorder)

	funnel, err := application.NewFunnel(
		application.Config{Pipeline: a.config.Pipeline},
		resolver,
		prober,
		extractor,
		gates,
		collector,
		a.log,
	)
	if err != nil {
		return nil, err
	}

	return &Pipeline{Funnel: funnel, Gates: gates, Recorder: recorder}, nil
}

// WriteOutput hands the committed records to the output writer in one batch
func (a *Assembler) WriteOutput(sink *application.Sink) error {
	writer, err := storage.NewWriter(a.config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := sink.Flush(writer); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	a.log.Info("output written",
		zap.String("file", a.config.OutputFile),
		zap.Int("records", sink.Len()),
		zap.Int("text_ok", countStage(sink.Records(), entity.StageText)))
	return nil
}

func countStage(records []entity.DomainRecord, stage entity.Stage) int {
	n := 0
	for i := range records {
		if records[i].Stage == stage {
			n++
		}
	}
	return n
}
