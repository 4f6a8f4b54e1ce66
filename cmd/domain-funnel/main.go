package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/WangYihang/Domain-Funnel/pkg/common"
	"github.com/WangYihang/Domain-Funnel/pkg/infrastructure/metrics"
	"github.com/WangYihang/Domain-Funnel/pkg/interface/cli"
	"github.com/WangYihang/Domain-Funnel/pkg/interface/presenter"
	"github.com/WangYihang/Domain-Funnel/pkg/logger"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	config, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if config.Version {
		fmt.Println(common.PV.String())
		return
	}

	level := config.LogLevel
	if config.Quiet && (level == "debug" || level == "info") {
		level = "warn"
	}
	log, err := logger.New(logger.Config{Level: level, JSON: config.LogJSON, Version: common.PV.Short()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(config, log); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("run failed", zap.Error(err))
		}
		os.Exit(1)
	}
}

func run(config *cli.Config, log *zap.Logger) error {
	// The TUI owns the terminal; only errors get through
	if config.ShowDashboard {
		log = log.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))
	}

	assembler := cli.NewAssembler(config, log)

	input, err := assembler.LoadInput()
	if err != nil {
		return err
	}

	pipeline, err := assembler.AssembleFunnel()
	if err != nil {
		return err
	}
	pipeline.Recorder.SetTotal(len(input.Domains))
	funnel := pipeline.Funnel
	collector := funnel.Collector()

	if config.MetricsAddr != "" {
		server, err := metrics.Start(config.MetricsAddr, pipeline.Recorder, log)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer server.Close()
	}

	// Setup context with cancellation on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch {
	case config.ShowDashboard:
		dashboard := presenter.NewDashboard(len(input.Domains))
		collector.RegisterMetricsObserver(dashboard)
		collector.RegisterRecordObserver(dashboard)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		p := tea.NewProgram(dashboard, tea.WithAltScreen())

		// Run funnel in background
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, runErr = funnel.Run(ctx, input.Domains)
			p.Quit()
		}()

		// Start TUI; leaving it early stops the run
		if _, err := p.Run(); err != nil {
			log.Error("dashboard failed", zap.Error(err))
		}
		cancel()
		<-done

	default:
		if !config.Quiet {
			collector.RegisterMetricsObserver(presenter.NewConsole(log))
		}
		var bar *presenter.ProgressBar
		if config.ShowProgress {
			bar = presenter.NewProgressBar(len(input.Domains), os.Stderr)
			collector.RegisterRecordObserver(bar)
		}

		log.Info("starting funnel",
			zap.Int("domains", len(input.Domains)),
			zap.String("resolver", config.Resolver),
			zap.Int("pipeline", config.Pipeline))
		_, runErr = funnel.Run(ctx, input.Domains)

		if bar != nil {
			bar.Wait()
		}
	}

	interrupted := errors.Is(runErr, context.Canceled)
	if interrupted {
		log.Warn("interrupted, writing partial results",
			zap.Int("committed", funnel.Sink().Len()),
			zap.Int("total", len(input.Domains)))
	}

	if err := assembler.WriteOutput(funnel.Sink()); err != nil {
		return err
	}

	if !config.Quiet {
		presenter.PrintSummary(os.Stderr, presenter.Summary{
			Snapshot:    collector.Last(),
			Input:       config.InputFile,
			Output:      config.OutputFile,
			Invalid:     input.Stats.Invalid,
			Irregular:   input.Stats.Irregular,
			Duplicates:  input.Stats.Duplicates,
			Interrupted: interrupted,
		})
	}

	return runErr
}
