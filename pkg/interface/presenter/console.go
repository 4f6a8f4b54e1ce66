package presenter

import (
	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"go.uber.org/zap"
)

// Console logs one line per checkpoint
type Console struct {
	log *zap.Logger
}

// NewConsole creates a console presenter
func NewConsole(logger *zap.Logger) *Console {
	return &Console{log: logger.Named("progress")}
}

// OnMetricsUpdate implements application.MetricsObserver
func (c *Console) OnMetricsUpdate(snap *entity.Snapshot) {
	fields := []zap.Field{
		zap.Int64("processed", snap.Processed),
		zap.Int64("total", snap.Total),
		zap.Duration("elapsed", snap.Elapsed.Round(1e6)),
	}
	for _, st := range snap.Stages {
		fields = append(fields,
			zap.Int64(st.Name+"_ok", st.Succeeded),
			zap.Int64(st.Name+"_fail", st.Failed),
			zap.Float64(st.Name+"_rate", round2(st.Rate)),
		)
	}
	if snap.Faulted > 0 {
		fields = append(fields, zap.Int64("faulted", snap.Faulted))
	}
	fields = append(fields,
		zap.Uint64("rss_mb", snap.Host.ResidentBytes>>20),
		zap.Float64("load1", snap.Host.Load1),
		zap.Int("open_files", snap.Host.OpenFiles),
		zap.Int("goroutines", snap.Host.Goroutines),
	)

	msg := "checkpoint"
	if snap.Final {
		msg = "final checkpoint"
	}
	c.log.Info(msg, fields...)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
