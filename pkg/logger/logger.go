// Package logger builds the process logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and encoding
type Config struct {
	Level   string
	JSON    bool
	Version string
}

// New builds a zap logger. JSON selects the production encoder, otherwise the
// console encoder is used. Unknown levels fall back to info.
func New(c Config) (*zap.Logger, error) {
	var cfg zap.Config
	if c.JSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	level := new(zapcore.Level)
	if err := level.Set(c.Level); err != nil {
		*level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(*level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	var opts []zap.Option
	if c.Version != "" {
		opts = append(opts, zap.Fields(zap.String("version", c.Version)))
	}
	return cfg.Build(opts...)
}
