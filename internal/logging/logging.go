// Package logging builds the process-wide zap logger. Subsystems take
// named sugared children ("router", "jocp", ...) so log lines identify
// their origin.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the root sugared logger. Debug enables per-sample tracing
// on the dispatch paths, which is far too chatty for normal runs.
func New(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
