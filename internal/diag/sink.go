// Package diag is the injected diagnostics surface of the metrics pipeline.
// Components write structured events to a Sink handed to them explicitly;
// there is no package-level logger and no implicit configuration.
package diag

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink receives structured diagnostic events. *zap.SugaredLogger satisfies
// it directly; tests use Nop or a capturing fake.
type Sink interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// Nop discards every event.
type Nop struct{}

func (Nop) Debugw(string, ...interface{}) {}
func (Nop) Infow(string, ...interface{})  {}
func (Nop) Warnw(string, ...interface{})  {}
func (Nop) Errorw(string, ...interface{}) {}

// NewZapSink builds a production zap logger at the given level and returns
// it as a Sink together with its flush function.
func NewZapSink(level string, development bool) (Sink, func(), error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	flush := func() { _ = logger.Sync() }
	return logger.Sugar(), flush, nil
}
