// Package obslog provides a structured-logging implementation of
// join.Logger backed by zap.
package obslog

import (
	"go.uber.org/zap"

	"github.com/arcflow/joincore/internal/join"
)

// ZapLogger adapts a *zap.SugaredLogger to join.Logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New wraps an existing zap logger.
func New(base *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: base.Sugar()}
}

// NewProduction builds a ZapLogger using zap's production encoder config
// (JSON output, ISO8601 timestamps), falling back to a no-op zap core if
// construction fails.
func NewProduction() *ZapLogger {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	return New(base)
}

// NewDevelopment builds a ZapLogger using zap's development encoder
// config (console output, stack traces on warn+).
func NewDevelopment() *ZapLogger {
	base, err := zap.NewDevelopment()
	if err != nil {
		base = zap.NewNop()
	}
	return New(base)
}

func (l *ZapLogger) Debugf(format string, v ...any) { l.sugar.Debugf(format, v...) }
func (l *ZapLogger) Infof(format string, v ...any)  { l.sugar.Infof(format, v...) }
func (l *ZapLogger) Warnf(format string, v ...any)  { l.sugar.Warnf(format, v...) }
func (l *ZapLogger) Errorf(format string, v ...any) { l.sugar.Errorf(format, v...) }

// Sync flushes any buffered log entries, typically deferred right after
// construction.
func (l *ZapLogger) Sync() error { return l.sugar.Sync() }

var _ join.Logger = (*ZapLogger)(nil)
