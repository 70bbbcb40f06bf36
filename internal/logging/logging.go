// Package logging provides the structured logger shared by every binary in
// the elevator system. It mirrors the Field-based ergonomics of the
// teacher's hand-rolled logger (component-scoped, With(...)-chained) but is
// backed by zap instead of a bespoke formatter.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseOnce sync.Once
	base     *zap.Logger
)

func root() *zap.Logger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		l, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			// Fall back to a bare logger; logging must never block startup.
			l = zap.NewNop()
		}
		base = l
	})
	return base
}

// Logger is a component-scoped wrapper around *zap.Logger.
type Logger struct {
	z *zap.Logger
}

// DefaultLogger returns a logger scoped to component, e.g. "car", "safety",
// "controller".
func DefaultLogger(component string) *Logger {
	return &Logger{z: root().With(zap.String("component", component))}
}

// With returns a derived logger carrying additional fields on every call.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)   { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)   { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field)  { l.z.Error(msg, fields...) }

// Fatal logs at error level, flushes the log, and exits 1. The car binary
// uses it when it cannot create its shared region.
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.z.Error(msg, fields...)
	_ = l.z.Sync()
	os.Exit(1)
}

// Sync flushes buffered log entries; call before process exit.
func (l *Logger) Sync() error { return l.z.Sync() }

// Field constructors re-exported for call sites that don't want to import
// zap directly.
var (
	String = zap.String
	Int    = zap.Int
	Err    = zap.Error
	Bool   = zap.Bool
)
