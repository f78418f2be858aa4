// Package telemetry supplies the logging and metrics seams used throughout
// the simulator. The Logger interface keeps call sites free of a direct
// zerolog import, the way eventloop's own logging.go decouples its package
// from any one logging library — but unlike eventloop, this package actually
// wires a concrete backend (zerolog), because nothing downstream ever
// supplies its own.
package telemetry

import (
	"io"

	"github.com/rs/zerolog"
)

// Level is a logging severity, ordered least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ParseLevel maps a CLI flag value to a Level, defaulting to LevelInfo for
// anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a single structured key/value attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F builds a Field, for terser call sites: telemetry.F("entity", e).
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger is the structured-logging seam every package in this module logs
// through. Call sites never see zerolog directly.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	WithComponent(name string) Logger
}

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a Logger writing to w at the given minimum level.
func NewZerologLogger(w io.Writer, level Level) Logger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(level.zerologLevel())
	return &zerologLogger{logger: zl}
}

func applyFields(e *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		e = e.Interface(f.Key, f.Value)
	}
	return e
}

func (l *zerologLogger) Debug(msg string, fields ...Field) {
	applyFields(l.logger.Debug(), fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...Field) {
	applyFields(l.logger.Info(), fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...Field) {
	applyFields(l.logger.Warn(), fields).Msg(msg)
}

func (l *zerologLogger) Error(msg string, err error, fields ...Field) {
	applyFields(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l *zerologLogger) WithComponent(name string) Logger {
	return &zerologLogger{logger: l.logger.With().Str("component", name).Logger()}
}
