package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

// LogFields holds structured key/value pairs attached to a log line.
type LogFields map[string]any

// ServiceLogger is the logging contract used by the runtime loop, the
// control-plane client and the invocation hooks. Its shape follows
// watermill.LoggerAdapter so existing adapters plug in directly.
type ServiceLogger interface {
	With(fields LogFields) ServiceLogger
	Debug(msg string, fields LogFields)
	Info(msg string, fields LogFields)
	Error(msg string, err error, fields LogFields)
	Trace(msg string, fields LogFields)
}

// EntryLoggerAdapter is satisfied by entry-style loggers such as *logrus.Entry
// whose builder methods return their own type.
type EntryLoggerAdapter[T any] interface {
	Error(args ...any)
	Info(args ...any)
	Debug(args ...any)
	Trace(args ...any)
	WithError(err error) T
	WithField(key string, value any) T
}

// Field names shared by every log line emitted for an invocation.
const (
	FieldRequestID    = "request_id"
	FieldFunctionARN  = "function_arn"
	FieldTraceID      = "trace_id"
	FieldFunctionName = "function_name"
	FieldVersion      = "function_version"
	FieldOutcome      = "outcome"
	FieldDuration     = "duration"
	FieldErrorType    = "error_type"
)

// Options configures the default loggers.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// JSON switches the output from logfmt-style text to JSON lines.
	JSON bool
	// Output defaults to os.Stdout, which Lambda forwards to CloudWatch.
	Output io.Writer
}

var slogLevels = map[slog.Level]slog.Level{
	slog.LevelDebug: slog.LevelDebug,
	slog.LevelInfo:  slog.LevelInfo,
	slog.LevelWarn:  slog.LevelWarn,
	slog.LevelError: slog.LevelError,
}

// NewDefaultLogger builds the slog-backed logger used when the caller does not
// supply one.
func NewDefaultLogger(opts Options) ServiceLogger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: parseSlogLevel(opts.Level)}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return NewSlogServiceLogger(slog.New(handler))
}

// NewLogrusLogger builds a logrus-backed logger with the same options as
// NewDefaultLogger.
func NewLogrusLogger(opts Options) ServiceLogger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(parseLogrusLevel(opts.Level))
	fieldMap := logrus.FieldMap{
		logrus.FieldKeyTime:  "time",
		logrus.FieldKeyLevel: "level",
		logrus.FieldKeyMsg:   "msg",
	}
	if opts.JSON {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano, FieldMap: fieldMap})
	} else {
		base.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339Nano, FieldMap: fieldMap, DisableColors: true})
	}
	return NewEntryServiceLogger(logrus.NewEntry(base))
}

// NewSlogServiceLogger adapts a slog.Logger.
func NewSlogServiceLogger(log *slog.Logger) ServiceLogger {
	if log == nil {
		panic("lambdaflow: slog logger cannot be nil")
	}
	return NewWatermillServiceLogger(watermill.NewSlogLoggerWithLevelMapping(log, slogLevels))
}

// NewWatermillServiceLogger adapts a watermill.LoggerAdapter.
func NewWatermillServiceLogger(logger watermill.LoggerAdapter) ServiceLogger {
	if logger == nil {
		panic("lambdaflow: watermill logger cannot be nil")
	}
	return &watermillLogger{inner: logger}
}

// NewEntryServiceLogger adapts an entry-style logger such as *logrus.Entry.
func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	if any(entry) == nil {
		panic("lambdaflow: entry logger cannot be nil")
	}
	return &entryLogger[T]{entry: entry}
}

// NewWatermillAdapter exposes a ServiceLogger as a watermill.LoggerAdapter.
func NewWatermillAdapter(log ServiceLogger) watermill.LoggerAdapter {
	if log == nil {
		panic("lambdaflow: service logger cannot be nil")
	}
	return &watermillAdapter{base: log}
}

// Nop discards everything.
func Nop() ServiceLogger {
	return NewWatermillServiceLogger(watermill.NopLogger{})
}

type watermillLogger struct {
	inner watermill.LoggerAdapter
}

func (w *watermillLogger) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return w
	}
	return &watermillLogger{inner: w.inner.With(watermill.LogFields(fields))}
}

func (w *watermillLogger) Debug(msg string, fields LogFields) {
	w.inner.Debug(msg, toWatermill(fields))
}

func (w *watermillLogger) Info(msg string, fields LogFields) {
	w.inner.Info(msg, toWatermill(fields))
}

func (w *watermillLogger) Error(msg string, err error, fields LogFields) {
	w.inner.Error(msg, err, toWatermill(fields))
}

func (w *watermillLogger) Trace(msg string, fields LogFields) {
	w.inner.Trace(msg, toWatermill(fields))
}

type entryLogger[T EntryLoggerAdapter[T]] struct {
	entry T
}

func (e *entryLogger[T]) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return e
	}
	return &entryLogger[T]{entry: withEntryFields(e.entry, fields)}
}

func (e *entryLogger[T]) Debug(msg string, fields LogFields) {
	withEntryFields(e.entry, fields).Debug(msg)
}

func (e *entryLogger[T]) Info(msg string, fields LogFields) {
	withEntryFields(e.entry, fields).Info(msg)
}

func (e *entryLogger[T]) Error(msg string, err error, fields LogFields) {
	entry := withEntryFields(e.entry, fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func (e *entryLogger[T]) Trace(msg string, fields LogFields) {
	withEntryFields(e.entry, fields).Trace(msg)
}

type watermillAdapter struct {
	base ServiceLogger
}

func (a *watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.base.Error(msg, err, fromWatermill(fields))
}

func (a *watermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.base.Info(msg, fromWatermill(fields))
}

func (a *watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.base.Debug(msg, fromWatermill(fields))
}

func (a *watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.base.Trace(msg, fromWatermill(fields))
}

func (a *watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillAdapter{base: a.base.With(fromWatermill(fields))}
}

func toWatermill(fields LogFields) watermill.LogFields {
	if len(fields) == 0 {
		return nil
	}
	return watermill.LogFields(fields)
}

func fromWatermill(fields watermill.LogFields) LogFields {
	if len(fields) == 0 {
		return nil
	}
	return LogFields(fields)
}

func withEntryFields[T EntryLoggerAdapter[T]](entry T, fields LogFields) T {
	if len(fields) == 0 || any(entry) == nil {
		return entry
	}
	out := entry
	for key, value := range fields {
		out = out.WithField(key, value)
	}
	return out
}

func parseSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
