// Package log provides structured logging with request context.
//
// Logger carries structured fields for the protocol layer. Sugar returns
// a printf-style SugaredLogger for changelogctl diagnostics.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/extop/types"
)

// Logger provides structured logging with request context.
// Entries carry the request identity fields of the RequestMeta the logger
// was built with.
type Logger struct {
	zap    *zap.Logger
	level  zap.AtomicLevel
	fields []zap.Field
}

// SugaredLogger provides printf-style logging for command diagnostics.
// It shares the level and request fields of the Logger it came from.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a new logger with request context.
// Output defaults to os.Stderr. A nil meta logs without request fields.
func NewLogger(meta *types.RequestMeta) *Logger {
	return newLoggerWithWriter(meta, os.Stderr)
}

// NewNopLogger returns a logger that discards everything. Library callers
// that do not want output pass this instead of nil.
func NewNopLogger() *Logger {
	return &Logger{zap: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.FatalLevel)}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

// WithOutput returns a new logger with a different output writer.
// Request fields and the level are carried over.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	return build(w, l.level, l.fields)
}

// newLoggerWithWriter creates a logger writing to the specified writer.
func newLoggerWithWriter(meta *types.RequestMeta, w io.Writer) *Logger {
	return build(w, zap.NewAtomicLevelAt(zapcore.DebugLevel), metaFields(meta))
}

func build(w io.Writer, level zap.AtomicLevel, fields []zap.Field) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return &Logger{zap: zap.New(core).With(fields...), level: level, fields: fields}
}

func metaFields(meta *types.RequestMeta) []zap.Field {
	if meta == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("request_id", meta.RequestID),
		zap.String("operation", meta.Operation),
		zap.Int("attempt", meta.Attempt),
	}
	if meta.ResumedFrom != nil {
		fields = append(fields, zap.String("resumed_from", *meta.ResumedFrom))
	}
	return fields
}

// WithRequest returns a child logger carrying meta's request fields.
// The child shares the parent's output and level.
func (l *Logger) WithRequest(meta *types.RequestMeta) *Logger {
	extra := metaFields(meta)
	fields := make([]zap.Field, 0, len(l.fields)+len(extra))
	fields = append(fields, l.fields...)
	fields = append(fields, extra...)
	return &Logger{zap: l.zap.With(extra...), level: l.level, fields: fields}
}

// SetLevel changes the minimum level by name (debug, info, warn, error).
// The change applies to every logger derived from the same root.
func (l *Logger) SetLevel(name string) error {
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// With returns a SugaredLogger with additional key-value context.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
