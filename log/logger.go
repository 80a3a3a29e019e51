// Package log provides structured logging with session context.
//
// Two logger variants are available:
//   - Logger: non-sugared zap.Logger for the runtime's hot/warm paths
//   - SugaredLogger: printf-style logging for offline helpers and tools
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with session/process context attached once at
// construction.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger wraps zap.SugaredLogger for printf-style call sites.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// Session identifies the runtime session a Logger's entries belong to.
type Session struct {
	SessionID uint64
	ProcessID int64
}

// NewLogger creates a new logger with session context. Output defaults to
// os.Stderr.
func NewLogger(session Session) *Logger {
	return newLoggerWithWriter(session, os.Stderr)
}

// WithOutput returns a new logger with a different output writer. The
// returned logger's core is built fresh, so its entries do not carry the
// session_id and process_id fields.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), zapcore.DebugLevel)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
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

func newLoggerWithWriter(session Session, w io.Writer) *Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(w), zapcore.DebugLevel)
	zapLogger := zap.New(core).With(
		zap.Uint64("session_id", session.SessionID),
		zap.Int64("process_id", session.ProcessID),
	)
	return &Logger{zap: zapLogger}
}

func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger { return &SugaredLogger{sugar: l.zap.Sugar()} }

func (s *SugaredLogger) Debugf(template string, args ...any) { s.sugar.Debugf(template, args...) }
func (s *SugaredLogger) Infof(template string, args ...any)  { s.sugar.Infof(template, args...) }
func (s *SugaredLogger) Warnf(template string, args ...any)  { s.sugar.Warnf(template, args...) }
func (s *SugaredLogger) Errorf(template string, args ...any) { s.sugar.Errorf(template, args...) }

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
