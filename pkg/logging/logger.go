// Package logging is the structured JSON logger used across the harness.
// Log lines are single JSON objects with the fields inlined, so a run's
// output can be filtered with jq by step, component or transaction ID.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name to its Level, defaulting to info for names
// it does not know.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel
	case "warn", "warning", "WARN", "WARNING":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field is one key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging surface the harness components accept.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger carrying the given fields on every line.
	With(fields ...Field) Logger
}

// JSONLogger writes one JSON object per line. Child loggers from With share
// the writer and level with their parent.
type JSONLogger struct {
	mu   sync.Mutex
	out  io.Writer
	min  Level
	base []Field
}

// NewJSONLogger creates a logger writing to out at the given minimum level.
func NewJSONLogger(out io.Writer, min Level) *JSONLogger {
	return &JSONLogger{out: out, min: min}
}

// NewDefaultLogger creates a logger writing to stdout at info level.
func NewDefaultLogger() *JSONLogger {
	return NewJSONLogger(os.Stdout, InfoLevel)
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.emit(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.emit(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.emit(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.emit(ErrorLevel, msg, fields) }

// With returns a child logger carrying fields on every line it writes.
func (l *JSONLogger) With(fields ...Field) Logger {
	child := &JSONLogger{out: l.out, min: l.min}
	child.base = append(append(child.base, l.base...), fields...)
	return child
}

func (l *JSONLogger) emit(level Level, msg string, fields []Field) {
	if level < l.min {
		return
	}

	line := make(map[string]any, len(l.base)+len(fields)+3)
	for _, f := range l.base {
		line[f.Key] = f.Value
	}
	for _, f := range fields {
		line[f.Key] = f.Value
	}
	line["ts"] = time.Now().Format(time.RFC3339Nano)
	line["level"] = level.String()
	line["msg"] = msg

	data, err := json.Marshal(line)
	if err != nil {
		l.mu.Lock()
		fmt.Fprintf(l.out, `{"level":"error","msg":"unencodable log line: %v"}`+"\n", err)
		l.mu.Unlock()
		return
	}

	l.mu.Lock()
	l.out.Write(append(data, '\n'))
	l.mu.Unlock()
}

// NopLogger discards everything. It is the default for components whose
// caller never wires a logger.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }

// NewNopLogger returns a logger that discards all output.
func NewNopLogger() Logger {
	return NopLogger{}
}

var (
	defaultLogger Logger
	defaultOnce   sync.Once
)

// DefaultLogger returns the shared process logger: stdout JSON, level taken
// from LOG_LEVEL when set.
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		defaultLogger = NewJSONLogger(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
	})
	return defaultLogger
}

// With returns a child of the shared process logger.
func With(fields ...Field) Logger {
	return DefaultLogger().With(fields...)
}
