package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// decodeLine parses one JSON log line from the buffer.
func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not valid JSON: %v\n%s", err, buf.String())
	}
	return line
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "debug"},
		{InfoLevel, "info"},
		{WarnLevel, "warn"},
		{ErrorLevel, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"", InfoLevel},
		{"loud", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogLineShape(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("option set", Option("transaction_size_limit_bytes"), Int64("value", 1000))

	line := decodeLine(t, &buf)
	if line["msg"] != "option set" {
		t.Errorf("msg = %v", line["msg"])
	}
	if line["level"] != "info" {
		t.Errorf("level = %v", line["level"])
	}
	if line["option"] != "transaction_size_limit_bytes" {
		t.Errorf("option field = %v", line["option"])
	}
	if line["value"] != float64(1000) {
		t.Errorf("value field = %v", line["value"])
	}
	if _, ok := line["ts"]; !ok {
		t.Error("log line has no timestamp")
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("log line is not newline-terminated")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("lines below the minimum level were written: %s", buf.String())
	}

	logger.Warn("kept")
	logger.Error("kept")
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("wrote %d lines, want 2", got)
	}
}

func TestWithInheritsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("server")).With(TxnID("txn-1"))
	child.Info("commit applied", Code(0))

	line := decodeLine(t, &buf)
	if line["component"] != "server" {
		t.Errorf("component = %v", line["component"])
	}
	if line["txn_id"] != "txn-1" {
		t.Errorf("txn_id = %v", line["txn_id"])
	}
	if line["code"] != float64(0) {
		t.Errorf("code = %v", line["code"])
	}

	// The parent does not pick up the child's fields.
	buf.Reset()
	logger.Info("plain")
	line = decodeLine(t, &buf)
	if _, ok := line["component"]; ok {
		t.Error("parent logger leaked a child field")
	}
}

func TestPerCallFieldWinsOverBase(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel).With(Component("client"))

	logger.Info("reassigned", Component("conformance"))

	line := decodeLine(t, &buf)
	if line["component"] != "conformance" {
		t.Errorf("component = %v, want the per-call value", line["component"])
	}
}

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("service", "kvconform"), "service", "kvconform"},
		{"Int", Int("n", 7), "n", 7},
		{"Int64", Int64("bytes", int64(1024)), "bytes", int64(1024)},
		{"Uint64", Uint64("version", uint64(3)), "version", uint64(3)},
		{"Bool", Bool("passed", true), "passed", true},
		{"Duration", Duration("elapsed", 1500 * time.Millisecond), "elapsed", "1.5s"},
		{"Error", Error(errors.New("boom")), "error", "boom"},
		{"Component", Component("store"), "component", "store"},
		{"Endpoint", Endpoint("inproc://run"), "endpoint", "inproc://run"},
		{"Step", Step("roundtrip-under-default-limit"), "step", "roundtrip-under-default-limit"},
		{"Option", Option("transaction_retry_limit"), "option", "transaction_retry_limit"},
		{"TxnID", TxnID("txn-9"), "txn_id", "txn-9"},
		{"Key", Key([]byte("t1")), "key", "t1"},
		{"Code", Code(2101), "code", 2101},
		{"SizeBytes", SizeBytes(1026), "size_bytes", int64(1026)},
		{"Operation", Operation("commit"), "operation", "commit"},
		{"Latency", Latency(2 * time.Millisecond), "latency", "2ms"},
		{"Count", Count(3), "count", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("Value = %v, want %v", tt.field.Value, tt.value)
			}
		})
	}
}

func TestNilErrorField(t *testing.T) {
	f := Error(nil)
	if f.Key != "error" || f.Value != nil {
		t.Errorf("Error(nil) = %+v, want a nil-valued error field", f)
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("discarded", Component("test"))
	if child := logger.With(Component("child")); child == nil {
		t.Error("NopLogger.With returned nil")
	}
}

func TestDefaultLoggerIsShared(t *testing.T) {
	if DefaultLogger() != DefaultLogger() {
		t.Error("DefaultLogger returned different instances")
	}
}
