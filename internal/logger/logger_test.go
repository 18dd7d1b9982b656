package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func decodeEntry(buf *bytes.Buffer) (map[string]interface{}, bool) {
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		return nil, false
	}
	return entry, true
}

// Property: every entry is a JSON object with timestamp, level, message and service
func TestProperty_LogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all log entries are in structured JSON format", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer
			logger := NewWithWriter(zapcore.AddSync(&buf), zapcore.DebugLevel)

			switch level {
			case "debug":
				logger.Debug(message)
			case "info":
				logger.Info(message)
			case "warn":
				logger.Warn(message)
			default:
				logger.Error(message)
			}

			entry, ok := decodeEntry(&buf)
			if !ok {
				return false
			}
			for _, key := range []string{"level", "timestamp", "message", "caller"} {
				if _, ok := entry[key]; !ok {
					t.Logf("FAIL: missing %q", key)
					return false
				}
			}
			return entry["message"] == message &&
				entry["level"] == level &&
				entry["service"] == ServiceName
		},
		gen.AnyString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(zapcore.AddSync(&buf), zapcore.InfoLevel)

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry should be filtered at info level, got %q", buf.String())
	}

	logger.Info("visible")
	if buf.Len() == 0 {
		t.Fatal("info entry should be written")
	}
}

func TestErrorLogsIncludeStacktraceAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(zapcore.AddSync(&buf), zapcore.DebugLevel)

	logger.Error("Failed to load category", zap.String("category_id", "abc"))

	entry, ok := decodeEntry(&buf)
	if !ok {
		t.Fatalf("invalid JSON: %q", buf.String())
	}
	if entry["category_id"] != "abc" {
		t.Errorf("expected category_id field, got %v", entry["category_id"])
	}
	if _, ok := entry["stacktrace"]; !ok {
		t.Error("error entries should carry a stacktrace")
	}
}

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := New(env)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", env, err)
		}
		if logger == nil {
			t.Fatalf("New(%q) returned nil logger", env)
		}
	}
}
