package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/t569/scanapi/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")

	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("Expected info message in output, got: %s", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRequestID(ctx, "req-123")
	ctx = logging.WithEndpoint(ctx, "menu")
	ctx = logging.WithOperation(ctx, "fetch")

	logging.FromContext(ctx).Info().Msg("test message")

	testLogger.AssertContains(t, "req-123")
	testLogger.AssertContains(t, "menu")
	testLogger.AssertContains(t, "fetch")
	testLogger.AssertContains(t, "test message")

	if got := logging.RequestID(ctx); got != "req-123" {
		t.Errorf("RequestID() = %q, want req-123", got)
	}
}

func TestFromContext_Default(t *testing.T) {
	//nolint:staticcheck // nil context is exercised on purpose
	if logging.FromContext(nil) != logging.Default() {
		t.Error("FromContext(nil) should return the default logger")
	}
	if logging.FromContext(context.Background()) != logging.Default() {
		t.Error("FromContext without logger should return the default logger")
	}
}

func TestNewLoggerFromConfig_JSONFields(t *testing.T) {
	old := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(old)

	cfg := &logging.Config{
		Level:  "warn",
		Format: "json",
		Output: "discard",
		Fields: map[string]any{"service": "scanapi"},
	}
	logger := logging.NewLoggerFromConfig(cfg)

	if logger.GetLevel() != zerolog.WarnLevel {
		t.Errorf("level = %v, want warn", logger.GetLevel())
	}
}

func TestNewLoggerFromConfig_Levels(t *testing.T) {
	old := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(old)

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := logging.NewLoggerFromConfig(&logging.Config{Level: tt.level, Output: "discard", Format: "json"})
			if logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestNew_WritesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(buf)
	logger.Error().Str("endpoint", "menu").Msg("boom")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["endpoint"] != "menu" {
		t.Errorf("endpoint field = %v, want menu", entry["endpoint"])
	}
}

func TestWithComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	base := zerolog.New(buf)
	logger := logging.WithComponent(&base, "registry")
	logger.Info().Msg("opened")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "registry" {
		t.Errorf("component field = %v, want registry", entry["component"])
	}
}
