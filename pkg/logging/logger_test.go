package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}

	if cfg.Service != "posts-api" {
		t.Errorf("Expected default service posts-api, got %q", cfg.Service)
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name    string
		level   LogLevel
		emit    func(zerolog.Logger)
		wantMsg bool
	}{
		{
			name:    "info_level_emits_info",
			level:   LevelInfo,
			emit:    func(l zerolog.Logger) { l.Info().Msg("probe") },
			wantMsg: true,
		},
		{
			name:    "info_level_drops_debug",
			level:   LevelInfo,
			emit:    func(l zerolog.Logger) { l.Debug().Msg("probe") },
			wantMsg: false,
		},
		{
			name:    "debug_level_emits_debug",
			level:   LevelDebug,
			emit:    func(l zerolog.Logger) { l.Debug().Msg("probe") },
			wantMsg: true,
		},
		{
			name:    "error_level_drops_warn",
			level:   LevelError,
			emit:    func(l zerolog.Logger) { l.Warn().Msg("probe") },
			wantMsg: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Output: buf, Service: "posts-api"})

			tt.emit(logger)

			got := strings.Contains(buf.String(), "probe")
			if got != tt.wantMsg {
				t.Errorf("output contains message = %v, want %v (output %q)", got, tt.wantMsg, buf.String())
			}
		})
	}
}

func TestSetup_JSONFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf, Service: "posts-api"})

	logger.Info().Str("tag", "science").Msg("fetched")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["service"] != "posts-api" {
		t.Errorf("service = %v, want posts-api", line["service"])
	}
	if line["tag"] != "science" {
		t.Errorf("tag = %v, want science", line["tag"])
	}
	if _, ok := line["time"]; !ok {
		t.Error("expected a timestamp field")
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Pretty: true, Output: buf})

	logger.Info().Msg("human readable")

	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("pretty output should not be JSON, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "human readable") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{" debug ", zerolog.DebugLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("cache")
	logger.Info().Msg("component probe")

	if !strings.Contains(buf.String(), `"component":"cache"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
}
