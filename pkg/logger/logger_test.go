package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(nil)
	if err != nil {
		t.Fatalf("NewLogger with nil config failed: %v", err)
	}
	if log == nil {
		t.Fatal("Expected a logger instance")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid text", Config{Level: InfoLevel, Format: TextFormat}, false},
		{"valid json", Config{Level: DebugLevel, Format: JSONFormat}, false},
		{"bad level", Config{Level: "loud", Format: TextFormat}, true},
		{"bad format", Config{Level: InfoLevel, Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: DebugLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.WithComponent("engine").WithField("cache_hit", true).Info("categorized")

	out := buf.String()
	for _, want := range []string{`"component":"engine"`, `"cache_hit":true`, "categorized"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %s, got %s", want, out)
		}
	}
}

func TestFieldsAccumulateAcrossChaining(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.WithComponent("insights").
		WithFields(Fields{"generator": "anomalies", "count": 1}).
		Info("generated")

	out := buf.String()
	if !strings.Contains(out, `"component":"insights"`) || !strings.Contains(out, `"generator":"anomalies"`) {
		t.Errorf("Expected chained fields to accumulate, got %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: WarnLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.Debug("hidden")
	log.Info("also hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug/info to be filtered, got %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("Expected warn to pass, got %s", out)
	}
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	replacement := Nop()
	SetGlobalLogger(replacement)

	if GetGlobalLogger() != replacement {
		t.Error("Expected global logger to be replaced")
	}
}
