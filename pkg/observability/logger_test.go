package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"DEBUG":   DebugLevel,
		"debug":   DebugLevel,
		"WARN":    WarnLevel,
		"ERROR":   ErrorLevel,
		"INFO":    InfoLevel,
		"unknown": InfoLevel,
	}
	for input, want := range cases {
		if got := ParseLogLevel(input); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(InfoLevel, &buf)

	log.WithField("format", "protobuf").Info("analysis complete")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "analysis complete" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["format"] != "protobuf" {
		t.Errorf("format field = %v", entry["format"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(WarnLevel, &buf)

	log.Debug("hidden")
	log.Info("also hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("messages below the level should be suppressed")
	}
	if !strings.Contains(out, "visible") {
		t.Error("warn message should be logged")
	}
}

func TestLogger_WithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(DebugLevel, &buf)

	log.WithFields(map[string]interface{}{"score": 85, "compatible": true}).
		WithError(errors.New("boom")).
		Error("analysis failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["score"] != float64(85) {
		t.Errorf("score = %v", entry["score"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if entry["msg"] != "analysis failed" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestLogger_WithErrorNil(t *testing.T) {
	log := NewLogger(InfoLevel, &bytes.Buffer{})
	if log.WithError(nil) != log {
		t.Error("WithError(nil) should return the same logger")
	}
}
