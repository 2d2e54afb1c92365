package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/unimeet/match-core/internal/config"
)

// captureOutput points the global logger at a buffer for the duration of f.
func captureOutput(t *testing.T, c Config, f func()) string {
	t.Helper()

	var buf bytes.Buffer
	c.Output = &buf
	Init(&c)
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	f()
	return buf.String()
}

func TestLogger_TextFormat(t *testing.T) {
	out := captureOutput(t, Config{Level: "debug", Format: FormatText, Component: "test"}, func() {
		Info("hello unimeet", "key", "value")
	})

	if !strings.Contains(out, "hello unimeet") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	out := captureOutput(t, Config{Level: "info", Format: FormatJSON, Component: "json_test"}, func() {
		Info("json log", "foo", "bar")
	})

	if !strings.Contains(out, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", out)
	}
	if !strings.Contains(out, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	out := captureOutput(t, Config{Level: "error", Format: FormatText}, func() {
		Info("should not appear")
		Error("should appear")
	})

	if strings.Contains(out, "should not appear") {
		t.Errorf("info log should not appear, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("error log should appear, got: %s", out)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	out := captureOutput(t, Config{Level: "debug", Format: FormatText}, func() {
		With("req_id", "123").Info("processing request")
	})

	if !strings.Contains(out, "req_id=123") {
		t.Errorf("expected req_id field, got: %s", out)
	}
}

func TestLogger_ContextLogger(t *testing.T) {
	out := captureOutput(t, Config{Level: "debug", Format: FormatText}, func() {
		ctx := NewContext(context.Background(), With("user_id", "42"))
		FromContext(ctx, nil).Info("scoped")
	})

	if !strings.Contains(out, "user_id=42") {
		t.Errorf("expected context logger fields, got: %s", out)
	}
}

func TestLogger_InitFromConfig(t *testing.T) {
	c := config.New()
	c.Log.Level = "debug"
	c.Log.Format = "json"
	c.Log.Component = "cfg_test"

	InitFromConfig(c)
	// InitFromConfig writes to stdout; re-point the same settings at a buffer.
	out := captureOutput(t, cfg, func() {
		Debug("cfg-based log")
	})

	if !strings.Contains(out, `"msg":"cfg-based log"`) {
		t.Errorf("expected config-based JSON log, got: %s", out)
	}
	if !strings.Contains(out, `"component":"cfg_test"`) {
		t.Errorf("expected component from config, got: %s", out)
	}
}
