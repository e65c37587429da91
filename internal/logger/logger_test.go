package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-api-client/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriterEmitsJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.Config{LogLevel: "warn"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}

	log.Info("hidden")
	log.Warn("shown")
	if err := Close(log); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info entry should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"ts":`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}
