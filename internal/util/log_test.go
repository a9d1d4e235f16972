package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"trace": LevelTrace,
		"TRACE": LevelTrace,
		"debug": LevelDebug,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
	}

	for input, want := range tests {
		if got := ParseLogLevel(input); got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}

	if got := ParseLogLevel("unknown"); got != LevelInfo {
		t.Fatalf("ParseLogLevel default = %v, want %v", got, LevelInfo)
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LevelInfo, &buf)

	logger.Tracef("trace line")
	logger.Debugf("debug line")
	logger.Infof("info line")
	logger.Errorf("error line")

	out := buf.String()
	if strings.Contains(out, "trace line") || strings.Contains(out, "debug line") {
		t.Fatalf("expected trace/debug suppressed at info level, got %q", out)
	}
	if !strings.Contains(out, "[INFO] info line") {
		t.Fatalf("expected info line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] error line") {
		t.Fatalf("expected error line, got %q", out)
	}

	buf.Reset()
	logger.SetLevel(LevelTrace)
	logger.Tracef("now visible")
	if !strings.Contains(buf.String(), "[TRACE] now visible") {
		t.Fatalf("expected trace line after SetLevel, got %q", buf.String())
	}
}
