package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromSlogCarriesComponentAndLevel(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger := FromSlog(base, ComponentHTTP)
	if logger.Component() != ComponentHTTP {
		t.Errorf("Component() = %q", logger.Component())
	}

	logger.Info("ignored at warn level")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "ignored at warn level") {
		t.Error("info line leaked past the handler level")
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "component=http") {
		t.Errorf("output = %q, want warn line with component field", out)
	}
}

func TestStructuredLoggerHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sl := NewStructuredLogger(FromSlog(base, ComponentHTTP))

	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	sl.LogHTTPEnd(r.Context(), r, "req_x", 502, 12, "10.0.0.1")

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("5xx should log at error, got %q", out)
	}
	if !strings.Contains(out, "status_code=502") || !strings.Contains(out, "request_id=req_x") {
		t.Errorf("missing response fields in %q", out)
	}
}
