package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"plazabi/internal/core"
)

// parseFilter extracts the dashboard filter from query parameters.
// Absent dimensions default to the widest scope: all months, all years,
// consolidated segment.
func parseFilter(r *http.Request) core.Filter {
	q := r.URL.Query()

	f := core.Filter{
		Month:   core.FilterAll,
		Year:    core.FilterAll,
		Segment: core.SegmentConsolidado,
	}

	if v := strings.TrimSpace(q.Get("month")); v != "" {
		f.Month = v
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		f.Year = v
	}
	if v := strings.TrimSpace(q.Get("segment")); v != "" {
		f.Segment = core.Segment(v)
	}
	if v := strings.TrimSpace(q.Get("plazas")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				f.Plazas = append(f.Plazas, p)
			}
		}
	}
	f.Search = sanitizeInput(q.Get("q"))

	return f
}

// filterKey builds a stable cache key for a view under a given filter.
func filterKey(view string, f core.Filter) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		view, f.Month, f.Year, f.Segment, strings.Join(f.Plazas, ","), f.Search)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
