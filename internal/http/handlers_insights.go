package http

import (
	"net/http"

	"plazabi/internal/core"
)

// handleInsights generates a narrative analysis of the operational records in
// scope. Generation failures surface as the fallback message, never an error.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)
	scoped := core.ByCategory(f.Apply(s.store.All()), core.CategoryOperational)

	text := s.insights.OperationalInsights(r.Context(), scoped)
	writeJSON(w, http.StatusOK, map[string]string{"insights": text})
}
