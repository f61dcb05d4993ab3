package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"plazabi/internal/auth"
	"plazabi/internal/core"
	"plazabi/internal/storage"
)

// serveView writes a cached dashboard view, computing and caching it on miss.
func (s *Server) serveView(w http.ResponseWriter, r *http.Request, key string, compute func() any) {
	if data, ok := s.viewCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write(data)
		return
	}

	data, err := json.Marshal(compute())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed marshaling dashboard view", "view", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.viewCache.Set(key, data)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.serveView(w, r, "overview", func() any {
		return core.Overview(s.store.All(), s.now())
	})
}

func (s *Server) handleOperational(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)
	s.serveView(w, r, filterKey("operational", f), func() any {
		return core.Operational(s.store.All(), f)
	})
}

func (s *Server) handleSafety(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)
	s.serveView(w, r, filterKey("safety", f), func() any {
		return core.Safety(s.store.All(), f, s.now())
	})
}

func (s *Server) handleESG(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)
	s.serveView(w, r, filterKey("esg", f), func() any {
		return core.ESG(s.store.All(), f)
	})
}

func (s *Server) handleHR(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)
	s.serveView(w, r, filterKey("hr", f), func() any {
		return core.HR(s.store.All(), f)
	})
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, []core.Employee{})
		return
	}

	employees, err := s.db.ListEmployees(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed listing employees", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// handleRecordsIndex exposes the SQLite records index mirror. Admin only:
// the raw database view is a sensitive surface.
func (s *Server) handleRecordsIndex(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	if s.db == nil {
		writeJSON(w, http.StatusOK, []storage.IndexEntry{})
		return
	}

	entries, err := s.db.ListIndex(r.Context(), 500)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed listing records index", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.audit(r.Context(), actor, auth.ActionViewSensitive, "Visualizou o espelho do banco de dados")
	writeJSON(w, http.StatusOK, entries)
}
