package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"plazabi/internal/auth"
	"plazabi/internal/core"
	"plazabi/internal/export"
	"plazabi/internal/records"
)

// maxImportBytes bounds CSV and bulk-replace payloads.
const maxImportBytes = 10 << 20

var validationErrs = []error{
	core.ErrEmptyDate,
	core.ErrInvalidDate,
	core.ErrEmptyPlaza,
	core.ErrInvalidCategory,
	core.ErrNegativeQuantity,
	core.ErrInvalidHRType,
	core.ErrInvalidIncident,
	core.ErrEmptyObservations,
}

func isValidationErr(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r)
	scoped := f.Apply(s.store.All())
	if c := r.URL.Query().Get("category"); c != "" {
		scoped = core.ByCategory(scoped, core.Category(c))
	}
	writeJSON(w, http.StatusOK, scoped)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var raw core.RawRecord
	if err := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes)).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := s.store.Add(r.Context(), raw)
	if err != nil {
		if isValidationErr(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed creating record", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.viewCache.Purge()
	s.log.LogRecordCreated(r.Context(), rec.ID, rec.PlazaName, string(rec.Category), rec.Date)
	s.audit(r.Context(), s.sessionActor(r.Context()), auth.ActionCreate,
		fmt.Sprintf("Registrou dados de %s em %s", rec.Category, rec.PlazaName))
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed deleting record", "record_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.viewCache.Purge()
	s.audit(r.Context(), s.sessionActor(r.Context()), auth.ActionDelete,
		fmt.Sprintf("Excluiu registro %s", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplaceRecords(w http.ResponseWriter, r *http.Request) {
	var raws []core.RawRecord
	if err := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes)).Decode(&raws); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	n, err := s.store.ReplaceAll(r.Context(), raws)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed replacing records", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.viewCache.Purge()
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	category := core.CategoryOperational
	if c := r.URL.Query().Get("category"); c != "" {
		category = core.Category(c)
		if !category.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
	}

	f := parseFilter(r)
	scoped := core.ByCategory(f.Apply(s.store.All()), category)
	data := export.RecordsCSV(scoped, category)

	s.audit(r.Context(), s.sessionActor(r.Context()), auth.ActionExport,
		fmt.Sprintf("Exportou histórico da aba %s", category))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(category, s.now())))
	w.Write(data)
}

func (s *Server) handleImportEmployees(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed reading body")
		return
	}

	employees := export.ParseEmployeesCSV(data, s.now())
	if len(employees) == 0 {
		writeError(w, http.StatusBadRequest, "no employee rows recognized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"imported":  len(employees),
		"employees": employees,
	})
}
