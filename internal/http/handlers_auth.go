package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"plazabi/internal/auth"
)

// sessionActor resolves the active session, returning the zero user when
// anonymous. Audit writes for the zero user are dropped by the service.
func (s *Server) sessionActor(ctx context.Context) auth.User {
	actor, err := s.auth.Session(ctx)
	if err != nil {
		return auth.User{}
	}
	return actor
}

// audit records a sensitive action, swallowing failures: the primary
// operation already succeeded.
func (s *Server) audit(ctx context.Context, actor auth.User, action, target string) {
	if err := s.auth.LogAction(ctx, actor, action, target); err != nil {
		slog.ErrorContext(ctx, "Failed to write audit entry", "action", action, "error", err)
	}
}

// authStatus maps service errors to HTTP status codes.
func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUserBlocked), errors.Is(err, auth.ErrUserPending):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrTermsNotAccepted):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	status := authStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Auth operation failed", "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// requireAdmin resolves the active session and rejects non-admin actors.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	actor, err := s.auth.Session(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return auth.User{}, false
	}
	if actor.Role != auth.RoleAdmin {
		writeError(w, http.StatusForbidden, "acesso restrito a administradores")
		return auth.User{}, false
	}
	return actor, true
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.auth.SignIn(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		Password      string `json:"password"`
		AcceptedTerms bool   `json:"acceptedTerms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.auth.SignUp(r.Context(),
		sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password, req.AcceptedTerms)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(r.Context()); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Session(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	users, err := s.auth.Users(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleApproveUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	var req struct {
		Role auth.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !req.Role.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	code, err := s.auth.ApproveUser(r.Context(), actor, r.PathValue("id"), req.Role)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessCode": code})
}

func (s *Server) handleBlockUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := s.auth.BlockUser(r.Context(), actor, r.PathValue("id")); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := s.auth.DeleteUser(r.Context(), actor, r.PathValue("id")); err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	logs, err := s.auth.AuditLogs(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	s.audit(r.Context(), actor, auth.ActionViewSensitive, "Visualizou logs de auditoria")
	writeJSON(w, http.StatusOK, logs)
}
