package http

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Message("Welcome to the Financial Literacy & Budgeting Assistant API").
		Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the record store answers within a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status, code := "ready", http.StatusOK
	if err := s.finance.Ready(ctx); err != nil {
		checks["database"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	NewJSONResponse().
		Status(code).
		Body(map[string]any{"status": status, "checks": checks}).
		Write(w)
}

// Auth

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "signup", err)
		return
	}
	user, err := s.auth.Signup(r.Context(), sanitizeInput(req.Username), req.Password)
	if err != nil {
		writeError(w, r, "signup", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]string{"message": "Account created", "user_id": user.ID}).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "login", err)
		return
	}
	result, err := s.auth.Login(r.Context(), sanitizeInput(req.Username), req.Password)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	NewJSONResponse().Body(result).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.finance.Profile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, "get profile", err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "update profile", err)
		return
	}
	if _, err := s.finance.UpdateProfile(r.Context(), userID(r), req.toProfile()); err != nil {
		writeError(w, r, "update profile", err)
		return
	}
	NewJSONResponse().Message("Profile saved").Write(w)
}
