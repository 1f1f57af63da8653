package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// handleLogin verifies credentials and issues a bearer token. Attempts are
// throttled per client address to blunt credential stuffing.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimiter.Allow(s.extractClientID(r)) {
		retryAfter := s.loginLimiter.RetryAfter(s.extractClientID(r))
		w.Header().Set("Retry-After", retryAfter.Round(time.Second).String())
		s.errorResponse(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	user, err := s.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.domainError(w, err)
		return
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// handleMe returns the authenticated account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.identity(w, r)
	if !ok {
		return
	}

	user, err := s.db.GetUser(r.Context(), identity.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if user == nil {
		s.errorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, user)
}
