package api

import (
	"errors"
	"net/http"

	"github.com/MrWong99/podium/internal/auth"
	"github.com/MrWong99/podium/internal/observe"
	"github.com/MrWong99/podium/internal/store"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User store.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !s.decodeJSON(w, r, &c) {
		return
	}
	u, err := s.auth.Register(r.Context(), c.Email, c.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		observe.Logger(r.Context()).Error("register failed", "err", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	// Registration signs the user in right away.
	_, tok, err := s.auth.Login(r.Context(), c.Email, c.Password)
	if err != nil {
		observe.Logger(r.Context()).Error("login after register failed", "err", err)
		writeJSON(w, http.StatusCreated, userResponse{User: u})
		return
	}
	s.cookies.Set(w, tok)
	writeJSON(w, http.StatusCreated, userResponse{User: u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if !s.decodeJSON(w, r, &c) {
		return
	}
	u, tok, err := s.auth.Login(r.Context(), c.Email, c.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	case err != nil:
		observe.Logger(r.Context()).Error("login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	s.cookies.Set(w, tok)
	writeJSON(w, http.StatusOK, userResponse{User: u})
}

// handleLogout succeeds even without a valid token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if tok := s.cookies.Token(r); tok != "" {
		if err := s.auth.Logout(r.Context(), tok); err != nil {
			observe.Logger(r.Context()).Warn("logout failed", "err", err)
		}
	}
	s.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.User(r.Context())
	writeJSON(w, http.StatusOK, userResponse{User: u})
}

// handleDeleteAccount removes the caller with all of their sessions.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.DeleteAccount(r.Context(), auth.UserID(r.Context())); err != nil && !errors.Is(err, store.ErrNotFound) {
		observe.Logger(r.Context()).Error("delete account failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	s.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
