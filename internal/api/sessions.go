package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/podium/internal/auth"
	"github.com/MrWong99/podium/internal/observe"
	"github.com/MrWong99/podium/internal/store"
)

const defaultSessionTitle = "Practice session"

type createSessionRequest struct {
	Title      string          `json:"title"`
	Transcript string          `json:"transcript"`
	Duration   float64         `json:"duration"`
	Scores     json.RawMessage `json:"scores"`
	Feedback   json.RawMessage `json:"feedback"`
	Metrics    json.RawMessage `json:"metrics"`
	Provider   string          `json:"provider,omitempty"`
}

type sessionsResponse struct {
	Sessions []store.SpeechSession `json:"sessions"`
}

// handleCreateSession persists a finished practice run for the caller. A
// failed save is reported on its own; the analysis the client already holds
// is unaffected.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Duration < 0 {
		writeError(w, http.StatusBadRequest, "duration must not be negative")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultSessionTitle
	}

	sess := store.SpeechSession{
		ID:         uuid.NewString(),
		UserID:     auth.UserID(r.Context()),
		Title:      title,
		Transcript: req.Transcript,
		Duration:   req.Duration,
		Scores:     store.JSONOrEmpty(req.Scores),
		Feedback:   store.JSONOrEmpty(req.Feedback),
		Metrics:    store.JSONOrEmpty(req.Metrics),
		Provider:   req.Provider,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.CreateSession(r.Context(), sess); err != nil {
		observe.Logger(r.Context()).Error("save session failed", "err", err)
		s.metrics.RecordSessionSaved(r.Context(), "error")
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	s.metrics.RecordSessionSaved(r.Context(), "ok")
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListSessions(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		observe.Logger(r.Context()).Error("list sessions failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	if list == nil {
		list = []store.SpeechSession{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: list})
}

// handleGetSession returns one session. Another user's session is 403.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
		return
	case err != nil:
		observe.Logger(r.Context()).Error("get session failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess.UserID != auth.UserID(r.Context()) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
