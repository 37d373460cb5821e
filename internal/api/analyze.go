package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/internal/coach"
	"github.com/MrWong99/podium/internal/observe"
	"github.com/MrWong99/podium/internal/pose"
	"github.com/MrWong99/podium/pkg/provider/stt"
)

type analyzeSpeechRequest struct {
	Transcript *string    `json:"transcript"`
	Duration   float64    `json:"duration"`
	PoseData   *pose.Data `json:"poseData,omitempty"`
}

// handleAnalyzeSpeech runs the full coaching pipeline. A failed pipeline
// still answers with the zeroed analysis so the client can render it.
func (s *Server) handleAnalyzeSpeech(w http.ResponseWriter, r *http.Request) {
	var req analyzeSpeechRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Transcript == nil || *req.Transcript == "" {
		writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}
	if req.Duration <= 0 {
		writeError(w, http.StatusBadRequest, "duration must be a positive number of seconds")
		return
	}

	defer func() {
		if p := recover(); p != nil {
			observe.Logger(r.Context()).Error("analysis panicked", "panic", p)
			writeJSON(w, http.StatusInternalServerError, coach.FailedAnalysis())
		}
	}()

	res, err := s.coach.Analyze(r.Context(), coach.Request{
		Transcript: *req.Transcript,
		Duration:   req.Duration,
		Pose:       req.PoseData,
	})
	switch {
	case errors.Is(err, coach.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		observe.Logger(r.Context()).Error("analysis failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

type analyzeGrammarRequest struct {
	Transcript string  `json:"transcript"`
	Duration   float64 `json:"duration,omitempty"`
}

// handleAnalyzeGrammar returns the language composite alone.
func (s *Server) handleAnalyzeGrammar(w http.ResponseWriter, r *http.Request) {
	var req analyzeGrammarRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Transcript == "" {
		writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}
	writeJSON(w, http.StatusOK, s.language.Analyze(r.Context(), req.Transcript, req.Duration))
}

type transcribeRequest struct {
	// Audio is a base64 data URI.
	Audio    string `json:"audio"`
	Format   string `json:"format,omitempty"`
	Language string `json:"language,omitempty"`
}

type transcribeResponse struct {
	Transcription   string                   `json:"transcription"`
	Segments        []stt.Segment            `json:"segments"`
	Language        string                   `json:"language,omitempty"`
	Duration        float64                  `json:"duration"`
	DeliveryMetrics analysis.DeliveryMetrics `json:"deliveryMetrics"`
}

// handleTranscribeAudio transcribes a recorded clip and scores its timing.
func (s *Server) handleTranscribeAudio(w http.ResponseWriter, r *http.Request) {
	if s.stt == nil {
		writeError(w, http.StatusServiceUnavailable, "no transcription provider configured")
		return
	}
	var req transcribeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	audio, err := stt.DecodeDataURI(req.Audio, req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	audio.Language = req.Language

	start := time.Now()
	res, err := s.stt.Transcribe(r.Context(), audio)
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordProviderRequest(r.Context(), "stt", "stt", status, time.Since(start))

	switch {
	case errors.Is(err, stt.ErrInvalidAudio):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		observe.Logger(r.Context()).Error("transcription failed", "err", err)
		s.metrics.RecordProviderError(r.Context(), "stt", "error")
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	case res == nil:
		res = &stt.Result{}
	}

	segs := make([]analysis.Segment, len(res.Segments))
	for i, sg := range res.Segments {
		segs[i] = analysis.Segment{Text: sg.Text, Start: sg.Start, End: sg.End}
	}
	out := transcribeResponse{
		Transcription:   strings.TrimSpace(res.Text),
		Segments:        res.Segments,
		Language:        res.Language,
		Duration:        res.Duration,
		DeliveryMetrics: analysis.AnalyzeDelivery(segs),
	}
	if out.Segments == nil {
		out.Segments = []stt.Segment{}
	}
	writeJSON(w, http.StatusOK, out)
}
