// Package coach turns a transcript, its duration and optional pose data into
// a scored, explained [CompositeAnalysis].
//
// The [Orchestrator] walks an explicit provider state machine: the primary AI
// provider, then the secondary one, then the deterministic local analyzer.
// Quota exhaustion, an open circuit breaker or a timeout on the primary moves
// to the secondary; any other primary failure ends the request. Any failure
// on the secondary moves to the local analyzer, which cannot fail.
//
// Within a tier the language, structure, confidence and body-language
// analyses run concurrently with the provider's scoring call. Only the
// provider call can fail a tier; every analyzer has its own recovery
// boundary with a documented default.
package coach

import (
	"errors"

	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/internal/pose"
)

// Provider tags reported in [CompositeAnalysis.Provider].
const (
	ProviderPrimary   = "primary"
	ProviderSecondary = "secondary"
	ProviderFallback  = "fallback"
)

var (
	// ErrInvalidInput reports a request that fails validation. It never
	// triggers a fallback.
	ErrInvalidInput = errors.New("coach: invalid input")

	// ErrAnalysisFailed reports a request that ended in the failed state.
	ErrAnalysisFailed = errors.New("coach: analysis failed")
)

// Request is one analysis request.
type Request struct {
	Transcript string
	// Duration of the recording in seconds. Must be positive.
	Duration float64
	// Pose is optional.
	Pose *pose.Data
}

// StructureSection is the structure part of [Content].
type StructureSection struct {
	Score    int                       `json:"score"`
	Metrics  analysis.StructureMetrics `json:"metrics"`
	Insights []string                  `json:"insights"`
}

// Content scores what was said.
type Content struct {
	Score     int                     `json:"score"`
	Language  analysis.LanguageResult `json:"language"`
	Structure StructureSection        `json:"structure"`
	Insights  []string                `json:"insights"`
}

// BodyLanguage scores how the speaker moved. Metrics is nil when no pose
// data was supplied.
type BodyLanguage struct {
	Score    int           `json:"score"`
	Metrics  *pose.Metrics `json:"metrics,omitempty"`
	Insights []string      `json:"insights"`
}

// Confidence scores how assured the speaker sounded.
type Confidence struct {
	Score     int            `json:"score"`
	SubScores map[string]int `json:"subScores"`
	Insights  []string       `json:"insights"`
}

// CompositeAnalysis is the full result for one speech.
type CompositeAnalysis struct {
	Content      Content      `json:"content"`
	BodyLanguage BodyLanguage `json:"bodyLanguage"`
	Confidence   Confidence   `json:"confidence"`
	OverallScore int          `json:"overallScore"`
	Summary      string       `json:"summary"`
	ActionItems  []string     `json:"actionItems"`
	Provider     string       `json:"provider"`
}
