package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/internal/pose"
	"github.com/MrWong99/podium/pkg/provider/llm"
)

const (
	analyzerMaxTokens  = 900
	synthesisMaxTokens = 500
	maxActionItems     = 5
	maxTranscriptRunes = 12_000
	truncationEllipsis = " [...]"
)

const analyzerSystemPrompt = `You are an experienced public-speaking coach. You review transcripts of practice speeches together with body-language measurements taken from the speaker's camera.

Score each dimension with an integer from 0 to 100 and give 1 to 3 short insights per dimension:
- structure: organization, opening, logical flow, conclusion
- confidence: how assured and decisive the speaker sounds
- bodyLanguage: posture, gestures and movement, judged from the measurements. If no measurements are provided, use 70 and say that body language was not captured.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "structure": {"score": <int>, "insights": ["..."]},
  "confidence": {"score": <int>, "insights": ["..."]},
  "bodyLanguage": {"score": <int>, "insights": ["..."]},
  "actionItems": ["...", "..."]
}`

const synthesisSystemPrompt = `You are an encouraging public-speaking coach. You receive the scores of a practice speech and write the feedback the speaker will read.

Write a summary of 2 to 4 sentences addressed to the speaker, and 3 to 5 concrete action items ordered by impact.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{"summary": "...", "actionItems": ["...", "..."]}`

// Request is the input to [Analyzer.Analyze].
type Request struct {
	Transcript string
	Duration   float64
	// Body is nil when no pose data was captured.
	Body *pose.Metrics
}

// Section is one scored dimension. Score is nil when the model omitted it.
type Section struct {
	Score    *int     `json:"score"`
	Insights []string `json:"insights"`
}

// UnmarshalJSON accepts fractional scores ("score": 82.5) and rounds them
// into 0..100.
func (s *Section) UnmarshalJSON(data []byte) error {
	var raw struct {
		Score    *float64 `json:"score"`
		Insights []string `json:"insights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Score = nil
	if raw.Score != nil {
		v := analysis.ClampScore(*raw.Score)
		s.Score = &v
	}
	s.Insights = raw.Insights
	return nil
}

// Assessment is the model's answer to a tier scoring call.
type Assessment struct {
	Structure    Section  `json:"structure"`
	Confidence   Section  `json:"confidence"`
	BodyLanguage Section  `json:"bodyLanguage"`
	ActionItems  []string `json:"actionItems"`
}

// Scores summarizes a composed analysis for [Analyzer.Synthesize].
type Scores struct {
	Overall      int
	Content      int
	Language     int
	Structure    int
	BodyLanguage int
	Confidence   int
	BodyCaptured bool
	// Highlights are insights gathered by the individual analyzers.
	Highlights []string
}

// Synthesis is the written feedback for a composed analysis.
type Synthesis struct {
	Summary     string   `json:"summary"`
	ActionItems []string `json:"actionItems"`
}

// Analyzer performs the AI scoring and synthesis calls of one provider tier.
// It is safe for concurrent use.
type Analyzer struct {
	llm  llm.Provider
	opts options
}

// NewAnalyzer returns an Analyzer backed by provider.
func NewAnalyzer(provider llm.Provider, opts ...Option) *Analyzer {
	return &Analyzer{llm: provider, opts: buildOptions(opts)}
}

// Analyze requests structure, confidence and body-language scores.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Assessment, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Speech duration: %.0f seconds.\n", req.Duration)
	if req.Body != nil {
		fmt.Fprintf(&b, "Body-language measurements (0-100): overall %d, posture %d, stability %d, gestures %d, movement %d.\n",
			req.Body.Overall, req.Body.Posture, req.Body.Stability, req.Body.Gestures, req.Body.Movement)
	} else {
		b.WriteString("Body-language measurements: none captured.\n")
	}
	b.WriteString("\nTranscript:\n")
	b.WriteString(truncate(req.Transcript))

	resp, err := a.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: analyzerSystemPrompt,
		Temperature:  a.opts.temperature,
		MaxTokens:    analyzerMaxTokens,
		JSONResponse: a.llm.Capabilities().SupportsJSONMode,
		Messages:     []llm.Message{{Role: "user", Content: b.String()}},
	})
	if err != nil {
		return Assessment{}, fmt.Errorf("insight: analyze: %w", err)
	}

	var out Assessment
	if err := decode(resp.Content, &out); err != nil {
		return Assessment{}, fmt.Errorf("insight: analyze: %w", err)
	}
	out.Structure.Insights = cleanList(out.Structure.Insights, maxInsights)
	out.Confidence.Insights = cleanList(out.Confidence.Insights, maxInsights)
	out.BodyLanguage.Insights = cleanList(out.BodyLanguage.Insights, maxInsights)
	out.ActionItems = cleanList(out.ActionItems, maxActionItems)
	return out, nil
}

// Synthesize writes the summary and action items for s.
func (a *Analyzer) Synthesize(ctx context.Context, s Scores) (Synthesis, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall score: %d\nContent: %d (language %d, structure %d)\nConfidence: %d\n",
		s.Overall, s.Content, s.Language, s.Structure, s.Confidence)
	if s.BodyCaptured {
		fmt.Fprintf(&b, "Body language: %d\n", s.BodyLanguage)
	} else {
		b.WriteString("Body language: not captured\n")
	}
	if len(s.Highlights) > 0 {
		b.WriteString("\nObservations:\n")
		for _, h := range s.Highlights {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteByte('\n')
		}
	}

	resp, err := a.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: synthesisSystemPrompt,
		Temperature:  a.opts.temperature,
		MaxTokens:    synthesisMaxTokens,
		JSONResponse: a.llm.Capabilities().SupportsJSONMode,
		Messages:     []llm.Message{{Role: "user", Content: b.String()}},
	})
	if err != nil {
		return Synthesis{}, fmt.Errorf("insight: synthesize: %w", err)
	}

	var out Synthesis
	if err := decode(resp.Content, &out); err != nil {
		return Synthesis{}, fmt.Errorf("insight: synthesize: %w", err)
	}
	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" {
		return Synthesis{}, fmt.Errorf("insight: synthesize: %w: empty summary", ErrMalformedResponse)
	}
	out.ActionItems = cleanList(out.ActionItems, maxActionItems)
	return out, nil
}

// truncate caps very long transcripts so the request stays within the
// context window of small models.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxTranscriptRunes {
		return s
	}
	return string(r[:maxTranscriptRunes]) + truncationEllipsis
}
