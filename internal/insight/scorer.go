package insight

import (
	"context"
	"fmt"

	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/pkg/provider/llm"
)

const (
	defaultTemperature = 0.2
	scorerMaxTokens    = 600
	maxInsights        = 4
)

const scorerSystemPrompt = `You are an experienced public-speaking coach. You review transcripts of practice speeches.

Rate the transcript on three dimensions, each an integer from 0 to 100:
- coherence: how logically the ideas connect and build on each other
- engagement: how well the speech would hold a live audience's attention
- readability: how easy the spoken language is to follow on first hearing

Then give 2 to 4 short, specific insights about the language (one sentence each).

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{"coherence": <int>, "engagement": <int>, "readability": <int>, "insights": ["...", "..."]}`

// Option is a functional option shared by [Scorer] and [Analyzer].
type Option func(*options)

type options struct {
	temperature float64
}

// WithTemperature sets the sampling temperature. Default: 0.2.
func WithTemperature(temp float64) Option {
	return func(o *options) {
		o.temperature = temp
	}
}

func buildOptions(opts []Option) options {
	o := options{temperature: defaultTemperature}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Scorer implements analysis.InsightProvider on top of an [llm.Provider].
// It is safe for concurrent use.
type Scorer struct {
	llm  llm.Provider
	opts options
}

var _ analysis.InsightProvider = (*Scorer)(nil)

// NewScorer returns a Scorer backed by provider.
func NewScorer(provider llm.Provider, opts ...Option) *Scorer {
	return &Scorer{llm: provider, opts: buildOptions(opts)}
}

// Score asks the model for coherence, engagement and readability.
func (s *Scorer) Score(ctx context.Context, transcript string, hints analysis.Hints) (analysis.Insight, error) {
	user := fmt.Sprintf(
		"Speech statistics: %d words, %d sentences, %.0f words per minute, filler rate %.1f%%, %d transition words.\n\nTranscript:\n%s",
		hints.WordCount, hints.SentenceCount, hints.WordsPerMinute, hints.FillerRate*100, hints.TransitionCount, transcript,
	)
	resp, err := s.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: scorerSystemPrompt,
		Temperature:  s.opts.temperature,
		MaxTokens:    scorerMaxTokens,
		JSONResponse: s.llm.Capabilities().SupportsJSONMode,
		Messages:     []llm.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return analysis.Insight{}, fmt.Errorf("insight: score: %w", err)
	}

	var raw scorerResponse
	if err := decode(resp.Content, &raw); err != nil {
		return analysis.Insight{}, fmt.Errorf("insight: score: %w", err)
	}
	return analysis.Insight{
		Coherence:   scoreOr(raw.Coherence, analysis.NeutralInsightScore),
		Engagement:  scoreOr(raw.Engagement, analysis.NeutralInsightScore),
		Readability: scoreOr(raw.Readability, analysis.NeutralInsightScore),
		Insights:    cleanList(raw.Insights, maxInsights),
	}, nil
}

// scorerResponse is the wire form of the scoring answer. Models omit fields
// and answer with fractions, so scores stay nullable floats until sanitized.
type scorerResponse struct {
	Coherence   *float64 `json:"coherence"`
	Engagement  *float64 `json:"engagement"`
	Readability *float64 `json:"readability"`
	Insights    []string `json:"insights"`
}
