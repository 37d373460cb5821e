package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Language weights. They sum to 1.
const (
	weightFiller      = 0.15
	weightTransition  = 0.15
	weightComplexity  = 0.10
	weightVariety     = 0.10
	weightPacing      = 0.10
	weightVocabulary  = 0.10
	weightCoherence   = 0.15
	weightEngagement  = 0.10
	weightReadability = 0.05
)

const (
	// insightMinWords is the word count that must be exceeded before the
	// insight provider is consulted.
	insightMinWords = 20

	maxSuggestions = 5
)

// NeutralInsightScore replaces AI sub-scores that are unavailable or were
// omitted by the model.
const NeutralInsightScore = 50

// NoSpeechDetected is the single suggestion, insight and summary used
// everywhere a transcript carries no words.
const NoSpeechDetected = "No speech detected"

// InsightUnavailable is the insight reported when the provider fails.
const InsightUnavailable = "AI language insights are unavailable right now; coherence, engagement and readability use neutral scores."

// Hints give the insight provider context gathered by the local analyzers.
type Hints struct {
	WordCount       int
	SentenceCount   int
	WordsPerMinute  float64
	FillerRate      float64
	TransitionCount int
}

// Insight is the subjective assessment returned by an [InsightProvider].
type Insight struct {
	Coherence   int      `json:"coherence"`
	Engagement  int      `json:"engagement"`
	Readability int      `json:"readability"`
	Insights    []string `json:"insights"`
}

// InsightProvider scores the subjective qualities of a transcript.
//
// Implementations report quota and rate-limit failures by wrapping
// llm.ErrQuotaExceeded so callers can tell them apart from generic errors.
type InsightProvider interface {
	Score(ctx context.Context, transcript string, hints Hints) (Insight, error)
}

// LanguageResult is the full language composite for one transcript.
type LanguageResult struct {
	Overall          int               `json:"overall"`
	Fillers          FillerSummary     `json:"fillers"`
	FillerRate       float64           `json:"fillerRate"`
	Transitions      TransitionSummary `json:"transitions"`
	Structure        StructureMetrics  `json:"structure"`
	LexicalDiversity float64           `json:"lexicalDiversity"`
	Readability      int               `json:"readability"`
	Engagement       int               `json:"engagement"`
	Coherence        int               `json:"coherence"`
	Suggestions      []string          `json:"suggestions"`
	Insights         []string          `json:"insights"`
	Disfluencies     []Disfluency      `json:"disfluencies"`
}

// EmptyLanguageResult is the sentinel for blank transcripts.
func EmptyLanguageResult() LanguageResult {
	return LanguageResult{
		Fillers:     FillerSummary{ByGroup: map[FillerGroup]int{}},
		Transitions: TransitionSummary{ByCategory: map[Category]int{}},
		Suggestions: []string{NoSpeechDetected},
	}
}

// LanguageAnalyzer computes the language composite. The zero value works
// without an insight provider.
type LanguageAnalyzer struct {
	provider InsightProvider
}

// NewLanguageAnalyzer returns an analyzer that consults p for AI insights.
// p may be nil.
func NewLanguageAnalyzer(p InsightProvider) *LanguageAnalyzer {
	return &LanguageAnalyzer{provider: p}
}

// Analyze scores text. duration is optional context for the provider and may
// be zero. It never fails: provider errors collapse to neutral AI scores plus
// [InsightUnavailable].
func (a *LanguageAnalyzer) Analyze(ctx context.Context, text string, duration float64) LanguageResult {
	if IsBlank(text) {
		return EmptyLanguageResult()
	}
	st := ComputeStats(text, duration)
	if st.WordCount == 0 {
		return EmptyLanguageResult()
	}

	res := baseLanguage(text, st)
	res.Coherence, res.Engagement, res.Readability = NeutralInsightScore, NeutralInsightScore, NeutralInsightScore

	if a != nil && a.provider != nil && st.WordCount > insightMinWords {
		hints := Hints{
			WordCount:       st.WordCount,
			SentenceCount:   len(st.Sentences),
			WordsPerMinute:  st.WordsPerMinute,
			FillerRate:      res.FillerRate,
			TransitionCount: res.Transitions.Total,
		}
		ins, err := a.provider.Score(ctx, text, hints)
		if err != nil {
			slog.Warn("language insight failed, using neutral scores", "err", err)
			res.Insights = []string{InsightUnavailable}
		} else {
			res.Coherence = ClampScore(float64(ins.Coherence))
			res.Engagement = ClampScore(float64(ins.Engagement))
			res.Readability = ClampScore(float64(ins.Readability))
			res.Insights = ins.Insights
		}
	}

	res.Overall = ClampScore(
		weightFiller*float64(fillerScore(res.FillerRate)) +
			weightTransition*float64(transitionScore(res.Transitions.Total, res.Structure.SentenceCount)) +
			weightComplexity*float64(res.Structure.Complexity) +
			weightVariety*float64(res.Structure.Variety) +
			weightPacing*float64(res.Structure.Pacing) +
			weightVocabulary*res.LexicalDiversity*100 +
			weightCoherence*float64(res.Coherence) +
			weightEngagement*float64(res.Engagement) +
			weightReadability*float64(res.Readability),
	)
	return res
}

// baseLanguage fills every deterministic field of the result.
func baseLanguage(text string, st Stats) LanguageResult {
	fillers := DetectFillers(text, st.WordCount)
	transitions := DetectTransitions(text, len(st.Sentences))
	structure := AnalyzeStructure(st.Sentences)
	res := LanguageResult{
		Fillers:          fillers,
		FillerRate:       fillers.Rate,
		Transitions:      transitions,
		Structure:        structure,
		LexicalDiversity: LexicalDiversity(st.Words),
		Disfluencies:     DetectDisfluencies(text),
	}
	res.Suggestions = suggestions(res, st.WordCount)
	return res
}

// fillerScore is 100 − min(rate×200, 100).
func fillerScore(rate float64) int {
	return ClampScore(100 - min(rate*200, 100))
}

// transitionScore is min(transitions/sentences×30, 100).
func transitionScore(transitions, sentences int) int {
	if sentences == 0 {
		return 0
	}
	return ClampScore(float64(transitions) / float64(sentences) * 30)
}

// suggestions evaluates the suggestion rules in priority order.
func suggestions(r LanguageResult, wordCount int) []string {
	var out []string
	add := func(s string) {
		if len(out) < maxSuggestions {
			out = append(out, s)
		}
	}

	if r.FillerRate > 0.05 {
		top := ""
		if len(r.Fillers.Findings) > 0 {
			top = fmt.Sprintf(" The most frequent was %q.", r.Fillers.Findings[0].Phrase)
		}
		add(fmt.Sprintf("Reduce filler words: %d of your words (%.0f%%) were fillers.%s Try a short silent pause instead.",
			r.Fillers.Total, r.FillerRate*100, top))
	}
	if r.Structure.SentenceCount > 3 && r.Transitions.Coverage < 0.15 {
		add("Connect your ideas with transition words such as \"however\", \"therefore\" or \"finally\".")
	}
	if cat, ok := dominantCategory(r.Transitions); ok {
		add(fmt.Sprintf("Vary your transitions: most of them signal %s. Mix in other kinds of connectors.", cat))
	}
	switch {
	case r.Structure.AverageSentenceLength > 25:
		add("Break up long sentences; several average more than 25 words, which makes them hard to follow when spoken.")
	case r.Structure.SentenceCount > 0 && r.Structure.AverageSentenceLength < 8:
		add("Combine some short sentences so that your points flow more naturally.")
	}
	if r.Structure.SentenceCount > 2 && r.Structure.Variety < 30 {
		add("Vary your sentence length: mix short, punchy sentences with longer explanatory ones.")
	}
	if wordCount >= mtldMinTokens && r.LexicalDiversity < 0.4 {
		add("Broaden your vocabulary; many words are repeated. Try synonyms for your most common terms.")
	}
	return out
}

// dominantCategory reports a category holding more than 60% of at least three
// transitions.
func dominantCategory(t TransitionSummary) (Category, bool) {
	if t.Total < 3 {
		return "", false
	}
	cats := make([]Category, 0, len(t.ByCategory))
	for c := range t.ByCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		if float64(t.ByCategory[c])/float64(t.Total) > 0.6 {
			return c, true
		}
	}
	return "", false
}
