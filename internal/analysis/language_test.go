package analysis

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeInsight is a hand-rolled InsightProvider for tests.
type fakeInsight struct {
	insight Insight
	err     error
	calls   atomic.Int32
	hints   Hints
}

func (f *fakeInsight) Score(_ context.Context, _ string, h Hints) (Insight, error) {
	f.calls.Add(1)
	f.hints = h
	return f.insight, f.err
}

const longSpeech = "Good morning everyone. Today I want to share three lessons from building our company. " +
	"First, listen to your customers before you write a single line of code. " +
	"However, do not let every request distract you from the core idea. " +
	"Finally, celebrate small wins, because momentum keeps a team together."

func TestLanguageAnalyzer_Blank(t *testing.T) {
	f := &fakeInsight{}
	got := NewLanguageAnalyzer(f).Analyze(context.Background(), "  \n ", 30)

	if got.Overall != 0 {
		t.Errorf("Overall = %d, want 0", got.Overall)
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0] != NoSpeechDetected {
		t.Errorf("Suggestions = %q, want [%q]", got.Suggestions, NoSpeechDetected)
	}
	if len(got.Insights) != 0 {
		t.Errorf("Insights = %q, want none", got.Insights)
	}
	if f.calls.Load() != 0 {
		t.Errorf("provider called %d times, want 0", f.calls.Load())
	}
}

func TestLanguageAnalyzer_ShortTranscriptSkipsProvider(t *testing.T) {
	f := &fakeInsight{insight: Insight{Coherence: 99, Engagement: 99, Readability: 99}}
	got := NewLanguageAnalyzer(f).Analyze(context.Background(), "This is a short talk with only a few words in it.", 5)

	if f.calls.Load() != 0 {
		t.Errorf("provider called %d times, want 0", f.calls.Load())
	}
	if got.Coherence != 50 || got.Engagement != 50 || got.Readability != 50 {
		t.Errorf("AI scores = %d/%d/%d, want 50/50/50", got.Coherence, got.Engagement, got.Readability)
	}
	if len(got.Insights) != 0 {
		t.Errorf("Insights = %q, want none", got.Insights)
	}
}

func TestLanguageAnalyzer_UsesProvider(t *testing.T) {
	f := &fakeInsight{insight: Insight{
		Coherence: 90, Engagement: 80, Readability: 140,
		Insights: []string{"Clear three-part structure.", "Strong closing line."},
	}}
	got := NewLanguageAnalyzer(f).Analyze(context.Background(), longSpeech, 30)

	if f.calls.Load() != 1 {
		t.Fatalf("provider called %d times, want 1", f.calls.Load())
	}
	if got.Coherence != 90 || got.Engagement != 80 {
		t.Errorf("AI scores = %d/%d, want 90/80", got.Coherence, got.Engagement)
	}
	if got.Readability != 100 {
		t.Errorf("Readability = %d, want clamped 100", got.Readability)
	}
	if len(got.Insights) != 2 {
		t.Errorf("Insights = %q, want 2", got.Insights)
	}
	if f.hints.WordCount <= 20 || f.hints.SentenceCount != 5 || f.hints.TransitionCount == 0 {
		t.Errorf("unexpected hints %+v", f.hints)
	}
	if f.hints.WordsPerMinute <= 0 {
		t.Errorf("WordsPerMinute hint = %v, want > 0", f.hints.WordsPerMinute)
	}
}

func TestLanguageAnalyzer_ProviderFailureIsNeutral(t *testing.T) {
	f := &fakeInsight{err: errors.New("boom")}
	got := NewLanguageAnalyzer(f).Analyze(context.Background(), longSpeech, 30)

	if got.Coherence != 50 || got.Engagement != 50 || got.Readability != 50 {
		t.Errorf("AI scores = %d/%d/%d, want 50/50/50", got.Coherence, got.Engagement, got.Readability)
	}
	if len(got.Insights) != 1 || got.Insights[0] != InsightUnavailable {
		t.Errorf("Insights = %q, want [%q]", got.Insights, InsightUnavailable)
	}
	if got.Overall <= 0 || got.Overall > 100 {
		t.Errorf("Overall = %d, want within (0, 100]", got.Overall)
	}
}

func TestLanguageAnalyzer_AIWeights(t *testing.T) {
	high := &fakeInsight{insight: Insight{Coherence: 100, Engagement: 100, Readability: 100}}
	low := &fakeInsight{insight: Insight{}}

	hi := NewLanguageAnalyzer(high).Analyze(context.Background(), longSpeech, 30).Overall
	lo := NewLanguageAnalyzer(low).Analyze(context.Background(), longSpeech, 30).Overall

	// Coherence, engagement and readability weigh 0.15 + 0.10 + 0.05.
	if d := hi - lo; d < 29 || d > 31 {
		t.Errorf("overall difference = %d, want 30±1", d)
	}
}

func TestLanguageAnalyzer_NilAnalyzerAndProvider(t *testing.T) {
	var a *LanguageAnalyzer
	got := a.Analyze(context.Background(), longSpeech, 0)
	if got.Coherence != 50 || len(got.Insights) != 0 {
		t.Errorf("got coherence %d insights %q", got.Coherence, got.Insights)
	}
}

func TestSuggestions_FillerFirst(t *testing.T) {
	text := "Um, so, like, I mean, basically we, um, like, just want to, you know, sell more. Really."
	got := NewLanguageAnalyzer(nil).Analyze(context.Background(), text, 10)

	if len(got.Suggestions) == 0 || !strings.HasPrefix(got.Suggestions[0], "Reduce filler words") {
		t.Fatalf("Suggestions = %q", got.Suggestions)
	}
	if len(got.Suggestions) > 5 {
		t.Errorf("len(Suggestions) = %d, want ≤ 5", len(got.Suggestions))
	}
}

func TestSuggestions_Transitions(t *testing.T) {
	text := "Our team built a new product. Customers loved the design. Sales grew quickly. We hired more staff."
	got := NewLanguageAnalyzer(nil).Analyze(context.Background(), text, 10)

	if len(got.Suggestions) == 0 || !strings.Contains(got.Suggestions[0], "transition") {
		t.Fatalf("Suggestions = %q", got.Suggestions)
	}
}

func TestDominantCategory(t *testing.T) {
	sum := DetectTransitions("First this. Then that. Next more. Finally done. However no.", 5)
	cat, ok := dominantCategory(sum)
	if !ok || cat != CategorySequence {
		t.Errorf("dominantCategory = %q, %v; want sequence, true", cat, ok)
	}

	balanced := DetectTransitions("First this. However that. Therefore more.", 3)
	if _, ok := dominantCategory(balanced); ok {
		t.Error("balanced transitions reported as dominant")
	}
}
