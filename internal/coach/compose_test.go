package coach

import (
	"testing"

	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/internal/insight"
	"github.com/MrWong99/podium/internal/pose"
)

func TestContentScore(t *testing.T) {
	t.Parallel()

	if got := ContentScore(90, 50); got != 74 {
		t.Errorf("ContentScore(90, 50) = %d, want 74", got)
	}
	if got := ContentScore(0, 0); got != 0 {
		t.Errorf("ContentScore(0, 0) = %d, want 0", got)
	}
}

func TestOverallScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content, body, confidence int
		want                      int
	}{
		{80, 70, 60, 72},
		{100, 100, 100, 100},
		{0, 100, 100, 0},
		{1, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := OverallScore(tt.content, tt.body, tt.confidence); got != tt.want {
			t.Errorf("OverallScore(%d, %d, %d) = %d, want %d", tt.content, tt.body, tt.confidence, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	c := sanitize(CompositeAnalysis{
		Content:      Content{Score: 140},
		BodyLanguage: BodyLanguage{Score: -3},
		Confidence:   Confidence{Score: 55, SubScores: map[string]int{"assertiveness": 120}},
		OverallScore: 101,
	})
	if c.Content.Score != 100 || c.BodyLanguage.Score != 0 || c.OverallScore != 100 {
		t.Errorf("scores not clamped: %+v", c)
	}
	if c.Confidence.SubScores["assertiveness"] != 100 {
		t.Errorf("sub-score = %d, want 100", c.Confidence.SubScores["assertiveness"])
	}
	if n := len(c.ActionItems); n < 2 || n > 3 {
		t.Errorf("generic action items = %d, want 2-3", n)
	}
	if c.Content.Insights == nil || c.BodyLanguage.Insights == nil {
		t.Error("insight lists must be non-nil")
	}

	long := sanitize(CompositeAnalysis{ActionItems: []string{"a", "b", "c", "d", "e", "f", "g"}})
	if len(long.ActionItems) != maxActionItems {
		t.Errorf("action items = %d, want %d", len(long.ActionItems), maxActionItems)
	}
}

func TestComposeAI_MissingScoresAreNeutral(t *testing.T) {
	t.Parallel()

	c := composeAI(tierInputs{
		language:   analysis.LanguageResult{Overall: 80, Suggestions: []string{"Vary your sentence length."}},
		confidence: analysis.ConfidenceResult{Score: 40, SubScores: map[string]int{"assertiveness": 40}},
	}, ProviderPrimary)

	if c.Content.Structure.Score != neutralScore {
		t.Errorf("structure = %d, want %d", c.Content.Structure.Score, neutralScore)
	}
	if c.Confidence.Score != neutralScore {
		t.Errorf("confidence = %d, want %d", c.Confidence.Score, neutralScore)
	}
	if c.BodyLanguage.Score != neutralScore {
		t.Errorf("body = %d, want %d", c.BodyLanguage.Score, neutralScore)
	}
	if c.Content.Score != ContentScore(80, neutralScore) {
		t.Errorf("content = %d, want %d", c.Content.Score, ContentScore(80, neutralScore))
	}
	if len(c.Content.Insights) != 1 || c.Content.Insights[0] != "Vary your sentence length." {
		t.Errorf("content insights = %q, want suggestions fallback", c.Content.Insights)
	}
	if c.Provider != ProviderPrimary {
		t.Errorf("provider = %q", c.Provider)
	}
}

func TestComposeAI_PoseOverridesProviderBodyScore(t *testing.T) {
	t.Parallel()

	providerBody := 20
	body := &pose.Metrics{Overall: 88, Posture: 90, Stability: 85, Gestures: 90, Movement: 87, FacialExpression: 70, EyeContact: 70, Samples: 30}
	c := composeAI(tierInputs{
		language:   analysis.LanguageResult{Overall: 70},
		body:       body,
		assessment: insight.Assessment{BodyLanguage: insight.Section{Score: &providerBody}},
	}, ProviderSecondary)

	if c.BodyLanguage.Score != 88 {
		t.Errorf("body = %d, want measured 88", c.BodyLanguage.Score)
	}
	if c.BodyLanguage.Metrics == nil {
		t.Fatal("expected metrics to be attached")
	}
}

func TestComposeLocal_NoPoseIsNeutral(t *testing.T) {
	t.Parallel()

	tr := analysis.Transcript{
		Text:     "Today I want to talk about habits. First, habits shape our days. However, they are hard to change. Finally, small steps help.",
		Duration: 20,
	}
	c := composeLocal(tr, nil)
	if c.Provider != ProviderFallback {
		t.Errorf("provider = %q, want fallback", c.Provider)
	}
	if c.BodyLanguage.Score != neutralScore {
		t.Errorf("body = %d, want %d", c.BodyLanguage.Score, neutralScore)
	}
	if c.Summary == "" {
		t.Error("local summary is empty")
	}
	want := OverallScore(c.Content.Score, c.BodyLanguage.Score, c.Confidence.Score)
	if c.OverallScore != want {
		t.Errorf("overall = %d, want %d", c.OverallScore, want)
	}
}
