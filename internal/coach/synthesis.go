package coach

import (
	"context"
	"log/slog"

	"github.com/MrWong99/podium/internal/insight"
)

// CannedSummary replaces a failed synthesis call.
const CannedSummary = "Thanks for practicing! Your speech has been scored across content, body language and confidence. Review the scores below to see where you shine and where to focus next."

// cannedActionItems accompany [CannedSummary].
var cannedActionItems = []string{
	"Outline your speech with a clear opening, three main points and a conclusion.",
	"Practice with a timer and aim for 120 to 160 words per minute.",
	"Replace filler words with short, deliberate pauses.",
	"Rehearse in front of a mirror or camera to check posture and gestures.",
}

// synthesize fills in the summary and action items of an AI-tier result.
// A failed call yields [CannedSummary] and four generic items; it never
// fails the request.
func (o *Orchestrator) synthesize(ctx context.Context, t *Tier, res CompositeAnalysis) CompositeAnalysis {
	scores := insight.Scores{
		Overall:      res.OverallScore,
		Content:      res.Content.Score,
		Language:     res.Content.Language.Overall,
		Structure:    res.Content.Structure.Score,
		BodyLanguage: res.BodyLanguage.Score,
		Confidence:   res.Confidence.Score,
		BodyCaptured: res.BodyLanguage.Metrics != nil,
		Highlights:   highlights(res),
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	syn, err := callGuarded(func() (insight.Synthesis, error) {
		return t.Assessor.Synthesize(ctx, scores)
	})
	if err != nil {
		slog.Warn("feedback synthesis failed, using canned summary", "provider", t.Name, "err", err)
		res.Summary = CannedSummary
		res.ActionItems = append([]string(nil), cannedActionItems...)
		return res
	}

	res.Summary = syn.Summary
	if len(syn.ActionItems) > 0 {
		res.ActionItems = syn.ActionItems
	}
	return sanitize(res)
}

// highlights collects a few analyzer insights as synthesis context.
func highlights(res CompositeAnalysis) []string {
	var out []string
	for _, group := range [][]string{
		res.Content.Insights,
		res.Content.Structure.Insights,
		res.Confidence.Insights,
		res.BodyLanguage.Insights,
	} {
		out = append(out, group[:min(len(group), 2)]...)
	}
	return out
}
