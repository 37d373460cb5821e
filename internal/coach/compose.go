package coach

import (
	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/internal/insight"
	"github.com/MrWong99/podium/internal/pose"
)

// neutralScore replaces any score a provider omitted.
const neutralScore = 70

const (
	maxActionItems     = 5
	maxContentInsights = 4
)

// genericActionItems backfill an empty action list.
var genericActionItems = []string{
	"Record yourself once more and listen back for moments where your message felt unclear.",
	"Open with a clear statement of your main point and close by repeating it.",
	"Pause briefly after each key idea to let it land.",
}

// ContentScore is round(language×0.6 + structure×0.4).
func ContentScore(language, structure int) int {
	return analysis.ClampScore(0.6*float64(language) + 0.4*float64(structure))
}

// OverallScore is round(content×0.4 + body×0.4 + confidence×0.2). A zero
// content score collapses the overall score to zero.
func OverallScore(content, body, confidence int) int {
	if content == 0 {
		return 0
	}
	return analysis.ClampScore(0.4*float64(content) + 0.4*float64(body) + 0.2*float64(confidence))
}

// tierInputs are the results of one tier's fan-out.
type tierInputs struct {
	language   analysis.LanguageResult
	structure  analysis.StructureMetrics
	confidence analysis.ConfidenceResult
	body       *pose.Metrics
	assessment insight.Assessment
}

// composeAI builds the composite for an AI tier. Summary and action items
// are filled in by synthesis afterwards.
func composeAI(in tierInputs, tag string) CompositeAnalysis {
	a := in.assessment

	structureScore := scoreOrNeutral(a.Structure.Score)
	content := Content{
		Language: in.language,
		Structure: StructureSection{
			Score:    structureScore,
			Metrics:  in.structure,
			Insights: nonNil(a.Structure.Insights),
		},
		Insights: contentInsights(in.language),
	}
	content.Score = ContentScore(in.language.Overall, structureScore)

	confidence := Confidence{
		Score:     scoreOrNeutral(a.Confidence.Score),
		SubScores: in.confidence.SubScores,
		Insights:  a.Confidence.Insights,
	}
	if len(confidence.Insights) == 0 {
		confidence.Insights = in.confidence.Insights
	}

	body := BodyLanguage{Metrics: in.body}
	if in.body != nil {
		body.Score = in.body.Overall
		body.Insights = pose.Insights(*in.body)
		body.Insights = append(body.Insights, a.BodyLanguage.Insights...)
	} else {
		body.Score = scoreOrNeutral(a.BodyLanguage.Score)
		body.Insights = a.BodyLanguage.Insights
	}

	res := CompositeAnalysis{
		Content:      content,
		BodyLanguage: body,
		Confidence:   confidence,
		ActionItems:  a.ActionItems,
		Provider:     tag,
	}
	res.OverallScore = OverallScore(content.Score, body.Score, confidence.Score)
	return sanitize(res)
}

// composeLocal builds the composite from the deterministic analyzer.
func composeLocal(t analysis.Transcript, body *pose.Metrics) CompositeAnalysis {
	signals := analysis.BodySignals{}
	if body != nil {
		signals = analysis.BodySignals{
			Present:  true,
			Overall:  body.Overall,
			Posture:  body.Posture,
			Gestures: body.Gestures,
		}
	}
	r := analysis.Local(t, signals)

	content := Content{
		Language: r.Language,
		Structure: StructureSection{
			Score:    r.StructureScore,
			Metrics:  r.Structure,
			Insights: []string{},
		},
		Insights: contentInsights(r.Language),
	}
	content.Score = ContentScore(r.LanguageScore, r.StructureScore)

	b := BodyLanguage{Score: neutralScore, Metrics: body, Insights: []string{}}
	if body != nil {
		b.Score = body.Overall
		b.Insights = pose.Insights(*body)
	}

	res := CompositeAnalysis{
		Content:      content,
		BodyLanguage: b,
		Confidence: Confidence{
			Score:     r.Confidence.Score,
			SubScores: r.Confidence.SubScores,
			Insights:  r.Confidence.Insights,
		},
		Summary:     r.Summary,
		ActionItems: r.ActionItems,
		Provider:    ProviderFallback,
	}
	res.OverallScore = OverallScore(content.Score, b.Score, res.Confidence.Score)
	return sanitize(res)
}

// contentInsights prefers AI insights and falls back to the top suggestions.
func contentInsights(l analysis.LanguageResult) []string {
	src := l.Insights
	if len(src) == 0 {
		src = l.Suggestions
	}
	out := make([]string, 0, min(len(src), maxContentInsights))
	for _, s := range src {
		if len(out) == maxContentInsights {
			break
		}
		out = append(out, s)
	}
	return out
}

// sanitize clamps every score to [0,100] and guarantees a non-empty,
// bounded action list.
func sanitize(c CompositeAnalysis) CompositeAnalysis {
	c.Content.Score = clamp(c.Content.Score)
	c.Content.Structure.Score = clamp(c.Content.Structure.Score)
	c.Content.Language.Overall = clamp(c.Content.Language.Overall)
	c.BodyLanguage.Score = clamp(c.BodyLanguage.Score)
	c.Confidence.Score = clamp(c.Confidence.Score)
	c.OverallScore = clamp(c.OverallScore)

	if c.Confidence.SubScores == nil {
		c.Confidence.SubScores = map[string]int{}
	}
	for k, v := range c.Confidence.SubScores {
		c.Confidence.SubScores[k] = clamp(v)
	}
	if c.BodyLanguage.Metrics != nil {
		m := c.BodyLanguage.Metrics.Sanitize()
		c.BodyLanguage.Metrics = &m
	}

	c.Content.Insights = nonNil(c.Content.Insights)
	c.BodyLanguage.Insights = nonNil(c.BodyLanguage.Insights)
	c.Confidence.Insights = nonNil(c.Confidence.Insights)

	if len(c.ActionItems) == 0 {
		c.ActionItems = append([]string(nil), genericActionItems...)
	}
	if len(c.ActionItems) > maxActionItems {
		c.ActionItems = c.ActionItems[:maxActionItems]
	}
	return c
}

func scoreOrNeutral(p *int) int {
	if p == nil {
		return neutralScore
	}
	return clamp(*p)
}

func clamp(v int) int {
	return analysis.ClampScore(float64(v))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
