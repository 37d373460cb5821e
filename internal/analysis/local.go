package analysis

import (
	"fmt"
	"strings"
)

// Local analyzer thresholds.
const (
	shortTranscriptWords = 50
	slowWPM              = 110
	fastWPM              = 170
	fillerRateLimit      = 0.03
	bodyAdviceThreshold  = 60
	maxActionItems       = 5
)

// ClosingEncouragement is appended to action lists that have room left.
const ClosingEncouragement = "Keep practicing regularly; every rehearsal builds confidence and consistency."

// BodySignals carries the body-language scores the local analyzer needs.
// Present is false when no pose data was supplied.
type BodySignals struct {
	Present  bool
	Overall  int
	Posture  int
	Gestures int
}

// LocalReport is the outcome of the deterministic fallback analyzer.
type LocalReport struct {
	Language       LanguageResult
	LanguageScore  int
	Structure      StructureMetrics
	StructureScore int
	Confidence     ConfidenceResult
	WordsPerMinute float64
	Summary        string
	ActionItems    []string
}

// Local runs the deterministic fallback analysis. It never calls a remote
// provider and never fails.
//
// The language score is round(0.4×fillerScore + 0.3×vocabulary +
// 0.3×transitionScore) and the structure score is [StructureMetrics.Score].
// Summary sentences are chosen from fixed threshold-gated templates.
func Local(t Transcript, body BodySignals) LocalReport {
	if IsBlank(t.Text) {
		return LocalReport{
			Language:    EmptyLanguageResult(),
			Confidence:  ConfidenceResult{SubScores: map[string]int{}},
			Summary:     NoSpeechDetected,
			ActionItems: []string{MicrophoneAdvice},
		}
	}

	st := ComputeStats(t.Text, t.Duration)
	lang := baseLanguage(t.Text, st)
	lang.Overall = ClampScore(
		0.4*float64(fillerScore(lang.FillerRate)) +
			0.3*lang.LexicalDiversity*100 +
			0.3*float64(transitionScore(lang.Transitions.Total, lang.Structure.SentenceCount)),
	)

	r := LocalReport{
		Language:       lang,
		LanguageScore:  lang.Overall,
		Structure:      lang.Structure,
		StructureScore: lang.Structure.Score(),
		Confidence:     AnalyzeConfidence(t),
		WordsPerMinute: st.WordsPerMinute,
	}
	content := ClampScore(0.6*float64(r.LanguageScore) + 0.4*float64(r.StructureScore))
	r.Summary = localSummary(content, st.WordsPerMinute, lang.Fillers, body)
	r.ActionItems = ActionCascade(st.WordCount, st.WordsPerMinute, lang.Fillers, body)
	return r
}

// MicrophoneAdvice is the action item returned for blank transcripts.
const MicrophoneAdvice = "Check that your microphone is connected and unmuted, then try recording again."

func localSummary(content int, wpm float64, fillers FillerSummary, body BodySignals) string {
	var parts []string

	switch {
	case content >= 80:
		parts = append(parts, "Your content was well organized and clearly expressed.")
	case content >= 60:
		parts = append(parts, "Your content was solid, with room to tighten structure and word choice.")
	default:
		parts = append(parts, "Your content would benefit from clearer structure and more varied wording.")
	}

	switch {
	case wpm < slowWPM:
		parts = append(parts, "You spoke slowly; a slightly quicker pace will keep listeners engaged.")
	case wpm > fastWPM:
		parts = append(parts, "You spoke quickly; slowing down will let your key points land.")
	default:
		parts = append(parts, "Your speaking pace was comfortable to follow.")
	}

	if fillers.Rate > fillerRateLimit {
		parts = append(parts, fmt.Sprintf("Filler words made up %.0f%% of your speech.", fillers.Rate*100))
	} else {
		parts = append(parts, "You kept filler words to a minimum.")
	}

	switch {
	case !body.Present:
		parts = append(parts, "Body language was not analyzed for this session.")
	case body.Overall >= 75:
		parts = append(parts, "Your body language projected confidence.")
	case body.Overall >= 50:
		parts = append(parts, "Your body language was steady but could be more expressive.")
	default:
		parts = append(parts, "Your posture and gestures need attention to support your message.")
	}

	return strings.Join(parts, " ")
}

// ActionCascade builds at most five action items in fixed priority order:
// short transcript, pacing, fillers, posture, gestures, then
// [ClosingEncouragement] if space remains.
func ActionCascade(wordCount int, wpm float64, fillers FillerSummary, body BodySignals) []string {
	var items []string
	add := func(s string) {
		if len(items) < maxActionItems {
			items = append(items, s)
		}
	}

	if wordCount < shortTranscriptWords {
		add(fmt.Sprintf("Practice a longer speech of at least %d words so your delivery can be assessed in depth.", shortTranscriptWords))
	}
	switch {
	case wpm > 0 && wpm < slowWPM:
		add("Pick up your pace toward 120 to 160 words per minute.")
	case wpm > fastWPM:
		add("Slow down to around 120 to 160 words per minute and pause between key points.")
	}
	if fillers.Rate > fillerRateLimit {
		phrase := "um"
		if len(fillers.Findings) > 0 {
			phrase = fillers.Findings[0].Phrase
		}
		add(fmt.Sprintf("Replace filler words (most often %q) with a short silent pause.", phrase))
	}
	if body.Present && body.Posture < bodyAdviceThreshold {
		add("Stand tall with your shoulders level and your weight evenly balanced.")
	}
	if body.Present && body.Gestures < bodyAdviceThreshold {
		add("Use purposeful hand gestures to emphasize your key points.")
	}
	add(ClosingEncouragement)
	return items
}
