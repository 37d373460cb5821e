package coach

import (
	"github.com/MrWong99/podium/internal/analysis"
)

// AnalysisErrorInsight is the single insight of [FailedAnalysis].
const AnalysisErrorInsight = "An error occurred during analysis"

const failedSummary = "We could not analyze this speech. Please try again in a moment."

// EmptyAnalysis is the result for a transcript without words: every score
// is zero and the only insight is "No speech detected", whatever the
// duration or pose data.
func EmptyAnalysis() CompositeAnalysis {
	return CompositeAnalysis{
		Content: Content{
			Language: analysis.EmptyLanguageResult(),
			Insights: []string{analysis.NoSpeechDetected},
		},
		Confidence:  Confidence{SubScores: map[string]int{}},
		Summary:     analysis.NoSpeechDetected,
		ActionItems: []string{analysis.MicrophoneAdvice},
		Provider:    ProviderFallback,
	}
}

// FailedAnalysis is the zeroed result returned alongside a pipeline error.
func FailedAnalysis() CompositeAnalysis {
	return CompositeAnalysis{
		Content: Content{
			Language: analysis.EmptyLanguageResult(),
			Insights: []string{AnalysisErrorInsight},
		},
		Confidence:  Confidence{SubScores: map[string]int{}},
		Summary:     failedSummary,
		ActionItems: []string{},
	}
}
