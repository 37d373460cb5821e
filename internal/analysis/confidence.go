package analysis

// Confidence sub-score keys.
const (
	SubScorePace          = "pace"
	SubScoreFluency       = "fluency"
	SubScoreAssertiveness = "assertiveness"
)

// ConfidenceResult estimates how confident the speaker sounded.
type ConfidenceResult struct {
	Score     int            `json:"score"`
	SubScores map[string]int `json:"subScores"`
	Insights  []string       `json:"insights"`
}

// AnalyzeConfidence derives a confidence estimate from transcript heuristics.
//
// Pace uses [ClassifyPace] on the overall speaking rate. Fluency starts at
// 100 and loses 400 points per unit filler rate and 5 points per disfluency.
// Assertiveness loses 800 points per unit hedge rate. The score weights them
// 0.35, 0.35 and 0.30.
func AnalyzeConfidence(t Transcript) ConfidenceResult {
	if IsBlank(t.Text) {
		return ConfidenceResult{SubScores: map[string]int{}}
	}
	st := ComputeStats(t.Text, t.Duration)
	if st.WordCount == 0 {
		return ConfidenceResult{SubScores: map[string]int{}}
	}

	fillers := DetectFillers(t.Text, st.WordCount)
	disfluencies := DetectDisfluencies(t.Text)
	hedgeRate := float64(fillers.ByGroup[FillerHedge]) / float64(st.WordCount)

	pace := ClassifyPace(st.WordsPerMinute)
	fluency := ClampScore(100 - fillers.Rate*400 - float64(len(disfluencies))*5)
	assertive := ClampScore(100 - hedgeRate*800)

	res := ConfidenceResult{
		Score: ClampScore(0.35*float64(pace) + 0.35*float64(fluency) + 0.30*float64(assertive)),
		SubScores: map[string]int{
			SubScorePace:          pace,
			SubScoreFluency:       fluency,
			SubScoreAssertiveness: assertive,
		},
	}

	switch {
	case pace >= 90:
		res.Insights = append(res.Insights, "Your speaking pace sounded steady and assured.")
	case st.WordsPerMinute < 120:
		res.Insights = append(res.Insights, "A slow pace can read as hesitation; aim for 120 to 190 words per minute.")
	default:
		res.Insights = append(res.Insights, "Rushing can signal nerves; slow down slightly at key points.")
	}
	if fluency < 70 {
		res.Insights = append(res.Insights, "Fillers and repeated words interrupted your flow.")
	}
	if assertive < 70 {
		res.Insights = append(res.Insights, "Hedging phrases like \"I think\" or \"kind of\" weaken your statements.")
	}
	return res
}
