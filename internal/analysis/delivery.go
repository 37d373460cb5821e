package analysis

import "math"

// pauseGap is the silence between segments, in seconds, that counts as a
// pause.
const pauseGap = 0.5

// minRhythmSamples is the number of word-duration samples that must be
// exceeded before rhythm is scored.
const minRhythmSamples = 5

// clarityPlaceholder is reported as Clarity until a real signal exists.
const clarityPlaceholder = 80

// Segment is one timed piece of a transcription, in seconds.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// DeliveryMetrics summarizes speaking pace and timing.
type DeliveryMetrics struct {
	Pace    int `json:"pace"`
	Clarity int `json:"clarity"`
	// ClarityMeasured is false while Clarity is a fixed placeholder.
	ClarityMeasured bool    `json:"clarityMeasured"`
	Rhythm          int     `json:"rhythm"`
	WordsPerMinute  float64 `json:"wordsPerMinute"`
	PauseCount      int     `json:"pauseCount"`
	TotalWords      int     `json:"totalWords"`
	Duration        float64 `json:"duration"`
}

// ClassifyPace maps a speaking rate onto the pace score:
// <80 → 40, <120 → 60, <190 → 90, otherwise 70.
func ClassifyPace(wpm float64) int {
	switch {
	case wpm < 80:
		return 40
	case wpm < 120:
		return 60
	case wpm < 190:
		return 90
	default:
		return 70
	}
}

// AnalyzeDelivery computes timing metrics from ordered segments. Ordering is
// the caller's responsibility; unordered input yields meaningless but finite
// numbers. No segments yields zero metrics.
func AnalyzeDelivery(segments []Segment) DeliveryMetrics {
	m := DeliveryMetrics{Clarity: clarityPlaceholder}
	if len(segments) == 0 {
		return m
	}

	var durations []float64
	for i, s := range segments {
		n := len(Tokenize(s.Text))
		m.TotalWords += n
		if n > 0 && s.End > s.Start {
			durations = append(durations, (s.End-s.Start)/float64(n))
		}
		if i > 0 && s.Start-segments[i-1].End > pauseGap {
			m.PauseCount++
		}
	}

	m.Duration = segments[len(segments)-1].End - segments[0].Start
	if m.Duration > 0 {
		m.WordsPerMinute = float64(m.TotalWords) / (m.Duration / 60)
	}
	m.Pace = ClassifyPace(m.WordsPerMinute)
	m.Rhythm = rhythmScore(durations)
	return m
}

// rhythmScore grades the coefficient of variation of per-segment average word
// duration: <10% → 50, <25% → 70, <50% → 90, otherwise 75.
func rhythmScore(durations []float64) int {
	if len(durations) <= minRhythmSamples {
		return 0
	}
	var sum float64
	for _, d := range durations {
		sum += d
	}
	mean := sum / float64(len(durations))
	if mean <= 0 {
		return 0
	}
	var sq float64
	for _, d := range durations {
		sq += (d - mean) * (d - mean)
	}
	cv := math.Sqrt(sq/float64(len(durations))) / mean * 100

	switch {
	case cv < 10:
		return 50
	case cv < 25:
		return 70
	case cv < 50:
		return 90
	default:
		return 75
	}
}
