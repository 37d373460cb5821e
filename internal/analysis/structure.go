package analysis

import (
	"math"
	"regexp"
	"strings"
)

var subordinators = map[string]bool{
	"after": true, "although": true, "because": true, "before": true,
	"if": true, "once": true, "since": true, "though": true, "unless": true,
	"until": true, "when": true, "whenever": true, "where": true,
	"whereas": true, "wherever": true, "whether": true, "while": true,
	"which": true, "who": true, "whom": true, "whose": true,
}

var parenGroup = regexp.MustCompile(`\([^()]*\)`)

// StructureMetrics describes sentence-level shape of a transcript.
type StructureMetrics struct {
	AverageSentenceLength float64 `json:"averageSentenceLength"`
	Complexity            int     `json:"complexity"`
	Variety               int     `json:"variety"`
	Pacing                int     `json:"pacing"`
	SentenceCount         int     `json:"sentenceCount"`
}

// Score folds the three structure sub-scores into one value using the fixed
// local weights 0.4 complexity, 0.3 variety and 0.3 pacing.
func (m StructureMetrics) Score() int {
	if m.SentenceCount == 0 {
		return 0
	}
	return ClampScore(0.4*float64(m.Complexity) + 0.3*float64(m.Variety) + 0.3*float64(m.Pacing))
}

// AnalyzeStructure computes complexity, variety and pacing for sentences.
//
// Per sentence, complexity is 2×subordinators + commas + 3×semicolons +
// 2×parenthetical groups + 2×colons; the mean is scaled ×10 and capped at 100.
// Variety is the population standard deviation of sentence word counts ×5,
// capped at 100, and is 0 with three or fewer sentences. Pacing counts
// buildup (short <5 words then more than double) and punch (long >15 then
// short <8) pairs: min(50 + 100×patterns/sentences, 100), or 50 below four
// sentences.
func AnalyzeStructure(sentences []string) StructureMetrics {
	n := len(sentences)
	if n == 0 {
		return StructureMetrics{}
	}

	lengths := make([]int, n)
	var totalWords, totalComplexity int
	for i, s := range sentences {
		words := Tokenize(s)
		lengths[i] = len(words)
		totalWords += len(words)
		totalComplexity += sentenceComplexity(s, words)
	}

	m := StructureMetrics{
		SentenceCount:         n,
		AverageSentenceLength: float64(totalWords) / float64(n),
		Complexity:            ClampScore(float64(totalComplexity) / float64(n) * 10),
		Variety:               varietyScore(lengths),
		Pacing:                pacingScore(lengths),
	}
	return m
}

func sentenceComplexity(sentence string, words []string) int {
	subs := 0
	for _, w := range words {
		if subordinators[strings.ToLower(w)] {
			subs++
		}
	}
	return 2*subs +
		strings.Count(sentence, ",") +
		3*strings.Count(sentence, ";") +
		2*len(parenGroup.FindAllString(sentence, -1)) +
		2*strings.Count(sentence, ":")
}

func varietyScore(lengths []int) int {
	if len(lengths) <= 2 {
		return 0
	}
	return ClampScore(popStdDev(lengths) * 5)
}

func pacingScore(lengths []int) int {
	n := len(lengths)
	if n < 4 {
		return 50
	}
	patterns := 0
	for i := 0; i+1 < n; i++ {
		a, b := lengths[i], lengths[i+1]
		switch {
		case a < 5 && b > 2*a:
			patterns++
		case a > 15 && b < 8:
			patterns++
		}
	}
	return ClampScore(50 + 100*float64(patterns)/float64(n))
}

func popStdDev(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += float64(x)
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := float64(x) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// ClampScore rounds v to the nearest integer and clamps it to [0, 100].
// NaN maps to 0.
func ClampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Round(v)
	switch {
	case r < 0:
		return 0
	case r > 100:
		return 100
	}
	return int(r)
}
