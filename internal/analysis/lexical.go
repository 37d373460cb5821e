package analysis

import (
	"math"
	"strings"
	"unicode"
)

// mtldFactor is the type/token ratio at which an MTLD segment closes.
const mtldFactor = 0.72

// mtldMinTokens is the token count below which plain TTR is used.
const mtldMinTokens = 10

// abbreviations never end a sentence when followed by a period. Entries are
// lower-case and stored without their trailing period.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "vs": true, "etc": true,
	"e.g": true, "i.e": true, "approx": true, "a.m": true, "p.m": true,
}

// Transcript is a speech transcript with its recorded length in seconds.
type Transcript struct {
	Text     string
	Duration float64
}

// Stats holds the lexical quantities derived from a transcript.
type Stats struct {
	Words          []string
	Sentences      []string
	WordCount      int
	UniqueWords    int
	WordsPerMinute float64
}

// IsBlank reports whether text has no speech content at all: no token
// survives punctuation trimming ("...", "?!" and "—" are blank).
func IsBlank(text string) bool {
	return len(Tokenize(text)) == 0
}

// ComputeStats tokenizes text and derives counts and speaking rate. A
// non-positive duration yields a zero rate. Blank text yields zero Stats.
func ComputeStats(text string, duration float64) Stats {
	words := Tokenize(text)
	if len(words) == 0 {
		return Stats{}
	}
	st := Stats{
		Words:       words,
		Sentences:   SplitSentences(text),
		WordCount:   len(words),
		UniqueWords: countUnique(words),
	}
	if duration > 0 {
		st.WordsPerMinute = float64(st.WordCount) / (duration / 60)
	}
	return st
}

// Tokenize splits text on whitespace and strips leading and trailing
// punctuation from every token. Inner apostrophes and hyphens survive
// ("don't", "well-known"). Empty tokens are discarded.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := trimToken(f); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func trimToken(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// SplitSentences splits text at runs of '.', '!' or '?' that are followed by
// whitespace or the end of the text. A period after a known abbreviation or a
// single-letter initial does not end a sentence. Trailing text without a
// terminator forms the last sentence.
func SplitSentences(text string) []string {
	var (
		out []string
		cur []string
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		s := strings.Join(cur, " ")
		if len(Tokenize(s)) > 0 {
			out = append(out, s)
		}
		cur = cur[:0]
	}

	for _, chunk := range strings.Fields(text) {
		cur = append(cur, chunk)
		if endsSentence(chunk) {
			flush()
		}
	}
	flush()
	return out
}

// endsSentence reports whether a whitespace-delimited chunk closes a sentence.
func endsSentence(chunk string) bool {
	// Closing quotes and brackets may follow the terminator: `done."`.
	core := strings.TrimRightFunc(chunk, func(r rune) bool {
		return strings.ContainsRune(`"')]}”’»`, r)
	})
	if core == "" {
		return false
	}
	last := core[len(core)-1]
	if last != '.' && last != '!' && last != '?' {
		return false
	}
	if strings.ContainsAny(core, "!?") {
		return true
	}

	word := strings.ToLower(strings.TrimRight(core, "."))
	word = strings.TrimLeftFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if abbreviations[word] {
		return false
	}
	// Single-letter initials such as "J." in "J. R. R. Tolkien".
	if r := []rune(word); len(r) == 1 && unicode.IsLetter(r[0]) {
		return false
	}
	return true
}

func countUnique(words []string) int {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return len(seen)
}

// LexicalDiversity returns an MTLD-style diversity estimate in [0, 1].
//
// Tokens are lower-cased and walked in order while a running type/token ratio
// is maintained. Each time the ratio drops to mtldFactor or below a segment
// closes and the running set resets. A trailing partial segment contributes
// (1-ttr)/(1-mtldFactor). MTLD is tokens/segments, normalized by 100 and
// capped at 1. Inputs shorter than mtldMinTokens use plain type/token ratio.
func LexicalDiversity(words []string) float64 {
	n := len(words)
	if n == 0 {
		return 0
	}
	if n < mtldMinTokens {
		return float64(countUnique(words)) / float64(n)
	}

	var (
		segments float64
		types    = make(map[string]struct{})
		count    int
		ttr      = 1.0
	)
	for _, w := range words {
		count++
		types[strings.ToLower(w)] = struct{}{}
		ttr = float64(len(types)) / float64(count)
		if ttr <= mtldFactor {
			segments++
			types = make(map[string]struct{})
			count = 0
			ttr = 1
		}
	}
	if count > 0 {
		segments += (1 - ttr) / (1 - mtldFactor)
	}

	mtld := float64(n)
	if segments > 0 {
		mtld = float64(n) / segments
	}
	return math.Min(mtld/100, 1)
}
