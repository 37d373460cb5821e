package analysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// FillerGroup classifies filler phrases.
type FillerGroup string

const (
	FillerDiscourse FillerGroup = "discourse"
	FillerHedge     FillerGroup = "hedge"
	FillerQualifier FillerGroup = "qualifier"
)

var fillerGroups = map[FillerGroup][]string{
	FillerDiscourse: {
		"um", "uh", "uhm", "er", "erm", "ah", "hmm", "like", "you know",
		"i mean", "so", "well", "basically", "actually", "literally", "right",
	},
	FillerHedge: {
		"sort of", "kind of", "i think", "i guess", "i suppose", "maybe",
		"perhaps", "probably",
	},
	FillerQualifier: {
		"just", "really", "very", "totally", "quite", "pretty much",
	},
}

// Category is a transition category. The set is closed.
type Category string

const (
	CategoryAddition Category = "addition"
	CategoryContrast Category = "contrast"
	CategoryCause    Category = "cause"
	CategorySequence Category = "sequence"
	CategorySummary  Category = "summary"
)

// Categories lists every transition category in reporting order.
var Categories = []Category{
	CategoryAddition, CategoryContrast, CategoryCause, CategorySequence, CategorySummary,
}

var transitionPhrases = map[Category][]string{
	CategoryAddition: {
		"additionally", "furthermore", "moreover", "in addition", "also",
		"besides", "as well as", "what's more", "likewise",
	},
	CategoryContrast: {
		"however", "nevertheless", "on the other hand", "in contrast",
		"although", "whereas", "yet", "but", "conversely", "instead",
		"even so", "on the contrary",
	},
	CategoryCause: {
		"therefore", "thus", "consequently", "as a result", "because",
		"hence", "so that", "due to", "for this reason", "accordingly",
	},
	CategorySequence: {
		"first", "firstly", "second", "secondly", "third", "thirdly", "next",
		"then", "finally", "subsequently", "afterwards", "lastly",
		"to begin with", "meanwhile",
	},
	CategorySummary: {
		"in conclusion", "to summarize", "in summary", "overall", "to sum up",
		"ultimately", "in short", "all in all", "in brief",
	},
}

var (
	fillerPhraseGroup   = invert(fillerGroups)
	transitionPhraseCat = invert(transitionPhrases)

	fillerPattern     = phrasePattern(fillerPhraseGroup)
	transitionPattern = phrasePattern(transitionPhraseCat)
)

func invert[K comparable](m map[K][]string) map[string]K {
	out := make(map[string]K)
	for k, phrases := range m {
		for _, p := range phrases {
			out[p] = k
		}
	}
	return out
}

// phrasePattern compiles a case-insensitive, word-bounded alternation of all
// phrases. Longer phrases come first so that RE2's leftmost-first choice
// prefers "you know" over a hypothetical "you" and matches never overlap.
func phrasePattern[K comparable](phrases map[string]K) *regexp.Regexp {
	keys := make([]string, 0, len(phrases))
	for p := range phrases {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	alts := make([]string, len(keys))
	for i, k := range keys {
		parts := strings.Fields(k)
		for j := range parts {
			parts[j] = regexp.QuoteMeta(parts[j])
		}
		alts[i] = strings.Join(parts, `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// findPhrases returns the matches of re that are whole tokens. RE2's \b
// treats '-' and '\'' as boundaries, so a match glued to a word by an inner
// hyphen or apostrophe ("well-known", "so-called") is dropped, mirroring
// [Tokenize].
func findPhrases(re *regexp.Regexp, text string) []string {
	var out []string
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if joinedBefore(text[:loc[0]]) || joinedAfter(text[loc[1]:]) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsNumber(r) }

func isJoiner(r rune) bool { return r == '-' || r == '\'' || r == '’' }

// joinedBefore reports whether prefix ends in a joiner that follows a word
// rune.
func joinedBefore(prefix string) bool {
	r, n := utf8.DecodeLastRuneInString(prefix)
	if !isJoiner(r) {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(prefix[:len(prefix)-n])
	return isWordRune(prev)
}

// joinedAfter reports whether suffix starts with a joiner followed by a word
// rune.
func joinedAfter(suffix string) bool {
	r, n := utf8.DecodeRuneInString(suffix)
	if !isJoiner(r) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(suffix[n:])
	return isWordRune(next)
}

// normalizePhrase lower-cases a match and collapses inner whitespace.
func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// FillerFinding is the tally for one filler phrase. Counts are
// non-overlapping phrase occurrences.
type FillerFinding struct {
	Phrase string      `json:"phrase"`
	Group  FillerGroup `json:"group"`
	Count  int         `json:"count"`
	Rate   float64     `json:"rate"`
}

// FillerSummary aggregates all filler findings in a transcript.
type FillerSummary struct {
	Findings []FillerFinding    `json:"findings"`
	ByGroup  map[FillerGroup]int `json:"byGroup"`
	Total    int                `json:"total"`
	Rate     float64            `json:"rate"`
}

// DetectFillers counts filler phrases in text. Rates divide phrase
// occurrences by wordCount, so a two-word filler counts once. Findings are
// ordered by descending count, then phrase.
func DetectFillers(text string, wordCount int) FillerSummary {
	counts := make(map[string]int)
	for _, m := range findPhrases(fillerPattern, text) {
		counts[normalizePhrase(m)]++
	}

	sum := FillerSummary{ByGroup: make(map[FillerGroup]int)}
	for phrase, n := range counts {
		f := FillerFinding{Phrase: phrase, Group: fillerPhraseGroup[phrase], Count: n}
		if wordCount > 0 {
			f.Rate = float64(n) / float64(wordCount)
		}
		sum.Findings = append(sum.Findings, f)
		sum.ByGroup[f.Group] += n
		sum.Total += n
	}
	sort.Slice(sum.Findings, func(i, j int) bool {
		a, b := sum.Findings[i], sum.Findings[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Phrase < b.Phrase
	})
	if wordCount > 0 {
		sum.Rate = float64(sum.Total) / float64(wordCount)
	}
	return sum
}

// TransitionFinding holds the matches for one category.
type TransitionFinding struct {
	Category  Category `json:"category"`
	Instances []string `json:"instances"`
	Count     int      `json:"count"`
}

// TransitionSummary aggregates transition usage across all categories.
type TransitionSummary struct {
	Findings   []TransitionFinding `json:"findings"`
	ByCategory map[Category]int    `json:"byCategory"`
	Total      int                 `json:"total"`
	Coverage   float64             `json:"coverage"`
}

// DetectTransitions matches transition phrases in text. Coverage is
// Total / max(1, sentenceCount).
func DetectTransitions(text string, sentenceCount int) TransitionSummary {
	byCat := make(map[Category][]string)
	for _, m := range findPhrases(transitionPattern, text) {
		p := normalizePhrase(m)
		cat := transitionPhraseCat[p]
		byCat[cat] = append(byCat[cat], p)
	}

	sum := TransitionSummary{ByCategory: make(map[Category]int, len(Categories))}
	for _, c := range Categories {
		inst := byCat[c]
		sum.ByCategory[c] = len(inst)
		if len(inst) == 0 {
			continue
		}
		sum.Findings = append(sum.Findings, TransitionFinding{Category: c, Instances: inst, Count: len(inst)})
		sum.Total += len(inst)
	}
	sum.Coverage = float64(sum.Total) / float64(max(1, sentenceCount))
	return sum
}

// DisfluencyKind names a kind of speech disfluency.
type DisfluencyKind string

const (
	DisfluencyRepetition DisfluencyKind = "repetition"
	DisfluencyFalseStart DisfluencyKind = "false_start"
)

// Disfluency is one stutter or repetition found between adjacent words.
type Disfluency struct {
	Kind  DisfluencyKind `json:"kind"`
	Text  string         `json:"text"`
	Index int            `json:"index"`
}

// falseStartSimilarity is the minimum Jaro-Winkler similarity between a
// truncated fragment and the following word.
const falseStartSimilarity = 0.8

// DetectDisfluencies finds immediate word repetitions ("the the") and
// truncated false starts ("wh- what") in text. Index is the position of the
// first word of the pair in the whitespace-split transcript.
func DetectDisfluencies(text string) []Disfluency {
	fields := strings.Fields(strings.ToLower(text))
	var out []Disfluency
	for i := 0; i+1 < len(fields); i++ {
		raw, next := fields[i], trimToken(fields[i+1])
		cur := trimToken(raw)
		if cur == "" || next == "" {
			continue
		}

		if strings.HasSuffix(raw, "-") && cur != next {
			if strings.HasPrefix(next, cur) || matchr.JaroWinkler(cur, next, false) >= falseStartSimilarity {
				out = append(out, Disfluency{Kind: DisfluencyFalseStart, Text: raw + " " + next, Index: i})
				continue
			}
		}
		// Sentence-final punctuation separates deliberate echoes ("Never. Never.").
		if cur == next && !endsSentence(raw) {
			out = append(out, Disfluency{Kind: DisfluencyRepetition, Text: cur + " " + next, Index: i})
		}
	}
	return out
}
