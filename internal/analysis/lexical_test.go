package analysis

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize(`Hello, world! Don't stop -- "well-known" (really).`)
	want := []string{"Hello", "world", "Don't", "stop", "well-known", "really"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %q, want %q", got, want)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"abbreviations", "Dr. Smith arrived at 5 p.m. yesterday. He was late! Was he? Yes.", 4},
		{"initials", "J. R. R. Tolkien wrote books. They sold well.", 2},
		{"e.g.", "Use fruit, e.g. apples. Then rest.", 2},
		{"no terminator", "we just kept talking and talking", 1},
		{"ellipsis and quotes", `He said "stop." Then... silence`, 3},
		{"empty", "   ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitSentences(tt.text); len(got) != tt.want {
				t.Errorf("SplitSentences(%q) = %q (%d), want %d", tt.text, got, len(got), tt.want)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats("One two three. Two again!", 30)
	if st.WordCount != 5 {
		t.Errorf("WordCount = %d, want 5", st.WordCount)
	}
	if st.UniqueWords != 4 {
		t.Errorf("UniqueWords = %d, want 4", st.UniqueWords)
	}
	if st.WordsPerMinute != 10 {
		t.Errorf("WordsPerMinute = %v, want 10", st.WordsPerMinute)
	}
	if len(st.Sentences) != 2 {
		t.Errorf("Sentences = %d, want 2", len(st.Sentences))
	}
}

func TestComputeStats_Blank(t *testing.T) {
	for _, text := range []string{"", " ", "\n\t  ", "...", "—", "?! --"} {
		if !IsBlank(text) {
			t.Errorf("IsBlank(%q) = false", text)
		}
		st := ComputeStats(text, 60)
		if st.WordCount != 0 || st.UniqueWords != 0 || st.WordsPerMinute != 0 || len(st.Sentences) != 0 {
			t.Errorf("ComputeStats(%q) = %+v, want zero", text, st)
		}
	}
}

func TestIsBlank_Words(t *testing.T) {
	for _, text := range []string{"ok", "... so?", "42"} {
		if IsBlank(text) {
			t.Errorf("IsBlank(%q) = true", text)
		}
	}
}

func TestComputeStats_NonPositiveDuration(t *testing.T) {
	if st := ComputeStats("hello there", 0); st.WordsPerMinute != 0 {
		t.Errorf("WordsPerMinute = %v, want 0", st.WordsPerMinute)
	}
}

func TestLexicalDiversity_ShortUsesTTR(t *testing.T) {
	got := LexicalDiversity([]string{"a", "b", "A"})
	if math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("LexicalDiversity = %v, want 2/3", got)
	}
	if got := LexicalDiversity(nil); got != 0 {
		t.Errorf("LexicalDiversity(nil) = %v, want 0", got)
	}
}

func TestLexicalDiversity_AllUnique(t *testing.T) {
	words := strings.Fields("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike november oscar papa quebec romeo sierra tango")
	// No segment ever closes and the partial credit is zero, so MTLD is the
	// token count.
	if got := LexicalDiversity(words); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("LexicalDiversity = %v, want 0.2", got)
	}
}

func TestLexicalDiversity_Repetitive(t *testing.T) {
	words := strings.Fields(strings.Repeat("the ", 20))
	// Every second token closes a segment: 10 segments, MTLD 2.
	if got := LexicalDiversity(words); math.Abs(got-0.02) > 1e-9 {
		t.Errorf("LexicalDiversity = %v, want 0.02", got)
	}
}

func TestLexicalDiversity_VariedBeatsRepetitive(t *testing.T) {
	varied := Tokenize("Our product helps small bakeries manage orders, track flour inventory, schedule staff and reach loyal customers through friendly reminders every week.")
	repetitive := Tokenize("The thing is the thing and the thing is good and the thing is the thing we like and the thing is good.")
	if LexicalDiversity(varied) <= LexicalDiversity(repetitive) {
		t.Errorf("varied %v should exceed repetitive %v", LexicalDiversity(varied), LexicalDiversity(repetitive))
	}
}

func TestLexicalDiversity_CaseInvariant(t *testing.T) {
	text := "Today I want to talk about habits. Habits shape who we are, and small habits compound over years. " +
		"First, notice your cues. Then, change the routine. Finally, reward yourself and repeat the habit."
	lower := LexicalDiversity(Tokenize(text))
	upper := LexicalDiversity(Tokenize(strings.ToUpper(text)))
	if lower != upper {
		t.Errorf("diversity changed under case normalization: %v vs %v", lower, upper)
	}
}
