package chunker

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

const story = "The quick brown fox jumps over the lazy dog. " +
	"It was a sunny day! Were the birds singing? " +
	"Nobody could tell for sure. The dog slept on. " +
	"Eventually the fox grew bored and wandered off into the woods."

func TestSplit_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		if got := Split(text, 100, 2); len(got) != 0 {
			t.Errorf("Split(%q) = %d segments, want 0", text, len(got))
		}
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	text := "  One sentence here. Another one there! And a third?  "

	segs := Split(text, 1000, 5)

	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Content != strings.TrimSpace(text) {
		t.Errorf("content = %q, want trimmed text", segs[0].Content)
	}
	if segs[0].Overlap != 0 {
		t.Errorf("first segment overlap = %d, want 0", segs[0].Overlap)
	}
}

func TestSplit_NoBoundaries(t *testing.T) {
	text := strings.Repeat("word ", 100) + "end"

	segs := Split(text, 50, 3)

	if len(segs) != 1 {
		t.Fatalf("expected whole text as one unit, got %d segments", len(segs))
	}
	if segs[0].Content != strings.TrimSpace(text) {
		t.Error("unit without terminators must not be truncated")
	}
}

func TestSplit_Reconstructs(t *testing.T) {
	texts := []string{
		story,
		"Short. Text.",
		"Ünïcödé sentences work. Ça va? Très bien! Fin.",
		"Multiple terminators?! Yes... really.\n\nNew paragraph. Done",
		"e.g. abbreviations split early. That is accepted.",
		strings.Repeat("A fairly long sentence with several words in it. ", 40),
	}

	for _, text := range texts {
		for _, size := range []int{1, 10, 50, 120, 5000} {
			for _, overlap := range []int{0, 1, 2, 10} {
				segs := Split(text, size, overlap)
				if got := Reconstruct(segs); got != strings.TrimSpace(text) {
					t.Errorf("size=%d overlap=%d: reconstruction mismatch\n got: %q\nwant: %q",
						size, overlap, got, strings.TrimSpace(text))
				}
			}
		}
	}
}

func TestSplit_Idempotent(t *testing.T) {
	first := Split(story, 60, 2)
	second := Split(Reconstruct(first), 60, 2)

	if len(first) != len(second) {
		t.Fatalf("segment count changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("segment %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSplit_LengthBound(t *testing.T) {
	text := story + " " + strings.Repeat("x", 200) + ". Tail sentence."
	maxUnit := 0
	for _, u := range sentenceUnits(strings.TrimSpace(text)) {
		if n := utf8.RuneCountInString(u); n > maxUnit {
			maxUnit = n
		}
	}

	for _, size := range []int{20, 50, 100} {
		for _, seg := range Split(text, size, 3) {
			if n := utf8.RuneCountInString(seg.Content); n > size+maxUnit {
				t.Errorf("size=%d: segment length %d exceeds bound %d", size, n, size+maxUnit)
			}
		}
	}
}

func TestSplit_BoundariesAtSentenceEnds(t *testing.T) {
	segs := Split(story, 50, 2)

	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}

	for i, seg := range segs[:len(segs)-1] {
		trimmed := strings.TrimRightFunc(seg.Content, unicode.IsSpace)
		last := trimmed[len(trimmed)-1]
		if !isTerminator(last) {
			t.Errorf("segment %d ends mid-sentence: %q", i, seg.Content)
		}
	}

	for i, seg := range segs {
		if r, _ := utf8.DecodeRuneInString(seg.Content); unicode.IsSpace(r) {
			t.Errorf("segment %d starts with whitespace: %q", i, seg.Content)
		}
		if !strings.Contains(story, seg.Content) {
			t.Errorf("segment %d is not a contiguous span of the source: %q", i, seg.Content)
		}
	}
}

func TestSplit_OverlapCarriesLastWords(t *testing.T) {
	text := "Alpha beta gamma delta. Epsilon zeta eta theta."

	segs := Split(text, 40, 2)

	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Content != "Alpha beta gamma delta. " {
		t.Errorf("first = %q", segs[0].Content)
	}
	if segs[1].Content != "gamma delta. Epsilon zeta eta theta." {
		t.Errorf("second = %q", segs[1].Content)
	}
	if prefix := segs[1].Content[:segs[1].Overlap]; prefix != "gamma delta. " {
		t.Errorf("overlap prefix = %q", prefix)
	}
}

func TestSplit_ZeroOverlapIsHardSplit(t *testing.T) {
	text := "Alpha beta gamma delta. Epsilon zeta eta theta."

	segs := Split(text, 30, 0)

	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[1].Content != "Epsilon zeta eta theta." || segs[1].Overlap != 0 {
		t.Errorf("second = %+v", segs[1])
	}
}

func TestSplit_OverlapShrinksToFit(t *testing.T) {
	// The triggering unit is 24 characters, so only 6 characters of
	// carried words fit under a target of 30.
	text := "Aaaa bbbb cccc dddd eeee. Ffff gggg hhhh iiii jjj."

	segs := Split(text, 30, 3)

	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if prefix := segs[1].Content[:segs[1].Overlap]; prefix != "eeee. " {
		t.Errorf("expected carry to shrink to one word, got %q", prefix)
	}
	if n := utf8.RuneCountInString(segs[1].Content); n > 30 {
		t.Errorf("second segment length %d exceeds target", n)
	}
}

func TestSplit_OversizedUnitDropsOverlap(t *testing.T) {
	long := strings.Repeat("z", 40) + "."
	text := "Short one here. " + long

	segs := Split(text, 30, 3)

	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[1].Overlap != 0 || segs[1].Content != long {
		t.Errorf("oversized unit should start a fresh segment, got %+v", segs[1])
	}
}

func TestSplit_Deterministic(t *testing.T) {
	a := Split(story, 40, 3)
	b := Split(story, 40, 3)

	if len(a) != len(b) {
		t.Fatal("non-deterministic segment count")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("segment %d differs between runs", i)
		}
	}
}

func TestSentenceUnits(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", "No terminator", []string{"No terminator"}},
		{"terminator at end", "Ends here.", []string{"Ends here."}},
		{"two", "One. Two", []string{"One. ", "Two"}},
		{"mixed", "A! B? C.", []string{"A! ", "B? ", "C."}},
		{"run of terminators", "Wait?! Ok", []string{"Wait?! ", "Ok"}},
		{"no space after dot", "v1.2 is out. Yes", []string{"v1.2 is out. ", "Yes"}},
		{"newlines", "Line one.\n\nLine two.", []string{"Line one.\n\n", "Line two."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sentenceUnits(tt.text)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("sentenceUnits(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestLastWords(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"one two three. ", 1, "three. "},
		{"one two three. ", 2, "two three. "},
		{"one two", 5, "one two"},
		{"one two", 0, ""},
	}

	for _, tt := range tests {
		if got := lastWords(tt.s, tt.n); got != tt.want {
			t.Errorf("lastWords(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}
