package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segment is one chunk of text produced by Split.
type Segment struct {
	// Content is an exact substring-concatenation of the source text.
	Content string

	// Overlap is the byte length of the prefix of Content repeated from
	// the end of the previous segment. Zero for the first segment.
	Overlap int
}

// Split divides text into sentence-aligned segments of roughly targetSize
// characters. Each new segment starts with the last overlapWords words of
// the previous one.
//
// The text is trimmed first. Dropping each segment's Overlap prefix and
// concatenating yields the trimmed text exactly. A single sentence longer
// than targetSize is kept whole. Empty text yields no segments.
func Split(text string, targetSize, overlapWords int) []Segment {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}
	if overlapWords < 0 {
		overlapWords = 0
	}

	var (
		segments []Segment
		buf      string
		bufLen   int
		overlap  int
	)
	for _, unit := range sentenceUnits(text) {
		unitLen := utf8.RuneCountInString(unit)

		if buf != "" && bufLen+unitLen > targetSize {
			segments = append(segments, Segment{Content: buf, Overlap: overlap})

			carry := carryOver(buf, overlapWords, targetSize-unitLen)
			buf = carry + unit
			bufLen = utf8.RuneCountInString(carry) + unitLen
			overlap = len(carry)
			continue
		}

		buf += unit
		bufLen += unitLen
	}
	if buf != "" {
		segments = append(segments, Segment{Content: buf, Overlap: overlap})
	}

	return segments
}

// Reconstruct joins segments back into the text they were split from.
func Reconstruct(segments []Segment) string {
	var sb strings.Builder
	for _, s := range segments {
		sb.WriteString(s.Content[s.Overlap:])
	}
	return sb.String()
}

// sentenceUnits cuts text after every run of '.', '!' or '?' that is
// followed by whitespace. The whitespace stays with the preceding unit,
// so the units partition text.
func sentenceUnits(text string) []string {
	var units []string

	start, i := 0, 0
	for i < len(text) {
		if !isTerminator(text[i]) {
			i++
			continue
		}

		j := i + 1
		for j < len(text) && isTerminator(text[j]) {
			j++
		}
		k := j
		for k < len(text) {
			r, size := utf8.DecodeRuneInString(text[k:])
			if !unicode.IsSpace(r) {
				break
			}
			k += size
		}

		if k > j {
			units = append(units, text[start:k])
			start = k
		}
		i = k
	}
	if start < len(text) {
		units = append(units, text[start:])
	}

	return units
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

// carryOver returns the suffix of s starting at its n-th last word, with
// n reduced until the suffix is at most budget characters.
func carryOver(s string, n, budget int) string {
	if budget <= 0 {
		return ""
	}
	for ; n > 0; n-- {
		suffix := lastWords(s, n)
		if utf8.RuneCountInString(suffix) <= budget {
			return suffix
		}
	}
	return ""
}

// lastWords returns the suffix of s that begins with its n-th last
// whitespace-separated word. Trailing whitespace is included.
func lastWords(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		for i > 0 {
			r, size := utf8.DecodeLastRuneInString(s[:i])
			if !unicode.IsSpace(r) {
				break
			}
			i -= size
		}
		for i > 0 {
			r, size := utf8.DecodeLastRuneInString(s[:i])
			if unicode.IsSpace(r) {
				break
			}
			i -= size
		}
	}
	return s[i:]
}
