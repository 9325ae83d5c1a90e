// Package segmenter splits announcement template text into literal runs and
// placeholder tokens, preserving document order and source offsets.
package segmenter

import "regexp"

// Kind distinguishes the two segment flavors.
type Kind string

const (
	KindLiteral     Kind = "literal"
	KindPlaceholder Kind = "placeholder"
)

// Segment is one unit of a template text. For placeholders Value is the bare
// identifier without braces; for literals it is the raw text run. Start and
// End are byte offsets into the source text, so concatenating the raw spans
// of all segments reconstructs it exactly.
type Segment struct {
	Kind  Kind
	Value string
	Start int
	End   int
}

// Placeholders are {identifier} tokens with no nested braces. Anything else,
// including unmatched braces, is literal text.
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Split scans text and returns its segments in left-to-right order,
// covering the whole string with no gaps or overlaps. Empty literal runs
// between adjacent placeholders are omitted.
func Split(text string) []Segment {
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	segments := make([]Segment, 0, 2*len(matches)+1)

	pos := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > pos {
			segments = append(segments, segmentOf(KindLiteral, text[pos:start], pos, start))
		}
		segments = append(segments, segmentOf(KindPlaceholder, text[m[2]:m[3]], start, end))
		pos = end
	}
	if pos < len(text) {
		segments = append(segments, segmentOf(KindLiteral, text[pos:], pos, len(text)))
	}
	return segments
}

// Placeholders returns just the placeholder identifiers of text, in order.
func Placeholders(text string) []string {
	var names []string
	for _, seg := range Split(text) {
		if seg.Kind == KindPlaceholder {
			names = append(names, seg.Value)
		}
	}
	return names
}

func segmentOf(kind Kind, value string, start, end int) Segment {
	return Segment{Kind: kind, Value: value, Start: start, End: end}
}
