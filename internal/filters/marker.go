package filters

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMarkerPrefix starts every idempotency marker.
const DefaultMarkerPrefix = "autolabel_"

// Marker is inert criteria text whose presence means a rule for its label exists.
type Marker string

// NewMarker joins prefix and the label. Runs of whitespace inside the label
// become "_" so the marker stays one search term: Gmail splits a spaced
// exclusion into separate terms, and "News Letter" would otherwise carry
// the marker for "News".
func NewMarker(prefix, label string) Marker {
	if prefix == "" {
		prefix = DefaultMarkerPrefix
	}
	return Marker(prefix + strings.Join(strings.Fields(label), "_"))
}

func (m Marker) String() string { return string(m) }

// FoundIn reports whether text contains the marker as a whole token: the
// rune after it must not continue a label name and the rune before it must
// not be part of a word. This keeps the marker for "News" from matching a
// rule tagged for "Newsletter" or "News/Tech" while still accepting the
// negated "-marker" form rule lists display.
func (m Marker) FoundIn(text string) bool {
	needle := string(m)
	if needle == "" {
		return false
	}
	for offset := 0; offset <= len(text); {
		i := strings.Index(text[offset:], needle)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(needle)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !continuesLabel(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func continuesLabel(r rune) bool {
	if isWordRune(r) {
		return true
	}
	switch r {
	case '-', '/', '.':
		return true
	}
	return false
}
