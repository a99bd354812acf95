package transcript

import (
	"io"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// NewDecoder wraps r so it yields clean UTF-8 transcript text.
//
// A UTF-8 BOM is dropped and a UTF-16 BOM switches decoding to UTF-16.
// Directional marks that some exporters put before every line are removed,
// and no-break spaces (including the narrow one used before AM/PM) become
// plain spaces so the line grammars see ordinary whitespace.
func NewDecoder(r io.Reader) io.Reader {
	return transform.NewReader(r, transform.Chain(
		xunicode.BOMOverride(xunicode.UTF8.NewDecoder()),
		runes.Remove(runes.Predicate(isDirectionalMark)),
		runes.Map(normalizeSpace),
	))
}

func isDirectionalMark(r rune) bool {
	switch r {
	case '\u200E', '\u200F', '\u202A', '\u202B', '\u202C', '\u202D', '\u202E', '\u2066', '\u2067', '\u2068', '\u2069':
		return true
	}
	return false
}

func normalizeSpace(r rune) rune {
	switch r {
	case '\u00A0', '\u202F', '\u2007':
		return ' '
	}
	return r
}
