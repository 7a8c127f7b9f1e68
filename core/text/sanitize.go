package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/siherrmann/hiersearch/model"
	"golang.org/x/text/unicode/norm"
)

// offsets maps every byte offset of an input, its end included, to a byte offset of an output
type offsets []int

// then composes o with the map of a following step
func (o offsets) then(next offsets) offsets {
	composed := make(offsets, len(o))
	for i, v := range o {
		composed[i] = next[v]
	}
	return composed
}

// Sanitize removes control and zero-width characters, applies NFKC and collapses whitespace.
// A whitespace run containing a newline becomes a single newline, any other run a single space.
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	cleaned, _ := sanitize(s)
	return cleaned
}

// SanitizeLinks sanitizes s and moves every link start to the same character in the sanitized text
func SanitizeLinks(s string, links []model.Link) (string, []model.Link) {
	cleaned, m := sanitize(s)

	remapped := make([]model.Link, 0, len(links))
	for _, l := range links {
		start := min(max(l.Start, 0), len(s))
		remapped = append(remapped, model.Link{
			Path:  l.Path,
			Start: m[start],
			Name:  Sanitize(l.Name),
		})
	}
	return cleaned, remapped
}

// Clean turns raw markdown content into sanitized plain text and its links,
// link offsets being expressed in the returned text
func Clean(raw string) (string, []model.Link) {
	plain, links := ExtractLinks(raw)
	return SanitizeLinks(plain, links)
}

func sanitize(s string) (string, offsets) {
	stripped, m1 := strip(s)
	normalized, m2 := nfkc(stripped)
	collapsed, m3 := collapse(normalized)
	return collapsed, m1.then(m2).then(m3)
}

func dropped(r rune, size int) bool {
	if r == utf8.RuneError && size <= 1 {
		return true
	}
	if unicode.IsControl(r) && !unicode.IsSpace(r) {
		return true
	}
	// zero-width space, joiners, byte order mark, soft hyphen
	return unicode.Is(unicode.Cf, r)
}

func strip(s string) (string, offsets) {
	var b strings.Builder
	b.Grow(len(s))
	m := make(offsets, len(s)+1)

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		for j := i; j < i+size; j++ {
			m[j] = b.Len()
		}
		if !dropped(r, size) {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	m[len(s)] = b.Len()
	return b.String(), m
}

func nfkc(s string) (string, offsets) {
	var b strings.Builder
	b.Grow(len(s))
	m := make(offsets, len(s)+1)

	// An expanding character can span several segments, the first one leaving Pos unchanged.
	// Its bytes map to the start of the whole expansion.
	var it norm.Iter
	it.InitString(norm.NFKC, s)
	lastPos, segOut := -1, 0
	for !it.Done() {
		start := it.Pos()
		if start != lastPos {
			segOut = b.Len()
			lastPos = start
		}
		segment := it.Next()
		for j := start; j < it.Pos(); j++ {
			m[j] = segOut
		}
		b.Write(segment)
	}
	m[len(s)] = b.Len()
	return b.String(), m
}

func collapse(s string) (string, offsets) {
	var b strings.Builder
	b.Grow(len(s))
	m := make(offsets, len(s)+1)

	pending, newline := false, false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			pending = true
			newline = newline || r == '\n'
		} else {
			if pending && b.Len() > 0 {
				if newline {
					b.WriteByte('\n')
				} else {
					b.WriteByte(' ')
				}
			}
			pending, newline = false, false
		}

		for j := i; j < i+size; j++ {
			m[j] = b.Len()
		}
		if !unicode.IsSpace(r) {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	m[len(s)] = b.Len()
	return b.String(), m
}
