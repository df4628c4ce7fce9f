// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package folder

import (
	"strconv"
	"strings"
	"unicode"
)

var rawEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// textBuilder applies resource string processing to character data: runs of
// unquoted whitespace collapse to one space, leading and trailing whitespace
// is dropped, double quotes toggle verbatim mode, and backslash escapes are
// resolved. Markup is mirrored into a parallel raw form.
type textBuilder struct {
	text, raw strings.Builder
	quoted    bool
	escape    bool
	pending   bool
	markup    bool
	unicode   []rune
}

func (b *textBuilder) flush() {
	if b.pending && b.text.Len() > 0 {
		b.text.WriteByte(' ')
		b.raw.WriteByte(' ')
	}
	b.pending = false
}

func (b *textBuilder) emit(r rune) {
	b.flush()
	b.text.WriteRune(r)
	b.raw.WriteString(rawEscaper.Replace(string(r)))
}

// chars processes a run of character data.
func (b *textBuilder) chars(s string) {
	for _, r := range s {
		switch {
		case b.unicode != nil:
			b.unicode = append(b.unicode, r)
			if len(b.unicode) == 4 {
				if n, err := strconv.ParseUint(string(b.unicode), 16, 16); err == nil {
					b.emit(rune(n))
				}
				b.unicode = nil
			}
		case b.escape:
			b.escape = false
			switch r {
			case 'n':
				b.emit('\n')
			case 't':
				b.emit('\t')
			case 'u':
				b.unicode = make([]rune, 0, 4)
			default:
				b.emit(r)
			}
		case r == '\\':
			b.escape = true
		case r == '"':
			b.quoted = !b.quoted
		case !b.quoted && unicode.IsSpace(r):
			b.pending = true
		default:
			b.emit(r)
		}
	}
}

// tag records markup in the raw form only.
func (b *textBuilder) tag(s string) {
	b.flush()
	b.raw.WriteString(s)
	b.markup = true
}

// Text returns the processed text.
func (b *textBuilder) Text() string {
	return b.text.String()
}

// RawXML returns the processed text with its markup, or "" when the value
// contained no markup.
func (b *textBuilder) RawXML() string {
	if !b.markup {
		return ""
	}
	return b.raw.String()
}

// UnescapeString applies resource string processing to s.
func UnescapeString(s string) string {
	var b textBuilder
	b.chars(s)
	return b.Text()
}
