package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// The textarea rewrites text it is given: tabs become four spaces, every
// \r and \n becomes a newline, and other control characters and invalid
// runes are dropped. The editor therefore shows a display form of the
// document and maps each change in it back onto the document text.

const tabSpaces = "    "

// element is one unit of document text with a fixed display form: a rune,
// a CRLF pair or a dropped character.
type element struct {
	size    int // bytes in the document
	display string
}

func nextElement(s string) element {
	if strings.HasPrefix(s, "\r\n") {
		return element{size: 2, display: "\n"}
	}
	r, size := utf8.DecodeRuneInString(s)
	switch {
	case r == utf8.RuneError:
		return element{size: size}
	case r == '\r' || r == '\n':
		return element{size: size, display: "\n"}
	case r == '\t':
		return element{size: size, display: tabSpaces}
	case unicode.IsControl(r):
		return element{size: size}
	default:
		return element{size: size, display: s[:size]}
	}
}

// displayText is the text the textarea shows for doc
func displayText(doc string) string {
	var b strings.Builder
	for i := 0; i < len(doc); {
		e := nextElement(doc[i:])
		b.WriteString(e.display)
		i += e.size
	}
	return b.String()
}

// docOffsets maps the display rune positions start and end onto byte offsets
// in doc. start is moved back and end forward to element boundaries, so a
// tab or CRLF pair is either kept whole or replaced whole. The returned
// display positions are the adjusted ones.
func docOffsets(doc string, start, end int) (docStart, dispStart, docEnd, dispEnd int) {
	docStart, dispStart = -1, -1
	pos := 0
	for i := 0; i < len(doc); {
		e := nextElement(doc[i:])
		w := utf8.RuneCountInString(e.display)
		if docStart < 0 && w > 0 && pos+w > start {
			docStart, dispStart = i, pos
		}
		if pos >= end {
			docEnd, dispEnd = i, pos
			if docStart < 0 {
				docStart, dispStart = i, pos
			}
			return docStart, dispStart, max(docEnd, docStart), max(dispEnd, dispStart)
		}
		pos += w
		i += e.size
	}
	if docStart < 0 {
		docStart, dispStart = len(doc), pos
	}
	return docStart, dispStart, len(doc), pos
}

// applyDisplayEdit returns doc changed the way its display form changed into
// next. Only the changed region is rewritten; inserted newlines use the line
// ending doc already uses.
func applyDisplayEdit(doc, next string) string {
	prev := []rune(displayText(doc))
	want := []rune(next)

	prefix := 0
	for prefix < len(prev) && prefix < len(want) && prev[prefix] == want[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(prev)-prefix && suffix < len(want)-prefix &&
		prev[len(prev)-1-suffix] == want[len(want)-1-suffix] {
		suffix++
	}

	docStart, dispStart, docEnd, dispEnd := docOffsets(doc, prefix, len(prev)-suffix)
	inserted := string(want[dispStart : len(want)-(len(prev)-dispEnd)])

	newline := "\n"
	if strings.Contains(doc, "\r\n") {
		newline = "\r\n"
	}
	result := doc[:docStart] + strings.ReplaceAll(inserted, "\n", newline) + doc[docEnd:]

	// A lone \r next to an inserted newline can merge into a CRLF pair.
	if displayText(result) != next {
		return strings.ReplaceAll(next, "\n", newline)
	}
	return result
}
