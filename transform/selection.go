package transform

import (
	"fmt"
	"strings"
)

// Selection is the span of the document an edit applies to. Start and End
// are byte offsets into the content the selection was taken from; a selection
// built from text alone carries no offsets.
type Selection struct {
	Text  string
	Start int
	End   int
}

// TextSelection selects text without knowing where it is. It is applied to
// the first occurrence of text in the document.
func TextSelection(text string) Selection {
	return Selection{Text: text, Start: -1, End: -1}
}

// RangeSelection selects content[start:end]
func RangeSelection(content string, start, end int) (Selection, error) {
	if start < 0 || end < start || end > len(content) {
		return Selection{}, fmt.Errorf("selection %d:%d out of range for %d bytes", start, end, len(content))
	}
	return Selection{Text: content[start:end], Start: start, End: end}, nil
}

// LineSelection selects the 1-based, inclusive line range of content. The
// line ending of the last selected line, \n or \r\n, is not part of the
// selection.
func LineSelection(content string, startLine, endLine int) (Selection, error) {
	if startLine < 1 || endLine < startLine {
		return Selection{}, fmt.Errorf("invalid line range %d-%d", startLine, endLine)
	}

	lineStarts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	if endLine > len(lineStarts) {
		return Selection{}, fmt.Errorf("line %d is past the end of the document (%d lines)", endLine, len(lineStarts))
	}

	start := lineStarts[startLine-1]
	end := len(content)
	if endLine < len(lineStarts) {
		end = lineStarts[endLine] - 1
		if end > start && content[end-1] == '\r' {
			end--
		}
	}
	return RangeSelection(content, start, end)
}

// Anchored reports whether the selection knows its offsets
func (s Selection) Anchored() bool {
	return s.Start >= 0 && s.End-s.Start == len(s.Text)
}

// Empty reports whether nothing is selected
func (s Selection) Empty() bool {
	return s.Text == ""
}

// substitute replaces the selection inside content with replacement. An
// anchored selection must still match content at its offsets.
func substitute(content string, sel Selection, replacement string) (string, error) {
	if sel.Anchored() {
		if sel.End > len(content) || content[sel.Start:sel.End] != sel.Text {
			return "", ErrStaleSelection
		}
		return content[:sel.Start] + replacement + content[sel.End:], nil
	}

	idx := strings.Index(content, sel.Text)
	if idx < 0 {
		return "", ErrStaleSelection
	}
	return content[:idx] + replacement + content[idx+len(sel.Text):], nil
}
