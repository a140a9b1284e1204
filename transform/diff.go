package transform

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineOp is the kind of a diff line
type LineOp int

const (
	OpEqual LineOp = iota
	OpInsert
	OpDelete
)

// DiffLine is one line of a line-level diff. OldLine and NewLine are 1-based
// line numbers, zero on the side the line does not exist.
type DiffLine struct {
	Op      LineOp
	Text    string
	OldLine int
	NewLine int
}

// Prefix returns the unified diff marker for the line
func (l DiffLine) Prefix() string {
	switch l.Op {
	case OpInsert:
		return "+"
	case OpDelete:
		return "-"
	default:
		return " "
	}
}

// lineDiff compares two texts line by line
func lineDiff(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []DiffLine
	oldN, newN := 0, 0
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			line := DiffLine{Text: text}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldN++
				newN++
				line.Op, line.OldLine, line.NewLine = OpEqual, oldN, newN
			case diffmatchpatch.DiffDelete:
				oldN++
				line.Op, line.OldLine = OpDelete, oldN
			case diffmatchpatch.DiffInsert:
				newN++
				line.Op, line.NewLine = OpInsert, newN
			}
			out = append(out, line)
		}
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\n")
	}
	return parts
}

// unified renders lines as unified diff hunks with context lines around
// each change
func unified(name string, lines []DiffLine, context int) string {
	if context < 0 {
		context = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", name, name)

	i := 0
	for i < len(lines) {
		for i < len(lines) && lines[i].Op == OpEqual {
			i++
		}
		if i >= len(lines) {
			break
		}

		start := i - context
		if start < 0 {
			start = 0
		}
		end := i
		for {
			for end < len(lines) && lines[end].Op != OpEqual {
				end++
			}
			next := end
			for next < len(lines) && lines[next].Op == OpEqual {
				next++
			}
			if next < len(lines) && next-end <= 2*context {
				end = next
				continue
			}
			break
		}
		stop := end + context
		if stop > len(lines) {
			stop = len(lines)
		}

		writeHunk(&b, lines, start, stop)
		i = stop
	}
	return b.String()
}

func writeHunk(b *strings.Builder, lines []DiffLine, start, stop int) {
	// Lines before the hunk on each side
	oldBefore, newBefore := 0, 0
	for _, l := range lines[:start] {
		if l.Op != OpInsert {
			oldBefore++
		}
		if l.Op != OpDelete {
			newBefore++
		}
	}

	oldCount, newCount := 0, 0
	for _, l := range lines[start:stop] {
		if l.Op != OpInsert {
			oldCount++
		}
		if l.Op != OpDelete {
			newCount++
		}
	}

	fmt.Fprintf(b, "@@ -%s +%s @@\n", hunkRange(oldBefore, oldCount), hunkRange(newBefore, newCount))
	for _, l := range lines[start:stop] {
		b.WriteString(l.Prefix())
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
}

func hunkRange(before, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", before)
	}
	if count == 1 {
		return fmt.Sprintf("%d", before+1)
	}
	return fmt.Sprintf("%d,%d", before+1, count)
}
