package tui

import (
	"fmt"
	"strings"

	"sourcemind/language"
	"sourcemind/transform"
)

// renderProposal draws the proposal as a highlighted line diff
func renderProposal(p transform.Proposal, theme string) string {
	tag := language.Classify(p.Path)
	before := language.HighlightLines(tag, p.Base, theme)
	after := language.HighlightLines(tag, p.Proposed, theme)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", titleStyle.Render("Proposed change"), statusStyle.Render(p.Instruction))
	for _, line := range p.Diff() {
		var num int
		var text string
		var marker string
		switch line.Op {
		case transform.OpInsert:
			num, text, marker = line.NewLine, lineAt(after, line.NewLine, line.Text), insertStyle.Render("+")
		case transform.OpDelete:
			num, text, marker = line.OldLine, lineAt(before, line.OldLine, line.Text), deleteStyle.Render("-")
		default:
			num, text, marker = line.NewLine, lineAt(after, line.NewLine, line.Text), " "
		}
		fmt.Fprintf(&b, "%s %s %s\n", gutterStyle.Render(fmt.Sprintf("%4d", num)), marker, text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func lineAt(lines []string, n int, fallback string) string {
	if n < 1 || n > len(lines) {
		return fallback
	}
	return lines[n-1]
}
