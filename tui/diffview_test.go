package tui

import (
	"strings"
	"testing"

	"sourcemind/transform"
)

func TestRenderProposal(t *testing.T) {
	p := transform.Proposal{
		Path:        "/proj/notes.txt",
		Base:        "keep\nold\n",
		Proposed:    "keep\nnew\n",
		Instruction: "replace old",
	}

	out := renderProposal(p, "dracula")
	lines := strings.Split(out, "\n")

	if !strings.Contains(lines[0], "Proposed change") || !strings.Contains(lines[0], "replace old") {
		t.Errorf("Expected title with instruction, got %q", lines[0])
	}

	var sawOld, sawNew bool
	for _, line := range lines {
		if strings.Contains(line, "-") && strings.HasSuffix(line, "old") {
			sawOld = true
		}
		if strings.Contains(line, "+") && strings.HasSuffix(line, "new") {
			sawNew = true
		}
	}
	if !sawOld || !sawNew {
		t.Errorf("Expected deleted and inserted lines, got:\n%s", out)
	}
}

func TestLineAt(t *testing.T) {
	lines := []string{"one", "two"}

	if got := lineAt(lines, 2, "x"); got != "two" {
		t.Errorf("Expected two, got %s", got)
	}
	if got := lineAt(lines, 0, "x"); got != "x" {
		t.Errorf("Expected fallback for line 0, got %s", got)
	}
	if got := lineAt(lines, 3, "x"); got != "x" {
		t.Errorf("Expected fallback past the end, got %s", got)
	}
}
