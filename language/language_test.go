package language

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		expected Tag
	}{
		{"python", "/proj/a.py", "python"},
		{"upper case extension", "/proj/MAIN.PY", "python"},
		{"tsx", "src/App.tsx", "typescript"},
		{"jsx", "src/view.jsx", "javascript"},
		{"shell", "scripts/build.sh", "shell"},
		{"last dot wins", "archive.tar.json", "json"},
		{"windows separators", `C:\proj\lib.rs`, "rust"},
		{"unknown extension", "/proj/notes.xyz", Plaintext},
		{"no extension", "/proj/Makefile", Plaintext},
		{"dot in directory only", "/proj/v1.2/README", Plaintext},
		{"dotfile", "/proj/.bashrc", Plaintext},
		{"trailing dot", "/proj/file.", Plaintext},
		{"empty path", "", Plaintext},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.path); got != tc.expected {
				t.Errorf("Classify(%q) = %q, want %q", tc.path, got, tc.expected)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	paths := []string{"", "a", "a.go", "weird..", "x.Md", "/a/b/c.yaml"}
	for _, p := range paths {
		first := Classify(p)
		for i := 0; i < 5; i++ {
			if Classify(p) != first {
				t.Fatalf("Classify(%q) is not deterministic", p)
			}
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := Tag("python").DisplayName(); got != "PYTHON" {
		t.Errorf("Expected PYTHON, got %s", got)
	}
	if got := Tag("").DisplayName(); got != "PLAINTEXT" {
		t.Errorf("Expected PLAINTEXT for empty tag, got %s", got)
	}
}

func TestHighlight(t *testing.T) {
	src := "def f():\n    return 1"

	if got := Highlight(Plaintext, src, "dracula"); got != src {
		t.Errorf("Plaintext must be returned unchanged, got %q", got)
	}

	got := Highlight("python", src, "no-such-style")
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("Expected ANSI escapes in highlighted output, got %q", got)
	}
	if !strings.Contains(got, "return") {
		t.Errorf("Expected source text to survive highlighting, got %q", got)
	}
}

func TestHighlightLines(t *testing.T) {
	src := "package main\n\nfunc main() {}"
	lines := HighlightLines("go", src, "dracula")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), lines)
	}

	plain := HighlightLines(Plaintext, "a\nb", "dracula")
	if len(plain) != 2 || plain[0] != "a" || plain[1] != "b" {
		t.Errorf("Expected plain lines, got %q", plain)
	}
}

func TestHighlightLinesCloseColours(t *testing.T) {
	src := "/* a comment\nspanning\nlines */\nvar s = `raw\nstring`"
	lines := HighlightLines("go", src, "dracula")
	if len(lines) != 5 {
		t.Fatalf("Expected 5 lines, got %d: %q", len(lines), lines)
	}

	for i, line := range lines {
		if !strings.Contains(line, "\x1b[") {
			t.Errorf("Expected line %d to be highlighted, got %q", i+1, line)
			continue
		}
		last := strings.LastIndex(line, "\x1b[")
		if !strings.HasPrefix(line[last:], "\x1b[0m") {
			t.Errorf("Line %d leaves a colour open: %q", i+1, line)
		}
	}
	if !strings.Contains(lines[1], "spanning") {
		t.Errorf("Expected comment text on line 2, got %q", lines[1])
	}
}

func TestLexerFallback(t *testing.T) {
	if Lexer("no-such-language") == nil {
		t.Fatal("Expected fallback lexer")
	}
	if Lexer("shell") == nil {
		t.Fatal("Expected bash lexer for shell tag")
	}
}
