// Package language maps file paths to highlighting language tags.
package language

import (
	"bytes"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"
)

// Tag identifies the language used for display and highlighting.
type Tag string

// Plaintext is returned for unknown, missing, or empty extensions.
const Plaintext Tag = "plaintext"

var extensionTags = map[string]Tag{
	"js":   "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"rs":   "rust",
	"go":   "go",
	"cpp":  "cpp",
	"c":    "c",
	"html": "html",
	"css":  "css",
	"json": "json",
	"md":   "markdown",
	"yaml": "yaml",
	"sh":   "shell",
	"sql":  "sql",
}

var upper = cases.Upper(textlang.Und)

// Classify returns the language tag for path. It never fails.
func Classify(p string) Tag {
	// Only the final path element may carry an extension: "/a.b/c" has none.
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 {
		return Plaintext
	}
	if tag, ok := extensionTags[strings.ToLower(base[dot+1:])]; ok {
		return tag
	}
	return Plaintext
}

// DisplayName is the upper-cased label shown in the editor header.
func (t Tag) DisplayName() string {
	if t == "" {
		t = Plaintext
	}
	return upper.String(string(t))
}

// lexerNames maps tags whose name differs from the chroma lexer name.
var lexerNames = map[Tag]string{
	"shell": "bash",
}

// Lexer returns the chroma lexer for a tag, or the fallback lexer.
func Lexer(t Tag) chroma.Lexer {
	name := string(t)
	if alias, ok := lexerNames[t]; ok {
		name = alias
	}
	lexer := lexers.Get(name)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// Highlight renders source with ANSI colours for the given tag and chroma style.
// On any highlighting failure the source is returned unchanged.
func Highlight(t Tag, source, styleName string) string {
	if t == Plaintext || source == "" {
		return source
	}

	iterator, err := Lexer(t).Tokenise(nil, source)
	if err != nil {
		return source
	}

	var buf bytes.Buffer
	if err := formatters.TTY256.Format(&buf, resolveStyle(styleName), iterator); err != nil {
		return source
	}
	return buf.String()
}

// HighlightLines highlights source into exactly as many lines as source has,
// so callers can index highlighted lines by line number. Each line is
// formatted on its own and never leaves a colour open, even inside tokens
// that span several lines.
func HighlightLines(t Tag, source, styleName string) []string {
	plain := strings.Split(source, "\n")
	if t == Plaintext || source == "" {
		return plain
	}

	tokens, err := chroma.Tokenise(Lexer(t), nil, source)
	if err != nil {
		return plain
	}
	lines := chroma.SplitTokensIntoLines(tokens)
	style := resolveStyle(styleName)

	out := make([]string, len(plain))
	for i := range plain {
		out[i] = plain[i]
		if i >= len(lines) {
			continue
		}
		var buf bytes.Buffer
		if err := formatters.TTY256.Format(&buf, style, chroma.Literator(lines[i]...)); err != nil {
			continue
		}
		out[i] = strings.TrimSuffix(buf.String(), "\n")
	}
	return out
}

func resolveStyle(name string) *chroma.Style {
	if style := styles.Get(name); style != nil {
		return style
	}
	return styles.Fallback
}
