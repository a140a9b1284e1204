// Package treeview turns a file tree snapshot into rows for the sidebar and
// routes row intents to the session.
package treeview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sourcemind/fsapi"
)

// Placeholder is rendered when the tree has no top-level entries
const Placeholder = "No files found"

var (
	dirStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A550DF"))
	fileStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#7D56F4")).Foreground(lipgloss.Color("#FAFAFA"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	emptyStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#626262"))
)

// Row is one visible line of the tree
type Row struct {
	Node     fsapi.TreeNode
	Depth    int
	Expanded bool
}

// State holds UI-local expansion flags keyed by node path. The zero value
// has every directory collapsed.
type State struct {
	expanded map[string]bool
}

// IsExpanded reports whether the directory at path is expanded
func (s *State) IsExpanded(path string) bool {
	return s.expanded[path]
}

// Toggle flips the expansion of the directory at path
func (s *State) Toggle(path string) {
	if s.expanded == nil {
		s.expanded = make(map[string]bool)
	}
	if s.expanded[path] {
		delete(s.expanded, path)
	} else {
		s.expanded[path] = true
	}
}

// SetExpanded sets the expansion of the directory at path
func (s *State) SetExpanded(path string, expanded bool) {
	if s.expanded == nil {
		s.expanded = make(map[string]bool)
	}
	if expanded {
		s.expanded[path] = true
	} else {
		delete(s.expanded, path)
	}
}

// Reset collapses everything
func (s *State) Reset() {
	s.expanded = nil
}

// Rows flattens the visible part of nodes in display order. A directory's
// children follow it only while it is expanded.
func (s *State) Rows(nodes []fsapi.TreeNode) []Row {
	type frame struct {
		node  fsapi.TreeNode
		depth int
	}

	rows := make([]Row, 0, len(nodes))
	stack := make([]frame, 0, len(nodes))
	push := func(children []fsapi.TreeNode, depth int) {
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], depth: depth})
		}
	}

	push(nodes, 0)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		expanded := f.node.IsDir && s.IsExpanded(f.node.Path)
		rows = append(rows, Row{Node: f.node, Depth: f.depth, Expanded: expanded})
		if expanded {
			push(f.node.Children, f.depth+1)
		}
	}
	return rows
}

// ExpandAll returns every row of nodes with all directories shown expanded,
// ignoring the state.
func ExpandAll(nodes []fsapi.TreeNode) []Row {
	var all State
	var mark func([]fsapi.TreeNode)
	mark = func(ns []fsapi.TreeNode) {
		for _, n := range ns {
			if n.IsDir {
				all.SetExpanded(n.Path, true)
				mark(n.Children)
			}
		}
	}
	mark(nodes)
	return all.Rows(nodes)
}

// Handlers receives the intents produced by rows
type Handlers struct {
	OpenFile  func(path string)
	NewFile   func(dirPath string)
	NewFolder func(dirPath string)
}

// Activate toggles a directory row or opens a file row
func (s *State) Activate(row Row, h Handlers) {
	if row.Node.IsDir {
		s.Toggle(row.Node.Path)
		return
	}
	if h.OpenFile != nil {
		h.OpenFile(row.Node.Path)
	}
}

// NewFileHere asks for a new file inside a directory row. Expansion is left
// alone. It reports false for file rows.
func NewFileHere(row Row, h Handlers) bool {
	if !row.Node.IsDir || h.NewFile == nil {
		return false
	}
	h.NewFile(row.Node.Path)
	return true
}

// NewFolderHere asks for a new folder inside a directory row. Expansion is
// left alone. It reports false for file rows.
func NewFolderHere(row Row, h Handlers) bool {
	if !row.Node.IsDir || h.NewFolder == nil {
		return false
	}
	h.NewFolder(row.Node.Path)
	return true
}

// RenderOptions controls how rows are drawn
type RenderOptions struct {
	Cursor   int
	Width    int
	Selected string // path of the open document
	Focused  bool
}

// Render draws rows, one per line
func Render(rows []Row, opts RenderOptions) string {
	if len(rows) == 0 {
		return emptyStyle.Render(Placeholder)
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderRow(row, i == opts.Cursor, opts))
	}
	return b.String()
}

func renderRow(row Row, atCursor bool, opts RenderOptions) string {
	icon := "  "
	if row.Node.IsDir {
		icon = "▸ "
		if row.Expanded {
			icon = "▾ "
		}
	}
	label := strings.Repeat("  ", row.Depth) + icon + row.Node.Name
	if opts.Width > 0 {
		label = truncate(label, opts.Width)
	}

	switch {
	case atCursor && opts.Focused:
		if opts.Width > 0 {
			return cursorStyle.Width(opts.Width).Render(label)
		}
		return cursorStyle.Render(label)
	case !row.Node.IsDir && row.Node.Path == opts.Selected:
		return selectedStyle.Render(label)
	case row.Node.IsDir:
		return dirStyle.Render(label)
	default:
		return fileStyle.Render(label)
	}
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// PlainLines renders rows as indented text without styling
func PlainLines(rows []Row) []string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		name := row.Node.Name
		if row.Node.IsDir {
			name += "/"
		}
		lines[i] = strings.Repeat("  ", row.Depth) + name
	}
	return lines
}
