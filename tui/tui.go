// Package tui is the terminal front end: a file tree sidebar, the document
// editor, the AI prompt and the proposal diff view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sourcemind/editor"
	"sourcemind/events"
	"sourcemind/logging"
	"sourcemind/project"
	"sourcemind/transform"
	"sourcemind/treeview"
	"sourcemind/workspace"
)

const sidebarWidth = 32

type focusArea int

const (
	focusTree focusArea = iota
	focusEditor
)

type promptMode int

const (
	promptNone promptMode = iota
	promptEdit
	promptAsk
)

type folderOpenedMsg struct{ err error }

type fileOpenedMsg struct {
	path string
	err  error
}

type savedMsg struct {
	wrote bool
	err   error
}

type proposalMsg struct {
	proposal *transform.Proposal
	err      error
}

type answerMsg struct {
	answer string
	err    error
}

type createdMsg struct{ err error }

// busMsg carries an event bus event into the update loop
type busMsg struct{ event events.Event }

// Model is the bubbletea model of the editor window
type Model struct {
	ctx     context.Context
	session *editor.Session
	theme   string
	keys    keyMap
	help    help.Model

	width  int
	height int
	focus  focusArea

	tree   treeview.State
	rows   []treeview.Row
	cursor int

	editor     textarea.Model
	anchor     int
	prompt     textinput.Model
	promptMode promptMode
	pendingSel transform.Selection

	diff     viewport.Model
	showDiff bool

	spinner spinner.Model
	ticking bool
	busy    string

	dialog      dialog
	branch      string
	notice      string
	initialPath string
}

// New creates the model. When initialPath is set the folder is opened on start.
func New(ctx context.Context, session *editor.Session, theme, initialPath string) *Model {
	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.Prompt = "  "
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.MaxWidth = 0
	ta.Placeholder = "Open a file from the tree"

	ti := textinput.New()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:         ctx,
		session:     session,
		theme:       theme,
		keys:        defaultKeyMap(),
		help:        help.New(),
		editor:      ta,
		anchor:      -1,
		prompt:      ti,
		diff:        viewport.New(80, 20),
		spinner:     sp,
		initialPath: initialPath,
	}
}

// Run starts the program and blocks until the user quits
func Run(ctx context.Context, session *editor.Session, theme, initialPath string) error {
	m := New(ctx, session, theme, initialPath)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	session.Bus.SubscribeAll(func(e events.Event) {
		p.Send(busMsg{event: e})
	})

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	if m.initialPath != "" {
		return m.openFolderCmd(m.initialPath)
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.spinning() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case busMsg:
		return m, m.handleEvent(msg.event)

	case folderOpenedMsg:
		m.syncTree()
		m.branch = workspace.Branch(m.session.Project.Root())
		if msg.err != nil {
			m.notifyErr("Could not list folder", msg.err)
		}
		return m, nil

	case fileOpenedMsg:
		m.busy = ""
		if errors.Is(msg.err, editor.ErrUnsavedChanges) {
			path := msg.path
			m.dialog = &confirmDialog{
				message: "You have unsaved changes. Discard them and open " + filepath.Base(path) + "?",
				onYes:   m.openFileCmd(path, true),
			}
			return m, nil
		}
		if msg.err != nil {
			m.notifyErr("Could not open file", msg.err)
			return m, nil
		}
		m.loadEditor()
		m.setFocus(focusEditor)
		return m, nil

	case savedMsg:
		m.busy = ""
		switch {
		case msg.err != nil:
			m.notifyErr("Save failed", msg.err)
		case msg.wrote:
			m.notice = "Saved " + filepath.Base(m.session.Buffer.Path())
		default:
			m.notice = "No changes to save"
		}
		return m, nil

	case proposalMsg:
		if errors.Is(msg.err, transform.ErrSuperseded) {
			return m, nil
		}
		m.busy = ""
		if msg.err != nil {
			m.notifyErr("AI edit failed", msg.err)
		} else {
			m.showProposal(*msg.proposal)
		}
		return m, nil

	case answerMsg:
		m.busy = ""
		if msg.err != nil {
			m.notifyErr("Question failed", msg.err)
		} else {
			m.dialog = &notifyDialog{title: "Answer", body: msg.answer}
		}
		return m, nil

	case createdMsg:
		if msg.err != nil {
			m.notifyErr("Could not create", msg.err)
		}
		m.syncTree()
		return m, nil
	}

	if m.dialog != nil {
		d, cmd := m.dialog.Update(msg)
		m.dialog = d
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		return m, m.handleKey(k)
	}

	var cmd tea.Cmd
	if m.focus == focusEditor {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleEvent(e events.Event) tea.Cmd {
	switch e.Type {
	case events.ProjectOpened:
		m.tree.Reset()
		m.cursor = 0
		m.syncTree()
	case events.FileTreeUpdated:
		m.syncTree()
	case events.ProjectStatusChanged:
		if sc, ok := e.Data.(project.StatusChange); ok && sc.Status == project.Indexing {
			return m.startSpinner()
		}
	case events.SystemError:
		if data, ok := e.Data.(map[string]string); ok {
			m.notice = data["error"]
		}
	}
	return nil
}

func (m *Model) handleKey(k tea.KeyMsg) tea.Cmd {
	if key.Matches(k, m.keys.Quit) {
		return tea.Quit
	}
	if m.promptMode != promptNone {
		return m.handlePromptKey(k)
	}
	if m.showDiff {
		return m.handleProposalKey(k)
	}

	m.notice = ""
	switch {
	case key.Matches(k, m.keys.OpenFolder):
		d, cmd := newFolderDialog(m.session.Project.Root(), m.openFolderCmd)
		m.dialog = d
		return cmd
	case key.Matches(k, m.keys.Focus):
		if m.focus == focusTree {
			m.setFocus(focusEditor)
		} else {
			m.setFocus(focusTree)
		}
		return nil
	case key.Matches(k, m.keys.Save):
		return m.saveCmd()
	case key.Matches(k, m.keys.Transform):
		return m.startPrompt(promptEdit)
	case key.Matches(k, m.keys.Ask):
		return m.startPrompt(promptAsk)
	case key.Matches(k, m.keys.Undo):
		m.undo()
		return nil
	case key.Matches(k, m.keys.Mark):
		m.toggleMark()
		return nil
	}

	if m.focus == focusTree {
		return m.handleTreeKey(k)
	}
	return m.handleEditorKey(k)
}

func (m *Model) handleTreeKey(k tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(k, m.keys.NewFile):
		return m.startCreate(false)
	case key.Matches(k, m.keys.NewFolder):
		return m.startCreate(true)
	}

	switch k.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "enter", "right", "l", " ":
		return m.activateRow()
	}
	return nil
}

func (m *Model) handleEditorKey(k tea.KeyMsg) tea.Cmd {
	if !m.session.Buffer.Loaded() {
		return nil
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(k)
	if after := m.editor.Value(); after != before {
		if err := m.session.Edit(applyDisplayEdit(m.session.Buffer.Live(), after)); err != nil {
			logging.L().Warn("edit dropped", logging.Err(err))
		}
	}
	return cmd
}

func (m *Model) activateRow() tea.Cmd {
	if m.cursor >= len(m.rows) {
		return nil
	}

	var cmd tea.Cmd
	m.tree.Activate(m.rows[m.cursor], treeview.Handlers{
		OpenFile: func(path string) {
			cmd = m.openFileCmd(path, false)
		},
	})
	m.syncTree()
	return cmd
}

// startCreate asks for a name. On a directory row the entry is created inside
// it; anywhere else it goes to the project root.
func (m *Model) startCreate(folder bool) tea.Cmd {
	parent := m.session.Project.Root()
	if parent == "" {
		m.notifyErr("No project", project.ErrNoProject)
		return nil
	}

	setParent := func(dir string) { parent = dir }
	if m.cursor < len(m.rows) {
		h := treeview.Handlers{NewFile: setParent, NewFolder: setParent}
		if folder {
			treeview.NewFolderHere(m.rows[m.cursor], h)
		} else {
			treeview.NewFileHere(m.rows[m.cursor], h)
		}
	}

	title, placeholder := "Enter file name (e.g. main.py):", "main.py"
	if folder {
		title, placeholder = "Enter folder name:", "folder"
	}
	m.dialog = newPromptDialog(title, placeholder, func(name string) tea.Cmd {
		return m.createCmd(parent, name, folder)
	})
	return nil
}

func (m *Model) toggleMark() {
	if m.focus != focusEditor || !m.session.Buffer.Loaded() {
		return
	}
	if m.anchor >= 0 {
		m.anchor = -1
		m.notice = "Selection cleared"
		return
	}
	m.anchor = m.editor.Line()
	m.notice = fmt.Sprintf("Selection starts at line %d, move the cursor to extend it", m.anchor+1)
}

// selection returns the marked line range, or an empty selection when
// nothing is marked
func (m *Model) selection() (transform.Selection, error) {
	if m.anchor < 0 {
		return transform.TextSelection(""), nil
	}
	start, end := m.anchor, m.editor.Line()
	if start > end {
		start, end = end, start
	}
	return transform.LineSelection(m.session.Buffer.Live(), start+1, end+1)
}

func (m *Model) startPrompt(mode promptMode) tea.Cmd {
	sel, err := m.selection()
	if err != nil {
		m.anchor = -1
		m.notifyErr("Invalid selection", err)
		return nil
	}
	if mode == promptEdit && (!m.session.Buffer.Loaded() || sel.Empty()) {
		m.notifyErr("Nothing selected", fmt.Errorf("%w: press ctrl+l on the first line, then move to the last line", transform.ErrNoSelection))
		return nil
	}

	m.pendingSel = sel
	m.promptMode = mode
	m.prompt.SetValue("")
	if mode == promptEdit {
		m.prompt.Placeholder = "Describe the change, e.g. add error handling"
	} else {
		m.prompt.Placeholder = "Ask about the project"
	}
	m.editor.Blur()
	m.prompt.Focus()
	return nil
}

func (m *Model) handlePromptKey(k tea.KeyMsg) tea.Cmd {
	switch k.String() {
	case "esc":
		m.endPrompt()
		return nil
	case "enter":
		text := strings.TrimSpace(m.prompt.Value())
		mode, sel := m.promptMode, m.pendingSel
		m.endPrompt()
		if mode == promptEdit {
			m.busy = "Generating edit"
			return tea.Batch(m.startSpinner(), m.requestEditCmd(text, sel))
		}
		if text == "" {
			return nil
		}
		m.busy = "Thinking"
		return tea.Batch(m.startSpinner(), m.askCmd(text, sel.Text))
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(k)
	return cmd
}

func (m *Model) endPrompt() {
	m.promptMode = promptNone
	m.prompt.Blur()
	m.setFocus(m.focus)
}

func (m *Model) handleProposalKey(k tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(k, m.keys.Accept):
		m.showDiff = false
		if _, err := m.session.Accept(); err != nil {
			m.notifyErr("Could not apply change", err)
		} else {
			m.notice = "Change applied"
		}
		m.loadEditor()
		return nil
	case key.Matches(k, m.keys.Reject):
		m.showDiff = false
		if _, err := m.session.Reject(); err != nil && !errors.Is(err, transform.ErrNoProposal) {
			m.notifyErr("Could not reject change", err)
		}
		m.notice = "Change rejected"
		return nil
	case key.Matches(k, m.keys.Copy):
		if p, ok := m.session.Workflow.Proposal(); ok {
			if err := clipboard.WriteAll(p.Replacement); err != nil {
				m.notice = "Clipboard unavailable: " + err.Error()
			} else {
				m.notice = "Copied suggestion to clipboard"
			}
		}
		return nil
	}

	var cmd tea.Cmd
	m.diff, cmd = m.diff.Update(k)
	return cmd
}

func (m *Model) undo() {
	action, err := m.session.UndoAccept()
	if err != nil {
		m.notifyErr("Nothing undone", err)
		return
	}
	m.loadEditor()
	m.notice = "Undid: " + action.Description
}

func (m *Model) showProposal(p transform.Proposal) {
	m.showDiff = true
	m.diff.SetContent(renderProposal(p, m.theme))
	m.diff.GotoTop()
}

func (m *Model) loadEditor() {
	m.editor.SetValue(displayText(m.session.Buffer.Live()))
	m.anchor = -1
}

func (m *Model) syncTree() {
	m.rows = m.tree.Rows(m.session.Project.Tree())
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusEditor && m.session.Buffer.Loaded() {
		m.editor.Focus()
	} else {
		m.editor.Blur()
	}
}

func (m *Model) notifyErr(title string, err error) {
	logging.L().Debug("notification", logging.String("title", title), logging.Err(err))
	m.dialog = &notifyDialog{title: title, body: err.Error(), isErr: true}
}

func (m *Model) spinning() bool {
	if m.busy != "" {
		return true
	}
	status, _ := m.session.Project.Status()
	return status == project.Indexing
}

func (m *Model) startSpinner() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.spinner.Tick
}

func (m *Model) resize() {
	mainWidth := max(m.width-sidebarWidth-4, 20)
	bodyHeight := max(m.height-6, 5)

	m.editor.SetWidth(mainWidth)
	m.editor.SetHeight(bodyHeight)
	m.diff.Width = mainWidth
	m.diff.Height = bodyHeight
	m.prompt.Width = max(m.width-8, 10)
	m.help.Width = m.width
}

// Commands

func (m *Model) openFolderCmd(path string) tea.Cmd {
	s, ctx := m.session, m.ctx
	open := func() tea.Msg {
		if strings.TrimSpace(path) == "" {
			return nil
		}
		// Indexing keeps running after the tree is listed; its outcome
		// arrives as a status event.
		refreshed := make(chan error, 1)
		go func() {
			_ = s.Project.OpenNotify(ctx, path, func(err error) { refreshed <- err })
		}()
		return folderOpenedMsg{err: <-refreshed}
	}
	return tea.Batch(m.startSpinner(), open)
}

func (m *Model) openFileCmd(path string, force bool) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		return fileOpenedMsg{path: path, err: s.OpenFile(path, force)}
	}
}

func (m *Model) saveCmd() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		wrote, err := s.Save()
		return savedMsg{wrote: wrote, err: err}
	}
}

func (m *Model) requestEditCmd(instruction string, sel transform.Selection) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		p, err := s.RequestEdit(ctx, instruction, sel)
		return proposalMsg{proposal: p, err: err}
	}
}

func (m *Model) askCmd(question, contextCode string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		answer, err := s.Ask(ctx, question, contextCode)
		return answerMsg{answer: answer, err: err}
	}
}

func (m *Model) createCmd(parent, name string, folder bool) tea.Cmd {
	s, ctx := m.session, m.ctx
	answer := func(context.Context, string) (string, bool) { return name, true }
	return func() tea.Msg {
		var err error
		if folder {
			err = s.Project.CreateFolder(ctx, parent, answer)
		} else {
			err = s.Project.CreateFile(ctx, parent, answer)
		}
		return createdMsg{err: err}
	}
}

// View

func (m *Model) View() string {
	if m.dialog != nil {
		width := min(max(m.width-4, 20), 72)
		return lipgloss.Place(max(m.width, width), max(m.height, 10), lipgloss.Center, lipgloss.Center, m.dialog.View(width))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), m.mainView())
	parts := []string{m.headerView(), body}
	if m.promptMode != promptNone {
		label := "AI edit: "
		if m.promptMode == promptAsk {
			label = "Ask: "
		}
		parts = append(parts, inputStyle.Render(label+m.prompt.View()))
	}
	parts = append(parts, m.statusView(), m.helpView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) headerView() string {
	h := m.session.Header()
	header := titleStyle.Render(h.Language) + " " + lipgloss.NewStyle().Bold(true).Render(h.Title)
	if h.Dirty {
		header += " " + dirtyStyle.Render("●")
	}
	return header
}

func (m *Model) sidebarView() string {
	title := "No folder open"
	if root := m.session.Project.Root(); root != "" {
		title = filepath.Base(root)
	}

	tree := treeview.Render(m.rows, treeview.RenderOptions{
		Cursor:   m.cursor,
		Width:    sidebarWidth - 4,
		Selected: m.session.Buffer.Path(),
		Focused:  m.focus == focusTree && m.promptMode == promptNone,
	})

	style := sidebarStyle.Width(sidebarWidth - 2)
	if m.height > 0 {
		style = style.Height(max(m.height-6, 5))
	}
	if m.focus == focusTree {
		style = style.BorderForeground(focusedBorder)
	}
	return style.Render(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n" + tree)
}

func (m *Model) mainView() string {
	style := paneStyle
	if m.focus == focusEditor {
		style = style.BorderForeground(focusedBorder)
	}
	if m.showDiff {
		return style.Render(m.diff.View())
	}
	return style.Render(m.editor.View())
}

func (m *Model) statusView() string {
	var segments []string
	if m.busy != "" {
		segments = append(segments, m.spinner.View()+" "+m.busy)
	}

	status, indexErr := m.session.Project.Status()
	switch status {
	case project.Indexing:
		segments = append(segments, m.spinner.View()+" "+status.String())
	case project.Ready:
		segments = append(segments, readyStyle.Render(status.String()))
	case project.IndexError:
		text := status.String()
		if indexErr != nil {
			text += ": " + indexErr.Error()
		}
		segments = append(segments, errorStyle.Render(text))
	default:
		segments = append(segments, status.String())
	}

	if m.branch != "" {
		segments = append(segments, "⎇ "+m.branch)
	}
	if m.anchor >= 0 {
		start, end := m.anchor, m.editor.Line()
		if start > end {
			start, end = end, start
		}
		segments = append(segments, fmt.Sprintf("lines %d-%d selected", start+1, end+1))
	}
	if m.notice != "" {
		segments = append(segments, m.notice)
	}
	return statusStyle.Render(strings.Join(segments, " • "))
}

func (m *Model) helpView() string {
	if m.showDiff {
		k := proposalKeys{Accept: m.keys.Accept, Reject: m.keys.Reject, Copy: m.keys.Copy}
		return m.help.View(k)
	}
	return m.help.View(m.keys)
}
