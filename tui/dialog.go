package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// dialog is a modal that owns the keyboard until it closes. Update returns a
// nil dialog once it is done.
type dialog interface {
	Update(msg tea.Msg) (dialog, tea.Cmd)
	View(width int) string
}

// promptDialog asks for one line of text
type promptDialog struct {
	title    string
	input    textinput.Model
	onSubmit func(value string) tea.Cmd
}

func newPromptDialog(title, placeholder string, onSubmit func(string) tea.Cmd) *promptDialog {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 255
	ti.Focus()
	return &promptDialog{title: title, input: ti, onSubmit: onSubmit}
}

func (d *promptDialog) Update(msg tea.Msg) (dialog, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			return nil, d.onSubmit(d.input.Value())
		case "esc":
			return nil, nil
		}
	}
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

func (d *promptDialog) View(width int) string {
	d.input.Width = max(width-8, 10)
	return dialogStyle.Width(width).Render(d.title + "\n\n" + d.input.View() + "\n\n" + statusStyle.Render("enter confirm • esc cancel"))
}

// confirmDialog asks a yes/no question
type confirmDialog struct {
	message string
	onYes   tea.Cmd
}

func (d *confirmDialog) Update(msg tea.Msg) (dialog, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch strings.ToLower(k.String()) {
		case "y":
			return nil, d.onYes
		case "n", "esc":
			return nil, nil
		}
	}
	return d, nil
}

func (d *confirmDialog) View(width int) string {
	body := wordwrap.String(d.message, max(width-6, 10))
	return dialogStyle.Width(width).Render(body + "\n\n" + statusStyle.Render("y yes • n no"))
}

// notifyDialog shows a message until dismissed
type notifyDialog struct {
	title string
	body  string
	isErr bool
}

func (d *notifyDialog) Update(msg tea.Msg) (dialog, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter", "esc", " ":
			return nil, nil
		}
	}
	return d, nil
}

func (d *notifyDialog) View(width int) string {
	title := readyStyle.Render(d.title)
	if d.isErr {
		title = errorStyle.Render(d.title)
	}
	body := wordwrap.String(d.body, max(width-6, 10))
	return dialogStyle.Width(width).Render(title + "\n\n" + body + "\n\n" + statusStyle.Render("enter close"))
}

// folderDialog lets the user pick a project folder
type folderDialog struct {
	picker   filepicker.Model
	onChoose func(path string) tea.Cmd
}

func newFolderDialog(start string, onChoose func(string) tea.Cmd) (*folderDialog, tea.Cmd) {
	if start == "" {
		if home, err := os.UserHomeDir(); err == nil {
			start = home
		} else {
			start = "."
		}
	}

	fp := filepicker.New()
	fp.CurrentDirectory = start
	fp.AllowedTypes = []string{}
	fp.ShowHidden = false
	fp.DirAllowed = true
	fp.FileAllowed = false
	fp.AutoHeight = false
	fp.Height = 15

	d := &folderDialog{picker: fp, onChoose: onChoose}
	return d, fp.Init()
}

func (d *folderDialog) Update(msg tea.Msg) (dialog, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			return nil, nil
		case ".":
			return nil, d.onChoose(d.picker.CurrentDirectory)
		}
	}

	var cmd tea.Cmd
	d.picker, cmd = d.picker.Update(msg)
	if didSelect, path := d.picker.DidSelectFile(msg); didSelect {
		return nil, d.onChoose(path)
	}
	return d, cmd
}

func (d *folderDialog) View(width int) string {
	header := lipgloss.NewStyle().Bold(true).Render("Open folder") + "\n" + statusStyle.Render(d.picker.CurrentDirectory)
	help := statusStyle.Render("enter open highlighted • . open current • ← back • esc cancel")
	return dialogStyle.Width(width).Render(header + "\n\n" + d.picker.View() + "\n" + help)
}
