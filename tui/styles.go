package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	languageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	dirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94"))

	sidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#A550DF")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	focusedBorder = lipgloss.Color("#04B575")

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	readyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F25D94")).
			Padding(1, 2)

	insertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	deleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")).Bold(true)
	gutterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)
