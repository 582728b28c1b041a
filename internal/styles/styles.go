// Package styles centralizes the lipgloss styles the views share.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Muted is for chrome: separators, hints, secondary text.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	// Body is normal content text.
	Body = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	// Code is monospace-ish inline content such as tool input.
	Code = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))

	// PanelHeader tops a pane.
	PanelHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))

	// KeyHint highlights a key binding in the footer.
	KeyHint = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)

	// ListCursor marks the selected row.
	ListCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	// ListItemNormal and ListItemSelected render list rows.
	ListItemNormal   = lipgloss.NewStyle()
	ListItemSelected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))

	// Role colors for message headers.
	RoleUser      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	RoleAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	RoleSystem    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	// Tool call state.
	ToolPending = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	ToolOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	ToolErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// Thinking renders reasoning content dimmed and italic.
	Thinking = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)

	// SearchMatch highlights the active search hit indicator.
	SearchMatch = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)

	// ErrorText is for surfaced failures.
	ErrorText = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// Toast renders transient notifications.
	Toast = lipgloss.NewStyle().
		Foreground(lipgloss.Color("231")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
)
