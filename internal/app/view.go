package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/marcus/agentview/internal/source"
	"github.com/marcus/agentview/internal/styles"
)

const (
	headerHeight = 1
	footerHeight = 1
)

// markdownWidth is the wrap width for rendered markdown at a given
// terminal width.
func markdownWidth(width int) int {
	w := width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// View renders the entire application UI.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(strings.Repeat("━", m.width)))
	b.WriteString("\n")

	if m.view == ViewConversation {
		b.WriteString(m.vp.View())
	} else {
		b.WriteString(m.renderSessions())
	}

	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(strings.Repeat("━", m.width)))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return b.String()
}

// renderHelpOverlay renders the help modal centered over the view.
func (m *Model) renderHelpOverlay() string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Render(m.buildHelpContent())

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		modal,
	)
}

// buildHelpContent creates the help modal content.
func (m *Model) buildHelpContent() string {
	var b strings.Builder

	b.WriteString(styles.PanelHeader.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	b.WriteString(styles.KeyHint.Render("Sessions"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("  j/k      ") + "  move cursor\n")
	b.WriteString(styles.Muted.Render("  enter    ") + "  open session\n")
	b.WriteString(styles.Muted.Render("  r        ") + "  refresh\n")
	b.WriteString("\n")

	b.WriteString(styles.KeyHint.Render("Conversation"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("  j/k d/u  ") + "  scroll\n")
	b.WriteString(styles.Muted.Render("  g/G      ") + "  top / latest\n")
	b.WriteString(styles.Muted.Render("  p/P      ") + "  previous/next prompt\n")
	b.WriteString(styles.Muted.Render("  1-9      ") + "  jump to nth prompt\n")
	b.WriteString(styles.Muted.Render("  /  n/N   ") + "  search, next/prev match\n")
	b.WriteString(styles.Muted.Render("  t        ") + "  toggle tool calls\n")
	b.WriteString(styles.Muted.Render("  c        ") + "  toggle compact mode\n")
	b.WriteString(styles.Muted.Render("  x        ") + "  toggle collapsed tools\n")
	b.WriteString(styles.Muted.Render("  T        ") + "  toggle thinking\n")
	b.WriteString(styles.Muted.Render("  i        ") + "  toggle session init\n")
	b.WriteString(styles.Muted.Render("  y        ") + "  copy transcript\n")
	b.WriteString(styles.Muted.Render("  esc      ") + "  back\n")
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("Press ? or esc to close"))

	return b.String()
}

// renderHeader renders the top bar: title on the left, context on the
// right.
func (m *Model) renderHeader() string {
	var title, context string
	if m.view == ViewConversation {
		title = styles.PanelHeader.Render(" " + m.sessionName)
		context = styles.Muted.Render(fmt.Sprintf("%d messages ", len(m.messages)))
		if m.reloading {
			context = styles.Muted.Render("reloading… ") + context
		}
	} else {
		title = styles.PanelHeader.Render(" Agent Sessions")
		context = styles.Muted.Render(fmt.Sprintf("%d sessions ", len(m.sessions)))
	}

	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(context)
	if spacing < 1 {
		spacing = 1
	}
	return title + strings.Repeat(" ", spacing) + context
}

// renderFooter renders key hints, search position, and transient status.
func (m *Model) renderFooter() string {
	if m.searching {
		return " " + m.searchInput.View()
	}

	var hints string
	if m.view == ViewConversation {
		hints = strings.Join([]string{
			styles.KeyHint.Render("/") + " search",
			styles.KeyHint.Render("t/c/x/T/i") + " toggles",
			styles.KeyHint.Render("y") + " copy",
			styles.KeyHint.Render("esc") + " back",
		}, "  ")
	} else {
		hints = strings.Join([]string{
			styles.KeyHint.Render("enter") + " view",
			styles.KeyHint.Render("r") + " refresh",
			styles.KeyHint.Render("q") + " quit",
		}, "  ")
	}

	var status []string
	if m.searchCur != nil && m.searchCur.Len() > 0 {
		status = append(status, styles.SearchMatch.Render(
			fmt.Sprintf("match %d/%d", m.searchCur.Pos()+1, m.searchCur.Len())))
	}
	if m.view == ViewConversation && m.fol.ShowJumpToLatest() {
		status = append(status, styles.KeyHint.Render("G")+styles.Muted.Render(" jump to latest"))
	}
	if m.toast != "" {
		t := styles.Toast.Render(m.toast)
		if m.toastErr {
			t = styles.ErrorText.Render(m.toast)
		}
		status = append(status, t)
	}
	statusStr := strings.Join(status, "  ")

	spacing := m.width - lipgloss.Width(hints) - lipgloss.Width(statusStr) - 2
	if spacing < 1 {
		spacing = 1
	}
	return " " + hints + strings.Repeat(" ", spacing) + statusStr
}

// renderSessions renders the session list view.
func (m *Model) renderSessions() string {
	contentHeight := m.height - headerHeight - footerHeight - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	if len(m.sessions) == 0 {
		return padLines(styles.Muted.Render(" No sessions found"), contentHeight)
	}

	var sb strings.Builder
	end := m.scrollOff + contentHeight
	if end > len(m.sessions) {
		end = len(m.sessions)
	}
	for i := m.scrollOff; i < end; i++ {
		sb.WriteString(m.renderSessionRow(m.sessions[i], i == m.cursor))
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return padLines(sb.String(), contentHeight)
}

// renderSessionRow renders a single session row.
func (m *Model) renderSessionRow(s source.Session, selected bool) string {
	cursor := "  "
	if selected {
		cursor = styles.ListCursor.Render("> ")
	}

	ts := s.UpdatedAt.Local().Format("2006-01-02 15:04")

	active := ""
	if s.IsActive {
		active = styles.ToolOK.Render(" ●")
	}

	name := s.Name
	if name == "" && len(s.ID) >= 8 {
		name = s.ID[:8]
	}
	maxNameWidth := m.width - 34
	if maxNameWidth > 3 {
		name = runewidth.Truncate(name, maxNameWidth, "…")
	}

	count := styles.Muted.Render(fmt.Sprintf(" %d msgs", s.MessageCount))

	lineStyle := styles.ListItemNormal
	if selected {
		lineStyle = styles.ListItemSelected
	}
	return lineStyle.Render(fmt.Sprintf("%s%s  %s%s%s", cursor, ts, name, count, active))
}

// padLines pads content with blank lines up to height so the footer stays
// put.
func padLines(content string, height int) string {
	n := strings.Count(content, "\n") + 1
	if n >= height {
		return content
	}
	return content + strings.Repeat("\n", height-n)
}
