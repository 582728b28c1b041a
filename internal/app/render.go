package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/mattn/go-runewidth"

	"github.com/marcus/agentview/internal/conversation"
	"github.com/marcus/agentview/internal/rawevent"
	"github.com/marcus/agentview/internal/styles"
)

const (
	maxToolInputLines  = 6
	maxToolResultLines = 8
	compactTextWidth   = 100
)

// renderConversation renders every message to lines and records each
// message's starting line. A filtered message keeps an index entry (the
// next rendered line) so message indexes stay aligned with scroll targets.
func (m *Model) renderConversation() (string, []int) {
	var lines []string
	starts := make([]int, len(m.messages))
	for i := range m.messages {
		starts[i] = len(lines)
		lines = append(lines, m.renderMessage(&m.messages[i])...)
	}
	return strings.Join(lines, "\n"), starts
}

// renderMessage renders one message, or nothing when the display toggles
// filter it out.
func (m *Model) renderMessage(message *conversation.Message) []string {
	if message.Meta.SystemSubtype == rawevent.SubtypeInit && !m.display.ShowSessionInit {
		return nil
	}

	if m.display.CompactMode {
		return m.renderCompact(message)
	}

	lines := []string{m.renderMessageHeader(message)}
	for _, seg := range message.Segments {
		switch seg.Type {
		case conversation.SegText:
			lines = append(lines, m.renderText(message.Role, seg.Text)...)
		case conversation.SegThinking:
			if m.display.ShowThinking {
				lines = append(lines, m.renderThinking(seg.Text)...)
			}
		case conversation.SegToolCall:
			if m.display.ShowToolCalls {
				lines = append(lines, m.renderToolCall(seg.ToolID, 0)...)
			}
		case conversation.SegSystemInfo:
			lines = append(lines, m.renderSystemInfo(seg.Info)...)
		}
	}
	lines = append(lines, "")
	return lines
}

// renderCompact renders a message as a single truncated line.
func (m *Model) renderCompact(message *conversation.Message) []string {
	text := strings.ReplaceAll(message.PlainText(), "\n", " ")
	if text == "" {
		n := 0
		for _, seg := range message.Segments {
			if seg.Type == conversation.SegToolCall {
				n++
			}
		}
		if n == 0 {
			return nil
		}
		text = fmt.Sprintf("(%d tool calls)", n)
	}

	width := m.width - 14
	if width > compactTextWidth {
		width = compactTextWidth
	}
	if width > 3 {
		text = runewidth.Truncate(text, width, "…")
	}
	return []string{fmt.Sprintf(" %s %s", m.roleLabel(message), styles.Body.Render(text))}
}

// renderMessageHeader renders the role, timestamp, and assistant metadata.
func (m *Model) renderMessageHeader(message *conversation.Message) string {
	ts := styles.Muted.Render(message.Timestamp.Local().Format("15:04:05"))

	meta := ""
	if message.Role == conversation.RoleAssistant {
		var parts []string
		if message.Meta.Agent != "" {
			parts = append(parts, message.Meta.Agent)
		}
		if message.Meta.Model != "" {
			parts = append(parts, message.Meta.Model)
		}
		if message.Meta.OutputTokens > 0 {
			parts = append(parts, fmt.Sprintf("%d tok", message.Meta.OutputTokens))
		}
		if len(parts) > 0 {
			meta = styles.Muted.Render(" (" + strings.Join(parts, ", ") + ")")
		}
	}
	if message.Meta.DurationMS > 0 {
		meta += styles.Muted.Render(fmt.Sprintf(" %.1fs", float64(message.Meta.DurationMS)/1000))
	}
	if message.Meta.CostUSD > 0 {
		meta += styles.Muted.Render(fmt.Sprintf(" $%.4f", message.Meta.CostUSD))
	}

	return fmt.Sprintf(" %s %s%s", m.roleLabel(message), ts, meta)
}

// roleLabel returns the styled role name for a message header.
func (m *Model) roleLabel(message *conversation.Message) string {
	switch message.Role {
	case conversation.RoleUser:
		return styles.RoleUser.Render("user")
	case conversation.RoleAssistant:
		return styles.RoleAssistant.Render("assistant")
	default:
		if message.Meta.SystemSubtype == rawevent.SubtypeError {
			return styles.ErrorText.Render("system")
		}
		return styles.RoleSystem.Render("system")
	}
}

// renderText renders a text segment, through the markdown renderer for
// assistant turns when enabled.
func (m *Model) renderText(role, text string) []string {
	if role == conversation.RoleAssistant && m.cfg.UI.Markdown && m.mdRenderer != nil {
		if out, err := m.mdRenderer.Render(text); err == nil {
			return trimBlankEdges(strings.Split(strings.TrimRight(out, "\n"), "\n"))
		}
	}
	var lines []string
	for _, l := range wrapText(text, markdownWidth(m.width)) {
		lines = append(lines, " "+styles.Body.Render(l))
	}
	return lines
}

// renderThinking renders a reasoning segment dimmed.
func (m *Model) renderThinking(text string) []string {
	var lines []string
	for i, l := range wrapText(text, markdownWidth(m.width)) {
		prefix := "   "
		if i == 0 {
			prefix = " ✻ "
		}
		lines = append(lines, prefix+styles.Thinking.Render(l))
	}
	return lines
}

// renderSystemInfo renders a session init or error info block.
func (m *Model) renderSystemInfo(info *conversation.SessionInfo) []string {
	if info == nil {
		return nil
	}
	if info.Message != "" {
		var lines []string
		for _, l := range wrapText(info.Message, markdownWidth(m.width)) {
			lines = append(lines, " "+styles.ErrorText.Render(l))
		}
		return lines
	}
	var lines []string
	if info.SessionID != "" {
		lines = append(lines, " "+styles.Muted.Render("session "+info.SessionID))
	}
	if info.Model != "" {
		lines = append(lines, " "+styles.Muted.Render("model   "+info.Model))
	}
	if info.CWD != "" {
		lines = append(lines, " "+styles.Muted.Render("cwd     "+info.CWD))
	}
	if len(info.Tools) > 0 {
		lines = append(lines, " "+styles.Muted.Render(fmt.Sprintf("tools   %d available", len(info.Tools))))
	}
	return lines
}

// renderToolCall renders one tool call and, recursively, its children.
func (m *Model) renderToolCall(id string, depth int) []string {
	if m.arena == nil {
		return nil
	}
	tc := m.arena.Get(id)
	if tc == nil {
		return nil
	}

	indent := " " + strings.Repeat("  ", depth)
	name := tc.Name
	if tc.IsSubAgent && tc.SubAgentType != "" {
		name = fmt.Sprintf("%s(%s)", tc.Name, tc.SubAgentType)
	}

	if m.display.CollapseTools {
		nested := ""
		if n := m.arena.ReachableCount(id) - 1; n > 0 {
			nested = styles.Muted.Render(fmt.Sprintf(" (+%d nested)", n))
		}
		return []string{fmt.Sprintf("%s▸ %s %s%s", indent, styles.Code.Render(name), m.statusGlyph(tc), nested)}
	}

	lines := []string{fmt.Sprintf("%s● %s %s", indent, styles.Code.Render(name), m.statusGlyph(tc))}

	for _, l := range clampLines(highlightJSON(tc.Input), maxToolInputLines) {
		lines = append(lines, indent+"  "+l)
	}

	if tc.Result != nil && tc.Result.Content != "" {
		style := styles.Muted
		if tc.Result.IsError {
			style = styles.ErrorText
		}
		for _, l := range clampLines(strings.Split(tc.Result.Content, "\n"), maxToolResultLines) {
			lines = append(lines, indent+"  "+style.Render("→ "+l))
		}
	}

	for _, child := range m.arena.Resolve(tc.Children) {
		lines = append(lines, m.renderToolCall(child.ID, depth+1)...)
	}
	return lines
}

// statusGlyph renders the tool call outcome marker.
func (m *Model) statusGlyph(tc *conversation.ToolCall) string {
	switch tc.Status {
	case conversation.StatusSuccess:
		return styles.ToolOK.Render("✓")
	case conversation.StatusError:
		return styles.ToolErr.Render("✗")
	default:
		return styles.ToolPending.Render("…")
	}
}

// highlightJSON pretty-prints and syntax-highlights tool input. Invalid
// JSON falls back to the raw text.
func highlightJSON(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	src := string(raw)
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err == nil {
		src = pretty.String()
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, "json", "terminal256", "monokai"); err != nil {
		return strings.Split(src, "\n")
	}
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

// clampLines caps a line slice, marking the elision.
func clampLines(lines []string, max int) []string {
	if len(lines) <= max {
		return lines
	}
	out := make([]string, max+1)
	copy(out, lines[:max])
	out[max] = styles.Muted.Render(fmt.Sprintf("… %d more lines", len(lines)-max))
	return out
}

// trimBlankEdges drops leading and trailing empty lines.
func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// wrapText wraps text to maxWidth, preserving paragraph breaks.
func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= maxWidth {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	return lines
}
