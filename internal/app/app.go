// Package app is the terminal UI: a session list and a conversation view
// over a pluggable session source, with live reload, search, and
// auto-follow of streaming output.
package app

import (
	"io"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/marcus/agentview/internal/config"
	"github.com/marcus/agentview/internal/conversation"
	"github.com/marcus/agentview/internal/follow"
	"github.com/marcus/agentview/internal/msg"
	"github.com/marcus/agentview/internal/prefs"
	"github.com/marcus/agentview/internal/search"
	"github.com/marcus/agentview/internal/source"
)

// View represents the current view mode.
type View int

const (
	ViewSessions View = iota
	ViewConversation
)

const toastDuration = 2 * time.Second

// Model is the root application model. All mutable state lives here; the
// background commands hand results back as messages tagged with the epoch
// that requested them.
type Model struct {
	cfg     *config.Config
	src     source.Source
	store   *prefs.Store
	display prefs.Display
	logger  *slog.Logger

	view   View
	width  int
	height int
	ready  bool

	// Session list state
	sessions  []source.Session
	cursor    int
	scrollOff int

	// Open conversation state. epoch increments on every session switch;
	// async results carrying an older epoch are discarded.
	sessionID     string
	sessionName   string
	epoch         int
	messages      []conversation.Message
	arena         *conversation.Arena
	syncer        conversation.Synchronizer
	fol           *follow.Controller
	vp            viewport.Model
	list          *messageList
	pendingPrefix bool
	reloading     bool
	reloadSeq     int

	notices     <-chan source.Notice
	watchCloser io.Closer

	// Search state
	searchInput textinput.Model
	searching   bool
	searchSeq   int
	searchCur   *search.Cursor

	mdRenderer *glamour.TermRenderer

	toast    string
	toastErr bool
	lastErr  error
	showHelp bool
}

// New builds the root model. Display toggles are read once here and
// written back on each toggle key.
func New(cfg *config.Config, src source.Source, store *prefs.Store, logger *slog.Logger) (*Model, error) {
	display, err := store.Display()
	if err != nil {
		return nil, err
	}

	input := textinput.New()
	input.Placeholder = "search"
	input.Prompt = "/"
	input.CharLimit = 128

	return &Model{
		cfg:         cfg,
		src:         src,
		store:       store,
		display:     display,
		logger:      logger,
		fol:         follow.New(),
		searchInput: input,
	}, nil
}

// Init starts the initial session load.
func (m *Model) Init() tea.Cmd {
	return loadSessions(m.src, m.epoch)
}

// Update handles messages.
func (m *Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := teaMsg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(v)

	case tea.KeyMsg:
		if v.String() == "ctrl+c" {
			m.teardownWatch()
			return m, tea.Quit
		}
		if m.showHelp {
			if s := v.String(); s == "?" || s == "esc" || s == "q" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.searching {
			return m.updateSearchInput(v)
		}
		if v.String() == "?" {
			m.showHelp = true
			return m, nil
		}
		if m.view == ViewConversation {
			return m.updateConversation(v)
		}
		return m.updateSessions(v)

	case SessionsLoadedMsg:
		m.sessions = v.Sessions
		if m.cursor >= len(m.sessions) {
			m.cursor = len(m.sessions) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case ConversationLoadedMsg:
		return m.handleConversationLoaded(v)

	case PrefixBuiltMsg:
		return m.handlePrefixBuilt(v)

	case WatchStartedMsg:
		if v.Epoch != m.epoch {
			_ = v.Closer.Close()
			return m, nil
		}
		m.notices = v.Notices
		m.watchCloser = v.Closer
		return m, waitNotice(m.notices, m.epoch)

	case NoticeMsg:
		if v.Epoch != m.epoch || v.SessionID != m.sessionID {
			return m, nil
		}
		m.reloadSeq++
		return m, tea.Batch(
			waitNotice(m.notices, m.epoch),
			reloadTick(m.cfg.Reload.Debounce.Std(), m.reloadSeq),
		)

	case ReloadTickMsg:
		if v.Seq != m.reloadSeq || m.reloading || m.sessionID == "" {
			return m, nil
		}
		m.reloading = true
		return m, loadConversation(m.src, m.sessionID, m.epoch, false)

	case SearchTickMsg:
		if v.Seq != m.searchSeq {
			return m, nil
		}
		m.runSearch()
		return m, nil

	case ScrollSettleMsg:
		if v.Epoch != m.epoch || m.list == nil {
			return m, nil
		}
		follow.Settle(m.list)
		m.fol.SetAtBottom(true)
		return m, nil

	case msg.ToastMsg:
		m.toast = v.Message
		m.toastErr = v.IsError
		return m, msg.ExpireToast(v.Duration)

	case msg.ToastExpiredMsg:
		m.toast = ""
		m.toastErr = false
		return m, nil

	case ErrorMsg:
		m.logger.Error("background operation failed", "error", v.Err, "epoch", v.Epoch)
		if v.Epoch != m.epoch {
			return m, nil
		}
		m.lastErr = v.Err
		m.reloading = false
		return m, msg.ShowError(v.Err.Error(), toastDuration)
	}

	return m, nil
}

// handleResize sizes the viewport and rebuilds the markdown renderer for
// the new wrap width.
func (m *Model) handleResize(v tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = v.Width
	m.height = v.Height

	contentHeight := v.Height - headerHeight - footerHeight - 2
	if contentHeight < 1 {
		contentHeight = 1
	}
	if !m.ready {
		m.vp = viewport.New(v.Width, contentHeight)
		m.list = &messageList{vp: &m.vp}
		m.ready = true
	} else {
		m.vp.Width = v.Width
		m.vp.Height = contentHeight
	}

	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWidth(v.Width)),
	); err == nil {
		m.mdRenderer = r
	} else {
		m.logger.Warn("markdown renderer unavailable", "error", err)
		m.mdRenderer = nil
	}

	if m.view == ViewConversation {
		m.refreshContent(true)
	}
	return m, nil
}

// handleConversationLoaded applies a rebuilt conversation.
func (m *Model) handleConversationLoaded(v ConversationLoadedMsg) (tea.Model, tea.Cmd) {
	if v.Epoch != m.epoch {
		return m, nil
	}
	m.reloading = false
	m.arena = v.Arena

	delta := m.syncer.Apply(v.Messages)
	if delta.Append {
		m.messages = append(m.messages, delta.Suffix...)
	} else {
		m.messages = delta.All
	}

	m.refreshContent(delta.Append)

	var cmds []tea.Cmd
	if v.Partial && !m.pendingPrefix {
		m.pendingPrefix = true
		cmds = append(cmds, buildFull(v.Events, m.epoch))
	}
	cmds = append(cmds, m.followTail()...)
	return m, tea.Batch(cmds...)
}

// handlePrefixBuilt splices the background full build in front of the
// displayed tail, keeping the view anchored where the user left it.
func (m *Model) handlePrefixBuilt(v PrefixBuiltMsg) (tea.Model, tea.Cmd) {
	if v.Epoch != m.epoch {
		return m, nil
	}
	m.pendingPrefix = false
	m.messages = conversation.SplicePrefix(v.Messages, m.messages)
	m.arena = v.Arena

	// Reseed the snapshot so the next reload diffs against the full
	// conversation, not the tail.
	m.syncer.Reset()
	m.syncer.Apply(m.messages)

	m.refreshContent(true)
	return m, nil
}

// followTail runs the auto-scroll decision for the newest message and, when
// it fires, phase one of the two-phase scroll plus the settle timer.
func (m *Model) followTail() []tea.Cmd {
	if len(m.messages) == 0 || m.list == nil {
		return nil
	}
	tail := m.messages[len(m.messages)-1]
	action := m.fol.OnTail(tail.ID, tail.Role)
	m.fol.MarkRendered()
	if action != follow.ActionScrollToEnd {
		return nil
	}
	follow.BeginScroll(m.list)
	m.fol.SetAtBottom(true)
	return []tea.Cmd{settleTick(m.epoch)}
}

// updateSessions handles key events in the session list view.
func (m *Model) updateSessions(v tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch v.String() {
	case "q":
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}

	case "g":
		m.cursor = 0
		m.scrollOff = 0

	case "G":
		if len(m.sessions) > 0 {
			m.cursor = len(m.sessions) - 1
			m.ensureCursorVisible()
		}

	case "enter":
		if len(m.sessions) > 0 && m.cursor < len(m.sessions) {
			return m, m.openSession(m.sessions[m.cursor])
		}

	case "r":
		return m, loadSessions(m.src, m.epoch)
	}

	return m, nil
}

// openSession switches to the conversation view. Everything per-session
// resets here; the epoch bump strands any in-flight results.
func (m *Model) openSession(s source.Session) tea.Cmd {
	m.teardownWatch()
	m.epoch++
	m.sessionID = s.ID
	m.sessionName = s.Name
	if m.sessionName == "" && len(s.ID) >= 8 {
		m.sessionName = s.ID[:8]
	}
	m.view = ViewConversation
	m.messages = nil
	m.arena = nil
	m.pendingPrefix = false
	m.reloading = true
	m.syncer.Reset()
	m.fol.Reset()
	m.clearSearch()
	if m.list != nil {
		m.list.setContent("", nil)
		m.vp.GotoTop()
	}

	return tea.Batch(
		loadConversation(m.src, m.sessionID, m.epoch, true),
		startWatch(m.src, m.sessionID, m.epoch),
	)
}

// closeSession returns to the session list.
func (m *Model) closeSession() tea.Cmd {
	m.teardownWatch()
	m.epoch++
	m.sessionID = ""
	m.view = ViewSessions
	m.messages = nil
	m.arena = nil
	m.reloading = false
	m.clearSearch()
	return loadSessions(m.src, m.epoch)
}

// teardownWatch closes the active notice subscription, if any.
func (m *Model) teardownWatch() {
	if m.watchCloser != nil {
		_ = m.watchCloser.Close()
		m.watchCloser = nil
	}
	m.notices = nil
}

// updateConversation handles key events in the conversation view.
func (m *Model) updateConversation(v tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch v.String() {
	case "esc", "q":
		return m, m.closeSession()

	case "j", "down":
		m.scrollBy(1)

	case "k", "up":
		m.scrollBy(-1)

	case "d", "ctrl+d":
		m.scrollBy(m.vp.Height / 2)

	case "u", "ctrl+u":
		m.scrollBy(-m.vp.Height / 2)

	case "g":
		m.vp.GotoTop()
		m.fol.SetAtBottom(false)

	case "G":
		if m.list != nil {
			follow.BeginScroll(m.list)
			m.fol.SetAtBottom(true)
			return m, settleTick(m.epoch)
		}

	case "p":
		m.jumpToPrompt(-1)

	case "P":
		m.jumpToPrompt(1)

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.scrollToPrompt(int(v.String()[0] - '1'))

	case "/":
		m.searching = true
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink

	case "n":
		return m, m.advanceSearch(true)

	case "N":
		return m, m.advanceSearch(false)

	case "t":
		return m, m.toggleDisplay(func(d *prefs.Display) { d.ShowToolCalls = !d.ShowToolCalls }, "tool calls")

	case "c":
		return m, m.toggleDisplay(func(d *prefs.Display) { d.CompactMode = !d.CompactMode }, "compact mode")

	case "x":
		return m, m.toggleDisplay(func(d *prefs.Display) { d.CollapseTools = !d.CollapseTools }, "collapsed tools")

	case "T":
		return m, m.toggleDisplay(func(d *prefs.Display) { d.ShowThinking = !d.ShowThinking }, "thinking")

	case "i":
		return m, m.toggleDisplay(func(d *prefs.Display) { d.ShowSessionInit = !d.ShowSessionInit }, "session init")

	case "y":
		return m, m.copyTranscript()

	case "r":
		if !m.reloading && m.sessionID != "" {
			m.reloading = true
			return m, loadConversation(m.src, m.sessionID, m.epoch, false)
		}
	}

	return m, nil
}

// updateSearchInput handles keys while the search bar is focused.
func (m *Model) updateSearchInput(v tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch v.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.clearSearch()
		return m, nil

	case "enter":
		m.searching = false
		m.searchInput.Blur()
		m.runSearch()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(v)
	m.searchSeq++
	return m, tea.Batch(cmd, searchTick(m.cfg.Search.Debounce.Std(), m.searchSeq))
}

// runSearch executes the current query and jumps to the first hit.
func (m *Model) runSearch() {
	query := m.searchInput.Value()
	if query == "" {
		m.searchCur = nil
		return
	}
	results := search.Run(m.messages, query, search.DefaultOptions())
	m.searchCur = search.NewCursor(results)
	if res, ok := m.searchCur.Current(); ok {
		m.scrollToMessage(res.MessageIndex)
	}
}

// advanceSearch moves the match cursor and scrolls to the hit.
func (m *Model) advanceSearch(forward bool) tea.Cmd {
	if m.searchCur == nil || m.searchCur.Len() == 0 {
		return nil
	}
	var res search.Result
	var ok bool
	if forward {
		res, ok = m.searchCur.Next()
	} else {
		res, ok = m.searchCur.Prev()
	}
	if ok {
		m.scrollToMessage(res.MessageIndex)
	}
	return nil
}

func (m *Model) clearSearch() {
	m.searchCur = nil
	m.searchInput.SetValue("")
}

// scrollToMessage pins the message's first line to the top of the view.
func (m *Model) scrollToMessage(index int) {
	if m.list == nil || index < 0 || index >= m.list.Count() {
		return
	}
	m.vp.SetYOffset(m.list.startOf(index))
	m.syncBottom()
}

// scrollToPrompt scrolls to the nth user message, 0-based. Out of range is
// a no-op.
func (m *Model) scrollToPrompt(n int) {
	if n < 0 {
		return
	}
	seen := 0
	for i := range m.messages {
		if m.messages[i].Role != conversation.RoleUser {
			continue
		}
		if seen == n {
			m.scrollToMessage(i)
			return
		}
		seen++
	}
}

// jumpToPrompt scrolls to the nearest user message above (dir -1) or below
// (dir +1) the current position.
func (m *Model) jumpToPrompt(dir int) {
	if m.list == nil || len(m.messages) == 0 {
		return
	}
	current := m.list.indexAt(m.vp.YOffset)
	for i := current + dir; i >= 0 && i < len(m.messages); i += dir {
		if m.messages[i].Role == conversation.RoleUser {
			m.scrollToMessage(i)
			return
		}
	}
}

// scrollBy moves the viewport by n lines, clamped to the buffer.
func (m *Model) scrollBy(n int) {
	if m.list == nil {
		return
	}
	offset := m.vp.YOffset + n
	if offset < 0 {
		offset = 0
	}
	if max := m.list.MaxOffset(); offset > max {
		offset = max
	}
	m.vp.SetYOffset(offset)
	m.syncBottom()
}

// syncBottom relays the viewport's bottom proximity to the controller.
func (m *Model) syncBottom() {
	if m.list == nil {
		return
	}
	m.fol.SetAtBottom(m.list.MaxOffset()-m.list.Offset() <= follow.OffsetEpsilon)
}

// toggleDisplay flips one display preference, persists it, and re-renders.
func (m *Model) toggleDisplay(mutate func(*prefs.Display), label string) tea.Cmd {
	mutate(&m.display)
	m.refreshContent(false)
	if err := m.store.SetDisplay(m.display); err != nil {
		m.logger.Error("persist display prefs", "error", err)
		return msg.ShowError("could not save preference", toastDuration)
	}
	return msg.ShowToast("toggled "+label, toastDuration)
}

// copyTranscript puts the conversation's plain text on the clipboard.
func (m *Model) copyTranscript() tea.Cmd {
	var b []byte
	for _, message := range m.messages {
		text := message.PlainText()
		if text == "" {
			continue
		}
		b = append(b, message.Role...)
		b = append(b, ": "...)
		b = append(b, text...)
		b = append(b, '\n')
	}
	if err := clipboard.WriteAll(string(b)); err != nil {
		return msg.ShowError("clipboard unavailable", toastDuration)
	}
	return msg.ShowToast("copied transcript", toastDuration)
}

// refreshContent re-renders the conversation into the viewport. When
// preserve is set the offset survives the content swap; otherwise the
// viewport stays where follow decisions put it.
func (m *Model) refreshContent(preserve bool) {
	if m.list == nil {
		return
	}
	prevOffset := m.vp.YOffset
	wasAtBottom := m.list.MaxOffset()-prevOffset <= follow.OffsetEpsilon

	content, starts := m.renderConversation()
	m.list.setContent(content, starts)

	if preserve {
		if wasAtBottom {
			m.vp.GotoBottom()
		} else if prevOffset <= m.list.MaxOffset() {
			m.vp.SetYOffset(prevOffset)
		}
	}
}

// ensureCursorVisible adjusts session list scroll to keep cursor visible.
func (m *Model) ensureCursorVisible() {
	visibleRows := m.height - 6
	if visibleRows < 1 {
		visibleRows = 1
	}
	if m.cursor < m.scrollOff {
		m.scrollOff = m.cursor
	} else if m.cursor >= m.scrollOff+visibleRows {
		m.scrollOff = m.cursor - visibleRows + 1
	}
}
