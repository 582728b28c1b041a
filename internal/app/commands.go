package app

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/agentview/internal/conversation"
	"github.com/marcus/agentview/internal/follow"
	"github.com/marcus/agentview/internal/rawevent"
	"github.com/marcus/agentview/internal/source"
)

// Message types for tea.Cmd
type (
	// SessionsLoadedMsg carries the refreshed session list.
	SessionsLoadedMsg struct {
		Sessions []source.Session
	}

	// ConversationLoadedMsg carries a rebuilt conversation. Epoch ties the
	// result to the session load that requested it; results from a
	// previous epoch are discarded. When Partial is set only the tail of a
	// large session was built and Events holds the full merged stream for
	// the background build.
	ConversationLoadedMsg struct {
		Epoch    int
		Messages []conversation.Message
		Arena    *conversation.Arena
		Events   []rawevent.Event
		Partial  bool
	}

	// PrefixBuiltMsg carries the background full build for a large
	// session's first load.
	PrefixBuiltMsg struct {
		Epoch    int
		Messages []conversation.Message
		Arena    *conversation.Arena
	}

	// WatchStartedMsg delivers the notice channel for the open session.
	WatchStartedMsg struct {
		Epoch   int
		Notices <-chan source.Notice
		Closer  io.Closer
	}

	// NoticeMsg signals new output for the open session.
	NoticeMsg struct {
		Epoch     int
		SessionID string
	}

	// ReloadTickMsg fires after the reload debounce window. Seq identifies
	// the notice burst that scheduled it; stale ticks are ignored.
	ReloadTickMsg struct {
		Seq int
	}

	// SearchTickMsg fires after the search typing debounce window.
	SearchTickMsg struct {
		Seq int
	}

	// ScrollSettleMsg is phase two of an auto-scroll.
	ScrollSettleMsg struct {
		Epoch int
	}

	// ErrorMsg represents an error condition. Epoch ties it to the session
	// load whose command failed; stale errors must not touch the current
	// session's state.
	ErrorMsg struct {
		Err   error
		Epoch int
	}
)

// loadSessions returns a command that lists sessions from the source.
func loadSessions(src source.Source, epoch int) tea.Cmd {
	return func() tea.Msg {
		sessions, err := src.Sessions(context.Background())
		if err != nil {
			return ErrorMsg{Err: err, Epoch: epoch}
		}
		return SessionsLoadedMsg{Sessions: sessions}
	}
}

// loadConversation fetches both streams, merges them, and builds the
// conversation. On a large first load only the tail is built here; the
// full build runs in the background via buildFull.
func loadConversation(src source.Source, sessionID string, epoch int, firstLoad bool) tea.Cmd {
	return func() tea.Msg {
		type fetched struct {
			prompts []source.PromptRecord
			events  []rawevent.Event
			err     error
		}
		promptCh := make(chan fetched, 1)
		eventCh := make(chan fetched, 1)
		go func() {
			p, err := src.Conversation(context.Background(), sessionID)
			promptCh <- fetched{prompts: p, err: err}
		}()
		go func() {
			e, err := src.Events(context.Background(), sessionID)
			eventCh <- fetched{events: e, err: err}
		}()
		pr := <-promptCh
		ev := <-eventCh
		if pr.err != nil {
			return ErrorMsg{Err: pr.err, Epoch: epoch}
		}
		if ev.err != nil {
			return ErrorMsg{Err: ev.err, Epoch: epoch}
		}

		merged := conversation.SortEvents(source.MergeStreams(pr.prompts, ev.events))

		if firstLoad {
			if prefix, tail := conversation.SplitFirstLoad(merged); prefix != nil {
				messages, arena := conversation.Build(tail)
				return ConversationLoadedMsg{
					Epoch:    epoch,
					Messages: messages,
					Arena:    arena,
					Events:   merged,
					Partial:  true,
				}
			}
		}

		messages, arena := conversation.Build(merged)
		return ConversationLoadedMsg{Epoch: epoch, Messages: messages, Arena: arena}
	}
}

// buildFull builds the complete conversation for a large session in the
// background. The result is spliced with the already-displayed tail.
func buildFull(events []rawevent.Event, epoch int) tea.Cmd {
	return func() tea.Msg {
		messages, arena := conversation.Build(events)
		return PrefixBuiltMsg{Epoch: epoch, Messages: messages, Arena: arena}
	}
}

// startWatch subscribes to new-output notices for the session.
func startWatch(src source.Source, sessionID string, epoch int) tea.Cmd {
	return func() tea.Msg {
		ch, closer, err := src.Watch(sessionID)
		if err != nil {
			return ErrorMsg{Err: err, Epoch: epoch}
		}
		return WatchStartedMsg{Epoch: epoch, Notices: ch, Closer: closer}
	}
}

// waitNotice blocks on the notice channel and re-arms itself from Update.
func waitNotice(ch <-chan source.Notice, epoch int) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NoticeMsg{Epoch: epoch, SessionID: n.SessionID}
	}
}

// reloadTick schedules the debounced reload after a notice burst.
func reloadTick(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ReloadTickMsg{Seq: seq}
	})
}

// searchTick schedules the debounced search run while typing.
func searchTick(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return SearchTickMsg{Seq: seq}
	})
}

// settleTick schedules phase two of an auto-scroll.
func settleTick(epoch int) tea.Cmd {
	return tea.Tick(follow.SettleDelay, func(time.Time) tea.Msg {
		return ScrollSettleMsg{Epoch: epoch}
	})
}
