package app

import (
	"github.com/charmbracelet/bubbles/viewport"
)

// messageList adapts the viewport to an index-addressed list. The render
// pass records each message's starting line so index scrolls map to line
// offsets; heights change whenever toggles or width do, which is why the
// two-phase scroll re-checks its landing.
type messageList struct {
	vp     *viewport.Model
	starts []int
}

// setContent swaps the rendered buffer and its per-message line index.
func (l *messageList) setContent(content string, starts []int) {
	l.starts = starts
	l.vp.SetContent(content)
}

// startOf returns the first line of message index.
func (l *messageList) startOf(index int) int {
	if index < 0 || index >= len(l.starts) {
		return 0
	}
	return l.starts[index]
}

// indexAt returns the index of the message containing line offset.
func (l *messageList) indexAt(offset int) int {
	idx := 0
	for i, start := range l.starts {
		if start > offset {
			break
		}
		idx = i
	}
	return idx
}

func (l *messageList) Count() int { return len(l.starts) }

// ScrollToItem scrolls so the item is in view. The last item anchors to
// the buffer end rather than pinning its first line to the top.
func (l *messageList) ScrollToItem(index int) {
	if index < 0 || index >= len(l.starts) {
		return
	}
	if index == len(l.starts)-1 {
		l.vp.GotoBottom()
		return
	}
	l.vp.SetYOffset(l.starts[index])
}

func (l *messageList) Offset() int { return l.vp.YOffset }

func (l *messageList) MaxOffset() int {
	max := l.vp.TotalLineCount() - l.vp.Height
	if max < 0 {
		max = 0
	}
	return max
}

func (l *messageList) SetOffset(offset int) { l.vp.SetYOffset(offset) }
