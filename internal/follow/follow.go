// Package follow tracks whether the view is pinned to the newest message
// and decides when the virtualized list should auto-scroll as data streams
// in.
package follow

import "time"

// SettleDelay is how long phase two of a scroll waits for the list to
// re-measure heights before asserting the final offset.
const SettleDelay = 50 * time.Millisecond

// OffsetEpsilon is how far from the maximum offset still counts as bottom
// when phase two checks the landing position.
const OffsetEpsilon = 1

// Action is the controller's verdict for a state change.
type Action int

const (
	// ActionNone leaves the viewport where the user put it.
	ActionNone Action = iota
	// ActionScrollToEnd runs the two-phase scroll to the newest item.
	ActionScrollToEnd
)

// VirtualList is the scroll surface contract. Heights are measured
// asynchronously by the underlying layer, so an offset requested now may
// be stale a frame later; the two-phase protocol compensates.
type VirtualList interface {
	Count() int
	ScrollToItem(index int)
	Offset() int
	MaxOffset() int
	SetOffset(offset int)
}

// Controller is the per-session auto-scroll state machine. It is owned by
// the view model and touched only on the event loop.
type Controller struct {
	atBottom  bool
	firstLoad bool
	lastID    string
}

// New returns a controller in the fresh-session state: pinned to bottom,
// first load pending.
func New() *Controller {
	return &Controller{atBottom: true, firstLoad: true}
}

// Reset returns to the fresh-session state. Called on session switch;
// stale async results from the previous session must find no state here
// to corrupt.
func (c *Controller) Reset() {
	c.atBottom = true
	c.firstLoad = true
	c.lastID = ""
}

// OnTail decides what to do when the newest rendered message changes.
// User messages always chase the bottom; assistant messages only when the
// view was already pinned there. Anything else leaves the user reviewing
// history undisturbed.
func (c *Controller) OnTail(id, role string) Action {
	if id == "" || id == c.lastID {
		return ActionNone
	}
	c.lastID = id

	if c.firstLoad {
		return ActionScrollToEnd
	}
	switch role {
	case "user":
		return ActionScrollToEnd
	case "assistant":
		if c.atBottom {
			return ActionScrollToEnd
		}
	}
	return ActionNone
}

// SetAtBottom records the viewport's own bottom-proximity report.
func (c *Controller) SetAtBottom(atBottom bool) {
	c.atBottom = atBottom
}

// AtBottom reports whether the view is pinned to the newest content.
func (c *Controller) AtBottom() bool { return c.atBottom }

// FirstLoad reports whether the session has rendered yet.
func (c *Controller) FirstLoad() bool { return c.firstLoad }

// MarkRendered clears the first-load flag after the session's first
// successful render pass.
func (c *Controller) MarkRendered() {
	c.firstLoad = false
}

// ShowJumpToLatest reports whether the jump-to-latest affordance applies.
func (c *Controller) ShowJumpToLatest() bool { return !c.atBottom }

// LastRenderedID returns the id of the newest message the controller has
// reacted to.
func (c *Controller) LastRenderedID() string { return c.lastID }

// BeginScroll is phase one: request an index-based scroll to the last
// item. The list may not have measured all heights yet; Settle runs after
// SettleDelay to finish the job.
func BeginScroll(list VirtualList) {
	if list.Count() == 0 {
		return
	}
	list.ScrollToItem(list.Count() - 1)
}

// Settle is phase two: after the settle delay, assert the offset landed
// within epsilon of maximum and correct it if the asynchronous height
// measurement moved the target. This is compensation for layout timing,
// not a retry of a fallible operation.
func Settle(list VirtualList) {
	if list.Count() == 0 {
		return
	}
	if list.MaxOffset()-list.Offset() > OffsetEpsilon {
		list.SetOffset(list.MaxOffset())
	}
}
