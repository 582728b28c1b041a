package follow

import "testing"

// fakeList simulates a virtualized list whose max offset grows after
// phase one, the way asynchronous height measurement behaves.
type fakeList struct {
	count      int
	offset     int
	maxOffset  int
	scrolledTo []int
}

func (f *fakeList) Count() int      { return f.count }
func (f *fakeList) Offset() int     { return f.offset }
func (f *fakeList) MaxOffset() int  { return f.maxOffset }
func (f *fakeList) SetOffset(o int) { f.offset = o }
func (f *fakeList) ScrollToItem(i int) {
	f.scrolledTo = append(f.scrolledTo, i)
	f.offset = f.maxOffset
}

func TestOnTailFirstLoad(t *testing.T) {
	c := New()
	if got := c.OnTail("m1", "assistant"); got != ActionScrollToEnd {
		t.Errorf("first load should force scroll, got %d", got)
	}
}

func TestOnTailRoles(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		atBottom bool
		want     Action
	}{
		{"user always scrolls", "user", false, ActionScrollToEnd},
		{"user at bottom scrolls", "user", true, ActionScrollToEnd},
		{"assistant at bottom scrolls", "assistant", true, ActionScrollToEnd},
		{"assistant reviewing history stays", "assistant", false, ActionNone},
		{"system stays", "system", true, ActionNone},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.MarkRendered()
			c.SetAtBottom(tt.atBottom)
			id := "m" + string(rune('a'+i))
			if got := c.OnTail(id, tt.role); got != tt.want {
				t.Errorf("OnTail = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOnTailSameIDNoop(t *testing.T) {
	c := New()
	c.MarkRendered()
	c.SetAtBottom(true)

	if got := c.OnTail("m1", "user"); got != ActionScrollToEnd {
		t.Fatalf("first sighting should scroll, got %d", got)
	}
	if got := c.OnTail("m1", "user"); got != ActionNone {
		t.Errorf("same tail id must not re-scroll, got %d", got)
	}
	if got := c.OnTail("", "user"); got != ActionNone {
		t.Errorf("empty id must be ignored, got %d", got)
	}
}

func TestReset(t *testing.T) {
	c := New()
	c.MarkRendered()
	c.SetAtBottom(false)
	c.OnTail("m1", "user")

	c.Reset()
	if !c.AtBottom() || !c.FirstLoad() || c.LastRenderedID() != "" {
		t.Errorf("Reset left state: atBottom=%v firstLoad=%v lastID=%q",
			c.AtBottom(), c.FirstLoad(), c.LastRenderedID())
	}
}

func TestJumpToLatestAffordance(t *testing.T) {
	c := New()
	if c.ShowJumpToLatest() {
		t.Error("pinned view should not show the affordance")
	}
	c.SetAtBottom(false)
	if !c.ShowJumpToLatest() {
		t.Error("unpinned view should show the affordance")
	}
}

func TestTwoPhaseScroll(t *testing.T) {
	// Phase one scrolls to the last item; the list then grows its max
	// offset as heights land; phase two corrects the position.
	list := &fakeList{count: 10, maxOffset: 100}

	BeginScroll(list)
	if len(list.scrolledTo) != 1 || list.scrolledTo[0] != 9 {
		t.Fatalf("phase one scrolled to %v, want [9]", list.scrolledTo)
	}

	// Late height measurement pushes the true maximum further down.
	list.maxOffset = 140

	Settle(list)
	if list.offset != 140 {
		t.Errorf("phase two offset = %d, want 140", list.offset)
	}
}

func TestSettleWithinEpsilonUntouched(t *testing.T) {
	list := &fakeList{count: 5, maxOffset: 40, offset: 40}
	Settle(list)
	if list.offset != 40 {
		t.Errorf("offset moved to %d despite being at max", list.offset)
	}

	list.offset = 39 // within epsilon
	Settle(list)
	if list.offset != 39 {
		t.Errorf("offset within epsilon corrected to %d", list.offset)
	}
}

func TestScrollEmptyListNoop(t *testing.T) {
	list := &fakeList{}
	BeginScroll(list)
	Settle(list)
	if len(list.scrolledTo) != 0 || list.offset != 0 {
		t.Error("empty list must not be scrolled")
	}
}
