package conversation

import (
	"github.com/cespare/xxhash/v2"
)

// Snapshot records the id sequence and per-message content digests of a
// built conversation, for prefix comparison on the next reload.
type Snapshot struct {
	ids     []string
	digests []uint64
}

// Delta is the synchronizer's verdict for a reload: either splice Suffix
// onto the displayed state, or replace it wholesale with All.
type Delta struct {
	Append bool
	Suffix []Message
	All    []Message
}

// Synchronizer compares each rebuilt conversation against the previous
// snapshot. It is owned by one controller and mutated only between event
// loop suspension points; it carries no locking of its own.
type Synchronizer struct {
	prev Snapshot
}

// Apply compares the rebuilt conversation against the previous snapshot
// and updates it. The delta is an append only when every prior message
// matches at its index, by id and content digest; a changed digest means a
// message mutated in place (a tool result landing) and forces a replace.
func (s *Synchronizer) Apply(next []Message) Delta {
	snap := snapshotOf(next)
	isAppend := len(s.prev.ids) <= len(snap.ids)
	if isAppend {
		for i := range s.prev.ids {
			if s.prev.ids[i] != snap.ids[i] || s.prev.digests[i] != snap.digests[i] {
				isAppend = false
				break
			}
		}
	}

	prevLen := len(s.prev.ids)
	s.prev = snap

	if isAppend {
		return Delta{Append: true, Suffix: next[prevLen:]}
	}
	return Delta{All: next}
}

// Reset discards the snapshot; the next Apply replaces wholesale. Called on
// session switch.
func (s *Synchronizer) Reset() {
	s.prev = Snapshot{}
}

// Len returns the length of the current snapshot.
func (s *Synchronizer) Len() int { return len(s.prev.ids) }

func snapshotOf(messages []Message) Snapshot {
	snap := Snapshot{
		ids:     make([]string, len(messages)),
		digests: make([]uint64, len(messages)),
	}
	for i := range messages {
		snap.ids[i] = messages[i].ID
		snap.digests[i] = digest(&messages[i])
	}
	return snap
}

// digest hashes the parts of a message that affect rendering.
func digest(m *Message) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(m.ID)
	_, _ = h.WriteString(m.Role)
	for _, seg := range m.Segments {
		_, _ = h.WriteString(seg.Type)
		_, _ = h.WriteString(seg.Text)
		_, _ = h.WriteString(seg.ToolID)
	}
	return h.Sum64()
}

// SplicePrefix merges a background-built full conversation with the
// already-displayed first-load tail: everything in full before the tail's
// first id goes in front of the displayed messages. When the displayed
// tail no longer lines up with the full build, the full build wins.
func SplicePrefix(full, displayed []Message) []Message {
	if len(displayed) == 0 {
		return full
	}
	for i := range full {
		if full[i].ID == displayed[0].ID {
			out := make([]Message, 0, i+len(displayed))
			out = append(out, full[:i]...)
			out = append(out, displayed...)
			return out
		}
	}
	return full
}
