// Package conversation reconstructs a hierarchical conversation model from
// a raw agent session log: ordered messages made of typed segments, with
// tool calls linked into parent/child trees across sub-agent delegation.
package conversation

import (
	"encoding/json"
	"time"
)

// Role of a conversation message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Tool call status, derived from whether a matching result was registered.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusError   = "error"
)

// subAgentToolName is the tool that delegates to a nested agent.
const subAgentToolName = "Task"

// Message is one reconstructed conversation entry. Immutable once built;
// reloads replace or append, never mutate.
type Message struct {
	ID        string
	Role      string
	Timestamp time.Time
	Segments  []Segment
	Meta      Meta
}

// Meta carries optional per-message metadata.
type Meta struct {
	Agent         string
	Model         string
	DurationMS    int64
	InputTokens   int
	OutputTokens  int
	CostUSD       float64
	SystemSubtype string
	SessionInfo   *SessionInfo
}

// SessionInfo describes a session init or error system event.
type SessionInfo struct {
	SessionID string
	Model     string
	CWD       string
	Tools     []string
	Message   string
}

// Segment types within a message.
const (
	SegText       = "text"
	SegToolCall   = "tool_call"
	SegSystemInfo = "system_info"
	SegThinking   = "thinking"
)

// Segment is one typed unit of rendered content. ToolID references the
// arena; only parentless tool calls appear as segments.
type Segment struct {
	Type   string
	Text   string
	ToolID string
	Info   *SessionInfo
}

// ToolResult is the recorded outcome of a tool invocation.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolCall is one invoked action. Parent and children are stored as arena
// ids, not pointers, so the graph carries no ownership cycles.
type ToolCall struct {
	ID           string
	Name         string
	Input        json.RawMessage
	Result       *ToolResult
	Status       string
	IsSubAgent   bool
	SubAgentType string
	ParentID     string
	Children     []string
}

// Arena is an append-only store of tool calls indexed by id. Edges are id
// references resolved against the arena at render time.
type Arena struct {
	calls map[string]*ToolCall
	order []string
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{calls: make(map[string]*ToolCall)}
}

// Put stores a tool call. Ids are unique across a conversation; on a
// duplicate the first record wins.
func (a *Arena) Put(tc *ToolCall) {
	if tc == nil || tc.ID == "" {
		return
	}
	if _, ok := a.calls[tc.ID]; ok {
		return
	}
	a.calls[tc.ID] = tc
	a.order = append(a.order, tc.ID)
}

// Get returns the tool call for id, or nil.
func (a *Arena) Get(id string) *ToolCall {
	return a.calls[id]
}

// Len returns the number of stored tool calls.
func (a *Arena) Len() int { return len(a.order) }

// IDs returns tool call ids in first-seen order.
func (a *Arena) IDs() []string { return a.order }

// Resolve maps child ids to their records, dropping unknown ids.
func (a *Arena) Resolve(ids []string) []*ToolCall {
	out := make([]*ToolCall, 0, len(ids))
	for _, id := range ids {
		if tc := a.calls[id]; tc != nil {
			out = append(out, tc)
		}
	}
	return out
}

// ReachableCount returns the number of tool calls reachable from id,
// including itself and all nested children.
func (a *Arena) ReachableCount(id string) int {
	tc := a.calls[id]
	if tc == nil {
		return 0
	}
	n := 1
	for _, child := range tc.Children {
		n += a.ReachableCount(child)
	}
	return n
}

// PlainText flattens a message to displayable text, used for clipboard and
// search previews.
func (m Message) PlainText() string {
	out := ""
	for _, seg := range m.Segments {
		if seg.Type != SegText && seg.Type != SegThinking {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += seg.Text
	}
	return out
}
