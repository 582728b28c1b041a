package conversation

import (
	"encoding/json"

	"github.com/marcus/agentview/internal/rawevent"
)

// Registry holds everything the builder needs to place tool calls: a
// result per tool-use id, a parent link per child id, and the arena of
// constructed nodes. Both lookup maps are fully populated before any node
// is constructed, so results and parent declarations may appear anywhere
// in the log relative to the owning tool_use.
type Registry struct {
	Arena   *Arena
	results map[string]ToolResult
	parents map[string]string
}

// Result returns the registered result for a tool-use id.
func (r *Registry) Result(id string) (ToolResult, bool) {
	res, ok := r.results[id]
	return res, ok
}

// ParentOf returns the declared parent tool id for a child tool id.
func (r *Registry) ParentOf(id string) string {
	return r.parents[id]
}

// BuildRegistry scans the raw events and constructs the tool call arena
// with results attached and parent/child edges linked.
func BuildRegistry(events []rawevent.Event) *Registry {
	r := &Registry{
		Arena:   NewArena(),
		results: make(map[string]ToolResult),
		parents: make(map[string]string),
	}

	// Pass A: results and parent links, in arrival order.
	for i := range events {
		ev := &events[i]
		if ev.ParentToolUseID != "" {
			for _, b := range ev.ContentBlocks() {
				if b.Type == rawevent.TypeToolUse && b.ID != "" {
					r.parents[b.ID] = ev.ParentToolUseID
				}
			}
		}
		if ev.Type == rawevent.TypeUser {
			for _, b := range ev.ContentBlocks() {
				if b.Type == rawevent.TypeToolResult && b.ToolUseID != "" {
					r.results[b.ToolUseID] = ToolResult{
						Content: b.ResultText(),
						IsError: b.IsError,
					}
				}
			}
		}
	}

	// Pass B: construct a node per tool_use block in assistant events.
	for i := range events {
		ev := &events[i]
		if ev.Type != rawevent.TypeAssistant {
			continue
		}
		for _, b := range ev.ContentBlocks() {
			if b.Type != rawevent.TypeToolUse || b.ID == "" {
				continue
			}
			tc := &ToolCall{
				ID:       b.ID,
				Name:     b.Name,
				Input:    b.Input,
				Status:   StatusPending,
				ParentID: r.parents[b.ID],
			}
			if res, ok := r.results[b.ID]; ok {
				resCopy := res
				tc.Result = &resCopy
				if res.IsError {
					tc.Status = StatusError
				} else {
					tc.Status = StatusSuccess
				}
			}
			if b.Name == subAgentToolName {
				tc.IsSubAgent = true
				tc.SubAgentType = subAgentType(b.Input)
			}
			r.Arena.Put(tc)
		}
	}

	// Pass C: link children under resolvable parents, first-seen order.
	// A declared parent that was never registered leaves the child in the
	// arena but unreachable; that is accepted loss, not an error.
	for _, id := range r.Arena.IDs() {
		tc := r.Arena.Get(id)
		if tc.ParentID == "" {
			continue
		}
		if parent := r.Arena.Get(tc.ParentID); parent != nil {
			parent.Children = append(parent.Children, id)
		}
	}

	return r
}

// subAgentType reads input.subagent_type from a Task tool's input payload.
func subAgentType(input json.RawMessage) string {
	if len(input) == 0 {
		return ""
	}
	var payload struct {
		SubagentType string `json:"subagent_type"`
	}
	if err := json.Unmarshal(input, &payload); err != nil {
		return ""
	}
	return payload.SubagentType
}
