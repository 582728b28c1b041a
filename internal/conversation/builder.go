package conversation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/marcus/agentview/internal/rawevent"
)

// First-load batching: histories above the threshold publish only the most
// recent tail immediately; the remaining prefix builds in the background.
const (
	FirstLoadThreshold = 100
	FirstLoadTail      = 50
)

// syntheticModel marks assistant events the backend fabricated to report a
// failure rather than real model output.
const syntheticModel = "<synthetic>"

// errorMarkers identify synthetic assistant events that should render as
// system errors.
var errorMarkers = []string{
	"API Error",
	"Credit balance is too low",
}

// Build reconstructs the conversation from raw events: a stable timestamp
// sort, the tool registry passes, then a single ordered pass emitting
// messages. Running it twice on identical input yields identical output.
func Build(events []rawevent.Event) ([]Message, *Arena) {
	sorted := SortEvents(events)
	reg := BuildRegistry(sorted)

	messages := make([]Message, 0, len(sorted))
	for i := range sorted {
		ev := &sorted[i]
		var msg *Message
		switch ev.Type {
		case rawevent.TypeUser:
			msg = buildUser(ev, i)
		case rawevent.TypeAssistant:
			msg = buildAssistant(ev, i, reg)
		case rawevent.TypeSystem:
			msg = buildSystem(ev, i)
		case rawevent.TypeResult:
			msg = buildResult(ev, i)
		}
		if msg != nil {
			messages = append(messages, *msg)
		}
	}
	return messages, reg.Arena
}

// SortEvents returns a copy ordered by ascending timestamp, ties broken by
// original position.
func SortEvents(events []rawevent.Event) []rawevent.Event {
	sorted := make([]rawevent.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp.Time)
	})
	return sorted
}

// SplitFirstLoad splits events into a prefix and the tail to build first.
// Below the threshold the tail is everything.
func SplitFirstLoad(events []rawevent.Event) (prefix, tail []rawevent.Event) {
	if len(events) <= FirstLoadThreshold {
		return nil, events
	}
	cut := len(events) - FirstLoadTail
	return events[:cut], events[cut:]
}

// buildUser emits a user message only for text-only content: an event
// carrying tool_result blocks folds into the referenced tool call instead.
// A direct text field short-circuits structured content, the same as on
// the assistant side; merged prompt records arrive that way.
func buildUser(ev *rawevent.Event, index int) *Message {
	if ev.HasToolResult() {
		return nil
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		text = strings.TrimSpace(ev.PlainText())
	}
	if text == "" {
		return nil
	}
	return &Message{
		ID:        eventID(ev, RoleUser, index),
		Role:      RoleUser,
		Timestamp: ev.Timestamp.Time,
		Segments:  []Segment{{Type: SegText, Text: text}},
		Meta:      Meta{Agent: ev.Agent},
	}
}

func buildAssistant(ev *rawevent.Event, index int, reg *Registry) *Message {
	var segments []Segment

	if ev.Text != "" {
		// A direct text field short-circuits structured content.
		if text := strings.TrimSpace(ev.Text); text != "" {
			segments = append(segments, Segment{Type: SegText, Text: text})
		}
	} else {
		for _, b := range ev.ContentBlocks() {
			switch b.Type {
			case "text":
				if text := strings.TrimSpace(b.Text); text != "" {
					segments = append(segments, Segment{Type: SegText, Text: text})
				}
			case "thinking":
				if text := strings.TrimSpace(b.ThinkingText()); text != "" {
					segments = append(segments, Segment{Type: SegThinking, Text: text})
				}
			case rawevent.TypeToolUse:
				if b.ID == "" || reg.ParentOf(b.ID) != "" {
					// Child tool calls are reachable only through their
					// parent's child list.
					continue
				}
				if reg.Arena.Get(b.ID) != nil {
					segments = append(segments, Segment{Type: SegToolCall, ToolID: b.ID})
				}
			}
		}
		if len(segments) == 0 {
			if text := strings.TrimSpace(ev.PlainText()); text != "" {
				segments = append(segments, Segment{Type: SegText, Text: text})
			}
		}
	}

	if len(segments) == 0 {
		return nil
	}

	msg := &Message{
		ID:        eventID(ev, RoleAssistant, index),
		Role:      RoleAssistant,
		Timestamp: ev.Timestamp.Time,
		Segments:  segments,
		Meta:      Meta{Model: ev.EffectiveModel(), Agent: ev.Agent},
	}
	if usage := ev.EffectiveUsage(); usage != nil {
		msg.Meta.InputTokens = usage.InputTokens
		msg.Meta.OutputTokens = usage.OutputTokens
	}

	// Backends report failures as synthetic assistant turns; reclassify
	// them as system errors so they render accordingly.
	if msg.Meta.Model == syntheticModel && hasErrorMarker(segments) {
		msg.Role = RoleSystem
		msg.Meta.SystemSubtype = rawevent.SubtypeError
	}

	return msg
}

func hasErrorMarker(segments []Segment) bool {
	for _, seg := range segments {
		if seg.Type != SegText {
			continue
		}
		for _, marker := range errorMarkers {
			if strings.Contains(seg.Text, marker) {
				return true
			}
		}
	}
	return false
}

func buildSystem(ev *rawevent.Event, index int) *Message {
	var segments []Segment
	switch ev.Subtype {
	case rawevent.SubtypeInit:
		segments = []Segment{{Type: SegSystemInfo, Info: &SessionInfo{
			SessionID: ev.SessionID,
			Model:     ev.EffectiveModel(),
			CWD:       ev.CWD,
			Tools:     ev.Tools,
		}}}
	case rawevent.SubtypeContextCompacted:
		text := strings.TrimSpace(ev.PlainText())
		if text == "" {
			text = "Conversation context was compacted"
		}
		segments = []Segment{
			{Type: SegText, Text: text},
			{Type: SegSystemInfo, Info: &SessionInfo{Message: text}},
		}
	case rawevent.SubtypeError:
		text := strings.TrimSpace(ev.PlainText())
		segments = []Segment{{Type: SegSystemInfo, Info: &SessionInfo{Message: text}}}
	case rawevent.SubtypeGitOperation, rawevent.SubtypeGitError:
		text := strings.TrimSpace(ev.PlainText())
		if text == "" {
			return nil
		}
		segments = []Segment{{Type: SegText, Text: text}}
	default:
		// Unrecognized subtypes come from newer backends; ignore them.
		return nil
	}

	return &Message{
		ID:        eventID(ev, RoleSystem, index),
		Role:      RoleSystem,
		Timestamp: ev.Timestamp.Time,
		Segments:  segments,
		Meta:      Meta{SystemSubtype: ev.Subtype},
	}
}

// buildResult emits only failed run results; successful ones carry no
// displayable content.
func buildResult(ev *rawevent.Event, index int) *Message {
	if !ev.IsError {
		return nil
	}
	return &Message{
		ID:        eventID(ev, "result", index),
		Role:      RoleSystem,
		Timestamp: ev.Timestamp.Time,
		Segments:  []Segment{{Type: SegText, Text: "Error: " + ev.Result}},
		Meta: Meta{
			SystemSubtype: rawevent.SubtypeError,
			DurationMS:    ev.DurationMS,
			CostUSD:       ev.TotalCostUSD,
		},
	}
}

// eventID returns the event's own id when present, otherwise synthesizes
// a stable one from role, sorted position and timestamp.
func eventID(ev *rawevent.Event, role string, index int) string {
	if ev.ID != "" {
		return ev.ID
	}
	if ev.UUID != "" {
		return ev.UUID
	}
	return fmt.Sprintf("%s-%d-%d", role, index, ev.Timestamp.UnixMilli())
}
