// Package source defines the data-source contract the viewer consumes:
// session enumeration, the two raw streams a conversation is rebuilt from,
// and an out-of-band notification that new output is available. Transport
// details stay behind the implementations.
package source

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/marcus/agentview/internal/rawevent"
)

// Session is one discoverable agent session.
type Session struct {
	ID           string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	IsActive     bool
}

// PromptRecord is one already-summarized prior user prompt, the first of
// the two streams a reload merges.
type PromptRecord struct {
	MessageType string        `json:"message_type"`
	Content     string        `json:"content"`
	Timestamp   rawevent.Time `json:"timestamp"`
}

// AsEvent converts the prompt into a raw user event so both streams merge
// into one timestamp-sorted sequence.
func (p PromptRecord) AsEvent() rawevent.Event {
	return rawevent.Event{
		Type:      rawevent.TypeUser,
		Role:      p.MessageType,
		Timestamp: p.Timestamp,
		Text:      p.Content,
	}
}

// Notice signals that new output is available for a session.
type Notice struct {
	SessionID string
}

// Source is a backend holding agent sessions. Both fetches may fail; the
// caller owns retry policy (there is none — a failed reload surfaces once).
type Source interface {
	// Sessions lists sessions, newest first.
	Sessions(ctx context.Context) ([]Session, error)
	// Conversation returns the summarized prior user prompts.
	Conversation(ctx context.Context, sessionID string) ([]PromptRecord, error)
	// Events returns the full mixed-type event log.
	Events(ctx context.Context, sessionID string) ([]rawevent.Event, error)
	// Watch emits a Notice when a session gains new output. The closer
	// tears the subscription down.
	Watch(sessionID string) (<-chan Notice, io.Closer, error)
}

// MergeStreams folds prompt records into the event stream. Ordering is
// finalized by the builder's stable timestamp sort.
func MergeStreams(prompts []PromptRecord, events []rawevent.Event) []rawevent.Event {
	merged := make([]rawevent.Event, 0, len(prompts)+len(events))
	for _, p := range prompts {
		merged = append(merged, p.AsEvent())
	}
	merged = append(merged, events...)
	return merged
}

// DecodeEvents decodes a JSON array of raw events element-wise, so one
// malformed entry degrades to omission instead of failing the whole
// stream.
func DecodeEvents(raw json.RawMessage) []rawevent.Event {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil
	}
	events := make([]rawevent.Event, 0, len(elements))
	for _, el := range elements {
		var ev rawevent.Event
		if err := json.Unmarshal(el, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events
}
