// Package rawevent models one entry in an agent session log. Logs are
// append-only and versionless; events from different agent backends do not
// share a consistent shape, so every field here is best-effort.
package rawevent

import (
	"encoding/json"
	"time"
)

// Event types observed across agent backends.
const (
	TypeUser       = "user"
	TypeAssistant  = "assistant"
	TypeSystem     = "system"
	TypeToolUse    = "tool_use"
	TypeToolResult = "tool_result"
	TypeResult     = "result"
)

// System event subtypes this viewer recognizes. Anything else is ignored.
const (
	SubtypeInit             = "init"
	SubtypeContextCompacted = "context_compacted"
	SubtypeError            = "error"
	SubtypeGitOperation     = "git_operation"
	SubtypeGitError         = "git_error"
)

// Event is a single raw session log entry.
type Event struct {
	Type            string          `json:"type"`
	Subtype         string          `json:"subtype,omitempty"`
	Role            string          `json:"role,omitempty"`
	ID              string          `json:"id,omitempty"`
	UUID            string          `json:"uuid,omitempty"`
	ParentToolUseID string          `json:"parent_tool_use_id,omitempty"`
	Timestamp       Time            `json:"timestamp"`
	Content         json.RawMessage `json:"content,omitempty"`
	Text            string          `json:"text,omitempty"`
	Message         *Inner          `json:"message,omitempty"`
	Model           string          `json:"model,omitempty"`
	Agent           string          `json:"agent,omitempty"`
	SessionID       string          `json:"session_id,omitempty"`
	CWD             string          `json:"cwd,omitempty"`
	Tools           []string        `json:"tools,omitempty"`

	// Result-event fields.
	IsError      bool    `json:"is_error,omitempty"`
	Result       string  `json:"result,omitempty"`
	DurationMS   int64   `json:"duration_ms,omitempty"`
	TotalCostUSD float64 `json:"total_cost_usd,omitempty"`

	Usage *Usage `json:"usage,omitempty"`
}

// Inner is the nested message envelope some backends wrap content in.
type Inner struct {
	Role    string          `json:"role,omitempty"`
	Model   string          `json:"model,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Usage   *Usage          `json:"usage,omitempty"`
}

// Usage carries token accounting when the backend reports it.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

// RawContent returns the content payload, preferring the top-level field
// over the nested message envelope.
func (e *Event) RawContent() json.RawMessage {
	if len(e.Content) > 0 {
		return e.Content
	}
	if e.Message != nil {
		return e.Message.Content
	}
	return nil
}

// EffectiveModel returns the model name, wherever the backend put it.
func (e *Event) EffectiveModel() string {
	if e.Message != nil && e.Message.Model != "" {
		return e.Message.Model
	}
	return e.Model
}

// EffectiveUsage returns token usage, wherever the backend put it.
func (e *Event) EffectiveUsage() *Usage {
	if e.Message != nil && e.Message.Usage != nil {
		return e.Message.Usage
	}
	return e.Usage
}

// Time is a timestamp that tolerates the formats different backends emit.
// A value that parses as none of them decodes to the zero time rather than
// failing the whole event.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON never returns an error; unparseable input yields zero time.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Some backends write epoch milliseconds.
		var ms int64
		if err := json.Unmarshal(data, &ms); err == nil && ms > 0 {
			t.Time = time.UnixMilli(ms).UTC()
		}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// MarshalJSON writes RFC3339Nano, the format the gateway emits.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
