package rawevent

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeContent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind ContentKind
		text string
	}{
		{
			name: "plain string",
			raw:  `"hello world"`,
			kind: KindString,
			text: "hello world",
		},
		{
			name: "typed blocks",
			raw:  `[{"type":"text","text":"first"},{"type":"text","text":"second"}]`,
			kind: KindBlocks,
			text: "first\nsecond",
		},
		{
			name: "blocks with non-text entries",
			raw:  `[{"type":"text","text":"hi"},{"type":"tool_use","id":"t1","name":"Bash"}]`,
			kind: KindBlocks,
			text: "hi",
		},
		{
			name: "untyped parts",
			raw:  `[{"text":"part one"},{"text":"part two"}]`,
			kind: KindParts,
			text: "part one\npart two",
		},
		{
			name: "empty",
			raw:  ``,
			kind: KindEmpty,
			text: "",
		},
		{
			name: "unrecognized object",
			raw:  `{"weird":"shape"}`,
			kind: KindEmpty,
			text: "",
		},
		{
			name: "empty array",
			raw:  `[]`,
			kind: KindEmpty,
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DecodeContent(json.RawMessage(tt.raw))
			if c.Kind != tt.kind {
				t.Errorf("kind = %d, want %d", c.Kind, tt.kind)
			}
			if got := c.PlainText(); got != tt.text {
				t.Errorf("PlainText() = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestEventPlainTextPrefersTopLevelContent(t *testing.T) {
	ev := Event{
		Content: json.RawMessage(`"outer"`),
		Message: &Inner{Content: json.RawMessage(`"inner"`)},
	}
	if got := ev.PlainText(); got != "outer" {
		t.Errorf("PlainText() = %q, want %q", got, "outer")
	}

	ev.Content = nil
	if got := ev.PlainText(); got != "inner" {
		t.Errorf("PlainText() = %q, want %q", got, "inner")
	}
}

func TestBlockResultText(t *testing.T) {
	var b Block
	if err := json.Unmarshal([]byte(`{"type":"tool_result","content":"file.txt"}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := b.ResultText(); got != "file.txt" {
		t.Errorf("ResultText() = %q, want %q", got, "file.txt")
	}

	// Structured result content serializes to JSON.
	if err := json.Unmarshal([]byte(`{"type":"tool_result","content":[{"type":"text","text":"ok"}]}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := b.ResultText()
	if got == "" || got[0] != '[' {
		t.Errorf("ResultText() = %q, want serialized JSON array", got)
	}
}

func TestBlockThinkingText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"thinking field", `{"type":"thinking","thinking":"pondering"}`, "pondering"},
		{"content fallback", `{"type":"thinking","content":"from content"}`, "from content"},
		{"text fallback", `{"type":"thinking","text":"from text"}`, "from text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Block
			if err := json.Unmarshal([]byte(tt.raw), &b); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := b.ThinkingText(); got != tt.want {
				t.Errorf("ThinkingText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasToolResult(t *testing.T) {
	ev := Event{
		Type:    TypeUser,
		Content: json.RawMessage(`[{"type":"tool_result","tool_use_id":"t1","content":"done"}]`),
	}
	if !ev.HasToolResult() {
		t.Error("expected HasToolResult true")
	}

	ev.Content = json.RawMessage(`[{"type":"text","text":"just text"}]`)
	if ev.HasToolResult() {
		t.Error("expected HasToolResult false")
	}
}

func TestTimeUnmarshalLenient(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		zero bool
	}{
		{"rfc3339", `"2026-08-01T12:00:00Z"`, false},
		{"rfc3339 nano", `"2026-08-01T12:00:00.123456Z"`, false},
		{"epoch millis", `1754049600000`, false},
		{"garbage string", `"not a time"`, true},
		{"null", `null`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Time
			if err := json.Unmarshal([]byte(tt.raw), &ts); err != nil {
				t.Fatalf("unmarshal should never fail, got %v", err)
			}
			if ts.IsZero() != tt.zero {
				t.Errorf("IsZero() = %v, want %v", ts.IsZero(), tt.zero)
			}
		})
	}
}

func TestEffectiveModelAndUsage(t *testing.T) {
	ev := Event{
		Model: "outer-model",
		Message: &Inner{
			Model: "inner-model",
			Usage: &Usage{InputTokens: 10, OutputTokens: 20},
		},
	}
	if got := ev.EffectiveModel(); got != "inner-model" {
		t.Errorf("EffectiveModel() = %q, want inner-model", got)
	}
	if u := ev.EffectiveUsage(); u == nil || u.OutputTokens != 20 {
		t.Errorf("EffectiveUsage() = %+v, want output 20", u)
	}

	ev.Message = nil
	if got := ev.EffectiveModel(); got != "outer-model" {
		t.Errorf("EffectiveModel() = %q, want outer-model", got)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	orig := Time{Time: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Time
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(orig.Time) {
		t.Errorf("round trip changed time: %v != %v", back, orig)
	}
}
