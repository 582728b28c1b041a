package rawevent

import (
	"encoding/json"
	"strings"
)

// ContentKind tags the decoded shape of an event's content field.
type ContentKind int

const (
	// KindEmpty means the content was absent or an unrecognized shape.
	KindEmpty ContentKind = iota
	// KindString is plain string content.
	KindString
	// KindBlocks is an ordered array of typed content blocks.
	KindBlocks
	// KindParts is an array of untyped parts carrying text fields.
	KindParts
)

// Content is the decoded form of a raw content payload. Unrecognized shapes
// decode to KindEmpty instead of failing; heterogeneous upstreams are
// expected, not errors.
type Content struct {
	Kind   ContentKind
	Text   string
	Blocks []Block
	Parts  []Part
}

// Block is one typed content block (text, thinking, tool_use, tool_result).
type Block struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Content   any             `json:"content,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// Part is an untyped content fragment used by some backends.
type Part struct {
	Text string `json:"text,omitempty"`
}

// DecodeContent sniffs a raw content payload into its closed set of shapes:
// typed block array, plain string, then untyped part array.
func DecodeContent(raw json.RawMessage) Content {
	if len(raw) == 0 {
		return Content{Kind: KindEmpty}
	}

	var blocks []Block
	if err := json.Unmarshal(raw, &blocks); err == nil {
		for _, b := range blocks {
			if b.Type != "" {
				return Content{Kind: KindBlocks, Blocks: blocks}
			}
		}
		// An array without typed entries may still be a parts array.
		var parts []Part
		if err := json.Unmarshal(raw, &parts); err == nil {
			for _, p := range parts {
				if p.Text != "" {
					return Content{Kind: KindParts, Parts: parts}
				}
			}
		}
		return Content{Kind: KindEmpty}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Content{Kind: KindString, Text: s}
	}

	return Content{Kind: KindEmpty}
}

// DecodedContent decodes the event's content payload.
func (e *Event) DecodedContent() Content {
	return DecodeContent(e.RawContent())
}

// ContentBlocks returns the typed blocks of the event's content, or nil if
// the content is not a block array.
func (e *Event) ContentBlocks() []Block {
	c := e.DecodedContent()
	if c.Kind != KindBlocks {
		return nil
	}
	return c.Blocks
}

// PlainText extracts a best-effort plain-text transcript of the event's
// content. It never fails; content of no recognized shape yields "".
func (e *Event) PlainText() string {
	return DecodeContent(e.RawContent()).PlainText()
}

// PlainText flattens the content to displayable text: text blocks joined by
// newline, a plain string as-is, or part texts joined by newline.
func (c Content) PlainText() string {
	switch c.Kind {
	case KindString:
		return c.Text
	case KindBlocks:
		texts := make([]string, 0, len(c.Blocks))
		for _, b := range c.Blocks {
			if b.Type == "text" && b.Text != "" {
				texts = append(texts, b.Text)
			}
		}
		return strings.Join(texts, "\n")
	case KindParts:
		texts := make([]string, 0, len(c.Parts))
		for _, p := range c.Parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		return strings.Join(texts, "\n")
	}
	return ""
}

// ResultText flattens a tool_result block's content to a string. Structured
// payloads are serialized losslessly to JSON.
func (b Block) ResultText() string {
	if s, ok := b.Content.(string); ok {
		return s
	}
	if b.Content != nil {
		if data, err := json.Marshal(b.Content); err == nil {
			return string(data)
		}
	}
	return ""
}

// ThinkingText returns the thinking payload, falling back through the
// fields different backends use for it.
func (b Block) ThinkingText() string {
	if b.Thinking != "" {
		return b.Thinking
	}
	if s, ok := b.Content.(string); ok && s != "" {
		return s
	}
	return b.Text
}

// HasToolResult reports whether any block in the event's content is a
// tool_result. Such events fold into the referenced tool call and are never
// displayed standalone.
func (e *Event) HasToolResult() bool {
	for _, b := range e.ContentBlocks() {
		if b.Type == TypeToolResult {
			return true
		}
	}
	return false
}
