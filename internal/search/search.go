// Package search provides a bounded literal-substring index over a
// reconstructed conversation, with cursor navigation over the matches.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/agentview/internal/conversation"
)

// Options bound how far a scan goes.
type Options struct {
	// MaxMessages is the number of messages scanned, from the front.
	MaxMessages int
	// MaxMatched caps how many matching messages accumulate.
	MaxMatched int
	// MaxPerMessage caps match snippets recorded per message.
	MaxPerMessage int
	// ContextRadius is the snippet window on each side of a match, in runes.
	ContextRadius int
}

// DefaultOptions returns the standard scan bounds.
func DefaultOptions() Options {
	return Options{
		MaxMessages:   200,
		MaxMatched:    50,
		MaxPerMessage: 5,
		ContextRadius: 20,
	}
}

// Match is one hit inside a message segment. Start and End index the
// segment's stripped text.
type Match struct {
	SegmentIndex int
	Snippet      string
	Start        int
	End          int
}

// Result is all hits within one message.
type Result struct {
	MessageIndex int
	Matches      []Match
}

// Run scans the messages in order for the literal query, case-insensitive,
// over text segments only. Tool output may carry ANSI sequences; they are
// stripped before matching so escape bytes never split a hit.
func Run(messages []conversation.Message, query string, opts Options) []Result {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	var results []Result
	limit := len(messages)
	if opts.MaxMessages > 0 && limit > opts.MaxMessages {
		limit = opts.MaxMessages
	}

	for mi := 0; mi < limit; mi++ {
		if opts.MaxMatched > 0 && len(results) >= opts.MaxMatched {
			break
		}
		var matches []Match
		for si, seg := range messages[mi].Segments {
			if seg.Type != conversation.SegText {
				continue
			}
			text := ansi.Strip(seg.Text)
			folded, offsets := foldOffsets(text)

			offset := 0
			for len(matches) < opts.MaxPerMessage {
				idx := strings.Index(folded[offset:], needle)
				if idx < 0 {
					break
				}
				// Map folded positions back to the original text; folding
				// can change a rune's encoded length, the indexes are not
				// interchangeable.
				fStart := offset + idx
				fEnd := fStart + len(needle)
				start := offsets[fStart]
				end := offsets[fEnd]
				matches = append(matches, Match{
					SegmentIndex: si,
					Snippet:      snippet(text, start, end, opts.ContextRadius),
					Start:        start,
					End:          end,
				})
				offset = fEnd
			}
			if len(matches) >= opts.MaxPerMessage {
				break
			}
		}
		if len(matches) > 0 {
			results = append(results, Result{MessageIndex: mi, Matches: matches})
		}
	}
	return results
}

// foldOffsets lowercases text rune by rune and records, for every byte of
// the folded form plus one past the end, the original byte offset of the
// rune it came from. Some runes change encoded length under folding
// (U+1E9E to U+00DF, U+212A to "k"), so indexes into the folded form must
// go through this map before slicing the original.
func foldOffsets(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		lr := unicode.ToLower(r)
		for n := utf8.RuneLen(lr); n > 0; n-- {
			offsets = append(offsets, i)
		}
		b.WriteRune(lr)
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// snippet returns the match with up to radius runes of context either side.
func snippet(text string, start, end, radius int) string {
	runes := []rune(text)
	rStart := len([]rune(text[:start]))
	rEnd := rStart + len([]rune(text[start:end]))

	from := rStart - radius
	if from < 0 {
		from = 0
	}
	to := rEnd + radius
	if to > len(runes) {
		to = len(runes)
	}
	return string(runes[from:to])
}

// Cursor walks a result list forward and backward with wraparound.
type Cursor struct {
	results []Result
	pos     int
}

// NewCursor returns a cursor positioned on the first result.
func NewCursor(results []Result) *Cursor {
	return &Cursor{results: results}
}

// Len returns the number of matched messages.
func (c *Cursor) Len() int { return len(c.results) }

// Pos returns the 0-based cursor position.
func (c *Cursor) Pos() int { return c.pos }

// Current returns the result under the cursor.
func (c *Cursor) Current() (Result, bool) {
	if len(c.results) == 0 {
		return Result{}, false
	}
	return c.results[c.pos], true
}

// Next advances with wraparound and returns the new current result.
func (c *Cursor) Next() (Result, bool) {
	if len(c.results) == 0 {
		return Result{}, false
	}
	c.pos = (c.pos + 1) % len(c.results)
	return c.results[c.pos], true
}

// Prev steps back with wraparound and returns the new current result.
func (c *Cursor) Prev() (Result, bool) {
	if len(c.results) == 0 {
		return Result{}, false
	}
	c.pos = (c.pos - 1 + len(c.results)) % len(c.results)
	return c.results[c.pos], true
}
