package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, text string) Message {
	return Message{
		ID:       id,
		Role:     RoleUser,
		Segments: []Segment{{Type: SegText, Text: text}},
	}
}

func TestSynchronizerAppend(t *testing.T) {
	var s Synchronizer

	first := []Message{msg("a", "one"), msg("b", "two")}
	d := s.Apply(first)
	require.True(t, d.Append, "first apply over empty snapshot is an append")
	require.Len(t, d.Suffix, 2)

	// Strictly-appended reload: only the new suffix comes back.
	second := append(append([]Message{}, first...), msg("c", "three"))
	d = s.Apply(second)
	require.True(t, d.Append)
	require.Len(t, d.Suffix, 1)
	assert.Equal(t, "c", d.Suffix[0].ID)
}

func TestSynchronizerIdenticalReloadIsEmptyAppend(t *testing.T) {
	var s Synchronizer
	msgs := []Message{msg("a", "one")}
	s.Apply(msgs)

	d := s.Apply(msgs)
	require.True(t, d.Append)
	assert.Empty(t, d.Suffix, "identical reload re-renders nothing")
}

func TestSynchronizerReplaceOnChangedPrefix(t *testing.T) {
	var s Synchronizer
	s.Apply([]Message{msg("a", "one"), msg("b", "two")})

	// Same ids, but an earlier message changed content in place.
	d := s.Apply([]Message{msg("a", "one EDITED"), msg("b", "two"), msg("c", "three")})
	require.False(t, d.Append, "in-place edit forces full replace")
	require.Len(t, d.All, 3)
}

func TestSynchronizerReplaceOnShrink(t *testing.T) {
	var s Synchronizer
	s.Apply([]Message{msg("a", "one"), msg("b", "two")})

	d := s.Apply([]Message{msg("a", "one")})
	require.False(t, d.Append)
	require.Len(t, d.All, 1)
}

func TestSynchronizerReset(t *testing.T) {
	var s Synchronizer
	s.Apply([]Message{msg("a", "one")})
	s.Reset()
	assert.Zero(t, s.Len())

	d := s.Apply([]Message{msg("z", "other session")})
	require.True(t, d.Append)
	require.Len(t, d.Suffix, 1)
}

func TestSplicePrefix(t *testing.T) {
	full := []Message{msg("a", "1"), msg("b", "2"), msg("c", "3"), msg("d", "4")}
	displayed := []Message{msg("c", "3"), msg("d", "4")}

	out := SplicePrefix(full, displayed)
	require.Len(t, out, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, id, out[i].ID)
	}

	// Tail no longer present in the full build: full build wins.
	out = SplicePrefix(full, []Message{msg("zz", "gone")})
	require.Len(t, out, 4)

	// Empty displayed tail.
	out = SplicePrefix(full, nil)
	require.Len(t, out, 4)
}

func TestSynchronizerLongAppendProperty(t *testing.T) {
	// Repeated strictly-appended reloads always produce pure appends.
	var s Synchronizer
	var history []Message
	for round := 0; round < 20; round++ {
		history = append(history, msg(fmt.Sprintf("m%d", round), fmt.Sprintf("text %d", round)))
		next := make([]Message, len(history))
		copy(next, history)
		d := s.Apply(next)
		require.True(t, d.Append, "round %d", round)
		require.Len(t, d.Suffix, 1)
	}
}
