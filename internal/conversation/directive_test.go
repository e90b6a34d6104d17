package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide_InsertForReceiverRaisesBadge(t *testing.T) {
	ev := ChangeEvent{Type: EventInsert, Message: msg("1", "L1", "A", "B", "hi", false, 1)}

	d, ok := Decide(ev, "B")
	require.True(t, ok)
	assert.True(t, d.Conversations)
	assert.True(t, d.Badge)
	assert.Equal(t, []Key{{ListingID: "L1", CounterpartID: "A"}}, d.Threads)

	d, ok = Decide(ev, "A")
	require.True(t, ok)
	assert.True(t, d.Conversations)
	assert.False(t, d.Badge)
}

func TestDecide_UninvolvedViewer(t *testing.T) {
	ev := ChangeEvent{Type: EventInsert, Message: msg("1", "L1", "A", "B", "hi", false, 1)}
	_, ok := Decide(ev, "C")
	assert.False(t, ok)
}

func TestDecide_UpdateReadFlip(t *testing.T) {
	prev := msg("1", "L1", "A", "B", "hi", false, 1)
	cur := prev
	cur.IsRead = true
	d, ok := Decide(ChangeEvent{Type: EventUpdate, Message: cur, Previous: &prev}, "B")
	require.True(t, ok)
	assert.True(t, d.Badge)
}

func TestDecide_UpdateContentOnly(t *testing.T) {
	prev := msg("1", "L1", "A", "B", "hi", false, 1)
	cur := prev
	cur.Content = "hello"
	d, ok := Decide(ChangeEvent{Type: EventUpdate, Message: cur, Previous: &prev}, "B")
	require.True(t, ok)
	assert.True(t, d.Conversations)
	assert.False(t, d.Badge)
}

func TestDecide_DeleteUnread(t *testing.T) {
	m := msg("1", "L1", "A", "B", "hi", false, 1)
	d, ok := Decide(ChangeEvent{Type: EventDelete, Message: m}, "B")
	require.True(t, ok)
	assert.True(t, d.Badge)

	m.IsRead = true
	d, _ = Decide(ChangeEvent{Type: EventDelete, Message: m}, "B")
	assert.False(t, d.Badge)
}

func TestDecide_UnknownType(t *testing.T) {
	_, ok := Decide(ChangeEvent{Type: "truncate", Message: msg("1", "L1", "A", "B", "", false, 1)}, "A")
	assert.False(t, ok)
}

func TestParticipants(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, Participants(ChangeEvent{Message: msg("1", "L1", "A", "B", "", false, 1)}))
	assert.Equal(t, []string{"A"}, Participants(ChangeEvent{Message: msg("1", "L1", "A", "A", "", false, 1)}))
}

func TestDirectiveMerge(t *testing.T) {
	k1 := Key{ListingID: "L1", CounterpartID: "A"}
	k2 := Key{ListingID: "L2", CounterpartID: "C"}
	a := Directive{ViewerID: "B", Conversations: true, Threads: []Key{k1}}
	b := Directive{ViewerID: "B", Badge: true, Threads: []Key{k1, k2}}
	m := a.Merge(b)
	assert.True(t, m.Conversations)
	assert.True(t, m.Badge)
	assert.Equal(t, []Key{k1, k2}, m.Threads)
}
