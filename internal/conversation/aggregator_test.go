package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telbozor/api/internal/domain"
)

func at(sec int) time.Time { return time.Unix(int64(sec), 0).UTC() }

func msg(id, listing, from, to, content string, read bool, t int) domain.Message {
	return domain.Message{
		MessageID: id, ListingID: listing, SenderID: from, ReceiverID: to,
		Content: content, IsRead: read, CreatedAt: at(t),
	}
}

// fakeDirectory counts lookups and fails for configured IDs.
type fakeDirectory struct {
	mu           sync.Mutex
	listings     map[string]string
	images       map[string]string
	names        map[string]string
	failListings map[string]bool
	listingCalls map[string]int
	nameCalls    map[string]int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		listings:     map[string]string{"L1": "iPhone 13", "L2": "Galaxy S21"},
		images:       map[string]string{"L1": "https://img/l1.jpg"},
		names:        map[string]string{"B": "Bobur", "C": "Charos"},
		failListings: map[string]bool{},
		listingCalls: map[string]int{},
		nameCalls:    map[string]int{},
	}
}

func (f *fakeDirectory) Listing(_ context.Context, id string) (string, *string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listingCalls[id]++
	if f.failListings[id] {
		return "", nil, errors.New("listing store unavailable")
	}
	var img *string
	if u, ok := f.images[id]; ok {
		img = &u
	}
	return f.listings[id], img, nil
}

func (f *fakeDirectory) DisplayName(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nameCalls[id]++
	n, ok := f.names[id]
	if !ok {
		return "", errors.New("profile not found")
	}
	return n, nil
}

func TestBuild_Scenario(t *testing.T) {
	messages := []domain.Message{
		msg("1", "L1", "A", "B", "hi", false, 10),
		msg("2", "L1", "B", "A", "hey", false, 20),
	}
	convs := Build(context.Background(), messages, "A", newFakeDirectory())
	require.Len(t, convs, 1)
	c := convs[0]
	assert.Equal(t, "L1", c.ListingID)
	assert.Equal(t, "B", c.CounterpartID)
	assert.Equal(t, "Bobur", c.CounterpartName)
	assert.Equal(t, "iPhone 13", c.ListingName)
	require.NotNil(t, c.ListingImage)
	assert.Equal(t, "https://img/l1.jpg", *c.ListingImage)
	assert.Equal(t, "hey", c.LastMessage)
	assert.Equal(t, at(20), c.LastMessageAt)
	assert.Equal(t, 1, c.UnreadCount)
}

func TestGroup_StrictKeying(t *testing.T) {
	messages := []domain.Message{
		msg("1", "L1", "A", "B", "to B about L1", true, 1),
		msg("2", "L1", "A", "C", "to C about L1", true, 2),
		msg("3", "L2", "B", "A", "from B about L2", true, 3),
	}
	threads := Group(messages, "A")
	require.Len(t, threads, 3)
	keys := []Key{threads[0].Key, threads[1].Key, threads[2].Key}
	assert.ElementsMatch(t, []Key{
		{ListingID: "L1", CounterpartID: "B"},
		{ListingID: "L1", CounterpartID: "C"},
		{ListingID: "L2", CounterpartID: "B"},
	}, keys)
}

func TestGroup_OrderedByLatestDescending(t *testing.T) {
	messages := []domain.Message{
		msg("1", "L1", "A", "B", "old", true, 5),
		msg("2", "L2", "C", "A", "newest", true, 50),
		msg("3", "L1", "B", "A", "mid", true, 30),
	}
	threads := Group(messages, "A")
	require.Len(t, threads, 2)
	assert.Equal(t, "L2", threads[0].ListingID)
	assert.Equal(t, "L1", threads[1].ListingID)
	assert.Equal(t, "mid", threads[1].Last.Content)
}

func TestGroup_InputOrderIndependentForDistinctTimes(t *testing.T) {
	messages := []domain.Message{
		msg("2", "L1", "B", "A", "later", true, 20),
		msg("1", "L1", "A", "B", "earlier", true, 10),
	}
	threads := Group(messages, "A")
	require.Len(t, threads, 1)
	assert.Equal(t, "later", threads[0].Last.Content)
}

func TestGroup_EqualTimestamps_LastArrivalWins(t *testing.T) {
	messages := []domain.Message{
		msg("1", "L1", "A", "B", "first", true, 10),
		msg("2", "L1", "B", "A", "second", true, 10),
	}
	threads := Group(messages, "A")
	require.Len(t, threads, 1)
	assert.Equal(t, "second", threads[0].Last.Content)
}

func TestGroup_IgnoresMessagesNotInvolvingViewer(t *testing.T) {
	messages := []domain.Message{msg("1", "L1", "B", "C", "not mine", false, 1)}
	assert.Empty(t, Group(messages, "A"))
}

func TestUnreadCount_OnlyReceivedUnread(t *testing.T) {
	messages := []domain.Message{
		msg("1", "L1", "A", "B", "sent unread", false, 1),
		msg("2", "L1", "B", "A", "received unread", false, 2),
		msg("3", "L2", "C", "A", "received unread 2", false, 3),
		msg("4", "L2", "C", "A", "received read", true, 4),
	}
	assert.Equal(t, 2, UnreadCount(messages, "A"))
	assert.Equal(t, 1, UnreadCount(messages, "B"))
	assert.Equal(t, 0, UnreadCount(messages, "C"))
}

func TestBuild_MarkReadDecrementsUnread(t *testing.T) {
	messages := []domain.Message{
		msg("1", "L1", "B", "A", "one", false, 1),
		msg("2", "L1", "B", "A", "two", false, 2),
	}
	before := Build(context.Background(), messages, "A", newFakeDirectory())
	require.Len(t, before, 1)
	assert.Equal(t, 2, before[0].UnreadCount)

	messages[0].IsRead = true
	after := Build(context.Background(), messages, "A", newFakeDirectory())
	assert.Equal(t, 1, after[0].UnreadCount)
	assert.Equal(t, 1, UnreadCount(messages, "A"))
}

func TestBuild_DeleteFallsBackOrRemoves(t *testing.T) {
	messages := []domain.Message{
		msg("1", "L1", "A", "B", "older", true, 10),
		msg("2", "L1", "B", "A", "newer", true, 20),
		msg("3", "L2", "C", "A", "only", true, 30),
	}
	withoutNewest := []domain.Message{messages[0], messages[2]}
	convs := Build(context.Background(), withoutNewest, "A", newFakeDirectory())
	require.Len(t, convs, 2)
	assert.Equal(t, "older", convs[1].LastMessage)
	assert.Equal(t, at(10), convs[1].LastMessageAt)

	withoutOnly := messages[:2]
	convs = Build(context.Background(), withoutOnly, "A", newFakeDirectory())
	require.Len(t, convs, 1)
	assert.Equal(t, "L1", convs[0].ListingID)
}

func TestBuild_EditKeepsOrdering(t *testing.T) {
	messages := []domain.Message{
		msg("1", "L1", "A", "B", "first thread", true, 10),
		msg("2", "L2", "A", "C", "second thread", true, 20),
	}
	messages[0].Content = "first thread (edited)"
	convs := Build(context.Background(), messages, "A", newFakeDirectory())
	require.Len(t, convs, 2)
	assert.Equal(t, "L2", convs[0].ListingID)
	assert.Equal(t, "first thread (edited)", convs[1].LastMessage)
	assert.Equal(t, at(10), convs[1].LastMessageAt)
}

func TestBuild_LookupFailuresUsePlaceholders(t *testing.T) {
	dir := newFakeDirectory()
	dir.failListings["L2"] = true
	messages := []domain.Message{msg("1", "L2", "Z", "A", "yo", false, 1)}
	convs := Build(context.Background(), messages, "A", dir)
	require.Len(t, convs, 1)
	assert.Equal(t, UnknownListing, convs[0].ListingName)
	assert.Nil(t, convs[0].ListingImage)
	assert.Equal(t, UnknownUser, convs[0].CounterpartName)
}

func TestBuild_EmptyNameUsesPlaceholder(t *testing.T) {
	dir := newFakeDirectory()
	dir.listings["L3"] = ""
	convs := Build(context.Background(), []domain.Message{msg("1", "L3", "B", "A", "x", true, 1)}, "A", dir)
	require.Len(t, convs, 1)
	assert.Equal(t, UnknownListing, convs[0].ListingName)
}

func TestBuild_LooksUpEachKeyOnce(t *testing.T) {
	dir := newFakeDirectory()
	messages := []domain.Message{
		msg("1", "L1", "A", "B", "a", true, 1),
		msg("2", "L1", "B", "A", "b", true, 2),
		msg("3", "L2", "B", "A", "c", true, 3),
		msg("4", "L1", "C", "A", "d", true, 4),
	}
	convs := Build(context.Background(), messages, "A", dir)
	assert.Len(t, convs, 3)
	assert.Equal(t, map[string]int{"L1": 1, "L2": 1}, dir.listingCalls)
	assert.Equal(t, map[string]int{"B": 1, "C": 1}, dir.nameCalls)
}

func TestBuild_NoMessages(t *testing.T) {
	convs := Build(context.Background(), nil, "A", newFakeDirectory())
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestKeyFor(t *testing.T) {
	m := msg("m1", "L1", "A", "B", "salom", false, 1)

	k, ok := KeyFor(m, "A")
	require.True(t, ok)
	assert.Equal(t, Key{ListingID: "L1", CounterpartID: "B"}, k)

	k, ok = KeyFor(m, "B")
	require.True(t, ok)
	assert.Equal(t, Key{ListingID: "L1", CounterpartID: "A"}, k)

	_, ok = KeyFor(m, "C")
	assert.False(t, ok)
}
