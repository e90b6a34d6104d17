// Package conversation derives per-listing, per-counterpart conversations from
// a viewer's raw message history.
package conversation

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/telbozor/api/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Placeholders used when a lookup fails or returns nothing.
const (
	UnknownListing = "Unknown Phone"
	UnknownUser    = "Unknown User"
)

// lookupConcurrency bounds parallel Directory calls in Build.
const lookupConcurrency = 8

// Key identifies a conversation relative to the viewer.
type Key struct {
	ListingID     string `json:"listing_id"`
	CounterpartID string `json:"other_user_id"`
}

// KeyFor returns the conversation key of m from viewerID's side. ok is false
// when the viewer is not a party to the message.
func KeyFor(m domain.Message, viewerID string) (k Key, ok bool) {
	if !m.Involves(viewerID) {
		return Key{}, false
	}
	if viewerID == m.ReceiverID {
		return Key{ListingID: m.ListingID, CounterpartID: m.SenderID}, true
	}
	return Key{ListingID: m.ListingID, CounterpartID: m.ReceiverID}, true
}

// Thread is one grouped conversation before enrichment.
type Thread struct {
	Key
	Last   domain.Message
	Unread int
}

// Group partitions messages by Key and orders the result by the latest
// message, most recent first. Equal timestamps resolve to the message seen later.
func Group(messages []domain.Message, viewerID string) []Thread {
	index := make(map[Key]int)
	var threads []Thread
	for _, m := range messages {
		k, ok := KeyFor(m, viewerID)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(threads)
			index[k] = i
			threads = append(threads, Thread{Key: k, Last: m})
		} else if !m.CreatedAt.Before(threads[i].Last.CreatedAt) {
			threads[i].Last = m
		}
		if isUnreadFor(m, viewerID) {
			threads[i].Unread++
		}
	}
	sort.SliceStable(threads, func(a, b int) bool {
		return threads[a].Last.CreatedAt.After(threads[b].Last.CreatedAt)
	})
	return threads
}

// UnreadCount counts messages addressed to viewerID that are still unread.
func UnreadCount(messages []domain.Message, viewerID string) int {
	n := 0
	for _, m := range messages {
		if isUnreadFor(m, viewerID) {
			n++
		}
	}
	return n
}

func isUnreadFor(m domain.Message, viewerID string) bool {
	return m.ReceiverID == viewerID && !m.IsRead
}

// Directory resolves display data for conversations.
type Directory interface {
	Listing(ctx context.Context, listingID string) (name string, image *string, err error)
	DisplayName(ctx context.Context, userID string) (string, error)
}

type listingInfo struct {
	name  string
	image *string
}

// Build groups messages and enriches each conversation through dir. Every
// distinct listing and counterpart is looked up once. Lookup failures fall
// back to placeholders and never abort the build.
func Build(ctx context.Context, messages []domain.Message, viewerID string, dir Directory) []domain.Conversation {
	threads := Group(messages, viewerID)
	if len(threads) == 0 {
		return []domain.Conversation{}
	}

	var (
		mu         sync.Mutex
		listings   = make(map[string]listingInfo)
		names      = make(map[string]string)
		listingIDs []string
		userIDs    []string
	)
	for _, th := range threads {
		if _, ok := listings[th.ListingID]; !ok {
			listings[th.ListingID] = listingInfo{name: UnknownListing}
			listingIDs = append(listingIDs, th.ListingID)
		}
		if _, ok := names[th.CounterpartID]; !ok {
			names[th.CounterpartID] = UnknownUser
			userIDs = append(userIDs, th.CounterpartID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for _, listingID := range listingIDs {
		g.Go(func() error {
			name, image, err := dir.Listing(gctx, listingID)
			if err != nil {
				slog.Warn("listing lookup failed", "listing_id", listingID, "err", err)
				return nil
			}
			info := listingInfo{name: UnknownListing, image: image}
			if name != "" {
				info.name = name
			}
			mu.Lock()
			listings[listingID] = info
			mu.Unlock()
			return nil
		})
	}
	for _, userID := range userIDs {
		g.Go(func() error {
			name, err := dir.DisplayName(gctx, userID)
			if err != nil {
				slog.Warn("profile lookup failed", "user_id", userID, "err", err)
				return nil
			}
			if name == "" {
				return nil
			}
			mu.Lock()
			names[userID] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Conversation, 0, len(threads))
	for _, th := range threads {
		info := listings[th.ListingID]
		out = append(out, domain.Conversation{
			ListingID:       th.ListingID,
			ListingName:     info.name,
			ListingImage:    info.image,
			CounterpartID:   th.CounterpartID,
			CounterpartName: names[th.CounterpartID],
			LastMessage:     th.Last.Content,
			LastMessageAt:   th.Last.CreatedAt,
			UnreadCount:     th.Unread,
		})
	}
	return out
}
