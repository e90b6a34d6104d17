// Package matcher decides which saved search requests a newly created listing
// satisfies. It performs no I/O.
package matcher

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/pkg/id"
)

// NotificationTitle is the fixed title of a match notification.
const NotificationTitle = "Yangi telefon topildi!"

// Match returns the requests that the listing satisfies, in input order.
// A listing without an owner matches nothing. Inactive requests are skipped.
func Match(listing domain.Listing, requests []domain.SearchRequest) []domain.SearchRequest {
	if listing.OwnerID == "" {
		return nil
	}
	var matched []domain.SearchRequest
	for _, req := range requests {
		if !req.IsActive {
			continue
		}
		if safeMatches(listing, req) {
			matched = append(matched, req)
		}
	}
	return matched
}

// evaluate is the predicate Match applies to each request.
var evaluate = Matches

// safeMatches isolates one request so that a bad record cannot stop the batch.
func safeMatches(listing domain.Listing, req domain.SearchRequest) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("request evaluation panicked", "request_id", req.RequestID, "listing_id", listing.ListingID, "panic", r)
			ok = false
		}
	}()
	return evaluate(listing, req)
}

// Matches applies every predicate in order and stops at the first failure.
func Matches(listing domain.Listing, req domain.SearchRequest) bool {
	if req.UserID == listing.OwnerID {
		return false
	}
	if !keywordsMatch(listing, req.Keywords) {
		return false
	}
	if req.BrandID != nil && (listing.BrandID == nil || *listing.BrandID != *req.BrandID) {
		return false
	}
	if req.City != nil && listing.City != *req.City {
		return false
	}
	if req.Storage != nil && listing.Storage != *req.Storage {
		return false
	}
	if req.Condition != nil && listing.Condition != *req.Condition {
		return false
	}
	if req.MinPrice != nil && listing.Price < *req.MinPrice {
		return false
	}
	if req.MaxPrice != nil && listing.Price > *req.MaxPrice {
		return false
	}
	return true
}

// keywordsMatch is satisfied by any token that occurs in the name or the
// description, or that itself contains the first word of the name.
func keywordsMatch(listing domain.Listing, keywords string) bool {
	name := strings.ToLower(listing.Name)
	desc := ""
	if listing.Description != nil {
		desc = strings.ToLower(*listing.Description)
	}
	firstWord := ""
	if words := strings.Fields(name); len(words) > 0 {
		firstWord = words[0]
	}
	for _, token := range strings.Fields(strings.ToLower(keywords)) {
		if strings.Contains(name, token) || strings.Contains(desc, token) {
			return true
		}
		if firstWord != "" && strings.Contains(token, firstWord) {
			return true
		}
	}
	return false
}

// Notifications builds one unread notification per matched request.
func Notifications(listing domain.Listing, matched []domain.SearchRequest, now time.Time) []domain.Notification {
	out := make([]domain.Notification, 0, len(matched))
	for _, req := range matched {
		listingID := listing.ListingID
		requestID := req.RequestID
		out = append(out, domain.Notification{
			NotificationID: id.At(now),
			UserID:         req.UserID,
			ListingID:      &listingID,
			RequestID:      &requestID,
			Title:          NotificationTitle,
			Message:        fmt.Sprintf("\"%s\" so'rovingizga mos telefon e'lon qilindi: %s", req.Keywords, listing.Name),
			CreatedAt:      now,
		})
	}
	return out
}
