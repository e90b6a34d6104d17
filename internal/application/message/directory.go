package message

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/telbozor/api/internal/domain"
)

type listingImages interface {
	Primary(ctx context.Context, listingID string) (*domain.ListingImage, error)
}

type profileGetter interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

type urlSigner interface {
	URL(ctx context.Context, key string) (string, error)
}

type lookupCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Directory resolves listing names, primary images and display names for
// conversation lists. Results are cached when a cache is configured; image
// URLs are signed on every call because they expire.
type Directory struct {
	listings listingGetter
	images   listingImages
	profiles profileGetter
	signer   urlSigner
	cache    lookupCache
	ttl      time.Duration
}

type DirectoryDeps struct {
	ListingRepo listingGetter
	ImageRepo   listingImages
	ProfileRepo profileGetter
	Signer      urlSigner
	Cache       lookupCache // optional
	CacheTTL    time.Duration
}

func NewDirectory(deps DirectoryDeps) *Directory {
	return &Directory{
		listings: deps.ListingRepo,
		images:   deps.ImageRepo,
		profiles: deps.ProfileRepo,
		signer:   deps.Signer,
		cache:    deps.Cache,
		ttl:      deps.CacheTTL,
	}
}

type cachedListing struct {
	Name     string `json:"name"`
	ImageKey string `json:"image_key,omitempty"`
}

func listingKey(id string) string { return "listing:" + id }
func profileKey(id string) string { return "profile:" + id }

func (d *Directory) Listing(ctx context.Context, listingID string) (string, *string, error) {
	entry, ok := d.cachedListing(ctx, listingID)
	if !ok {
		l, err := d.listings.Get(ctx, listingID)
		if err != nil {
			return "", nil, err
		}
		entry = cachedListing{Name: l.Name}
		img, err := d.images.Primary(ctx, listingID)
		if err != nil {
			slog.Warn("primary image lookup failed", "listing_id", listingID, "err", err)
		} else if img != nil {
			entry.ImageKey = img.ObjectKey
		}
		d.store(ctx, listingKey(listingID), entry)
	}
	if entry.ImageKey == "" {
		return entry.Name, nil, nil
	}
	url, err := d.signer.URL(ctx, entry.ImageKey)
	if err != nil {
		slog.Warn("presign primary image failed", "listing_id", listingID, "err", err)
		return entry.Name, nil, nil
	}
	return entry.Name, &url, nil
}

// DisplayName returns the profile's full name, or "" when the user has none.
func (d *Directory) DisplayName(ctx context.Context, userID string) (string, error) {
	if d.cache != nil {
		if v, ok, err := d.cache.Get(ctx, profileKey(userID)); err == nil && ok {
			return v, nil
		}
	}
	p, err := d.profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if p.FullName == nil || *p.FullName == "" {
		return "", nil
	}
	if d.cache != nil {
		if err := d.cache.Set(ctx, profileKey(userID), *p.FullName, d.ttl); err != nil {
			slog.Warn("cache display name failed", "user_id", userID, "err", err)
		}
	}
	return *p.FullName, nil
}

func (d *Directory) ForgetUser(ctx context.Context, userID string) error {
	if d.cache == nil {
		return nil
	}
	return d.cache.Delete(ctx, profileKey(userID))
}

func (d *Directory) ForgetListing(ctx context.Context, listingID string) error {
	if d.cache == nil {
		return nil
	}
	return d.cache.Delete(ctx, listingKey(listingID))
}

func (d *Directory) cachedListing(ctx context.Context, listingID string) (cachedListing, bool) {
	var entry cachedListing
	if d.cache == nil {
		return entry, false
	}
	raw, ok, err := d.cache.Get(ctx, listingKey(listingID))
	if err != nil || !ok {
		return entry, false
	}
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return entry, false
	}
	return entry, true
}

func (d *Directory) store(ctx context.Context, key string, entry cachedListing) {
	if d.cache == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, key, string(raw), d.ttl); err != nil {
		slog.Warn("cache listing failed", "key", key, "err", err)
	}
}
