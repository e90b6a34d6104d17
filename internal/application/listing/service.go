package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/pkg/id"
	"github.com/telbozor/api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldName          = "name"
	fieldDescription   = "description"
	fieldPrice         = "price"
	fieldStorage       = "storage"
	fieldCondition     = "condition"
	fieldCity          = "city"
	fieldBrandID       = "brand_id"
	fieldBatteryHealth = "battery_health"
	fieldUpdatedAt     = "updated_at"
)

type Service interface {
	Create(ctx context.Context, ownerID string, req domain.CreateListingRequest) (*domain.Listing, error)
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	List(ctx context.Context, city *domain.City) ([]domain.Listing, error)
	ListMine(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Update(ctx context.Context, userID, listingID string, req domain.UpdateListingRequest) (*domain.Listing, error)
	Delete(ctx context.Context, userID, listingID string) error
	SetImages(ctx context.Context, userID, listingID string, req domain.SetImagesRequest) (*domain.Listing, error)
}

// MatchDispatcher hands a freshly stored listing to the request matcher.
type MatchDispatcher interface {
	DispatchMatch(ctx context.Context, listing domain.Listing) error
}

type listingStore interface {
	Put(ctx context.Context, l *domain.Listing) error
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	Update(ctx context.Context, listingID string, updates map[string]interface{}) (*domain.Listing, error)
	Delete(ctx context.Context, listingID string) error
	List(ctx context.Context, city *domain.City) ([]domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
}

type imageStore interface {
	List(ctx context.Context, listingID string) ([]domain.ListingImage, error)
	Replace(ctx context.Context, listingID string, objectKeys []string) ([]domain.ListingImage, error)
	DeleteAll(ctx context.Context, listingID string) error
}

// objectStore is the bucket that holds uploaded image bytes.
type objectStore interface {
	URL(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type listingForgetter interface {
	ForgetListing(ctx context.Context, listingID string) error
}

type service struct {
	repo       listingStore
	images     imageStore
	objects    objectStore
	dispatcher MatchDispatcher
	lookups    listingForgetter
}

type ServiceDeps struct {
	ListingRepo     listingStore
	ImageRepo       imageStore
	Objects         objectStore
	MatchDispatcher MatchDispatcher
	Lookups         listingForgetter // optional
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:       deps.ListingRepo,
		images:     deps.ImageRepo,
		objects:    deps.Objects,
		dispatcher: deps.MatchDispatcher,
		lookups:    deps.Lookups,
	}
}

// Create stores the listing and dispatches a snapshot of it for matching.
// A dispatch failure is logged; the listing is already saved.
func (s *service) Create(ctx context.Context, ownerID string, req domain.CreateListingRequest) (*domain.Listing, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	l := &domain.Listing{
		ListingID:     id.New(),
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Storage:       req.Storage,
		Condition:     req.Condition,
		City:          req.City,
		BrandID:       req.BrandID,
		BatteryHealth: req.BatteryHealth,
		OwnerID:       ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, l); err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.DispatchMatch(ctx, *l); err != nil {
			slog.Error("dispatch listing match failed", "listing_id", l.ListingID, "err", err)
		}
	}
	return l, nil
}

func (s *service) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	l, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	imgs, err := s.images.List(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	l.Images = s.signed(ctx, imgs)
	return l, nil
}

func (s *service) List(ctx context.Context, city *domain.City) ([]domain.Listing, error) {
	if city != nil && !city.Valid() {
		return nil, fmt.Errorf("unknown city %q: %w", *city, domain.ErrBadRequest)
	}
	return nonNil(s.repo.List(ctx, city))
}

func (s *service) ListMine(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	return nonNil(s.repo.ListByOwner(ctx, ownerID))
}

func (s *service) Update(ctx context.Context, userID, listingID string, req domain.UpdateListingRequest) (*domain.Listing, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, userID, listingID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{fieldUpdatedAt: time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name must not be blank: %w", domain.ErrBadRequest)
		}
		updates[fieldName] = name
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Price != nil {
		updates[fieldPrice] = *req.Price
	}
	if req.Storage != nil {
		updates[fieldStorage] = *req.Storage
	}
	if req.Condition != nil {
		updates[fieldCondition] = *req.Condition
	}
	if req.City != nil {
		updates[fieldCity] = *req.City
	}
	if req.BrandID != nil {
		updates[fieldBrandID] = *req.BrandID
	}
	if req.BatteryHealth != nil {
		updates[fieldBatteryHealth] = *req.BatteryHealth
	}
	l, err := s.repo.Update(ctx, listingID, updates)
	if err != nil {
		return nil, err
	}
	s.forget(ctx, listingID)
	return l, nil
}

// Delete removes the listing, its image records and the image objects.
// Object cleanup is best effort.
func (s *service) Delete(ctx context.Context, userID, listingID string) error {
	if _, err := s.owned(ctx, userID, listingID); err != nil {
		return err
	}
	imgs, err := s.images.List(ctx, listingID)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	if err := s.images.DeleteAll(ctx, listingID); err != nil {
		return fmt.Errorf("delete image records: %w", err)
	}
	if err := s.repo.Delete(ctx, listingID); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, objectKeys(imgs)...); err != nil {
		slog.Warn("could not delete listing images", "listing_id", listingID, "err", err)
	}
	s.forget(ctx, listingID)
	return nil
}

// SetImages replaces the listing's images with the given uploaded objects, in
// order. Objects dropped from the set are deleted from the bucket.
func (s *service) SetImages(ctx context.Context, userID, listingID string, req domain.SetImagesRequest) (*domain.Listing, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	l, err := s.owned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(req.ObjectKeys))
	for _, key := range req.ObjectKeys {
		if _, dup := keep[key]; dup {
			return nil, fmt.Errorf("duplicate image %q: %w", key, domain.ErrBadRequest)
		}
		keep[key] = struct{}{}
		ok, err := s.objects.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("image %q was not uploaded: %w", key, domain.ErrBadRequest)
		}
	}
	previous, err := s.images.List(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	imgs, err := s.images.Replace(ctx, listingID, req.ObjectKeys)
	if err != nil {
		return nil, fmt.Errorf("replace images: %w", err)
	}
	var dropped []string
	for _, img := range previous {
		if _, ok := keep[img.ObjectKey]; !ok {
			dropped = append(dropped, img.ObjectKey)
		}
	}
	if err := s.objects.Delete(ctx, dropped...); err != nil {
		slog.Warn("could not delete replaced images", "listing_id", listingID, "err", err)
	}
	s.forget(ctx, listingID)
	l.Images = s.signed(ctx, imgs)
	return l, nil
}

func (s *service) owned(ctx context.Context, userID, listingID string) (*domain.Listing, error) {
	l, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != userID {
		return nil, fmt.Errorf("listing belongs to another user: %w", domain.ErrForbidden)
	}
	return l, nil
}

// signed presigns image keys in display order, skipping keys that fail.
func (s *service) signed(ctx context.Context, imgs []domain.ListingImage) []string {
	urls := make([]string, 0, len(imgs))
	for _, img := range imgs {
		u, err := s.objects.URL(ctx, img.ObjectKey)
		if err != nil {
			slog.Warn("presign image failed", "key", img.ObjectKey, "err", err)
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func (s *service) forget(ctx context.Context, listingID string) {
	if s.lookups == nil {
		return
	}
	if err := s.lookups.ForgetListing(ctx, listingID); err != nil {
		slog.Warn("could not invalidate cached listing", "listing_id", listingID, "err", err)
	}
}

func objectKeys(imgs []domain.ListingImage) []string {
	keys := make([]string, 0, len(imgs))
	for _, img := range imgs {
		keys = append(keys, img.ObjectKey)
	}
	return keys
}

func nonNil(ls []domain.Listing, err error) ([]domain.Listing, error) {
	if err != nil {
		return nil, err
	}
	if ls == nil {
		ls = []domain.Listing{}
	}
	return ls, nil
}
