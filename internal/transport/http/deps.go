package http

import (
	"time"

	"github.com/telbozor/api/internal/application/brand"
	"github.com/telbozor/api/internal/application/like"
	"github.com/telbozor/api/internal/application/listing"
	"github.com/telbozor/api/internal/application/message"
	"github.com/telbozor/api/internal/application/notification"
	"github.com/telbozor/api/internal/application/profile"
	"github.com/telbozor/api/internal/application/request"
	"github.com/telbozor/api/internal/infrastructure/dynamo"
	redisinfra "github.com/telbozor/api/internal/infrastructure/redis"
	s3infra "github.com/telbozor/api/internal/infrastructure/s3"
	"github.com/telbozor/api/internal/realtime"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	ListingRepo      *dynamo.ListingRepo
	ImageRepo        *dynamo.ListingImageRepo
	BrandRepo        *dynamo.BrandRepo
	RequestRepo      *dynamo.RequestRepo
	NotificationRepo *dynamo.NotificationRepo
	MessageRepo      *dynamo.MessageRepo
	ProfileRepo      *dynamo.ProfileRepo
	LikeRepo         *dynamo.LikeRepo
	Images           *s3infra.ImageStore
	Cache            *redisinfra.Cache // nil disables caching
	CacheTTL         time.Duration
	MatchDispatcher  listing.MatchDispatcher
	Hub              *realtime.Hub
}

// Services is everything the handlers call into.
type Services struct {
	Listings      listing.Service
	Requests      request.Service
	Notifications notification.Service
	Messages      message.Service
	Likes         like.Service
	Profiles      profile.Service
	Brands        brand.Service
}

// NewServices wires the application services over the given infrastructure.
func NewServices(d *Deps) Services {
	dirDeps := message.DirectoryDeps{
		ListingRepo: d.ListingRepo,
		ImageRepo:   d.ImageRepo,
		ProfileRepo: d.ProfileRepo,
		Signer:      d.Images,
		CacheTTL:    d.CacheTTL,
	}
	likeDeps := like.ServiceDeps{
		LikeRepo:    d.LikeRepo,
		ListingRepo: d.ListingRepo,
		CacheTTL:    d.CacheTTL,
	}
	// Assigned only when set so the optional interfaces stay nil.
	if d.Cache != nil {
		dirDeps.Cache = d.Cache
		likeDeps.Cache = d.Cache
	}
	directory := message.NewDirectory(dirDeps)

	msgDeps := message.ServiceDeps{
		MessageRepo: d.MessageRepo,
		ListingRepo: d.ListingRepo,
		Directory:   directory,
	}
	if d.Hub != nil {
		msgDeps.Events = d.Hub
	}

	return Services{
		Listings: listing.NewService(listing.ServiceDeps{
			ListingRepo:     d.ListingRepo,
			ImageRepo:       d.ImageRepo,
			Objects:         d.Images,
			MatchDispatcher: d.MatchDispatcher,
			Lookups:         directory,
		}),
		Requests:      request.NewService(d.RequestRepo),
		Notifications: notification.NewService(d.NotificationRepo),
		Messages:      message.NewService(msgDeps),
		Likes:         like.NewService(likeDeps),
		Profiles:      profile.NewService(d.ProfileRepo, directory),
		Brands:        brand.NewService(d.BrandRepo),
	}
}
