package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/telbozor/api/internal/config"
	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/transport/http/handler"
	appmiddleware "github.com/telbozor/api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds the application router. The returned stop func releases
// the rate limiter's background goroutine.
func NewRouter(cfg *config.Config, svcs Services, verifier appmiddleware.TokenVerifier, ws handler.WebsocketServer) (http.Handler, func()) {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 messages/second, burst of 10 per sender.
	sendRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	listingH := handler.NewListingHandler(svcs.Listings)
	requestH := handler.NewRequestHandler(svcs.Requests)
	notifH := handler.NewNotificationHandler(svcs.Notifications)
	msgH := handler.NewMessageHandler(svcs.Messages)
	likeH := handler.NewLikeHandler(svcs.Likes)
	profileH := handler.NewProfileHandler(svcs.Profiles)
	brandH := handler.NewBrandHandler(svcs.Brands)
	wsH := handler.NewRealtimeHandler(ws)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/brands", brandH.List)
		r.Get("/listings", listingH.List)
		r.Get("/listings/{id}", listingH.Get)
		r.Get("/profiles/{id}", profileH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(verifier))

			r.Post("/listings", listingH.Create)
			r.Put("/listings/{id}", listingH.Update)
			r.Delete("/listings/{id}", listingH.Delete)
			r.Put("/listings/{id}/images", listingH.SetImages)
			r.Get("/me/listings", listingH.ListMine)

			r.Get("/requests", requestH.ListMine)
			r.Post("/requests", requestH.Create)
			r.Delete("/requests/{id}", requestH.Delete)
			r.Put("/requests/{id}/active", requestH.SetActive)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkAsRead)

			r.Get("/conversations", msgH.Conversations)
			r.Get("/conversations/{listingID}/{userID}", msgH.Thread)
			r.With(sendRL.Limit).Post("/messages", msgH.Send)
			r.Post("/messages/read", msgH.MarkRead)
			r.Get("/messages/unread-count", msgH.UnreadCount)
			r.Put("/messages/{id}", msgH.Edit)
			r.Delete("/messages/{id}", msgH.Delete)

			r.Get("/likes", likeH.List)
			r.Post("/likes/{listingID}", likeH.Toggle)

			r.Put("/profiles/me", profileH.UpdateMine)

			r.Get("/ws", wsH.Connect)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/brands", brandH.Create)
			})
		})
	})

	return r, sendRL.Stop
}
