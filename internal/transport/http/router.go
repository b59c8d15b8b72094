package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/parishpush/internal/application/delivery"
	"github.com/parishpush/internal/application/notification"
	"github.com/parishpush/internal/application/preference"
	"github.com/parishpush/internal/application/receipt"
	"github.com/parishpush/internal/application/subscription"
	"github.com/parishpush/internal/config"
	"github.com/parishpush/internal/domain"
	"github.com/parishpush/internal/transport/http/handler"
	appmiddleware "github.com/parishpush/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(deps.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"authentication is not configured"}`))
			})
		}
	}

	// 10 requests/second, burst of 20 per caller IP on the broadcast entry point.
	sendRL := appmiddleware.NewRateLimiter(rate.Limit(10), 20)
	// 5 requests/second, burst of 10 on subscription registration.
	subscribeRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	secretMw := appmiddleware.SharedSecret(cfg.APISecretKey)

	var events []notification.EventPublisher
	for _, p := range []EventPublisher{deps.Events, deps.Topic} {
		if p != nil {
			events = append(events, p)
		}
	}

	prefSvc := preference.NewService(deps.PreferenceRepo)
	subSvc := subscription.NewService(deps.SubscriptionRepo)
	receiptSvc := receipt.NewService(deps.ReceiptRepo)
	notifSvc := notification.NewService(notification.ServiceDeps{
		Repo:      deps.NotificationRepo,
		Followers: deps.FollowerRepo,
		Receipts:  deps.ReceiptRepo,
		Blobs:     deps.Blobs,
		Events:    events,
		Log:       deps.Log,
	})
	broadcaster := delivery.NewBroadcaster(delivery.BroadcasterDeps{
		Audience:      deps.FollowerRepo,
		Preferences:   prefSvc,
		Subscriptions: subSvc,
		Pusher:        deps.Pusher,
		Images:        deps.Blobs,
		Events:        deps.Topic,
		Encoder:       delivery.NewEncoder(cfg.DefaultIcon, cfg.DefaultBadge),
		Pool:          deps.Pool,
		Metrics:       deps.Metrics,
		Log:           deps.Log,
		Limits: delivery.Limits{
			MaxInFlight:   cfg.Broadcast.MaxInFlight,
			DeviceTimeout: cfg.Broadcast.DeviceTimeout,
			Deadline:      cfg.Broadcast.Deadline,
			PruneExpired:  cfg.Broadcast.PruneExpiredSubs,
		},
	})

	publicKey := cfg.VAPIDPublicKey
	if deps.Pusher != nil {
		publicKey = deps.Pusher.PublicKey()
	}

	var streamClients func() int
	if deps.Hub != nil {
		streamClients = deps.Hub.ClientCount
	}
	var workers handler.WorkerStats
	if deps.Pool != nil {
		workers = deps.Pool
	}
	healthH := handler.NewHealthHandler(streamClients, workers)
	broadcastH := handler.NewBroadcastHandler(broadcaster, deps.Log)
	subH := handler.NewSubscriptionHandler(subSvc, publicKey)
	prefH := handler.NewPreferenceHandler(prefSvc)
	var hub interface {
		Serve(w http.ResponseWriter, r *http.Request, parishID string, originPatterns []string)
	}
	if deps.Hub != nil {
		hub = deps.Hub
	}
	notifH := handler.NewNotificationHandler(notifSvc, receiptSvc, hub, cfg.AllowedOrigins, deps.Log)

	// Server-to-server broadcast, authenticated by the shared secret.
	r.With(sendRL.Limit, secretMw).Post("/notifications/send", broadcastH.Send)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/push/vapid-public-key", subH.VAPIDPublicKey)
		r.With(sendRL.Limit, secretMw).Post("/notifications/send", broadcastH.Send)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/push/subscriptions", subH.List)
			r.With(subscribeRL.Limit).Post("/push/subscriptions", subH.Subscribe)
			r.Delete("/push/subscriptions", subH.Unsubscribe)

			r.Get("/preferences", prefH.Get)
			r.Put("/preferences", prefH.Put)

			r.Get("/notifications", notifH.List)
			r.Post("/notifications/read", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkRead)
			if hub != nil {
				r.Get("/notifications/stream", notifH.Stream)
			}

			// Parish-managed content
			r.Route("/parishes/{parishId}/notifications", func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleParish))
				r.Use(appmiddleware.RequireParishOwner(deps.OwnerRepo))

				r.Get("/", notifH.ListParish)
				r.Post("/", notifH.Create)
				r.Put("/{id}", notifH.Update)
				r.Delete("/{id}", notifH.Delete)
			})
		})
	})

	return r
}
