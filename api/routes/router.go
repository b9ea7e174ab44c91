package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pravnaai/pravnaai-backend/api/controllers"
	webhookcontrollers "github.com/pravnaai/pravnaai-backend/api/controllers/webhooks"
	"github.com/pravnaai/pravnaai-backend/api/middleware"
	"github.com/pravnaai/pravnaai-backend/internal/catalog"
	"github.com/pravnaai/pravnaai-backend/internal/chat"
	"github.com/pravnaai/pravnaai-backend/internal/documents"
	"github.com/pravnaai/pravnaai-backend/internal/reminders"
	subscriptionsvc "github.com/pravnaai/pravnaai-backend/internal/subscriptions"
	stripewebhook "github.com/pravnaai/pravnaai-backend/internal/webhooks/stripe"
	"github.com/pravnaai/pravnaai-backend/pkg/config"
	"github.com/pravnaai/pravnaai-backend/pkg/db"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
	"github.com/pravnaai/pravnaai-backend/pkg/metrics"
	"github.com/pravnaai/pravnaai-backend/pkg/redis"
	"github.com/pravnaai/pravnaai-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	catalogService catalog.Service,
	chatService chat.Service,
	subscriptionsService subscriptionsvc.Service,
	remindersService reminders.Service,
	documentsService documents.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		httpMetrics.Middleware,
	)

	chatPolicy := middleware.NewRateLimitPolicy(
		"chat",
		cfg.AuthRateLimit.ChatWindow,
		cfg.AuthRateLimit.ChatIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/plans", controllers.PlansList(catalogService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.With(middleware.RateLimit(chatPolicy, redisClient, logg)).
			Post("/chat", controllers.Chat(chatService, logg))

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", controllers.ConversationCreate(chatService, logg))
			r.Get("/", controllers.ConversationList(chatService, logg))
			r.Get("/{conversationId}/messages", controllers.ConversationMessages(chatService, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/status", controllers.SubscriptionStatus(subscriptionsService, logg))
			r.Post("/checkout", controllers.SubscriptionCheckout(subscriptionsService, logg))
			r.Post("/portal", controllers.SubscriptionPortal(subscriptionsService, logg))
		})

		r.Route("/reminders", func(r chi.Router) {
			r.Post("/", controllers.ReminderCreate(remindersService, logg))
			r.Get("/", controllers.ReminderList(remindersService, logg))
			r.Patch("/{reminderId}/complete", controllers.ReminderComplete(remindersService, logg))
			r.Delete("/{reminderId}", controllers.ReminderDelete(remindersService, logg))
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", controllers.DocumentUpload(documentsService, logg))
			r.Get("/{documentId}", controllers.DocumentGet(documentsService, logg))
			r.Delete("/{documentId}", controllers.DocumentDelete(documentsService, logg))
		})
	})

	return r
}
