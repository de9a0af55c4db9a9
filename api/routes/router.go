package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akozyreva/stockbot-backend/api/controllers"
	webhookcontrollers "github.com/akozyreva/stockbot-backend/api/controllers/webhooks"
	"github.com/akozyreva/stockbot-backend/api/middleware"
	"github.com/akozyreva/stockbot-backend/pkg/config"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    controllers.Pinger
	Redis    controllers.Pinger
	Handler  webhookcontrollers.CommandHandler
	Sender   webhookcontrollers.ReplySender
	Guard    webhookcontrollers.UpdateGuard
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.Store, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/telegram/webhook", webhookcontrollers.TelegramWebhook(
		deps.Handler,
		deps.Sender,
		deps.Guard,
		deps.Config.Telegram.WebhookSecret,
		deps.Logger,
	))

	return r
}
