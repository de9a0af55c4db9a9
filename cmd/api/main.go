package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/akozyreva/stockbot-backend/api/controllers"
	webhookcontrollers "github.com/akozyreva/stockbot-backend/api/controllers/webhooks"
	"github.com/akozyreva/stockbot-backend/api/routes"
	"github.com/akozyreva/stockbot-backend/internal/bot"
	"github.com/akozyreva/stockbot-backend/internal/catalog"
	"github.com/akozyreva/stockbot-backend/internal/ledger"
	"github.com/akozyreva/stockbot-backend/internal/store"
	"github.com/akozyreva/stockbot-backend/pkg/config"
	"github.com/akozyreva/stockbot-backend/pkg/dedup"
	"github.com/akozyreva/stockbot-backend/pkg/locks"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
	"github.com/akozyreva/stockbot-backend/pkg/metrics"
	"github.com/akozyreva/stockbot-backend/pkg/redis"
	"github.com/akozyreva/stockbot-backend/pkg/sheets"
	"github.com/akozyreva/stockbot-backend/pkg/telegram"
)

const shutdownTimeout = 10 * time.Second

// backingStore is the spreadsheet surface the services run on, either the
// real Sheets client or the in-process store used for local development.
type backingStore interface {
	store.Tabular
	EnsureStructure(context.Context) error
	Ping(context.Context) error
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tabular, err := newBackingStore(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap spreadsheet store", err)
		os.Exit(1)
	}

	var (
		redisClient *redis.Client
		redisPinger controllers.Pinger
		guard       webhookcontrollers.UpdateGuard
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		redisPinger = redisClient
		guard, err = dedup.NewManager(redisClient, cfg.Telegram.UpdateDedupTTL)
		if err != nil {
			logg.Error(ctx, "failed to create dedup guard", err)
			os.Exit(1)
		}
	} else {
		guard = dedup.NewMemoryGuard(cfg.Telegram.UpdateDedupTTL)
	}

	sharedLocks := locks.NewKeyed()

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Store:  tabular,
		Locks:  sharedLocks,
		Logger: logg,
		Sheet:  cfg.Google.InventorySheet,
	})
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		Store:   tabular,
		Catalog: catalogSvc,
		Logger:  logg,
		Sheet:   cfg.Google.SalesSheet,
	})
	if err != nil {
		logg.Error(ctx, "failed to create ledger service", err)
		os.Exit(1)
	}

	tgClient, err := telegram.NewClient(cfg.Telegram.BotToken, telegram.WithBaseURL(cfg.Telegram.APIBaseURL))
	if err != nil {
		logg.Error(ctx, "failed to create telegram client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	commandMetrics := metrics.NewCommandMetrics(registry)

	botSvc, err := bot.NewService(bot.ServiceParams{
		Catalog:     catalogSvc,
		Ledger:      ledgerSvc,
		Provisioner: tabular,
		Auth:        cfg.Telegram,
		Metrics:     commandMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create bot service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Store:    tabular,
			Redis:    redisPinger,
			Handler:  botSvc,
			Sender:   tgClient,
			Guard:    guard,
			Gatherer: registry,
		}),
	}

	me, err := tgClient.GetMe(ctx)
	if err != nil {
		logg.Error(ctx, "telegram credentials rejected", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "bot_username", me.Username), "telegram bot authenticated")

	if url := cfg.Telegram.WebhookURL(); url != "" {
		if err := tgClient.SetWebhook(ctx, url, cfg.Telegram.WebhookSecret); err != nil {
			logg.Error(ctx, "failed to register telegram webhook", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "webhook_url", url), "telegram webhook registered")
	} else {
		logg.Warn(ctx, "public base url not set, skipping webhook registration")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	if err := shutdown(cfg, logg, server, tgClient, redisClient); err != nil {
		logg.Error(context.Background(), "shutdown finished with errors", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}

func newBackingStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (backingStore, error) {
	if cfg.FeatureFlags.UseMemoryStore {
		mem := store.NewMemory()
		if err := mem.EnsureStructure(ctx); err != nil {
			return nil, err
		}
		logg.Warn(ctx, "using in-memory store, data will not survive a restart")
		return mem, nil
	}

	client, err := sheets.NewClient(ctx, cfg.Google, logg)
	if err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.AutoProvision {
		if err := client.EnsureStructure(ctx); err != nil {
			return nil, err
		}
	}
	return client, nil
}

// shutdown deregisters the webhook and drains the server, collecting every
// failure instead of stopping at the first one.
func shutdown(cfg *config.Config, logg *logger.Logger, server *http.Server, tgClient *telegram.Client, redisClient *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error

	if cfg.Telegram.WebhookURL() != "" {
		if err := tgClient.DeleteWebhook(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if logg != nil && errs == nil {
		logg.Info(context.Background(), "graceful shutdown complete")
	}
	return errs
}
