package cli

import (
	"context"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/assistant"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/classifier"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const (
	summaryCacheSize = 1000
	summaryCacheTTL  = 10 * time.Minute
	cacheSweepEvery  = 5 * time.Minute
)

// App is the ledger stack shared by the server and the admin CLI.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Store  storage.Store
	Ledger *services.LedgerService
	Caches *cache.Manager

	events  *amqp.Client
	cleanup backend.CleanupFunc
}

// NewApp opens storage and builds the ledger service. With publish set and
// AMQP_URL configured, entry changes are announced on the event bus; a bus
// that cannot be reached is logged and skipped.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger, publish bool) *App {
	res := OpenStore(ctx, logger, cfg)
	gen := NewGenerator(logger, cfg)

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())

	clOpts := []classifier.Option{
		classifier.WithLogger(logger.WithComponent(log.ComponentClassifier).Slog()),
	}
	if cfg.ClassifierCacheSize > 0 {
		cc := cache.NewLRUCache[core.Category](cfg.ClassifierCacheSize, cfg.ClassifierCacheTTL)
		caches.Register("classifications", cc)
		clOpts = append(clOpts, classifier.WithCache(cc))
	}
	cl := classifier.New(gen, clOpts...)

	as := assistant.New(gen,
		assistant.WithMaxEntries(cfg.AssistantMaxEntries),
		assistant.WithLogger(logger.WithComponent(log.ComponentAssistant).Slog()),
	)

	summaries := cache.NewLRUCache[core.Summary](summaryCacheSize, summaryCacheTTL)
	caches.Register("summaries", summaries)

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   res.Store,
		Caches:  caches,
		cleanup: res.Cleanup,
	}

	opts := []services.Option{
		services.WithSummaryCache(summaries),
		services.WithLogger(logger.WithComponent(log.ComponentLedger).Slog()),
	}
	if publish && cfg.AMQPURL != "" {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Slog())
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).Warn("Event bus unavailable, entry events disabled",
				log.FieldError, err)
		} else {
			app.events = events
			opts = append(opts, services.WithPublisher(events))
		}
	}
	app.Ledger = services.NewLedgerService(res.Store, cl, as, opts...)
	return app
}

// StartCacheSweeper drops expired cache entries until ctx is done.
func (a *App) StartCacheSweeper(ctx context.Context) {
	a.Caches.Start(ctx, cacheSweepEvery)
}

// Close releases the event bus and storage.
func (a *App) Close() {
	a.Caches.Stop()
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.Logger.Warn("Failed to close event bus", log.FieldError, err)
		}
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			a.Logger.Warn("Failed to close storage", log.FieldError, err)
		}
	}
}
