package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/commit"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/config"
	handlers "github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/http"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/ingest"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/models"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/normalize"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/pricing"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/providers"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/routes"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/search"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/storage"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/storage/postgres"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/storage/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
)

type App struct {
	Router      http.Handler
	Sessions    *search.Registry
	Store       storage.Store
	RateLimiter search.RateLimiter
	Metrics     *obs.Metrics

	closers []func() error
}

// New wires the service from cfg. The caller owns the returned App and must
// Close it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	customRegistry := prometheus.NewRegistry()
	metrics := obs.NewMetrics(customRegistry)
	a := &App{Metrics: metrics}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	if cfg.Store.Seed {
		if err := Seed(ctx, store); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed store: %w", err)
		}
		logger.Info("store seeded", "quote_id", DemoQuoteID)
	}

	var sub ingest.Subscriber
	var pub ingest.Publisher
	switch cfg.Push.Transport {
	case "memory":
		bus := ingest.NewMemoryBus(64)
		sub, pub = bus, bus
	case "redis":
		client, err := ingest.NewRedisClient(cfg.Push.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		bus := ingest.NewRedisBus(client)
		if err := bus.Ping(ctx); err != nil {
			logger.Warn("redis not reachable, push events will not arrive until it is", "error", err)
		}
		sub, pub = bus, bus
		a.closers = append(a.closers, bus.Close)
	}

	names := map[string]string{}
	for _, s := range providers.Catalogue() {
		names[s.Code] = s.Name
	}

	agg := search.NewAggregator(providerList(cfg.Search), cfg.Search.ProviderTimeout, metrics, logger)
	cache := search.NewCache(cfg.Search.CacheTTL, metrics)
	svc := search.NewService(agg, cache, metrics, cfg.Search.ProviderTimeout+cfg.Search.ProviderTimeout/2)
	rl := search.NewIPRateLimiter(cfg.Search.RateLimitCapacity, cfg.Search.RateLimitRefill)
	a.RateLimiter = rl

	markup := pricing.NewMarkup(cfg.Pricing.DisplayCurrency, cfg.Pricing.MarkupPercent)
	norm := normalize.NewNormalizer(markup.Func(), cfg.Search.ProviderCurrency, names)

	a.Sessions = search.NewRegistry(store, search.SessionDeps{
		Service:    svc,
		Normalizer: norm,
		Committer:  commit.NewOrchestrator(store, logger, metrics),
		Subscriber: sub,
		Channel:    cfg.Push.Channel,
		Logger:     logger,
		Metrics:    metrics,
	}, search.SessionConfig{
		Limits: models.RoomLimits{
			MaxAdults:   cfg.Rooms.MaxAdults,
			MaxChildren: cfg.Rooms.MaxChildren,
			MaxInfants:  cfg.Rooms.MaxInfants,
		},
		DestinationLimit: cfg.View.DestinationLimit,
		SupplierNames:    names,
	})

	h := handlers.NewHandler(a.Sessions, store, pub, cfg.Push.Channel, logger)
	a.Router = routes.GetRoutes(h, metrics, logger, routes.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimiter:    rl,
		CORS: cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
		},
	})
	return a, nil
}

// Close stops every session before releasing the store and the bus.
func (a *App) Close() error {
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "postgres":
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	}
}

// providerList uses the configured HTTP providers, or the mock inventory
// when none are configured.
func providerList(cfg config.SearchConfig) []providers.Provider {
	if len(cfg.ProviderURLs) > 0 {
		out := make([]providers.Provider, 0, len(cfg.ProviderURLs))
		for i, u := range cfg.ProviderURLs {
			out = append(out, providers.NewHTTPProvider(fmt.Sprintf("http%d", i+1), u, cfg.ProviderTimeout))
		}
		return out
	}
	return []providers.Provider{
		providers.NewMockProvider("mock1", 0.2, 0.10, 0),
		providers.NewMockProvider("mock2", 0.25, 0.12, 1),
		providers.NewMockProvider("mock3", 0.15, 0.05, 2),
	}
}
