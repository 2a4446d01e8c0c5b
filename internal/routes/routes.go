package routes

import (
	"log/slog"
	"net/http"
	"time"

	handlers "github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/http"
	mid "github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/middleware"
	"github.com/chirag-mandaviya-itechcloud/Safari-Dev/internal/obs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type Options struct {
	RequestTimeout time.Duration
	// RateLimiter guards the provider-facing search endpoints; nil disables it.
	RateLimiter mid.Limiter
	CORS        cors.Options
}

func GetRoutes(h *handlers.Handler, metrics *obs.Metrics, logger *slog.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	// Useful built-in middlewares
	r.Use(middleware.RealIP)    // proper client IP extraction
	r.Use(middleware.RequestID) // sets request ID header
	r.Use(middleware.Recoverer) // built-in recoverer to avoid panics taking server down

	// our custom middlewares: metrics, logging & timeout
	r.Use(mid.MetricsMiddleware(metrics))
	r.Use(mid.LoggingMiddleware(logger))
	if opts.RequestTimeout > 0 {
		r.Use(mid.TimeoutMiddleware(opts.RequestTimeout))
	}

	limited := func(next http.Handler) http.Handler { return next }
	if opts.RateLimiter != nil {
		limited = mid.RateLimitMiddleware(opts.RateLimiter, metrics)
	}

	r.Route("/quotes/{quoteID}", func(r chi.Router) {
		r.With(limited).Post("/search", h.Search)
		r.With(limited).Post("/groups/{supplierCode}/search", h.GroupSearch)
		r.Post("/events", h.IngestEvent)
		r.Post("/selection/toggle", h.ToggleSelection)
		r.Delete("/selection", h.ClearSelection)
		r.Delete("/results", h.ClearResults)
		r.Put("/rooms", h.ResizeRooms)
		r.Patch("/rooms/{index}", h.EditRoom)
		r.Post("/commit", h.Commit)
		r.Get("/view", h.View)
		r.Get("/snapshot", h.Snapshot)
		r.Put("/snapshot", h.RestoreSnapshot)
		r.Get("/line-items", h.LineItems)
		r.Delete("/", h.CloseSession)
	})

	r.Post("/events", h.PublishEvent)
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	return cors.New(opts.CORS).Handler(r)
}
