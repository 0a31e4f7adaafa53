// Package http exposes the catalog over a JSON API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// RouterConfig tunes the middleware around the catalog routes.
type RouterConfig struct {
	ServiceName string
	PageSize    int

	CORS middleware.CORSConfig

	// RateLimiter is applied to catalog routes. Nil disables rate limiting.
	RateLimiter *middleware.RateLimiter

	CacheMaxAge               int
	CacheStaleWhileRevalidate int

	RequestTimeout time.Duration

	PprofEnabled      bool
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(resolver PageResolver, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	h := NewCatalogHandler(resolver, cfg.PageSize, logger)

	r.Route("/api/v1/catalog", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware(logger))
		}
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(cfg.RequestTimeout))
		r.Use(middleware.CacheControl(cfg.CacheMaxAge, cfg.CacheStaleWhileRevalidate))

		r.Get("/products", h.ListProducts)
		r.Get("/categories/{categoryID}/products", h.CategoryProducts)
		r.Get("/search", h.Search)
	})

	return r
}
