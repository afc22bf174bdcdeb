package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/cloudkitchen-backend/internal/auth"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	"github.com/lorrc/cloudkitchen-backend/internal/infrastructure/metrics"
)

// RouterConfig collects everything the API router mounts
type RouterConfig struct {
	Logger         *slog.Logger
	TokenManager   *auth.TokenManager
	AllowedOrigins []string

	// Nil limiters disable rate limiting for their routes.
	GeneralLimiter *mw.RateLimiter
	AuthLimiter    *mw.RateLimiter

	// Nil disables HTTP metrics and the scrape endpoint.
	Metrics     *metrics.Collectors
	MetricsPath string

	Health      *HealthHandler
	Auth        *AuthHandler
	Orders      *OrderHandler
	Catalog     *CatalogHandler
	Restaurants *RestaurantHandler
	WebSocket   http.Handler
}

// NewRouter builds the chi router for the API
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(cfg.Logger))
	r.Use(mw.RecoveryLogger(cfg.Logger))
	r.Use(mw.CORS(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	// Probes and scraping sit outside the rate limits.
	cfg.Health.RegisterRoutes(r)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, cfg.Metrics.Handler())
	}

	// Authentication happens inside the handler so browsers can pass the
	// token on the handshake URL.
	r.Method(http.MethodGet, "/ws", cfg.WebSocket)

	jwt := mw.JWTMiddleware(cfg.TokenManager)
	authLimit := limiter(cfg.AuthLimiter)

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter(cfg.GeneralLimiter))

		cfg.Catalog.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(authLimit)
			r.Route("/auth", cfg.Auth.RegisterRoutes)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwt, mw.RequireRole(domain.RoleUser, domain.RoleAdmin))
			r.Route("/orders", cfg.Orders.RegisterRoutes)
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimit)
				cfg.Restaurants.RegisterRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(jwt, mw.RequireRole(domain.RoleRestaurantOwner))
				cfg.Restaurants.RegisterOwnerRoutes(r)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(authLimit).Post("/auth/login", cfg.Auth.HandleAdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(jwt, mw.RequireRole(domain.RoleAdmin))
				r.Get("/auth/me", cfg.Auth.HandleAdminMe)
				r.Route("/orders", cfg.Orders.RegisterAdminRoutes)
				cfg.Catalog.RegisterAdminRoutes(r)
			})
		})
	})

	return r
}

func limiter(rl *mw.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}
