package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-console/internal/config"
	"github.com/tendant/simple-idm-console/internal/http/features/console"
	"github.com/tendant/simple-idm-console/internal/http/middleware"
	"github.com/tendant/simple-idm-console/internal/httputil"
	consolesvc "github.com/tendant/simple-idm-console/pkg/console"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	Console         *consolesvc.Service
	Operators       middleware.TokenValidator
	Metrics         http.Handler
	RequestObserver middleware.RequestObserver
	DefaultUILocale string
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging(cfg.Logger, cfg.RequestObserver))
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	// Register operator console routes
	consoleHandler := console.NewHandler(cfg.Logger, cfg.Console, cfg.DefaultUILocale)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Operators))

		r.Group(func(r chi.Router) {
			r.Use(rateLimiters[middleware.ScopeRead])
			r.Get("/v1/console/users/{userId}/sessions", consoleHandler.ListSessions)
			r.Get("/v1/console/users/{userId}/sessions/{sessionId}", consoleHandler.GetSession)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimiters[middleware.ScopeRevoke])
			r.Post("/v1/console/users/{userId}/sessions/{sessionId}/revoke", consoleHandler.Revoke)
		})
	})

	return r
}
