package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tendant/simple-idm-console/internal/config"
	"github.com/tendant/simple-idm-console/internal/httputil"
)

// Rate limiter scopes.
const (
	ScopeRead   = "read"
	ScopeRevoke = "revoke"
)

// RateLimitConfig holds rate limiting configuration for one scope.
type RateLimitConfig struct {
	Scope    string
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates a rate limiter keyed by the authenticated operator.
// Requests without an operator are keyed by client IP.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(operatorOrIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				operatorID, _ := GetOperatorID(r.Context())
				cfg.Logger.Warn("rate limit exceeded",
					"scope", cfg.Scope,
					"operator_id", operatorID,
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

func operatorOrIP(r *http.Request) (string, error) {
	if operatorID, ok := GetOperatorID(r.Context()); ok && operatorID != "" {
		return "operator:" + operatorID, nil
	}
	return httprate.KeyByIP(r)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters creates one limiter per scope. ScopeRead guards the
// session views, ScopeRevoke the revoke command.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			ScopeRead:   noOp,
			ScopeRevoke: noOp,
		}
	}

	return map[string]func(http.Handler) http.Handler{
		ScopeRead: RateLimit(RateLimitConfig{
			Scope:    ScopeRead,
			Requests: cfg.ReadRequestsPerMinute,
			Window:   time.Duration(cfg.ReadWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
		ScopeRevoke: RateLimit(RateLimitConfig{
			Scope:    ScopeRevoke,
			Requests: cfg.RevokeRequestsPerMinute,
			Window:   time.Duration(cfg.RevokeWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
	}
}
