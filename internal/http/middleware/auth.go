package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tendant/simple-idm-console/internal/httputil"
	"github.com/tendant/simple-idm-console/pkg/auth"
)

type contextKey string

const (
	// OperatorIDKey is the context key for the authenticated operator ID.
	OperatorIDKey contextKey = "operator_id"
	// ClaimsKey is the context key for the token claims.
	ClaimsKey contextKey = "claims"
)

// TokenValidator validates operator access tokens.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.OperatorClaims, error)
}

// Auth creates middleware that validates operator JWT bearer tokens.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = strings.TrimSpace(parts[1])
				}
			}

			if tokenString == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			claims, err := validator.ValidateAccessToken(tokenString)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), OperatorIDKey, claims.Subject)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOperatorID extracts the operator ID from the request context.
func GetOperatorID(ctx context.Context) (string, bool) {
	operatorID, ok := ctx.Value(OperatorIDKey).(string)
	return operatorID, ok
}

// GetClaims extracts the token claims from the request context.
func GetClaims(ctx context.Context) (*auth.OperatorClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.OperatorClaims)
	return claims, ok
}
