package adminapi

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 2 * time.Minute

// SignedTokenConfig configures per-request HS256 tokens.
type SignedTokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	Subject  string
	TTL      time.Duration
}

// SignedTokens mints a short-lived JWT for every request.
type SignedTokens struct {
	config SignedTokenConfig
	now    func() time.Time
}

// NewSignedTokens creates a token source signing with cfg.Secret.
func NewSignedTokens(cfg SignedTokenConfig) (*SignedTokens, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTokenTTL
	}
	return &SignedTokens{config: cfg, now: time.Now}, nil
}

// Token returns a freshly signed token.
func (s *SignedTokens) Token(context.Context) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   s.config.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
		ID:        uuid.NewString(),
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.Secret)
}
