// Package auth issues and validates console operator tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tendant/simple-idm-console/pkg/domain"
)

const defaultOperatorTokenTTL = 15 * time.Minute

// OperatorConfig holds operator token configuration.
type OperatorConfig struct {
	JWTSecret []byte
	Issuer    string
	TokenTTL  time.Duration
}

// OperatorClaims are the claims of an operator access token.
type OperatorClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// OperatorService validates the bearer tokens console operators present.
type OperatorService struct {
	config OperatorConfig
}

// NewOperatorService creates a new operator token service.
func NewOperatorService(config OperatorConfig) (*OperatorService, error) {
	if len(config.JWTSecret) == 0 {
		return nil, errors.New("operator jwt secret is required")
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = defaultOperatorTokenTTL
	}
	return &OperatorService{config: config}, nil
}

// IssueToken signs an access token for operatorID.
func (s *OperatorService) IssueToken(operatorID, name string) (string, error) {
	now := time.Now()
	claims := &OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
			ID:        uuid.NewString(),
		},
		Name: name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.JWTSecret)
}

// ValidateAccessToken validates an operator access token and returns its claims.
func (s *OperatorService) ValidateAccessToken(tokenString string) (*OperatorClaims, error) {
	var opts []jwt.ParserOption
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.JWTSecret, nil
	}, opts...)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
