package httputil

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/simple-idm-console/pkg/domain"
)

// MaxIDLength bounds user and session IDs accepted from the URL.
const MaxIDLength = 128

// RouteID reads an identifier from a chi URL parameter. Surrounding
// whitespace is trimmed and an empty value is returned as is.
func RouteID(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if err := ValidateID(name, value); err != nil {
		return "", err
	}
	return value, nil
}

// ValidateID rejects identifiers that are too long or carry control characters.
func ValidateID(field, value string) error {
	if len(value) > MaxIDLength {
		return fmt.Errorf("%w: %s must be at most %d characters long", domain.ErrInvalidRouteParam, field, MaxIDLength)
	}
	if strings.ContainsFunc(value, unicode.IsControl) {
		return fmt.Errorf("%w: %s contains control characters", domain.ErrInvalidRouteParam, field)
	}
	return nil
}
