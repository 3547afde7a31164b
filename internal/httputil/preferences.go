package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/tendant/simple-idm-console/pkg/domain"
)

// PreferencesCookieName is the cookie holding console UI preferences.
const PreferencesCookieName = "idm_console_prefs"

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool // Set to true in production (HTTPS)
	SameSite http.SameSite
	MaxAge   int
}

// DefaultCookieConfig returns default cookie configuration.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Path:     "/",
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	}
}

// Preferences are the console UI preferences. Every field is optional.
type Preferences struct {
	AppID          *string `json:"appId,omitempty"`
	OrganizationID *string `json:"organizationId,omitempty"`
	UILocales      *string `json:"ui_locales,omitempty"`
}

// ParsePreferences validates a preferences document: a JSON object whose
// appId, organizationId and ui_locales members, when present, are strings.
// Other members are ignored. Anything else is ErrInvalidPreferences.
func ParsePreferences(data []byte) (Preferences, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Preferences{}, domain.ErrInvalidPreferences
	}

	var prefs Preferences
	for name, dst := range map[string]**string{
		"appId":          &prefs.AppID,
		"organizationId": &prefs.OrganizationID,
		"ui_locales":     &prefs.UILocales,
	} {
		value, ok := raw[name]
		if !ok {
			continue
		}
		var s string
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return Preferences{}, domain.ErrInvalidPreferences
		}
		if err := json.Unmarshal(value, &s); err != nil {
			return Preferences{}, domain.ErrInvalidPreferences
		}
		*dst = &s
	}
	return prefs, nil
}

// GetPreferencesFromCookie reads and validates the preferences cookie. An
// absent or invalid cookie reports false.
func GetPreferencesFromCookie(r *http.Request) (Preferences, bool) {
	cookie, err := r.Cookie(PreferencesCookieName)
	if err != nil {
		return Preferences{}, false
	}

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return Preferences{}, false
	}
	prefs, err := ParsePreferences([]byte(value))
	if err != nil {
		return Preferences{}, false
	}
	return prefs, true
}

// SetPreferencesCookie stores prefs in the preferences cookie.
func SetPreferencesCookie(w http.ResponseWriter, prefs Preferences, cfg CookieConfig) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     PreferencesCookieName,
		Value:    url.QueryEscape(string(data)),
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
	return nil
}

// ClearPreferencesCookie removes the preferences cookie.
func ClearPreferencesCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     PreferencesCookieName,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}
