package console

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-idm-console/internal/http/middleware"
	"github.com/tendant/simple-idm-console/internal/httputil"
	"github.com/tendant/simple-idm-console/pkg/cache"
	consolesvc "github.com/tendant/simple-idm-console/pkg/console"
	"github.com/tendant/simple-idm-console/pkg/domain"
	"github.com/tendant/simple-idm-console/pkg/sessiondetail"
)

// Handler handles the operator console endpoints.
type Handler struct {
	logger        *slog.Logger
	service       *consolesvc.Service
	defaultLocale string
	parser        sessiondetail.UserAgentParser
}

// NewHandler creates a new console handler.
func NewHandler(logger *slog.Logger, service *consolesvc.Service, defaultLocale string) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		defaultLocale: defaultLocale,
		parser:        sessiondetail.DefaultUserAgentParser,
	}
}

// SessionSummary is one row of a user's session list.
type SessionSummary struct {
	SessionID  string `json:"sessionId"`
	Header     string `json:"header"`
	SignedInAt string `json:"signedInAt"`
	Href       string `json:"href"`
}

// SessionListResponse is the session list of a user.
type SessionListResponse struct {
	UserID   string           `json:"userId"`
	Sessions []SessionSummary `json:"sessions"`
}

// SessionDetailResponse is the detail view of one session.
type SessionDetailResponse struct {
	Header    string                `json:"header"`
	Fields    []sessiondetail.Field `json:"fields"`
	RevokeURL string                `json:"revokeUrl,omitempty"`
}

// RevokeResponse reports a completed revocation.
type RevokeResponse struct {
	Status string `json:"status"`
	Back   string `json:"back"`
}

// ListSessions lists a user's sessions.
// GET /v1/console/users/{userId}/sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := httputil.RouteID(r, "userId")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if userID == "" {
		httputil.Error(w, http.StatusBadRequest, domain.ErrMissingRouteParam.Error())
		return
	}

	recs, res := h.service.Sessions(r.Context(), userID)
	if res.Err != nil {
		h.fetchError(w, res.Err, "failed to load sessions", "user_id", userID)
		return
	}

	opts := h.options(r)
	resp := SessionListResponse{UserID: userID, Sessions: make([]SessionSummary, 0, len(recs))}
	for i := range recs {
		rec := &recs[i]
		detail := h.service.Describe(rec, userID, opts)
		resp.Sessions = append(resp.Sessions, SessionSummary{
			SessionID:  rec.UID,
			Header:     detail.Header,
			SignedInAt: sessiondetail.NormalizeLoginTs(rec.LoginTs, opts.DateTimeFormat),
			Href:       sessionPath(userID, rec.UID),
		})
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// GetSession returns the detail view of one session.
// GET /v1/console/users/{userId}/sessions/{sessionId}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := routeIDs(w, r)
	if !ok {
		return
	}
	if userID == "" || sessionID == "" {
		httputil.Error(w, http.StatusBadRequest, domain.ErrMissingRouteParam.Error())
		return
	}

	detail, err := h.service.Detail(r.Context(), userID, sessionID, h.options(r))
	if err != nil {
		h.fetchError(w, err, "failed to load session", "user_id", userID, "session_id", sessionID)
		return
	}

	resp := SessionDetailResponse{Header: detail.Header, Fields: detail.Fields}
	if resp.Fields == nil {
		resp.Fields = []sessiondetail.Field{}
	}
	if detail.Record != nil {
		resp.RevokeURL = sessionPath(userID, sessionID) + "/revoke"
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Revoke revokes one session. The confirmation happened client side, so the
// request drives the coordinator through Open and Confirm at once.
// POST /v1/console/users/{userId}/sessions/{sessionId}/revoke
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := routeIDs(w, r)
	if !ok {
		return
	}
	operatorID, _ := middleware.GetOperatorID(r.Context())

	view := &requestView{back: listPath(userID)}
	coord := h.service.NewCoordinator(userID, sessionID, consolesvc.View{
		Navigator: view,
		Modal:     view,
		Notifier:  view,
		Operator:  operatorID,
	})

	if err := coord.Open(); err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	err := coord.Confirm(r.Context())
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, RevokeResponse{Status: "revoked", Back: view.location()})
	case errors.Is(err, domain.ErrRevocationInProgress):
		httputil.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("revoke failed",
			"user_id", userID,
			"session_id", sessionID,
			"operator_id", operatorID,
			"error", err,
		)
		httputil.JSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": "failed to revoke session",
			"retry": true,
		})
	}
}

func routeIDs(w http.ResponseWriter, r *http.Request) (userID, sessionID string, ok bool) {
	var err error
	if userID, err = httputil.RouteID(r, "userId"); err == nil {
		sessionID, err = httputil.RouteID(r, "sessionId")
	}
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	return userID, sessionID, true
}

func (h *Handler) fetchError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrMissingRouteParam):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(msg, append(attrs, "error", err)...)
		httputil.JSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": msg,
			"retry": true,
		})
	}
}

// options picks the date-time format from the preferences cookie, falling
// back to the configured default locale.
func (h *Handler) options(r *http.Request) sessiondetail.Options {
	locale := h.defaultLocale
	if prefs, ok := httputil.GetPreferencesFromCookie(r); ok && prefs.UILocales != nil && *prefs.UILocales != "" {
		locale = *prefs.UILocales
	}
	return sessiondetail.Options{
		DateTimeFormat: sessiondetail.FormatForLocale(locale),
		Parser:         h.parser,
	}
}

func listPath(userID string) string {
	return "/v1/console/" + cache.SessionListKey(userID)
}

func sessionPath(userID, sessionID string) string {
	return "/v1/console/" + cache.SessionKey(userID, sessionID)
}
