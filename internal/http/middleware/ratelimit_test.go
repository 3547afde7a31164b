package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tendant/simple-idm-console/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func limitedRequest(operatorID, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/console/users/u1/sessions/s1/revoke", nil)
	req.RemoteAddr = remoteAddr
	if operatorID != "" {
		req = req.WithContext(context.WithValue(req.Context(), OperatorIDKey, operatorID))
	}
	return req
}

func TestRateLimit(t *testing.T) {
	type call struct {
		operatorID string
		remoteAddr string
		wantStatus int
	}

	tests := []struct {
		name  string
		calls []call
	}{
		{
			name: "same operator across addresses",
			calls: []call{
				{operatorID: "op-1", remoteAddr: "10.0.0.1:4000", wantStatus: http.StatusOK},
				{operatorID: "op-1", remoteAddr: "10.0.0.2:4000", wantStatus: http.StatusOK},
				{operatorID: "op-1", remoteAddr: "10.0.0.3:4000", wantStatus: http.StatusTooManyRequests},
			},
		},
		{
			name: "operators have separate budgets",
			calls: []call{
				{operatorID: "op-1", remoteAddr: "10.0.0.1:4000", wantStatus: http.StatusOK},
				{operatorID: "op-1", remoteAddr: "10.0.0.1:4000", wantStatus: http.StatusOK},
				{operatorID: "op-2", remoteAddr: "10.0.0.1:4000", wantStatus: http.StatusOK},
			},
		},
		{
			name: "anonymous requests keyed by ip",
			calls: []call{
				{remoteAddr: "192.168.1.1:12345", wantStatus: http.StatusOK},
				{remoteAddr: "192.168.1.1:12345", wantStatus: http.StatusOK},
				{remoteAddr: "192.168.1.1:12345", wantStatus: http.StatusTooManyRequests},
				{remoteAddr: "192.168.1.2:12345", wantStatus: http.StatusOK},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RateLimit(RateLimitConfig{
				Scope:    ScopeRevoke,
				Requests: 2,
				Window:   time.Minute,
				Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
			})(okHandler)

			for i, c := range tt.calls {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, limitedRequest(c.operatorID, c.remoteAddr))
				if w.Code != c.wantStatus {
					t.Errorf("call %d: got status %d, want %d", i, w.Code, c.wantStatus)
				}
			}
		})
	}
}

func TestCreateRateLimiters(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.RateLimitConfig
		wantCodes []int
	}{
		{
			name:      "disabled",
			cfg:       config.RateLimitConfig{Enabled: false},
			wantCodes: []int{http.StatusOK, http.StatusOK, http.StatusOK},
		},
		{
			name: "enabled",
			cfg: config.RateLimitConfig{
				Enabled:                 true,
				ReadRequestsPerMinute:   100,
				ReadWindowMinutes:       1,
				RevokeRequestsPerMinute: 1,
				RevokeWindowMinutes:     1,
			},
			wantCodes: []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiters := CreateRateLimiters(tt.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if limiters[ScopeRead] == nil || limiters[ScopeRevoke] == nil {
				t.Fatal("missing limiter")
			}

			handler := limiters[ScopeRevoke](okHandler)
			for i, want := range tt.wantCodes {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, limitedRequest("op-1", "10.0.0.1:4000"))
				if w.Code != want {
					t.Errorf("request %d: got status %d, want %d", i, w.Code, want)
				}
			}
		})
	}
}
