package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type requestRecorder struct {
	method string
	status int
	calls  int
}

func (r *requestRecorder) ObserveRequest(method string, status int, elapsed time.Duration) {
	r.method = method
	r.status = status
	r.calls++
}

func TestLogging(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	observer := &requestRecorder{}

	handler := Logging(logger, observer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if observer.calls != 1 || observer.status != http.StatusBadGateway || observer.method != "GET" {
		t.Errorf("observer = %+v, want one GET with 502", observer)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("response should carry a request ID")
	}
}

func TestLogging_KeepsIncomingRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Logging(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request ID = %q, want req-123", got)
	}
}

func TestRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestLogging_ObservesRecoveredPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	observer := &requestRecorder{}
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := Logging(logger, observer)(Recover(logger)(panicking))

	req := httptest.NewRequest("POST", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if observer.calls != 1 || observer.status != http.StatusInternalServerError || observer.method != "POST" {
		t.Errorf("observer = %+v, want one POST with 500", observer)
	}
}
