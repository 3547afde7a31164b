package revocation

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/tendant/simple-idm-console/pkg/domain"
)

// recorder captures side effects in the order they happen.
type recorder struct {
	mu      sync.Mutex
	events  []string
	revokes []domain.RevocationRequest
	err     error
	block   chan struct{}
	entered chan struct{}
	audits  []Outcome
	cancel  context.CancelFunc
	ctxErrs []error
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.Events() {
		if e == event {
			n++
		}
	}
	return n
}

func (r *recorder) RevokeSession(ctx context.Context, req domain.RevocationRequest) error {
	r.add("revoke")
	r.mu.Lock()
	r.revokes = append(r.revokes, req)
	r.mu.Unlock()
	if r.entered != nil {
		close(r.entered)
	}
	if r.block != nil {
		<-r.block
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.observeCtx(ctx)
	return r.err
}

func (r *recorder) observeCtx(ctx context.Context) {
	r.mu.Lock()
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	r.mu.Unlock()
}

func (r *recorder) Mutate(ctx context.Context, key string) error {
	r.add("mutate:" + key)
	r.observeCtx(ctx)
	return nil
}

func (r *recorder) Invalidate(ctx context.Context, key string) error {
	r.add("invalidate:" + key)
	r.observeCtx(ctx)
	return nil
}

func (r *recorder) GoBack()                    { r.add("go_back") }
func (r *recorder) Open()                      { r.add("modal_open") }
func (r *recorder) Close()                     { r.add("modal_close") }
func (r *recorder) RevocationFailed(err error) { r.add("notify:" + err.Error()) }

func (r *recorder) RecordRevocation(ctx context.Context, o Outcome) {
	r.mu.Lock()
	r.audits = append(r.audits, o)
	r.mu.Unlock()
}

func newTestCoordinator(req domain.RevocationRequest, r *recorder) *Coordinator {
	return New(req, Config{
		Revoker:   r,
		Cache:     r,
		Navigator: r,
		Modal:     r,
		Notifier:  r,
		Audit:     r,
		Operator:  "operator-1",
	})
}

var validReq = domain.RevocationRequest{UserID: "u1", SessionID: "s1"}

func TestCoordinator_HappyPath(t *testing.T) {
	r := &recorder{}
	var transitions []string
	c := New(validReq, Config{
		Revoker: r, Cache: r, Navigator: r, Modal: r, Notifier: r, Audit: r,
		OnTransition: func(from, to State) { transitions = append(transitions, from.String()+">"+to.String()) },
	})

	if c.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", c.State())
	}
	if err := c.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if c.State() != StateConfirmPending {
		t.Fatalf("state after Open = %v, want confirm_pending", c.State())
	}
	if len(r.revokes) != 0 {
		t.Fatal("Open must not call the backend")
	}

	if err := c.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	want := []string{"modal_open", "revoke", "modal_close", "mutate:users/u1/sessions", "invalidate:users/u1/sessions/s1", "go_back"}
	if got := r.Events(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if c.State() != StateSucceeded {
		t.Errorf("state = %v, want succeeded", c.State())
	}
	if r.revokes[0] != validReq {
		t.Errorf("revoke request = %+v, want %+v", r.revokes[0], validReq)
	}

	wantTransitions := []string{"idle>confirm_pending", "confirm_pending>executing", "executing>succeeded"}
	if !reflect.DeepEqual(transitions, wantTransitions) {
		t.Errorf("transitions = %v, want %v", transitions, wantTransitions)
	}
	if len(r.audits) != 1 || r.audits[0].Err != nil {
		t.Errorf("audits = %+v, want one successful outcome", r.audits)
	}
}

func TestCoordinator_FailurePath(t *testing.T) {
	r := &recorder{err: errors.New("upstream rejected")}
	c := newTestCoordinator(validReq, r)

	c.Open()
	err := c.Confirm(context.Background())
	if err == nil || err.Error() != "upstream rejected" {
		t.Fatalf("Confirm = %v, want upstream error", err)
	}

	if c.State() != StateIdle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if c.LastError() != err {
		t.Errorf("LastError = %v, want %v", c.LastError(), err)
	}
	if n := r.count("mutate:users/u1/sessions") + r.count("invalidate:users/u1/sessions/s1"); n != 0 {
		t.Errorf("cache effects = %d, want 0", n)
	}
	if n := r.count("go_back"); n != 0 {
		t.Errorf("navigations = %d, want 0", n)
	}
	if n := r.count("notify:upstream rejected"); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
	if len(r.audits) != 1 || r.audits[0].Err == nil || r.audits[0].Operator != "operator-1" {
		t.Errorf("audits = %+v, want one failed outcome by operator-1", r.audits)
	}

	// The operator can try again.
	if err := c.Open(); err != nil {
		t.Errorf("Open after failure = %v, want nil", err)
	}
	if c.LastError() != nil {
		t.Error("Open should clear the last error")
	}
}

func TestCoordinator_Cancel(t *testing.T) {
	r := &recorder{}
	c := newTestCoordinator(validReq, r)

	c.Open()
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if c.State() != StateIdle {
		t.Errorf("state = %v, want idle", c.State())
	}
	want := []string{"modal_open", "modal_close"}
	if got := r.Events(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if err := c.Confirm(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Confirm after Cancel = %v, want ErrInvalidState", err)
	}
}

func TestCoordinator_MissingIDsNeverExecute(t *testing.T) {
	tests := []struct {
		name string
		req  domain.RevocationRequest
	}{
		{name: "missing session", req: domain.RevocationRequest{UserID: "u1"}},
		{name: "missing user", req: domain.RevocationRequest{SessionID: "s1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			var reachedExecuting bool
			c := New(tt.req, Config{
				Revoker: r, Cache: r, Navigator: r, Modal: r,
				OnTransition: func(from, to State) {
					if to == StateExecuting {
						reachedExecuting = true
					}
				},
			})

			if c.Available() {
				t.Error("Available should be false without both ids")
			}
			if err := c.Open(); !errors.Is(err, domain.ErrMissingRouteParam) {
				t.Errorf("Open = %v, want ErrMissingRouteParam", err)
			}
			if err := c.Confirm(context.Background()); err == nil {
				t.Error("Confirm should fail")
			}
			if reachedExecuting || len(r.revokes) != 0 {
				t.Error("coordinator must never execute without both ids")
			}
		})
	}
}

func TestCoordinator_SecondConfirmWhileExecuting(t *testing.T) {
	r := &recorder{block: make(chan struct{}), entered: make(chan struct{})}
	c := newTestCoordinator(validReq, r)
	c.Open()

	done := make(chan error)
	go func() { done <- c.Confirm(context.Background()) }()
	<-r.entered

	if c.State() != StateExecuting {
		t.Errorf("state = %v, want executing", c.State())
	}
	if err := c.Confirm(context.Background()); !errors.Is(err, domain.ErrRevocationInProgress) {
		t.Errorf("second Confirm = %v, want ErrRevocationInProgress", err)
	}
	if err := c.Cancel(); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Cancel while executing = %v, want ErrInvalidState", err)
	}

	close(r.block)
	if err := <-done; err != nil {
		t.Fatalf("first Confirm failed: %v", err)
	}

	if len(r.revokes) != 1 {
		t.Errorf("revoke calls = %d, want 1", len(r.revokes))
	}
	if n := r.count("mutate:users/u1/sessions"); n != 1 {
		t.Errorf("cache mutations = %d, want 1", n)
	}
	if n := r.count("go_back"); n != 1 {
		t.Errorf("navigations = %d, want 1", n)
	}
}

func TestCoordinator_DisposeDuringExecution(t *testing.T) {
	r := &recorder{block: make(chan struct{}), entered: make(chan struct{})}
	c := newTestCoordinator(validReq, r)
	c.Open()

	done := make(chan error)
	go func() { done <- c.Confirm(context.Background()) }()
	<-r.entered

	c.Dispose()
	close(r.block)
	if err := <-done; err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	want := []string{"modal_open", "revoke", "mutate:users/u1/sessions", "invalidate:users/u1/sessions/s1"}
	if got := r.Events(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if err := c.Open(); err == nil {
		t.Error("Open after Dispose should fail")
	}
}

func TestCoordinator_DisposeDuringFailedExecution(t *testing.T) {
	r := &recorder{block: make(chan struct{}), entered: make(chan struct{}), err: errors.New("boom")}
	c := newTestCoordinator(validReq, r)
	c.Open()

	done := make(chan error)
	go func() { done <- c.Confirm(context.Background()) }()
	<-r.entered

	c.Dispose()
	close(r.block)
	<-done

	want := []string{"modal_open", "revoke"}
	if got := r.Events(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestCoordinator_SharedGate(t *testing.T) {
	gate := NewGate()
	first := &recorder{block: make(chan struct{}), entered: make(chan struct{})}
	second := &recorder{}

	a := New(validReq, Config{Revoker: first, Gate: gate})
	b := New(validReq, Config{Revoker: second, Gate: gate})
	a.Open()
	b.Open()

	done := make(chan error)
	go func() { done <- a.Confirm(context.Background()) }()
	<-first.entered

	if err := b.Confirm(context.Background()); !errors.Is(err, domain.ErrRevocationInProgress) {
		t.Errorf("Confirm on second view = %v, want ErrRevocationInProgress", err)
	}
	if b.State() != StateConfirmPending {
		t.Errorf("rejected coordinator state = %v, want confirm_pending", b.State())
	}

	close(first.block)
	<-done

	if err := b.Confirm(context.Background()); err != nil {
		t.Errorf("Confirm after release = %v, want nil", err)
	}
}

func TestCoordinator_CallerCancellationDuringExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &recorder{cancel: cancel}
	c := newTestCoordinator(validReq, r)
	c.Open()

	if err := c.Confirm(ctx); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("caller context should be cancelled")
	}

	want := []string{"modal_open", "revoke", "modal_close", "mutate:users/u1/sessions", "invalidate:users/u1/sessions/s1", "go_back"}
	if got := r.Events(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	for i, err := range r.ctxErrs {
		if err != nil {
			t.Errorf("call %d saw context error %v, want nil", i, err)
		}
	}
	if len(r.audits) != 1 || r.audits[0].Err != nil {
		t.Errorf("audits = %+v, want one successful outcome", r.audits)
	}
}

func TestGate_ZeroValue(t *testing.T) {
	var g Gate
	release, ok := g.TryAcquire("k")
	if !ok {
		t.Fatal("TryAcquire on a zero Gate should succeed")
	}
	if _, ok := g.TryAcquire("k"); ok {
		t.Error("second TryAcquire should be rejected")
	}
	release()
	if _, ok := g.TryAcquire("k"); !ok {
		t.Error("TryAcquire after release should succeed")
	}
}

func TestGate_ReleaseIsIdempotent(t *testing.T) {
	g := NewGate()
	release, ok := g.TryAcquire("k")
	if !ok {
		t.Fatal("first TryAcquire should succeed")
	}
	release()
	release()

	if _, ok := g.TryAcquire("k"); !ok {
		t.Error("TryAcquire after release should succeed")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
	if IsRetryable(domain.ErrMissingRouteParam) {
		t.Error("missing ids are not retryable")
	}
	if !IsRetryable(errors.New("timeout")) {
		t.Error("backend errors are retryable")
	}
}
