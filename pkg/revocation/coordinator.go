// Package revocation drives the operator's revoke-session action.
//
// A Coordinator moves through Idle → ConfirmPending → Executing and then
// Succeeded, or Failed and back to Idle. The session-list cache is mutated
// only after the revoke command is acknowledged, and only on success.
package revocation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tendant/simple-idm-console/pkg/cache"
	"github.com/tendant/simple-idm-console/pkg/domain"
)

// State is a coordinator state.
type State int

// Coordinator states.
const (
	StateIdle State = iota
	StateConfirmPending
	StateExecuting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirmPending:
		return "confirm_pending"
	case StateExecuting:
		return "executing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Revoker issues the revoke command to the backend.
type Revoker interface {
	RevokeSession(ctx context.Context, req domain.RevocationRequest) error
}

// ListCache revalidates the session list of a user and drops the cached
// detail of a revoked session.
type ListCache interface {
	Mutate(ctx context.Context, key string) error
	Invalidate(ctx context.Context, key string) error
}

// Navigator returns to the previous view.
type Navigator interface {
	GoBack()
}

// Modal is the confirmation dialog.
type Modal interface {
	Open()
	Close()
}

// Notifier surfaces a failed revoke to the operator.
type Notifier interface {
	RevocationFailed(err error)
}

// Outcome describes a completed revoke command.
type Outcome struct {
	Request     domain.RevocationRequest
	Operator    string
	Err         error
	Duration    time.Duration
	CompletedAt time.Time
}

// AuditRecorder records completed revoke commands.
type AuditRecorder interface {
	RecordRevocation(ctx context.Context, outcome Outcome)
}

// Config holds a coordinator's collaborators.
type Config struct {
	Revoker   Revoker
	Cache     ListCache
	Navigator Navigator
	Modal     Modal
	Notifier  Notifier
	Audit     AuditRecorder
	// Gate, when shared, rejects a second revoke of the same session from another coordinator.
	Gate     *Gate
	Operator string
	Logger   *slog.Logger
	// OnTransition is called after every state change, outside the lock.
	OnTransition func(from, to State)
}

// Coordinator is the revoke action of one session detail view.
type Coordinator struct {
	req    domain.RevocationRequest
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	lastErr  error
	disposed bool
}

// New creates a coordinator for the session identified by req.
func New(req domain.RevocationRequest, cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		req:    req,
		config: cfg,
		logger: logger.With("user_id", req.UserID, "session_id", req.SessionID),
		state:  StateIdle,
	}
}

// Available reports whether the revoke control may be offered at all.
func (c *Coordinator) Available() bool {
	return c.req.Validate() == nil
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error of the most recent failed revoke, if any.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Open asks for confirmation. No backend call is made.
func (c *Coordinator) Open() error {
	if err := c.req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return domain.ErrViewDisposed
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return domain.ErrInvalidState
	}
	c.state = StateConfirmPending
	c.lastErr = nil
	c.mu.Unlock()

	c.transition(StateIdle, StateConfirmPending)
	if c.config.Modal != nil {
		c.config.Modal.Open()
	}
	return nil
}

// Cancel dismisses the confirmation without contacting the backend.
func (c *Coordinator) Cancel() error {
	c.mu.Lock()
	if c.state != StateConfirmPending {
		c.mu.Unlock()
		return domain.ErrInvalidState
	}
	c.state = StateIdle
	disposed := c.disposed
	c.mu.Unlock()

	c.transition(StateConfirmPending, StateIdle)
	if !disposed && c.config.Modal != nil {
		c.config.Modal.Close()
	}
	return nil
}

// Confirm issues the revoke command and applies its outcome. On success the
// modal closes, the user's session list is revalidated and the view goes
// back, in that order. On failure nothing but the modal is touched, the
// error is surfaced and returned, and the coordinator is Idle again.
// A Confirm while another is executing returns ErrRevocationInProgress.
// Once executing, cancellation of ctx no longer interrupts the command or
// its cache effects.
func (c *Coordinator) Confirm(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConfirmPending:
	case StateExecuting:
		c.mu.Unlock()
		return domain.ErrRevocationInProgress
	default:
		c.mu.Unlock()
		return domain.ErrInvalidState
	}
	if err := c.req.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}

	var release func()
	if c.config.Gate != nil {
		var ok bool
		release, ok = c.config.Gate.TryAcquire(cache.SessionKey(c.req.UserID, c.req.SessionID))
		if !ok {
			c.mu.Unlock()
			return domain.ErrRevocationInProgress
		}
	}
	c.state = StateExecuting
	c.mu.Unlock()

	if release != nil {
		defer release()
	}
	c.transition(StateConfirmPending, StateExecuting)

	execCtx := context.WithoutCancel(ctx)
	started := time.Now()
	err := c.config.Revoker.RevokeSession(execCtx, c.req)
	c.audit(execCtx, err, started)

	if err != nil {
		return c.fail(err)
	}
	c.succeed(execCtx)
	return nil
}

// Dispose marks the owning view as torn down. An in-flight revoke still
// completes and still revalidates the shared session list, but no longer
// touches the modal, the navigation stack or the notifier.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()
}

func (c *Coordinator) succeed(ctx context.Context) {
	c.mu.Lock()
	c.state = StateSucceeded
	disposed := c.disposed
	c.mu.Unlock()

	c.transition(StateExecuting, StateSucceeded)
	c.logger.Info("session revoked")

	if !disposed && c.config.Modal != nil {
		c.config.Modal.Close()
	}

	if c.config.Cache != nil {
		if err := c.config.Cache.Mutate(ctx, cache.SessionListKey(c.req.UserID)); err != nil {
			c.logger.Warn("failed to revalidate session list", "error", err)
		}
		if err := c.config.Cache.Invalidate(ctx, cache.SessionKey(c.req.UserID, c.req.SessionID)); err != nil {
			c.logger.Warn("failed to drop revoked session", "error", err)
		}
	}

	if disposed {
		c.logger.Debug("view disposed before revoke completed, skipping navigation")
		return
	}
	if c.config.Navigator != nil {
		c.config.Navigator.GoBack()
	}
}

func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	c.state = StateFailed
	c.lastErr = err
	c.mu.Unlock()
	c.transition(StateExecuting, StateFailed)

	c.mu.Lock()
	c.state = StateIdle
	disposed := c.disposed
	c.mu.Unlock()
	c.transition(StateFailed, StateIdle)

	c.logger.Warn("session revoke failed", "error", err)

	if !disposed {
		if c.config.Modal != nil {
			c.config.Modal.Close()
		}
		if c.config.Notifier != nil {
			c.config.Notifier.RevocationFailed(err)
		}
	}
	return err
}

func (c *Coordinator) audit(ctx context.Context, err error, started time.Time) {
	if c.config.Audit == nil {
		return
	}
	now := time.Now()
	c.config.Audit.RecordRevocation(ctx, Outcome{
		Request:     c.req,
		Operator:    c.config.Operator,
		Err:         err,
		Duration:    now.Sub(started),
		CompletedAt: now,
	})
}

func (c *Coordinator) transition(from, to State) {
	if c.config.OnTransition != nil {
		c.config.OnTransition(from, to)
	}
}

// IsRetryable reports whether err leaves the coordinator ready for another attempt.
func IsRetryable(err error) bool {
	return err != nil &&
		!errors.Is(err, domain.ErrMissingRouteParam) &&
		!errors.Is(err, domain.ErrViewDisposed)
}
