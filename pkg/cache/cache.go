// Package cache provides a keyed fetch cache with explicit revalidation.
//
// A Store serves entries from a Backend and falls back to a Fetcher on a
// miss. Fetch errors are never cached, so a retry always reaches the source.
// Mutate drops an entry and revalidates it; fetches that started before the
// mutation never overwrite the revalidated entry.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 5 * time.Minute

// Fetch outcomes reported to Config.Observe.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Fetcher loads the value for key from the source of truth.
type Fetcher func(ctx context.Context, key string) ([]byte, error)

// Backend stores cached bytes.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Result is what a read of a key observed.
type Result struct {
	Data      []byte
	Err       error
	IsLoading bool
}

// Config holds Store configuration.
type Config struct {
	TTL     time.Duration
	Logger  *slog.Logger
	Observe func(outcome string)
}

// Store is a keyed fetch cache.
type Store struct {
	backend Backend
	fetch   Fetcher
	ttl     time.Duration
	logger  *slog.Logger
	observe func(outcome string)

	group singleflight.Group

	mu          sync.Mutex
	inflight    map[string]int
	generations map[string]uint64
}

// New creates a Store.
func New(backend Backend, fetch Fetcher, cfg Config) *Store {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		backend:     backend,
		fetch:       fetch,
		ttl:         cfg.TTL,
		logger:      cfg.Logger,
		observe:     cfg.Observe,
		inflight:    make(map[string]int),
		generations: make(map[string]uint64),
	}
}

// Get returns the cached value for key, fetching it on a miss.
func (s *Store) Get(ctx context.Context, key string) Result {
	data, ok, err := s.backend.Load(ctx, key)
	if err != nil {
		s.logger.Warn("cache load failed", "key", key, "error", err)
	}
	if ok {
		s.record(OutcomeHit)
		return Result{Data: data}
	}
	return s.revalidate(ctx, key)
}

// Loading reports whether a fetch for key is in flight.
func (s *Store) Loading(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[key] > 0
}

// Invalidate drops the entry for key. The next Get fetches it again.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	s.mu.Lock()
	s.generations[key]++
	s.mu.Unlock()
	s.group.Forget(key)

	return s.backend.Delete(ctx, key)
}

// Mutate drops the entry for key and revalidates it. Only a failure to drop
// the entry is returned; revalidation errors are logged and left for the
// next Get to retry.
func (s *Store) Mutate(ctx context.Context, key string) error {
	if err := s.Invalidate(ctx, key); err != nil {
		return err
	}

	if res := s.revalidate(ctx, key); res.Err != nil {
		s.logger.Warn("cache revalidation failed", "key", key, "error", res.Err)
	}
	return nil
}

func (s *Store) revalidate(ctx context.Context, key string) Result {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		s.mu.Lock()
		gen := s.generations[key]
		s.inflight[key]++
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			s.inflight[key]--
			if s.inflight[key] <= 0 {
				delete(s.inflight, key)
			}
			s.mu.Unlock()
		}()

		data, err := s.fetch(ctx, key)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		current := s.generations[key] == gen
		s.mu.Unlock()
		if current {
			if err := s.backend.Store(ctx, key, data, s.ttl); err != nil {
				s.logger.Warn("cache store failed", "key", key, "error", err)
			}
		}
		return data, nil
	})
	if err != nil {
		s.record(OutcomeError)
		return Result{Err: err}
	}
	s.record(OutcomeMiss)
	return Result{Data: v.([]byte)}
}

func (s *Store) record(outcome string) {
	if s.observe != nil {
		s.observe(outcome)
	}
}
