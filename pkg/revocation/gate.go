package revocation

import "sync"

// Gate admits at most one revoke per key at a time across coordinators.
// The zero value is ready to use.
type Gate struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGate creates an empty gate.
func NewGate() *Gate {
	return &Gate{inflight: make(map[string]struct{})}
}

// TryAcquire claims key. It returns false if key is already claimed.
func (g *Gate) TryAcquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inflight == nil {
		g.inflight = make(map[string]struct{})
	}
	if _, busy := g.inflight[key]; busy {
		return nil, false
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, true
}
