package console

import "sync"

// requestView is the presentation of a revoke driven by a single request.
// Going back records the list location the client should return to.
type requestView struct {
	mu     sync.Mutex
	back   string
	wentTo string
	err    error
}

func (v *requestView) GoBack() {
	v.mu.Lock()
	v.wentTo = v.back
	v.mu.Unlock()
}

func (v *requestView) Open()  {}
func (v *requestView) Close() {}

func (v *requestView) RevocationFailed(err error) {
	v.mu.Lock()
	v.err = err
	v.mu.Unlock()
}

func (v *requestView) location() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.wentTo == "" {
		return v.back
	}
	return v.wentTo
}
