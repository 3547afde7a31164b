package tui

import "sync"

// ScreenKind identifies a console screen.
type ScreenKind int

// Screen kinds
const (
	ScreenList ScreenKind = iota
	ScreenDetail
)

// Screen is one entry of the navigation stack.
type Screen struct {
	Kind      ScreenKind
	SessionID string
}

// Stack is the console's navigation history. The root screen is never popped.
type Stack struct {
	screens []Screen
}

// NewStack creates a stack rooted at root.
func NewStack(root Screen) *Stack {
	return &Stack{screens: []Screen{root}}
}

// Push opens s on top of the current screen.
func (s *Stack) Push(screen Screen) {
	s.screens = append(s.screens, screen)
}

// Pop returns to the previous screen. It reports false at the root.
func (s *Stack) Pop() bool {
	if len(s.screens) <= 1 {
		return false
	}
	s.screens = s.screens[:len(s.screens)-1]
	return true
}

// Current returns the screen on top.
func (s *Stack) Current() Screen {
	return s.screens[len(s.screens)-1]
}

// Depth returns the number of screens.
func (s *Stack) Depth() int {
	return len(s.screens)
}

type effectKind int

const (
	effectOpenModal effectKind = iota
	effectCloseModal
	effectGoBack
	effectFailed
)

type effect struct {
	kind effectKind
	err  error
}

// viewEffects is the detail screen as the revoke coordinator sees it. The
// coordinator may call it off the event loop, so calls are queued and
// applied by Update in order.
type viewEffects struct {
	mu    sync.Mutex
	queue []effect
}

func (v *viewEffects) push(e effect) {
	v.mu.Lock()
	v.queue = append(v.queue, e)
	v.mu.Unlock()
}

func (v *viewEffects) drain() []effect {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.queue
	v.queue = nil
	return out
}

func (v *viewEffects) Open()                      { v.push(effect{kind: effectOpenModal}) }
func (v *viewEffects) Close()                     { v.push(effect{kind: effectCloseModal}) }
func (v *viewEffects) GoBack()                    { v.push(effect{kind: effectGoBack}) }
func (v *viewEffects) RevocationFailed(err error) { v.push(effect{kind: effectFailed, err: err}) }
