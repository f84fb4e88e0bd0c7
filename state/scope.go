package state

import "sync"

// Scope owns disposal callbacks for a unit of UI or work. Disposing a scope
// disposes its children first, then its own callbacks in reverse order.
type Scope struct {
	mu       sync.Mutex
	onDone   []func()
	children []*Scope
	disposed bool
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Child creates a scope disposed together with s.
func (s *Scope) Child() *Scope {
	child := NewScope()
	if s == nil {
		return child
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		child.Dispose()
		return child
	}
	s.children = append(s.children, child)
	s.mu.Unlock()
	return child
}

// OnDispose registers fn. Registering on a disposed scope runs fn immediately.
func (s *Scope) OnDispose(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		fn()
		return
	}
	s.onDone = append(s.onDone, fn)
	s.mu.Unlock()
}

// Disposed reports whether Dispose has run.
func (s *Scope) Disposed() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Dispose runs every registered callback once.
func (s *Scope) Dispose() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	children := s.children
	onDone := s.onDone
	s.children = nil
	s.onDone = nil
	s.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}
	for i := len(onDone) - 1; i >= 0; i-- {
		onDone[i]()
	}
}
