// Package timeout provides a single-slot cancelable delayed callback.
package timeout

import (
	"sync"
	"time"

	"github.com/odvcencio/furry-live/clock"
	"github.com/odvcencio/furry-live/reactive"
)

// Timeout holds at most one pending callback. Arming it again cancels the
// previous callback first.
type Timeout struct {
	clock clock.Clock

	mu    sync.Mutex
	timer clock.Timer
	gen   uint64
}

// New creates a Timeout. When onScopeEnd is non-nil the timeout is cleared on
// scope disposal so no callback fires into torn-down state.
func New(clk clock.Clock, onScopeEnd func(reactive.Disposer)) *Timeout {
	if clk == nil {
		clk = clock.Real()
	}
	t := &Timeout{clock: clk}
	if onScopeEnd != nil {
		onScopeEnd(t.Clear)
	}
	return t
}

// Set cancels any pending callback and arms fn to run after delay.
func (t *Timeout) Set(delay time.Duration, fn func()) {
	if t == nil || fn == nil {
		return
	}
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(delay, func() {
		t.mu.Lock()
		if t.gen != gen || t.timer == nil {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
	t.mu.Unlock()
}

// Clear cancels the pending callback, if any, without running it.
func (t *Timeout) Clear() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Armed reports whether a callback is pending.
func (t *Timeout) Armed() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
