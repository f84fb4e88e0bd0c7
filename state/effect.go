package state

import (
	"fmt"
	"sync"
)

// Effect runs fn now and again whenever a signal it read changes. fn may return
// a cleanup which runs before the next run and on disposal. The returned
// function disposes the effect and is safe to call more than once.
//
// While a batch is open re-runs are deferred until it closes; a runtime
// configured WithScheduler hands re-runs to that scheduler.
func (rt *Runtime) Effect(fn func() func()) func() {
	if fn == nil {
		return func() {}
	}
	e := &effect{fn: fn}
	e.obs = newObserver(rt, true, e.run)
	e.run()
	return e.dispose
}

type effect struct {
	fn  func() func()
	obs *observer

	mu       sync.Mutex
	cleanup  func()
	disposed bool
	running  bool
	again    bool
}

// run executes the effect until it settles. A change that lands while the
// body is running makes it run again.
func (e *effect) run() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	if e.running {
		e.again = true
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.again = false
		e.mu.Unlock()
	}()

	for runs := 1; ; runs++ {
		if runs > maxSettleRuns {
			panic(fmt.Sprintf("state: effect still re-running after %d runs; it writes what it reads", maxSettleRuns))
		}
		e.mu.Lock()
		cleanup := e.cleanup
		e.cleanup = nil
		e.mu.Unlock()
		if cleanup != nil {
			cleanup()
		}
		e.mu.Lock()
		// the coming evaluation reads whatever the cleanup changed
		e.again = false
		e.mu.Unlock()

		var next func()
		dirty := e.obs.evaluate(func() {
			next = e.fn()
		})

		e.mu.Lock()
		if e.disposed {
			e.mu.Unlock()
			if next != nil {
				next()
			}
			return
		}
		e.cleanup = next
		again := dirty || e.again
		e.mu.Unlock()
		if !again {
			return
		}
	}
}

func (e *effect) dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	cleanup := e.cleanup
	e.cleanup = nil
	e.mu.Unlock()

	e.obs.stop()
	if cleanup != nil {
		cleanup()
	}
}
