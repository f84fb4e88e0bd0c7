package state

import (
	"sync"

	"github.com/odvcencio/furry-live/reactive"
)

// Scheduler dispatches subscription callbacks and effect re-runs.
type Scheduler = reactive.Scheduler

// SchedulerFunc adapts a function into a Scheduler.
type SchedulerFunc = reactive.SchedulerFunc

// DirectScheduler runs callbacks immediately in the caller goroutine.
var DirectScheduler = reactive.DirectScheduler

// Queue batches callbacks for explicit flushing. It is the usual way to hand
// pushes that arrive on other goroutines to the goroutine owning a Runtime.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	notify  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Schedule enqueues a callback for later flushing.
func (q *Queue) Schedule(fn func()) {
	if q == nil || fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	if q.notify != nil {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}
}

// Ready is signalled after Schedule; owners select on it and Flush.
func (q *Queue) Ready() <-chan struct{} {
	if q == nil {
		return nil
	}
	return q.notify
}

// Len returns the number of queued callbacks.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush executes queued callbacks and returns the count.
func (q *Queue) Flush() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Drain flushes until no callbacks remain, including ones scheduled by the
// callbacks themselves, and returns the total count.
func (q *Queue) Drain() int {
	total := 0
	for {
		n := q.Flush()
		if n == 0 {
			return total
		}
		total += n
	}
}
