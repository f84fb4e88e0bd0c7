package state

import (
	"fmt"
	"sync"
)

// Runtime tracks which signals an effect or computed reads while it evaluates
// and defers effect re-runs while a batch is open.
//
// Tracked evaluation belongs to one goroutine at a time. Writes coming from
// other goroutines should be marshalled through a Queue flushed by the owner.
type Runtime struct {
	mu        sync.Mutex
	stack     []*observer
	batch     int
	pending   []*observer
	scheduler Scheduler
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithScheduler routes effect re-runs through scheduler instead of running
// them synchronously.
func WithScheduler(scheduler Scheduler) RuntimeOption {
	return func(rt *Runtime) {
		rt.scheduler = scheduler
	}
}

// NewRuntime creates a runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Batch runs fn and defers effects it triggers until the outermost batch ends,
// so observers never see a partial update.
func (rt *Runtime) Batch(fn func()) {
	if fn == nil {
		return
	}
	if rt == nil {
		fn()
		return
	}
	rt.mu.Lock()
	rt.batch++
	rt.mu.Unlock()
	defer rt.endBatch()
	fn()
}

// Untracked runs fn without recording dependencies for the current observer.
func (rt *Runtime) Untracked(fn func()) {
	if fn == nil {
		return
	}
	if rt == nil {
		fn()
		return
	}
	rt.push(nil)
	defer rt.pop()
	fn()
}

func (rt *Runtime) endBatch() {
	rt.mu.Lock()
	rt.batch--
	if rt.batch > 0 {
		rt.mu.Unlock()
		return
	}
	pending := rt.pending
	rt.pending = nil
	for _, o := range pending {
		o.queued = false
	}
	rt.mu.Unlock()
	for _, o := range pending {
		rt.dispatch(o)
	}
}

// track records dep for the observer currently evaluating.
func (rt *Runtime) track(dep Subscribable) {
	rt.mu.Lock()
	var top *observer
	if n := len(rt.stack); n > 0 {
		top = rt.stack[n-1]
	}
	rt.mu.Unlock()
	if top != nil {
		top.collect(dep)
	}
}

func (rt *Runtime) push(o *observer) {
	rt.mu.Lock()
	rt.stack = append(rt.stack, o)
	rt.mu.Unlock()
}

func (rt *Runtime) pop() {
	rt.mu.Lock()
	if n := len(rt.stack); n > 0 {
		rt.stack = rt.stack[:n-1]
	}
	rt.mu.Unlock()
}

// schedule queues o while a batch is open and dispatches it otherwise.
func (rt *Runtime) schedule(o *observer) {
	rt.mu.Lock()
	if rt.batch > 0 {
		if !o.queued {
			o.queued = true
			rt.pending = append(rt.pending, o)
		}
		rt.mu.Unlock()
		return
	}
	rt.mu.Unlock()
	rt.dispatch(o)
}

func (rt *Runtime) dispatch(o *observer) {
	if rt.scheduler == nil {
		o.fire()
		return
	}
	rt.scheduler.Schedule(o.fire)
}

// maxSettleRuns bounds how often one evaluation may repeat because its own
// dependencies changed while it ran.
const maxSettleRuns = 100

// observer is the dependency-collecting half of an effect or computed.
type observer struct {
	rt       *Runtime
	onChange func()
	deferred bool

	mu      sync.Mutex
	seen    map[Subscribable]struct{}
	subs    Subscriptions
	dirty   bool
	stopped bool
	queued  bool
}

func newObserver(rt *Runtime, deferred bool, onChange func()) *observer {
	return &observer{rt: rt, deferred: deferred, onChange: onChange}
}

// evaluate runs fn with o on top of the tracking stack. Each dependency is
// subscribed the first time fn reads it, so a change made while fn is still
// running is not lost: evaluate reports it and the caller runs fn again.
func (o *observer) evaluate(fn func()) (dirty bool) {
	o.subs.Clear()
	o.mu.Lock()
	o.seen = make(map[Subscribable]struct{})
	o.dirty = false
	o.mu.Unlock()

	o.rt.push(o)
	func() {
		defer o.rt.pop()
		fn()
	}()

	o.mu.Lock()
	o.seen = nil
	stopped := o.stopped
	dirty = o.dirty && !stopped
	o.dirty = false
	o.mu.Unlock()
	if stopped {
		o.subs.Clear()
	}
	return dirty
}

// settle evaluates fn until a run completes without its dependencies
// changing underneath it.
func (o *observer) settle(fn func()) {
	for i := 0; o.evaluate(fn); i++ {
		if i+1 >= maxSettleRuns {
			panic(fmt.Sprintf("state: dependencies still changing after %d runs; a cycle writes what it reads", maxSettleRuns))
		}
	}
}

func (o *observer) collect(dep Subscribable) {
	o.mu.Lock()
	if o.seen == nil || o.stopped {
		o.mu.Unlock()
		return
	}
	if _, ok := o.seen[dep]; ok {
		o.mu.Unlock()
		return
	}
	o.seen[dep] = struct{}{}
	o.mu.Unlock()
	o.subs.Subscribe(dep, o.changed)
}

func (o *observer) changed() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	if o.seen != nil {
		// still evaluating; evaluate picks this up when fn returns
		o.dirty = true
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	if !o.deferred {
		o.fire()
		return
	}
	o.rt.schedule(o)
}

func (o *observer) fire() {
	o.mu.Lock()
	stopped := o.stopped
	o.mu.Unlock()
	if stopped || o.onChange == nil {
		return
	}
	o.onChange()
}

func (o *observer) stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
	o.subs.Clear()
}
