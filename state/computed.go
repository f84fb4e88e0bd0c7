package state

// Computed derives its value from the signals compute reads. Dependencies are
// discovered again on every evaluation.
type Computed[T any] struct {
	signal  *Signal[T]
	compute func() T
	obs     *observer
}

// NewComputedIn creates a derived value whose dependencies are tracked by rt.
// Reads of the computed are themselves tracked.
func NewComputedIn[T any](rt *Runtime, compute func() T) *Computed[T] {
	compute = orZero(compute)
	var zero T
	c := &Computed[T]{
		signal:  NewSignalIn(rt, zero),
		compute: compute,
	}
	c.obs = newObserver(rt, false, c.recompute)
	c.recompute()
	return c
}

func orZero[T any](compute func() T) func() T {
	if compute != nil {
		return compute
	}
	return func() T {
		var zero T
		return zero
	}
}

// SetEqualFunc configures the equality check used to suppress redundant updates.
func (c *Computed[T]) SetEqualFunc(fn EqualFunc[T]) {
	if c == nil {
		return
	}
	c.signal.SetEqualFunc(fn)
}

// Get returns the current computed value.
func (c *Computed[T]) Get() T {
	if c == nil {
		var zero T
		return zero
	}
	return c.signal.Get()
}

// Peek returns the current computed value without recording a dependency.
func (c *Computed[T]) Peek() T {
	if c == nil {
		var zero T
		return zero
	}
	return c.signal.Peek()
}

// Subscribe registers a listener for change notifications.
func (c *Computed[T]) Subscribe(fn func()) func() {
	if c == nil {
		return func() {}
	}
	return c.signal.Subscribe(fn)
}

// SubscribeWithScheduler registers a listener using a scheduler.
// If scheduler is nil, callbacks run synchronously.
func (c *Computed[T]) SubscribeWithScheduler(scheduler Scheduler, fn func()) func() {
	if c == nil {
		return func() {}
	}
	return c.signal.SubscribeWithScheduler(scheduler, fn)
}

// Stop unsubscribes from dependency updates.
func (c *Computed[T]) Stop() {
	if c == nil {
		return
	}
	c.obs.stop()
}

func (c *Computed[T]) recompute() {
	if c == nil {
		return
	}
	var next T
	c.obs.settle(func() {
		next = c.compute()
	})
	c.signal.Set(next)
}
