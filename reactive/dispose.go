package reactive

import "sync"

// Once wraps d so that only the first call runs it.
func Once(d Disposer) Disposer {
	if d == nil {
		return func() {}
	}
	var once sync.Once
	return func() {
		once.Do(d)
	}
}

// Disposers tracks disposers and releases them in reverse registration order.
type Disposers struct {
	mu       sync.Mutex
	items    []Disposer
	disposed bool
}

// Add registers d. Adding to an already disposed set runs d immediately.
func (d *Disposers) Add(fn Disposer) {
	if d == nil || fn == nil {
		return
	}
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		fn()
		return
	}
	d.items = append(d.items, fn)
	d.mu.Unlock()
}

// Len returns the number of pending disposers.
func (d *Disposers) Len() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Dispose runs every pending disposer, last registered first.
func (d *Disposers) Dispose() {
	if d == nil {
		return
	}
	d.mu.Lock()
	items := d.items
	d.items = nil
	d.disposed = true
	d.mu.Unlock()
	for i := len(items) - 1; i >= 0; i-- {
		items[i]()
	}
}

// Disposed reports whether Dispose has been called.
func (d *Disposers) Disposed() bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}
