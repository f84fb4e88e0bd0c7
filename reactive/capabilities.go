// Package reactive defines the contract a host reactive runtime satisfies so
// that bindings can create cells, derived cells and effects without depending
// on any particular signal implementation.
package reactive

import "errors"

// ErrIncompleteCapabilities is returned when a host omits a required function.
var ErrIncompleteCapabilities = errors.New("reactive: incomplete capability set")

// Disposer releases a subscription, effect or timer. Disposers returned by this
// module are idempotent.
type Disposer func()

// AnyCell is the untyped mutable cell a host hands out.
type AnyCell interface {
	// Get reads the value and registers a dependency in a tracked context.
	Get() any
	// Peek reads the value without registering a dependency.
	Peek() any
	Set(value any)
}

// AnyReadable is the untyped read-only (derived) cell a host hands out.
type AnyReadable interface {
	Get() any
	Peek() any
}

// Capabilities is the set of primitives a host runtime supplies once per
// binding consumer.
//
// RunEffect must re-invoke fn whenever a cell read synchronously inside it
// changes, and must run the previously returned cleanup before each re-run and
// on disposal.
type Capabilities struct {
	MakeCell    func(initial any) AnyCell
	MakeDerived func(fn func() any) AnyReadable
	RunEffect   func(fn func() Disposer) Disposer

	// Batch groups several cell writes into one propagation pass. Optional.
	Batch func(fn func())
	// OnScopeEnd registers a callback for when the enclosing scope is
	// disposed. Optional.
	OnScopeEnd func(fn Disposer)
}

// Validate reports whether the required functions are present.
func (c Capabilities) Validate() error {
	var missing []error
	if c.MakeCell == nil {
		missing = append(missing, errors.New("MakeCell is nil"))
	}
	if c.MakeDerived == nil {
		missing = append(missing, errors.New("MakeDerived is nil"))
	}
	if c.RunEffect == nil {
		missing = append(missing, errors.New("RunEffect is nil"))
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrIncompleteCapabilities}, missing...)...)
}

// Batched runs fn inside the host batch, or directly when the host has none.
func (c Capabilities) Batched(fn func()) {
	if fn == nil {
		return
	}
	if c.Batch == nil {
		fn()
		return
	}
	c.Batch(fn)
}

// ScopeEnd registers fn with the host scope if the host supports scopes.
func (c Capabilities) ScopeEnd(fn Disposer) {
	if c.OnScopeEnd == nil || fn == nil {
		return
	}
	c.OnScopeEnd(fn)
}

// Effect runs fn as a host effect and returns an idempotent disposer.
func (c Capabilities) Effect(fn func() Disposer) Disposer {
	return Once(c.RunEffect(fn))
}
