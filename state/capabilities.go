package state

import (
	"reflect"

	"github.com/odvcencio/furry-live/reactive"
)

// Capabilities adapts rt to the binding contract. Derived cells and effects
// created through the returned set are disposed with scope; a nil scope leaves
// their lifetime to the caller.
func (rt *Runtime) Capabilities(scope *Scope) reactive.Capabilities {
	return reactive.Capabilities{
		MakeCell: func(initial any) reactive.AnyCell {
			sig := NewSignalIn[any](rt, initial)
			sig.SetEqualFunc(equalAny)
			return anyCell{sig: sig}
		},
		MakeDerived: func(fn func() any) reactive.AnyReadable {
			c := NewComputedIn(rt, fn)
			c.SetEqualFunc(equalAny)
			scope.OnDispose(c.Stop)
			return c
		},
		RunEffect: func(fn func() reactive.Disposer) reactive.Disposer {
			stop := rt.Effect(func() func() {
				if cleanup := fn(); cleanup != nil {
					return cleanup
				}
				return nil
			})
			scope.OnDispose(stop)
			return stop
		},
		Batch: rt.Batch,
		OnScopeEnd: func(fn reactive.Disposer) {
			scope.OnDispose(fn)
		},
	}
}

type anyCell struct {
	sig *Signal[any]
}

func (c anyCell) Get() any      { return c.sig.Get() }
func (c anyCell) Peek() any     { return c.sig.Peek() }
func (c anyCell) Set(value any) { c.sig.Set(value) }

// equalAny treats values as equal only when both hold the same comparable
// type and compare equal. Maps, slices and funcs always count as changed.
func equalAny(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	defer func() {
		// structs holding interfaces can still panic on ==
		_ = recover()
	}()
	return a == b
}
