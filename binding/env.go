// Package binding carries what every binding needs from its host: the
// reactive capability set, where backend pushes are delivered, a logger and a
// clock.
package binding

import (
	"log/slog"

	"github.com/odvcencio/furry-live/clock"
	"github.com/odvcencio/furry-live/reactive"
)

// Env is shared by the bindings created for one consumer.
type Env struct {
	Caps reactive.Capabilities
	// Dispatcher receives every push from the backend, and every timer
	// expiry, before it touches a cell. Nil delivers on the pushing
	// goroutine, which is only safe when that is the runtime's own.
	Dispatcher reactive.Scheduler
	Logger     *slog.Logger
	Clock      clock.Clock
}

// Option configures NewEnv.
type Option func(*Env)

// WithDispatcher routes backend pushes through s.
func WithDispatcher(s reactive.Scheduler) Option {
	return func(e *Env) { e.Dispatcher = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Env) { e.Logger = l }
}

// WithClock sets the clock used for timers.
func WithClock(c clock.Clock) Option {
	return func(e *Env) { e.Clock = c }
}

// NewEnv validates caps and applies opts.
func NewEnv(caps reactive.Capabilities, opts ...Option) (Env, error) {
	if err := caps.Validate(); err != nil {
		return Env{}, err
	}
	env := Env{Caps: caps}
	for _, opt := range opts {
		opt(&env)
	}
	return env, nil
}

// MustEnv is NewEnv that panics on an incomplete capability set.
func MustEnv(caps reactive.Capabilities, opts ...Option) Env {
	env, err := NewEnv(caps, opts...)
	if err != nil {
		panic(err)
	}
	return env
}

// Dispatch delivers fn through the dispatcher and applies it as one batch.
func (e Env) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	run := func() { e.Caps.Batched(fn) }
	if e.Dispatcher == nil {
		run()
		return
	}
	e.Dispatcher.Schedule(run)
}

// Own makes d idempotent and registers it with the host scope.
func (e Env) Own(d reactive.Disposer) reactive.Disposer {
	once := reactive.Once(d)
	e.Caps.ScopeEnd(once)
	return once
}

// Log returns the logger, never nil.
func (e Env) Log() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// Now returns the clock, never nil.
func (e Env) Now() clock.Clock {
	if e.Clock == nil {
		return clock.Real()
	}
	return e.Clock
}
