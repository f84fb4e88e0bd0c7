// Package rooms binds a possibly reactive room identity to presence and topic
// channels.
package rooms

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/odvcencio/furry-live/binding"
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
)

const (
	DefaultRoomType = "_defaultRoomType"
	DefaultRoomID   = "_defaultRoomId"

	// DefaultTypingTimeout is how long a typing flag lives without renewal.
	DefaultTypingTimeout = 1000 * time.Millisecond
)

// Option configures a Room.
type Option func(*Room)

// WithTypingTimeout sets the timeout typing indicators use when their options
// leave it unset.
func WithTypingTimeout(d time.Duration) Option {
	return func(r *Room) { r.typingTimeout = d }
}

// Room identifies a room by type and id, either of which may be reactive.
// Every handle created from a Room is stopped with it.
type Room struct {
	env           binding.Env
	reactor       reactor.Rooms
	typ           reactive.Derived[string]
	id            reactive.Derived[string]
	typingTimeout time.Duration

	handles reactive.Disposers
	stop    reactive.Disposer
}

// New creates a room handle. Empty values fall back to DefaultRoomType and
// DefaultRoomID.
func New(env binding.Env, r reactor.Rooms, typ, id reactive.Maybe[string], opts ...Option) *Room {
	room := &Room{
		env:           env,
		reactor:       r,
		typingTimeout: DefaultTypingTimeout,
		typ: reactive.NewDerived(env.Caps, func() string {
			if v := typ.Resolve(); v != "" {
				return v
			}
			return DefaultRoomType
		}),
		id: reactive.NewDerived(env.Caps, func() string {
			if v := id.Resolve(); v != "" {
				return v
			}
			return DefaultRoomID
		}),
	}
	for _, opt := range opts {
		opt(room)
	}
	room.stop = env.Own(room.handles.Dispose)
	return room
}

// Type is the current room type.
func (r *Room) Type() reactive.Derived[string] { return r.typ }

// ID is the current room id.
func (r *Room) ID() reactive.Derived[string] { return r.id }

// Env returns the binding environment the room was created with.
func (r *Room) Env() binding.Env { return r.env }

// Reactor returns the room channel.
func (r *Room) Reactor() reactor.Rooms { return r.reactor }

// Stop stops every handle created from the room. Safe to call repeatedly.
func (r *Room) Stop() { r.stop() }

// Own ties d to the room and the host scope and returns it as an idempotent
// disposer.
func (r *Room) Own(d reactive.Disposer) reactive.Disposer {
	once := reactive.Once(d)
	r.handles.Add(once)
	r.env.Caps.ScopeEnd(once)
	return once
}

// identity reads the room identity in a tracked context.
func (r *Room) identity() (string, string) {
	return r.typ.Get(), r.id.Get()
}

// current reads the room identity without tracking.
func (r *Room) current() (string, string) {
	return r.typ.Peek(), r.id.Peek()
}

// PublishPresence merges data into the local record of the room as it is now.
// Failures are logged, never returned.
func (r *Room) PublishPresence(data reactor.Presence) {
	typ, id := r.current()
	r.publishPresence(typ, id, data)
}

// UsePublishPresence returns a callable that publishes against whatever room
// identity is current when it is called.
func (r *Room) UsePublishPresence() func(reactor.Presence) {
	return r.PublishPresence
}

func (r *Room) publishPresence(typ, id string, data reactor.Presence) {
	err := r.reactor.PublishPresence(typ, id, data)
	r.logFailure("presence.publish", typ, id, err)
}

// UseJoin holds room membership, following the room identity, until the
// returned disposer runs.
func (r *Room) UseJoin(initial reactive.Maybe[reactor.Presence]) reactive.Disposer {
	return r.Own(r.join(initial.Peek))
}

// join holds room membership for as long as the returned effect lives.
func (r *Room) join(initial func() reactor.Presence) reactive.Disposer {
	return r.env.Caps.Effect(func() reactive.Disposer {
		typ, id := r.identity()
		var data reactor.Presence
		if initial != nil {
			data = initial()
		}
		return reactive.Disposer(r.reactor.JoinRoom(typ, id, data))
	})
}

func (r *Room) logFailure(op, typ, id string, err error) {
	if err == nil {
		return
	}
	attrs := []any{
		slog.String("op", op),
		slog.String("room_type", typ),
		slog.String("room_id", id),
		slog.Any("error", err),
	}
	if errors.Is(err, reactor.ErrNotJoined) {
		r.env.Log().Debug("dropped publish", attrs...)
		return
	}
	r.env.Log().Warn("publish failed", attrs...)
}

// generation invalidates callbacks belonging to a superseded subscription.
type generation struct {
	mu      sync.Mutex
	n       uint64
	stopped bool
}

func (g *generation) next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.n
}

func (g *generation) current(n uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.stopped && g.n == n
}

func (g *generation) stop() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
}
