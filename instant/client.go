// Package instant is the client façade: it threads one capability set and one
// reactor through every binding and stops them all on Close.
package instant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/odvcencio/furry-live/binding"
	"github.com/odvcencio/furry-live/clock"
	"github.com/odvcencio/furry-live/config"
	"github.com/odvcencio/furry-live/cursors"
	"github.com/odvcencio/furry-live/query"
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
	"github.com/odvcencio/furry-live/rooms"
)

// Option configures a Client.
type Option func(*settings)

type settings struct {
	env    []binding.Option
	policy *query.Policy
	cfg    config.Config
}

// WithLogger sets the logger shared by every binding.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.env = append(s.env, binding.WithLogger(l)) }
}

// WithClock sets the clock used by timers.
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.env = append(s.env, binding.WithClock(c)) }
}

// WithDispatcher routes backend pushes through d before they touch a cell.
func WithDispatcher(d reactive.Scheduler) Option {
	return func(s *settings) { s.env = append(s.env, binding.WithDispatcher(d)) }
}

// WithQueryPolicy overrides the null-query policy from the configuration.
func WithQueryPolicy(p query.Policy) Option {
	return func(s *settings) { s.policy = &p }
}

// WithConfig supplies binding defaults.
func WithConfig(cfg config.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// Client binds one reactor to one host runtime.
type Client struct {
	reactor reactor.Reactor
	env     binding.Env
	policy  query.Policy
	cfg     config.Config

	handles reactive.Disposers
}

// New creates a client. It fails when caps is incomplete.
//
// Without WithDispatcher, pushes and timer expiries touch cells on whatever
// goroutine delivers them. That is only safe when the reactor delivers on the
// runtime's goroutine and the clock is manual. Hosts using real timers or a
// networked reactor pass a dispatcher, such as a state.Queue drained by the
// goroutine that owns the runtime.
func New(r reactor.Reactor, caps reactive.Capabilities, opts ...Option) (*Client, error) {
	s := settings{cfg: config.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	env, err := binding.NewEnv(caps, s.env...)
	if err != nil {
		return nil, err
	}
	policy := query.Policy{
		KeepLoadingOnNull: s.cfg.QueryKeepLoadingOnNull,
		ClearDataOnNull:   s.cfg.QueryClearDataOnNull,
	}
	if s.policy != nil {
		policy = *s.policy
	}
	return &Client{reactor: r, env: env, policy: policy, cfg: s.cfg}, nil
}

// Env returns the binding environment.
func (c *Client) Env() binding.Env { return c.env }

// Reactor returns the underlying reactor.
func (c *Client) Reactor() reactor.Reactor { return c.reactor }

// Close stops every handle created through the client, most recent first.
func (c *Client) Close() {
	c.handles.Dispose()
}

func (c *Client) track(d reactive.Disposer) reactive.Disposer {
	d = reactive.Once(d)
	c.handles.Add(d)
	return d
}

// UseQuery binds q. See query.Use.
func (c *Client) UseQuery(q reactive.Maybe[reactor.Query], opts reactive.Maybe[*query.Options]) *query.State {
	st := query.Use(c.env, c.reactor, q, opts, c.policy)
	c.track(st.Stop)
	return st
}

// QueryOnce runs q a single time.
func (c *Client) QueryOnce(ctx context.Context, q reactor.Query, opts *query.Options) (reactor.QueryResult, error) {
	return query.Once(ctx, c.reactor, q, opts)
}

// Transact applies chunks.
func (c *Client) Transact(ctx context.Context, chunks ...reactor.TxChunk) (reactor.TxResult, error) {
	return c.reactor.Transact(ctx, chunks...)
}

// Room returns a room handle.
func (c *Client) Room(typ, id reactive.Maybe[string]) *rooms.Room {
	room := rooms.New(c.env, c.reactor, typ, id, rooms.WithTypingTimeout(c.cfg.TypingTimeout))
	c.track(room.Stop)
	return room
}

// UseCursors creates a cursor space in room. Clamp, throttle and z-index
// fall back to the client configuration.
func (c *Client) UseCursors(room *rooms.Room, opts reactive.Maybe[cursors.Options]) *cursors.Handle {
	withDefaults := reactive.NewDerived(c.env.Caps, func() cursors.Options {
		o := opts.Resolve()
		if c.cfg.CursorClamp {
			o.Clamp = true
		}
		if o.Throttle == 0 {
			o.Throttle = c.cfg.CursorThrottle
		}
		if o.ZIndex == nil && c.cfg.CursorZIndex != cursors.DefaultZIndex {
			z := c.cfg.CursorZIndex
			o.ZIndex = &z
		}
		return o
	})
	h := cursors.Use(room, reactive.FromCell[cursors.Options](withDefaults))
	c.track(h.Stop)
	return h
}

// ID returns a new entity id.
func ID() string {
	return uuid.NewString()
}
