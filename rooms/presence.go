package rooms

import (
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
)

// PresenceHandle is the live presence of a room.
type PresenceHandle struct {
	Peers     reactive.Cell[map[string]reactor.Presence]
	IsLoading reactive.Cell[bool]
	User      reactive.Cell[reactor.Presence]
	Error     reactive.Cell[error]

	room *Room
	stop reactive.Disposer
}

// UsePresence subscribes to the room presence, scoped by opts. It
// re-subscribes whenever the room identity or opts change and seeds the cells
// from the synchronous snapshot first.
func (r *Room) UsePresence(opts reactive.Maybe[reactor.PresenceOpts]) *PresenceHandle {
	caps := r.env.Caps
	h := &PresenceHandle{
		Peers:     reactive.NewCell(caps, map[string]reactor.Presence{}),
		IsLoading: reactive.NewCell(caps, false),
		User:      reactive.NewCell[reactor.Presence](caps, nil),
		Error:     reactive.NewCell[error](caps, nil),
		room:      r,
	}
	gen := &generation{}
	effect := caps.Effect(func() reactive.Disposer {
		typ, id := r.identity()
		o := opts.Resolve()
		g := gen.next()

		snap, ok := r.reactor.Presence(typ, id, o)
		if !ok {
			snap = reactor.PresenceSnapshot{Peers: map[string]reactor.Presence{}, IsLoading: true}
		}
		caps.Batched(func() { h.apply(snap) })

		unsub := r.reactor.SubscribePresence(typ, id, o, func(s reactor.PresenceSnapshot) {
			r.env.Dispatch(func() {
				if gen.current(g) {
					h.apply(s)
				}
			})
		})
		return reactive.Disposer(unsub)
	})
	h.stop = r.Own(func() {
		gen.stop()
		effect()
	})
	return h
}

func (h *PresenceHandle) apply(s reactor.PresenceSnapshot) {
	peers := s.Peers
	if peers == nil {
		peers = map[string]reactor.Presence{}
	}
	h.Peers.Set(peers)
	h.IsLoading.Set(s.IsLoading)
	h.User.Set(s.User)
	h.Error.Set(s.Error)
}

// PublishPresence merges data into the local record of the room as it is at
// call time. Publishing before the room is joined is dropped.
func (h *PresenceHandle) PublishPresence(data reactor.Presence) {
	h.room.PublishPresence(data)
}

// Stop unsubscribes. Safe to call repeatedly.
func (h *PresenceHandle) Stop() {
	h.stop()
}

// UseSyncPresence joins the room and keeps data published. Membership follows
// the room identity only; changes to data or deps republish without a rejoin.
func (r *Room) UseSyncPresence(data reactive.Maybe[reactor.Presence], deps reactive.Maybe[[]any]) reactive.Disposer {
	stopJoin := r.join(data.Peek)
	stopPublish := r.env.Caps.Effect(func() reactive.Disposer {
		typ, id := r.identity()
		d := data.Resolve()
		deps.Resolve()
		if d != nil {
			r.publishPresence(typ, id, d)
		}
		return nil
	})
	return r.Own(func() {
		stopJoin()
		stopPublish()
	})
}
