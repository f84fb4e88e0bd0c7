package rooms

import (
	"sort"
	"time"

	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
	"github.com/odvcencio/furry-live/timeout"
)

// TypingOptions configures a typing indicator.
type TypingOptions struct {
	// Timeout is how long a typing flag lives without renewal. Nil uses the
	// room default; zero or negative disables expiry.
	Timeout *time.Duration
	// StopOnEnter treats the Enter key as the end of typing.
	StopOnEnter bool
	// WriteOnly skips computing Active, which is then always empty.
	WriteOnly bool
}

// Timeout returns d as a TypingOptions.Timeout value.
func Timeout(d time.Duration) *time.Duration {
	return &d
}

// KeyEvent is a key press on the watched input.
type KeyEvent struct {
	Key string
}

// InputProps are the handlers to attach to the watched input.
type InputProps struct {
	OnKeyDown func(KeyEvent)
	OnBlur    func()
}

// TypingHandle publishes and observes who is typing in an input.
type TypingHandle struct {
	// Active holds the peers whose record flags the input, ordered by peer id.
	Active reactive.Derived[[]reactor.Presence]
	Props  InputProps

	room      *Room
	inputName reactive.Maybe[string]
	opts      reactive.Maybe[TypingOptions]
	timer     *timeout.Timeout
	stop      reactive.Disposer
}

// UseTypingIndicator tracks typing in the input named inputName. It joins the
// room for its lifetime.
func (r *Room) UseTypingIndicator(inputName reactive.Maybe[string], opts reactive.Maybe[TypingOptions]) *TypingHandle {
	caps := r.env.Caps
	h := &TypingHandle{
		room:      r,
		inputName: inputName,
		opts:      opts,
		timer:     timeout.New(r.env.Now(), caps.ScopeEnd),
	}

	stopJoin := r.join(nil)
	scoped := r.UsePresence(reactive.FromCell[reactor.PresenceOpts](reactive.NewDerived(caps, func() reactor.PresenceOpts {
		return reactor.PresenceOpts{Keys: []string{inputName.Resolve()}}
	})))

	h.Active = reactive.NewDerived(caps, func() []reactor.Presence {
		typ, id := r.identity()
		snap, _ := r.reactor.Presence(typ, id, reactor.PresenceOpts{})
		scoped.Peers.Get()
		if opts.Resolve().WriteOnly {
			return []reactor.Presence{}
		}
		name := inputName.Resolve()
		ids := make([]string, 0, len(snap.Peers))
		for pid, p := range snap.Peers {
			if v, ok := p[name].(bool); ok && v {
				ids = append(ids, pid)
			}
		}
		sort.Strings(ids)
		active := make([]reactor.Presence, 0, len(ids))
		for _, pid := range ids {
			active = append(active, snap.Peers[pid])
		}
		return active
	})

	h.Props = InputProps{
		OnKeyDown: func(e KeyEvent) {
			isEnter := h.opts.Peek().StopOnEnter && e.Key == "Enter"
			h.SetActive(!isEnter)
		},
		OnBlur: func() {
			h.SetActive(false)
		},
	}
	h.stop = r.Own(func() {
		h.timer.Clear()
		scoped.Stop()
		stopJoin()
	})
	return h
}

// SetActive publishes whether the local user is typing. Activity expires after
// the configured timeout unless renewed.
func (h *TypingHandle) SetActive(active bool) {
	r := h.room
	typ, id := r.current()
	name := h.inputName.Peek()
	if !active {
		h.timer.Clear()
		r.publishPresence(typ, id, reactor.Presence{name: nil})
		return
	}
	r.publishPresence(typ, id, reactor.Presence{name: true})

	d := r.typingTimeout
	if t := h.opts.Peek().Timeout; t != nil {
		d = *t
	}
	if d <= 0 {
		return
	}
	h.timer.Set(d, func() {
		r.env.Dispatch(func() {
			r.publishPresence(typ, id, reactor.Presence{name: nil})
		})
	})
}

// Stop disarms the timeout and releases the room.
func (h *TypingHandle) Stop() {
	h.stop()
}
