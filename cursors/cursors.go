// Package cursors multiplexes pointer cursors through room presence. Each
// cursor space is one key of the presence record, so several independent
// spaces can share a room.
package cursors

import (
	"fmt"
	"time"

	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
	"github.com/odvcencio/furry-live/rooms"
)

// DefaultZIndex is the wrapper z-index when Options.ZIndex is nil.
const DefaultZIndex = 99999

// Options configures a cursor space.
type Options struct {
	// SpaceID names the space. Empty derives one from the room identity.
	SpaceID         string
	UserCursorColor string
	// Propagate lets pointer events continue to parent handlers.
	Propagate bool
	ZIndex    *int
	// Clamp limits published percentages to [0, 100].
	Clamp bool
	// Throttle drops moves arriving sooner than this after the last publish.
	Throttle time.Duration
}

// Handle is a live cursor space.
type Handle struct {
	SpaceID reactive.Derived[string]
	// Presence is scoped to the space key.
	Presence *rooms.PresenceHandle
	// FullPresence carries every key of every peer.
	FullPresence *rooms.PresenceHandle

	room           *rooms.Room
	opts           reactive.Maybe[Options]
	isLoadingFirst reactive.Cell[bool]
	lastPublish    time.Time
	stop           reactive.Disposer
}

// SpaceID returns the default space id for a room.
func SpaceID(roomType, roomID string) string {
	return fmt.Sprintf("cursors-space-default--%s-%s", roomType, roomID)
}

// Use creates a cursor space in room.
func Use(room *rooms.Room, opts reactive.Maybe[Options]) *Handle {
	caps := room.Env().Caps
	h := &Handle{room: room, opts: opts}
	h.SpaceID = reactive.NewDerived(caps, func() string {
		if id := opts.Resolve().SpaceID; id != "" {
			return id
		}
		return SpaceID(room.Type().Get(), room.ID().Get())
	})

	stopJoin := room.UseJoin(reactive.Maybe[reactor.Presence]{})
	h.Presence = room.UsePresence(reactive.FromCell[reactor.PresenceOpts](reactive.NewDerived(caps, func() reactor.PresenceOpts {
		return reactor.PresenceOpts{Keys: []string{h.SpaceID.Get()}}
	})))
	h.FullPresence = room.UsePresence(reactive.Maybe[reactor.PresenceOpts]{})

	h.isLoadingFirst = reactive.NewCell(caps, true)
	stopLatch := caps.Effect(func() reactive.Disposer {
		if !h.isLoadingFirst.Peek() {
			return nil
		}
		h.isLoadingFirst.Set(h.Presence.IsLoading.Get())
		return nil
	})

	previous := h.SpaceID.Peek()
	stopSpaceWatch := caps.Effect(func() reactive.Disposer {
		current := h.SpaceID.Get()
		if current != previous {
			h.ClearPresence(previous)
		}
		previous = current
		return nil
	})

	h.stop = room.Own(func() {
		stopLatch()
		stopSpaceWatch()
		h.ClearPresence(h.SpaceID.Peek())
		h.Presence.Stop()
		h.FullPresence.Stop()
		stopJoin()
	})
	return h
}

// Stop clears the local cursor and releases the room.
func (h *Handle) Stop() {
	h.stop()
}

// ClearPresence publishes spaceID as absent. It does nothing until the first
// presence snapshot has arrived.
func (h *Handle) ClearPresence(spaceID string) {
	if h.isLoadingFirst.Peek() {
		return
	}
	h.Presence.PublishPresence(reactor.Presence{spaceID: nil})
}

// Rect is an element's bounding rectangle in client coordinates.
type Rect struct {
	Left, Top, Width, Height float64
}

// PointerEvent is a pointer moving over, or leaving, the cursor container.
type PointerEvent struct {
	ClientX, ClientY float64
	// Bounds is the container's bounding rectangle. Nil skips the event.
	Bounds          *Rect
	StopPropagation func()
}

// Touch is one touch point.
type Touch struct {
	ClientX, ClientY float64
	// Bounds is the bounding rectangle of the touched element. Nil skips it.
	Bounds *Rect
}

// TouchEvent is a touch moving over, or leaving, the cursor container.
type TouchEvent struct {
	Touches         []Touch
	StopPropagation func()
}

// OnPointerMove publishes the pointer position under the space key.
func (h *Handle) OnPointerMove(e PointerEvent) {
	if !h.opts.Peek().Propagate && e.StopPropagation != nil {
		e.StopPropagation()
	}
	if e.Bounds == nil {
		return
	}
	h.publishCursor(*e.Bounds, e.ClientX, e.ClientY)
}

// OnPointerLeave clears the local cursor.
func (h *Handle) OnPointerLeave(PointerEvent) {
	h.ClearPresence(h.SpaceID.Peek())
}

// OnTouchMove publishes a single-finger touch position. Multi-touch is ignored.
func (h *Handle) OnTouchMove(e TouchEvent) {
	if len(e.Touches) != 1 {
		return
	}
	touch := e.Touches[0]
	if touch.Bounds == nil {
		return
	}
	if !h.opts.Peek().Propagate && e.StopPropagation != nil {
		e.StopPropagation()
	}
	h.publishCursor(*touch.Bounds, touch.ClientX, touch.ClientY)
}

// OnTouchEnd clears the local cursor.
func (h *Handle) OnTouchEnd(TouchEvent) {
	h.ClearPresence(h.SpaceID.Peek())
}

func (h *Handle) publishCursor(rect Rect, x, y float64) {
	if h.Presence.IsLoading.Peek() {
		return
	}
	opts := h.opts.Peek()
	if opts.Throttle > 0 {
		now := h.room.Env().Now().Now()
		if !h.lastPublish.IsZero() && now.Sub(h.lastPublish) < opts.Throttle {
			return
		}
		h.lastPublish = now
	}
	c := Cursor{
		X:        x,
		Y:        y,
		XPercent: percent(x-rect.Left, rect.Width),
		YPercent: percent(y-rect.Top, rect.Height),
		Color:    opts.UserCursorColor,
	}
	if opts.Clamp {
		c.XPercent = clamp(c.XPercent)
		c.YPercent = clamp(c.YPercent)
	}
	h.Presence.PublishPresence(reactor.Presence{h.SpaceID.Peek(): c.Map()})
}

func percent(offset, size float64) float64 {
	if size == 0 {
		return 0
	}
	return offset / size * 100
}

func clamp(v float64) float64 {
	return min(max(v, 0), 100)
}
