package instant

import (
	"context"
	"log/slog"
	"sync"

	"github.com/odvcencio/furry-live/reactive"
)

// GetLocalID returns the device-stable id for name.
func (c *Client) GetLocalID(ctx context.Context, name string) (string, error) {
	return c.reactor.LocalID(ctx, name)
}

// UseLocalID resolves the id for name into a cell, empty until it arrives.
// When name changes the in-flight request is cancelled and a response that
// still arrives for the old name is ignored.
func (c *Client) UseLocalID(name reactive.Maybe[string]) (reactive.Cell[string], reactive.Disposer) {
	id := reactive.NewCell(c.env.Caps, "")
	var (
		mu      sync.Mutex
		gen     uint64
		stopped bool
	)
	current := func(g uint64) bool {
		mu.Lock()
		defer mu.Unlock()
		return !stopped && gen == g
	}

	effect := c.env.Caps.Effect(func() reactive.Disposer {
		n := name.Resolve()
		mu.Lock()
		gen++
		g := gen
		mu.Unlock()
		if n == "" {
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			got, err := c.reactor.LocalID(ctx, n)
			if err != nil {
				if ctx.Err() == nil {
					c.env.Log().Warn("local id lookup failed", slog.String("op", "local_id"), slog.String("name", n), slog.Any("error", err))
				}
				return
			}
			c.env.Dispatch(func() {
				if current(g) && name.Peek() == n {
					id.Set(got)
				}
			})
		}()
		return reactive.Disposer(cancel)
	})

	stop := c.track(c.env.Own(func() {
		mu.Lock()
		stopped = true
		mu.Unlock()
		effect()
	}))
	return id, stop
}
