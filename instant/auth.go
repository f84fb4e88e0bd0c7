package instant

import (
	"context"
	"fmt"

	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
)

// AuthHandle is the live authentication state.
type AuthHandle struct {
	IsLoading reactive.Cell[bool]
	User      reactive.Cell[*reactor.User]
	Error     reactive.Cell[error]

	stop reactive.Disposer
}

// Stop unsubscribes. Safe to call repeatedly.
func (h *AuthHandle) Stop() { h.stop() }

// UseAuth tracks the authentication state.
func (c *Client) UseAuth() *AuthHandle {
	caps := c.env.Caps
	initial := c.reactor.CurrentUser()
	h := &AuthHandle{
		IsLoading: reactive.NewCell(caps, initial.IsLoading),
		User:      reactive.NewCell(caps, initial.User),
		Error:     reactive.NewCell(caps, initial.Error),
	}
	h.stop = c.subscribe(func(live func() bool) func() {
		return c.reactor.SubscribeAuth(func(s reactor.AuthState) {
			c.env.Dispatch(func() {
				if !live() {
					return
				}
				h.IsLoading.Set(s.IsLoading)
				h.User.Set(s.User)
				h.Error.Set(s.Error)
			})
		})
	})
	return h
}

// UseUser tracks the signed-in user. It returns reactor.ErrNotSignedIn when
// nobody is signed in at call time.
func (c *Client) UseUser() (reactive.Cell[*reactor.User], reactive.Disposer, error) {
	state := c.reactor.CurrentUser()
	if state.User == nil {
		return reactive.Cell[*reactor.User]{}, func() {}, reactor.ErrNotSignedIn
	}
	user := reactive.NewCell(c.env.Caps, state.User)
	stop := c.subscribe(func(live func() bool) func() {
		return c.reactor.SubscribeAuth(func(s reactor.AuthState) {
			c.env.Dispatch(func() {
				if live() {
					user.Set(s.User)
				}
			})
		})
	})
	return user, stop, nil
}

// MustUseUser is UseUser for callers that are only reachable when signed in.
// It panics otherwise.
func (c *Client) MustUseUser() (reactive.Cell[*reactor.User], reactive.Disposer) {
	user, stop, err := c.UseUser()
	if err != nil {
		panic(fmt.Errorf("instant: UseUser outside a signed-in context: %w", err))
	}
	return user, stop
}

// GetAuth fetches the signed-in user, or nil.
func (c *Client) GetAuth(ctx context.Context) (*reactor.User, error) {
	return c.reactor.GetAuth(ctx)
}

// UseConnectionStatus tracks the connection status.
func (c *Client) UseConnectionStatus() (reactive.Cell[reactor.ConnectionStatus], reactive.Disposer) {
	status := reactive.NewCell(c.env.Caps, c.reactor.Status())
	stop := c.subscribe(func(live func() bool) func() {
		return c.reactor.SubscribeConnectionStatus(func(s reactor.ConnectionStatus) {
			c.env.Dispatch(func() {
				if live() {
					status.Set(s)
				}
			})
		})
	})
	return status, stop
}

// subscribe runs start and returns an owned disposer that unsubscribes. live
// reports false once the disposer has run, so queued pushes are dropped.
func (c *Client) subscribe(start func(live func() bool) func()) reactive.Disposer {
	var stopped bool
	live := func() bool { return !stopped }
	unsub := start(live)
	return c.track(c.env.Own(func() {
		stopped = true
		unsub()
	}))
}
