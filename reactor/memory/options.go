package memory

import (
	"context"
	"log/slog"

	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithScheduler delivers every push through scheduler. The default delivers
// synchronously on the goroutine that caused the push.
func WithScheduler(scheduler reactive.Scheduler) HubOption {
	return func(h *Hub) {
		if scheduler != nil {
			h.scheduler = scheduler
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPeerID fixes the peer id instead of generating one.
func WithPeerID(id string) ClientOption {
	return func(c *Client) {
		if id != "" {
			c.peerID = id
		}
	}
}

// WithUser starts the client signed in as user.
func WithUser(user *reactor.User) ClientOption {
	return func(c *Client) {
		c.auth = reactor.AuthState{User: user}
		if user != nil {
			c.status = reactor.StatusAuthenticated
		}
	}
}

// WithStatus sets the initial connection status.
func WithStatus(status reactor.ConnectionStatus) ClientOption {
	return func(c *Client) {
		c.status = status
	}
}

// WithLocalIDFunc replaces local id generation. fn runs on the caller's
// goroutine and may block until ctx is done.
func WithLocalIDFunc(fn func(ctx context.Context, name string) (string, error)) ClientOption {
	return func(c *Client) {
		c.localIDFunc = fn
	}
}
