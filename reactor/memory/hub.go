package memory

import (
	"log/slog"
	"sync"

	"github.com/odvcencio/furry-live/query"
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
)

type roomKey struct {
	typ string
	id  string
}

type room struct {
	records  map[string]reactor.Presence
	joins    map[string]int
	presence []*presenceSub
	topics   []*topicSub
}

type presenceSub struct {
	client *Client
	opts   reactor.PresenceOpts
	cb     func(reactor.PresenceSnapshot)
}

type topicSub struct {
	client *Client
	topic  string
	cb     func(any, reactor.Presence)
}

type querySub struct {
	client *Client
	hash   string
	cb     func(reactor.QueryResult)
}

// Hub is the shared backend state of a set of clients.
type Hub struct {
	scheduler reactive.Scheduler
	logger    *slog.Logger

	mu       sync.Mutex
	rooms    map[roomKey]*room
	fixtures map[string]reactor.QueryResult
	queries  []*querySub
	clients  []*Client
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		scheduler: reactive.DirectScheduler,
		logger:    slog.New(slog.DiscardHandler),
		rooms:     make(map[roomKey]*room),
		fixtures:  make(map[string]reactor.QueryResult),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Client attaches a new peer to the hub.
func (h *Hub) Client(opts ...ClientOption) *Client {
	c := newClient(h, opts...)
	h.mu.Lock()
	h.clients = append(h.clients, c)
	h.mu.Unlock()
	h.logger.Debug("client attached", slog.String("peer_id", c.peerID))
	return c
}

// SetResult stores result as the current answer to q and pushes it to every
// client subscribed to an equal query.
func (h *Hub) SetResult(q reactor.Query, result reactor.QueryResult) {
	hash := hashQuery(q)
	h.mu.Lock()
	h.fixtures[hash] = result
	var targets []*querySub
	for _, sub := range h.queries {
		if sub.hash == hash {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.client.cacheResult(hash, result)
		h.deliver(func() { sub.cb(result) })
	}
}

// Peers returns the ids of every peer joined to the room.
func (h *Hub) Peers(roomType, roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[roomKey{roomType, roomID}]
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) fixture(hash string) (reactor.QueryResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	res, ok := h.fixtures[hash]
	return res, ok
}

func (h *Hub) deliver(fn func()) {
	h.scheduler.Schedule(fn)
}

// roomLocked returns the room for key, creating it when create is set.
func (h *Hub) roomLocked(key roomKey, create bool) *room {
	r := h.rooms[key]
	if r == nil && create {
		r = &room{
			records: make(map[string]reactor.Presence),
			joins:   make(map[string]int),
		}
		h.rooms[key] = r
	}
	return r
}

// notifyLocked computes a snapshot per presence subscriber of r. The returned
// funcs must run after the lock is released.
func (h *Hub) notifyLocked(r *room) []func() {
	out := make([]func(), 0, len(r.presence))
	for _, sub := range r.presence {
		snap, _ := snapshot(r, sub.client.peerID, sub.opts)
		cb := sub.cb
		out = append(out, func() { cb(snap) })
	}
	return out
}

func (h *Hub) run(fns []func()) {
	for _, fn := range fns {
		h.deliver(fn)
	}
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, other := range h.clients {
		if other == c {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			return
		}
	}
}

// snapshot renders r as seen by peerID. ok is false until peerID has joined.
func snapshot(r *room, peerID string, opts reactor.PresenceOpts) (reactor.PresenceSnapshot, bool) {
	if r == nil || r.joins[peerID] == 0 {
		return reactor.PresenceSnapshot{Peers: map[string]reactor.Presence{}, IsLoading: true}, false
	}
	var allow map[string]struct{}
	if len(opts.Peers) > 0 {
		allow = make(map[string]struct{}, len(opts.Peers))
		for _, id := range opts.Peers {
			allow[id] = struct{}{}
		}
	}
	snap := reactor.PresenceSnapshot{Peers: make(map[string]reactor.Presence, len(r.records))}
	for id, rec := range r.records {
		if id == peerID {
			continue
		}
		if allow != nil {
			if _, ok := allow[id]; !ok {
				continue
			}
		}
		snap.Peers[id] = rec.Pick(opts.Keys)
	}
	if opts.IncludeUser() {
		snap.User = r.records[peerID].Pick(opts.Keys)
	}
	return snap, true
}

func hashQuery(q reactor.Query) string {
	normalized, err := query.Normalize(q, nil)
	if err != nil {
		return query.Hash(q)
	}
	return query.Hash(normalized)
}
