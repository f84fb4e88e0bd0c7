package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
)

// Publication records one presence or topic publish made by a client.
type Publication struct {
	Kind     string
	RoomType string
	RoomID   string
	Topic    string
	Data     any
}

// Publication kinds.
const (
	KindPresence = "presence"
	KindTopic    = "topic"
)

// Client is one peer attached to a Hub. It implements reactor.Reactor.
type Client struct {
	hub         *Hub
	peerID      string
	localIDFunc func(ctx context.Context, name string) (string, error)

	mu         sync.Mutex
	cache      map[string]reactor.QueryResult
	auth       reactor.AuthState
	authSubs   []*callback[reactor.AuthState]
	status     reactor.ConnectionStatus
	statusSubs []*callback[reactor.ConnectionStatus]
	localIDs   map[string]string
	published  []Publication
	txs        [][]reactor.TxChunk
	closed     bool
}

type callback[T any] struct {
	fn func(T)
}

var _ reactor.Reactor = (*Client)(nil)

func newClient(h *Hub, opts ...ClientOption) *Client {
	c := &Client{
		hub:      h,
		peerID:   ulid.Make().String(),
		cache:    make(map[string]reactor.QueryResult),
		status:   reactor.StatusOpened,
		localIDs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PeerID returns the id other clients see this peer under.
func (c *Client) PeerID() string {
	return c.peerID
}

// Close leaves every room, drops every subscription and marks the connection
// closed.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	h := c.hub
	h.mu.Lock()
	var notify []func()
	for key, r := range h.rooms {
		r.presence = filter(r.presence, func(s *presenceSub) bool { return s.client != c })
		r.topics = filter(r.topics, func(s *topicSub) bool { return s.client != c })
		if r.joins[c.peerID] > 0 {
			delete(r.joins, c.peerID)
			delete(r.records, c.peerID)
			notify = append(notify, h.notifyLocked(r)...)
			h.logger.Debug("peer left", slog.String("room_type", key.typ), slog.String("room_id", key.id), slog.String("peer_id", c.peerID))
		}
	}
	h.queries = filter(h.queries, func(s *querySub) bool { return s.client != c })
	h.mu.Unlock()
	h.detach(c)
	h.run(notify)
	c.SetStatus(reactor.StatusClosed)
}

// --- queries ---

// SubscribeQuery delivers results for q. A stored fixture is delivered at once.
func (c *Client) SubscribeQuery(q reactor.Query, cb func(reactor.QueryResult)) func() {
	if cb == nil {
		return func() {}
	}
	h := c.hub
	sub := &querySub{client: c, hash: hashQuery(q), cb: cb}
	h.mu.Lock()
	h.queries = append(h.queries, sub)
	res, ok := h.fixtures[sub.hash]
	h.mu.Unlock()

	if ok {
		c.cacheResult(sub.hash, res)
		h.deliver(func() { cb(res) })
	}
	return reactive.Once(func() {
		h.mu.Lock()
		h.queries = filter(h.queries, func(s *querySub) bool { return s != sub })
		h.mu.Unlock()
	})
}

// PreviousResult returns the last result this client received for q.
func (c *Client) PreviousResult(q reactor.Query) (reactor.QueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.cache[hashQuery(q)]
	return res, ok
}

// QueryOnce answers q from the hub fixtures.
func (c *Client) QueryOnce(ctx context.Context, q reactor.Query) (reactor.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return reactor.QueryResult{}, err
	}
	if c.offline() {
		return reactor.QueryResult{}, reactor.ErrOffline
	}
	hash := hashQuery(q)
	res, ok := c.hub.fixture(hash)
	if !ok {
		return reactor.QueryResult{Data: reactor.Data{}}, nil
	}
	c.cacheResult(hash, res)
	return res, res.Error
}

func (c *Client) cacheResult(hash string, res reactor.QueryResult) {
	c.mu.Lock()
	c.cache[hash] = res
	c.mu.Unlock()
}

// ActiveQuerySubscriptions counts live query subscriptions of this client.
func (c *Client) ActiveQuerySubscriptions() int {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	n := 0
	for _, sub := range c.hub.queries {
		if sub.client == c {
			n++
		}
	}
	return n
}

// --- presence ---

// Presence returns the room as this client sees it.
func (c *Client) Presence(roomType, roomID string, opts reactor.PresenceOpts) (reactor.PresenceSnapshot, bool) {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	return snapshot(h.rooms[roomKey{roomType, roomID}], c.peerID, opts)
}

// SubscribePresence delivers a snapshot on every change in the room. The
// subscription holds a join for its lifetime.
func (c *Client) SubscribePresence(roomType, roomID string, opts reactor.PresenceOpts, cb func(reactor.PresenceSnapshot)) func() {
	if cb == nil {
		return func() {}
	}
	h := c.hub
	key := roomKey{roomType, roomID}
	sub := &presenceSub{client: c, opts: opts, cb: cb}
	h.mu.Lock()
	r := h.roomLocked(key, true)
	r.presence = append(r.presence, sub)
	joined := r.joins[c.peerID] > 0
	var initial reactor.PresenceSnapshot
	if joined {
		initial, _ = snapshot(r, c.peerID, opts)
	}
	h.mu.Unlock()

	if joined {
		h.deliver(func() { cb(initial) })
	}
	leave := c.JoinRoom(roomType, roomID, nil)
	return reactive.Once(func() {
		h.mu.Lock()
		if r := h.rooms[key]; r != nil {
			r.presence = filter(r.presence, func(s *presenceSub) bool { return s != sub })
		}
		h.mu.Unlock()
		leave()
	})
}

// PublishPresence merges data into this client's record. Nil values delete
// their key.
func (c *Client) PublishPresence(roomType, roomID string, data reactor.Presence) error {
	h := c.hub
	h.mu.Lock()
	r := h.rooms[roomKey{roomType, roomID}]
	if r == nil || r.joins[c.peerID] == 0 {
		h.mu.Unlock()
		return reactor.ErrNotJoined
	}
	rec := r.records[c.peerID]
	for k, v := range data {
		if k == reactor.PeerIDKey {
			continue
		}
		if v == nil {
			delete(rec, k)
			continue
		}
		rec[k] = v
	}
	notify := h.notifyLocked(r)
	h.mu.Unlock()

	c.record(Publication{Kind: KindPresence, RoomType: roomType, RoomID: roomID, Data: data.Clone()})
	h.run(notify)
	return nil
}

// JoinRoom joins the room. Joins are counted; the peer leaves when the last
// returned leave func is called. initial seeds the record on the first join.
func (c *Client) JoinRoom(roomType, roomID string, initial reactor.Presence) func() {
	h := c.hub
	key := roomKey{roomType, roomID}
	h.mu.Lock()
	r := h.roomLocked(key, true)
	r.joins[c.peerID]++
	var notify []func()
	if r.joins[c.peerID] == 1 {
		rec := reactor.Presence{}
		for k, v := range initial {
			if v != nil {
				rec[k] = v
			}
		}
		rec[reactor.PeerIDKey] = c.peerID
		r.records[c.peerID] = rec
		notify = h.notifyLocked(r)
		h.logger.Debug("peer joined", slog.String("room_type", roomType), slog.String("room_id", roomID), slog.String("peer_id", c.peerID))
	}
	h.mu.Unlock()
	h.run(notify)

	return reactive.Once(func() {
		h.mu.Lock()
		r := h.rooms[key]
		if r == nil || r.joins[c.peerID] == 0 {
			h.mu.Unlock()
			return
		}
		r.joins[c.peerID]--
		var notify []func()
		if r.joins[c.peerID] == 0 {
			delete(r.joins, c.peerID)
			delete(r.records, c.peerID)
			notify = h.notifyLocked(r)
			h.logger.Debug("peer left", slog.String("room_type", roomType), slog.String("room_id", roomID), slog.String("peer_id", c.peerID))
		}
		h.mu.Unlock()
		h.run(notify)
	})
}

// Joined reports how many joins this client holds on the room.
func (c *Client) Joined(roomType, roomID string) int {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[roomKey{roomType, roomID}]
	if r == nil {
		return 0
	}
	return r.joins[c.peerID]
}

// ActivePresenceSubscriptions counts live presence subscriptions of this client.
func (c *Client) ActivePresenceSubscriptions() int {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.rooms {
		for _, sub := range r.presence {
			if sub.client == c {
				n++
			}
		}
	}
	return n
}

// --- topics ---

// SubscribeTopic delivers events other peers publish on topic. The
// subscription holds a join for its lifetime.
func (c *Client) SubscribeTopic(roomType, roomID, topic string, cb func(event any, peer reactor.Presence)) func() {
	if cb == nil {
		return func() {}
	}
	h := c.hub
	key := roomKey{roomType, roomID}
	sub := &topicSub{client: c, topic: topic, cb: cb}
	h.mu.Lock()
	r := h.roomLocked(key, true)
	r.topics = append(r.topics, sub)
	h.mu.Unlock()

	leave := c.JoinRoom(roomType, roomID, nil)
	return reactive.Once(func() {
		h.mu.Lock()
		if r := h.rooms[key]; r != nil {
			r.topics = filter(r.topics, func(s *topicSub) bool { return s != sub })
		}
		h.mu.Unlock()
		leave()
	})
}

// PublishTopic broadcasts msg to the other peers subscribed to its topic.
func (c *Client) PublishTopic(msg reactor.TopicMessage) error {
	h := c.hub
	h.mu.Lock()
	r := h.rooms[roomKey{msg.RoomType, msg.RoomID}]
	if r == nil || r.joins[c.peerID] == 0 {
		h.mu.Unlock()
		return reactor.ErrNotJoined
	}
	sender := r.records[c.peerID].Clone()
	var targets []*topicSub
	for _, sub := range r.topics {
		if sub.topic == msg.Topic && sub.client != c {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	c.record(Publication{Kind: KindTopic, RoomType: msg.RoomType, RoomID: msg.RoomID, Topic: msg.Topic, Data: msg.Data})
	for _, sub := range targets {
		cb := sub.cb
		h.deliver(func() { cb(msg.Data, sender.Clone()) })
	}
	return nil
}

// Published returns every publish this client made, in order.
func (c *Client) Published() []Publication {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Publication, len(c.published))
	copy(out, c.published)
	return out
}

func (c *Client) record(p Publication) {
	c.mu.Lock()
	c.published = append(c.published, p)
	c.mu.Unlock()
}

// --- auth ---

// CurrentUser returns the authentication state.
func (c *Client) CurrentUser() reactor.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth
}

// SubscribeAuth delivers every authentication change.
func (c *Client) SubscribeAuth(cb func(reactor.AuthState)) func() {
	return subscribe(c, &c.authSubs, cb)
}

// GetAuth returns the signed-in user or nil.
func (c *Client) GetAuth(ctx context.Context) (*reactor.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth.User, c.auth.Error
}

// SetUser signs user in, or signs out when user is nil.
func (c *Client) SetUser(user *reactor.User) {
	state := reactor.AuthState{User: user}
	c.mu.Lock()
	c.auth = state
	subs := append([]*callback[reactor.AuthState](nil), c.authSubs...)
	c.mu.Unlock()
	for _, sub := range subs {
		fn := sub.fn
		c.hub.deliver(func() { fn(state) })
	}
}

// --- connection ---

// Status returns the connection status.
func (c *Client) Status() reactor.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SubscribeConnectionStatus delivers every status change.
func (c *Client) SubscribeConnectionStatus(cb func(reactor.ConnectionStatus)) func() {
	return subscribe(c, &c.statusSubs, cb)
}

// SetStatus changes the connection status.
func (c *Client) SetStatus(status reactor.ConnectionStatus) {
	c.mu.Lock()
	if c.status == status {
		c.mu.Unlock()
		return
	}
	c.status = status
	subs := append([]*callback[reactor.ConnectionStatus](nil), c.statusSubs...)
	c.mu.Unlock()
	for _, sub := range subs {
		fn := sub.fn
		c.hub.deliver(func() { fn(status) })
	}
}

func (c *Client) offline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == reactor.StatusClosed || c.status == reactor.StatusErrored
}

// --- writes and ids ---

// Transact records chunks and acknowledges them with a fresh event id.
func (c *Client) Transact(ctx context.Context, chunks ...reactor.TxChunk) (reactor.TxResult, error) {
	if err := ctx.Err(); err != nil {
		return reactor.TxResult{}, err
	}
	if c.offline() {
		return reactor.TxResult{}, reactor.ErrOffline
	}
	c.mu.Lock()
	c.txs = append(c.txs, append([]reactor.TxChunk(nil), chunks...))
	c.mu.Unlock()
	return reactor.TxResult{ClientEventID: uuid.NewString()}, nil
}

// Transactions returns every transaction this client applied.
func (c *Client) Transactions() [][]reactor.TxChunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]reactor.TxChunk, len(c.txs))
	copy(out, c.txs)
	return out
}

// LocalID returns an id that stays the same for name on this client.
func (c *Client) LocalID(ctx context.Context, name string) (string, error) {
	if c.localIDFunc != nil {
		return c.localIDFunc(ctx, name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.localIDs[name]
	if !ok {
		id = uuid.NewString()
		c.localIDs[name] = id
	}
	return id, nil
}

func subscribe[T any](c *Client, list *[]*callback[T], fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	cb := &callback[T]{fn: fn}
	c.mu.Lock()
	*list = append(*list, cb)
	c.mu.Unlock()
	return reactive.Once(func() {
		c.mu.Lock()
		*list = filter(*list, func(other *callback[T]) bool { return other != cb })
		c.mu.Unlock()
	})
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
