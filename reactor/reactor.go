package reactor

import "context"

// QueryEngine serves live and one-off queries.
type QueryEngine interface {
	// SubscribeQuery delivers every result for q until the returned func is called.
	SubscribeQuery(q Query, cb func(QueryResult)) (unsubscribe func())
	// PreviousResult peeks the cache for q without subscribing.
	PreviousResult(q Query) (QueryResult, bool)
	// QueryOnce runs q once against the server.
	QueryOnce(ctx context.Context, q Query) (QueryResult, error)
}

// PresenceChannel exposes per-room presence.
type PresenceChannel interface {
	// Presence returns a synchronous snapshot. ok is false when the room is unknown.
	Presence(roomType, roomID string, opts PresenceOpts) (snapshot PresenceSnapshot, ok bool)
	SubscribePresence(roomType, roomID string, opts PresenceOpts, cb func(PresenceSnapshot)) (unsubscribe func())
	// PublishPresence merges data into the local record. Before the room is
	// joined it returns ErrNotJoined and drops the data.
	PublishPresence(roomType, roomID string, data Presence) error
	// JoinRoom establishes this client's liveness in the room.
	JoinRoom(roomType, roomID string, initial Presence) (leave func())
}

// TopicChannel exposes per-room broadcast topics.
type TopicChannel interface {
	SubscribeTopic(roomType, roomID, topic string, cb func(event any, peer Presence)) (unsubscribe func())
	PublishTopic(msg TopicMessage) error
}

// Rooms is the room-facing part of a reactor.
type Rooms interface {
	PresenceChannel
	TopicChannel
}

// Auth exposes the authentication state.
type Auth interface {
	CurrentUser() AuthState
	SubscribeAuth(cb func(AuthState)) (unsubscribe func())
	GetAuth(ctx context.Context) (*User, error)
}

// Connection exposes the connection status.
type Connection interface {
	Status() ConnectionStatus
	SubscribeConnectionStatus(cb func(ConnectionStatus)) (unsubscribe func())
}

// Writer applies transactions.
type Writer interface {
	Transact(ctx context.Context, chunks ...TxChunk) (TxResult, error)
}

// LocalIDs hands out ids that are stable per name for this device.
type LocalIDs interface {
	LocalID(ctx context.Context, name string) (string, error)
}

// Reactor is the complete backend surface.
type Reactor interface {
	QueryEngine
	Rooms
	Auth
	Connection
	Writer
	LocalIDs
}
