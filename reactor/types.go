package reactor

// Query is a query descriptor, keyed by namespace.
type Query map[string]any

// Data is a query result, keyed by namespace.
type Data map[string]any

// PageCursor describes pagination state for one namespace.
type PageCursor struct {
	StartCursor     string `json:"startCursor,omitempty" yaml:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty" yaml:"endCursor,omitempty"`
	HasNextPage     bool   `json:"hasNextPage" yaml:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage" yaml:"hasPreviousPage"`
}

// PageInfo maps namespaces to their pagination state.
type PageInfo map[string]PageCursor

// QueryResult is one push from the query engine.
type QueryResult struct {
	Data     Data
	PageInfo PageInfo
	Error    error
}

// Presence is one peer's presence record. A nil value marks a key as absent.
type Presence map[string]any

// PeerIDKey is the key under which a peer's id is exposed in its record.
const PeerIDKey = "peerId"

// Clone returns a shallow copy of p.
func (p Presence) Clone() Presence {
	if p == nil {
		return nil
	}
	out := make(Presence, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Pick returns a copy of p restricted to keys. An empty keys returns a full copy.
func (p Presence) Pick(keys []string) Presence {
	if len(keys) == 0 {
		return p.Clone()
	}
	out := make(Presence, len(keys)+1)
	for _, k := range keys {
		if v, ok := p[k]; ok {
			out[k] = v
		}
	}
	if id, ok := p[PeerIDKey]; ok {
		out[PeerIDKey] = id
	}
	return out
}

// PresenceOpts scopes a presence read or subscription.
type PresenceOpts struct {
	// Keys restricts each record to these keys. Empty means every key.
	Keys []string `json:"keys,omitempty" yaml:"keys,omitempty"`
	// Peers restricts the peer set to these ids. Empty means every peer.
	Peers []string `json:"peers,omitempty" yaml:"peers,omitempty"`
	// User controls whether the local user's record is included. Nil means yes.
	User *bool `json:"user,omitempty" yaml:"user,omitempty"`
}

// IncludeUser reports whether the local user's record was requested.
func (o PresenceOpts) IncludeUser() bool {
	return o.User == nil || *o.User
}

// PresenceSnapshot is the presence state of a room as seen by one client.
// Peers never contains the local user's own record.
type PresenceSnapshot struct {
	Peers     map[string]Presence
	User      Presence
	IsLoading bool
	Error     error
}

// TopicMessage is a fire-and-forget broadcast within a room.
type TopicMessage struct {
	RoomType string
	RoomID   string
	Topic    string
	Data     any
}

// User is an authenticated user.
type User struct {
	ID           string `json:"id" yaml:"id"`
	Email        string `json:"email,omitempty" yaml:"email,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
}

// AuthState is the current authentication state.
type AuthState struct {
	IsLoading bool
	User      *User
	Error     error
}

// ConnectionStatus is the state of the connection to the backend.
type ConnectionStatus string

const (
	StatusConnecting    ConnectionStatus = "connecting"
	StatusOpened        ConnectionStatus = "opened"
	StatusAuthenticated ConnectionStatus = "authenticated"
	StatusClosed        ConnectionStatus = "closed"
	StatusErrored       ConnectionStatus = "errored"
)

// TxOp is a transaction operation.
type TxOp string

const (
	TxUpdate TxOp = "update"
	TxMerge  TxOp = "merge"
	TxDelete TxOp = "delete"
	TxLink   TxOp = "link"
	TxUnlink TxOp = "unlink"
)

// TxChunk is one step of a transaction.
type TxChunk struct {
	Op        TxOp
	Namespace string
	ID        string
	Args      map[string]any
}

// TxResult acknowledges a transaction.
type TxResult struct {
	ClientEventID string
}
