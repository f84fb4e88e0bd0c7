package memory

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/reactor"
)

func TestPresence_JoinPublishLeave(t *testing.T) {
	hub := NewHub()
	alice := hub.Client(WithPeerID("alice"))
	bob := hub.Client(WithPeerID("bob"))

	var seen []reactor.PresenceSnapshot
	stop := alice.SubscribePresence("chat", "1", reactor.PresenceOpts{}, func(s reactor.PresenceSnapshot) {
		seen = append(seen, s)
	})
	require.NotEmpty(t, seen)
	assert.False(t, seen[len(seen)-1].IsLoading)
	assert.Empty(t, seen[len(seen)-1].Peers)

	leave := bob.JoinRoom("chat", "1", reactor.Presence{"name": "Bob"})
	require.NoError(t, bob.PublishPresence("chat", "1", reactor.Presence{"typing": true}))

	snap, ok := alice.Presence("chat", "1", reactor.PresenceOpts{})
	require.True(t, ok)
	want := map[string]reactor.Presence{
		"bob": {"peerId": "bob", "name": "Bob", "typing": true},
	}
	if diff := cmp.Diff(want, snap.Peers); diff != "" {
		t.Fatalf("peers mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, reactor.Presence{"peerId": "alice"}, snap.User)

	require.NoError(t, bob.PublishPresence("chat", "1", reactor.Presence{"typing": nil}))
	snap, _ = alice.Presence("chat", "1", reactor.PresenceOpts{})
	assert.NotContains(t, snap.Peers["bob"], "typing")

	leave()
	snap, _ = alice.Presence("chat", "1", reactor.PresenceOpts{})
	assert.Empty(t, snap.Peers)
	assert.Empty(t, seen[len(seen)-1].Peers)

	stop()
	assert.Equal(t, 0, alice.ActivePresenceSubscriptions())
	assert.Equal(t, 0, alice.Joined("chat", "1"))
}

func TestPresence_KeysAndPeersScope(t *testing.T) {
	hub := NewHub()
	alice := hub.Client(WithPeerID("alice"))
	bob := hub.Client(WithPeerID("bob"))
	carol := hub.Client(WithPeerID("carol"))

	defer alice.JoinRoom("r", "1", nil)()
	defer bob.JoinRoom("r", "1", reactor.Presence{"name": "Bob", "color": "red"})()
	defer carol.JoinRoom("r", "1", reactor.Presence{"name": "Carol"})()

	noUser := false
	snap, ok := alice.Presence("r", "1", reactor.PresenceOpts{
		Keys:  []string{"name"},
		Peers: []string{"bob"},
		User:  &noUser,
	})
	require.True(t, ok)
	want := map[string]reactor.Presence{"bob": {"peerId": "bob", "name": "Bob"}}
	if diff := cmp.Diff(want, snap.Peers); diff != "" {
		t.Fatalf("peers mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, snap.User)
}

func TestPresence_PublishBeforeJoin(t *testing.T) {
	hub := NewHub()
	c := hub.Client()
	err := c.PublishPresence("r", "1", reactor.Presence{"x": 1})
	assert.ErrorIs(t, err, reactor.ErrNotJoined)

	_, ok := c.Presence("r", "1", reactor.PresenceOpts{})
	assert.False(t, ok)
}

func TestJoinRoom_RefCounted(t *testing.T) {
	hub := NewHub()
	c := hub.Client(WithPeerID("c"))
	first := c.JoinRoom("r", "1", reactor.Presence{"a": 1})
	second := c.JoinRoom("r", "1", reactor.Presence{"a": 2})
	assert.Equal(t, 2, c.Joined("r", "1"))

	first()
	first()
	assert.Equal(t, 1, c.Joined("r", "1"))
	assert.Equal(t, []string{"c"}, hub.Peers("r", "1"))

	second()
	assert.Equal(t, 0, c.Joined("r", "1"))
	assert.Empty(t, hub.Peers("r", "1"))
}

func TestTopics_FanOutWithoutEcho(t *testing.T) {
	hub := NewHub()
	alice := hub.Client(WithPeerID("alice"))
	bob := hub.Client(WithPeerID("bob"))

	var order []string
	stopA := alice.SubscribeTopic("r", "1", "emoji", func(event any, peer reactor.Presence) {
		order = append(order, "alice:"+event.(string))
	})
	defer stopA()
	stopB1 := bob.SubscribeTopic("r", "1", "emoji", func(event any, peer reactor.Presence) {
		order = append(order, "bob1:"+event.(string)+":"+peer[reactor.PeerIDKey].(string))
	})
	defer stopB1()
	stopB2 := bob.SubscribeTopic("r", "1", "emoji", func(event any, peer reactor.Presence) {
		order = append(order, "bob2:"+event.(string))
	})
	defer stopB2()

	require.NoError(t, alice.PublishTopic(reactor.TopicMessage{RoomType: "r", RoomID: "1", Topic: "emoji", Data: "fire"}))
	assert.Equal(t, []string{"bob1:fire:alice", "bob2:fire"}, order)
	require.Len(t, alice.Published(), 1)
	assert.Equal(t, KindTopic, alice.Published()[0].Kind)
}

func TestQueries_FixturesAndCache(t *testing.T) {
	hub := NewHub()
	c := hub.Client()
	q := reactor.Query{"goals": map[string]any{}}

	_, ok := c.PreviousResult(q)
	assert.False(t, ok)

	var got []reactor.QueryResult
	unsub := c.SubscribeQuery(q, func(r reactor.QueryResult) { got = append(got, r) })
	assert.Empty(t, got)
	assert.Equal(t, 1, c.ActiveQuerySubscriptions())

	result := reactor.QueryResult{Data: reactor.Data{"goals": []any{"a"}}}
	hub.SetResult(reactor.Query{"goals": nil}, result)
	require.Len(t, got, 1)

	cached, ok := c.PreviousResult(q)
	require.True(t, ok)
	assert.Equal(t, result.Data, cached.Data)

	unsub()
	unsub()
	assert.Equal(t, 0, c.ActiveQuerySubscriptions())

	hub.SetResult(q, reactor.QueryResult{Data: reactor.Data{}})
	assert.Len(t, got, 1)

	once, err := c.QueryOnce(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, reactor.Data{}, once.Data)
}

func TestClient_OfflineAndTransact(t *testing.T) {
	hub := NewHub()
	c := hub.Client()

	res, err := c.Transact(context.Background(), reactor.TxChunk{Op: reactor.TxUpdate, Namespace: "goals", ID: "g1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ClientEventID)
	assert.Len(t, c.Transactions(), 1)

	var statuses []reactor.ConnectionStatus
	defer c.SubscribeConnectionStatus(func(s reactor.ConnectionStatus) { statuses = append(statuses, s) })()
	c.SetStatus(reactor.StatusClosed)
	_, err = c.Transact(context.Background())
	assert.ErrorIs(t, err, reactor.ErrOffline)
	assert.Equal(t, []reactor.ConnectionStatus{reactor.StatusClosed}, statuses)
}

func TestClient_LocalIDStablePerName(t *testing.T) {
	c := NewHub().Client()
	ctx := context.Background()
	a1, err := c.LocalID(ctx, "device")
	require.NoError(t, err)
	a2, _ := c.LocalID(ctx, "device")
	b, _ := c.LocalID(ctx, "other")
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
}

func TestClient_AuthPushes(t *testing.T) {
	c := NewHub().Client()
	var states []reactor.AuthState
	unsub := c.SubscribeAuth(func(s reactor.AuthState) { states = append(states, s) })

	c.SetUser(&reactor.User{ID: "u1"})
	user, err := c.GetAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	unsub()
	c.SetUser(nil)
	require.Len(t, states, 1)
	assert.Nil(t, c.CurrentUser().User)
}

func TestClient_CloseLeavesRooms(t *testing.T) {
	hub := NewHub()
	alice := hub.Client(WithPeerID("alice"))
	bob := hub.Client(WithPeerID("bob"))
	defer alice.JoinRoom("r", "1", nil)()
	bob.JoinRoom("r", "1", nil)

	bob.Close()
	snap, _ := alice.Presence("r", "1", reactor.PresenceOpts{})
	assert.Empty(t, snap.Peers)
	assert.Equal(t, reactor.StatusClosed, bob.Status())
}
