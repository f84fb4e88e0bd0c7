package instant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/reactor"
	"github.com/odvcencio/furry-live/reactor/memory"
)

func TestUseAuth_FollowsSignInAndOut(t *testing.T) {
	r := memory.NewHub().Client()
	c := newClient(t, r)

	auth := c.UseAuth()
	assert.Nil(t, auth.User.Peek())

	r.SetUser(&reactor.User{ID: "u1", Email: "u1@example.com"})
	require.NotNil(t, auth.User.Peek())
	assert.Equal(t, "u1", auth.User.Peek().ID)

	user, err := c.GetAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", user.Email)

	auth.Stop()
	auth.Stop()
	r.SetUser(nil)
	assert.NotNil(t, auth.User.Peek())
}

func TestUseUser_RequiresSignedInUser(t *testing.T) {
	r := memory.NewHub().Client()
	c := newClient(t, r)

	_, _, err := c.UseUser()
	assert.ErrorIs(t, err, reactor.ErrNotSignedIn)
	assert.Panics(t, func() { c.MustUseUser() })

	r.SetUser(&reactor.User{ID: "u2"})
	user, stop := c.MustUseUser()
	defer stop()
	assert.Equal(t, "u2", user.Peek().ID)

	r.SetUser(nil)
	assert.Nil(t, user.Peek())
}
