package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/binding"
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/state"
)

func TestNewEnv_RejectsIncompleteCapabilities(t *testing.T) {
	_, err := binding.NewEnv(reactive.Capabilities{})
	assert.ErrorIs(t, err, reactive.ErrIncompleteCapabilities)
	assert.Panics(t, func() { binding.MustEnv(reactive.Capabilities{}) })
}

func TestDispatch_BatchesThroughDispatcher(t *testing.T) {
	rt := state.NewRuntime()
	scope := state.NewScope()
	defer scope.Dispose()
	queue := state.NewQueue()

	env, err := binding.NewEnv(rt.Capabilities(scope), binding.WithDispatcher(queue))
	require.NoError(t, err)

	a := reactive.NewCell(env.Caps, 0)
	b := reactive.NewCell(env.Caps, 0)
	var seen [][2]int
	env.Caps.Effect(func() reactive.Disposer {
		seen = append(seen, [2]int{a.Get(), b.Get()})
		return nil
	})

	env.Dispatch(func() {
		a.Set(1)
		b.Set(2)
	})
	assert.Len(t, seen, 1, "nothing runs before the owner flushes")

	queue.Flush()
	assert.Equal(t, [][2]int{{0, 0}, {1, 2}}, seen)
}

func TestOwn_DisposesOnceAtScopeEnd(t *testing.T) {
	rt := state.NewRuntime()
	scope := state.NewScope()
	env := binding.MustEnv(rt.Capabilities(scope))

	calls := 0
	stop := env.Own(func() { calls++ })
	stop()
	scope.Dispose()
	stop()
	assert.Equal(t, 1, calls)
	assert.NotNil(t, env.Log())
	assert.NotNil(t, env.Now())
}
