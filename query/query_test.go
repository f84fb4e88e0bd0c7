package query_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/binding"
	"github.com/odvcencio/furry-live/query"
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
	"github.com/odvcencio/furry-live/reactor/memory"
	"github.com/odvcencio/furry-live/state"
)

func newEnv(t *testing.T) (binding.Env, *state.Scope) {
	t.Helper()
	rt := state.NewRuntime()
	scope := state.NewScope()
	t.Cleanup(scope.Dispose)
	env, err := binding.NewEnv(rt.Capabilities(scope))
	require.NoError(t, err)
	return env, scope
}

// recordingEngine logs subscribe and unsubscribe calls in order.
type recordingEngine struct {
	events []string
	live   int
	max    int
	cbs    map[string]func(reactor.QueryResult)
	cache  map[string]reactor.QueryResult
}

func newRecordingEngine() *recordingEngine {
	return &recordingEngine{
		cbs:   make(map[string]func(reactor.QueryResult)),
		cache: make(map[string]reactor.QueryResult),
	}
}

func (e *recordingEngine) SubscribeQuery(q reactor.Query, cb func(reactor.QueryResult)) func() {
	h := query.Hash(q)
	e.events = append(e.events, "sub:"+h[:8])
	e.live++
	if e.live > e.max {
		e.max = e.live
	}
	e.cbs[h] = cb
	done := false
	return func() {
		if done {
			return
		}
		done = true
		e.events = append(e.events, "unsub:"+h[:8])
		e.live--
		delete(e.cbs, h)
	}
}

func (e *recordingEngine) PreviousResult(q reactor.Query) (reactor.QueryResult, bool) {
	res, ok := e.cache[query.Hash(q)]
	return res, ok
}

func (e *recordingEngine) QueryOnce(ctx context.Context, q reactor.Query) (reactor.QueryResult, error) {
	return reactor.QueryResult{}, nil
}

func (e *recordingEngine) push(q reactor.Query, res reactor.QueryResult) {
	n, _ := query.Normalize(q, nil)
	if cb := e.cbs[query.Hash(n)]; cb != nil {
		cb(res)
	}
}

func TestUse_QueryLifecycle(t *testing.T) {
	env, _ := newEnv(t)
	hub := memory.NewHub()
	client := hub.Client()

	todos := reactor.Query{"todos": map[string]any{}}
	input := reactive.NewCell(env.Caps, todos)
	st := query.Use(env, client, reactive.FromCell[reactor.Query](input), reactive.Maybe[*query.Options]{}, query.Policy{})

	assert.True(t, st.IsLoading.Peek())
	assert.Nil(t, st.Data.Peek())
	assert.Equal(t, 1, client.ActiveQuerySubscriptions())

	hub.SetResult(todos, reactor.QueryResult{
		Data:     reactor.Data{"todos": []any{map[string]any{"id": "1", "done": false}}},
		PageInfo: reactor.PageInfo{},
	})
	assert.False(t, st.IsLoading.Peek())
	require.Len(t, st.Data.Peek()["todos"], 1)
	assert.NoError(t, st.Error.Peek())

	input.Set(nil)
	assert.Equal(t, 0, client.ActiveQuerySubscriptions())
	assert.False(t, st.IsLoading.Peek())
	assert.Len(t, st.Data.Peek()["todos"], 1, "data is retained by default")
}

func TestUse_ClearDataOnNullPolicy(t *testing.T) {
	env, _ := newEnv(t)
	engine := newRecordingEngine()
	todos := reactor.Query{"todos": map[string]any{}}
	input := reactive.NewCell(env.Caps, todos)
	st := query.Use(env, engine, reactive.FromCell[reactor.Query](input), reactive.Maybe[*query.Options]{},
		query.Policy{ClearDataOnNull: true, KeepLoadingOnNull: true})

	input.Set(nil)
	assert.True(t, st.IsLoading.Peek())
	assert.Nil(t, st.Data.Peek())
	assert.Equal(t, 0, engine.live)
}

func TestUse_ResubscriptionExclusivity(t *testing.T) {
	env, _ := newEnv(t)
	engine := newRecordingEngine()
	input := reactive.NewCell(env.Caps, reactor.Query{"a": map[string]any{}})
	st := query.Use(env, engine, reactive.FromCell[reactor.Query](input), reactive.Maybe[*query.Options]{}, query.Policy{})
	defer st.Stop()

	input.Set(reactor.Query{"b": map[string]any{}})
	input.Set(reactor.Query{"c": map[string]any{}})
	input.Set(nil)
	input.Set(reactor.Query{"a": map[string]any{}})

	assert.Equal(t, 1, engine.max)
	assert.Equal(t, 1, engine.live)
	for i := 1; i < len(engine.events); i++ {
		prev, cur := engine.events[i-1], engine.events[i]
		if cur[:4] == "sub:" && prev[:4] == "sub:" {
			t.Fatalf("subscribe without prior unsubscribe: %v", engine.events)
		}
	}
}

func TestUse_EquivalentQueryKeepsSubscription(t *testing.T) {
	env, _ := newEnv(t)
	engine := newRecordingEngine()
	input := reactive.NewCell(env.Caps, reactor.Query{"todos": map[string]any{}, "goals": nil})
	st := query.Use(env, engine, reactive.FromCell[reactor.Query](input), reactive.Maybe[*query.Options]{}, query.Policy{})
	defer st.Stop()

	before := st.Hash.Peek()
	input.Set(reactor.Query{"goals": map[string]any{}, "todos": nil})
	assert.Equal(t, before, st.Hash.Peek())
	assert.Len(t, engine.events, 1)
}

func TestUse_RuleParamsChangeResubscribes(t *testing.T) {
	env, _ := newEnv(t)
	engine := newRecordingEngine()
	opts := reactive.NewCell(env.Caps, &query.Options{RuleParams: map[string]any{"org": "a"}})
	st := query.Use(env, engine, reactive.Literal(reactor.Query{"todos": nil}), reactive.FromCell[*query.Options](opts), query.Policy{})
	defer st.Stop()

	assert.Contains(t, st.Query.Peek(), query.RuleParamsKey)
	opts.Set(&query.Options{RuleParams: map[string]any{"org": "b"}})
	assert.Len(t, engine.events, 3)
	assert.Equal(t, 1, engine.live)
}

func TestUse_CacheSeeding(t *testing.T) {
	env, _ := newEnv(t)
	hub := memory.NewHub()
	client := hub.Client()
	q := reactor.Query{"todos": map[string]any{}}
	cached := reactor.QueryResult{Data: reactor.Data{"todos": []any{"t1"}}}
	hub.SetResult(q, cached)
	_, err := client.QueryOnce(context.Background(), q)
	require.NoError(t, err)

	engine := &peekOnly{QueryEngine: client}
	st := query.Use(env, engine, reactive.Literal(q), reactive.Maybe[*query.Options]{}, query.Policy{})
	defer st.Stop()

	assert.False(t, st.IsLoading.Peek())
	assert.Equal(t, cached.Data, st.Data.Peek())
}

// peekOnly never pushes, so state can only come from the cache.
type peekOnly struct {
	reactor.QueryEngine
}

func (peekOnly) SubscribeQuery(reactor.Query, func(reactor.QueryResult)) func() { return func() {} }

func TestUse_ErrorsBecomeState(t *testing.T) {
	env, _ := newEnv(t)
	engine := newRecordingEngine()
	q := reactor.Query{"todos": map[string]any{}}
	st := query.Use(env, engine, reactive.Literal(q), reactive.Maybe[*query.Options]{}, query.Policy{})
	defer st.Stop()

	qerr := &reactor.QueryError{Code: "permission-denied", Message: "nope"}
	engine.push(q, reactor.QueryResult{Error: qerr})
	assert.False(t, st.IsLoading.Peek())
	assert.True(t, reactor.IsQueryError(st.Error.Peek()))

	bad := query.Use(env, engine, reactive.Literal(reactor.Query{"todos": "x"}), reactive.Maybe[*query.Options]{}, query.Policy{})
	defer bad.Stop()
	var invalid *query.InvalidQueryError
	assert.True(t, errors.As(bad.Error.Peek(), &invalid))
	assert.False(t, bad.IsLoading.Peek())
	assert.Nil(t, bad.Query.Peek())
}

func TestUse_StopIsIdempotentAndFreezes(t *testing.T) {
	env, _ := newEnv(t)
	engine := newRecordingEngine()
	q := reactor.Query{"todos": map[string]any{}}
	input := reactive.NewCell(env.Caps, q)
	st := query.Use(env, engine, reactive.FromCell[reactor.Query](input), reactive.Maybe[*query.Options]{}, query.Policy{})

	cb := engine.cbs[query.Hash(st.Query.Peek())]
	require.NotNil(t, cb)

	st.Stop()
	st.Stop()
	assert.Equal(t, 0, engine.live)
	assert.Equal(t, []string{engine.events[0], "unsub:" + engine.events[0][4:]}, engine.events)

	cb(reactor.QueryResult{Data: reactor.Data{"todos": []any{}}})
	input.Set(reactor.Query{"other": nil})
	assert.True(t, st.IsLoading.Peek())
	assert.Nil(t, st.Data.Peek())
	assert.Len(t, engine.events, 2)
}

func TestUse_ScopeDisposalStops(t *testing.T) {
	env, scope := newEnv(t)
	hub := memory.NewHub()
	client := hub.Client()
	query.Use(env, client, reactive.Literal(reactor.Query{"todos": nil}), reactive.Maybe[*query.Options]{}, query.Policy{})
	assert.Equal(t, 1, client.ActiveQuerySubscriptions())
	scope.Dispose()
	assert.Equal(t, 0, client.ActiveQuerySubscriptions())
}

func TestOnce(t *testing.T) {
	hub := memory.NewHub()
	client := hub.Client()
	q := reactor.Query{"todos": map[string]any{}}
	hub.SetResult(q, reactor.QueryResult{Data: reactor.Data{"todos": []any{"a"}}})

	res, err := query.Once(context.Background(), client, reactor.Query{"todos": nil}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Data["todos"], 1)

	_, err = query.Once(context.Background(), client, reactor.Query{"todos": 1}, nil)
	assert.Error(t, err)
}
