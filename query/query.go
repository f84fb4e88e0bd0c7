// Package query binds a possibly reactive query to a reactor.QueryEngine and
// exposes the live result as reactive cells.
package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/odvcencio/furry-live/binding"
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
)

// Options are per-query settings.
type Options struct {
	// RuleParams are forwarded to permission rules under RuleParamsKey.
	RuleParams map[string]any
}

// Policy controls what happens when the query becomes nil.
type Policy struct {
	// KeepLoadingOnNull leaves IsLoading untouched instead of clearing it.
	KeepLoadingOnNull bool
	// ClearDataOnNull drops Data, PageInfo and Error.
	ClearDataOnNull bool
}

// State is the live result of a bound query.
type State struct {
	IsLoading reactive.Cell[bool]
	Data      reactive.Cell[reactor.Data]
	PageInfo  reactive.Cell[reactor.PageInfo]
	Error     reactive.Cell[error]

	// Query is the normalized query, nil when absent or invalid.
	Query reactive.Derived[reactor.Query]
	// Hash is the structural hash of Query. It only changes on a real change.
	Hash reactive.Derived[string]

	stop reactive.Disposer
}

// Stop unsubscribes. Cells keep their last value. Safe to call repeatedly.
func (s *State) Stop() {
	if s == nil || s.stop == nil {
		return
	}
	s.stop()
}

type normalized struct {
	query reactor.Query
	hash  string
	err   error
}

func normalize(q reactor.Query, opts *Options) normalized {
	var params map[string]any
	if opts != nil {
		params = opts.RuleParams
	}
	nq, err := Normalize(q, params)
	if err != nil {
		return normalized{hash: "invalid:" + err.Error(), err: err}
	}
	return normalized{query: nq, hash: Hash(nq)}
}

// Use binds q to engine. A nil query subscribes to nothing. State is seeded
// from the engine cache so a remount does not flash a loading state.
func Use(env binding.Env, engine reactor.QueryEngine, q reactive.Maybe[reactor.Query], opts reactive.Maybe[*Options], policy Policy) *State {
	caps := env.Caps
	norm := reactive.NewDerived(caps, func() normalized {
		return normalize(q.Resolve(), opts.Resolve())
	})
	s := &State{
		Query: reactive.NewDerived(caps, func() reactor.Query { return norm.Get().query }),
		Hash:  reactive.NewDerived(caps, func() string { return norm.Get().hash }),
	}

	initial := norm.Peek()
	seed := reactor.QueryResult{}
	cached := false
	if initial.query != nil {
		seed, cached = engine.PreviousResult(initial.query)
	}
	s.IsLoading = reactive.NewCell(caps, !cached)
	s.Data = reactive.NewCell(caps, seed.Data)
	s.PageInfo = reactive.NewCell(caps, seed.PageInfo)
	s.Error = reactive.NewCell(caps, seed.Error)

	b := &binder{env: env, engine: engine, state: s, policy: policy}
	effect := caps.Effect(func() reactive.Disposer {
		hash := s.Hash.Get()
		b.sync(hash, norm.Peek())
		return nil
	})
	s.stop = env.Own(func() {
		effect()
		b.stop()
	})
	return s
}

// binder owns the single live subscription of a State.
type binder struct {
	env    binding.Env
	engine reactor.QueryEngine
	state  *State
	policy Policy

	mu      sync.Mutex
	hash    string
	unsub   func()
	gen     uint64
	stopped bool
}

func (b *binder) sync(hash string, n normalized) {
	b.mu.Lock()
	if b.stopped || (b.unsub != nil && b.hash == hash) {
		b.mu.Unlock()
		return
	}
	prev := b.unsub
	b.unsub = nil
	b.hash = hash
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	if prev != nil {
		prev()
	}

	s := b.state
	switch {
	case n.err != nil:
		b.env.Log().Debug("query rejected", slog.String("op", "query.normalize"), slog.Any("error", n.err))
		b.env.Caps.Batched(func() {
			s.IsLoading.Set(false)
			s.Error.Set(n.err)
		})
		return
	case n.query == nil:
		b.env.Caps.Batched(func() {
			if !b.policy.KeepLoadingOnNull {
				s.IsLoading.Set(false)
			}
			if b.policy.ClearDataOnNull {
				s.Data.Set(nil)
				s.PageInfo.Set(nil)
				s.Error.Set(nil)
			}
		})
		return
	}

	unsub := b.engine.SubscribeQuery(n.query, func(res reactor.QueryResult) {
		b.env.Dispatch(func() {
			if !b.current(gen) {
				return
			}
			s.IsLoading.Set(false)
			s.Data.Set(res.Data)
			s.PageInfo.Set(res.PageInfo)
			s.Error.Set(res.Error)
		})
	})

	b.mu.Lock()
	if b.stopped || b.gen != gen {
		b.mu.Unlock()
		unsub()
		return
	}
	b.unsub = unsub
	b.mu.Unlock()
}

func (b *binder) current(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.stopped && b.gen == gen
}

func (b *binder) stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Once normalizes q and runs it a single time.
func Once(ctx context.Context, engine reactor.QueryEngine, q reactor.Query, opts *Options) (reactor.QueryResult, error) {
	n := normalize(q, opts)
	if n.err != nil {
		return reactor.QueryResult{}, n.err
	}
	if n.query == nil {
		return reactor.QueryResult{}, nil
	}
	return engine.QueryOnce(ctx, n.query)
}
