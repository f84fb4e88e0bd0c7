package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/odvcencio/furry-live/clock"
	"github.com/odvcencio/furry-live/config"
	"github.com/odvcencio/furry-live/cursors"
	"github.com/odvcencio/furry-live/instant"
	"github.com/odvcencio/furry-live/logging"
	"github.com/odvcencio/furry-live/query"
	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
	"github.com/odvcencio/furry-live/reactor/memory"
	"github.com/odvcencio/furry-live/rooms"
	"github.com/odvcencio/furry-live/state"
)

// Epoch is the manual clock's starting time.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Event is one observed change. Step 0 is the state right after setup.
type Event struct {
	Step  int             `json:"step"`
	Peer  string          `json:"peer,omitempty"`
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Event kinds.
const (
	KindRoom     = "room"
	KindPresence = "presence"
	KindTyping   = "typing"
	KindCursors  = "cursors"
	KindQuery    = "query"
	KindTopic    = "topic"
	KindStopped  = "stopped"
)

// Option configures Run.
type Option func(*runner)

// WithConfig sets the binding defaults every peer uses.
func WithConfig(cfg config.Config) Option {
	return func(r *runner) { r.cfg = cfg }
}

// WithLogger sets the logger shared by the hub and the peers.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) { r.logger = l }
}

type runner struct {
	s      *Scenario
	cfg    config.Config
	logger *slog.Logger
	clock  *clock.Manual
	hub    *memory.Hub
	peers  []*peer
	byName map[string]*peer
	events []Event
}

type peer struct {
	name       string
	scope      *state.Scope
	client     *instant.Client
	roomID     reactive.Cell[string]
	room       *rooms.Room
	presence   *rooms.PresenceHandle
	typing     *rooms.TypingHandle
	cursors    *cursors.Handle
	query      reactive.Cell[reactor.Query]
	result     *query.State
	publishers map[string]*rooms.Publisher
	inbox      []received
	stopped    bool
	last       map[string]string
}

type received struct {
	Topic string `json:"topic"`
	From  any    `json:"from"`
	Data  any    `json:"data"`
}

// Run replays s and returns every observed change in order.
func Run(s *Scenario, opts ...Option) ([]Event, error) {
	r := &runner{
		s:      s,
		cfg:    config.Default(),
		logger: logging.Discard(),
		clock:  clock.NewManual(Epoch),
		byName: make(map[string]*peer),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.hub = memory.NewHub(memory.WithLogger(r.logger))

	for _, name := range s.Peers {
		p, err := r.newPeer(name)
		if err != nil {
			return nil, err
		}
		r.peers = append(r.peers, p)
		r.byName[name] = p
	}
	defer func() {
		for _, p := range r.peers {
			p.dispose()
		}
	}()

	r.observe(0)
	for i, step := range s.Steps {
		if err := r.apply(i+1, step); err != nil {
			return r.events, fmt.Errorf("step %d (%s): %w", i+1, step.Do, err)
		}
		r.observe(i + 1)
	}
	return r.events, nil
}

// WriteJSONLines writes one JSON object per event.
func WriteJSONLines(w io.Writer, events []Event) error {
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) newPeer(name string) (*peer, error) {
	rt := state.NewRuntime()
	scope := state.NewScope()
	client, err := instant.New(
		r.hub.Client(memory.WithPeerID(name)),
		rt.Capabilities(scope),
		instant.WithClock(r.clock),
		instant.WithLogger(r.logger.With(slog.String("peer", name))),
		instant.WithConfig(r.cfg),
	)
	if err != nil {
		scope.Dispose()
		return nil, err
	}
	caps := client.Env().Caps
	p := &peer{
		name:       name,
		scope:      scope,
		client:     client,
		roomID:     reactive.NewCell(caps, r.s.Room.ID),
		query:      reactive.NewCell[reactor.Query](caps, nil),
		publishers: make(map[string]*rooms.Publisher),
		last:       make(map[string]string),
	}
	p.room = client.Room(reactive.Literal(r.s.Room.Type), reactive.FromCell[string](p.roomID))
	p.presence = p.room.UsePresence(reactive.Maybe[reactor.PresenceOpts]{})
	input := r.s.TypingInput
	if input == "" {
		input = "message"
	}
	p.typing = p.room.UseTypingIndicator(reactive.Literal(input), reactive.Maybe[rooms.TypingOptions]{})
	p.cursors = client.UseCursors(p.room, reactive.Maybe[cursors.Options]{})
	p.result = client.UseQuery(reactive.FromCell[reactor.Query](p.query), reactive.Maybe[*query.Options]{})
	if len(r.s.Topics) > 0 {
		p.room.UseTopicEffect(reactive.Literal(r.s.Topics), func(event any, from reactor.Presence, topic string) {
			p.inbox = append(p.inbox, received{Topic: topic, From: from[reactor.PeerIDKey], Data: event})
		})
	}
	return p, nil
}

func (p *peer) dispose() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.client.Close()
	p.scope.Dispose()
}

func (r *runner) apply(n int, step Step) error {
	args := arguments(step.Args)
	switch step.Do {
	case ActSetQueryResult:
		q, err := args.object("query")
		if err != nil {
			return err
		}
		data, err := args.object("data")
		if err != nil {
			return err
		}
		r.hub.SetResult(reactor.Query(q), reactor.QueryResult{Data: reactor.Data(data)})
		return nil
	case ActAdvance:
		d, err := args.duration("by")
		if err != nil {
			return err
		}
		r.clock.Advance(d)
		return nil
	}

	p := r.byName[step.Peer]
	if p.stopped {
		return fmt.Errorf("peer %q is stopped", p.name)
	}
	switch step.Do {
	case ActPublishPresence:
		p.room.PublishPresence(reactor.Presence(step.Args))
	case ActSetQuery:
		if args["query"] == nil {
			p.query.Set(nil)
			return nil
		}
		q, err := args.object("query")
		if err != nil {
			return err
		}
		p.query.Set(reactor.Query(q))
	case ActPublishTopic:
		topic, err := args.string("topic")
		if err != nil {
			return err
		}
		pub, ok := p.publishers[topic]
		if !ok {
			pub = p.room.UsePublishTopic(reactive.Literal(topic))
			p.publishers[topic] = pub
		}
		pub.Publish(args["data"])
	case ActTyping:
		active, err := args.bool("active")
		if err != nil {
			return err
		}
		p.typing.SetActive(active)
	case ActCursorMove:
		x, err := args.number("x")
		if err != nil {
			return err
		}
		y, err := args.number("y")
		if err != nil {
			return err
		}
		bounds := cursors.Rect{Width: args.numberOr("width", 100), Height: args.numberOr("height", 100)}
		p.cursors.OnPointerMove(cursors.PointerEvent{ClientX: x, ClientY: y, Bounds: &bounds})
	case ActCursorLeave:
		p.cursors.OnPointerLeave(cursors.PointerEvent{})
	case ActSwitchRoom:
		id, err := args.string("id")
		if err != nil {
			return err
		}
		p.roomID.Set(id)
	case ActStop:
		p.dispose()
		r.events = append(r.events, Event{Step: n, Peer: p.name, Kind: KindStopped})
	}
	return nil
}

func (r *runner) observe(step int) {
	for _, p := range r.peers {
		if p.stopped {
			continue
		}
		r.record(step, p, KindRoom, p.room.ID().Peek())
		r.record(step, p, KindPresence, p.presence.Peers.Peek())
		r.record(step, p, KindTyping, typingPeers(p.typing.Active.Peek()))
		r.record(step, p, KindCursors, cursorMap(p))
		r.record(step, p, KindQuery, queryView(p.result))
		for _, msg := range p.inbox {
			r.emit(step, p, KindTopic, msg)
		}
		p.inbox = nil
	}
}

func (r *runner) record(step int, p *peer, kind string, v any) {
	raw := mustJSON(v)
	if p.last[kind] == string(raw) {
		return
	}
	p.last[kind] = string(raw)
	r.events = append(r.events, Event{Step: step, Peer: p.name, Kind: kind, Value: raw})
}

func (r *runner) emit(step int, p *peer, kind string, v any) {
	r.events = append(r.events, Event{Step: step, Peer: p.name, Kind: kind, Value: mustJSON(v)})
}

func typingPeers(active []reactor.Presence) []string {
	ids := make([]string, 0, len(active))
	for _, p := range active {
		if id, ok := p[reactor.PeerIDKey].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

type cursorView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func cursorMap(p *peer) map[string]cursorView {
	out := make(map[string]cursorView)
	for id, rec := range p.cursors.Presence.Peers.Peek() {
		if c, ok := p.cursors.Cursor(rec); ok {
			out[id] = cursorView{X: c.XPercent, Y: c.YPercent}
		}
	}
	return out
}

type queryState struct {
	Loading bool         `json:"loading"`
	Data    reactor.Data `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func queryView(s *query.State) queryState {
	v := queryState{Loading: s.IsLoading.Peek(), Data: s.Data.Peek()}
	if err := s.Error.Peek(); err != nil {
		v.Error = err.Error()
	}
	return v
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		raw, _ = json.Marshal(fmt.Sprintf("unencodable: %v", err))
	}
	return raw
}

type arguments map[string]any

func (a arguments) object(key string) (map[string]any, error) {
	v, ok := a[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object", key)
	}
	return v, nil
}

func (a arguments) string(key string) (string, error) {
	v, ok := a[key].(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return v, nil
}

func (a arguments) bool(key string) (bool, error) {
	v, ok := a[key].(bool)
	if !ok {
		return false, fmt.Errorf("argument %q must be a boolean", key)
	}
	return v, nil
}

func (a arguments) number(key string) (float64, error) {
	switch v := a[key].(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("argument %q must be a number", key)
}

func (a arguments) numberOr(key string, fallback float64) float64 {
	if v, err := a.number(key); err == nil {
		return v
	}
	return fallback
}

func (a arguments) duration(key string) (time.Duration, error) {
	s, err := a.string(key)
	if err != nil {
		return 0, err
	}
	return time.ParseDuration(s)
}
