package rooms

import (
	"sync"

	"github.com/odvcencio/furry-live/reactive"
	"github.com/odvcencio/furry-live/reactor"
)

// TopicHandler receives one broadcast event.
type TopicHandler func(event any, peer reactor.Presence, topic string)

// Publisher publishes to a topic. Publish keeps pointing at the current room
// and topic even as they change.
type Publisher struct {
	mu    sync.RWMutex
	bound func(data any)
	stop  reactive.Disposer
}

// Publish broadcasts data. Failures are logged, never returned.
func (p *Publisher) Publish(data any) {
	p.mu.RLock()
	fn := p.bound
	p.mu.RUnlock()
	if fn != nil {
		fn(data)
	}
}

// Stop leaves the room and unbinds Publish.
func (p *Publisher) Stop() {
	p.stop()
}

func (p *Publisher) rebind(fn func(data any)) {
	p.mu.Lock()
	p.bound = fn
	p.mu.Unlock()
}

// UsePublishTopic returns a Publisher for topic. It holds room membership for
// its lifetime.
func (r *Room) UsePublishTopic(topic reactive.Maybe[string]) *Publisher {
	p := &Publisher{}
	stopJoin := r.join(nil)
	stopBind := r.env.Caps.Effect(func() reactive.Disposer {
		typ, id := r.identity()
		name := topic.Resolve()
		p.rebind(func(data any) {
			err := r.reactor.PublishTopic(reactor.TopicMessage{RoomType: typ, RoomID: id, Topic: name, Data: data})
			r.logFailure("topic.publish", typ, id, err)
		})
		return nil
	})
	p.stop = r.Own(func() {
		stopJoin()
		stopBind()
		p.rebind(nil)
	})
	return p
}

// UseTopicEffect calls every handler, in order, for each event on any of
// topics. Changing the room or the topic list replaces exactly the previous
// subscriptions.
func (r *Room) UseTopicEffect(topics reactive.Maybe[[]string], handlers ...TopicHandler) reactive.Disposer {
	gen := &generation{}
	effect := r.env.Caps.Effect(func() reactive.Disposer {
		typ, id := r.identity()
		names := topics.Resolve()
		g := gen.next()

		var subs reactive.Disposers
		for _, name := range names {
			name := name
			subs.Add(reactive.Disposer(r.reactor.SubscribeTopic(typ, id, name, func(event any, peer reactor.Presence) {
				r.env.Dispatch(func() {
					if !gen.current(g) {
						return
					}
					for _, h := range handlers {
						h(event, peer, name)
					}
				})
			})))
		}
		return subs.Dispose
	})
	return r.Own(func() {
		gen.stop()
		effect()
	})
}
