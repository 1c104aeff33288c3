// Package relay provides the room-scoped broadcast core for Roomcast:
// the bounded per-room message relay, the room registry, and the
// delivered-message view counter.
package relay

import (
	"errors"
	"sync"
)

// DefaultCapacity is the per-subscriber buffer size used when a relay is
// created with a non-positive capacity.
const DefaultCapacity = 100

// ErrRelayClosed is returned by Publish and Subscribe once a relay has been
// shut down.
var ErrRelayClosed = errors.New("relay is closed")

// Message is the JSON payload exchanged on chat sockets. User is always set
// by the server from the connection's bound username before publication;
// any value supplied by a client is discarded.
type Message struct {
	User string `json:"user"`
	Body string `json:"message"`
}

// Relay fans messages out to the current subscribers of a single room.
// Publishing never blocks: every subscriber owns a buffered channel, and a
// subscriber whose buffer is full at publish time loses its subscription
// rather than stalling the room (its channel is closed and it is removed).
type Relay struct {
	capacity int

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription is one receiver's independent cursor over a relay. Messages
// arrive on C in publish order. C is closed when the subscription is
// cancelled, dropped for lagging, or the relay shuts down.
type Subscription struct {
	relay *Relay
	ch    chan Message
}

// NewRelay creates a relay whose subscribers each buffer up to capacity
// pending messages. A non-positive capacity falls back to DefaultCapacity.
func NewRelay(capacity int) *Relay {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Relay{
		capacity: capacity,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new receiver with the relay. The subscription
// observes only messages published after Subscribe returns; earlier
// messages are never backfilled.
func (r *Relay) Subscribe() (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRelayClosed
	}

	sub := &Subscription{
		relay: r,
		ch:    make(chan Message, r.capacity),
	}
	r.subs[sub] = struct{}{}
	return sub, nil
}

// Publish delivers msg to every current subscriber except sender. The
// sender, when non-nil, is the publisher's own subscription; skipping it
// keeps a session from echoing a client's message back to that client.
// Publishing with no one to deliver to discards the message and succeeds.
//
// A subscriber whose buffer is full is dropped: its channel is closed and
// it stops receiving. Callers that need stronger delivery guarantees than
// best-effort fan-out should not be built on this type.
func (r *Relay) Publish(msg Message, sender *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRelayClosed
	}

	for sub := range r.subs {
		if sub == sender {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			// The subscriber is too far behind to catch up.
			delete(r.subs, sub)
			close(sub.ch)
		}
	}

	return nil
}

// Close marks the relay closed and invalidates every subscription. Further
// Publish and Subscribe calls return ErrRelayClosed. Close is idempotent.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for sub := range r.subs {
		delete(r.subs, sub)
		close(sub.ch)
	}
}

// Subscribers reports the number of currently registered subscriptions.
func (r *Relay) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// C returns the channel messages are delivered on.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Close removes the subscription from its relay and closes the delivery
// channel. Buffered but unread messages are discarded. Close is safe to
// call multiple times and concurrently with Publish.
func (s *Subscription) Close() {
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()

	if _, ok := s.relay.subs[s]; ok {
		delete(s.relay.subs, s)
		close(s.ch)
	}
}
