// internal/app/system/realtime/broker.go

// Package realtime turns committed writes into typed change events and fans
// them out to WebSocket subscribers as full collection snapshots, replacing
// the original hosted-database listeners with an explicit pub/sub layer.
package realtime

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collections that can be subscribed to.
const (
	CollFeedback  = "feedback"
	CollClubPosts = "club_posts"
	CollClubs     = "clubs"
	CollUsers     = "users"
)

// Op classifies a change.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is one committed mutation. Subscribers receive the full collection
// snapshot, so the event itself only needs to say which collection moved.
type Change struct {
	Collection string
	Op         Op
	ID         primitive.ObjectID
}

// Broker fans out changes to subscribers. Each subscriber has a small
// buffered channel; when a subscriber lags, intermediate events are dropped
// and replaced by one coalesced event per collection, which a
// per-subscription flusher pushes as soon as the consumer frees space.
// Snapshot delivery makes dropped intermediates harmless: the next snapshot
// carries all of them.
type Broker struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription is a live feed of changes for a set of collections.
type Subscription struct {
	C chan Change

	broker      *Broker
	collections map[string]bool
	pending     map[string]Change // coalesced per collection when C is full
	wake        chan struct{}     // signals the flusher that pending is non-empty
	done        chan struct{}     // closed by Close; the flusher then closes C
	mu          sync.Mutex
	closed      bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers interest in the given collections. Cancel the
// subscription with Close when the consumer goes away.
func (b *Broker) Subscribe(collections ...string) *Subscription {
	sub := &Subscription{
		C:           make(chan Change, 16),
		broker:      b,
		collections: make(map[string]bool, len(collections)),
		pending:     make(map[string]Change),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	for _, c := range collections {
		sub.collections[c] = true
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	go sub.flusher()
	return sub
}

// Publish delivers the change to every interested subscriber without ever
// blocking the caller.
func (b *Broker) Publish(change Change) {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(change)
	}
}

func (s *Subscription) deliver(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.collections[change.Collection] {
		return
	}

	// While the flusher still holds coalesced leftovers, new changes join
	// them instead of jumping the queue.
	if len(s.pending) == 0 {
		select {
		case s.C <- change:
			return
		default:
		}
	}
	s.pending[change.Collection] = change
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// flusher pushes coalesced changes once the consumer frees buffer space, so
// a subscriber that lagged and then caught up still receives the final
// change without waiting for an unrelated publish. It owns closing C.
func (s *Subscription) flusher() {
	for {
		select {
		case <-s.done:
			close(s.C)
			return
		case <-s.wake:
		}
		for {
			s.mu.Lock()
			var (
				coll  string
				next  Change
				found bool
			)
			for c, p := range s.pending {
				coll, next, found = c, p, true
				break
			}
			if !found {
				s.mu.Unlock()
				break
			}
			delete(s.pending, coll)
			s.mu.Unlock()

			select {
			case s.C <- next:
			case <-s.done:
				close(s.C)
				return
			}
		}
	}
}

// Close detaches the subscription from the broker. The channel is closed by
// the flusher once it stops. Safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.broker.mu.Lock()
	delete(s.broker.subs, s)
	s.broker.mu.Unlock()

	close(s.done)
}

// Collections returns the collections this subscription watches.
func (s *Subscription) Collections() []string {
	out := make([]string, 0, len(s.collections))
	for c := range s.collections {
		out = append(out, c)
	}
	return out
}
