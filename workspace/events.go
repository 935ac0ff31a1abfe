package workspace

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind classifies a workspace change notification.
type EventKind int

const (
	SolutionChanged EventKind = iota
	ProjectAdded
	ProjectRemoved
	DocumentAdded
	DocumentRemoved
	DocumentChanged
)

var eventKindNames = [...]string{
	SolutionChanged: "SolutionChanged",
	ProjectAdded:    "ProjectAdded",
	ProjectRemoved:  "ProjectRemoved",
	DocumentAdded:   "DocumentAdded",
	DocumentRemoved: "DocumentRemoved",
	DocumentChanged: "DocumentChanged",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "UnknownEventKind"
}

// Event is delivered to subscribers after every successful swap of the
// current solution. Exactly one event is published per mutating call; when a
// call changes several documents at once the dominant kind summarizes them.
type Event struct {
	Kind EventKind

	// OldSolution and NewSolution are the snapshots before and after the
	// swap. Both remain valid and immutable.
	OldSolution *Solution
	NewSolution *Solution

	// ProjectID identifies the project the event is about, when applicable.
	ProjectID ProjectID

	// DocumentID identifies the document the event is about, when
	// applicable.
	DocumentID DocumentID
}

// Subscription is the handle returned by Subscribe. The registry holds
// subscribers by id only; dropping every reference to a handler after
// Unsubscribe lets it be collected, so subscribing never leaks the
// subscriber.
type Subscription struct {
	id  uuid.UUID
	bus *eventBus
}

// Unsubscribe removes the handler from the registry. Safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.remove(s.id)
	}
}

type subscriber struct {
	id      uuid.UUID
	handler func(Event)
}

// eventBus is an id-indexed subscriber registry. Dispatch is synchronous and
// in registration order. Events are enqueued under the workspace mutation
// lock, so queue order matches swap order and the notification for call N
// happens before the one for call N+1; delivery happens after the lock is
// released, so a handler may itself mutate the workspace. A reentrant
// mutation's event joins the queue and is delivered after the current one.
type eventBus struct {
	mu          sync.Mutex
	subscribers []subscriber
	queue       []Event
	draining    bool
}

func newEventBus() *eventBus {
	return &eventBus{}
}

func (b *eventBus) subscribe(handler func(Event)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New()
	b.subscribers = append(b.subscribers, subscriber{id: id, handler: handler})
	return &Subscription{id: id, bus: b}
}

func (b *eventBus) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			return
		}
	}
}

func (b *eventBus) enqueue(event Event) {
	b.mu.Lock()
	b.queue = append(b.queue, event)
	b.mu.Unlock()
}

// drain delivers queued events in order. Only one goroutine drains at a time;
// a reentrant drain returns immediately and the outer loop picks up whatever
// the handler enqueued.
func (b *eventBus) drain() {
	b.mu.Lock()
	if b.draining {
		b.mu.Unlock()
		return
	}
	b.draining = true
	for len(b.queue) > 0 {
		event := b.queue[0]
		b.queue = b.queue[1:]
		subs := make([]subscriber, len(b.subscribers))
		copy(subs, b.subscribers)
		b.mu.Unlock()

		for _, s := range subs {
			s.handler(event)
		}
		b.mu.Lock()
	}
	b.draining = false
	b.mu.Unlock()
}

func (b *eventBus) publish(event Event) {
	b.enqueue(event)
	b.drain()
}
