package session

import "sync"

// EventKind identifies what changed in the session state.
type EventKind string

const (
	// EventUpdated is broadcast when new tokens were obtained (login or refresh)
	EventUpdated EventKind = "updated"
	// EventForcedLogout is broadcast when the session became unrecoverable
	EventForcedLogout EventKind = "forced-logout"
)

// Event is delivered to every subscriber, synchronously in the goroutine that
// caused the state change.
type Event struct {
	Kind    EventKind
	Session *Session // set for EventUpdated, nil otherwise
}

// Broadcaster fans session events out to subscribers so independent consumers
// stay consistent without direct coupling. Owned by the Manager.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(Event))}
}

// Subscribe registers a callback and returns a function that removes it.
func (b *Broadcaster) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Broadcast delivers the event to all current subscribers. Callbacks run
// outside the lock so a subscriber may unsubscribe from within its callback.
func (b *Broadcaster) Broadcast(event Event) {
	b.mu.Lock()
	callbacks := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		callbacks = append(callbacks, fn)
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn(event)
	}
}
