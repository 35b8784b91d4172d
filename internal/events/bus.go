package events

import "sync"

// EventName identifies a broadcast event on the wire. The names match the
// messages the browser clients already listen for.
type EventName string

const (
	EventReportCreated EventName = "newReport"
	EventReportUpdated EventName = "updateReport"
	EventReportDeleted EventName = "deleteReport"
)

// Event is a single broadcast message. Payload is the full record for
// create/update and the bare id for delete.
type Event struct {
	Name    EventName   `json:"event"`
	Payload interface{} `json:"payload"`
}

// Bus fans events out to every subscriber. Delivery is best-effort: a
// subscriber whose buffer is full misses the event and catches up on its
// next full list fetch.
type Bus interface {
	Publish(event Event)
	// Subscribe returns a channel of events and a cancel func. Cancel must
	// be called exactly once; it closes the channel.
	Subscribe() (<-chan Event, func())
}

const subscriberBuffer = 16

type memoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewBus creates the in-process bus shared by API handlers and websocket
// connections.
func NewBus() Bus {
	return &memoryBus{
		subs: make(map[int]chan Event),
	}
}

func (b *memoryBus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop rather than block the request handler
		}
	}
}

func (b *memoryBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}
