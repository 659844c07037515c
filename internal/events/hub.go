// Package events fans out resource change notifications to subscribers
// such as the /v1/events websocket stream.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cloudemu/zero/internal/constants"
)

// Event types.
const (
	TypeCreated = "Created"
	TypeDeleted = "Deleted"
	TypeUpdated = "Updated"
)

// Event describes a change to a resource.
type Event struct {
	Type     string    `json:"type"`
	Resource string    `json:"resource"`
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
}

// New builds an event stamped with the current time.
func New(eventType, resource, id string) Event {
	return Event{Type: eventType, Resource: resource, ID: id, Time: time.Now().UTC()}
}

// Publisher is implemented by anything that accepts events.
type Publisher interface {
	Publish(ev Event)
}

// Hub broadcasts published events to every subscriber. Slow subscribers
// lose events rather than block publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		subs:   make(map[uint64]chan Event),
		logger: log,
	}
}

// Publish delivers ev to all current subscribers without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("dropping event for slow subscriber",
				"subscriber", id, "resource", ev.Resource, "id", ev.ID)
		}
	}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, constants.EventChannelBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Discard is a Publisher that drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(Event) {}
