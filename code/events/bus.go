package events

import (
	"sync"

	"github.com/Voltaic314/IRQWave/code/types/events"
)

type subscriberChan chan events.EventMessage

// EventBus is the shared pub-sub bus the controller uses to push console
// notices (triggered / ignored / completed) without ever blocking on a
// slow reader.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscriberChan // group → list of channels
}

// NewEventBus creates the shared pub-sub bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]subscriberChan),
	}
}

// Subscribe returns a channel that receives all events for a group
func (bus *EventBus) Subscribe(group string) <-chan events.EventMessage {
	ch := make(subscriberChan, 100) // buffered for safety
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers[group] = append(bus.subscribers[group], ch)
	return ch
}

// Emit sends an event to all subscribers of the To group
func (bus *EventBus) Emit(msg events.EventMessage) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, ch := range bus.subscribers[msg.To.Group] {
		select {
		case ch <- msg:
		default:
			// Buffer full: drop rather than stall the controller loop.
		}
	}
}
