// Package events provides shared types for event-driven communication across components.
package events

// BusTarget identifies a sender or recipient group on the event bus.
type BusTarget struct {
	Group        string
	ID           *string // if targeting a specific instance
	BroadcastAll bool    // if true, ignore ID and send to entire group
}

// EventMessage represents a generic message that can be passed between components via the event bus.
type EventMessage struct {
	From      BusTarget
	To        BusTarget
	EventType string
	Payload   map[string]any
}

// Event types (constants)
const (
	EventISRStarted   = "isr_started"
	EventISRCompleted = "isr_completed"
	EventIgnored      = "interrupt_ignored"
)

// Bus groups (constants)
const (
	GroupConsole = "console"
)
