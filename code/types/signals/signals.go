// Package signals provides types for the SignalRouter event system.
package signals

import (
	"time"
)

// AckMode defines the acknowledgment mode for signals
type AckMode int

const (
	AckNone AckMode = iota // No acknowledgment required
	AckAny                 // Any subscriber can acknowledge
	AckAll                 // All subscribers must acknowledge
)

// Signal represents a message sent through the SignalRouter
type Signal struct {
	Topic     string        // The topic/channel for this signal
	Payload   any           // The data payload
	Ack       chan struct{} // Channel for acknowledgments
	AckMode   AckMode       // How acknowledgments should be handled
	Timestamp time.Time     // When the signal was created
	ID        string        // Unique identifier for the signal
}

// SignalHandler is a function type for processing signals
type SignalHandler func(Signal)

// Well-known topics
const (
	TopicShutdown = "shutdown" // broadcast when the process should wind down
)
