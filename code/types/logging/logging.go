// Package logging provides types for logging operations and data structures.
package logging

import (
	"time"
)

// LogEntry represents a structured log entry compatible with the DuckDB schema.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Entity    string         `json:"entity,omitempty"`    // Entity type: 'controller', 'device', 'console', 'system', etc.
	EntityID  string         `json:"entity_id,omitempty"` // Unique identifier for the entity
	Details   map[string]any `json:"details,omitempty"`   // Optional details
	Message   string         `json:"message"`
	Action    string         `json:"action,omitempty"` // Action like 'RAISE_INTERRUPT' capital snake case style
	Device    string         `json:"device,omitempty"` // Device name for device-scoped logs
}

// DeviceAcronyms maps device names to single-letter acronyms for log subtopic filtering.
var DeviceAcronyms = map[string]string{
	"Keyboard": "k",
	"Mouse":    "m",
	"Printer":  "p",
}
