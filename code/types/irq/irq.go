// Package irq provides the shared types for the interrupt simulation:
// devices, interrupt events, and per-device timing profiles.
package irq

import (
	"strings"
	"time"
)

// Device identifies one of the simulated interrupt sources. The numeric
// value doubles as the priority rank: higher value wins selection.
type Device int

const (
	Printer Device = iota + 1
	Mouse
	Keyboard
)

// AllDevices lists every device from highest to lowest priority.
func AllDevices() []Device {
	return []Device{Keyboard, Mouse, Printer}
}

// Priority returns the device's priority rank (higher = more urgent).
func (d Device) Priority() int {
	return int(d)
}

// Valid reports whether d is one of the known devices.
func (d Device) Valid() bool {
	return d >= Printer && d <= Keyboard
}

func (d Device) String() string {
	switch d {
	case Keyboard:
		return "Keyboard"
	case Mouse:
		return "Mouse"
	case Printer:
		return "Printer"
	}
	return "Unknown"
}

// Acronym returns the single-letter console shorthand for the device.
func (d Device) Acronym() string {
	switch d {
	case Keyboard:
		return "k"
	case Mouse:
		return "m"
	case Printer:
		return "p"
	}
	return "?"
}

// ParseDevice resolves console input ("k", "keyboard", "Mouse", ...) to a
// device. The second return value is false for anything unrecognized.
func ParseDevice(token string) (Device, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "k", "keyboard":
		return Keyboard, true
	case "m", "mouse":
		return Mouse, true
	case "p", "printer":
		return Printer, true
	}
	return 0, false
}

// Event is one raised, not-yet-serviced interrupt. Events are immutable
// once created and are destroyed the moment the controller removes them
// from the pending set for service.
type Event struct {
	Device   Device    `json:"device"`
	Seq      int64     `json:"seq"`
	RaisedAt time.Time `json:"raised_at"`
}

// Timing holds the simulation profile for one device: how often it raises
// interrupts and how long its ISR takes to run.
type Timing struct {
	MinRaiseDelay time.Duration // lower bound between raises
	MaxRaiseDelay time.Duration // upper bound between raises
	ServiceTime   time.Duration // fixed ISR duration
}

// DefaultTimings returns the stock simulation profile: the keyboard chatters
// the most and services the fastest, the printer is the slow one on both ends.
func DefaultTimings() map[Device]Timing {
	return map[Device]Timing{
		Keyboard: {MinRaiseDelay: 800 * time.Millisecond, MaxRaiseDelay: 2000 * time.Millisecond, ServiceTime: 300 * time.Millisecond},
		Mouse:    {MinRaiseDelay: 1000 * time.Millisecond, MaxRaiseDelay: 3000 * time.Millisecond, ServiceTime: 500 * time.Millisecond},
		Printer:  {MinRaiseDelay: 1500 * time.Millisecond, MaxRaiseDelay: 4000 * time.Millisecond, ServiceTime: 800 * time.Millisecond},
	}
}
