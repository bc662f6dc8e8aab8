package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"

	typeslogging "github.com/Voltaic314/IRQWave/code/types/logging"
)

// Receiver listens for log messages via UDP. An optional device filter
// (acronym or full name, e.g. "k" or "keyboard") narrows the stream to one
// device's logs.
type Receiver struct {
	listenAddr   string
	listenPort   int
	deviceFilter string
}

// NewReceiver initializes a log receiver. An empty filter shows everything.
func NewReceiver(deviceFilter string) *Receiver {
	return &Receiver{
		listenAddr:   "127.0.0.1",
		listenPort:   9999,
		deviceFilter: strings.ToLower(strings.TrimSpace(deviceFilter)),
	}
}

// StartListener begins listening for incoming logs via UDP.
func (r *Receiver) StartListener() {
	addr := fmt.Sprintf("%s:%d", r.listenAddr, r.listenPort)
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		fmt.Println("❌ Error resolving UDP address:", err)
		return
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		fmt.Println("❌ Error starting UDP listener:", err)
		return
	}
	defer conn.Close()

	fmt.Println("📡 Log listener started on", addr)
	if r.deviceFilter != "" {
		fmt.Println("   Filtering on device:", r.deviceFilter)
	}

	buffer := make([]byte, 4096)
	for {
		n, _, err := conn.ReadFromUDP(buffer)
		if err != nil {
			fmt.Println("❌ Error reading from UDP:", err)
			continue
		}

		var logEntry map[string]interface{}
		if err := json.Unmarshal(buffer[:n], &logEntry); err != nil {
			fmt.Println("❌ Error decoding log entry:", err)
			continue
		}

		if !r.shouldShow(logEntry) {
			continue
		}
		fmt.Print(r.formatEntry(logEntry))
	}
}

// shouldShow applies the device filter. Entries with no device scope
// (system-level logs) always pass.
func (r *Receiver) shouldShow(logEntry map[string]interface{}) bool {
	if r.deviceFilter == "" {
		return true
	}
	device, ok := logEntry["device"].(string)
	if !ok || device == "" {
		return true
	}
	return r.deviceFilter == typeslogging.DeviceAcronyms[device] ||
		r.deviceFilter == strings.ToLower(device)
}

// formatEntry renders one log entry, tagging device-scoped lines with the
// device's acronym.
func (r *Receiver) formatEntry(logEntry map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s\n", logEntry["timestamp"], logEntry["level"], logEntry["message"])
	if device, ok := logEntry["device"].(string); ok && device != "" {
		fmt.Fprintf(&b, "   🎛️ [%s] Device: %s\n", typeslogging.DeviceAcronyms[device], device)
	}
	if details, exists := logEntry["details"]; exists {
		fmt.Fprintf(&b, "   ➡️ Details: %v\n", details)
	}
	return b.String()
}
