// Package config loads the simulation settings file. Missing or partial
// files fall back to defaults field by field, so a bare checkout runs
// without any setup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	typesirq "github.com/Voltaic314/IRQWave/code/types/irq"
)

// DeviceTiming is the JSON shape for one device's timing overrides.
type DeviceTiming struct {
	MinMs     int `json:"min_ms"`
	MaxMs     int `json:"max_ms"`
	ServiceMs int `json:"service_ms"`
}

// Settings holds everything the simulation reads at startup. The logger
// reads its own keys (log_level, batch sizing) out of the same file.
type Settings struct {
	DBPath          string                  `json:"db_path"`
	ISRLogPath      string                  `json:"isr_log_path"`
	DeferIntervalMs int                     `json:"defer_interval_ms"`
	Devices         map[string]DeviceTiming `json:"devices"`
}

// Defaults returns the stock settings: local files and the timing profile
// from types/irq.
func Defaults() Settings {
	devices := make(map[string]DeviceTiming)
	for dev, t := range typesirq.DefaultTimings() {
		devices[deviceKey(dev)] = DeviceTiming{
			MinMs:     int(t.MinRaiseDelay.Milliseconds()),
			MaxMs:     int(t.MaxRaiseDelay.Milliseconds()),
			ServiceMs: int(t.ServiceTime.Milliseconds()),
		}
	}
	return Settings{
		DBPath:          "irqwave.db",
		ISRLogPath:      "isr_log.txt",
		DeferIntervalMs: 200,
		Devices:         devices,
	}
}

// Load reads the settings file at path, overlaying any present fields on
// top of the defaults.
func Load(path string) Settings {
	s := Defaults()

	file, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("⚠️  Failed to load settings file, using simulation defaults.")
		return s
	}

	var loaded Settings
	if err := json.Unmarshal(file, &loaded); err != nil {
		fmt.Println("⚠️  Could not parse settings file, using simulation defaults.")
		return s
	}

	if loaded.DBPath != "" {
		s.DBPath = loaded.DBPath
	}
	if loaded.ISRLogPath != "" {
		s.ISRLogPath = loaded.ISRLogPath
	}
	if loaded.DeferIntervalMs > 0 {
		s.DeferIntervalMs = loaded.DeferIntervalMs
	}
	for name, override := range loaded.Devices {
		dev, ok := typesirq.ParseDevice(name)
		if !ok {
			fmt.Printf("⚠️  Ignoring timing override for unknown device %q.\n", name)
			continue
		}
		merged := s.Devices[deviceKey(dev)]
		if override.MinMs > 0 {
			merged.MinMs = override.MinMs
		}
		if override.MaxMs > 0 {
			merged.MaxMs = override.MaxMs
		}
		if override.ServiceMs > 0 {
			merged.ServiceMs = override.ServiceMs
		}
		s.Devices[deviceKey(dev)] = merged
	}

	return s
}

// Timings converts the loaded settings into the runtime timing map.
func (s Settings) Timings() map[typesirq.Device]typesirq.Timing {
	timings := typesirq.DefaultTimings()
	for name, t := range s.Devices {
		dev, ok := typesirq.ParseDevice(name)
		if !ok {
			continue
		}
		timings[dev] = typesirq.Timing{
			MinRaiseDelay: time.Duration(t.MinMs) * time.Millisecond,
			MaxRaiseDelay: time.Duration(t.MaxMs) * time.Millisecond,
			ServiceTime:   time.Duration(t.ServiceMs) * time.Millisecond,
		}
	}
	return timings
}

// DeferInterval returns the bounded wait used while all pending work is masked.
func (s Settings) DeferInterval() time.Duration {
	return time.Duration(s.DeferIntervalMs) * time.Millisecond
}

func deviceKey(dev typesirq.Device) string {
	switch dev {
	case typesirq.Keyboard:
		return "keyboard"
	case typesirq.Mouse:
		return "mouse"
	case typesirq.Printer:
		return "printer"
	}
	return "unknown"
}
