package irq

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Voltaic314/IRQWave/code/logging"
	typesirq "github.com/Voltaic314/IRQWave/code/types/irq"
)

// DeviceSource is one simulated device: a goroutine that raises an
// interrupt after each randomized delay in its configured range. It holds
// no priority logic at all; that lives entirely in the queue selection.
type DeviceSource struct {
	ID     string
	Device typesirq.Device
	Timing typesirq.Timing
	Queue  *InterruptQueue

	rng      *rand.Rand
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewDeviceSource builds a source for one device with its own RNG stream.
func NewDeviceSource(dev typesirq.Device, timing typesirq.Timing, queue *InterruptQueue) *DeviceSource {
	return &DeviceSource{
		ID:       uuid.New().String(),
		Device:   dev,
		Timing:   timing,
		Queue:    queue,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(dev)<<32)),
		stopChan: make(chan struct{}),
	}
}

// Run raises interrupts until Stop is called. The delay select means a
// stop never waits out the remaining sleep, and the re-check after the
// delay means no event is raised once stop has been observed.
func (ds *DeviceSource) Run() {
	logging.GlobalLogger.Log("info", "Device", ds.ID, "Device source started", map[string]any{
		"minDelayMs": ds.Timing.MinRaiseDelay.Milliseconds(),
		"maxDelayMs": ds.Timing.MaxRaiseDelay.Milliseconds(),
	}, "DEVICE_START", ds.Device.String())

	for {
		select {
		case <-time.After(ds.nextDelay()):
		case <-ds.stopChan:
			ds.logStopped()
			return
		}

		select {
		case <-ds.stopChan:
			ds.logStopped()
			return
		default:
		}

		ds.Queue.Raise(ds.Device)
	}
}

// Stop tells the source to exit. Safe to call more than once.
func (ds *DeviceSource) Stop() {
	ds.stopOnce.Do(func() {
		close(ds.stopChan)
	})
}

func (ds *DeviceSource) nextDelay() time.Duration {
	min := ds.Timing.MinRaiseDelay
	max := ds.Timing.MaxRaiseDelay
	if max <= min {
		return min
	}
	return min + time.Duration(ds.rng.Int63n(int64(max-min)+1))
}

func (ds *DeviceSource) logStopped() {
	logging.GlobalLogger.Log("info", "Device", ds.ID, "Device source stopped", nil, "DEVICE_STOP", ds.Device.String())
}
