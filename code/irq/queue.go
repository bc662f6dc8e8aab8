package irq

import (
	"sync"
	"time"

	"github.com/Voltaic314/IRQWave/code/logging"
	typesirq "github.com/Voltaic314/IRQWave/code/types/irq"
)

// SelectOutcome describes what TrySelect found in the pending set.
type SelectOutcome string

const (
	OutcomeSelected  SelectOutcome = "selected"   // an eligible event was removed and returned
	OutcomeAllMasked SelectOutcome = "all_masked" // work is pending but every device for it is masked
	OutcomeEmpty     SelectOutcome = "empty"      // nothing pending at all
)

// Status is a consistent snapshot of mask state and pending depth, taken
// under one lock acquisition so the two never disagree.
type Status struct {
	Masks   map[typesirq.Device]bool
	Pending int
}

// InterruptQueue is the single coordination domain of the simulation. It
// owns everything a dispatch decision depends on: the pending events, the
// per-device mask bits, and the global sequence counter. One mutex guards
// all three, and a buffered wake-up channel lets the controller sleep
// until a raise or a mask change makes re-checking worthwhile.
type InterruptQueue struct {
	mu      sync.Mutex
	pending []typesirq.Event
	masked  map[typesirq.Device]bool
	seq     int64
	signal  chan struct{} // size-1 wake-up channel for the controller
}

// NewInterruptQueue initializes an empty queue with all devices unmasked.
func NewInterruptQueue() *InterruptQueue {
	return &InterruptQueue{
		pending: make([]typesirq.Event, 0, 16),
		masked:  make(map[typesirq.Device]bool),
		signal:  make(chan struct{}, 1),
	}
}

// Raise appends a new event for the device, stamps it with the next global
// sequence number, and wakes the controller. Called from device goroutines.
func (q *InterruptQueue) Raise(dev typesirq.Device) typesirq.Event {
	q.mu.Lock()
	q.seq++
	ev := typesirq.Event{Device: dev, Seq: q.seq, RaisedAt: time.Now()}
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	logging.GlobalLogger.Log("debug", "Device", dev.String(), "Interrupt raised", map[string]any{
		"seq": ev.Seq,
	}, "RAISE_INTERRUPT", dev.String())

	q.notify()
	return ev
}

// Mask suppresses a device's eligibility for dispatch. Pending events for
// the device stay queued; they just stop being selectable.
func (q *InterruptQueue) Mask(dev typesirq.Device) {
	q.mu.Lock()
	q.masked[dev] = true
	q.mu.Unlock()

	logging.GlobalLogger.Log("info", "Console", "", "Device masked", map[string]any{
		"device": dev.String(),
	}, "MASK_DEVICE", dev.String())

	// A mask change can make previously eligible work ineligible (or, on
	// unmask, the reverse), so the controller re-checks either way.
	q.notify()
}

// Unmask restores a device's eligibility and wakes the controller, which
// may be deferring on work that just became selectable.
func (q *InterruptQueue) Unmask(dev typesirq.Device) {
	q.mu.Lock()
	q.masked[dev] = false
	q.mu.Unlock()

	logging.GlobalLogger.Log("info", "Console", "", "Device unmasked", map[string]any{
		"device": dev.String(),
	}, "UNMASK_DEVICE", dev.String())

	q.notify()
}

// IsMasked reports the current mask bit for a device.
func (q *InterruptQueue) IsMasked(dev typesirq.Device) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.masked[dev]
}

// Masks returns a copy of the full mask map, with every known device present.
func (q *InterruptQueue) Masks() map[typesirq.Device]bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.maskSnapshotLocked()
}

func (q *InterruptQueue) maskSnapshotLocked() map[typesirq.Device]bool {
	masks := make(map[typesirq.Device]bool, len(typesirq.AllDevices()))
	for _, dev := range typesirq.AllDevices() {
		masks[dev] = q.masked[dev]
	}
	return masks
}

// PendingCount returns the number of not-yet-serviced events.
func (q *InterruptQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Status returns mask state and pending depth from one lock hold.
func (q *InterruptQueue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{
		Masks:   q.maskSnapshotLocked(),
		Pending: len(q.pending),
	}
}

// MaskedPending returns copies of the pending events whose device is
// currently masked, in arrival order. Used for the "ignored" notices.
func (q *InterruptQueue) MaskedPending() []typesirq.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []typesirq.Event
	for _, ev := range q.pending {
		if q.masked[ev.Device] {
			out = append(out, ev)
		}
	}
	return out
}

// TrySelect atomically picks and removes the next serviceable event:
// highest device priority first, oldest sequence number within a device.
// Selection and removal happen under the same lock hold, so no two
// consumers could ever pull the same event.
func (q *InterruptQueue) TrySelect() (typesirq.Event, SelectOutcome) {
	q.mu.Lock()

	if len(q.pending) == 0 {
		q.mu.Unlock()
		return typesirq.Event{}, OutcomeEmpty
	}

	bestIdx := -1
	for i, ev := range q.pending {
		if q.masked[ev.Device] {
			continue
		}
		if bestIdx == -1 {
			bestIdx = i
			continue
		}
		best := q.pending[bestIdx]
		if ev.Device.Priority() > best.Device.Priority() ||
			(ev.Device == best.Device && ev.Seq < best.Seq) {
			bestIdx = i
		}
	}

	if bestIdx == -1 {
		q.mu.Unlock()
		return typesirq.Event{}, OutcomeAllMasked
	}

	ev := q.pending[bestIdx]
	// splice: pending = pending[:i] + pending[i+1:]
	q.pending = append(q.pending[:bestIdx], q.pending[bestIdx+1:]...)
	q.mu.Unlock()

	logging.GlobalLogger.Log("debug", "Controller", "", "Interrupt selected for service", map[string]any{
		"seq": ev.Seq,
	}, "SELECT_INTERRUPT", ev.Device.String())

	return ev, OutcomeSelected
}

// Signal exposes the wake-up channel the controller waits on.
func (q *InterruptQueue) Signal() <-chan struct{} {
	return q.signal
}

// notify pokes the wake-up channel without blocking. The buffer of one
// coalesces bursts of raises and mask flips into a single wake-up.
func (q *InterruptQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
