package irq

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Voltaic314/IRQWave/code/events"
	typesevents "github.com/Voltaic314/IRQWave/code/types/events"
	typesirq "github.com/Voltaic314/IRQWave/code/types/irq"
)

// recordingLog captures ISR lifecycle records and tracks how many handlers
// were ever in service at once.
type recordingLog struct {
	mu          sync.Mutex
	entries     []string
	inFlight    int
	maxInFlight int
}

func (r *recordingLog) LogStart(device string, seq int64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	r.entries = append(r.entries, fmt.Sprintf("START|%s|%d", device, seq))
}

func (r *recordingLog) LogEnd(device string, seq int64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--
	r.entries = append(r.entries, fmt.Sprintf("END|%s|%d", device, seq))
}

func (r *recordingLog) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *recordingLog) peakInFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxInFlight
}

func testTimings(service time.Duration) map[typesirq.Device]typesirq.Timing {
	timings := make(map[typesirq.Device]typesirq.Timing)
	for _, dev := range typesirq.AllDevices() {
		timings[dev] = typesirq.Timing{
			MinRaiseDelay: time.Millisecond,
			MaxRaiseDelay: time.Millisecond,
			ServiceTime:   service,
		}
	}
	return timings
}

func startController(t *testing.T, c *Controller) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run()
	}()
	t.Cleanup(func() {
		c.Stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("controller did not stop")
		}
	})
}

func TestMaskedHighPriorityYieldsToLowerUntilUnmasked(t *testing.T) {
	q := NewInterruptQueue()
	rec := &recordingLog{}

	// Keyboard masked before dispatch ever runs.
	q.Mask(typesirq.Keyboard)
	q.Raise(typesirq.Keyboard) // seq 1
	q.Raise(typesirq.Mouse)    // seq 2
	q.Raise(typesirq.Printer)  // seq 3

	c := NewController(q, testTimings(5*time.Millisecond), rec, nil, nil, 20*time.Millisecond)
	startController(t, c)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) >= 4
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{
		"START|Mouse|2", "END|Mouse|2",
		"START|Printer|3", "END|Printer|3",
	}, rec.snapshot()[:4])

	// The keyboard event stays pending until the mask lifts.
	assert.Equal(t, 1, q.PendingCount())

	q.Unmask(typesirq.Keyboard)
	require.Eventually(t, func() bool {
		entries := rec.snapshot()
		return len(entries) >= 6 && entries[len(entries)-1] == "END|Keyboard|1"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSameDeviceServicedInSequenceOrder(t *testing.T) {
	q := NewInterruptQueue()
	rec := &recordingLog{}

	q.Raise(typesirq.Keyboard) // seq 1
	q.Raise(typesirq.Keyboard) // seq 2

	c := NewController(q, testTimings(2*time.Millisecond), rec, nil, nil, 0)
	startController(t, c)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 4
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{
		"START|Keyboard|1", "END|Keyboard|1",
		"START|Keyboard|2", "END|Keyboard|2",
	}, rec.snapshot())
}

func TestExactlyOneHandlerInFlight(t *testing.T) {
	q := NewInterruptQueue()
	rec := &recordingLog{}

	devices := typesirq.AllDevices()
	for i := 0; i < 12; i++ {
		q.Raise(devices[i%len(devices)])
	}

	c := NewController(q, testTimings(time.Millisecond), rec, nil, nil, 0)
	startController(t, c)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 24
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, rec.peakInFlight())
}

func TestStartEndPairing(t *testing.T) {
	q := NewInterruptQueue()
	rec := &recordingLog{}

	devices := typesirq.AllDevices()
	for i := 0; i < 9; i++ {
		q.Raise(devices[i%len(devices)])
	}

	c := NewController(q, testTimings(time.Millisecond), rec, nil, nil, 0)
	startController(t, c)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 18
	}, 2*time.Second, 5*time.Millisecond)

	// Every START is immediately followed by the END for the same key.
	entries := rec.snapshot()
	for i := 0; i < len(entries); i += 2 {
		require.Equal(t, "START", entries[i][:5])
		assert.Equal(t, "END"+entries[i][5:], entries[i+1])
	}
}

func TestAllMaskedDefersWithoutDispatch(t *testing.T) {
	q := NewInterruptQueue()
	rec := &recordingLog{}
	bus := events.NewEventBus()
	notices := bus.Subscribe(typesevents.GroupConsole)

	for _, dev := range typesirq.AllDevices() {
		q.Mask(dev)
		q.Raise(dev)
	}

	c := NewController(q, testTimings(2*time.Millisecond), rec, nil, bus, 15*time.Millisecond)
	startController(t, c)

	// The ignored notices come through while nothing gets dispatched.
	require.Eventually(t, func() bool {
		select {
		case msg := <-notices:
			return msg.EventType == typesevents.EventIgnored
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)

	st := q.Status()
	assert.Equal(t, 3, st.Pending)
	for _, masked := range st.Masks {
		assert.True(t, masked)
	}
	assert.Empty(t, rec.snapshot())

	// Unmasking releases the highest-priority pending event promptly.
	q.Unmask(typesirq.Mouse)
	require.Eventually(t, func() bool {
		entries := rec.snapshot()
		return len(entries) >= 1 && entries[0] == "START|Mouse|2"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopLetsInFlightHandlerFinish(t *testing.T) {
	q := NewInterruptQueue()
	rec := &recordingLog{}

	q.Raise(typesirq.Keyboard)

	c := NewController(q, testTimings(50*time.Millisecond), rec, nil, nil, 0)
	startController(t, c)

	require.Eventually(t, func() bool {
		entries := rec.snapshot()
		return len(entries) == 1 && entries[0] == "START|Keyboard|1"
	}, 2*time.Second, time.Millisecond)

	c.Stop()

	// The in-flight ISR completes; nothing new starts afterwards.
	require.Eventually(t, func() bool {
		entries := rec.snapshot()
		return len(entries) == 2 && entries[1] == "END|Keyboard|1"
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return c.State() == ControllerStopped
	}, 2*time.Second, 5*time.Millisecond)

	q.Raise(typesirq.Mouse)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 2)
}

func TestConsoleNoticesCarryDeviceAndSeq(t *testing.T) {
	q := NewInterruptQueue()
	bus := events.NewEventBus()
	notices := bus.Subscribe(typesevents.GroupConsole)

	q.Raise(typesirq.Printer)

	c := NewController(q, testTimings(time.Millisecond), &recordingLog{}, nil, bus, 0)
	startController(t, c)

	var started, completed bool
	require.Eventually(t, func() bool {
		for {
			select {
			case msg := <-notices:
				switch msg.EventType {
				case typesevents.EventISRStarted:
					started = true
					assert.Equal(t, "Printer", msg.Payload["device"])
					assert.Equal(t, int64(1), msg.Payload["seq"])
				case typesevents.EventISRCompleted:
					completed = true
				}
			default:
				return started && completed
			}
		}
	}, 2*time.Second, 5*time.Millisecond)
}
