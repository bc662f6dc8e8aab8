package irq

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Voltaic314/IRQWave/code/events"
	"github.com/Voltaic314/IRQWave/code/logging"
	typesevents "github.com/Voltaic314/IRQWave/code/types/events"
	typesirq "github.com/Voltaic314/IRQWave/code/types/irq"
)

// ControllerState tracks where the dispatch loop currently is.
type ControllerState string

const (
	ControllerWaiting   ControllerState = "waiting"   // nothing pending, blocked on the wake-up channel
	ControllerSelecting ControllerState = "selecting" // scanning the pending set
	ControllerExecuting ControllerState = "executing" // an ISR is in service
	ControllerDeferring ControllerState = "deferring" // pending work exists but all of it is masked
	ControllerStopped   ControllerState = "stopped"   // terminal, after a shutdown request
)

// DefaultDeferInterval bounds how long the controller sleeps when every
// pending event is masked. A mask change wakes it immediately anyway; the
// timeout is the safety net that keeps "ignored" visibility timely.
const DefaultDeferInterval = 200 * time.Millisecond

// ServiceLog records the ISR lifecycle: one start record before the
// handler body runs, one end record after it completes.
type ServiceLog interface {
	LogStart(device string, seq int64, at time.Time)
	LogEnd(device string, seq int64, at time.Time)
}

// HistoryStore journals one row per serviced interrupt.
type HistoryStore interface {
	RecordService(device string, seq int64, started, completed time.Time)
}

// Controller is the serialized consumer of the interrupt queue. At most
// one ISR is ever in service; priority decides only which pending event
// is picked next, never whether running work gets preempted.
type Controller struct {
	ID            string
	Queue         *InterruptQueue
	Timings       map[typesirq.Device]typesirq.Timing
	Log           ServiceLog
	History       HistoryStore
	Bus           *events.EventBus
	DeferInterval time.Duration

	mu       sync.Mutex
	state    ControllerState
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewController wires a controller to the queue. Log, history, and bus
// may each be nil; the matching record kind is simply skipped.
func NewController(queue *InterruptQueue, timings map[typesirq.Device]typesirq.Timing, svcLog ServiceLog, history HistoryStore, bus *events.EventBus, deferInterval time.Duration) *Controller {
	if timings == nil {
		timings = typesirq.DefaultTimings()
	}
	if deferInterval <= 0 {
		deferInterval = DefaultDeferInterval
	}
	return &Controller{
		ID:            uuid.New().String(),
		Queue:         queue,
		Timings:       timings,
		Log:           svcLog,
		History:       history,
		Bus:           bus,
		DeferInterval: deferInterval,
		state:         ControllerWaiting,
		stopChan:      make(chan struct{}),
	}
}

// Run drives the dispatch loop until Stop is called. An ISR already in
// service when the stop arrives is allowed to finish; no new one starts.
func (c *Controller) Run() {
	logging.GlobalLogger.Log("info", "Controller", c.ID, "Controller loop started", nil, "CONTROLLER_START", "")

	for {
		if c.stopRequested() {
			break
		}

		c.setState(ControllerSelecting)
		ev, outcome := c.Queue.TrySelect()

		switch outcome {
		case OutcomeSelected:
			c.service(ev)

		case OutcomeAllMasked:
			c.announceMasked()
			c.setState(ControllerDeferring)
			select {
			case <-c.Queue.Signal():
			case <-time.After(c.DeferInterval):
			case <-c.stopChan:
			}

		case OutcomeEmpty:
			c.setState(ControllerWaiting)
			select {
			case <-c.Queue.Signal():
			case <-c.stopChan:
			}
		}
	}

	c.setState(ControllerStopped)
	logging.GlobalLogger.Log("info", "Controller", c.ID, "Controller loop stopped", map[string]any{
		"discardedPending": c.Queue.PendingCount(),
	}, "CONTROLLER_STOP", "")
}

// Stop requests shutdown. Safe to call more than once and from any goroutine.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

// State returns the loop's current state.
func (c *Controller) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(state ControllerState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Controller) stopRequested() bool {
	select {
	case <-c.stopChan:
		return true
	default:
		return false
	}
}

// service runs one ISR to completion. The queue lock was released by
// TrySelect before this point, so raises and mask flips keep flowing
// while the handler delay burns.
func (c *Controller) service(ev typesirq.Event) {
	c.setState(ControllerExecuting)

	started := time.Now()
	if c.Log != nil {
		c.Log.LogStart(ev.Device.String(), ev.Seq, started)
	}
	c.notifyConsole(typesevents.EventISRStarted, ev, fmt.Sprintf(
		"%s Interrupt Triggered → Handling ISR → Started at %s",
		ev.Device, started.Format(logging.ISRTimeLayout)))
	logging.GlobalLogger.Log("info", "Controller", c.ID, "ISR started", map[string]any{
		"seq": ev.Seq,
	}, "ISR_START", ev.Device.String())

	// Simulated ISR body: a fixed per-device delay. Never fails.
	time.Sleep(c.serviceTime(ev.Device))

	completed := time.Now()
	if c.Log != nil {
		c.Log.LogEnd(ev.Device.String(), ev.Seq, completed)
	}
	if c.History != nil {
		c.History.RecordService(ev.Device.String(), ev.Seq, started, completed)
	}
	c.notifyConsole(typesevents.EventISRCompleted, ev, fmt.Sprintf(
		"%s ISR Completed at %s", ev.Device, completed.Format(logging.ISRTimeLayout)))
	logging.GlobalLogger.Log("info", "Controller", c.ID, "ISR completed", map[string]any{
		"seq":        ev.Seq,
		"durationMs": completed.Sub(started).Milliseconds(),
	}, "ISR_END", ev.Device.String())
}

// announceMasked emits one "ignored" notice per masked pending event.
// Notices repeat on every deferral cycle while the events stay masked;
// that repetition is kept on purpose for visibility.
func (c *Controller) announceMasked() {
	for _, ev := range c.Queue.MaskedPending() {
		c.notifyConsole(typesevents.EventIgnored, ev, fmt.Sprintf(
			"%s Interrupt Ignored (Masked)", ev.Device))
		logging.GlobalLogger.Log("debug", "Controller", c.ID, "Interrupt ignored while masked", map[string]any{
			"seq": ev.Seq,
		}, "IGNORE_INTERRUPT", ev.Device.String())
	}
}

func (c *Controller) serviceTime(dev typesirq.Device) time.Duration {
	if t, ok := c.Timings[dev]; ok {
		return t.ServiceTime
	}
	return typesirq.DefaultTimings()[dev].ServiceTime
}

func (c *Controller) notifyConsole(eventType string, ev typesirq.Event, message string) {
	if c.Bus == nil {
		return
	}
	c.Bus.Emit(typesevents.EventMessage{
		From:      typesevents.BusTarget{Group: "controller"},
		To:        typesevents.BusTarget{Group: typesevents.GroupConsole, BroadcastAll: true},
		EventType: eventType,
		Payload: map[string]any{
			"message": message,
			"device":  ev.Device.String(),
			"seq":     ev.Seq,
		},
	})
}
