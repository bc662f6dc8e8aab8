package signals

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Voltaic314/IRQWave/code/logging"
	typesignals "github.com/Voltaic314/IRQWave/code/types/signals"
)

// SignalRouter fans signals out to topic subscribers. The simulation uses
// it for lifecycle control: the console publishes on the shutdown topic
// and every long-running component acknowledges once it has stopped.
type SignalRouter struct {
	mu     sync.RWMutex
	topics map[string]*topicHub
}

type topicHub struct {
	input       chan typesignals.Signal
	subscribers []subscriber
	mu          sync.RWMutex
}

type subscriber struct {
	mailbox chan typesignals.Signal
	actorID string
}

var GlobalSR *SignalRouter

func InitSignalRouter() {
	GlobalSR = &SignalRouter{
		topics: make(map[string]*topicHub),
	}
	logging.GlobalLogger.LogMessage("info", "✅ SignalRouter initialized", nil)
}

func (sr *SignalRouter) Subscribe(topic string, mailbox chan typesignals.Signal) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	hub, exists := sr.topics[topic]
	if !exists {
		hub = &topicHub{
			input:       make(chan typesignals.Signal, 64),
			subscribers: make([]subscriber, 0),
		}
		sr.topics[topic] = hub
		go hub.runFanOut(topic)
		logging.GlobalLogger.LogMessage("debug", fmt.Sprintf("Initialized topic hub: %s", topic), nil)
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.subscribers = append(hub.subscribers, subscriber{mailbox: mailbox, actorID: uuid.New().String()})
}

func (sr *SignalRouter) Publish(sig typesignals.Signal) {
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}
	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}

	sr.mu.RLock()
	defer sr.mu.RUnlock()

	hub, exists := sr.topics[sig.Topic]
	if !exists {
		logging.GlobalLogger.LogMessage("warning", "Signal dropped (no hub exists)", map[string]any{
			"topic": sig.Topic,
			"id":    sig.ID,
		})
		return
	}

	select {
	case hub.input <- sig:
	default:
		logging.GlobalLogger.LogMessage("warning", "Signal dropped (hub input full)", map[string]any{
			"topic": sig.Topic,
			"id":    sig.ID,
		})
	}
}

// PublishWithAck publishes and then waits for acknowledgment according to
// the signal's AckMode, or until the timeout elapses.
func (sr *SignalRouter) PublishWithAck(sig typesignals.Signal, timeout time.Duration) error {
	if sig.AckMode == typesignals.AckNone {
		sr.Publish(sig)
		return nil
	}

	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}
	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}

	// Buffered so an ack that lands before we reach the select below is
	// kept, not dropped by aggregateAcks' non-blocking send.
	sig.Ack = make(chan struct{}, 1)
	sr.Publish(sig)

	select {
	case <-sig.Ack:
		return nil
	case <-time.After(timeout):
		logging.GlobalLogger.LogMessage("warning", "Signal ack timed out", map[string]any{
			"topic": sig.Topic,
			"id":    sig.ID,
		})
		return fmt.Errorf("signal ack timed out: topic=%s ID=%s", sig.Topic, sig.ID)
	}
}

func (hub *topicHub) runFanOut(topic string) {
	for sig := range hub.input {
		hub.mu.RLock()
		subs := make([]subscriber, len(hub.subscribers))
		copy(subs, hub.subscribers)
		hub.mu.RUnlock()

		var acks []ackEntry

		for _, s := range subs {
			sigToSend := sig
			if sig.AckMode != typesignals.AckNone {
				sigToSend.Ack = make(chan struct{}, 1) // one-shot
				acks = append(acks, ackEntry{id: s.actorID, ch: sigToSend.Ack})
			}

			select {
			case s.mailbox <- sigToSend:
			default:
				logging.GlobalLogger.LogMessage("warning", "Mailbox full, dropping signal", map[string]any{
					"topic": topic,
					"id":    sig.ID,
				})
			}
		}

		if sig.AckMode == typesignals.AckAny || sig.AckMode == typesignals.AckAll {
			go aggregateAcks(sig, acks)
		}
	}
}

// On registers a handler for a topic. If async is true, handler runs in a separate goroutine.
func (sr *SignalRouter) On(topic string, handler typesignals.SignalHandler, async ...bool) {
	ch := make(chan typesignals.Signal, 8)
	sr.Subscribe(topic, ch)

	runAsync := len(async) > 0 && async[0]

	go func() {
		for sig := range ch {
			if runAsync {
				go handler(sig)
			} else {
				handler(sig)
			}
		}
	}()
}

type ackEntry struct {
	id string
	ch chan struct{}
}

func aggregateAcks(root typesignals.Signal, acks []ackEntry) {
	if root.AckMode == typesignals.AckNone || len(acks) == 0 {
		return
	}

	target := 1
	if root.AckMode == typesignals.AckAll {
		target = len(acks)
	}

	seen := make(map[string]struct{}, len(acks))
	done := make(chan string, len(acks))

	for _, a := range acks {
		a := a
		go func() {
			<-a.ch
			done <- a.id
		}()
	}

	remaining := target
	for remaining > 0 {
		id := <-done
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		remaining--
	}

	if root.Ack != nil {
		select {
		case root.Ack <- struct{}{}:
		default:
		}
	}
}

// Ack acknowledges a delivered signal if the publisher asked for one.
func Ack(sig typesignals.Signal) {
	if sig.Ack == nil {
		return
	}
	select {
	case sig.Ack <- struct{}{}:
	default:
	}
}
