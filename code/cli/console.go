package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/Voltaic314/IRQWave/code/events"
	"github.com/Voltaic314/IRQWave/code/irq"
	"github.com/Voltaic314/IRQWave/code/signals"
	typesevents "github.com/Voltaic314/IRQWave/code/types/events"
	typesirq "github.com/Voltaic314/IRQWave/code/types/irq"
	typesignals "github.com/Voltaic314/IRQWave/code/types/signals"
)

// shutdownAckTimeout bounds how long the exit command waits for every
// component to acknowledge the shutdown signal.
const shutdownAckTimeout = 3 * time.Second

// Console is the interactive command surface: mask/unmask devices, query
// status, and shut the simulation down. Controller notices arrive over
// the event bus and are printed through the readline-coordinated writer
// so they don't clobber the prompt.
type Console struct {
	rl    *readline.Instance
	out   io.Writer
	queue *irq.InterruptQueue
	bus   *events.EventBus
	done  chan struct{}
}

// NewConsole builds the readline-backed console.
func NewConsole(queue *irq.InterruptQueue, bus *events.EventBus) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "irq> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{
		rl:    rl,
		out:   rl.Stdout(),
		queue: queue,
		bus:   bus,
		done:  make(chan struct{}),
	}, nil
}

// Run reads commands until exit or EOF. It always requests shutdown on
// the way out so closing stdin behaves like typing "exit".
func (c *Console) Run() {
	defer c.rl.Close()
	defer close(c.done)

	if c.bus != nil {
		go c.watchNotices(c.bus.Subscribe(typesevents.GroupConsole))
	}

	c.printHelp()

	for {
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil { // io.EOF etc.
			fmt.Fprintln(c.out, "Exiting...")
			c.requestShutdown()
			return
		}

		if c.execute(strings.TrimSpace(line)) {
			return
		}
	}
}

// execute runs one command line and reports whether the loop should exit.
func (c *Console) execute(line string) bool {
	if line == "" {
		return false
	}

	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "mask":
		c.cmdMask(args, true)

	case "unmask":
		c.cmdMask(args, false)

	case "status":
		c.cmdStatus()

	case "help", "?":
		c.printHelp()

	case "exit", "stop", "quit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		c.requestShutdown()
		return true

	default:
		fmt.Fprintln(c.out, "Commands: mask k|m|p, unmask k|m|p, status, exit")
	}
	return false
}

func (c *Console) cmdMask(args []string, masked bool) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Unknown device. Use k/m/p.")
		return
	}
	dev, ok := typesirq.ParseDevice(args[0])
	if !ok {
		fmt.Fprintln(c.out, "Unknown device. Use k/m/p.")
		return
	}

	if masked {
		c.queue.Mask(dev)
		fmt.Fprintf(c.out, "%s masked.\n", dev)
	} else {
		c.queue.Unmask(dev)
		fmt.Fprintf(c.out, "%s unmasked.\n", dev)
	}
}

func (c *Console) cmdStatus() {
	st := c.queue.Status()

	fmt.Fprintln(c.out, "Status:")
	for _, dev := range typesirq.AllDevices() {
		label := "Unmasked"
		if st.Masks[dev] {
			label = "Masked"
		}
		fmt.Fprintf(c.out, "  %-9s %s\n", dev.String()+":", label)
	}
	fmt.Fprintf(c.out, "  Pending interrupts: %d\n", st.Pending)
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, "Commands:")
	fmt.Fprintln(c.out, "  mask k|m|p    -- mask Keyboard/Mouse/Printer")
	fmt.Fprintln(c.out, "  unmask k|m|p  -- unmask device")
	fmt.Fprintln(c.out, "  status        -- show masked/unmasked and pending counts")
	fmt.Fprintln(c.out, "  exit          -- stop simulation and exit cleanly")
}

// requestShutdown broadcasts the shutdown signal and waits for every
// component to acknowledge (or for the timeout, whichever is first).
func (c *Console) requestShutdown() {
	if signals.GlobalSR == nil {
		return
	}
	signals.GlobalSR.PublishWithAck(typesignals.Signal{
		Topic:   typesignals.TopicShutdown,
		Payload: "console_exit",
		AckMode: typesignals.AckAll,
	}, shutdownAckTimeout)
}

func (c *Console) watchNotices(ch <-chan typesevents.EventMessage) {
	for {
		select {
		case msg := <-ch:
			if text, ok := msg.Payload["message"].(string); ok {
				fmt.Fprintln(c.out, text)
			}
		case <-c.done:
			return
		}
	}
}
