package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Voltaic314/IRQWave/code/irq"
	"github.com/Voltaic314/IRQWave/code/logging"
	typesirq "github.com/Voltaic314/IRQWave/code/types/irq"
)

func TestMain(m *testing.M) {
	logging.InitLogger("") // defaults, UDP-only
	os.Exit(m.Run())
}

// newTestConsole wires a console around a buffer instead of a TTY so the
// command dispatch can be exercised directly.
func newTestConsole() (*Console, *irq.InterruptQueue, *bytes.Buffer) {
	q := irq.NewInterruptQueue()
	out := &bytes.Buffer{}
	c := &Console{
		out:   out,
		queue: q,
		done:  make(chan struct{}),
	}
	return c, q, out
}

func TestMaskCommandMasksDevice(t *testing.T) {
	c, q, out := newTestConsole()

	exit := c.execute("mask k")

	assert.False(t, exit)
	assert.True(t, q.IsMasked(typesirq.Keyboard))
	assert.Contains(t, out.String(), "Keyboard masked.")
}

func TestUnmaskCommandClearsMask(t *testing.T) {
	c, q, out := newTestConsole()
	q.Mask(typesirq.Mouse)

	c.execute("unmask m")

	assert.False(t, q.IsMasked(typesirq.Mouse))
	assert.Contains(t, out.String(), "Mouse unmasked.")
}

func TestMaskAcceptsFullDeviceNames(t *testing.T) {
	c, q, _ := newTestConsole()

	c.execute("mask printer")
	c.execute("mask KEYBOARD")

	assert.True(t, q.IsMasked(typesirq.Printer))
	assert.True(t, q.IsMasked(typesirq.Keyboard))
	assert.False(t, q.IsMasked(typesirq.Mouse))
}

func TestMaskRejectsUnknownDevice(t *testing.T) {
	c, q, out := newTestConsole()

	c.execute("mask x")
	c.execute("mask")

	for _, dev := range typesirq.AllDevices() {
		assert.False(t, q.IsMasked(dev))
	}
	assert.Equal(t, 2, strings.Count(out.String(), "Unknown device. Use k/m/p."))
}

func TestStatusListsAllDevicesAndPendingCount(t *testing.T) {
	c, q, out := newTestConsole()
	q.Mask(typesirq.Keyboard)
	q.Raise(typesirq.Mouse)
	q.Raise(typesirq.Mouse)

	c.execute("status")

	text := out.String()
	assert.Contains(t, text, "Keyboard:")
	assert.Contains(t, text, "Masked")
	assert.Contains(t, text, "Mouse:")
	assert.Contains(t, text, "Unmasked")
	assert.Contains(t, text, "Printer:")
	assert.Contains(t, text, "Pending interrupts: 2")
}

func TestUnknownCommandPrintsUsage(t *testing.T) {
	c, _, out := newTestConsole()

	exit := c.execute("bogus")

	assert.False(t, exit)
	assert.Contains(t, out.String(), "Commands: mask k|m|p, unmask k|m|p, status, exit")
}

func TestHelpCommand(t *testing.T) {
	c, _, out := newTestConsole()

	c.execute("help")

	text := out.String()
	assert.Contains(t, text, "mask k|m|p")
	assert.Contains(t, text, "stop simulation and exit cleanly")
}

func TestExitCommandEndsTheLoop(t *testing.T) {
	for _, cmd := range []string{"exit", "stop", "quit", "q"} {
		c, _, out := newTestConsole()

		exit := c.execute(cmd)

		require.True(t, exit, "command %q should exit", cmd)
		assert.Contains(t, out.String(), "Exiting...")
	}
}

func TestBlankLineIsIgnored(t *testing.T) {
	c, _, out := newTestConsole()

	exit := c.execute("")

	assert.False(t, exit)
	assert.Empty(t, out.String())
}
