package virtioshim

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/x/vt"
	"golang.org/x/term"

	"github.com/tinyrange/vdevcore/internal/device"
)

const (
	consoleRegCount        = 0x10
	consoleOffDataOut      = 0x00
	consoleOffDataIn       = 0x04
	consoleOffDataInReady  = 0x08
	consoleOffInterruptAck = 0x0c
)

// ConsoleTransport is an example Transport backed by a headless VT100
// emulator: guest writes land in the emulator's screen buffer, and host
// keystrokes forwarded via ForwardInput are queued for the guest to read
// back. It exists to give both the console adapter path and the vt/term
// dependencies a real, exercised home rather than a synthetic one.
type ConsoleTransport struct {
	mu     sync.Mutex
	emu    *vt.SafeEmulator
	inbox  []byte
	status uint32
}

// NewConsoleTransport returns a console transport sized to the host's
// current terminal, if stdout is a real tty; otherwise it defaults to an
// 80x24 screen, matching a typical serial console default.
func NewConsoleTransport() *ConsoleTransport {
	cols, rows := 80, 24
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
			cols, rows = w, h
		}
	}
	return &ConsoleTransport{emu: vt.NewSafeEmulator(cols, rows)}
}

// ForwardInput queues host-typed bytes for the guest to read back through
// DataIn and sets bit 0 of the transport's interrupt status. It does not
// raise a notification itself: an Adapter notifies only after a guest
// write, when it finds the status non-zero.
func (c *ConsoleTransport) ForwardInput(data []byte) {
	c.mu.Lock()
	c.inbox = append(c.inbox, data...)
	c.status |= 1
	c.mu.Unlock()
}

// Render returns the current screen contents as emitted by the VT
// emulator, for a caller that wants to display the guest console.
func (c *ConsoleTransport) Render() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := c.emu.Height()
	cols := c.emu.Width()
	out := make([]byte, 0, rows*(cols+1))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			cell := c.emu.CellAt(x, y)
			if cell == nil || cell.Rune() == 0 {
				out = append(out, ' ')
				continue
			}
			out = append(out, []byte(string(cell.Rune()))...)
		}
		out = append(out, '\n')
	}
	return string(out)
}

func (c *ConsoleTransport) ReadRegister(offset uint64, width device.AccessWidth) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch offset {
	case consoleOffDataIn:
		if len(c.inbox) == 0 {
			return 0, nil
		}
		b := c.inbox[0]
		c.inbox = c.inbox[1:]
		if len(c.inbox) == 0 {
			c.status &^= 1
		}
		return uint64(b), nil
	case consoleOffDataInReady:
		if len(c.inbox) > 0 {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("console: read offset 0x%x: %w", offset, device.ErrBadAddress)
	}
}

func (c *ConsoleTransport) WriteRegister(offset uint64, width device.AccessWidth, val uint64) error {
	switch offset {
	case consoleOffDataOut:
		c.mu.Lock()
		_, err := c.emu.Write([]byte{byte(val)})
		c.mu.Unlock()
		if err != nil {
			return fmt.Errorf("console: write to emulator: %w", err)
		}
		return nil
	case consoleOffInterruptAck:
		return nil
	default:
		return fmt.Errorf("console: write offset 0x%x: %w", offset, device.ErrBadAddress)
	}
}

func (c *ConsoleTransport) InterruptStatus() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *ConsoleTransport) QueueNotifyOffset() uint64 {
	return consoleOffDataOut
}
