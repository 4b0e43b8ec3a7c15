package dummydev

import (
	"fmt"

	"github.com/tinyrange/vdevcore/internal/device"
)

const (
	uartRegCount = 8

	regRBRorTHRorDLL = 0
	regIERorDLM      = 1
	regIIRorFCR      = 2
	regLCR           = 3
	regMCR           = 4
	regLSR           = 5
	regMSR           = 6
	regSCR           = 7
)

const (
	iirDefault = 0x01 // "no interrupt pending"
	mcrDefault = 0x08 // OUT2 set, matches a typical reset default
	lsrDefault = 0x60 // THR empty, TX idle
	msrDefault = 0xb0 // CTS/DSR/DCD asserted
)

// UART16550 is a 16550-compatible serial port stub: it accepts the
// standard register writes a guest driver probes (IER, FCR, LCR, MCR,
// SCR, and the divisor latch pair) and stores them, but LSR/MSR/IIR
// always read their fixed reset-like defaults rather than reflecting any
// real transmit/receive activity, so a driver sees a UART that is always
// ready and never interrupts.
type UART16550 struct {
	device.BaseBackend

	base uint64
	regs [uartRegCount]*device.Cell[uint8]
}

// NewUART16550 returns a stub mapped at base, spanning the 8-byte legacy
// register window.
func NewUART16550(base uint64) *UART16550 {
	u := &UART16550{base: base}
	for i := range u.regs {
		u.regs[i] = device.NewCell[uint8](0)
	}
	return u
}

func (u *UART16550) EmuType() string { return "uart16550-dummy" }

func (u *UART16550) AddressRanges() []device.AddressRange {
	return []device.AddressRange{{Base: u.base, Length: uartRegCount}}
}

func (u *UART16550) HandleRead(addr uint64, width device.AccessWidth) (uint64, error) {
	if width != device.Byte {
		return 0, fmt.Errorf("uart16550: read 0x%x: width %d: %w", addr, width, device.ErrBadAddress)
	}
	off := addr - u.base
	if off >= uartRegCount {
		return 0, fmt.Errorf("uart16550: read 0x%x: %w", addr, device.ErrBadAddress)
	}
	switch off {
	case regIIRorFCR:
		return iirDefault, nil
	case regLSR:
		return lsrDefault, nil
	case regMSR:
		return msrDefault, nil
	default:
		return uint64(u.regs[off].Get()), nil
	}
}

func (u *UART16550) HandleWrite(addr uint64, width device.AccessWidth, val uint64) error {
	if width != device.Byte {
		return fmt.Errorf("uart16550: write 0x%x: width %d: %w", addr, width, device.ErrBadAddress)
	}
	off := addr - u.base
	if off >= uartRegCount {
		return fmt.Errorf("uart16550: write 0x%x: %w", addr, device.ErrBadAddress)
	}
	if off == regMCR {
		u.regs[off].Set(uint8(val) | mcrDefault)
		return nil
	}
	u.regs[off].Set(uint8(val))
	return nil
}
