package dummydev

import (
	"fmt"

	"github.com/tinyrange/vdevcore/internal/device"
)

const clintWindowLen = 0x10000

// CLINT is a core-local interruptor stub: every register reads zero and
// every write is discarded. It exists purely so a RISC-V machine
// configuration can reference a CLINT address window without the
// emulation core needing a real timer/software-interrupt implementation.
type CLINT struct {
	device.BaseBackend
	base uint64
}

// NewCLINT returns a stub mapped at base, spanning the standard
// 64KiB CLINT window.
func NewCLINT(base uint64) *CLINT {
	return &CLINT{base: base}
}

func (c *CLINT) EmuType() string { return "clint-dummy" }

func (c *CLINT) AddressRanges() []device.AddressRange {
	return []device.AddressRange{{Base: c.base, Length: clintWindowLen}}
}

func (c *CLINT) HandleRead(addr uint64, width device.AccessWidth) (uint64, error) {
	if addr < c.base || addr >= c.base+clintWindowLen {
		return 0, fmt.Errorf("clint: read 0x%x: %w", addr, device.ErrBadAddress)
	}
	return 0, nil
}

func (c *CLINT) HandleWrite(addr uint64, width device.AccessWidth, val uint64) error {
	if addr < c.base || addr >= c.base+clintWindowLen {
		return fmt.Errorf("clint: write 0x%x: %w", addr, device.ErrBadAddress)
	}
	return nil
}
