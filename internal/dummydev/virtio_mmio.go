// Package dummydev implements the minimal stub devices spec.md §6 lists
// as always-available placeholders: a VirtIO MMIO transport header with
// no backing queue, a 16550 UART that stores register writes but never
// transmits, and a CLINT that reads as all zero. Each exists so a VM configuration can
// reference a device type before a real backend for it is wired in.
package dummydev

import (
	"fmt"

	"github.com/tinyrange/vdevcore/internal/device"
)

const (
	virtioMagicValue      = 0x74726976 // "virt"
	virtioMmioVersion     = 2
	virtioMmioVendorId    = 0x4d564b4c // "MKVL", arbitrary
	virtioMmioRegisterLen = 0x200
)

const (
	offMagicValue    = 0x000
	offVersion       = 0x004
	offDeviceId      = 0x008
	offVendorId      = 0x00c
	offDeviceFeature = 0x010
	offQueueSel      = 0x030
	offQueueNumMax   = 0x034
	offQueueNum      = 0x038
	offQueueReady    = 0x044
	offQueueNotify   = 0x050
	offInterruptStat = 0x060
	offInterruptAck  = 0x064
	offStatus        = 0x070
	offDriverFeature = 0x020
)

// VirtioMMIOHeader is a VirtIO MMIO transport header with no queue backing:
// it accepts the standard negotiation sequence (feature read, status
// write, queue selection) and tracks enough state to look alive to a
// guest driver probing for a device, but device_id always reads 0 (the
// reserved "no device here" encoding), so no driver actually binds to it.
type VirtioMMIOHeader struct {
	device.BaseBackend

	base uint64

	status        *device.Cell[uint32]
	queueSel      *device.Cell[uint32]
	queueNum      *device.Cell[uint32]
	queueReady    *device.Cell[uint32]
	driverFeature *device.Cell[uint32]
}

// NewVirtioMMIOHeader returns a header-only stub mapped at base, spanning
// the standard 0x200-byte VirtIO MMIO register window.
func NewVirtioMMIOHeader(base uint64) *VirtioMMIOHeader {
	return &VirtioMMIOHeader{
		base:          base,
		status:        device.NewCell[uint32](0),
		queueSel:      device.NewCell[uint32](0),
		queueNum:      device.NewCell[uint32](0),
		queueReady:    device.NewCell[uint32](0),
		driverFeature: device.NewCell[uint32](0),
	}
}

func (v *VirtioMMIOHeader) EmuType() string { return "virtio-mmio-dummy" }

func (v *VirtioMMIOHeader) AddressRanges() []device.AddressRange {
	return []device.AddressRange{{Base: v.base, Length: virtioMmioRegisterLen}}
}

func (v *VirtioMMIOHeader) HandleRead(addr uint64, width device.AccessWidth) (uint64, error) {
	if width != device.Dword {
		return 0, fmt.Errorf("virtio-mmio: read 0x%x: width %d: %w", addr, width, device.ErrBadAddress)
	}
	off := addr - v.base
	switch off {
	case offMagicValue:
		return virtioMagicValue, nil
	case offVersion:
		return virtioMmioVersion, nil
	case offDeviceId:
		return 0, nil // no device bound
	case offVendorId:
		return virtioMmioVendorId, nil
	case offDeviceFeature:
		return 0, nil
	case offQueueSel:
		return uint64(v.queueSel.Get()), nil
	case offQueueNumMax:
		return 0, nil // queue_num_max == 0 tells the driver not to use this queue
	case offQueueNum:
		return uint64(v.queueNum.Get()), nil
	case offQueueReady:
		return uint64(v.queueReady.Get()), nil
	case offInterruptStat:
		return 0, nil
	case offStatus:
		return uint64(v.status.Get()), nil
	default:
		return 0, nil
	}
}

func (v *VirtioMMIOHeader) HandleWrite(addr uint64, width device.AccessWidth, val uint64) error {
	if width != device.Dword {
		return fmt.Errorf("virtio-mmio: write 0x%x: width %d: %w", addr, width, device.ErrBadAddress)
	}
	off := addr - v.base
	switch off {
	case offDriverFeature:
		v.driverFeature.Set(uint32(val))
	case offQueueSel:
		v.queueSel.Set(uint32(val))
	case offQueueNum:
		v.queueNum.Set(uint32(val))
	case offQueueReady:
		v.queueReady.Set(uint32(val))
	case offQueueNotify:
		// no queue backing: notifications are silently dropped
	case offInterruptAck:
		// no interrupts are ever raised, nothing to acknowledge
	case offStatus:
		v.status.Set(uint32(val))
	default:
		// unrecognized offsets within the window are writable no-ops,
		// matching a real transport's handling of reserved registers
	}
	return nil
}
