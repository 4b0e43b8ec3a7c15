// Package virtioshim adapts an external VirtIO transport (block, net,
// console, ...) to the device.Backend contract, so a real queue
// implementation living outside this module can be plugged into the
// registries without this core knowing anything about virtqueues.
package virtioshim

import (
	"fmt"
	"sync"

	"github.com/tinyrange/vdevcore/internal/device"
)

// Transport is the capability contract an external VirtIO device
// implementation must provide. It mirrors the teacher's own
// VirtioDevice interface (DeviceID/DeviceFeatures/ReadConfig/WriteConfig)
// but narrowed to byte-accessor reads/writes over the whole MMIO window,
// since this shim does not know the register layout of any specific
// device type — that lives entirely on the Transport side.
type Transport interface {
	// ReadRegister services a read at a transport-relative offset.
	ReadRegister(offset uint64, width device.AccessWidth) (uint64, error)
	// WriteRegister services a write at a transport-relative offset.
	WriteRegister(offset uint64, width device.AccessWidth, val uint64) error
	// InterruptStatus returns the transport's current interrupt status
	// bitmap; a non-zero result after a write means the adapter should
	// notify.
	InterruptStatus() uint32
	// QueueNotifyOffset reports where in the register window guest
	// queue-notify writes land. Adapter does not consult it; every write
	// is forwarded the same way.
	QueueNotifyOffset() uint64
}

// Adapter wraps a Transport as a device.Backend, forwarding reads/writes
// and firing the installed notifier whenever a write leaves the
// transport's interrupt status non-zero.
type Adapter struct {
	device.BaseBackend

	base      uint64
	length    uint64
	irq       uint32
	transport Transport

	mu       sync.RWMutex
	notifier device.Notifier
}

// New wraps transport as a Backend occupying [base, base+length), raising
// irq on the notifier whenever a write leaves the transport's interrupt
// status non-zero.
func New(base, length uint64, irq uint32, transport Transport) *Adapter {
	return &Adapter{base: base, length: length, irq: irq, transport: transport}
}

func (a *Adapter) EmuType() string { return "virtio-shim" }

func (a *Adapter) AddressRanges() []device.AddressRange {
	return []device.AddressRange{{Base: a.base, Length: a.length}}
}

func (a *Adapter) HandleRead(addr uint64, width device.AccessWidth) (uint64, error) {
	off := addr - a.base
	val, err := a.transport.ReadRegister(off, width)
	if err != nil {
		return 0, fmt.Errorf("virtio-shim: read 0x%x: %w", addr, err)
	}
	return val, nil
}

func (a *Adapter) HandleWrite(addr uint64, width device.AccessWidth, val uint64) error {
	off := addr - a.base
	if err := a.transport.WriteRegister(off, width, val); err != nil {
		return fmt.Errorf("virtio-shim: write 0x%x: %w", addr, err)
	}

	if a.transport.InterruptStatus() != 0 {
		a.mu.RLock()
		n := a.notifier
		a.mu.RUnlock()
		if n != nil {
			if err := n.Notify(device.IrqPrimary(0)); err != nil {
				return fmt.Errorf("virtio-shim: notify after write 0x%x: %w", addr, err)
			}
		}
	}
	return nil
}

func (a *Adapter) NotificationConfig() (device.NotificationConfig, bool) {
	irq := a.irq
	return device.NotificationConfig{
		Method:     device.NotifyInterrupt,
		Trigger:    device.TriggerEdge,
		PrimaryIrq: &irq,
		Affinity:   device.CpuAffinityFixed,
	}, true
}

func (a *Adapter) SetNotifier(n device.Notifier) {
	a.mu.Lock()
	a.notifier = n
	a.mu.Unlock()
}
