package vmdevices

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tinyrange/vdevcore/internal/device"
	"github.com/tinyrange/vdevcore/internal/dummydev"
	"github.com/tinyrange/vdevcore/internal/ivc"
	"github.com/tinyrange/vdevcore/internal/notify"
	"github.com/tinyrange/vdevcore/internal/registry"
)

// Facade is the VM-devices root object: the three address-class
// registries, an optional IVC channel allocator, and a notification
// manager, all built from a Config in one constructor call. The manager is
// always created by New, sized to Config.CpuCount; there is no separate
// initialisation step and no Facade without one.
type Facade struct {
	MMIO   *registry.MMIORegistry
	SysReg *registry.SysRegRegistry
	Port   *registry.PortRegistry

	ivcAlloc *ivc.Allocator
	notifier *notify.Manager

	mu          sync.Mutex
	ivcSeen     map[uint64]bool // base_addr dedup, per spec.md §6's "duplicates warn and are ignored"
	passthrough map[device.Id]bool
}

// New builds a Facade from cfg, installing every recognized device type
// concurrently (device construction touches shared state only under
// AddDevice's registry lock or, for IVC bookkeeping, the Facade's own
// mutex, so bring-up parallelizes safely) via
// errgroup, matching spec.md §6's constructor contract. An unrecognized
// emu_type is logged via slog and skipped, never treated as fatal.
func New(ctx context.Context, cfg *Config) (*Facade, error) {
	f := &Facade{
		MMIO:        registry.NewMMIORegistry(),
		SysReg:      registry.NewSysRegRegistry(),
		Port:        registry.NewPortRegistry(),
		notifier:    notify.New(cfg.CpuCount),
		ivcSeen:     make(map[uint64]bool),
		passthrough: make(map[device.Id]bool),
	}
	if cfg.IvcLength > 0 {
		f.ivcAlloc = ivc.New(cfg.IvcBase, cfg.IvcLength)
	}

	g, _ := errgroup.WithContext(ctx)
	for _, d := range cfg.Devices {
		d := d
		g.Go(func() error {
			return f.installDevice(d)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("vmdevices: build facade: %w", err)
	}
	return f, nil
}

func (f *Facade) installDevice(d EmulatedDeviceConfig) error {
	switch d.EmuType {
	case "InterruptController":
		// Architectural controller install is an external collaborator's
		// responsibility (spec.md §1 out-of-scope list); nothing to do here.
		return nil
	case "GPPTRedistributor":
		return f.installRedistributors(d)
	case "GPPTDistributor":
		_, err := f.MMIO.AddDevice(dummydev.NewVirtioMMIOHeader(d.BaseAddr))
		return wrapInstallErr(d, err)
	case "GPPTITS":
		// host_gits_base passthrough: recorded but not emulated here, same
		// external-collaborator boundary as InterruptController.
		return nil
	case "PPPTGlobal":
		return nil
	case "IVCChannel":
		f.mu.Lock()
		dup := f.ivcSeen[d.BaseAddr]
		f.ivcSeen[d.BaseAddr] = true
		if !dup && f.ivcAlloc == nil {
			f.ivcAlloc = ivc.New(d.BaseAddr, d.Length)
		}
		f.mu.Unlock()
		if dup {
			slog.Warn("vmdevices: duplicate IVCChannel base ignored", "name", d.Name, "base_addr", d.BaseAddr)
		}
		return nil
	case "Console":
		_, err := f.MMIO.AddDevice(dummydev.NewUART16550(d.BaseAddr))
		return wrapInstallErr(d, err)
	case "VirtioBlk", "VirtioNet", "VirtioConsole":
		_, err := f.MMIO.AddDevice(dummydev.NewVirtioMMIOHeader(d.BaseAddr))
		return wrapInstallErr(d, err)
	case "Dummy":
		_, err := f.MMIO.AddDevice(dummydev.NewCLINT(d.BaseAddr))
		return wrapInstallErr(d, err)
	default:
		slog.Warn("vmdevices: unrecognized emu_type, skipping", "name", d.Name, "emu_type", d.EmuType)
		return nil
	}
}

func (f *Facade) installRedistributors(d EmulatedDeviceConfig) error {
	if len(d.CfgList) < 2 {
		return fmt.Errorf("vmdevices: device %q: cfg_list: %w", d.Name, device.ErrInvalidInput)
	}
	cpuNum, stride := d.CfgList[0], d.CfgList[1]
	for i := 0; i < cpuNum; i++ {
		base := d.BaseAddr + uint64(i)*uint64(stride)
		if _, err := f.MMIO.AddDevice(dummydev.NewVirtioMMIOHeader(base)); err != nil {
			return fmt.Errorf("vmdevices: device %q redistributor %d: %w", d.Name, i, err)
		}
	}
	return nil
}

func wrapInstallErr(d EmulatedDeviceConfig, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("vmdevices: device %q (%s): %w", d.Name, d.EmuType, err)
}

// TryAddDevice registers backend with registry r, and if it declares a
// NotificationConfig, registers that with the notification manager and
// hands the device its notifier handle (spec.md §4.5's try_add_*_dev).
func (f *Facade) TryAddDevice(r interface {
	AddDevice(device.Backend) (device.Id, error)
}, backend device.Backend) (device.Id, error) {
	id, err := r.AddDevice(backend)
	if err != nil {
		return 0, err
	}
	if cfg, ok := backend.NotificationConfig(); ok {
		notifier, err := f.notifier.RegisterNotification(id, cfg)
		if err != nil {
			return id, fmt.Errorf("vmdevices: register notification for %s: %w", id, err)
		}
		backend.SetNotifier(notifier)
	}
	return id, nil
}

// AllocIVCChannel reserves a channel of size bytes and returns its base
// address.
func (f *Facade) AllocIVCChannel(size uint64) (uint64, error) {
	if f.ivcAlloc == nil {
		return 0, fmt.Errorf("vmdevices: alloc ivc channel: %w", device.ErrUnsupported)
	}
	return f.ivcAlloc.Alloc(size)
}

// ReleaseIVCChannel frees a channel previously returned by
// AllocIVCChannel.
func (f *Facade) ReleaseIVCChannel(addr, size uint64) error {
	if f.ivcAlloc == nil {
		return fmt.Errorf("vmdevices: release ivc channel: %w", device.ErrUnsupported)
	}
	return f.ivcAlloc.Free(addr, size)
}

// PopPendingInterrupt pops the next confirmed notification for cpu,
// carrying the resolved IRQ number and priority alongside the event.
func (f *Facade) PopPendingInterrupt(cpu int) (notify.Pending, bool) {
	return f.notifier.PopPending(cpu)
}

// PendingInterruptCount returns the number of confirmed, un-popped
// notifications queued for cpu.
func (f *Facade) PendingInterruptCount(cpu int) int {
	return f.notifier.PendingInterruptCount(cpu)
}

// InjectPassthroughInterrupt injects a notification on behalf of a
// passthrough (non-emulated) interrupt source, at the fixed default
// priority spec.md §4.10 mandates. Passthrough sources have no registered
// NotificationConfig, so this targets cpu directly rather than going
// through the routing table.
func (f *Facade) InjectPassthroughInterrupt(cpu int, irq uint32) error {
	f.mu.Lock()
	f.passthrough[device.PassthroughId(irq)] = true
	f.mu.Unlock()

	return f.notifier.InjectRaw(irq, cpu, notify.PassthroughDefaultPriority)
}

// ClearAllPendingInterrupts discards every queued notification on every
// vCPU without touching poll flags (see notify.Manager.ClearAllPending).
func (f *Facade) ClearAllPendingInterrupts() {
	f.notifier.ClearAllPending()
}

// Notifier exposes the underlying notification manager for callers that
// need direct access beyond TryAddDevice's registration path.
func (f *Facade) Notifier() *notify.Manager { return f.notifier }
