// Package registry implements the three address-class device registries
// (MMIO, SysReg, Port) from spec.md §4: each owns a range index and a
// device map over internal/device.Wrapper, built around one shared,
// unexported core. Three concrete named types are used instead of a
// generic DeviceRegistry[R], matching spec.md §9's design note and the
// complete absence of generics anywhere in the reference corpus this
// core's style is drawn from.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tinyrange/vdevcore/internal/debug"
	"github.com/tinyrange/vdevcore/internal/device"
)

// core is the shared implementation behind MMIORegistry, SysRegRegistry,
// and PortRegistry. It is never exported directly; each concrete type
// holds a *core, forwards to it, and exposes its own constructor, matching the capability
// pattern internal/chipset/chipset.go uses to dispatch HandleMMIO vs
// HandlePIO over a single underlying handler table.
type core struct {
	class string // "mmio", "sysreg", "port" — used only in error/debug text

	mu      sync.RWMutex
	ranges  []rangeEntry
	devices map[device.Id]*device.Wrapper
	nextId  device.Id
}

type rangeEntry struct {
	rng device.AddressRange
	id  device.Id
}

func newCore(class string) *core {
	return &core{
		class:   class,
		devices: make(map[device.Id]*device.Wrapper),
	}
}

func (c *core) overlaps(r device.AddressRange) (device.Id, bool) {
	for _, e := range c.ranges {
		if e.rng.Overlaps(r) {
			return e.id, true
		}
	}
	return 0, false
}

// AddDevice registers backend under a freshly allocated id, rejecting any
// address range overlap with an already-registered device. Grounded in
// internal/chipset/builder.go's regionsOverlap check, generalized from a
// one-shot builder into a registry that mutates at runtime.
func (c *core) AddDevice(backend device.Backend) (device.Id, error) {
	ranges := backend.AddressRanges()
	if len(ranges) == 0 {
		return 0, fmt.Errorf("%s registry: add device: no address ranges: %w", c.class, device.ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range ranges {
		if existing, ok := c.overlaps(r); ok {
			return 0, fmt.Errorf("%s registry: add device: range [0x%x,0x%x) overlaps %s: %w",
				c.class, r.Base, r.End(), existing, device.ErrInvalidInput)
		}
	}

	c.nextId++
	id := c.nextId
	wrapper := device.NewWrapper(id, backend)
	c.devices[id] = wrapper
	for _, r := range ranges {
		c.ranges = append(c.ranges, rangeEntry{rng: r, id: id})
	}

	debug.Writef(c.class, "add device %s ranges=%v", id, ranges)
	return id, nil
}

// lookup finds the device (and its matching range) owning addr. Ranges
// are scanned in registration order; devices with few ranges dominate
// the hot path, so a linear scan beats maintaining a sorted interval
// tree for the expected cardinality (spec.md §4.2 applies the same
// reasoning to per-device region caches).
func (c *core) lookup(addr uint64) (*device.Wrapper, bool) {
	for _, e := range c.ranges {
		if e.rng.Contains(addr) {
			if w, ok := c.devices[e.id]; ok {
				return w, true
			}
		}
	}
	return nil, false
}

// HandleRead dispatches a read trap to whichever device claims addr.
func (c *core) HandleRead(addr uint64, width device.AccessWidth) (uint64, error) {
	c.mu.RLock()
	w, ok := c.lookup(addr)
	c.mu.RUnlock()

	if !ok {
		debug.Writef(c.class, "read 0x%x: no handler", addr)
		return 0, fmt.Errorf("%s registry: read 0x%x: %w", c.class, addr, device.ErrNotFound)
	}
	return w.Read(addr, width)
}

// HandleWrite dispatches a write trap to whichever device claims addr.
func (c *core) HandleWrite(addr uint64, width device.AccessWidth, val uint64) error {
	c.mu.RLock()
	w, ok := c.lookup(addr)
	c.mu.RUnlock()

	if !ok {
		debug.Writef(c.class, "write 0x%x: no handler", addr)
		return fmt.Errorf("%s registry: write 0x%x: %w", c.class, addr, device.ErrNotFound)
	}
	return w.Write(addr, width, val)
}

// FindDeviceWithRegion resolves addr to both its owning device id and the
// region within that device's own region cache, if any.
func (c *core) FindDeviceWithRegion(addr uint64) (device.Id, device.RegionHit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	w, ok := c.lookup(addr)
	if !ok {
		return 0, device.RegionHit{}, false
	}
	hit, ok := w.LookupRegion(addr)
	if !ok {
		return w.Id, device.RegionHit{}, false
	}
	return w.Id, hit, true
}

// BeginRemoveDevice transitions id to Removing and returns its wrapper so
// the caller can WaitIdle outside the registry lock, then call
// CompleteRemoveDevice.
func (c *core) BeginRemoveDevice(id device.Id) (*device.Wrapper, error) {
	c.mu.Lock()
	w, ok := c.devices[id]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%s registry: remove %s: %w", c.class, id, device.ErrNotFound)
	}
	if err := w.BeginRemoval(); err != nil {
		return nil, fmt.Errorf("%s registry: remove %s: %w", c.class, id, err)
	}
	return w, nil
}

// CompleteRemoveDevice marks the wrapper Removed and deletes it (and its
// ranges) from the registry. Caller must have already observed WaitIdle
// return on the wrapper returned from BeginRemoveDevice.
func (c *core) CompleteRemoveDevice(id device.Id) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.devices[id]; ok {
		w.CompleteRemoval()
	}
	delete(c.devices, id)

	kept := c.ranges[:0]
	for _, e := range c.ranges {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	c.ranges = kept

	debug.Writef(c.class, "removed device %s", id)
}

// RemoveDevice is the synchronous convenience path: begin removal, wait
// for in-flight accesses to drain, then complete. Most callers that don't
// need to overlap removal with other work should use this instead of the
// Begin/Complete pair directly.
func (c *core) RemoveDevice(id device.Id) error {
	w, err := c.BeginRemoveDevice(id)
	if err != nil {
		return err
	}
	w.WaitIdle()
	c.CompleteRemoveDevice(id)
	return nil
}

// Device returns the wrapper for id, if present (in any lifecycle state).
func (c *core) Device(id device.Id) (*device.Wrapper, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.devices[id]
	return w, ok
}

// ListDevices returns every registered device id in ascending order.
func (c *core) ListDevices() []device.Id {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]device.Id, 0, len(c.devices))
	for id := range c.devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DeviceCount returns the number of currently registered devices.
func (c *core) DeviceCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.devices)
}

// GetDeviceStats returns (reads, writes, errors) for id.
func (c *core) GetDeviceStats(id device.Id) (reads, writes, errors uint64, err error) {
	c.mu.RLock()
	w, ok := c.devices[id]
	c.mu.RUnlock()

	if !ok {
		return 0, 0, 0, fmt.Errorf("%s registry: stats %s: %w", c.class, id, device.ErrNotFound)
	}
	r, wr, e := w.Stats().Snapshot()
	return r, wr, e, nil
}
