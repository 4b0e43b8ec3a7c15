package notify

import (
	"sync"
	"sync/atomic"

	"github.com/tinyrange/vdevcore/internal/device"
)

// PollFlags is the table backing NotifyPoll delivery: a per-device u32
// bitmask, OR'd by Set and swapped to 0 by CheckAndClear, matching
// spec.md §4.5's atomic contract. The map structure (which devices exist)
// is protected by a plain mutex; the flag values themselves are mutated
// through sync/atomic, and Set/CheckAndClear/Peek hold the mutex only
// while looking up the device's slot.
// Unregistered ids are always safe no-ops, matching the Rust original's
// behavior of tolerating a stale device id after unplug.
type PollFlags struct {
	mu    sync.Mutex
	flags map[device.Id]*uint32
}

// NewPollFlags returns an empty table.
func NewPollFlags() *PollFlags {
	return &PollFlags{flags: make(map[device.Id]*uint32)}
}

// Register adds id to the table, initially clear. Re-registering an
// already-known id resets it to clear.
func (p *PollFlags) Register(id device.Id) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var slot uint32
	p.flags[id] = &slot
}

// Unregister removes id from the table entirely.
func (p *PollFlags) Unregister(id device.Id) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.flags, id)
}

func (p *PollFlags) slot(id device.Id) *uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flags[id]
}

// Set atomically ORs mask into id's flags and returns the prior value. A
// no-op (returning 0) if id was never registered.
func (p *PollFlags) Set(id device.Id, mask uint32) uint32 {
	slot := p.slot(id)
	if slot == nil {
		return 0
	}
	for {
		old := atomic.LoadUint32(slot)
		if atomic.CompareAndSwapUint32(slot, old, old|mask) {
			return old
		}
	}
}

// CheckAndClear atomically swaps id's flags to 0 and returns the value
// observed just before the clear.
func (p *PollFlags) CheckAndClear(id device.Id) uint32 {
	slot := p.slot(id)
	if slot == nil {
		return 0
	}
	return atomic.SwapUint32(slot, 0)
}

// Peek returns id's current flags without clearing them.
func (p *PollFlags) Peek(id device.Id) uint32 {
	slot := p.slot(id)
	if slot == nil {
		return 0
	}
	return atomic.LoadUint32(slot)
}

// HasAnyPending reports whether any registered device has a non-zero flag.
func (p *PollFlags) HasAnyPending() bool {
	p.mu.Lock()
	slots := make([]*uint32, 0, len(p.flags))
	for _, slot := range p.flags {
		slots = append(slots, slot)
	}
	p.mu.Unlock()

	for _, slot := range slots {
		if atomic.LoadUint32(slot) != 0 {
			return true
		}
	}
	return false
}

// GetAllPending returns every device id with a non-zero flag, mapped to
// its current flag value.
func (p *PollFlags) GetAllPending() map[device.Id]uint32 {
	p.mu.Lock()
	snapshot := make(map[device.Id]*uint32, len(p.flags))
	for id, slot := range p.flags {
		snapshot[id] = slot
	}
	p.mu.Unlock()

	out := make(map[device.Id]uint32)
	for id, slot := range snapshot {
		if v := atomic.LoadUint32(slot); v != 0 {
			out[id] = v
		}
	}
	return out
}
