package device

import (
	"fmt"
	"sync"

	"github.com/tinyrange/vdevcore/internal/debug"
)

// Wrapper pairs a backend with the lifecycle, per-device mutex, stats, and
// region cache that the registry needs on every trap, so a registry lookup
// only ever hands back one pointer (spec.md §4.3).
type Wrapper struct {
	Id      Id
	Backend Backend

	lifecycle *Lifecycle
	mu        sync.Mutex
	stats     Stats
	regions   *CachedRegions
	notifier  Notifier
}

// NewWrapper constructs a Wrapper around backend, already Active. If the
// backend declares regions via RegionDescriptor, they're cached up front.
func NewWrapper(id Id, backend Backend) *Wrapper {
	w := &Wrapper{
		Id:        id,
		Backend:   backend,
		lifecycle: NewLifecycle(),
	}
	if regions := backend.RegionDescriptor(); len(regions) > 0 {
		w.regions = NewCachedRegions(regions)
	}
	return w
}

func (w *Wrapper) IsActive() bool   { return w.lifecycle.IsActive() }
func (w *Wrapper) IsRemoving() bool { return w.lifecycle.IsRemoving() }
func (w *Wrapper) IsRemoved() bool  { return w.lifecycle.IsRemoved() }

// Stats returns the wrapper's read/write/error counters.
func (w *Wrapper) Stats() *Stats { return &w.stats }

// LookupRegion tries the backend's fast path first, then the cached array.
func (w *Wrapper) LookupRegion(addr uint64) (RegionHit, bool) {
	if hit, ok := w.Backend.RegionLookup(addr); ok {
		return hit, true
	}
	if w.regions == nil {
		return RegionHit{}, false
	}
	return w.regions.Lookup(addr)
}

// Read performs the five-step guarded access from spec.md §4.3:
//  1. lifecycle.TryAcquire
//  2. lock the per-device mutex
//  3. invoke the backend
//  4. update stats
//  5. lifecycle.Release
func (w *Wrapper) Read(addr uint64, width AccessWidth) (uint64, error) {
	state, ok := w.lifecycle.TryAcquire()
	if !ok {
		return 0, fmt.Errorf("device %s: read while %s: %w", w.Id, state, ErrBadState)
	}
	defer w.lifecycle.Release()

	w.mu.Lock()
	val, err := w.Backend.HandleRead(addr, width)
	w.mu.Unlock()

	if err != nil {
		w.stats.RecordError()
		debug.Writef("device", "read %s@0x%x width=%d: error: %v", w.Id, addr, width, err)
		return 0, fmt.Errorf("device %s: read 0x%x: %w", w.Id, addr, err)
	}
	w.stats.RecordRead()
	return val, nil
}

// Write performs the same five-step contract as Read.
func (w *Wrapper) Write(addr uint64, width AccessWidth, val uint64) error {
	state, ok := w.lifecycle.TryAcquire()
	if !ok {
		return fmt.Errorf("device %s: write while %s: %w", w.Id, state, ErrBadState)
	}
	defer w.lifecycle.Release()

	w.mu.Lock()
	err := w.Backend.HandleWrite(addr, width, val)
	w.mu.Unlock()

	if err != nil {
		w.stats.RecordError()
		debug.Writef("device", "write %s@0x%x width=%d val=0x%x: error: %v", w.Id, addr, width, val, err)
		return fmt.Errorf("device %s: write 0x%x: %w", w.Id, addr, err)
	}
	w.stats.RecordWrite()
	return nil
}

// BeginRemoval transitions the wrapper to Removing, rejecting anything
// already in that state or beyond. Callers should follow with WaitIdle
// then CompleteRemoval.
func (w *Wrapper) BeginRemoval() error {
	if _, ok := w.lifecycle.SetRemoving(); !ok {
		return fmt.Errorf("device %s: begin removal: %w", w.Id, ErrBadState)
	}
	return nil
}

// WaitIdle blocks until every in-flight Read/Write on this wrapper has
// returned. Must be called after BeginRemoval and before CompleteRemoval.
func (w *Wrapper) WaitIdle() {
	w.lifecycle.WaitIdle()
}

// CompleteRemoval marks the wrapper Removed. The caller must have already
// observed WaitIdle return.
func (w *Wrapper) CompleteRemoval() {
	w.lifecycle.SetRemoved()
}

// SetNotifier stores n and forwards it to the backend's SetNotifier.
func (w *Wrapper) SetNotifier(n Notifier) {
	w.notifier = n
	w.Backend.SetNotifier(n)
}

// Notifier returns the notifier previously installed via SetNotifier, if
// any.
func (w *Wrapper) Notifier() (Notifier, bool) {
	return w.notifier, w.notifier != nil
}
