package device

import (
	"sync"
	"sync/atomic"
)

// State is the lifecycle state held in the top 8 bits of a Lifecycle word.
type State uint8

const (
	StateActive State = iota
	StateRemoving
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateRemoving:
		return "removing"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

const (
	countBits = 24
	countMax  = 1<<countBits - 1 // 16,777,215
	stateMask = uint32(0xff) << countBits
	countMask = uint32(countMax)
)

func pack(state State, count uint32) uint32 {
	return uint32(state)<<countBits | (count & countMask)
}

func unpack(word uint32) (State, uint32) {
	return State(word >> countBits), word & countMask
}

// Lifecycle is the packed atomic [state:8 | count:24] word described in
// spec.md §4.1: state and in-flight-access count live in a single word so
// there is never a window between "state observed Active" and "count
// incremented" for a concurrent acquirer.
type Lifecycle struct {
	word uint32 // atomic
	wq   WaitQueue
}

// NewLifecycle returns a Lifecycle in state Active with count 0.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{word: pack(StateActive, 0)}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	s, _ := unpack(atomic.LoadUint32(&l.word))
	return s
}

// Count returns the current in-flight access count.
func (l *Lifecycle) Count() uint32 {
	_, c := unpack(atomic.LoadUint32(&l.word))
	return c
}

func (l *Lifecycle) IsActive() bool   { return l.State() == StateActive }
func (l *Lifecycle) IsRemoving() bool { return l.State() == StateRemoving }
func (l *Lifecycle) IsRemoved() bool  { return l.State() == StateRemoved }

// TryAcquire attempts to record one in-flight access. On success the
// caller must call Release exactly once. On failure it returns the state
// observed at the point of failure.
func (l *Lifecycle) TryAcquire() (State, bool) {
	for {
		old := atomic.LoadUint32(&l.word)
		state, count := unpack(old)
		if state != StateActive {
			return state, false
		}
		if count == countMax {
			// Degenerate back-pressure case: report Active so the caller
			// treats it like any other transient acquire failure.
			return StateActive, false
		}
		next := pack(state, count+1)
		if atomic.CompareAndSwapUint32(&l.word, old, next) {
			return StateActive, true
		}
	}
}

// Release unconditionally decrements the in-flight count. If the count
// reaches zero while the state is not Active, the wait-queue is notified
// so a blocked remover can proceed.
func (l *Lifecycle) Release() {
	for {
		old := atomic.LoadUint32(&l.word)
		state, count := unpack(old)
		next := pack(state, count-1)
		if atomic.CompareAndSwapUint32(&l.word, old, next) {
			if state != StateActive && count-1 == 0 {
				l.wq.Notify()
			}
			return
		}
	}
}

// SetRemoving transitions Active -> Removing, preserving count, and
// returns the count observed at the moment of transition. It returns
// ok=false if the state was already Removing or Removed.
func (l *Lifecycle) SetRemoving() (priorCount uint32, ok bool) {
	for {
		old := atomic.LoadUint32(&l.word)
		state, count := unpack(old)
		if state != StateActive {
			return count, false
		}
		next := pack(StateRemoving, count)
		if atomic.CompareAndSwapUint32(&l.word, old, next) {
			return count, true
		}
	}
}

// SetRemoved unconditionally stores (Removed, 0). Legal only after the
// caller has observed count == 0 (typically via WaitIdle).
func (l *Lifecycle) SetRemoved() {
	atomic.StoreUint32(&l.word, pack(StateRemoved, 0))
}

// ResetToActive performs a single CAS from (Removed, 0) to (Active, 0),
// used to re-register a device after unplug. Returns false if the
// lifecycle was not in the expected (Removed, 0) state.
func (l *Lifecycle) ResetToActive() bool {
	old := pack(StateRemoved, 0)
	next := pack(StateActive, 0)
	return atomic.CompareAndSwapUint32(&l.word, old, next)
}

// WaitIdle blocks until the in-flight count reaches zero. It is a thin
// wrapper over the wait-queue with no spin budget (infinite wait). Release
// wakes waiters only when the state is not Active, so WaitIdle is used
// after SetRemoving.
func (l *Lifecycle) WaitIdle() {
	l.wq.Wait(func() bool { return l.Count() == 0 })
}

// WaitIdleTimeout blocks until the in-flight count reaches zero or
// maxSpins polling rounds elapse, whichever comes first. Returns false on
// timeout. maxSpins == 0 means infinite (equivalent to WaitIdle).
func (l *Lifecycle) WaitIdleTimeout(maxSpins int) bool {
	return l.wq.WaitTimeout(func() bool { return l.Count() == 0 }, maxSpins)
}

// WaitQueue implements the spin-then-check idle-drain primitive from
// spec.md §4.1. The spec explicitly permits substituting a native
// condition variable "provided the predicate is rechecked under the same
// memory ordering"; this implementation uses sync.Cond backed by a mutex,
// which gives that guarantee for free and avoids busy-spinning a hosted
// Go program's OS threads.
type WaitQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	waiters  atomic.Int64
	notified atomic.Bool
}

func (wq *WaitQueue) init() {
	if wq.cond == nil {
		wq.cond = sync.NewCond(&wq.mu)
	}
}

// Wait blocks until predicate() returns true. Predicate is re-evaluated
// under the wait-queue's lock each time the queue is notified.
func (wq *WaitQueue) Wait(predicate func() bool) {
	wq.WaitTimeout(predicate, 0)
}

// WaitTimeout blocks until predicate() returns true or maxSpins wake-ups
// have been observed without success; maxSpins == 0 means infinite.
func (wq *WaitQueue) WaitTimeout(predicate func() bool, maxSpins int) bool {
	wq.mu.Lock()
	wq.init()
	defer wq.mu.Unlock()

	wq.waiters.Add(1)
	defer wq.waiters.Add(-1)

	spins := 0
	for !predicate() {
		if maxSpins > 0 && spins >= maxSpins {
			return false
		}
		wq.cond.Wait()
		spins++
	}
	wq.notified.Store(false)
	return true
}

// Notify wakes every waiter so they can re-check their predicate. Safe to
// call with no waiters registered.
func (wq *WaitQueue) Notify() {
	wq.mu.Lock()
	wq.init()
	if wq.waiters.Load() > 0 {
		wq.notified.Store(true)
	}
	wq.mu.Unlock()
	wq.cond.Broadcast()
}
