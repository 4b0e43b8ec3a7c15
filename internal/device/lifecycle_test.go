package device

import (
	"testing"
	"time"
)

func timeoutCh() <-chan time.Time {
	return time.After(time.Second)
}

func TestLifecycleInitialState(t *testing.T) {
	l := NewLifecycle()
	if !l.IsActive() {
		t.Fatalf("new lifecycle not active: %v", l.State())
	}
	if l.Count() != 0 {
		t.Fatalf("new lifecycle count = %d, want 0", l.Count())
	}
}

func TestLifecycleAcquireRelease(t *testing.T) {
	l := NewLifecycle()

	state, ok := l.TryAcquire()
	if !ok || state != StateActive {
		t.Fatalf("first acquire failed: state=%v ok=%v", state, ok)
	}
	if l.Count() != 1 {
		t.Fatalf("count after acquire = %d, want 1", l.Count())
	}

	_, ok = l.TryAcquire()
	if !ok {
		t.Fatalf("second concurrent acquire should succeed")
	}
	if l.Count() != 2 {
		t.Fatalf("count after second acquire = %d, want 2", l.Count())
	}

	l.Release()
	if l.Count() != 1 {
		t.Fatalf("count after first release = %d, want 1", l.Count())
	}
	l.Release()
	if l.Count() != 0 {
		t.Fatalf("count after second release = %d, want 0", l.Count())
	}
}

func TestLifecycleRemovalBlocksAcquire(t *testing.T) {
	l := NewLifecycle()

	if _, ok := l.TryAcquire(); !ok {
		t.Fatalf("setup acquire failed")
	}

	if _, ok := l.SetRemoving(); !ok {
		t.Fatalf("SetRemoving failed from Active")
	}
	if !l.IsRemoving() {
		t.Fatalf("state after SetRemoving = %v, want Removing", l.State())
	}

	if _, ok := l.TryAcquire(); ok {
		t.Fatalf("acquire should fail once Removing")
	}

	l.Release() // release the original acquire
	l.WaitIdle()
	if l.Count() != 0 {
		t.Fatalf("count after drain = %d, want 0", l.Count())
	}

	l.SetRemoved()
	if !l.IsRemoved() {
		t.Fatalf("state after SetRemoved = %v, want Removed", l.State())
	}
}

func TestLifecycleDoubleRemovalRejected(t *testing.T) {
	l := NewLifecycle()
	if _, ok := l.SetRemoving(); !ok {
		t.Fatalf("first SetRemoving should succeed")
	}
	if _, ok := l.SetRemoving(); ok {
		t.Fatalf("second SetRemoving should fail, already Removing")
	}
}

func TestLifecycleResetToActive(t *testing.T) {
	l := NewLifecycle()
	l.SetRemoved()

	if !l.ResetToActive() {
		t.Fatalf("reset from Removed,0 should succeed")
	}
	if !l.IsActive() {
		t.Fatalf("state after reset = %v, want Active", l.State())
	}

	if l.ResetToActive() {
		t.Fatalf("reset from Active should fail")
	}
}

func TestLifecycleWaitIdleUnblocksOnRelease(t *testing.T) {
	l := NewLifecycle()
	if _, ok := l.TryAcquire(); !ok {
		t.Fatalf("setup acquire failed")
	}
	// Release only wakes waiters once the state has left Active.
	if _, ok := l.SetRemoving(); !ok {
		t.Fatalf("SetRemoving failed from Active")
	}

	done := make(chan struct{})
	go func() {
		l.WaitIdle()
		close(done)
	}()

	l.Release()

	select {
	case <-done:
	case <-timeoutCh():
		t.Fatalf("WaitIdle did not unblock after Release")
	}
}
