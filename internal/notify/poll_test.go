package notify

import (
	"testing"

	"github.com/tinyrange/vdevcore/internal/device"
)

func TestPollFlagsBasic(t *testing.T) {
	p := NewPollFlags()
	p.Register(1)

	if p.Peek(1) != 0 {
		t.Fatalf("freshly registered flag should be clear")
	}
	p.Set(1, 0b01)
	if p.Peek(1) != 0b01 {
		t.Fatalf("flag should be set after Set, got %b", p.Peek(1))
	}
	if mask := p.CheckAndClear(1); mask != 0b01 {
		t.Fatalf("CheckAndClear should report the set mask, got %b", mask)
	}
	if p.Peek(1) != 0 {
		t.Fatalf("flag should be clear after CheckAndClear")
	}
}

func TestPollFlagsSetOrsBits(t *testing.T) {
	p := NewPollFlags()
	p.Register(1)

	p.Set(1, 0b01)
	p.Set(1, 0b10)
	if got := p.Peek(1); got != 0b11 {
		t.Fatalf("Set should OR-accumulate, got %b want %b", got, 0b11)
	}
}

func TestPollFlagsMultipleDevices(t *testing.T) {
	p := NewPollFlags()
	p.Register(1)
	p.Register(2)
	p.Set(2, 0b01)

	if p.Peek(1) != 0 {
		t.Fatalf("device 1 should be unaffected by setting device 2")
	}
	if !p.HasAnyPending() {
		t.Fatalf("HasAnyPending should be true")
	}
	pending := p.GetAllPending()
	if len(pending) != 1 || pending[device.Id(2)] != 0b01 {
		t.Fatalf("GetAllPending = %v, want {2: 0b01}", pending)
	}
}

func TestPollFlagsUnregisteredIsSafeNoop(t *testing.T) {
	p := NewPollFlags()
	p.Set(99, 0b01) // never registered
	if p.Peek(99) != 0 {
		t.Fatalf("setting an unregistered id should have no effect")
	}
	if p.CheckAndClear(99) != 0 {
		t.Fatalf("CheckAndClear on unregistered id should return 0")
	}
}
