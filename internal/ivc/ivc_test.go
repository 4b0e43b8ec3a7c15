package ivc

import (
	"errors"
	"testing"

	"github.com/tinyrange/vdevcore/internal/device"
)

func TestAllocatorAllocAligns(t *testing.T) {
	a := NewWithMapper(0, 1<<20, noopMapper{})

	addr, err := a.Alloc(100)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if addr%pageSize != 0 {
		t.Fatalf("addr 0x%x not page aligned", addr)
	}

	addr2, err := a.Alloc(100)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if addr2 < addr+pageSize {
		t.Fatalf("second allocation 0x%x overlaps first's page [0x%x,+0x%x)", addr2, addr, pageSize)
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	a := NewWithMapper(0, pageSize, noopMapper{})
	if _, err := a.Alloc(pageSize); err != nil {
		t.Fatalf("Alloc at capacity: %v", err)
	}
	if _, err := a.Alloc(1); !errors.Is(err, device.ErrNoMemory) {
		t.Fatalf("Alloc beyond capacity: err=%v, want ErrNoMemory", err)
	}
}

func TestAllocatorFreeExactMatch(t *testing.T) {
	a := NewWithMapper(0, 1<<20, noopMapper{})
	addr, err := a.Alloc(5000) // aligns up to two pages (8192 bytes)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if err := a.Free(addr, 100); !errors.Is(err, device.ErrInvalidInput) {
		t.Fatalf("Free with wrong size: err=%v, want ErrInvalidInput", err)
	}
	if err := a.Free(addr, 5000); err != nil {
		t.Fatalf("Free with matching size: %v", err)
	}
	if err := a.Free(addr, 5000); !errors.Is(err, device.ErrInvalidInput) {
		t.Fatalf("double free: err=%v, want ErrInvalidInput", err)
	}
}

func TestAllocatorFreeReusesSpace(t *testing.T) {
	a := NewWithMapper(0, pageSize, noopMapper{})
	addr, err := a.Alloc(pageSize)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := a.Free(addr, pageSize); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if _, err := a.Alloc(pageSize); err != nil {
		t.Fatalf("Alloc after free should succeed: %v", err)
	}
}
