package dummydev

import "testing"

func TestVirtioMMIOHeaderIdentification(t *testing.T) {
	h := NewVirtioMMIOHeader(0x1000)

	magic, err := h.HandleRead(0x1000+offMagicValue, 4)
	if err != nil {
		t.Fatalf("read magic: %v", err)
	}
	if magic != virtioMagicValue {
		t.Fatalf("magic = 0x%x, want 0x%x", magic, virtioMagicValue)
	}

	devId, err := h.HandleRead(0x1000+offDeviceId, 4)
	if err != nil {
		t.Fatalf("read device id: %v", err)
	}
	if devId != 0 {
		t.Fatalf("device id = %d, want 0 (unbound)", devId)
	}
}

func TestVirtioMMIOHeaderStatusRoundTrip(t *testing.T) {
	h := NewVirtioMMIOHeader(0x1000)

	if err := h.HandleWrite(0x1000+offStatus, 4, 0x07); err != nil {
		t.Fatalf("write status: %v", err)
	}
	val, err := h.HandleRead(0x1000+offStatus, 4)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if val != 0x07 {
		t.Fatalf("status = 0x%x, want 0x07", val)
	}
}

func TestVirtioMMIOHeaderRejectsNarrowAccess(t *testing.T) {
	h := NewVirtioMMIOHeader(0x1000)
	if _, err := h.HandleRead(0x1000, 1); err == nil {
		t.Fatalf("byte-width read should be rejected")
	}
}
