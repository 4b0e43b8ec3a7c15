package dummydev

import "testing"

func TestCLINTAlwaysReadsZero(t *testing.T) {
	c := NewCLINT(0x2000000)

	val, err := c.HandleRead(0x2000000+0x4000, 8)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if val != 0 {
		t.Fatalf("read = %d, want 0", val)
	}
}

func TestCLINTDiscardsWrites(t *testing.T) {
	c := NewCLINT(0x2000000)
	if err := c.HandleWrite(0x2000000+0x4000, 8, 0xffffffffffffffff); err != nil {
		t.Fatalf("write: %v", err)
	}
	val, _ := c.HandleRead(0x2000000+0x4000, 8)
	if val != 0 {
		t.Fatalf("read after write = %d, want 0 (discarded)", val)
	}
}

func TestCLINTOutOfRangeRejected(t *testing.T) {
	c := NewCLINT(0x2000000)
	if _, err := c.HandleRead(0x2000000+clintWindowLen, 8); err == nil {
		t.Fatalf("out-of-range read should be rejected")
	}
}
