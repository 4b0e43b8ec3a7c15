package dummydev

import "testing"

func TestUART16550FixedStatusRegisters(t *testing.T) {
	u := NewUART16550(0x3f8)

	lsr, err := u.HandleRead(0x3f8+regLSR, 1)
	if err != nil {
		t.Fatalf("read LSR: %v", err)
	}
	if lsr != lsrDefault {
		t.Fatalf("LSR = 0x%x, want 0x%x", lsr, lsrDefault)
	}

	iir, err := u.HandleRead(0x3f8+regIIRorFCR, 1)
	if err != nil {
		t.Fatalf("read IIR: %v", err)
	}
	if iir != iirDefault {
		t.Fatalf("IIR = 0x%x, want 0x%x", iir, iirDefault)
	}
}

func TestUART16550StoresScratchRegister(t *testing.T) {
	u := NewUART16550(0x3f8)
	if err := u.HandleWrite(0x3f8+regSCR, 1, 0xab); err != nil {
		t.Fatalf("write SCR: %v", err)
	}
	val, err := u.HandleRead(0x3f8+regSCR, 1)
	if err != nil {
		t.Fatalf("read SCR: %v", err)
	}
	if val != 0xab {
		t.Fatalf("SCR = 0x%x, want 0xab", val)
	}
}

func TestUART16550OutOfRangeOffset(t *testing.T) {
	u := NewUART16550(0x3f8)
	if _, err := u.HandleRead(0x3f8+uartRegCount, 1); err == nil {
		t.Fatalf("out-of-range offset should be rejected")
	}
}
