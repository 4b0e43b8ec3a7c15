package virtioshim

import (
	"testing"

	"github.com/tinyrange/vdevcore/internal/device"
)

type fakeTransport struct {
	regs     map[uint64]uint64
	irqAfter uint32 // interrupt status to report after the next write
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{regs: make(map[uint64]uint64)}
}

func (f *fakeTransport) ReadRegister(offset uint64, width device.AccessWidth) (uint64, error) {
	return f.regs[offset], nil
}

func (f *fakeTransport) WriteRegister(offset uint64, width device.AccessWidth, val uint64) error {
	f.regs[offset] = val
	return nil
}

func (f *fakeTransport) InterruptStatus() uint32   { return f.irqAfter }
func (f *fakeTransport) QueueNotifyOffset() uint64 { return 0x50 }

type fakeNotifier struct {
	notified []device.DeviceEvent
}

func (n *fakeNotifier) Notify(ev device.DeviceEvent) error {
	n.notified = append(n.notified, ev)
	return nil
}
func (n *fakeNotifier) Clear(device.DeviceEvent) error { return nil }
func (n *fakeNotifier) Method() device.NotifyMethod    { return device.NotifyInterrupt }
func (n *fakeNotifier) HasPending() bool               { return len(n.notified) > 0 }

func TestAdapterForwardsReadsAndWrites(t *testing.T) {
	transport := newFakeTransport()
	a := New(0x1000, 0x100, 7, transport)

	if err := a.HandleWrite(0x1000+0x10, device.Dword, 0xcafe); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}
	val, err := a.HandleRead(0x1000+0x10, device.Dword)
	if err != nil {
		t.Fatalf("HandleRead: %v", err)
	}
	if val != 0xcafe {
		t.Fatalf("read = 0x%x, want 0xcafe", val)
	}
}

func TestAdapterNotifiesOnInterruptStatus(t *testing.T) {
	transport := newFakeTransport()
	a := New(0x1000, 0x100, 7, transport)

	notifier := &fakeNotifier{}
	a.SetNotifier(notifier)

	transport.irqAfter = 1
	if err := a.HandleWrite(0x1000+0x50, device.Dword, 1); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}
	if len(notifier.notified) != 1 {
		t.Fatalf("notified = %d calls, want 1", len(notifier.notified))
	}
}

func TestAdapterNoNotifyWhenInterruptStatusClear(t *testing.T) {
	transport := newFakeTransport()
	a := New(0x1000, 0x100, 7, transport)
	notifier := &fakeNotifier{}
	a.SetNotifier(notifier)

	if err := a.HandleWrite(0x1000, device.Dword, 1); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}
	if len(notifier.notified) != 0 {
		t.Fatalf("notified = %d calls, want 0", len(notifier.notified))
	}
}
