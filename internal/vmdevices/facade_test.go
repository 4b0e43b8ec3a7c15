package vmdevices

import (
	"context"
	"strings"
	"testing"

	"github.com/tinyrange/vdevcore/internal/notify"
)

func TestLoadConfigDecodesDevices(t *testing.T) {
	doc := `
cpu_count: 2
ivc_base: 0x40000000
ivc_length: 0x100000
devices:
  - name: console0
    emu_type: Console
    base_addr: 0x09000000
    length: 0x1000
  - name: blk0
    emu_type: VirtioBlk
    base_addr: 0x0a000000
    length: 0x200
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CpuCount != 2 {
		t.Fatalf("CpuCount = %d, want 2", cfg.CpuCount)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("len(Devices) = %d, want 2", len(cfg.Devices))
	}
	if cfg.Devices[0].EmuType != "Console" {
		t.Fatalf("Devices[0].EmuType = %q, want Console", cfg.Devices[0].EmuType)
	}
}

func TestLoadConfigRejectsMissingEmuType(t *testing.T) {
	doc := `
devices:
  - name: broken
    base_addr: 0x1000
`
	if _, err := LoadConfig(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected an error for a device with no emu_type")
	}
}

func TestFacadeBuildsMixedDeviceSet(t *testing.T) {
	cfg := &Config{
		CpuCount: 1,
		Devices: []EmulatedDeviceConfig{
			{Name: "console0", EmuType: "Console", BaseAddr: 0x09000000, Length: 0x1000},
			{Name: "blk0", EmuType: "VirtioBlk", BaseAddr: 0x0a000000, Length: 0x200},
			{Name: "clint0", EmuType: "Dummy", BaseAddr: 0x02000000, Length: 0x10000},
			{Name: "mystery", EmuType: "SomethingUnknown", BaseAddr: 0x0b000000, Length: 0x10},
		},
	}

	f, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.MMIO.DeviceCount() != 3 {
		t.Fatalf("MMIO.DeviceCount() = %d, want 3 (unknown type skipped)", f.MMIO.DeviceCount())
	}
}

func TestFacadeIVCChannelLifecycle(t *testing.T) {
	cfg := &Config{CpuCount: 1, IvcBase: 0x40000000, IvcLength: 0x100000}
	f, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	addr, err := f.AllocIVCChannel(0x1000)
	if err != nil {
		t.Fatalf("AllocIVCChannel: %v", err)
	}
	if err := f.ReleaseIVCChannel(addr, 0x1000); err != nil {
		t.Fatalf("ReleaseIVCChannel: %v", err)
	}
}

func TestFacadePassthroughInterrupt(t *testing.T) {
	cfg := &Config{CpuCount: 2}
	f, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := f.InjectPassthroughInterrupt(1, 42); err != nil {
		t.Fatalf("InjectPassthroughInterrupt: %v", err)
	}
	if f.PendingInterruptCount(1) != 1 {
		t.Fatalf("PendingInterruptCount(1) = %d, want 1", f.PendingInterruptCount(1))
	}
	p, ok := f.PopPendingInterrupt(1)
	if !ok || !p.Event.Id.IsPassthrough() {
		t.Fatalf("popped pending = %+v, %v, want a passthrough id", p, ok)
	}
	if p.Irq != 42 {
		t.Fatalf("popped pending irq = %d, want 42", p.Irq)
	}
	if p.Priority != notify.PassthroughDefaultPriority {
		t.Fatalf("popped pending priority = %d, want %d", p.Priority, notify.PassthroughDefaultPriority)
	}
}
