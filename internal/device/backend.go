package device

// AccessWidth is the width of a trapped read or write.
type AccessWidth uint8

const (
	Byte  AccessWidth = 1
	Word  AccessWidth = 2
	Dword AccessWidth = 4
	Qword AccessWidth = 8
)

// AddressRange is a half-open [Base, Base+Length) range in one address
// class's address space.
type AddressRange struct {
	Base   uint64
	Length uint64
}

// End returns the exclusive end of the range.
func (r AddressRange) End() uint64 { return r.Base + r.Length }

// Contains reports whether addr falls inside the range.
func (r AddressRange) Contains(addr uint64) bool {
	return addr >= r.Base && addr < r.End()
}

// Overlaps reports whether r and other share any address.
func (r AddressRange) Overlaps(other AddressRange) bool {
	return r.Base < other.End() && other.Base < r.End()
}

// Backend is the contract a device must provide (spec.md §6). It is
// intentionally capability-style: most methods beyond the first four are
// optional and signal "not provided" with a nil/false/zero return, the
// same pattern internal/chipset/device.go uses for
// SupportsPortIO/SupportsMmio/SupportsPollDevice.
type Backend interface {
	// EmuType classifies the device for configuration-time dispatch.
	EmuType() string

	// AddressRanges returns the device's disjoint address ranges in its
	// address class. Every registered device has at least one.
	AddressRanges() []AddressRange

	// HandleRead services a read at addr of the given width. Devices need
	// only support the widths they advertise; others may return
	// ErrBadAddress.
	HandleRead(addr uint64, width AccessWidth) (uint64, error)

	// HandleWrite services a write at addr of the given width.
	HandleWrite(addr uint64, width AccessWidth, val uint64) error

	// RegionDescriptor returns optional multi-region metadata, consumed
	// once at registration. A nil/empty return means the device has no
	// region breakdown.
	RegionDescriptor() []Region

	// RegionLookup is an optional backend-provided fast path for devices
	// with a compile-time-fixed layout, tried before the cached region
	// array. ok=false means "no fast path, fall back to the cache".
	RegionLookup(addr uint64) (hit RegionHit, ok bool)

	// NotificationConfig returns the device's notification configuration,
	// if any. ok=false means the device never raises notifications.
	NotificationConfig() (cfg NotificationConfig, ok bool)

	// SetNotifier receives the manager-issued notifier handle after
	// successful registration, if NotificationConfig returned ok=true.
	SetNotifier(n Notifier)
}

// Notifier is what the manager provides back to a backend (spec.md §6).
type Notifier interface {
	Notify(event DeviceEvent) error
	Clear(event DeviceEvent) error
	Method() NotifyMethod
	HasPending() bool
}

// BaseBackend provides no-op implementations of Backend's optional
// methods. Concrete devices embed it and override only what they need,
// the same composition idiom internal/devices/virtio/device_base.go uses
// for MMIODeviceBase.
type BaseBackend struct{}

func (BaseBackend) RegionDescriptor() []Region                     { return nil }
func (BaseBackend) RegionLookup(uint64) (RegionHit, bool)          { return RegionHit{}, false }
func (BaseBackend) NotificationConfig() (NotificationConfig, bool) { return NotificationConfig{}, false }
func (BaseBackend) SetNotifier(Notifier)                           {}
