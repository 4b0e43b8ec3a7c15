package registry

import "github.com/tinyrange/vdevcore/internal/device"

// PortRegistry is the address-class registry for legacy port I/O
// (x86 IN/OUT-style access).
type PortRegistry struct{ c *core }

// NewPortRegistry returns an empty port-I/O registry.
func NewPortRegistry() *PortRegistry { return &PortRegistry{c: newCore("port")} }

func (r *PortRegistry) AddDevice(backend device.Backend) (device.Id, error) {
	return r.c.AddDevice(backend)
}
func (r *PortRegistry) RemoveDevice(id device.Id) error { return r.c.RemoveDevice(id) }
func (r *PortRegistry) BeginRemoveDevice(id device.Id) (*device.Wrapper, error) {
	return r.c.BeginRemoveDevice(id)
}
func (r *PortRegistry) CompleteRemoveDevice(id device.Id) { r.c.CompleteRemoveDevice(id) }
func (r *PortRegistry) HandleRead(addr uint64, width device.AccessWidth) (uint64, error) {
	return r.c.HandleRead(addr, width)
}
func (r *PortRegistry) HandleWrite(addr uint64, width device.AccessWidth, val uint64) error {
	return r.c.HandleWrite(addr, width, val)
}
func (r *PortRegistry) FindDeviceWithRegion(addr uint64) (device.Id, device.RegionHit, bool) {
	return r.c.FindDeviceWithRegion(addr)
}
func (r *PortRegistry) Device(id device.Id) (*device.Wrapper, bool) { return r.c.Device(id) }
func (r *PortRegistry) ListDevices() []device.Id                    { return r.c.ListDevices() }
func (r *PortRegistry) DeviceCount() int                            { return r.c.DeviceCount() }
func (r *PortRegistry) GetDeviceStats(id device.Id) (reads, writes, errors uint64, err error) {
	return r.c.GetDeviceStats(id)
}
