package registry

import "github.com/tinyrange/vdevcore/internal/device"

// MMIORegistry is the address-class registry for memory-mapped I/O.
type MMIORegistry struct{ c *core }

// NewMMIORegistry returns an empty MMIO registry.
func NewMMIORegistry() *MMIORegistry { return &MMIORegistry{c: newCore("mmio")} }

func (r *MMIORegistry) AddDevice(backend device.Backend) (device.Id, error) {
	return r.c.AddDevice(backend)
}
func (r *MMIORegistry) RemoveDevice(id device.Id) error { return r.c.RemoveDevice(id) }
func (r *MMIORegistry) BeginRemoveDevice(id device.Id) (*device.Wrapper, error) {
	return r.c.BeginRemoveDevice(id)
}
func (r *MMIORegistry) CompleteRemoveDevice(id device.Id) { r.c.CompleteRemoveDevice(id) }
func (r *MMIORegistry) HandleRead(addr uint64, width device.AccessWidth) (uint64, error) {
	return r.c.HandleRead(addr, width)
}
func (r *MMIORegistry) HandleWrite(addr uint64, width device.AccessWidth, val uint64) error {
	return r.c.HandleWrite(addr, width, val)
}
func (r *MMIORegistry) FindDeviceWithRegion(addr uint64) (device.Id, device.RegionHit, bool) {
	return r.c.FindDeviceWithRegion(addr)
}
func (r *MMIORegistry) Device(id device.Id) (*device.Wrapper, bool) { return r.c.Device(id) }
func (r *MMIORegistry) ListDevices() []device.Id                    { return r.c.ListDevices() }
func (r *MMIORegistry) DeviceCount() int                            { return r.c.DeviceCount() }
func (r *MMIORegistry) GetDeviceStats(id device.Id) (reads, writes, errors uint64, err error) {
	return r.c.GetDeviceStats(id)
}
