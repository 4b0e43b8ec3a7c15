package registry

import "github.com/tinyrange/vdevcore/internal/device"

// SysRegRegistry is the address-class registry for system register traps
// (e.g. ARM system register emulation for GIC redistributor access).
type SysRegRegistry struct{ c *core }

// NewSysRegRegistry returns an empty system-register registry.
func NewSysRegRegistry() *SysRegRegistry { return &SysRegRegistry{c: newCore("sysreg")} }

func (r *SysRegRegistry) AddDevice(backend device.Backend) (device.Id, error) {
	return r.c.AddDevice(backend)
}
func (r *SysRegRegistry) RemoveDevice(id device.Id) error { return r.c.RemoveDevice(id) }
func (r *SysRegRegistry) BeginRemoveDevice(id device.Id) (*device.Wrapper, error) {
	return r.c.BeginRemoveDevice(id)
}
func (r *SysRegRegistry) CompleteRemoveDevice(id device.Id) { r.c.CompleteRemoveDevice(id) }
func (r *SysRegRegistry) HandleRead(addr uint64, width device.AccessWidth) (uint64, error) {
	return r.c.HandleRead(addr, width)
}
func (r *SysRegRegistry) HandleWrite(addr uint64, width device.AccessWidth, val uint64) error {
	return r.c.HandleWrite(addr, width, val)
}
func (r *SysRegRegistry) FindDeviceWithRegion(addr uint64) (device.Id, device.RegionHit, bool) {
	return r.c.FindDeviceWithRegion(addr)
}
func (r *SysRegRegistry) Device(id device.Id) (*device.Wrapper, bool) { return r.c.Device(id) }
func (r *SysRegRegistry) ListDevices() []device.Id                    { return r.c.ListDevices() }
func (r *SysRegRegistry) DeviceCount() int                            { return r.c.DeviceCount() }
func (r *SysRegRegistry) GetDeviceStats(id device.Id) (reads, writes, errors uint64, err error) {
	return r.c.GetDeviceStats(id)
}
