// Package vmdevices is the VM-devices façade from spec.md §6: it owns the
// three address-class registries, the IVC channel allocator, and a
// notification manager, and builds all of them from a single list of
// emulated-device descriptors.
package vmdevices

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tinyrange/vdevcore/internal/device"
)

// EmulatedDeviceConfig is one entry in the descriptor list the façade
// constructor consumes (spec.md §6), restoring the original's typed
// AxVmDeviceConfig (original_source/src/config.rs) as a YAML-decodable
// struct rather than an opaque list.
type EmulatedDeviceConfig struct {
	Name     string `yaml:"name"`
	EmuType  string `yaml:"emu_type"`
	BaseAddr uint64 `yaml:"base_addr"`
	Length   uint64 `yaml:"length"`
	CfgList  []int  `yaml:"cfg_list"`
}

// Config is the top-level document the façade constructor decodes: the
// vCPU count, one flat list of emulated-device descriptors (VirtIO MMIO
// entries included, installed as header-only stubs), and an optional IVC
// channel window.
type Config struct {
	CpuCount  int                    `yaml:"cpu_count"`
	Devices   []EmulatedDeviceConfig `yaml:"devices"`
	IvcBase   uint64                 `yaml:"ivc_base"`
	IvcLength uint64                 `yaml:"ivc_length"`
}

// LoadConfig decodes a device configuration document from r.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("vmdevices: decode config: %w", err)
	}
	if cfg.CpuCount <= 0 {
		cfg.CpuCount = 1
	}
	for _, d := range cfg.Devices {
		if d.EmuType == "" {
			return nil, fmt.Errorf("vmdevices: device %q: %w", d.Name, device.ErrInvalidInput)
		}
	}
	return &cfg, nil
}
