// Command devsim loads a device configuration document, lists each
// configured device behind a progress bar, and then brings up a
// vmdevices.Facade from it. It
// exists as a small, runnable demonstration of the device-management
// core, the way the teacher's cmd/ binaries exercise its own packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/tinyrange/vdevcore/internal/vmdevices"
)

func main() {
	if err := run(); err != nil {
		slog.Error("devsim: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a device configuration YAML document")
	flag.Parse()

	if *configPath == "" {
		return fmt.Errorf("devsim: -config is required")
	}

	f, err := os.Open(*configPath)
	if err != nil {
		return fmt.Errorf("devsim: open config: %w", err)
	}
	defer f.Close()

	cfg, err := vmdevices.LoadConfig(f)
	if err != nil {
		return fmt.Errorf("devsim: load config: %w", err)
	}

	bar := progressbar.Default(int64(len(cfg.Devices)), "registering devices")
	for _, d := range cfg.Devices {
		slog.Info("devsim: device", "name", d.Name, "emu_type", d.EmuType, "base_addr", d.BaseAddr)
		_ = bar.Add(1)
	}

	facade, err := vmdevices.New(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("devsim: build facade: %w", err)
	}

	slog.Info("devsim: ready",
		"mmio_devices", facade.MMIO.DeviceCount(),
		"sysreg_devices", facade.SysReg.DeviceCount(),
		"port_devices", facade.Port.DeviceCount(),
	)
	return nil
}
