package notify

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tinyrange/vdevcore/internal/device"
)

func TestRoutingTableRegisterAndGet(t *testing.T) {
	rt := NewRoutingTable()
	cfg := device.NotificationConfig{Method: device.NotifyPoll, Affinity: device.CpuAffinityFixed, FixedCpu: 2}

	if err := rt.Register(1, cfg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := rt.Get(1)
	if !ok || !reflect.DeepEqual(got, cfg) {
		t.Fatalf("Get = %+v, %v, want %+v, true", got, ok, cfg)
	}
}

func TestRoutingTableDuplicateRegister(t *testing.T) {
	rt := NewRoutingTable()
	cfg := device.NotificationConfig{}
	if err := rt.Register(1, cfg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := rt.Register(1, cfg); !errors.Is(err, device.ErrAlreadyExists) {
		t.Fatalf("duplicate Register: err=%v, want ErrAlreadyExists", err)
	}
}

func TestRoutingTableUnregisterNotFound(t *testing.T) {
	rt := NewRoutingTable()
	if err := rt.Unregister(42); !errors.Is(err, device.ErrNotFound) {
		t.Fatalf("Unregister unknown id: err=%v, want ErrNotFound", err)
	}
}
