package notify

import (
	"fmt"
	"sync"

	"github.com/tinyrange/vdevcore/internal/device"
)

// RoutingTable maps a device id to the NotificationConfig it registered
// at add time, so Inject can look up method/affinity without going back
// through the registry.
type RoutingTable struct {
	mu     sync.RWMutex
	routes map[device.Id]device.NotificationConfig
}

// NewRoutingTable returns an empty table.
func NewRoutingTable() *RoutingTable {
	return &RoutingTable{routes: make(map[device.Id]device.NotificationConfig)}
}

// Register adds a route for id. Fails if id is already registered.
func (t *RoutingTable) Register(id device.Id, cfg device.NotificationConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.routes[id]; ok {
		return fmt.Errorf("notify: register route for %s: %w", id, device.ErrAlreadyExists)
	}
	t.routes[id] = cfg
	return nil
}

// Unregister removes id's route. Fails if id has no route.
func (t *RoutingTable) Unregister(id device.Id) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.routes[id]; !ok {
		return fmt.Errorf("notify: unregister route for %s: %w", id, device.ErrNotFound)
	}
	delete(t.routes, id)
	return nil
}

// Get returns a copy of id's registered config.
func (t *RoutingTable) Get(id device.Id) (device.NotificationConfig, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cfg, ok := t.routes[id]
	return cfg, ok
}
