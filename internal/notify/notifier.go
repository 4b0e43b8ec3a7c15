package notify

import "github.com/tinyrange/vdevcore/internal/device"

// notifierImpl is the device.Notifier handle a Manager hands back to a
// backend through Wrapper.SetNotifier after RegisterNotification succeeds.
type notifierImpl struct {
	manager *Manager
	id      device.Id
}

// Notify injects an event on behalf of the owning device.
func (n *notifierImpl) Notify(event device.DeviceEvent) error {
	event.Id = n.id
	return n.manager.Inject(event)
}

// Clear is a no-op: this core does not implement level-triggered deassert
// (SPEC_FULL.md §5 — it depends on an architectural interrupt controller
// explicitly out of scope here).
func (n *notifierImpl) Clear(device.DeviceEvent) error {
	return nil
}

// Method returns the delivery method registered for this device.
func (n *notifierImpl) Method() device.NotifyMethod {
	cfg, ok := n.manager.routing.Get(n.id)
	if !ok {
		return device.NotifyInterrupt
	}
	return cfg.Method
}

// HasPending reports whether this device has any notification currently
// pending delivery: true iff its method is NotifyPoll and its poll-flag
// slot is non-zero on some vCPU (spec.md §4.8).
func (n *notifierImpl) HasPending() bool {
	cfg, ok := n.manager.routing.Get(n.id)
	if !ok || cfg.Method != device.NotifyPoll {
		return false
	}
	for _, p := range n.manager.poll {
		if p.Peek(n.id) != 0 {
			return true
		}
	}
	return false
}
