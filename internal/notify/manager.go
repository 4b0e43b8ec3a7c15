package notify

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tinyrange/vdevcore/internal/debug"
	"github.com/tinyrange/vdevcore/internal/device"
)

// PassthroughDefaultPriority is the fixed priority spec.md §4.10 mandates
// for inject_passthrough_interrupt ("uses a fixed default priority, e.g.
// 50").
const PassthroughDefaultPriority uint8 = 50

// Manager is the DeviceNotificationManager from spec.md §4.7: one
// transactional interrupt Queue and one FIFO EventQueue and one
// PollFlags table per vCPU, plus a single RoutingTable shared across all
// vCPUs, and the CPU-selection logic that decides which queue(s) an
// Inject call reaches.
type Manager struct {
	interruptQueues []*Queue
	eventQueues     []*EventQueue
	poll            []*PollFlags
	routing         *RoutingTable
	callbacks       sync.Map // device.Id -> func(device.DeviceEvent) error
	rrCounter       atomic.Uint64
}

// New returns a Manager sized for cpuCount vCPUs, allocating cpuCount
// interrupt queues and cpuCount event queues (spec.md §4.7). cpuCount
// must be at least 1.
func New(cpuCount int) *Manager {
	if cpuCount < 1 {
		cpuCount = 1
	}
	m := &Manager{
		interruptQueues: make([]*Queue, cpuCount),
		eventQueues:     make([]*EventQueue, cpuCount),
		poll:            make([]*PollFlags, cpuCount),
		routing:         NewRoutingTable(),
	}
	for i := range m.interruptQueues {
		m.interruptQueues[i] = NewQueue()
		m.eventQueues[i] = NewEventQueue()
		m.poll[i] = NewPollFlags()
	}
	return m
}

// CpuCount returns the number of vCPU queues the manager was built with.
func (m *Manager) CpuCount() int { return len(m.interruptQueues) }

// RegisterNotification registers id's NotificationConfig and returns the
// device.Notifier handle the caller should hand to the backend via
// SetNotifier. Fails if id is already registered. A poll-flag slot is
// allocated only when the method is NotifyPoll, per spec.md §4.7.
func (m *Manager) RegisterNotification(id device.Id, cfg device.NotificationConfig) (device.Notifier, error) {
	if err := m.routing.Register(id, cfg); err != nil {
		return nil, err
	}
	if cfg.Method == device.NotifyPoll {
		for _, p := range m.poll {
			p.Register(id)
		}
	}
	return &notifierImpl{manager: m, id: id}, nil
}

// UnregisterNotification removes id's route and poll flags. Fails if id
// was never registered.
func (m *Manager) UnregisterNotification(id device.Id) error {
	if err := m.routing.Unregister(id); err != nil {
		return err
	}
	for _, p := range m.poll {
		p.Unregister(id)
	}
	m.callbacks.Delete(id)
	return nil
}

// RegisterCallback installs fn as the NotifyCallback handler for id. Only
// meaningful for devices whose NotificationConfig.Method is
// device.NotifyCallback.
func (m *Manager) RegisterCallback(id device.Id, fn func(device.DeviceEvent) error) {
	m.callbacks.Store(id, fn)
}

func (m *Manager) targetCpus(cfg device.NotificationConfig) []int {
	switch cfg.Affinity {
	case device.CpuAffinityFixed:
		n := len(m.interruptQueues)
		return []int{((cfg.FixedCpu % n) + n) % n}
	case device.CpuAffinityRoundRobin:
		n := uint64(len(m.interruptQueues))
		cpu := m.rrCounter.Add(1) % n
		return []int{int(cpu)}
	case device.CpuAffinityLoadBalance:
		best, bestLen := 0, -1
		for i, q := range m.interruptQueues {
			l := q.Len()
			if bestLen == -1 || l < bestLen {
				best, bestLen = i, l
			}
		}
		return []int{best}
	case device.CpuAffinityBroadcast:
		all := make([]int, len(m.interruptQueues))
		for i := range all {
			all[i] = i
		}
		return all
	default:
		return []int{0}
	}
}

// resolveIrq maps an event variant to the IRQ number it should be
// delivered on, per spec.md §4.7: DataReady/SpaceAvailable/ConfigChanged/
// Irq(Primary)/Custom resolve to PrimaryIrq; Irq(Additional(i)) resolves
// to AdditionalIrqs[i], range-checked.
func resolveIrq(cfg device.NotificationConfig, event device.DeviceEvent) (uint32, error) {
	switch event.Kind {
	case device.EventIrqAdditional:
		idx := int(event.Additional)
		if idx < 0 || idx >= len(cfg.AdditionalIrqs) {
			return 0, fmt.Errorf("resolve irq: additional index %d: %w", idx, device.ErrInvalidInput)
		}
		return cfg.AdditionalIrqs[idx], nil
	default: // EventIrqPrimary, EventDataReady, EventSpaceAvailable, EventConfigChanged, EventCustom
		if cfg.PrimaryIrq == nil {
			return 0, fmt.Errorf("resolve irq: no primary irq configured: %w", device.ErrInvalidInput)
		}
		return *cfg.PrimaryIrq, nil
	}
}

// Inject delivers event immediately to the vCPU(s) selected by event.Id's
// registered affinity, or invokes the registered callback for
// NotifyCallback devices. Fails if event.Id has no registered route.
func (m *Manager) Inject(event device.DeviceEvent) error {
	cfg, ok := m.routing.Get(event.Id)
	if !ok {
		return fmt.Errorf("notify: inject %s: %w", event.Id, device.ErrNotFound)
	}

	switch cfg.Method {
	case device.NotifyInterrupt:
		return m.injectInterrupt(cfg, event)
	case device.NotifyPoll:
		bit := event.PollBit()
		for _, cpu := range m.targetCpus(cfg) {
			m.poll[cpu].Set(event.Id, bit)
		}
		return nil
	case device.NotifyEvent:
		for _, cpu := range m.targetCpus(cfg) {
			m.eventQueues[cpu].Push(event)
		}
		return nil
	case device.NotifyCallback:
		fn, ok := m.callbacks.Load(event.Id)
		if !ok {
			return fmt.Errorf("notify: inject %s: no callback registered: %w", event.Id, device.ErrBadState)
		}
		return fn.(func(device.DeviceEvent) error)(event)
	default:
		return fmt.Errorf("notify: inject %s: unknown method: %w", event.Id, device.ErrInvalidInput)
	}
}

func (m *Manager) injectInterrupt(cfg device.NotificationConfig, event device.DeviceEvent) error {
	irq, err := resolveIrq(cfg, event)
	if err != nil {
		return fmt.Errorf("notify: inject %s: %w", event.Id, err)
	}
	for _, cpu := range m.targetCpus(cfg) {
		m.interruptQueues[cpu].Push(irq, event, cfg.Priority)
		debug.Writef("notify", "inject %s irq=%d -> cpu%d", event.Id, irq, cpu)
	}
	return nil
}

// InjectPending begins a transactional interrupt injection: the event is
// pushed as pending on every targeted vCPU queue and the returned entry
// ids must later all be passed to ConfirmPending or RollbackPending
// together.
func (m *Manager) InjectPending(event device.DeviceEvent) (map[int]EntryId, error) {
	cfg, ok := m.routing.Get(event.Id)
	if !ok {
		return nil, fmt.Errorf("notify: inject pending %s: %w", event.Id, device.ErrNotFound)
	}
	irq, err := resolveIrq(cfg, event)
	if err != nil {
		return nil, fmt.Errorf("notify: inject pending %s: %w", event.Id, err)
	}
	entries := make(map[int]EntryId)
	for _, cpu := range m.targetCpus(cfg) {
		entries[cpu] = m.interruptQueues[cpu].PushPending(irq, event, cfg.Priority)
	}
	return entries, nil
}

// ConfirmPending confirms every entry produced by a prior InjectPending
// call, making them visible to each target vCPU's Pop.
func (m *Manager) ConfirmPending(entries map[int]EntryId) {
	for cpu, id := range entries {
		m.interruptQueues[cpu].Confirm(id)
	}
}

// RollbackPending discards every entry produced by a prior InjectPending
// call without ever exposing them to Pop.
func (m *Manager) RollbackPending(entries map[int]EntryId) {
	for cpu, id := range entries {
		m.interruptQueues[cpu].Rollback(id)
	}
}

// InjectRaw is the back door for passthrough interrupt sources (spec.md
// §4.7's inject_raw): it builds a notification carrying a synthetic
// passthrough device id (see device.PassthroughId) and pushes it directly
// onto cpu's interrupt queue, bypassing the routing table entirely since
// passthrough sources have no registered NotificationConfig.
func (m *Manager) InjectRaw(irq uint32, cpu int, priority uint8) error {
	if cpu < 0 || cpu >= len(m.interruptQueues) {
		return fmt.Errorf("notify: inject raw: cpu %d out of range: %w", cpu, device.ErrInvalidInput)
	}
	event := device.IrqPrimary(device.PassthroughId(irq))
	m.interruptQueues[cpu].Push(irq, event, priority)
	debug.Writef("notify", "inject raw irq=%d -> cpu%d", irq, cpu)
	return nil
}

// PopPending removes and returns the next confirmed notification for cpu.
func (m *Manager) PopPending(cpu int) (Pending, bool) {
	if cpu < 0 || cpu >= len(m.interruptQueues) {
		return Pending{}, false
	}
	return m.interruptQueues[cpu].Pop()
}

// DrainEvents pops up to max events from cpu's FIFO event queue,
// preserving arrival order. max <= 0 drains everything queued.
func (m *Manager) DrainEvents(cpu, max int) []device.DeviceEvent {
	if cpu < 0 || cpu >= len(m.eventQueues) {
		return nil
	}
	return m.eventQueues[cpu].Drain(max)
}

// CheckAndClearPoll reports and clears id's poll flags for cpu.
func (m *Manager) CheckAndClearPoll(cpu int, id device.Id) uint32 {
	if cpu < 0 || cpu >= len(m.poll) {
		return 0
	}
	return m.poll[cpu].CheckAndClear(id)
}

// PendingInterruptCount returns the number of confirmed, not-yet-popped
// notifications queued for cpu.
func (m *Manager) PendingInterruptCount(cpu int) int {
	if cpu < 0 || cpu >= len(m.interruptQueues) {
		return 0
	}
	return m.interruptQueues[cpu].Len()
}

// ClearAllPending discards every confirmed and pending interrupt-queue
// entry, and every queued event, on every vCPU. Poll flags are
// deliberately left untouched: a poll-delivered notification is "pending"
// in the device's own state, not the queue's, and clearing queues on
// reset must not silently drop a poll flag a vCPU hasn't observed yet
// (spec.md §4.7).
func (m *Manager) ClearAllPending() {
	for _, q := range m.interruptQueues {
		q.ClearAll()
	}
	for _, q := range m.eventQueues {
		q.ClearAll()
	}
}
