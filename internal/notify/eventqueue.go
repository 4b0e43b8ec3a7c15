package notify

import (
	"sync"

	"github.com/tinyrange/vdevcore/internal/device"
)

// EventQueue is the per-vCPU FIFO queue backing NotifyEvent delivery
// (spec.md §2, §4.7): unlike Queue's priority heap, events pop in strict
// arrival order for batch processing by the vCPU loop.
type EventQueue struct {
	mu      sync.Mutex
	entries []device.DeviceEvent
}

// NewEventQueue returns an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Push appends event to the tail of the queue.
func (q *EventQueue) Push(event device.DeviceEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, event)
}

// Drain removes and returns up to max events from the head of the queue,
// preserving FIFO order. max <= 0 drains everything.
func (q *EventQueue) Drain(max int) []device.DeviceEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	if max > 0 && max < n {
		n = max
	}
	out := append([]device.DeviceEvent(nil), q.entries[:n]...)
	q.entries = q.entries[n:]
	return out
}

// Len returns the number of queued, undrained events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// ClearAll discards every queued event.
func (q *EventQueue) ClearAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}
