// Package notify implements per-vCPU notification delivery: a
// transactional priority queue, a FIFO event queue, a poll-flag table, a
// device-to-route table, and the manager that ties them to the
// registries.
package notify

import (
	"container/heap"
	"sync"

	"github.com/tinyrange/vdevcore/internal/device"
)

// EntryId uniquely identifies one pushed notification within a queue's
// pending table, independent of its position in the confirmed heap.
type EntryId uint64

// Pending is one notification awaiting confirmation, or sitting confirmed
// in the heap. Irq is the resolved interrupt number (spec.md §3's
// PendingNotification.irq); Priority and Seq (the monotonic arrival
// timestamp) determine pop order.
type Pending struct {
	Entry    EntryId
	Irq      uint32
	Event    device.DeviceEvent
	Priority uint8
	Seq      uint64 // FIFO tiebreaker for equal priority
}

type priorityHeap []Pending

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority // higher priority pops first
	}
	return h[i].Seq < h[j].Seq // FIFO among equal priority
}
func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x any)   { *h = append(*h, x.(Pending)) }
func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is the per-vCPU transactional notification queue from spec.md §4.4:
// a notification is first pushed as pending, then either confirmed (moved
// into the confirmed max-heap, ordered by priority then arrival) or rolled
// back (discarded), so a partially-delivered injection never corrupts the
// heap a vCPU is draining concurrently.
type Queue struct {
	mu        sync.Mutex
	confirmed priorityHeap
	pending   map[EntryId]Pending
	nextEntry EntryId
	nextSeq   uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{pending: make(map[EntryId]Pending)}
}

// PushPending records event as awaiting confirmation and returns its entry
// id. It is not visible to Pop until Confirm is called with the same id.
func (q *Queue) PushPending(irq uint32, event device.DeviceEvent, priority uint8) EntryId {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextEntry++
	id := q.nextEntry
	q.nextSeq++
	q.pending[id] = Pending{Entry: id, Irq: irq, Event: event, Priority: priority, Seq: q.nextSeq}
	return id
}

// Confirm moves a pending entry into the confirmed heap, making it visible
// to Pop. Returns false if id is unknown (already confirmed or rolled
// back).
func (q *Queue) Confirm(id EntryId) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, ok := q.pending[id]
	if !ok {
		return false
	}
	delete(q.pending, id)
	heap.Push(&q.confirmed, p)
	return true
}

// Rollback discards a pending entry without ever making it visible to Pop.
// Returns false if id is unknown.
func (q *Queue) Rollback(id EntryId) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[id]; !ok {
		return false
	}
	delete(q.pending, id)
	return true
}

// Push is the non-transactional shortcut: push and confirm in one step.
func (q *Queue) Push(irq uint32, event device.DeviceEvent, priority uint8) EntryId {
	id := q.PushPending(irq, event, priority)
	q.Confirm(id)
	return id
}

// Pop removes and returns the highest-priority confirmed notification,
// ties broken by arrival order. ok=false if the confirmed heap is empty.
func (q *Queue) Pop() (Pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.confirmed) == 0 {
		return Pending{}, false
	}
	item := heap.Pop(&q.confirmed).(Pending)
	return item, true
}

// Len returns the number of confirmed (poppable) entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.confirmed)
}

// PendingCount returns the number of entries awaiting confirm/rollback.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// ClearAll discards every confirmed and pending entry.
func (q *Queue) ClearAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.confirmed = q.confirmed[:0]
	q.pending = make(map[EntryId]Pending)
}
