package scheduler

import (
	"container/heap"
	"time"

	"github.com/google/uuid"
)

// entry is one armed job in the due queue.
type entry struct {
	id    uuid.UUID
	due   time.Time
	index int
}

// dueHeap orders entries by due time, earliest first.
type dueHeap []*entry

func (h dueHeap) Len() int { return len(h) }

func (h dueHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].id.String() < h[j].id.String()
	}
	return h[i].due.Before(h[j].due)
}

func (h dueHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *dueHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *dueHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// dueQueue holds at most one entry per job id. It is not safe for
// concurrent use; the engine guards it with its mutex.
type dueQueue struct {
	heap    dueHeap
	entries map[uuid.UUID]*entry
}

func newDueQueue() *dueQueue {
	return &dueQueue{entries: make(map[uuid.UUID]*entry)}
}

// arm schedules id at due, replacing any previous entry for id.
func (q *dueQueue) arm(id uuid.UUID, due time.Time) {
	if e, ok := q.entries[id]; ok {
		e.due = due
		heap.Fix(&q.heap, e.index)
		return
	}
	e := &entry{id: id, due: due}
	heap.Push(&q.heap, e)
	q.entries[id] = e
}

// disarm removes id's entry. It reports whether one existed.
func (q *dueQueue) disarm(id uuid.UUID) bool {
	e, ok := q.entries[id]
	if !ok {
		return false
	}
	heap.Remove(&q.heap, e.index)
	delete(q.entries, id)
	return true
}

func (q *dueQueue) armed(id uuid.UUID) bool {
	_, ok := q.entries[id]
	return ok
}

// next returns the earliest due time.
func (q *dueQueue) next() (time.Time, bool) {
	if len(q.heap) == 0 {
		return time.Time{}, false
	}
	return q.heap[0].due, true
}

// popDue removes and returns every id due at or before now, earliest first.
func (q *dueQueue) popDue(now time.Time) []uuid.UUID {
	var ids []uuid.UUID
	for len(q.heap) > 0 && !q.heap[0].due.After(now) {
		e := heap.Pop(&q.heap).(*entry)
		delete(q.entries, e.id)
		ids = append(ids, e.id)
	}
	return ids
}

func (q *dueQueue) len() int {
	return len(q.heap)
}

func (q *dueQueue) clear() {
	q.heap = nil
	q.entries = make(map[uuid.UUID]*entry)
}
