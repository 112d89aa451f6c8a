package sched

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// item is one element of the min-heap.
type item[V any, P constraints.Ordered] struct {
	object   V
	priority P
	index    int
}

type wrapper[V any, P constraints.Ordered] struct {
	items []*item[V, P]
	// less orders priorities; the scheduler supplies Tick.Before here so
	// heap order survives the 32-bit tick wraparound.
	less func(a, b P) bool
}

// Len returns the number of elements currently in the heap.
func (pq *wrapper[V, P]) Len() int { return len(pq.items) }

// Less reports whether the element at i has lower priority than at j,
// maintaining the heap's minimum-priority-first order.
func (pq *wrapper[V, P]) Less(i, j int) bool {
	return pq.less(pq.items[i].priority, pq.items[j].priority)
}

// Swap exchanges the elements at i and j and keeps their stored indices
// in sync with their new positions.
func (pq *wrapper[V, P]) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
	pq.items[i].index = i
	pq.items[j].index = j
}

// Push appends x (asserted to *item[V,P]) to the heap's backing slice.
func (pq *wrapper[V, P]) Push(x any) {
	it := x.(*item[V, P])
	it.index = len(pq.items)
	pq.items = append(pq.items, it)
}

// Pop removes and returns the last element of the backing slice,
// nil-ing its slot to avoid retaining a reference.
func (pq *wrapper[V, P]) Pop() any {
	old := pq.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	pq.items = old[0 : n-1]
	return it
}

// minHeap is a minimum-priority queue keyed by Tick, used internally by
// Scheduler to order pending events.
type minHeap[V any, P constraints.Ordered] struct {
	pq wrapper[V, P]
}

// newMinHeap builds an empty heap ordered by less; a nil less falls back
// to the natural < on P.
func newMinHeap[V any, P constraints.Ordered](less func(a, b P) bool) minHeap[V, P] {
	if less == nil {
		less = func(a, b P) bool { return a < b }
	}
	return minHeap[V, P]{pq: wrapper[V, P]{less: less}}
}

// Len returns the number of queued elements.
func (h *minHeap[V, P]) Len() int { return h.pq.Len() }

// Push inserts value at the given priority and returns its handle.
func (h *minHeap[V, P]) Push(value V, priority P) *item[V, P] {
	it := &item[V, P]{object: value, priority: priority}
	heap.Push(&h.pq, it)
	return it
}

// Peek returns the minimum-priority value without removing it.
func (h *minHeap[V, P]) Peek() V { return h.pq.items[0].object }

// PeekPriority returns the minimum element's priority.
func (h *minHeap[V, P]) PeekPriority() P { return h.pq.items[0].priority }

// Pop removes and returns the minimum-priority value.
func (h *minHeap[V, P]) Pop() V {
	return heap.Pop(&h.pq).(*item[V, P]).object
}

// Remove removes an arbitrary element by its handle, for cancellation.
func (h *minHeap[V, P]) Remove(it *item[V, P]) {
	if it.index < 0 || it.index >= h.pq.Len() {
		return
	}
	heap.Remove(&h.pq, it.index)
}
