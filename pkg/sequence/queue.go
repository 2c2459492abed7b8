package sequence

import "container/heap"

// Less reports whether a must be dequeued before b.
type Less[T any] func(a, b T) bool

type priorityQueue[T any] struct {
	items []T
	less  Less[T]
}

func (pq *priorityQueue[T]) Len() int {
	return len(pq.items)
}

func (pq *priorityQueue[T]) Less(i, j int) bool {
	return pq.less(pq.items[i], pq.items[j])
}

func (pq *priorityQueue[T]) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *priorityQueue[T]) Push(x any) {
	pq.items = append(pq.items, x.(T))
}

func (pq *priorityQueue[T]) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	var zero T
	old[n-1] = zero // avoid memory leak
	pq.items = old[0 : n-1]
	return item
}

// PriorityQueue is a binary heap ordered by a caller supplied Less.
// It is not safe for concurrent use.
type PriorityQueue[T any] struct {
	pq priorityQueue[T]
}

func NewPriorityQueue[T any](less Less[T]) *PriorityQueue[T] {
	pq := &PriorityQueue[T]{pq: priorityQueue[T]{less: less}}
	heap.Init(&pq.pq)
	return pq
}

func (pq *PriorityQueue[T]) Enqueue(value T) {
	heap.Push(&pq.pq, value)
}

func (pq *PriorityQueue[T]) Dequeue() (T, bool) {
	if pq.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&pq.pq).(T), true
}

func (pq *PriorityQueue[T]) Peek() (T, bool) {
	if pq.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	return pq.pq.items[0], true
}

// Drain dequeues every element and returns them in priority order.
func (pq *PriorityQueue[T]) Drain() []T {
	out := make([]T, 0, pq.pq.Len())
	for pq.pq.Len() > 0 {
		out = append(out, heap.Pop(&pq.pq).(T))
	}
	return out
}

func (pq *PriorityQueue[T]) Len() int {
	return pq.pq.Len()
}

func (pq *PriorityQueue[T]) IsEmpty() bool {
	return pq.pq.Len() == 0
}
