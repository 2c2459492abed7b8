package queue

import (
	"net/netip"
	"sync"

	"github.com/zeusync/frontline/internal/core/message"
	"github.com/zeusync/frontline/pkg/sequence"
)

// QueuedCommand is a decoded command stamped with its local arrival order.
type QueuedCommand struct {
	Payload message.Command
	Source  netip.AddrPort
	Order   uint64
}

func byOrder(a, b QueuedCommand) bool {
	return a.Order < b.Order
}

// Ordered buffers commands between ingress goroutines and the tick loop.
// Enqueue may be called concurrently; Drain hands over everything queued so
// far and leaves a fresh, empty queue behind.
type Ordered struct {
	mu      sync.Mutex
	pending *sequence.PriorityQueue[QueuedCommand]
	last    uint64
}

func New() *Ordered {
	return &Ordered{pending: sequence.NewPriorityQueue(byOrder)}
}

// Enqueue stamps cmd with the next order number and queues it.
func (q *Ordered) Enqueue(cmd message.Command, source netip.AddrPort) QueuedCommand {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.last++
	qc := QueuedCommand{Payload: cmd, Source: source, Order: q.last}
	q.pending.Enqueue(qc)
	return qc
}

// Drain swaps out the queued commands and returns them in arrival order.
// Commands enqueued while the result is being sorted land in the next drain.
func (q *Ordered) Drain() []QueuedCommand {
	q.mu.Lock()
	captured := q.pending
	q.pending = sequence.NewPriorityQueue(byOrder)
	q.mu.Unlock()

	return captured.Drain()
}

func (q *Ordered) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

// LastOrder is the order number of the most recently enqueued command.
func (q *Ordered) LastOrder() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last
}
