package queue

import (
	"net/netip"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/frontline/internal/core/message"
)

var src = netip.MustParseAddrPort("127.0.0.1:4000")

func TestDrainReturnsArrivalOrder(t *testing.T) {
	q := New()
	q.Enqueue(message.Join{ID: "p1"}, src)
	q.Enqueue(message.Move{DX: 1}, src)
	q.Enqueue(message.Shoot{}, src)
	assert.Equal(t, 3, q.Len())

	drained := q.Drain()
	require.Len(t, drained, 3)
	assert.Equal(t, message.Join{ID: "p1"}, drained[0].Payload)
	assert.Equal(t, message.Move{DX: 1}, drained[1].Payload)
	assert.Equal(t, message.Shoot{}, drained[2].Payload)
	for i, qc := range drained {
		assert.Equal(t, uint64(i+1), qc.Order)
		assert.Equal(t, src, qc.Source)
	}
}

func TestDrainTwiceReturnsNothingTheSecondTime(t *testing.T) {
	q := New()
	q.Enqueue(message.Shoot{}, src)

	assert.Len(t, q.Drain(), 1)
	assert.Empty(t, q.Drain())
	assert.Zero(t, q.Len())
}

func TestOrderIsMonotonicAcrossDrains(t *testing.T) {
	q := New()
	q.Enqueue(message.Shoot{}, src)
	q.Enqueue(message.Shoot{}, src)
	q.Drain()

	qc := q.Enqueue(message.Shoot{}, src)
	assert.Equal(t, uint64(3), qc.Order)
	assert.Equal(t, uint64(3), q.LastOrder())
}

func TestConcurrentEnqueue(t *testing.T) {
	const (
		producers = 8
		perWorker = 500
	)
	q := New()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		drained  []QueuedCommand
		stop = make(chan struct{})
	)

	// drain concurrently with the producers to exercise the swap
	drainerDone := make(chan struct{})
	go func() {
		defer close(drainerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			batch := q.Drain()
			mu.Lock()
			drained = append(drained, batch...)
			mu.Unlock()
		}
	}()

	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr := netip.AddrPortFrom(netip.MustParseAddr("10.0.0.1"), uint16(5000+p))
			for range perWorker {
				q.Enqueue(message.Move{DX: 1}, addr)
			}
		}()
	}
	wg.Wait()
	close(stop)
	<-drainerDone
	drained = append(drained, q.Drain()...)

	require.Len(t, drained, producers*perWorker, "nothing lost")
	seen := make(map[uint64]struct{}, len(drained))
	for i, qc := range drained {
		_, dup := seen[qc.Order]
		require.False(t, dup, "order %d delivered twice", qc.Order)
		seen[qc.Order] = struct{}{}
		if i > 0 {
			require.Greater(t, qc.Order, drained[i-1].Order, "drains are ordered and disjoint")
		}
	}
	assert.Equal(t, uint64(producers*perWorker), q.LastOrder())
}
