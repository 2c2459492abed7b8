package server

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/frontline/internal/core/message"
	"github.com/zeusync/frontline/internal/core/movement"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/internal/core/protocol"
	"github.com/zeusync/frontline/internal/core/queue"
	"github.com/zeusync/frontline/internal/core/transport"
	"github.com/zeusync/frontline/internal/core/world"
)

type datagram struct {
	payload []byte
	from    netip.AddrPort
}

// fakeTransport delivers datagrams pushed by the test and records sends.
type fakeTransport struct {
	*recordingSender
	inbound chan datagram
	closed  chan struct{}
	once    sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		recordingSender: newRecordingSender(),
		inbound:         make(chan datagram, 16),
		closed:          make(chan struct{}),
	}
}

func (f *fakeTransport) Receive(ctx context.Context) ([]byte, netip.AddrPort, error) {
	select {
	case <-ctx.Done():
		return nil, netip.AddrPort{}, ctx.Err()
	case <-f.closed:
		return nil, netip.AddrPort{}, transport.ErrClosed
	case d := <-f.inbound:
		return d.payload, d.from, nil
	}
}

func (f *fakeTransport) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) push(t *testing.T, cmd message.Command, from netip.AddrPort) {
	t.Helper()
	payload, err := protocol.EncodeCommand(cmd)
	require.NoError(t, err)
	f.inbound <- datagram{payload: payload, from: from}
}

func newServer(t *testing.T, tr transport.Transport) *Server {
	t.Helper()
	cfg := testConfig()
	cfg.Server.IngressWorkers = 2
	adapter := movement.NewPhysicsAdapter(cfg.Physics, log.NewNop())
	w := world.New(adapter, cfg.World, cfg.Bullet, log.NewNop())
	q := queue.New()
	game := NewGame(w, q, tr, cfg.Server, log.NewNop())
	return NewServer(tr, q, game, cfg.Server, log.NewNop())
}

func TestServerIngressToBroadcast(t *testing.T) {
	tr := newFakeTransport()
	srv := newServer(t, tr)

	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Close() })

	// garbage is dropped without disturbing the loop
	tr.inbound <- datagram{payload: []byte{0xff, 0xff, 0xff}, from: addrB}
	tr.push(t, message.Join{ID: "p1", DisplayName: "one"}, addrA)

	require.Eventually(t, func() bool {
		return len(tr.events(t, addrA)) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, message.PlayerAdded{ID: "p1", DisplayName: "one"}, tr.events(t, addrA)[0])

	tr.push(t, message.Move{DZ: 1}, addrA)
	require.Eventually(t, func() bool {
		return len(tr.events(t, addrA)) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.IsType(t, message.PlayerPositionChanged{}, tr.events(t, addrA)[1])

	require.NoError(t, srv.Stop(context.Background()))
	assert.Positive(t, srv.game.Ticks())
}

func TestServerLifecycle(t *testing.T) {
	srv := newServer(t, newFakeTransport())

	assert.ErrorIs(t, srv.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerAlreadyRunning)

	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerClosed)
}

func TestServerStopsWithParentContext(t *testing.T) {
	srv := newServer(t, newFakeTransport())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))
	cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerOverUDP(t *testing.T) {
	tr, err := transport.ListenUDP("127.0.0.1:0", 1500, log.NewNop())
	require.NoError(t, err)
	srv := newServer(t, tr)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Close() })

	client, err := net.DialUDP("udp", nil, tr.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	join, err := protocol.EncodeCommand(message.Join{ID: "p1", DisplayName: "one"})
	require.NoError(t, err)
	_, err = client.Write(join)
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1500)
	n, err := client.Read(buf)
	require.NoError(t, err)

	ev, err := protocol.DecodeEvent(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, message.PlayerAdded{ID: "p1", DisplayName: "one"}, ev)
}
