package transport

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/observability/log"
)

func TestUDPRoundTrip(t *testing.T) {
	server, err := ListenUDP("127.0.0.1:0", 1500, log.NewNop())
	require.NoError(t, err)
	defer server.Close()

	client, err := net.DialUDP("udp", nil, server.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("hello"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	payload, from, err := server.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), payload)
	assert.Equal(t, client.LocalAddr().(*net.UDPAddr).AddrPort(), from)

	require.NoError(t, server.Send([]byte("welcome"), from))
	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 64)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "welcome", string(buf[:n]))
}

func TestUDPReceiveHonoursContext(t *testing.T) {
	server, err := ListenUDP("127.0.0.1:0", 1500, log.NewNop())
	require.NoError(t, err)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err = server.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUDPReceiveAfterClose(t *testing.T) {
	server, err := ListenUDP("127.0.0.1:0", 1500, log.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, err := server.Receive(context.Background())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, server.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not return after Close")
	}
	assert.ErrorIs(t, server.Send([]byte("x"), netip.MustParseAddrPort("127.0.0.1:1")), ErrClosed)
	assert.NoError(t, server.Close(), "second close is a no-op")
}

func quicConfig() config.TransportConfig {
	cfg := config.Default().Transport
	cfg.Kind = "quic"
	cfg.ListenAddr = "127.0.0.1:0"
	return cfg
}

func TestQUICDatagramRoundTrip(t *testing.T) {
	cfg := quicConfig()
	server, err := ListenQUIC(cfg, log.NewNop())
	require.NoError(t, err)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := DialQUIC(ctx, server.LocalAddr().String(), cfg.ALPN)
	require.NoError(t, err)
	defer client.CloseWithError(0, "")

	require.NoError(t, client.SendDatagram([]byte("join")))

	payload, from, err := server.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("join"), payload)
	assert.Equal(t, client.LocalAddr().(*net.UDPAddr).Port, int(from.Port()))
	assert.Equal(t, 1, server.Peers())

	require.NoError(t, server.Send([]byte("added"), from))
	reply, err := client.ReceiveDatagram(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("added"), reply)
}

func TestQUICSendToUnknownPeer(t *testing.T) {
	server, err := ListenQUIC(quicConfig(), log.NewNop())
	require.NoError(t, err)
	defer server.Close()

	err = server.Send([]byte("x"), netip.MustParseAddrPort("127.0.0.1:9"))
	assert.ErrorIs(t, err, ErrUnknownPeer)
}

func TestQUICReceiveAfterClose(t *testing.T) {
	server, err := ListenQUIC(quicConfig(), log.NewNop())
	require.NoError(t, err)
	require.NoError(t, server.Close())

	_, _, err = server.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, server.Send([]byte("x"), netip.MustParseAddrPort("127.0.0.1:9")), ErrClosed)
}

func TestListenSelectsKind(t *testing.T) {
	cfg := config.Default().Transport
	cfg.ListenAddr = "127.0.0.1:0"

	tr, err := Listen(cfg, log.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &UDP{}, tr)
	require.NoError(t, tr.Close())

	cfg.Kind = "carrier-pigeon"
	_, err = Listen(cfg, log.NewNop())
	assert.Error(t, err)
}
