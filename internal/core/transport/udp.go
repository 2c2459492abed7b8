package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/pkg/generic"
)

// UDP is a Transport over a single UDP socket.
type UDP struct {
	conn    *net.UDPConn
	buffers *generic.BufferPool
	closed  atomic.Bool
	logger  log.Log
}

var _ Transport = (*UDP)(nil)

func ListenUDP(address string, bufferSize int, logger log.Log) (*UDP, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	if bufferSize <= 0 {
		bufferSize = 1500
	}

	t := &UDP{
		conn:    conn,
		buffers: generic.NewBufferPool(bufferSize, 0),
		logger:  logger.With(log.String("transport", "udp"), log.Stringer("addr", conn.LocalAddr())),
	}
	t.logger.Info("UDP transport listening")
	return t, nil
}

func (t *UDP) Receive(ctx context.Context) ([]byte, netip.AddrPort, error) {
	if err := ctx.Err(); err != nil {
		return nil, netip.AddrPort{}, err
	}
	// unblock the read when ctx ends
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	scratch := t.buffers.Get()
	defer t.buffers.Put(scratch)

	n, addr, err := t.conn.ReadFromUDPAddrPort(*scratch)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, netip.AddrPort{}, ctxErr
		}
		if t.closed.Load() || errors.Is(err, net.ErrClosed) {
			return nil, netip.AddrPort{}, ErrClosed
		}
		return nil, netip.AddrPort{}, fmt.Errorf("udp read: %w", err)
	}
	return bytes.Clone((*scratch)[:n]), normalize(addr), nil
}

func (t *UDP) Send(payload []byte, addr netip.AddrPort) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if _, err := t.conn.WriteToUDPAddrPort(payload, addr); err != nil {
		return fmt.Errorf("udp send to %s: %w", addr, err)
	}
	return nil
}

func (t *UDP) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *UDP) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.logger.Info("Closing UDP transport")
	return t.conn.Close()
}
