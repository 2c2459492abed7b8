package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/zeusync/frontline/internal/core/transport"
)

// link is one datagram path to the server.
type link interface {
	send(payload []byte) error
	receive(ctx context.Context) ([]byte, error)
	localAddr() net.Addr
	close() error
}

func dial(ctx context.Context, cfg Config) (link, error) {
	switch cfg.Transport {
	case "udp":
		return dialUDP(cfg.ServerAddr, cfg.MaxDatagramSize)
	case "quic":
		conn, err := transport.DialQUIC(ctx, cfg.ServerAddr, cfg.ALPN)
		if err != nil {
			return nil, err
		}
		return &quicLink{conn: conn}, nil
	default:
		return nil, fmt.Errorf("%w: transport %q", ErrInvalidConfig, cfg.Transport)
	}
}

type udpLink struct {
	conn *net.UDPConn
	buf  []byte
}

func dialUDP(address string, size int) (*udpLink, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", address, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", address, err)
	}
	return &udpLink{conn: conn, buf: make([]byte, size)}, nil
}

func (l *udpLink) send(payload []byte) error {
	_, err := l.conn.Write(payload)
	return err
}

// receive is called from a single goroutine, so buf is reused.
func (l *udpLink) receive(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	n, err := l.conn.Read(l.buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrClientClosed
		}
		return nil, err
	}
	return bytes.Clone(l.buf[:n]), nil
}

func (l *udpLink) localAddr() net.Addr { return l.conn.LocalAddr() }

func (l *udpLink) close() error { return l.conn.Close() }

type quicLink struct {
	conn *quic.Conn
}

func (l *quicLink) send(payload []byte) error {
	return l.conn.SendDatagram(payload)
}

func (l *quicLink) receive(ctx context.Context) ([]byte, error) {
	payload, err := l.conn.ReceiveDatagram(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return payload, nil
}

func (l *quicLink) localAddr() net.Addr { return l.conn.LocalAddr() }

func (l *quicLink) close() error { return l.conn.CloseWithError(0, "client closed") }
