package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/observability/log"
)

var (
	ErrClosed = errors.New("transport is closed")
	// ErrUnknownPeer means there is no live connection to the destination.
	ErrUnknownPeer = errors.New("unknown peer")
)

// Transport moves whole datagrams. Delivery is unreliable and unordered.
// Receive may be called from several goroutines at once.
type Transport interface {
	// Receive blocks for the next datagram and its sender.
	Receive(ctx context.Context) ([]byte, netip.AddrPort, error)
	// Send delivers payload to addr on a best effort basis.
	Send(payload []byte, addr netip.AddrPort) error
	LocalAddr() net.Addr
	Close() error
}

// Listen opens the transport selected by cfg.Kind.
func Listen(cfg config.TransportConfig, logger log.Log) (Transport, error) {
	switch cfg.Kind {
	case "udp":
		return ListenUDP(cfg.ListenAddr, cfg.ReadBuffer, logger)
	case "quic":
		return ListenQUIC(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}

// normalize strips the IPv4-in-IPv6 mapping so one client always has one key.
func normalize(addr netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
}
