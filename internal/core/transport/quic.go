package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/observability/log"
)

type datagram struct {
	payload []byte
	from    netip.AddrPort
}

// QUIC is a Transport over QUIC unreliable datagrams. Each client holds one
// connection; its remote address is the peer key, exactly as with plain UDP.
type QUIC struct {
	listener *quic.Listener
	inbound  chan datagram

	mu    sync.RWMutex
	peers map[netip.AddrPort]*quic.Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
	logger log.Log
}

var _ Transport = (*QUIC)(nil)

func ListenQUIC(cfg config.TransportConfig, logger log.Log) (*QUIC, error) {
	tlsConfig, err := generateTLSConfig(cfg.ALPN)
	if err != nil {
		return nil, fmt.Errorf("failed to generate TLS config: %w", err)
	}

	listener, err := quic.ListenAddr(cfg.ListenAddr, tlsConfig, buildQUICConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &QUIC{
		listener: listener,
		inbound:  make(chan datagram, 256),
		peers:    make(map[netip.AddrPort]*quic.Conn),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With(log.String("transport", "quic"), log.Stringer("addr", listener.Addr())),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	t.logger.Info("QUIC transport listening", log.String("alpn", cfg.ALPN))
	return t, nil
}

func buildQUICConfig(cfg config.TransportConfig) *quic.Config {
	return &quic.Config{
		EnableDatagrams: true,
		MaxIdleTimeout:  cfg.IdleTimeout,
		KeepAlivePeriod: cfg.KeepAlive,
	}
}

func (t *QUIC) acceptLoop() {
	defer t.wg.Done()
	for {
		conn, err := t.listener.Accept(t.ctx)
		if err != nil {
			if t.ctx.Err() == nil {
				t.logger.Error("Failed to accept QUIC connection", log.Error(err))
			}
			return
		}

		addr, ok := remoteAddrPort(conn.RemoteAddr())
		if !ok {
			_ = conn.CloseWithError(0, "unsupported address")
			continue
		}

		t.mu.Lock()
		if old, exists := t.peers[addr]; exists {
			_ = old.CloseWithError(0, "replaced")
		}
		t.peers[addr] = conn
		t.mu.Unlock()

		t.logger.Debug("QUIC connection accepted", log.Stringer("remote_addr", addr))

		t.wg.Add(1)
		go t.readLoop(conn, addr)
	}
}

func (t *QUIC) readLoop(conn *quic.Conn, addr netip.AddrPort) {
	defer t.wg.Done()
	defer func() {
		t.mu.Lock()
		if t.peers[addr] == conn {
			delete(t.peers, addr)
		}
		t.mu.Unlock()
	}()

	for {
		payload, err := conn.ReceiveDatagram(t.ctx)
		if err != nil {
			t.logger.Debug("QUIC connection finished",
				log.Stringer("remote_addr", addr),
				log.Error(err),
			)
			return
		}
		select {
		case t.inbound <- datagram{payload: payload, from: addr}:
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *QUIC) Receive(ctx context.Context) ([]byte, netip.AddrPort, error) {
	select {
	case d := <-t.inbound:
		return d.payload, d.from, nil
	case <-ctx.Done():
		return nil, netip.AddrPort{}, ctx.Err()
	case <-t.ctx.Done():
		return nil, netip.AddrPort{}, ErrClosed
	}
}

// Send fails with ErrUnknownPeer when addr has no live connection.
func (t *QUIC) Send(payload []byte, addr netip.AddrPort) error {
	if t.closed.Load() {
		return ErrClosed
	}
	t.mu.RLock()
	conn, ok := t.peers[addr]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, addr)
	}
	if err := conn.SendDatagram(payload); err != nil {
		return fmt.Errorf("quic send to %s: %w", addr, err)
	}
	return nil
}

// Peers is the number of live connections.
func (t *QUIC) Peers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

func (t *QUIC) LocalAddr() net.Addr {
	return t.listener.Addr()
}

func (t *QUIC) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.logger.Info("Closing QUIC transport")
	t.cancel()

	t.mu.Lock()
	for addr, conn := range t.peers {
		_ = conn.CloseWithError(0, "server shutting down")
		delete(t.peers, addr)
	}
	t.mu.Unlock()

	err := t.listener.Close()
	t.wg.Wait()
	return err
}

// DialQUIC connects a client with datagrams enabled. The server certificate
// is self-signed, so verification is skipped.
func DialQUIC(ctx context.Context, address, alpn string) (*quic.Conn, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: true, // self-signed server certificate
		NextProtos:         []string{alpn},
		MinVersion:         tls.VersionTLS13,
	}
	conn, err := quic.DialAddr(ctx, address, tlsConfig, &quic.Config{EnableDatagrams: true})
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", address, err)
	}
	return conn, nil
}

func remoteAddrPort(addr net.Addr) (netip.AddrPort, bool) {
	udp, ok := addr.(*net.UDPAddr)
	if !ok {
		return netip.AddrPort{}, false
	}
	return normalize(udp.AddrPort()), true
}

// generateTLSConfig creates an in-memory self-signed certificate.
func generateTLSConfig(alpn string) (*tls.Config, error) {
	if alpn == "" {
		return nil, errors.New("empty ALPN")
	}
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"Frontline"},
		},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}
	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	privBytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		NextProtos:   []string{alpn},
		MinVersion:   tls.VersionTLS13,
	}, nil
}
