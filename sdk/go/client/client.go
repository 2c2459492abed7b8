// Package client is a Go SDK for talking to a frontline game server.
package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/frontline/internal/core/message"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/internal/core/protocol"
)

// Client is one player's connection to the server.
type Client struct {
	link link

	// Event handlers, keyed by event kind
	handlers     map[string][]EventHandler
	handlerMutex sync.RWMutex
	events       chan message.Event

	// Lifecycle
	connected int32 // atomic bool
	closed    int32 // atomic bool
	cancel    context.CancelFunc

	config Config
	logger log.Log

	// Background workers
	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	ServerAddr string
	// Transport is "udp" or "quic" and must match the server.
	Transport      string
	ALPN           string
	ConnectTimeout time.Duration
	// MaxDatagramSize bounds a single received event.
	MaxDatagramSize int
	// EventBuffer is the capacity of the Events channel. Events that do not
	// fit are dropped.
	EventBuffer int
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerAddr:      "localhost:8080",
		Transport:       "udp",
		ALPN:            "frontline",
		ConnectTimeout:  10 * time.Second,
		MaxDatagramSize: 1500,
		EventBuffer:     256,
	}
}

// EventHandler is called from the read loop for every decoded event.
type EventHandler func(event message.Event)

func NewClient(config Config, logger log.Log) *Client {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 256
	}
	if config.MaxDatagramSize <= 0 {
		config.MaxDatagramSize = 1500
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	return &Client{
		handlers: make(map[string][]EventHandler),
		events:   make(chan message.Event, config.EventBuffer),
		config:   config,
		logger:   logger.With(log.String("component", "client"), log.String("server", config.ServerAddr)),
	}
}

// Connect dials the server and starts reading events.
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}

	if !atomic.CompareAndSwapInt32(&c.connected, 0, 1) {
		return ErrAlreadyConnected
	}

	connectCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	l, err := dial(connectCtx, c.config)
	if err != nil {
		atomic.StoreInt32(&c.connected, 0)
		c.logger.Error("Failed to connect to server", log.Error(err))
		return err
	}
	c.link = l

	c.logger.Info("Connected to server",
		log.String("transport", c.config.Transport),
		log.Stringer("local_addr", l.localAddr()))

	readCtx, stop := context.WithCancel(context.Background())
	c.cancel = stop
	c.workerGroup.Add(1)
	go c.readLoop(readCtx)

	return nil
}

// Close stops the read loop and closes the connection. Events is closed too.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil // Already closed
	}

	var err error
	if atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		c.cancel()
		err = c.link.close()
		c.workerGroup.Wait()
	}
	close(c.events)

	c.logger.Info("Client closed")

	return err
}

// LocalAddr is the address the server sees for this client, empty before Connect.
func (c *Client) LocalAddr() string {
	if c.link == nil {
		return ""
	}
	return c.link.localAddr().String()
}

// On registers handler for events of the given kind, e.g. message.PlayerAdded{}.Kind().
func (c *Client) On(kind string, handler EventHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.handlers[kind] = append(c.handlers[kind], handler)
}

// Events delivers every decoded event in arrival order.
func (c *Client) Events() <-chan message.Event {
	return c.events
}

// Send encodes cmd and sends it as one datagram.
func (c *Client) Send(cmd message.Command) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 0 {
		return ErrNotConnected
	}

	payload, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return c.link.send(payload)
}

func (c *Client) Join(id, displayName string) error {
	return c.Send(message.Join{ID: id, DisplayName: displayName})
}

func (c *Client) Leave(id string) error {
	return c.Send(message.Leave{ID: id})
}

func (c *Client) Move(delta mgl32.Vec3) error {
	return c.Send(message.Move{DX: delta[0], DY: delta[1], DZ: delta[2]})
}

// Look sets the facing that the next shots will follow.
func (c *Client) Look(rotation mgl32.Quat) error {
	return c.Send(message.UpdateCameraRotation{X: rotation.V[0], Y: rotation.V[1], Z: rotation.V[2], W: rotation.W})
}

func (c *Client) Shoot() error {
	return c.Send(message.Shoot{})
}

func (c *Client) readLoop(ctx context.Context) {
	defer c.workerGroup.Done()

	for {
		payload, err := c.link.receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Debug("Read loop stopped", log.Error(err))
			}
			return
		}

		ev, err := protocol.DecodeEvent(payload)
		if err != nil {
			c.logger.Warn("Dropping undecodable event", log.Int("size", len(payload)), log.Error(err))
			continue
		}

		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev message.Event) {
	c.handlerMutex.RLock()
	handlers := c.handlers[ev.Kind()]
	c.handlerMutex.RUnlock()

	for _, handler := range handlers {
		handler(ev)
	}

	select {
	case c.events <- ev:
	default:
		c.logger.Warn("Event buffer full, dropping event", log.String("kind", ev.Kind()))
	}
}
