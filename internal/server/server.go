package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/internal/core/protocol"
	"github.com/zeusync/frontline/internal/core/queue"
	"github.com/zeusync/frontline/internal/core/transport"
)

// Server feeds datagrams from the transport into the command queue and runs
// the game tick loop next to them.
type Server struct {
	transport transport.Transport
	queue     *queue.Ordered
	game      *Game
	workers   int

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	cancel context.CancelFunc
	done   chan error

	logger log.Log
}

// NewServer wires a server. q must be the queue game drains.
func NewServer(tr transport.Transport, q *queue.Ordered, game *Game, cfg config.ServerConfig, logger log.Log) *Server {
	s := &Server{
		transport: tr,
		queue:     q,
		game:      game,
		workers:   max(cfg.IngressWorkers, 1),
		logger:    logger.With(log.String("component", "server")),
	}

	s.logger.Info("Server created",
		log.Stringer("addr", tr.LocalAddr()),
		log.Int("ingress_workers", s.workers))

	return s
}

// Addr is the address the transport listens on.
func (s *Server) Addr() net.Addr {
	return s.transport.LocalAddr()
}

// Start launches the ingress workers and the tick loop and returns. Wait
// reports how they ended.
func (s *Server) Start(ctx context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan error, 1)

	group, groupCtx := errgroup.WithContext(ctx)
	for worker := range s.workers {
		group.Go(func() error {
			return s.ingress(groupCtx, worker)
		})
	}
	group.Go(func() error {
		return s.game.Run(groupCtx)
	})

	go func() {
		s.done <- group.Wait()
	}()

	s.logger.Info("Server started successfully")

	return nil
}

// Wait blocks until the server goroutines exit.
func (s *Server) Wait() error {
	if s.done == nil {
		return ErrServerNotRunning
	}
	err := <-s.done
	s.done <- err
	return err
}

// Stop cancels the tick loop, closes the transport and waits for every
// goroutine to return.
func (s *Server) Stop(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	s.cancel()
	_ = s.transport.Close()
	err := s.Wait()

	s.logger.Info("Server stopped", log.Uint64("ticks", s.game.Ticks()))

	return err
}

// Close stops the server if needed. A closed server cannot be restarted.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // Already closed
	}

	if atomic.LoadInt32(&s.running) == 1 {
		_ = s.Stop(context.Background())
	}

	s.logger.Info("Server closed")

	return nil
}

// ingress receives datagrams until ctx ends or the transport closes. Anything
// that does not decode to a command is dropped.
func (s *Server) ingress(ctx context.Context, worker int) error {
	logger := s.logger.With(log.Int("worker", worker))
	for {
		payload, from, err := s.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, transport.ErrClosed) {
				return nil
			}
			logger.Warn("Receive failed", log.Error(err))
			continue
		}

		cmd, err := protocol.DecodeCommand(payload)
		if err != nil {
			logger.Debug("Dropping datagram",
				log.Stringer("from", from),
				log.Int("size", len(payload)),
				log.Error(err))
			continue
		}

		queued := s.queue.Enqueue(cmd, from)
		logger.Debug("Command queued",
			log.String("kind", cmd.Kind()),
			log.Stringer("from", from),
			log.Uint64("order", queued.Order))
	}
}
