package server

import (
	"context"
	"net/netip"
	"time"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/message"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/internal/core/protocol"
	"github.com/zeusync/frontline/internal/core/queue"
	"github.com/zeusync/frontline/internal/core/world"
)

// Sender delivers one encoded event to one client.
type Sender interface {
	Send(payload []byte, addr netip.AddrPort) error
}

// Game drives the fixed rate simulation. It is the only owner of the world:
// nothing else may touch it while Run is active.
type Game struct {
	world  *world.World
	queue  *queue.Ordered
	out    Sender
	logger log.Log

	interval    time.Duration
	digestEvery uint64
	ticks       uint64
}

func NewGame(w *world.World, q *queue.Ordered, out Sender, cfg config.ServerConfig, logger log.Log) *Game {
	return &Game{
		world:       w,
		queue:       q,
		out:         out,
		logger:      logger.With(log.String("component", "game")),
		interval:    cfg.TickInterval,
		digestEvery: cfg.DigestEvery,
	}
}

// World exposes the simulation state. Only safe while Run is not active.
func (g *Game) World() *world.World {
	return g.world
}

// Ticks is the number of completed ticks.
func (g *Game) Ticks() uint64 {
	return g.ticks
}

// Run ticks every interval until ctx ends. Each tick receives the wall clock
// time since the previous one, not the nominal interval.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.logger.Info("Tick loop started", log.Duration("interval", g.interval))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			g.logger.Info("Tick loop stopped", log.Uint64("ticks", g.ticks))
			return nil
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			g.Tick(delta)
		}
	}
}

// Tick applies every queued command, advances bullets, steps physics and
// broadcasts the resulting events. It returns the events in the order they
// were sent, including removals caused by failed sends.
func (g *Game) Tick(delta time.Duration) []message.Event {
	commands := g.queue.Drain()

	events := make([]message.Event, 0, len(commands)+1)
	for _, qc := range commands {
		if ev := g.world.Apply(qc.Payload, qc.Source); ev != nil {
			events = append(events, ev)
		}
	}
	if ev := g.world.AdvanceBullets(delta); ev != nil {
		events = append(events, ev)
	}
	g.world.Step()

	events = g.broadcast(events)

	g.ticks++
	if len(commands) > 0 || len(events) > 0 {
		g.logger.Debug("Tick",
			log.Uint64("tick", g.ticks),
			log.Duration("delta", delta),
			log.Int("commands", len(commands)),
			log.Int("events", len(events)),
		)
	}
	if g.digestEvery > 0 && g.ticks%g.digestEvery == 0 {
		g.logger.Debug("World digest",
			log.Uint64("tick", g.ticks),
			log.Uint64("digest", g.world.Digest()),
			log.Int("players", g.world.PlayerCount()),
			log.Int("bullets", g.world.BulletCount()),
		)
	}
	return events
}

// broadcast sends every event to every player. A player whose send fails is
// removed on the spot and its removal is queued behind the current events.
func (g *Game) broadcast(events []message.Event) []message.Event {
	for i := 0; i < len(events); i++ {
		payload, err := protocol.EncodeEvent(events[i])
		if err != nil {
			g.logger.Error("Failed to encode event", log.String("kind", events[i].Kind()), log.Error(err))
			continue
		}

		for _, addr := range g.world.Addresses() {
			if err := g.out.Send(payload, addr); err != nil {
				g.logger.Warn("Send failed, removing player",
					log.Stringer("addr", addr),
					log.String("kind", events[i].Kind()),
					log.Error(err),
				)
				if ev := g.world.Leave(addr); ev != nil {
					events = append(events, ev)
				}
			}
		}
	}
	return events
}
