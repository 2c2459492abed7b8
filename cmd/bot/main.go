package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/frontline/internal/core/message"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/sdk/go/client"
)

// bot joins a server, walks in a circle while turning and shoots at a fixed rate.
func main() {
	cfg := client.DefaultClientConfig()
	flag.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "server address")
	flag.StringVar(&cfg.Transport, "transport", cfg.Transport, "udp or quic")
	name := flag.String("name", "bot", "display name")
	step := flag.Duration("step", 100*time.Millisecond, "interval between moves")
	fireEvery := flag.Int("fire-every", 10, "shoot once every N moves, 0 disables")
	flag.Parse()

	logger := log.New(log.LevelInfo)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := client.NewClient(cfg, logger)
	if err := c.Connect(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error connecting:", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	id := uuid.NewString()
	c.On(message.PlayerAdded{}.Kind(), func(ev message.Event) {
		added := ev.(message.PlayerAdded)
		logger.Info("Player joined", log.String("id", added.ID), log.String("name", added.DisplayName))
	})
	c.On(message.PlayerRemoved{}.Kind(), func(ev message.Event) {
		logger.Info("Player left", log.String("id", ev.(message.PlayerRemoved).ID))
	})
	go func() {
		// drain so the buffer never fills
		for range c.Events() {
		}
	}()

	if err := c.Join(id, *name); err != nil {
		logger.Error("Join failed", log.Error(err))
		return
	}
	logger.Info("Bot started", log.String("id", id), log.String("addr", cfg.ServerAddr))

	ticker := time.NewTicker(*step)
	defer ticker.Stop()

	var n int
	for {
		select {
		case <-ctx.Done():
			_ = c.Leave(id)
			logger.Info("Bot stopped", log.Int("moves", n))
			return
		case <-ticker.C:
			n++
			angle := float32(n) * math.Pi / 32
			heading := mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
			if err := c.Look(heading); err != nil {
				logger.Warn("Look failed", log.Error(err))
			}
			if err := c.Move(heading.Rotate(mgl32.Vec3{0, 0, -0.1})); err != nil {
				logger.Warn("Move failed", log.Error(err))
			}
			if *fireEvery > 0 && n%*fireEvery == 0 {
				if err := c.Shoot(); err != nil {
					logger.Warn("Shoot failed", log.Error(err))
				}
			}
		}
	}
}
