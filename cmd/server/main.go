package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	srv, cleanup, err := injector.InitializeServer(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing server:", err)
		os.Exit(1)
	}
	defer cleanup()

	logger := log.Provide()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		logger.Error("Error starting server", log.Error(err))
		return
	}

	<-ctx.Done()
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("Error stopping server", log.Error(err))
	}
}
