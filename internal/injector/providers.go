package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/asset"
	"github.com/zeusync/frontline/internal/core/movement"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/internal/core/queue"
	"github.com/zeusync/frontline/internal/core/transport"
	"github.com/zeusync/frontline/internal/core/world"
	"github.com/zeusync/frontline/internal/server"
)

// ProviderSet builds a ready to start server from a loaded config.
var ProviderSet = wire.NewSet(
	wire.FieldsOf(new(config.Config), "Server", "Transport", "World", "Bullet", "Physics", "Level", "Log"),
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideAdapter,
	world.New,
	queue.New,
	ProvideTransport,
	ProvideSender,
	server.NewGame,
	server.NewServer,
)

// ProvideLogger builds the process logger. Later calls to log.Provide return it.
func ProvideLogger(cfg config.LogConfig) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithOptions(log.Options{
		Level:       level,
		Encoding:    cfg.Encoding,
		Development: cfg.Development,
	})
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideAdapter creates the physics backed movement adapter with the level
// geometry already loaded.
func ProvideAdapter(physics config.PhysicsConfig, level config.LevelConfig, logger log.Log) (movement.Adapter, error) {
	meshes, err := asset.LoadLevel(level)
	if err != nil {
		return nil, err
	}
	adapter := movement.NewPhysicsAdapter(physics, logger)
	if err := adapter.LoadStaticGeometry(meshes); err != nil {
		return nil, err
	}
	return adapter, nil
}

func ProvideTransport(cfg config.TransportConfig, logger log.Log) (transport.Transport, func(), error) {
	tr, err := transport.Listen(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return tr, func() { _ = tr.Close() }, nil
}

func ProvideSender(tr transport.Transport) server.Sender {
	return tr
}
