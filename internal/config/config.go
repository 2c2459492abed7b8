package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Config holds every tunable of the server process.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	World     WorldConfig     `yaml:"world" toml:"world"`
	Bullet    BulletConfig    `yaml:"bullet" toml:"bullet"`
	Physics   PhysicsConfig   `yaml:"physics" toml:"physics"`
	Level     LevelConfig     `yaml:"level" toml:"level"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

type ServerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval" toml:"tick_interval"`
	// IngressWorkers is the number of goroutines receiving from the transport.
	IngressWorkers int `yaml:"ingress_workers" toml:"ingress_workers"`
	// DigestEvery logs a world digest every N ticks. 0 disables it.
	DigestEvery uint64 `yaml:"digest_every" toml:"digest_every"`
}

type TransportConfig struct {
	// Kind is "udp" or "quic".
	Kind       string `yaml:"kind" toml:"kind"`
	ListenAddr string `yaml:"listen_addr" toml:"listen_addr"`
	ReadBuffer int    `yaml:"read_buffer" toml:"read_buffer"`
	// QUIC only.
	IdleTimeout time.Duration `yaml:"idle_timeout" toml:"idle_timeout"`
	KeepAlive   time.Duration `yaml:"keep_alive" toml:"keep_alive"`
	ALPN        string        `yaml:"alpn" toml:"alpn"`
}

type WorldConfig struct {
	SpawnMin     [2]float32 `yaml:"spawn_min" toml:"spawn_min"`
	SpawnMax     [2]float32 `yaml:"spawn_max" toml:"spawn_max"`
	SpawnHeight  float32    `yaml:"spawn_height" toml:"spawn_height"`
	PlayerHealth int        `yaml:"player_health" toml:"player_health"`
	// Seed for spawn randomisation; 0 seeds from the clock.
	Seed int64 `yaml:"seed" toml:"seed"`
}

type BulletConfig struct {
	Speed           float32       `yaml:"speed" toml:"speed"`
	Damage          int           `yaml:"damage" toml:"damage"`
	DestroyOnStatic bool          `yaml:"destroy_on_static" toml:"destroy_on_static"`
	MaxLifetime     time.Duration `yaml:"max_lifetime" toml:"max_lifetime"`
	MaxRange        float32       `yaml:"max_range" toml:"max_range"`
}

type PhysicsConfig struct {
	CapsuleHalfHeight float32 `yaml:"capsule_half_height" toml:"capsule_half_height"`
	CapsuleRadius     float32 `yaml:"capsule_radius" toml:"capsule_radius"`
	// Degrees.
	MaxSlopeClimbAngle float32 `yaml:"max_slope_climb_angle" toml:"max_slope_climb_angle"`
	MinSlopeSlideAngle float32 `yaml:"min_slope_slide_angle" toml:"min_slope_slide_angle"`
	// Fraction of the capsule height kept between the shape and obstacles.
	RelativeOffset float32 `yaml:"relative_offset" toml:"relative_offset"`
	Slide          bool    `yaml:"slide" toml:"slide"`
	GridCellSize   float32 `yaml:"grid_cell_size" toml:"grid_cell_size"`
}

type LevelConfig struct {
	// Path to a glTF/glb file with the level collision geometry. Empty means no level.
	Path  string      `yaml:"path" toml:"path"`
	Boxes []BoxConfig `yaml:"boxes" toml:"boxes"`
}

type BoxConfig struct {
	Center      [3]float32 `yaml:"center" toml:"center"`
	HalfExtents [3]float32 `yaml:"half_extents" toml:"half_extents"`
}

type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Encoding    string `yaml:"encoding" toml:"encoding"`
	Development bool   `yaml:"development" toml:"development"`
}

// Default returns the configuration the server runs with when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			TickInterval:   16 * time.Millisecond,
			IngressWorkers: 1,
		},
		Transport: TransportConfig{
			Kind:        "udp",
			ListenAddr:  "0.0.0.0:8080",
			ReadBuffer:  1500,
			IdleTimeout: 30 * time.Second,
			KeepAlive:   10 * time.Second,
			ALPN:        "frontline",
		},
		World: WorldConfig{
			SpawnMin:     [2]float32{2, 2},
			SpawnMax:     [2]float32{10, 10},
			SpawnHeight:  5,
			PlayerHealth: 100,
		},
		Bullet: BulletConfig{
			Speed:           2,
			Damage:          20,
			DestroyOnStatic: true,
			MaxLifetime:     5 * time.Second,
			MaxRange:        200,
		},
		Physics: PhysicsConfig{
			CapsuleHalfHeight:  0.5,
			CapsuleRadius:      0.2,
			MaxSlopeClimbAngle: 60,
			MinSlopeSlideAngle: 30,
			RelativeOffset:     0.01,
			Slide:              true,
			GridCellSize:       4,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file on top of Default.
// An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	case ".toml":
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.TickInterval <= 0 {
		errs = append(errs, errors.New("server.tick_interval must be positive"))
	}
	if c.Server.IngressWorkers < 1 {
		errs = append(errs, errors.New("server.ingress_workers must be at least 1"))
	}
	switch c.Transport.Kind {
	case "udp", "quic":
	default:
		errs = append(errs, fmt.Errorf("transport.kind %q is not one of udp, quic", c.Transport.Kind))
	}
	if c.Transport.ReadBuffer <= 0 {
		errs = append(errs, errors.New("transport.read_buffer must be positive"))
	}
	for i := range 2 {
		if c.World.SpawnMax[i] <= c.World.SpawnMin[i] {
			errs = append(errs, errors.New("world.spawn_max must exceed world.spawn_min on both axes"))
			break
		}
	}
	if c.Bullet.Speed < 0 {
		errs = append(errs, errors.New("bullet.speed must not be negative"))
	}
	if c.Physics.CapsuleRadius <= 0 || c.Physics.CapsuleHalfHeight < 0 {
		errs = append(errs, errors.New("physics capsule dimensions must be positive"))
	}
	if c.Physics.MinSlopeSlideAngle > c.Physics.MaxSlopeClimbAngle {
		errs = append(errs, errors.New("physics.min_slope_slide_angle must not exceed physics.max_slope_climb_angle"))
	}
	if c.Physics.GridCellSize <= 0 {
		errs = append(errs, errors.New("physics.grid_cell_size must be positive"))
	}
	for i, box := range c.Level.Boxes {
		for _, h := range box.HalfExtents {
			if h <= 0 {
				errs = append(errs, fmt.Errorf("level.boxes[%d] half extents must be positive", i))
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
