package world

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"net/netip"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/entity"
	"github.com/zeusync/frontline/internal/core/message"
	"github.com/zeusync/frontline/internal/core/movement"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/internal/core/physics"
)

// World is the canonical game state. It is owned by a single goroutine and
// must not be shared.
type World struct {
	adapter movement.Adapter
	players map[netip.AddrPort]*entity.Player
	// bullets keeps creation order so updates are reported deterministically.
	bullets []entity.Projectile

	cfg    config.WorldConfig
	bullet config.BulletConfig
	rng    *rand.Rand
	logger log.Log
}

func New(adapter movement.Adapter, cfg config.WorldConfig, bullet config.BulletConfig, logger log.Log) *World {
	seed := uint64(cfg.Seed)
	if cfg.Seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &World{
		adapter: adapter,
		players: make(map[netip.AddrPort]*entity.Player),
		cfg:     cfg,
		bullet:  bullet,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:  logger.With(log.String("component", "world")),
	}
}

// Apply dispatches cmd from source to its handler. A nil event means nothing
// observable changed.
func (w *World) Apply(cmd message.Command, source netip.AddrPort) message.Event {
	switch c := cmd.(type) {
	case message.Join:
		return w.Join(source, c.ID, c.DisplayName)
	case message.Leave:
		return w.Leave(source)
	case message.Move:
		return w.Move(source, mgl32.Vec3{c.DX, c.DY, c.DZ})
	case message.UpdateCameraRotation:
		return w.UpdateCameraRotation(source, mgl32.Quat{W: c.W, V: mgl32.Vec3{c.X, c.Y, c.Z}})
	case message.Shoot:
		return w.Shoot(source)
	default:
		return nil
	}
}

// Join spawns a player for source. A second join from the same address is ignored.
func (w *World) Join(source netip.AddrPort, id, displayName string) message.Event {
	if _, ok := w.players[source]; ok {
		return nil
	}

	spawn := w.spawnPoint()
	body, collider := w.adapter.SpawnKinematicEntity(spawn)
	w.players[source] = &entity.Player{
		ID:          id,
		DisplayName: displayName,
		Address:     source,
		Health:      w.cfg.PlayerHealth,
		Body:        body,
		Collider:    collider,
	}

	w.logger.Debug("Player joined",
		log.String("id", id),
		log.Stringer("addr", source),
		log.Stringer("body", body),
	)
	return message.PlayerAdded{ID: id, DisplayName: displayName}
}

// Leave removes the player bound to source and releases its body.
func (w *World) Leave(source netip.AddrPort) message.Event {
	player, ok := w.players[source]
	if !ok {
		return nil
	}
	delete(w.players, source)
	w.adapter.RemoveEntity(player.Body)

	w.logger.Debug("Player left", log.String("id", player.ID), log.Stringer("addr", source))
	return message.PlayerRemoved{ID: player.ID}
}

// Move resolves the requested displacement against everything but the
// player's own body and reports where the player ended up.
func (w *World) Move(source netip.AddrPort, desired mgl32.Vec3) message.Event {
	player, ok := w.players[source]
	if !ok {
		return nil
	}

	m := w.adapter.ResolveDisplacement(player.Body, nil, desired)
	pos := w.adapter.Commit(player.Body, m.Translation)
	return message.PlayerPositionChanged{ID: player.ID, X: pos[0], Y: pos[1], Z: pos[2]}
}

// UpdateCameraRotation sets the player's facing. Facing is not broadcast.
func (w *World) UpdateCameraRotation(source netip.AddrPort, rotation mgl32.Quat) message.Event {
	player, ok := w.players[source]
	if !ok {
		return nil
	}
	w.adapter.SetOrientation(player.Body, rotation)
	return nil
}

// Shoot fires a bullet from the player's position along its facing.
func (w *World) Shoot(source netip.AddrPort) message.Event {
	player, ok := w.players[source]
	if !ok {
		return nil
	}

	origin := entity.PositionFromVec(w.adapter.Position(player.Body))
	direction := w.adapter.Forward(player.Body)
	b := entity.NewBasicBullet(w.adapter, origin, direction, player.Collider, entity.BulletSpec{
		Speed:  w.bullet.Speed,
		Damage: w.bullet.Damage,
	})
	w.bullets = append(w.bullets, b)

	w.logger.Debug("Bullet fired",
		log.String("player", player.ID),
		log.Stringer("bullet", b.ID()),
	)
	return message.BulletCreated{ID: b.ID().String(), X: origin.X, Y: origin.Y, Z: origin.Z}
}

// AdvanceBullets moves every bullet by its velocity over delta. Bullets that
// hit a live player, hit the level (when configured), or expire are released
// and dropped. Returns nil when there are no bullets.
func (w *World) AdvanceBullets(delta time.Duration) message.Event {
	if len(w.bullets) == 0 {
		return nil
	}

	targets := make(map[physics.ColliderHandle]*entity.Player, len(w.players))
	for _, p := range w.players {
		targets[p.Collider] = p
	}
	ignore := w.bulletColliders()

	records := make([]message.BulletPositionUpdated, 0, len(w.bullets))
	alive := make([]entity.Projectile, 0, len(w.bullets))
	for _, b := range w.bullets {
		m := b.Advance(w.adapter, delta, ignore)
		destroy := w.resolveHits(b, m, targets) || b.Expired(w.bullet.MaxLifetime, w.bullet.MaxRange)

		pos := b.Position()
		records = append(records, message.BulletPositionUpdated{
			ID:      b.ID().String(),
			X:       pos.X,
			Y:       pos.Y,
			Z:       pos.Z,
			Destroy: destroy,
		})

		if destroy {
			w.adapter.RemoveEntity(b.BodyHandle())
			continue
		}
		alive = append(alive, b)
	}
	w.bullets = alive

	return message.AllBulletsUpdated{Records: records}
}

// resolveHits applies damage for every live player the movement touched and
// reports whether the bullet is spent.
func (w *World) resolveHits(b entity.Projectile, m movement.Movement, targets map[physics.ColliderHandle]*entity.Player) bool {
	spent := false
	hit := make(map[physics.ColliderHandle]struct{}, 1)
	for _, c := range m.Collisions {
		if player, ok := targets[c.Collider]; ok {
			spent = true
			if _, seen := hit[c.Collider]; seen {
				continue
			}
			hit[c.Collider] = struct{}{}
			alive := player.ApplyDamage(b.Damage())
			w.logger.Debug("Bullet hit player",
				log.Stringer("bullet", b.ID()),
				log.String("player", player.ID),
				log.Int("health", player.Health),
				log.Bool("alive", alive),
			)
			continue
		}
		if w.bullet.DestroyOnStatic && w.adapter.IsStatic(c.Collider) {
			spent = true
		}
	}
	return spent
}

// Step advances the physics engine by one tick.
func (w *World) Step() {
	w.adapter.Step()
}

// Addresses returns the address of every player, sorted.
func (w *World) Addresses() []netip.AddrPort {
	addrs := make([]netip.AddrPort, 0, len(w.players))
	for addr := range w.players {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, netip.AddrPort.Compare)
	return addrs
}

// Player returns a copy of the player bound to addr.
func (w *World) Player(addr netip.AddrPort) (entity.Player, bool) {
	p, ok := w.players[addr]
	if !ok {
		return entity.Player{}, false
	}
	return *p, true
}

func (w *World) PlayerCount() int { return len(w.players) }

func (w *World) Bullet(id uuid.UUID) (entity.Projectile, bool) {
	for _, b := range w.bullets {
		if b.MatchesID(id) {
			return b, true
		}
	}
	return nil, false
}

func (w *World) BulletCount() int { return len(w.bullets) }

// PlayerPosition is the last committed position of the player bound to addr.
func (w *World) PlayerPosition(addr netip.AddrPort) (entity.Position, bool) {
	p, ok := w.players[addr]
	if !ok {
		return entity.Position{}, false
	}
	return entity.PositionFromVec(w.adapter.Position(p.Body)), true
}

// Digest hashes players and bullets into a value that two servers fed the
// same commands agree on.
func (w *World) Digest() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 64)

	for _, addr := range w.Addresses() {
		p := w.players[addr]
		buf = buf[:0]
		buf = append(buf, addr.String()...)
		buf = append(buf, 0)
		buf = append(buf, p.ID...)
		buf = append(buf, 0)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(p.Health))
		buf = appendVec(buf, w.adapter.Position(p.Body))
		_, _ = d.Write(buf)
	}

	for _, b := range w.bullets {
		id := b.ID()
		buf = append(buf[:0], id[:]...)
		buf = appendVec(buf, b.Position().Vec())
		_, _ = d.Write(buf)
	}

	return d.Sum64()
}

func appendVec(buf []byte, v mgl32.Vec3) []byte {
	for _, c := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
	}
	return buf
}

func (w *World) spawnPoint() mgl32.Vec3 {
	lerp := func(lo, hi float32) float32 {
		return lo + w.rng.Float32()*(hi-lo)
	}
	return mgl32.Vec3{
		lerp(w.cfg.SpawnMin[0], w.cfg.SpawnMax[0]),
		w.cfg.SpawnHeight,
		lerp(w.cfg.SpawnMin[1], w.cfg.SpawnMax[1]),
	}
}

// bulletColliders lists every live bullet collider. Bullets are not
// obstacles for each other.
func (w *World) bulletColliders() []physics.ColliderHandle {
	if len(w.bullets) == 0 {
		return nil
	}
	out := make([]physics.ColliderHandle, len(w.bullets))
	for i, b := range w.bullets {
		out[i] = b.ColliderHandle()
	}
	return out
}
