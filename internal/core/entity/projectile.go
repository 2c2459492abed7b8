package entity

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/frontline/internal/core/movement"
	"github.com/zeusync/frontline/internal/core/physics"
)

// Projectile is anything fired into the world that advances every tick.
// New kinds are added as new implementations.
type Projectile interface {
	ID() uuid.UUID
	MatchesID(id uuid.UUID) bool
	// OwnerHandle is the shooter's collider; it is never hit by this projectile.
	OwnerHandle() physics.ColliderHandle
	BodyHandle() physics.BodyHandle
	ColliderHandle() physics.ColliderHandle
	Position() Position
	Damage() int
	// Advance moves the projectile by its velocity over delta and commits
	// the resolved translation. Colliders in ignore are passed through, as is
	// the owner.
	Advance(adapter movement.Adapter, delta time.Duration, ignore []physics.ColliderHandle) movement.Movement
	// Expired reports whether the projectile outlived maxLifetime or flew
	// past maxRange. Zero limits are ignored.
	Expired(maxLifetime time.Duration, maxRange float32) bool
}

// BulletSpec carries the tunables of a basic bullet.
type BulletSpec struct {
	Speed  float32
	Damage int
}

// BasicBullet flies in a straight line at constant speed.
type BasicBullet struct {
	id        uuid.UUID
	position  Position
	velocity  Velocity
	owner     physics.ColliderHandle
	body      physics.BodyHandle
	collider  physics.ColliderHandle
	damage    int
	age       time.Duration
	travelled float32
}

var _ Projectile = (*BasicBullet)(nil)

// NewBasicBullet registers a body at position and returns a bullet heading
// along direction. owner is excluded from every query the bullet makes.
func NewBasicBullet(
	adapter movement.Adapter,
	position Position,
	direction mgl32.Vec3,
	owner physics.ColliderHandle,
	spec BulletSpec,
) *BasicBullet {
	body, collider := adapter.SpawnKinematicEntity(position.Vec())
	return &BasicBullet{
		id:       uuid.New(),
		position: position,
		velocity: NewVelocity(direction, spec.Speed),
		owner:    owner,
		body:     body,
		collider: collider,
		damage:   spec.Damage,
	}
}

func (b *BasicBullet) ID() uuid.UUID { return b.id }

func (b *BasicBullet) MatchesID(id uuid.UUID) bool { return b.id == id }

func (b *BasicBullet) OwnerHandle() physics.ColliderHandle { return b.owner }

func (b *BasicBullet) BodyHandle() physics.BodyHandle { return b.body }

func (b *BasicBullet) ColliderHandle() physics.ColliderHandle { return b.collider }

func (b *BasicBullet) Position() Position { return b.position }

func (b *BasicBullet) Velocity() Velocity { return b.velocity }

func (b *BasicBullet) Damage() int { return b.damage }

func (b *BasicBullet) Age() time.Duration { return b.age }

func (b *BasicBullet) Advance(adapter movement.Adapter, delta time.Duration, ignore []physics.ColliderHandle) movement.Movement {
	exclude := make([]physics.ColliderHandle, 0, len(ignore)+1)
	exclude = append(exclude, b.owner)
	exclude = append(exclude, ignore...)
	m := adapter.ResolveDisplacement(b.body, exclude, b.velocity.Displacement(delta))
	b.position = PositionFromVec(adapter.Commit(b.body, m.Translation))
	b.age += delta
	b.travelled += m.Translation.Len()
	return m
}

func (b *BasicBullet) Expired(maxLifetime time.Duration, maxRange float32) bool {
	if maxLifetime > 0 && b.age >= maxLifetime {
		return true
	}
	return maxRange > 0 && b.travelled >= maxRange
}
