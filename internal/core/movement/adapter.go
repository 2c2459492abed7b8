package movement

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/frontline/internal/core/asset"
	"github.com/zeusync/frontline/internal/core/physics"
)

// Adapter is the seam between game logic and the physics engine. World code
// only talks to this interface, so the engine can be swapped without touching it.
//
// Every method that takes a handle panics with *InvariantError when the
// handle no longer resolves: a stale handle means entity and physics state
// have diverged.
type Adapter interface {
	// SpawnKinematicEntity inserts a capsule shaped kinematic body at position.
	SpawnKinematicEntity(position mgl32.Vec3) (physics.BodyHandle, physics.ColliderHandle)
	// RemoveEntity removes the body and all its colliders.
	RemoveEntity(body physics.BodyHandle)
	// ResolveDisplacement returns how far body may actually move along desired,
	// ignoring its own colliders and those in exclude.
	ResolveDisplacement(body physics.BodyHandle, exclude []physics.ColliderHandle, desired mgl32.Vec3) Movement
	// Commit moves the body by translation and returns its new position.
	Commit(body physics.BodyHandle, translation mgl32.Vec3) mgl32.Vec3
	// Position is the last committed position of body.
	Position(body physics.BodyHandle) mgl32.Vec3
	// Forward is the unit facing of body.
	Forward(body physics.BodyHandle) mgl32.Vec3
	// SetOrientation sets the facing of body. The quaternion is normalised.
	SetOrientation(body physics.BodyHandle, rotation mgl32.Quat)
	// Step advances the engine by one tick.
	Step()
	// LoadStaticGeometry registers immovable level geometry.
	LoadStaticGeometry(meshes []asset.TriMesh) error
	// IsStatic reports whether collider belongs to level geometry.
	IsStatic(collider physics.ColliderHandle) bool
	// BodyCount is the number of live bodies, static geometry included.
	BodyCount() int
}

// Movement is the outcome of a displacement query.
type Movement struct {
	Translation mgl32.Vec3
	Collisions  []physics.CharacterCollision
}

// Touches reports whether any collision of the movement hit collider.
func (m Movement) Touches(collider physics.ColliderHandle) bool {
	for _, c := range m.Collisions {
		if c.Collider == collider {
			return true
		}
	}
	return false
}

// ForwardAxis is -Z: the facing of an unrotated body.
var ForwardAxis = mgl32.Vec3{0, 0, -1}
