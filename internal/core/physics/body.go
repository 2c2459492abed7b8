package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// BodyHandle identifies a rigid body. The zero value never resolves.
type BodyHandle struct {
	Index      uint32
	Generation uint32
}

func (h BodyHandle) String() string {
	return fmt.Sprintf("body(%d:%d)", h.Index, h.Generation)
}

// ColliderHandle identifies a collider. The zero value never resolves.
type ColliderHandle struct {
	Index      uint32
	Generation uint32
}

func (h ColliderHandle) String() string {
	return fmt.Sprintf("collider(%d:%d)", h.Index, h.Generation)
}

type BodyType uint8

const (
	// BodyKinematicPositionBased bodies move only where game logic puts them.
	BodyKinematicPositionBased BodyType = iota
	// BodyFixed bodies never move.
	BodyFixed
)

func (t BodyType) String() string {
	switch t {
	case BodyKinematicPositionBased:
		return "kinematic"
	case BodyFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// RigidBody carries the pose of one entity. Kinematic bodies have a current
// pose and a pending next pose that Step promotes.
type RigidBody struct {
	kind            BodyType
	translation     mgl32.Vec3
	rotation        mgl32.Quat
	nextTranslation mgl32.Vec3
	nextRotation    mgl32.Quat
	colliders       []ColliderHandle
}

func NewKinematicBody(translation mgl32.Vec3) RigidBody {
	return RigidBody{
		kind:            BodyKinematicPositionBased,
		translation:     translation,
		rotation:        mgl32.QuatIdent(),
		nextTranslation: translation,
		nextRotation:    mgl32.QuatIdent(),
	}
}

func NewFixedBody(translation mgl32.Vec3) RigidBody {
	body := NewKinematicBody(translation)
	body.kind = BodyFixed
	return body
}

func (b *RigidBody) Type() BodyType { return b.kind }

func (b *RigidBody) IsKinematic() bool { return b.kind == BodyKinematicPositionBased }

// Translation is the pose as of the last Step.
func (b *RigidBody) Translation() mgl32.Vec3 { return b.translation }

func (b *RigidBody) Rotation() mgl32.Quat { return b.rotation }

// NextTranslation is the most recently committed kinematic target.
func (b *RigidBody) NextTranslation() mgl32.Vec3 { return b.nextTranslation }

func (b *RigidBody) NextRotation() mgl32.Quat { return b.nextRotation }

func (b *RigidBody) Colliders() []ColliderHandle { return b.colliders }

// Collider attaches a shape to a parent body.
type Collider struct {
	shape  Shape
	parent BodyHandle
	aabb   AABB
}

func (c *Collider) Shape() Shape { return c.shape }

func (c *Collider) Parent() BodyHandle { return c.parent }

func (c *Collider) AABB() AABB { return c.aabb }

// IsStatic reports whether the collider is level geometry.
func (c *Collider) IsStatic() bool {
	_, ok := c.shape.(*TriMesh)
	return ok
}
