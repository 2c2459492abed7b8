package entity

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Position is a world-space coordinate.
type Position struct {
	X, Y, Z float32
}

func PositionFromVec(v mgl32.Vec3) Position {
	return Position{X: v[0], Y: v[1], Z: v[2]}
}

func (p Position) Vec() mgl32.Vec3 {
	return mgl32.Vec3{p.X, p.Y, p.Z}
}

// Velocity is a per-second displacement fixed when the entity is created.
type Velocity struct {
	VX, VY, VZ float32
}

// NewVelocity scales the normalised direction by speed. A zero direction
// yields a zero velocity.
func NewVelocity(direction mgl32.Vec3, speed float32) Velocity {
	if direction.Len() == 0 {
		return Velocity{}
	}
	v := direction.Normalize().Mul(speed)
	return Velocity{VX: v[0], VY: v[1], VZ: v[2]}
}

func (v Velocity) Vec() mgl32.Vec3 {
	return mgl32.Vec3{v.VX, v.VY, v.VZ}
}

// Displacement is how far the velocity carries an entity in delta.
func (v Velocity) Displacement(delta time.Duration) mgl32.Vec3 {
	return v.Vec().Mul(float32(delta.Seconds()))
}

func (v Velocity) Speed() float32 {
	return v.Vec().Len()
}
