package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const minMovement = 1e-5

// CharacterController moves a kinematic capsule by shape casts, stopping at
// obstacles and sliding along them.
type CharacterController struct {
	// Offset is the gap kept between the shape and obstacles, in world units.
	Offset float32
	// Slide projects blocked motion onto the obstacle instead of stopping.
	Slide bool
	// MaxSlopeClimbAngle is the steepest surface, in radians, that can be walked up.
	MaxSlopeClimbAngle float32
	// MinSlopeSlideAngle is the gentlest surface, in radians, that pressing
	// against from above slides down.
	MinSlopeSlideAngle float32
	// MaxIterations bounds the number of cast/slide rounds per move.
	MaxIterations int
}

// DefaultCharacterController returns the usual tuning: slide on, climb up to
// 60 degrees, slide from 30 degrees, 1% skin.
func DefaultCharacterController(shape Capsule) CharacterController {
	return CharacterController{
		Offset:             0.01 * shape.Height(),
		Slide:              true,
		MaxSlopeClimbAngle: mgl32.DegToRad(60),
		MinSlopeSlideAngle: mgl32.DegToRad(30),
		MaxIterations:      4,
	}
}

// CharacterCollision describes one obstacle met while moving.
type CharacterCollision struct {
	Collider ColliderHandle
	// TranslationApplied is the motion already performed when the contact happened.
	TranslationApplied mgl32.Vec3
	// TranslationRemaining is the motion still requested at contact.
	TranslationRemaining mgl32.Vec3
	TOI                  float32
	Normal               mgl32.Vec3
	Witness              mgl32.Vec3
}

// EffectiveCharacterMovement is the motion the controller allowed.
type EffectiveCharacterMovement struct {
	Translation mgl32.Vec3
	// Grounded is set when the shape touched a walkable surface.
	Grounded bool
}

// MoveShape resolves desired for a capsule centred at origin. Every contact is
// reported through onCollision in the order it happened.
func (c CharacterController) MoveShape(
	e *Engine,
	shape Capsule,
	origin mgl32.Vec3,
	desired mgl32.Vec3,
	filter QueryFilter,
	onCollision func(CharacterCollision),
) EffectiveCharacterMovement {
	var result EffectiveCharacterMovement
	remaining := desired
	iterations := max(c.MaxIterations, 1)
	climbCos := float32(math.Cos(float64(c.MaxSlopeClimbAngle)))

	for range iterations {
		length := remaining.Len()
		if length < minMovement {
			break
		}

		hit, ok := e.CastShape(shape, origin.Add(result.Translation), remaining, filter)
		if !ok {
			result.Translation = result.Translation.Add(remaining)
			break
		}

		dir := remaining.Mul(1 / length)
		travel := length * hit.TOI

		// back off along the motion so that roughly Offset separates us from
		// the obstacle along its normal
		facing := max(-dir.Dot(hit.Normal), 0.1)
		backoff := min(c.Offset/facing, travel)
		applied := dir.Mul(travel - backoff)

		if onCollision != nil {
			onCollision(CharacterCollision{
				Collider:             hit.Collider,
				TranslationApplied:   result.Translation.Add(applied),
				TranslationRemaining: dir.Mul(length - travel),
				TOI:                  hit.TOI,
				Normal:               hit.Normal,
				Witness:              hit.Witness,
			})
		}

		result.Translation = result.Translation.Add(applied)
		if hit.Normal.Dot(Up) >= climbCos {
			result.Grounded = true
		}

		if !c.Slide {
			break
		}
		remaining = c.slide(dir.Mul(length-travel), hit.Normal)
	}

	return result
}

// slide redirects leftover motion along the surface with normal n, applying
// the slope policy.
func (c CharacterController) slide(leftover, n mgl32.Vec3) mgl32.Vec3 {
	into := leftover.Dot(n)
	if into >= 0 {
		return leftover
	}
	projected := leftover.Sub(n.Mul(into))

	slope := float32(math.Acos(float64(mgl32.Clamp(n.Dot(Up), -1, 1))))

	// too steep to walk up: keep only the part of the slide that does not climb
	if slope > c.MaxSlopeClimbAngle {
		if rise := projected.Dot(Up); rise > 0 {
			projected = projected.Sub(Up.Mul(rise))
		}
	}

	// pressing straight down onto a gentle slope does not start a slide
	if slope < c.MinSlopeSlideAngle {
		horizontal := leftover.Sub(Up.Mul(leftover.Dot(Up)))
		if leftover.Dot(Up) < 0 && horizontal.Len() < minMovement {
			return mgl32.Vec3{}
		}
	}

	return projected
}
