package physics

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	contactTolerance = 1e-4
	bisectIterations = 20
)

// QueryFilter narrows which colliders a query may hit.
type QueryFilter struct {
	// ExcludeRigidBody skips every collider attached to this body.
	ExcludeRigidBody BodyHandle
	// ExcludeColliders skips these colliders.
	ExcludeColliders []ColliderHandle
	// Predicate, when set, must return true for a collider to be considered.
	Predicate func(ColliderHandle, *Collider) bool
}

func (f QueryFilter) accepts(handle ColliderHandle, collider *Collider) bool {
	if collider.parent == f.ExcludeRigidBody {
		return false
	}
	if slices.Contains(f.ExcludeColliders, handle) {
		return false
	}
	if f.Predicate != nil && !f.Predicate(handle, collider) {
		return false
	}
	return true
}

// ShapeHit is the first contact of a swept shape.
type ShapeHit struct {
	Collider ColliderHandle
	// TOI is the fraction of the cast travelled before contact, in [0, 1].
	TOI float32
	// Normal points from the obstacle towards the cast shape.
	Normal mgl32.Vec3
	// Witness is the contact point on the obstacle.
	Witness mgl32.Vec3
}

// separation is the signed gap between the shape and one obstacle after
// travelling fraction t of the cast, with the normal and obstacle witness point.
type separation func(t float32) (gap float32, normal, witness mgl32.Vec3)

// CastShape sweeps a capsule from origin along delta and returns the earliest
// contact. Pairs that start overlapped and do not get deeper are ignored so a
// shape can always move out of penetration.
func (e *Engine) CastShape(shape Capsule, origin, delta mgl32.Vec3, filter QueryFilter) (ShapeHit, bool) {
	length := delta.Len()
	if length < epsilon {
		return ShapeHit{}, false
	}

	swept := shape.aabb(origin).Union(shape.aabb(origin.Add(delta))).Expand(contactTolerance)
	fallback := delta.Mul(-1 / length)

	best := ShapeHit{TOI: 2}
	found := false
	consider := func(handle ColliderHandle, sep separation) {
		toi, normal, witness, ok := sweep(sep, delta, length, shape.Radius)
		if ok && toi < best.TOI {
			best = ShapeHit{Collider: handle, TOI: toi, Normal: normal, Witness: witness}
			found = true
		}
	}

	for _, ref := range e.static.query(swept) {
		collider, ok := e.colliders.get(ref.collider.Index, ref.collider.Generation)
		if !ok || !filter.accepts(ref.collider, collider) {
			continue
		}
		mesh := collider.shape.(*TriMesh)
		a, b, c := mesh.triangle(int(ref.triangle))
		if !triangleAABB(a, b, c).Intersects(swept) {
			continue
		}
		face := triangleNormal(a, b, c)
		consider(ref.collider, func(t float32) (float32, mgl32.Vec3, mgl32.Vec3) {
			p, q := shape.segment(origin.Add(delta.Mul(t)))
			onSeg, onTri := closestPointsSegmentTriangle(p, q, a, b, c)
			diff := onSeg.Sub(onTri)
			dist := diff.Len()
			normal := face
			if dist >= epsilon {
				normal = diff.Mul(1 / dist)
			} else if normal.Dot(delta) > 0 {
				normal = normal.Mul(-1)
			}
			return dist - shape.Radius, normal, onTri
		})
	}

	e.colliders.each(func(index, generation uint32, collider *Collider) bool {
		other, ok := collider.shape.(Capsule)
		if !ok || !collider.aabb.Intersects(swept) {
			return true
		}
		handle := ColliderHandle{Index: index, Generation: generation}
		if !filter.accepts(handle, collider) {
			return true
		}
		center, ok := e.colliderCenter(collider)
		if !ok {
			return true
		}
		p2, q2 := other.segment(center)
		consider(handle, func(t float32) (float32, mgl32.Vec3, mgl32.Vec3) {
			p1, q1 := shape.segment(origin.Add(delta.Mul(t)))
			c1, c2 := closestPointsSegments(p1, q1, p2, q2)
			diff := c1.Sub(c2)
			dist := diff.Len()
			normal := safeNormalize(diff, fallback)
			witness := c2.Add(normal.Mul(other.Radius))
			return dist - shape.Radius - other.Radius, normal, witness
		})
		return true
	})

	if !found {
		return ShapeHit{}, false
	}
	return best, true
}

// sweep finds the first fraction of the cast at which sep reaches contact.
// Each step advances by the current gap, which cannot pass the obstacle,
// but never by less than half a radius, which cannot step over a thin
// triangle. The crossing is then bisected.
func sweep(sep separation, delta mgl32.Vec3, length, radius float32) (float32, mgl32.Vec3, mgl32.Vec3, bool) {
	gap0, normal0, witness0 := sep(0)
	if gap0 <= contactTolerance {
		nudge := min(float32(1), 1e-3/length)
		if gapNudge, _, _ := sep(nudge); gapNudge < gap0-1e-7 && normal0.Dot(delta) < 0 {
			return 0, normal0, witness0, true
		}
		return 0, mgl32.Vec3{}, mgl32.Vec3{}, false
	}

	minStep := max(radius*0.5, 1e-3) / length

	lo, gap := float32(0), gap0
	for lo < 1 {
		hi := min(lo+max(gap/length, minStep), 1)
		if hi <= lo {
			// below float32 resolution at this cast length
			hi = min(math.Nextafter32(lo, 2), 1)
		}

		gapHi, _, _ := sep(hi)
		if gapHi > contactTolerance {
			lo, gap = hi, gapHi
			continue
		}

		a, b := lo, hi
		for range bisectIterations {
			mid := (a + b) / 2
			if g, _, _ := sep(mid); g > contactTolerance {
				a = mid
			} else {
				b = mid
			}
		}
		_, normal, witness := sep(a)
		if normal.Dot(delta) >= 0 {
			// grazing contact that does not resist the motion
			lo, gap = hi, gapHi
			continue
		}
		return a, normal, witness, true
	}
	return 0, mgl32.Vec3{}, mgl32.Vec3{}, false
}
