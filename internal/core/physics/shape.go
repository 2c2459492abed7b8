package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Up is the world up axis. Capsules are aligned with it.
var Up = mgl32.Vec3{0, 1, 0}

type Shape interface {
	isShape()
}

// Capsule is a segment of length 2*HalfHeight along Up, inflated by Radius.
type Capsule struct {
	HalfHeight float32
	Radius     float32
}

func (Capsule) isShape() {}

// Height is the full extent of the capsule along its axis.
func (c Capsule) Height() float32 {
	return 2 * (c.HalfHeight + c.Radius)
}

func (c Capsule) segment(center mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	half := Up.Mul(c.HalfHeight)
	return center.Sub(half), center.Add(half)
}

func (c Capsule) aabb(center mgl32.Vec3) AABB {
	ext := mgl32.Vec3{c.Radius, c.HalfHeight + c.Radius, c.Radius}
	return AABB{Min: center.Sub(ext), Max: center.Add(ext)}
}

// TriMesh is immovable triangle geometry in world space.
type TriMesh struct {
	Vertices []mgl32.Vec3
	Indices  [][3]uint32
}

func (*TriMesh) isShape() {}

func (m *TriMesh) validate() error {
	for i, tri := range m.Indices {
		for _, idx := range tri {
			if int(idx) >= len(m.Vertices) {
				return fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrInvalidShape, i, idx, len(m.Vertices))
			}
		}
	}
	return nil
}

func (m *TriMesh) triangle(i int) (a, b, c mgl32.Vec3) {
	tri := m.Indices[i]
	return m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
}

// AABB is an axis aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

func emptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min(b.Min[0], o.Min[0]), min(b.Min[1], o.Min[1]), min(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{max(b.Max[0], o.Max[0]), max(b.Max[1], o.Max[1]), max(b.Max[2], o.Max[2])},
	}
}

func (b AABB) Grow(p mgl32.Vec3) AABB {
	return b.Union(AABB{Min: p, Max: p})
}

func (b AABB) Expand(margin float32) AABB {
	m := mgl32.Vec3{margin, margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

func (b AABB) Translate(d mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

func triangleAABB(a, b, c mgl32.Vec3) AABB {
	return emptyAABB().Grow(a).Grow(b).Grow(c)
}
