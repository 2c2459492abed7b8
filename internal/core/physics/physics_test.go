package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCapsule = Capsule{HalfHeight: 0.5, Radius: 0.2}

// wallAt returns a 10x10 quad in the plane x = x0.
func wallAt(x0 float32) *TriMesh {
	return &TriMesh{
		Vertices: []mgl32.Vec3{{x0, -5, -5}, {x0, 5, -5}, {x0, 5, 5}, {x0, -5, 5}},
		Indices:  [][3]uint32{{0, 1, 2}, {0, 2, 3}},
	}
}

// floorAt returns a 20x20 quad in the plane y = y0.
func floorAt(y0 float32) *TriMesh {
	return &TriMesh{
		Vertices: []mgl32.Vec3{{-10, y0, -10}, {10, y0, -10}, {10, y0, 10}, {-10, y0, 10}},
		Indices:  [][3]uint32{{0, 2, 1}, {0, 3, 2}},
	}
}

func addStatic(t *testing.T, e *Engine, mesh *TriMesh) ColliderHandle {
	t.Helper()
	body := e.InsertBody(NewFixedBody(mgl32.Vec3{}))
	handle, err := e.InsertCollider(mesh, body)
	require.NoError(t, err)
	return handle
}

func addCapsule(t *testing.T, e *Engine, at mgl32.Vec3) (BodyHandle, ColliderHandle) {
	t.Helper()
	body := e.InsertBody(NewKinematicBody(at))
	collider, err := e.InsertCollider(testCapsule, body)
	require.NoError(t, err)
	return body, collider
}

func TestArenaGenerations(t *testing.T) {
	var a arena[string]
	i1, g1 := a.insert("first")
	assert.Equal(t, uint32(1), g1)

	_, ok := a.remove(i1, g1)
	require.True(t, ok)
	_, ok = a.get(i1, g1)
	assert.False(t, ok, "removed slot must not resolve")

	i2, g2 := a.insert("second")
	assert.Equal(t, i1, i2, "free slot is reused")
	assert.NotEqual(t, g1, g2, "reused slot gets a new generation")

	_, ok = a.get(i1, g1)
	assert.False(t, ok, "stale handle must not resolve to the new value")
	v, ok := a.get(i2, g2)
	require.True(t, ok)
	assert.Equal(t, "second", *v)
	assert.Equal(t, 1, a.len())
}

func TestZeroHandlesNeverResolve(t *testing.T) {
	e := NewEngine(4)
	addCapsule(t, e, mgl32.Vec3{})

	_, ok := e.Body(BodyHandle{})
	assert.False(t, ok)
	_, ok = e.Collider(ColliderHandle{})
	assert.False(t, ok)
}

func TestRemoveBodyReleasesColliders(t *testing.T) {
	e := NewEngine(4)
	body, collider := addCapsule(t, e, mgl32.Vec3{})
	wall := addStatic(t, e, wallAt(2))
	assert.Equal(t, 2, e.BodyCount())
	assert.Equal(t, 2, e.ColliderCount())

	require.NoError(t, e.RemoveBody(body))
	_, ok := e.Collider(collider)
	assert.False(t, ok)
	assert.ErrorIs(t, e.RemoveBody(body), ErrStaleHandle)

	wallCollider, ok := e.Collider(wall)
	require.True(t, ok)
	require.NoError(t, e.RemoveBody(wallCollider.Parent()))

	// the wall no longer blocks once its body is gone
	_, hit := e.CastShape(testCapsule, mgl32.Vec3{}, mgl32.Vec3{5, 0, 0}, QueryFilter{})
	assert.False(t, hit)
	assert.Zero(t, e.BodyCount())
	assert.Zero(t, e.ColliderCount())
}

func TestInsertColliderValidates(t *testing.T) {
	e := NewEngine(4)
	body := e.InsertBody(NewFixedBody(mgl32.Vec3{}))

	_, err := e.InsertCollider(&TriMesh{
		Vertices: []mgl32.Vec3{{0, 0, 0}},
		Indices:  [][3]uint32{{0, 1, 2}},
	}, body)
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = e.InsertCollider(Capsule{Radius: 0}, body)
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = e.InsertCollider(testCapsule, BodyHandle{Index: 42, Generation: 1})
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestKinematicPoseIsPromotedOnStep(t *testing.T) {
	e := NewEngine(4)
	body, _ := addCapsule(t, e, mgl32.Vec3{1, 2, 3})

	require.NoError(t, e.SetNextKinematicTranslation(body, mgl32.Vec3{4, 5, 6}))
	rb, ok := e.Body(body)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, rb.Translation())
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, rb.NextTranslation())

	e.Step()
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, rb.Translation())
	assert.Equal(t, uint64(1), e.Steps())

	fixed := e.InsertBody(NewFixedBody(mgl32.Vec3{}))
	assert.ErrorIs(t, e.SetNextKinematicTranslation(fixed, mgl32.Vec3{1, 0, 0}), ErrNotKinematic)
}

func TestSetNextKinematicRotationNormalizes(t *testing.T) {
	e := NewEngine(4)
	body, _ := addCapsule(t, e, mgl32.Vec3{})

	require.NoError(t, e.SetNextKinematicRotation(body, mgl32.Quat{W: 2, V: mgl32.Vec3{0, 2, 0}}))
	rb, _ := e.Body(body)
	assert.InDelta(t, 1, rb.NextRotation().Len(), 1e-5)
}

func TestCastShapeAgainstWall(t *testing.T) {
	e := NewEngine(4)
	wall := addStatic(t, e, wallAt(2))

	hit, ok := e.CastShape(testCapsule, mgl32.Vec3{}, mgl32.Vec3{5, 0, 0}, QueryFilter{})
	require.True(t, ok)
	assert.Equal(t, wall, hit.Collider)
	assert.InDelta(t, 1.8/5, hit.TOI, 1e-3)
	assert.InDelta(t, -1, hit.Normal.X(), 1e-3)

	_, ok = e.CastShape(testCapsule, mgl32.Vec3{}, mgl32.Vec3{-5, 0, 0}, QueryFilter{})
	assert.False(t, ok, "moving away from the wall")

	_, ok = e.CastShape(testCapsule, mgl32.Vec3{}, mgl32.Vec3{5, 0, 0}, QueryFilter{
		ExcludeColliders: []ColliderHandle{wall},
	})
	assert.False(t, ok, "excluded collider")

	_, ok = e.CastShape(testCapsule, mgl32.Vec3{}, mgl32.Vec3{5, 0, 0}, QueryFilter{
		Predicate: func(_ ColliderHandle, c *Collider) bool { return !c.IsStatic() },
	})
	assert.False(t, ok, "predicate rejects static geometry")
}

func TestCastShapeAgainstCapsule(t *testing.T) {
	e := NewEngine(4)
	mover, _ := addCapsule(t, e, mgl32.Vec3{})
	_, target := addCapsule(t, e, mgl32.Vec3{3, 0, 0})

	filter := QueryFilter{ExcludeRigidBody: mover}
	hit, ok := e.CastShape(testCapsule, mgl32.Vec3{}, mgl32.Vec3{5, 0, 0}, filter)
	require.True(t, ok)
	assert.Equal(t, target, hit.Collider)
	assert.InDelta(t, 2.6/5, hit.TOI, 1e-3)

	filter.ExcludeColliders = []ColliderHandle{target}
	_, ok = e.CastShape(testCapsule, mgl32.Vec3{}, mgl32.Vec3{5, 0, 0}, filter)
	assert.False(t, ok)
}

func TestCastShapeLetsOverlappingShapesSeparate(t *testing.T) {
	e := NewEngine(4)
	addCapsule(t, e, mgl32.Vec3{})

	// a second capsule spawned on top of the first may leave in any direction
	for _, d := range []mgl32.Vec3{{1, 0, 0}, {0, 0, -1}, {0.3, 0, 0.3}} {
		_, ok := e.CastShape(testCapsule, mgl32.Vec3{}, d, QueryFilter{})
		assert.False(t, ok, "direction %v", d)
	}
}

func TestCastShapeDoesNotTunnelThroughThinGeometry(t *testing.T) {
	e := NewEngine(4)
	addStatic(t, e, wallAt(2))

	hit, ok := e.CastShape(testCapsule, mgl32.Vec3{}, mgl32.Vec3{50, 0, 0}, QueryFilter{})
	require.True(t, ok)
	assert.InDelta(t, 1.8/50, hit.TOI, 1e-4)
}

func TestCastShapeLongCastsHitSingleQuad(t *testing.T) {
	e := NewEngine(4)
	wall := addStatic(t, e, wallAt(4.9))
	origin := mgl32.Vec3{2, 0, 0}

	for _, length := range []float32{1, 5, 200, 1000, 1e5} {
		hit, ok := e.CastShape(testCapsule, origin, mgl32.Vec3{length, 0, 0}, QueryFilter{})
		if length < 2.7 {
			assert.False(t, ok, "length %v", length)
			continue
		}
		require.True(t, ok, "length %v", length)
		assert.Equal(t, wall, hit.Collider)
		assert.InDelta(t, 2.7, hit.TOI*length, 1e-2, "length %v", length)
	}

	controller := DefaultCharacterController(testCapsule)
	movement := controller.MoveShape(e, testCapsule, origin, mgl32.Vec3{1000, 0, 0}, QueryFilter{}, nil)
	assert.InDelta(t, 2.7-controller.Offset, movement.Translation.X(), 1e-2)
}

func TestMoveShapeStopsAtWall(t *testing.T) {
	e := NewEngine(4)
	wall := addStatic(t, e, wallAt(2))
	controller := DefaultCharacterController(testCapsule)

	var collisions []CharacterCollision
	movement := controller.MoveShape(e, testCapsule, mgl32.Vec3{}, mgl32.Vec3{5, 0, 0}, QueryFilter{},
		func(c CharacterCollision) { collisions = append(collisions, c) })

	assert.Less(t, movement.Translation.Len(), float32(5))
	assert.InDelta(t, 1.8-controller.Offset, movement.Translation.X(), 1e-2)
	require.NotEmpty(t, collisions)
	assert.Equal(t, wall, collisions[0].Collider)
	assert.False(t, movement.Grounded)
}

func TestMoveShapeSlidesAlongWall(t *testing.T) {
	e := NewEngine(4)
	addStatic(t, e, wallAt(2))
	controller := DefaultCharacterController(testCapsule)

	movement := controller.MoveShape(e, testCapsule, mgl32.Vec3{}, mgl32.Vec3{4, 0, 4}, QueryFilter{}, nil)

	assert.Less(t, movement.Translation.X(), float32(1.8))
	assert.InDelta(t, 4-controller.Offset, movement.Translation.Z(), 0.02)
	assert.InDelta(t, 0, movement.Translation.Y(), 1e-4)
}

func TestMoveShapeWithoutSlideStops(t *testing.T) {
	e := NewEngine(4)
	addStatic(t, e, wallAt(2))
	controller := DefaultCharacterController(testCapsule)
	controller.Slide = false

	movement := controller.MoveShape(e, testCapsule, mgl32.Vec3{}, mgl32.Vec3{4, 0, 4}, QueryFilter{}, nil)
	assert.InDelta(t, movement.Translation.X(), movement.Translation.Z(), 1e-4)
	assert.Less(t, movement.Translation.X(), float32(1.8))
}

func TestMoveShapeLandsOnFloor(t *testing.T) {
	e := NewEngine(4)
	addStatic(t, e, floorAt(0))
	controller := DefaultCharacterController(testCapsule)

	movement := controller.MoveShape(e, testCapsule, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, -2, 0}, QueryFilter{}, nil)
	assert.True(t, movement.Grounded)
	assert.InDelta(t, -(0.3 - controller.Offset), movement.Translation.Y(), 1e-2)
	assert.InDelta(t, 0, movement.Translation.X(), 1e-5)

	// walking on the floor is unobstructed
	rest := mgl32.Vec3{0, 1, 0}.Add(movement.Translation)
	walk := controller.MoveShape(e, testCapsule, rest, mgl32.Vec3{3, 0, 0}, QueryFilter{}, nil)
	assert.InDelta(t, 3, walk.Translation.X(), 1e-4)
}

func TestSlideSlopePolicy(t *testing.T) {
	controller := DefaultCharacterController(testCapsule)
	slopeNormal := func(deg float64) mgl32.Vec3 {
		r := deg * math.Pi / 180
		return mgl32.Vec3{float32(-math.Sin(r)), float32(math.Cos(r)), 0}
	}

	climbable := controller.slide(mgl32.Vec3{1, 0, 0}, slopeNormal(40))
	assert.Greater(t, climbable.Y(), float32(0), "walks up a 40 degree slope")

	steep := controller.slide(mgl32.Vec3{1, 0, 0}, slopeNormal(70))
	assert.InDelta(t, 0, steep.Y(), 1e-6, "cannot climb a 70 degree slope")
	assert.Greater(t, steep.X(), float32(0))

	gentle := controller.slide(mgl32.Vec3{0, -1, 0}, slopeNormal(20))
	assert.Equal(t, mgl32.Vec3{}, gentle, "no slide on a gentle slope")

	slippery := controller.slide(mgl32.Vec3{0, -1, 0}, slopeNormal(45))
	assert.Less(t, slippery.Y(), float32(0), "slides down a 45 degree slope")
}

func TestClosestPointTriangleRegions(t *testing.T) {
	a := mgl32.Vec3{0, 0, 0}
	b := mgl32.Vec3{1, 0, 0}
	c := mgl32.Vec3{0, 1, 0}

	assert.Equal(t, a, closestPointTriangle(mgl32.Vec3{-1, -1, 0}, a, b, c))
	assert.Equal(t, b, closestPointTriangle(mgl32.Vec3{2, -1, 0}, a, b, c))
	inside := closestPointTriangle(mgl32.Vec3{0.25, 0.25, 3}, a, b, c)
	assert.InDelta(t, 0.25, inside.X(), 1e-6)
	assert.InDelta(t, 0.25, inside.Y(), 1e-6)
	assert.InDelta(t, 0, inside.Z(), 1e-6)
}

func TestClosestPointsSegments(t *testing.T) {
	c1, c2 := closestPointsSegments(
		mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{1, 0, 0},
		mgl32.Vec3{0, -1, 2}, mgl32.Vec3{0, 1, 2},
	)
	assert.InDelta(t, 0, c1.Sub(mgl32.Vec3{0, 0, 0}).Len(), 1e-6)
	assert.InDelta(t, 0, c2.Sub(mgl32.Vec3{0, 0, 2}).Len(), 1e-6)
}

func TestClosestPointsSegmentTriangleIntersecting(t *testing.T) {
	mesh := wallAt(0)
	a, b, c := mesh.triangle(0)
	s, tri := closestPointsSegmentTriangle(mgl32.Vec3{-1, 0, -1}, mgl32.Vec3{1, 0, -1}, a, b, c)
	assert.InDelta(t, 0, s.Sub(tri).Len(), 1e-6)
}
