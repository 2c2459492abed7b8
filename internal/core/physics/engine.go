package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Engine owns every body and collider of one simulation. It is not safe for
// concurrent use; a single goroutine drives it.
type Engine struct {
	bodies    arena[RigidBody]
	colliders arena[Collider]
	static    *staticGrid
	steps     uint64
}

// NewEngine creates an empty engine whose static broad-phase buckets
// triangles into cubes of cellSize.
func NewEngine(cellSize float32) *Engine {
	return &Engine{static: newStaticGrid(cellSize)}
}

func (e *Engine) InsertBody(body RigidBody) BodyHandle {
	index, generation := e.bodies.insert(body)
	return BodyHandle{Index: index, Generation: generation}
}

// InsertCollider attaches shape to parent. TriMesh vertices are translated by
// the parent's translation and indexed in the static broad-phase.
func (e *Engine) InsertCollider(shape Shape, parent BodyHandle) (ColliderHandle, error) {
	body, ok := e.bodies.get(parent.Index, parent.Generation)
	if !ok {
		return ColliderHandle{}, fmt.Errorf("%w: %s", ErrStaleHandle, parent)
	}

	var mesh *TriMesh
	switch s := shape.(type) {
	case Capsule:
		if s.Radius <= 0 || s.HalfHeight < 0 {
			return ColliderHandle{}, fmt.Errorf("%w: capsule %+v", ErrInvalidShape, s)
		}
	case *TriMesh:
		if err := s.validate(); err != nil {
			return ColliderHandle{}, err
		}
		offset := body.translation
		mesh = &TriMesh{
			Vertices: make([]mgl32.Vec3, len(s.Vertices)),
			Indices:  append([][3]uint32(nil), s.Indices...),
		}
		for i, v := range s.Vertices {
			mesh.Vertices[i] = v.Add(offset)
		}
		shape = mesh
	default:
		return ColliderHandle{}, fmt.Errorf("%w: %T", ErrInvalidShape, shape)
	}

	collider := Collider{shape: shape, parent: parent}
	index, generation := e.colliders.insert(collider)
	handle := ColliderHandle{Index: index, Generation: generation}
	body.colliders = append(body.colliders, handle)

	if mesh != nil {
		e.static.insert(handle, mesh)
	}
	e.refreshCollider(handle)
	return handle, nil
}

// RemoveBody removes the body and every collider attached to it.
func (e *Engine) RemoveBody(handle BodyHandle) error {
	body, ok := e.bodies.remove(handle.Index, handle.Generation)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStaleHandle, handle)
	}
	for _, ch := range body.colliders {
		collider, ok := e.colliders.remove(ch.Index, ch.Generation)
		if ok && collider.IsStatic() {
			e.static.remove(ch)
		}
	}
	return nil
}

// Body returns the body for handle. The pointer is valid until the next insert.
func (e *Engine) Body(handle BodyHandle) (*RigidBody, bool) {
	return e.bodies.get(handle.Index, handle.Generation)
}

// Collider returns the collider for handle. The pointer is valid until the next insert.
func (e *Engine) Collider(handle ColliderHandle) (*Collider, bool) {
	return e.colliders.get(handle.Index, handle.Generation)
}

func (e *Engine) BodyCount() int { return e.bodies.len() }

func (e *Engine) ColliderCount() int { return e.colliders.len() }

// Steps is the number of completed Step calls.
func (e *Engine) Steps() uint64 { return e.steps }

// SetNextKinematicTranslation sets where a kinematic body will be after the
// next Step. Queries see the new pose immediately.
func (e *Engine) SetNextKinematicTranslation(handle BodyHandle, translation mgl32.Vec3) error {
	body, err := e.kinematic(handle)
	if err != nil {
		return err
	}
	body.nextTranslation = translation
	for _, ch := range body.colliders {
		e.refreshCollider(ch)
	}
	return nil
}

// SetNextKinematicRotation sets the facing of a kinematic body after the next Step.
func (e *Engine) SetNextKinematicRotation(handle BodyHandle, rotation mgl32.Quat) error {
	body, err := e.kinematic(handle)
	if err != nil {
		return err
	}
	body.nextRotation = rotation.Normalize()
	return nil
}

func (e *Engine) kinematic(handle BodyHandle) (*RigidBody, error) {
	body, ok := e.bodies.get(handle.Index, handle.Generation)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, handle)
	}
	if !body.IsKinematic() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotKinematic, handle, body.kind)
	}
	return body, nil
}

// Step promotes every pending kinematic pose and refreshes the dynamic
// broad-phase. There is no force integration: every body is kinematic or fixed.
func (e *Engine) Step() {
	e.bodies.each(func(_, _ uint32, body *RigidBody) bool {
		if body.IsKinematic() {
			body.translation = body.nextTranslation
			body.rotation = body.nextRotation
		}
		return true
	})
	e.colliders.each(func(index, generation uint32, _ *Collider) bool {
		e.refreshCollider(ColliderHandle{Index: index, Generation: generation})
		return true
	})
	e.steps++
}

func (e *Engine) refreshCollider(handle ColliderHandle) {
	collider, ok := e.colliders.get(handle.Index, handle.Generation)
	if !ok {
		return
	}
	switch s := collider.shape.(type) {
	case Capsule:
		body, ok := e.bodies.get(collider.parent.Index, collider.parent.Generation)
		if !ok {
			return
		}
		collider.aabb = s.aabb(body.nextTranslation)
	case *TriMesh:
		box := emptyAABB()
		for _, v := range s.Vertices {
			box = box.Grow(v)
		}
		collider.aabb = box
	}
}

// colliderCenter is the world-space pose of a capsule collider's parent.
func (e *Engine) colliderCenter(collider *Collider) (mgl32.Vec3, bool) {
	body, ok := e.bodies.get(collider.parent.Index, collider.parent.Generation)
	if !ok {
		return mgl32.Vec3{}, false
	}
	return body.nextTranslation, true
}
