package movement

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/frontline/internal/config"
	"github.com/zeusync/frontline/internal/core/asset"
	"github.com/zeusync/frontline/internal/core/observability/log"
	"github.com/zeusync/frontline/internal/core/physics"
)

var _ Adapter = (*PhysicsAdapter)(nil)

// PhysicsAdapter implements Adapter on top of the in-process physics engine.
type PhysicsAdapter struct {
	engine     *physics.Engine
	shape      physics.Capsule
	controller physics.CharacterController
	logger     log.Log
}

func NewPhysicsAdapter(cfg config.PhysicsConfig, logger log.Log) *PhysicsAdapter {
	shape := physics.Capsule{HalfHeight: cfg.CapsuleHalfHeight, Radius: cfg.CapsuleRadius}
	controller := physics.DefaultCharacterController(shape)
	controller.Slide = cfg.Slide
	controller.Offset = cfg.RelativeOffset * shape.Height()
	controller.MaxSlopeClimbAngle = mgl32.DegToRad(cfg.MaxSlopeClimbAngle)
	controller.MinSlopeSlideAngle = mgl32.DegToRad(cfg.MinSlopeSlideAngle)

	return &PhysicsAdapter{
		engine:     physics.NewEngine(cfg.GridCellSize),
		shape:      shape,
		controller: controller,
		logger:     logger.With(log.String("component", "movement")),
	}
}

// Engine exposes the underlying engine for inspection.
func (a *PhysicsAdapter) Engine() *physics.Engine {
	return a.engine
}

func (a *PhysicsAdapter) SpawnKinematicEntity(position mgl32.Vec3) (physics.BodyHandle, physics.ColliderHandle) {
	body := a.engine.InsertBody(physics.NewKinematicBody(position))
	collider, err := a.engine.InsertCollider(a.shape, body)
	if err != nil {
		invariant("spawn", body, err)
	}
	return body, collider
}

func (a *PhysicsAdapter) RemoveEntity(body physics.BodyHandle) {
	if err := a.engine.RemoveBody(body); err != nil {
		invariant("remove", body, err)
	}
}

func (a *PhysicsAdapter) ResolveDisplacement(
	body physics.BodyHandle,
	exclude []physics.ColliderHandle,
	desired mgl32.Vec3,
) Movement {
	rb := a.body("resolve", body)
	if !finite(desired[:]...) {
		return Movement{}
	}

	filter := physics.QueryFilter{
		ExcludeRigidBody: body,
		ExcludeColliders: exclude,
	}

	var collisions []physics.CharacterCollision
	effective := a.controller.MoveShape(a.engine, a.shape, rb.NextTranslation(), desired, filter,
		func(c physics.CharacterCollision) {
			collisions = append(collisions, c)
		})

	return Movement{Translation: effective.Translation, Collisions: collisions}
}

func (a *PhysicsAdapter) Commit(body physics.BodyHandle, translation mgl32.Vec3) mgl32.Vec3 {
	next := a.body("commit", body).NextTranslation().Add(translation)
	if err := a.engine.SetNextKinematicTranslation(body, next); err != nil {
		invariant("commit", body, err)
	}
	return next
}

func (a *PhysicsAdapter) Position(body physics.BodyHandle) mgl32.Vec3 {
	return a.body("position", body).NextTranslation()
}

func (a *PhysicsAdapter) Forward(body physics.BodyHandle) mgl32.Vec3 {
	return a.body("forward", body).NextRotation().Rotate(ForwardAxis).Normalize()
}

func (a *PhysicsAdapter) SetOrientation(body physics.BodyHandle, rotation mgl32.Quat) {
	if !finite(rotation.W, rotation.V[0], rotation.V[1], rotation.V[2]) || rotation.Len() == 0 {
		rotation = mgl32.QuatIdent()
	}
	if err := a.engine.SetNextKinematicRotation(body, rotation); err != nil {
		invariant("orient", body, err)
	}
}

func (a *PhysicsAdapter) Step() {
	a.engine.Step()
}

// LoadStaticGeometry adds every mesh as a fixed body at the origin.
func (a *PhysicsAdapter) LoadStaticGeometry(meshes []asset.TriMesh) error {
	triangles := 0
	for i, m := range meshes {
		mesh := &physics.TriMesh{
			Vertices: make([]mgl32.Vec3, len(m.Vertices)),
			Indices:  m.Indices,
		}
		for j, v := range m.Vertices {
			mesh.Vertices[j] = mgl32.Vec3(v)
		}

		body := a.engine.InsertBody(physics.NewFixedBody(mgl32.Vec3{}))
		if _, err := a.engine.InsertCollider(mesh, body); err != nil {
			_ = a.engine.RemoveBody(body)
			return fmt.Errorf("static mesh %d (%s): %w", i, m.Name, err)
		}
		triangles += m.TriangleCount()
	}

	a.logger.Info("Static geometry loaded",
		log.Int("meshes", len(meshes)),
		log.Int("triangles", triangles),
	)
	return nil
}

func (a *PhysicsAdapter) IsStatic(collider physics.ColliderHandle) bool {
	c, ok := a.engine.Collider(collider)
	return ok && c.IsStatic()
}

func (a *PhysicsAdapter) BodyCount() int {
	return a.engine.BodyCount()
}

func (a *PhysicsAdapter) body(op string, handle physics.BodyHandle) *physics.RigidBody {
	rb, ok := a.engine.Body(handle)
	if !ok {
		invariant(op, handle, physics.ErrStaleHandle)
	}
	return rb
}

func finite(vs ...float32) bool {
	for _, v := range vs {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}
