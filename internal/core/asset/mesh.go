package asset

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	ErrMissingPositions = errors.New("primitive has no POSITION attribute")
	ErrInvalidMesh      = errors.New("invalid triangle mesh")
)

// TriMesh is an indexed triangle list in world space.
type TriMesh struct {
	Name     string
	Vertices [][3]float32
	Indices  [][3]uint32
}

// TriangleCount returns the number of triangles in the mesh.
func (m TriMesh) TriangleCount() int { return len(m.Indices) }

// LoadGLTF reads every triangle-list primitive of every mesh in a .gltf or
// .glb file. Each primitive becomes one TriMesh. Node transforms are not
// applied: level geometry is expected to be authored in world space.
func LoadGLTF(path string) ([]TriMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %q: %w", path, err)
	}

	var meshes []TriMesh
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			tm, err := readPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d (%s) primitive %d: %w", mi, mesh.Name, pi, err)
			}
			tm.Name = mesh.Name
			meshes = append(meshes, tm)
		}
	}
	return meshes, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (TriMesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return TriMesh{}, ErrMissingPositions
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return TriMesh{}, fmt.Errorf("read positions: %w", err)
	}

	var flat []uint32
	if prim.Indices != nil {
		flat, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return TriMesh{}, fmt.Errorf("read indices: %w", err)
		}
	} else {
		flat = make([]uint32, len(positions))
		for i := range flat {
			flat[i] = uint32(i)
		}
	}

	if len(flat)%3 != 0 {
		return TriMesh{}, fmt.Errorf("%w: %d indices is not a triangle list", ErrInvalidMesh, len(flat))
	}

	tm := TriMesh{
		Vertices: positions,
		Indices:  make([][3]uint32, 0, len(flat)/3),
	}
	for i := 0; i < len(flat); i += 3 {
		tri := [3]uint32{flat[i], flat[i+1], flat[i+2]}
		for _, idx := range tri {
			if int(idx) >= len(positions) {
				return TriMesh{}, fmt.Errorf("%w: index %d out of %d vertices", ErrInvalidMesh, idx, len(positions))
			}
		}
		tm.Indices = append(tm.Indices, tri)
	}
	return tm, nil
}

// Box returns an axis aligned box as 12 outward facing triangles.
func Box(center, halfExtents [3]float32) TriMesh {
	cx, cy, cz := center[0], center[1], center[2]
	hx, hy, hz := halfExtents[0], halfExtents[1], halfExtents[2]
	return TriMesh{
		Name: "box",
		Vertices: [][3]float32{
			{cx - hx, cy - hy, cz - hz}, // 0
			{cx + hx, cy - hy, cz - hz}, // 1
			{cx + hx, cy + hy, cz - hz}, // 2
			{cx - hx, cy + hy, cz - hz}, // 3
			{cx - hx, cy - hy, cz + hz}, // 4
			{cx + hx, cy - hy, cz + hz}, // 5
			{cx + hx, cy + hy, cz + hz}, // 6
			{cx - hx, cy + hy, cz + hz}, // 7
		},
		Indices: [][3]uint32{
			{0, 2, 1}, {0, 3, 2}, // -z
			{4, 5, 6}, {4, 6, 7}, // +z
			{0, 4, 7}, {0, 7, 3}, // -x
			{1, 2, 6}, {1, 6, 5}, // +x
			{0, 1, 5}, {0, 5, 4}, // -y
			{3, 7, 6}, {3, 6, 2}, // +y
		},
	}
}
