package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type cellKey [3]int32

// triangleRef names one triangle of a static mesh collider.
type triangleRef struct {
	collider ColliderHandle
	triangle int32
}

// staticGrid buckets static triangles by the uniform cells their AABB touches.
type staticGrid struct {
	cellSize float32
	cells    map[cellKey][]triangleRef
}

func newStaticGrid(cellSize float32) *staticGrid {
	if cellSize <= 0 {
		cellSize = 4
	}
	return &staticGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]triangleRef),
	}
}

func (g *staticGrid) cellOf(p mgl32.Vec3) cellKey {
	return cellKey{
		int32(math.Floor(float64(p[0] / g.cellSize))),
		int32(math.Floor(float64(p[1] / g.cellSize))),
		int32(math.Floor(float64(p[2] / g.cellSize))),
	}
}

func (g *staticGrid) forCells(box AABB, fn func(cellKey)) {
	lo := g.cellOf(box.Min)
	hi := g.cellOf(box.Max)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				fn(cellKey{x, y, z})
			}
		}
	}
}

func (g *staticGrid) insert(handle ColliderHandle, mesh *TriMesh) {
	for i := range mesh.Indices {
		a, b, c := mesh.triangle(i)
		ref := triangleRef{collider: handle, triangle: int32(i)}
		g.forCells(triangleAABB(a, b, c), func(k cellKey) {
			g.cells[k] = append(g.cells[k], ref)
		})
	}
}

func (g *staticGrid) remove(handle ColliderHandle) {
	for k, refs := range g.cells {
		kept := refs[:0]
		for _, ref := range refs {
			if ref.collider != handle {
				kept = append(kept, ref)
			}
		}
		if len(kept) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = kept
	}
}

// query returns each triangle whose cells overlap box exactly once.
func (g *staticGrid) query(box AABB) []triangleRef {
	seen := make(map[triangleRef]struct{})
	var out []triangleRef
	g.forCells(box, func(k cellKey) {
		for _, ref := range g.cells[k] {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	})
	return out
}
