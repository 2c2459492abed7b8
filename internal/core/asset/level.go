package asset

import (
	"fmt"

	"github.com/zeusync/frontline/internal/config"
)

// LoadLevel collects the static collision geometry described by cfg: every
// mesh of the level file, if any, followed by the configured boxes.
func LoadLevel(cfg config.LevelConfig) ([]TriMesh, error) {
	var meshes []TriMesh
	if cfg.Path != "" {
		loaded, err := LoadGLTF(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("load level: %w", err)
		}
		meshes = append(meshes, loaded...)
	}
	for i, box := range cfg.Boxes {
		mesh := Box(box.Center, box.HalfExtents)
		mesh.Name = fmt.Sprintf("box-%d", i)
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}
