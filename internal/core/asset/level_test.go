package asset

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/frontline/internal/config"
)

func TestLoadLevelEmpty(t *testing.T) {
	meshes, err := LoadLevel(config.LevelConfig{})
	require.NoError(t, err)
	assert.Empty(t, meshes)
}

func TestLoadLevelFileAndBoxes(t *testing.T) {
	path := writeDoc(t, func(doc *gltf.Document) {
		pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}})
		doc.Meshes = []*gltf.Mesh{{
			Name:       "ground",
			Primitives: []*gltf.Primitive{{Attributes: gltf.Attribute{gltf.POSITION: pos}}},
		}}
	})

	meshes, err := LoadLevel(config.LevelConfig{
		Path: path,
		Boxes: []config.BoxConfig{
			{Center: [3]float32{0, 1, 0}, HalfExtents: [3]float32{1, 1, 1}},
		},
	})
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, "ground", meshes[0].Name)
	assert.Equal(t, "box-0", meshes[1].Name)
	assert.Equal(t, 12, meshes[1].TriangleCount())
}

func TestLoadLevelMissingFile(t *testing.T) {
	_, err := LoadLevel(config.LevelConfig{Path: filepath.Join(t.TempDir(), "missing.glb")})
	assert.Error(t, err)
}
