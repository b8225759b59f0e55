package scene

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"island-demo/math"
)

func writeTriangleGLB(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	doc.Materials = []*gltf.Material{{
		Name: "paint",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 0.5, 0.25, 1},
			MetallicFactor:  gltf.Float(0.2),
			RoughnessFactor: gltf.Float(0.7),
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:  gltf.Index(idx),
			Material: gltf.Index(0),
			Attributes: map[string]int{
				gltf.POSITION:   pos,
				gltf.NORMAL:     nrm,
				gltf.TEXCOORD_0: uv,
			},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "parent", Translation: [3]float64{0, 2, 0}, Children: []int{1}},
		{Name: "child", Mesh: gltf.Index(0), Matrix: [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 0, 0, 1}},
	}
	doc.Scenes[0].Nodes = []int{0}

	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestLoadGLTF(t *testing.T) {
	model, err := LoadGLTF(writeTriangleGLB(t))
	require.NoError(t, err)

	require.Len(t, model.Root.Children, 1)
	assert.Equal(t, "parent", model.Root.Children[0].Name)

	child := model.Root.Find("child")
	require.NotNil(t, child)
	require.NotNil(t, child.Mesh)
	assert.Len(t, child.Mesh.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, child.Mesh.Indices)

	// The node matrix is decomposed into the transform.
	assert.True(t, child.WorldPosition().ApproxEqual(math.NewVec3(5, 2, 0), eps), "got %v", child.WorldPosition())

	mat := child.Mesh.Material
	require.NotNil(t, mat)
	assert.True(t, mat.UsePBR)
	assert.InDelta(t, 0.5, mat.Albedo.G, eps)
	assert.InDelta(t, 0.2, mat.Metallic, eps)
	assert.InDelta(t, 0.7, mat.Roughness, eps)
	assert.Equal(t, float32(1), mat.EnvMapIntensity)

	// Tangents are generated when the file has none.
	assert.Equal(t, float32(1), child.Mesh.Vertices[0].Tangent.X)

	assert.Empty(t, model.Animations)
	assert.Len(t, model.Meshes(), 1)
}

func TestLoadGLTFRejectsOtherFormats(t *testing.T) {
	_, err := LoadGLTF("models/character/character.fbx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model format")
}

func TestLoadGLTFMissingFile(t *testing.T) {
	_, err := LoadGLTF(filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Error(t, err)
}
