package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"island-demo/core"
	"island-demo/internal/opengl"
	"island-demo/math"
	"island-demo/scene"
)

func meshNode(name string, pos math.Vec3, alpha scene.AlphaMode) *scene.Node {
	n := scene.NewNode(name)
	n.Mesh = scene.CreateMeshFromData(name, []core.Vertex{
		{Position: math.NewVec3(-1, 0, 0)},
		{Position: math.NewVec3(1, 0, 0)},
		{Position: math.NewVec3(0, 1, 0)},
	}, nil)
	n.Mesh.Material = scene.DefaultMaterial()
	n.Mesh.Material.AlphaMode = alpha
	n.SetPosition(pos)
	return n
}

func TestRenderSize(t *testing.T) {
	w, h := renderSize(1280, 720, 2)
	assert.Equal(t, 2560, w)
	assert.Equal(t, 1440, h)

	w, h = renderSize(1001, 500, 1.5)
	assert.Equal(t, 1502, w)
	assert.Equal(t, 750, h)

	w, h = renderSize(0, 0, 1)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestBlendedNodesDrawBackToFront(t *testing.T) {
	near := meshNode("near", math.NewVec3(0, 0, -1), scene.AlphaBlend)
	far := meshNode("far", math.NewVec3(0, 0, -10), scene.AlphaBlend)
	solid := meshNode("solid", math.NewVec3(0, 0, -5), scene.AlphaOpaque)
	masked := meshNode("masked", math.NewVec3(0, 0, -5), scene.AlphaMask)

	opaque, blended := splitByAlpha([]*scene.Node{near, solid, far, masked})
	assert.Equal(t, []*scene.Node{solid, masked}, opaque)

	sorted := sortBackToFront(blended, math.Vec3Zero)
	assert.Equal(t, []*scene.Node{far, near}, sorted)
}

func TestLightIndexSkipsNil(t *testing.T) {
	a := scene.NewDirectionalLight(core.ColorWhite, 1)
	b := scene.NewDirectionalLight(core.ColorWhite, 1)
	lights := []*scene.DirectionalLight{a, nil, b}

	assert.Equal(t, 0, lightIndex(lights, a))
	assert.Equal(t, 1, lightIndex(lights, b))
	assert.Equal(t, -1, lightIndex(lights, scene.NewDirectionalLight(core.ColorWhite, 1)))
}

func TestTriangleCount(t *testing.T) {
	m := scene.CreateMeshFromData("quad", make([]core.Vertex, 4), []uint32{0, 1, 2, 0, 2, 3})
	assert.Equal(t, 2, triangleCount(m))
	m.Indices = nil
	assert.Equal(t, 1, triangleCount(m))
}

func TestSetExposure(t *testing.T) {
	re := &RenderEngine{postProcess: &opengl.PostProcessFBO{}}
	re.SetExposure(2.5)
	assert.Equal(t, float32(2.5), re.Exposure())

	re.SetExposure(0)
	assert.Equal(t, float32(1), re.Exposure())
}
