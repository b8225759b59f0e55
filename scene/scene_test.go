package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"island-demo/core"
	"island-demo/math"
)

const eps = 1e-4

func TestNodeWorldMatrixComposesParentLast(t *testing.T) {
	parent := NewNode("parent")
	parent.SetPosition(math.NewVec3(10, 0, 0))
	parent.SetRotationY(math32.Pi / 2)
	parent.SetScale(math.NewVec3(2, 2, 2))

	child := NewNode("child")
	child.SetPosition(math.NewVec3(1, 0, 0))
	parent.AddChild(child)

	// The child offset is scaled, turned onto -Z, then moved with the parent.
	got := child.WorldPosition()
	assert.True(t, got.ApproxEqual(math.NewVec3(10, 0, -2), eps), "got %v", got)

	parent.Translate(math.NewVec3(0, 1, 0))
	got = child.WorldPosition()
	assert.True(t, got.ApproxEqual(math.NewVec3(10, 1, -2), eps), "dirty flag must reach children, got %v", got)
}

func TestNodeIdsAreUnique(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	assert.NotEqual(t, a.Id, b.Id)
}

func TestGetVisibleNodesSkipsHiddenSubtrees(t *testing.T) {
	s := NewScene()
	shown := NewNode("shown")
	shown.Mesh = &Mesh{}
	hidden := NewNode("hidden")
	hidden.Visible = false
	under := NewNode("under")
	under.Mesh = &Mesh{}
	hidden.AddChild(under)
	s.AddNode(shown)
	s.AddNode(hidden)

	assert.Equal(t, []*Node{shown}, s.GetVisibleNodes())
}

func TestDirectionalLightShadowCamera(t *testing.T) {
	l := NewDirectionalLight(core.ColorWhite, 3)
	l.Position = math.NewVec3(1, 5, 5)
	l.Shadow = LightShadow{Left: -7, Right: 10, Top: 7, Bottom: -7, Near: 0.5, Far: 20}

	vp := l.ShadowViewProj()
	// The light target sits inside the shadow volume.
	p := vp.MulVec3(l.Target)
	assert.True(t, p.X >= -1 && p.X <= 1 && p.Y >= -1 && p.Y <= 1 && p.Z >= -1 && p.Z <= 1, "got %v", p)

	// A point behind the far plane is clipped.
	far := l.Position.Add(l.Direction().Mul(25))
	assert.Greater(t, vp.MulVec3(far).Z, float32(1))
}

func TestDirectionalLightStraightDown(t *testing.T) {
	l := NewDirectionalLight(core.ColorWhite, 3)
	l.Position = math.NewVec3(0, 10, 0)
	l.Shadow = LightShadow{Left: -7, Right: 10, Top: 7, Bottom: -7, Near: 0.5, Far: 20}

	p := l.ShadowViewProj().MulVec3(l.Target)
	for _, c := range []float32{p.X, p.Y, p.Z} {
		assert.False(t, math32.IsNaN(c), "got %v", p)
	}
	assert.True(t, p.X >= -1 && p.X <= 1 && p.Y >= -1 && p.Y <= 1, "got %v", p)
}

func TestCameraAspect(t *testing.T) {
	c := NewCamera(math.DegToRad(75), 1, 0.1, 100)
	c.UpdateAspectRatio(1600, 900)
	assert.InDelta(t, 1600.0/900.0, c.AspectRatio, eps)

	c.UpdateAspectRatio(10, 0)
	assert.InDelta(t, 1600.0/900.0, c.AspectRatio, eps)

	proj := c.GetProjectionMatrix()
	assert.InDelta(t, proj[1][1]/(1600.0/900.0), proj[0][0], eps)
}

func TestComputeTangentsHandedness(t *testing.T) {
	m := CreateMeshFromData("quad", []core.Vertex{
		{Position: math.NewVec3(0, 0, 0), Normal: math.Vec3Front, UV: math.NewVec2(0, 0)},
		{Position: math.NewVec3(1, 0, 0), Normal: math.Vec3Front, UV: math.NewVec2(1, 0)},
		{Position: math.NewVec3(0, 1, 0), Normal: math.Vec3Front, UV: math.NewVec2(0, 1)},
	}, []uint32{0, 1, 2})

	ComputeTangents(m)
	for _, v := range m.Vertices {
		assert.True(t, v.Tangent.ToVec3().ApproxEqual(math.Vec3Right, eps))
		assert.Equal(t, float32(1), v.Tangent.W)
	}
	assert.Equal(t, AABB{Min: math.Vec3Zero, Max: math.NewVec3(1, 1, 0)}, m.LocalAABB)
}

func TestMaterialTextures(t *testing.T) {
	m := NewPBRMaterial("m", core.ColorWhite, 0, 1)
	assert.Empty(t, m.Textures())
	m.NormalTexture = &Texture{Name: "n"}
	m.AlbedoTexture = &Texture{Name: "a"}
	require.Len(t, m.Textures(), 2)
	assert.Equal(t, "a", m.Textures()[0].Name)
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(math32.Pi/2, 1, 0.1, 100)
	cam.SetPosition(math.Vec3Zero)
	cam.LookAt(math.NewVec3(0, 0, -1))
	f := FrustumFromVP(cam.GetViewProjectionMatrix())

	box := func(z float32) *Node {
		n := NewNode("box")
		n.Mesh = CreateMeshFromData("box", []core.Vertex{
			{Position: math.NewVec3(-0.5, -0.5, -0.5)},
			{Position: math.NewVec3(0.5, 0.5, 0.5)},
		}, nil)
		n.SetPosition(math.NewVec3(0, 0, z))
		return n
	}

	assert.True(t, box(-5).InFrustum(&f))
	assert.False(t, box(5).InFrustum(&f), "behind the camera")
	assert.False(t, box(-200).InFrustum(&f), "past the far plane")

	side := box(-5)
	side.SetPosition(math.NewVec3(20, 0, -5))
	assert.False(t, side.InFrustum(&f))

	skinned := box(5)
	skinned.Mesh.Skin = &SkinBinding{}
	assert.True(t, skinned.InFrustum(&f))
}

func TestAABBTransform(t *testing.T) {
	b := AABB{Min: math.NewVec3(-1, -1, -1), Max: math.NewVec3(1, 2, 1)}
	m := math.Mat4TRS(math.NewVec3(10, 0, 0), math.QuaternionIdentity(), math.NewVec3(2, 2, 2))
	out := b.Transform(m)
	assert.True(t, out.Min.ApproxEqual(math.NewVec3(8, -2, -2), eps))
	assert.True(t, out.Max.ApproxEqual(math.NewVec3(12, 4, 2), eps))
	assert.True(t, out.Center().ApproxEqual(math.NewVec3(10, 1, 0), eps))
}
