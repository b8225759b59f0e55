package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"island-demo/core"
	"island-demo/math"
)

func translationTrack(n *Node, interp Interpolation) *Track {
	return &Track{
		Node:          n,
		Path:          PathTranslation,
		Interpolation: interp,
		Times:         []float32{0, 1, 2},
		Values:        []float32{0, 0, 0, 2, 0, 0, 2, 4, 0},
	}
}

func TestTrackSampleKeyframes(t *testing.T) {
	tr := translationTrack(NewNode("n"), InterpolationLinear)

	assert.Equal(t, []float32{0, 0, 0}, tr.Sample(0))
	assert.Equal(t, []float32{2, 0, 0}, tr.Sample(1))
	assert.Equal(t, []float32{2, 4, 0}, tr.Sample(2))
	// Clamped outside the key range.
	assert.Equal(t, []float32{0, 0, 0}, tr.Sample(-1))
	assert.Equal(t, []float32{2, 4, 0}, tr.Sample(5))
}

func TestTrackSampleLinearAndStep(t *testing.T) {
	n := NewNode("n")
	assert.InDeltaSlice(t, []float32{1, 0, 0}, translationTrack(n, InterpolationLinear).Sample(0.5), eps)
	assert.InDeltaSlice(t, []float32{2, 2, 0}, translationTrack(n, InterpolationLinear).Sample(1.5), eps)
	assert.Equal(t, []float32{0, 0, 0}, translationTrack(n, InterpolationStep).Sample(0.9))
	assert.Equal(t, []float32{2, 0, 0}, translationTrack(n, InterpolationStep).Sample(1.5))
}

func TestTrackSampleCubicSplineZeroTangents(t *testing.T) {
	tr := &Track{
		Node:          NewNode("n"),
		Path:          PathScale,
		Interpolation: InterpolationCubicSpline,
		Times:         []float32{0, 1},
		// in-tangent, value, out-tangent per key
		Values: []float32{
			0, 0, 0, 1, 1, 1, 0, 0, 0,
			0, 0, 0, 3, 3, 3, 0, 0, 0,
		},
	}
	assert.InDeltaSlice(t, []float32{1, 1, 1}, tr.Sample(0), eps)
	assert.InDeltaSlice(t, []float32{3, 3, 3}, tr.Sample(1), eps)
	// Hermite with flat tangents passes the midpoint at the average.
	assert.InDeltaSlice(t, []float32{2, 2, 2}, tr.Sample(0.5), eps)
}

func TestTrackSampleRotationSlerpStaysNormalized(t *testing.T) {
	q0 := math.QuaternionIdentity()
	q1 := math.QuaternionFromAxisAngle(math.Vec3Up, math32.Pi)
	tr := &Track{
		Node:   NewNode("n"),
		Path:   PathRotation,
		Times:  []float32{0, 1},
		Values: []float32{q0.X, q0.Y, q0.Z, q0.W, q1.X, q1.Y, q1.Z, q1.W},
	}
	for _, at := range []float32{0.1, 0.25, 0.5, 0.9} {
		v := tr.Sample(at)
		q := math.NewQuaternion(v[0], v[1], v[2], v[3])
		assert.InDelta(t, 1, q.Length(), eps)
	}
	v := tr.Sample(0.5)
	assert.InDelta(t, math32.Pi/2, math.NewQuaternion(v[0], v[1], v[2], v[3]).YawAngle(), eps)
}

func TestMixerLoopsAction(t *testing.T) {
	root := NewNode("root")
	bone := NewNode("bone")
	root.AddChild(bone)
	clip := &AnimationClip{Name: "walk", Duration: 2, Tracks: []*Track{translationTrack(bone, InterpolationLinear)}}

	mixer := NewMixer(&Model{Root: root, Animations: []*AnimationClip{clip}})
	action := mixer.ClipAction(clip)
	assert.Same(t, action, mixer.ClipAction(clip))
	assert.False(t, action.IsPlaying())

	mixer.Update(1)
	assert.Equal(t, math.Vec3Zero, bone.Transform.Position, "stopped actions do not pose")

	action.Play()
	mixer.Update(0.5)
	assert.InDelta(t, 1, bone.Transform.Position.X, eps)

	mixer.Update(2)
	assert.InDelta(t, 0.5, action.Time, eps)
	assert.InDelta(t, 1, bone.Transform.Position.X, eps)
}

func TestSkinBindingFollowsJoint(t *testing.T) {
	root := NewNode("root")
	joint := NewNode("joint")
	root.AddChild(joint)
	meshNode := NewNode("mesh")
	root.AddChild(meshNode)

	mesh := CreateMeshFromData("skinned", []core.Vertex{
		{Position: math.NewVec3(1, 0, 0), Normal: math.Vec3Up},
		{Position: math.NewVec3(0, 1, 0), Normal: math.Vec3Up},
	}, nil)
	meshNode.Mesh = mesh
	skin := NewSkinBinding(mesh, []*Node{joint}, []math.Mat4{math.Mat4Identity()},
		[][4]uint16{{0}, {0}}, [][4]float32{{1}, {0.5, 0, 0, 0}})
	require.Same(t, skin, mesh.Skin)

	root.SetPosition(math.NewVec3(0, 0, 5))
	joint.SetPosition(math.NewVec3(3, 0, 0))
	skin.Apply()

	assert.True(t, mesh.Dirty)
	assert.True(t, mesh.Vertices[0].Position.ApproxEqual(math.NewVec3(4, 0, 5), eps), "got %v", mesh.Vertices[0].Position)
	// Partial weights scale the joint matrix, so w no longer equals one.
	assert.True(t, mesh.Vertices[1].Position.ApproxEqual(math.NewVec3(3, 1, 5), eps), "got %v", mesh.Vertices[1].Position)
	assert.Equal(t, math.Mat4Identity(), meshNode.RenderMatrix())

	// Re-applying starts from the bind pose.
	skin.Apply()
	assert.True(t, mesh.Vertices[0].Position.ApproxEqual(math.NewVec3(4, 0, 5), eps))
}
