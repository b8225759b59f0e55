package controls

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"island-demo/core"
	"island-demo/math"
	"island-demo/scene"
)

const eps = 1e-4

func newTestOrbit() *Orbit {
	cam := scene.NewCamera(math.DegToRad(75), 1, 0.1, 100)
	cam.SetPosition(math.NewVec3(0, 3, 2))
	o := NewOrbit(cam)
	o.Target = math.Vec3Zero
	o.SetViewport(800, 600)
	return o
}

func azimuth(o *Orbit) float32 {
	return sphericalFromOffset(o.Camera.Position.Sub(o.Target)).Theta
}

func TestSphericalRoundTrip(t *testing.T) {
	v := math.NewVec3(1, 0.5, 0.75)
	got := sphericalFromOffset(v).offset()
	assert.True(t, got.ApproxEqual(v, eps), "got %v", got)
}

func TestUpdateWithoutInputKeepsCamera(t *testing.T) {
	o := newTestOrbit()
	o.EnableDamping = true
	before := o.Camera.Position

	moved := o.Update()
	assert.False(t, moved)
	assert.True(t, o.Camera.Position.ApproxEqual(before, eps))
	assert.Equal(t, o.Target, o.Camera.Target)
}

func TestDampingDecaysGeometrically(t *testing.T) {
	o := newTestOrbit()
	o.EnableDamping = true
	o.Rotate(-1, 0)

	start := azimuth(o)
	o.Update()
	first := azimuth(o) - start
	o.Update()
	second := azimuth(o) - start - first

	assert.InDelta(t, 0.05, first, eps)
	assert.InDelta(t, 0.05*0.95, second, eps)
	assert.InDelta(t, 0.95*0.95, o.sphericalDelta.Theta, eps)
}

func TestWithoutDampingDeltasApplyAtOnce(t *testing.T) {
	o := newTestOrbit()
	o.Rotate(-0.5, 0)
	start := azimuth(o)
	o.Update()
	assert.InDelta(t, 0.5, azimuth(o)-start, eps)
	assert.Equal(t, spherical{}, o.sphericalDelta)
}

func TestPolarAngleIsClamped(t *testing.T) {
	o := newTestOrbit()
	o.Rotate(0, 10)
	o.Update()

	s := sphericalFromOffset(o.Camera.Position.Sub(o.Target))
	assert.Less(t, s.Phi, float32(0.01))
	assert.InDelta(t, math32.Sqrt(13), s.Radius, eps)
	assert.False(t, math32.IsNaN(o.Camera.Position.X))
	assert.InDelta(t, math32.Sqrt(13), o.Camera.Position.Y, eps)
}

func TestScrollZooms(t *testing.T) {
	o := newTestOrbit()
	o.MinDistance = 1
	before := o.Camera.Position.Length()

	o.Scroll(1)
	o.Update()
	assert.InDelta(t, before*0.95, o.Camera.Position.Length(), eps)

	o.Scroll(-1)
	o.Update()
	assert.InDelta(t, before, o.Camera.Position.Length(), eps)
}

func TestDragRotatesOnlyWhilePressed(t *testing.T) {
	o := newTestOrbit()
	o.CursorMoved(100, 100)
	o.CursorMoved(200, 100)
	assert.Equal(t, spherical{}, o.sphericalDelta)

	o.MouseButton(core.MouseButtonLeft, core.Press)
	o.CursorMoved(160, 100)
	assert.InDelta(t, 2*math32.Pi*40/600, o.sphericalDelta.Theta, eps)

	o.MouseButton(core.MouseButtonLeft, core.Release)
	o.CursorMoved(0, 0)
	assert.InDelta(t, 2*math32.Pi*40/600, o.sphericalDelta.Theta, eps)
}

func TestRightDragPansTarget(t *testing.T) {
	o := newTestOrbit()
	o.CursorMoved(0, 0)
	o.MouseButton(core.MouseButtonRight, core.Press)
	o.CursorMoved(50, 0)
	o.Update()

	// Dragging right slides the target towards -X for a camera facing -Z.
	assert.Less(t, o.Target.X, float32(0))
	assert.InDelta(t, 0, o.Target.Y, eps)
}
