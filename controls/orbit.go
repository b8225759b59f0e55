// Package controls implements camera controllers driven by mouse input.
package controls

import (
	"github.com/chewxy/math32"

	"island-demo/core"
	"island-demo/math"
	"island-demo/scene"
)

const polarEpsilon = 1e-6

type dragState int

const (
	dragNone dragState = iota
	dragRotate
	dragPan
)

// spherical holds a radius, a polar angle from +Y and an azimuth about +Y
// measured from +Z.
type spherical struct {
	Radius, Phi, Theta float32
}

func sphericalFromOffset(v math.Vec3) spherical {
	r := v.Length()
	if r == 0 {
		return spherical{}
	}
	return spherical{
		Radius: r,
		Theta:  math32.Atan2(v.X, v.Z),
		Phi:    math32.Acos(math.Clamp(v.Y/r, -1, 1)),
	}
}

func (s spherical) offset() math.Vec3 {
	sinPhi := math32.Sin(s.Phi) * s.Radius
	return math.NewVec3(sinPhi*math32.Sin(s.Theta), math32.Cos(s.Phi)*s.Radius, sinPhi*math32.Cos(s.Theta))
}

// Orbit rotates a camera around Target. With damping enabled, input is
// accumulated as deltas that are applied and decayed by DampingFactor on
// every Update, which must therefore run once per frame.
type Orbit struct {
	Camera *scene.Camera
	Target math.Vec3

	EnableDamping bool
	DampingFactor float32
	RotateSpeed   float32
	ZoomSpeed     float32
	PanSpeed      float32

	MinDistance   float32
	MaxDistance   float32
	MinPolarAngle float32
	MaxPolarAngle float32

	sphericalDelta spherical
	panOffset      math.Vec3
	scale          float32

	state          dragState
	lastX, lastY   float64
	havePointer    bool
	viewportHeight float32
}

func NewOrbit(camera *scene.Camera) *Orbit {
	return &Orbit{
		Camera:         camera,
		Target:         camera.Target,
		DampingFactor:  0.05,
		RotateSpeed:    1,
		ZoomSpeed:      1,
		PanSpeed:       1,
		MinDistance:    0,
		MaxDistance:    math32.Inf(1),
		MinPolarAngle:  0,
		MaxPolarAngle:  math32.Pi,
		scale:          1,
		viewportHeight: 1,
	}
}

// SetViewport records the window height used to turn pixel drags into
// angles and distances.
func (o *Orbit) SetViewport(width, height int) {
	if height > 0 {
		o.viewportHeight = float32(height)
	}
}

// Update applies pending rotation, zoom and pan, repositions the camera on
// its sphere around Target and looks at Target. It reports whether the
// camera moved.
func (o *Orbit) Update() bool {
	before := o.Camera.Position
	offset := o.Camera.Position.Sub(o.Target)
	s := sphericalFromOffset(offset)

	factor := float32(1)
	if o.EnableDamping {
		factor = o.DampingFactor
	}
	s.Theta += o.sphericalDelta.Theta * factor
	s.Phi += o.sphericalDelta.Phi * factor
	s.Phi = math.Clamp(s.Phi, o.MinPolarAngle, o.MaxPolarAngle)
	s.Phi = math.Clamp(s.Phi, polarEpsilon, math32.Pi-polarEpsilon)
	s.Radius = math.Clamp(s.Radius*o.scale, o.MinDistance, o.MaxDistance)

	o.Target = o.Target.Add(o.panOffset.Mul(factor))

	o.Camera.SetPosition(o.Target.Add(s.offset()))
	o.Camera.LookAt(o.Target)

	if o.EnableDamping {
		o.sphericalDelta.Theta *= 1 - o.DampingFactor
		o.sphericalDelta.Phi *= 1 - o.DampingFactor
		o.panOffset = o.panOffset.Mul(1 - o.DampingFactor)
	} else {
		o.sphericalDelta = spherical{}
		o.panOffset = math.Vec3Zero
	}
	o.scale = 1

	return o.Camera.Position.Distance(before) > 1e-6
}

// Rotate queues an azimuth and polar change in radians.
func (o *Orbit) Rotate(left, up float32) {
	o.sphericalDelta.Theta -= left
	o.sphericalDelta.Phi -= up
}

// Dolly queues a radius multiplier; values below one move closer.
func (o *Orbit) Dolly(scale float32) {
	if scale > 0 {
		o.scale *= scale
	}
}

// Pan queues a screen-space pan of dx, dy pixels.
func (o *Orbit) Pan(dx, dy float32) {
	offset := o.Camera.Position.Sub(o.Target)
	distance := offset.Length() * math32.Tan(o.Camera.FOV/2)

	forward := o.Camera.GetForward()
	right := forward.Cross(o.Camera.Up).Normalize()
	up := right.Cross(forward)

	left := right.Mul(-2 * dx * distance / o.viewportHeight)
	vertical := up.Mul(2 * dy * distance / o.viewportHeight)
	o.panOffset = o.panOffset.Add(left.Add(vertical).Mul(o.PanSpeed))
}

// MouseButton starts or ends a drag: left rotates, right pans.
func (o *Orbit) MouseButton(button core.MouseButton, action core.Action) {
	if action == core.Release {
		o.state = dragNone
		return
	}
	switch button {
	case core.MouseButtonLeft:
		o.state = dragRotate
	case core.MouseButtonRight, core.MouseButtonMiddle:
		o.state = dragPan
	}
}

// CursorMoved feeds pointer motion while a drag is active.
func (o *Orbit) CursorMoved(x, y float64) {
	dx := float32(x - o.lastX)
	dy := float32(y - o.lastY)
	o.lastX, o.lastY = x, y
	if !o.havePointer {
		o.havePointer = true
		return
	}

	switch o.state {
	case dragRotate:
		o.Rotate(2*math32.Pi*dx/o.viewportHeight*o.RotateSpeed, 2*math32.Pi*dy/o.viewportHeight*o.RotateSpeed)
	case dragPan:
		o.Pan(dx, dy)
	}
}

// Scroll zooms in for positive offsets.
func (o *Orbit) Scroll(yoff float64) {
	zoom := math32.Pow(0.95, o.ZoomSpeed)
	switch {
	case yoff > 0:
		o.Dolly(zoom)
	case yoff < 0:
		o.Dolly(1 / zoom)
	}
}
