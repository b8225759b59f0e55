package scene

import (
	"island-demo/math"
)

// Camera is a perspective camera that looks from Position towards Target.
type Camera struct {
	Position    math.Vec3
	Target      math.Vec3
	Up          math.Vec3
	FOV         float32 // vertical, radians
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	viewMatrix       math.Mat4
	projectionMatrix math.Mat4
	dirty            bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Position:    math.Vec3Front,
		Target:      math.Vec3Zero,
		Up:          math.Vec3Up,
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

// UpdateAspectRatio sets the aspect to width/height and recomputes the
// projection. A zero height is ignored.
func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
		c.dirty = true
	}
}

func (c *Camera) SetPosition(pos math.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) LookAt(target math.Vec3) {
	c.Target = target
	c.dirty = true
}

func (c *Camera) GetViewMatrix() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

func (c *Camera) GetProjectionMatrix() math.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projectionMatrix
}

func (c *Camera) GetViewProjectionMatrix() math.Mat4 {
	return c.GetViewMatrix().Mul(c.GetProjectionMatrix())
}

func (c *Camera) GetForward() math.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

func (c *Camera) updateMatrices() {
	c.viewMatrix = math.Mat4LookAt(c.Position, c.Target, c.Up)
	c.projectionMatrix = math.Mat4Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
	c.dirty = false
}
