package world

import (
	"island-demo/config"
	"island-demo/controls"
	"island-demo/math"
	"island-demo/scene"
)

// Surface is the render target whose size follows the window.
type Surface interface {
	SetSize(width, height int)
	SetPixelRatio(ratio float32)
}

// CameraRig is the perspective camera and the orbit controls around it.
// Once the character exists the rig trails it at fixed offsets.
type CameraRig struct {
	Camera   *scene.Camera
	Controls *controls.Orbit

	PositionOffset math.Vec3
	TargetOffset   math.Vec3
	MaxPixelRatio  float32
}

func NewCameraRig(cfg *config.Config, width, height int) *CameraRig {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	cam := scene.NewCamera(math.DegToRad(cfg.Camera.FOV), aspect, cfg.Camera.Near, cfg.Camera.Far)
	cam.SetPosition(cfg.Camera.Position.Vec())

	orbit := controls.NewOrbit(cam)
	orbit.EnableDamping = cfg.Controls.Damping
	orbit.DampingFactor = cfg.Controls.DampingFactor
	orbit.SetViewport(width, height)

	return &CameraRig{
		Camera:         cam,
		Controls:       orbit,
		PositionOffset: cfg.Rig.PositionOffset.Vec(),
		TargetOffset:   cfg.Rig.TargetOffset.Vec(),
		MaxPixelRatio:  cfg.Renderer.MaxPixelRatio,
	}
}

// Resync moves the camera and the orbit target to their offsets from p and
// refreshes the controls.
func (r *CameraRig) Resync(p math.Vec3) {
	r.Camera.SetPosition(p.Add(r.PositionOffset))
	r.Controls.Target = p.Add(r.TargetOffset)
	r.Controls.Update()
}

// Update is the per-frame damping tick.
func (r *CameraRig) Update(dt float32) {
	r.Controls.Update()
}

// Resize applies a new window size: aspect, projection, render target size
// and a pixel ratio capped at MaxPixelRatio.
func (r *CameraRig) Resize(width, height int, dpr float32, s Surface) {
	r.Camera.UpdateAspectRatio(float32(width), float32(height))
	r.Controls.SetViewport(width, height)
	s.SetSize(width, height)
	s.SetPixelRatio(min(dpr, r.MaxPixelRatio))
}
