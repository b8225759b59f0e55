package world

import (
	"github.com/chewxy/math32"

	"island-demo/math"
)

// AirplanePosition is the airplane's circular flight path: radius 2 around
// (4, y, 1), one lap every 2π seconds.
func AirplanePosition(t, y float32) math.Vec3 {
	return math.NewVec3(4+math32.Sin(t)*2, y, 1+math32.Cos(t)*2)
}

// CrabX oscillates between -5 and 1.
func CrabX(t float32) float32 {
	return math32.Sin(t+2)*3 - 2
}

// FoxYaw spins the fox once every 2π seconds.
func FoxYaw(t float32) float32 {
	return t
}

// AnimationDriver moves the ambient models as pure functions of elapsed
// time, advances the character animation and re-skins the ambient
// models.
type AnimationDriver struct {
	State *State
}

func (d *AnimationDriver) Update(t, dt float32) {
	s := d.State
	if s.Character != nil && s.Character.Mixer != nil {
		s.Character.Mixer.Update(dt)
	}
	if s.Airplane != nil {
		s.Airplane.SetPosition(AirplanePosition(t, s.Airplane.Transform.Position.Y))
	}
	if s.Crab != nil {
		p := s.Crab.Transform.Position
		p.X = CrabX(t)
		s.Crab.SetPosition(p)
	}
	if s.Fox != nil {
		s.Fox.SetRotationY(FoxYaw(t))
	}
	s.ApplySkins()
}
