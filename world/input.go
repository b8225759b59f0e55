package world

import (
	"log/slog"

	"island-demo/core"
	"island-demo/math"
)

// Binding is what one movement key does.
type Binding struct {
	Direction string
	Delta     math.Vec3
}

// DefaultBindings maps W/A/S/D to single steps along -Z/-X/+Z/+X.
func DefaultBindings(step float32) map[core.Key]Binding {
	return map[core.Key]Binding{
		core.KeyA: {Direction: "left", Delta: math.NewVec3(-step, 0, 0)},
		core.KeyS: {Direction: "backward", Delta: math.NewVec3(0, 0, step)},
		core.KeyD: {Direction: "right", Delta: math.NewVec3(step, 0, 0)},
		core.KeyW: {Direction: "forward", Delta: math.NewVec3(0, 0, -step)},
	}
}

// InputController moves the character one step per key event. Holding a
// key relies on the platform's key repeat.
type InputController struct {
	State    *State
	Rig      *CameraRig
	Bindings map[core.Key]Binding
}

func NewInputController(state *State, rig *CameraRig, step float32) *InputController {
	return &InputController{State: state, Rig: rig, Bindings: DefaultBindings(step)}
}

// HandleKey reports whether the event moved the character.
func (c *InputController) HandleKey(key core.Key, action core.Action) bool {
	if action == core.Release {
		return false
	}
	b, ok := c.Bindings[key]
	if !ok || c.State.Character == nil {
		return false
	}

	node := c.State.Character.Node
	node.Translate(b.Delta)
	slog.Debug("character moved", "direction", b.Direction, "position", node.Transform.Position)
	c.Rig.Resync(node.Transform.Position)
	return true
}
