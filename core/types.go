package core

import (
	"island-demo/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// ColorFromHex converts 0xRRGGBB into an opaque color.
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float32(hex>>16&0xff) / 255,
		G: float32(hex>>8&0xff) / 255,
		B: float32(hex&0xff) / 255,
		A: 1,
	}
}

// Vertex is the interleaved layout uploaded to the GPU. The tangent W
// component carries the bitangent sign.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
	Color    Color
	Tangent  math.Vec4
}

type Transform struct {
	Position math.Vec3
	Rotation math.Quaternion
	Scale    math.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: math.Vec3Zero,
		Rotation: math.QuaternionIdentity(),
		Scale:    math.Vec3One,
	}
}

// GetMatrix returns the local matrix: scale, then rotate, then translate.
func (t Transform) GetMatrix() math.Mat4 {
	return math.Mat4TRS(t.Position, t.Rotation, t.Scale)
}

func (t Transform) GetForward() math.Vec3 {
	return t.Rotation.RotateVector(math.Vec3Back)
}
