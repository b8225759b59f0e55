package scene

import (
	"github.com/chewxy/math32"

	"island-demo/core"
	"island-demo/math"
)

// Scene owns the node graph and everything needed to draw it.
type Scene struct {
	Root   *Node
	Camera *Camera
	Lights []*DirectionalLight

	// Background is drawn behind all geometry; Environment feeds
	// image-based lighting. Either may be nil.
	Background  *CubeTexture
	Environment *CubeTexture
	ClearColor  core.Color
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		Lights:     make([]*DirectionalLight, 0),
		ClearColor: core.ColorBlack,
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

func (s *Scene) AddLight(light *DirectionalLight) {
	s.Lights = append(s.Lights, light)
}

// ShadowLight returns the first shadow-casting light, or nil.
func (s *Scene) ShadowLight() *DirectionalLight {
	for _, l := range s.Lights {
		if l.CastShadow {
			return l
		}
	}
	return nil
}

// GetVisibleNodes returns all nodes with meshes that are visible
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		if !node.Visible {
			return
		}
		if node.Mesh != nil {
			visible = append(visible, node)
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(s.Root)
	return visible
}

// LightShadow describes the orthographic shadow camera of a directional
// light in the light's view space.
type LightShadow struct {
	Left, Right, Top, Bottom float32
	Near, Far                float32
	NormalBias               float32
	MapSize                  int
}

// DirectionalLight shines from Position towards Target.
type DirectionalLight struct {
	Color      core.Color
	Intensity  float32
	Position   math.Vec3
	Target     math.Vec3
	CastShadow bool
	Shadow     LightShadow
}

func NewDirectionalLight(color core.Color, intensity float32) *DirectionalLight {
	return &DirectionalLight{
		Color:     color,
		Intensity: intensity,
		Position:  math.Vec3Up,
		Shadow: LightShadow{
			Left: -5, Right: 5, Top: 5, Bottom: -5,
			Near: 0.5, Far: 500,
			MapSize: 512,
		},
	}
}

// Direction is the unit vector the light travels along.
func (l *DirectionalLight) Direction() math.Vec3 {
	d := l.Target.Sub(l.Position)
	if d.LengthSqr() == 0 {
		return math.Vec3Down
	}
	return d.Normalize()
}

// ShadowViewProj returns the light-space view-projection matrix.
func (l *DirectionalLight) ShadowViewProj() math.Mat4 {
	up := math.Vec3Up
	dir := l.Direction()
	if math32.Abs(dir.Dot(up)) > 0.999 {
		up = math.Vec3Front
	}
	view := math.Mat4LookAt(l.Position, l.Position.Add(dir), up)
	sh := l.Shadow
	proj := math.Mat4Orthographic(sh.Left, sh.Right, sh.Bottom, sh.Top, sh.Near, sh.Far)
	return view.Mul(proj)
}
