package world

import (
	"path/filepath"

	"island-demo/assets"
	"island-demo/config"
	"island-demo/scene"
)

// NewScene builds an empty scene lit by the configured directional light.
func NewScene(cfg *config.Config) (*scene.Scene, *scene.DirectionalLight) {
	s := scene.NewScene()

	l := cfg.Light
	light := scene.NewDirectionalLight(l.RGB(), l.Intensity)
	light.Position = l.Position.Vec()
	light.CastShadow = l.CastShadow
	light.Shadow = scene.LightShadow{
		Left:       l.Shadow.Left,
		Right:      l.Shadow.Right,
		Top:        l.Shadow.Top,
		Bottom:     l.Shadow.Bottom,
		Near:       l.Shadow.Near,
		Far:        l.Shadow.Far,
		NormalBias: l.Shadow.NormalBias,
		MapSize:    l.Shadow.MapSize,
	}
	s.AddLight(light)
	return s, light
}

// RequestAssets starts one load per configured asset. Each completion binds
// its model into state; failures leave the slot empty.
func RequestAssets(loader *assets.Loader, state *State, dir string) {
	for _, a := range state.Config.Assets {
		kind := a.Kind
		path := filepath.Join(dir, filepath.FromSlash(a.Path))
		assets.Request(loader, string(kind), func() (*scene.Model, error) {
			return scene.LoadGLTF(path)
		}, func(m *scene.Model) {
			state.Bind(kind, m)
		})
	}
}

// RequestEnvironment loads the cube map used as both background and
// environment light.
func RequestEnvironment(loader *assets.Loader, s *scene.Scene, dir string, env config.Environment) {
	var paths [6]string
	for i := range paths {
		if i < len(env.Faces) {
			paths[i] = filepath.Join(dir, filepath.FromSlash(env.Dir), env.Faces[i])
		}
	}
	assets.Request(loader, "environment", func() (*scene.CubeTexture, error) {
		return scene.LoadCubeTexture(paths)
	}, func(cube *scene.CubeTexture) {
		s.Background = cube
		s.Environment = cube
	})
}
