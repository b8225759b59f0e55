package scene

import "island-demo/core"

// AlphaMode follows the glTF alpha modes.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// Material describes surface appearance properties for a mesh.
// UsePBR selects the metallic-roughness model; otherwise the surface is
// shaded as a simple Blinn-Phong material, or not at all when Unlit.
type Material struct {
	Name      string
	Albedo    core.Color // multiplied with AlbedoTexture if set
	Specular  core.Color // Blinn-Phong only
	Shininess float32    // Blinn-Phong only
	Unlit     bool

	UsePBR        bool
	Metallic      float32
	Roughness     float32
	EmissiveColor core.Color

	// EnvMapIntensity scales the image-based light taken from the scene
	// environment map.
	EnvMapIntensity float32

	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool

	// Textures are decoded on the CPU and uploaded by the renderer the
	// first time the material is drawn, or again after NeedsUpdate is set.
	AlbedoTexture *Texture
	// Tangent-space normal map.
	NormalTexture *Texture
	// glTF convention: G = roughness, B = metallic.
	MetallicRoughnessTexture *Texture
	EmissiveTexture          *Texture

	// NeedsUpdate asks the renderer to re-upload the material's textures
	// and refresh its shading state. The renderer clears it.
	NeedsUpdate bool
}

// Textures returns the material's non-nil textures.
func (m *Material) Textures() []*Texture {
	var out []*Texture
	for _, t := range []*Texture{m.AlbedoTexture, m.NormalTexture, m.MetallicRoughnessTexture, m.EmissiveTexture} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// DefaultMaterial returns a plain white matte Phong material.
func DefaultMaterial() *Material {
	return &Material{
		Name:            "Default",
		Albedo:          core.ColorWhite,
		Specular:        core.Color{R: 0.3, G: 0.3, B: 0.3, A: 1},
		Shininess:       32,
		Roughness:       0.5,
		EnvMapIntensity: 1,
		AlphaCutoff:     0.5,
	}
}

// NewPBRMaterial creates a PBR material with the given albedo, metallic, and roughness.
func NewPBRMaterial(name string, albedo core.Color, metallic, roughness float32) *Material {
	return &Material{
		Name:            name,
		Albedo:          albedo,
		Metallic:        metallic,
		Roughness:       roughness,
		UsePBR:          true,
		EnvMapIntensity: 1,
		AlphaCutoff:     0.5,
	}
}
