package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Texture holds CPU-side pixel data for a 2D texture.
// GLID is set by the OpenGL backend after upload; do not access directly.
type Texture struct {
	Name   string
	Width  int
	Height int
	// Pixels in RGBA8 format (4 bytes per pixel, row-major, top-to-bottom).
	Pixels []byte
	// SRGB marks color data that must be linearized when sampled.
	SRGB bool
	// GLID is the OpenGL texture object ID, set by opengl.UploadTexture.
	GLID uint32
}

// LoadTexture reads an image file from disk and returns a CPU-side Texture.
// PNG, JPEG, BMP and WebP are supported.
func LoadTexture(path string) (*Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	return DecodeTexture(path, data)
}

// DecodeTexture decodes encoded image bytes into an RGBA8 texture.
func DecodeTexture(name string, data []byte) (*Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", name, err)
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*bounds.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	}

	return &Texture{
		Name:   name,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}, nil
}

// CubeFace indexes the six faces of a cube texture in GL order.
type CubeFace int

const (
	CubePosX CubeFace = iota
	CubeNegX
	CubePosY
	CubeNegY
	CubePosZ
	CubeNegZ
)

// CubeTexture is a six-face environment map.
type CubeTexture struct {
	Faces [6]*Texture
	GLID  uint32
}

// LoadCubeTexture loads the faces in +X, -X, +Y, -Y, +Z, -Z order. All
// faces must be square and share one size.
func LoadCubeTexture(paths [6]string) (*CubeTexture, error) {
	cube := &CubeTexture{}
	for i, p := range paths {
		tex, err := LoadTexture(p)
		if err != nil {
			return nil, fmt.Errorf("cube face %d: %w", i, err)
		}
		tex.SRGB = true
		cube.Faces[i] = tex
	}
	size := cube.Faces[0].Width
	for i, f := range cube.Faces {
		if f.Width != size || f.Height != size {
			return nil, fmt.Errorf("cube face %d is %dx%d, want %dx%d", i, f.Width, f.Height, size, size)
		}
	}
	return cube, nil
}
