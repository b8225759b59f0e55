package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"island-demo/scene"
)

// internalFormat picks the GL storage format; sRGB textures are linearized
// by the sampler.
func internalFormat(tex *scene.Texture) int32 {
	if tex.SRGB {
		return gl.SRGB8_ALPHA8
	}
	return gl.RGBA8
}

// UploadTexture uploads a scene.Texture to the GPU and sets its GLID field.
// Uploading an already uploaded texture replaces its contents.
// Call this from the main goroutine (OpenGL context must be current).
func UploadTexture(tex *scene.Texture) error {
	if tex == nil {
		return fmt.Errorf("nil texture")
	}
	if len(tex.Pixels) < tex.Width*tex.Height*4 || tex.Width == 0 {
		return fmt.Errorf("texture %q has no pixel data", tex.Name)
	}

	if tex.GLID == 0 {
		gl.GenTextures(1, &tex.GLID)
	}
	gl.BindTexture(gl.TEXTURE_2D, tex.GLID)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		internalFormat(tex),
		int32(tex.Width),
		int32(tex.Height),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		unsafe.Pointer(&tex.Pixels[0]),
	)
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// UploadCubeTexture uploads the six faces of an environment map and sets
// its GLID. Mipmaps are generated so rough surfaces can sample blurred
// levels.
func UploadCubeTexture(cube *scene.CubeTexture) error {
	if cube == nil {
		return fmt.Errorf("nil cube texture")
	}
	for i, f := range cube.Faces {
		if f == nil || len(f.Pixels) < f.Width*f.Height*4 || f.Width == 0 {
			return fmt.Errorf("cube face %d has no pixel data", i)
		}
	}

	if cube.GLID == 0 {
		gl.GenTextures(1, &cube.GLID)
	}
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, cube.GLID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for i, f := range cube.Faces {
		gl.TexImage2D(
			gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i),
			0,
			internalFormat(f),
			int32(f.Width),
			int32(f.Height),
			0,
			gl.RGBA,
			gl.UNSIGNED_BYTE,
			unsafe.Pointer(&f.Pixels[0]),
		)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return nil
}

// cubeMipLevels is the number of mip levels below the base of a cube map.
func cubeMipLevels(cube *scene.CubeTexture) float32 {
	size := cube.Faces[0].Width
	levels := 0
	for size > 1 {
		size >>= 1
		levels++
	}
	return float32(levels)
}

// DeleteTexture frees a previously uploaded GPU texture and zeroes its GLID.
func DeleteTexture(tex *scene.Texture) {
	if tex == nil || tex.GLID == 0 {
		return
	}
	gl.DeleteTextures(1, &tex.GLID)
	tex.GLID = 0
}

// DeleteCubeTexture frees an uploaded environment map.
func DeleteCubeTexture(cube *scene.CubeTexture) {
	if cube == nil || cube.GLID == 0 {
		return
	}
	gl.DeleteTextures(1, &cube.GLID)
	cube.GLID = 0
}
