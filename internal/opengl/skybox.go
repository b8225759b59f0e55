package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"island-demo/math"
	"island-demo/scene"
)

// Skybox draws a cube map behind the scene using an inverted unit cube.
// The vertex shader uses the xyww trick (gl_Position.z = gl_Position.w)
// so every fragment lands at NDC depth 1.0, behind all geometry.
type Skybox struct {
	vao  uint32
	vbo  uint32
	prog uint32

	vpLoc  int32
	envLoc int32
}

const skyVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4 skyVP;

out vec3 fragDir;

void main() {
    fragDir = inPosition;
    vec4 pos = skyVP * vec4(inPosition, 1.0);
    gl_Position = pos.xyww;
}
` + "\x00"

// Output stays linear; the tone-map pass encodes to sRGB.
const skyFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform samplerCube envMap;

void main() {
    outColor = vec4(texture(envMap, fragDir).rgb, 1.0);
}
` + "\x00"

// 36 positions (xyz) for a unit cube, CCW from the outside.
// Face culling is disabled during draw so we see the inside faces.
var skyboxVerts = []float32{
	// -Z
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	// +Z
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	// -X
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	// +X
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	// -Y
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	// +Y
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

// NewSkybox compiles the sky shader and uploads the cube geometry.
func NewSkybox() (*Skybox, error) {
	prog, err := newProgram(skyVertSrc, skyFragSrc)
	if err != nil {
		return nil, fmt.Errorf("skybox shader: %w", err)
	}

	sb := &Skybox{
		prog:   prog,
		vpLoc:  gl.GetUniformLocation(prog, gl.Str("skyVP\x00")),
		envLoc: gl.GetUniformLocation(prog, gl.Str("envMap\x00")),
	}
	gl.UseProgram(prog)
	gl.Uniform1i(sb.envLoc, 0)

	gl.GenVertexArrays(1, &sb.vao)
	gl.GenBuffers(1, &sb.vbo)
	gl.BindVertexArray(sb.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, sb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(skyboxVerts)*4, gl.Ptr(skyboxVerts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	return sb, nil
}

// Draw renders the cube map. view keeps its translation; it is stripped
// here so the sky appears infinitely far away.
func (sb *Skybox) Draw(cube *scene.CubeTexture, view, proj math.Mat4) {
	if cube == nil || cube.GLID == 0 {
		return
	}
	view[3][0] = 0
	view[3][1] = 0
	view[3][2] = 0
	skyVP := view.Mul(proj)

	// LEQUAL so depth=1.0 passes against the cleared depth; no depth writes.
	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(false)
	gl.Disable(gl.CULL_FACE)

	gl.UseProgram(sb.prog)
	gl.UniformMatrix4fv(sb.vpLoc, 1, false, (*float32)(unsafe.Pointer(&skyVP[0][0])))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, cube.GLID)

	gl.BindVertexArray(sb.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.DepthFunc(gl.LESS)
}

// Destroy frees all GPU resources owned by this skybox.
func (sb *Skybox) Destroy() {
	gl.DeleteVertexArrays(1, &sb.vao)
	gl.DeleteBuffers(1, &sb.vbo)
	gl.DeleteProgram(sb.prog)
}
