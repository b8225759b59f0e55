package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// PostProcessFBO is the HDR off-screen render target. The scene renders
// into FBO (multisampled when Samples > 1), is resolved into ColorTex and
// tone mapped onto the default framebuffer.
type PostProcessFBO struct {
	FBO      uint32 // scene render target
	ColorRB  uint32 // multisampled RGBA16F colour (Samples > 1 only)
	DepthRB  uint32 // depth renderbuffer
	Width    int32
	Height   int32
	Samples  int32

	// Single-sample resolve target sampled by the tone-map pass.
	resolveFBO uint32
	ColorTex   uint32

	prog    uint32
	hdrLoc  int32
	expLoc  int32
	quadVAO uint32 // empty VAO for the fullscreen triangle

	Exposure float32
}

// ppVertSrc draws a fullscreen triangle from gl_VertexID.
const ppVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

// ppFragSrc: exposure, ACES filmic tone mapping, sRGB encode.
const ppFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D hdrBuffer;
uniform float     exposure;

// Narkowicz ACES fit.
vec3 acesFilm(vec3 x) {
    const float a = 2.51;
    const float b = 0.03;
    const float c = 2.43;
    const float d = 0.59;
    const float e = 0.14;
    return clamp((x * (a * x + b)) / (x * (c * x + d) + e), 0.0, 1.0);
}

vec3 linearToSRGB(vec3 c) {
    vec3 lo = c * 12.92;
    vec3 hi = 1.055 * pow(c, vec3(1.0 / 2.4)) - 0.055;
    return mix(lo, hi, step(vec3(0.0031308), c));
}

void main() {
    vec3 hdr = texture(hdrBuffer, fragUV).rgb;
    vec3 mapped = acesFilm(hdr * exposure);
    outColor = vec4(linearToSRGB(mapped), 1.0);
}
` + "\x00"

func NewPostProcessFBO(width, height, samples int) (*PostProcessFBO, error) {
	pp := &PostProcessFBO{Exposure: 1.0, Samples: int32(samples)}
	if pp.Samples < 1 {
		pp.Samples = 1
	}

	prog, err := newProgram(ppVertSrc, ppFragSrc)
	if err != nil {
		return nil, fmt.Errorf("post-process shader: %w", err)
	}
	pp.prog = prog
	pp.hdrLoc = gl.GetUniformLocation(prog, gl.Str("hdrBuffer\x00"))
	pp.expLoc = gl.GetUniformLocation(prog, gl.Str("exposure\x00"))

	gl.UseProgram(prog)
	gl.Uniform1i(pp.hdrLoc, 0)

	gl.GenVertexArrays(1, &pp.quadVAO)

	if err := pp.allocFBO(width, height); err != nil {
		pp.Destroy()
		return nil, err
	}
	return pp, nil
}

func (pp *PostProcessFBO) allocFBO(width, height int) error {
	pp.Width = int32(max(width, 1))
	pp.Height = int32(max(height, 1))

	gl.GenTextures(1, &pp.ColorTex)
	gl.BindTexture(gl.TEXTURE_2D, pp.ColorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F,
		pp.Width, pp.Height, 0, gl.RGBA, gl.HALF_FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenRenderbuffers(1, &pp.DepthRB)
	gl.BindRenderbuffer(gl.RENDERBUFFER, pp.DepthRB)
	if pp.Samples > 1 {
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, pp.Samples, gl.DEPTH_COMPONENT24, pp.Width, pp.Height)
	} else {
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, pp.Width, pp.Height)
	}

	gl.GenFramebuffers(1, &pp.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, pp.FBO)
	if pp.Samples > 1 {
		gl.GenRenderbuffers(1, &pp.ColorRB)
		gl.BindRenderbuffer(gl.RENDERBUFFER, pp.ColorRB)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, pp.Samples, gl.RGBA16F, pp.Width, pp.Height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, pp.ColorRB)
	} else {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, pp.ColorTex, 0)
	}
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, pp.DepthRB)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fmt.Errorf("HDR FBO incomplete (0x%X)", s)
	}

	if pp.Samples > 1 {
		gl.GenFramebuffers(1, &pp.resolveFBO)
		gl.BindFramebuffer(gl.FRAMEBUFFER, pp.resolveFBO)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, pp.ColorTex, 0)
		if s := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); s != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return fmt.Errorf("resolve FBO incomplete (0x%X)", s)
		}
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func (pp *PostProcessFBO) freeFBO() {
	for _, fbo := range []*uint32{&pp.FBO, &pp.resolveFBO} {
		if *fbo != 0 {
			gl.DeleteFramebuffers(1, fbo)
			*fbo = 0
		}
	}
	for _, rb := range []*uint32{&pp.ColorRB, &pp.DepthRB} {
		if *rb != 0 {
			gl.DeleteRenderbuffers(1, rb)
			*rb = 0
		}
	}
	if pp.ColorTex != 0 {
		gl.DeleteTextures(1, &pp.ColorTex)
		pp.ColorTex = 0
	}
}

// Resize recreates the render targets at the new pixel dimensions.
func (pp *PostProcessFBO) Resize(width, height int) error {
	if int32(width) == pp.Width && int32(height) == pp.Height {
		return nil
	}
	pp.freeFBO()
	return pp.allocFBO(width, height)
}

// Destroy frees all GPU resources owned by this object.
func (pp *PostProcessFBO) Destroy() {
	pp.freeFBO()
	if pp.prog != 0 {
		gl.DeleteProgram(pp.prog)
		pp.prog = 0
	}
	if pp.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &pp.quadVAO)
		pp.quadVAO = 0
	}
}

// Bind makes the HDR target current for scene rendering.
func (pp *PostProcessFBO) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, pp.FBO)
	gl.Viewport(0, 0, pp.Width, pp.Height)
}

// Blit resolves the HDR target and tone maps it onto the default
// framebuffer, scaled to outW×outH.
func (pp *PostProcessFBO) Blit(outW, outH int32) {
	if pp.Samples > 1 {
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, pp.FBO)
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, pp.resolveFBO)
		gl.BlitFramebuffer(0, 0, pp.Width, pp.Height, 0, 0, pp.Width, pp.Height,
			gl.COLOR_BUFFER_BIT, gl.NEAREST)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, outW, outH)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)

	gl.UseProgram(pp.prog)
	gl.Uniform1f(pp.expLoc, pp.Exposure)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, pp.ColorTex)
	gl.BindVertexArray(pp.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
}
