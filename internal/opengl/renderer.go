package opengl

import (
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"island-demo/core"
	"island-demo/math"
	"island-demo/scene"
)

// MaxLights is the number of directional lights the main shader evaluates.
const MaxLights = 4

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO         uint32
	VBO         uint32
	EBO         uint32
	IndexCount  int32
	VertexCount int32
	HasIndices  bool
	Dynamic     bool
}

// FrameParams is the per-frame state shared by every draw of the main pass.
type FrameParams struct {
	CameraPos math.Vec3
	Lights    []*scene.DirectionalLight

	// ShadowLight indexes Lights; -1 disables shadow lookups.
	ShadowLight int
	LightVP     math.Mat4
	NormalBias  float32

	// Environment is sampled for image-based lighting when uploaded.
	Environment *scene.CubeTexture
	// Ambient replaces the environment while it is missing.
	Ambient core.Color
}

// Renderer is the OpenGL rendering backend.
type Renderer struct {
	program uint32

	// Vertex transform uniforms
	mvpLoc           int32
	modelLoc         int32
	normalMatrixLoc  int32
	lightViewProjLoc int32
	normalBiasLoc    int32

	// Directional lights
	lightCountLoc     int32
	lightDirLoc       [MaxLights]int32
	lightColorLoc     [MaxLights]int32
	shadowLightLoc    int32
	ambientColorLoc   int32
	cameraPosLoc      int32

	// Phong material
	matAlbedoLoc    int32
	matSpecularLoc  int32
	matShininessLoc int32

	// PBR material
	usePBRLoc       int32
	matMetallicLoc  int32
	matRoughnessLoc int32
	matEmissiveLoc  int32
	envIntensityLoc int32

	// Alpha
	matOpacityLoc   int32
	alphaMaskLoc    int32
	alphaCutoffLoc  int32
	unlitLoc        int32

	// Textures
	albedoTexLoc               int32
	hasTextureLoc              int32
	normalTexLoc               int32
	hasNormalTexLoc            int32
	metallicRoughnessTexLoc    int32
	hasMetallicRoughnessTexLoc int32
	emissiveTexLoc             int32
	hasEmissiveTexLoc          int32

	// Environment cube map (unit 5)
	envMapLoc    int32
	hasEnvMapLoc int32
	envMaxLodLoc int32

	// Shadow map (unit 1)
	shadowMapLoc     int32
	hasShadowsLoc    int32
	receiveShadowLoc int32
	shadowTexelLoc   int32

	// Shadow depth shader
	shadowProg        uint32
	shadowLightMVPLoc int32

	shadowMap *ShadowMap
	skybox    *Skybox

	viewportW int32
	viewportH int32

	gpuMeshes   map[*scene.Mesh]*GPUMesh
	badTextures map[*scene.Texture]bool
}

// vertex shader: MVP + model transform; world-space position, normal and
// tangent to the fragment stage. The light-space position is offset along
// the normal by normalBias to keep surfaces from shadowing themselves.
const vertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;
layout(location = 4) in vec4 inTangent;

uniform mat4  mvp;
uniform mat4  model;
uniform mat4  normalMatrix;
uniform mat4  lightViewProj;
uniform float normalBias;

out vec4 fragColor;
out vec3 fragNormal;
out vec2 fragUV;
out vec3 fragWorldPos;
out vec4 fragLightSpacePos;
out vec4 fragTangent;

void main() {
    vec4 worldPos = model * vec4(inPosition, 1.0);
    vec3 n        = normalize(mat3(normalMatrix) * inNormal);

    gl_Position       = mvp * vec4(inPosition, 1.0);
    fragColor         = inColor;
    fragNormal        = n;
    fragUV            = inUV;
    fragWorldPos      = worldPos.xyz;
    fragLightSpacePos = lightViewProj * vec4(worldPos.xyz + n * normalBias, 1.0);
    fragTangent       = vec4(mat3(model) * inTangent.xyz, inTangent.w);
}
` + "\x00"

// fragment shader: Cook-Torrance PBR or Blinn-Phong, up to MaxLights
// directional lights, one of them shadowed with 3×3 PCF, plus image-based
// light from the environment cube map.
const fragSrc = `
#version 410 core
in vec4 fragColor;
in vec3 fragNormal;
in vec2 fragUV;
in vec3 fragWorldPos;
in vec4 fragLightSpacePos;
in vec4 fragTangent;

out vec4 outColor;

#define MAX_LIGHTS 4
uniform int   lightCount;
uniform vec3  lightDir[MAX_LIGHTS];
uniform vec3  lightColor[MAX_LIGHTS];
uniform int   shadowLight;
uniform vec3  ambientColor;
uniform vec3  cameraPos;

uniform vec3  matAlbedo;
uniform vec3  matSpecular;
uniform float matShininess;

uniform bool  usePBR;
uniform float matMetallic;
uniform float matRoughness;
uniform vec3  matEmissive;
uniform float envIntensity;

uniform float matOpacity;
uniform bool  alphaMask;
uniform float alphaCutoff;
uniform bool  unlit;

uniform sampler2D albedoTex;
uniform bool      hasTexture;
uniform sampler2D normalTex;
uniform bool      hasNormalTex;
// glTF convention: G = roughness, B = metallic.
uniform sampler2D metallicRoughnessTex;
uniform bool      hasMetallicRoughnessTex;
uniform sampler2D emissiveTex;
uniform bool      hasEmissiveTex;

uniform samplerCube envMap;
uniform bool        hasEnvMap;
uniform float       envMaxLod;

uniform sampler2DShadow shadowMap;
uniform bool            hasShadows;
uniform bool            receiveShadow;
uniform float           shadowTexel;

const float PI = 3.14159265359;

float calcShadow() {
    vec3 p = fragLightSpacePos.xyz / fragLightSpacePos.w;
    p = p * 0.5 + 0.5;
    if (p.z > 1.0) return 1.0;
    float shadow = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            shadow += texture(shadowMap, vec3(p.xy + vec2(float(x), float(y)) * shadowTexel, p.z - 0.0005));
        }
    }
    return shadow / 9.0;
}

float DistributionGGX(vec3 N, vec3 H, float roughness) {
    float a  = roughness * roughness;
    float a2 = a * a;
    float NdH = max(dot(N, H), 0.0);
    float d   = NdH * NdH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

float GeometrySchlickGGX(float cosTheta, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    return cosTheta / (cosTheta * (1.0 - k) + k);
}

float GeometrySmith(float NdV, float NdL, float roughness) {
    return GeometrySchlickGGX(NdV, roughness) * GeometrySchlickGGX(NdL, roughness);
}

vec3 FresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 FresnelSchlickRoughness(float cosTheta, vec3 F0, float roughness) {
    return F0 + (max(vec3(1.0 - roughness), F0) - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 evalPBR(vec3 N, vec3 V, vec3 L, vec3 rad, vec3 albedo, float metallic, float roughness, vec3 F0) {
    float NdL = max(dot(N, L), 0.0);
    if (NdL <= 0.0) return vec3(0.0);

    vec3  H   = normalize(V + L);
    float NdV = max(dot(N, V), 0.0);

    float D  = DistributionGGX(N, H, roughness);
    float G  = GeometrySmith(NdV, NdL, roughness);
    vec3  F  = FresnelSchlick(max(dot(H, V), 0.0), F0);

    vec3 kD       = (vec3(1.0) - F) * (1.0 - metallic);
    vec3 specular = D * G * F / max(4.0 * NdV * NdL, 0.001);

    return (kD * albedo / PI + specular) * rad * NdL;
}

vec3 evalPhong(vec3 N, vec3 V, vec3 L, vec3 rad, vec3 albedo) {
    float NdL = max(dot(N, L), 0.0);
    if (NdL <= 0.0) return vec3(0.0);
    vec3 H = normalize(L + V);
    return rad * (NdL * albedo + matSpecular * pow(max(dot(N, H), 0.0), matShininess));
}

void main() {
    vec4 baseColor = fragColor * vec4(matAlbedo, matOpacity);
    if (hasTexture) {
        baseColor *= texture(albedoTex, fragUV);
    }
    if (alphaMask && baseColor.a < alphaCutoff) {
        discard;
    }
    if (unlit) {
        outColor = baseColor;
        return;
    }

    vec3 N = normalize(fragNormal);
    if (!gl_FrontFacing) {
        N = -N;
    }
    if (hasNormalTex) {
        vec3 T = normalize(fragTangent.xyz - N * dot(N, fragTangent.xyz));
        vec3 B = cross(N, T) * fragTangent.w;
        N = normalize(mat3(T, B, N) * (texture(normalTex, fragUV).rgb * 2.0 - 1.0));
    }
    vec3 V = normalize(cameraPos - fragWorldPos);

    float shadowFactor = (hasShadows && receiveShadow) ? calcShadow() : 1.0;

    vec3 albedo = baseColor.rgb;
    vec3 color  = vec3(0.0);

    if (usePBR) {
        float metallic  = matMetallic;
        float roughness = matRoughness;
        if (hasMetallicRoughnessTex) {
            vec4 mr = texture(metallicRoughnessTex, fragUV);
            roughness *= mr.g;
            metallic  *= mr.b;
        }
        roughness = clamp(roughness, 0.04, 1.0);
        vec3 F0 = mix(vec3(0.04), albedo, metallic);

        if (hasEnvMap) {
            vec3 F_ibl = FresnelSchlickRoughness(max(dot(N, V), 0.0), F0, roughness);
            vec3 kD    = (vec3(1.0) - F_ibl) * (1.0 - metallic);
            vec3 irradiance = textureLod(envMap, N, envMaxLod).rgb;
            vec3 R          = reflect(-V, N);
            vec3 prefilter  = textureLod(envMap, R, roughness * envMaxLod).rgb;
            color = (irradiance * albedo * kD + prefilter * F_ibl) * envIntensity;
        } else {
            color = ambientColor * albedo * (1.0 - 0.5 * metallic);
        }

        for (int i = 0; i < lightCount && i < MAX_LIGHTS; i++) {
            vec3 rad = lightColor[i];
            if (i == shadowLight) rad *= shadowFactor;
            color += evalPBR(N, V, normalize(-lightDir[i]), rad, albedo, metallic, roughness, F0);
        }

        vec3 emissive = matEmissive;
        if (hasEmissiveTex) {
            emissive *= texture(emissiveTex, fragUV).rgb;
        }
        color += emissive;
    } else {
        color = ambientColor * albedo;
        if (hasEnvMap) {
            color = textureLod(envMap, N, envMaxLod).rgb * albedo * envIntensity / PI;
        }
        for (int i = 0; i < lightCount && i < MAX_LIGHTS; i++) {
            vec3 rad = lightColor[i] / PI;
            if (i == shadowLight) rad *= shadowFactor;
            color += evalPhong(N, V, normalize(-lightDir[i]), rad, albedo);
        }
    }

    outColor = vec4(color, baseColor.a);
}
` + "\x00"

const depthVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 lightMVP;
void main() {
    gl_Position = lightMVP * vec4(inPosition, 1.0);
}
` + "\x00"

// OpenGL writes depth implicitly.
const depthFragSrc = `
#version 410 core
void main() {}
` + "\x00"

// NewRenderer initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewRenderer() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	slog.Info("OpenGL initialized",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("main shader compile: %w", err)
	}

	shadowProg, err := newProgram(depthVertSrc, depthFragSrc)
	if err != nil {
		gl.DeleteProgram(prog)
		return nil, fmt.Errorf("depth shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	loc := func(name string) int32 {
		return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
	}
	r := &Renderer{
		program:    prog,
		shadowProg: shadowProg,

		mvpLoc:           loc("mvp"),
		modelLoc:         loc("model"),
		normalMatrixLoc:  loc("normalMatrix"),
		lightViewProjLoc: loc("lightViewProj"),
		normalBiasLoc:    loc("normalBias"),

		lightCountLoc:   loc("lightCount"),
		shadowLightLoc:  loc("shadowLight"),
		ambientColorLoc: loc("ambientColor"),
		cameraPosLoc:    loc("cameraPos"),

		matAlbedoLoc:    loc("matAlbedo"),
		matSpecularLoc:  loc("matSpecular"),
		matShininessLoc: loc("matShininess"),

		usePBRLoc:       loc("usePBR"),
		matMetallicLoc:  loc("matMetallic"),
		matRoughnessLoc: loc("matRoughness"),
		matEmissiveLoc:  loc("matEmissive"),
		envIntensityLoc: loc("envIntensity"),

		matOpacityLoc:  loc("matOpacity"),
		alphaMaskLoc:   loc("alphaMask"),
		alphaCutoffLoc: loc("alphaCutoff"),
		unlitLoc:       loc("unlit"),

		albedoTexLoc:               loc("albedoTex"),
		hasTextureLoc:              loc("hasTexture"),
		normalTexLoc:               loc("normalTex"),
		hasNormalTexLoc:            loc("hasNormalTex"),
		metallicRoughnessTexLoc:    loc("metallicRoughnessTex"),
		hasMetallicRoughnessTexLoc: loc("hasMetallicRoughnessTex"),
		emissiveTexLoc:             loc("emissiveTex"),
		hasEmissiveTexLoc:          loc("hasEmissiveTex"),

		envMapLoc:    loc("envMap"),
		hasEnvMapLoc: loc("hasEnvMap"),
		envMaxLodLoc: loc("envMaxLod"),

		shadowMapLoc:     loc("shadowMap"),
		hasShadowsLoc:    loc("hasShadows"),
		receiveShadowLoc: loc("receiveShadow"),
		shadowTexelLoc:   loc("shadowTexel"),

		shadowLightMVPLoc: gl.GetUniformLocation(shadowProg, gl.Str("lightMVP\x00")),

		gpuMeshes:   make(map[*scene.Mesh]*GPUMesh),
		badTextures: make(map[*scene.Texture]bool),
	}
	for i := 0; i < MaxLights; i++ {
		r.lightDirLoc[i] = loc(fmt.Sprintf("lightDir[%d]", i))
		r.lightColorLoc[i] = loc(fmt.Sprintf("lightColor[%d]", i))
	}

	// Texture units: albedo=0, shadowMap=1, normalMap=2, metallicRoughness=3,
	// emissive=4, envMap=5.
	gl.UseProgram(prog)
	gl.Uniform1i(r.albedoTexLoc, 0)
	gl.Uniform1i(r.shadowMapLoc, 1)
	gl.Uniform1i(r.normalTexLoc, 2)
	gl.Uniform1i(r.metallicRoughnessTexLoc, 3)
	gl.Uniform1i(r.emissiveTexLoc, 4)
	gl.Uniform1i(r.envMapLoc, 5)

	ident := math.Mat4Identity()
	gl.UniformMatrix4fv(r.lightViewProjLoc, 1, false, (*float32)(unsafe.Pointer(&ident[0][0])))

	return r, nil
}

// SetViewport stores the size of the main pass target for restoring after
// the shadow pass.
func (r *Renderer) SetViewport(width, height int) {
	r.viewportW = int32(width)
	r.viewportH = int32(height)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
}

// ── Skybox ────────────────────────────────────────────────────────────────────

// EnableSkybox compiles the sky shader. Call once after NewRenderer.
func (r *Renderer) EnableSkybox() error {
	if r.skybox != nil {
		r.skybox.Destroy()
	}
	sb, err := NewSkybox()
	if err != nil {
		return err
	}
	r.skybox = sb
	return nil
}

// DrawSkybox renders cube behind the scene. No-op without a skybox or an
// uploadable cube.
func (r *Renderer) DrawSkybox(cube *scene.CubeTexture, view, proj math.Mat4) {
	if r.skybox == nil || !r.ensureCube(cube) {
		return
	}
	r.skybox.Draw(cube, view, proj)
}

// ── Shadow map ────────────────────────────────────────────────────────────────

// EnableShadows creates the depth FBO, replacing one of a different size.
func (r *Renderer) EnableShadows(size int) error {
	if r.shadowMap != nil {
		if r.shadowMap.Size == int32(size) {
			return nil
		}
		r.shadowMap.Destroy()
		r.shadowMap = nil
	}
	sm, err := NewShadowMap(size)
	if err != nil {
		return err
	}
	r.shadowMap = sm
	return nil
}

// HasShadowMap reports whether the shadow FBO has been created.
func (r *Renderer) HasShadowMap() bool {
	return r.shadowMap != nil
}

// BeginShadowPass binds the depth FBO and the depth-only program.
func (r *Renderer) BeginShadowPass() {
	if r.shadowMap == nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.shadowMap.FBO)
	gl.Viewport(0, 0, r.shadowMap.Size, r.shadowMap.Size)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.Disable(gl.CULL_FACE)
	gl.UseProgram(r.shadowProg)
}

// DrawMeshShadow draws a mesh into the depth buffer.
func (r *Renderer) DrawMeshShadow(mesh *scene.Mesh, lightMVP math.Mat4) {
	if r.shadowMap == nil {
		return
	}
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	gl.UniformMatrix4fv(r.shadowLightMVPLoc, 1, false,
		(*float32)(unsafe.Pointer(&lightMVP[0][0])))
	r.drawGPU(gpu)
}

// EndShadowPass restores the caller's framebuffer and viewport.
func (r *Renderer) EndShadowPass(fbo uint32) {
	if r.shadowMap == nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, r.viewportW, r.viewportH)
}

// ── Main pass ─────────────────────────────────────────────────────────────────

// BeginFrame clears the bound framebuffer and sets the per-frame lighting,
// camera, environment and shadow uniforms.
func (r *Renderer) BeginFrame(clear core.Color, p FrameParams) {
	gl.ClearColor(clear.R, clear.G, clear.B, clear.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.program)
	gl.Uniform3f(r.cameraPosLoc, p.CameraPos.X, p.CameraPos.Y, p.CameraPos.Z)
	gl.Uniform3f(r.ambientColorLoc, p.Ambient.R, p.Ambient.G, p.Ambient.B)

	n := 0
	for _, l := range p.Lights {
		if l == nil || n == MaxLights {
			continue
		}
		d := l.Direction()
		gl.Uniform3f(r.lightDirLoc[n], d.X, d.Y, d.Z)
		gl.Uniform3f(r.lightColorLoc[n], l.Color.R*l.Intensity, l.Color.G*l.Intensity, l.Color.B*l.Intensity)
		n++
	}
	gl.Uniform1i(r.lightCountLoc, int32(n))

	if p.ShadowLight >= 0 && r.shadowMap != nil {
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, r.shadowMap.DepthTex)
		gl.Uniform1i(r.hasShadowsLoc, 1)
		gl.Uniform1i(r.shadowLightLoc, int32(p.ShadowLight))
		gl.Uniform1f(r.shadowTexelLoc, r.shadowMap.TexelSize())
		gl.Uniform1f(r.normalBiasLoc, p.NormalBias)
		gl.UniformMatrix4fv(r.lightViewProjLoc, 1, false,
			(*float32)(unsafe.Pointer(&p.LightVP[0][0])))
	} else {
		gl.Uniform1i(r.hasShadowsLoc, 0)
		gl.Uniform1i(r.shadowLightLoc, -1)
		gl.Uniform1f(r.normalBiasLoc, 0)
	}

	if r.ensureCube(p.Environment) {
		gl.ActiveTexture(gl.TEXTURE5)
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, p.Environment.GLID)
		gl.Uniform1i(r.hasEnvMapLoc, 1)
		gl.Uniform1f(r.envMaxLodLoc, cubeMipLevels(p.Environment))
	} else {
		gl.Uniform1i(r.hasEnvMapLoc, 0)
	}
}

// DrawMesh draws a mesh with its material. model is the node's render
// matrix and vp the camera view-projection.
func (r *Renderer) DrawMesh(mesh *scene.Mesh, model, vp math.Mat4, receiveShadow bool) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}
	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}

	gl.UseProgram(r.program)
	mvp := model.Mul(vp)
	normalMatrix := model.Inverse().Transpose()
	gl.UniformMatrix4fv(r.mvpLoc, 1, false, (*float32)(unsafe.Pointer(&mvp[0][0])))
	gl.UniformMatrix4fv(r.modelLoc, 1, false, (*float32)(unsafe.Pointer(&model[0][0])))
	gl.UniformMatrix4fv(r.normalMatrixLoc, 1, false, (*float32)(unsafe.Pointer(&normalMatrix[0][0])))
	gl.Uniform1i(r.receiveShadowLoc, boolToInt(receiveShadow))

	r.applyMaterial(mat)

	// Mirroring transforms flip the winding.
	if model.Det3() < 0 {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}
	r.drawGPU(gpu)
}

func (r *Renderer) drawGPU(gpu *GPUMesh) {
	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, gpu.VertexCount)
	}
	gl.BindVertexArray(0)
}

// applyMaterial uploads pending textures, then sets the material uniforms
// and render state. Must be called while r.program is active.
func (r *Renderer) applyMaterial(mat *scene.Material) {
	r.prepareMaterial(mat)

	gl.Uniform3f(r.matAlbedoLoc, mat.Albedo.R, mat.Albedo.G, mat.Albedo.B)
	gl.Uniform1f(r.matOpacityLoc, mat.Albedo.A)
	gl.Uniform3f(r.matSpecularLoc, mat.Specular.R, mat.Specular.G, mat.Specular.B)
	gl.Uniform1f(r.matShininessLoc, max(mat.Shininess, 1))

	gl.Uniform1i(r.usePBRLoc, boolToInt(mat.UsePBR))
	gl.Uniform1f(r.matMetallicLoc, mat.Metallic)
	gl.Uniform1f(r.matRoughnessLoc, mat.Roughness)
	gl.Uniform3f(r.matEmissiveLoc, mat.EmissiveColor.R, mat.EmissiveColor.G, mat.EmissiveColor.B)
	gl.Uniform1f(r.envIntensityLoc, mat.EnvMapIntensity)
	gl.Uniform1i(r.unlitLoc, boolToInt(mat.Unlit))

	gl.Uniform1i(r.alphaMaskLoc, boolToInt(mat.AlphaMode == scene.AlphaMask))
	gl.Uniform1f(r.alphaCutoffLoc, mat.AlphaCutoff)
	if mat.AlphaMode == scene.AlphaBlend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
	} else {
		gl.Disable(gl.BLEND)
		gl.DepthMask(true)
	}
	if mat.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}

	bindTexture(gl.TEXTURE0, mat.AlbedoTexture, r.hasTextureLoc)
	bindTexture(gl.TEXTURE2, mat.NormalTexture, r.hasNormalTexLoc)
	bindTexture(gl.TEXTURE3, mat.MetallicRoughnessTexture, r.hasMetallicRoughnessTexLoc)
	bindTexture(gl.TEXTURE4, mat.EmissiveTexture, r.hasEmissiveTexLoc)
}

// prepareMaterial uploads textures that are new or flagged by NeedsUpdate.
// A texture that fails once is not retried.
func (r *Renderer) prepareMaterial(mat *scene.Material) {
	for _, tex := range mat.Textures() {
		if r.badTextures[tex] || (tex.GLID != 0 && !mat.NeedsUpdate) {
			continue
		}
		if err := UploadTexture(tex); err != nil {
			slog.Warn("texture upload failed", "texture", tex.Name, "err", err)
			r.badTextures[tex] = true
		}
	}
	mat.NeedsUpdate = false
}

// ensureCube uploads cube on first use and reports whether it is usable.
func (r *Renderer) ensureCube(cube *scene.CubeTexture) bool {
	if cube == nil {
		return false
	}
	if cube.GLID != 0 {
		return true
	}
	if err := UploadCubeTexture(cube); err != nil {
		slog.Warn("cube texture upload failed", "err", err)
		return false
	}
	return true
}

func bindTexture(unit uint32, tex *scene.Texture, hasLoc int32) {
	if tex == nil || tex.GLID == 0 {
		gl.Uniform1i(hasLoc, 0)
		return
	}
	gl.ActiveTexture(unit)
	gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
	gl.Uniform1i(hasLoc, 1)
}

// EndFrame restores the render state materials may have changed.
func (r *Renderer) EndFrame() {
	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	gl.Disable(gl.CULL_FACE)
	gl.FrontFace(gl.CCW)
}

// ── Resource management ───────────────────────────────────────────────────────

// ReleaseMesh frees GPU buffers for the given mesh.
func (r *Renderer) ReleaseMesh(mesh *scene.Mesh) {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		gl.DeleteVertexArrays(1, &gpu.VAO)
		gl.DeleteBuffers(1, &gpu.VBO)
		if gpu.HasIndices {
			gl.DeleteBuffers(1, &gpu.EBO)
		}
		delete(r.gpuMeshes, mesh)
		mesh.GPUData = nil
	}
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	for mesh := range r.gpuMeshes {
		r.ReleaseMesh(mesh)
	}
	if r.shadowMap != nil {
		r.shadowMap.Destroy()
	}
	if r.skybox != nil {
		r.skybox.Destroy()
	}
	if r.shadowProg != 0 {
		gl.DeleteProgram(r.shadowProg)
	}
	gl.DeleteProgram(r.program)
}

// ── Internal helpers ──────────────────────────────────────────────────────────

// ensureUploaded uploads vertex/index data on first use. Skinned meshes get
// a dynamic buffer that is refreshed whenever the mesh is marked dirty.
func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := r.gpuMeshes[mesh]; ok {
		if mesh.Dirty && gpu.Dynamic {
			gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
			gl.BufferSubData(gl.ARRAY_BUFFER, 0,
				len(mesh.Vertices)*int(unsafe.Sizeof(core.Vertex{})),
				gl.Ptr(mesh.Vertices))
			gl.BindBuffer(gl.ARRAY_BUFFER, 0)
			mesh.Dirty = false
		}
		return gpu
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount:  int32(len(mesh.Indices)),
		VertexCount: int32(len(mesh.Vertices)),
		HasIndices:  len(mesh.Indices) > 0,
		Dynamic:     mesh.Skin != nil,
	}
	usage := uint32(gl.STATIC_DRAW)
	if gpu.Dynamic {
		usage = gl.DYNAMIC_DRAW
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(mesh.Vertices), usage)

	var v core.Vertex
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{4, unsafe.Offsetof(v.Color)},
		{4, unsafe.Offsetof(v.Tangent)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.offset)))
	}

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[mesh] = gpu
	mesh.GPUData = gpu
	mesh.Dirty = false
	return gpu
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
