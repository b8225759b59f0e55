package renderer

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"island-demo/core"
	"island-demo/internal/opengl"
	"island-demo/math"
	"island-demo/scene"
)

// Options configures the engine at creation.
type Options struct {
	Exposure float32
	Samples  int
	// Ambient lights unlit sides while no environment map is loaded.
	Ambient core.Color
}

func DefaultOptions() Options {
	return Options{
		Exposure: 1,
		Samples:  4,
		Ambient:  core.Color{R: 0.05, G: 0.05, B: 0.06, A: 1},
	}
}

// RenderEngine is the high-level renderer that drives the OpenGL backend:
// shadow pass, HDR scene pass with sky and image-based light, tone mapping.
type RenderEngine struct {
	gl          *opengl.Renderer
	postProcess *opengl.PostProcessFBO
	opts        Options

	width, height int
	pixelRatio    float32
	outW, outH    int

	// Per-frame stats (populated during Render)
	lastObjects   int
	lastTriangles int
	lastShadowed  int
	lastCulled    int
}

// NewRenderEngine initialises the backend. The GL context must be current.
// width and height are the window size in screen coordinates.
func NewRenderEngine(width, height int, opts Options) (*RenderEngine, error) {
	glRenderer, err := opengl.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}
	if err := glRenderer.EnableSkybox(); err != nil {
		glRenderer.Destroy()
		return nil, fmt.Errorf("skybox: %w", err)
	}

	pp, err := opengl.NewPostProcessFBO(width, height, opts.Samples)
	if err != nil {
		glRenderer.Destroy()
		return nil, fmt.Errorf("post-process: %w", err)
	}

	re := &RenderEngine{
		gl:          glRenderer,
		postProcess: pp,
		opts:        opts,
		width:       width,
		height:      height,
		pixelRatio:  1,
		outW:        width,
		outH:        height,
	}
	re.SetExposure(opts.Exposure)
	re.resizeTargets()
	slog.Info("render engine initialized", "backend", "opengl", "samples", opts.Samples)
	return re, nil
}

// SetSize sets the drawing size in screen coordinates.
func (re *RenderEngine) SetSize(width, height int) {
	re.width, re.height = width, height
	re.resizeTargets()
}

// SetPixelRatio sets how many render target pixels cover one screen
// coordinate.
func (re *RenderEngine) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	re.pixelRatio = ratio
	re.resizeTargets()
}

// SetOutputSize sets the window framebuffer size the result is scaled to.
func (re *RenderEngine) SetOutputSize(width, height int) {
	re.outW, re.outH = width, height
}

// RenderSize is the size of the HDR render target in pixels.
func (re *RenderEngine) RenderSize() (int, int) {
	return renderSize(re.width, re.height, re.pixelRatio)
}

func renderSize(width, height int, ratio float32) (int, int) {
	w := int(float32(width)*ratio + 0.5)
	h := int(float32(height)*ratio + 0.5)
	return max(w, 1), max(h, 1)
}

func (re *RenderEngine) resizeTargets() {
	w, h := re.RenderSize()
	if err := re.postProcess.Resize(w, h); err != nil {
		slog.Error("render target resize failed", "width", w, "height", h, "err", err)
		return
	}
	re.gl.SetViewport(w, h)
}

// SetExposure sets the HDR tone-mapping exposure. Non-positive values
// reset it to 1.
func (re *RenderEngine) SetExposure(exp float32) {
	if exp <= 0 {
		exp = 1
	}
	re.postProcess.Exposure = exp
}

// Exposure returns the current tone-mapping exposure.
func (re *RenderEngine) Exposure() float32 {
	return re.postProcess.Exposure
}

// Render draws s through camera and resolves the result onto the window.
func (re *RenderEngine) Render(s *scene.Scene, camera *scene.Camera) {
	if s == nil || camera == nil {
		return
	}
	nodes := s.GetVisibleNodes()

	params := opengl.FrameParams{
		CameraPos:   camera.Position,
		Lights:      s.Lights,
		ShadowLight: -1,
		Environment: s.Environment,
		Ambient:     re.opts.Ambient,
	}

	// Shadow pass
	re.lastShadowed = 0
	if light := s.ShadowLight(); light != nil {
		if err := re.gl.EnableShadows(light.Shadow.MapSize); err != nil {
			slog.Warn("shadow map unavailable", "size", light.Shadow.MapSize, "err", err)
		} else {
			params.LightVP = light.ShadowViewProj()
			params.NormalBias = light.Shadow.NormalBias
			params.ShadowLight = lightIndex(s.Lights, light)

			re.gl.BeginShadowPass()
			for _, node := range nodes {
				if !node.CastShadow {
					continue
				}
				re.gl.DrawMeshShadow(node.Mesh, node.RenderMatrix().Mul(params.LightVP))
				re.lastShadowed++
			}
			re.gl.EndShadowPass(re.postProcess.FBO)
		}
	}

	// Main pass
	re.postProcess.Bind()
	re.gl.BeginFrame(s.ClearColor, params)

	view := camera.GetViewMatrix()
	proj := camera.GetProjectionMatrix()
	if s.Background != nil {
		re.gl.DrawSkybox(s.Background, view, proj)
	}

	vp := view.Mul(proj)
	frustum := scene.FrustumFromVP(vp)
	visible := nodes[:0:0]
	for _, node := range nodes {
		if node.InFrustum(&frustum) {
			visible = append(visible, node)
		}
	}
	re.lastCulled = len(nodes) - len(visible)

	opaque, blended := splitByAlpha(visible)
	objects, triangles := 0, 0
	for _, node := range append(opaque, sortBackToFront(blended, camera.Position)...) {
		re.gl.DrawMesh(node.Mesh, node.RenderMatrix(), vp, node.ReceiveShadow)
		objects++
		triangles += triangleCount(node.Mesh)
	}
	re.gl.EndFrame()

	re.postProcess.Blit(int32(re.outW), int32(re.outH))

	re.lastObjects = objects
	re.lastTriangles = triangles
}

// DrawStats returns stats from the most recent Render call.
func (re *RenderEngine) DrawStats() (objects, triangles, shadowCasters, culled int) {
	return re.lastObjects, re.lastTriangles, re.lastShadowed, re.lastCulled
}

func (re *RenderEngine) Destroy() {
	re.postProcess.Destroy()
	re.gl.Destroy()
}

func lightIndex(lights []*scene.DirectionalLight, l *scene.DirectionalLight) int {
	n := 0
	for _, x := range lights {
		if x == nil {
			continue
		}
		if x == l {
			return n
		}
		n++
	}
	return -1
}

// splitByAlpha separates blended nodes, which draw after everything else.
func splitByAlpha(nodes []*scene.Node) (opaque, blended []*scene.Node) {
	for _, n := range nodes {
		if m := n.Mesh.Material; m != nil && m.AlphaMode == scene.AlphaBlend {
			blended = append(blended, n)
		} else {
			opaque = append(opaque, n)
		}
	}
	return opaque, blended
}

// sortBackToFront orders nodes by decreasing distance of their bounds
// centre from eye.
func sortBackToFront(nodes []*scene.Node, eye math.Vec3) []*scene.Node {
	dist := make(map[*scene.Node]float32, len(nodes))
	for _, n := range nodes {
		c := n.RenderMatrix().MulVec3(n.Mesh.LocalAABB.Center())
		dist[n] = c.Sub(eye).LengthSqr()
	}
	slices.SortStableFunc(nodes, func(a, b *scene.Node) int { return cmp.Compare(dist[b], dist[a]) })
	return nodes
}

func triangleCount(m *scene.Mesh) int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Vertices) / 3
}
