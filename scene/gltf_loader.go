package scene

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"island-demo/core"
	"island-demo/math"
)

// Model is a loaded asset: one root node wrapping the file's scene roots,
// plus the animation clips and skins that target nodes under it.
type Model struct {
	Root       *Node
	Animations []*AnimationClip
	Skins      []*SkinBinding
	Textures   []*Texture
}

// Meshes returns every mesh under the model root.
func (m *Model) Meshes() []*Mesh {
	var out []*Mesh
	m.Root.Traverse(func(n *Node) {
		if n.Mesh != nil {
			out = append(out, n.Mesh)
		}
	})
	return out
}

// LoadGLTF opens a .glb or .gltf file and returns a ready-to-use scene graph.
// Geometry, metallic-roughness materials, textures, the node hierarchy,
// skins and animations are all populated. Textures stay on the CPU until
// the renderer first draws them.
func LoadGLTF(path string) (*Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
	default:
		return nil, fmt.Errorf("unsupported model format %q", filepath.Ext(path))
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	dir := filepath.Dir(path)
	model := &Model{Root: NewNode(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))}
	log := slog.With("file", path)

	// 1. Textures
	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		tex, err := loadGLTFImage(doc, dir, *gt.Source)
		if err != nil {
			log.Warn("gltf image skipped", "image", *gt.Source, "err", err)
			continue
		}
		if tex != nil {
			texCache[i] = tex
			model.Textures = append(model.Textures, tex)
		}
	}
	lookupTex := func(idx int) *Texture {
		if idx >= 0 && idx < len(texCache) {
			return texCache[idx]
		}
		return nil
	}

	// 2. Materials
	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		matCache[i] = convertGLTFMaterial(gm, lookupTex)
	}

	// 3. Mesh primitives
	type primitive struct {
		mesh    *Mesh
		joints  [][4]uint16
		weights [][4]float32
	}
	meshPrims := make([][]primitive, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				log.Debug("gltf primitive skipped", "mesh", mi, "prim", pi, "mode", prim.Mode)
				continue
			}
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				log.Warn("gltf primitive skipped", "mesh", mi, "prim", pi, "err", err)
				continue
			}
			if prim.Material != nil && *prim.Material < len(matCache) {
				m.Material = matCache[*prim.Material]
			}
			p := primitive{mesh: m}
			if idx, ok := prim.Attributes[gltf.JOINTS_0]; ok {
				p.joints, _ = modeler.ReadJoints(doc, doc.Accessors[idx], nil)
			}
			if idx, ok := prim.Attributes[gltf.WEIGHTS_0]; ok {
				p.weights, _ = modeler.ReadWeights(doc, doc.Accessors[idx], nil)
			}
			meshPrims[mi] = append(meshPrims[mi], p)
		}
	}

	// 4. Nodes
	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)
		n.Transform = gltfNodeTransform(gn)
		nodes[i] = n
	}

	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if childIdx < len(nodes) {
				nodes[i].AddChild(nodes[childIdx])
			}
		}
	}

	// 5. Meshes and skins attach once the hierarchy exists.
	for i, gn := range doc.Nodes {
		if gn.Mesh == nil || *gn.Mesh >= len(meshPrims) {
			continue
		}
		n := nodes[i]
		var skin *gltf.Skin
		var joints []*Node
		var inverseBind []math.Mat4
		if gn.Skin != nil && *gn.Skin < len(doc.Skins) {
			skin = doc.Skins[*gn.Skin]
			for _, j := range skin.Joints {
				if j < len(nodes) {
					joints = append(joints, nodes[j])
				}
			}
			inverseBind, err = readInverseBindMatrices(doc, skin)
			if err != nil {
				log.Warn("gltf inverse bind matrices", "skin", *gn.Skin, "err", err)
			}
		}

		prims := meshPrims[*gn.Mesh]
		for pi, p := range prims {
			target := n
			if len(prims) > 1 {
				target = NewNode(fmt.Sprintf("%s_prim%d", n.Name, pi))
				n.AddChild(target)
			}
			// Nodes sharing a mesh get their own copy so skins stay separate.
			mesh := p.mesh
			if usedBy(nodes, mesh) {
				mesh = cloneMesh(mesh)
			}
			target.Mesh = mesh
			if skin != nil && len(p.joints) > 0 && len(p.weights) > 0 {
				binding := NewSkinBinding(mesh, joints, inverseBind, p.joints, p.weights)
				model.Skins = append(model.Skins, binding)
			}
		}
	}

	// 6. Scene roots
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx < len(nodes) {
				model.Root.AddChild(nodes[rootIdx])
			}
		}
	} else {
		for _, n := range nodes {
			if n.Parent == nil {
				model.Root.AddChild(n)
			}
		}
	}

	// 7. Animations
	for ai, ga := range doc.Animations {
		clip, err := loadGLTFAnimation(doc, ga, nodes)
		if err != nil {
			log.Warn("gltf animation skipped", "animation", ai, "err", err)
			continue
		}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("animation_%d", ai)
		}
		model.Animations = append(model.Animations, clip)
	}

	log.Debug("gltf loaded", "nodes", len(nodes), "textures", len(model.Textures),
		"animations", len(model.Animations), "skins", len(model.Skins))
	return model, nil
}

func usedBy(nodes []*Node, mesh *Mesh) bool {
	for _, n := range nodes {
		if n.Mesh == mesh {
			return true
		}
		for _, c := range n.Children {
			if c.Mesh == mesh {
				return true
			}
		}
	}
	return false
}

func cloneMesh(m *Mesh) *Mesh {
	verts := make([]core.Vertex, len(m.Vertices))
	copy(verts, m.Vertices)
	c := CreateMeshFromData(m.Name, verts, m.Indices)
	c.Material = m.Material
	return c
}

// gltfNodeTransform reads either the TRS properties or the node matrix.
func gltfNodeTransform(gn *gltf.Node) core.Transform {
	if gn.Matrix != gltf.DefaultMatrix && gn.Matrix != [16]float64{} {
		var a [16]float32
		for k, v := range gn.Matrix {
			a[k] = float32(v)
		}
		t, r, s := math.Mat4FromColumnMajor(a).Decompose()
		return core.Transform{Position: t, Rotation: r, Scale: s}
	}

	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault() // [x, y, z, w]
	sc := gn.ScaleOrDefault()
	return core.Transform{
		Position: math.NewVec3(float32(t[0]), float32(t[1]), float32(t[2])),
		Rotation: math.NewQuaternion(float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3])),
		Scale:    math.NewVec3(float32(sc[0]), float32(sc[1]), float32(sc[2])),
	}
}

func loadGLTFImage(doc *gltf.Document, dir string, idx int) (*Texture, error) {
	img := doc.Images[idx]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", idx)
	}

	switch {
	case img.BufferView != nil:
		// Binary GLB: image data lives in a buffer view
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("bufferview: %w", err)
		}
		return DecodeTexture(name, raw)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		return DecodeTexture(name, raw)
	case img.URI != "":
		return LoadTexture(filepath.Join(dir, filepath.FromSlash(img.URI)))
	}
	return nil, nil
}

func convertGLTFMaterial(gm *gltf.Material, lookupTex func(int) *Texture) *Material {
	mat := NewPBRMaterial(gm.Name, core.ColorWhite, 1, 1)

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		mat.Albedo = core.Color{
			R: float32(cf[0]), G: float32(cf[1]),
			B: float32(cf[2]), A: float32(cf[3]),
		}
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			if tex := lookupTex(pbr.BaseColorTexture.Index); tex != nil {
				tex.SRGB = true
				mat.AlbedoTexture = tex
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			mat.MetallicRoughnessTexture = lookupTex(pbr.MetallicRoughnessTexture.Index)
		}
	}

	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		mat.NormalTexture = lookupTex(*gm.NormalTexture.Index)
	}
	if gm.EmissiveTexture != nil {
		if tex := lookupTex(gm.EmissiveTexture.Index); tex != nil {
			tex.SRGB = true
			mat.EmissiveTexture = tex
		}
	}
	ef := gm.EmissiveFactor
	mat.EmissiveColor = core.Color{R: float32(ef[0]), G: float32(ef[1]), B: float32(ef[2]), A: 1}

	switch gm.AlphaMode {
	case gltf.AlphaMask:
		mat.AlphaMode = AlphaMask
	case gltf.AlphaBlend:
		mat.AlphaMode = AlphaBlend
	}
	mat.AlphaCutoff = float32(gm.AlphaCutoffOrDefault())
	mat.DoubleSided = gm.DoubleSided

	if _, ok := gm.Extensions["KHR_materials_unlit"]; ok {
		mat.UsePBR = false
		mat.Unlit = true
	}
	return mat
}

// loadGLTFPrimitive converts one glTF mesh primitive into a scene.Mesh.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	var tangents [][4]float32
	var colors [][4]uint8

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, _ = modeler.ReadTangent(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		colors, _ = modeler.ReadColor(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: math.Vec3{X: p[0], Y: p[1], Z: p[2]},
			Normal:   math.Vec3Up,
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			n := normals[i]
			v.Normal = math.Vec3{X: n[0], Y: n[1], Z: n[2]}
		}
		if i < len(uvs) {
			v.UV = math.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
		if i < len(colors) {
			c := colors[i]
			v.Color = core.Color{R: float32(c[0]) / 255, G: float32(c[1]) / 255, B: float32(c[2]) / 255, A: float32(c[3]) / 255}
		}
		if i < len(tangents) {
			t := tangents[i]
			v.Tangent = math.NewVec4(t[0], t[1], t[2], t[3])
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	m := CreateMeshFromData(name, verts, indices)
	if len(tangents) < len(positions) && len(uvs) == len(positions) {
		ComputeTangents(m)
	}
	return m, nil
}

func readInverseBindMatrices(doc *gltf.Document, skin *gltf.Skin) ([]math.Mat4, error) {
	if skin.InverseBindMatrices == nil {
		return nil, nil
	}
	data, err := modeler.ReadAccessor(doc, doc.Accessors[*skin.InverseBindMatrices], nil)
	if err != nil {
		return nil, err
	}
	raw, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected inverse bind matrix type %T", data)
	}
	out := make([]math.Mat4, len(raw))
	for i, m := range raw {
		// Column-major storage lines up with the row-vector layout.
		out[i] = math.Mat4(m)
	}
	return out, nil
}

func loadGLTFAnimation(doc *gltf.Document, ga *gltf.Animation, nodes []*Node) (*AnimationClip, error) {
	clip := &AnimationClip{Name: ga.Name}
	for ci, ch := range ga.Channels {
		if ch.Target.Node == nil || *ch.Target.Node >= len(nodes) || ch.Sampler >= len(ga.Samplers) {
			continue
		}
		track := &Track{Node: nodes[*ch.Target.Node]}
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			track.Path = PathTranslation
		case gltf.TRSRotation:
			track.Path = PathRotation
		case gltf.TRSScale:
			track.Path = PathScale
		default:
			// Morph target weights are not animated.
			continue
		}

		sampler := ga.Samplers[ch.Sampler]
		switch sampler.Interpolation {
		case gltf.InterpolationStep:
			track.Interpolation = InterpolationStep
		case gltf.InterpolationCubicSpline:
			track.Interpolation = InterpolationCubicSpline
		default:
			track.Interpolation = InterpolationLinear
		}

		input, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Input], nil)
		if err != nil {
			return nil, fmt.Errorf("channel %d input: %w", ci, err)
		}
		times, ok := input.([]float32)
		if !ok {
			return nil, fmt.Errorf("channel %d: unexpected input type %T", ci, input)
		}
		output, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Output], nil)
		if err != nil {
			return nil, fmt.Errorf("channel %d output: %w", ci, err)
		}
		values, err := flattenKeyframes(output)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ci, err)
		}

		track.Times = times
		track.Values = values
		want := len(times) * track.Components()
		if track.Interpolation == InterpolationCubicSpline {
			want *= 3
		}
		if len(values) < want {
			return nil, fmt.Errorf("channel %d: %d values for %d keyframes", ci, len(values), len(times))
		}
		if n := len(times); n > 0 && times[n-1] > clip.Duration {
			clip.Duration = times[n-1]
		}
		clip.Tracks = append(clip.Tracks, track)
	}
	return clip, nil
}

// flattenKeyframes turns accessor output into a flat float slice. Normalized
// integer rotations are rescaled to [-1, 1].
func flattenKeyframes(data any) ([]float32, error) {
	var out []float32
	switch v := data.(type) {
	case [][3]float32:
		for _, e := range v {
			out = append(out, e[:]...)
		}
	case [][4]float32:
		for _, e := range v {
			out = append(out, e[:]...)
		}
	case [][4]int16:
		for _, e := range v {
			for _, c := range e {
				out = append(out, max(float32(c)/32767, -1))
			}
		}
	case [][4]int8:
		for _, e := range v {
			for _, c := range e {
				out = append(out, max(float32(c)/127, -1))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported keyframe type %T", data)
	}
	return out, nil
}
