package scene

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"r3d/core"
)

// LoadGLTF opens a .glb or .gltf file and flattens its default scene into a
// Model. Node transforms are baked into the vertices so every mesh is in
// model space; a mesh instanced by several nodes yields one Mesh per node.
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	dir := filepath.Dir(path)
	model := &Model{}
	log := core.Logger()

	// ── 1. Textures ───────────────────────────────────────────────────────────
	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		img := doc.Images[*gt.Source]

		var tex *Texture
		if img.BufferView != nil {
			// Binary GLB: image data lives in a buffer view
			raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
			if err != nil {
				log.Warn("gltf image bufferview", "image", *gt.Source, "err", err)
				continue
			}
			name := img.Name
			if name == "" {
				name = fmt.Sprintf("gltf_img_%d", *gt.Source)
			}
			tex, err = decodeImageBytes(name, raw)
			if err != nil {
				log.Warn("gltf image decode", "image", *gt.Source, "err", err)
				continue
			}
		} else if img.URI != "" && !img.IsEmbeddedResource() {
			// External file referenced by relative URI
			tex, err = LoadTexture(filepath.Join(dir, img.URI))
			if err != nil {
				log.Warn("gltf image", "image", *gt.Source, "uri", img.URI, "err", err)
				continue
			}
		}
		texCache[i] = tex
	}
	texture := func(idx int) *Texture {
		if idx >= 0 && idx < len(texCache) {
			return texCache[idx]
		}
		return nil
	}

	// ── 2. Materials ─────────────────────────────────────────────────────────
	for _, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Albedo.Color = core.Color{
				R: float32(cf[0]), G: float32(cf[1]),
				B: float32(cf[2]), A: float32(cf[3]),
			}
			if pbr.BaseColorTexture != nil {
				mat.Albedo.Texture = texture(pbr.BaseColorTexture.Index)
			}
			mat.Roughness.Value = float32(pbr.RoughnessFactorOrDefault())
			mat.Metalness.Value = float32(pbr.MetallicFactorOrDefault())
			// glTF packs roughness in G and metalness in B of one texture.
			if pbr.MetallicRoughnessTexture != nil {
				mr := texture(pbr.MetallicRoughnessTexture.Index)
				mat.Roughness.Texture = mr
				mat.Metalness.Texture = mr
			}
		}
		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			mat.Normal.Texture = texture(*gm.NormalTexture.Index)
		}
		if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
			mat.Occlusion.Texture = texture(*gm.OcclusionTexture.Index)
		}
		if gm.EmissiveTexture != nil {
			mat.Emission.Texture = texture(gm.EmissiveTexture.Index)
		}
		ef := gm.EmissiveFactor
		mat.Emission.Color = core.Color{R: float32(ef[0]), G: float32(ef[1]), B: float32(ef[2]), A: 1}
		if ef != [3]float64{} {
			mat.Emission.Value = 1
		}
		model.Materials = append(model.Materials, mat)
	}

	// ── 3. Nodes ──────────────────────────────────────────────────────────────
	var visit func(idx int, parent mgl32.Mat4, depth int)
	visit = func(idx int, parent mgl32.Mat4, depth int) {
		if idx < 0 || idx >= len(doc.Nodes) || depth > 64 {
			return
		}
		gn := doc.Nodes[idx]
		world := parent.Mul4(nodeMatrix(gn))

		if gn.Mesh != nil && *gn.Mesh < len(doc.Meshes) {
			gm := doc.Meshes[*gn.Mesh]
			for pi, prim := range gm.Primitives {
				m, err := loadGLTFPrimitive(doc, gm.Name, pi, prim, world)
				if err != nil {
					log.Warn("gltf primitive", "mesh", *gn.Mesh, "prim", pi, "err", err)
					continue
				}
				matIdx := -1
				if prim.Material != nil && *prim.Material < len(model.Materials) {
					matIdx = *prim.Material
				}
				model.Meshes = append(model.Meshes, m)
				model.MeshMaterials = append(model.MeshMaterials, matIdx)
			}
		}
		for _, c := range gn.Children {
			visit(c, world, depth+1)
		}
	}

	for _, root := range gltfRoots(doc) {
		visit(root, mgl32.Ident4(), 0)
	}
	if len(model.Meshes) == 0 {
		return nil, fmt.Errorf("gltf %q: no drawable meshes", path)
	}
	model.UpdateBounds()
	return model, nil
}

// gltfRoots returns the root nodes of the default scene, or every parentless
// node when the document has no default scene.
func gltfRoots(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodeMatrix(gn *gltf.Node) mgl32.Mat4 {
	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault() // [x, y, z, w]
	s := gn.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

// loadGLTFPrimitive converts one glTF mesh primitive into a Mesh, baking world
// into positions, normals and tangents.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive, world mgl32.Mat4) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	// Positions are required
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

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, _ = modeler.ReadTangent(doc, doc.Accessors[idx], nil)
	}

	normalMat := world.Mat3().Inv().Transpose()
	verts := make([]Vertex, len(positions))
	for i, p := range positions {
		v := Vertex{
			Position: mgl32.TransformCoordinate(mgl32.Vec3{p[0], p[1], p[2]}, world),
			Normal:   mgl32.Vec3{0, 1, 0},
			Color:    white,
		}
		if i < len(normals) {
			n := normalMat.Mul3x1(mgl32.Vec3(normals[i]))
			if n.LenSqr() > 0 {
				v.Normal = n.Normalize()
			}
		}
		if i < len(uvs) {
			v.TexCoord = mgl32.Vec2(uvs[i])
		}
		if i < len(tangents) {
			tg := tangents[i]
			t := world.Mat3().Mul3x1(mgl32.Vec3{tg[0], tg[1], tg[2]})
			if t.LenSqr() > 0 {
				t = t.Normalize()
			}
			v.Tangent = t.Vec4(tg[3])
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

	m := NewMesh(name, verts, indices)
	if len(tangents) == 0 && len(uvs) > 0 {
		ComputeTangents(m)
	}
	return m, nil
}
