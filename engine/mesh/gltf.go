package mesh

import (
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// DefaultSlot is the material slot of primitives that reference no glTF material.
const DefaultSlot = "Default"

// gltfStreams accumulates the attribute streams of every primitive of a document.
type gltfStreams struct {
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	uvs       []mgl32.Vec2
	tangents  []mgl32.Vec4
	colors    []mgl32.Vec4
	indices   []uint32

	hasUVs, hasTangents, hasColors bool
	sections                       []Section
}

// LoadGLTF reads a .gltf or .glb file into a StaticMesh. Every triangle primitive becomes one
// section appended into shared per-attribute buffers, tagged with its glTF material name.
// Tangents are generated when the file has texture coordinates but no tangents.
//
// Parameters:
//   - path: the file path of the document
//
// Returns:
//   - StaticMesh: the mesh, with no default materials assigned
//   - []common.ImportedMaterial: one entry per slot that has a glTF material
//   - error: an error if the document cannot be read or has no usable primitives
func LoadGLTF(path string) (StaticMesh, []common.ImportedMaterial, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	s := &gltfStreams{}
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := s.appendPrimitive(doc, prim); err != nil {
				return nil, nil, fmt.Errorf("gltf %q mesh %d primitive %d: %w", path, mi, pi, err)
			}
		}
	}
	if len(s.sections) == 0 {
		return nil, nil, fmt.Errorf("gltf %q: no triangle primitives", path)
	}

	if s.hasUVs && !s.hasTangents {
		s.tangents = s.generateTangents()
		s.hasTangents = true
	}

	return NewStaticMesh(path, s.options()...), importMaterials(doc, filepath.Dir(path)), nil
}

// appendPrimitive reads one primitive and appends it as a new section.
func (s *gltfStreams) appendPrimitive(doc *gltf.Document, prim *gltf.Primitive) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	n := len(positions)

	var (
		nv [][3]float32
		uv [][2]float32
		tv [][4]float32
		cv [][4]uint8
	)
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if nv, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uv, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("texcoords: %w", err)
		}
		s.hasUVs = true
	}
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		if tv, err = modeler.ReadTangent(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("tangents: %w", err)
		}
		s.hasTangents = true
	}
	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if cv, err = modeler.ReadColor(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("colors: %w", err)
		}
		s.hasColors = true
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	section := Section{
		Slot:        slotName(doc, prim),
		VertexStart: uint32(len(s.positions)),
		VertexCount: uint32(n),
		IndexStart:  uint32(len(s.indices)),
		IndexCount:  uint32(len(indices)),
	}

	for i, p := range positions {
		s.positions = append(s.positions, mgl32.Vec3{p[0], p[1], p[2]})

		normal := mgl32.Vec3{0, 1, 0}
		if i < len(nv) {
			normal = mgl32.Vec3{nv[i][0], nv[i][1], nv[i][2]}
		}
		s.normals = append(s.normals, normal)

		var texcoord mgl32.Vec2
		if i < len(uv) {
			texcoord = mgl32.Vec2{uv[i][0], uv[i][1]}
		}
		s.uvs = append(s.uvs, texcoord)

		var tangent mgl32.Vec4
		if i < len(tv) {
			tangent = mgl32.Vec4{tv[i][0], tv[i][1], tv[i][2], tv[i][3]}
		}
		s.tangents = append(s.tangents, tangent)

		color := mgl32.Vec4{1, 1, 1, 1}
		if i < len(cv) {
			color = mgl32.Vec4{float32(cv[i][0]) / 255, float32(cv[i][1]) / 255, float32(cv[i][2]) / 255, float32(cv[i][3]) / 255}
		}
		s.colors = append(s.colors, color)
	}
	s.indices = append(s.indices, indices...)
	s.sections = append(s.sections, section)
	return nil
}

// generateTangents computes tangents section by section using section-relative indices.
func (s *gltfStreams) generateTangents() []mgl32.Vec4 {
	out := make([]mgl32.Vec4, 0, len(s.positions))
	for _, sec := range s.sections {
		vs, ve := sec.VertexStart, sec.VertexStart+sec.VertexCount
		out = append(out, computeTangents(
			s.positions[vs:ve],
			s.normals[vs:ve],
			s.uvs[vs:ve],
			s.indices[sec.IndexStart:sec.IndexStart+sec.IndexCount],
		)...)
	}
	return out
}

// options converts the accumulated streams into builder options.
func (s *gltfStreams) options() []StaticMeshBuilderOption {
	opts := []StaticMeshBuilderOption{
		WithPositions(s.positions),
		WithVertexBuffer(NewFloat32VertexBuffer(shader.SemanticNormal, 3, flattenVec3(s.normals))),
		WithIndexBuffer(NewIndexBuffer(s.indices)),
	}
	if s.hasUVs {
		opts = append(opts, WithVertexBuffer(NewFloat32VertexBuffer(shader.SemanticTexCoord, 2, flattenVec2(s.uvs))))
	}
	if s.hasTangents {
		opts = append(opts, WithVertexBuffer(NewFloat32VertexBuffer(shader.SemanticTangent, 4, flattenVec4(s.tangents))))
	}
	if s.hasColors {
		opts = append(opts, WithVertexBuffer(NewFloat32VertexBuffer(shader.SemanticColor, 4, flattenVec4(s.colors))))
	}
	for _, sec := range s.sections {
		opts = append(opts, WithSection(sec))
	}
	return opts
}

// slotName returns the material slot a primitive renders with.
func slotName(doc *gltf.Document, prim *gltf.Primitive) string {
	if prim.Material == nil || *prim.Material >= len(doc.Materials) {
		return DefaultSlot
	}
	if name := doc.Materials[*prim.Material].Name; name != "" {
		return name
	}
	return fmt.Sprintf("material_%d", *prim.Material)
}

// importMaterials converts glTF PBR materials into ImportedMaterials keyed by slot name.
func importMaterials(doc *gltf.Document, dir string) []common.ImportedMaterial {
	out := make([]common.ImportedMaterial, 0, len(doc.Materials))
	for i, gm := range doc.Materials {
		name := gm.Name
		if name == "" {
			name = fmt.Sprintf("material_%d", i)
		}
		im := common.ImportedMaterial{
			Name:      name,
			BaseColor: [4]float32{1, 1, 1, 1},
			Metallic:  1,
			Roughness: 1,
		}
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			im.BaseColor = [4]float32{float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3])}
			im.Metallic = float32(pbr.MetallicFactorOrDefault())
			im.Roughness = float32(pbr.RoughnessFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				im.DiffuseTexture = importTexture(doc, dir, pbr.BaseColorTexture.Index)
			}
			if pbr.MetallicRoughnessTexture != nil {
				im.MetallicRoughnessTexture = importTexture(doc, dir, pbr.MetallicRoughnessTexture.Index)
			}
		}
		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			im.NormalTexture = importTexture(doc, dir, *gm.NormalTexture.Index)
		}
		out = append(out, im)
	}
	return out
}

// importTexture resolves a glTF texture index to embedded bytes or an external path.
func importTexture(doc *gltf.Document, dir string, index int) *common.ImportedTexture {
	if index < 0 || index >= len(doc.Textures) || doc.Textures[index].Source == nil {
		return nil
	}
	src := *doc.Textures[index].Source
	if src >= len(doc.Images) {
		return nil
	}
	img := doc.Images[src]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", src)
	}

	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil
		}
		return &common.ImportedTexture{Name: name, Data: raw}
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil
		}
		return &common.ImportedTexture{Name: name, Data: raw}
	case img.URI != "":
		return &common.ImportedTexture{Name: name, Path: filepath.Join(dir, img.URI)}
	}
	return nil
}

func flattenVec2(v []mgl32.Vec2) []float32 {
	out := make([]float32, 0, len(v)*2)
	for _, e := range v {
		out = append(out, e[:]...)
	}
	return out
}

func flattenVec3(v []mgl32.Vec3) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, e := range v {
		out = append(out, e[:]...)
	}
	return out
}

func flattenVec4(v []mgl32.Vec4) []float32 {
	out := make([]float32, 0, len(v)*4)
	for _, e := range v {
		out = append(out, e[:]...)
	}
	return out
}
