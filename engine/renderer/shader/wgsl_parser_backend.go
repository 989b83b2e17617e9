package shader

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga/ir"
)

// vertexFormatKey identifies a vertex attribute type by scalar kind, scalar width and
// component count.
type vertexFormatKey struct {
	kind       ir.ScalarKind
	width      uint8
	components uint8
}

// vertexFormatInfo holds the wgpu vertex format and its byte size.
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslVertexFormatMap maps attribute types to their wgpu vertex format and byte size.
var wgslVertexFormatMap = map[vertexFormatKey]vertexFormatInfo{
	{ir.ScalarFloat, 4, 1}: {wgpu.VertexFormatFloat32, 4},
	{ir.ScalarFloat, 4, 2}: {wgpu.VertexFormatFloat32x2, 8},
	{ir.ScalarFloat, 4, 3}: {wgpu.VertexFormatFloat32x3, 12},
	{ir.ScalarFloat, 4, 4}: {wgpu.VertexFormatFloat32x4, 16},
	{ir.ScalarSint, 4, 1}:  {wgpu.VertexFormatSint32, 4},
	{ir.ScalarSint, 4, 2}:  {wgpu.VertexFormatSint32x2, 8},
	{ir.ScalarSint, 4, 3}:  {wgpu.VertexFormatSint32x3, 12},
	{ir.ScalarSint, 4, 4}:  {wgpu.VertexFormatSint32x4, 16},
	{ir.ScalarUint, 4, 1}:  {wgpu.VertexFormatUint32, 4},
	{ir.ScalarUint, 4, 2}:  {wgpu.VertexFormatUint32x2, 8},
	{ir.ScalarUint, 4, 3}:  {wgpu.VertexFormatUint32x3, 12},
	{ir.ScalarUint, 4, 4}:  {wgpu.VertexFormatUint32x4, 16},
	{ir.ScalarFloat, 2, 2}: {wgpu.VertexFormatFloat16x2, 4},
	{ir.ScalarFloat, 2, 4}: {wgpu.VertexFormatFloat16x4, 8},
}

// wgslViewDimensionMap maps image dimensions to their non-arrayed view dimension.
var wgslViewDimensionMap = map[ir.ImageDimension]wgpu.TextureViewDimension{
	ir.Dim1D:   wgpu.TextureViewDimension1D,
	ir.Dim2D:   wgpu.TextureViewDimension2D,
	ir.Dim3D:   wgpu.TextureViewDimension3D,
	ir.DimCube: wgpu.TextureViewDimensionCube,
}

// wgslArrayedViewDimensionMap maps image dimensions to their arrayed view dimension.
var wgslArrayedViewDimensionMap = map[ir.ImageDimension]wgpu.TextureViewDimension{
	ir.Dim2D:   wgpu.TextureViewDimension2DArray,
	ir.DimCube: wgpu.TextureViewDimensionCubeArray,
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// vectorLayout returns the size and alignment of a vector with the given component count
// and scalar width. Three-component vectors align like four-component ones.
func vectorLayout(components, width uint8) wgslTypeLayout {
	size := uint64(components) * uint64(width)
	if components == 3 {
		return wgslTypeLayout{size, 4 * uint64(width)}
	}
	return wgslTypeLayout{size, size}
}

// typeLayout resolves the byte size and alignment of a type handle using WGSL host-shareable
// layout rules. Runtime-sized arrays report a single element stride.
//
// Parameters:
//   - mod: the lowered module owning the type arena
//   - handle: the type to resolve
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false if the type is not host-shareable
func typeLayout(mod *ir.Module, handle ir.TypeHandle) (wgslTypeLayout, bool) {
	if int(handle) >= len(mod.Types) {
		return wgslTypeLayout{}, false
	}

	switch t := mod.Types[handle].Inner.(type) {
	case ir.ScalarType:
		return wgslTypeLayout{uint64(t.Width), uint64(t.Width)}, true
	case ir.AtomicType:
		return wgslTypeLayout{uint64(t.Scalar.Width), uint64(t.Scalar.Width)}, true
	case ir.VectorType:
		return vectorLayout(uint8(t.Size), t.Scalar.Width), true
	case ir.MatrixType:
		column := vectorLayout(uint8(t.Rows), t.Scalar.Width)
		stride := roundUpAlign(column.align, column.size)
		return wgslTypeLayout{uint64(t.Columns) * stride, column.align}, true
	case ir.ArrayType:
		elem, ok := typeLayout(mod, t.Base)
		if !ok {
			return wgslTypeLayout{}, false
		}
		stride := uint64(t.Stride)
		if stride == 0 {
			stride = roundUpAlign(elem.align, elem.size)
		}
		if t.Size.Constant == nil {
			return wgslTypeLayout{stride, elem.align}, true
		}
		return wgslTypeLayout{uint64(*t.Size.Constant) * stride, elem.align}, true
	case ir.StructType:
		_, layout, ok := structLayout(mod, t)
		return layout, ok
	}
	return wgslTypeLayout{}, false
}

// structLayout places the members of a struct at their WGSL offsets: each member starts at
// the next multiple of its alignment and the span rounds up to the largest alignment.
// The offsets naga records on the IR are ignored.
//
// Parameters:
//   - mod: the lowered module owning the type arena
//   - st: the struct type
//
// Returns:
//   - []wgslMemberLayout: the offset and size of every member in declaration order
//   - wgslTypeLayout: the layout of the struct itself
//   - bool: false if a member is not host-shareable
func structLayout(mod *ir.Module, st ir.StructType) ([]wgslMemberLayout, wgslTypeLayout, bool) {
	members := make([]wgslMemberLayout, len(st.Members))
	var offset uint64
	maxAlign := uint64(1)
	for i, m := range st.Members {
		ml, ok := typeLayout(mod, m.Type)
		if !ok {
			return nil, wgslTypeLayout{}, false
		}
		offset = roundUpAlign(ml.align, offset)
		members[i] = wgslMemberLayout{offset: offset, size: ml.size}
		offset += ml.size
		maxAlign = max(maxAlign, ml.align)
	}
	return members, wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// vertexFormat maps a scalar or vector type handle onto a wgpu vertex format.
func vertexFormat(mod *ir.Module, handle ir.TypeHandle) (wgpu.VertexFormat, bool) {
	if int(handle) >= len(mod.Types) {
		return 0, false
	}

	var key vertexFormatKey
	switch t := mod.Types[handle].Inner.(type) {
	case ir.ScalarType:
		key = vertexFormatKey{t.Kind, t.Width, 1}
	case ir.VectorType:
		key = vertexFormatKey{t.Scalar.Kind, t.Scalar.Width, uint8(t.Size)}
	default:
		return 0, false
	}

	info, ok := wgslVertexFormatMap[key]
	return info.format, ok
}

// VertexFormatSize returns the byte size of a vertex format, or 0 if it is not supported.
//
// Parameters:
//   - format: the vertex format to size
//
// Returns:
//   - uint64: the byte size of one attribute of the format
func VertexFormatSize(format wgpu.VertexFormat) uint64 {
	for _, info := range wgslVertexFormatMap {
		if info.format == format {
			return info.size
		}
	}
	return 0
}

// bindGroupEntry creates a wgpu.BindGroupLayoutEntry for a bound global variable. Buffer
// bindings get MinBindingSize set from the resolved type layout.
//
// Parameters:
//   - mod: the lowered module owning the type arena
//   - gv: the bound global variable
//   - inner: the resolved inner type of the global
//   - visibility: the shader stage visibility flag
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the populated layout entry
//   - bool: false if the resource kind is not supported for render pipelines
func bindGroupEntry(mod *ir.Module, gv ir.GlobalVariable, inner ir.TypeInner, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutEntry, bool) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    gv.Binding.Binding,
		Visibility: visibility,
	}

	switch gv.Space {
	case ir.SpaceUniform, ir.SpaceStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		if gv.Space == ir.SpaceStorage {
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		}
		if layout, ok := typeLayout(mod, gv.Type); ok {
			entry.Buffer.MinBindingSize = layout.size
		}
		return entry, true
	case ir.SpaceHandle:
		switch t := inner.(type) {
		case ir.SamplerType:
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
			if t.Comparison {
				entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
			}
			return entry, true
		case ir.ImageType:
			if t.Class == ir.ImageClassStorage {
				return entry, false
			}
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			if t.Class == ir.ImageClassDepth {
				entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
			}
			entry.Texture.ViewDimension = wgslViewDimensionMap[t.Dim]
			if t.Arrayed {
				entry.Texture.ViewDimension = wgslArrayedViewDimensionMap[t.Dim]
			}
			entry.Texture.Multisampled = t.Multisampled
			return entry, true
		}
	}
	return entry, false
}

// VertexBufferLayouts converts vertex inputs into one non-interleaved buffer layout per
// input, in declaration order, so each attribute can be fed from its own vertex buffer.
// Inputs with an unknown semantic get no buffer, matching draw-command assembly.
//
// Parameters:
//   - inputs: the reflected vertex inputs
//
// Returns:
//   - []wgpu.VertexBufferLayout: one layout per classified input
func VertexBufferLayouts(inputs []VertexInput) []wgpu.VertexBufferLayout {
	layouts := make([]wgpu.VertexBufferLayout, 0, len(inputs))
	for _, in := range inputs {
		if in.Semantic == SemanticUnknown {
			continue
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: VertexFormatSize(in.Format),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{{
				Format:         in.Format,
				Offset:         0,
				ShaderLocation: in.Slot,
			}},
		})
	}
	return layouts
}
