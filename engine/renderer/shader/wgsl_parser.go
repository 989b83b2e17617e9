package shader

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/wgsl"
)

var (
	// ErrNoVertexEntryPoint is returned when a vertex shader source has no @vertex function.
	ErrNoVertexEntryPoint = errors.New("shader: no @vertex entry point")

	// ErrNoFragmentEntryPoint is returned when a fragment shader source has no @fragment function.
	ErrNoFragmentEntryPoint = errors.New("shader: no @fragment entry point")
)

// parseSource parses and lowers WGSL source with naga and reflects the resources and
// entry point relevant to the given shader type.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the stage whose entry point should be reflected
//
// Returns:
//   - *reflection: the reflected entry point, resources and vertex inputs
//   - error: an error if the source does not parse or has no matching entry point
func parseSource(source string, shaderType ShaderType) (*reflection, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse wgsl: %w", err)
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lower wgsl: %w", err)
	}
	return reflectModule(ast, mod, shaderType)
}

// reflectModule walks a lowered module and collects the bind group layouts, constant
// buffers, textures and, for vertex shaders, the per-vertex inputs of the entry point.
//
// Parameters:
//   - ast: the parsed module, consulted for attributes the IR drops
//   - mod: the lowered naga IR module
//   - shaderType: the stage whose entry point should be reflected
//
// Returns:
//   - *reflection: the reflected data
//   - error: an error if the entry point is missing or a resource type is unsupported
func reflectModule(ast *wgsl.Module, mod *ir.Module, shaderType ShaderType) (*reflection, error) {
	ep, ok := findEntryPoint(mod, shaderType)
	if !ok {
		if shaderType == ShaderTypeVertex {
			return nil, ErrNoVertexEntryPoint
		}
		return nil, ErrNoFragmentEntryPoint
	}

	r := &reflection{
		entryPoint: ep.Name,
		varNames:   make(map[int]map[int]string),
	}

	visibility := stageVisibility(shaderType)
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, gv := range mod.GlobalVariables {
		if gv.Binding == nil || int(gv.Type) >= len(mod.Types) {
			continue
		}
		inner := mod.Types[gv.Type].Inner

		entry, ok := bindGroupEntry(mod, gv, inner, visibility)
		if !ok {
			continue
		}
		group, binding := int(gv.Binding.Group), int(gv.Binding.Binding)
		groups[group] = append(groups[group], entry)
		if r.varNames[group] == nil {
			r.varNames[group] = make(map[int]string)
		}
		r.varNames[group][binding] = gv.Name

		switch gv.Space {
		case ir.SpaceUniform:
			cb, err := reflectConstantBuffer(mod, gv, inner)
			if err != nil {
				return nil, err
			}
			r.constantBuffers = append(r.constantBuffers, cb)
		case ir.SpaceHandle:
			if _, isImage := inner.(ir.ImageType); isImage {
				r.textures = append(r.textures, TextureResource{
					Name:    gv.Name,
					Group:   gv.Binding.Group,
					Binding: gv.Binding.Binding,
				})
			}
		}
	}

	r.bindGroups = make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		r.bindGroups[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}

	if shaderType == ShaderTypeVertex && int(ep.Function) < len(mod.Functions) {
		inputs, err := reflectVertexInputs(ast, mod, ep.Name, mod.Functions[ep.Function])
		if err != nil {
			return nil, err
		}
		r.vertexInputs = inputs
	}

	return r, nil
}

// findEntryPoint returns the first entry point of the module for the given stage.
func findEntryPoint(mod *ir.Module, shaderType ShaderType) (ir.EntryPoint, bool) {
	want := ir.StageFragment
	if shaderType == ShaderTypeVertex {
		want = ir.StageVertex
	}
	for _, ep := range mod.EntryPoints {
		if ep.Stage == want {
			return ep, true
		}
	}
	return ir.EntryPoint{}, false
}

// reflectConstantBuffer converts a uniform global into a ConstantBuffer. Struct members
// become variables at the offsets naga computed; a bare uniform value becomes a single
// variable at offset zero named after the global.
//
// Parameters:
//   - mod: the lowered module owning the type arena
//   - gv: the uniform global variable
//   - inner: the resolved inner type of the global
//
// Returns:
//   - ConstantBuffer: the reflected constant buffer
//   - error: an error if a member type has no known layout
func reflectConstantBuffer(mod *ir.Module, gv ir.GlobalVariable, inner ir.TypeInner) (ConstantBuffer, error) {
	cb := ConstantBuffer{
		Name:    gv.Name,
		Group:   gv.Binding.Group,
		Binding: gv.Binding.Binding,
	}

	st, ok := inner.(ir.StructType)
	if !ok {
		layout, ok := typeLayout(mod, gv.Type)
		if !ok {
			return cb, fmt.Errorf("uniform %q: unsupported type", gv.Name)
		}
		cb.Size = uint32(layout.size)
		cb.Variables = []ConstantBufferVariable{{Name: gv.Name, StartOffset: 0, Size: uint32(layout.size)}}
		return cb, nil
	}

	members, layout, ok := structLayout(mod, st)
	if !ok {
		return cb, fmt.Errorf("uniform %q: unsupported member type", gv.Name)
	}
	cb.Size = uint32(layout.size)
	cb.Variables = make([]ConstantBufferVariable, 0, len(st.Members))
	for i, m := range st.Members {
		cb.Variables = append(cb.Variables, ConstantBufferVariable{
			Name:        m.Name,
			StartOffset: uint32(members[i].offset),
			Size:        uint32(members[i].size),
		})
	}
	return cb, nil
}

// reflectVertexInputs collects the @location inputs of a vertex entry point in declaration
// order. Inputs may be plain arguments or members of a struct argument. WGSL carries no
// semantic strings so the semantic name is the upper-cased input name.
//
// Parameters:
//   - ast: the parsed module holding the struct member attributes
//   - mod: the lowered module owning the type arena
//   - entry: the entry point function name
//   - fn: the vertex entry point function
//
// Returns:
//   - []VertexInput: the classified vertex inputs
//   - error: an error if an input type has no vertex format
func reflectVertexInputs(ast *wgsl.Module, mod *ir.Module, entry string, fn ir.Function) ([]VertexInput, error) {
	var inputs []VertexInput
	add := func(name string, loc uint32, th ir.TypeHandle) error {
		format, ok := vertexFormat(mod, th)
		if !ok {
			return fmt.Errorf("vertex input %q: unsupported type", name)
		}
		inputs = append(inputs, NewVertexInput(loc, strings.ToUpper(name), format))
		return nil
	}

	for i, arg := range fn.Arguments {
		if loc, ok := locationOf(arg.Binding); ok {
			if err := add(arg.Name, loc, arg.Type); err != nil {
				return nil, err
			}
			continue
		}
		if arg.Binding != nil || int(arg.Type) >= len(mod.Types) {
			continue
		}
		st, ok := mod.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		locations := memberLocations(ast, entry, i)
		for j, m := range st.Members {
			if loc, ok := locations[j]; ok {
				if err := add(m.Name, loc, m.Type); err != nil {
					return nil, err
				}
			}
		}
	}
	return inputs, nil
}

// memberLocations returns the @location of each member, by index, of the struct type of an
// entry point parameter. The lowered IR keeps no bindings on struct members.
func memberLocations(ast *wgsl.Module, entry string, param int) map[int]uint32 {
	if ast == nil {
		return nil
	}
	var decl *wgsl.FunctionDecl
	for _, f := range ast.Functions {
		if f.Name == entry {
			decl = f
			break
		}
	}
	if decl == nil || param >= len(decl.Params) {
		return nil
	}
	named, ok := decl.Params[param].Type.(*wgsl.NamedType)
	if !ok {
		return nil
	}

	for _, sd := range ast.Structs {
		if sd.Name != named.Name {
			continue
		}
		locations := make(map[int]uint32)
		for i, m := range sd.Members {
			if loc, ok := locationAttr(m.Attributes); ok {
				locations[i] = loc
			}
		}
		return locations
	}
	return nil
}

// locationAttr returns the index of a @location attribute with a literal argument.
func locationAttr(attrs []wgsl.Attribute) (uint32, bool) {
	for _, attr := range attrs {
		if attr.Name != "location" || len(attr.Args) == 0 {
			continue
		}
		lit, ok := attr.Args[0].(*wgsl.Literal)
		if !ok {
			return 0, false
		}
		loc, err := strconv.ParseUint(lit.Value, 10, 32)
		if err != nil {
			return 0, false
		}
		return uint32(loc), true
	}
	return 0, false
}

// locationOf returns the @location index of a binding, if it is a location binding.
func locationOf(b *ir.Binding) (uint32, bool) {
	if b == nil {
		return 0, false
	}
	if lb, ok := (*b).(ir.LocationBinding); ok {
		return lb.Location, true
	}
	return 0, false
}

// stageVisibility maps a ShaderType onto the wgpu visibility flag for its bindings.
func stageVisibility(shaderType ShaderType) wgpu.ShaderStage {
	switch shaderType {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageNone
	}
}
