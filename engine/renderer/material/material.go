package material

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// FrameBufferMarker marks constant buffers that are supplied per frame by the renderer.
	// Any buffer whose name contains it gets no per-material storage.
	FrameBufferMarker = "PerFrame"

	// DefaultTextureName is the reserved asset name of the texture every texture parameter starts with.
	DefaultTextureName = "Black"
)

var (
	// ErrUnsupportedParameterSize is returned when a reflected constant-buffer variable is not 4, 8, 12 or 16 bytes.
	ErrUnsupportedParameterSize = errors.New("material: unsupported parameter size")

	// ErrParameterOutOfBounds is returned when a reflected variable does not fit inside its buffer.
	ErrParameterOutOfBounds = errors.New("material: parameter outside constant buffer")

	// ErrNilTechnique is returned when a material is built without a technique.
	ErrNilTechnique = errors.New("material: nil technique")

	// ErrDuplicateConstantBuffer is returned when a pass declares the same constant buffer name twice.
	ErrDuplicateConstantBuffer = errors.New("material: duplicate constant buffer in pass")
)

// TextureSource supplies the shared default texture new texture parameters are bound to.
type TextureSource interface {
	// DefaultTexture returns the reserved "Black" texture.
	//
	// Returns:
	//   - texture.Texture: the default texture
	DefaultTexture() texture.Texture
}

// ParameterKind identifies which table a parameter lives in.
type ParameterKind int

const (
	ParameterKindFloat ParameterKind = iota
	ParameterKindVector2
	ParameterKindVector3
	ParameterKindVector4
	ParameterKindTexture
)

func (k ParameterKind) String() string {
	switch k {
	case ParameterKindFloat:
		return "float"
	case ParameterKindVector2:
		return "vec2"
	case ParameterKindVector3:
		return "vec3"
	case ParameterKindVector4:
		return "vec4"
	case ParameterKindTexture:
		return "texture"
	default:
		return "unknown"
	}
}

// ParameterInfo names one material parameter and its kind.
type ParameterInfo struct {
	Name string
	Kind ParameterKind
}

// material is the implementation of the Material interface.
type material struct {
	name           string
	technique      shader.Technique
	frameMarker    string
	defaultTexture texture.Texture

	passParameters map[string]*PassParameterBlock

	floats   *parameterTable[float32]
	vector2s *parameterTable[mgl32.Vec2]
	vector3s *parameterTable[mgl32.Vec3]
	vector4s *parameterTable[mgl32.Vec4]
	textures map[string]*TextureParameterEntry
}

// Material binds named parameters onto the constant buffers and texture slots of every pass
// of a shader technique. A Material is shared by reference: every mesh component using it
// observes its parameter writes, including through draw commands built earlier.
//
// Material is not safe for concurrent use.
type Material interface {
	// Name returns the material name.
	//
	// Returns:
	//   - string: the material name
	Name() string

	// Technique returns the shader technique the material was built from.
	//
	// Returns:
	//   - shader.Technique: the technique
	Technique() shader.Technique

	// SetFloatParameter sets a scalar parameter in every pass that declares it.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the new value
	//
	// Returns:
	//   - bool: false if no scalar parameter has this name, in which case nothing is written
	SetFloatParameter(name string, value float32) bool

	// SetVector2Parameter sets a 2-component parameter in every pass that declares it.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the new value
	//
	// Returns:
	//   - bool: false if no vector2 parameter has this name, in which case nothing is written
	SetVector2Parameter(name string, value mgl32.Vec2) bool

	// SetVector3Parameter sets a 3-component parameter in every pass that declares it.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the new value
	//
	// Returns:
	//   - bool: false if no vector3 parameter has this name, in which case nothing is written
	SetVector3Parameter(name string, value mgl32.Vec3) bool

	// SetVector4Parameter sets a 4-component parameter in every pass that declares it.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the new value
	//
	// Returns:
	//   - bool: false if no vector4 parameter has this name, in which case nothing is written
	SetVector4Parameter(name string, value mgl32.Vec4) bool

	// SetTextureParameter binds a texture into every pass that declares the texture parameter.
	//
	// Parameters:
	//   - name: the texture parameter name
	//   - tex: the texture to bind, may be nil
	//
	// Returns:
	//   - bool: false if no texture parameter has this name, in which case nothing changes
	SetTextureParameter(name string, tex texture.Texture) bool

	// FloatParameter returns the current value of a scalar parameter.
	FloatParameter(name string) (float32, bool)

	// Vector2Parameter returns the current value of a vector2 parameter.
	Vector2Parameter(name string) (mgl32.Vec2, bool)

	// Vector3Parameter returns the current value of a vector3 parameter.
	Vector3Parameter(name string) (mgl32.Vec3, bool)

	// Vector4Parameter returns the current value of a vector4 parameter.
	Vector4Parameter(name string) (mgl32.Vec4, bool)

	// TextureParameter returns the texture currently bound to a texture parameter.
	TextureParameter(name string) (texture.Texture, bool)

	// Parameters lists every parameter sorted by name, then kind.
	//
	// Returns:
	//   - []ParameterInfo: the material's parameters
	Parameters() []ParameterInfo

	// ShaderPassParameters returns the per-pass parameter blocks keyed by pass name.
	// The map and blocks are owned by the material and must be treated as read-only.
	//
	// Returns:
	//   - map[string]*PassParameterBlock: blocks keyed by pass name
	ShaderPassParameters() map[string]*PassParameterBlock

	// PassParameters returns the parameter block of a single pass, or nil.
	//
	// Parameters:
	//   - pass: the pass name
	//
	// Returns:
	//   - *PassParameterBlock: the block or nil
	PassParameters(pass string) *PassParameterBlock
}

var _ Material = &material{}

// NewMaterial builds a material from a technique. For every pass it allocates one zeroed
// blob per constant buffer, skipping frame buffers, and classifies every buffer variable by
// its byte size into the scalar, vector2, vector3 or vector4 table. Texture resources become
// texture parameters bound to the default texture from textures.
//
// Parameters:
//   - name: the material name
//   - technique: the shader technique providing the reflected layout
//   - textures: the source of the default texture, may be nil to leave textures unbound
//   - options: variadic list of MaterialBuilderOption functions
//
// Returns:
//   - Material: the constructed material
//   - error: ErrNilTechnique, ErrDuplicateConstantBuffer, ErrUnsupportedParameterSize or ErrParameterOutOfBounds
func NewMaterial(name string, technique shader.Technique, textures TextureSource, options ...MaterialBuilderOption) (Material, error) {
	if technique == nil {
		return nil, fmt.Errorf("material %s: %w", name, ErrNilTechnique)
	}

	m := &material{
		name:           name,
		technique:      technique,
		frameMarker:    FrameBufferMarker,
		passParameters: make(map[string]*PassParameterBlock, len(technique.Passes())),
		floats:         newParameterTable(4, encodeFloat),
		vector2s:       newParameterTable(8, encodeVec2),
		vector3s:       newParameterTable(12, encodeVec3),
		vector4s:       newParameterTable(16, encodeVec4),
		textures:       make(map[string]*TextureParameterEntry),
	}
	if textures != nil {
		m.defaultTexture = textures.DefaultTexture()
	}
	for _, opt := range options {
		opt(m)
	}

	for _, p := range technique.Passes() {
		if err := m.bindPass(p); err != nil {
			return nil, fmt.Errorf("material %s: %w", name, err)
		}
	}

	m.resetDefaults()
	return m, nil
}

// bindPass allocates the block of one pass and records where each of its variables lives.
func (m *material) bindPass(p shader.Pass) error {
	block := newPassParameterBlock(p)
	m.passParameters[p.Name()] = block

	for _, cb := range p.ConstantBuffers() {
		if m.frameMarker != "" && strings.Contains(cb.Name, m.frameMarker) {
			continue
		}
		if _, ok := block.constantBuffers[cb.Name]; ok {
			return fmt.Errorf("pass %s buffer %s: %w", p.Name(), cb.Name, ErrDuplicateConstantBuffer)
		}
		block.constantBuffers[cb.Name] = make([]byte, cb.Size)

		for _, v := range cb.Variables {
			if v.StartOffset+v.Size > cb.Size {
				return fmt.Errorf("pass %s buffer %s variable %s [%d:%d] in %d bytes: %w",
					p.Name(), cb.Name, v.Name, v.StartOffset, v.StartOffset+v.Size, cb.Size, ErrParameterOutOfBounds)
			}
			loc := ConstantBufferVariableLocation{BufferName: cb.Name, StartOffset: v.StartOffset, Size: v.Size}
			switch v.Size {
			case m.floats.size:
				m.floats.add(v.Name, p.Name(), loc)
			case m.vector2s.size:
				m.vector2s.add(v.Name, p.Name(), loc)
			case m.vector3s.size:
				m.vector3s.add(v.Name, p.Name(), loc)
			case m.vector4s.size:
				m.vector4s.add(v.Name, p.Name(), loc)
			default:
				return fmt.Errorf("pass %s buffer %s variable %s is %d bytes: %w",
					p.Name(), cb.Name, v.Name, v.Size, ErrUnsupportedParameterSize)
			}
		}
	}

	for _, tex := range p.Textures() {
		block.textureSlots[tex.Name] = nil
		e, ok := m.textures[tex.Name]
		if !ok {
			e = &TextureParameterEntry{}
			m.textures[tex.Name] = e
		}
		e.relevantPasses = append(e.relevantPasses, p.Name())
	}
	return nil
}

// resetDefaults zeroes every value and blob and binds every texture parameter to the default texture.
func (m *material) resetDefaults() {
	m.floats.reset()
	m.vector2s.reset()
	m.vector3s.reset()
	m.vector4s.reset()
	for name := range m.textures {
		m.SetTextureParameter(name, m.defaultTexture)
	}
	for _, block := range m.passParameters {
		block.zero()
	}
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Technique() shader.Technique {
	return m.technique
}

func (m *material) SetFloatParameter(name string, value float32) bool {
	return m.floats.set(name, value, m.passParameters)
}

func (m *material) SetVector2Parameter(name string, value mgl32.Vec2) bool {
	return m.vector2s.set(name, value, m.passParameters)
}

func (m *material) SetVector3Parameter(name string, value mgl32.Vec3) bool {
	return m.vector3s.set(name, value, m.passParameters)
}

func (m *material) SetVector4Parameter(name string, value mgl32.Vec4) bool {
	return m.vector4s.set(name, value, m.passParameters)
}

func (m *material) SetTextureParameter(name string, tex texture.Texture) bool {
	e, ok := m.textures[name]
	if !ok {
		return false
	}
	e.value = tex
	for _, pass := range e.relevantPasses {
		m.passParameters[pass].textureSlots[name] = tex
	}
	return true
}

func (m *material) FloatParameter(name string) (float32, bool) {
	return m.floats.get(name)
}

func (m *material) Vector2Parameter(name string) (mgl32.Vec2, bool) {
	return m.vector2s.get(name)
}

func (m *material) Vector3Parameter(name string) (mgl32.Vec3, bool) {
	return m.vector3s.get(name)
}

func (m *material) Vector4Parameter(name string) (mgl32.Vec4, bool) {
	return m.vector4s.get(name)
}

func (m *material) TextureParameter(name string) (texture.Texture, bool) {
	e, ok := m.textures[name]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (m *material) Parameters() []ParameterInfo {
	var out []ParameterInfo
	for name := range m.floats.entries {
		out = append(out, ParameterInfo{Name: name, Kind: ParameterKindFloat})
	}
	for name := range m.vector2s.entries {
		out = append(out, ParameterInfo{Name: name, Kind: ParameterKindVector2})
	}
	for name := range m.vector3s.entries {
		out = append(out, ParameterInfo{Name: name, Kind: ParameterKindVector3})
	}
	for name := range m.vector4s.entries {
		out = append(out, ParameterInfo{Name: name, Kind: ParameterKindVector4})
	}
	for name := range m.textures {
		out = append(out, ParameterInfo{Name: name, Kind: ParameterKindTexture})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func (m *material) ShaderPassParameters() map[string]*PassParameterBlock {
	return m.passParameters
}

func (m *material) PassParameters(pass string) *PassParameterBlock {
	return m.passParameters[pass]
}

// WeakRef makes a weak reference to a material for caches that must not keep it alive.
// Materials not created by this package yield an empty reference.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - common.WeakRef[Material]: the weak reference
func WeakRef(m Material) common.WeakRef[Material] {
	impl, ok := m.(*material)
	if !ok {
		return common.WeakRef[Material]{}
	}
	return common.NewWeakRef(impl, func(p *material) Material { return p })
}
