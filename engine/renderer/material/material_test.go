package material

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextures struct {
	black texture.Texture
}

func (f *fakeTextures) DefaultTexture() texture.Texture {
	return f.black
}

func newFakeTextures() *fakeTextures {
	return &fakeTextures{black: texture.NewSolidTexture(DefaultTextureName, color.RGBA{A: 255})}
}

func forwardPass() shader.Pass {
	return shader.NewPass("forward",
		shader.WithConstantBuffer(shader.ConstantBuffer{
			Name: "cbPerFrame",
			Size: 64,
			Variables: []shader.ConstantBufferVariable{
				{Name: "viewProj", StartOffset: 0, Size: 64},
			},
		}),
		shader.WithConstantBuffer(shader.ConstantBuffer{
			Name: "Surface",
			Size: 48,
			Variables: []shader.ConstantBufferVariable{
				{Name: "tint", StartOffset: 0, Size: 16},
				{Name: "roughness", StartOffset: 16, Size: 4},
				{Name: "uvScale", StartOffset: 24, Size: 8},
				{Name: "emissive", StartOffset: 32, Size: 12},
			},
		}),
		shader.WithTexture("albedo"),
		shader.WithTexture("normalMap"),
	)
}

func shadowPass() shader.Pass {
	return shader.NewPass("shadow",
		shader.WithConstantBuffer(shader.ConstantBuffer{
			Name: "ShadowParams",
			Size: 32,
			Variables: []shader.ConstantBufferVariable{
				{Name: "bias", StartOffset: 0, Size: 4},
				{Name: "roughness", StartOffset: 8, Size: 4},
				{Name: "tint", StartOffset: 16, Size: 16},
			},
		}),
		shader.WithTexture("albedo"),
	)
}

func newTechnique(t *testing.T, passes ...shader.Pass) shader.Technique {
	t.Helper()
	tech, err := shader.NewTechnique("lit", passes...)
	require.NoError(t, err)
	return tech
}

func snapshot(m Material) map[string]map[string][]byte {
	out := make(map[string]map[string][]byte)
	for pass, block := range m.ShaderPassParameters() {
		out[pass] = make(map[string][]byte)
		for name, buf := range block.ConstantBuffers() {
			out[pass][name] = bytes.Clone(buf)
		}
	}
	return out
}

func TestNewMaterialClassifiesBySize(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass(), shadowPass()), newFakeTextures())
	require.NoError(t, err)
	impl := m.(*material)

	assert.Contains(t, impl.floats.entries, "roughness")
	assert.Contains(t, impl.floats.entries, "bias")
	assert.Contains(t, impl.vector2s.entries, "uvScale")
	assert.Contains(t, impl.vector3s.entries, "emissive")
	assert.Contains(t, impl.vector4s.entries, "tint")
	assert.Len(t, impl.floats.entries, 2)
	assert.Len(t, impl.vector2s.entries, 1)
	assert.Len(t, impl.vector3s.entries, 1)
	assert.Len(t, impl.vector4s.entries, 1)

	assert.ElementsMatch(t, []PassLocation{
		{Pass: "forward", Location: ConstantBufferVariableLocation{BufferName: "Surface", StartOffset: 16, Size: 4}},
		{Pass: "shadow", Location: ConstantBufferVariableLocation{BufferName: "ShadowParams", StartOffset: 8, Size: 4}},
	}, impl.floats.entries["roughness"].Locations())
}

func TestNewMaterialRejectsUnsupportedSizes(t *testing.T) {
	for _, size := range []uint32{1, 2, 6, 20, 64} {
		p := shader.NewPass("p", shader.WithConstantBuffer(shader.ConstantBuffer{
			Name:      "Params",
			Size:      64,
			Variables: []shader.ConstantBufferVariable{{Name: "odd", StartOffset: 0, Size: size}},
		}))
		m, err := NewMaterial("m", newTechnique(t, p), newFakeTextures())
		assert.ErrorIs(t, err, ErrUnsupportedParameterSize, "size %d", size)
		assert.Nil(t, m)
	}
}

func TestNewMaterialRejectsOutOfBoundsVariable(t *testing.T) {
	p := shader.NewPass("p", shader.WithConstantBuffer(shader.ConstantBuffer{
		Name:      "Params",
		Size:      16,
		Variables: []shader.ConstantBufferVariable{{Name: "v", StartOffset: 8, Size: 16}},
	}))
	_, err := NewMaterial("m", newTechnique(t, p), newFakeTextures())
	assert.ErrorIs(t, err, ErrParameterOutOfBounds)
}

func TestNewMaterialRejectsRepeatedBufferName(t *testing.T) {
	p := shader.NewPass("p",
		shader.WithConstantBuffer(shader.ConstantBuffer{
			Name:      "Params",
			Size:      32,
			Variables: []shader.ConstantBufferVariable{{Name: "tint", StartOffset: 16, Size: 16}},
		}),
		shader.WithConstantBuffer(shader.ConstantBuffer{Name: "Params", Size: 16}),
	)
	m, err := NewMaterial("m", newTechnique(t, p), newFakeTextures())
	assert.ErrorIs(t, err, ErrDuplicateConstantBuffer)
	assert.Nil(t, m)
}

func TestNewMaterialRejectsNilTechnique(t *testing.T) {
	_, err := NewMaterial("m", nil, newFakeTextures())
	assert.ErrorIs(t, err, ErrNilTechnique)
}

func TestNewMaterialDefaults(t *testing.T) {
	textures := newFakeTextures()
	m, err := NewMaterial("m", newTechnique(t, forwardPass(), shadowPass()), textures)
	require.NoError(t, err)

	v, ok := m.FloatParameter("roughness")
	assert.True(t, ok)
	assert.Zero(t, v)
	v2, _ := m.Vector2Parameter("uvScale")
	assert.Equal(t, mgl32.Vec2{}, v2)
	v3, _ := m.Vector3Parameter("emissive")
	assert.Equal(t, mgl32.Vec3{}, v3)
	v4, _ := m.Vector4Parameter("tint")
	assert.Equal(t, mgl32.Vec4{}, v4)

	for _, name := range []string{"albedo", "normalMap"} {
		tex, ok := m.TextureParameter(name)
		assert.True(t, ok)
		assert.Same(t, textures.black, tex)
	}

	for pass, block := range m.ShaderPassParameters() {
		for name, buf := range block.ConstantBuffers() {
			assert.Equal(t, make([]byte, len(buf)), buf, "%s/%s not zeroed", pass, name)
		}
		for name, tex := range block.TextureSlots() {
			assert.Same(t, textures.black, tex, "%s/%s", pass, name)
		}
	}
	assert.Len(t, m.PassParameters("forward").ConstantBuffer("Surface"), 48)
	assert.Len(t, m.PassParameters("shadow").ConstantBuffer("ShadowParams"), 32)
}

func TestNewMaterialExcludesFrameBuffers(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass()), newFakeTextures())
	require.NoError(t, err)

	block := m.PassParameters("forward")
	assert.NotContains(t, block.ConstantBuffers(), "cbPerFrame")
	assert.Contains(t, block.ConstantBuffers(), "Surface")
	for _, p := range m.Parameters() {
		assert.NotEqual(t, "viewProj", p.Name)
	}
	assert.False(t, m.SetFloatParameter("viewProj", 1))
}

func TestNewMaterialWithoutFrameMarkerRejectsMatrix(t *testing.T) {
	_, err := NewMaterial("m", newTechnique(t, forwardPass()), newFakeTextures(), WithFrameBufferMarker(""))
	assert.ErrorIs(t, err, ErrUnsupportedParameterSize)
}

func TestSetFloatParameterFansOut(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass(), shadowPass()), newFakeTextures())
	require.NoError(t, err)
	before := snapshot(m)

	require.True(t, m.SetFloatParameter("roughness", 0.75))

	fwd := m.PassParameters("forward").ConstantBuffer("Surface")
	shd := m.PassParameters("shadow").ConstantBuffer("ShadowParams")
	assert.Equal(t, float32(0.75), ReadFloat(fwd, 16))
	assert.Equal(t, float32(0.75), ReadFloat(shd, 8))

	// every other byte is unchanged
	for i := range fwd {
		if i >= 16 && i < 20 {
			continue
		}
		assert.Equal(t, before["forward"]["Surface"][i], fwd[i], "forward byte %d", i)
	}
	for i := range shd {
		if i >= 8 && i < 12 {
			continue
		}
		assert.Equal(t, before["shadow"]["ShadowParams"][i], shd[i], "shadow byte %d", i)
	}

	v, _ := m.FloatParameter("roughness")
	assert.Equal(t, float32(0.75), v)
}

func TestSetVectorParametersEncodeLittleEndian(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass(), shadowPass()), newFakeTextures())
	require.NoError(t, err)

	tint := mgl32.Vec4{0.1, 0.2, 0.3, 1}
	require.True(t, m.SetVector4Parameter("tint", tint))
	require.True(t, m.SetVector2Parameter("uvScale", mgl32.Vec2{2, 4}))
	require.True(t, m.SetVector3Parameter("emissive", mgl32.Vec3{1, 0.5, 0}))

	fwd := m.PassParameters("forward").ConstantBuffer("Surface")
	assert.Equal(t, tint, ReadVec4(fwd, 0))
	assert.Equal(t, tint, ReadVec4(m.PassParameters("shadow").ConstantBuffer("ShadowParams"), 16))
	assert.Equal(t, []float32{2, 4}, readFloat32s(fwd[24:], 2))
	assert.Equal(t, []float32{1, 0.5, 0}, readFloat32s(fwd[32:], 3))

	// 1.0f is 0x3f800000, stored low byte first
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, fwd[12:16])
}

func TestUnknownParameterIsNoOp(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass(), shadowPass()), newFakeTextures())
	require.NoError(t, err)
	require.True(t, m.SetFloatParameter("bias", 3))
	before := snapshot(m)
	texBefore := m.PassParameters("forward").TextureSlots()["albedo"]

	assert.False(t, m.SetFloatParameter("missing", 1))
	assert.False(t, m.SetVector2Parameter("missing", mgl32.Vec2{1, 1}))
	assert.False(t, m.SetVector3Parameter("missing", mgl32.Vec3{1, 1, 1}))
	assert.False(t, m.SetVector4Parameter("missing", mgl32.Vec4{1, 1, 1, 1}))
	assert.False(t, m.SetTextureParameter("missing", texture.NewSolidTexture("x", color.RGBA{})))
	// right name, wrong table
	assert.False(t, m.SetVector4Parameter("roughness", mgl32.Vec4{1, 1, 1, 1}))
	assert.False(t, m.SetFloatParameter("tint", 1))

	assert.Equal(t, before, snapshot(m))
	assert.Same(t, texBefore, m.PassParameters("forward").TextureSlots()["albedo"])
	_, ok := m.FloatParameter("missing")
	assert.False(t, ok)
}

func TestSetTextureParameterUpdatesRelevantPasses(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass(), shadowPass()), newFakeTextures())
	require.NoError(t, err)
	impl := m.(*material)
	assert.Equal(t, []string{"forward", "shadow"}, impl.textures["albedo"].RelevantPasses())
	assert.Equal(t, []string{"forward"}, impl.textures["normalMap"].RelevantPasses())

	brick := texture.NewSolidTexture("brick", color.RGBA{R: 180, A: 255})
	require.True(t, m.SetTextureParameter("albedo", brick))

	assert.Same(t, brick, m.PassParameters("forward").TextureSlots()["albedo"])
	assert.Same(t, brick, m.PassParameters("shadow").TextureSlots()["albedo"])
	assert.NotSame(t, brick, m.PassParameters("forward").TextureSlots()["normalMap"])
	assert.NotContains(t, m.PassParameters("shadow").TextureSlots(), "normalMap")
}

func TestLiveBufferMapsSeeLaterWrites(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass()), newFakeTextures())
	require.NoError(t, err)

	held := m.PassParameters("forward").ConstantBuffers()
	heldTextures := m.PassParameters("forward").TextureSlots()

	require.True(t, m.SetFloatParameter("roughness", 0.5))
	brick := texture.NewSolidTexture("brick", color.RGBA{R: 180, A: 255})
	require.True(t, m.SetTextureParameter("albedo", brick))

	assert.Equal(t, float32(0.5), ReadFloat(held["Surface"], 16))
	assert.Same(t, brick, heldTextures["albedo"])
}

func TestNilTextureSourceLeavesSlotsUnbound(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass()), nil)
	require.NoError(t, err)

	tex, ok := m.TextureParameter("albedo")
	assert.True(t, ok)
	assert.Nil(t, tex)

	override := texture.NewSolidTexture("white", color.RGBA{R: 255, G: 255, B: 255, A: 255})
	m, err = NewMaterial("m", newTechnique(t, forwardPass()), nil, WithDefaultTexture(override))
	require.NoError(t, err)
	tex, _ = m.TextureParameter("albedo")
	assert.Same(t, override, tex)
}

func TestParametersListsEveryKind(t *testing.T) {
	m, err := NewMaterial("m", newTechnique(t, forwardPass(), shadowPass()), newFakeTextures())
	require.NoError(t, err)

	assert.Equal(t, []ParameterInfo{
		{Name: "albedo", Kind: ParameterKindTexture},
		{Name: "bias", Kind: ParameterKindFloat},
		{Name: "emissive", Kind: ParameterKindVector3},
		{Name: "normalMap", Kind: ParameterKindTexture},
		{Name: "roughness", Kind: ParameterKindFloat},
		{Name: "tint", Kind: ParameterKindVector4},
		{Name: "uvScale", Kind: ParameterKindVector2},
	}, m.Parameters())
}
