package shader

import (
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadLit(t *testing.T, shaderType ShaderType) Shader {
	t.Helper()
	s, err := LoadShader("lit", shaderType, filepath.Join("testdata", "lit.wgsl"))
	require.NoError(t, err)
	return s
}

func TestLoadShaderReflectsConstantBuffers(t *testing.T) {
	s := loadLit(t, ShaderTypeVertex)

	assert.Equal(t, "vs_main", s.EntryPoint())
	require.Len(t, s.ConstantBuffers(), 2)

	frame := s.ConstantBuffers()[0]
	assert.Equal(t, "cbPerFrame", frame.Name)
	assert.Equal(t, uint32(64), frame.Size)

	surface := s.ConstantBuffers()[1]
	assert.Equal(t, "surface", surface.Name)
	assert.Equal(t, uint32(1), surface.Group)
	assert.Equal(t, uint32(32), surface.Size)
	assert.Equal(t, []ConstantBufferVariable{
		{Name: "tint", StartOffset: 0, Size: 16},
		{Name: "roughness", StartOffset: 16, Size: 4},
		{Name: "uv_scale", StartOffset: 24, Size: 8},
	}, surface.Variables)
}

func TestLoadShaderReflectsTexturesAndLayouts(t *testing.T) {
	s := loadLit(t, ShaderTypeFragment)

	assert.Equal(t, "fs_main", s.EntryPoint())
	require.Len(t, s.Textures(), 1)
	assert.Equal(t, "albedo", s.Textures()[0].Name)
	assert.Nil(t, s.VertexInputs())

	group := s.BindGroupLayoutDescriptor(1)
	require.Len(t, group.Entries, 3)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, group.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(32), group.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, group.Entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, group.Entries[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, group.Entries[2].Sampler.Type)
	assert.Equal(t, "albedo_sampler", s.BindGroupVarName(1, 2))
}

func TestLoadShaderReflectsVertexInputs(t *testing.T) {
	s := loadLit(t, ShaderTypeVertex)

	inputs := s.VertexInputs()
	require.Len(t, inputs, 3)
	assert.Equal(t, VertexInput{Slot: 0, SemanticName: "POSITION", Semantic: SemanticPosition, Format: wgpu.VertexFormatFloat32x3}, inputs[0])
	assert.Equal(t, VertexInput{Slot: 1, SemanticName: "NORMAL", Semantic: SemanticNormal, Format: wgpu.VertexFormatFloat32x3}, inputs[1])
	assert.Equal(t, VertexInput{Slot: 2, SemanticName: "TEXCOORD0", Semantic: SemanticTexCoord, Format: wgpu.VertexFormatFloat32x2}, inputs[2])

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 3)
	assert.Equal(t, uint64(12), layouts[0].ArrayStride)
	assert.Equal(t, uint64(8), layouts[2].ArrayStride)
	assert.Equal(t, uint32(2), layouts[2].Attributes[0].ShaderLocation)
}

func TestNewShaderMissingEntryPoint(t *testing.T) {
	src := `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`
	_, err := NewShader("frag-only", ShaderTypeVertex, src)
	assert.ErrorIs(t, err, ErrNoVertexEntryPoint)
}

func TestReflectPassMergesStages(t *testing.T) {
	p, err := ReflectPass("forward", loadLit(t, ShaderTypeVertex), loadLit(t, ShaderTypeFragment))
	require.NoError(t, err)

	assert.Equal(t, "forward", p.Name())
	assert.Len(t, p.ConstantBuffers(), 2)
	assert.Len(t, p.Textures(), 1)
	assert.Len(t, p.VertexInputs(), 3)
	assert.NotNil(t, p.Shader(ShaderTypeFragment))
}

func TestReflectPassRejectsWrongStage(t *testing.T) {
	_, err := ReflectPass("bad", loadLit(t, ShaderTypeFragment), nil)
	assert.ErrorIs(t, err, ErrNoVertexEntryPoint)
}

func TestNewTechniqueRejectsDuplicatePasses(t *testing.T) {
	_, err := NewTechnique("dup", NewPass("a"), NewPass("a"))
	assert.ErrorIs(t, err, ErrDuplicatePass)

	tech, err := NewTechnique("ok", NewPass("a"), NewPass("b"))
	require.NoError(t, err)
	assert.Equal(t, "b", tech.Passes()[1].Name())
	assert.NotNil(t, tech.Pass("a"))
	assert.Nil(t, tech.Pass("c"))
}
