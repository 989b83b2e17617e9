package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packedSource = `
struct Packed {
    a: f32,
    b: f32,
    c: vec2<f32>,
    d: vec3<f32>,
}

struct Skinned {
    @location(3) weights: vec4<f32>,
    @location(1) position: vec3<f32>,
}

struct Other {
    @location(0) weights: vec4<f32>,
    @location(5) position: vec3<f32>,
}

@group(0) @binding(0) var<uniform> params: Packed;

@vertex
fn vs_main(vin: Skinned, @location(7) color: vec4<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(vin.position.x, vin.position.y, params.a, color.x);
}
`

func TestConstantBufferOffsetsFollowAlignment(t *testing.T) {
	s, err := NewShader("packed", ShaderTypeVertex, packedSource)
	require.NoError(t, err)
	require.Len(t, s.ConstantBuffers(), 1)

	cb := s.ConstantBuffers()[0]
	assert.Equal(t, uint32(32), cb.Size)
	assert.Equal(t, []ConstantBufferVariable{
		{Name: "a", StartOffset: 0, Size: 4},
		{Name: "b", StartOffset: 4, Size: 4},
		{Name: "c", StartOffset: 8, Size: 8},
		{Name: "d", StartOffset: 16, Size: 12},
	}, cb.Variables)
}

func TestStructVertexInputsUseDeclaredLocations(t *testing.T) {
	s, err := NewShader("skinned", ShaderTypeVertex, packedSource)
	require.NoError(t, err)

	inputs := s.VertexInputs()
	require.Len(t, inputs, 3)
	assert.Equal(t, uint32(3), inputs[0].Slot)
	assert.Equal(t, "WEIGHTS", inputs[0].SemanticName)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, inputs[0].Format)
	assert.Equal(t, uint32(1), inputs[1].Slot)
	assert.Equal(t, "POSITION", inputs[1].SemanticName)
	assert.Equal(t, uint32(7), inputs[2].Slot)
	assert.Equal(t, "COLOR", inputs[2].SemanticName)
}
