package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("crate/Forward")

	assert.Equal(t, "crate/Forward", p.Key())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, SampleMaskAll, p.SampleMask())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.BlendState())
	assert.Nil(t, p.Pass())
	assert.Nil(t, p.Shader(shader.ShaderTypeVertex))
	assert.False(t, p.Finalized())
}

func TestPipelineOptions(t *testing.T) {
	pass := shader.NewPass("Shadow")
	blend := &wgpu.BlendState{}

	p := NewPipeline("crate/Shadow",
		WithPass(pass),
		WithColorFormat(wgpu.TextureFormatRGBA8Unorm),
		WithDepthFormat(wgpu.TextureFormatDepth32Float),
		WithSampleMask(0x1),
		WithCullMode(wgpu.CullModeBack),
		WithDepthBias(2, 1.5),
		WithBlendState(blend),
	)

	assert.Equal(t, pass, p.Pass())
	assert.Nil(t, p.Shader(shader.ShaderTypeFragment))
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, p.ColorFormat())
	assert.Equal(t, wgpu.TextureFormatDepth32Float, p.DepthFormat())
	assert.Equal(t, uint32(0x1), p.SampleMask())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, int32(2), p.DepthBias())
	assert.Equal(t, float32(1.5), p.DepthBiasSlopeScale())
	assert.True(t, p.BlendEnabled())
	assert.Same(t, blend, p.BlendState())
}

func TestWithBlendStateNilDisablesBlending(t *testing.T) {
	p := NewPipeline("k", WithBlendEnabled(true), WithBlendState(nil))
	assert.False(t, p.BlendEnabled())
}
