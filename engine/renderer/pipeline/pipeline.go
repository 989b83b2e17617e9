package pipeline

import (
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// SampleMaskAll enables every sample of every pixel.
const SampleMaskAll uint32 = 0xFFFFFFFF

// pipeline is the implementation of the Pipeline interface.
// It holds the render state of one shader pass and, once finalized, the GPU pipeline object.
type pipeline struct {
	// key is the unique identifier for this pipeline, used for caching by the finalizer
	key string

	// pass supplies the vertex and fragment shaders and the vertex input layout
	pass shader.Pass

	// renderPipeline is nil until the pipeline is finalized
	renderPipeline *wgpu.RenderPipeline

	// The following properties describe fixed-function state and can be set with the builder options.

	colorFormat         wgpu.TextureFormat
	depthFormat         wgpu.TextureFormat
	sampleMask          uint32
	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline describes the pipeline-state object of one shader pass: the pass shaders, the
// fixed-function state and the render target formats. A finalizer turns the description into a
// GPU render pipeline and stores it with SetRenderPipeline.
type Pipeline interface {
	// Key returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	Key() string

	// Pass returns the shader pass this pipeline renders.
	//
	// Returns:
	//   - shader.Pass: the pass, or nil if not set
	Pass() shader.Pass

	// Shader retrieves the pass shader of the specified stage.
	//
	// Parameters:
	//   - shaderType: the stage of shader to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if the pipeline has no pass or the pass lacks the stage
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline returns the finalized GPU pipeline.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline, or nil before finalization
	RenderPipeline() *wgpu.RenderPipeline

	// Finalized reports whether a GPU pipeline has been stored.
	//
	// Returns:
	//   - bool: true once SetRenderPipeline was called with a non-nil pipeline
	Finalized() bool

	// ColorFormat returns the render target format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color attachment format
	ColorFormat() wgpu.TextureFormat

	// DepthFormat returns the depth attachment format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the depth format, or wgpu.TextureFormatUndefined for no depth attachment
	DepthFormat() wgpu.TextureFormat

	// SampleMask returns the multisample mask.
	//
	// Returns:
	//   - uint32: the sample mask
	SampleMask() uint32

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthBias returns the depth bias value configured for this pipeline.
	//
	// Returns:
	//   - int32: the depth bias value for this pipeline
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	//
	// Returns:
	//   - float32: the depth bias slope scale for this pipeline
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state, or nil when blending is disabled
	BlendState() *wgpu.BlendState

	// SetRenderPipeline stores the finalized GPU pipeline. The finalizer that created it keeps ownership.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline description. Defaults are a depth-tested triangle list with
// every sample enabled, no culling and alpha blending configured but disabled.
//
// Parameters:
//   - key: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline with the specified configuration
func NewPipeline(key string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:               key,
		colorFormat:       wgpu.TextureFormatBGRA8Unorm,
		depthFormat:       wgpu.TextureFormatDepth24Plus,
		sampleMask:        SampleMaskAll,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Pass() shader.Pass {
	return p.pass
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	if p.pass == nil {
		return nil
	}
	return p.pass.Shader(shaderType)
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) Finalized() bool {
	return p.renderPipeline != nil
}

func (p *pipeline) ColorFormat() wgpu.TextureFormat {
	return p.colorFormat
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) SampleMask() uint32 {
	return p.sampleMask
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	if !p.blendEnabled {
		return nil
	}
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
