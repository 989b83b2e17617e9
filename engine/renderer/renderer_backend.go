package renderer

import (
	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// RendererBackend is the device-level interface the Renderer drives. It creates GPU objects
// and leaves caching and ownership tracking to the Renderer.
type RendererBackend interface {
	// ConfigureSurface (re)configures the surface and its depth and MSAA attachments.
	ConfigureSurface(width, height int)

	// SetPresentMode selects the present mode used by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// SurfaceFormat returns the swap chain color format.
	SurfaceFormat() wgpu.TextureFormat

	// DepthFormat returns the depth attachment format.
	DepthFormat() wgpu.TextureFormat

	// CreateRenderPipeline compiles a pipeline description.
	CreateRenderPipeline(p pipeline.Pipeline) (*wgpu.RenderPipeline, error)

	// CreateBuffer creates a GPU buffer initialized with data.
	CreateBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error)

	// CreateTexture creates an RGBA8 sRGB texture and its view from staging data.
	CreateTexture(label string, staging common.TextureStagingData) (*wgpu.Texture, *wgpu.TextureView, error)

	// CreateSampler creates a sampler, filling zero fields with linear repeat defaults.
	CreateSampler(label string, cfg common.SamplerStagingData) (*wgpu.Sampler, error)

	// CreateBindGroup creates a bind group against the layout of one group of a finalized pipeline.
	CreateBindGroup(label string, rp *wgpu.RenderPipeline, group int, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error)

	// WriteBuffer queues a write of data into buf at offset.
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// Release frees the surface attachments, device and instance.
	Release()
}
