package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/actor"
	"github.com/Carmen-Shannon/prism/engine/mesh"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/Carmen-Shannon/prism/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoPass is returned when a pipeline without a shader pass is finalized.
	ErrNoPass = errors.New("renderer: pipeline has no shader pass")

	// ErrEmptyTexture is returned when a texture without pixel data is uploaded.
	ErrEmptyTexture = errors.New("renderer: texture has no pixel data")

	// ErrNotFinalized is returned when a draw command's pipeline has no GPU pipeline yet.
	ErrNotFinalized = errors.New("renderer: draw command pipeline is not finalized")
)

// cachedPipeline is one GPU pipeline and the inputs it was created from.
type cachedPipeline struct {
	desc pipeline.Pipeline
	gpu  *wgpu.RenderPipeline
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *slog.Logger

	pipelineCache map[string]cachedPipeline
	// retired GPU pipelines may still be referenced by draw commands built earlier; they are
	// freed by ReleaseRetired or Release
	retired         []*wgpu.RenderPipeline
	releasePipeline func(*wgpu.RenderPipeline)
	samplerCache    map[common.SamplerStagingData]*wgpu.Sampler

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer is the graphics device collaborator of the engine. It owns the WebGPU device and
// surface, compiles pipeline descriptions into GPU pipelines and uploads mesh and texture data.
// Command submission and presentation are left to the caller.
type Renderer interface {
	actor.PipelineFinalizer

	// Pipeline retrieves the cached pipeline description associated with the given key.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the last pipeline finalized under the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// UploadStaticMesh creates GPU buffers for every vertex and index buffer of a mesh that
	// has not been uploaded yet.
	//
	// Parameters:
	//   - m: the mesh to upload
	//
	// Returns:
	//   - error: an error if buffer creation fails
	UploadStaticMesh(m mesh.StaticMesh) error

	// UploadTexture creates the GPU texture and view of a texture.
	//
	// Parameters:
	//   - tex: the texture to upload
	//
	// Returns:
	//   - error: ErrEmptyTexture or a texture creation error
	UploadTexture(tex texture.Texture) error

	// Sampler returns a GPU sampler for a sampler configuration, creating it on first use.
	//
	// Parameters:
	//   - cfg: the sampler configuration
	//
	// Returns:
	//   - *wgpu.Sampler: the shared sampler
	//   - error: an error if sampler creation fails
	Sampler(cfg common.SamplerStagingData) (*wgpu.Sampler, error)

	// BindDrawCommand resolves the bindings of a draw command's pass and creates one bind group
	// per group, uploading textures that have no GPU copy yet. The caller owns the returned
	// providers and releases them once the command is stale.
	//
	// Parameters:
	//   - cmd: the draw command
	//   - shared: constant buffers the material does not own, keyed by name, may be nil
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: the providers in group order
	//   - error: ErrNotFinalized, a resolution error or a GPU object creation error
	BindDrawCommand(cmd *actor.MeshDrawCommand, shared map[string][]byte) ([]bind_group_provider.BindGroupProvider, error)

	// RefreshDrawCommand rebuilds the bind groups of a bound draw command when one of its
	// texture slots has changed since binding. Unchanged providers are returned as they are.
	// On a rebuild the caller releases the old providers.
	//
	// Parameters:
	//   - cmd: the draw command
	//   - shared: the shared constant buffers passed to BindDrawCommand
	//   - providers: the providers currently bound for the command
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: the providers to draw with
	//   - bool: true if new providers were built
	//   - error: a BindDrawCommand error, in which case the old providers are returned
	RefreshDrawCommand(cmd *actor.MeshDrawCommand, shared map[string][]byte, providers []bind_group_provider.BindGroupProvider) ([]bind_group_provider.BindGroupProvider, bool, error)

	// WriteBindGroups uploads the current contents of every constant buffer of the providers.
	//
	// Parameters:
	//   - providers: the providers to refresh
	WriteBindGroups(providers ...bind_group_provider.BindGroupProvider)

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// ReleaseRetired frees the GPU pipelines replaced by later FinalizePipeline calls, except
	// those a live pipeline still renders with.
	//
	// Parameters:
	//   - live: the pipelines of the draw commands still in use
	//
	// Returns:
	//   - int: the number of GPU pipelines freed
	ReleaseRetired(live ...pipeline.Pipeline) int

	// Release frees every cached pipeline and sampler and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend type on the window's surface.
// It panics if no adapter or device can be acquired.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - window: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := newRenderer(backendType, options...)

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	r.logger.Info("renderer ready", "width", window.Width(), "height", window.Height(), "msaa", uint32(msaa))
	return r
}

// newRenderer applies the options to an empty renderer without creating a backend.
func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:              &sync.Mutex{},
		logger:          slog.Default(),
		pipelineCache:   make(map[string]cachedPipeline),
		releasePipeline: (*wgpu.RenderPipeline).Release,
		samplerCache:    make(map[common.SamplerStagingData]*wgpu.Sampler),
		backendType:     backendType,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) SwapChainFormats() (wgpu.TextureFormat, wgpu.TextureFormat) {
	return r.backend.SurfaceFormat(), r.backend.DepthFormat()
}

// FinalizePipeline reuses the GPU pipeline cached under the key when it was created for the
// same pass and formats, and otherwise creates a new one and retires the old.
func (r *renderer) FinalizePipeline(p pipeline.Pipeline) error {
	if p.Pass() == nil {
		return fmt.Errorf("pipeline %q: %w", p.Key(), ErrNoPass)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.pipelineCache[p.Key()]; ok {
		if compatible(cached.desc, p) {
			p.SetRenderPipeline(cached.gpu)
			r.pipelineCache[p.Key()] = cachedPipeline{desc: p, gpu: cached.gpu}
			return nil
		}
		r.retired = append(r.retired, cached.gpu)
	}

	gpu, err := r.backend.CreateRenderPipeline(p)
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", p.Key(), err)
	}
	p.SetRenderPipeline(gpu)
	r.pipelineCache[p.Key()] = cachedPipeline{desc: p, gpu: gpu}
	r.logger.Debug("pipeline finalized", "key", p.Key(), "pass", p.Pass().Name())
	return nil
}

// compatible reports whether a GPU pipeline built for a can render b.
func compatible(a, b pipeline.Pipeline) bool {
	return a.Pass() == b.Pass() &&
		a.ColorFormat() == b.ColorFormat() &&
		a.DepthFormat() == b.DepthFormat() &&
		a.SampleMask() == b.SampleMask() &&
		a.Topology() == b.Topology() &&
		a.CullMode() == b.CullMode() &&
		a.FrontFace() == b.FrontFace() &&
		a.DepthTestEnabled() == b.DepthTestEnabled() &&
		a.DepthWriteEnabled() == b.DepthWriteEnabled() &&
		a.BlendEnabled() == b.BlendEnabled() &&
		a.WriteMask() == b.WriteMask()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	cached, ok := r.pipelineCache[key]
	if !ok {
		return nil
	}
	return cached.desc
}

func (r *renderer) UploadStaticMesh(m mesh.StaticMesh) error {
	for sem, vb := range m.VertexBuffers() {
		if vb.GPU() != nil || len(vb.Data) == 0 {
			continue
		}
		buf, err := r.backend.CreateBuffer(fmt.Sprintf("%s %s", m.Name(), sem), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, vb.Data)
		if err != nil {
			return fmt.Errorf("mesh %q %s buffer: %w", m.Name(), sem, err)
		}
		vb.SetGPU(buf)
	}

	ib := m.IndexBuffer()
	if ib == nil || ib.GPU() != nil || len(ib.Data) == 0 {
		return nil
	}
	buf, err := r.backend.CreateBuffer(m.Name()+" index", wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, ib.Data)
	if err != nil {
		return fmt.Errorf("mesh %q index buffer: %w", m.Name(), err)
	}
	ib.SetGPU(buf)
	return nil
}

func (r *renderer) UploadTexture(tex texture.Texture) error {
	staging := tex.StagingData()
	if len(staging.Pixels) == 0 || staging.Width == 0 || staging.Height == 0 {
		return fmt.Errorf("texture %q: %w", tex.Name(), ErrEmptyTexture)
	}
	gpuTex, view, err := r.backend.CreateTexture(tex.Name(), staging)
	if err != nil {
		return fmt.Errorf("texture %q: %w", tex.Name(), err)
	}
	tex.SetGPU(gpuTex, view)
	return nil
}

func (r *renderer) Sampler(cfg common.SamplerStagingData) (*wgpu.Sampler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.samplerCache[cfg]; ok {
		return s, nil
	}
	s, err := r.backend.CreateSampler(fmt.Sprintf("sampler %d", len(r.samplerCache)), cfg)
	if err != nil {
		return nil, err
	}
	r.samplerCache[cfg] = s
	return s, nil
}

func (r *renderer) BindDrawCommand(cmd *actor.MeshDrawCommand, shared map[string][]byte) ([]bind_group_provider.BindGroupProvider, error) {
	if cmd.Pipeline == nil || !cmd.Pipeline.Finalized() {
		return nil, fmt.Errorf("draw %q: %w", cmd.Pass, ErrNotFinalized)
	}

	providers, err := bind_group_provider.Resolve(cmd.Pipeline.Key(), cmd.Pipeline.Pass(), cmd.ConstantBuffers, shared, cmd.Textures)
	if err != nil {
		return nil, err
	}
	for i, p := range providers {
		if err := r.bindProvider(cmd.Pipeline.RenderPipeline(), p); err != nil {
			for _, done := range providers[:i+1] {
				done.Release()
			}
			return nil, err
		}
	}
	return providers, nil
}

// bindProvider creates or gathers the GPU object of every entry and builds the bind group.
func (r *renderer) bindProvider(rp *wgpu.RenderPipeline, p bind_group_provider.BindGroupProvider) error {
	for _, e := range p.Entries() {
		switch e.Kind {
		case bind_group_provider.EntryBuffer:
			data := make([]byte, e.Size)
			copy(data, e.Data)
			buf, err := r.backend.CreateBuffer(fmt.Sprintf("%s %s", p.Label(), e.Name), wgpu.BufferUsageUniform, data)
			if err != nil {
				return fmt.Errorf("%s: buffer %q: %w", p.Label(), e.Name, err)
			}
			p.SetBuffer(e.Binding, buf)
		case bind_group_provider.EntryTexture:
			if e.Texture.View() == nil {
				if err := r.UploadTexture(e.Texture); err != nil {
					return fmt.Errorf("%s: %w", p.Label(), err)
				}
			}
			p.SetTextureView(e.Binding, e.Texture.View())
		case bind_group_provider.EntrySampler:
			s, err := r.Sampler(e.Sampler)
			if err != nil {
				return fmt.Errorf("%s: sampler %q: %w", p.Label(), e.Name, err)
			}
			p.SetSampler(e.Binding, s)
		}
	}

	entries, err := p.BindGroupEntries()
	if err != nil {
		return err
	}
	bg, err := r.backend.CreateBindGroup(p.Label(), rp, p.Group(), entries)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Label(), err)
	}
	p.SetBindGroup(bg)
	return nil
}

func (r *renderer) RefreshDrawCommand(cmd *actor.MeshDrawCommand, shared map[string][]byte, providers []bind_group_provider.BindGroupProvider) ([]bind_group_provider.BindGroupProvider, bool, error) {
	stale := false
	for _, p := range providers {
		if p.Stale(cmd.Textures) {
			stale = true
			break
		}
	}
	if !stale {
		return providers, false, nil
	}

	fresh, err := r.BindDrawCommand(cmd, shared)
	if err != nil {
		return providers, false, err
	}
	r.logger.Debug("draw rebound", "pipeline", cmd.Pipeline.Key(), "groups", len(fresh))
	return fresh, true, nil
}

func (r *renderer) WriteBindGroups(providers ...bind_group_provider.BindGroupProvider) {
	for _, p := range providers {
		for _, w := range p.Writes() {
			if buf := p.Buffer(w.Binding); buf != nil {
				r.backend.WriteBuffer(buf, w.Offset, w.Data)
			}
		}
	}
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) ReleaseRetired(live ...pipeline.Pipeline) int {
	inUse := make(map[*wgpu.RenderPipeline]bool, len(live))
	for _, p := range live {
		if p != nil && p.RenderPipeline() != nil {
			inUse[p.RenderPipeline()] = true
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.retired[:0]
	freed := 0
	for _, gpu := range r.retired {
		if gpu == nil {
			continue
		}
		if inUse[gpu] {
			kept = append(kept, gpu)
			continue
		}
		r.releasePipeline(gpu)
		freed++
	}
	clear(r.retired[len(kept):])
	r.retired = kept
	if freed > 0 {
		r.logger.Debug("retired pipelines released", "freed", freed, "kept", len(kept))
	}
	return freed
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, cached := range r.pipelineCache {
		if cached.gpu != nil {
			cached.gpu.Release()
		}
		delete(r.pipelineCache, key)
	}
	for _, gpu := range r.retired {
		if gpu != nil {
			r.releasePipeline(gpu)
		}
	}
	r.retired = nil
	for cfg, s := range r.samplerCache {
		s.Release()
		delete(r.samplerCache, cfg)
	}
	r.backend.Release()
}
