package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	label   string
	group   int
	entries []Entry

	// GPU objects below are populated by the Renderer. Texture views and samplers are borrowed
	// from textures and the sampler cache; only the bind group and buffers are owned.
	bindGroup    *wgpu.BindGroup
	buffers      map[int]*wgpu.Buffer
	textureViews map[int]*wgpu.TextureView
	samplers     map[int]*wgpu.Sampler
}

// BindGroupProvider holds the resolved resources of one bind group of a draw command.
// Resolve produces the CPU side (ordered entries pointing at live material storage) and the
// Renderer fills in the GPU objects.
//
// Usage pattern:
//  1. Resolve a draw command's pass into one provider per group
//  2. Renderer.BindDrawCommand creates buffers, gathers views and samplers and builds the bind group
//  3. Renderer.WriteBindGroups re-uploads the live constant-buffer blobs before each submission
//  4. The submission side binds BindGroup() at Group()
type BindGroupProvider interface {
	// Release frees the bind group and the buffers owned by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the bind group index the provider is bound at.
	//
	// Returns:
	//   - int: the group index
	Group() int

	// Entries returns the resolved bindings in ascending binding order.
	//
	// Returns:
	//   - []Entry: the entries
	Entries() []Entry

	// BindGroup returns the created bind group, or nil before the Renderer built it.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the GPU buffer of a constant-buffer binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the texture view of a texture binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler of a sampler binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// SetBindGroup stores the bind group built by the Renderer.
	//
	// Parameters:
	//   - bg: the bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer stores the GPU buffer of a constant-buffer binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer, owned by the provider from now on
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTextureView stores the texture view of a texture binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the borrowed view
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler stores the sampler of a sampler binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the borrowed sampler
	SetSampler(binding int, s *wgpu.Sampler)

	// BindGroupEntries assembles the wgpu entries from the stored GPU objects.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per resolved binding
	//   - error: an error naming the first binding without a GPU object
	BindGroupEntries() ([]wgpu.BindGroupEntry, error)

	// Writes returns one full-buffer write per constant-buffer binding, reading the live blobs.
	//
	// Returns:
	//   - []BufferWrite: the pending writes in binding order
	Writes() []BufferWrite

	// Stale reports whether a texture binding no longer matches the slot it was resolved
	// from, or its texture has been given a new view since the bind group was built.
	//
	// Parameters:
	//   - textures: the current texture slots of the draw command
	//
	// Returns:
	//   - bool: true if the bind group must be rebuilt
	Stale(textures map[string]texture.Texture) bool
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - group: the bind group index
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, group int, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		group:        group,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() int {
	return p.group
}

func (p *bindGroupProvider) Entries() []Entry {
	return p.entries
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) BindGroupEntries() ([]wgpu.BindGroupEntry, error) {
	out := make([]wgpu.BindGroupEntry, len(p.entries))
	for i, e := range p.entries {
		switch e.Kind {
		case EntryBuffer:
			buf := p.buffers[e.Binding]
			if buf == nil {
				return nil, fmt.Errorf("%s: buffer binding %d (%s) has no buffer", p.label, e.Binding, e.Name)
			}
			out[i] = wgpu.BindGroupEntry{Binding: uint32(e.Binding), Buffer: buf, Offset: 0, Size: wgpu.WholeSize}
		case EntryTexture:
			tv := p.textureViews[e.Binding]
			if tv == nil {
				return nil, fmt.Errorf("%s: texture binding %d (%s) has no texture view", p.label, e.Binding, e.Name)
			}
			out[i] = wgpu.BindGroupEntry{Binding: uint32(e.Binding), TextureView: tv}
		case EntrySampler:
			s := p.samplers[e.Binding]
			if s == nil {
				return nil, fmt.Errorf("%s: sampler binding %d (%s) has no sampler", p.label, e.Binding, e.Name)
			}
			out[i] = wgpu.BindGroupEntry{Binding: uint32(e.Binding), Sampler: s}
		}
	}
	return out, nil
}

func (p *bindGroupProvider) Writes() []BufferWrite {
	var writes []BufferWrite
	for _, e := range p.entries {
		if e.Kind != EntryBuffer || len(e.Data) == 0 {
			continue
		}
		data := e.Data
		if uint64(len(data)) > e.Size {
			data = data[:e.Size]
		}
		writes = append(writes, BufferWrite{
			Provider: p,
			Binding:  e.Binding,
			Offset:   0,
			Data:     data,
		})
	}
	return writes
}

func (p *bindGroupProvider) Stale(textures map[string]texture.Texture) bool {
	for _, e := range p.entries {
		if e.Kind != EntryTexture {
			continue
		}
		current := textures[e.Name]
		if current != e.Texture {
			return true
		}
		if bound := p.textureViews[e.Binding]; bound != nil && current != nil && current.View() != bound {
			return true
		}
	}
	return false
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	clear(p.textureViews)
	clear(p.samplers)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}
