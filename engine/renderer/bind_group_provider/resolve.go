package bind_group_provider

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrUnboundConstantBuffer is returned when a pass constant buffer has neither material nor shared storage.
	ErrUnboundConstantBuffer = errors.New("bind group: constant buffer has no storage")

	// ErrUnboundTexture is returned when a pass texture has no texture in the draw command.
	ErrUnboundTexture = errors.New("bind group: texture slot is empty")
)

// EntryKind is the resource type of a resolved binding.
type EntryKind int

const (
	EntryBuffer EntryKind = iota
	EntryTexture
	EntrySampler
)

// Entry is one resolved binding of a bind group. Data aliases the live constant-buffer blob
// so writes made through the material after resolution are seen by Writes.
type Entry struct {
	Binding int
	Kind    EntryKind
	Name    string

	// EntryBuffer
	Size uint64
	Data []byte

	// EntryTexture
	Texture texture.Texture

	// EntrySampler
	Sampler common.SamplerStagingData
}

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Resolve maps a pass's reflected bindings onto the storage of a draw command, producing one
// provider per bind group in ascending group order. Constant buffers are looked up in the
// material storage first and in shared second, which is where per-frame blobs come from.
// Samplers take the configuration of the texture in the same group whose name is their
// longest prefix, or the default configuration.
//
// Parameters:
//   - label: the debug label prefix for the providers
//   - p: the shader pass
//   - constantBuffers: the material's live constant-buffer blobs for the pass
//   - shared: blobs for buffers the material does not own, may be nil
//   - textures: the material's texture slots for the pass
//
// Returns:
//   - []BindGroupProvider: the providers, without GPU objects
//   - error: ErrUnboundConstantBuffer or ErrUnboundTexture
func Resolve(label string, p shader.Pass, constantBuffers, shared map[string][]byte, textures map[string]texture.Texture) ([]BindGroupProvider, error) {
	groups := make(map[int][]Entry)
	groupTextures := make(map[int][]Entry)

	for _, cb := range p.ConstantBuffers() {
		data, ok := constantBuffers[cb.Name]
		if !ok {
			data, ok = shared[cb.Name]
		}
		if !ok {
			return nil, fmt.Errorf("%s: %q: %w", label, cb.Name, ErrUnboundConstantBuffer)
		}
		g := int(cb.Group)
		groups[g] = append(groups[g], Entry{
			Binding: int(cb.Binding),
			Kind:    EntryBuffer,
			Name:    cb.Name,
			Size:    uint64(cb.Size),
			Data:    data,
		})
	}

	for _, res := range p.Textures() {
		tex := textures[res.Name]
		if tex == nil {
			return nil, fmt.Errorf("%s: %q: %w", label, res.Name, ErrUnboundTexture)
		}
		g := int(res.Group)
		e := Entry{Binding: int(res.Binding), Kind: EntryTexture, Name: res.Name, Texture: tex}
		groups[g] = append(groups[g], e)
		groupTextures[g] = append(groupTextures[g], e)
	}

	seen := make(map[[2]int]bool)
	for _, stage := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(stage)
		if s == nil {
			continue
		}
		for g, desc := range s.BindGroupLayoutDescriptors() {
			for _, le := range desc.Entries {
				if le.Sampler.Type == wgpu.SamplerBindingTypeUndefined {
					continue
				}
				key := [2]int{g, int(le.Binding)}
				if seen[key] {
					continue
				}
				seen[key] = true
				name := s.BindGroupVarName(g, int(le.Binding))
				groups[g] = append(groups[g], Entry{
					Binding: int(le.Binding),
					Kind:    EntrySampler,
					Name:    name,
					Sampler: pairedSampler(name, groupTextures[g]),
				})
			}
		}
	}

	order := make([]int, 0, len(groups))
	for g := range groups {
		order = append(order, g)
	}
	slices.Sort(order)

	providers := make([]BindGroupProvider, 0, len(order))
	for _, g := range order {
		entries := groups[g]
		slices.SortFunc(entries, func(a, b Entry) int { return a.Binding - b.Binding })
		providers = append(providers, NewBindGroupProvider(fmt.Sprintf("%s group %d", label, g), g, WithEntries(entries...)))
	}
	return providers, nil
}

// pairedSampler returns the sampler configuration of the texture with the longest name that
// prefixes the sampler name.
func pairedSampler(name string, textures []Entry) common.SamplerStagingData {
	best := -1
	cfg := common.DefaultSamplerStagingData()
	for _, e := range textures {
		if strings.HasPrefix(name, e.Name) && len(e.Name) > best {
			best = len(e.Name)
			cfg = e.Texture.Sampler()
		}
	}
	return cfg
}
