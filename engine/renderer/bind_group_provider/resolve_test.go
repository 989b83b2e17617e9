package bind_group_provider

import (
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func litPass(t *testing.T) shader.Pass {
	t.Helper()
	path := filepath.Join("..", "shader", "testdata", "lit.wgsl")
	vs, err := shader.LoadShader("lit/vs", shader.ShaderTypeVertex, path)
	require.NoError(t, err)
	fs, err := shader.LoadShader("lit/fs", shader.ShaderTypeFragment, path)
	require.NoError(t, err)
	p, err := shader.ReflectPass("Forward", vs, fs)
	require.NoError(t, err)
	return p
}

func TestResolveGroupsInBindingOrder(t *testing.T) {
	nearest := common.DefaultSamplerStagingData()
	nearest.MagFilter = wgpu.FilterModeNearest
	albedo := texture.NewTexture("bricks", texture.WithSampler(nearest))

	surface := make([]byte, 32)
	frame := make([]byte, 64)
	providers, err := Resolve("crate/Forward", litPass(t),
		map[string][]byte{"surface": surface},
		map[string][]byte{"cbPerFrame": frame},
		map[string]texture.Texture{"albedo": albedo},
	)
	require.NoError(t, err)
	require.Len(t, providers, 2)

	assert.Equal(t, 0, providers[0].Group())
	assert.Equal(t, "crate/Forward group 0", providers[0].Label())
	require.Len(t, providers[0].Entries(), 1)
	assert.Equal(t, "cbPerFrame", providers[0].Entries()[0].Name)

	entries := providers[1].Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, EntryBuffer, entries[0].Kind)
	assert.Equal(t, uint64(32), entries[0].Size)
	assert.Equal(t, EntryTexture, entries[1].Kind)
	assert.Same(t, albedo, entries[1].Texture)
	assert.Equal(t, EntrySampler, entries[2].Kind)
	assert.Equal(t, "albedo_sampler", entries[2].Name)
	assert.Equal(t, wgpu.FilterModeNearest, entries[2].Sampler.MagFilter)
}

func TestResolveWritesSeeLiveStorage(t *testing.T) {
	surface := make([]byte, 32)
	providers, err := Resolve("crate", litPass(t),
		map[string][]byte{"surface": surface, "cbPerFrame": make([]byte, 80)},
		nil,
		map[string]texture.Texture{"albedo": texture.NewTexture("albedo")},
	)
	require.NoError(t, err)

	surface[0] = 0x7f
	writes := providers[1].Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, byte(0x7f), writes[0].Data[0])
	assert.Equal(t, providers[1], writes[0].Provider)

	// blobs larger than the reflected size are clipped
	frameWrites := providers[0].Writes()
	require.Len(t, frameWrites, 1)
	assert.Len(t, frameWrites[0].Data, 64)
}

func TestResolveUnboundResources(t *testing.T) {
	p := litPass(t)

	_, err := Resolve("crate", p, map[string][]byte{"surface": make([]byte, 32)}, nil,
		map[string]texture.Texture{"albedo": texture.NewTexture("albedo")})
	assert.ErrorIs(t, err, ErrUnboundConstantBuffer)

	_, err = Resolve("crate", p, map[string][]byte{"surface": make([]byte, 32), "cbPerFrame": make([]byte, 64)}, nil, nil)
	assert.ErrorIs(t, err, ErrUnboundTexture)
}

func TestBindGroupEntriesRequireGPUObjects(t *testing.T) {
	p := NewBindGroupProvider("surface", 1, WithEntries(
		Entry{Binding: 0, Kind: EntryBuffer, Name: "surface", Size: 32},
		Entry{Binding: 1, Kind: EntryTexture, Name: "albedo"},
		Entry{Binding: 2, Kind: EntrySampler, Name: "albedo_sampler"},
	))

	_, err := p.BindGroupEntries()
	assert.ErrorContains(t, err, "buffer binding 0")

	p.SetBuffer(0, &wgpu.Buffer{})
	p.SetTextureView(1, &wgpu.TextureView{})
	_, err = p.BindGroupEntries()
	assert.ErrorContains(t, err, "sampler binding 2")

	p.SetSampler(2, &wgpu.Sampler{})
	entries, err := p.BindGroupEntries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(wgpu.WholeSize), entries[0].Size)
	assert.Same(t, p.TextureView(1), entries[1].TextureView)
	assert.Same(t, p.Sampler(2), entries[2].Sampler)
}

func TestStaleFollowsTextureSlots(t *testing.T) {
	slots := map[string]texture.Texture{"albedo": texture.NewTexture("bricks")}
	providers, err := Resolve("crate", litPass(t),
		map[string][]byte{"surface": make([]byte, 32), "cbPerFrame": make([]byte, 64)}, nil, slots)
	require.NoError(t, err)

	assert.False(t, providers[1].Stale(slots))
	slots["albedo"] = texture.NewTexture("stone")
	assert.True(t, providers[1].Stale(slots))
	assert.False(t, providers[0].Stale(slots))
}
