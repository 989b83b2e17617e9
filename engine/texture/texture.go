package texture

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// texture is the implementation of the Texture interface.
type texture struct {
	mu      *sync.Mutex
	name    string
	staging common.TextureStagingData
	sampler common.SamplerStagingData

	gpuTexture *wgpu.Texture
	gpuView    *wgpu.TextureView
}

// Texture is a shared texture handle. It holds the decoded RGBA pixels and, once uploaded
// by the renderer, the GPU texture and view bound into material texture slots.
type Texture interface {
	// Name returns the asset key the texture was created under.
	//
	// Returns:
	//   - string: the texture name
	Name() string

	// Width returns the width in pixels.
	//
	// Returns:
	//   - uint32: the width
	Width() uint32

	// Height returns the height in pixels.
	//
	// Returns:
	//   - uint32: the height
	Height() uint32

	// Pixels returns the RGBA pixel data, 4 bytes per pixel.
	//
	// Returns:
	//   - []byte: the pixel data
	Pixels() []byte

	// StagingData returns the pixel data and dimensions for GPU upload.
	//
	// Returns:
	//   - common.TextureStagingData: the staging data
	StagingData() common.TextureStagingData

	// Sampler returns the sampler configuration the texture should be sampled with.
	//
	// Returns:
	//   - common.SamplerStagingData: the sampler configuration
	Sampler() common.SamplerStagingData

	// View returns the GPU texture view, or nil before upload.
	//
	// Returns:
	//   - *wgpu.TextureView: the view or nil
	View() *wgpu.TextureView

	// SetGPU records the GPU texture and view created for this texture, releasing any previous ones.
	//
	// Parameters:
	//   - tex: the GPU texture
	//   - view: the view of tex
	SetGPU(tex *wgpu.Texture, view *wgpu.TextureView)

	// Release frees the GPU texture and view, if any.
	Release()
}

var _ Texture = &texture{}

// NewTexture creates a new Texture with all specified options applied.
//
// Parameters:
//   - name: the asset key of the texture
//   - options: variadic list of TextureBuilderOption functions
//
// Returns:
//   - Texture: the new texture
func NewTexture(name string, options ...TextureBuilderOption) Texture {
	t := &texture{
		mu:      &sync.Mutex{},
		name:    name,
		sampler: common.DefaultSamplerStagingData(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// NewSolidTexture creates a 1x1 texture filled with a single color.
//
// Parameters:
//   - name: the asset key of the texture
//   - c: the fill color
//
// Returns:
//   - Texture: the new texture
func NewSolidTexture(name string, c color.RGBA) Texture {
	return NewTexture(name, WithPixels([]byte{c.R, c.G, c.B, c.A}, 1, 1))
}

// Decode creates a Texture from an imported texture, sniffing and decoding its image data.
//
// Parameters:
//   - name: the asset key of the texture
//   - src: the imported texture holding either encoded bytes or a file path
//
// Returns:
//   - Texture: the decoded texture
//   - error: an error if the image cannot be read or decoded
func Decode(name string, src *common.ImportedTexture) (Texture, error) {
	staging, err := src.Decode()
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", name, err)
	}
	return NewTexture(name, WithStagingData(staging)), nil
}

// Load reads and decodes an image file into a Texture.
//
// Parameters:
//   - name: the asset key of the texture
//   - path: the image file path
//
// Returns:
//   - Texture: the decoded texture
//   - error: an error if the file cannot be read or decoded
func Load(name, path string) (Texture, error) {
	return Decode(name, &common.ImportedTexture{Name: name, Path: path})
}

func (t *texture) Name() string {
	return t.name
}

func (t *texture) Width() uint32 {
	return t.staging.Width
}

func (t *texture) Height() uint32 {
	return t.staging.Height
}

func (t *texture) Pixels() []byte {
	return t.staging.Pixels
}

func (t *texture) StagingData() common.TextureStagingData {
	return t.staging
}

func (t *texture) Sampler() common.SamplerStagingData {
	return t.sampler
}

func (t *texture) View() *wgpu.TextureView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gpuView
}

func (t *texture) SetGPU(tex *wgpu.Texture, view *wgpu.TextureView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLocked()
	t.gpuTexture = tex
	t.gpuView = view
}

func (t *texture) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLocked()
}

func (t *texture) releaseLocked() {
	if t.gpuView != nil {
		t.gpuView.Release()
		t.gpuView = nil
	}
	if t.gpuTexture != nil {
		t.gpuTexture.Release()
		t.gpuTexture = nil
	}
}

// WeakRef makes a weak reference to a texture for caches that must not keep it alive.
// Textures not created by this package yield an empty reference.
//
// Parameters:
//   - t: the texture
//
// Returns:
//   - common.WeakRef[Texture]: the weak reference
func WeakRef(t Texture) common.WeakRef[Texture] {
	impl, ok := t.(*texture)
	if !ok {
		return common.WeakRef[Texture]{}
	}
	return common.NewWeakRef(impl, func(p *texture) Texture { return p })
}
