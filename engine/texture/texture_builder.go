package texture

import "github.com/Carmen-Shannon/prism/common"

// TextureBuilderOption is a function that configures a texture during construction.
type TextureBuilderOption func(*texture)

// WithPixels sets raw RGBA pixel data and its dimensions.
//
// Parameters:
//   - pixels: RGBA pixel data, 4 bytes per pixel
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - TextureBuilderOption: a function that applies the pixel data to a texture
func WithPixels(pixels []byte, width, height uint32) TextureBuilderOption {
	return func(t *texture) {
		t.staging = common.TextureStagingData{Pixels: pixels, Width: width, Height: height}
	}
}

// WithStagingData sets the pixel data from already decoded staging data.
//
// Parameters:
//   - staging: the decoded pixel data
//
// Returns:
//   - TextureBuilderOption: a function that applies the staging data to a texture
func WithStagingData(staging common.TextureStagingData) TextureBuilderOption {
	return func(t *texture) {
		t.staging = staging
	}
}

// WithSampler overrides the default linear/repeat sampler configuration.
//
// Parameters:
//   - sampler: the sampler configuration
//
// Returns:
//   - TextureBuilderOption: a function that applies the sampler to a texture
func WithSampler(sampler common.SamplerStagingData) TextureBuilderOption {
	return func(t *texture) {
		t.sampler = sampler
	}
}
