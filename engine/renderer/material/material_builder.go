package material

import "github.com/Carmen-Shannon/prism/engine/texture"

// MaterialBuilderOption is a function that configures a material during construction.
type MaterialBuilderOption func(*material)

// WithFrameBufferMarker overrides the substring identifying frame-global constant buffers.
// An empty marker gives every constant buffer per-material storage.
//
// Parameters:
//   - marker: the substring to match against constant buffer names
//
// Returns:
//   - MaterialBuilderOption: a function that applies the marker to a material
func WithFrameBufferMarker(marker string) MaterialBuilderOption {
	return func(m *material) {
		m.frameMarker = marker
	}
}

// WithDefaultTexture overrides the texture every texture parameter starts bound to.
//
// Parameters:
//   - tex: the default texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the default texture to a material
func WithDefaultTexture(tex texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.defaultTexture = tex
	}
}
