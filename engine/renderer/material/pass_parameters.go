package material

import (
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/texture"
)

// PassParameterBlock owns the constant-buffer blobs and texture slots of one shader pass.
// Blobs are allocated once and mutated in place for the material's lifetime, so the maps
// returned by ConstantBuffers and TextureSlots can be held as live references.
type PassParameterBlock struct {
	constantBuffers map[string][]byte
	textureSlots    map[string]texture.Texture
	pass            shader.Pass
}

func newPassParameterBlock(p shader.Pass) *PassParameterBlock {
	return &PassParameterBlock{
		constantBuffers: make(map[string][]byte),
		textureSlots:    make(map[string]texture.Texture),
		pass:            p,
	}
}

// ConstantBuffers returns the live buffer-name to blob map.
func (b *PassParameterBlock) ConstantBuffers() map[string][]byte {
	return b.constantBuffers
}

// TextureSlots returns the live texture-name to texture map.
func (b *PassParameterBlock) TextureSlots() map[string]texture.Texture {
	return b.textureSlots
}

// Pass returns the shader pass this block was built for.
func (b *PassParameterBlock) Pass() shader.Pass {
	return b.pass
}

// ConstantBuffer returns the blob of a named constant buffer, or nil.
func (b *PassParameterBlock) ConstantBuffer(name string) []byte {
	return b.constantBuffers[name]
}

// zero clears every blob in place.
func (b *PassParameterBlock) zero() {
	for _, buf := range b.constantBuffers {
		clear(buf)
	}
}
