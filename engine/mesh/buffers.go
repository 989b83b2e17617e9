package mesh

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// VertexBuffer holds one non-interleaved per-vertex attribute stream of a mesh.
type VertexBuffer struct {
	Semantic shader.Semantic
	Format   wgpu.VertexFormat
	Stride   uint32
	Count    uint32
	Data     []byte

	gpu *wgpu.Buffer
}

// IndexBuffer holds the shared uint32 index stream of a mesh.
type IndexBuffer struct {
	Format wgpu.IndexFormat
	Count  uint32
	Data   []byte

	gpu *wgpu.Buffer
}

// vertexFormats maps component counts of float32 attributes onto their vertex formats.
var vertexFormats = map[int]wgpu.VertexFormat{
	1: wgpu.VertexFormatFloat32,
	2: wgpu.VertexFormatFloat32x2,
	3: wgpu.VertexFormatFloat32x3,
	4: wgpu.VertexFormatFloat32x4,
}

// NewFloat32VertexBuffer packs float32 attribute data little-endian into a VertexBuffer.
//
// Parameters:
//   - semantic: the attribute the buffer feeds
//   - components: the number of float32 components per vertex, 1 to 4
//   - data: the flattened attribute values, len(data) must be a multiple of components
//
// Returns:
//   - *VertexBuffer: the packed buffer
func NewFloat32VertexBuffer(semantic shader.Semantic, components int, data []float32) *VertexBuffer {
	buf := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return &VertexBuffer{
		Semantic: semantic,
		Format:   vertexFormats[components],
		Stride:   uint32(components * 4),
		Count:    uint32(len(data) / components),
		Data:     buf,
	}
}

// NewIndexBuffer packs uint32 indices little-endian into an IndexBuffer.
//
// Parameters:
//   - indices: the index values
//
// Returns:
//   - *IndexBuffer: the packed buffer
func NewIndexBuffer(indices []uint32) *IndexBuffer {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return &IndexBuffer{
		Format: wgpu.IndexFormatUint32,
		Count:  uint32(len(indices)),
		Data:   buf,
	}
}

// GPU returns the uploaded GPU buffer, or nil.
func (b *VertexBuffer) GPU() *wgpu.Buffer {
	return b.gpu
}

// SetGPU records the uploaded GPU buffer, releasing a previous one.
func (b *VertexBuffer) SetGPU(buf *wgpu.Buffer) {
	if b.gpu != nil {
		b.gpu.Release()
	}
	b.gpu = buf
}

// GPU returns the uploaded GPU buffer, or nil.
func (b *IndexBuffer) GPU() *wgpu.Buffer {
	return b.gpu
}

// SetGPU records the uploaded GPU buffer, releasing a previous one.
func (b *IndexBuffer) SetGPU(buf *wgpu.Buffer) {
	if b.gpu != nil {
		b.gpu.Release()
	}
	b.gpu = buf
}
