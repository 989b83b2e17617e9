package mesh

import (
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// StaticMeshBuilderOption is a function that configures a static mesh during construction.
type StaticMeshBuilderOption func(*staticMesh)

// WithSection appends a section to the mesh.
//
// Parameters:
//   - section: the section to append
//
// Returns:
//   - StaticMeshBuilderOption: a function that applies the section to a mesh
func WithSection(section Section) StaticMeshBuilderOption {
	return func(m *staticMesh) {
		m.sections = append(m.sections, section)
	}
}

// WithVertexBuffer sets the buffer feeding the buffer's semantic.
//
// Parameters:
//   - vb: the vertex buffer
//
// Returns:
//   - StaticMeshBuilderOption: a function that applies the vertex buffer to a mesh
func WithVertexBuffer(vb *VertexBuffer) StaticMeshBuilderOption {
	return func(m *staticMesh) {
		m.vertexBuffers[vb.Semantic] = vb
	}
}

// WithIndexBuffer sets the shared index buffer.
//
// Parameters:
//   - ib: the index buffer
//
// Returns:
//   - StaticMeshBuilderOption: a function that applies the index buffer to a mesh
func WithIndexBuffer(ib *IndexBuffer) StaticMeshBuilderOption {
	return func(m *staticMesh) {
		m.indexBuffer = ib
	}
}

// WithDefaultMaterial sets the default material of a slot.
//
// Parameters:
//   - slot: the material slot name
//   - mat: the default material
//
// Returns:
//   - StaticMeshBuilderOption: a function that applies the default material to a mesh
func WithDefaultMaterial(slot string, mat material.Material) StaticMeshBuilderOption {
	return func(m *staticMesh) {
		m.defaultMaterials[slot] = mat
	}
}

// WithBounds sets the axis-aligned bounding box.
//
// Parameters:
//   - lo: the minimum corner
//   - hi: the maximum corner
//
// Returns:
//   - StaticMeshBuilderOption: a function that applies the bounds to a mesh
func WithBounds(lo, hi mgl32.Vec3) StaticMeshBuilderOption {
	return func(m *staticMesh) {
		m.boundsMin = lo
		m.boundsMax = hi
	}
}

// WithPositions builds the POSITION buffer from vectors and derives the bounds from them.
//
// Parameters:
//   - positions: the vertex positions
//
// Returns:
//   - StaticMeshBuilderOption: a function that applies the positions to a mesh
func WithPositions(positions []mgl32.Vec3) StaticMeshBuilderOption {
	return func(m *staticMesh) {
		flat := make([]float32, 0, len(positions)*3)
		for _, p := range positions {
			flat = append(flat, p[:]...)
		}
		m.vertexBuffers[shader.SemanticPosition] = NewFloat32VertexBuffer(shader.SemanticPosition, 3, flat)
		m.boundsMin, m.boundsMax = computeBounds(positions)
	}
}

// computeBounds returns the min and max corners enclosing every position.
func computeBounds(positions []mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	if len(positions) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}
	return lo, hi
}
