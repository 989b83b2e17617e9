package mesh

import (
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// Section is a contiguous vertex/index sub-range of a mesh rendered with one material slot.
// Indices are relative to VertexStart.
type Section struct {
	Slot        string
	VertexStart uint32
	VertexCount uint32
	IndexStart  uint32
	IndexCount  uint32
}

// staticMesh is the implementation of the StaticMesh interface.
type staticMesh struct {
	mu               *sync.RWMutex
	name             string
	sections         []Section
	vertexBuffers    map[shader.Semantic]*VertexBuffer
	indexBuffer      *IndexBuffer
	defaultMaterials map[string]material.Material
	boundsMin        mgl32.Vec3
	boundsMax        mgl32.Vec3
}

// StaticMesh is immutable geometry split into sections, each tagged with a material slot.
// Per-attribute vertex buffers and one shared index buffer feed every section.
type StaticMesh interface {
	// Name returns the asset key of the mesh.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// Sections returns the sections in draw order.
	//
	// Returns:
	//   - []Section: the mesh sections
	Sections() []Section

	// Slots returns the distinct material slot names in first-use order.
	//
	// Returns:
	//   - []string: the slot names
	Slots() []string

	// DefaultMaterial returns the material a slot renders with when a component has no override.
	//
	// Parameters:
	//   - slot: the material slot name
	//
	// Returns:
	//   - material.Material: the default material, or nil
	DefaultMaterial(slot string) material.Material

	// SetDefaultMaterial assigns the default material of a slot. A nil material clears it.
	//
	// Parameters:
	//   - slot: the material slot name
	//   - m: the material
	SetDefaultMaterial(slot string, m material.Material)

	// VertexBuffer returns the buffer feeding a semantic, or nil if the mesh has none.
	//
	// Parameters:
	//   - semantic: the vertex semantic
	//
	// Returns:
	//   - *VertexBuffer: the buffer or nil
	VertexBuffer(semantic shader.Semantic) *VertexBuffer

	// VertexBuffers returns every vertex buffer keyed by semantic.
	//
	// Returns:
	//   - map[shader.Semantic]*VertexBuffer: the vertex buffers
	VertexBuffers() map[shader.Semantic]*VertexBuffer

	// IndexBuffer returns the shared index buffer.
	//
	// Returns:
	//   - *IndexBuffer: the index buffer, or nil for non-indexed meshes
	IndexBuffer() *IndexBuffer

	// Bounds returns the axis-aligned bounding box of all positions.
	//
	// Returns:
	//   - mgl32.Vec3: the minimum corner
	//   - mgl32.Vec3: the maximum corner
	Bounds() (mgl32.Vec3, mgl32.Vec3)

	// Release frees every uploaded GPU buffer.
	Release()
}

var _ StaticMesh = &staticMesh{}

// NewStaticMesh creates a new StaticMesh with all specified options applied.
//
// Parameters:
//   - name: the asset key of the mesh
//   - options: variadic list of StaticMeshBuilderOption functions
//
// Returns:
//   - StaticMesh: the new mesh
func NewStaticMesh(name string, options ...StaticMeshBuilderOption) StaticMesh {
	m := &staticMesh{
		mu:               &sync.RWMutex{},
		name:             name,
		vertexBuffers:    make(map[shader.Semantic]*VertexBuffer),
		defaultMaterials: make(map[string]material.Material),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *staticMesh) Name() string {
	return m.name
}

func (m *staticMesh) Sections() []Section {
	return m.sections
}

func (m *staticMesh) Slots() []string {
	seen := make(map[string]bool, len(m.sections))
	var slots []string
	for _, s := range m.sections {
		if !seen[s.Slot] {
			seen[s.Slot] = true
			slots = append(slots, s.Slot)
		}
	}
	return slots
}

func (m *staticMesh) DefaultMaterial(slot string) material.Material {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultMaterials[slot]
}

func (m *staticMesh) SetDefaultMaterial(slot string, mat material.Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mat == nil {
		delete(m.defaultMaterials, slot)
		return
	}
	m.defaultMaterials[slot] = mat
}

func (m *staticMesh) VertexBuffer(semantic shader.Semantic) *VertexBuffer {
	return m.vertexBuffers[semantic]
}

func (m *staticMesh) VertexBuffers() map[shader.Semantic]*VertexBuffer {
	return m.vertexBuffers
}

func (m *staticMesh) IndexBuffer() *IndexBuffer {
	return m.indexBuffer
}

func (m *staticMesh) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	return m.boundsMin, m.boundsMax
}

func (m *staticMesh) Release() {
	for _, vb := range m.vertexBuffers {
		vb.SetGPU(nil)
	}
	if m.indexBuffer != nil {
		m.indexBuffer.SetGPU(nil)
	}
}

// WeakRef makes a weak reference to a mesh for caches that must not keep it alive.
// Meshes not created by this package yield an empty reference.
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - common.WeakRef[StaticMesh]: the weak reference
func WeakRef(m StaticMesh) common.WeakRef[StaticMesh] {
	impl, ok := m.(*staticMesh)
	if !ok {
		return common.WeakRef[StaticMesh]{}
	}
	return common.NewWeakRef(impl, func(p *staticMesh) StaticMesh { return p })
}
