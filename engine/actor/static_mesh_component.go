package actor

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/prism/engine/mesh"
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// State is the state of a component's cached draw commands.
type State int

const (
	// StateEmpty means no draw commands are cached.
	StateEmpty State = iota

	// StateBuilding means a rebuild is in progress.
	StateBuilding

	// StateReady means the cache holds a complete set of draw commands.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// staticMeshComponent is the implementation of the StaticMeshComponent interface.
type staticMeshComponent struct {
	name      string
	finalizer PipelineFinalizer
	logger    *slog.Logger

	staticMesh mesh.StaticMesh
	overrides  map[string]material.Material

	commands []*MeshDrawCommand
	state    State
}

// StaticMeshComponent renders a StaticMesh. It resolves one material per mesh section and
// caches one draw command per section and shader pass. Every mesh or override change
// rebuilds the whole cache.
type StaticMeshComponent interface {
	Component

	// StaticMesh returns the bound mesh.
	//
	// Returns:
	//   - mesh.StaticMesh: the mesh, or nil
	StaticMesh() mesh.StaticMesh

	// SetStaticMesh binds a mesh and rebuilds the draw commands. A nil mesh clears the cache.
	//
	// Parameters:
	//   - m: the mesh to bind, or nil
	//
	// Returns:
	//   - error: ErrMissingVertexBuffer or a pipeline finalization error, leaving the cache empty
	SetStaticMesh(m mesh.StaticMesh) error

	// MaterialOverride returns the override material of a slot.
	//
	// Parameters:
	//   - slot: the material slot name
	//
	// Returns:
	//   - material.Material: the override, or nil
	MaterialOverride(slot string) material.Material

	// SetMaterialOverride replaces the mesh's default material for one slot and rebuilds the draw commands.
	//
	// Parameters:
	//   - slot: the material slot name
	//   - m: the override material, nil behaves like ClearMaterialOverride
	//
	// Returns:
	//   - error: a rebuild error
	SetMaterialOverride(slot string, m material.Material) error

	// ClearMaterialOverride restores the mesh's default material for one slot and rebuilds the draw commands.
	//
	// Parameters:
	//   - slot: the material slot name
	//
	// Returns:
	//   - error: a rebuild error
	ClearMaterialOverride(slot string) error

	// Material returns the material a slot resolves to: the override if set, otherwise the mesh default.
	//
	// Parameters:
	//   - slot: the material slot name
	//
	// Returns:
	//   - material.Material: the effective material, or nil
	Material(slot string) material.Material

	// Rebuild rebuilds the draw commands, e.g. after the mesh's default materials changed.
	//
	// Returns:
	//   - error: a rebuild error
	Rebuild() error

	// MeshDrawCommands returns the cached draw commands. The slice is valid until the next rebuild.
	//
	// Returns:
	//   - []*MeshDrawCommand: the draw commands in section then pass order
	MeshDrawCommands() []*MeshDrawCommand

	// State returns the state of the draw-command cache.
	//
	// Returns:
	//   - State: the cache state
	State() State
}

var _ StaticMeshComponent = &staticMeshComponent{}

// NewStaticMeshComponent creates a StaticMeshComponent with all specified options applied.
// The component is named with a random UUID unless WithName is given.
//
// Parameters:
//   - options: variadic list of StaticMeshComponentBuilderOption functions
//
// Returns:
//   - StaticMeshComponent: the new component
//   - error: a rebuild error if WithStaticMesh bound a mesh that cannot be assembled
func NewStaticMeshComponent(options ...StaticMeshComponentBuilderOption) (StaticMeshComponent, error) {
	c := &staticMeshComponent{
		name:      uuid.NewString(),
		logger:    slog.Default(),
		overrides: make(map[string]material.Material),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.staticMesh != nil {
		if err := c.Rebuild(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *staticMeshComponent) Name() string {
	return c.name
}

func (c *staticMeshComponent) Kind() Kind {
	return KindStaticMesh
}

func (c *staticMeshComponent) StaticMesh() mesh.StaticMesh {
	return c.staticMesh
}

func (c *staticMeshComponent) SetStaticMesh(m mesh.StaticMesh) error {
	c.staticMesh = m
	return c.Rebuild()
}

func (c *staticMeshComponent) MaterialOverride(slot string) material.Material {
	return c.overrides[slot]
}

func (c *staticMeshComponent) SetMaterialOverride(slot string, m material.Material) error {
	if m == nil {
		delete(c.overrides, slot)
	} else {
		c.overrides[slot] = m
	}
	return c.Rebuild()
}

func (c *staticMeshComponent) ClearMaterialOverride(slot string) error {
	return c.SetMaterialOverride(slot, nil)
}

func (c *staticMeshComponent) Material(slot string) material.Material {
	if m, ok := c.overrides[slot]; ok {
		return m
	}
	if c.staticMesh == nil {
		return nil
	}
	return c.staticMesh.DefaultMaterial(slot)
}

func (c *staticMeshComponent) MeshDrawCommands() []*MeshDrawCommand {
	return c.commands
}

func (c *staticMeshComponent) State() State {
	return c.state
}

func (c *staticMeshComponent) Rebuild() error {
	c.state = StateBuilding
	c.commands = nil
	if c.staticMesh == nil {
		c.state = StateEmpty
		return nil
	}

	commands, err := c.buildMeshDrawCommands()
	if err != nil {
		c.state = StateEmpty
		return err
	}
	c.commands = commands
	c.state = StateReady
	return nil
}

// buildMeshDrawCommands assembles one draw command per resolvable section and pass.
// Pipelines are shared between sections rendering the same pass.
func (c *staticMeshComponent) buildMeshDrawCommands() ([]*MeshDrawCommand, error) {
	var commands []*MeshDrawCommand
	pipelines := make(map[shader.Pass]pipeline.Pipeline)

	for i, section := range c.staticMesh.Sections() {
		mat := c.Material(section.Slot)
		if mat == nil {
			c.logger.Warn("skipping mesh section", "component", c.name, "section", i, "slot", section.Slot, "reason", "no material")
			continue
		}
		technique := mat.Technique()
		if technique == nil {
			c.logger.Warn("skipping mesh section", "component", c.name, "section", i, "slot", section.Slot, "reason", "material has no technique")
			continue
		}

		for _, pass := range technique.Passes() {
			vertexBuffers, err := c.vertexBuffersFor(pass)
			if err != nil {
				return nil, fmt.Errorf("component %q section %d: %w", c.name, i, err)
			}

			pso, ok := pipelines[pass]
			if !ok {
				if pso, err = c.pipelineFor(technique, pass); err != nil {
					return nil, fmt.Errorf("component %q section %d: %w", c.name, i, err)
				}
				pipelines[pass] = pso
			}

			cmd := &MeshDrawCommand{
				Pass:          pass.Name(),
				Material:      mat,
				Pipeline:      pso,
				VertexBuffers: vertexBuffers,
				IndexBuffer:   c.staticMesh.IndexBuffer(),
				VertexStart:   section.VertexStart,
				VertexCount:   section.VertexCount,
				IndexStart:    section.IndexStart,
				IndexCount:    section.IndexCount,
			}
			if block := mat.PassParameters(pass.Name()); block != nil {
				cmd.ConstantBuffers = block.ConstantBuffers()
				cmd.Textures = block.TextureSlots()
			}
			commands = append(commands, cmd)
		}
	}
	return commands, nil
}

// vertexBuffersFor returns the mesh buffers feeding a pass's vertex inputs in declaration order.
// Inputs with an unknown semantic are logged and contribute no buffer.
func (c *staticMeshComponent) vertexBuffersFor(pass shader.Pass) ([]*mesh.VertexBuffer, error) {
	inputs := pass.VertexInputs()
	buffers := make([]*mesh.VertexBuffer, 0, len(inputs))
	for _, in := range inputs {
		if in.Semantic == shader.SemanticUnknown {
			c.logger.Warn("unrecognized vertex semantic", "component", c.name, "pass", pass.Name(), "semantic", in.SemanticName)
			continue
		}
		vb := c.staticMesh.VertexBuffer(in.Semantic)
		if vb == nil {
			return nil, fmt.Errorf("pass %q input %s: %w", pass.Name(), in.SemanticName, ErrMissingVertexBuffer)
		}
		buffers = append(buffers, vb)
	}
	return buffers, nil
}

// pipelineFor describes the pass's pipeline-state object and finalizes it.
// Without a finalizer the description keeps its default formats and stays unfinalized.
func (c *staticMeshComponent) pipelineFor(technique shader.Technique, pass shader.Pass) (pipeline.Pipeline, error) {
	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithPass(pass),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleList),
		pipeline.WithSampleMask(pipeline.SampleMaskAll),
	}
	if c.finalizer == nil {
		return pipeline.NewPipeline(c.pipelineKey(technique, pass), opts...), nil
	}

	color, depth := c.finalizer.SwapChainFormats()
	opts = append(opts, pipeline.WithColorFormat(color), pipeline.WithDepthFormat(depth))
	pso := pipeline.NewPipeline(c.pipelineKey(technique, pass), opts...)
	if err := c.finalizer.FinalizePipeline(pso); err != nil {
		return nil, fmt.Errorf("finalize pipeline %q: %w", pso.Key(), err)
	}
	return pso, nil
}

// pipelineKey names a pass of one technique on this component. Pass names repeat across
// techniques so the technique is part of the key.
func (c *staticMeshComponent) pipelineKey(technique shader.Technique, pass shader.Pass) string {
	return c.name + "/" + technique.Name() + "/" + pass.Name()
}
