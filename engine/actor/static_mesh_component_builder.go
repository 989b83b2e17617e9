package actor

import (
	"log/slog"

	"github.com/Carmen-Shannon/prism/engine/mesh"
)

// StaticMeshComponentBuilderOption is a function that configures a static mesh component during construction.
type StaticMeshComponentBuilderOption func(*staticMeshComponent)

// WithName sets the component name. The name prefixes the keys of the component's pipelines.
//
// Parameters:
//   - name: the component name
//
// Returns:
//   - StaticMeshComponentBuilderOption: a function that applies the name to a component
func WithName(name string) StaticMeshComponentBuilderOption {
	return func(c *staticMeshComponent) {
		c.name = name
	}
}

// WithFinalizer sets the graphics device that finalizes the component's pipelines.
//
// Parameters:
//   - f: the pipeline finalizer
//
// Returns:
//   - StaticMeshComponentBuilderOption: a function that applies the finalizer to a component
func WithFinalizer(f PipelineFinalizer) StaticMeshComponentBuilderOption {
	return func(c *staticMeshComponent) {
		c.finalizer = f
	}
}

// WithLogger sets the logger that receives skipped-section and unknown-semantic warnings.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - StaticMeshComponentBuilderOption: a function that applies the logger to a component
func WithLogger(logger *slog.Logger) StaticMeshComponentBuilderOption {
	return func(c *staticMeshComponent) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStaticMesh binds the initial mesh. Draw commands are built once all options are applied.
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - StaticMeshComponentBuilderOption: a function that applies the mesh to a component
func WithStaticMesh(m mesh.StaticMesh) StaticMeshComponentBuilderOption {
	return func(c *staticMeshComponent) {
		c.staticMesh = m
	}
}
