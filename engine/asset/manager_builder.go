package asset

import "log/slog"

// ManagerBuilderOption is a function that configures an asset manager during construction.
type ManagerBuilderOption func(*manager)

// WithRoot sets the directory relative asset paths are resolved against.
//
// Parameters:
//   - root: the asset root directory
//
// Returns:
//   - ManagerBuilderOption: a function that applies the root to a manager
func WithRoot(root string) ManagerBuilderOption {
	return func(m *manager) {
		if root != "" {
			m.root = root
		}
	}
}

// WithUploader sets the GPU uploader loaded meshes and textures are handed to.
// Without one, assets stay CPU-side.
//
// Parameters:
//   - uploader: the uploader, typically the renderer
//
// Returns:
//   - ManagerBuilderOption: a function that applies the uploader to a manager
func WithUploader(uploader Uploader) ManagerBuilderOption {
	return func(m *manager) {
		m.uploader = uploader
	}
}

// WithLogger sets the structured logger used for load warnings.
//
// Parameters:
//   - logger: the logger; nil keeps the default
//
// Returns:
//   - ManagerBuilderOption: a function that applies the logger to a manager
func WithLogger(logger *slog.Logger) ManagerBuilderOption {
	return func(m *manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithWorkers sets how many preload jobs may run at once.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - ManagerBuilderOption: a function that applies the worker count to a manager
func WithWorkers(n int) ManagerBuilderOption {
	return func(m *manager) {
		m.workers = n
	}
}

// WithDefaultTechnique sets the technique definition imported glTF materials are built with.
//
// Parameters:
//   - path: the technique definition path relative to the root
//
// Returns:
//   - ManagerBuilderOption: a function that applies the technique path to a manager
func WithDefaultTechnique(path string) ManagerBuilderOption {
	return func(m *manager) {
		m.defaultTechnique = path
	}
}
