package scene

import (
	"log/slog"

	"github.com/Carmen-Shannon/prism/engine/actor"
	"github.com/Carmen-Shannon/prism/engine/camera"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithActors adds initial actors to the scene in the given order.
// Nil actors and actors whose ID is already present are dropped and logged.
//
// Parameters:
//   - actors: the actors to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActors(actors ...actor.Actor) SceneBuilderOption {
	return func(s *scene) {
		for _, a := range actors {
			if err := s.addLocked(a); err != nil {
				s.optionErrs = append(s.optionErrs, err)
			}
		}
	}
}

// WithCamera sets the camera whose frame uniform accompanies the scene's draw list.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithLogger sets the logger that reports actors dropped during construction.
//
// Parameters:
//   - logger: the logger, nil keeps the default
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}
