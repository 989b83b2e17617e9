package actor

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
)

// ActorBuilderOption is a functional option for configuring an Actor during construction.
type ActorBuilderOption func(*actor)

// WithID overrides the generated ID of the Actor.
//
// Parameters:
//   - id: unique identifier for the Actor
//
// Returns:
//   - ActorBuilderOption: functional option to set the ID
func WithID(id uint64) ActorBuilderOption {
	return func(a *actor) {
		a.id = id
	}
}

// WithActorName overrides the generated name of the Actor.
//
// Parameters:
//   - name: the actor name
//
// Returns:
//   - ActorBuilderOption: functional option to set the name
func WithActorName(name string) ActorBuilderOption {
	return func(a *actor) {
		a.name = name
	}
}

// WithEnabled sets whether the Actor is enabled for rendering.
//
// Parameters:
//   - enabled: true to render the actor, false to skip it
//
// Returns:
//   - ActorBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) ActorBuilderOption {
	return func(a *actor) {
		a.enabled.Store(enabled)
	}
}

// WithPosition sets the initial position of the Actor.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - ActorBuilderOption: functional option to set the initial position
func WithPosition(x, y, z float32) ActorBuilderOption {
	return func(a *actor) {
		a.position = mgl32.Vec3{x, y, z}
	}
}

// WithScale sets the initial scale of the Actor.
//
// Parameters:
//   - sx: the x scale factor
//   - sy: the y scale factor
//   - sz: the z scale factor
//
// Returns:
//   - ActorBuilderOption: functional option to set the initial scale
func WithScale(sx, sy, sz float32) ActorBuilderOption {
	return func(a *actor) {
		a.scale = mgl32.Vec3{sx, sy, sz}
	}
}

// WithRotation sets the initial rotation of the Actor from Euler angles in radians, applied in X, Y, Z order.
//
// Parameters:
//   - rx: the x rotation angle
//   - ry: the y rotation angle
//   - rz: the z rotation angle
//
// Returns:
//   - ActorBuilderOption: functional option to set the initial rotation
func WithRotation(rx, ry, rz float32) ActorBuilderOption {
	return func(a *actor) {
		a.rotation = mgl32.AnglesToQuat(rx, ry, rz, mgl32.XYZ)
	}
}

// WithComponent attaches a component at construction. Nil components and components with
// duplicate names are dropped and logged.
//
// Parameters:
//   - c: the component
//
// Returns:
//   - ActorBuilderOption: functional option to attach the component
func WithComponent(c Component) ActorBuilderOption {
	return func(a *actor) {
		if err := a.AddComponent(c); err != nil {
			a.optionErrs = append(a.optionErrs, err)
		}
	}
}

// WithActorLogger sets the logger that reports components dropped during construction.
//
// Parameters:
//   - logger: the logger, nil keeps the default
//
// Returns:
//   - ActorBuilderOption: functional option to set the logger
func WithActorLogger(logger *slog.Logger) ActorBuilderOption {
	return func(a *actor) {
		if logger != nil {
			a.logger = logger
		}
	}
}
