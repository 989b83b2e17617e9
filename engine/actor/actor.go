package actor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ErrNilComponent is returned when a nil component is attached to an actor.
var ErrNilComponent = errors.New("actor: nil component")

// nextID hands out actor IDs when none is given.
var nextID atomic.Uint64

type actor struct {
	id      uint64
	name    string
	enabled atomic.Bool

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	// components keeps insertion order per kind
	components map[Kind][]Component
	names      map[string]Component

	logger *slog.Logger
	// optionErrs collects components the builder options could not attach
	optionErrs []error
}

// Actor defines the interface for a placed scene entity. An actor owns a transform and a set
// of named components registered by Kind.
type Actor interface {
	// ID returns the actor's unique identifier.
	//
	// Returns:
	//   - uint64: the actor ID
	ID() uint64

	// Name returns the actor name.
	//
	// Returns:
	//   - string: the actor name
	Name() string

	// Enabled returns whether this actor is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the actor is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Position returns the world position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// SetPosition sets the world position.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl32.Vec3)

	// Rotation returns the orientation.
	//
	// Returns:
	//   - mgl32.Quat: the rotation
	Rotation() mgl32.Quat

	// SetRotation sets the orientation.
	//
	// Parameters:
	//   - q: the new rotation, normalized before it is stored
	SetRotation(q mgl32.Quat)

	// Scale returns the per-axis scale.
	//
	// Returns:
	//   - mgl32.Vec3: the scale
	Scale() mgl32.Vec3

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - s: the new scale
	SetScale(s mgl32.Vec3)

	// Transform returns the model matrix, translation * rotation * scale.
	//
	// Returns:
	//   - mgl32.Mat4: the model matrix
	Transform() mgl32.Mat4

	// AddComponent registers a component under its kind.
	//
	// Parameters:
	//   - c: the component
	//
	// Returns:
	//   - error: an error if a component with the same name is already attached
	AddComponent(c Component) error

	// RemoveComponent detaches a component by name.
	//
	// Parameters:
	//   - name: the component name
	//
	// Returns:
	//   - bool: true if a component was removed
	RemoveComponent(name string) bool

	// Component returns a component by name.
	//
	// Parameters:
	//   - name: the component name
	//
	// Returns:
	//   - Component: the component, or nil
	Component(name string) Component

	// ComponentsByKind returns the components of one kind in the order they were added.
	//
	// Parameters:
	//   - kind: the component kind
	//
	// Returns:
	//   - []Component: the components
	ComponentsByKind(kind Kind) []Component

	// StaticMeshComponents returns the static mesh components in the order they were added.
	//
	// Returns:
	//   - []StaticMeshComponent: the static mesh components
	StaticMeshComponents() []StaticMeshComponent

	// MeshDrawCommands collects the cached draw commands of every static mesh component.
	//
	// Returns:
	//   - []*MeshDrawCommand: the draw commands in component order
	MeshDrawCommands() []*MeshDrawCommand
}

var _ Actor = &actor{}

// NewActor creates a new enabled Actor configured with the given options.
//
// Parameters:
//   - options: functional options to configure the actor
//
// Returns:
//   - Actor: the newly created actor
func NewActor(options ...ActorBuilderOption) Actor {
	a := &actor{
		id:         nextID.Add(1),
		name:       uuid.NewString(),
		rotation:   mgl32.QuatIdent(),
		scale:      mgl32.Vec3{1, 1, 1},
		components: make(map[Kind][]Component),
		names:      make(map[string]Component),
		logger:     slog.Default(),
	}
	a.enabled.Store(true)
	for _, option := range options {
		option(a)
	}
	for _, err := range a.optionErrs {
		a.logger.Warn("component dropped", "actor", a.name, "error", err)
	}
	a.optionErrs = nil
	return a
}

func (a *actor) ID() uint64 {
	return a.id
}

func (a *actor) Name() string {
	return a.name
}

func (a *actor) Enabled() bool {
	return a.enabled.Load()
}

func (a *actor) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

func (a *actor) Position() mgl32.Vec3 {
	return a.position
}

func (a *actor) SetPosition(p mgl32.Vec3) {
	a.position = p
}

func (a *actor) Rotation() mgl32.Quat {
	return a.rotation
}

func (a *actor) SetRotation(q mgl32.Quat) {
	a.rotation = q.Normalize()
}

func (a *actor) Scale() mgl32.Vec3 {
	return a.scale
}

func (a *actor) SetScale(s mgl32.Vec3) {
	a.scale = s
}

func (a *actor) Transform() mgl32.Mat4 {
	t := mgl32.Translate3D(a.position.X(), a.position.Y(), a.position.Z())
	s := mgl32.Scale3D(a.scale.X(), a.scale.Y(), a.scale.Z())
	return t.Mul4(a.rotation.Mat4()).Mul4(s)
}

func (a *actor) AddComponent(c Component) error {
	if c == nil {
		return fmt.Errorf("actor %q: %w", a.name, ErrNilComponent)
	}
	if _, ok := a.names[c.Name()]; ok {
		return fmt.Errorf("actor %q: component %q already attached", a.name, c.Name())
	}
	a.names[c.Name()] = c
	a.components[c.Kind()] = append(a.components[c.Kind()], c)
	return nil
}

func (a *actor) RemoveComponent(name string) bool {
	c, ok := a.names[name]
	if !ok {
		return false
	}
	delete(a.names, name)
	bucket := a.components[c.Kind()]
	for i, existing := range bucket {
		if existing.Name() == name {
			a.components[c.Kind()] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	return true
}

func (a *actor) Component(name string) Component {
	return a.names[name]
}

func (a *actor) ComponentsByKind(kind Kind) []Component {
	return a.components[kind]
}

func (a *actor) StaticMeshComponents() []StaticMeshComponent {
	bucket := a.components[KindStaticMesh]
	out := make([]StaticMeshComponent, 0, len(bucket))
	for _, c := range bucket {
		out = append(out, c.(StaticMeshComponent))
	}
	return out
}

func (a *actor) MeshDrawCommands() []*MeshDrawCommand {
	var out []*MeshDrawCommand
	for _, c := range a.StaticMeshComponents() {
		out = append(out, c.MeshDrawCommands()...)
	}
	return out
}
