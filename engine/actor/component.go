package actor

// Kind tags the concrete type of a Component. The set of kinds is closed, so the actor keeps
// one registry bucket per kind instead of querying components by type.
type Kind int

const (
	// KindStaticMesh marks a StaticMeshComponent.
	KindStaticMesh Kind = iota
)

func (k Kind) String() string {
	switch k {
	case KindStaticMesh:
		return "static_mesh"
	default:
		return "unknown"
	}
}

// Component is a named piece of behavior or geometry attached to an Actor.
type Component interface {
	// Name returns the component name, unique within its actor.
	//
	// Returns:
	//   - string: the component name
	Name() string

	// Kind returns the registry tag of the component.
	//
	// Returns:
	//   - Kind: the component kind
	Kind() Kind
}
