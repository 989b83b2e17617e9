package scene

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/prism/engine/actor"
	"github.com/Carmen-Shannon/prism/engine/camera"
	"github.com/go-gl/mathgl/mgl32"
)

// DrawItem pairs a mesh draw command with the world transform of the actor that produced it.
type DrawItem struct {
	// ActorID identifies the owning actor.
	ActorID uint64

	// Transform is the actor's world transform at the time the list was built.
	Transform mgl32.Mat4

	// Command is the live draw command. Its constant buffers alias material storage.
	Command *actor.MeshDrawCommand
}

type scene struct {
	mu     *sync.RWMutex
	name   string
	active bool
	cam    camera.Camera

	// actors keeps insertion order, index maps an actor ID to its position
	actors []actor.Actor
	index  map[uint64]int

	logger *slog.Logger
	// optionErrs collects actors the builder options could not add
	optionErrs []error
}

// Scene manages an ordered set of Actors and flattens their static mesh components into a
// draw list. Scenes can be hot-swapped via the Active flag to switch between levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera, or nil.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// AddActor appends an actor to the scene.
	//
	// Parameters:
	//   - a: the actor to add
	//
	// Returns:
	//   - error: an error if an actor with the same ID is already in the scene
	AddActor(a actor.Actor) error

	// RemoveActor removes the actor with the given ID, keeping the order of the rest.
	//
	// Parameters:
	//   - id: the actor ID
	//
	// Returns:
	//   - bool: true if the actor was in the scene
	RemoveActor(id uint64) bool

	// Actor returns the actor with the given ID, or nil.
	Actor(id uint64) actor.Actor

	// Actors returns the scene's actors in insertion order.
	//
	// Returns:
	//   - []actor.Actor: a copy of the actor list
	Actors() []actor.Actor

	// Count returns the number of actors in the scene.
	Count() int

	// Clear removes every actor.
	Clear()

	// DrawCommands collects the draw commands of every enabled actor's static mesh components,
	// in actor insertion order and then component order. Disabled actors contribute nothing.
	//
	// Returns:
	//   - []DrawItem: the flattened draw list
	DrawCommands() []DrawItem
}

var _ Scene = &scene{}

// NewScene creates a new, empty Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   name,
		index:  make(map[uint64]int),
		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}
	for _, err := range s.optionErrs {
		s.logger.Warn("actor dropped", "scene", s.name, "error", err)
	}
	s.optionErrs = nil

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) AddActor(a actor.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(a)
}

// addLocked appends an actor. Caller must hold s.mu write lock.
func (s *scene) addLocked(a actor.Actor) error {
	if a == nil {
		return fmt.Errorf("scene %s: nil actor", s.name)
	}
	if _, exists := s.index[a.ID()]; exists {
		return fmt.Errorf("scene %s: actor %d (%s) already added", s.name, a.ID(), a.Name())
	}
	s.index[a.ID()] = len(s.actors)
	s.actors = append(s.actors, a)
	return nil
}

func (s *scene) RemoveActor(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, exists := s.index[id]
	if !exists {
		return false
	}
	s.actors = slices.Delete(s.actors, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.actors); j++ {
		s.index[s.actors[j].ID()] = j
	}
	return true
}

func (s *scene) Actor(id uint64) actor.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[id]; ok {
		return s.actors[i]
	}
	return nil
}

func (s *scene) Actors() []actor.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.actors)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.actors)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors = nil
	s.index = make(map[uint64]int)
}

func (s *scene) DrawCommands() []DrawItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []DrawItem
	for _, a := range s.actors {
		if !a.Enabled() {
			continue
		}
		cmds := a.MeshDrawCommands()
		if len(cmds) == 0 {
			continue
		}
		transform := a.Transform()
		for _, cmd := range cmds {
			items = append(items, DrawItem{ActorID: a.ID(), Transform: transform, Command: cmd})
		}
	}
	return items
}
