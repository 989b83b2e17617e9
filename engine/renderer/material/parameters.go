package material

import "github.com/Carmen-Shannon/prism/engine/texture"

// ConstantBufferVariableLocation identifies where a named value lives inside one pass's
// named constant-buffer blob.
type ConstantBufferVariableLocation struct {
	BufferName  string
	StartOffset uint32
	Size        uint32
}

// PassLocation pairs a pass name with a location inside that pass's constant buffers.
type PassLocation struct {
	Pass     string
	Location ConstantBufferVariableLocation
}

// ParameterEntry holds the current value of a scalar or vector parameter and every place
// the value is written to. The same name may live in several passes at independent offsets.
type ParameterEntry[T any] struct {
	value     T
	locations []PassLocation
}

// Value returns the parameter's current value.
func (e *ParameterEntry[T]) Value() T {
	return e.value
}

// Locations returns every (pass, buffer, offset) the parameter is written to.
func (e *ParameterEntry[T]) Locations() []PassLocation {
	return e.locations
}

// TextureParameterEntry holds the current texture of a texture parameter and the passes
// whose texture slots it is bound into.
type TextureParameterEntry struct {
	value          texture.Texture
	relevantPasses []string
}

// Value returns the bound texture, which may be nil.
func (e *TextureParameterEntry) Value() texture.Texture {
	return e.value
}

// RelevantPasses returns the passes referencing the texture, in declaration order.
func (e *TextureParameterEntry) RelevantPasses() []string {
	return e.relevantPasses
}

// parameterTable is one size-partitioned table of numeric parameters.
type parameterTable[T any] struct {
	size    uint32
	entries map[string]*ParameterEntry[T]
	encode  func([]byte, T)
}

func newParameterTable[T any](size uint32, encode func([]byte, T)) *parameterTable[T] {
	return &parameterTable[T]{
		size:    size,
		entries: make(map[string]*ParameterEntry[T]),
		encode:  encode,
	}
}

// add records a location for name, creating the entry on first use.
func (t *parameterTable[T]) add(name, pass string, loc ConstantBufferVariableLocation) {
	e, ok := t.entries[name]
	if !ok {
		e = &ParameterEntry[T]{}
		t.entries[name] = e
	}
	e.locations = append(e.locations, PassLocation{Pass: pass, Location: loc})
}

// set stores v and writes it at every location. Unknown names return false and touch nothing.
// Locations are validated at construction so the writes cannot fail part way through.
func (t *parameterTable[T]) set(name string, v T, blocks map[string]*PassParameterBlock) bool {
	e, ok := t.entries[name]
	if !ok {
		return false
	}
	e.value = v
	for _, pl := range e.locations {
		buf := blocks[pl.Pass].constantBuffers[pl.Location.BufferName]
		t.encode(buf[pl.Location.StartOffset:pl.Location.StartOffset+pl.Location.Size], v)
	}
	return true
}

func (t *parameterTable[T]) get(name string) (T, bool) {
	e, ok := t.entries[name]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// reset sets every entry back to the zero value without touching the blobs.
func (t *parameterTable[T]) reset() {
	var zero T
	for _, e := range t.entries {
		e.value = zero
	}
}
