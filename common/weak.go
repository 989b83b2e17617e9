package common

import "weak"

// WeakRef refers to a shared asset without keeping it alive. The zero WeakRef is always empty.
type WeakRef[I any] struct {
	value func() (I, bool)
}

// NewWeakRef makes a weak reference to p that yields it as I while it is still reachable.
// as must not capture p.
//
// Parameters:
//   - p: the referenced value
//   - as: converts the pointer to the handle type callers use
//
// Returns:
//   - WeakRef[I]: the weak reference
func NewWeakRef[T any, I any](p *T, as func(*T) I) WeakRef[I] {
	w := weak.Make(p)
	return WeakRef[I]{value: func() (I, bool) {
		if v := w.Value(); v != nil {
			return as(v), true
		}
		var zero I
		return zero, false
	}}
}

// Value returns the referenced value, or false once it has been collected.
func (w WeakRef[I]) Value() (I, bool) {
	if w.value == nil {
		var zero I
		return zero, false
	}
	return w.value()
}
