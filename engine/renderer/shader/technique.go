package shader

import (
	"errors"
	"fmt"
)

// ErrDuplicatePass is returned when a technique declares two passes with the same name.
var ErrDuplicatePass = errors.New("shader: duplicate pass name")

// technique is the implementation of the Technique interface.
type technique struct {
	name   string
	passes []Pass
	byName map[string]Pass
}

// Technique is an ordered collection of passes representing one render effect.
type Technique interface {
	// Name returns the technique name.
	//
	// Returns:
	//   - string: the technique name
	Name() string

	// Passes returns the passes in declaration order.
	//
	// Returns:
	//   - []Pass: the technique's passes
	Passes() []Pass

	// Pass returns the pass with the given name, or nil.
	//
	// Parameters:
	//   - name: the pass name
	//
	// Returns:
	//   - Pass: the pass or nil if not found
	Pass(name string) Pass
}

var _ Technique = &technique{}

// NewTechnique creates a Technique from an ordered list of passes.
//
// Parameters:
//   - name: the technique name
//   - passes: the passes in declaration order
//
// Returns:
//   - Technique: the technique
//   - error: ErrDuplicatePass if two passes share a name
func NewTechnique(name string, passes ...Pass) (Technique, error) {
	t := &technique{
		name:   name,
		passes: make([]Pass, 0, len(passes)),
		byName: make(map[string]Pass, len(passes)),
	}
	for _, p := range passes {
		if _, ok := t.byName[p.Name()]; ok {
			return nil, fmt.Errorf("technique %s: %w: %s", name, ErrDuplicatePass, p.Name())
		}
		t.byName[p.Name()] = p
		t.passes = append(t.passes, p)
	}
	return t, nil
}

func (t *technique) Name() string {
	return t.name
}

func (t *technique) Passes() []Pass {
	return t.passes
}

func (t *technique) Pass(name string) Pass {
	return t.byName[name]
}
