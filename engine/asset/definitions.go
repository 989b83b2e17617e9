package asset

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TechniqueDefinition is the YAML form of a shader technique. Shader paths are relative to the
// manager root. A pass without a fragment shader renders depth only.
//
//	name: lit
//	passes:
//	  - name: Forward
//	    vertex: shaders/lit.wgsl
//	    fragment: shaders/lit.wgsl
type TechniqueDefinition struct {
	Name   string           `yaml:"name"`
	Passes []PassDefinition `yaml:"passes"`
}

// PassDefinition is one pass of a TechniqueDefinition.
type PassDefinition struct {
	Name     string `yaml:"name"`
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment,omitempty"`
}

// MaterialDefinition is the YAML form of a material: its technique and initial parameter values.
//
//	name: brick
//	technique: techniques/lit.yaml
//	parameters:
//	  roughness: 0.8
//	  tint: [1, 0.9, 0.8, 1]
//	textures:
//	  albedo: textures/brick.png
type MaterialDefinition struct {
	Name       string                    `yaml:"name"`
	Technique  string                    `yaml:"technique"`
	Parameters map[string]ParameterValue `yaml:"parameters,omitempty"`
	Textures   map[string]string         `yaml:"textures,omitempty"`
}

// ParameterValue holds a scalar or a 2, 3 or 4 component vector. In YAML a scalar is a plain
// number and a vector is a flow sequence of numbers.
type ParameterValue []float32

// UnmarshalYAML accepts a number or a sequence of one to four numbers.
func (p *ParameterValue) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var f float32
		if err := value.Decode(&f); err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*p = ParameterValue{f}
		return nil
	case yaml.SequenceNode:
		var v []float32
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		if len(v) < 1 || len(v) > 4 {
			return fmt.Errorf("line %d: parameter has %d components, want 1 to 4", value.Line, len(v))
		}
		*p = v
		return nil
	default:
		return fmt.Errorf("line %d: parameter must be a number or a sequence of numbers", value.Line)
	}
}
