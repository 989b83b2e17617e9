package shader

import "strings"

// Semantic is the per-vertex attribute a shader input consumes. It is decided once when a
// pass is reflected so draw-command assembly never has to inspect semantic strings.
type Semantic int

const (
	// SemanticUnknown marks an input whose name matched none of the recognised tokens.
	SemanticUnknown Semantic = iota

	// SemanticPosition is the object-space vertex position.
	SemanticPosition

	// SemanticNormal is the vertex normal.
	SemanticNormal

	// SemanticTangent is the vertex tangent.
	SemanticTangent

	// SemanticColor is the per-vertex color.
	SemanticColor

	// SemanticTexCoord is the primary texture coordinate set.
	SemanticTexCoord
)

// semanticTokens is checked in order, the first token contained in a name wins.
var semanticTokens = []struct {
	token    string
	semantic Semantic
}{
	{"POSITION", SemanticPosition},
	{"NORMAL", SemanticNormal},
	{"TANGENT", SemanticTangent},
	{"COLOR", SemanticColor},
	{"TEXCOORD", SemanticTexCoord},
}

// ClassifySemantic maps a semantic name to a Semantic by case-sensitive substring match
// against POSITION, NORMAL, TANGENT, COLOR and TEXCOORD, in that order.
//
// Parameters:
//   - name: the semantic name, e.g. "TEXCOORD0"
//
// Returns:
//   - Semantic: the matched semantic, or SemanticUnknown
func ClassifySemantic(name string) Semantic {
	for _, t := range semanticTokens {
		if strings.Contains(name, t.token) {
			return t.semantic
		}
	}
	return SemanticUnknown
}

func (s Semantic) String() string {
	switch s {
	case SemanticPosition:
		return "POSITION"
	case SemanticNormal:
		return "NORMAL"
	case SemanticTangent:
		return "TANGENT"
	case SemanticColor:
		return "COLOR"
	case SemanticTexCoord:
		return "TEXCOORD"
	default:
		return "UNKNOWN"
	}
}
