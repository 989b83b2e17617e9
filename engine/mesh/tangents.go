package mesh

import "github.com/go-gl/mathgl/mgl32"

// computeTangents generates per-vertex tangents for tangent-space normal mapping. The w
// component holds the bitangent handedness. Triangles with a degenerate UV area are skipped.
//
// Parameters:
//   - positions: vertex positions
//   - normals: vertex normals, one per position
//   - uvs: texture coordinates, one per position
//   - indices: triangle list indices
//
// Returns:
//   - []mgl32.Vec4: one tangent per position
func computeTangents(positions, normals []mgl32.Vec3, uvs []mgl32.Vec2, indices []uint32) []mgl32.Vec4 {
	tangents := make([]mgl32.Vec3, len(positions))
	bitangents := make([]mgl32.Vec3, len(positions))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(max(i0, i1, i2)) >= len(positions) {
			continue
		}

		e1 := positions[i1].Sub(positions[i0])
		e2 := positions[i2].Sub(positions[i0])
		d1 := uvs[i1].Sub(uvs[i0])
		d2 := uvs[i2].Sub(uvs[i0])

		denom := d1[0]*d2[1] - d2[0]*d1[1]
		if denom == 0 {
			continue
		}
		r := 1 / denom

		t := e1.Mul(d2[1] * r).Sub(e2.Mul(d1[1] * r))
		b := e2.Mul(d1[0] * r).Sub(e1.Mul(d2[0] * r))
		for _, idx := range []uint32{i0, i1, i2} {
			tangents[idx] = tangents[idx].Add(t)
			bitangents[idx] = bitangents[idx].Add(b)
		}
	}

	out := make([]mgl32.Vec4, len(positions))
	for i := range positions {
		n := normals[i]
		// Gram-Schmidt against the normal
		t := tangents[i].Sub(n.Mul(n.Dot(tangents[i])))
		if t.LenSqr() < 1e-8 {
			if abs32(n[0]) < 0.9 {
				t = mgl32.Vec3{1, 0, 0}.Sub(n.Mul(n[0]))
			} else {
				t = mgl32.Vec3{0, 1, 0}.Sub(n.Mul(n[1]))
			}
		}
		t = t.Normalize()

		w := float32(1)
		if n.Cross(t).Dot(bitangents[i]) < 0 {
			w = -1
		}
		out[i] = t.Vec4(w)
	}
	return out
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
