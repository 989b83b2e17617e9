package camera

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUFrameUniformSize is the byte size of GPUFrameUniform as laid out in WGSL.
const GPUFrameUniformSize = 80

// GPUFrameUniformSource is the WGSL declaration matching GPUFrameUniform. Shaders declare it in
// a buffer whose name carries the material frame-buffer marker so materials skip it.
const GPUFrameUniformSource = `struct PerFrame {
    view_proj: mat4x4<f32>,
    camera_position: vec3<f32>,
}
`

// GPUFrameUniform holds the per-frame constants a renderer uploads once for all draw commands.
// Layout (80 bytes, WGSL uniform aligned):
//
//	offset  0: view_proj       mat4x4<f32>
//	offset 64: camera_position vec3<f32>
//	offset 76: padding
type GPUFrameUniform struct {
	ViewProj       mgl32.Mat4
	CameraPosition mgl32.Vec3
}

// Marshal serializes the uniform into a little-endian buffer for GPU upload.
//
// Returns:
//   - []byte: GPUFrameUniformSize bytes
func (g GPUFrameUniform) Marshal() []byte {
	buf := make([]byte, GPUFrameUniformSize)
	for i, f := range g.ViewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	for i, f := range g.CameraPosition {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(f))
	}
	return buf
}
