package material

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// putFloat32s writes each component as little-endian float32 bits into dst.
// dst must hold exactly 4 bytes per component.
//
// Parameters:
//   - dst: the destination slice inside a constant-buffer blob
//   - components: the float values to encode
func putFloat32s(dst []byte, components ...float32) {
	for i, c := range components {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], math.Float32bits(c))
	}
}

// readFloat32s decodes n little-endian float32 values from src.
//
// Parameters:
//   - src: the source bytes
//   - n: the number of components to read
//
// Returns:
//   - []float32: the decoded components
func readFloat32s(src []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4 : i*4+4]))
	}
	return out
}

func encodeFloat(dst []byte, v float32) {
	putFloat32s(dst, v)
}

func encodeVec2(dst []byte, v mgl32.Vec2) {
	putFloat32s(dst, v[:]...)
}

func encodeVec3(dst []byte, v mgl32.Vec3) {
	putFloat32s(dst, v[:]...)
}

func encodeVec4(dst []byte, v mgl32.Vec4) {
	putFloat32s(dst, v[:]...)
}

// ReadFloat decodes a float32 stored at offset in a constant-buffer blob.
//
// Parameters:
//   - buf: the constant-buffer blob
//   - offset: the byte offset of the value
//
// Returns:
//   - float32: the decoded value
func ReadFloat(buf []byte, offset uint32) float32 {
	return readFloat32s(buf[offset:], 1)[0]
}

// ReadVec4 decodes a vec4<f32> stored at offset in a constant-buffer blob.
//
// Parameters:
//   - buf: the constant-buffer blob
//   - offset: the byte offset of the value
//
// Returns:
//   - mgl32.Vec4: the decoded value
func ReadVec4(buf []byte, offset uint32) mgl32.Vec4 {
	f := readFloat32s(buf[offset:], 4)
	return mgl32.Vec4{f[0], f[1], f[2], f[3]}
}
