// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned when image bytes are not in a decodable format.
var ErrUnsupportedImage = errors.New("common: unsupported image format")

// imageDecoders maps sniffed MIME types to their decoders.
var imageDecoders = map[string]func([]byte) (image.Image, error){
	"image/png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
	"image/jpeg": func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
	"image/gif":  func(b []byte) (image.Image, error) { return gif.Decode(bytes.NewReader(b)) },
	"image/bmp":  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
	"image/tiff": func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
	"image/webp": func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) },
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// DefaultSamplerStagingData returns linear filtering with repeat addressing.
//
// Returns:
//   - SamplerStagingData: the default sampler configuration
func DefaultSamplerStagingData() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// ImportedMaterial represents material properties from an imported model file.
// Name is the material slot the imported sections are tagged with.
type ImportedMaterial struct {
	// Name is the material slot name.
	Name string

	// BaseColor is the albedo/diffuse color (RGBA).
	BaseColor [4]float32

	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32

	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32

	// DiffuseTexture holds the base color texture, if present.
	DiffuseTexture *ImportedTexture

	// NormalTexture holds the normal map, if present.
	NormalTexture *ImportedTexture

	// MetallicRoughnessTexture holds the metallic/roughness map, if present.
	MetallicRoughnessTexture *ImportedTexture
}

// ImportedTexture represents texture data extracted from a model file or read from disk.
// For embedded textures the Data field holds the encoded image bytes.
// For external textures the Path field holds the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture.
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains encoded image bytes for embedded textures.
	Data []byte

	// MimeType is the sniffed image format, populated by Decode.
	MimeType string
}

// Decode decodes the texture to RGBA pixel data. The format is sniffed from the leading
// bytes, so file extensions and declared MIME types are not trusted.
// Supports PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// Returns:
//   - TextureStagingData: RGBA pixel data and dimensions
//   - error: ErrUnsupportedImage for unknown formats, or a decode error
func (t *ImportedTexture) Decode() (TextureStagingData, error) {
	if t == nil {
		return TextureStagingData{}, fmt.Errorf("texture is nil")
	}

	data := t.Data
	if len(data) == 0 {
		if t.Path == "" {
			return TextureStagingData{}, fmt.Errorf("texture %s has neither data nor path", t.Name)
		}
		var err error
		data, err = os.ReadFile(t.Path)
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to read texture file %s: %w", t.Path, err)
		}
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return TextureStagingData{}, fmt.Errorf("texture %s: %w", t.Name, ErrUnsupportedImage)
	}
	decode, ok := imageDecoders[kind.MIME.Value]
	if !ok {
		return TextureStagingData{}, fmt.Errorf("texture %s (%s): %w", t.Name, kind.MIME.Value, ErrUnsupportedImage)
	}
	t.MimeType = kind.MIME.Value

	img, err := decode(data)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode texture %s: %w", t.Name, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
