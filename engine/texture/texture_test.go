package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewSolidTexture(t *testing.T) {
	tex := NewSolidTexture("Black", color.RGBA{A: 255})

	assert.Equal(t, "Black", tex.Name())
	assert.Equal(t, uint32(1), tex.Width())
	assert.Equal(t, uint32(1), tex.Height())
	assert.Equal(t, []byte{0, 0, 0, 255}, tex.Pixels())
	assert.Nil(t, tex.View())
}

func TestDecodeEmbeddedPNG(t *testing.T) {
	data := encodePNG(t, 3, 2, color.RGBA{R: 200, G: 10, B: 20, A: 255})
	src := &common.ImportedTexture{Name: "albedo", Data: data}

	tex, err := Decode("albedo", src)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), tex.Width())
	assert.Equal(t, uint32(2), tex.Height())
	assert.Len(t, tex.Pixels(), 3*2*4)
	assert.Equal(t, []byte{200, 10, 20, 255}, tex.Pixels()[:4])
	assert.Equal(t, "image/png", src.MimeType)
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.dat")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 2, 2, color.RGBA{G: 255, A: 255}), 0o644))

	tex, err := Load("tile", path)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tex.Width())
}

func TestDecodeRejectsUnknownData(t *testing.T) {
	_, err := Decode("junk", &common.ImportedTexture{Name: "junk", Data: []byte("definitely not an image")})
	assert.ErrorIs(t, err, common.ErrUnsupportedImage)
}
