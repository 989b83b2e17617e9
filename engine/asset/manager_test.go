package asset

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/prism/engine/mesh"
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu       sync.Mutex
	meshes   []string
	textures []string
}

func (f *fakeUploader) UploadStaticMesh(m mesh.StaticMesh) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meshes = append(f.meshes, m.Name())
	return nil
}

func (f *fakeUploader) UploadTexture(tex texture.Texture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textures = append(f.textures, tex.Name())
	return nil
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeGLB(t *testing.T, path string) {
	t.Helper()
	doc := gltf.NewDocument()
	doc.Materials = []*gltf.Material{{Name: "Brick"}}
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint32{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Material:   gltf.Index(0),
			Attributes: gltf.PrimitiveAttributes{gltf.POSITION: pos, gltf.NORMAL: nrm, gltf.TEXCOORD_0: uv},
		}},
	}}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, gltf.SaveBinary(doc, path))
}

// newAssetRoot lays out a technique, a material, a texture and a mesh under a temp dir.
func newAssetRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	wgsl, err := os.ReadFile(filepath.Join("..", "renderer", "shader", "testdata", "lit.wgsl"))
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "shaders", "lit.wgsl"), wgsl)

	writeFile(t, filepath.Join(root, "techniques", "lit.yaml"), []byte(`name: lit
passes:
  - name: forward
    vertex: shaders/lit.wgsl
    fragment: shaders/lit.wgsl
`))
	writeFile(t, filepath.Join(root, "materials", "brick.yaml"), []byte(`name: brick
technique: techniques/lit.yaml
parameters:
  tint: [0.5, 0.25, 1, 1]
  roughness: 0.75
  uv_scale: [2, 3]
  glossiness: 1
textures:
  albedo: textures/brick.png
  detail: textures/brick.png
`))
	writePNG(t, filepath.Join(root, "textures", "brick.png"))
	writeGLB(t, filepath.Join(root, "meshes", "tri.glb"))
	return root
}

func TestManagerMakeTextureShared(t *testing.T) {
	root := newAssetRoot(t)
	up := &fakeUploader{}
	m := NewManager(WithRoot(root), WithUploader(up))

	a, err := m.MakeTexture("textures/brick.png")
	require.NoError(t, err)
	b, err := m.MakeTexture("textures/./brick.png")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, uint32(2), a.Width())
	assert.Equal(t, []string{material.DefaultTextureName, "textures/brick.png"}, up.textures)
}

func TestManagerDefaultTexture(t *testing.T) {
	m := NewManager(WithRoot(t.TempDir()))

	black, err := m.MakeTexture(material.DefaultTextureName)
	require.NoError(t, err)
	assert.Same(t, m.DefaultTexture(), black)
	assert.Equal(t, []byte{0, 0, 0, 255}, black.Pixels())
}

func TestManagerMakeTextureErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.png"), []byte("definitely not an image"))
	m := NewManager(WithRoot(root))

	_, err := m.MakeTexture("notes.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = m.MakeTexture("missing.png")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestManagerMakeTechnique(t *testing.T) {
	m := NewManager(WithRoot(newAssetRoot(t)))

	tech, err := m.MakeTechnique("techniques/lit.yaml")
	require.NoError(t, err)
	assert.Equal(t, "lit", tech.Name())
	require.Len(t, tech.Passes(), 1)
	assert.Equal(t, "forward", tech.Passes()[0].Name())
	assert.NotEmpty(t, tech.Passes()[0].VertexInputs())

	again, err := m.MakeTechnique("techniques/lit.yaml")
	require.NoError(t, err)
	assert.Same(t, tech, again)
}

func TestManagerMakeTechniqueBadDefinition(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.yaml"), []byte("name: x\npasses:\n  - name: p\n    fragment: f.wgsl\n"))
	writeFile(t, filepath.Join(root, "typo.yaml"), []byte("name: x\npasess: []\n"))
	m := NewManager(WithRoot(root))

	_, err := m.MakeTechnique("bad.yaml")
	assert.ErrorContains(t, err, "no vertex shader")

	_, err = m.MakeTechnique("typo.yaml")
	assert.Error(t, err)
}

func TestManagerLoadMaterial(t *testing.T) {
	root := newAssetRoot(t)
	m := NewManager(WithRoot(root))

	mat, err := m.LoadMaterial("materials/brick.yaml")
	require.NoError(t, err)
	assert.Equal(t, "brick", mat.Name())

	tint, ok := mat.Vector4Parameter("tint")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{0.5, 0.25, 1, 1}, tint)

	rough, ok := mat.FloatParameter("roughness")
	require.True(t, ok)
	assert.Equal(t, float32(0.75), rough)

	scale, ok := mat.Vector2Parameter("uv_scale")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec2{2, 3}, scale)

	albedo, ok := mat.TextureParameter("albedo")
	require.True(t, ok)
	brick, err := m.MakeTexture("textures/brick.png")
	require.NoError(t, err)
	assert.Same(t, brick, albedo)

	same, err := m.MakeMaterial("brick", mat.Technique())
	require.NoError(t, err)
	assert.Same(t, mat, same)
}

func TestManagerMakeStaticMesh(t *testing.T) {
	root := newAssetRoot(t)
	up := &fakeUploader{}
	m := NewManager(WithRoot(root), WithUploader(up), WithDefaultTechnique("techniques/lit.yaml"))

	sm, err := m.MakeStaticMesh("meshes/tri.glb")
	require.NoError(t, err)
	again, err := m.MakeStaticMesh("meshes/tri.glb")
	require.NoError(t, err)
	assert.Same(t, sm, again)
	assert.Len(t, up.meshes, 1)

	mat := sm.DefaultMaterial("Brick")
	require.NotNil(t, mat)
	assert.Equal(t, "meshes/tri.glb#Brick", mat.Name())
	assert.Equal(t, "lit", mat.Technique().Name())
}

func TestManagerMakeStaticMeshWithoutTechnique(t *testing.T) {
	m := NewManager(WithRoot(newAssetRoot(t)))

	sm, err := m.MakeStaticMesh("meshes/tri.glb")
	require.NoError(t, err)
	assert.Nil(t, sm.DefaultMaterial("Brick"))

	_, err = m.MakeStaticMesh("meshes/tri.obj")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestManagerPreload(t *testing.T) {
	root := newAssetRoot(t)
	m := NewManager(WithRoot(root), WithWorkers(2))

	err := m.Preload(context.Background(),
		"textures/brick.png",
		"meshes/tri.glb",
		"materials/brick.yaml",
		"notes.txt",
		"textures/missing.png",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, err, os.ErrNotExist)

	impl := m.(*manager)
	impl.mu.Lock()
	assert.Len(t, impl.pinned, 3)
	impl.mu.Unlock()
}

func TestManagerPreloadCanceled(t *testing.T) {
	m := NewManager(WithRoot(newAssetRoot(t)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Preload(ctx, "textures/brick.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManagerClose(t *testing.T) {
	m := NewManager(WithRoot(newAssetRoot(t)))
	_, err := m.MakeTexture("textures/brick.png")
	require.NoError(t, err)

	m.Close()
	m.Close()

	_, err = m.MakeTexture("textures/brick.png")
	assert.ErrorIs(t, err, ErrManagerClosed)
	_, err = m.MakeTechnique("techniques/lit.yaml")
	assert.ErrorIs(t, err, ErrManagerClosed)
}
