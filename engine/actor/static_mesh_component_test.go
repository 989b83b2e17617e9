package actor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"log/slog"
	"math"
	"testing"

	"github.com/Carmen-Shannon/prism/engine/mesh"
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinalizer struct {
	finalized []string
	err       error
}

func (f *fakeFinalizer) SwapChainFormats() (wgpu.TextureFormat, wgpu.TextureFormat) {
	return wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatDepth32Float
}

func (f *fakeFinalizer) FinalizePipeline(p pipeline.Pipeline) error {
	if f.err != nil {
		return f.err
	}
	f.finalized = append(f.finalized, p.Key())
	return nil
}

type fakeTextures struct {
	black texture.Texture
}

func (f *fakeTextures) DefaultTexture() texture.Texture {
	return f.black
}

// techlessMaterial is a material whose technique has gone missing.
type techlessMaterial struct {
	material.Material
}

func (techlessMaterial) Technique() shader.Technique {
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func litPass(name string, inputs ...string) shader.Pass {
	opts := []shader.PassBuilderOption{
		shader.WithConstantBuffer(shader.ConstantBuffer{
			Name: "cbPerFrame",
			Size: 64,
			Variables: []shader.ConstantBufferVariable{
				{Name: "viewProj", StartOffset: 0, Size: 64},
			},
		}),
		shader.WithConstantBuffer(shader.ConstantBuffer{
			Name: "Surface",
			Size: 32,
			Variables: []shader.ConstantBufferVariable{
				{Name: "tint", StartOffset: 0, Size: 16},
				{Name: "roughness", StartOffset: 16, Size: 4},
			},
		}),
		shader.WithTexture("albedo"),
	}
	for i, in := range inputs {
		opts = append(opts, shader.WithVertexInput(shader.NewVertexInput(uint32(i), in, wgpu.VertexFormatFloat32x3)))
	}
	return shader.NewPass(name, opts...)
}

func newMaterial(t *testing.T, name string, passes ...shader.Pass) material.Material {
	t.Helper()
	tech, err := shader.NewTechnique(name+"_tech", passes...)
	require.NoError(t, err)
	m, err := material.NewMaterial(name, tech, &fakeTextures{black: texture.NewSolidTexture(material.DefaultTextureName, color.RGBA{A: 255})})
	require.NoError(t, err)
	return m
}

func newMesh(slots ...string) mesh.StaticMesh {
	opts := []mesh.StaticMeshBuilderOption{
		mesh.WithPositions([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}),
		mesh.WithVertexBuffer(mesh.NewFloat32VertexBuffer(shader.SemanticNormal, 3, make([]float32, 12))),
		mesh.WithVertexBuffer(mesh.NewFloat32VertexBuffer(shader.SemanticTexCoord, 2, make([]float32, 8))),
		mesh.WithIndexBuffer(mesh.NewIndexBuffer([]uint32{0, 1, 2, 2, 1, 3})),
	}
	for i, slot := range slots {
		opts = append(opts, mesh.WithSection(mesh.Section{
			Slot:        slot,
			VertexStart: uint32(i),
			VertexCount: 3,
			IndexStart:  uint32(i * 3),
			IndexCount:  3,
		}))
	}
	return mesh.NewStaticMesh("quad", opts...)
}

func readFloat(buf []byte, off uint32) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestDrawCommandCountIsSectionsTimesPasses(t *testing.T) {
	mat := newMaterial(t, "lit",
		litPass("Forward", "POSITION", "NORMAL", "TEXCOORD0"),
		litPass("Shadow", "POSITION"),
	)
	m := newMesh("Body", "Trim", "Body")
	m.SetDefaultMaterial("Body", mat)
	m.SetDefaultMaterial("Trim", mat)

	fin := &fakeFinalizer{}
	c, err := NewStaticMeshComponent(WithName("crate"), WithFinalizer(fin), WithLogger(quietLogger()), WithStaticMesh(m))
	require.NoError(t, err)

	cmds := c.MeshDrawCommands()
	require.Len(t, cmds, 6)
	assert.Equal(t, StateReady, c.State())

	for i, cmd := range cmds {
		section := m.Sections()[i/2]
		assert.Equal(t, section.VertexStart, cmd.VertexStart)
		assert.Equal(t, section.VertexCount, cmd.VertexCount)
		assert.Equal(t, section.IndexStart, cmd.IndexStart)
		assert.Equal(t, section.IndexCount, cmd.IndexCount)
		assert.Same(t, m.IndexBuffer(), cmd.IndexBuffer)
	}
	assert.Equal(t, "Forward", cmds[0].Pass)
	assert.Equal(t, "Shadow", cmds[1].Pass)

	assert.Equal(t, []string{"crate/lit_tech/Forward", "crate/lit_tech/Shadow"}, fin.finalized)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, cmds[0].Pipeline.Topology())
	assert.Equal(t, pipeline.SampleMaskAll, cmds[0].Pipeline.SampleMask())
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, cmds[0].Pipeline.ColorFormat())
	assert.Equal(t, wgpu.TextureFormatDepth32Float, cmds[0].Pipeline.DepthFormat())
}

func TestVertexBuffersFollowDeclaredOrder(t *testing.T) {
	mat := newMaterial(t, "lit", litPass("Forward", "TEXCOORD0", "POSITION", "NORMAL"))
	m := newMesh("Body")
	m.SetDefaultMaterial("Body", mat)

	c, err := NewStaticMeshComponent(WithLogger(quietLogger()), WithStaticMesh(m))
	require.NoError(t, err)

	cmd := c.MeshDrawCommands()[0]
	require.Len(t, cmd.VertexBuffers, 3)
	assert.Same(t, m.VertexBuffer(shader.SemanticTexCoord), cmd.VertexBuffers[0])
	assert.Same(t, m.VertexBuffer(shader.SemanticPosition), cmd.VertexBuffers[1])
	assert.Same(t, m.VertexBuffer(shader.SemanticNormal), cmd.VertexBuffers[2])
}

func TestUnknownSemanticIsSkipped(t *testing.T) {
	var logs bytes.Buffer
	mat := newMaterial(t, "lit", litPass("Forward", "POSITION", "BLENDWEIGHT"))
	m := newMesh("Body")
	m.SetDefaultMaterial("Body", mat)

	c, err := NewStaticMeshComponent(WithName("crate"), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))), WithStaticMesh(m))
	require.NoError(t, err)

	require.Len(t, c.MeshDrawCommands(), 1)
	assert.Len(t, c.MeshDrawCommands()[0].VertexBuffers, 1)
	assert.Contains(t, logs.String(), "semantic=BLENDWEIGHT")
	assert.Contains(t, logs.String(), "pass=Forward")
}

func TestMissingVertexBufferIsFatal(t *testing.T) {
	mat := newMaterial(t, "lit", litPass("Forward", "POSITION", "TANGENT"))
	m := newMesh("Body")
	m.SetDefaultMaterial("Body", mat)

	c, err := NewStaticMeshComponent(WithLogger(quietLogger()))
	require.NoError(t, err)

	err = c.SetStaticMesh(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingVertexBuffer))
	assert.Empty(t, c.MeshDrawCommands())
	assert.Equal(t, StateEmpty, c.State())
}

func TestFinalizeErrorLeavesCacheEmpty(t *testing.T) {
	mat := newMaterial(t, "lit", litPass("Forward", "POSITION"))
	m := newMesh("Body")
	m.SetDefaultMaterial("Body", mat)
	boom := errors.New("device lost")

	_, err := NewStaticMeshComponent(WithFinalizer(&fakeFinalizer{err: boom}), WithStaticMesh(m))
	assert.ErrorIs(t, err, boom)
}

func TestSectionsWithoutMaterialAreSkipped(t *testing.T) {
	var logs bytes.Buffer
	mat := newMaterial(t, "lit", litPass("Forward", "POSITION"))
	m := newMesh("Body", "Orphan", "Broken")
	m.SetDefaultMaterial("Body", mat)
	m.SetDefaultMaterial("Broken", techlessMaterial{Material: mat})

	c, err := NewStaticMeshComponent(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))), WithStaticMesh(m))
	require.NoError(t, err)

	require.Len(t, c.MeshDrawCommands(), 1)
	assert.Equal(t, uint32(0), c.MeshDrawCommands()[0].VertexStart)
	assert.Equal(t, StateReady, c.State())
	assert.Contains(t, logs.String(), "slot=Orphan")
	assert.Contains(t, logs.String(), "slot=Broken")
}

func TestOverrideTakesPrecedence(t *testing.T) {
	base := newMaterial(t, "base", litPass("Forward", "POSITION"))
	override := newMaterial(t, "override", litPass("Forward", "POSITION"), litPass("Outline", "POSITION"))
	m := newMesh("Body", "Trim")
	m.SetDefaultMaterial("Body", base)
	m.SetDefaultMaterial("Trim", base)

	c, err := NewStaticMeshComponent(WithLogger(quietLogger()), WithStaticMesh(m))
	require.NoError(t, err)
	require.Len(t, c.MeshDrawCommands(), 2)

	require.NoError(t, c.SetMaterialOverride("Trim", override))
	cmds := c.MeshDrawCommands()
	require.Len(t, cmds, 3)
	assert.Equal(t, base, cmds[0].Material)
	assert.Equal(t, override, cmds[1].Material)
	assert.Equal(t, override, cmds[2].Material)
	assert.Equal(t, "Outline", cmds[2].Pass)
	assert.Equal(t, override, c.Material("Trim"))
	assert.Equal(t, base, c.Material("Body"))

	require.NoError(t, c.ClearMaterialOverride("Trim"))
	assert.Len(t, c.MeshDrawCommands(), 2)
	assert.Nil(t, c.MaterialOverride("Trim"))
}

func TestPipelineKeysSeparateTechniquesSharingAPassName(t *testing.T) {
	body := newMaterial(t, "a", litPass("Forward", "POSITION"))
	trim := newMaterial(t, "b", litPass("Forward", "POSITION"))
	m := newMesh("Body", "Trim")
	m.SetDefaultMaterial("Body", body)
	m.SetDefaultMaterial("Trim", trim)

	fin := &fakeFinalizer{}
	c, err := NewStaticMeshComponent(WithName("crate"), WithFinalizer(fin), WithLogger(quietLogger()), WithStaticMesh(m))
	require.NoError(t, err)

	cmds := c.MeshDrawCommands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "crate/a_tech/Forward", cmds[0].Pipeline.Key())
	assert.Equal(t, "crate/b_tech/Forward", cmds[1].Pipeline.Key())
	assert.NotSame(t, cmds[0].Pipeline.Pass(), cmds[1].Pipeline.Pass())

	require.NoError(t, c.Rebuild())
	assert.Equal(t, []string{"crate/a_tech/Forward", "crate/b_tech/Forward", "crate/a_tech/Forward", "crate/b_tech/Forward"}, fin.finalized)
}

func TestDrawCommandsAliasMaterialStorage(t *testing.T) {
	mat := newMaterial(t, "lit", litPass("Forward", "POSITION"))
	m := newMesh("Body")
	m.SetDefaultMaterial("Body", mat)

	c, err := NewStaticMeshComponent(WithLogger(quietLogger()), WithStaticMesh(m))
	require.NoError(t, err)
	cmd := c.MeshDrawCommands()[0]
	assert.NotContains(t, cmd.ConstantBuffers, "cbPerFrame")

	require.True(t, mat.SetFloatParameter("roughness", 0.75))
	assert.Equal(t, float32(0.75), readFloat(cmd.ConstantBuffers["Surface"], 16))

	red := texture.NewSolidTexture("red", color.RGBA{R: 255, A: 255})
	require.True(t, mat.SetTextureParameter("albedo", red))
	assert.Equal(t, red, cmd.Textures["albedo"])
}

func TestNilMeshResetsCache(t *testing.T) {
	mat := newMaterial(t, "lit", litPass("Forward", "POSITION"))
	m := newMesh("Body")
	m.SetDefaultMaterial("Body", mat)

	c, err := NewStaticMeshComponent(WithLogger(quietLogger()), WithStaticMesh(m))
	require.NoError(t, err)
	require.NotEmpty(t, c.MeshDrawCommands())

	require.NoError(t, c.SetStaticMesh(nil))
	assert.Empty(t, c.MeshDrawCommands())
	assert.Equal(t, StateEmpty, c.State())
	assert.Nil(t, c.Material("Body"))
}

func TestDefaultComponentName(t *testing.T) {
	a, err := NewStaticMeshComponent()
	require.NoError(t, err)
	b, err := NewStaticMeshComponent()
	require.NoError(t, err)

	assert.NotEmpty(t, a.Name())
	assert.NotEqual(t, a.Name(), b.Name())
	assert.Equal(t, KindStaticMesh, a.Kind())
	assert.Equal(t, StateEmpty, a.State())
}
