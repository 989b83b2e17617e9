package asset

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/mesh"
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned for asset files whose type the manager cannot load.
	ErrUnsupportedFormat = errors.New("asset: unsupported format")

	// ErrManagerClosed is returned by every load after Close.
	ErrManagerClosed = errors.New("asset: manager closed")
)

// Parameter names imported glTF materials are written to when the default technique declares them.
const (
	BaseColorParameter                = "base_color"
	MetallicParameter                 = "metallic"
	RoughnessParameter                = "roughness"
	DiffuseTextureParameter           = "diffuse"
	NormalTextureParameter            = "normal_map"
	MetallicRoughnessTextureParameter = "metallic_roughness"
)

// Uploader creates GPU resources for loaded assets. The renderer implements it.
type Uploader interface {
	// UploadStaticMesh creates GPU buffers for a mesh.
	UploadStaticMesh(m mesh.StaticMesh) error

	// UploadTexture creates the GPU texture and view of a texture.
	UploadTexture(tex texture.Texture) error
}

// manager is the implementation of the Manager interface.
type manager struct {
	mu     *sync.Mutex
	root   string
	logger *slog.Logger

	uploader         Uploader
	workers          int
	defaultTechnique string

	black texture.Texture

	textures   map[string]common.WeakRef[texture.Texture]
	meshes     map[string]common.WeakRef[mesh.StaticMesh]
	materials  map[string]common.WeakRef[material.Material]
	techniques map[string]shader.Technique

	// pinned keeps preloaded assets alive until Close
	pinned []any
	closed bool
}

// Manager is the asset cache. Textures, meshes and materials are shared: while a caller holds
// an asset, loading the same key again returns the same instance. The manager holds them
// weakly, so an asset nobody references is collected and loaded again on the next request.
// Techniques are small and held strongly.
//
// Manager is safe for concurrent use.
type Manager interface {
	material.TextureSource

	// Root returns the directory relative asset paths are resolved against.
	//
	// Returns:
	//   - string: the asset root
	Root() string

	// MakeTexture returns the texture stored at path, loading and uploading it on a cache miss.
	// The reserved name material.DefaultTextureName returns the 1x1 black default texture.
	//
	// Parameters:
	//   - path: the image path relative to the root
	//
	// Returns:
	//   - texture.Texture: the shared texture
	//   - error: a read, decode or upload error
	MakeTexture(path string) (texture.Texture, error)

	// MakeStaticMesh returns the glTF mesh stored at path, loading and uploading it on a cache miss.
	// When a default technique is configured, every imported glTF material becomes the
	// default material of its slot.
	//
	// Parameters:
	//   - path: the .gltf or .glb path relative to the root
	//
	// Returns:
	//   - mesh.StaticMesh: the shared mesh
	//   - error: a load or upload error
	MakeStaticMesh(path string) (mesh.StaticMesh, error)

	// MakeMaterial returns the material cached under name, creating it from technique on a miss.
	//
	// Parameters:
	//   - name: the material name
	//   - technique: the technique used when the material has to be created
	//
	// Returns:
	//   - material.Material: the shared material
	//   - error: a material construction error
	MakeMaterial(name string, technique shader.Technique) (material.Material, error)

	// MakeTechnique returns the technique defined by the YAML file at path.
	//
	// Parameters:
	//   - path: the technique definition path relative to the root
	//
	// Returns:
	//   - shader.Technique: the shared technique
	//   - error: a read, parse or reflection error
	MakeTechnique(path string) (shader.Technique, error)

	// LoadMaterial creates or reuses the material named in the YAML definition at path and
	// applies the parameter values and textures it lists. Names the technique does not
	// declare are logged and skipped.
	//
	// Parameters:
	//   - path: the material definition path relative to the root
	//
	// Returns:
	//   - material.Material: the shared material
	//   - error: a read, parse or load error
	LoadMaterial(path string) (material.Material, error)

	// Preload loads every listed asset concurrently and keeps the results cached until Close.
	// Failures do not stop the remaining loads; they are joined into the returned error.
	//
	// Parameters:
	//   - ctx: cancels assets that have not started loading yet
	//   - paths: the asset paths relative to the root
	//
	// Returns:
	//   - error: the joined load failures, or nil
	Preload(ctx context.Context, paths ...string) error

	// Close drops every cached and pinned asset. Later loads return ErrManagerClosed.
	Close()
}

var _ Manager = &manager{}

// NewManager creates an asset Manager with all specified options applied.
//
// Parameters:
//   - options: variadic list of ManagerBuilderOption functions
//
// Returns:
//   - Manager: the new asset manager
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &manager{
		mu:         &sync.Mutex{},
		root:       ".",
		logger:     slog.Default(),
		workers:    4,
		black:      texture.NewSolidTexture(material.DefaultTextureName, color.RGBA{A: 255}),
		textures:   make(map[string]common.WeakRef[texture.Texture]),
		meshes:     make(map[string]common.WeakRef[mesh.StaticMesh]),
		materials:  make(map[string]common.WeakRef[material.Material]),
		techniques: make(map[string]shader.Technique),
	}
	for _, opt := range options {
		opt(m)
	}
	m.workers = max(m.workers, 1)
	if m.uploader != nil {
		if err := m.uploader.UploadTexture(m.black); err != nil {
			m.logger.Error("default texture upload failed", "error", err)
		}
	}
	return m
}

func (m *manager) Root() string {
	return m.root
}

func (m *manager) DefaultTexture() texture.Texture {
	return m.black
}

// key normalizes a path into a cache key.
func key(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// resolve joins a relative path onto the root.
func (m *manager) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.root, path)
}

// lookup returns a live cached value, clearing the entry when its value was collected.
func lookup[I any](m *manager, cache map[string]common.WeakRef[I], k string) (I, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero I
	if m.closed {
		return zero, false, ErrManagerClosed
	}
	ref, ok := cache[k]
	if !ok {
		return zero, false, nil
	}
	if v, ok := ref.Value(); ok {
		return v, true, nil
	}
	delete(cache, k)
	return zero, false, nil
}

// store caches a freshly loaded value unless a concurrent load stored a live one first,
// in which case that one wins and is returned.
func store[I any](m *manager, cache map[string]common.WeakRef[I], k string, v I, ref common.WeakRef[I]) (I, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		var zero I
		return zero, ErrManagerClosed
	}
	if existing, ok := cache[k].Value(); ok {
		return existing, nil
	}
	cache[k] = ref
	return v, nil
}

func (m *manager) MakeTexture(path string) (texture.Texture, error) {
	if path == material.DefaultTextureName {
		return m.black, nil
	}
	k := key(path)
	if tex, ok, err := lookup(m, m.textures, k); ok || err != nil {
		return tex, err
	}

	tex, err := texture.Load(k, m.resolve(path))
	if err != nil {
		if errors.Is(err, common.ErrUnsupportedImage) {
			return nil, fmt.Errorf("texture %q: %w: %w", k, ErrUnsupportedFormat, err)
		}
		return nil, err
	}
	return m.storeTexture(k, tex)
}

// storeTexture uploads and caches a texture that was just decoded.
func (m *manager) storeTexture(k string, tex texture.Texture) (texture.Texture, error) {
	if m.uploader != nil {
		if err := m.uploader.UploadTexture(tex); err != nil {
			return nil, err
		}
	}
	return store(m, m.textures, k, tex, texture.WeakRef(tex))
}

func (m *manager) MakeStaticMesh(path string) (mesh.StaticMesh, error) {
	k := key(path)
	if sm, ok, err := lookup(m, m.meshes, k); ok || err != nil {
		return sm, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".gltf" && ext != ".glb" {
		return nil, fmt.Errorf("mesh %q: %w", k, ErrUnsupportedFormat)
	}
	sm, imported, err := mesh.LoadGLTF(m.resolve(path))
	if err != nil {
		return nil, err
	}
	if m.defaultTechnique != "" {
		if err := m.importMaterials(k, sm, imported); err != nil {
			return nil, err
		}
	}
	if m.uploader != nil {
		if err := m.uploader.UploadStaticMesh(sm); err != nil {
			return nil, err
		}
	}
	m.logger.Debug("mesh loaded", "path", k, "sections", len(sm.Sections()))
	return store(m, m.meshes, k, sm, mesh.WeakRef(sm))
}

// importMaterials builds one material per imported glTF material with the default technique
// and assigns it as the default material of the matching slot.
func (m *manager) importMaterials(meshKey string, sm mesh.StaticMesh, imported []common.ImportedMaterial) error {
	technique, err := m.MakeTechnique(m.defaultTechnique)
	if err != nil {
		return fmt.Errorf("mesh %q default technique: %w", meshKey, err)
	}
	for _, im := range imported {
		mat, err := m.MakeMaterial(meshKey+"#"+im.Name, technique)
		if err != nil {
			return fmt.Errorf("mesh %q material %q: %w", meshKey, im.Name, err)
		}
		mat.SetVector4Parameter(BaseColorParameter, mgl32.Vec4(im.BaseColor))
		mat.SetFloatParameter(MetallicParameter, im.Metallic)
		mat.SetFloatParameter(RoughnessParameter, im.Roughness)

		for param, src := range map[string]*common.ImportedTexture{
			DiffuseTextureParameter:           im.DiffuseTexture,
			NormalTextureParameter:            im.NormalTexture,
			MetallicRoughnessTextureParameter: im.MetallicRoughnessTexture,
		} {
			if src == nil {
				continue
			}
			tex, err := m.importedTexture(meshKey, src)
			if err != nil {
				m.logger.Warn("skipping imported texture", "mesh", meshKey, "texture", src.Name, "error", err)
				continue
			}
			mat.SetTextureParameter(param, tex)
		}
		sm.SetDefaultMaterial(im.Name, mat)
	}
	return nil
}

// importedTexture loads a texture referenced by a glTF file. External images are cached by
// their path, embedded ones by mesh key and image name.
func (m *manager) importedTexture(meshKey string, src *common.ImportedTexture) (texture.Texture, error) {
	if src.Path != "" {
		if rel, err := filepath.Rel(m.root, src.Path); err == nil && !strings.HasPrefix(rel, "..") {
			return m.MakeTexture(rel)
		}
		return m.MakeTexture(src.Path)
	}
	k := meshKey + "#" + src.Name
	if tex, ok, err := lookup(m, m.textures, k); ok || err != nil {
		return tex, err
	}
	tex, err := texture.Decode(k, src)
	if err != nil {
		return nil, err
	}
	return m.storeTexture(k, tex)
}

func (m *manager) MakeMaterial(name string, technique shader.Technique) (material.Material, error) {
	if mat, ok, err := lookup(m, m.materials, name); ok || err != nil {
		return mat, err
	}
	mat, err := material.NewMaterial(name, technique, m)
	if err != nil {
		return nil, err
	}
	return store(m, m.materials, name, mat, material.WeakRef(mat))
}

func (m *manager) MakeTechnique(path string) (shader.Technique, error) {
	k := key(path)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if tech, ok := m.techniques[k]; ok {
		m.mu.Unlock()
		return tech, nil
	}
	m.mu.Unlock()

	var def TechniqueDefinition
	if err := m.readYAML(path, &def); err != nil {
		return nil, fmt.Errorf("technique %q: %w", k, err)
	}
	name := cmp.Or(def.Name, k)

	passes := make([]shader.Pass, 0, len(def.Passes))
	for _, pd := range def.Passes {
		pass, err := m.reflectPass(name, pd)
		if err != nil {
			return nil, fmt.Errorf("technique %q: %w", k, err)
		}
		passes = append(passes, pass)
	}
	tech, err := shader.NewTechnique(name, passes...)
	if err != nil {
		return nil, fmt.Errorf("technique %q: %w", k, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.techniques[k]; ok {
		return existing, nil
	}
	m.techniques[k] = tech
	return tech, nil
}

// reflectPass loads and reflects the shaders of one pass definition.
func (m *manager) reflectPass(technique string, pd PassDefinition) (shader.Pass, error) {
	if pd.Vertex == "" {
		return nil, fmt.Errorf("pass %q has no vertex shader", pd.Name)
	}
	vs, err := shader.LoadShader(technique+"/"+pd.Name+"/vs", shader.ShaderTypeVertex, m.resolve(pd.Vertex))
	if err != nil {
		return nil, err
	}
	var fs shader.Shader
	if pd.Fragment != "" {
		if fs, err = shader.LoadShader(technique+"/"+pd.Name+"/fs", shader.ShaderTypeFragment, m.resolve(pd.Fragment)); err != nil {
			return nil, err
		}
	}
	return shader.ReflectPass(pd.Name, vs, fs)
}

func (m *manager) LoadMaterial(path string) (material.Material, error) {
	k := key(path)
	var def MaterialDefinition
	if err := m.readYAML(path, &def); err != nil {
		return nil, fmt.Errorf("material %q: %w", k, err)
	}
	if def.Technique == "" {
		return nil, fmt.Errorf("material %q: no technique", k)
	}
	technique, err := m.MakeTechnique(def.Technique)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", k, err)
	}
	mat, err := m.MakeMaterial(cmp.Or(def.Name, k), technique)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", k, err)
	}

	for name, value := range def.Parameters {
		if !applyParameter(mat, name, value) {
			m.logger.Warn("unknown material parameter", "material", mat.Name(), "parameter", name, "components", len(value))
		}
	}
	for name, texPath := range def.Textures {
		tex, err := m.MakeTexture(texPath)
		if err != nil {
			return nil, fmt.Errorf("material %q texture %q: %w", k, name, err)
		}
		if !mat.SetTextureParameter(name, tex) {
			m.logger.Warn("unknown material texture", "material", mat.Name(), "parameter", name)
		}
	}
	return mat, nil
}

// applyParameter sets a parameter through the setter matching its component count.
func applyParameter(mat material.Material, name string, v ParameterValue) bool {
	switch len(v) {
	case 1:
		return mat.SetFloatParameter(name, v[0])
	case 2:
		return mat.SetVector2Parameter(name, mgl32.Vec2{v[0], v[1]})
	case 3:
		return mat.SetVector3Parameter(name, mgl32.Vec3{v[0], v[1], v[2]})
	case 4:
		return mat.SetVector4Parameter(name, mgl32.Vec4{v[0], v[1], v[2], v[3]})
	default:
		return false
	}
}

// readYAML decodes a YAML file under the root, rejecting unknown fields.
func (m *manager) readYAML(path string, out any) error {
	f, err := os.Open(m.resolve(path))
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (m *manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	clear(m.textures)
	clear(m.meshes)
	clear(m.materials)
	clear(m.techniques)
	m.pinned = nil
	m.black.Release()
}
